package rsmcdoc

import (
	"github.com/goccy/go-json"

	"github.com/Hardel-DW/rsmcdoc/datapack"
	"github.com/Hardel-DW/rsmcdoc/validate"
)

// ErrorReport is one validation error in the serialized boundary
// shape.
type ErrorReport struct {
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// DependencyReport is one extracted dependency in boundary shape.
type DependencyReport struct {
	Registry string `json:"registry"`
	Value    string `json:"value"`
	Path     string `json:"path"`
}

// Report is the serialized form of one validation result.
type Report struct {
	IsValid      bool               `json:"isValid"`
	Errors       []ErrorReport      `json:"errors"`
	Dependencies []DependencyReport `json:"dependencies"`
}

// NewReport converts a validation result into its boundary shape.
func NewReport(res validate.Result) Report {
	out := Report{
		IsValid:      res.IsValid,
		Errors:       make([]ErrorReport, 0, len(res.Errors)),
		Dependencies: make([]DependencyReport, 0, len(res.Dependencies)),
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, ErrorReport{Kind: e.Kind.String(), Path: e.Path, Message: e.Message})
	}
	for _, d := range res.Dependencies {
		out.Dependencies = append(out.Dependencies, DependencyReport{Registry: d.Registry, Value: d.Value, Path: d.Path})
	}
	return out
}

// FileDependencyReport tags a dependency with its originating file.
type FileDependencyReport struct {
	File     string `json:"file"`
	Registry string `json:"registry"`
	Value    string `json:"value"`
	Path     string `json:"path"`
}

// DatapackReport is the serialized form of a whole-datapack analysis.
type DatapackReport struct {
	IsValid        bool                     `json:"isValid"`
	FilesProcessed int                      `json:"filesProcessed"`
	FilesFailed    int                      `json:"filesFailed"`
	ErrorsByFile   map[string][]ErrorReport `json:"errorsByFile"`
	Dependencies   []FileDependencyReport   `json:"dependencies"`
}

// NewDatapackReport converts an analyzer result into boundary shape.
func NewDatapackReport(res datapack.Result) DatapackReport {
	out := DatapackReport{
		IsValid:        res.IsValid,
		FilesProcessed: res.FilesProcessed,
		FilesFailed:    res.FilesFailed,
		ErrorsByFile:   make(map[string][]ErrorReport, len(res.ErrorsByFile)),
		Dependencies:   make([]FileDependencyReport, 0, len(res.Dependencies)),
	}
	for file, errs := range res.ErrorsByFile {
		reports := make([]ErrorReport, 0, len(errs))
		for _, e := range errs {
			reports = append(reports, ErrorReport{Kind: e.Kind.String(), Path: e.Path, Message: e.Message})
		}
		out.ErrorsByFile[file] = reports
	}
	for _, d := range res.Dependencies {
		out.Dependencies = append(out.Dependencies, FileDependencyReport{
			File: d.File, Registry: d.Registry, Value: d.Value, Path: d.Path,
		})
	}
	return out
}

// JSON renders the report with the module's JSON codec.
func (r Report) JSON() ([]byte, error) {
	return json.Marshal(r)
}

func (r DatapackReport) JSON() ([]byte, error) {
	return json.Marshal(r)
}
