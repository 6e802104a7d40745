// Package datapack orchestrates validation over a whole datapack
// tree: it infers each file's resource type from its
// path, decodes the JSON, runs the validator, and aggregates results
// tagged with the originating file.
package datapack

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/Hardel-DW/rsmcdoc/validate"
	"github.com/Hardel-DW/rsmcdoc/version"
)

// InferResourceType derives the dispatcher discriminant from a
// datapack-relative path of the shape data/<namespace>/<category>/...
// as "minecraft:<category>". Only the path shape is checked here; a
// category no schema dispatches on fails later as UnknownDispatchKey.
func InferResourceType(path string) (string, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	dataIdx := -1
	for i, p := range parts {
		if p == "data" {
			dataIdx = i
			break
		}
	}
	// Need a namespace, a category, and at least the file itself.
	if dataIdx == -1 || dataIdx+3 >= len(parts) {
		return "", fmt.Errorf("path %q does not match data/<namespace>/<category>/...", path)
	}
	return "minecraft:" + parts[dataIdx+2], nil
}

// FileError is a validation error tagged with its originating file.
type FileError struct {
	File string
	validate.ValidationError
}

// FileDependency is a dependency tagged with its originating file.
type FileDependency struct {
	File string
	validate.Dependency
}

// Result aggregates one Analyze call.
type Result struct {
	IsValid        bool
	FilesProcessed int
	FilesFailed    int
	Errors         []FileError
	ErrorsByFile   map[string][]validate.ValidationError
	Dependencies   []FileDependency
}

// Analyzer drives the validator over path→bytes maps. The underlying
// validator is shared and read-only, so an Analyzer is safe to reuse
// across calls.
type Analyzer struct {
	v *validate.Validator
}

func New(v *validate.Validator) *Analyzer {
	return &Analyzer{v: v}
}

// Analyze validates every file at the init-time version.
func (a *Analyzer) Analyze(files map[string][]byte) Result {
	return a.analyze(files, a.v)
}

// AnalyzeAt validates every file at an overridden version.
func (a *Analyzer) AnalyzeAt(files map[string][]byte, active version.Version) Result {
	return a.analyze(files, a.v.WithVersion(active))
}

func (a *Analyzer) analyze(files map[string][]byte, v *validate.Validator) Result {
	res := Result{
		IsValid:      true,
		ErrorsByFile: make(map[string][]validate.ValidationError),
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		res.FilesProcessed++

		resourceType, err := InferResourceType(path)
		if err != nil {
			res.record(path, []validate.ValidationError{{
				Kind:    validate.SchemaError,
				Message: err.Error(),
			}}, nil)
			continue
		}

		raw := files[path]
		if !utf8.Valid(raw) {
			res.record(path, []validate.ValidationError{{
				Kind:    validate.SchemaError,
				Message: fmt.Sprintf("%s:0:0: file is not valid UTF-8", path),
			}}, nil)
			continue
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			res.record(path, []validate.ValidationError{{
				Kind:    validate.SchemaError,
				Message: fmt.Sprintf("%s:0:0: invalid JSON: %v", path, err),
			}}, nil)
			continue
		}

		fileRes := v.Validate(doc, resourceType)
		res.record(path, fileRes.Errors, fileRes.Dependencies)
	}

	return res
}

func (r *Result) record(path string, errs []validate.ValidationError, deps []validate.Dependency) {
	if len(errs) > 0 {
		r.IsValid = false
		r.FilesFailed++
		r.ErrorsByFile[path] = append(r.ErrorsByFile[path], errs...)
		for _, e := range errs {
			r.Errors = append(r.Errors, FileError{File: path, ValidationError: e})
		}
	}
	for _, d := range deps {
		r.Dependencies = append(r.Dependencies, FileDependency{File: path, Dependency: d})
	}
}
