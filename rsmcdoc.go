// Package rsmcdoc validates Minecraft datapack resources against
// MCDOC schemas and extracts the cross-resource dependencies each
// validated document relies on. A Validator is built once from a
// schema bundle, a registry snapshot, and a game version, and is
// thereafter read-only: every Validate/AnalyzeDatapack call works on
// the same immutable Schema Index and Registry Store.
package rsmcdoc

import (
	"fmt"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/Hardel-DW/rsmcdoc/ast"
	"github.com/Hardel-DW/rsmcdoc/datapack"
	"github.com/Hardel-DW/rsmcdoc/parser"
	"github.com/Hardel-DW/rsmcdoc/registry"
	"github.com/Hardel-DW/rsmcdoc/resolver"
	"github.com/Hardel-DW/rsmcdoc/validate"
	"github.com/Hardel-DW/rsmcdoc/version"
)

// Validator is one initialized schema+registry+version snapshot.
type Validator struct {
	idx      *resolver.SchemaIndex
	store    *registry.Store
	active   version.Version
	units    []*ast.SchemaUnit
	core     *validate.Validator
	analyzer *datapack.Analyzer
}

// New builds a Validator from MCDOC sources (logical filename →
// source text, where "a/b/c.mcdoc" establishes module path "a::b::c"),
// a registry snapshot, and the active game version. Schema syntax and
// resolution problems do not fail New; they surface later on
// validations that depend on the affected schemas. New
// fails hard only on structurally invalid inputs: an unparseable
// version, non-UTF-8 schema source, or a registry value that is
// neither a sequence nor an object of sequences.
func New(mcdocFiles map[string]string, registries map[string]any, gameVersion string) (*Validator, error) {
	active, err := version.Parse(gameVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid game version %q: %w", gameVersion, err)
	}

	normalized, err := NormalizeRegistries(registries)
	if err != nil {
		return nil, err
	}
	store := registry.Load(normalized)

	units := make([]*ast.SchemaUnit, 0, len(mcdocFiles))
	for name, src := range mcdocFiles {
		if !utf8.ValidString(src) {
			return nil, fmt.Errorf("mcdoc file %q is not valid UTF-8", name)
		}
		units = append(units, parser.Parse(src, parser.ModulePathFromFilename(name)))
	}

	idx := resolver.Resolve(units)
	core := validate.New(idx, store, active)
	return &Validator{
		idx:      idx,
		store:    store,
		active:   active,
		units:    units,
		core:     core,
		analyzer: datapack.New(core),
	}, nil
}

// NewFromJSON is New with the registry snapshot still in its
// serialized form, as host bindings hand it over. A top-level value
// that is not a JSON object is a hard failure.
func NewFromJSON(mcdocFiles map[string]string, registriesJSON []byte, gameVersion string) (*Validator, error) {
	var raw any
	if err := json.Unmarshal(registriesJSON, &raw); err != nil {
		return nil, fmt.Errorf("invalid registry JSON: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("registry snapshot must be a JSON object, got %s", jsonKindName(raw))
	}
	return New(mcdocFiles, obj, gameVersion)
}

// NormalizeRegistries flattens the accepted registry input shapes:
// each registry's value may be a sequence of identifiers or an object
// whose values are sequences. Duplicates are tolerated
// and deduplicated by the Store.
func NormalizeRegistries(registries map[string]any) (map[string][]string, error) {
	out := make(map[string][]string, len(registries))
	for name, raw := range registries {
		values, err := flattenRegistryValue(raw)
		if err != nil {
			return nil, fmt.Errorf("registry %q: %w", name, err)
		}
		out[name] = values
	}
	return out, nil
}

func flattenRegistryValue(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("sequence entries must be strings, got %s", jsonKindName(item))
			}
			out = append(out, s)
		}
		return out, nil
	case map[string]any:
		var out []string
		for _, nested := range v {
			inner, err := flattenRegistryValue(nested)
			if err != nil {
				return nil, err
			}
			out = append(out, inner...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value must be a sequence or an object of sequences, got %s", jsonKindName(raw))
	}
}

func jsonKindName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// SchemaErrors reports the parse and resolution diagnostics
// accumulated while building this Validator's Schema Index. New does
// not fail on these; callers that want a strict mode check here.
func (v *Validator) SchemaErrors() []resolver.SchemaError {
	out := make([]resolver.SchemaError, 0, len(v.idx.Errors))
	for _, u := range v.units {
		for _, e := range u.Errors {
			out = append(out, resolver.SchemaError{Message: e.Message, Span: e.Span})
		}
	}
	return append(out, v.idx.Errors...)
}

// Version returns the init-time active game version.
func (v *Validator) Version() version.Version { return v.active }

// Validate checks one decoded JSON document against the schema
// registered for resourceType at the init-time version.
func (v *Validator) Validate(doc any, resourceType string) validate.Result {
	return v.core.Validate(doc, resourceType)
}

// ValidateAt is Validate with a per-call version override.
func (v *Validator) ValidateAt(doc any, resourceType, gameVersion string) (validate.Result, error) {
	active, err := version.Parse(gameVersion)
	if err != nil {
		return validate.Result{}, fmt.Errorf("invalid game version %q: %w", gameVersion, err)
	}
	return v.core.WithVersion(active).Validate(doc, resourceType), nil
}

// ValidateJSON decodes raw JSON bytes and validates them. A document
// that does not decode is an error here, not a ValidationError: the
// JSON parser is upstream of the validator.
func (v *Validator) ValidateJSON(raw []byte, resourceType string) (validate.Result, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return validate.Result{}, fmt.Errorf("invalid JSON document: %w", err)
	}
	return v.core.Validate(doc, resourceType), nil
}

// AnalyzeDatapack validates a whole path→bytes tree.
func (v *Validator) AnalyzeDatapack(files map[string][]byte) datapack.Result {
	return v.analyzer.Analyze(files)
}

// AnalyzeDatapackAt is AnalyzeDatapack with a version override.
func (v *Validator) AnalyzeDatapackAt(files map[string][]byte, gameVersion string) (datapack.Result, error) {
	active, err := version.Parse(gameVersion)
	if err != nil {
		return datapack.Result{}, fmt.Errorf("invalid game version %q: %w", gameVersion, err)
	}
	return v.analyzer.AnalyzeAt(files, active), nil
}
