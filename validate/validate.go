// Package validate implements the JSON-against-schema walker: it
// recursively checks a decoded JSON value against a resolved MCDOC
// type, accumulating typed errors with JSON paths and extracting
// cross-resource dependencies along the way.
package validate

import (
	"fmt"
	"strings"

	"github.com/Hardel-DW/rsmcdoc/ast"
	"github.com/Hardel-DW/rsmcdoc/registry"
	"github.com/Hardel-DW/rsmcdoc/resolver"
	"github.com/Hardel-DW/rsmcdoc/version"
)

// DispatchKey is the conventional top-level dispatcher key a
// resource-type label is looked up under.
const DispatchKey = "minecraft:resource"

// DefaultMaxDepth bounds validator recursion.
const DefaultMaxDepth = 128

// ErrorKind is the validation error taxonomy; its String
// form is part of the stable, golden-testable error vocabulary.
type ErrorKind int

const (
	SyntaxError ErrorKind = iota
	SchemaError
	TypeMismatch
	MissingField
	UnknownField
	ConstraintViolation
	InvalidResourceId
	UnknownRegistryValue
	UnknownDispatchKey
)

func (k ErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case SchemaError:
		return "SchemaError"
	case TypeMismatch:
		return "TypeMismatch"
	case MissingField:
		return "MissingField"
	case UnknownField:
		return "UnknownField"
	case ConstraintViolation:
		return "ConstraintViolation"
	case InvalidResourceId:
		return "InvalidResourceId"
	case UnknownRegistryValue:
		return "UnknownRegistryValue"
	case UnknownDispatchKey:
		return "UnknownDispatchKey"
	default:
		return "UnknownErrorKind"
	}
}

// ValidationError is one typed, path-tagged diagnostic.
type ValidationError struct {
	Kind    ErrorKind
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (at %q)", e.Kind, e.Message, e.Path)
}

// Dependency is a registry reference extracted from a validated JSON
// value.
type Dependency struct {
	Registry string
	Value    string
	Path     string
}

// Result is the outcome of one Validate call.
type Result struct {
	IsValid      bool
	Errors       []ValidationError
	Dependencies []Dependency
}

// Segment is one path component: either a struct field name or an
// array index.
type Segment struct {
	Field   string
	Index   int
	IsIndex bool
}

// Path is an immutable JSON path under construction. Appending never
// mutates the receiver, so sibling branches of a struct or union never
// alias each other's path slice.
type Path []Segment

func (p Path) child(field string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = Segment{Field: field}
	return out
}

func (p Path) indexed(i int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = Segment{Index: i, IsIndex: true}
	return out
}

// String renders the path in the "a.b[3].c" form.
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		if s.IsIndex {
			fmt.Fprintf(&b, "[%d]", s.Index)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Field)
	}
	return b.String()
}

// Validator walks JSON values against a resolved Schema Index. Its
// Schema Index and Registry Store are read-only for the Validator's
// lifetime: building a new Validator is the only way to pick up a
// different schema or registry snapshot.
type Validator struct {
	idx      *resolver.SchemaIndex
	registry *registry.Store
	active   version.Version
	maxDepth int
}

// New builds a Validator over an already-resolved Schema Index and
// Registry Store for the given active version.
func New(idx *resolver.SchemaIndex, reg *registry.Store, active version.Version) *Validator {
	return &Validator{idx: idx, registry: reg, active: active, maxDepth: DefaultMaxDepth}
}

// WithVersion returns a shallow copy of the Validator pinned to a
// different active version, for the analyzer's per-call version
// override without mutating the shared instance.
func (v *Validator) WithVersion(active version.Version) *Validator {
	clone := *v
	clone.active = active
	return &clone
}

// Validate checks one decoded JSON document against the schema
// registered for resourceType.
func (v *Validator) Validate(jsonValue any, resourceType string) Result {
	target, ok := v.idx.LookupByResourceType(DispatchKey, resourceType)
	if !ok {
		return Result{
			IsValid: false,
			Errors: []ValidationError{{
				Kind:    UnknownDispatchKey,
				Message: fmt.Sprintf("no schema registered for resource type %q", resourceType),
			}},
		}
	}
	errs, deps := v.validateNode(jsonValue, target, Path{}, 0)
	return Result{IsValid: len(errs) == 0, Errors: errs, Dependencies: deps}
}

func (v *Validator) validateNode(value any, t ast.TypeExpr, path Path, depth int) ([]ValidationError, []Dependency) {
	if depth > v.maxDepth {
		return []ValidationError{{
			Kind:    ConstraintViolation,
			Path:    path.String(),
			Message: fmt.Sprintf("maximum schema recursion depth (%d) exceeded", v.maxDepth),
		}}, nil
	}

	switch node := t.(type) {
	case ast.PrimitiveType:
		return checkPrimitive(value, node.Name, path), nil
	case ast.NamedType:
		return v.validateNamed(value, node, path, depth)
	case ast.ArrayType:
		return v.validateArray(value, node, path, depth)
	case ast.StructType:
		return v.validateStruct(value, node, path, depth)
	case ast.UnionType:
		return v.validateUnion(value, node, path, depth)
	case ast.EnumType:
		return validateEnum(value, node, path), nil
	case ast.DispatcherRefType:
		return v.validateDispatcherRef(value, node, path, depth)
	case ast.PercentPlaceholderType:
		return nil, nil
	default:
		return []ValidationError{{Kind: SchemaError, Path: path.String(), Message: fmt.Sprintf("unhandled type node %T", t)}}, nil
	}
}

func (v *Validator) validateNamed(value any, nt ast.NamedType, path Path, depth int) ([]ValidationError, []Dependency) {
	qn, ok := v.idx.ResolveName(nt.Name)
	if !ok {
		return []ValidationError{{
			Kind:    SchemaError,
			Path:    path.String(),
			Message: fmt.Sprintf("unresolved type reference %q", nt.Name.String()),
		}}, nil
	}
	decl, _ := v.idx.Lookup(qn)
	switch d := decl.(type) {
	case ast.StructDecl:
		fields := d.Fields
		if spliced, ok := v.idx.StructFields(qn); ok {
			fields = spliced
		}
		if len(nt.Args) > 0 && len(d.Generics) > 0 {
			subst := make(map[string]ast.TypeExpr, len(d.Generics))
			for i, g := range d.Generics {
				if i < len(nt.Args) {
					subst[g] = nt.Args[i]
				}
			}
			fields = substituteFields(fields, subst)
		}
		return v.validateStructFields(value, fields, path, depth)
	case ast.EnumDecl:
		return validateEnum(value, d.Enum, path), nil
	case ast.TypeAliasDecl:
		return v.validateNode(value, d.Type, path, depth+1)
	default:
		return []ValidationError{{
			Kind:    SchemaError,
			Path:    path.String(),
			Message: fmt.Sprintf("%q does not resolve to a usable type", qn),
		}}, nil
	}
}

func (v *Validator) validateArray(value any, arr ast.ArrayType, path Path, depth int) ([]ValidationError, []Dependency) {
	items, ok := value.([]any)
	if !ok {
		return mismatch("array", value, path), nil
	}
	var errs []ValidationError
	var deps []Dependency
	for i, item := range items {
		e, d := v.validateNode(item, arr.Element, path.indexed(i), depth+1)
		errs = append(errs, e...)
		deps = append(deps, d...)
	}
	if arr.Constraint != nil {
		errs = append(errs, checkArrayConstraint(len(items), arr.Constraint, path)...)
	}
	return errs, deps
}

func checkArrayConstraint(n int, c *ast.ArrayConstraint, path Path) []ValidationError {
	violation := func(want string) []ValidationError {
		return []ValidationError{{
			Kind:    ConstraintViolation,
			Path:    path.String(),
			Message: fmt.Sprintf("array has %d elements, want %s", n, want),
		}}
	}
	if c.Exact != nil {
		if n != int(*c.Exact) {
			return violation(fmt.Sprintf("exactly %d", int(*c.Exact)))
		}
		return nil
	}
	if c.Min != nil && n < int(*c.Min) {
		return violation(fmt.Sprintf("at least %d", int(*c.Min)))
	}
	if c.Max != nil && n > int(*c.Max) {
		return violation(fmt.Sprintf("at most %d", int(*c.Max)))
	}
	return nil
}

func (v *Validator) validateDispatcherRef(value any, ref ast.DispatcherRefType, path Path, depth int) ([]ValidationError, []Dependency) {
	// A static key (`minecraft:block_entity[skull]`) names its target
	// outright; only dynamic refs read a discriminant from the JSON.
	if !ref.IsDynamic && ref.StaticKey != "" {
		target, ok := v.idx.LookupDispatch(ref.Registry, ref.StaticKey)
		if !ok {
			return []ValidationError{{
				Kind:    UnknownDispatchKey,
				Path:    path.String(),
				Message: fmt.Sprintf("no %s entry for %q", ref.Registry, ref.StaticKey),
			}}, nil
		}
		return v.validateNode(value, target, path, depth+1)
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return mismatch("object", value, path), nil
	}
	raw, present := obj["type"]
	if !present {
		return []ValidationError{{
			Kind:    MissingField,
			Path:    path.child("type").String(),
			Message: `missing discriminant field "type"`,
		}}, nil
	}
	disc, ok := raw.(string)
	if !ok {
		return []ValidationError{{
			Kind:    MissingField,
			Path:    path.child("type").String(),
			Message: `discriminant field "type" must be a string`,
		}}, nil
	}
	target, ok := v.idx.LookupDispatch(ref.Registry, disc)
	if !ok {
		target, ok = v.idx.LookupByResourceType(ref.Registry, disc)
	}
	if !ok {
		return []ValidationError{{
			Kind:    UnknownDispatchKey,
			Path:    path.String(),
			Message: fmt.Sprintf("no %s entry for %q", ref.Registry, disc),
		}}, nil
	}
	return v.validateNode(value, target, path, depth+1)
}

func mismatch(expected string, v any, path Path) []ValidationError {
	return []ValidationError{{
		Kind:    TypeMismatch,
		Path:    path.String(),
		Message: fmt.Sprintf("expected %s, got %s", expected, jsonKind(v)),
	}}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func substituteFields(fields []ast.Field, subst map[string]ast.TypeExpr) []ast.Field {
	out := make([]ast.Field, len(fields))
	for i, f := range fields {
		f.Type = substituteType(f.Type, subst)
		out[i] = f
	}
	return out
}

func substituteType(t ast.TypeExpr, subst map[string]ast.TypeExpr) ast.TypeExpr {
	switch x := t.(type) {
	case ast.NamedType:
		if len(x.Name.Segments) == 1 && !x.Name.IsAbsolute {
			if repl, ok := subst[x.Name.Segments[0]]; ok {
				return repl
			}
		}
		return x
	case ast.ArrayType:
		return ast.ArrayType{Element: substituteType(x.Element, subst), Constraint: x.Constraint}
	case ast.UnionType:
		alts := make([]ast.UnionAlternative, len(x.Alternatives))
		for i, a := range x.Alternatives {
			alts[i] = ast.UnionAlternative{Type: substituteType(a.Type, subst), Annotations: a.Annotations}
		}
		return ast.UnionType{Alternatives: alts}
	case ast.StructType:
		return ast.StructType{Fields: substituteFields(x.Fields, subst)}
	default:
		return t
	}
}
