// Package ast defines the typed schema tree the parser produces:
// type expressions, declarations, and the per-file Schema Unit.
package ast

import "github.com/Hardel-DW/rsmcdoc/lexer"

// Path is a `::`-separated qualified name, e.g. super::foo::Bar.
type Path struct {
	Segments   []string
	IsAbsolute bool
}

func (p Path) String() string {
	s := ""
	if p.IsAbsolute {
		s = "::"
	}
	for i, seg := range p.Segments {
		if i > 0 {
			s += "::"
		}
		s += seg
	}
	return s
}

// Last returns the final segment, or "" for an empty path.
func (p Path) Last() string {
	if len(p.Segments) == 0 {
		return ""
	}
	return p.Segments[len(p.Segments)-1]
}

// AnnotationArg is one key/value argument inside `#[name(key=value, ...)]`.
type AnnotationArg struct {
	Key         string
	Str         string
	Idents      []string
	IsIdentList bool
}

// Annotation is a single `#[...]` attribute attached to a field, type
// declaration, or union alternative.
type Annotation struct {
	Name  string // e.g. "id", "since", "until", "uuid", "match_regex"
	Value string // shorthand `#[name="literal"]` form; "" if using Args
	Args  []AnnotationArg
	Span  lexer.Span
}

// Arg returns the named argument's string value and whether it was present.
func (a Annotation) Arg(key string) (string, bool) {
	for _, arg := range a.Args {
		if arg.Key == key {
			return arg.Str, true
		}
	}
	return "", false
}

// TypeExpr is the sum type of MCDOC type expressions. Exactly one
// concrete implementation is ever active per node; callers switch on
// the dynamic type.
type TypeExpr interface {
	typeExprNode()
}

// PrimitiveType is one of the built-in scalar kinds.
type PrimitiveType struct {
	Name string // "string","int","long","short","byte","float","double","boolean","any"
	Span lexer.Span
}

// NamedType references a declared type, optionally with generic
// arguments (`Map<K, V>`).
type NamedType struct {
	Name Path
	Args []TypeExpr
	Span lexer.Span
}

// ArrayType is an element type plus an optional size constraint.
type ArrayType struct {
	Element    TypeExpr
	Constraint *ArrayConstraint // nil if unconstrained
}

// ArrayConstraint expresses `@ min..max`, `@ ..max`, `@ min..`, or `@ n`.
type ArrayConstraint struct {
	Min      *float64
	Max      *float64
	Exact    *float64
	HasRange bool // true for the `min..max` family, false for exact `@ n`
}

// UnionAlternative is one member of a Union, optionally version-gated.
type UnionAlternative struct {
	Type        TypeExpr
	Annotations []Annotation
}

// UnionType is an ordered list of alternatives.
type UnionType struct {
	Alternatives []UnionAlternative
}

// StructType is an inline or named struct body: an ordered field list.
type StructType struct {
	Fields []Field
}

// EnumVariant is one `Name = Literal` entry.
type EnumVariant struct {
	Name      string
	ValueStr  string // set when the enum backing type is string
	ValueNum  float64
	IsNumeric bool
	Span      lexer.Span
}

// EnumType is a backing primitive plus ordered variants.
type EnumType struct {
	Backing  string // "string" or an integer family name
	Variants []EnumVariant
}

// DispatcherRefType is `minecraft:resource[key]` or similar — the
// validator looks its target up in the Schema Index's dispatch table.
type DispatcherRefType struct {
	Registry    string // e.g. "minecraft:resource"
	StaticKey   string // set when the bracket contents are a literal key
	IsDynamic   bool   // true for `[[%key]]`, `[%ident]` or empty brackets; the key is then read from the JSON "type" field
	Span        lexer.Span
}

// PercentPlaceholderType is `%unknown` or `[[%key]]`: opaque, treated
// as `any` during validation.
type PercentPlaceholderType struct {
	Text string
	Span lexer.Span
}

func (PrimitiveType) typeExprNode()          {}
func (NamedType) typeExprNode()              {}
func (ArrayType) typeExprNode()              {}
func (UnionType) typeExprNode()              {}
func (StructType) typeExprNode()             {}
func (EnumType) typeExprNode()               {}
func (DispatcherRefType) typeExprNode()      {}
func (PercentPlaceholderType) typeExprNode() {}

// Field is one member of a StructType: a name/type pair, or a spread.
type Field struct {
	Name        string
	Type        TypeExpr
	Optional    bool
	IsSpread    bool // true when this Field is `...TypeExpr` with Name == ""
	Annotations []Annotation
	Span        lexer.Span
}

// Decl is the sum type of top-level declarations a Schema Unit holds.
type Decl interface {
	declNode()
}

// UseDecl is a `use path [as alias]` import.
type UseDecl struct {
	Path  Path
	Alias string // "" if no alias
	Span  lexer.Span
}

// TypeAliasDecl is `type Name = TypeExpr`.
type TypeAliasDecl struct {
	Name        string
	Type        TypeExpr
	Annotations []Annotation
	Span        lexer.Span
}

// StructDecl is a top-level named struct.
type StructDecl struct {
	Name        string
	Generics    []string
	Fields      []Field
	Annotations []Annotation
	Span        lexer.Span
}

// EnumDecl is a top-level named enum.
type EnumDecl struct {
	Name        string
	Enum        EnumType
	Annotations []Annotation
	Span        lexer.Span
}

// DispatchTarget is one discriminant literal in `dispatch K [t1, t2] to ...`.
type DispatchTarget struct {
	Value string
	Span  lexer.Span
}

// DispatchDecl maps one or more discriminant values under a source
// key to a target type.
type DispatchDecl struct {
	Key     string // e.g. "minecraft:resource"
	Targets []DispatchTarget
	Target  TypeExpr
	Span    lexer.Span
}

func (UseDecl) declNode()       {}
func (TypeAliasDecl) declNode() {}
func (StructDecl) declNode()    {}
func (EnumDecl) declNode()      {}
func (DispatchDecl) declNode()  {}

// ParseError is a single non-fatal diagnostic recorded during parsing.
type ParseError struct {
	Message string
	Span    lexer.Span
}

// SchemaUnit is the output of parsing one MCDOC file: its declarations
// in source order plus any parse errors accumulated along the way.
// Parsing never returns a nil Unit.
type SchemaUnit struct {
	ModulePath string // derived from the logical filename, "a::b::c"
	Decls      []Decl
	Errors     []ParseError
}
