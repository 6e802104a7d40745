package parser

import (
	"testing"

	"github.com/Hardel-DW/rsmcdoc/ast"
)

func TestParseSimpleStruct(t *testing.T) {
	src := `struct Foo {
		a: string,
		b?: int,
	}`
	unit := Parse(src, "test")
	if len(unit.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", unit.Errors)
	}
	if len(unit.Decls) != 1 {
		t.Fatalf("got %d decls, want 1", len(unit.Decls))
	}
	sd, ok := unit.Decls[0].(ast.StructDecl)
	if !ok {
		t.Fatalf("decl is %T, want StructDecl", unit.Decls[0])
	}
	if sd.Name != "Foo" {
		t.Errorf("name = %q, want Foo", sd.Name)
	}
	if len(sd.Fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(sd.Fields))
	}
	if sd.Fields[0].Name != "a" || sd.Fields[0].Optional {
		t.Errorf("field 0 = %+v", sd.Fields[0])
	}
	if sd.Fields[1].Name != "b" || !sd.Fields[1].Optional {
		t.Errorf("field 1 = %+v", sd.Fields[1])
	}
}

func TestParseUseDecl(t *testing.T) {
	unit := Parse(`use super::foo::Bar as Baz;`, "test")
	if len(unit.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", unit.Errors)
	}
	use, ok := unit.Decls[0].(ast.UseDecl)
	if !ok {
		t.Fatalf("decl is %T, want UseDecl", unit.Decls[0])
	}
	if use.Path.String() != "super::foo::Bar" {
		t.Errorf("path = %q", use.Path.String())
	}
	if use.Alias != "Baz" {
		t.Errorf("alias = %q, want Baz", use.Alias)
	}
}

func TestParseTypeAlias(t *testing.T) {
	unit := Parse(`type Count = int`, "test")
	ta, ok := unit.Decls[0].(ast.TypeAliasDecl)
	if !ok {
		t.Fatalf("decl is %T, want TypeAliasDecl", unit.Decls[0])
	}
	if ta.Name != "Count" {
		t.Errorf("name = %q", ta.Name)
	}
	prim, ok := ta.Type.(ast.PrimitiveType)
	if !ok || prim.Name != "int" {
		t.Errorf("type = %+v", ta.Type)
	}
}

func TestParseEnumColonForm(t *testing.T) {
	unit := Parse(`enum Color : string {
		Red = "red",
		Blue = "blue",
	}`, "test")
	if len(unit.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", unit.Errors)
	}
	ed, ok := unit.Decls[0].(ast.EnumDecl)
	if !ok {
		t.Fatalf("decl is %T, want EnumDecl", unit.Decls[0])
	}
	if ed.Enum.Backing != "string" || len(ed.Enum.Variants) != 2 {
		t.Fatalf("enum = %+v", ed.Enum)
	}
	if ed.Enum.Variants[0].ValueStr != "red" {
		t.Errorf("variant 0 = %+v", ed.Enum.Variants[0])
	}
}

func TestParseEnumParenForm(t *testing.T) {
	unit := Parse(`enum(byte) Mode {
		On = 1,
		Off = 0,
	}`, "test")
	ed, ok := unit.Decls[0].(ast.EnumDecl)
	if !ok {
		t.Fatalf("decl is %T, want EnumDecl", unit.Decls[0])
	}
	if ed.Enum.Backing != "byte" || !ed.Enum.Variants[0].IsNumeric {
		t.Fatalf("enum = %+v", ed.Enum)
	}
}

func TestParseUnionType(t *testing.T) {
	unit := Parse(`type T = string | int`, "test")
	ta := unit.Decls[0].(ast.TypeAliasDecl)
	un, ok := ta.Type.(ast.UnionType)
	if !ok {
		t.Fatalf("type = %T, want UnionType", ta.Type)
	}
	if len(un.Alternatives) != 2 {
		t.Fatalf("got %d alternatives, want 2", len(un.Alternatives))
	}
}

func TestParseArrayWithExactConstraint(t *testing.T) {
	unit := Parse(`type T = int[] @ 4`, "test")
	ta := unit.Decls[0].(ast.TypeAliasDecl)
	arr, ok := ta.Type.(ast.ArrayType)
	if !ok {
		t.Fatalf("type = %T, want ArrayType", ta.Type)
	}
	if arr.Constraint == nil || arr.Constraint.Exact == nil || *arr.Constraint.Exact != 4 {
		t.Fatalf("constraint = %+v", arr.Constraint)
	}
}

func TestParseArrayWithRangeConstraint(t *testing.T) {
	unit := Parse(`type T = string[] @ 1..5`, "test")
	ta := unit.Decls[0].(ast.TypeAliasDecl)
	arr := ta.Type.(ast.ArrayType)
	if arr.Constraint == nil || !arr.Constraint.HasRange {
		t.Fatalf("constraint = %+v", arr.Constraint)
	}
	if *arr.Constraint.Min != 1 || *arr.Constraint.Max != 5 {
		t.Errorf("constraint = %+v", arr.Constraint)
	}
}

func TestParseArrayWithOpenEndedConstraint(t *testing.T) {
	unit := Parse(`type T = string[] @ ..5`, "test")
	arr := unit.Decls[0].(ast.TypeAliasDecl).Type.(ast.ArrayType)
	if arr.Constraint.Min != nil || arr.Constraint.Max == nil || *arr.Constraint.Max != 5 {
		t.Fatalf("constraint = %+v", arr.Constraint)
	}

	unit2 := Parse(`type T = string[] @ 1..`, "test")
	arr2 := unit2.Decls[0].(ast.TypeAliasDecl).Type.(ast.ArrayType)
	if arr2.Constraint.Max != nil || arr2.Constraint.Min == nil || *arr2.Constraint.Min != 1 {
		t.Fatalf("constraint = %+v", arr2.Constraint)
	}
}

func TestParseDispatcherRef(t *testing.T) {
	unit := Parse(`type T = minecraft:resource[recipe_serializer]`, "test")
	ta := unit.Decls[0].(ast.TypeAliasDecl)
	ref, ok := ta.Type.(ast.DispatcherRefType)
	if !ok {
		t.Fatalf("type = %T, want DispatcherRefType", ta.Type)
	}
	if ref.Registry != "minecraft:resource" || ref.StaticKey != "recipe_serializer" {
		t.Errorf("ref = %+v", ref)
	}
}

func TestParseDispatchDecl(t *testing.T) {
	unit := Parse(`dispatch minecraft:resource [recipe] to struct {
		type: string,
	}`, "test")
	dd, ok := unit.Decls[0].(ast.DispatchDecl)
	if !ok {
		t.Fatalf("decl is %T, want DispatchDecl", unit.Decls[0])
	}
	if dd.Key != "minecraft:resource" {
		t.Errorf("key = %q", dd.Key)
	}
	if len(dd.Targets) != 1 || dd.Targets[0].Value != "recipe" {
		t.Fatalf("targets = %+v", dd.Targets)
	}
	st, ok := dd.Target.(ast.StructType)
	if !ok || len(st.Fields) != 1 {
		t.Fatalf("target = %+v", dd.Target)
	}
}

func TestParseSpreadField(t *testing.T) {
	unit := Parse(`struct Foo {
		...Base,
		a: string,
	}`, "test")
	sd := unit.Decls[0].(ast.StructDecl)
	if !sd.Fields[0].IsSpread {
		t.Fatalf("field 0 = %+v, want spread", sd.Fields[0])
	}
	named, ok := sd.Fields[0].Type.(ast.NamedType)
	if !ok || named.Name.Last() != "Base" {
		t.Errorf("spread type = %+v", sd.Fields[0].Type)
	}
}

func TestParseAnnotatedField(t *testing.T) {
	unit := Parse(`struct Foo {
		#[id="item"]
		item: string,
	}`, "test")
	sd := unit.Decls[0].(ast.StructDecl)
	if len(sd.Fields[0].Annotations) != 1 {
		t.Fatalf("annotations = %+v", sd.Fields[0].Annotations)
	}
	anno := sd.Fields[0].Annotations[0]
	if anno.Name != "id" || anno.Value != "item" {
		t.Errorf("anno = %+v", anno)
	}
}

func TestParseAnnotationWithArgs(t *testing.T) {
	unit := Parse(`struct Foo {
		#[since(version="1.20", note="x")]
		a: string,
	}`, "test")
	sd := unit.Decls[0].(ast.StructDecl)
	anno := sd.Fields[0].Annotations[0]
	if anno.Name != "since" {
		t.Fatalf("anno = %+v", anno)
	}
	v, ok := anno.Arg("version")
	if !ok || v != "1.20" {
		t.Errorf("version arg = %q, %v", v, ok)
	}
}

func TestParseUnionWithVersionGatedAlternatives(t *testing.T) {
	unit := Parse(`type T = #[until="1.16"] string | #[since="1.16"] int`, "test")
	ta := unit.Decls[0].(ast.TypeAliasDecl)
	un := ta.Type.(ast.UnionType)
	if len(un.Alternatives) != 2 {
		t.Fatalf("alternatives = %+v", un.Alternatives)
	}
	if un.Alternatives[0].Annotations[0].Name != "until" {
		t.Errorf("alt 0 annotations = %+v", un.Alternatives[0].Annotations)
	}
	if un.Alternatives[1].Annotations[0].Name != "since" {
		t.Errorf("alt 1 annotations = %+v", un.Alternatives[1].Annotations)
	}
}

func TestParseGenericStruct(t *testing.T) {
	unit := Parse(`struct Box<T> {
		value: T,
	}`, "test")
	sd := unit.Decls[0].(ast.StructDecl)
	if len(sd.Generics) != 1 || sd.Generics[0] != "T" {
		t.Fatalf("generics = %+v", sd.Generics)
	}
}

func TestParseMalformedStructRecoversNextDecl(t *testing.T) {
	unit := Parse(`struct Broken {
		a string
	}
	struct Ok {
		b: string,
	}`, "test")
	if len(unit.Errors) == 0 {
		t.Fatalf("expected a parse error for the malformed field")
	}
	if len(unit.Decls) != 2 {
		t.Fatalf("got %d decls, want 2 (recovery should still yield Ok)", len(unit.Decls))
	}
	ok, okKind := unit.Decls[1].(ast.StructDecl)
	if !okKind || ok.Name != "Ok" {
		t.Fatalf("second decl = %+v", unit.Decls[1])
	}
}

func TestParseGarbageTopLevelRecovers(t *testing.T) {
	unit := Parse(`%%% garbage %%%
	struct Foo {}`, "test")
	if len(unit.Errors) == 0 {
		t.Fatalf("expected parse errors for garbage tokens")
	}
	found := false
	for _, d := range unit.Decls {
		if sd, ok := d.(ast.StructDecl); ok && sd.Name == "Foo" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Foo struct to still be parsed, decls = %+v", unit.Decls)
	}
}

func TestParsePercentPlaceholderType(t *testing.T) {
	unit := Parse(`type T = %unknown`, "test")
	ta := unit.Decls[0].(ast.TypeAliasDecl)
	if _, ok := ta.Type.(ast.PercentPlaceholderType); !ok {
		t.Fatalf("type = %T, want PercentPlaceholderType", ta.Type)
	}
}

func TestModulePathFromFilename(t *testing.T) {
	got := ModulePathFromFilename("recipe/cooking.mcdoc")
	if got != "recipe::cooking" {
		t.Errorf("got %q, want recipe::cooking", got)
	}
}

func TestParsePrefixListType(t *testing.T) {
	unit := Parse(`type Ingredients = [#[id="item"] string]`, "test")
	if len(unit.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", unit.Errors)
	}
	ta := unit.Decls[0].(ast.TypeAliasDecl)
	arr, ok := ta.Type.(ast.ArrayType)
	if !ok {
		t.Fatalf("type = %T, want ArrayType", ta.Type)
	}
	elem, ok := arr.Element.(ast.UnionType)
	if !ok {
		t.Fatalf("element = %T, want annotated single-alternative union", arr.Element)
	}
	if len(elem.Alternatives) != 1 || len(elem.Alternatives[0].Annotations) != 1 {
		t.Fatalf("element alternatives = %+v", elem.Alternatives)
	}
	if elem.Alternatives[0].Annotations[0].Name != "id" {
		t.Errorf("annotation = %+v", elem.Alternatives[0].Annotations[0])
	}
}

func TestParsePrefixListWithConstraint(t *testing.T) {
	unit := Parse(`type Quad = [int] @ 4`, "test")
	if len(unit.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", unit.Errors)
	}
	ta := unit.Decls[0].(ast.TypeAliasDecl)
	arr, ok := ta.Type.(ast.ArrayType)
	if !ok {
		t.Fatalf("type = %T, want ArrayType", ta.Type)
	}
	if arr.Constraint == nil || arr.Constraint.Exact == nil || *arr.Constraint.Exact != 4 {
		t.Errorf("constraint = %+v, want exact 4", arr.Constraint)
	}
}

func TestParseDynamicDispatcherRef(t *testing.T) {
	unit := Parse(`type T = minecraft:block_entity[[%key]]`, "test")
	if len(unit.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", unit.Errors)
	}
	ta := unit.Decls[0].(ast.TypeAliasDecl)
	ref, ok := ta.Type.(ast.DispatcherRefType)
	if !ok {
		t.Fatalf("type = %T, want DispatcherRefType", ta.Type)
	}
	if ref.Registry != "minecraft:block_entity" || !ref.IsDynamic {
		t.Errorf("ref = %+v, want dynamic minecraft:block_entity", ref)
	}
}

func TestParseGenericTypeArguments(t *testing.T) {
	unit := Parse(`type Pair = Map<string, int>`, "test")
	if len(unit.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", unit.Errors)
	}
	ta := unit.Decls[0].(ast.TypeAliasDecl)
	nt, ok := ta.Type.(ast.NamedType)
	if !ok {
		t.Fatalf("type = %T, want NamedType", ta.Type)
	}
	if nt.Name.String() != "Map" {
		t.Errorf("name = %q, want Map", nt.Name.String())
	}
	if len(nt.Args) != 2 {
		t.Fatalf("got %d type arguments, want 2", len(nt.Args))
	}
	if p, ok := nt.Args[0].(ast.PrimitiveType); !ok || p.Name != "string" {
		t.Errorf("arg 0 = %+v, want string", nt.Args[0])
	}
	if p, ok := nt.Args[1].(ast.PrimitiveType); !ok || p.Name != "int" {
		t.Errorf("arg 1 = %+v, want int", nt.Args[1])
	}
}
