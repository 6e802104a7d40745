package rsmcdoc

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/Hardel-DW/rsmcdoc/validate"
)

var fixtureSchemas = map[string]string{
	"java/data/recipe.mcdoc": `
dispatch minecraft:resource[recipe] to struct {
	type: #[id="recipe_serializer"] string,
	result: #[id="item"] string,
	ingredients: [#[id="item"] string],
}
`,
}

var fixtureRegistries = map[string]any{
	"recipe_serializer": []any{"minecraft:crafting_shaped"},
	"item":              []any{"minecraft:diamond_sword", "minecraft:diamond", "minecraft:stick"},
}

func fixtureValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New(fixtureSchemas, fixtureRegistries, "1.20.4")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if errs := v.SchemaErrors(); len(errs) != 0 {
		t.Fatalf("fixture schemas must be clean: %+v", errs)
	}
	return v
}

func TestEndToEndRecipe(t *testing.T) {
	v := fixtureValidator(t)
	res, err := v.ValidateJSON([]byte(`{
		"type": "minecraft:crafting_shaped",
		"result": "minecraft:diamond_sword",
		"ingredients": ["minecraft:diamond", "minecraft:stick"]
	}`), "recipe")
	if err != nil {
		t.Fatalf("ValidateJSON: %v", err)
	}
	if !res.IsValid {
		t.Fatalf("expected a valid document, got %+v", res.Errors)
	}
	if len(res.Dependencies) != 4 {
		t.Fatalf("Dependencies = %+v, want 4 entries", res.Dependencies)
	}
}

func TestInitSucceedsDespiteSchemaErrors(t *testing.T) {
	v, err := New(map[string]string{
		"broken.mcdoc": `struct Broken { this is not valid`,
		"good.mcdoc":   `dispatch minecraft:resource[thing] to struct { a: string }`,
	}, nil, "1.20")
	if err != nil {
		t.Fatalf("New must tolerate schema-level errors: %v", err)
	}
	if len(v.SchemaErrors()) == 0 {
		t.Error("expected accumulated schema errors")
	}

	// The unaffected schema still validates.
	res := v.Validate(map[string]any{"a": "x"}, "thing")
	if !res.IsValid {
		t.Errorf("unaffected schema must work, got %+v", res.Errors)
	}
}

func TestInitHardFailures(t *testing.T) {
	if _, err := New(nil, nil, "not a version"); err == nil {
		t.Error("bad version must fail New")
	}
	if _, err := New(map[string]string{"bad.mcdoc": "struct A {}\xff"}, nil, "1.20"); err == nil {
		t.Error("non-UTF-8 schema source must fail New")
	}
	if _, err := New(nil, map[string]any{"item": 42.0}, "1.20"); err == nil {
		t.Error("scalar registry value must fail New")
	}
	if _, err := NewFromJSON(nil, []byte(`["not","an","object"]`), "1.20"); err == nil {
		t.Error("non-object registry JSON must fail NewFromJSON")
	}
}

func TestRegistryObjectOfSequences(t *testing.T) {
	v, err := New(fixtureSchemas, map[string]any{
		"recipe_serializer": map[string]any{"crafting": []any{"minecraft:crafting_shaped"}},
		"item":              []any{"minecraft:diamond_sword", "minecraft:diamond_sword"},
	}, "1.20")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := v.Validate(map[string]any{
		"type":        "minecraft:crafting_shaped",
		"result":      "minecraft:diamond_sword",
		"ingredients": []any{},
	}, "recipe")
	if !res.IsValid {
		t.Errorf("nested and duplicated registry entries must load, got %+v", res.Errors)
	}
}

func TestEmptySchemaInput(t *testing.T) {
	v, err := New(nil, nil, "1.20")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := v.Validate(map[string]any{}, "recipe")
	if res.IsValid || len(res.Errors) != 1 || res.Errors[0].Kind != validate.UnknownDispatchKey {
		t.Errorf("empty schema input: want one UnknownDispatchKey, got %+v", res.Errors)
	}
}

func TestVersionOverridePerCall(t *testing.T) {
	v, err := New(map[string]string{
		"thing.mcdoc": `dispatch minecraft:resource[thing] to struct {
			legacy: #[until="1.16"] string,
		}`,
	}, nil, "1.20")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	doc := map[string]any{"legacy": "x"}
	if res := v.Validate(doc, "thing"); res.IsValid {
		t.Error("legacy field must be unknown at 1.20")
	}
	res, err := v.ValidateAt(doc, "thing", "1.15.2")
	if err != nil {
		t.Fatalf("ValidateAt: %v", err)
	}
	if !res.IsValid {
		t.Errorf("legacy field must exist at 1.15.2, got %+v", res.Errors)
	}
}

func TestReportSerialization(t *testing.T) {
	v := fixtureValidator(t)
	res, err := v.ValidateJSON([]byte(`{"type":"minecraft:crafting_shaped","ingredients":[]}`), "recipe")
	if err != nil {
		t.Fatalf("ValidateJSON: %v", err)
	}

	raw, err := NewReport(res).JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("report must round-trip: %v", err)
	}
	if decoded["isValid"] != false {
		t.Errorf("isValid = %v, want false", decoded["isValid"])
	}
	errs, _ := decoded["errors"].([]any)
	if len(errs) != 1 {
		t.Fatalf("errors = %v, want one entry", decoded["errors"])
	}
	first, _ := errs[0].(map[string]any)
	if first["kind"] != "MissingField" || first["path"] != "result" {
		t.Errorf("unexpected error entry %v", first)
	}
}

func TestAnalyzeDatapackEndToEnd(t *testing.T) {
	v := fixtureValidator(t)
	res := v.AnalyzeDatapack(map[string][]byte{
		"data/pack/recipe/sword.json": []byte(`{
			"type": "minecraft:crafting_shaped",
			"result": "minecraft:diamond_sword",
			"ingredients": ["minecraft:diamond", "minecraft:stick"]
		}`),
	})
	if !res.IsValid {
		t.Fatalf("expected a valid pack, got %+v", res.Errors)
	}
	report := NewDatapackReport(res)
	raw, err := report.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	for _, key := range []string{"filesProcessed", "filesFailed", "errorsByFile"} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("serialized report missing %q: %s", key, raw)
		}
	}
}
