package datapack

import (
	"testing"

	"github.com/Hardel-DW/rsmcdoc/ast"
	"github.com/Hardel-DW/rsmcdoc/parser"
	"github.com/Hardel-DW/rsmcdoc/registry"
	"github.com/Hardel-DW/rsmcdoc/resolver"
	"github.com/Hardel-DW/rsmcdoc/validate"
	"github.com/Hardel-DW/rsmcdoc/version"
)

const testSchema = `
dispatch minecraft:resource[recipe] to struct {
	type: #[id="recipe_serializer"] string,
	result: #[id="item"] string,
}
`

func testAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	unit := parser.Parse(testSchema, "")
	if len(unit.Errors) != 0 {
		t.Fatalf("fixture schema failed to parse: %+v", unit.Errors)
	}
	idx := resolver.Resolve([]*ast.SchemaUnit{unit})
	if len(idx.Errors) != 0 {
		t.Fatalf("fixture schema failed to resolve: %+v", idx.Errors)
	}
	reg := registry.Load(map[string][]string{
		"recipe_serializer": {"minecraft:crafting_shaped"},
		"item":              {"minecraft:diamond_sword"},
	})
	return New(validate.New(idx, reg, version.MustParse("1.20")))
}

func TestInferResourceType(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path: "data/example/recipe/sword.json", want: "minecraft:recipe"},
		{path: "mypack/data/example/loot_table/chest.json", want: "minecraft:loot_table"},
		{path: "data/example/advancement/root.json", want: "minecraft:advancement"},
		{path: "data/example/custom_kind/x.json", want: "minecraft:custom_kind"},
		{path: "pack.mcmeta", wantErr: true},
		{path: "data/example", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := InferResourceType(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalyzeAggregates(t *testing.T) {
	a := testAnalyzer(t)
	res := a.Analyze(map[string][]byte{
		"data/ex/recipe/good.json": []byte(`{"type":"minecraft:crafting_shaped","result":"minecraft:diamond_sword"}`),
		"data/ex/recipe/bad.json":  []byte(`{"type":"minecraft:crafting_shaped"}`),
		"data/ex/recipe/junk.json": []byte(`{not json`),
		"README.md":                []byte(`irrelevant`),
	})

	if res.IsValid {
		t.Error("expected an invalid aggregate result")
	}
	if res.FilesProcessed != 4 {
		t.Errorf("FilesProcessed = %d, want 4", res.FilesProcessed)
	}
	if res.FilesFailed != 3 {
		t.Errorf("FilesFailed = %d, want 3", res.FilesFailed)
	}
	if len(res.ErrorsByFile["data/ex/recipe/good.json"]) != 0 {
		t.Errorf("good file must not accumulate errors: %+v", res.ErrorsByFile["data/ex/recipe/good.json"])
	}
	badErrs := res.ErrorsByFile["data/ex/recipe/bad.json"]
	if len(badErrs) != 1 || badErrs[0].Kind != validate.MissingField {
		t.Errorf("bad file: want one MissingField, got %+v", badErrs)
	}
	junkErrs := res.ErrorsByFile["data/ex/recipe/junk.json"]
	if len(junkErrs) != 1 || junkErrs[0].Kind != validate.SchemaError {
		t.Errorf("junk file: want one SchemaError, got %+v", junkErrs)
	}

	// Dependencies come from the files that validated, ordered by path.
	wantDeps := []FileDependency{
		{File: "data/ex/recipe/bad.json", Dependency: validate.Dependency{Registry: "recipe_serializer", Value: "minecraft:crafting_shaped", Path: "type"}},
		{File: "data/ex/recipe/good.json", Dependency: validate.Dependency{Registry: "recipe_serializer", Value: "minecraft:crafting_shaped", Path: "type"}},
		{File: "data/ex/recipe/good.json", Dependency: validate.Dependency{Registry: "item", Value: "minecraft:diamond_sword", Path: "result"}},
	}
	if len(res.Dependencies) != len(wantDeps) {
		t.Fatalf("Dependencies = %+v, want %+v", res.Dependencies, wantDeps)
	}
	for i, want := range wantDeps {
		if res.Dependencies[i] != want {
			t.Errorf("Dependencies[%d] = %+v, want %+v", i, res.Dependencies[i], want)
		}
	}
}

func TestAnalyzeVersionOverride(t *testing.T) {
	unit := parser.Parse(`
dispatch minecraft:resource[recipe] to struct {
	modern: #[since="1.17"] string,
}
`, "")
	idx := resolver.Resolve([]*ast.SchemaUnit{unit})
	a := New(validate.New(idx, registry.New(), version.MustParse("1.20")))

	files := map[string][]byte{
		"data/ex/recipe/r.json": []byte(`{"modern":"x"}`),
	}
	if res := a.Analyze(files); !res.IsValid {
		t.Errorf("valid at init version, got %+v", res.Errors)
	}
	if res := a.AnalyzeAt(files, version.MustParse("1.16")); res.IsValid {
		t.Error("field must be unknown below its since gate")
	}
}

func TestAnalyzeUndispatchedCategoryFailsAtLookup(t *testing.T) {
	a := testAnalyzer(t)
	res := a.Analyze(map[string][]byte{
		"data/ex/biome/plains.json": []byte(`{}`),
	})

	errs := res.ErrorsByFile["data/ex/biome/plains.json"]
	if len(errs) != 1 || errs[0].Kind != validate.UnknownDispatchKey {
		t.Errorf("want one UnknownDispatchKey, got %+v", errs)
	}
}
