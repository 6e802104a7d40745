// mcheck validates Minecraft datapack JSON files against mcdoc
// schemas, for one file or a whole datapack directory.
package main

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Hardel-DW/rsmcdoc"
	"github.com/Hardel-DW/rsmcdoc/datapack"
)

// registryFiles collects repeatable --registries flags.
type registryFiles []string

var _ pflag.Value = (*registryFiles)(nil)

func (r *registryFiles) String() string { return strings.Join(*r, ",") }
func (r *registryFiles) Type() string   { return "file" }
func (r *registryFiles) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func main() {
	var (
		gameVersion string
		schemaDir   string
		registries  registryFiles
		asJSON      bool
	)

	rootCmd := &cobra.Command{
		Use:   "mcheck <json-file-or-datapack-dir>",
		Short: "Validate Minecraft datapack JSON files against mcdoc schemas",
		Long: `mcheck validates Minecraft datapack JSON files against mcdoc
schemas with version-specific constraints, and reports the registry
dependencies each file relies on.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]

			if schemaDir == "" {
				if _, err := os.Stat("vanilla-mcdoc"); err == nil {
					schemaDir = "vanilla-mcdoc"
				} else {
					return fmt.Errorf("schema directory not found, please specify with --schema-dir")
				}
			}

			schemas, err := loadSchemaDir(schemaDir)
			if err != nil {
				return fmt.Errorf("loading schemas: %w", err)
			}
			regs, err := loadRegistries(registries)
			if err != nil {
				return fmt.Errorf("loading registries: %w", err)
			}

			v, err := rsmcdoc.New(schemas, regs, gameVersion)
			if err != nil {
				return err
			}
			for _, se := range v.SchemaErrors() {
				fmt.Fprintf(os.Stderr, "schema: %s (line %d)\n", se.Message, se.Span.Line)
			}

			info, err := os.Stat(target)
			if err != nil {
				return err
			}
			if info.IsDir() {
				return runDatapack(v, target, asJSON)
			}
			return runSingleFile(v, target, asJSON)
		},
	}

	rootCmd.Flags().StringVarP(&gameVersion, "version", "v", "1.20.1", "Target Minecraft version")
	rootCmd.Flags().StringVarP(&schemaDir, "schema-dir", "s", "", "Path to vanilla-mcdoc directory")
	rootCmd.Flags().VarP(&registries, "registries", "r", "Registry snapshot file (JSON or YAML), repeatable")
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON instead of colored text")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// loadSchemaDir reads every .mcdoc file under dir, keyed by its
// dir-relative path so module paths stay stable.
func loadSchemaDir(dir string) (map[string]string, error) {
	out := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".mcdoc") {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(raw)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no .mcdoc files under %s", dir)
	}
	return out, nil
}

// loadRegistries merges one or more snapshot files. A .yaml/.yml
// extension selects the YAML codec, everything else is read as JSON.
func loadRegistries(files registryFiles) (map[string]any, error) {
	merged := make(map[string]any)
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		var doc map[string]any
		switch strings.ToLower(filepath.Ext(file)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(raw, &doc)
		default:
			err = json.Unmarshal(raw, &doc)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		for name, v := range doc {
			merged[name] = v
		}
	}
	return merged, nil
}

func runSingleFile(v *rsmcdoc.Validator, path string, asJSON bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	resourceType, err := datapack.InferResourceType(path)
	if err != nil {
		return err
	}
	res, err := v.ValidateJSON(raw, resourceType)
	if err != nil {
		return err
	}

	if asJSON {
		out, err := rsmcdoc.NewReport(res).JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		if !res.IsValid {
			os.Exit(1)
		}
		return nil
	}

	for _, e := range res.Errors {
		color.Red("  %s: %s (at %s)", e.Kind, e.Message, e.Path)
	}
	for _, d := range res.Dependencies {
		fmt.Printf("  depends on %s %s (at %s)\n", d.Registry, d.Value, d.Path)
	}
	if res.IsValid {
		color.Green("✓ %s is valid", path)
		return nil
	}
	color.Red("✗ %s: %d error(s)", path, len(res.Errors))
	os.Exit(1)
	return nil
}

func runDatapack(v *rsmcdoc.Validator, dir string, asJSON bool) error {
	files := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = raw
		return nil
	})
	if err != nil {
		return err
	}

	res := v.AnalyzeDatapack(files)

	if asJSON {
		out, err := rsmcdoc.NewDatapackReport(res).JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		if !res.IsValid {
			os.Exit(1)
		}
		return nil
	}

	paths := make([]string, 0, len(res.ErrorsByFile))
	for p := range res.ErrorsByFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		color.Red("✗ %s", p)
		for _, e := range res.ErrorsByFile[p] {
			color.Red("    %s: %s (at %s)", e.Kind, e.Message, e.Path)
		}
	}
	fmt.Printf("%d file(s) processed, %d failed, %d dependencies\n",
		res.FilesProcessed, res.FilesFailed, len(res.Dependencies))
	if res.IsValid {
		color.Green("✓ datapack is valid")
		return nil
	}
	os.Exit(1)
	return nil
}
