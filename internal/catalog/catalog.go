package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

//go:embed catalog.schema.json
var catalogSchemaJSON string

// Catalog is the registry of map products and their model tables. It is
// immutable after construction and safe for concurrent use.
type Catalog struct {
	analyses []Analysis
	index    map[string]int
}

// Analysis is one map product: a canonical ID, a display title, and the
// ordered model table behind it. Returned entries are read-only.
type Analysis struct {
	ID    string
	Title string

	models []Model
	index  map[string]int
}

// Model pairs a model name with the ordered data directories read for it.
type Model struct {
	Name  string
	Paths []string
}

// Wire structures for the YAML catalog file.
type catalogFile struct {
	Analyses []analysisEntry `yaml:"analyses"`
}

type analysisEntry struct {
	ID     string       `yaml:"id"`
	Title  string       `yaml:"title"`
	Models []modelEntry `yaml:"models"`
}

type modelEntry struct {
	Name  string   `yaml:"name"`
	Paths []string `yaml:"paths"`
}

var loadDefault = sync.OnceValue(func() *Catalog {
	c, err := Parse(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog.yaml is invalid: %v", err))
	}
	return c
})

// Default returns the catalog embedded in the binary, parsed once per process.
func Default() *Catalog { return loadDefault() }

// Load reads a catalog override from path, validating it against the catalog
// schema before parsing. An empty path returns the embedded default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse builds a Catalog from YAML bytes. IDs and model names are stored in
// canonical form; file order is preserved for both analyses and models.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(file.Analyses) == 0 {
		return nil, fmt.Errorf("catalog defines no analyses")
	}

	c := &Catalog{index: make(map[string]int, len(file.Analyses))}
	for _, ae := range file.Analyses {
		id := CanonicalAnalysis(ae.ID)
		if id == "" {
			return nil, fmt.Errorf("analysis with empty id")
		}
		if _, dup := c.index[id]; dup {
			return nil, fmt.Errorf("duplicate analysis %q", id)
		}
		if len(ae.Models) == 0 {
			return nil, fmt.Errorf("analysis %q defines no models", id)
		}

		a := Analysis{ID: id, Title: strings.TrimSpace(ae.Title), index: make(map[string]int, len(ae.Models))}
		for _, me := range ae.Models {
			name := CanonicalModel(me.Name)
			if name == "" {
				return nil, fmt.Errorf("analysis %q: model with empty name", id)
			}
			if _, dup := a.index[name]; dup {
				return nil, fmt.Errorf("analysis %q: duplicate model %q", id, name)
			}
			if len(me.Paths) == 0 {
				return nil, fmt.Errorf("analysis %q: model %q lists no paths", id, name)
			}
			for _, p := range me.Paths {
				if strings.TrimSpace(p) == "" {
					return nil, fmt.Errorf("analysis %q: model %q lists an empty path", id, name)
				}
			}
			a.index[name] = len(a.models)
			a.models = append(a.models, Model{Name: name, Paths: append([]string(nil), me.Paths...)})
		}

		c.index[id] = len(c.analyses)
		c.analyses = append(c.analyses, a)
	}
	return c, nil
}

// CanonicalModel normalizes a model name for lookup: surrounding whitespace
// trimmed, upper-cased.
func CanonicalModel(name string) string { return strings.ToUpper(strings.TrimSpace(name)) }

// CanonicalAnalysis normalizes an analysis ID: surrounding whitespace trimmed,
// lower-cased.
func CanonicalAnalysis(id string) string { return strings.ToLower(strings.TrimSpace(id)) }

// FieldPaths resolves the ordered data directories for model under analysis.
// The returned slice is a fresh copy; callers may not assume any particular
// length beyond what they index. Unknown analyses and models fail with
// *UnknownAnalysisError and *UnknownModelError respectively.
func (c *Catalog) FieldPaths(analysis, model string) ([]string, error) {
	a, err := c.Find(analysis)
	if err != nil {
		return nil, err
	}
	return a.FieldPaths(model)
}

// FieldPaths resolves the ordered data directories for model in this
// analysis's table.
func (a *Analysis) FieldPaths(model string) ([]string, error) {
	i, ok := a.index[CanonicalModel(model)]
	if !ok {
		return nil, &UnknownModelError{Analysis: a.ID, Model: model, Valid: a.ModelNames()}
	}
	return append([]string(nil), a.models[i].Paths...), nil
}

// Find returns the analysis entry for id.
func (c *Catalog) Find(id string) (*Analysis, error) {
	i, ok := c.index[CanonicalAnalysis(id)]
	if !ok {
		return nil, &UnknownAnalysisError{Analysis: id, Valid: c.Analyses()}
	}
	return &c.analyses[i], nil
}

// Analyses returns the analysis IDs in catalog order.
func (c *Catalog) Analyses() []string {
	ids := make([]string, len(c.analyses))
	for i, a := range c.analyses {
		ids[i] = a.ID
	}
	return ids
}

// Models returns the analysis's model table in table order. Rows are deep
// copies.
func (a *Analysis) Models() []Model {
	models := make([]Model, len(a.models))
	for i, m := range a.models {
		models[i] = Model{Name: m.Name, Paths: append([]string(nil), m.Paths...)}
	}
	return models
}

// ModelNames returns the model names in table order.
func (a *Analysis) ModelNames() []string {
	names := make([]string, len(a.models))
	for i, m := range a.models {
		names[i] = m.Name
	}
	return names
}

func validateSchema(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	schema, err := jsonschema.CompileString("catalog.schema.json", catalogSchemaJSON)
	if err != nil {
		return fmt.Errorf("compile catalog schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}
