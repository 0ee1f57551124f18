package catalog

import (
	"fmt"
	"maps"

	"github.com/BurntSushi/toml"
	"gopkg.in/go-playground/colors.v1"
)

// defaultColors holds the fill colour of each category.
var defaultColors = map[string]string{
	CategorySource:      "#c6e5ff",
	CategoryConnector:   "#d5f5d0",
	CategoryTransformer: "#fff2bf",
	CategoryRouter:      "#ffd9b3",
	CategoryScope:       "#e8dcff",
	CategoryError:       "#ffc9c9",
	CategoryReference:   "#dfe6ee",
	CategoryCore:        "#ffffff",
	CategoryUnknown:     "#eeeeee",
	CategoryFlow:        "#f4f6f8",
}

// Overrides is the TOML document accepted by [Catalog.WithOverrides]:
//
//	[categories]
//	connector = "rgb(200,240,200)"
//
//	[[components]]
//	prefix = "kafka"
//	operation = "*"
//	category = "connector"
//
//	[[components]]
//	prefix = "kafka"
//	operation = "message-listener"
//	source = true
//	category = "source"
type Overrides struct {
	Categories map[string]string   `toml:"categories"`
	Components []overrideComponent `toml:"components"`
}

type overrideComponent struct {
	Prefix    string `toml:"prefix"`
	Operation string `toml:"operation"`
	Source    bool   `toml:"source"`
	Async     bool   `toml:"async"`
	Category  string `toml:"category"`
}

// LoadOverrides decodes an overrides file.
func LoadOverrides(path string) (Overrides, error) {
	var o Overrides
	if _, err := toml.DecodeFile(path, &o); err != nil {
		return Overrides{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return o, nil
}

// WithOverrides returns a copy of the catalog extended with the components
// and category colours of the TOML file at path. The receiver is not
// modified.
func (c *Catalog) WithOverrides(path string) (*Catalog, error) {
	o, err := LoadOverrides(path)
	if err != nil {
		return nil, err
	}
	return c.Apply(o)
}

// Apply returns a copy of the catalog extended with o. Colours may be given
// in any notation understood by go-playground/colors (hex, rgb(), rgba());
// they are normalised to hex.
func (c *Catalog) Apply(o Overrides) (*Catalog, error) {
	out := &Catalog{
		byKey:  maps.Clone(c.byKey),
		colors: maps.Clone(c.colors),
	}
	for category, value := range o.Categories {
		hex, err := normalizeColor(value)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", category, err)
		}
		out.colors[category] = hex
	}
	for i, oc := range o.Components {
		if oc.Operation == "" {
			return nil, fmt.Errorf("component %d: %w: empty operation", i, ErrInvalidRow)
		}
		comp := Component{
			Prefix:    oc.Prefix,
			Operation: oc.Operation,
			Source:    oc.Source,
			Async:     oc.Async,
			Category:  oc.Category,
		}
		if comp.Category == "" {
			comp.Category = CategoryCore
		}
		out.byKey[comp.Key()] = comp
	}
	return out, nil
}

func normalizeColor(value string) (string, error) {
	col, err := colors.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid colour %q: %w", value, err)
	}
	return col.ToHEX().String(), nil
}
