// Package catalog maps Mule element identifiers to display metadata.
//
// A [Catalog] is built once at startup, normally from the embedded
// components.csv via [Default], optionally extended with a user TOML file via
// [Catalog.WithOverrides], and then passed to the parser and graph builder.
// It is read-only after construction and safe for concurrent lookups.
//
// Keys are element names as written in the configuration, "prefix:operation"
// for namespaced elements ("http:listener") and the bare name for core
// elements ("logger"). A row with operation "*" matches every operation of
// its prefix. Unrecognised keys never fail: [Catalog.Lookup] returns a
// component in [CategoryUnknown].
package catalog

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
)

//go:embed components.csv
var defaultComponents string

// Wildcard is the operation that matches any element of a prefix.
const Wildcard = "*"

// Component categories. Categories drive node colour and whether the parser
// descends into an element's children.
const (
	CategorySource      = "source"
	CategoryConnector   = "connector"
	CategoryTransformer = "transformer"
	CategoryRouter      = "router"
	CategoryScope       = "scope"
	CategoryError       = "error"
	CategoryReference   = "reference"
	CategoryCore        = "core"
	CategoryUnknown     = "unknown"

	// CategoryFlow colours flow container anchors. No element maps to it.
	CategoryFlow = "flow"
)

// ErrInvalidRow is returned by [Load] for rows that cannot be decoded.
var ErrInvalidRow = errors.New("invalid component row")

// Component is the display metadata of one element kind.
type Component struct {
	Prefix    string // Namespace prefix, "" for core elements
	Operation string // Element local name, or Wildcard
	Source    bool   // Element is a message source (starts a flow)
	Async     bool   // Element processes asynchronously
	Category  string // One of the Category* constants
}

// Key returns the lookup key of the component.
func (c Component) Key() string {
	if c.Prefix == "" {
		return c.Operation
	}
	return c.Prefix + ":" + c.Operation
}

// Known reports whether the component came from the catalog rather than
// being synthesised for an unrecognised key.
func (c Component) Known() bool { return c.Category != CategoryUnknown }

// IsContainer reports whether elements of this kind hold nested processors
// (routers, scopes and error handlers).
func (c Component) IsContainer() bool {
	switch c.Category {
	case CategoryRouter, CategoryScope, CategoryError:
		return true
	}
	return false
}

// Catalog is a read-only element lookup.
type Catalog struct {
	byKey  map[string]Component
	colors map[string]string
}

// New creates a catalog holding the given components. Later components
// replace earlier ones with the same key.
func New(components ...Component) *Catalog {
	c := &Catalog{
		byKey:  make(map[string]Component, len(components)),
		colors: maps.Clone(defaultColors),
	}
	for _, comp := range components {
		if comp.Category == "" {
			comp.Category = CategoryCore
		}
		c.byKey[comp.Key()] = comp
	}
	return c
}

// Default returns the catalog built from the embedded components.csv.
func Default() (*Catalog, error) {
	return Load(strings.NewReader(defaultComponents))
}

// Load reads a catalog from CSV with the header
// "prefix,operation,source,async,category".
func Load(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 5
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read components: %w", err)
	}
	if len(records) == 0 {
		return New(), nil
	}

	var comps []Component
	for i, rec := range records[1:] {
		comp, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		comps = append(comps, comp)
	}
	return New(comps...), nil
}

func parseRow(rec []string) (Component, error) {
	op := strings.TrimSpace(rec[1])
	if op == "" {
		return Component{}, fmt.Errorf("%w: empty operation", ErrInvalidRow)
	}
	source, err := parseBool(rec[2])
	if err != nil {
		return Component{}, fmt.Errorf("%w: source: %v", ErrInvalidRow, err)
	}
	async, err := parseBool(rec[3])
	if err != nil {
		return Component{}, fmt.Errorf("%w: async: %v", ErrInvalidRow, err)
	}
	return Component{
		Prefix:    strings.TrimSpace(rec[0]),
		Operation: op,
		Source:    source,
		Async:     async,
		Category:  strings.TrimSpace(rec[4]),
	}, nil
}

func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

// Lookup returns the component for key. Exact matches win over prefix
// wildcards; unknown keys yield a component in CategoryUnknown whose
// Operation is the key's local name.
func (c *Catalog) Lookup(key string) Component {
	if comp, ok := c.byKey[key]; ok {
		return comp
	}
	prefix, op := splitKey(key)
	if prefix != "" {
		if comp, ok := c.byKey[prefix+":"+Wildcard]; ok {
			comp.Operation = op
			return comp
		}
	}
	return Component{Prefix: prefix, Operation: op, Category: CategoryUnknown}
}

// Has reports whether key resolves to a known component.
func (c *Catalog) Has(key string) bool {
	return c.Lookup(key).Known()
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.byKey) }

// All returns every entry sorted by key.
func (c *Catalog) All() []Component {
	keys := slices.Sorted(maps.Keys(c.byKey))
	out := make([]Component, len(keys))
	for i, k := range keys {
		out[i] = c.byKey[k]
	}
	return out
}

// Color returns the fill colour for a category as a hex string.
func (c *Catalog) Color(category string) string {
	if col, ok := c.colors[category]; ok {
		return col
	}
	return c.colors[CategoryUnknown]
}

func splitKey(key string) (prefix, op string) {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i], key[i+1:]
	}
	return "", key
}
