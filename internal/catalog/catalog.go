// Package catalog loads field metadata from YAML files and serves it to query
// builders as a rules.Resolver.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solatis/querybuilder/internal/rules"
	"github.com/solatis/querybuilder/internal/types"
)

/*
 * Field catalog.
 *
 * A catalog file lists the fields a query may reference together with every
 * per-field override the builder asks a Resolver for:
 *
 *   fields:
 *     - name: revenue
 *       label: Revenue
 *       fieldType: measure
 *       parentOperators:
 *         - name: sum
 *           label: Sum
 *           operators: [{name: ">", label: ">"}]
 *       editor: text
 *       editors: {"null": checkbox}
 *       values: [{name: north, label: North}]
 *       placeholder: Amount
 *
 * Anything left out answers empty, so the builder falls back to its own
 * defaults. A catalog is immutable after Load and safe for concurrent use.
 */

// ParentOperator is an aggregation-style operator whose choice selects the
// operator set of its rule.
type ParentOperator struct {
	Name      string                `yaml:"name"`
	Label     string                `yaml:"label"`
	Operators []types.NameLabelPair `yaml:"operators"`
}

// FieldSpec is one catalog entry.
type FieldSpec struct {
	Name            string                           `yaml:"name"`
	Label           string                           `yaml:"label"`
	FieldType       types.FieldType                  `yaml:"fieldType"`
	Operators       []types.NameLabelPair            `yaml:"operators"`
	ParentOperators []ParentOperator                 `yaml:"parentOperators"`
	Editor          rules.ValueEditorType            `yaml:"editor"`
	Editors         map[string]rules.ValueEditorType `yaml:"editors"`
	InputType       string                           `yaml:"inputType"`
	Values          []types.NameLabelPair            `yaml:"values"`
	Placeholder     string                           `yaml:"placeholder"`
}

// Catalog is a validated, indexed set of field specs.
type Catalog struct {
	Fields []FieldSpec `yaml:"fields"`

	byName map[string]*FieldSpec
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) index() error {
	if len(c.Fields) == 0 {
		return fmt.Errorf("%w: no fields", types.ErrInvalidCatalog)
	}

	c.byName = make(map[string]*FieldSpec, len(c.Fields))
	for i := range c.Fields {
		f := &c.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("%w: field %d has no name", types.ErrInvalidCatalog, i)
		}
		if _, dup := c.byName[f.Name]; dup {
			return fmt.Errorf("%w: duplicate field %q", types.ErrInvalidCatalog, f.Name)
		}
		switch f.FieldType {
		case "", types.FieldTypeColumn, types.FieldTypeMeasure:
		default:
			return fmt.Errorf("%w: field %q has unknown fieldType %q", types.ErrInvalidCatalog, f.Name, f.FieldType)
		}
		if err := validEditor(f.Name, f.Editor); err != nil {
			return err
		}
		for _, e := range f.Editors {
			if err := validEditor(f.Name, e); err != nil {
				return err
			}
		}
		if f.Label == "" {
			f.Label = f.Name
		}
		c.byName[f.Name] = f
	}
	return nil
}

func validEditor(field string, e rules.ValueEditorType) error {
	switch e {
	case "", rules.EditorText, rules.EditorSelect, rules.EditorCheckbox, rules.EditorRadio:
		return nil
	}
	return fmt.Errorf("%w: field %q has unknown editor %q", types.ErrInvalidCatalog, field, e)
}

// TypesFields returns the builder field list in catalog order.
func (c *Catalog) TypesFields() []types.Field {
	out := make([]types.Field, 0, len(c.Fields))
	for _, f := range c.Fields {
		out = append(out, types.Field{Name: f.Name, Label: f.Label, FieldType: f.FieldType})
	}
	return out
}

// Options returns builder options backed by this catalog.
func (c *Catalog) Options() rules.Options {
	opts := rules.DefaultOptions(c.TypesFields()...)
	opts.Resolver = c
	return opts
}

var _ rules.Resolver = (*Catalog)(nil)

// Lookup returns the catalog entry of a field.
func (c *Catalog) Lookup(name string) (FieldSpec, bool) {
	f, ok := c.byName[name]
	if !ok {
		return FieldSpec{}, false
	}
	return *f, true
}

// Operators implements rules.Resolver.
func (c *Catalog) Operators(field string, parent bool, parentOperator string) []types.NameLabelPair {
	f, ok := c.byName[field]
	if !ok {
		return nil
	}
	if parent {
		out := make([]types.NameLabelPair, 0, len(f.ParentOperators))
		for _, p := range f.ParentOperators {
			out = append(out, types.NameLabelPair{Name: p.Name, Label: p.Label})
		}
		return out
	}
	if parentOperator != "" {
		for _, p := range f.ParentOperators {
			if p.Name == parentOperator {
				return p.Operators
			}
		}
	}
	return f.Operators
}

// ValueEditorType implements rules.Resolver. Per-operator editors win over
// the field editor.
func (c *Catalog) ValueEditorType(field, operator, parentOperator string) rules.ValueEditorType {
	f, ok := c.byName[field]
	if !ok {
		return ""
	}
	if e, ok := f.Editors[operator]; ok {
		return e
	}
	return f.Editor
}

// InputType implements rules.Resolver.
func (c *Catalog) InputType(field, operator string) string {
	if f, ok := c.byName[field]; ok {
		return f.InputType
	}
	return ""
}

// Values implements rules.Resolver.
func (c *Catalog) Values(field, operator string) []types.NameLabelPair {
	if f, ok := c.byName[field]; ok {
		return f.Values
	}
	return nil
}

// Placeholder implements rules.Resolver.
func (c *Catalog) Placeholder(field, operator, parentOperator string) string {
	if f, ok := c.byName[field]; ok {
		return f.Placeholder
	}
	return ""
}
