// internal/rules/combinator.go
package rules

import "github.com/solatis/querybuilder/internal/types"

/*
 * Combinator enforcement.
 *
 * Column and measure fields only make sense joined with AND. A group is
 * forced to AND when any rule below it targets a field of one of those
 * categories. Rules sitting directly under the tree root do not count: the
 * root entry call suppresses its own direct children (isRoot), nested groups
 * count all of theirs.
 *
 * The two categories are evaluated independently so renderers can ask about
 * each one (for example to disable the OR tab).
 */

// categoryIndex maps protected categories to field names.
type categoryIndex struct {
	columns  map[string]struct{}
	measures map[string]struct{}
}

func newCategoryIndex(fields []types.Field) categoryIndex {
	idx := categoryIndex{
		columns:  make(map[string]struct{}),
		measures: make(map[string]struct{}),
	}
	for _, f := range fields {
		switch f.FieldType {
		case types.FieldTypeColumn:
			idx.columns[f.Name] = struct{}{}
		case types.FieldTypeMeasure:
			idx.measures[f.Name] = struct{}{}
		}
	}
	return idx
}

// hasCategory reports whether n is, or contains, a rule on one of names.
// A rule evaluated with isRoot set never matches.
func hasCategory(n types.Node, names map[string]struct{}, isRoot bool) bool {
	switch v := n.(type) {
	case *types.Group:
		for _, child := range v.Rules {
			if hasCategory(child, names, false) {
				return true
			}
		}
	case *types.Rule:
		if _, ok := names[v.Field]; ok && !isRoot {
			return true
		}
	}
	return false
}

// childHasCategory runs hasCategory over g's children with the given root flag.
func childHasCategory(g *types.Group, names map[string]struct{}, isRoot bool) bool {
	for _, child := range g.Rules {
		if hasCategory(child, names, isRoot) {
			return true
		}
	}
	return false
}

// HasColumnDescendant reports whether g, taken as root, has a column rule below it.
func (c categoryIndex) HasColumnDescendant(g *types.Group) bool {
	return childHasCategory(g, c.columns, true)
}

// HasMeasureDescendant reports whether g, taken as root, has a measure rule below it.
func (c categoryIndex) HasMeasureDescendant(g *types.Group) bool {
	return childHasCategory(g, c.measures, true)
}

// Enforce forces AND on every group of the tree rooted at root that has a
// protected rule below it. It edits root in place.
func (c categoryIndex) Enforce(root *types.Group) {
	c.enforce(root, true)
}

func (c categoryIndex) enforce(g *types.Group, isRoot bool) {
	if childHasCategory(g, c.columns, isRoot) {
		g.Combinator = types.CombinatorAnd
	}
	if childHasCategory(g, c.measures, isRoot) {
		g.Combinator = types.CombinatorAnd
	}
	for _, child := range g.Rules {
		if sub, ok := child.(*types.Group); ok {
			c.enforce(sub, false)
		}
	}
}

// EnforceCombinators applies combinator enforcement for the given fields.
func EnforceCombinators(root *types.Group, fields []types.Field) {
	newCategoryIndex(fields).Enforce(root)
}
