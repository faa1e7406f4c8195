// internal/rules/clone.go
package rules

import "github.com/solatis/querybuilder/internal/types"

/*
 * Deep copies of query trees.
 *
 * Every mutation starts from a clone so that snapshots handed out earlier
 * stay untouched. Values are opaque, but JSON-shaped containers
 * (map[string]any, []any) are copied recursively so a listener that edits a
 * delivered tree cannot reach into the builder's state.
 */

// CloneGroup returns an independent deep copy of g.
func CloneGroup(g *types.Group) *types.Group {
	if g == nil {
		return nil
	}
	out := g.Shell()
	out.IsActive = cloneBool(g.IsActive)
	out.Disabled = cloneBool(g.Disabled)
	out.Rules = make([]types.Node, 0, len(g.Rules))
	for _, child := range g.Rules {
		out.Rules = append(out.Rules, CloneNode(child))
	}
	return out
}

// CloneRule returns an independent deep copy of r.
func CloneRule(r *types.Rule) *types.Rule {
	if r == nil {
		return nil
	}
	return &types.Rule{
		ID:             r.ID,
		Field:          r.Field,
		Operator:       r.Operator,
		Value:          cloneValue(r.Value),
		ParentOperator: r.ParentOperator,
		ValueMeta:      cloneValue(r.ValueMeta),
	}
}

// CloneNode dispatches to CloneGroup or CloneRule.
func CloneNode(n types.Node) types.Node {
	switch v := n.(type) {
	case *types.Group:
		return CloneGroup(v)
	case *types.Rule:
		return CloneRule(v)
	default:
		return nil
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
