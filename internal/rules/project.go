// internal/rules/project.go
package rules

import "github.com/solatis/querybuilder/internal/types"

/*
 * Validity projection.
 *
 * Project rebuilds a tree bottom-up into fresh nodes. Rules are reduced to
 * their essential fields; a nested group survives only if it still has
 * children after its own subtree was rebuilt, which cascades removal of empty
 * ancestors. The root always survives, possibly empty ("no filter applied").
 *
 * NormalView is the flattened "simple" view: direct-child rules of the root,
 * nested groups dropped outright.
 *
 * Both are total over any tree and never touch their input.
 */

// Project rebuilds n. Returns nil for a non-root group left without children.
func Project(n types.Node, isRoot bool) types.Node {
	switch v := n.(type) {
	case *types.Group:
		if g := projectGroup(v, isRoot); g != nil {
			return g
		}
		return nil
	case *types.Rule:
		return projectRule(v)
	default:
		return nil
	}
}

// ProjectRoot rebuilds a whole tree; the result is never nil for a non-nil root.
func ProjectRoot(root *types.Group) *types.Group {
	if root == nil {
		return nil
	}
	return projectGroup(root, true)
}

func projectGroup(g *types.Group, isRoot bool) *types.Group {
	out := g.Shell()
	out.IsActive = cloneBool(g.IsActive)
	out.Disabled = cloneBool(g.Disabled)
	for _, child := range g.Rules {
		if p := Project(child, false); p != nil {
			out.Rules = append(out.Rules, p)
		}
	}
	if !isRoot && len(out.Rules) == 0 {
		return nil
	}
	return out
}

func projectRule(r *types.Rule) *types.Rule {
	return &types.Rule{
		ID:             r.ID,
		Field:          r.Field,
		Operator:       r.Operator,
		ParentOperator: r.ParentOperator,
		Value:          cloneValue(r.Value),
		ValueMeta:      cloneValue(r.ValueMeta),
	}
}

// NormalView keeps only the root's direct-child rules.
func NormalView(root *types.Group) *types.Group {
	out := root.Shell()
	out.IsActive = cloneBool(root.IsActive)
	out.Disabled = cloneBool(root.Disabled)
	for _, child := range root.Rules {
		if r, ok := child.(*types.Rule); ok {
			out.Rules = append(out.Rules, CloneRule(r))
		}
	}
	return out
}
