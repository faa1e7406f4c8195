// internal/rules/locate.go
package rules

import "github.com/solatis/querybuilder/internal/types"

// NotFoundLevel is returned by Level when the id is absent from the tree.
const NotFoundLevel = -1

// Find returns the first group or rule with the given id, depth-first.
func Find(id string, root types.Node) (types.Node, bool) {
	if root == nil {
		return nil, false
	}
	if root.NodeID() == id {
		return root, true
	}
	if g, ok := root.(*types.Group); ok {
		for _, child := range g.Rules {
			if found, ok := Find(id, child); ok {
				return found, true
			}
		}
	}
	return nil, false
}

// FindGroup locates a group by id. Rules with a matching id are not returned.
func FindGroup(id string, root types.Node) (*types.Group, bool) {
	n, ok := Find(id, root)
	if !ok {
		return nil, false
	}
	g, ok := n.(*types.Group)
	return g, ok
}

// FindRule locates a rule by id. Groups with a matching id are not returned.
func FindRule(id string, root types.Node) (*types.Rule, bool) {
	n, ok := Find(id, root)
	if !ok {
		return nil, false
	}
	r, ok := n.(*types.Rule)
	return r, ok
}

// Level returns the nesting depth of id (root = 0), or NotFoundLevel.
func Level(id string, root types.Node) int {
	return levelFrom(id, 0, root)
}

func levelFrom(id string, depth int, n types.Node) int {
	if n.NodeID() == id {
		return depth
	}
	if g, ok := n.(*types.Group); ok {
		for _, child := range g.Rules {
			if lvl := levelFrom(id, depth+1, child); lvl != NotFoundLevel {
				return lvl
			}
		}
	}
	return NotFoundLevel
}

// collectIDs records every id in the tree.
func collectIDs(n types.Node, ids map[string]struct{}) {
	ids[n.NodeID()] = struct{}{}
	if g, ok := n.(*types.Group); ok {
		for _, child := range g.Rules {
			collectIDs(child, ids)
		}
	}
}
