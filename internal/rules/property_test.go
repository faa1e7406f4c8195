// internal/rules/property_test.go
package rules

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/querybuilder/internal/types"
)

// randomTree builds a tree from seed with unique ids. Groups may be empty.
func randomTree(seed int64, fields []string) *types.Group {
	rng := rand.New(rand.NewSource(seed))
	n := 0
	nextID := func(prefix string) string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}

	combinators := []types.Combinator{types.CombinatorAnd, types.CombinatorOr}

	var build func(depth int) *types.Group
	build = func(depth int) *types.Group {
		g := group(nextID("tg"), combinators[rng.Intn(2)])
		for i := rng.Intn(5); i > 0; i-- {
			if depth < 4 && rng.Intn(3) == 0 {
				g.Rules = append(g.Rules, build(depth+1))
				continue
			}
			g.Rules = append(g.Rules, rule(nextID("tr"), fields[rng.Intn(len(fields))]))
		}
		return g
	}
	return build(0)
}

// groupsOf lists every group of the tree, root first.
func groupsOf(g *types.Group) []*types.Group {
	out := []*types.Group{g}
	for _, child := range g.Rules {
		if sub, ok := child.(*types.Group); ok {
			out = append(out, groupsOf(sub)...)
		}
	}
	return out
}

func TestProperty_ProjectionIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("projecting twice equals projecting once", prop.ForAll(
		func(seed int64) bool {
			once := ProjectRoot(randomTree(seed, []string{"name", "region"}))
			return reflect.DeepEqual(once, ProjectRoot(once))
		},
		gen.Int64(),
	))

	properties.Property("no empty group survives below the root", prop.ForAll(
		func(seed int64) bool {
			root := ProjectRoot(randomTree(seed, []string{"name"}))
			for _, g := range groupsOf(root)[1:] {
				if len(g.Rules) == 0 {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestProperty_CombinatorForcing(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	idx := newCategoryIndex(testFields)

	properties.Property("groups holding protected rules are and", prop.ForAll(
		func(seed int64) bool {
			root := randomTree(seed, []string{"name", "region", "revenue", "active"})
			EnforceCombinators(root, testFields)
			for i, g := range groupsOf(root) {
				isRoot := i == 0
				protected := childHasCategory(g, idx.columns, isRoot) || childHasCategory(g, idx.measures, isRoot)
				if protected && g.Combinator != types.CombinatorAnd {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestProperty_AddRuleOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("added rule lands right before the first nested group", prop.ForAll(
		func(seed int64, pick int) bool {
			b, _ := newTestBuilder(t, randomTree(seed, []string{"name"}), nil)
			groups := groupsOf(b.Query())
			parentID := groups[pick%len(groups)].ID
			if !b.AddRule(rule("added", "name"), parentID) {
				return false
			}

			parent, _ := FindGroup(parentID, b.Query())
			for i, child := range parent.Rules {
				if child.NodeID() != "added" {
					if _, isGroup := child.(*types.Group); isGroup {
						return false
					}
					continue
				}
				if i+1 == len(parent.Rules) {
					return true
				}
				_, nextIsGroup := parent.Rules[i+1].(*types.Group)
				return nextIsGroup
			}
			return false
		},
		gen.Int64(),
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}

func TestProperty_AddRemoveRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("removing an added rule restores the tree", prop.ForAll(
		func(seed int64, pick int) bool {
			b, _ := newTestBuilder(t, randomTree(seed, []string{"name"}), nil)
			before := b.Query()
			groups := groupsOf(before)
			parentID := groups[pick%len(groups)].ID

			b.AddRule(rule("added", "name"), parentID)
			if !b.RemoveRule("added", parentID) {
				return false
			}
			return reflect.DeepEqual(before, b.Query())
		},
		gen.Int64(),
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}
