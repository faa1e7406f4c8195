// internal/rules/helpers_test.go
package rules

import (
	"fmt"
	"testing"

	"github.com/solatis/querybuilder/internal/types"
)

// seqIDs is a deterministic IDProvider for tests.
type seqIDs struct{ n int }

func (s *seqIDs) RuleID() string {
	s.n++
	return fmt.Sprintf("r-%d", s.n)
}

func (s *seqIDs) GroupID() string {
	s.n++
	return fmt.Sprintf("g-%d", s.n)
}

var testFields = []types.Field{
	{Name: "name", Label: "Name"},
	{Name: "region", Label: "Region", FieldType: types.FieldTypeColumn},
	{Name: "revenue", Label: "Revenue", FieldType: types.FieldTypeMeasure},
	{Name: "active", Label: "Active"},
}

type notification struct {
	query  *types.Group
	prop   Property
	ruleID string
}

// recorder collects notifications delivered to a listener.
type recorder struct {
	calls []notification
}

func (r *recorder) listen(query *types.Group, prop Property, ruleID string) {
	r.calls = append(r.calls, notification{query: query, prop: prop, ruleID: ruleID})
}

func (r *recorder) last(t *testing.T) notification {
	t.Helper()
	if len(r.calls) == 0 {
		t.Fatal("no notification recorded")
	}
	return r.calls[len(r.calls)-1]
}

func newTestBuilder(t *testing.T, query types.Node, configure func(*Options)) (*Builder, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts := DefaultOptions(testFields...)
	opts.IDs = &seqIDs{}
	opts.OnChange = rec.listen
	if configure != nil {
		configure(&opts)
	}
	b, err := NewBuilder(query, opts)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v, want nil", err)
	}
	return b, rec
}

func rule(id, field string) *types.Rule {
	return &types.Rule{ID: id, Field: field, Operator: "=", Value: "v-" + id}
}

func group(id string, c types.Combinator, children ...types.Node) *types.Group {
	if children == nil {
		children = []types.Node{}
	}
	return &types.Group{ID: id, Combinator: c, Rules: children}
}

// childIDs lists the ids of g's direct children.
func childIDs(g *types.Group) []string {
	ids := make([]string, 0, len(g.Rules))
	for _, child := range g.Rules {
		ids = append(ids, child.NodeID())
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
