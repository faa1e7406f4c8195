// internal/rules/locate_test.go
package rules

import (
	"testing"

	"github.com/solatis/querybuilder/internal/types"
)

func TestFindAndLevel(t *testing.T) {
	root := group("root", types.CombinatorAnd,
		rule("r1", "name"),
		group("g1", types.CombinatorOr,
			rule("r2", "name"),
			group("g2", types.CombinatorAnd, rule("r3", "name")),
		),
	)

	tests := []struct {
		id        string
		wantFound bool
		wantLevel int
	}{
		{id: "root", wantFound: true, wantLevel: 0},
		{id: "r1", wantFound: true, wantLevel: 1},
		{id: "g1", wantFound: true, wantLevel: 1},
		{id: "r2", wantFound: true, wantLevel: 2},
		{id: "g2", wantFound: true, wantLevel: 2},
		{id: "r3", wantFound: true, wantLevel: 3},
		{id: "missing", wantFound: false, wantLevel: NotFoundLevel},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			n, found := Find(tt.id, root)
			if found != tt.wantFound {
				t.Fatalf("Find(%q) found = %v, want %v", tt.id, found, tt.wantFound)
			}
			if found && n.NodeID() != tt.id {
				t.Errorf("Find(%q) returned %q", tt.id, n.NodeID())
			}
			if got := Level(tt.id, root); got != tt.wantLevel {
				t.Errorf("Level(%q) = %d, want %d", tt.id, got, tt.wantLevel)
			}
		})
	}
}

func TestFindGroupAndRule_RejectOtherVariant(t *testing.T) {
	root := group("root", types.CombinatorAnd, rule("r1", "name"))

	if _, ok := FindGroup("r1", root); ok {
		t.Error("FindGroup(r1) found a rule, want not found")
	}
	if _, ok := FindRule("root", root); ok {
		t.Error("FindRule(root) found a group, want not found")
	}
	if r, ok := FindRule("r1", root); !ok || r.Field != "name" {
		t.Errorf("FindRule(r1) = %v, %v", r, ok)
	}
}
