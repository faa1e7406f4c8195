package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/solatis/querybuilder/internal/types"
)

func TestNormalizeCommand(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(catalogPath, []byte("fields:\n  - name: name\n  - name: region\n    fieldType: column\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	input := `{"combinator":"or","rules":[
		{"field":"name","operator":"=","value":"x"},
		{"combinator":"or","rules":[]},
		{"combinator":"or","rules":[{"field":"region","operator":"=","value":"north"}]}
	]}`

	tests := []struct {
		name       string
		args       []string
		wantRules  int
		wantCombin types.Combinator
	}{
		{name: "valid tree", args: nil, wantRules: 2, wantCombin: types.CombinatorAnd},
		{name: "normal view", args: []string{"--normal-view"}, wantRules: 1, wantCombin: types.CombinatorAnd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetIn(strings.NewReader(input))
			rootCmd.SetArgs(append([]string{"normalize", "--catalog", catalogPath, "--log-level", "error"}, tt.args...))
			t.Cleanup(func() {
				normalizeCmd.Flags().Set("normal-view", "false")
			})

			if err := rootCmd.Execute(); err != nil {
				t.Fatalf("normalize failed: %v", err)
			}

			n, err := types.ParseNode(out.Bytes())
			if err != nil {
				t.Fatalf("output is not a query: %v\n%s", err, out.String())
			}
			root, ok := n.(*types.Group)
			if !ok {
				t.Fatalf("expected a group, got %T", n)
			}
			if len(root.Rules) != tt.wantRules {
				t.Errorf("rules = %d, want %d", len(root.Rules), tt.wantRules)
			}
			if root.Combinator != tt.wantCombin {
				t.Errorf("combinator = %q, want %q", root.Combinator, tt.wantCombin)
			}
		})
	}
}
