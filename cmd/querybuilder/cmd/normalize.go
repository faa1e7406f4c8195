package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/querybuilder/internal/catalog"
	"github.com/solatis/querybuilder/internal/rules"
	"github.com/solatis/querybuilder/internal/types"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Normalize a query document and print the valid tree",
	Long: `normalize reads a query document (a group or a bare rule) from file, or
stdin when file is "-" or omitted, loads it into a builder backed by the field
catalog and prints the resulting tree with empty groups pruned.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().String("catalog", "", "field catalog file")
	normalizeCmd.Flags().Bool("normal-view", false, "print only the root-level rules")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("catalog") {
		cfg.CatalogPath, _ = cmd.Flags().GetString("catalog")
	}
	normalView, _ := cmd.Flags().GetBool("normal-view")

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	query, err := types.ParseNode(data)
	if err != nil {
		return fmt.Errorf("failed to parse query: %w", err)
	}

	opts := cat.Options()
	cfg.Builder.Apply(&opts)
	b, err := rules.NewBuilder(query, opts)
	if err != nil {
		return err
	}

	out := rules.ProjectRoot(b.Query())
	if normalView {
		out = rules.NormalView(out)
	}
	encoded, err := types.MarshalNode(out)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	return data, nil
}
