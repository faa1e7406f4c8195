package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/solatis/querybuilder/internal/core/store"
	"github.com/solatis/querybuilder/internal/types"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Inspect and delete saved filters",
}

var filtersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved filters",
	Args:  cobra.NoArgs,
	RunE:  runFiltersList,
}

var filtersShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print a saved filter's query tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiltersShow,
}

var filtersDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a saved filter",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiltersDelete,
}

func init() {
	rootCmd.AddCommand(filtersCmd)
	filtersCmd.AddCommand(filtersListCmd, filtersShowCmd, filtersDeleteCmd)
	filtersListCmd.Flags().String("owner", "", "only list filters owned by this email")
}

// withStore opens the configured database and runs fn against its filter store.
func withStore(cmd *cobra.Command, fn func(context.Context, *store.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	s, err := store.New(database)
	if err != nil {
		return err
	}
	return fn(cmd.Context(), s)
}

func runFiltersList(cmd *cobra.Command, args []string) error {
	owner, _ := cmd.Flags().GetString("owner")
	return withStore(cmd, func(ctx context.Context, s *store.Store) error {
		filters, err := s.List(ctx, owner)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tOWNER\tACTIVE\tUPDATED")
		for _, f := range filters {
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", f.Name, f.OwnerEmail, f.IsActive,
				time.UnixMilli(f.UpdatedAt).UTC().Format(time.RFC3339))
		}
		return w.Flush()
	})
}

func runFiltersShow(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, s *store.Store) error {
		f, err := s.Get(ctx, args[0])
		if err != nil {
			return err
		}
		root, err := f.Query()
		if err != nil {
			return err
		}
		encoded, err := types.MarshalNode(root)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		return nil
	})
}

func runFiltersDelete(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, s *store.Store) error {
		if err := s.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	})
}
