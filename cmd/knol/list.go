package main

import (
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/knolhq/knol/pkg/presenter"
	"github.com/knolhq/knol/pkg/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available knowledge modules",
	Long: `List the knowledge modules the configured store holds.

Examples:
  knol list
  knol list --match 'duckdb*'
  knol list --long`,
	Run: func(cmd *cobra.Command, _ []string) {
		pattern, _ := cmd.Flags().GetString("match")
		long, _ := cmd.Flags().GetBool("long")
		if err := listModules(cmd, pattern, long); err != nil {
			presenter.Error(err, "failed to list modules")
			os.Exit(1)
		}
	},
}

func init() {
	listCmd.Flags().StringP("match", "m", "", "Only list modules whose identifier matches the glob pattern")
	listCmd.Flags().BoolP("long", "l", false, "Include module titles and descriptions")
}

func listModules(cmd *cobra.Command, pattern string, long bool) error {
	ctx := cmd.Context()

	moduleStore, cleanup, err := buildStore(ctx)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	lister, ok := moduleStore.(store.Lister)
	if !ok {
		return errors.New("the configured store does not support listing")
	}

	entries, err := lister.List(ctx)
	if err != nil {
		return err
	}

	entries, err = store.FilterByPattern(entries, pattern)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		presenter.Info("No modules found.")
		return nil
	}

	if !long {
		for _, e := range entries {
			presenter.Info(e.Identifier)
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	_, _ = w.Write([]byte("NAME\tTITLE\tDESCRIPTION\n"))
	for _, e := range entries {
		_, _ = w.Write([]byte(e.Identifier + "\t" + e.Title + "\t" + e.Description + "\n"))
	}

	return nil
}
