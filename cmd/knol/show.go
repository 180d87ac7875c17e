package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/knolhq/knol/pkg/presenter"
	"github.com/knolhq/knol/pkg/store"
)

var showCmd = &cobra.Command{
	Use:   "show <module>",
	Short: "Print a knowledge module's content",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := showModule(cmd, args[0]); err != nil {
			presenter.Error(err, "failed to show module")
			os.Exit(1)
		}
	},
}

func init() {
	showCmd.Flags().Bool("raw", false, "Print the document as stored, including frontmatter")
}

func showModule(cmd *cobra.Command, name string) error {
	ctx := cmd.Context()

	moduleStore, cleanup, err := buildStore(ctx)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if !moduleStore.Exists(ctx, name) {
		return store.NotFoundError{Identifier: name}
	}

	content, err := moduleStore.Read(ctx, name)
	if err != nil {
		return err
	}

	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		fmt.Print(content)
		return nil
	}

	meta, body := store.ParseFrontmatter(content)
	if meta.Title != "" {
		presenter.Section(meta.Title)
	}
	fmt.Print(body)
	return nil
}
