package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/knolhq/knol/pkg/presenter"
	"github.com/knolhq/knol/pkg/store"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the SQLite module database",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var dbImportCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import markdown modules from a directory into the database",
	Long: `Import every markdown file in a directory into the SQLite module
database, keyed by filename without the .md extension.

Examples:
  knol db import ./.knol/modules
  knol db import ./modules --db-path /tmp/modules.db`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := importModules(cmd, args[0]); err != nil {
			presenter.Error(err, "import failed")
			os.Exit(1)
		}
	},
}

var dbExportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Export database modules to a directory of markdown files",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := exportModules(cmd, args[0]); err != nil {
			presenter.Error(err, "export failed")
			os.Exit(1)
		}
	},
}

func init() {
	dbCmd.AddCommand(dbImportCmd)
	dbCmd.AddCommand(dbExportCmd)
}

func importModules(cmd *cobra.Command, dir string) error {
	ctx := cmd.Context()

	ss, err := store.OpenSQLiteStore(ctx, viper.GetString("db-path"))
	if err != nil {
		return err
	}
	defer ss.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "failed to read module directory %q", dir)
	}

	imported := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return errors.Wrapf(err, "failed to read %q", entry.Name())
		}

		identifier := strings.TrimSuffix(entry.Name(), ".md")
		if err := ss.Put(ctx, identifier, string(content)); err != nil {
			return err
		}
		imported++
	}

	presenter.Success(fmt.Sprintf("Imported %d module(s) into the database", imported))
	return nil
}

func exportModules(cmd *cobra.Command, dir string) error {
	ctx := cmd.Context()

	ss, err := store.OpenSQLiteStore(ctx, viper.GetString("db-path"))
	if err != nil {
		return err
	}
	defer ss.Close()

	entries, err := ss.List(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create export directory %q", dir)
	}

	for _, e := range entries {
		content, err := ss.Read(ctx, e.Identifier)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, e.Identifier+".md")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return errors.Wrapf(err, "failed to write %q", path)
		}
	}

	presenter.Success(fmt.Sprintf("Exported %d module(s) to %s", len(entries), dir))
	return nil
}
