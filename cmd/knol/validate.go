package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/knolhq/knol/pkg/presenter"
	"github.com/knolhq/knol/pkg/store"
	"github.com/knolhq/knol/pkg/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate [module...]",
	Short: "Check modules for the required section headings",
	Long: `Validate the structure of knowledge modules. With no arguments every
module in the store is checked.

Examples:
  knol validate duckdb neovim
  knol validate`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := validateModules(cmd, args); err != nil {
			presenter.Error(err, "validation failed")
			os.Exit(1)
		}
	},
}

func validateModules(cmd *cobra.Command, names []string) error {
	ctx := cmd.Context()

	moduleStore, cleanup, err := buildStore(ctx)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	families, err := loadFamilies()
	if err != nil {
		return errors.Wrap(err, "invalid sections configuration")
	}
	validator, err := validate.New(validate.WithFamilies(families...))
	if err != nil {
		return err
	}

	if len(names) == 0 {
		lister, ok := moduleStore.(store.Lister)
		if !ok {
			return errors.New("the configured store does not support listing; name the modules to validate")
		}
		entries, err := lister.List(ctx)
		if err != nil {
			return err
		}
		for _, e := range entries {
			names = append(names, e.Identifier)
		}
	}

	if len(names) == 0 {
		presenter.Info("No modules to validate.")
		return nil
	}

	var result *multierror.Error
	for _, name := range names {
		if !moduleStore.Exists(ctx, name) {
			result = multierror.Append(result, store.NotFoundError{Identifier: name})
			continue
		}

		content, err := moduleStore.Read(ctx, name)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "failed to read module %q", name))
			continue
		}

		_, body := store.ParseFrontmatter(content)
		report := validator.Validate(&store.Module{Identifier: name, RawContent: body})
		if report.Valid() {
			presenter.Success(name)
			continue
		}

		presenter.Warning(fmt.Sprintf("%s: missing %s", name, strings.Join(report.MissingSections, ", ")))
		result = multierror.Append(result,
			errors.Errorf("module %q is missing required sections: %s", name, strings.Join(report.MissingSections, ", ")))
	}

	return result.ErrorOrNil()
}
