package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/knolhq/knol/pkg/invocation"
	"github.com/knolhq/knol/pkg/logger"
	"github.com/knolhq/knol/pkg/presenter"
	"github.com/knolhq/knol/pkg/store"
	"github.com/knolhq/knol/pkg/telemetry"
	"github.com/knolhq/knol/pkg/validate"
	"github.com/knolhq/knol/pkg/version"
)

func init() {
	viper.SetEnvPrefix("KNOL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.knol")
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "knol",
	Short: "Compose knowledge modules into AI-ready context payloads",
	Long: `knol resolves @module references in an instruction string against a
store of markdown knowledge modules, validates each module's required
sections, and composes the validated modules with the topic into a single
context payload.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.SetLogLevel(viper.GetString("log-level")); err != nil {
			return err
		}
		logger.SetLogFormat(viper.GetString("log-format"))
		presenter.SetQuiet(viper.GetBool("quiet"))
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			runCmd.Run(cmd, args)
			return
		}
		cmd.Help()
		os.Exit(1)
	},
}

// initTracing starts the tracer when enabled and returns its shutdown hook.
func initTracing(ctx context.Context) func(context.Context) error {
	shutdown, err := telemetry.InitTracer(ctx, telemetry.Config{
		Enabled:        viper.GetBool("tracing-enabled"),
		ServiceName:    "knol",
		ServiceVersion: version.Get().Version,
		SamplerType:    viper.GetString("tracing-sampler"),
		SamplerRatio:   viper.GetFloat64("tracing-ratio"),
	})
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to initialize tracing")
		return func(context.Context) error { return nil }
	}
	return shutdown
}

// buildStore constructs the module store selected by configuration. The
// returned cleanup is non-nil for stores holding resources.
func buildStore(ctx context.Context) (store.Store, func() error, error) {
	switch backend := viper.GetString("store"); backend {
	case "", "dir":
		var opts []store.DirOption
		if dirs := viper.GetStringSlice("module-dirs"); len(dirs) > 0 {
			opts = append(opts, store.WithDirs(dirs...))
		}
		ds, err := store.NewDirStore(opts...)
		if err != nil {
			return nil, nil, err
		}
		return ds, nil, nil
	case "sqlite":
		ss, err := store.OpenSQLiteStore(ctx, viper.GetString("db-path"))
		if err != nil {
			return nil, nil, err
		}
		return ss, ss.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q (expected dir or sqlite)", backend)
	}
}

// loadFamilies reads required section families from configuration, falling
// back to the defaults. Config shape:
//
//	sections:
//	  - name: Key Concepts
//	    headings: [Key Concepts]
func loadFamilies() ([]validate.Family, error) {
	if !viper.IsSet("sections") {
		return validate.DefaultFamilies(), nil
	}

	var families []validate.Family
	if err := viper.UnmarshalKey("sections", &families); err != nil {
		return nil, err
	}
	if len(families) == 0 {
		return validate.DefaultFamilies(), nil
	}
	return families, nil
}

func marker() string {
	if m := viper.GetString("marker"); m != "" {
		return m
	}
	return invocation.DefaultMarker
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt, json)")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().String("marker", invocation.DefaultMarker, "Reference marker prefix for module tokens")
	rootCmd.PersistentFlags().StringSlice("module-dirs", nil, "Module directories (default ./.knol/modules, ~/.knol/modules)")
	rootCmd.PersistentFlags().String("store", "dir", "Module store backend (dir or sqlite)")
	rootCmd.PersistentFlags().String("db-path", "", "SQLite module database path (default ~/.knol/modules.db)")
	rootCmd.PersistentFlags().Bool("tracing-enabled", false, "Enable OpenTelemetry tracing")
	rootCmd.PersistentFlags().String("tracing-sampler", "always", "Trace sampler (always, never, ratio)")
	rootCmd.PersistentFlags().Float64("tracing-ratio", 1.0, "Trace sampling ratio when sampler is ratio")

	viper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		presenter.Error(err, "")
		os.Exit(1)
	}
}
