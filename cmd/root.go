package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qahub/qa-hub/cmd/dedupe"
	"github.com/qahub/qa-hub/cmd/importcsv"
	"github.com/qahub/qa-hub/cmd/serve"
	"github.com/qahub/qa-hub/cmd/template"
	"github.com/qahub/qa-hub/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "qahub",
		Short: "Qa-Hub test case management",
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		serve.Command(settings),
		importcsv.Command(settings),
		dedupe.Command(settings),
		template.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags configures global persistent flags, bound into viper so the
// command line overrides the config file.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")

	_ = viper.BindPFlags(rootCmd.PersistentFlags())
}
