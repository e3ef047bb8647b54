package cmd

import (
	"fmt"
	"os"

	"github.com/sambabib/portability-analyzer/pkg/config"
	"github.com/sambabib/portability-analyzer/pkg/logger"
	"github.com/spf13/cobra"
)

// Version is set during build using ldflags
var Version = "dev"

var (
	configPath string
	verbose    bool

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "portability",
	Short: "Checks .NET API usage against target frameworks",
	Long: `Portability Analyzer reads the API dependencies extracted from your assemblies and
reports which of them are unavailable on the chosen target frameworks, together with
recommended replacements and known breaking changes.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadConfig(configPath)
		} else {
			cfg, err = config.FindAndLoadConfig(".")
		}
		if err != nil {
			return err
		}

		logger.Configure(cfg.Log.Level, cfg.Log.Format)
		if verbose {
			logger.SetVerbose(true)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: .portability.yaml in this or a parent directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
