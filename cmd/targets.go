package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sambabib/portability-analyzer/pkg/catalog"
	"github.com/sambabib/portability-analyzer/pkg/config"
	"github.com/sambabib/portability-analyzer/pkg/model"
	"github.com/sambabib/portability-analyzer/pkg/targets"
	"github.com/spf13/cobra"
)

var targetsCatalogPath string

// targetsCmd lists the targets the catalog knows and the configured aliases.
var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List catalog targets and target aliases",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTargets(cfg, targetsCatalogPath, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
	targetsCmd.Flags().StringVarP(&targetsCatalogPath, "catalog", "c", "", "Catalog data file (overrides config)")
}

func runTargets(cfg *config.Config, catalogPath string, out io.Writer) error {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	catalogPath = firstNonEmpty(catalogPath, cfg.Catalog)
	if catalogPath == "" {
		return fmt.Errorf("no catalog given: use --catalog or set catalog in %s", config.DefaultFileName)
	}
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FRAMEWORK\tVERSION\tFULL NAME")
	fmt.Fprintln(w, "---------\t-------\t---------")
	for _, t := range cat.Targets() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.Identifier, model.FormatVersion(t.Version), t.FullName())
	}

	mapper := targets.NewMapper(cfg.Aliases)
	if aliases := mapper.Aliases(); len(aliases) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "ALIAS\tTARGETS")
		fmt.Fprintln(w, "-----\t-------")
		for _, alias := range aliases {
			fmt.Fprintf(w, "%s\t%s\n", alias, strings.Join(mapper.Names(alias), "; "))
		}
	}
	return w.Flush()
}
