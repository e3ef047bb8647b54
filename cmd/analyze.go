package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sambabib/portability-analyzer/pkg/analyzer"
	"github.com/sambabib/portability-analyzer/pkg/catalog"
	"github.com/sambabib/portability-analyzer/pkg/config"
	"github.com/sambabib/portability-analyzer/pkg/datafile"
	"github.com/sambabib/portability-analyzer/pkg/logger"
	"github.com/sambabib/portability-analyzer/pkg/model"
	"github.com/sambabib/portability-analyzer/pkg/output"
	"github.com/sambabib/portability-analyzer/pkg/targets"
	"github.com/spf13/cobra"
)

// analyzeOptions holds the analyze command line; empty values fall back to
// the configuration.
type analyzeOptions struct {
	requestPath  string
	catalogPath  string
	targetNames  []string
	flags        string
	format       string
	outputPath   string
	workers      int
	submissionID string
}

var analyzeOpts analyzeOptions

// analyzeCmd represents the analyze subcommand
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze an API dependency request",
	Long: `Analyze the API dependencies in a request file (JSON, optionally .gz or .zst) against
the catalog and report unsupported APIs, breaking changes and unresolved assemblies.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.Context(), cfg, analyzeOpts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeOpts.requestPath, "request", "r", "", "Analyze request file (.json, .json.gz, .json.zst)")
	f.StringVarP(&analyzeOpts.catalogPath, "catalog", "c", "", "Catalog data file (overrides config)")
	f.StringArrayVarP(&analyzeOpts.targetNames, "target", "t", nil, "Target name or alias; repeatable (overrides the request)")
	f.StringVar(&analyzeOpts.flags, "flags", "", "Analyses to run: nonportable,breaking,retargeting,notelemetry (overrides the request)")
	f.StringVarP(&analyzeOpts.format, "format", "f", "", "Output format: text or json")
	f.StringVarP(&analyzeOpts.outputPath, "output", "o", "", "Output file (default stdout)")
	f.IntVar(&analyzeOpts.workers, "workers", 0, "Parallel workers for the member scan")
	f.StringVar(&analyzeOpts.submissionID, "submission-id", "", "Submission id (default: random)")
	_ = analyzeCmd.MarkFlagRequired("request")
}

func runAnalyze(ctx context.Context, cfg *config.Config, opts analyzeOptions, stdout io.Writer) error {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	catalogPath := firstNonEmpty(opts.catalogPath, cfg.Catalog)
	if catalogPath == "" {
		return fmt.Errorf("no catalog given: use --catalog or set catalog in %s", config.DefaultFileName)
	}
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}

	req, err := loadRequest(opts.requestPath)
	if err != nil {
		return err
	}
	if len(opts.targetNames) > 0 {
		req.Targets = opts.targetNames
	}
	if opts.flags != "" {
		if req.RequestFlags, err = model.ParseRequestFlags(opts.flags); err != nil {
			return err
		}
	}
	req.AssembliesToIgnore = append(req.AssembliesToIgnore, cfg.AssembliesToIgnore...)
	req.BreakingChangesToSuppress = append(req.BreakingChangesToSuppress, cfg.BreakingChangesToSuppress...)

	workers := opts.workers
	if workers == 0 {
		workers = cfg.Workers
	}
	engine := analyzer.NewEngine(cat, cat, analyzer.WithWorkers(workers))
	ra := analyzer.NewRequestAnalyzer(engine,
		targets.NewMapper(cfg.Aliases),
		targets.NewNameParser(cat, cfg.Targets),
		analyzer.WithCatalogInfo(cat),
	)

	resp, err := ra.AnalyzeRequest(ctx, req, opts.submissionID)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	logger.Infof("Analyzed %q: %d unsupported APIs, %d breaking changes", resp.ApplicationName, len(resp.MissingDependencies), len(resp.BreakingChanges))

	out := stdout
	outputPath := firstNonEmpty(opts.outputPath, cfg.Output.File)
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return output.Write(out, firstNonEmpty(opts.format, cfg.Output.Format), resp)
}

// loadRequest decodes a JSON analyze request, decompressing .gz and .zst files.
func loadRequest(path string) (*model.AnalyzeRequest, error) {
	r, format, err := datafile.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if format != datafile.FormatJSON {
		return nil, fmt.Errorf("%w: analyze requests must be JSON: %s", datafile.ErrUnsupportedFormat, path)
	}

	var req model.AnalyzeRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("error parsing request %s: %w", path, err)
	}
	logger.Debugf("Loaded request %s with %d dependencies", path, req.Dependencies.Len())
	return &req, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
