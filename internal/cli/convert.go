package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pageforge/pageforge/pkg/config"
	"github.com/pageforge/pageforge/pkg/pipeline"
)

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	formatsStr string   // comma-separated target formats
	output     string   // output directory
	filename   string   // explicit output filename (single format only)
	minify     bool     // strip comments and inter-tag whitespace
	strict     bool     // escalate validation warnings to errors
	refresh    bool     // bypass the template cache for this run
	noCache    bool     // disable caching entirely
	workers    int      // parallel workers for batch conversion
	varFlags   []string // key=value substitutions
}

// newConvertCmd creates the convert command, the main entry point of the
// CLI. It accepts one or more manifests; multiple manifests are converted
// in parallel as a batch.
func newConvertCmd() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert <manifest>...",
		Short: "Convert manifests into HTML, React, Vue, or PHP pages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromDir(".")
			if err != nil {
				return err
			}
			popts, outDir, err := buildPipelineOptions(&opts, cfg)
			if err != nil {
				return err
			}
			runner, err := newRunner(cmd.Context(), cfg, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			return runConvert(cmd.Context(), runner, args, popts, outDir, opts.workers)
		},
	}

	cmd.Flags().StringVarP(&opts.formatsStr, "format", "f", "", "output format(s): html (default), react, vue, php (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory")
	cmd.Flags().StringVar(&opts.filename, "filename", "", "output filename (single format only)")
	cmd.Flags().BoolVar(&opts.minify, "minify", false, "minify output")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "treat validation warnings as errors")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "refetch remote templates, bypassing the cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable template caching")
	cmd.Flags().IntVar(&opts.workers, "workers", 4, "parallel workers for batch conversion")
	cmd.Flags().StringArrayVar(&opts.varFlags, "var", nil, "template variable as key=value (repeatable)")

	return cmd
}

// buildPipelineOptions merges flags over the project configuration. Flags
// always win.
func buildPipelineOptions(opts *convertOpts, cfg *config.Config) (pipeline.Options, string, error) {
	vars, err := parseVars(opts.varFlags, cfg.Vars)
	if err != nil {
		return pipeline.Options{}, "", err
	}

	popts := pipeline.Options{
		Strict:   opts.strict || cfg.Strict,
		Vars:     vars,
		Refresh:  opts.refresh,
		Formats:  parseFormats(opts.formatsStr, cfg),
		Minify:   opts.minify || cfg.Minify,
		Filename: opts.filename,
	}

	outDir := opts.output
	if outDir == "" {
		outDir = cfg.OutputDir
	}
	return popts, outDir, nil
}

// runConvert converts every manifest and writes the outputs. A single
// manifest runs inline; multiple manifests run as a worker-pool batch.
func runConvert(ctx context.Context, runner *pipeline.Runner, paths []string, popts pipeline.Options, outDir string, workers int) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	if len(paths) == 1 {
		popts.ManifestPath = paths[0]
		res, err := runner.Execute(ctx, popts)
		if err != nil {
			return err
		}
		if err := reportResult(paths[0], res, outDir); err != nil {
			return err
		}
		prog.done(fmt.Sprintf("Converted %s", paths[0]))
		return nil
	}

	spin := newSpinnerWithContext(ctx, fmt.Sprintf("converting %d manifests", len(paths)))
	spin.Start()
	items := runner.ExecuteBatch(ctx, paths, popts, workers)
	spin.Stop()
	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
			printError("%s: %v", item.Path, item.Err)
			continue
		}
		if err := reportResult(item.Path, item.Result, outDir); err != nil {
			failed++
		}
	}
	prog.done(fmt.Sprintf("Converted %d of %d manifests", len(items)-failed, len(items)))
	if failed > 0 {
		return fmt.Errorf("%d of %d manifests failed", failed, len(items))
	}
	return nil
}

// reportResult writes all successful outputs of one run and prints warnings
// and per-format failures.
func reportResult(path string, res *pipeline.Result, outDir string) error {
	for _, w := range res.Warnings {
		printWarning("%s: %s", path, w)
	}

	written, err := writeOutputs(res, outDir)
	if err != nil {
		return err
	}
	printSuccess("%s (%d elements)", path, res.Stats.ElementCount)
	for _, out := range written {
		printFile(out)
	}

	for format, convErr := range res.FormatErrors {
		printError("%s: %s failed: %v", path, format, convErr)
	}
	if len(res.FormatErrors) > 0 {
		return fmt.Errorf("%d format(s) failed for %s", len(res.FormatErrors), path)
	}
	return nil
}

// writeOutputs writes each converted format to the output directory and
// returns the written paths in stable format order.
func writeOutputs(res *pipeline.Result, outDir string) ([]string, error) {
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	formats := make([]string, 0, len(res.Outputs))
	for format := range res.Outputs {
		formats = append(formats, format)
	}
	sort.Strings(formats)

	var written []string
	for _, format := range formats {
		out := res.Outputs[format]
		path := filepath.Join(outDir, out.Filename)
		if err := os.WriteFile(path, []byte(out.Content), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
