package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pageforge/pageforge/pkg/config"
	"github.com/pageforge/pageforge/pkg/scrape"
)

// scrapeOpts holds the command-line flags for the scrape command.
type scrapeOpts struct {
	output   string // manifest output path; stdout when empty
	selector string // CSS selector restricting the scraped region
	maxDepth int    // structure depth bound
	noCache  bool   // disable response caching
}

// newScrapeCmd creates the scrape command, which converts an existing web
// page into a manifest.
func newScrapeCmd() *cobra.Command {
	var opts scrapeOpts

	cmd := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Convert an existing web page into a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromDir(".")
			if err != nil {
				return err
			}
			return runScrape(cmd, args[0], &opts, cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "manifest output file (default stdout)")
	cmd.Flags().StringVarP(&opts.selector, "selector", "s", "", "CSS selector restricting scraping to one element")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", scrape.DefaultMaxDepth, "maximum structure depth before flattening")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable response caching")

	return cmd
}

func runScrape(cmd *cobra.Command, url string, opts *scrapeOpts, cfg *config.Config) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	c, err := newCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer c.Close()

	scraper := scrape.New(c)
	scraper.Selector = opts.selector
	scraper.MaxDepth = opts.maxDepth

	logger.Infof("Scraping %s", url)
	spin := newSpinnerWithContext(ctx, fmt.Sprintf("fetching %s", url))
	spin.Start()
	m, err := scraper.Scrape(ctx, url)
	spin.Stop()
	if err != nil {
		return err
	}

	data, err := m.Encode()
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if opts.output == "" {
		fmt.Fprint(cmd.OutOrStdout(), string(data))
	} else {
		if err := os.WriteFile(opts.output, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.output, err)
		}
		printSuccess("Scraped %s", url)
		printFile(opts.output)
	}

	prog.done(fmt.Sprintf("Scraped %q", m.Title()))
	return nil
}
