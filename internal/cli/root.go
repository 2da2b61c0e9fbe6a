package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pageforge/pageforge/pkg/cache"
	"github.com/pageforge/pageforge/pkg/config"
	"github.com/pageforge/pageforge/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "pageforge"

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version.
// This is typically called by the main package during initialization with
// values injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the pageforge CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute() error {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "PageForge converts YAML manifests into web pages",
		Long:         `PageForge is a CLI tool for generating HTML, React, Vue, and PHP pages from YAML manifests, with template inheritance, style management, and page scraping.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s\n", appName, version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newConvertCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newScrapeCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newCompletionCmd())

	return root.ExecuteContext(context.Background())
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	c, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(c, loggerFromContext(ctx)), nil
}

// newCache selects the cache backend from configuration: Redis when a URL is
// configured, otherwise a file cache under the user cache directory.
func newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.RedisURL != "" {
		return cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
	}
	c, err := cache.NewFileCache(cfg.CacheDir())
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return c, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
// If empty, the configured defaults apply.
func parseFormats(s string, cfg *config.Config) []string {
	if s == "" {
		return cfg.Formats
	}
	return strings.Split(s, ",")
}

// parseVars parses repeated key=value flags into a substitution map layered
// over the configured defaults.
func parseVars(pairs []string, defaults map[string]string) (map[string]string, error) {
	vars := make(map[string]string, len(defaults)+len(pairs))
	for k, v := range defaults {
		vars[k] = v
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q (expected key=value)", pair)
		}
		vars[key] = value
	}
	return vars, nil
}
