package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pageforge/pageforge/pkg/config"
	"github.com/pageforge/pageforge/pkg/inspect"
	"github.com/pageforge/pageforge/pkg/manifest"
	"github.com/pageforge/pageforge/pkg/template"
)

// inspectOpts holds the command-line flags for the inspect command.
type inspectOpts struct {
	dot     bool   // print the structure as Graphviz DOT
	svg     string // render the structure to an SVG file
	resolve bool   // collapse the inheritance chain before inspecting
	noCache bool   // disable template caching during resolution
}

// newInspectCmd creates the inspect command, which reports structure
// statistics and Graphviz diagrams for a manifest.
func newInspectCmd() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect <manifest>",
		Short: "Report structure statistics for a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dot, "dot", false, "print the structure tree as Graphviz DOT")
	cmd.Flags().StringVar(&opts.svg, "svg", "", "render the structure tree to an SVG file")
	cmd.Flags().BoolVar(&opts.resolve, "resolve", false, "resolve template inheritance before inspecting")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable template caching")

	return cmd
}

func runInspect(cmd *cobra.Command, path string, opts *inspectOpts) error {
	ctx := cmd.Context()

	m, err := manifest.ParseFile(path)
	if err != nil {
		return err
	}

	if opts.resolve {
		cfg, err := config.LoadFromDir(".")
		if err != nil {
			return err
		}
		c, err := newCache(ctx, cfg, opts.noCache)
		if err != nil {
			return err
		}
		defer c.Close()

		m, err = template.Resolve(ctx, m, template.NewLoader(filepath.Dir(path), c))
		if err != nil {
			return err
		}
	}

	if opts.dot {
		fmt.Fprint(cmd.OutOrStdout(), inspect.ToDOT(m))
		return nil
	}
	if opts.svg != "" {
		svg, err := inspect.RenderSVG(ctx, inspect.ToDOT(m))
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.svg, svg, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.svg, err)
		}
		printSuccess("Rendered structure diagram")
		printFile(opts.svg)
		return nil
	}

	printReport(inspect.Analyze(m))
	return nil
}

// printReport prints the structure report as labeled lines.
func printReport(r *inspect.Report) {
	fmt.Println(StyleTitle.Render(r.Title))
	if r.Extends != "" {
		printKeyValue("extends", r.Extends)
	}
	printKeyValue("elements", fmt.Sprintf("%d", r.ElementCount))
	printKeyValue("max depth", fmt.Sprintf("%d", r.MaxDepth))

	if len(r.Tags) > 0 {
		parts := make([]string, 0, len(r.Tags))
		for _, tag := range r.TagsSorted() {
			parts = append(parts, fmt.Sprintf("%s ×%d", tag, r.Tags[tag]))
		}
		printKeyValue("tags", strings.Join(parts, ", "))
	}
	if len(r.Slots) > 0 {
		printKeyValue("slots", strings.Join(r.Slots, ", "))
	}
	if len(r.StyleNames) > 0 {
		printKeyValue("styles", strings.Join(r.StyleNames, ", "))
	}
}
