package cli

import (
	"github.com/spf13/cobra"

	"github.com/pageforge/pageforge/pkg/config"
	"github.com/pageforge/pageforge/pkg/pipeline"
	"github.com/pageforge/pageforge/pkg/server"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr     string   // listen address
	strict   bool     // escalate validation warnings to errors
	noCache  bool     // disable template caching
	varFlags []string // key=value substitutions
}

// newServeCmd creates the serve command, which runs the live-reload dev
// server for one manifest.
func newServeCmd() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve <manifest>",
		Short: "Serve a manifest with live reload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromDir(".")
			if err != nil {
				return err
			}
			vars, err := parseVars(opts.varFlags, cfg.Vars)
			if err != nil {
				return err
			}

			runner, err := newRunner(cmd.Context(), cfg, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			addr := opts.addr
			if addr == "" {
				addr = cfg.Server.Addr
			}

			popts := pipeline.Options{
				Strict: opts.strict || cfg.Strict,
				Vars:   vars,
			}
			logger := loggerFromContext(cmd.Context())
			printInfo("Serving %s at http://%s", args[0], addr)
			s := server.New(runner, args[0], addr, popts, logger)
			return s.Start(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, localhost:8080)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "treat validation warnings as errors")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable template caching")
	cmd.Flags().StringArrayVar(&opts.varFlags, "var", nil, "template variable as key=value (repeatable)")

	return cmd
}
