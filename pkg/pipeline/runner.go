package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pageforge/pageforge/pkg/cache"
	"github.com/pageforge/pageforge/pkg/convert"
	pferrors "github.com/pageforge/pageforge/pkg/errors"
	"github.com/pageforge/pageforge/pkg/manifest"
	"github.com/pageforge/pageforge/pkg/style"
	"github.com/pageforge/pageforge/pkg/template"
)

// Runner executes the conversion pipeline. It is stateless apart from the
// cache and logger; multiple goroutines can safely share one Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables remote template caching;
// a nil logger falls back to the default logger.
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger}
}

// Execute runs the complete validate → resolve → convert pipeline.
//
// Validation and template resolution failures abort the run. Conversion
// failures are isolated per format: a failed target lands in
// Result.FormatErrors while sibling formats proceed. Execute returns an
// error only when no requested format succeeded.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		if pferrors.GetCode(err) != "" {
			return nil, err
		}
		return nil, pferrors.Wrap(pferrors.ErrCodeValidation, err, "invalid options")
	}

	result := &Result{
		Outputs:      make(map[string]*convert.Result),
		FormatErrors: make(map[string]error),
	}

	// Stage 1: Load
	loadStart := time.Now()
	m, err := r.load(opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)

	// Stage 2: Validate
	validation := manifest.Validate(m)
	if opts.Strict {
		validation = validation.Strict()
	}
	result.Validation = validation
	result.Warnings = append(result.Warnings, validation.Warnings...)
	if !validation.OK() {
		return result, pferrors.New(pferrors.ErrCodeValidation, "manifest failed validation: %s", validation.Errors[0])
	}

	// Stage 3: Resolve inheritance, substitute variables, normalize styles
	resolveStart := time.Now()
	resolved, err := template.Resolve(ctx, m, r.loader(opts))
	if err != nil {
		return result, err
	}
	resolved = template.Substitute(resolved, opts.Vars)

	styles, styleWarnings := style.Normalize(resolved.Styles)
	resolved.Styles = styles
	result.Warnings = append(result.Warnings, styleWarnings...)

	result.Manifest = resolved
	result.Stats.ResolveTime = time.Since(resolveStart)
	result.Stats.ElementCount = manifest.CountElements(resolved.Structure)

	opts.Logger.Info("resolved manifest",
		"title", resolved.Title(),
		"elements", result.Stats.ElementCount,
		"warnings", len(result.Warnings),
		"duration", result.Stats.ResolveTime)

	// Stage 4: Convert each requested format independently
	convertStart := time.Now()
	for _, name := range opts.Formats {
		format, err := convert.ParseFormat(name)
		if err != nil {
			result.FormatErrors[name] = err
			continue
		}
		conv, err := convert.New(format)
		if err != nil {
			result.FormatErrors[name] = err
			continue
		}
		out, err := conv.Convert(resolved, opts.convertOptions()...)
		if err != nil {
			opts.Logger.Error("conversion failed", "format", name, "err", err)
			result.FormatErrors[name] = err
			continue
		}
		result.Outputs[name] = out
		opts.Logger.Info("converted",
			"format", name,
			"filename", out.Filename,
			"bytes", len(out.Content))
	}
	result.Stats.ConvertTime = time.Since(convertStart)

	if len(result.Outputs) == 0 {
		for _, err := range result.FormatErrors {
			return result, err
		}
	}
	return result, nil
}

// load parses the input manifest from its path or raw bytes.
func (r *Runner) load(opts Options) (*manifest.Manifest, error) {
	if opts.ManifestPath != "" {
		return manifest.ParseFile(opts.ManifestPath)
	}
	return manifest.Parse(opts.ManifestData)
}

// loader picks the ancestor loader: an explicit one from options, otherwise
// the default file/HTTP loader anchored at the manifest's directory.
func (r *Runner) loader(opts Options) template.Loader {
	if opts.Loader != nil {
		return opts.Loader
	}
	base := opts.BaseDir
	if base == "" && opts.ManifestPath != "" {
		base = filepath.Dir(opts.ManifestPath)
	}
	c := r.Cache
	if opts.Refresh {
		c = cache.NewNullCache()
	}
	return template.NewLoader(base, c)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
