// Package pipeline provides the core conversion pipeline for PageForge.
//
// This package implements the complete validate → resolve → convert pipeline
// that is shared by the CLI, the dev server, and batch conversion. By
// centralizing this logic, all entry points behave identically.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Parse the manifest from a file or raw bytes
//  2. Validate: Schema-check the manifest shape (strict mode escalates warnings)
//  3. Resolve: Collapse the template inheritance chain and substitute variables
//  4. Convert: Render the resolved manifest into each requested target format
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, logger)
//	opts := pipeline.Options{
//	    ManifestPath: "site.yaml",
//	    Formats:      []string{"html", "react"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	html := result.Outputs["html"].Content
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pageforge/pageforge/pkg/convert"
	"github.com/pageforge/pageforge/pkg/manifest"
	"github.com/pageforge/pageforge/pkg/template"
)

// DefaultFormat is the conversion target used when none is requested.
const DefaultFormat = string(convert.FormatHTML)

// =============================================================================
// Options
// =============================================================================

// Options contains all configuration for one conversion run.
// This struct supports JSON serialization for dev server requests.
type Options struct {
	// Input options. Exactly one of ManifestPath and ManifestData is
	// required.
	ManifestPath string `json:"manifest_path,omitempty"`
	ManifestData []byte `json:"manifest_data,omitempty"`

	// BaseDir anchors relative ancestor references. Defaults to the
	// directory of ManifestPath.
	BaseDir string `json:"base_dir,omitempty"`

	// Validation options
	Strict bool `json:"strict,omitempty"`

	// Resolution options
	Vars    map[string]string `json:"vars,omitempty"`
	Refresh bool              `json:"refresh,omitempty"`

	// Conversion options
	Formats  []string `json:"formats,omitempty"`
	Minify   bool     `json:"minify,omitempty"`
	Filename string   `json:"filename,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger     `json:"-"`
	Loader template.Loader `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.ManifestPath == "" && len(o.ManifestData) == 0 {
		return fmt.Errorf("manifest path or manifest data is required")
	}
	if o.ManifestPath != "" && len(o.ManifestData) > 0 {
		return fmt.Errorf("manifest path and manifest data are mutually exclusive")
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	for _, f := range o.Formats {
		if _, err := convert.ParseFormat(f); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// convertOptions translates pipeline options into converter options.
func (o *Options) convertOptions() []convert.Option {
	var opts []convert.Option
	if o.Minify {
		opts = append(opts, convert.WithMinify())
	}
	if o.Filename != "" && len(o.Formats) == 1 {
		// An explicit filename only makes sense for a single target.
		opts = append(opts, convert.WithFilename(o.Filename))
	}
	return opts
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Manifest is the fully resolved manifest handed to the converters.
	Manifest *manifest.Manifest

	// Validation holds the validator's errors and warnings.
	Validation manifest.ValidationResult

	// Outputs contains successful conversions keyed by format name.
	Outputs map[string]*convert.Result

	// FormatErrors records per-format conversion failures. A failed format
	// never blocks its siblings.
	FormatErrors map[string]error

	// Warnings aggregates validator and style normalization warnings.
	Warnings []string

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ElementCount int
	LoadTime     time.Duration
	ResolveTime  time.Duration
	ConvertTime  time.Duration
}
