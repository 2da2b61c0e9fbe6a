// Package convert renders resolved manifests into target-language page
// sources. Four converters share one structure-walking render engine and
// differ only in surface syntax: HTML documents, React components, Vue
// single-file components, and PHP page classes.
//
// Converters assume their input has already passed validation and
// inheritance resolution; they defend against malformed shapes with a
// single error kind carrying the offending structure path.
package convert

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	pferrors "github.com/pageforge/pageforge/pkg/errors"
	"github.com/pageforge/pageforge/pkg/manifest"
)

// Format identifies a conversion target.
type Format string

// Supported conversion targets.
const (
	FormatHTML  Format = "html"
	FormatReact Format = "react"
	FormatVue   Format = "vue"
	FormatPHP   Format = "php"
)

// ValidFormats maps format names to their file extensions.
var ValidFormats = map[Format]string{
	FormatHTML:  ".html",
	FormatReact: ".jsx",
	FormatVue:   ".vue",
	FormatPHP:   ".php",
}

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := ValidFormats[f]; !ok {
		return "", pferrors.New(pferrors.ErrCodeInvalidFormat, "unsupported format %q (valid: html, react, vue, php)", s)
	}
	return f, nil
}

// Converter renders a resolved manifest into one target format.
type Converter interface {
	Format() Format
	Convert(m *manifest.Manifest, opts ...Option) (*Result, error)
}

// New returns the converter for the given format.
func New(format Format) (Converter, error) {
	switch format {
	case FormatHTML:
		return &HTMLConverter{}, nil
	case FormatReact:
		return &ReactConverter{}, nil
	case FormatVue:
		return &VueConverter{}, nil
	case FormatPHP:
		return &PHPConverter{}, nil
	default:
		return nil, pferrors.New(pferrors.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
}

// Formats lists the supported targets in stable order.
func Formats() []Format {
	return []Format{FormatHTML, FormatReact, FormatVue, FormatPHP}
}

// =============================================================================
// Options
// =============================================================================

// Options controls a single conversion.
type Options struct {
	// Filename overrides the computed output filename.
	Filename string

	// Minify collapses inter-tag whitespace and strips non-conditional
	// comments from the output.
	Minify bool

	// Indent is the indentation unit for nested output.
	Indent string
}

// Option mutates conversion options.
type Option func(*Options)

// WithFilename overrides the computed output filename.
func WithFilename(name string) Option { return func(o *Options) { o.Filename = name } }

// WithMinify enables output minification.
func WithMinify() Option { return func(o *Options) { o.Minify = true } }

// WithIndent sets the indentation unit.
func WithIndent(indent string) Option { return func(o *Options) { o.Indent = indent } }

func buildOptions(opts []Option) Options {
	o := Options{Indent: "  "}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// =============================================================================
// Result
// =============================================================================

// Result is the immutable outcome of one conversion.
type Result struct {
	Content    string
	Filename   string
	FormatType Format
	Metadata   map[string]any
}

// newResult packages converter output, computing the default filename and
// the result metadata every converter reports.
func newResult(m *manifest.Manifest, format Format, content string, o Options) *Result {
	filename := o.Filename
	if filename == "" {
		filename = defaultFilename(m, ValidFormats[format])
	}
	return &Result{
		Content:    content,
		Filename:   filename,
		FormatType: format,
		Metadata: map[string]any{
			"conversion_id": uuid.NewString(),
			"title":         m.Title(),
			"elements":      manifest.CountElements(m.Structure),
			"size_bytes":    len(content),
			"minified":      o.Minify,
		},
	}
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// defaultFilename derives an output name from the manifest title, falling
// back to a generic name.
func defaultFilename(m *manifest.Manifest, ext string) string {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(m.Title()), "-"), "-")
	if slug == "" {
		slug = "index"
	}
	return slug + ext
}

// =============================================================================
// Shared output post-processing
// =============================================================================

var (
	commentRe  = regexp.MustCompile(`<!--[^\[](?:[^-]|-[^-])*?-->`)
	interTagRe = regexp.MustCompile(`>\s+<`)
)

// minify collapses inter-tag whitespace and strips non-conditional comments.
// Conditional comments (<!--[if ...]) survive.
func minify(s string) string {
	s = commentRe.ReplaceAllString(s, "")
	s = interTagRe.ReplaceAllString(s, "><")
	return strings.TrimSpace(s)
}

func finish(content string, o Options) string {
	if o.Minify {
		return minify(content)
	}
	return content
}

// componentName derives a PascalCase identifier from the manifest title,
// for React/Vue component and PHP class names.
func componentName(m *manifest.Manifest, fallback string) string {
	words := slugRe.Split(strings.ToLower(m.Title()), -1)
	var b strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}
	if b.Len() == 0 {
		return fallback
	}
	name := b.String()
	if name[0] >= '0' && name[0] <= '9' {
		name = fallback + name
	}
	return name
}

// guardManifest rejects shapes a converter cannot interpret. Ingestion
// already coerces style values to strings; what remains checkable here is
// that a structure exists and style names are usable as selectors.
func guardManifest(m *manifest.Manifest, target Format) error {
	for name := range m.Styles {
		if strings.TrimSpace(name) == "" {
			return pferrors.NewConversionError(string(target), "styles", "style with empty name")
		}
	}
	if m.Structure == nil {
		return pferrors.NewConversionError(string(target), "structure", "manifest has no structure")
	}
	return nil
}
