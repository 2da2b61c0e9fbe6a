package convert

import (
	"fmt"
	"strings"

	pferrors "github.com/pageforge/pageforge/pkg/errors"
	"github.com/pageforge/pageforge/pkg/manifest"
	"github.com/pageforge/pageforge/pkg/style"
)

// HTMLConverter renders a resolved manifest as a standalone HTML document.
// It is the reference converter: the other targets produce the same element
// tree in their own syntax.
type HTMLConverter struct{}

// Format returns the target format.
func (c *HTMLConverter) Format() Format { return FormatHTML }

// Convert renders the manifest as a complete HTML document.
func (c *HTMLConverter) Convert(m *manifest.Manifest, opts ...Option) (*Result, error) {
	o := buildOptions(opts)
	if err := guardManifest(m, FormatHTML); err != nil {
		return nil, err
	}

	mk := &markup{
		target:     FormatHTML,
		classAttr:  "class",
		styleAttr:  func(css string) string { return fmt.Sprintf(`style="%s"`, escapeHTML(css)) },
		escapeText: escapeHTML,
		escapeAttr: escapeHTML,
		selfClose:  ">",
	}

	body, err := mk.renderBody(m.Structure, m.Styles, o.Indent, 1)
	if err != nil {
		return nil, pferrors.AsConversion(err, string(FormatHTML))
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&b, "<html lang=\"%s\">\n", escapeHTML(m.Language()))
	c.writeHead(&b, m, o.Indent)
	b.WriteString("<body>\n")
	b.WriteString(body)
	c.writeScripts(&b, m, o.Indent)
	b.WriteString("</body>\n")
	b.WriteString("</html>\n")

	return newResult(m, FormatHTML, finish(b.String(), o), o), nil
}

func (c *HTMLConverter) writeHead(b *strings.Builder, m *manifest.Manifest, indent string) {
	b.WriteString("<head>\n")
	fmt.Fprintf(b, "%s<meta charset=\"utf-8\">\n", indent)
	fmt.Fprintf(b, "%s<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n", indent)
	fmt.Fprintf(b, "%s<title>%s</title>\n", indent, escapeHTML(m.Title()))

	metaName := func(name, content string) {
		if content != "" {
			fmt.Fprintf(b, "%s<meta name=%q content=%q>\n", indent, name, escapeHTML(content))
		}
	}
	metaName("description", m.Description())
	metaName("author", m.Author())
	metaName("keywords", m.Keywords())
	fmt.Fprintf(b, "%s<meta property=\"og:title\" content=%q>\n", indent, escapeHTML(m.Title()))
	if m.Description() != "" {
		fmt.Fprintf(b, "%s<meta property=\"og:description\" content=%q>\n", indent, escapeHTML(m.Description()))
	}

	for _, href := range m.Imports.Fonts {
		fmt.Fprintf(b, "%s<link rel=\"stylesheet\" href=%q>\n", indent, escapeHTML(href))
	}
	for _, href := range m.Imports.Styles {
		fmt.Fprintf(b, "%s<link rel=\"stylesheet\" href=%q>\n", indent, escapeHTML(href))
	}
	if sheet := style.Sheet(m.Styles, indent+indent); sheet != "" {
		fmt.Fprintf(b, "%s<style>\n%s%s</style>\n", indent, sheet, indent)
	}
	b.WriteString("</head>\n")
}

func (c *HTMLConverter) writeScripts(b *strings.Builder, m *manifest.Manifest, indent string) {
	for _, src := range m.Imports.Scripts {
		fmt.Fprintf(b, "%s<script src=%q></script>\n", indent, escapeHTML(src))
	}
	if m.Imports.InlineScripts != "" {
		fmt.Fprintf(b, "%s<script>\n%s\n%s</script>\n", indent, m.Imports.InlineScripts, indent)
	}
}
