package convert

import (
	"fmt"
	"strings"

	pferrors "github.com/pageforge/pageforge/pkg/errors"
	"github.com/pageforge/pageforge/pkg/manifest"
	"github.com/pageforge/pageforge/pkg/style"
)

// VueConverter renders a resolved manifest as a Vue single-file component.
type VueConverter struct{}

// Format returns the target format.
func (c *VueConverter) Format() Format { return FormatVue }

// Convert renders the manifest as a Vue SFC with template, script, and
// style blocks.
func (c *VueConverter) Convert(m *manifest.Manifest, opts ...Option) (*Result, error) {
	o := buildOptions(opts)
	if err := guardManifest(m, FormatVue); err != nil {
		return nil, err
	}

	mk := &markup{
		target:     FormatVue,
		classAttr:  "class",
		styleAttr:  func(css string) string { return fmt.Sprintf(`style="%s"`, escapeHTML(css)) },
		escapeText: escapeHTML,
		escapeAttr: escapeHTML,
		selfClose:  " />",
	}

	body, err := mk.renderBody(m.Structure, m.Styles, o.Indent, 1)
	if err != nil {
		return nil, pferrors.AsConversion(err, string(FormatVue))
	}

	var b strings.Builder
	b.WriteString("<template>\n")
	b.WriteString(body)
	b.WriteString("</template>\n\n")

	b.WriteString("<script>\n")
	b.WriteString("export default {\n")
	fmt.Fprintf(&b, "%sname: '%s',\n", o.Indent, escapeJSString(componentName(m, "Page")))
	if title := m.Title(); title != "" {
		fmt.Fprintf(&b, "%smetaInfo: {\n%s%stitle: '%s',\n%s},\n",
			o.Indent, o.Indent, o.Indent, escapeJSString(title), o.Indent)
	}
	b.WriteString("};\n")
	b.WriteString("</script>\n")

	if sheet := style.Sheet(m.Styles, ""); sheet != "" || len(m.Imports.Styles) > 0 {
		b.WriteString("\n<style scoped>\n")
		for _, href := range m.Imports.Styles {
			fmt.Fprintf(&b, "@import url('%s');\n", escapeJSString(href))
		}
		b.WriteString(sheet)
		b.WriteString("</style>\n")
	}

	return newResult(m, FormatVue, finish(b.String(), o), o), nil
}
