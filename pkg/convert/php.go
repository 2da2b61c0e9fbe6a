package convert

import (
	"fmt"
	"strings"

	pferrors "github.com/pageforge/pageforge/pkg/errors"
	"github.com/pageforge/pageforge/pkg/manifest"
)

// PHPConverter renders a resolved manifest as a PHP page class with
// rendering helper methods. The embedded markup uses the same HTML-entity
// escaping as the HTML converter.
type PHPConverter struct{}

// Format returns the target format.
func (c *PHPConverter) Format() Format { return FormatPHP }

// Convert renders the manifest as a PHP class.
func (c *PHPConverter) Convert(m *manifest.Manifest, opts ...Option) (*Result, error) {
	o := buildOptions(opts)
	if err := guardManifest(m, FormatPHP); err != nil {
		return nil, err
	}

	mk := &markup{
		target:     FormatPHP,
		classAttr:  "class",
		styleAttr:  func(css string) string { return fmt.Sprintf(`style="%s"`, escapeHTML(css)) },
		escapeText: escapeHTML,
		escapeAttr: escapeHTML,
		selfClose:  ">",
	}

	body, err := mk.renderBody(m.Structure, m.Styles, o.Indent, 1)
	if err != nil {
		return nil, pferrors.AsConversion(err, string(FormatPHP))
	}

	html := &HTMLConverter{}
	var head strings.Builder
	html.writeHead(&head, m, o.Indent)

	className := componentName(m, "Page") + "Page"
	ind := o.Indent

	var b strings.Builder
	b.WriteString("<?php\n\n")
	if m.Title() != "" {
		fmt.Fprintf(&b, "/**\n * %s\n */\n", m.Title())
	}
	fmt.Fprintf(&b, "class %s\n{\n", className)

	writeMethod := func(name, content string) {
		fmt.Fprintf(&b, "%spublic function %s(): string\n%s{\n", ind, name, ind)
		fmt.Fprintf(&b, "%s%sreturn <<<'HTML'\n", ind, ind)
		b.WriteString(content)
		if !strings.HasSuffix(content, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("HTML;\n")
		fmt.Fprintf(&b, "%s}\n\n", ind)
	}

	writeMethod("renderHead", head.String())
	writeMethod("renderBody", "<body>\n"+body+c.bodyScripts(m, ind)+"</body>\n")

	fmt.Fprintf(&b, "%spublic function render(): string\n%s{\n", ind, ind)
	fmt.Fprintf(&b, "%s%sreturn \"<!DOCTYPE html>\\n\"\n", ind, ind)
	fmt.Fprintf(&b, "%s%s%s. \"<html lang=\\\"%s\\\">\\n\"\n", ind, ind, ind, escapeHTML(m.Language()))
	fmt.Fprintf(&b, "%s%s%s. $this->renderHead()\n", ind, ind, ind)
	fmt.Fprintf(&b, "%s%s%s. $this->renderBody()\n", ind, ind, ind)
	fmt.Fprintf(&b, "%s%s%s. \"</html>\\n\";\n", ind, ind, ind)
	fmt.Fprintf(&b, "%s}\n", ind)
	b.WriteString("}\n")

	return newResult(m, FormatPHP, finish(b.String(), o), o), nil
}

func (c *PHPConverter) bodyScripts(m *manifest.Manifest, indent string) string {
	var b strings.Builder
	html := &HTMLConverter{}
	html.writeScripts(&b, m, indent)
	return b.String()
}
