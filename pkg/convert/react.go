package convert

import (
	"fmt"
	"strings"

	pferrors "github.com/pageforge/pageforge/pkg/errors"
	"github.com/pageforge/pageforge/pkg/manifest"
	"github.com/pageforge/pageforge/pkg/style"
)

// ReactConverter renders a resolved manifest as a React functional
// component in a .jsx module.
type ReactConverter struct{}

// Format returns the target format.
func (c *ReactConverter) Format() Format { return FormatReact }

// Convert renders the manifest as a React component.
func (c *ReactConverter) Convert(m *manifest.Manifest, opts ...Option) (*Result, error) {
	o := buildOptions(opts)
	if err := guardManifest(m, FormatReact); err != nil {
		return nil, err
	}

	mk := &markup{
		target:     FormatReact,
		classAttr:  "className",
		styleAttr:  func(css string) string { return fmt.Sprintf("style={%s}", cssToStyleObject(css)) },
		escapeText: escapeJSXText,
		escapeAttr: escapeHTML,
		selfClose:  " />",
	}

	body, err := mk.renderBody(m.Structure, m.Styles, o.Indent, 3)
	if err != nil {
		return nil, pferrors.AsConversion(err, string(FormatReact))
	}

	name := componentName(m, "Page")
	ind := o.Indent

	var b strings.Builder
	b.WriteString("import React from 'react';\n\n")
	if m.Title() != "" {
		fmt.Fprintf(&b, "// %s\n", m.Title())
	}
	fmt.Fprintf(&b, "export default function %s() {\n", name)
	fmt.Fprintf(&b, "%sreturn (\n", ind)
	fmt.Fprintf(&b, "%s%s<>\n", ind, ind)

	for _, href := range append(append([]string{}, m.Imports.Fonts...), m.Imports.Styles...) {
		fmt.Fprintf(&b, "%s<link rel=\"stylesheet\" href=\"%s\" />\n", strings.Repeat(ind, 3), escapeHTML(href))
	}
	if sheet := style.Sheet(m.Styles, strings.Repeat(ind, 4)); sheet != "" {
		fmt.Fprintf(&b, "%s<style>{`\n%s%s`}</style>\n", strings.Repeat(ind, 3), sheet, strings.Repeat(ind, 3))
	}
	b.WriteString(body)

	fmt.Fprintf(&b, "%s%s</>\n", ind, ind)
	fmt.Fprintf(&b, "%s);\n", ind)
	b.WriteString("}\n")

	return newResult(m, FormatReact, finish(b.String(), o), o), nil
}

// cssToStyleObject converts a CSS declaration string into a JSX style
// object literal: "color: red; font-size: 12px;" becomes
// "{ color: 'red', fontSize: '12px' }".
func cssToStyleObject(css string) string {
	var props []string
	for _, segment := range strings.Split(css, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		name, value, ok := strings.Cut(segment, ":")
		if !ok {
			continue
		}
		props = append(props, fmt.Sprintf("%s: '%s'", cssPropToCamel(strings.TrimSpace(name)), escapeJSString(strings.TrimSpace(value))))
	}
	return "{ " + strings.Join(props, ", ") + " }"
}

func cssPropToCamel(prop string) string {
	parts := strings.Split(prop, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
