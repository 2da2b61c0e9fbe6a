package convert

import (
	"fmt"
	"strings"

	pferrors "github.com/pageforge/pageforge/pkg/errors"
	"github.com/pageforge/pageforge/pkg/manifest"
	"github.com/pageforge/pageforge/pkg/style"
)

// markup captures the per-target syntax the shared structure renderer needs.
// HTML, React, Vue, and PHP bodies all emit tag-shaped markup; only the
// attribute spellings and escaping rules differ.
type markup struct {
	target Format

	// classAttr is the class attribute spelling ("class" or "className").
	classAttr string

	// styleAttr formats an inline style value as a complete attribute.
	styleAttr func(css string) string

	// escapeText escapes element text content.
	escapeText func(s string) string

	// escapeAttr escapes an attribute value (the part between quotes).
	escapeAttr func(s string) string

	// selfClose is the tail of a void element ("/>" for JSX and Vue).
	selfClose string
}

// renderBody renders the structure tree as indented markup. Nodes with a
// single text child collapse onto one line; multi-child nodes emit one line
// per child.
func (mk *markup) renderBody(n *manifest.Node, styles map[string]string, indent string, depth int) (string, error) {
	var b strings.Builder
	if err := mk.renderNode(&b, n, styles, indent, depth, "structure"); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (mk *markup) renderNode(b *strings.Builder, n *manifest.Node, styles map[string]string, indent string, depth int, path string) error {
	if n == nil {
		return nil
	}
	pad := strings.Repeat(indent, depth)

	switch n.Kind {
	case manifest.KindText:
		if strings.TrimSpace(n.Text) != "" {
			b.WriteString(pad)
			b.WriteString(mk.escapeText(n.Text))
			b.WriteString("\n")
		}
		return nil

	case manifest.KindFragment:
		for i, c := range n.Children {
			if err := mk.renderNode(b, c, styles, indent, depth, childPath(path, c, i, len(n.Children))); err != nil {
				return err
			}
		}
		return nil

	case manifest.KindElement:
		return mk.renderElement(b, n, styles, indent, depth, path)

	default:
		return pferrors.NewConversionError(string(mk.target), path, "unrenderable node kind %q", n.Kind)
	}
}

func (mk *markup) renderElement(b *strings.Builder, n *manifest.Node, styles map[string]string, indent string, depth int, path string) error {
	tag := n.Tag
	if tag == "" {
		tag = manifest.DefaultTag
	}
	pad := strings.Repeat(indent, depth)

	attrs, err := mk.renderAttrs(n, styles, path)
	if err != nil {
		return err
	}

	if manifest.IsVoidTag(tag) {
		// Void elements drop children even if erroneously given content.
		fmt.Fprintf(b, "%s<%s%s%s\n", pad, tag, attrs, mk.selfClose)
		return nil
	}

	if text, ok := singleTextChild(n); ok {
		fmt.Fprintf(b, "%s<%s%s>%s</%s>\n", pad, tag, attrs, mk.escapeText(text), tag)
		return nil
	}

	if len(n.Children) == 0 {
		fmt.Fprintf(b, "%s<%s%s></%s>\n", pad, tag, attrs, tag)
		return nil
	}

	fmt.Fprintf(b, "%s<%s%s>\n", pad, tag, attrs)
	for i, c := range n.Children {
		if err := mk.renderNode(b, c, styles, indent, depth+1, childPath(path, c, i, len(n.Children))); err != nil {
			return err
		}
	}
	fmt.Fprintf(b, "%s</%s>\n", pad, tag)
	return nil
}

// renderAttrs emits the attribute string for an element, resolving the style
// reference into either a class or an inline style attribute. Attribute
// order is canonical so output is deterministic.
func (mk *markup) renderAttrs(n *manifest.Node, styles map[string]string, path string) (string, error) {
	var b strings.Builder

	class := n.Attrs["class"]
	var inline string
	if n.StyleRef != "" {
		ref := style.Resolve(n.StyleRef, styles)
		if ref.Class != "" {
			if class != "" {
				class += " " + ref.Class
			} else {
				class = ref.Class
			}
		} else {
			// Unmatched values pass through verbatim; only named styles in
			// the registry are normalized.
			inline = ref.Inline
		}
	}

	if class != "" {
		fmt.Fprintf(&b, ` %s="%s"`, mk.classAttr, mk.escapeAttr(class))
	}
	for _, name := range n.AttrNames() {
		if name == "class" {
			continue
		}
		if !validAttrName(name) {
			return "", pferrors.NewConversionError(string(mk.target), path, "invalid attribute name %q", name)
		}
		fmt.Fprintf(&b, ` %s="%s"`, name, mk.escapeAttr(n.Attrs[name]))
	}
	if inline != "" {
		b.WriteString(" ")
		b.WriteString(mk.styleAttr(inline))
	}
	return b.String(), nil
}

func singleTextChild(n *manifest.Node) (string, bool) {
	if len(n.Children) == 1 && n.Children[0].Kind == manifest.KindText {
		return n.Children[0].Text, true
	}
	return "", false
}

func childPath(parent string, c *manifest.Node, i, siblings int) string {
	if c.Kind == manifest.KindElement {
		key := c.Key
		if key == "" {
			key = c.Tag
		}
		if siblings > 1 {
			return fmt.Sprintf("%s.%s[%d]", parent, key, i)
		}
		return parent + "." + key
	}
	return fmt.Sprintf("%s.children[%d]", parent, i)
}

func validAttrName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == ':':
		default:
			return false
		}
	}
	return true
}

// =============================================================================
// Escaping
// =============================================================================

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func escapeHTML(s string) string { return htmlEscaper.Replace(s) }

var jsxTextEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"{", "&#123;",
	"}", "&#125;",
)

// escapeJSXText escapes text for JSX bodies, where braces open expressions.
func escapeJSXText(s string) string { return jsxTextEscaper.Replace(s) }

// escapeJSString escapes a value for a single-quoted JavaScript string.
func escapeJSString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}
