package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pageforge/pageforge/pkg/manifest"
)

// varPattern matches {{ name }} placeholders. Names follow the same
// identifier rules as metadata keys, with dots allowed for future nesting.
var varPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_.-]*)\s*\}\}`)

// Substitute replaces {{ name }} placeholders throughout the manifest: in
// metadata string values, style declarations, text content, and attribute
// values. Lookup order is vars first, then the manifest's own metadata.
// Unknown placeholders are left intact so missing variables are visible in
// the output rather than silently dropped.
func Substitute(m *manifest.Manifest, vars map[string]string) *manifest.Manifest {
	out := m.Clone()

	expand := func(s string) string {
		return varPattern.ReplaceAllStringFunc(s, func(match string) string {
			name := varPattern.FindStringSubmatch(match)[1]
			if v, ok := vars[name]; ok {
				return v
			}
			if md, ok := out.Metadata[name]; ok {
				if s, isString := md.(string); isString {
					return s
				}
				return fmt.Sprint(md)
			}
			return match
		})
	}

	for k, v := range out.Metadata {
		if s, ok := v.(string); ok && strings.Contains(s, "{{") {
			out.Metadata[k] = expand(s)
		}
	}
	for k, v := range out.Styles {
		if strings.Contains(v, "{{") {
			out.Styles[k] = expand(v)
		}
	}

	out.Structure = manifest.Walk(out.Structure, func(n *manifest.Node, _ *manifest.WalkContext) *manifest.Node {
		// Mutating in place is safe: Walk already operates on the clone.
		if n.StyleRef != "" {
			n.StyleRef = expand(n.StyleRef)
		}
		for name, val := range n.Attrs {
			n.Attrs[name] = expand(val)
		}
		return n
	})

	// Text leaves are terminal for the walker; expand them in a second pass.
	expandText(out.Structure, expand)
	return out
}

func expandText(n *manifest.Node, expand func(string) string) {
	if n == nil {
		return
	}
	if n.Kind == manifest.KindText {
		n.Text = expand(n.Text)
		return
	}
	for _, c := range n.Children {
		expandText(c, expand)
	}
}
