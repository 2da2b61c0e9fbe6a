// Package inspect reports on manifest structure: element statistics for the
// CLI and Graphviz visualizations of the element tree.
package inspect

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/pageforge/pageforge/pkg/manifest"
)

// Report summarizes a manifest's structure.
type Report struct {
	Title        string
	ElementCount int
	MaxDepth     int
	Tags         map[string]int
	Slots        []string
	StyleNames   []string
	Extends      string
}

// Analyze walks the manifest and collects structure statistics.
func Analyze(m *manifest.Manifest) *Report {
	r := &Report{
		Title:        m.Title(),
		ElementCount: manifest.CountElements(m.Structure),
		MaxDepth:     manifest.MaxDepth(m.Structure),
		Tags:         manifest.TagHistogram(m.Structure),
		Slots:        manifest.FindSlots(m.Structure),
		Extends:      m.Extends(),
	}
	for name := range m.Styles {
		r.StyleNames = append(r.StyleNames, name)
	}
	sort.Strings(r.StyleNames)
	return r
}

// TagsSorted returns tag counts in descending frequency, ties broken by
// name, for stable report output.
func (r *Report) TagsSorted() []string {
	tags := make([]string, 0, len(r.Tags))
	for tag := range r.Tags {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if r.Tags[tags[i]] != r.Tags[tags[j]] {
			return r.Tags[tags[i]] > r.Tags[tags[j]]
		}
		return tags[i] < tags[j]
	})
	return tags
}

// =============================================================================
// Graphviz output
// =============================================================================

// ToDOT converts a manifest's structure tree to Graphviz DOT format. Slot
// nodes are rendered dashed so template insertion points stand out.
func ToDOT(m *manifest.Manifest) string {
	var buf bytes.Buffer
	buf.WriteString("digraph structure {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	id := 0
	var emit func(n *manifest.Node, parent string)
	emit = func(n *manifest.Node, parent string) {
		if n == nil {
			return
		}
		nodeID := fmt.Sprintf("n%d", id)
		id++

		label, attrs := dotNode(n)
		fmt.Fprintf(&buf, "  %s [label=%q%s];\n", nodeID, label, attrs)
		if parent != "" {
			fmt.Fprintf(&buf, "  %s -> %s;\n", parent, nodeID)
		}
		for _, c := range n.Children {
			emit(c, nodeID)
		}
	}
	emit(m.Structure, "")

	buf.WriteString("}\n")
	return buf.String()
}

func dotNode(n *manifest.Node) (label, attrs string) {
	switch n.Kind {
	case manifest.KindText:
		return truncate(n.Text, 24), `, shape=plaintext, fillcolor=none`
	case manifest.KindFragment:
		return "( )", `, style="rounded,dashed"`
	default:
		label = n.Tag
		if n.Key != "" && !strings.EqualFold(n.Key, n.Tag) {
			label = fmt.Sprintf("%s (%s)", n.Tag, n.Key)
		}
		if n.Slot != "" {
			return label + "\nslot: " + n.Slot, `, style="rounded,filled,dashed", fillcolor=lightgrey`
		}
		return label, ""
	}
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
