package manifest

import (
	"strings"
	"testing"
)

const sampleManifest = `
metadata:
  title: Landing Page
  description: A simple landing page
  author: Jane Doe
  keywords:
    - web
    - landing
styles:
  heroBox: "color: red; padding: 2rem"
  footerNote:
    - "font-size: 12px"
    - "color: gray"
structure:
  div:
    class: wrapper
    children:
      - h1:
          text: Welcome
      - p:
          text: Hello there
          style: heroBox
imports:
  styles:
    - https://cdn.example.com/a.css
  scripts: https://cdn.example.com/app.js
  inline_scripts:
    - "console.log('one');"
    - "console.log('two');"
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := m.Title(); got != "Landing Page" {
		t.Errorf("Title() = %q", got)
	}
	if got := m.Keywords(); got != "web, landing" {
		t.Errorf("Keywords() = %q, want joined string", got)
	}

	// List-shaped CSS must be joined into a string at the boundary.
	if got := m.Styles["footerNote"]; got != "font-size: 12px; color: gray" {
		t.Errorf("Styles[footerNote] = %q", got)
	}

	// Scalar script import becomes a one-element list.
	if len(m.Imports.Scripts) != 1 || m.Imports.Scripts[0] != "https://cdn.example.com/app.js" {
		t.Errorf("Imports.Scripts = %v", m.Imports.Scripts)
	}
	// Inline script list becomes a single joined string.
	if !strings.Contains(m.Imports.InlineScripts, "one") || !strings.Contains(m.Imports.InlineScripts, "two") {
		t.Errorf("Imports.InlineScripts = %q", m.Imports.InlineScripts)
	}
	if strings.Count(m.Imports.InlineScripts, "\n\n") != 1 {
		t.Errorf("InlineScripts should be joined with blank line, got %q", m.Imports.InlineScripts)
	}
}

func TestParseStructureShape(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	root := m.Structure
	if root.Kind != KindElement || root.Tag != "div" {
		t.Fatalf("root = %s/%s, want element/div", root.Kind, root.Tag)
	}
	if root.Attrs["class"] != "wrapper" {
		t.Errorf("root class = %q", root.Attrs["class"])
	}
	if len(root.Children) != 2 {
		t.Fatalf("root children = %d, want 2", len(root.Children))
	}
	h1 := root.Children[0]
	if h1.Tag != "h1" || len(h1.Children) != 1 || h1.Children[0].Text != "Welcome" {
		t.Errorf("first child = %+v, want h1 with text Welcome", h1)
	}
	p := root.Children[1]
	if p.StyleRef != "heroBox" {
		t.Errorf("p StyleRef = %q, want heroBox", p.StyleRef)
	}
}

func TestParseSiblingOrderPreserved(t *testing.T) {
	src := `
metadata:
  title: T
structure:
  header:
    text: top
  main:
    text: middle
  footer:
    text: bottom
`
	m, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	root := m.Structure
	if root.Kind != KindFragment {
		t.Fatalf("root kind = %s, want fragment", root.Kind)
	}
	var keys []string
	for _, c := range root.Children {
		keys = append(keys, c.Key)
	}
	want := []string{"header", "main", "footer"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("sibling order = %v, want %v", keys, want)
		}
	}
	// header/main/footer are recognized tags, no fallback.
	if root.Children[0].Tag != "header" {
		t.Errorf("header Tag = %q", root.Children[0].Tag)
	}
}

func TestParseMixedMappingKeepsAllSiblings(t *testing.T) {
	src := `
metadata:
  title: T
structure:
  div:
    text: a
  aside:
    text: b
  data-x: "1"
`
	m, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	hist := TagHistogram(m.Structure)
	if hist["div"] != 1 || hist["aside"] != 1 {
		t.Fatalf("TagHistogram = %v, want div and aside kept", hist)
	}

	// The scalar unknown lands as an attribute on the leading element.
	var div *Node
	Walk(m.Structure, func(n *Node, _ *WalkContext) *Node {
		if n.Kind == KindElement && n.Tag == "div" {
			div = n
		}
		return n
	})
	if div == nil || div.Attrs["data-x"] != "1" {
		t.Errorf("data-x attribute = %v, want kept on div", div)
	}
}

func TestBuildNodeMixedMappingKeepsAllSiblings(t *testing.T) {
	n := BuildNode(map[string]any{
		"aside":  map[string]any{"text": "b"},
		"data-x": "1",
		"div":    map[string]any{"text": "a"},
	})

	hist := TagHistogram(n)
	if hist["div"] != 1 || hist["aside"] != 1 {
		t.Fatalf("TagHistogram = %v, want div and aside kept", hist)
	}
}

func TestParseFragmentIgnoresPresentationKeys(t *testing.T) {
	src := `
metadata:
  title: T
structure:
  header:
    text: top
  footer:
    text: bottom
  class: decorated
  style: "color: red"
`
	m, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	root := m.Structure
	if root.Kind != KindFragment {
		t.Fatalf("root kind = %s, want fragment", root.Kind)
	}
	if len(root.Attrs) != 0 || root.StyleRef != "" {
		t.Errorf("fragment carries attrs %v / style %q, want none", root.Attrs, root.StyleRef)
	}
	if hist := TagHistogram(root); hist["header"] != 1 || hist["footer"] != 1 {
		t.Errorf("TagHistogram = %v", hist)
	}
}

func TestUnknownKeyFallsBackToDiv(t *testing.T) {
	src := `
metadata:
  title: T
structure:
  heroSection:
    text: hi
`
	m, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	n := m.Structure
	if n.Kind != KindElement {
		t.Fatalf("kind = %s", n.Kind)
	}
	if n.Tag != DefaultTag {
		t.Errorf("Tag = %q, want %q", n.Tag, DefaultTag)
	}
	if n.Key != "heroSection" {
		t.Errorf("Key = %q, want heroSection", n.Key)
	}
}

func TestFromMapCoercesListStyles(t *testing.T) {
	raw := map[string]any{
		"metadata": map[string]any{"title": "T"},
		"styles": map[string]any{
			"external": []any{"a.css", "b.css"},
		},
		"structure": map[string]any{"div": map[string]any{"text": "x"}},
	}
	m, err := FromMap(raw)
	if err != nil {
		t.Fatalf("FromMap() error = %v", err)
	}
	if got := m.Styles["external"]; got != "a.css; b.css" {
		t.Errorf("Styles[external] = %q, want %q", got, "a.css; b.css")
	}
}

func TestCloneIsDeep(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	clone := m.Clone()
	clone.Metadata["title"] = "Changed"
	clone.Styles["heroBox"] = "color: blue;"
	clone.Structure.Attrs["class"] = "other"

	if m.Title() != "Landing Page" {
		t.Error("Clone() shares metadata with the original")
	}
	if m.Styles["heroBox"] != "color: red; padding: 2rem" {
		t.Error("Clone() shares styles with the original")
	}
	if m.Structure.Attrs["class"] != "wrapper" {
		t.Error("Clone() shares structure with the original")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	data, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Encode()) error = %v", err)
	}
	if back.Title() != m.Title() {
		t.Errorf("round-trip title = %q, want %q", back.Title(), m.Title())
	}
	if CountElements(back.Structure) != CountElements(m.Structure) {
		t.Errorf("round-trip element count = %d, want %d",
			CountElements(back.Structure), CountElements(m.Structure))
	}
}

func TestParseRejectsNonMapping(t *testing.T) {
	if _, err := Parse([]byte("- just\n- a\n- list\n")); err == nil {
		t.Error("Parse() should reject a sequence root")
	}
	if _, err := Parse([]byte(`{{invalid`)); err == nil {
		t.Error("Parse() should reject invalid YAML")
	}
}
