package inspect

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pageforge/pageforge/pkg/manifest"
)

func mustParse(t *testing.T, src string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return m
}

const inspected = `
metadata:
  title: Landing
  extends: base.yaml
styles:
  hero: "font-size: 3rem"
  box: "color: red"
structure:
  div:
    header:
      h1:
        text: Landing
    main:
      slot: content
`

func TestAnalyze(t *testing.T) {
	r := Analyze(mustParse(t, inspected))

	if r.Title != "Landing" || r.Extends != "base.yaml" {
		t.Errorf("Title = %q, Extends = %q", r.Title, r.Extends)
	}
	if r.ElementCount != 4 {
		t.Errorf("ElementCount = %d, want 4", r.ElementCount)
	}
	if r.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", r.MaxDepth)
	}
	if !reflect.DeepEqual(r.Slots, []string{"content"}) {
		t.Errorf("Slots = %v", r.Slots)
	}
	if !reflect.DeepEqual(r.StyleNames, []string{"box", "hero"}) {
		t.Errorf("StyleNames = %v", r.StyleNames)
	}
}

func TestTagsSorted(t *testing.T) {
	r := &Report{Tags: map[string]int{"div": 3, "p": 3, "h1": 1}}
	got := r.TagsSorted()
	want := []string{"div", "p", "h1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TagsSorted = %v, want %v", got, want)
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(mustParse(t, inspected))

	for _, want := range []string{
		"digraph structure {",
		`label="div"`,
		`label="header"`,
		"slot: content",
		"->",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTTruncatesText(t *testing.T) {
	m := mustParse(t, "metadata:\n  title: X\nstructure:\n  p:\n    text: "+strings.Repeat("long ", 20)+"\n")
	dot := ToDOT(m)
	if !strings.Contains(dot, "...") {
		t.Errorf("long text should be truncated:\n%s", dot)
	}
}
