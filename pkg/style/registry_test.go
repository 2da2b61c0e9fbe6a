package style

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeDecl(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"adds trailing semicolon", "color: red", "color: red;"},
		{"keeps trailing semicolon", "color: red;", "color: red;"},
		{"strips surrounding whitespace", "  color: red;  ", "color: red;"},
		{"collapses internal whitespace", "color:   red;\n  padding:\t2rem;", "color: red; padding: 2rem;"},
		{"empty stays empty", "", ""},
		{"whitespace only stays empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDecl(tt.input); got != tt.want {
				t.Errorf("NormalizeDecl(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	styles := map[string]string{
		"box":    "  color: red ",
		"banner": "font-size:\t14px;   margin: 0",
		"empty":  "",
	}
	once, _ := Normalize(styles)
	twice, _ := Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Normalize is not idempotent:\n once %v\ntwice %v", once, twice)
	}
}

func TestNormalizeWarnsOnMissingColon(t *testing.T) {
	_, warnings := Normalize(map[string]string{"bad": "color red; margin: 0"})
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	if !strings.Contains(warnings[0], "color red") {
		t.Errorf("warning = %q, should name the bad segment", warnings[0])
	}
}

func TestSelector(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"heroBox", ".hero-box"},
		{"box", ".box"},
		{"myLongStyleName", ".my-long-style-name"},
		{".already-prefixed", ".already-prefixed"},
		{"#some-id", "#some-id"},
	}

	for _, tt := range tests {
		if got := Selector(tt.input); got != tt.want {
			t.Errorf("Selector(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	styles := map[string]string{"heroBox": "color: red;"}

	ref := Resolve("heroBox", styles)
	if ref.Class != "hero-box" || ref.Inline != "" {
		t.Errorf("Resolve(named) = %+v, want class hero-box", ref)
	}

	ref = Resolve("color: blue;", styles)
	if ref.Inline != "color: blue;" || ref.Class != "" {
		t.Errorf("Resolve(inline) = %+v, want inline passthrough", ref)
	}
}

func TestSheet(t *testing.T) {
	styles := map[string]string{
		"box":      "color: red",
		"bigTitle": "font-size: 2rem; font-weight: bold",
	}
	sheet := Sheet(styles, "    ")

	for _, want := range []string{".box {", ".big-title {", "color: red;", "font-weight: bold;"} {
		if !strings.Contains(sheet, want) {
			t.Errorf("Sheet() missing %q:\n%s", want, sheet)
		}
	}
	// Sorted by name: bigTitle before box.
	if strings.Index(sheet, ".big-title") > strings.Index(sheet, ".box") {
		t.Error("Sheet() rules should be sorted by style name")
	}
}

func TestSheetEmpty(t *testing.T) {
	if got := Sheet(nil, ""); got != "" {
		t.Errorf("Sheet(nil) = %q, want empty", got)
	}
}
