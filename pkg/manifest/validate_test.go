package manifest

import (
	"strings"
	"testing"
)

func validManifest() *Manifest {
	m, _ := FromMap(map[string]any{
		"metadata": map[string]any{
			"title":       "T",
			"description": "d",
		},
		"styles": map[string]any{
			"box": "color: red;",
		},
		"structure": map[string]any{
			"div": map[string]any{"text": "Hi", "style": "box"},
		},
	})
	return m
}

func TestValidateOK(t *testing.T) {
	res := Validate(validManifest())
	if !res.OK() {
		t.Fatalf("Validate() errors = %v, want none", res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Validate() warnings = %v, want none", res.Warnings)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Manifest)
		want   string
	}{
		{
			name:   "missing title",
			mutate: func(m *Manifest) { delete(m.Metadata, "title") },
			want:   "title",
		},
		{
			name:   "blank title",
			mutate: func(m *Manifest) { m.Metadata["title"] = "   " },
			want:   "title",
		},
		{
			name:   "missing structure",
			mutate: func(m *Manifest) { m.Structure = nil },
			want:   "structure",
		},
		{
			name:   "empty structure",
			mutate: func(m *Manifest) { m.Structure = &Node{Kind: KindFragment} },
			want:   "structure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validManifest()
			tt.mutate(m)
			res := Validate(m)
			if res.OK() {
				t.Fatal("Validate() should report errors")
			}
			if !containsSubstring(res.Errors, tt.want) {
				t.Errorf("errors = %v, want one mentioning %q", res.Errors, tt.want)
			}
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Manifest)
		want   string
	}{
		{
			name:   "missing description",
			mutate: func(m *Manifest) { delete(m.Metadata, "description") },
			want:   "description",
		},
		{
			name:   "css segment without colon",
			mutate: func(m *Manifest) { m.Styles["box"] = "color red" },
			want:   "invalid CSS",
		},
		{
			name: "unusual element name",
			mutate: func(m *Manifest) {
				m.Structure = BuildNode(map[string]any{
					"_weird!": map[string]any{"text": "x"},
				})
			},
			want: "unusual element name",
		},
		{
			name:   "invalid slot name",
			mutate: func(m *Manifest) { m.TemplateSlots = map[string]string{"123bad": "x"} },
			want:   "slot name",
		},
		{
			name: "extends with template_slots",
			mutate: func(m *Manifest) {
				m.Metadata["extends"] = "base.yaml"
				m.TemplateSlots = map[string]string{"content": "main"}
			},
			want: "ambiguous",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validManifest()
			tt.mutate(m)
			res := Validate(m)
			if !res.OK() {
				t.Fatalf("Validate() errors = %v, want warnings only", res.Errors)
			}
			if !containsSubstring(res.Warnings, tt.want) {
				t.Errorf("warnings = %v, want one mentioning %q", res.Warnings, tt.want)
			}
		})
	}
}

func TestValidateStrict(t *testing.T) {
	m := validManifest()
	delete(m.Metadata, "description")

	res := Validate(m)
	if !res.OK() {
		t.Fatalf("errors = %v", res.Errors)
	}
	strict := res.Strict()
	if strict.OK() {
		t.Error("Strict() should escalate warnings to errors")
	}
}

func TestValidateNeverMutates(t *testing.T) {
	m := validManifest()
	before := m.Clone()
	Validate(m)
	if m.Title() != before.Title() || CountElements(m.Structure) != CountElements(before.Structure) {
		t.Error("Validate() mutated its input")
	}
}

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
