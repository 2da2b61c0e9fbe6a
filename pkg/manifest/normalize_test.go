package manifest

import "testing"

func TestNormalizeRawStyles(t *testing.T) {
	raw := map[string]any{
		"styles": map[string]any{
			"plain":  "color: red;",
			"listed": []any{"a.css", "b.css"},
		},
	}
	out := NormalizeRaw(raw)

	styles := out["styles"].(map[string]any)
	if styles["plain"] != "color: red;" {
		t.Errorf("plain = %v", styles["plain"])
	}
	if styles["listed"] != "a.css; b.css" {
		t.Errorf("listed = %v, want joined string", styles["listed"])
	}

	// Input must not be mutated.
	if _, isList := raw["styles"].(map[string]any)["listed"].([]any); !isList {
		t.Error("NormalizeRaw() mutated its input")
	}
}

func TestNormalizeRawImports(t *testing.T) {
	raw := map[string]any{
		"imports": map[string]any{
			"styles":         "single.css",
			"inline_scripts": []any{"a();", "b();"},
		},
	}
	out := NormalizeRaw(raw)

	imports := out["imports"].(map[string]any)
	if list, ok := imports["styles"].([]any); !ok || len(list) != 1 {
		t.Errorf("styles = %v, want one-element list", imports["styles"])
	}
	if imports["inline_scripts"] != "a();\n\nb();" {
		t.Errorf("inline_scripts = %v", imports["inline_scripts"])
	}
}

func TestNormalizeRawKeywords(t *testing.T) {
	raw := map[string]any{
		"metadata": map[string]any{
			"title":    "T",
			"keywords": []any{"go", "yaml"},
		},
	}
	out := NormalizeRaw(raw)
	md := out["metadata"].(map[string]any)
	if md["keywords"] != "go, yaml" {
		t.Errorf("keywords = %v", md["keywords"])
	}
}

func TestNormalizeRawNil(t *testing.T) {
	if NormalizeRaw(nil) != nil {
		t.Error("NormalizeRaw(nil) should be nil")
	}
}
