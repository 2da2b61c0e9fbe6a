package manifest

import (
	"fmt"
	"strings"
)

// NormalizeRaw coerces all known array-or-string fields of a generic parsed
// manifest into their canonical shapes, before any value reaches the
// transformation core:
//
//   - styles.<name>: list -> single string joined with "; "
//   - imports.styles / .scripts / .fonts: scalar -> one-element list
//   - imports.inline_scripts: list -> single string joined with "\n\n"
//   - metadata.keywords: list -> single string joined with ", "
//
// The input is not mutated; a shallow-copied map with normalized sections is
// returned. Upstream producers (scrapers in particular) emit lists where
// strings are expected, which crashes string-specific operations downstream;
// this pass is the single place that ambiguity is resolved.
func NormalizeRaw(raw map[string]any) map[string]any {
	if raw == nil {
		return nil
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}

	if styles, ok := out["styles"].(map[string]any); ok {
		normalized := make(map[string]any, len(styles))
		for name, v := range styles {
			if list, isList := v.([]any); isList {
				normalized[name] = joinAny(list, "; ")
			} else {
				normalized[name] = v
			}
		}
		out["styles"] = normalized
	}

	if imports, ok := out["imports"].(map[string]any); ok {
		normalized := make(map[string]any, len(imports))
		for k, v := range imports {
			normalized[k] = v
		}
		for _, key := range []string{"styles", "scripts", "fonts"} {
			if s, isString := normalized[key].(string); isString {
				normalized[key] = []any{s}
			}
		}
		if list, isList := normalized["inline_scripts"].([]any); isList {
			normalized["inline_scripts"] = joinAny(list, "\n\n")
		}
		out["imports"] = normalized
	}

	if md, ok := out["metadata"].(map[string]any); ok {
		normalized := make(map[string]any, len(md))
		for k, v := range md {
			normalized[k] = v
		}
		if list, isList := normalized["keywords"].([]any); isList {
			normalized["keywords"] = joinAny(list, ", ")
		}
		out["metadata"] = normalized
	}

	return out
}

// normalizeMetadata applies in-place scalar coercions to a decoded metadata
// map (keywords lists become one comma-joined string).
func normalizeMetadata(md map[string]any) {
	if md == nil {
		return
	}
	if list, ok := md["keywords"].([]any); ok {
		md["keywords"] = joinAny(list, ", ")
	}
}

func joinAny(list []any, sep string) string {
	parts := make([]string, 0, len(list))
	for _, item := range list {
		parts = append(parts, strings.TrimSpace(fmt.Sprint(item)))
	}
	return strings.Join(parts, sep)
}

func toStringSlice(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	default:
		return []string{fmt.Sprint(val)}
	}
}

func joinStrings(v any, sep string) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		return joinAny(val, sep)
	case []string:
		return strings.Join(val, sep)
	default:
		return fmt.Sprint(val)
	}
}
