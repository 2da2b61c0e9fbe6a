package manifest

import (
	"fmt"
	"regexp"
	"strings"
)

// identRe matches element-like structure keys and slot names.
var identRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]*$`)

// slotNameRe matches valid template slot names.
var slotNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// cssDeclRe matches a single "property: value" CSS declaration segment.
var cssDeclRe = regexp.MustCompile(`^[a-zA-Z-]+\s*:\s*.+$`)

// ValidationResult holds the outcome of a validation pass. Errors block
// conversion; warnings are advisory unless strict mode escalates them.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the manifest may proceed to conversion.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Strict returns a copy with all warnings escalated to errors.
func (r ValidationResult) Strict() ValidationResult {
	return ValidationResult{Errors: append(append([]string(nil), r.Errors...), r.Warnings...)}
}

// Validate schema-checks a manifest's shape. It never mutates its input.
//
// Errors (fail the build): missing or empty metadata.title, missing or
// empty structure. Nothing else blocks conversion.
//
// Warnings (proceed): missing description, CSS declaration segments without
// a colon, structure keys that don't look like element names, invalid
// template slot names, and extends plus template_slots present
// simultaneously (ambiguous precedence).
func Validate(m *Manifest) ValidationResult {
	var res ValidationResult

	res.validateMetadata(m)
	res.validateStyles(m)
	res.validateStructure(m)
	res.validateInheritance(m)

	return res
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) validateMetadata(m *Manifest) {
	if strings.TrimSpace(m.Title()) == "" {
		r.errorf("metadata must include a title")
	}
	if m.Description() == "" {
		r.warnf("consider adding a description to metadata")
	}
}

func (r *ValidationResult) validateStyles(m *Manifest) {
	for name, css := range m.Styles {
		for _, segment := range strings.Split(css, ";") {
			segment = strings.TrimSpace(segment)
			if segment != "" && !cssDeclRe.MatchString(segment) {
				r.warnf("style %q may have invalid CSS: %q", name, segment)
			}
		}
	}
}

func (r *ValidationResult) validateStructure(m *Manifest) {
	if m.Structure == nil || isEmptyStructure(m.Structure) {
		r.errorf("structure is required")
		return
	}
	Walk(m.Structure, func(n *Node, ctx *WalkContext) *Node {
		if n.Kind == KindElement && n.Key != "" && !identRe.MatchString(n.Key) {
			r.warnf("unusual element name at %s: %q", ctx.Path, n.Key)
		}
		return n
	})
}

func (r *ValidationResult) validateInheritance(m *Manifest) {
	if m.Extends() != "" && len(m.TemplateSlots) > 0 {
		r.warnf("both extends and template_slots present - slot precedence is ambiguous")
	}
	// A bad slot name only matters once the manifest is used as a parent;
	// it must not block converting the manifest on its own.
	for name := range m.TemplateSlots {
		if !slotNameRe.MatchString(name) {
			r.warnf("invalid template slot name: %q", name)
		}
	}
}

func isEmptyStructure(n *Node) bool {
	switch n.Kind {
	case KindText:
		return strings.TrimSpace(n.Text) == ""
	case KindFragment:
		return len(n.Children) == 0
	default:
		return false
	}
}
