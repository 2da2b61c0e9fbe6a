// Package style normalizes named CSS rule strings and resolves style
// references for the format converters.
//
// A manifest's styles section maps identifier-safe names to CSS declaration
// strings ("prop: value; prop: value;"). This package provides the two
// operations every converter needs:
//
//   - [Normalize]: canonicalize declaration strings (whitespace, trailing
//     semicolon) and collect warnings for segments that don't look like CSS
//   - [Resolve]: decide whether a node's style attribute is a reference to a
//     named style (rendered as a class) or inline CSS (passed through)
//
// The package holds no state between calls; every function is pure.
package style

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	wsRe      = regexp.MustCompile(`\s+`)
	camelRe   = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	cssDeclRe = regexp.MustCompile(`^[a-zA-Z-]+\s*:\s*.+$`)
)

// Normalize canonicalizes every declaration string in the map: surrounding
// whitespace is stripped, internal whitespace runs collapse to single
// spaces, and a trailing semicolon is appended to non-empty strings lacking
// one. Declaration segments without a colon produce warnings, never errors.
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(styles map[string]string) (map[string]string, []string) {
	if styles == nil {
		return nil, nil
	}
	out := make(map[string]string, len(styles))
	var warnings []string

	names := sortedNames(styles)
	for _, name := range names {
		css := NormalizeDecl(styles[name])
		out[name] = css
		for _, segment := range strings.Split(css, ";") {
			segment = strings.TrimSpace(segment)
			if segment != "" && !cssDeclRe.MatchString(segment) {
				warnings = append(warnings, fmt.Sprintf("style %q has a declaration without a colon: %q", name, segment))
			}
		}
	}
	return out, warnings
}

// NormalizeDecl canonicalizes a single CSS declaration string.
func NormalizeDecl(css string) string {
	css = strings.TrimSpace(css)
	css = wsRe.ReplaceAllString(css, " ")
	if css != "" && !strings.HasSuffix(css, ";") {
		css += ";"
	}
	return css
}

// Selector formats a style name as a CSS selector: camelCase names convert
// to kebab-case and gain a leading "." unless the name already begins with
// "." or "#".
func Selector(name string) string {
	kebab := strings.ToLower(camelRe.ReplaceAllString(name, "$1-$2"))
	if strings.HasPrefix(kebab, ".") || strings.HasPrefix(kebab, "#") {
		return kebab
	}
	return "." + kebab
}

// ClassName returns the class attribute value for a style name: the
// selector without its leading "." or "#".
func ClassName(name string) string {
	return strings.TrimLeft(Selector(name), ".#")
}

// Ref is the result of resolving a node's style attribute. Exactly one of
// Class and Inline is non-empty.
type Ref struct {
	// Class is the class attribute value when the style attribute named a
	// style present in the manifest's styles map.
	Class string

	// Inline is the raw CSS passed through when the style attribute did not
	// match a named style. Escaping is the converter's responsibility.
	Inline string
}

// Resolve decides how a node's style attribute renders. A value matching a
// key in the styles map yields a class reference; anything else is treated
// as inline CSS and passed through verbatim.
func Resolve(value string, styles map[string]string) Ref {
	if _, ok := styles[value]; ok {
		return Ref{Class: ClassName(value)}
	}
	return Ref{Inline: value}
}

// Sheet renders the styles map as a CSS rule block with one single-line rule
// per named style, sorted by name for deterministic output. The indent
// prefixes every emitted line.
func Sheet(styles map[string]string, indent string) string {
	if len(styles) == 0 {
		return ""
	}
	var b strings.Builder
	for _, name := range sortedNames(styles) {
		fmt.Fprintf(&b, "%s%s { %s }\n", indent, Selector(name), NormalizeDecl(styles[name]))
	}
	return b.String()
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
