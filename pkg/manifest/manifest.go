// Package manifest defines the declarative page manifest: its data model,
// YAML ingestion, shape normalization, validation, and the structure walker
// used by every converter.
//
// # Data model
//
// A manifest describes a page in four sections: metadata (title, description,
// author, ...), styles (named CSS declaration strings), structure (a recursive
// element tree), and imports (external stylesheets, scripts, fonts). The raw
// parsed YAML is inspected exactly once at ingestion and converted into an
// explicit [Node] tree; downstream code never probes map keys again.
//
// # Shape invariants
//
// Ingestion enforces the canonical shapes the transformation core relies on:
// style values are always strings (list-shaped CSS input is joined with "; "),
// inline scripts are a single joined string, and import URL collections are
// genuine string slices. See [NormalizeRaw].
package manifest

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	pferrors "github.com/pageforge/pageforge/pkg/errors"
)

// Manifest is the root value exchanged across the whole pipeline. All
// processing functions treat it as immutable and return new copies.
type Manifest struct {
	Metadata      map[string]any    `yaml:"metadata"`
	Styles        map[string]string `yaml:"styles,omitempty"`
	Structure     *Node             `yaml:"-"`
	Imports       Imports           `yaml:"imports,omitempty"`
	Interactions  map[string]any    `yaml:"interactions,omitempty"`
	TemplateSlots map[string]string `yaml:"template_slots,omitempty"`
}

// Imports lists external resources referenced by the page. The URL
// collections are genuine sequences; InlineScripts is a single string joined
// at the ingestion boundary.
type Imports struct {
	Styles        []string `yaml:"styles,omitempty"`
	Scripts       []string `yaml:"scripts,omitempty"`
	Fonts         []string `yaml:"fonts,omitempty"`
	InlineScripts string   `yaml:"inline_scripts,omitempty"`
}

// IsEmpty reports whether no imports are present.
func (im Imports) IsEmpty() bool {
	return len(im.Styles) == 0 && len(im.Scripts) == 0 && len(im.Fonts) == 0 && im.InlineScripts == ""
}

// Title returns metadata.title, or "" when absent.
func (m *Manifest) Title() string { return m.metaString("title") }

// Description returns metadata.description, or "" when absent.
func (m *Manifest) Description() string { return m.metaString("description") }

// Author returns metadata.author, or "" when absent.
func (m *Manifest) Author() string { return m.metaString("author") }

// Keywords returns metadata.keywords joined into a single string.
func (m *Manifest) Keywords() string { return m.metaString("keywords") }

// Language returns metadata.language, defaulting to "en".
func (m *Manifest) Language() string {
	if s := m.metaString("language"); s != "" {
		return s
	}
	return "en"
}

// Extends returns the parent manifest reference, or "" when the manifest
// does not extend anything.
func (m *Manifest) Extends() string { return strings.TrimSpace(m.metaString("extends")) }

func (m *Manifest) metaString(key string) string {
	if m.Metadata == nil {
		return ""
	}
	switch v := m.Metadata[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// Clone returns a deep copy of the manifest. Merge and substitution passes
// operate on clones so callers' values are never mutated.
func (m *Manifest) Clone() *Manifest {
	out := &Manifest{
		Structure: m.Structure.Clone(),
		Imports: Imports{
			Styles:        append([]string(nil), m.Imports.Styles...),
			Scripts:       append([]string(nil), m.Imports.Scripts...),
			Fonts:         append([]string(nil), m.Imports.Fonts...),
			InlineScripts: m.Imports.InlineScripts,
		},
	}
	if m.Metadata != nil {
		out.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			out.Metadata[k] = v
		}
	}
	if m.Styles != nil {
		out.Styles = make(map[string]string, len(m.Styles))
		for k, v := range m.Styles {
			out.Styles[k] = v
		}
	}
	if m.Interactions != nil {
		out.Interactions = make(map[string]any, len(m.Interactions))
		for k, v := range m.Interactions {
			out.Interactions[k] = v
		}
	}
	if m.TemplateSlots != nil {
		out.TemplateSlots = make(map[string]string, len(m.TemplateSlots))
		for k, v := range m.TemplateSlots {
			out.TemplateSlots[k] = v
		}
	}
	return out
}

// =============================================================================
// Parsing
// =============================================================================

// Parse decodes a YAML manifest document. Structure key order is preserved
// from the source document. Ambiguous list-or-string fields are coerced into
// their canonical shapes before the Manifest is built.
func Parse(data []byte) (*Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, pferrors.Wrap(pferrors.ErrCodeSchema, err, "manifest is not valid YAML")
	}
	if len(doc.Content) == 0 {
		return nil, pferrors.New(pferrors.ErrCodeSchema, "manifest document is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, pferrors.New(pferrors.ErrCodeSchema, "manifest root must be a mapping, got %s", yamlKindName(root.Kind))
	}

	m := &Manifest{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		val := root.Content[i+1]

		var err error
		switch key {
		case "metadata":
			err = val.Decode(&m.Metadata)
		case "styles":
			m.Styles, err = decodeStyles(val)
		case "structure":
			m.Structure, err = buildStructure(val)
		case "imports":
			m.Imports, err = decodeImports(val)
		case "interactions":
			err = val.Decode(&m.Interactions)
		case "template_slots":
			m.TemplateSlots, err = decodeSlots(val)
		}
		if err != nil {
			return nil, pferrors.Wrap(pferrors.ErrCodeSchema, err, "invalid %s section", key)
		}
	}
	normalizeMetadata(m.Metadata)
	return m, nil
}

// ParseFile reads and parses a manifest from disk.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pferrors.Wrap(pferrors.ErrCodeNotFound, err, "failed to read manifest %q", path)
	}
	return Parse(data)
}

// FromMap builds a manifest from an already-parsed generic mapping, applying
// the same shape coercions as Parse. Sibling order inside structure mappings
// follows the reserved-first-then-alphabetical rule because Go maps carry no
// ordering; prefer Parse for YAML files.
func FromMap(raw map[string]any) (*Manifest, error) {
	raw = NormalizeRaw(raw)
	m := &Manifest{}

	if md, ok := raw["metadata"].(map[string]any); ok {
		m.Metadata = md
	}
	if styles, ok := raw["styles"].(map[string]any); ok {
		m.Styles = make(map[string]string, len(styles))
		for name, v := range styles {
			s, isString := v.(string)
			if !isString {
				return nil, pferrors.New(pferrors.ErrCodeSchema, "style %q must be a string, got %T", name, v)
			}
			m.Styles[name] = s
		}
	}
	if structure, ok := raw["structure"]; ok {
		m.Structure = BuildNode(structure)
	}
	if imports, ok := raw["imports"].(map[string]any); ok {
		m.Imports = importsFromMap(imports)
	}
	if inter, ok := raw["interactions"].(map[string]any); ok {
		m.Interactions = inter
	}
	if slots, ok := raw["template_slots"].(map[string]any); ok {
		m.TemplateSlots = make(map[string]string, len(slots))
		for name, v := range slots {
			m.TemplateSlots[name] = fmt.Sprint(v)
		}
	}
	normalizeMetadata(m.Metadata)
	return m, nil
}

func decodeStyles(val *yaml.Node) (map[string]string, error) {
	if val.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("styles must be a mapping, got %s", yamlKindName(val.Kind))
	}
	out := make(map[string]string, len(val.Content)/2)
	for i := 0; i+1 < len(val.Content); i += 2 {
		name := val.Content[i].Value
		v := val.Content[i+1]
		switch v.Kind {
		case yaml.ScalarNode:
			out[name] = v.Value
		case yaml.SequenceNode:
			// List-shaped CSS is a known producer defect: join at the
			// ingestion boundary so only strings enter the data model.
			out[name] = flattenScalarList(v, "; ")
		default:
			return nil, fmt.Errorf("style %q must be a string", name)
		}
	}
	return out, nil
}

func decodeImports(val *yaml.Node) (Imports, error) {
	var raw map[string]any
	if err := val.Decode(&raw); err != nil {
		return Imports{}, err
	}
	return importsFromMap(raw), nil
}

func importsFromMap(raw map[string]any) Imports {
	return Imports{
		Styles:        toStringSlice(raw["styles"]),
		Scripts:       toStringSlice(raw["scripts"]),
		Fonts:         toStringSlice(raw["fonts"]),
		InlineScripts: joinStrings(raw["inline_scripts"], "\n\n"),
	}
}

func decodeSlots(val *yaml.Node) (map[string]string, error) {
	var raw map[string]string
	if err := val.Decode(&raw); err != nil {
		return nil, fmt.Errorf("template_slots values must be strings: %w", err)
	}
	return raw, nil
}

func yamlKindName(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	default:
		return "document"
	}
}

// =============================================================================
// Emission
// =============================================================================

// MarshalYAML emits the manifest with a stable section and key order, so
// generated manifests (e.g. from the scraper) are diffable.
func (m *Manifest) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	appendSection := func(name string, value any) error {
		var val yaml.Node
		if err := val.Encode(value); err != nil {
			return err
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			&val)
		return nil
	}

	if err := appendSection("metadata", orderedMetadata(m.Metadata)); err != nil {
		return nil, err
	}
	if len(m.Styles) > 0 {
		if err := appendSection("styles", orderedStringMap(m.Styles)); err != nil {
			return nil, err
		}
	}
	if m.Structure != nil {
		if err := appendSection("structure", m.Structure.ToRaw()); err != nil {
			return nil, err
		}
	}
	if !m.Imports.IsEmpty() {
		if err := appendSection("imports", m.Imports); err != nil {
			return nil, err
		}
	}
	if len(m.TemplateSlots) > 0 {
		if err := appendSection("template_slots", orderedStringMap(m.TemplateSlots)); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// metadataOrder fixes the emission order of well-known metadata keys.
var metadataOrder = []string{"title", "description", "author", "keywords", "language", "extends", "template_type"}

func orderedMetadata(md map[string]any) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	appendPair := func(key string, value any) {
		var val yaml.Node
		if err := val.Encode(value); err != nil {
			return
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&val)
	}

	seen := make(map[string]bool, len(md))
	for _, key := range metadataOrder {
		if v, ok := md[key]; ok {
			appendPair(key, v)
			seen[key] = true
		}
	}
	var rest []string
	for key := range md {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		appendPair(key, md[key])
	}
	return node
}

func orderedStringMap(m map[string]string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: m[key]})
	}
	return node
}

// Encode serializes the manifest to YAML.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, pferrors.Wrap(pferrors.ErrCodeInternal, err, "failed to encode manifest")
	}
	return data, nil
}
