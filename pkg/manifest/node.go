package manifest

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the variants of a structure tree node.
type Kind int

const (
	// KindText is a literal text leaf.
	KindText Kind = iota
	// KindElement is a tagged container with attributes and children.
	KindElement
	// KindFragment groups sibling nodes without introducing an element of
	// its own. The structure root and multi-key mappings produce fragments.
	KindFragment
)

// String returns the kind name for debugging output.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindElement:
		return "element"
	case KindFragment:
		return "fragment"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is one node of the structure tree: either literal text, an element
// with a resolved tag, or a fragment of siblings. The raw parsed YAML is
// inspected exactly once, at ingestion; downstream code dispatches on Kind
// and Tag instead of probing map keys.
type Node struct {
	Kind Kind

	// Text holds the literal content for KindText leaves.
	Text string

	// Key is the raw mapping key that produced this element. It differs
	// from Tag when the key was not a recognized element name (slot labels,
	// semantic section names).
	Key string

	// Tag is the resolved element tag. Unrecognized keys fall back to
	// DefaultTag so structure is always renderable.
	Tag string

	// Attrs holds flat attributes (class, id, href, src, alt, title, ...).
	Attrs map[string]string

	// StyleRef is the raw value of the node's "style" key. It is resolved
	// against the manifest's styles map at render time: a matching style
	// name becomes a class reference, anything else is inline CSS.
	StyleRef string

	// Slot names the placeholder this node represents when the manifest is
	// used as an inheritance parent.
	Slot string

	// Override marks a child structure that replaces the ancestor structure
	// wholesale instead of slot-substituting.
	Override bool

	Children []*Node
}

// DefaultTag is the generic container used when a structure key is not a
// recognized element name.
const DefaultTag = "div"

// reservedKeys are mapping keys with dedicated meaning inside an element
// node. They never define a tag.
var reservedKeys = map[string]bool{
	"text":      true,
	"content":   true,
	"children":  true,
	"style":     true,
	"class":     true,
	"id":        true,
	"href":      true,
	"src":       true,
	"alt":       true,
	"title":     true,
	"slot":      true,
	"_override": true,
}

// attrOrder fixes the emission order of well-known attributes so converter
// output is deterministic. Remaining attributes follow alphabetically.
var attrOrder = []string{"class", "id", "href", "src", "alt", "title"}

// knownTags is the allow-listed element-name set shared by all converters.
var knownTags = map[string]bool{
	"html": true, "head": true, "body": true, "title": true, "meta": true,
	"link": true, "style": true, "script": true,
	"div": true, "span": true, "p": true, "br": true, "hr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"table": true, "thead": true, "tbody": true, "tr": true, "td": true, "th": true,
	"form": true, "input": true, "textarea": true, "select": true, "option": true,
	"button": true, "label": true,
	"a": true, "img": true, "video": true, "audio": true, "source": true,
	"header": true, "nav": true, "main": true, "section": true, "article": true,
	"aside": true, "footer": true, "figure": true, "figcaption": true,
	"details": true, "summary": true, "blockquote": true, "pre": true,
	"code": true, "em": true, "strong": true, "small": true,
}

// voidTags are emitted without children even if erroneously given content.
var voidTags = map[string]bool{
	"img": true, "br": true, "hr": true, "input": true, "meta": true,
	"link": true, "source": true,
}

// IsKnownTag reports whether name is in the allow-listed element-name set.
func IsKnownTag(name string) bool { return knownTags[strings.ToLower(name)] }

// IsVoidTag reports whether tag is a self-closing element.
func IsVoidTag(tag string) bool { return voidTags[strings.ToLower(tag)] }

// TextNode builds a text leaf.
func TextNode(s string) *Node { return &Node{Kind: KindText, Text: s} }

// IsSynthetic reports whether the element exists only because an
// unrecognized key needed a container: its tag is the fallback and it
// carries no attributes of its own. Slot substitution unwraps such nodes
// so the fill content keeps its original shape.
func (n *Node) IsSynthetic() bool {
	return n.Kind == KindElement && n.Key != "" && !IsKnownTag(n.Key) &&
		len(n.Attrs) == 0 && n.StyleRef == "" && n.Slot == ""
}

// AttrNames returns attribute names in canonical emission order: the
// well-known attributes first, then the rest alphabetically.
func (n *Node) AttrNames() []string {
	if len(n.Attrs) == 0 {
		return nil
	}
	names := make([]string, 0, len(n.Attrs))
	seen := make(map[string]bool, len(n.Attrs))
	for _, name := range attrOrder {
		if _, ok := n.Attrs[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range n.Attrs {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		Kind:     n.Kind,
		Text:     n.Text,
		Key:      n.Key,
		Tag:      n.Tag,
		StyleRef: n.StyleRef,
		Slot:     n.Slot,
		Override: n.Override,
	}
	if n.Attrs != nil {
		out.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			out.Attrs[k] = v
		}
	}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// =============================================================================
// Ingestion: parsed YAML -> Node
// =============================================================================

// buildStructure converts the structure section of a YAML document into a
// Node tree, preserving the document's key order.
func buildStructure(node *yaml.Node) (*Node, error) {
	if node == nil {
		return nil, nil
	}
	return buildYAMLNode(node)
}

func buildYAMLNode(n *yaml.Node) (*Node, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return buildYAMLNode(n.Alias)
	case yaml.ScalarNode:
		return TextNode(n.Value), nil
	case yaml.SequenceNode:
		frag := &Node{Kind: KindFragment}
		for _, item := range n.Content {
			child, err := buildYAMLNode(item)
			if err != nil {
				return nil, err
			}
			frag.Children = append(frag.Children, child)
		}
		return frag, nil
	case yaml.MappingNode:
		return buildYAMLMapping(n)
	default:
		// Unknown shapes become text leaves, never an error.
		return TextNode(n.Value), nil
	}
}

// yamlPair is one key/value entry of a YAML mapping, in document order.
type yamlPair struct {
	key string
	val *yaml.Node
}

// buildYAMLMapping converts a mapping node. A mapping may mix one
// tag-defining key with attribute and content keys; a mapping whose every
// key defines an element becomes a fragment of siblings.
func buildYAMLMapping(n *yaml.Node) (*Node, error) {
	pairs := make([]yamlPair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		pairs = append(pairs, yamlPair{key: n.Content[i].Value, val: n.Content[i+1]})
	}

	// Count element-defining keys to decide between element and fragment.
	var elemKeys []yamlPair
	for _, p := range pairs {
		if !reservedKeys[p.key] {
			elemKeys = append(elemKeys, p)
		}
	}

	if len(elemKeys) > 1 && allStructural(elemKeys) {
		// Sibling elements: {header: {...}, main: {...}, footer: {...}}
		frag := &Node{Kind: KindFragment}
		for _, p := range elemKeys {
			child, err := buildElement(p.key, p.val)
			if err != nil {
				return nil, err
			}
			frag.Children = append(frag.Children, child)
		}
		applyReserved(frag, pairs)
		return frag, nil
	}

	if len(elemKeys) >= 1 {
		// Leading tag-defining key, possibly mixed with reserved keys.
		elem, err := buildElement(elemKeys[0].key, elemKeys[0].val)
		if err != nil {
			return nil, err
		}
		applyReserved(elem, pairs)
		// Remaining keys with structural bodies are siblings; scalar
		// unknowns become attributes of the leading element. Nothing is
		// dropped.
		siblings := []*Node{elem}
		for _, p := range elemKeys[1:] {
			if p.val.Kind == yaml.MappingNode || p.val.Kind == yaml.SequenceNode || IsKnownTag(p.key) {
				child, err := buildElement(p.key, p.val)
				if err != nil {
					return nil, err
				}
				siblings = append(siblings, child)
			} else if s, ok := scalarValue(p.val); ok {
				setAttr(elem, p.key, s)
			}
		}
		if len(siblings) > 1 {
			return &Node{Kind: KindFragment, Children: siblings}, nil
		}
		return elem, nil
	}

	// Only reserved keys: an anonymous container.
	elem := &Node{Kind: KindElement, Tag: DefaultTag}
	applyReserved(elem, pairs)
	return elem, nil
}

// allStructural reports whether every pair's value is a mapping, sequence,
// or scalar body, i.e. the mapping reads as a list of sibling elements
// rather than one element plus stray attributes.
func allStructural(pairs []yamlPair) bool {
	for _, p := range pairs {
		if p.val.Kind == yaml.ScalarNode && !IsKnownTag(p.key) {
			return false
		}
	}
	return true
}

// buildElement converts a key/value pair into an element node. Unrecognized
// keys keep the key but fall back to the generic container tag.
func buildElement(key string, val *yaml.Node) (*Node, error) {
	elem := &Node{Kind: KindElement, Key: key}
	if IsKnownTag(key) {
		elem.Tag = strings.ToLower(key)
	} else {
		elem.Tag = DefaultTag
	}

	switch val.Kind {
	case yaml.ScalarNode:
		if val.Value != "" {
			elem.Children = append(elem.Children, TextNode(val.Value))
		}
	case yaml.SequenceNode:
		for _, item := range val.Content {
			child, err := buildYAMLNode(item)
			if err != nil {
				return nil, err
			}
			elem.Children = append(elem.Children, child)
		}
	case yaml.MappingNode:
		if err := fillElementBody(elem, val); err != nil {
			return nil, err
		}
	case yaml.AliasNode:
		return buildElement(key, val.Alias)
	}
	return elem, nil
}

// fillElementBody populates an element from its body mapping: reserved keys
// become fields, recognized nested keys become child elements, scalar
// unknowns become attributes.
func fillElementBody(elem *Node, body *yaml.Node) error {
	for i := 0; i+1 < len(body.Content); i += 2 {
		key := body.Content[i].Value
		val := body.Content[i+1]

		switch {
		case key == "text" || key == "content":
			if s, ok := scalarValue(val); ok {
				elem.Children = append(elem.Children, TextNode(s))
			} else {
				child, err := buildYAMLNode(val)
				if err != nil {
					return err
				}
				elem.Children = append(elem.Children, child)
			}
		case key == "children":
			children, err := buildChildren(val)
			if err != nil {
				return err
			}
			elem.Children = append(elem.Children, children...)
		case key == "style":
			if s, ok := scalarValue(val); ok {
				elem.StyleRef = s
			} else {
				// A list-shaped style reaching this point is a producer
				// defect; stringify rather than fail, the validator warns.
				elem.StyleRef = flattenScalarList(val, "; ")
			}
		case key == "slot":
			if s, ok := scalarValue(val); ok {
				elem.Slot = s
			}
		case key == "_override":
			elem.Override = val.Value == "true"
		case reservedKeys[key]:
			if s, ok := scalarValue(val); ok {
				setAttr(elem, key, s)
			}
		default:
			if val.Kind == yaml.MappingNode || val.Kind == yaml.SequenceNode || IsKnownTag(key) {
				child, err := buildElement(key, val)
				if err != nil {
					return err
				}
				elem.Children = append(elem.Children, child)
			} else if s, ok := scalarValue(val); ok {
				setAttr(elem, key, s)
			}
		}
	}
	return nil
}

// buildChildren normalizes the children key: a single node or a sequence,
// both become a slice preserving source order.
func buildChildren(val *yaml.Node) ([]*Node, error) {
	if val.Kind == yaml.SequenceNode {
		out := make([]*Node, 0, len(val.Content))
		for _, item := range val.Content {
			child, err := buildYAMLNode(item)
			if err != nil {
				return nil, err
			}
			out = append(out, child)
		}
		return out, nil
	}
	child, err := buildYAMLNode(val)
	if err != nil {
		return nil, err
	}
	return []*Node{child}, nil
}

// applyReserved copies reserved keys from a mixed mapping onto a node.
// Fragments render no attributes, so presentation keys (style, class, ...)
// apply only to elements.
func applyReserved(n *Node, pairs []yamlPair) {
	for _, p := range pairs {
		switch p.key {
		case "text", "content":
			if s, ok := scalarValue(p.val); ok {
				n.Children = append(n.Children, TextNode(s))
			}
		case "children":
			children, err := buildChildren(p.val)
			if err == nil {
				n.Children = append(n.Children, children...)
			}
		case "style":
			if s, ok := scalarValue(p.val); ok && n.Kind != KindFragment {
				n.StyleRef = s
			}
		case "slot":
			if s, ok := scalarValue(p.val); ok {
				n.Slot = s
			}
		case "_override":
			n.Override = p.val.Value == "true"
		case "class", "id", "href", "src", "alt", "title":
			if s, ok := scalarValue(p.val); ok && n.Kind != KindFragment {
				setAttr(n, p.key, s)
			}
		}
	}
}

func setAttr(n *Node, key, val string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = val
}

func scalarValue(n *yaml.Node) (string, bool) {
	if n.Kind == yaml.ScalarNode {
		return n.Value, true
	}
	if n.Kind == yaml.AliasNode {
		return scalarValue(n.Alias)
	}
	return "", false
}

// flattenScalarList joins a sequence of scalars into one string. Non-scalar
// items are stringified.
func flattenScalarList(n *yaml.Node, sep string) string {
	if n.Kind != yaml.SequenceNode {
		return n.Value
	}
	parts := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		parts = append(parts, item.Value)
	}
	return strings.Join(parts, sep)
}

// =============================================================================
// Ingestion: generic maps -> Node (programmatic and scraped input)
// =============================================================================

// BuildNode converts an already-parsed generic value (map, slice, string)
// into a Node tree. Go maps carry no ordering, so mapping keys are visited
// reserved-first, then alphabetically; YAML ingestion via Parse preserves
// document order and should be preferred for files.
//
// Unknown shapes are stringified into text leaves, never rejected.
func BuildNode(raw any) *Node {
	switch v := raw.(type) {
	case nil:
		return TextNode("")
	case string:
		return TextNode(v)
	case []any:
		frag := &Node{Kind: KindFragment}
		for _, item := range v {
			frag.Children = append(frag.Children, BuildNode(item))
		}
		return frag
	case map[string]any:
		return buildMapNode(v)
	default:
		return TextNode(fmt.Sprint(v))
	}
}

func buildMapNode(m map[string]any) *Node {
	var elemKeys []string
	for key := range m {
		if !reservedKeys[key] {
			elemKeys = append(elemKeys, key)
		}
	}
	sort.Strings(elemKeys)

	structural := len(elemKeys) > 0
	for _, key := range elemKeys {
		if _, isScalar := m[key].(string); isScalar && !IsKnownTag(key) {
			structural = false
		}
	}

	if len(elemKeys) > 1 && structural {
		frag := &Node{Kind: KindFragment}
		for _, key := range elemKeys {
			frag.Children = append(frag.Children, buildMapElement(key, m[key]))
		}
		applyReservedMap(frag, m)
		return frag
	}

	if len(elemKeys) >= 1 {
		elem := buildMapElement(elemKeys[0], m[elemKeys[0]])
		applyReservedMap(elem, m)
		siblings := []*Node{elem}
		for _, key := range elemKeys[1:] {
			switch v := m[key].(type) {
			case map[string]any, []any, nil:
				siblings = append(siblings, buildMapElement(key, v))
			case string:
				if IsKnownTag(key) {
					siblings = append(siblings, buildMapElement(key, v))
				} else {
					setAttr(elem, key, v)
				}
			default:
				setAttr(elem, key, fmt.Sprint(v))
			}
		}
		if len(siblings) > 1 {
			return &Node{Kind: KindFragment, Children: siblings}
		}
		return elem
	}

	elem := &Node{Kind: KindElement, Tag: DefaultTag}
	applyReservedMap(elem, m)
	return elem
}

func buildMapElement(key string, val any) *Node {
	elem := &Node{Kind: KindElement, Key: key}
	if IsKnownTag(key) {
		elem.Tag = strings.ToLower(key)
	} else {
		elem.Tag = DefaultTag
	}

	switch v := val.(type) {
	case string:
		if v != "" {
			elem.Children = append(elem.Children, TextNode(v))
		}
	case []any:
		for _, item := range v {
			elem.Children = append(elem.Children, BuildNode(item))
		}
	case map[string]any:
		fillMapBody(elem, v)
	case nil:
	default:
		elem.Children = append(elem.Children, TextNode(fmt.Sprint(v)))
	}
	return elem
}

func fillMapBody(elem *Node, body map[string]any) {
	keys := make([]string, 0, len(body))
	for key := range body {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := reservedKeys[keys[i]], reservedKeys[keys[j]]
		if ri != rj {
			return ri
		}
		return keys[i] < keys[j]
	})

	for _, key := range keys {
		val := body[key]
		switch {
		case key == "text" || key == "content":
			if s, ok := val.(string); ok {
				elem.Children = append(elem.Children, TextNode(s))
			} else {
				elem.Children = append(elem.Children, BuildNode(val))
			}
		case key == "children":
			if list, ok := val.([]any); ok {
				for _, item := range list {
					elem.Children = append(elem.Children, BuildNode(item))
				}
			} else {
				elem.Children = append(elem.Children, BuildNode(val))
			}
		case key == "style":
			switch sv := val.(type) {
			case string:
				elem.StyleRef = sv
			case []any:
				parts := make([]string, 0, len(sv))
				for _, p := range sv {
					parts = append(parts, fmt.Sprint(p))
				}
				elem.StyleRef = strings.Join(parts, "; ")
			}
		case key == "slot":
			if s, ok := val.(string); ok {
				elem.Slot = s
			}
		case key == "_override":
			if b, ok := val.(bool); ok {
				elem.Override = b
			}
		case reservedKeys[key]:
			if s, ok := val.(string); ok {
				setAttr(elem, key, s)
			}
		default:
			switch val.(type) {
			case map[string]any, []any:
				elem.Children = append(elem.Children, buildMapElement(key, val))
			case string:
				if IsKnownTag(key) {
					elem.Children = append(elem.Children, buildMapElement(key, val))
				} else {
					setAttr(elem, key, val.(string))
				}
			default:
				setAttr(elem, key, fmt.Sprint(val))
			}
		}
	}
}

func applyReservedMap(n *Node, m map[string]any) {
	if s, ok := m["text"].(string); ok {
		n.Children = append(n.Children, TextNode(s))
	}
	if s, ok := m["content"].(string); ok {
		n.Children = append(n.Children, TextNode(s))
	}
	if v, ok := m["children"]; ok {
		if list, isList := v.([]any); isList {
			for _, item := range list {
				n.Children = append(n.Children, BuildNode(item))
			}
		} else {
			n.Children = append(n.Children, BuildNode(v))
		}
	}
	if s, ok := m["style"].(string); ok && n.Kind != KindFragment {
		n.StyleRef = s
	}
	if s, ok := m["slot"].(string); ok {
		n.Slot = s
	}
	if b, ok := m["_override"].(bool); ok {
		n.Override = b
	}
	if n.Kind == KindFragment {
		// Fragments render no attributes.
		return
	}
	for _, key := range []string{"class", "id", "href", "src", "alt", "title"} {
		if s, ok := m[key].(string); ok {
			setAttr(n, key, s)
		}
	}
}

// =============================================================================
// Node -> generic map (for YAML emission)
// =============================================================================

// ToRaw converts the node tree back into the generic map/slice/string shape
// used by the YAML manifest format. Text leaves become strings; elements
// become single-key mappings.
func (n *Node) ToRaw() any {
	switch n.Kind {
	case KindText:
		return n.Text
	case KindFragment:
		out := make([]any, 0, len(n.Children))
		for _, c := range n.Children {
			out = append(out, c.ToRaw())
		}
		return out
	default:
		body := make(map[string]any)
		for _, name := range n.AttrNames() {
			body[name] = n.Attrs[name]
		}
		if n.StyleRef != "" {
			body["style"] = n.StyleRef
		}
		if n.Slot != "" {
			body["slot"] = n.Slot
		}
		if n.Override {
			body["_override"] = true
		}
		if len(n.Children) == 1 && n.Children[0].Kind == KindText {
			body["text"] = n.Children[0].Text
		} else if len(n.Children) > 0 {
			children := make([]any, 0, len(n.Children))
			for _, c := range n.Children {
				children = append(children, c.ToRaw())
			}
			body["children"] = children
		}

		key := n.Key
		if key == "" {
			key = n.Tag
		}
		return map[string]any{key: body}
	}
}
