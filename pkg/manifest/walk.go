package manifest

import (
	"fmt"
	"strings"
)

// WalkContext carries traversal state to a visitor: current nesting depth
// and the accumulated structure path used in error messages (e.g.
// "structure.div.children[2]").
type WalkContext struct {
	Depth int
	Path  string
}

// Visitor is invoked for every element and fragment node encountered during
// a walk. It may return a replacement node; returning nil or the node it was
// given keeps the original. When a visitor substitutes a different node, the
// walker adopts the replacement verbatim and does not descend into it.
type Visitor func(n *Node, ctx *WalkContext) *Node

// Walk traverses the tree depth-first and returns a transformed deep copy.
// Text leaves are terminal and returned unchanged; a nil node walks to nil.
// Traversal order is deterministic: a node's own fields are visited before
// its children, children in source order.
func Walk(n *Node, visitor Visitor) *Node {
	return walk(n, visitor, &WalkContext{Depth: 0, Path: "structure"})
}

func walk(n *Node, visitor Visitor, ctx *WalkContext) *Node {
	if n == nil {
		return nil
	}
	if n.Kind == KindText {
		return &Node{Kind: KindText, Text: n.Text}
	}

	if visitor != nil {
		if replacement := visitor(n, ctx); replacement != nil && replacement != n {
			return replacement.Clone()
		}
	}

	out := &Node{
		Kind:     n.Kind,
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

	for i, child := range n.Children {
		childCtx := &WalkContext{
			Depth: ctx.Depth + 1,
			Path:  childPath(ctx.Path, n, child, i),
		}
		out.Children = append(out.Children, walk(child, visitor, childCtx))
	}
	return out
}

// childPath derives the structure path of a child node. Keyed elements
// extend the path with their key; positional children use an index.
func childPath(parent string, n *Node, child *Node, i int) string {
	if child.Kind == KindElement {
		key := child.Key
		if key == "" {
			key = child.Tag
		}
		if len(n.Children) > 1 {
			return fmt.Sprintf("%s.%s[%d]", parent, key, i)
		}
		return parent + "." + key
	}
	return fmt.Sprintf("%s.children[%d]", parent, i)
}

// =============================================================================
// Analysis visitors
// =============================================================================

// CountElements returns the number of element nodes in the tree. It is a
// no-op transform with a side-effecting counter, exercising the same
// traversal every converter uses.
func CountElements(n *Node) int {
	count := 0
	Walk(n, func(node *Node, _ *WalkContext) *Node {
		if node.Kind == KindElement {
			count++
		}
		return node
	})
	return count
}

// MaxDepth returns the maximum element nesting depth of the tree.
func MaxDepth(n *Node) int {
	max := 0
	Walk(n, func(node *Node, ctx *WalkContext) *Node {
		if node.Kind == KindElement && ctx.Depth > max {
			max = ctx.Depth
		}
		return node
	})
	return max
}

// TagHistogram returns a per-tag element count.
func TagHistogram(n *Node) map[string]int {
	hist := make(map[string]int)
	Walk(n, func(node *Node, _ *WalkContext) *Node {
		if node.Kind == KindElement {
			hist[strings.ToLower(node.Tag)]++
		}
		return node
	})
	return hist
}

// FindSlots returns the slot names declared anywhere in the tree, in
// traversal order.
func FindSlots(n *Node) []string {
	var slots []string
	Walk(n, func(node *Node, _ *WalkContext) *Node {
		if node.Slot != "" {
			slots = append(slots, node.Slot)
		}
		return node
	})
	return slots
}
