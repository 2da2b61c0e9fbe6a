package template

import (
	"context"

	pferrors "github.com/pageforge/pageforge/pkg/errors"
	"github.com/pageforge/pageforge/pkg/manifest"
)

// Resolve merges a manifest with its ancestor chain into a single effective
// manifest. Manifests without an extends reference are returned as a clone,
// untouched. Ancestors are resolved recursively first, so multi-level chains
// collapse bottom-up; a cyclic chain fails with a template error naming the
// offending reference.
//
// The returned manifest is always a new value; neither the input nor any
// loaded ancestor is mutated.
func Resolve(ctx context.Context, m *manifest.Manifest, loader Loader) (*manifest.Manifest, error) {
	r := &resolver{loader: loader, inProgress: make(map[string]bool)}
	return r.resolve(ctx, m)
}

type resolver struct {
	loader     Loader
	inProgress map[string]bool
}

func (r *resolver) resolve(ctx context.Context, m *manifest.Manifest) (*manifest.Manifest, error) {
	ref := m.Extends()
	if ref == "" {
		return m.Clone(), nil
	}
	if r.loader == nil {
		return nil, pferrors.New(pferrors.ErrCodeTemplate, "manifest extends %q but no ancestor loader is configured", ref)
	}
	if r.inProgress[ref] {
		return nil, pferrors.New(pferrors.ErrCodeTemplateCycle, "cyclic extends chain at %q", ref)
	}
	r.inProgress[ref] = true
	defer delete(r.inProgress, ref)

	ancestor, err := r.loader.Load(ctx, ref)
	if err != nil {
		if pferrors.GetCode(err) != "" {
			return nil, err
		}
		return nil, pferrors.Wrap(pferrors.ErrCodeTemplateNotFound, err, "failed to load ancestor %q", ref)
	}

	resolved, err := r.resolve(ctx, ancestor)
	if err != nil {
		return nil, err
	}
	return merge(resolved, m), nil
}

// =============================================================================
// Merging
// =============================================================================

// merge combines a fully resolved ancestor with a child manifest. Child keys
// win for metadata, styles, and interactions; imports merge per top-level
// collection; structure goes through slot substitution.
func merge(ancestor, child *manifest.Manifest) *manifest.Manifest {
	out := ancestor.Clone()

	if len(child.Metadata) > 0 {
		if out.Metadata == nil {
			out.Metadata = make(map[string]any, len(child.Metadata))
		}
		for k, v := range child.Metadata {
			out.Metadata[k] = v
		}
	}
	// The chain is collapsed; a dangling extends would make the result
	// re-resolvable.
	delete(out.Metadata, "extends")

	if len(child.Styles) > 0 {
		if out.Styles == nil {
			out.Styles = make(map[string]string, len(child.Styles))
		}
		for k, v := range child.Styles {
			out.Styles[k] = v
		}
	}

	if len(child.Interactions) > 0 {
		if out.Interactions == nil {
			out.Interactions = make(map[string]any, len(child.Interactions))
		}
		for k, v := range child.Interactions {
			out.Interactions[k] = v
		}
	}

	if len(child.TemplateSlots) > 0 {
		if out.TemplateSlots == nil {
			out.TemplateSlots = make(map[string]string, len(child.TemplateSlots))
		}
		for k, v := range child.TemplateSlots {
			out.TemplateSlots[k] = v
		}
	}

	out.Imports = mergeImports(ancestor.Imports, child.Imports)
	out.Structure = mergeStructure(ancestor.Structure, child.Structure)
	return out
}

// mergeImports merges per top-level collection: a child collection replaces
// the ancestor's when present.
func mergeImports(ancestor, child manifest.Imports) manifest.Imports {
	out := ancestor
	if len(child.Styles) > 0 {
		out.Styles = append([]string(nil), child.Styles...)
	}
	if len(child.Scripts) > 0 {
		out.Scripts = append([]string(nil), child.Scripts...)
	}
	if len(child.Fonts) > 0 {
		out.Fonts = append([]string(nil), child.Fonts...)
	}
	if child.InlineScripts != "" {
		out.InlineScripts = child.InlineScripts
	}
	return out
}

// mergeStructure applies slot substitution: ancestor nodes carrying a slot
// name that matches a top-level key in the child structure are replaced by
// the child's value for that key; all other ancestor structure is retained
// verbatim. A child structure marked with the override flag replaces the
// ancestor structure wholesale. Slots with no matching child key are left
// as-is.
func mergeStructure(ancestor, child *manifest.Node) *manifest.Node {
	if child == nil {
		if ancestor == nil {
			return nil
		}
		return ancestor.Clone()
	}
	if ancestor == nil || hasOverride(child) {
		return child.Clone()
	}

	fills := slotFills(child)
	if len(fills) == 0 {
		return ancestor.Clone()
	}

	return manifest.Walk(ancestor, func(n *manifest.Node, _ *manifest.WalkContext) *manifest.Node {
		if n.Slot == "" {
			return n
		}
		fill, ok := fills[n.Slot]
		if !ok {
			return n
		}
		return unwrapFill(fill)
	})
}

// hasOverride reports whether the child structure carries the override
// marker at its root or on a top-level element.
func hasOverride(n *manifest.Node) bool {
	if n.Override {
		return true
	}
	if n.Kind == manifest.KindFragment {
		for _, c := range n.Children {
			if c.Override {
				return true
			}
		}
	}
	return false
}

// slotFills indexes the child structure's top-level elements by key.
func slotFills(n *manifest.Node) map[string]*manifest.Node {
	fills := make(map[string]*manifest.Node)
	add := func(c *manifest.Node) {
		if c.Kind == manifest.KindElement && c.Key != "" {
			fills[c.Key] = c
		}
	}
	switch n.Kind {
	case manifest.KindElement:
		add(n)
	case manifest.KindFragment:
		for _, c := range n.Children {
			add(c)
		}
	}
	return fills
}

// unwrapFill strips the synthetic container a slot-named mapping key
// produced at ingestion, so the fill content keeps its original shape. Real
// elements substitute as themselves.
func unwrapFill(fill *manifest.Node) *manifest.Node {
	if !fill.IsSynthetic() {
		return fill.Clone()
	}
	switch len(fill.Children) {
	case 0:
		return manifest.TextNode("")
	case 1:
		return fill.Children[0].Clone()
	default:
		frag := &manifest.Node{Kind: manifest.KindFragment}
		for _, c := range fill.Children {
			frag.Children = append(frag.Children, c.Clone())
		}
		return frag
	}
}
