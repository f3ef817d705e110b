package snapshot

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

var (
	// ErrUnknownParent is returned when an offset parent id does not name a node of the tree.
	ErrUnknownParent = errors.New("unknown offset parent")
	// ErrParentCycle is returned when offset parents form a loop.
	ErrParentCycle = errors.New("offset parent cycle")
	// ErrNoRoot is returned for a tree without a content root.
	ErrNoRoot = errors.New("snapshot has no root node")
)

// Node is one element of the laid-out content tree. Offsets are in source
// pixels, relative to the node's offset parent.
type Node struct {
	ID             string   `json:"id,omitempty" yaml:"id,omitempty"`
	Tag            string   `json:"tag" yaml:"tag"`
	Classes        []string `json:"classes,omitempty" yaml:"classes,omitempty"`
	OffsetTop      float64  `json:"offset_top" yaml:"offset_top"`
	OffsetHeight   float64  `json:"offset_height" yaml:"offset_height"`
	OffsetParentID string   `json:"offset_parent,omitempty" yaml:"offset_parent,omitempty"`
	Children       []*Node  `json:"children,omitempty" yaml:"children,omitempty"`

	// OffsetParent is resolved from OffsetParentID by Tree.Link.
	OffsetParent *Node `json:"-" yaml:"-"`
}

// HasClass reports whether the node carries the given class name.
func (n *Node) HasClass(name string) bool {
	if name == "" {
		return false
	}
	return slices.Contains(n.Classes, name)
}

// IsTag reports whether the node's tag name equals tag, ignoring case.
func (n *Node) IsTag(tag string) bool {
	return strings.EqualFold(n.Tag, tag)
}

// Tree is a read-only snapshot of a rendered content subtree.
type Tree struct {
	// SourceWidth is the rendered width of Root in source pixels.
	SourceWidth float64 `json:"source_width" yaml:"source_width"`
	Root        *Node   `json:"root" yaml:"root"`
	// Ancestors holds positioning ancestors outside of the subtree which
	// nodes of the subtree refer to as offset parents.
	Ancestors []*Node `json:"ancestors,omitempty" yaml:"ancestors,omitempty"`
}

// Decode reads a YAML (or JSON) encoded tree and links it.
func Decode(r io.Reader) (*Tree, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var t Tree
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if err := t.Link(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Link resolves offset parent references. Nodes without an id cannot be
// referred to. Link must be called before geometry is resolved.
func (t *Tree) Link() error {
	if t.Root == nil {
		return ErrNoRoot
	}

	index := make(map[string]*Node)
	t.Walk(func(n *Node) {
		if n.ID != "" {
			index[n.ID] = n
		}
	})

	var err error
	t.Walk(func(n *Node) {
		if err != nil {
			return
		}
		if n.OffsetParentID == "" {
			n.OffsetParent = nil
			return
		}
		p, ok := index[n.OffsetParentID]
		if !ok {
			err = fmt.Errorf("%w: %q referenced by %s", ErrUnknownParent, n.OffsetParentID, describe(n))
			return
		}
		n.OffsetParent = p
	})
	if err != nil {
		return err
	}

	// chains are at most as long as the number of nodes
	limit := len(index) + 1
	t.Walk(func(n *Node) {
		if err != nil {
			return
		}
		steps := 0
		for p := n.OffsetParent; p != nil; p = p.OffsetParent {
			if steps++; steps > limit {
				err = fmt.Errorf("%w: starting at %s", ErrParentCycle, describe(n))
				return
			}
		}
	})
	return err
}

// Walk calls fn for every node of the subtree in pre-order, then for every ancestor.
func (t *Tree) Walk(fn func(*Node)) {
	var visit func(*Node)
	visit = func(n *Node) {
		if n == nil {
			return
		}
		fn(n)
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(t.Root)
	for _, a := range t.Ancestors {
		if a != nil {
			fn(a)
		}
	}
}

func describe(n *Node) string {
	if n.ID != "" {
		return fmt.Sprintf("<%s id=%q>", n.Tag, n.ID)
	}
	return "<" + n.Tag + ">"
}
