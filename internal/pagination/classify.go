package pagination

import (
	"slices"
	"strings"

	"github.com/gompdf/htmlslice/internal/snapshot"
)

// Kind is the traversal category of a node.
type Kind int

const (
	// Plain content: checked against the running page cursor, then descended.
	Plain Kind = iota
	// Paginable containers register their own boundary and are descended.
	Paginable
	// RichText blocks have their direct children checked flatly.
	RichText
	// Atomic leaves are registered as one unit and not descended.
	Atomic
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Paginable:
		return "paginable"
	case RichText:
		return "rich-text"
	case Atomic:
		return "atomic"
	default:
		return "unknown"
	}
}

// Markers names the classes and tags which drive classification.
type Markers struct {
	Paginable  string
	RichText   string
	TableRow   string
	AtomicTags []string
}

// Default marker names.
const (
	DefaultPaginableClass = "divide-inside"
	DefaultRichTextClass  = "editor"
	DefaultTableRowClass  = "ant-table-row"
)

// DefaultMarkers returns the built-in marker names.
func DefaultMarkers() Markers {
	return Markers{
		Paginable:  DefaultPaginableClass,
		RichText:   DefaultRichTextClass,
		TableRow:   DefaultTableRowClass,
		AtomicTags: []string{"img"},
	}
}

// Class is the outcome of classifying one node.
type Class struct {
	Kind Kind
	// TableRow is set for atomic table rows, which are descended anyway when
	// taller than a page.
	TableRow bool
}

// Classifier maps nodes to their traversal category.
type Classifier struct {
	markers Markers
}

// NewClassifier creates a classifier. Empty marker names fall back to defaults.
func NewClassifier(m Markers) *Classifier {
	d := DefaultMarkers()
	if m.Paginable == "" {
		m.Paginable = d.Paginable
	}
	if m.RichText == "" {
		m.RichText = d.RichText
	}
	if m.TableRow == "" {
		m.TableRow = d.TableRow
	}
	if m.AtomicTags == nil {
		m.AtomicTags = d.AtomicTags
	}
	return &Classifier{markers: m}
}

// Classify applies the marker precedence: paginable, rich text, table row or
// atomic tag, plain.
func (c *Classifier) Classify(n *snapshot.Node) Class {
	switch {
	case n.HasClass(c.markers.Paginable):
		return Class{Kind: Paginable}
	case n.HasClass(c.markers.RichText):
		return Class{Kind: RichText}
	case n.HasClass(c.markers.TableRow):
		return Class{Kind: Atomic, TableRow: true}
	case c.atomicTag(n.Tag):
		return Class{Kind: Atomic}
	default:
		return Class{Kind: Plain}
	}
}

func (c *Classifier) atomicTag(tag string) bool {
	return slices.ContainsFunc(c.markers.AtomicTags, func(t string) bool {
		return strings.EqualFold(t, tag)
	})
}
