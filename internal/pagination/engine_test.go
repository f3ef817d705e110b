package pagination

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/gompdf/htmlslice/internal/snapshot"
)

func newTestEngine(t *testing.T, pageHeight float64) *Engine {
	t.Helper()
	e := NewEngine(zaptest.NewLogger(t))
	e.SetOptions(Options{
		ContentWidth: 500,
		PageHeight:   pageHeight,
		Markers:      DefaultMarkers(),
	})
	return e
}

// block creates a node positioned in document coordinates.
func block(tag string, top, height float64, children ...*snapshot.Node) *snapshot.Node {
	return &snapshot.Node{Tag: tag, OffsetTop: top, OffsetHeight: height, Children: children}
}

func classed(n *snapshot.Node, classes ...string) *snapshot.Node {
	n.Classes = append(n.Classes, classes...)
	return n
}

func treeOf(root *snapshot.Node) *snapshot.Tree {
	return &snapshot.Tree{SourceWidth: 500, Root: root}
}

func TestPaginateScenarios(t *testing.T) {
	tests := []struct {
		name          string
		root          *snapshot.Node
		contentHeight float64
		want          []float64
	}{
		{
			name: "three paragraphs",
			root: block("div", 0, 600,
				block("p", 0, 200),
				block("p", 200, 200),
				block("p", 400, 200),
			),
			contentHeight: 600,
			want:          []float64{0, 500},
		},
		{
			name: "straddling table row moves to next page",
			root: block("div", 0, 750,
				block("table", 0, 750,
					classed(block("tr", 0, 450), "ant-table-row"),
					classed(block("tr", 450, 300), "ant-table-row"),
				),
			),
			contentHeight: 750,
			want:          []float64{0, 450},
		},
		{
			name: "oversized table row is descended into",
			root: block("div", 0, 1000,
				classed(block("tr", 100, 900,
					block("td", 100, 400),
					block("img", 500, 200),
				), "ant-table-row"),
			),
			contentHeight: 1000,
			want:          []float64{0, 100, 500},
		},
		{
			name: "rich text children are checked flatly",
			root: block("div", 0, 1200,
				classed(block("div", 0, 1200,
					block("p", 0, 300, block("img", 100, 250)),
					block("p", 300, 300),
					block("p", 600, 300),
					block("p", 900, 300),
				), "editor"),
			),
			contentHeight: 1200,
			want:          []float64{0, 300, 600, 900},
		},
		{
			name: "paginable container registers its own boundary",
			root: block("div", 0, 900,
				block("p", 0, 400),
				classed(block("section", 400, 300,
					block("p", 400, 150),
					block("p", 550, 150),
				), "divide-inside"),
				block("p", 700, 200),
			),
			contentHeight: 900,
			want:          []float64{0, 400},
		},
		{
			name: "image is kept whole",
			root: block("div", 0, 700,
				block("p", 0, 420),
				block("img", 420, 200),
				block("p", 620, 80),
			),
			contentHeight: 700,
			want:          []float64{0, 420},
		},
		{
			name: "root height used when content height is unknown",
			root: block("div", 0, 1100,
				block("p", 0, 1100),
			),
			want: []float64{0, 500, 1000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := newTestEngine(t, 500).Paginate(treeOf(tt.root), tt.contentHeight)
			if err != nil {
				t.Fatalf("Paginate() error = %v", err)
			}
			if !slices.Equal(layout.Breaks, tt.want) {
				t.Errorf("Breaks = %v, want %v", layout.Breaks, tt.want)
			}
			if len(layout.Pages) != len(tt.want) {
				t.Errorf("len(Pages) = %d, want %d", len(layout.Pages), len(tt.want))
			}
		})
	}
}

func TestPaginateScalesGeometry(t *testing.T) {
	// source is rendered at 1000px and scaled onto 500pt
	root := &snapshot.Node{ID: "root", Tag: "div", OffsetTop: 80, OffsetHeight: 1400}
	root.Children = []*snapshot.Node{
		{Tag: "p", OffsetTop: 0, OffsetHeight: 900, OffsetParentID: "root"},
		{Tag: "img", OffsetTop: 900, OffsetHeight: 300, OffsetParentID: "root"},
	}
	tree := &snapshot.Tree{SourceWidth: 1000, Root: root}
	if err := tree.Link(); err != nil {
		t.Fatalf("Link() error = %v", err)
	}

	layout, err := newTestEngine(t, 500).Paginate(tree, 0)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if layout.Ratio != 0.5 {
		t.Errorf("Ratio = %v, want 0.5", layout.Ratio)
	}
	// root top 40; the image at 490 with height 150 ends past 540
	want := []float64{40, 490}
	if !slices.Equal(layout.Breaks, want) {
		t.Errorf("Breaks = %v, want %v", layout.Breaks, want)
	}
}

func TestPaginateErrors(t *testing.T) {
	e := newTestEngine(t, 500)
	if _, err := e.Paginate(nil, 100); !errors.Is(err, snapshot.ErrNoRoot) {
		t.Errorf("Paginate(nil) error = %v, want ErrNoRoot", err)
	}

	tree := treeOf(block("div", 0, 100))
	tree.SourceWidth = 0
	if _, err := e.Paginate(tree, 100); !errors.Is(err, snapshot.ErrInvalidWidth) {
		t.Errorf("Paginate(zero width) error = %v, want ErrInvalidWidth", err)
	}

	e = newTestEngine(t, 0)
	if _, err := e.Paginate(treeOf(block("div", 0, 100)), 100); !errors.Is(err, ErrInvalidPageHeight) {
		t.Errorf("Paginate(zero page) error = %v, want ErrInvalidPageHeight", err)
	}
}

// randomTree builds a vertically stacked document of random shape. Atomic
// leaves and rich-text children never exceed maxAtomic.
type randomTree struct {
	rng       *rand.Rand
	maxAtomic float64
	atomics   []*snapshot.Node
}

func (g *randomTree) build(depth int, top float64) (*snapshot.Node, float64) {
	switch r := g.rng.IntN(10); {
	case depth == 0 || r < 3:
		n := block("img", top, 10+g.rng.Float64()*(g.maxAtomic-10))
		if g.rng.IntN(2) == 0 {
			n = classed(block("tr", top, n.OffsetHeight), "ant-table-row")
		}
		g.atomics = append(g.atomics, n)
		return n, top + n.OffsetHeight
	case r < 4:
		n := classed(block("div", top, 0), "editor")
		y := top
		for range 1 + g.rng.IntN(5) {
			c := block("p", y, 10+g.rng.Float64()*(g.maxAtomic-10))
			n.Children = append(n.Children, c)
			g.atomics = append(g.atomics, c)
			y += c.OffsetHeight
		}
		n.OffsetHeight = y - top
		return n, y
	default:
		n := block("div", top, 0)
		if r < 6 {
			n = classed(n, "divide-inside")
		}
		y := top
		for range 1 + g.rng.IntN(4) {
			c, next := g.build(depth-1, y)
			n.Children = append(n.Children, c)
			y = next
		}
		n.OffsetHeight = y - top
		return n, y
	}
}

func TestPaginateProperties(t *testing.T) {
	const pageHeight = 500

	for seed := range uint64(50) {
		g := &randomTree{rng: rand.New(rand.NewPCG(seed, 7)), maxAtomic: pageHeight}
		root, bottom := g.build(5, 0)
		tree := treeOf(block("div", 0, bottom, root))

		e := newTestEngine(t, pageHeight)
		layout, err := e.Paginate(tree, bottom)
		if err != nil {
			t.Fatalf("seed %d: Paginate() error = %v", seed, err)
		}
		breaks := layout.Breaks

		if breaks[0] != 0 {
			t.Errorf("seed %d: first break = %v, want root top 0", seed, breaks[0])
		}
		if !slices.IsSorted(breaks) {
			t.Errorf("seed %d: breaks not non-decreasing: %v", seed, breaks)
		}
		for i := 1; i < len(breaks); i++ {
			if breaks[i]-breaks[i-1] > pageHeight {
				t.Errorf("seed %d: band %d is %v tall", seed, i-1, breaks[i]-breaks[i-1])
			}
		}
		if bottom-breaks[len(breaks)-1] > pageHeight {
			t.Errorf("seed %d: last band %v tall", seed, bottom-breaks[len(breaks)-1])
		}

		for _, a := range g.atomics {
			lo, hi := a.OffsetTop, a.OffsetTop+a.OffsetHeight
			for _, b := range breaks {
				if b > lo && b < hi {
					t.Errorf("seed %d: break %v splits <%s> [%v, %v)", seed, b, a.Tag, lo, hi)
				}
			}
		}

		again, err := e.Paginate(tree, bottom)
		if err != nil {
			t.Fatalf("seed %d: second Paginate() error = %v", seed, err)
		}
		if !slices.Equal(again.Breaks, breaks) {
			t.Errorf("seed %d: Paginate not idempotent: %v vs %v", seed, again.Breaks, breaks)
		}
	}
}
