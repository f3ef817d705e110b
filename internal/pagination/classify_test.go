package pagination

import (
	"testing"

	"github.com/gompdf/htmlslice/internal/snapshot"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(Markers{})

	tests := []struct {
		name string
		node *snapshot.Node
		want Class
	}{
		{"plain paragraph", &snapshot.Node{Tag: "p"}, Class{Kind: Plain}},
		{"paginable", &snapshot.Node{Tag: "div", Classes: []string{"card", "divide-inside"}}, Class{Kind: Paginable}},
		{"rich text", &snapshot.Node{Tag: "div", Classes: []string{"editor"}}, Class{Kind: RichText}},
		{"table row", &snapshot.Node{Tag: "tr", Classes: []string{"ant-table-row"}}, Class{Kind: Atomic, TableRow: true}},
		{"image", &snapshot.Node{Tag: "IMG"}, Class{Kind: Atomic}},
		{"paginable wins over rich text", &snapshot.Node{Tag: "div", Classes: []string{"editor", "divide-inside"}}, Class{Kind: Paginable}},
		{"rich text wins over table row", &snapshot.Node{Tag: "tr", Classes: []string{"ant-table-row", "editor"}}, Class{Kind: RichText}},
		{"table row wins over tag", &snapshot.Node{Tag: "img", Classes: []string{"ant-table-row"}}, Class{Kind: Atomic, TableRow: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.node); got != tt.want {
				t.Errorf("Classify() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassifyCustomMarkers(t *testing.T) {
	c := NewClassifier(Markers{
		Paginable:  "keep-together",
		TableRow:   "row",
		AtomicTags: []string{"svg", "canvas"},
	})

	if got := c.Classify(&snapshot.Node{Tag: "div", Classes: []string{"keep-together"}}); got.Kind != Paginable {
		t.Errorf("custom paginable classified as %v", got.Kind)
	}
	if got := c.Classify(&snapshot.Node{Tag: "div", Classes: []string{"divide-inside"}}); got.Kind != Plain {
		t.Errorf("default paginable marker still honoured: %v", got.Kind)
	}
	if got := c.Classify(&snapshot.Node{Tag: "div", Classes: []string{"editor"}}); got.Kind != RichText {
		t.Errorf("empty rich text marker did not fall back to default: %v", got.Kind)
	}
	if got := c.Classify(&snapshot.Node{Tag: "canvas"}); got.Kind != Atomic {
		t.Errorf("custom atomic tag classified as %v", got.Kind)
	}
	if got := c.Classify(&snapshot.Node{Tag: "img"}); got.Kind != Plain {
		t.Errorf("img with custom atomic tags classified as %v", got.Kind)
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{Plain: "plain", Paginable: "paginable", RichText: "rich-text", Atomic: "atomic", Kind(9): "unknown"} {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}
