package pagination

import (
	"go.uber.org/zap"

	"github.com/gompdf/htmlslice/internal/snapshot"
)

// walker drives the break accumulator over a snapshot tree in document order.
type walker struct {
	geo        *snapshot.Resolver
	classifier *Classifier
	breaks     *Breaks
	log        *zap.Logger
}

// walk visits nodes depth-first in pre-order.
func (w *walker) walk(nodes []*snapshot.Node) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		top := w.geo.Top(n)
		height := w.geo.Height(n)

		class := w.classifier.Classify(n)
		switch class.Kind {
		case Paginable:
			w.breaks.CheckBoundary(height, top)
			w.walk(n.Children)
		case RichText:
			w.walkRichText(n.Children)
		case Atomic:
			w.breaks.CheckBoundary(height, top)
			if class.TableRow && height > w.breaks.PageHeight() {
				// a row taller than a page cannot stay whole
				w.log.Debug("Descending into oversized table row",
					zap.String("tag", n.Tag), zap.Float64("top", top), zap.Float64("height", height))
				w.walk(n.Children)
			}
		case Plain:
			w.breaks.CheckFull(top)
			w.walk(n.Children)
		}
	}
}

// walkRichText checks each direct child as a unit without descending.
func (w *walker) walkRichText(nodes []*snapshot.Node) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		w.breaks.CheckBoundary(w.geo.Height(n), w.geo.Top(n))
	}
}
