package pagination

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gompdf/htmlslice/internal/snapshot"
)

// ErrInvalidPageHeight is returned when no content fits on a page.
var ErrInvalidPageHeight = errors.New("invalid page height")

// Options represents options for the pagination engine
type Options struct {
	// ContentWidth is the width, in points, the source is scaled onto.
	ContentWidth float64
	// PageHeight is the height, in points, of the content band of one page.
	PageHeight float64
	Markers    Markers
}

// Engine computes page breaks for a snapshot tree
type Engine struct {
	options Options
	log     *zap.Logger
}

// NewEngine creates a new pagination engine
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		options: Options{
			ContentWidth: 550,
			PageHeight:   841.89 - 2*15,
			Markers:      DefaultMarkers(),
		},
		log: log,
	}
}

// SetOptions sets the options for the pagination engine
func (e *Engine) SetOptions(options Options) {
	e.options = options
}

// Layout is the outcome of pagination.
type Layout struct {
	// Breaks is the finalized page-break sequence in raster space.
	Breaks []float64
	// Pages holds one record per break.
	Pages []Page
	// Ratio is the source to raster scale factor used.
	Ratio float64
}

// Paginate walks the tree and returns its page breaks. contentHeight is the
// height of the content raster in points; when not positive the root's own
// scaled height is used.
func (e *Engine) Paginate(tree *snapshot.Tree, contentHeight float64) (*Layout, error) {
	if tree == nil || tree.Root == nil {
		return nil, snapshot.ErrNoRoot
	}
	if e.options.PageHeight <= 0 {
		return nil, fmt.Errorf("%w: %.2f", ErrInvalidPageHeight, e.options.PageHeight)
	}

	geo, err := snapshot.NewResolver(tree.SourceWidth, e.options.ContentWidth)
	if err != nil {
		return nil, err
	}
	if contentHeight <= 0 {
		contentHeight = geo.Height(tree.Root)
	}

	breaks := NewBreaks(geo.Top(tree.Root), e.options.PageHeight)
	w := &walker{
		geo:        geo,
		classifier: NewClassifier(e.options.Markers),
		breaks:     breaks,
		log:        e.log,
	}
	w.walk(tree.Root.Children)
	breaks.Finalize(contentHeight)

	points := breaks.Points()
	e.log.Debug("Pagination complete",
		zap.Int("pages", len(points)),
		zap.Float64("ratio", geo.Ratio()),
		zap.Float64("content height", contentHeight),
		zap.Float64s("breaks", points))

	return &Layout{
		Breaks: points,
		Pages:  Pages(points, contentHeight),
		Ratio:  geo.Ratio(),
	}, nil
}
