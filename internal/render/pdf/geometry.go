package pdf

import (
	"errors"
	"fmt"
)

// A4 page size in points.
const (
	PageWidth  = 592.28
	PageHeight = 841.89
)

// DefaultGap is the vertical space between content and header or footer.
const DefaultGap = 15.0

// ErrInvalidGeometry is returned for page layouts which leave no room for
// content.
var ErrInvalidGeometry = errors.New("invalid page geometry")

// Geometry describes where things go on every page. All values are points.
type Geometry struct {
	PageWidth  float64
	PageHeight float64
	// ContentWidth is the width of the content raster on the page.
	ContentWidth float64
	// ContentHeight, when positive, limits the used frame to a band of that
	// height centred vertically. Zero uses the whole page.
	ContentHeight float64
	// X is the left edge of the content. Nil centres it horizontally.
	X *float64
	// Y is the top of the used frame. Nil centres a ContentHeight frame
	// vertically and starts a full-page frame at the top.
	Y *float64
	// Gap separates header and footer from the content band.
	Gap float64
	// HeaderHeight and FooterHeight reserve the zones at the top and bottom of
	// the frame. They are zero without header or footer.
	HeaderHeight float64
	FooterHeight float64
}

// DefaultGeometry returns an A4 geometry with the given content width.
func DefaultGeometry(contentWidth float64) Geometry {
	return Geometry{
		PageWidth:    PageWidth,
		PageHeight:   PageHeight,
		ContentWidth: contentWidth,
		Gap:          DefaultGap,
	}
}

// Validate checks that the geometry leaves a positive content band.
func (g Geometry) Validate() error {
	if g.ContentWidth <= 0 || g.ContentWidth > g.PageWidth {
		return fmt.Errorf("%w: content width %.2f outside (0, %.2f]", ErrInvalidGeometry, g.ContentWidth, g.PageWidth)
	}
	if g.ContentHeight < 0 || g.ContentHeight > g.PageHeight {
		return fmt.Errorf("%w: content height %.2f outside [0, %.2f]", ErrInvalidGeometry, g.ContentHeight, g.PageHeight)
	}
	if x := g.Left(); x < 0 || x+g.ContentWidth > g.PageWidth {
		return fmt.Errorf("%w: content at x %.2f does not fit the page", ErrInvalidGeometry, x)
	}
	if y := g.FrameTop(); y < 0 || y+g.FrameHeight() > g.PageHeight {
		return fmt.Errorf("%w: frame at y %.2f does not fit the page", ErrInvalidGeometry, y)
	}
	if g.Gap < 0 {
		return fmt.Errorf("%w: negative gap %.2f", ErrInvalidGeometry, g.Gap)
	}
	if h := g.BandHeight(); h <= 0 {
		return fmt.Errorf("%w: no room for content (band %.2f)", ErrInvalidGeometry, h)
	}
	return nil
}

// FrameTop is the top of the used frame.
func (g Geometry) FrameTop() float64 {
	if g.Y != nil {
		return *g.Y
	}
	if g.ContentHeight > 0 {
		return (g.PageHeight - g.ContentHeight) / 2
	}
	return 0
}

// FrameHeight is the height of the used frame.
func (g Geometry) FrameHeight() float64 {
	if g.ContentHeight > 0 {
		return g.ContentHeight
	}
	return g.PageHeight - g.FrameTop()
}

// Left is the x position of content, header and footer.
func (g Geometry) Left() float64 {
	if g.X != nil {
		return *g.X
	}
	return (g.PageWidth - g.ContentWidth) / 2
}

// HeaderTop is where the header is stamped.
func (g Geometry) HeaderTop() float64 {
	return g.FrameTop()
}

// ContentTop is where the visible band of each page starts.
func (g Geometry) ContentTop() float64 {
	return g.FrameTop() + g.HeaderHeight + g.Gap
}

// FooterTop is where the footer is stamped, bottom-aligned to the frame.
func (g Geometry) FooterTop() float64 {
	return g.FrameTop() + g.FrameHeight() - g.FooterHeight
}

// BandHeight is the height of content shown on one page.
func (g Geometry) BandHeight() float64 {
	return g.FrameHeight() - g.HeaderHeight - g.FooterHeight - 2*g.Gap
}
