package pagination

// Breaks accumulates page-break coordinates in raster space. The sequence is
// append-only and non-decreasing; it is seeded with the content root's top.
type Breaks struct {
	pageHeight float64
	points     []float64
}

// NewBreaks creates an accumulator seeded with origin for pages of the given
// band height.
func NewBreaks(origin, pageHeight float64) *Breaks {
	return &Breaks{
		pageHeight: pageHeight,
		points:     []float64{origin},
	}
}

// Last returns the most recent break, or 0 for an empty sequence.
func (b *Breaks) Last() float64 {
	if len(b.points) == 0 {
		return 0
	}
	return b.points[len(b.points)-1]
}

// Origin returns the first break, the content root's top.
func (b *Breaks) Origin() float64 {
	if len(b.points) == 0 {
		return 0
	}
	return b.points[0]
}

// PageHeight returns the band height the accumulator was created with.
func (b *Breaks) PageHeight() float64 { return b.pageHeight }

// CheckFull appends full-page breaks while top lies more than one page below
// the last break. Content is cut freely at these points. It reports whether
// anything was appended.
func (b *Breaks) CheckFull(top float64) bool {
	if b.pageHeight <= 0 {
		return false
	}
	added := false
	for top-b.Last() > b.pageHeight {
		b.points = append(b.points, b.Last()+b.pageHeight)
		added = true
	}
	return added
}

// CheckBoundary registers an element which must not straddle a page boundary.
// Full-page breaks are applied first; if the element still crosses the end of
// the current page, a break is anchored at its top. The element must start
// strictly after the last break, otherwise it already begins a fresh page (or
// arrived out of order) and nothing is anchored.
func (b *Breaks) CheckBoundary(height, top float64) bool {
	added := b.CheckFull(top)
	last := b.Last()
	if top+height-last > b.pageHeight && top > last {
		b.points = append(b.points, top)
		added = true
	}
	return added
}

// Finalize covers trailing content which never triggered a check. The content
// height is measured from the origin, in the same space as the breaks.
func (b *Breaks) Finalize(contentHeight float64) {
	if b.pageHeight <= 0 {
		return
	}
	end := b.Origin() + contentHeight
	for b.Last()+b.pageHeight < end {
		b.points = append(b.points, b.Last()+b.pageHeight)
	}
}

// Points returns a copy of the sequence.
func (b *Breaks) Points() []float64 {
	out := make([]float64, len(b.points))
	copy(out, b.points)
	return out
}

// Len returns the number of breaks.
func (b *Breaks) Len() int { return len(b.points) }
