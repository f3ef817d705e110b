package pagination

// Page describes the band of the content raster shown on one page.
type Page struct {
	Index int
	// Top is the band start relative to the top of the content raster.
	Top float64
	// Height is the visible band height.
	Height float64
	First  bool
	Last   bool
}

// Pages derives page records from a finalized break sequence. Band starts
// are taken relative to the first break, which is the content root's top and
// therefore the top of the raster.
func Pages(breaks []float64, contentHeight float64) []Page {
	if len(breaks) == 0 {
		return nil
	}
	origin := breaks[0]
	pages := make([]Page, len(breaks))
	for i, b := range breaks {
		p := Page{
			Index: i,
			Top:   b - origin,
			First: i == 0,
			Last:  i == len(breaks)-1,
		}
		if p.Last {
			p.Height = max(contentHeight-p.Top, 0)
		} else {
			p.Height = breaks[i+1] - b
		}
		pages[i] = p
	}
	return pages
}
