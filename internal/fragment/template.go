package fragment

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrSlotMissing is returned when a footer lacks a page-number slot.
var ErrSlotMissing = errors.New("footer slot missing")

// Default slot class names.
const (
	DefaultPageSlot  = "pdf-footer-page"
	DefaultCountSlot = "pdf-footer-page-count"
)

// Template is an immutable footer fragment with two text slots: the current
// page number and the total page count.
type Template struct {
	frag      *Fragment
	pageSlot  string
	countSlot string
}

// NewTemplate parses footer markup. Empty slot names fall back to defaults.
// Slots are checked when rendering, not here, so a footer without slots can
// still be measured.
func NewTemplate(markup, pageSlot, countSlot string) (*Template, error) {
	frag, err := Parse(markup)
	if err != nil {
		return nil, err
	}
	if pageSlot == "" {
		pageSlot = DefaultPageSlot
	}
	if countSlot == "" {
		countSlot = DefaultCountSlot
	}
	return &Template{frag: frag, pageSlot: pageSlot, countSlot: countSlot}, nil
}

// Markup returns the template as it was parsed, with slots untouched.
func (t *Template) Markup() (string, error) {
	return t.frag.Render()
}

// Render returns the footer markup for one page. Every element carrying a
// slot class gets its text replaced. The template itself is never modified.
func (t *Template) Render(page, total int) (string, error) {
	c := t.frag.Clone()

	pages := c.FindByClass(t.pageSlot)
	if len(pages) == 0 {
		return "", fmt.Errorf("%w: no element with class %q", ErrSlotMissing, t.pageSlot)
	}
	counts := c.FindByClass(t.countSlot)
	if len(counts) == 0 {
		return "", fmt.Errorf("%w: no element with class %q", ErrSlotMissing, t.countSlot)
	}

	for _, n := range pages {
		n.SetText(strconv.Itoa(page))
	}
	for _, n := range counts {
		n.SetText(strconv.Itoa(total))
	}
	return c.Render()
}
