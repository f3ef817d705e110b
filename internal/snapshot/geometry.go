package snapshot

import (
	"errors"
	"fmt"
)

// ErrInvalidWidth is returned when a width ratio cannot be formed.
var ErrInvalidWidth = errors.New("invalid width")

// AbsoluteTop returns the node's top within the rendered document by summing
// offsets along its offset parent chain.
func AbsoluteTop(n *Node) float64 {
	top := n.OffsetTop
	for p := n.OffsetParent; p != nil; p = p.OffsetParent {
		top += p.OffsetTop
	}
	return top
}

// Resolver maps source geometry into target (raster) space using a fixed
// width ratio computed once per run.
type Resolver struct {
	ratio float64
}

// NewResolver creates a resolver scaling sourceWidth onto targetWidth.
func NewResolver(sourceWidth, targetWidth float64) (*Resolver, error) {
	if sourceWidth <= 0 {
		return nil, fmt.Errorf("%w: source width %.2f", ErrInvalidWidth, sourceWidth)
	}
	if targetWidth <= 0 {
		return nil, fmt.Errorf("%w: target width %.2f", ErrInvalidWidth, targetWidth)
	}
	return &Resolver{ratio: targetWidth / sourceWidth}, nil
}

// Ratio returns targetWidth / sourceWidth.
func (r *Resolver) Ratio() float64 { return r.ratio }

// Scale converts a source pixel value into target space.
func (r *Resolver) Scale(v float64) float64 { return v * r.ratio }

// Top returns the scaled absolute top of n.
func (r *Resolver) Top(n *Node) float64 { return r.Scale(AbsoluteTop(n)) }

// Height returns the scaled rendered height of n.
func (r *Resolver) Height(n *Node) float64 { return r.Scale(n.OffsetHeight) }
