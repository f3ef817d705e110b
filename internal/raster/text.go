package raster

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	regularOnce sync.Once
	regular     *opentype.Font
	regularErr  error
)

func regularFont() (*opentype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = opentype.Parse(goregular.TTF)
	})
	return regular, regularErr
}

// TextStyle controls how plain text fragments are drawn.
type TextStyle struct {
	// Size is the font size in pixels.
	Size float64
	// Padding is added above and below every line, in pixels.
	Padding int
	Color   color.Color
}

// DefaultTextStyle draws 12px black text.
func DefaultTextStyle() TextStyle {
	return TextStyle{Size: 12, Padding: 4, Color: color.Black}
}

// Text draws text centred on a white canvas width pixels wide. Every line of
// the input becomes one line of the image. Text wider than the canvas is
// clipped.
func Text(text string, width int, style TextStyle) (image.Image, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: width %d", ErrEmpty, width)
	}
	if style.Size <= 0 {
		style.Size = DefaultTextStyle().Size
	}
	if style.Color == nil {
		style.Color = color.Black
	}

	f, err := regularFont()
	if err != nil {
		return nil, fmt.Errorf("unable to load font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: style.Size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("unable to create font face: %w", err)
	}
	defer face.Close()

	lines := strings.Split(strings.TrimSpace(text), "\n")
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil() + 2*style.Padding

	dst := imaging.New(width, max(lineHeight*len(lines), 1), color.White)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(style.Color), Face: face}
	for i, line := range lines {
		line = strings.TrimSpace(line)
		adv := d.MeasureString(line).Ceil()
		x := max((width-adv)/2, 0)
		y := i*lineHeight + style.Padding + metrics.Ascent.Ceil()
		d.Dot = fixed.P(x, y)
		d.DrawString(line)
	}
	return dst, nil
}
