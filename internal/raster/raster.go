package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/disintegration/imaging"
)

var (
	// ErrNotFound is returned by backends when an element to rasterize does
	// not exist. For optional header and footer elements it means "not
	// supplied".
	ErrNotFound = errors.New("element not found")
	// ErrEmpty is returned for rasters without pixels.
	ErrEmpty = errors.New("empty raster")
	// ErrUnknownFormat is returned for unsupported encodings.
	ErrUnknownFormat = errors.New("unknown image format")
)

// Image is a decoded raster together with the size, in points, it occupies
// once scaled onto the page.
type Image struct {
	Img    image.Image
	Width  float64
	Height float64
}

// Scale fits img to the given width in points, keeping its aspect ratio.
func Scale(img image.Image, width float64) (*Image, error) {
	if img == nil {
		return nil, ErrEmpty
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmpty, b.Dx(), b.Dy())
	}
	return &Image{
		Img:    img,
		Width:  width,
		Height: width / float64(b.Dx()) * float64(b.Dy()),
	}, nil
}

// PixelsPerPoint returns how many raster pixels map onto one point.
func (i *Image) PixelsPerPoint() float64 {
	if i.Width <= 0 {
		return 0
	}
	return float64(i.Img.Bounds().Dx()) / i.Width
}

// Format is the encoding used when embedding rasters into a PDF.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// ParseFormat converts a configuration value into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// PDFType returns the image type name understood by the PDF writer.
func (f Format) PDFType() string {
	if f == FormatPNG {
		return "PNG"
	}
	return "JPEG"
}

// Encoder encodes rasters for embedding.
type Encoder struct {
	Format Format
	// Quality is the JPEG quality, 1-100.
	Quality int
}

// DefaultEncoder returns a JPEG encoder of high quality.
func DefaultEncoder() Encoder {
	return Encoder{Format: FormatJPEG, Quality: 95}
}

// Encode writes img to w.
func (e Encoder) Encode(w io.Writer, img image.Image) error {
	var err error
	switch e.Format {
	case FormatPNG:
		err = imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestSpeed))
	case FormatJPEG, "":
		q := e.Quality
		if q <= 0 || q > 100 {
			q = 95
		}
		// JPEG has no alpha, transparent areas must come out white
		err = imaging.Encode(w, flatten(img), imaging.JPEG, imaging.JPEGQuality(q))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, e.Format)
	}
	if err != nil {
		return fmt.Errorf("unable to encode %s raster: %w", e.Format, err)
	}
	return nil
}

// Bytes encodes img into a new buffer.
func (e Encoder) Bytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// flatten composes img over a white background.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), image.White.C)
	return imaging.Overlay(bg, img, image.Point{}, 1.0)
}

// Decode decodes raster data of any registered format, or SVG when the mime
// type says so.
func Decode(data []byte, mimeType string) (image.Image, error) {
	if strings.HasSuffix(strings.ToLower(mimeType), "svg+xml") {
		return RasterizeSVG(data, 0, 0)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode image: %w", err)
	}
	return img, nil
}
