package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gompdf/htmlslice/internal/browser"
	"github.com/gompdf/htmlslice/internal/pagination"
	"github.com/gompdf/htmlslice/internal/raster"
	"github.com/gompdf/htmlslice/internal/snapshot"
	"github.com/gompdf/htmlslice/internal/static"
)

var (
	// ErrInvalidRoot is returned when the content root is missing or has no
	// geometry.
	ErrInvalidRoot = errors.New("invalid content root")
	// ErrInvalidOptions is returned for option values no document can be
	// produced with.
	ErrInvalidOptions = errors.New("invalid options")
	// ErrWriteOutput is returned when the finished document cannot be saved.
	ErrWriteOutput = errors.New("failed to write output")
	// ErrNotFound is returned by backends for elements which do not exist.
	ErrNotFound = raster.ErrNotFound
)

// Measured geometry as returned by a Backend.
type (
	Tree = snapshot.Tree
	Node = snapshot.Node
)

// Pagination outcome.
type (
	Layout = pagination.Layout
	Page   = pagination.Page
)

// ImageFormat is the encoding of rasters embedded into the document.
type ImageFormat = raster.Format

const (
	ImageJPEG = raster.FormatJPEG
	ImagePNG  = raster.FormatPNG
)

// Backend lays out a document and rasterizes parts of it. Selectors address
// single elements. Missing elements are reported with ErrNotFound.
type Backend interface {
	// Measure returns the laid-out subtree of the element.
	Measure(ctx context.Context, selector string) (*Tree, error)
	// Element rasterizes the element.
	Element(ctx context.Context, selector string) (image.Image, error)
	// Template returns the element's outer HTML and its rendered width.
	Template(ctx context.Context, selector string) (string, float64, error)
	// Markup lays out and rasterizes an HTML fragment at the given width.
	Markup(ctx context.Context, markup string, width float64) (image.Image, error)
	Close() error
}

var (
	_ Backend = (*browser.Session)(nil)
	_ Backend = (*static.Backend)(nil)
)

// Input names the elements of one export.
type Input struct {
	// Root selects the content to paginate. Required.
	Root string
	// Header selects an element stamped at the top of pages. Optional.
	Header string
	// Footer selects a template stamped at the bottom of pages, with page
	// number and page count filled in. Optional.
	Footer string
}

// Result describes a finished export.
type Result struct {
	Pages  int
	Breaks []float64
	// Path is the written file in save mode.
	Path string
	// PDF holds the document in bytes mode.
	PDF []byte
	// DataURI holds the document in datauri mode.
	DataURI string
}

// Converter is the main API for slicing HTML into PDF pages
type Converter struct {
	options Options
	log     *zap.Logger
}

// New creates a new converter with default options modified by opts
func New(opts ...Option) *Converter {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return NewWithOptions(options)
}

// NewWithOptions creates a new converter with the specified options
func NewWithOptions(options Options) *Converter {
	return &Converter{
		options: options,
		log:     options.logger(),
	}
}

// Options returns a copy of the converter options.
func (c *Converter) Options() Options {
	return c.options
}

// Export paginates the root element provided by backend and produces the
// document according to the output mode. Nothing is written unless every
// page was composited.
func (c *Converter) Export(ctx context.Context, backend Backend, in Input) (*Result, error) {
	j, err := c.prepare(ctx, backend, in)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := c.composite(ctx, j, &buf); err != nil {
		return nil, err
	}
	res := &Result{Pages: len(j.layout.Pages), Breaks: j.layout.Breaks}
	if err := c.output(buf.Bytes(), res); err != nil {
		return nil, err
	}
	c.log.Info("Export complete",
		zap.Int("pages", res.Pages),
		zap.String("mode", string(c.options.OutputMode)),
		zap.String("path", res.Path))
	return res, nil
}

// Convert paginates the root element and writes the document to w,
// regardless of the output mode.
func (c *Converter) Convert(ctx context.Context, backend Backend, in Input, w io.Writer) (*Result, error) {
	j, err := c.prepare(ctx, backend, in)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := c.composite(ctx, j, &buf); err != nil {
		return nil, err
	}
	if _, err := buf.WriteTo(w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return &Result{Pages: len(j.layout.Pages), Breaks: j.layout.Breaks}, nil
}

// Paginate computes page breaks without producing a document. Header and
// footer are still rasterized since their heights shrink the page band.
func (c *Converter) Paginate(ctx context.Context, backend Backend, in Input) (*Layout, error) {
	j, err := c.prepare(ctx, backend, in)
	if err != nil {
		return nil, err
	}
	return j.layout, nil
}

// ConvertURL loads source, an HTML file or URL, in a headless browser and
// exports it.
func (c *Converter) ConvertURL(ctx context.Context, source string, in Input) (res *Result, err error) {
	s, err := browser.Launch(ctx, c.browserOptions(), c.log)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, s.Close())
	}()

	if err := s.Open(ctx, source); err != nil {
		return nil, err
	}
	return c.Export(ctx, s, in)
}

// ConvertHTML renders markup in a headless browser and exports it.
func (c *Converter) ConvertHTML(ctx context.Context, markup string, in Input) (res *Result, err error) {
	s, err := browser.Launch(ctx, c.browserOptions(), c.log)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, s.Close())
	}()

	if err := s.OpenHTML(ctx, markup); err != nil {
		return nil, err
	}
	return c.Export(ctx, s, in)
}

// ConvertSnapshot exports from a snapshot manifest instead of a live
// browser.
func (c *Converter) ConvertSnapshot(ctx context.Context, manifest string, in Input) (res *Result, err error) {
	b, err := static.Open(ctx, manifest, c.log)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, b.Close())
	}()
	return c.Export(ctx, b, in)
}

func (c *Converter) browserOptions() browser.Options {
	o := browser.DefaultOptions()
	o.Bin = c.options.BrowserBin
	o.NoSandbox = c.options.NoSandbox
	if c.options.Timeout > 0 {
		o.Timeout = c.options.Timeout
	}
	if c.options.ViewportWidth > 0 {
		o.ViewportWidth = c.options.ViewportWidth
	}
	if c.options.DeviceScale > 0 {
		o.DeviceScale = c.options.DeviceScale
	}
	return o
}

// WithOptions returns a new converter with the specified options
func (c *Converter) WithOptions(options Options) *Converter {
	return NewWithOptions(options)
}

// WithOption returns a new converter with the specified option set
func (c *Converter) WithOption(option Option) *Converter {
	newOptions := c.options
	option(&newOptions)
	return NewWithOptions(newOptions)
}

// SetContentWidth sets the content width
func (c *Converter) SetContentWidth(width float64) *Converter {
	return c.WithOption(WithContentWidth(width))
}

// SetOutputMode sets the output mode
func (c *Converter) SetOutputMode(mode OutputMode) *Converter {
	return c.WithOption(WithOutputMode(mode))
}

// SetFilename sets the file written in save mode
func (c *Converter) SetFilename(name string) *Converter {
	return c.WithOption(WithFilename(name))
}

// SetDebug sets the debug mode
func (c *Converter) SetDebug(debug bool) *Converter {
	return c.WithOption(WithDebug(debug))
}

// SetLogger sets the logger
func (c *Converter) SetLogger(log *zap.Logger) *Converter {
	return c.WithOption(WithLogger(log))
}

// SetTitle sets the document title
func (c *Converter) SetTitle(title string) *Converter {
	return c.WithOption(WithTitle(title))
}

// SetAuthor sets the document author
func (c *Converter) SetAuthor(author string) *Converter {
	return c.WithOption(WithAuthor(author))
}

// SetSubject sets the document subject
func (c *Converter) SetSubject(subject string) *Converter {
	return c.WithOption(WithSubject(subject))
}

// SetKeywords sets the document keywords
func (c *Converter) SetKeywords(keywords string) *Converter {
	return c.WithOption(WithKeywords(keywords))
}
