package api

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gompdf/htmlslice/internal/fragment"
	"github.com/gompdf/htmlslice/internal/pagination"
	"github.com/gompdf/htmlslice/internal/raster"
	"github.com/gompdf/htmlslice/internal/render/pdf"
)

// Page size in points. Documents are always A4 portrait.
const (
	PageWidth  = pdf.PageWidth
	PageHeight = pdf.PageHeight
)

// DefaultFilename is used in save mode when neither a file name nor a title
// is set.
const DefaultFilename = "document.pdf"

// OutputMode selects what Export does with the finished document.
type OutputMode string

const (
	// OutputSave writes the document to Options.Filename.
	OutputSave OutputMode = "save"
	// OutputBytes returns the document in Result.PDF.
	OutputBytes OutputMode = "bytes"
	// OutputDataURI returns the document as a base64 data URI in
	// Result.DataURI.
	OutputDataURI OutputMode = "datauri"
)

// ParseOutputMode parses a case-insensitive output mode name.
func ParseOutputMode(s string) (OutputMode, error) {
	switch m := OutputMode(strings.ToLower(strings.TrimSpace(s))); m {
	case OutputSave, OutputBytes, OutputDataURI:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown output mode %q", ErrInvalidOptions, s)
}

// Options represents configuration options for the HTML slicer
type Options struct {
	// ContentWidth is the width in points of content, header and footer on
	// the page.
	ContentWidth float64
	// ContentHeight, when positive, limits the used part of the page to a
	// vertically centred band of that height.
	ContentHeight float64
	// X is the left edge of the content. Nil centres the content.
	X *float64
	// Y is the top of the used frame. Nil centres a ContentHeight frame.
	Y *float64
	// Gap separates header and footer from the content.
	Gap float64

	// Header and footer placement
	HeaderEveryPage bool
	FooterEveryPage bool

	// Class names recognised in the measured tree
	PaginableClass string
	RichTextClass  string
	TableRowClass  string
	AtomicTags     []string

	// Footer slots receiving the page number and the page count
	PageSlotClass  string
	CountSlotClass string

	// Output
	OutputMode OutputMode
	// Filename is where save mode writes. Empty derives a name from Title.
	Filename    string
	ImageFormat raster.Format
	JPEGQuality int

	// Browser backend
	BrowserBin    string
	NoSandbox     bool
	Timeout       time.Duration
	ViewportWidth int
	DeviceScale   float64

	// Document metadata
	Title    string
	Author   string
	Subject  string
	Keywords string

	Debug bool
	// DebugDrawBands outlines the content band of every page.
	DebugDrawBands bool

	Logger *zap.Logger
}

// Option is a function that modifies Options
type Option func(*Options)

// DefaultOptions returns the default options
func DefaultOptions() Options {
	m := pagination.DefaultMarkers()
	return Options{
		ContentWidth: 550,
		Gap:          pdf.DefaultGap,

		HeaderEveryPage: true,
		FooterEveryPage: true,

		PaginableClass: m.Paginable,
		RichTextClass:  m.RichText,
		TableRowClass:  m.TableRow,
		AtomicTags:     m.AtomicTags,

		PageSlotClass:  fragment.DefaultPageSlot,
		CountSlotClass: fragment.DefaultCountSlot,

		OutputMode:  OutputSave,
		ImageFormat: raster.FormatJPEG,
		JPEGQuality: 95,

		Timeout:       30 * time.Second,
		ViewportWidth: 1200,
		DeviceScale:   2,
	}
}

// Validate checks option values which do not depend on measured content.
func (o Options) Validate() error {
	if o.ContentWidth <= 0 || o.ContentWidth > PageWidth {
		return fmt.Errorf("%w: content width %.2f outside (0, %.2f]", ErrInvalidOptions, o.ContentWidth, PageWidth)
	}
	if o.ContentHeight < 0 || o.ContentHeight > PageHeight {
		return fmt.Errorf("%w: content height %.2f outside [0, %.2f]", ErrInvalidOptions, o.ContentHeight, PageHeight)
	}
	if o.Gap < 0 {
		return fmt.Errorf("%w: negative gap", ErrInvalidOptions)
	}
	if _, err := ParseOutputMode(string(o.OutputMode)); err != nil {
		return err
	}
	format, err := raster.ParseFormat(string(o.ImageFormat))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if format == raster.FormatJPEG && (o.JPEGQuality < 1 || o.JPEGQuality > 100) {
		return fmt.Errorf("%w: jpeg quality %d outside [1, 100]", ErrInvalidOptions, o.JPEGQuality)
	}
	if o.PageSlotClass == "" || o.CountSlotClass == "" {
		return fmt.Errorf("%w: footer slot class names must be set", ErrInvalidOptions)
	}
	return nil
}

func (o Options) markers() pagination.Markers {
	return pagination.Markers{
		Paginable:  o.PaginableClass,
		RichText:   o.RichTextClass,
		TableRow:   o.TableRowClass,
		AtomicTags: o.AtomicTags,
	}
}

func (o Options) encoder() raster.Encoder {
	format, _ := raster.ParseFormat(string(o.ImageFormat))
	return raster.Encoder{Format: format, Quality: o.JPEGQuality}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// WithContentWidth sets the width of the content on the page
func WithContentWidth(width float64) Option {
	return func(o *Options) {
		o.ContentWidth = width
	}
}

// WithContentHeight limits the used part of each page to a centred band
func WithContentHeight(height float64) Option {
	return func(o *Options) {
		o.ContentHeight = height
	}
}

// WithX sets the left edge of the content
func WithX(x float64) Option {
	return func(o *Options) {
		o.X = &x
	}
}

// WithY sets the top of the used part of each page
func WithY(y float64) Option {
	return func(o *Options) {
		o.Y = &y
	}
}

// WithGap sets the space between content and header or footer
func WithGap(gap float64) Option {
	return func(o *Options) {
		o.Gap = gap
	}
}

// WithHeaderEveryPage selects whether the header repeats on every page
func WithHeaderEveryPage(every bool) Option {
	return func(o *Options) {
		o.HeaderEveryPage = every
	}
}

// WithFooterEveryPage selects whether the footer repeats on every page
func WithFooterEveryPage(every bool) Option {
	return func(o *Options) {
		o.FooterEveryPage = every
	}
}

// WithMarkers sets the class names marking paginable, rich-text and
// table-row elements
func WithMarkers(paginable, richText, tableRow string) Option {
	return func(o *Options) {
		o.PaginableClass = paginable
		o.RichTextClass = richText
		o.TableRowClass = tableRow
	}
}

// WithAtomicTags sets the tags which are never split across pages
func WithAtomicTags(tags ...string) Option {
	return func(o *Options) {
		o.AtomicTags = tags
	}
}

// WithFooterSlots sets the class names of the footer's page number and page
// count elements
func WithFooterSlots(page, count string) Option {
	return func(o *Options) {
		o.PageSlotClass = page
		o.CountSlotClass = count
	}
}

// WithOutputMode sets the output mode
func WithOutputMode(mode OutputMode) Option {
	return func(o *Options) {
		o.OutputMode = mode
	}
}

// WithFilename sets the file written in save mode
func WithFilename(name string) Option {
	return func(o *Options) {
		o.Filename = name
	}
}

// WithImageFormat sets how rasters are embedded
func WithImageFormat(format raster.Format, quality int) Option {
	return func(o *Options) {
		o.ImageFormat = format
		o.JPEGQuality = quality
	}
}

// WithBrowser sets the browser executable and whether it runs sandboxed
func WithBrowser(bin string, noSandbox bool) Option {
	return func(o *Options) {
		o.BrowserBin = bin
		o.NoSandbox = noSandbox
	}
}

// WithTimeout bounds browser page loads and calls
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// WithTitle sets the document title
func WithTitle(title string) Option {
	return func(o *Options) {
		o.Title = title
	}
}

// WithAuthor sets the document author
func WithAuthor(author string) Option {
	return func(o *Options) {
		o.Author = author
	}
}

// WithSubject sets the document subject
func WithSubject(subject string) Option {
	return func(o *Options) {
		o.Subject = subject
	}
}

// WithKeywords sets the document keywords
func WithKeywords(keywords string) Option {
	return func(o *Options) {
		o.Keywords = keywords
	}
}

// WithDebug sets the debug mode
func WithDebug(debug bool) Option {
	return func(o *Options) {
		o.Debug = debug
	}
}

// WithDebugDrawBands outlines the content band of every page
func WithDebugDrawBands(draw bool) Option {
	return func(o *Options) {
		o.DebugDrawBands = draw
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = log
	}
}
