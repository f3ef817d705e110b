// Package htmlslice paginates a laid-out HTML subtree into an A4 PDF without
// splitting table rows, images or rich-text blocks.
package htmlslice

import (
	"github.com/gompdf/htmlslice/pkg/api"
)

type Converter = api.Converter
type Options = api.Options
type Option = api.Option
type OutputMode = api.OutputMode
type ImageFormat = api.ImageFormat
type Backend = api.Backend
type Input = api.Input
type Result = api.Result
type Tree = api.Tree
type Node = api.Node
type Layout = api.Layout
type Page = api.Page

func New(opts ...Option) *Converter { return api.New(opts...) }
func NewWithOptions(options Options) *Converter { return api.NewWithOptions(options) }
func DefaultOptions() Options { return api.DefaultOptions() }

var (
	ParseOutputMode = api.ParseOutputMode

	WithContentWidth    = api.WithContentWidth
	WithContentHeight   = api.WithContentHeight
	WithX               = api.WithX
	WithY               = api.WithY
	WithGap             = api.WithGap
	WithHeaderEveryPage = api.WithHeaderEveryPage
	WithFooterEveryPage = api.WithFooterEveryPage
	WithMarkers         = api.WithMarkers
	WithAtomicTags      = api.WithAtomicTags
	WithFooterSlots     = api.WithFooterSlots
	WithOutputMode      = api.WithOutputMode
	WithFilename        = api.WithFilename
	WithImageFormat     = api.WithImageFormat
	WithBrowser         = api.WithBrowser
	WithTimeout         = api.WithTimeout
	WithTitle           = api.WithTitle
	WithAuthor          = api.WithAuthor
	WithSubject         = api.WithSubject
	WithKeywords        = api.WithKeywords
	WithDebug           = api.WithDebug
	WithDebugDrawBands  = api.WithDebugDrawBands
	WithLogger          = api.WithLogger
)

var (
	ErrInvalidRoot    = api.ErrInvalidRoot
	ErrInvalidOptions = api.ErrInvalidOptions
	ErrWriteOutput    = api.ErrWriteOutput
	ErrNotFound       = api.ErrNotFound
)

const (
	PageWidth       = api.PageWidth
	PageHeight      = api.PageHeight
	DefaultFilename = api.DefaultFilename

	OutputSave    = api.OutputSave
	OutputBytes   = api.OutputBytes
	OutputDataURI = api.OutputDataURI

	ImageJPEG = api.ImageJPEG
	ImagePNG  = api.ImagePNG
)
