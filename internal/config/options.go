package config

import (
	"go.uber.org/zap"

	"github.com/gompdf/htmlslice/pkg/api"
)

// Options converts the document, output and browser sections into converter
// options.
func (c *Config) Options(log *zap.Logger) api.Options {
	d := c.Document
	o := api.DefaultOptions()

	o.ContentWidth = d.ContentWidth
	o.ContentHeight = d.ContentHeight
	if d.X != nil {
		x := *d.X
		o.X = &x
	}
	if d.Y != nil {
		y := *d.Y
		o.Y = &y
	}
	o.Gap = d.Gap
	o.HeaderEveryPage = d.HeaderEveryPage
	o.FooterEveryPage = d.FooterEveryPage

	o.PaginableClass = d.Markers.Paginable
	o.RichTextClass = d.Markers.RichText
	o.TableRowClass = d.Markers.TableRow
	o.AtomicTags = append([]string(nil), d.Markers.AtomicTags...)
	o.PageSlotClass = d.FooterSlots.Page
	o.CountSlotClass = d.FooterSlots.Count

	o.ImageFormat = api.ImageFormat(d.Images.Format)
	o.JPEGQuality = d.Images.JPEGQuality

	o.Title = d.Metainformation.Title
	o.Author = d.Metainformation.Author
	o.Subject = d.Metainformation.Subject
	o.Keywords = d.Metainformation.Keywords
	o.DebugDrawBands = d.DebugDrawBands

	o.OutputMode = api.OutputMode(c.Output.Mode)
	o.Filename = c.Output.Filename

	o.BrowserBin = c.Browser.Bin
	o.NoSandbox = c.Browser.NoSandbox
	o.Timeout = c.Browser.Timeout
	o.ViewportWidth = c.Browser.ViewportWidth
	o.DeviceScale = c.Browser.DeviceScale

	o.Debug = c.Logging.ConsoleLogger.Level == "debug"
	o.Logger = log
	return o
}

// Input returns the configured element selectors.
func (c *Config) Input() api.Input {
	return api.Input{
		Root:   c.Selectors.Root,
		Header: c.Selectors.Header,
		Footer: c.Selectors.Footer,
	}
}
