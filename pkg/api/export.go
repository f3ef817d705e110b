package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/gompdf/htmlslice/internal/fragment"
	"github.com/gompdf/htmlslice/internal/pagination"
	"github.com/gompdf/htmlslice/internal/raster"
	"github.com/gompdf/htmlslice/internal/render/pdf"
)

const producer = "htmlslice"

// job is everything measured and rasterized for one export.
type job struct {
	content *raster.Image
	header  *raster.Image
	footer  pdf.FooterFunc
	geo     pdf.Geometry
	layout  *pagination.Layout
}

func (c *Converter) prepare(ctx context.Context, backend Backend, in Input) (*job, error) {
	o := c.options
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: no backend", ErrInvalidOptions)
	}
	if strings.TrimSpace(in.Root) == "" {
		return nil, fmt.Errorf("%w: empty selector", ErrInvalidRoot)
	}

	tree, err := backend.Measure(ctx, in.Root)
	if err != nil {
		if errors.Is(err, raster.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
		}
		return nil, fmt.Errorf("failed to measure %s: %w", in.Root, err)
	}
	if tree == nil || tree.Root == nil || tree.SourceWidth <= 0 {
		return nil, fmt.Errorf("%w: %s has no geometry", ErrInvalidRoot, in.Root)
	}

	j := &job{}
	if j.content, err = c.rasterize(ctx, backend, in.Root); err != nil {
		return nil, err
	}
	if in.Header != "" {
		j.header, err = c.rasterize(ctx, backend, in.Header)
		if err != nil && !errors.Is(err, raster.ErrNotFound) {
			return nil, err
		}
		if j.header == nil {
			c.log.Info("No header", zap.String("selector", in.Header))
		}
	}

	footerHeight := 0.0
	if in.Footer != "" {
		j.footer, footerHeight, err = c.footer(ctx, backend, in.Footer)
		if err != nil && !errors.Is(err, raster.ErrNotFound) {
			return nil, err
		}
		if j.footer == nil {
			c.log.Info("No footer", zap.String("selector", in.Footer))
		}
	}

	j.geo = pdf.DefaultGeometry(o.ContentWidth)
	j.geo.ContentHeight = o.ContentHeight
	j.geo.X = o.X
	j.geo.Y = o.Y
	j.geo.Gap = o.Gap
	j.geo.FooterHeight = footerHeight
	if j.header != nil {
		j.geo.HeaderHeight = j.header.Height
	}
	if err := j.geo.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	engine := pagination.NewEngine(c.log)
	engine.SetOptions(pagination.Options{
		ContentWidth: o.ContentWidth,
		PageHeight:   j.geo.BandHeight(),
		Markers:      o.markers(),
	})
	if j.layout, err = engine.Paginate(tree, j.content.Height); err != nil {
		return nil, fmt.Errorf("failed to paginate %s: %w", in.Root, err)
	}
	c.log.Debug("Layout",
		zap.Float64("band", j.geo.BandHeight()),
		zap.Float64("header", j.geo.HeaderHeight),
		zap.Float64("footer", footerHeight),
		zap.Float64s("breaks", j.layout.Breaks))
	return j, nil
}

// rasterize captures selector and scales it onto the content width.
func (c *Converter) rasterize(ctx context.Context, backend Backend, selector string) (*raster.Image, error) {
	img, err := backend.Element(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize %s: %w", selector, err)
	}
	scaled, err := raster.Scale(img, c.options.ContentWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize %s: %w", selector, err)
	}
	return scaled, nil
}

// footer builds the per-page footer renderer. The reserved height is taken
// from the template with its slots still empty.
func (c *Converter) footer(ctx context.Context, backend Backend, selector string) (pdf.FooterFunc, float64, error) {
	markup, width, err := backend.Template(ctx, selector)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read footer %s: %w", selector, err)
	}
	tmpl, err := fragment.NewTemplate(markup, c.options.PageSlotClass, c.options.CountSlotClass)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse footer %s: %w", selector, err)
	}

	draw := func(ctx context.Context, markup string) (*raster.Image, error) {
		img, err := backend.Markup(ctx, markup, width)
		if err != nil {
			return nil, fmt.Errorf("failed to rasterize footer: %w", err)
		}
		return raster.Scale(img, c.options.ContentWidth)
	}

	raw, err := draw(ctx, markup)
	if err != nil {
		return nil, 0, err
	}
	fn := func(ctx context.Context, page, total int) (*raster.Image, error) {
		filled, err := tmpl.Render(page, total)
		if err != nil {
			return nil, err
		}
		return draw(ctx, filled)
	}
	return fn, raw.Height, nil
}

func (c *Converter) composite(ctx context.Context, j *job, w io.Writer) error {
	o := c.options
	r, err := pdf.NewRenderer(j.geo, pdf.Policy{
		HeaderEveryPage: o.HeaderEveryPage,
		FooterEveryPage: o.FooterEveryPage,
	}, o.encoder(), c.log)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	r.DebugDrawBands = o.DebugDrawBands

	doc := pdf.NewDocument(j.geo.PageWidth, j.geo.PageHeight, pdf.RenderOptions{
		Title:    o.Title,
		Author:   o.Author,
		Subject:  o.Subject,
		Keywords: o.Keywords,
		Creator:  producer,
		Producer: producer,
	})
	if err := r.Render(ctx, doc, pdf.Input{
		Content: j.content,
		Header:  j.header,
		Footer:  j.footer,
		Pages:   j.layout.Pages,
	}); err != nil {
		return err
	}
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}
	return nil
}

func (c *Converter) output(data []byte, res *Result) error {
	mode, err := ParseOutputMode(string(c.options.OutputMode))
	if err != nil {
		return err
	}
	switch mode {
	case OutputBytes:
		res.PDF = data
	case OutputDataURI:
		res.DataURI = "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data)
	case OutputSave:
		path := c.options.filename()
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("%w: %w", ErrWriteOutput, err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		res.Path = path
	}
	return nil
}

// filename returns the file written in save mode: Filename, else a slug of
// Title, else DefaultFilename.
func (o Options) filename() string {
	name := o.Filename
	if name == "" && o.Title != "" {
		if s := slug.Make(o.Title); s != "" {
			name = s
		}
	}
	if name == "" {
		return DefaultFilename
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return name
}
