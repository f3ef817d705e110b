// Package static serves pre-resolved geometry and pre-rendered rasters from a
// snapshot manifest, without a browser.
package static

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"github.com/gompdf/htmlslice/internal/fragment"
	"github.com/gompdf/htmlslice/internal/raster"
	"github.com/gompdf/htmlslice/internal/res"
	"github.com/gompdf/htmlslice/internal/snapshot"
)

// ErrNoGeometry is returned when an element has no snapshot tree.
var ErrNoGeometry = errors.New("element has no geometry")

// Entry describes one element of the manifest.
type Entry struct {
	// Image is a path, URL or data URL of the element's raster.
	Image string `yaml:"image,omitempty"`
	// Tree is the element's laid-out subtree. Required for the content root.
	Tree *snapshot.Tree `yaml:"tree,omitempty"`
	// Markup is the element's outer HTML, used for footer templates.
	Markup string `yaml:"markup,omitempty"`
	// Width is the rendered width in source pixels of Markup.
	Width float64 `yaml:"width,omitempty"`
}

// Manifest maps selectors onto snapshot entries.
type Manifest struct {
	Elements map[string]*Entry `yaml:"elements"`
}

// DecodeManifest reads a YAML manifest and links every tree in it.
func DecodeManifest(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	for sel, e := range m.Elements {
		if e == nil {
			return nil, fmt.Errorf("manifest element %q is empty", sel)
		}
		if e.Tree == nil {
			continue
		}
		if err := e.Tree.Link(); err != nil {
			return nil, fmt.Errorf("manifest element %q: %w", sel, err)
		}
	}
	return &m, nil
}

// Backend answers geometry and raster requests from a manifest.
type Backend struct {
	manifest *Manifest
	loader   *res.Loader
	style    raster.TextStyle
	log      *zap.Logger
}

// New creates a backend over an already decoded manifest. Relative image
// paths are resolved by loader.
func New(m *Manifest, loader *res.Loader, log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	if loader == nil {
		loader = res.NewLoader("", log)
	}
	return &Backend{
		manifest: m,
		loader:   loader,
		style:    raster.DefaultTextStyle(),
		log:      log.Named("static"),
	}
}

// Open loads the manifest at path. Image references are resolved relative to
// the manifest location.
func Open(ctx context.Context, path string, log *zap.Logger) (*Backend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	base := path
	if !res.IsRemote(path) && !res.IsDataURL(path) {
		if abs, err := filepath.Abs(path); err == nil {
			base = abs
		}
	}
	loader := res.NewLoader(base, log)

	r, err := loader.LoadData(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	m, err := DecodeManifest(r.GetReader())
	if err != nil {
		return nil, err
	}
	log.Debug("Manifest loaded", zap.String("path", path), zap.Int("elements", len(m.Elements)))
	return New(m, loader, log), nil
}

// SetTextStyle changes how markup-only elements are drawn.
func (b *Backend) SetTextStyle(s raster.TextStyle) {
	b.style = s
}

func (b *Backend) entry(selector string) (*Entry, error) {
	if b.manifest == nil {
		return nil, fmt.Errorf("%w: %s", raster.ErrNotFound, selector)
	}
	e, ok := b.manifest.Elements[selector]
	if !ok || e == nil {
		return nil, fmt.Errorf("%w: %s", raster.ErrNotFound, selector)
	}
	return e, nil
}

// Measure returns the snapshot tree of the element.
func (b *Backend) Measure(ctx context.Context, selector string) (*snapshot.Tree, error) {
	e, err := b.entry(selector)
	if err != nil {
		return nil, err
	}
	if e.Tree == nil || e.Tree.Root == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoGeometry, selector)
	}
	return e.Tree, nil
}

// Element returns the raster of the element. Elements with markup only are
// drawn as text.
func (b *Backend) Element(ctx context.Context, selector string) (image.Image, error) {
	e, err := b.entry(selector)
	if err != nil {
		return nil, err
	}
	if e.Image == "" {
		if e.Markup != "" {
			return b.Markup(ctx, e.Markup, e.Width)
		}
		return nil, fmt.Errorf("%w: %s has no image", raster.ErrNotFound, selector)
	}

	r, err := b.loader.LoadImage(ctx, e.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to load image of %s: %w", selector, err)
	}
	img, err := raster.Decode(r.Data, r.MimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image of %s: %w", selector, err)
	}
	return img, nil
}

// Template returns the element's markup and rendered width.
func (b *Backend) Template(ctx context.Context, selector string) (string, float64, error) {
	e, err := b.entry(selector)
	if err != nil {
		return "", 0, err
	}
	if e.Markup == "" {
		return "", 0, fmt.Errorf("%w: %s has no markup", raster.ErrNotFound, selector)
	}
	return e.Markup, e.Width, nil
}

// Markup draws the text content of an HTML fragment. A non-positive width
// falls back to the widest tree of the manifest.
func (b *Backend) Markup(ctx context.Context, markup string, width float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if width <= 0 {
		width = b.defaultWidth()
	}
	f, err := fragment.Parse(markup)
	if err != nil {
		return nil, err
	}
	return raster.Text(f.Text(), int(width), b.style)
}

func (b *Backend) defaultWidth() float64 {
	w := 0.0
	if b.manifest != nil {
		for _, e := range b.manifest.Elements {
			if e != nil && e.Tree != nil {
				w = max(w, e.Tree.SourceWidth)
			}
		}
	}
	if w <= 0 {
		w = 800
	}
	return w
}

// Close is a no-op.
func (b *Backend) Close() error { return nil }
