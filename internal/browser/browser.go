// Package browser measures and rasterizes live DOM elements in headless Chrome.
package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gompdf/htmlslice/internal/raster"
	"github.com/gompdf/htmlslice/internal/res"
	"github.com/gompdf/htmlslice/internal/snapshot"
)

// Sentinel errors for browser operations.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageLoad       = errors.New("failed to load page")
	ErrNotOpen        = errors.New("no document open")
	ErrScript         = errors.New("page script failed")
	ErrScreenshot     = errors.New("screenshot failed")
)

// Options configures the browser session.
type Options struct {
	// Bin is the browser executable. Empty means the launcher default,
	// downloading Chromium when none is installed.
	Bin string
	// NoSandbox is required in most containers.
	NoSandbox bool
	// Timeout bounds page loads and each script or screenshot call.
	Timeout time.Duration
	// ViewportWidth is the CSS width of the layout viewport.
	ViewportWidth int
	// DeviceScale is the device pixel ratio used for screenshots.
	DeviceScale float64
}

// DefaultOptions returns the session defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:       30 * time.Second,
		ViewportWidth: 1200,
		DeviceScale:   2,
	}
}

// Session owns one browser and one page. It is not safe for concurrent use.
type Session struct {
	opts    Options
	browser *rod.Browser
	page    *rod.Page
	log     *zap.Logger
}

// Launch starts (or downloads and starts) Chrome and opens a blank page.
func Launch(ctx context.Context, opts Options, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	d := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = d.Timeout
	}
	if opts.ViewportWidth <= 0 {
		opts.ViewportWidth = d.ViewportWidth
	}
	if opts.DeviceScale <= 0 {
		opts.DeviceScale = d.DeviceScale
	}

	l := launcher.New().Context(ctx)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	} else if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	if opts.NoSandbox || os.Getenv("CI") == "true" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBrowserConnect, err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBrowserConnect, err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("%w: %w", ErrBrowserConnect, err), b.Close())
	}

	s := &Session{opts: opts, browser: b, page: page, log: log.Named("browser")}
	if err := s.viewport(); err != nil {
		return nil, multierr.Append(err, s.Close())
	}
	s.log.Debug("Browser launched", zap.String("control", u), zap.Int("viewport", opts.ViewportWidth))
	return s, nil
}

func (s *Session) viewport() error {
	err := s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.opts.ViewportWidth,
		Height:            900,
		DeviceScaleFactor: s.opts.DeviceScale,
	})
	if err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}
	return nil
}

// Close releases the page and the browser.
func (s *Session) Close() error {
	var err error
	if s.page != nil {
		err = multierr.Append(err, s.page.Close())
		s.page = nil
	}
	if s.browser != nil {
		err = multierr.Append(err, s.browser.Close())
		s.browser = nil
	}
	return err
}

// bound returns the page tied to ctx and limited by the session timeout.
func (s *Session) bound(ctx context.Context) (*rod.Page, error) {
	if s.page == nil {
		return nil, ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.page.Context(ctx).Timeout(s.opts.Timeout), nil
}

// Open navigates to source: an http(s) or file URL, or a local file path.
func (s *Session) Open(ctx context.Context, source string) error {
	p, err := s.bound(ctx)
	if err != nil {
		return err
	}

	target := source
	if !res.IsRemote(source) && !res.IsDataURL(source) {
		path, err := res.NewLoader("", s.log).Resolve(source)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPageLoad, err)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPageLoad, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("%w: %w", ErrPageLoad, err)
		}
		target = "file://" + abs
	}

	if err := p.Navigate(target); err != nil {
		return fmt.Errorf("%w: %w", ErrPageLoad, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %w", ErrPageLoad, err)
	}
	s.log.Debug("Document loaded", zap.String("url", target))
	return nil
}

// OpenHTML replaces the current document with markup.
func (s *Session) OpenHTML(ctx context.Context, markup string) error {
	p, err := s.bound(ctx)
	if err != nil {
		return err
	}
	if err := p.SetDocumentContent(markup); err != nil {
		return fmt.Errorf("%w: %w", ErrPageLoad, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %w", ErrPageLoad, err)
	}
	return nil
}

func (s *Session) element(ctx context.Context, selector string) (*rod.Element, error) {
	p, err := s.bound(ctx)
	if err != nil {
		return nil, err
	}
	has, el, err := p.Has(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", ErrScript, selector, err)
	}
	if !has {
		return nil, fmt.Errorf("%w: %s", raster.ErrNotFound, selector)
	}
	return el, nil
}

// Measure reads the laid-out geometry of the element's subtree.
func (s *Session) Measure(ctx context.Context, selector string) (*snapshot.Tree, error) {
	el, err := s.element(ctx, selector)
	if err != nil {
		return nil, err
	}
	obj, err := el.Eval(measureJS)
	if err != nil {
		return nil, fmt.Errorf("%w: measure %s: %w", ErrScript, selector, err)
	}

	var tree snapshot.Tree
	if err := obj.Value.Unmarshal(&tree); err != nil {
		return nil, fmt.Errorf("%w: decode geometry of %s: %w", ErrScript, selector, err)
	}
	if err := tree.Link(); err != nil {
		return nil, err
	}
	s.log.Debug("Element measured",
		zap.String("selector", selector),
		zap.Float64("width", tree.SourceWidth),
		zap.Float64("height", tree.Root.OffsetHeight))
	return &tree, nil
}

// Element takes a screenshot of the element at the device scale.
func (s *Session) Element(ctx context.Context, selector string) (image.Image, error) {
	el, err := s.element(ctx, selector)
	if err != nil {
		return nil, err
	}
	return s.capture(ctx, el, selector)
}

// Template returns the element's outer HTML and its rendered CSS width.
func (s *Session) Template(ctx context.Context, selector string) (string, float64, error) {
	el, err := s.element(ctx, selector)
	if err != nil {
		return "", 0, err
	}
	markup, err := el.HTML()
	if err != nil {
		return "", 0, fmt.Errorf("%w: outer html of %s: %w", ErrScript, selector, err)
	}
	obj, err := el.Eval(`function () { return this.offsetWidth }`)
	if err != nil {
		return "", 0, fmt.Errorf("%w: width of %s: %w", ErrScript, selector, err)
	}
	return markup, obj.Value.Num(), nil
}

// Markup renders an HTML fragment into a temporary host at the bottom of
// the current document, so the document's styles apply, and captures it.
func (s *Session) Markup(ctx context.Context, markup string, width float64) (image.Image, error) {
	p, err := s.bound(ctx)
	if err != nil {
		return nil, err
	}
	if width <= 0 {
		width = float64(s.opts.ViewportWidth)
	}

	id := "htmlslice-" + uuid.NewString()
	if _, err := p.Eval(attachJS, id, markup, width); err != nil {
		return nil, fmt.Errorf("%w: attach fragment: %w", ErrScript, err)
	}
	defer func() {
		if _, err := p.Eval(detachJS, id); err != nil {
			s.log.Warn("Unable to remove fragment host", zap.String("id", id), zap.Error(err))
		}
	}()

	el, err := s.element(ctx, "#"+id)
	if err != nil {
		return nil, err
	}
	return s.capture(ctx, el, "#"+id)
}

// capture screenshots the element's document box, including parts outside
// of the viewport.
func (s *Session) capture(ctx context.Context, el *rod.Element, selector string) (image.Image, error) {
	p, err := s.bound(ctx)
	if err != nil {
		return nil, err
	}
	obj, err := el.Eval(boxJS)
	if err != nil {
		return nil, fmt.Errorf("%w: box of %s: %w", ErrScript, selector, err)
	}
	var box struct {
		X, Y, Width, Height float64
	}
	if err := obj.Value.Unmarshal(&box); err != nil {
		return nil, fmt.Errorf("%w: box of %s: %w", ErrScript, selector, err)
	}
	if box.Width <= 0 || box.Height <= 0 {
		return nil, fmt.Errorf("%w: %s is not rendered", raster.ErrEmpty, selector)
	}

	data, err := p.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      box.X,
			Y:      box.Y,
			Width:  box.Width,
			Height: box.Height,
			Scale:  1,
		},
		CaptureBeyondViewport: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrScreenshot, selector, err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrScreenshot, selector, err)
	}
	s.log.Debug("Element captured",
		zap.String("selector", selector),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))
	return img, nil
}
