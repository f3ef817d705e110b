package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"codeberg.org/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/gompdf/htmlslice/internal/pagination"
	"github.com/gompdf/htmlslice/internal/raster"
)

// ErrNoContent is returned when there is nothing to composite.
var ErrNoContent = errors.New("no content to render")

// Document is the part of the PDF writer the renderer draws with.
type Document interface {
	AddPage()
	RegisterImageOptionsReader(name string, options fpdf.ImageOptions, r io.Reader) *fpdf.ImageInfoType
	ImageOptions(name string, x, y, w, h float64, flow bool, options fpdf.ImageOptions, link int, linkStr string)
	SetFillColor(r, g, b int)
	SetDrawColor(r, g, b int)
	SetLineWidth(width float64)
	Rect(x, y, w, h float64, styleStr string)
	PageCount() int
	Error() error
	Output(w io.Writer) error
}

var _ Document = (*fpdf.Fpdf)(nil)

// RenderOptions contains document metadata
type RenderOptions struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string
}

// NewDocument creates an empty portrait document of the given page size with
// automatic page breaks and margins turned off.
func NewDocument(pageWidth, pageHeight float64, options RenderOptions) *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})

	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(options.Title, true)
	pdf.SetAuthor(options.Author, true)
	pdf.SetSubject(options.Subject, true)
	pdf.SetKeywords(options.Keywords, true)
	pdf.SetCreator(options.Creator, true)
	pdf.SetProducer(options.Producer, true)
	return pdf
}

// Policy selects the pages header and footer are stamped on.
type Policy struct {
	// HeaderEveryPage stamps the header on every page instead of the first.
	HeaderEveryPage bool
	// FooterEveryPage stamps the footer on every page instead of the last.
	FooterEveryPage bool
}

// FooterFunc returns the footer raster for page number page (1-based) of
// total pages.
type FooterFunc func(ctx context.Context, page, total int) (*raster.Image, error)

// Input is everything needed to composite one document.
type Input struct {
	// Content is the raster of the whole content root.
	Content *raster.Image
	// Header is stamped as is. Nil means no header.
	Header *raster.Image
	// Footer renders the footer per page. Nil means no footer.
	Footer FooterFunc
	// Pages are the bands to show, in order.
	Pages []pagination.Page
}

// Renderer composites page bands of a content raster into a document
type Renderer struct {
	geo     Geometry
	policy  Policy
	encoder raster.Encoder
	log     *zap.Logger

	// DebugDrawBands outlines the visible band of every page.
	DebugDrawBands bool
}

// NewRenderer creates a new page renderer
func NewRenderer(geo Geometry, policy Policy, encoder raster.Encoder, log *zap.Logger) (*Renderer, error) {
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{geo: geo, policy: policy, encoder: encoder, log: log}, nil
}

// Geometry returns the page geometry in use.
func (r *Renderer) Geometry() Geometry {
	return r.geo
}

// Render adds one page per band to doc. Nothing is written anywhere: the
// caller serializes doc once Render succeeded.
func (r *Renderer) Render(ctx context.Context, doc Document, in Input) error {
	if in.Content == nil || len(in.Pages) == 0 {
		return ErrNoContent
	}

	if err := r.register(doc, "content", in.Content); err != nil {
		return err
	}
	if in.Header != nil {
		if err := r.register(doc, "header", in.Header); err != nil {
			return err
		}
	}

	total := len(in.Pages)
	for _, page := range in.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.renderPage(ctx, doc, in, page, total); err != nil {
			return fmt.Errorf("failed to render page %d: %w", page.Index+1, err)
		}
		if err := doc.Error(); err != nil {
			return fmt.Errorf("failed to render page %d: %w", page.Index+1, err)
		}
		r.log.Info("Page rendered", zap.Int("page", page.Index+1), zap.Int("total", total))
	}
	return nil
}

func (r *Renderer) renderPage(ctx context.Context, doc Document, in Input, page pagination.Page, total int) error {
	g := r.geo
	left := g.Left()
	contentTop := g.ContentTop()

	doc.AddPage()

	// the whole raster is placed, shifted so the band starts at contentTop
	r.place(doc, "content", left, contentTop-page.Top, in.Content)

	doc.SetFillColor(255, 255, 255)
	// header zone and everything above
	doc.Rect(0, 0, g.PageWidth, math.Ceil(contentTop), "F")
	// next page's content, gap and footer zone
	visible := page.Height
	if page.Last {
		visible = g.BandHeight()
	}
	if bottom := contentTop + visible; bottom < g.PageHeight {
		doc.Rect(0, bottom, g.PageWidth, math.Ceil(g.PageHeight-bottom), "F")
	}

	if in.Header != nil && (r.policy.HeaderEveryPage || page.First) {
		r.place(doc, "header", left, g.HeaderTop(), in.Header)
	}

	if in.Footer != nil && (r.policy.FooterEveryPage || page.Last) {
		footer, err := in.Footer(ctx, page.Index+1, total)
		if err != nil {
			return err
		}
		name := "footer-" + strconv.Itoa(page.Index+1)
		if err := r.register(doc, name, footer); err != nil {
			return err
		}
		r.place(doc, name, left, g.FooterTop(), footer)
	}

	if r.DebugDrawBands {
		doc.SetDrawColor(200, 0, 0)
		doc.SetLineWidth(0.5)
		doc.Rect(left, contentTop, g.ContentWidth, page.Height, "D")
	}

	r.log.Debug("Page band",
		zap.Int("page", page.Index+1),
		zap.Float64("top", page.Top),
		zap.Float64("height", page.Height))
	return nil
}

func (r *Renderer) imageOptions() fpdf.ImageOptions {
	return fpdf.ImageOptions{ImageType: r.encoder.Format.PDFType()}
}

// register encodes img and adds it to doc under name.
func (r *Renderer) register(doc Document, name string, img *raster.Image) error {
	var buf bytes.Buffer
	if err := r.encoder.Encode(&buf, img.Img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	doc.RegisterImageOptionsReader(name, r.imageOptions(), &buf)
	if err := doc.Error(); err != nil {
		return fmt.Errorf("failed to embed %s: %w", name, err)
	}
	return nil
}

func (r *Renderer) place(doc Document, name string, x, y float64, img *raster.Image) {
	doc.ImageOptions(name, x, y, img.Width, img.Height, false, r.imageOptions(), 0, "")
}
