// Package report converts the basic HTML result report into a PDF document.
package report

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Layout defaults, in millimetres and points.
const (
	defaultMargin   = 20.0
	defaultFontSize = 11.0
	listIndent      = 6.0
	lineHeightRatio = 0.5
)

// Option applies a configuration option to the PDFRenderer.
type Option func(*PDFRenderer)

// WithFont sets the core font family and body size.
func WithFont(family string, size float64) Option {
	return func(r *PDFRenderer) {
		if family != "" {
			r.family = family
		}
		if size > 0 {
			r.size = size
		}
	}
}

// WithTitle sets the document title metadata. An empty title is ignored.
func WithTitle(title string) Option {
	return func(r *PDFRenderer) {
		if title != "" {
			r.title = title
		}
	}
}

// WithCompression toggles page stream compression.
func WithCompression(on bool) Option {
	return func(r *PDFRenderer) { r.compress = on }
}

// WithClock fixes the creation date written into the document.
func WithClock(now func() time.Time) Option {
	return func(r *PDFRenderer) {
		if now != nil {
			r.now = now
		}
	}
}

// PDFRenderer lays out a small HTML subset: h1, h2, p, b/strong, i/em,
// ul/li and br. Other tags are ignored and their text is kept.
type PDFRenderer struct {
	family   string
	size     float64
	title    string
	compress bool
	now      func() time.Time
}

// NewPDFRenderer creates a renderer with A4 portrait pages.
func NewPDFRenderer(opts ...Option) *PDFRenderer {
	r := &PDFRenderer{
		family:   "Helvetica",
		size:     defaultFontSize,
		title:    "Hair Health Report",
		compress: true,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ContentType is the MIME type of Render's output.
func (r *PDFRenderer) ContentType() string { return "application/pdf" }

// Render converts htmlDoc into a PDF document.
func (r *PDFRenderer) Render(ctx context.Context, htmlDoc []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(r.title, true)
	pdf.SetCreator("hairhealth", true)
	pdf.SetCreationDate(r.now())
	pdf.SetMargins(defaultMargin, defaultMargin, defaultMargin)
	pdf.SetAutoPageBreak(true, defaultMargin)
	pdf.AddPage()

	w := &writer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), family: r.family, size: r.size, lineStart: true}
	w.apply()

	body := string(htmlDoc)
	if i := strings.Index(strings.ToLower(body), "<body"); i >= 0 {
		body = body[i:]
	}
	for _, seg := range fpdf.HTMLBasicTokenize(body) {
		switch seg.Cat {
		case 'T':
			w.text(seg.Str)
		case 'O':
			w.open(strings.ToLower(seg.Str))
		case 'C':
			w.close(strings.ToLower(seg.Str))
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return buf.Bytes(), nil
}

// writer tracks inline styles and block state while walking tokens.
type writer struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	family string
	size   float64

	bold, italic int
	heading      float64
	listDepth    int
	lineStart    bool
}

func (w *writer) lineHeight() float64 {
	size := w.size
	if w.heading > 0 {
		size = w.heading
	}
	return size * lineHeightRatio
}

func (w *writer) apply() {
	style := ""
	if w.bold > 0 || w.heading > 0 {
		style += "B"
	}
	if w.italic > 0 {
		style += "I"
	}
	size := w.size
	if w.heading > 0 {
		size = w.heading
	}
	w.pdf.SetFont(w.family, style, size)
}

func (w *writer) text(s string) {
	s = html.UnescapeString(s)
	if w.lineStart {
		s = strings.TrimLeft(s, " \t\r\n")
	}
	if strings.TrimSpace(s) == "" && w.lineStart {
		return
	}
	w.pdf.Write(w.lineHeight(), w.tr(s))
	w.lineStart = false
}

func (w *writer) newline(gap float64) {
	if !w.lineStart {
		w.pdf.Ln(w.lineHeight())
	}
	if gap > 0 {
		w.pdf.Ln(gap)
	}
	w.lineStart = true
}

func (w *writer) open(tag string) {
	switch tag {
	case "h1":
		w.newline(0)
		w.heading = w.size * 1.8
	case "h2":
		w.newline(0)
		w.heading = w.size * 1.35
	case "p":
		w.newline(0)
	case "b", "strong":
		w.bold++
	case "i", "em":
		w.italic++
	case "ul":
		w.newline(0)
		w.listDepth++
		w.pdf.SetLeftMargin(defaultMargin + float64(w.listDepth)*listIndent)
	case "li":
		w.newline(0)
		w.pdf.SetX(defaultMargin + float64(w.listDepth)*listIndent)
		w.pdf.Write(w.lineHeight(), w.tr("• "))
		w.lineStart = true
		return
	case "br":
		w.pdf.Ln(w.lineHeight())
		w.lineStart = true
	}
	w.apply()
}

func (w *writer) close(tag string) {
	switch tag {
	case "h1", "h2":
		w.newline(w.lineHeight() / 2)
		w.heading = 0
	case "p":
		w.newline(w.size * 0.3)
	case "b", "strong":
		w.bold = max(w.bold-1, 0)
	case "i", "em":
		w.italic = max(w.italic-1, 0)
	case "ul":
		w.newline(w.size * 0.3)
		w.listDepth = max(w.listDepth-1, 0)
		w.pdf.SetLeftMargin(defaultMargin + float64(w.listDepth)*listIndent)
	case "li":
		w.newline(0)
	}
	w.apply()
}
