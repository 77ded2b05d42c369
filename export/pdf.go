package export

import (
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"consumptionanalysis/analysis"

	"github.com/golang/freetype/truetype"
	"github.com/signintech/gopdf"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	pdfFontFamily = "report"
	pageWidth     = 595.0
	pageHeight    = 842.0
	pageMargin    = 40.0
	contentWidth  = pageWidth - 2*pageMargin
	footerTop     = pageHeight - 50
)

// PDFOptions configures PDF reports.
type PDFOptions struct {
	FontPath string // optional TTF; Go Regular when empty
	ChartDir string // where rendered charts live; charts are embedded when set
}

// PDFRenderer draws reports as A4 PDF documents.
type PDFRenderer struct {
	fontData []byte
	glyphs   *truetype.Font
	chartDir string
}

// NewPDFRenderer loads the report font.
func NewPDFRenderer(opts PDFOptions) (*PDFRenderer, error) {
	data := goregular.TTF
	if opts.FontPath != "" {
		var err error
		if data, err = os.ReadFile(opts.FontPath); err != nil {
			return nil, fmt.Errorf("read report font: %w", err)
		}
	}

	glyphs, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse report font: %w", err)
	}
	return &PDFRenderer{fontData: data, glyphs: glyphs, chartDir: opts.ChartDir}, nil
}

// Write renders report as a PDF document.
func (p *PDFRenderer) Write(w io.Writer, report *analysis.Report) error {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	if err := pdf.AddTTFFontData(pdfFontFamily, p.fontData); err != nil {
		return fmt.Errorf("load report font: %w", err)
	}

	doc := &pdfDoc{pdf: pdf, renderer: p}
	doc.newPage()

	// Header band
	pdf.SetFillColor(79, 70, 229)
	pdf.RectFromUpperLeftWithStyle(0, 0, pageWidth, 100, "F")
	pdf.SetTextColor(255, 255, 255)
	doc.y = 30
	if err := doc.line(22, "Consumption report: "+report.UserName); err != nil {
		return err
	}
	if err := doc.line(12, fmt.Sprintf("%s to %s", report.StartDate, report.EndDate)); err != nil {
		return err
	}

	doc.y = 120
	pdf.SetTextColor(45, 52, 54)
	if err := doc.line(12, fmt.Sprintf("Records: %d    Total: %s", report.Count, report.Total.StringFixed(2))); err != nil {
		return err
	}
	if err := doc.paragraph(11, report.Summary); err != nil {
		return err
	}

	for i, entry := range report.Entries {
		if err := doc.entry(i+1, entry); err != nil {
			return err
		}
	}

	if _, err := pdf.WriteTo(w); err != nil {
		return fmt.Errorf("write pdf report: %w", err)
	}
	return nil
}

type pdfDoc struct {
	pdf      *gopdf.GoPdf
	renderer *PDFRenderer
	y        float64
}

func (d *pdfDoc) newPage() {
	d.pdf.AddPage()
	d.y = pageMargin
}

// reserve starts a new page unless height more points fit on this one.
func (d *pdfDoc) reserve(height float64) {
	if d.y+height > footerTop {
		d.newPage()
	}
}

func (d *pdfDoc) line(size float64, text string) error {
	d.reserve(size * 1.5)
	if err := d.pdf.SetFont(pdfFontFamily, "", size); err != nil {
		return fmt.Errorf("set report font: %w", err)
	}
	d.pdf.SetX(pageMargin)
	d.pdf.SetY(d.y)
	if err := d.pdf.Cell(nil, d.printable(text)); err != nil {
		return fmt.Errorf("write report text: %w", err)
	}
	d.y += size * 1.5
	return nil
}

// paragraph wraps text to the content width.
func (d *pdfDoc) paragraph(size float64, text string) error {
	if err := d.pdf.SetFont(pdfFontFamily, "", size); err != nil {
		return fmt.Errorf("set report font: %w", err)
	}
	lines, err := d.wrap(d.printable(text))
	if err != nil {
		return err
	}
	for _, l := range lines {
		if err := d.line(size, l); err != nil {
			return err
		}
	}
	return nil
}

func (d *pdfDoc) wrap(text string) ([]string, error) {
	var lines []string
	var current []rune
	for _, r := range text {
		candidate := string(append(current, r))
		width, err := d.pdf.MeasureTextWidth(candidate)
		if err != nil {
			return nil, fmt.Errorf("measure report text: %w", err)
		}
		if width > contentWidth && len(current) > 0 {
			lines = append(lines, string(current))
			current = current[:0]
		}
		current = append(current, r)
	}
	if len(current) > 0 || len(lines) == 0 {
		lines = append(lines, string(current))
	}
	return lines, nil
}

func (d *pdfDoc) entry(n int, entry analysis.Entry) error {
	d.y += 12
	d.pdf.SetTextColor(79, 70, 229)
	if err := d.line(15, fmt.Sprintf("%d. %s", n, entry.Need)); err != nil {
		return err
	}
	d.pdf.SetTextColor(45, 52, 54)

	if entry.Empty {
		return d.line(11, "No data for this period.")
	}
	if err := d.paragraph(11, entry.Summary); err != nil {
		return err
	}
	d.chart(entry.ChartURL)

	comparison := entry.Dimension == analysis.ByCategoryComparison
	header := fmt.Sprintf("%-24s %12s %6s", entry.Chart.XAxis, "Total", "Count")
	if comparison {
		header += fmt.Sprintf(" %12s", "Previous")
	}
	if err := d.line(10, header); err != nil {
		return err
	}
	for _, g := range entry.Result.Groups {
		row := fmt.Sprintf("%-24s %12s %6d", g.Key, g.Total.StringFixed(2), g.Count)
		if comparison && g.Previous != nil {
			row += fmt.Sprintf(" %12s", g.Previous.StringFixed(2))
		}
		if err := d.line(10, row); err != nil {
			return err
		}
	}
	return nil
}

// chart embeds a rendered chart scaled to the content width. Charts that
// cannot be read are left out.
func (d *pdfDoc) chart(url string) {
	if url == "" || d.renderer.chartDir == "" {
		return
	}
	file := filepath.Join(d.renderer.chartDir, path.Base(url))

	f, err := os.Open(file)
	if err != nil {
		return
	}
	cfg, _, err := image.DecodeConfig(f)
	f.Close()
	if err != nil || cfg.Width == 0 {
		return
	}

	height := contentWidth * float64(cfg.Height) / float64(cfg.Width)
	d.reserve(height + 10)
	if err := d.pdf.Image(file, pageMargin, d.y, &gopdf.Rect{W: contentWidth, H: height}); err != nil {
		return
	}
	d.y += height + 10
}

// printable replaces runes the font has no glyph for.
func (d *pdfDoc) printable(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return ' '
		case r == ' ' || d.renderer.glyphs.Index(r) != 0:
			return r
		}
		return '?'
	}, s)
}
