// Package quotepdf renders a quote as a one-page PDF document.
package quotepdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/cartonline/quotebot/internal/quote"
	"github.com/jung-kurt/gofpdf"
)

const MimeType = "application/pdf"

// Font files loaded from the configured font directory.
const (
	regularFontFile = "DejaVuSans.ttf"
	boldFontFile    = "DejaVuSans-Bold.ttf"
)

type Generator struct {
	company  string
	fontDir  string
	compress bool
}

// New returns a generator. With a non-empty fontDir the document embeds
// DejaVu Sans from that directory and prints any Unicode text, including
// the rupee sign. Without it the core Helvetica font is used and text is
// converted to cp1252.
func New(company, fontDir string) *Generator {
	return &Generator{company: company, fontDir: fontDir, compress: true}
}

// Filename returns the document name for a quote issued at.
func Filename(q quote.Quote, at time.Time) string {
	return fmt.Sprintf("quote-%s-%s.pdf", sanitize(q.ProductName), at.UTC().Format("20060102-150405"))
}

// face is the font family plus the text conversion and currency marker it
// supports.
type face struct {
	family   string
	text     func(string) string
	currency string
}

func (g *Generator) setup(pdf *gofpdf.Fpdf) (face, error) {
	if g.fontDir == "" {
		return face{
			family:   "Helvetica",
			text:     pdf.UnicodeTranslatorFromDescriptor(""),
			currency: "INR ",
		}, nil
	}
	pdf.AddUTF8Font("DejaVu", "", regularFontFile)
	pdf.AddUTF8Font("DejaVu", "B", boldFontFile)
	if err := pdf.Error(); err != nil {
		return face{}, fmt.Errorf("loading fonts from %s: %w", g.fontDir, err)
	}
	return face{
		family:   "DejaVu",
		text:     func(s string) string { return s },
		currency: "₹",
	}, nil
}

// Generate renders q.
func (g *Generator) Generate(q quote.Quote, customerPhone string, at time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", g.fontDir)
	pdf.SetCompression(g.compress)
	pdf.SetTitle("Quotation", true)
	pdf.SetAuthor(g.company, true)

	f, err := g.setup(pdf)
	if err != nil {
		return nil, err
	}
	tr := f.text
	italic := "I"
	if f.family == "DejaVu" {
		italic = ""
	}

	pdf.AddPage()

	pdf.SetFont(f.family, "B", 16)
	pdf.Cell(0, 10, "Quotation")
	pdf.Ln(10)

	pdf.SetFont(f.family, "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", at.UTC().Format("02 Jan 2006 15:04 MST")))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Customer: %s (%s)", customerPhone, q.CustomerType)))
	pdf.Ln(10)

	pdf.SetFont(f.family, "B", 11)
	pdf.CellFormat(70, 7, "Product", "B", 0, "", false, 0, "")
	pdf.CellFormat(25, 7, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Unit price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(20, 7, "Disc. %", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont(f.family, "", 10)
	pdf.CellFormat(70, 7, tr(trim(q.ProductName+" "+q.Size, 40)), "", 0, "", false, 0, "")
	pdf.CellFormat(25, 7, fmt.Sprintf("%d", q.Quantity), "", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, q.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
	pdf.CellFormat(20, 7, q.DiscountPercent.String(), "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, q.TotalPrice.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(f.family, "B", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Price per carton after discount: %s%s", f.currency, q.FinalUnitPrice.StringFixed(2))))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Total: %s%s", f.currency, q.TotalPrice.StringFixed(2))))
	pdf.Ln(9)

	pdf.SetFont(f.family, "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Payment: %s", q.PaymentMethod)))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Delivery: %s", q.DeliveryLabel)))
	pdf.Ln(10)

	pdf.SetFont(f.family, italic, 8)
	pdf.Cell(0, 5, tr(g.company))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering quote pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Render returns the quote document together with its filename and MIME type.
func (g *Generator) Render(q quote.Quote, customerPhone string, at time.Time) (string, string, []byte, error) {
	data, err := g.Generate(q, customerPhone, at)
	if err != nil {
		return "", "", nil, err
	}
	return Filename(q, at), MimeType, data, nil
}

func trim(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '-')
		}
	}
	if len(out) == 0 {
		return "item"
	}
	return string(out)
}
