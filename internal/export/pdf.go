package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/kassabok/kassabok/internal/model"
)

// Document is a report rendered to PDF.
type Document struct {
	Title    string
	Subtitle string
	Lines    []model.ReportLine
	// Warning is printed under the table, e.g. a balance sheet mismatch.
	Warning string
}

const (
	pageMargin   = 20.0
	lineHeight   = 7.0
	indentWidth  = 6.0
	labelWidth   = 120.0
	valueWidth   = 50.0
	headerSpacer = 2.0
)

// WritePDF renders doc as an A4 PDF. Headers and totals are bold and
// levels are indented.
func WritePDF(w io.Writer, doc Document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetTitle(doc.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, tr(doc.Subtitle), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	for _, l := range doc.Lines {
		style := ""
		if l.IsHeader || l.IsTotal {
			style = "B"
		}
		if l.IsHeader {
			pdf.Ln(headerSpacer)
		}
		pdf.SetFont("Arial", style, 10)

		indent := float64(l.Level) * indentWidth
		pdf.SetX(pageMargin + indent)
		border := ""
		if l.IsTotal {
			border = "T"
		}
		pdf.CellFormat(labelWidth-indent, lineHeight, tr(l.Label), border, 0, "L", false, 0, "")
		value := ""
		if !l.IsHeader {
			value = FormatSEK(l.Value)
		}
		pdf.CellFormat(valueWidth, lineHeight, tr(value), border, 1, "R", false, 0, "")
	}

	if doc.Warning != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 9)
		pdf.SetTextColor(180, 0, 0)
		pdf.MultiCell(0, 5, tr(doc.Warning), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering PDF: %w", err)
	}
	return nil
}

// FormatSEK formats an amount the Swedish way: "-40 000,00".
func FormatSEK(v decimal.Decimal) string {
	s := v.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if v.IsNegative() && !v.Round(2).IsZero() {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
