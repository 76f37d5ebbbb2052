// Package export writes financial statements to files for authorities
// and people: SRU declarations and PDF reports.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/kassabok/kassabok/internal/model"
	"github.com/kassabok/kassabok/internal/report"
)

// SRU file names.
const (
	InfoFile       = "INFO.SRU"
	BlanketterFile = "BLANKETTER.SRU"
)

// Company identifies the filer.
type Company struct {
	OrgNumber  string
	Name       string
	PostalCode string
	City       string
}

// Declaration is the INK2R appendix for one fiscal year.
type Declaration struct {
	Company      Company
	FiscalYear   model.Period
	Created      time.Time
	Income       []model.ReportLine
	BalanceSheet report.BalanceSheet
}

// Field is one #UPPGIFT row.
type Field struct {
	Code  int
	Value int64
}

// fieldMap maps a statement line to INK2R field codes. Lines without a
// natural negative counterpart always report the magnitude.
type fieldMap struct {
	label    string
	positive int
	negative int
}

var incomeFields = []fieldMap{
	{label: report.LabelNetSales, positive: 7410},
	{label: report.LabelGoods, positive: 7511},
	{label: report.LabelExternalCosts, positive: 7513},
	{label: report.LabelPersonnel, positive: 7514},
	{label: report.LabelDepreciation, positive: 7515},
	{label: report.LabelFinancialItems, positive: 7416, negative: 7522},
	{label: report.LabelAppropriations, positive: 7419, negative: 7525},
	{label: report.LabelTax, positive: 7528},
	{label: report.LabelNetResult, positive: 7450, negative: 7550},
}

var balanceFields = []fieldMap{
	{label: report.LabelFixedAssets, positive: 7216},
	{label: report.LabelCurrentAssets, positive: 7261},
	{label: report.LabelCash, positive: 7281},
	{label: report.LabelEquity, positive: 7301},
	{label: report.LabelLongTermLiabilities, positive: 7354},
	{label: report.LabelShortTermLiabilities, positive: 7369},
}

// Fields returns the non-zero INK2R fields of d in form order.
func (d Declaration) Fields() []Field {
	var fields []Field
	add := func(maps []fieldMap, lines []model.ReportLine) {
		for _, m := range maps {
			v, ok := report.Value(lines, m.label)
			if !ok {
				continue
			}
			if f, ok := m.field(v); ok {
				fields = append(fields, f)
			}
		}
	}
	add(incomeFields, d.Income)
	add(balanceFields, d.BalanceSheet.Lines)

	retained, _ := report.Value(d.BalanceSheet.Lines, report.LabelRetainedEarnings)
	result, _ := report.Value(d.BalanceSheet.Lines, report.LabelYearResult)
	if free := kronor(retained.Add(result)); free != 0 {
		fields = append(fields, Field{Code: 7302, Value: free})
	}
	return fields
}

func (m fieldMap) field(v decimal.Decimal) (Field, bool) {
	n := kronor(v)
	switch {
	case n == 0:
		return Field{}, false
	case n < 0 && m.negative != 0:
		return Field{Code: m.negative, Value: -n}, true
	default:
		return Field{Code: m.positive, Value: n}, true
	}
}

// kronor rounds to whole kronor.
func kronor(v decimal.Decimal) int64 {
	return v.Round(0).IntPart()
}

// NormalizeOrgNumber returns the 12 digit identity used in SRU files.
// Ten digit company numbers get the "16" century prefix.
func NormalizeOrgNumber(org string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, org)
	switch len(digits) {
	case 10:
		return "16" + digits, nil
	case 12:
		return digits, nil
	default:
		return "", fmt.Errorf("organisation number %q: want 10 or 12 digits", org)
	}
}

// sruWriter writes CRLF terminated ISO 8859-1 lines and keeps the
// first error.
type sruWriter struct {
	enc io.Writer
	w   *bufio.Writer
	err error
}

func newSRUWriter(w io.Writer) *sruWriter {
	enc := charmap.ISO8859_1.NewEncoder().Writer(w)
	return &sruWriter{enc: enc, w: bufio.NewWriter(enc)}
}

func (s *sruWriter) line(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format+"\r\n", args...)
}

func (s *sruWriter) flush() error {
	if s.err != nil {
		return s.err
	}
	if err := s.w.Flush(); err != nil {
		return err
	}
	if c, ok := s.enc.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// WriteInfo writes INFO.SRU describing the delivery.
func WriteInfo(w io.Writer, c Company, created time.Time) error {
	org, err := NormalizeOrgNumber(c.OrgNumber)
	if err != nil {
		return err
	}
	s := newSRUWriter(w)
	s.line("#DATABESKRIVNING_START")
	s.line("#PRODUKT SRU")
	s.line("#SKAPAD %s", created.Format("20060102 150405"))
	s.line("#PROGRAM kassabok")
	s.line("#FILNAMN %s", BlanketterFile)
	s.line("#DATABESKRIVNING_SLUT")
	s.line("#MEDIELEV_START")
	s.line("#ORGNR %s", org)
	s.line("#NAMN %s", c.Name)
	if c.PostalCode != "" {
		s.line("#POSTNR %s", strings.ReplaceAll(c.PostalCode, " ", ""))
	}
	if c.City != "" {
		s.line("#POSTORT %s", strings.ToUpper(c.City))
	}
	s.line("#MEDIELEV_SLUT")
	if err := s.flush(); err != nil {
		return fmt.Errorf("writing %s: %w", InfoFile, err)
	}
	return nil
}

// WriteBlanketter writes BLANKETTER.SRU with the INK2R form of d.
func WriteBlanketter(w io.Writer, d Declaration) error {
	org, err := NormalizeOrgNumber(d.Company.OrgNumber)
	if err != nil {
		return err
	}
	s := newSRUWriter(w)
	s.line("#BLANKETT INK2R-%dP4", d.FiscalYear.End.Year())
	s.line("#IDENTITET %s %s", org, d.Created.Format("20060102 150405"))
	s.line("#NAMN %s", d.Company.Name)
	s.line("#UPPGIFT 7011 %s", d.FiscalYear.Start.Format("20060102"))
	s.line("#UPPGIFT 7012 %s", d.FiscalYear.End.Format("20060102"))
	for _, f := range d.Fields() {
		s.line("#UPPGIFT %d %d", f.Code, f.Value)
	}
	s.line("#BLANKETTSLUT")
	s.line("#FIL_SLUT")
	if err := s.flush(); err != nil {
		return fmt.Errorf("writing %s: %w", BlanketterFile, err)
	}
	return nil
}
