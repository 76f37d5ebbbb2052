package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kassabok/kassabok/internal/model"
)

// SwedishParser parses the semicolon separated account statements Swedish
// banks export. Columns are located by header name, so the column order
// and any extra columns (saldo, valutadag) do not matter.
type SwedishParser struct{}

const swedishDateFormat = "2006-01-02"

var (
	dateHeaders      = []string{"bokföringsdag", "bokforingsdag", "transaktionsdag", "datum"}
	textHeaders      = []string{"text", "beskrivning", "meddelande", "transaktion"}
	amountHeaders    = []string{"belopp", "belopp sek"}
	referenceHeaders = []string{"referens", "verifikationsnummer"}
)

// Format returns the parser name.
func (p *SwedishParser) Format() string { return "se" }

type swedishColumns struct {
	date, text, amount, reference int
}

// Parse reads a statement and returns unbooked BankTransactions.
func (p *SwedishParser) Parse(r io.Reader) ([]model.BankTransaction, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading bank CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	cols, err := locateColumns(records[0])
	if err != nil {
		return nil, err
	}

	var txns []model.BankTransaction
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		txn, err := parseSwedishRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func locateColumns(header []string) (swedishColumns, error) {
	cols := swedishColumns{date: -1, text: -1, amount: -1, reference: -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch {
		case cols.date < 0 && contains(dateHeaders, name):
			cols.date = i
		case cols.text < 0 && contains(textHeaders, name):
			cols.text = i
		case cols.amount < 0 && contains(amountHeaders, name):
			cols.amount = i
		case cols.reference < 0 && contains(referenceHeaders, name):
			cols.reference = i
		}
	}
	if cols.date < 0 || cols.amount < 0 {
		return cols, errors.New("header has no date or amount column")
	}
	return cols, nil
}

func parseSwedishRow(rec []string, cols swedishColumns) (model.BankTransaction, error) {
	date, err := time.Parse(swedishDateFormat, field(rec, cols.date))
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing date %q: %w", field(rec, cols.date), err)
	}

	amount, err := ParseAmount(field(rec, cols.amount))
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing amount %q: %w", field(rec, cols.amount), err)
	}

	desc := field(rec, cols.text)
	ref := field(rec, cols.reference)
	if ref == "" {
		ref = makeReference(date, desc, amount)
	}

	return model.BankTransaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Reference:   ref,
		Status:      model.TransactionUnbooked,
	}, nil
}

// ParseAmount parses a Swedish formatted amount such as "-1 234,50".
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		case '\u2212':
			return '-'
		}
		return r
	}, s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

// makeReference creates a reference like 20240115_SWISHFRAN_-250.00
// for statements without a reference column.
func makeReference(date time.Time, desc string, amount decimal.Decimal) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, strings.ToUpper(desc))
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("%s_%s_%s", date.Format("20060102"), prefix, amount.StringFixed(2))
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
