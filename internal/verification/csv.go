package verification

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kassabok/kassabok/internal/model"
)

// Header is the CSV header of a verification year file. Each line holds
// one row; the verification fields repeat on every row of the entry.
var Header = []string{"verification_id", "date", "description", "row", "account", "row_description", "debit", "credit", "reverses", "company_id"}

const (
	numFields    = 10
	dateFormat   = "2006-01-02"
	colID        = 0
	colDate      = 1
	colDesc      = 2
	colRow       = 3
	colAccount   = 4
	colRowDesc   = 5
	colDebit     = 6
	colCredit    = 7
	colReverses  = 8
	colCompanyID = 9
)

// ReadVerifications reads all verifications from a year file, grouping
// consecutive lines with the same verification_id.
func ReadVerifications(r io.Reader) ([]model.Verification, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading verification CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var out []model.Verification
	for i, rec := range records[1:] {
		v, row, err := unmarshalLine(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		if n := len(out); n > 0 && out[n-1].ID == v.ID {
			out[n-1].Rows = append(out[n-1].Rows, row)
			continue
		}
		v.Rows = []model.VerificationRow{row}
		out = append(out, v)
	}
	return out, nil
}

// WriteVerifications writes verifications including the header.
func WriteVerifications(w io.Writer, vs []model.Verification) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := writeLines(cw, vs); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// AppendVerifications writes verifications without a header.
func AppendVerifications(w io.Writer, vs []model.Verification) error {
	cw := csv.NewWriter(w)
	if err := writeLines(cw, vs); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func writeLines(cw *csv.Writer, vs []model.Verification) error {
	for _, v := range vs {
		for i := range v.Rows {
			if err := cw.Write(MarshalLine(v, i)); err != nil {
				return fmt.Errorf("writing %s row %d: %w", v.ID, i+1, err)
			}
		}
	}
	return nil
}

// MarshalLine converts row i of v to a CSV record.
func MarshalLine(v model.Verification, i int) []string {
	row := v.Rows[i]
	rec := make([]string, numFields)
	rec[colID] = v.ID
	rec[colDate] = v.Date.Format(dateFormat)
	rec[colDesc] = v.Description
	rec[colRow] = strconv.Itoa(i + 1)
	rec[colAccount] = row.Account
	rec[colRowDesc] = row.Description
	if !row.Debit.IsZero() {
		rec[colDebit] = row.Debit.StringFixed(2)
	}
	if !row.Credit.IsZero() {
		rec[colCredit] = row.Credit.StringFixed(2)
	}
	rec[colReverses] = v.Reverses
	rec[colCompanyID] = v.CompanyID
	return rec
}

func unmarshalLine(rec []string) (model.Verification, model.VerificationRow, error) {
	if len(rec) != numFields {
		return model.Verification{}, model.VerificationRow{}, fmt.Errorf("expected %d fields, got %d", numFields, len(rec))
	}

	date, err := time.Parse(dateFormat, rec[colDate])
	if err != nil {
		return model.Verification{}, model.VerificationRow{}, fmt.Errorf("parsing date %q: %w", rec[colDate], err)
	}

	var debit, credit decimal.Decimal
	if rec[colDebit] != "" {
		debit, err = decimal.NewFromString(rec[colDebit])
		if err != nil {
			return model.Verification{}, model.VerificationRow{}, fmt.Errorf("parsing debit %q: %w", rec[colDebit], err)
		}
	}
	if rec[colCredit] != "" {
		credit, err = decimal.NewFromString(rec[colCredit])
		if err != nil {
			return model.Verification{}, model.VerificationRow{}, fmt.Errorf("parsing credit %q: %w", rec[colCredit], err)
		}
	}

	v := model.Verification{
		ID:          rec[colID],
		Date:        date,
		Description: rec[colDesc],
		Reverses:    rec[colReverses],
		CompanyID:   rec[colCompanyID],
	}
	row := model.VerificationRow{
		Account:     rec[colAccount],
		Description: rec[colRowDesc],
		Debit:       debit,
		Credit:      credit,
	}
	return v, row, nil
}
