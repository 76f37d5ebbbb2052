package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kassabok/kassabok/internal/model"
)

const (
	numFields  = 4
	colNumber  = 0
	colName    = 1
	colVATRate = 2
	colCompany = 3
)

var header = []string{"account_number", "account_name", "vat_rate", "company_id"}

// ReadAccounts reads kontoplan.csv. The first line must be the chart
// header; an empty input is an empty chart.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	first, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading chart header: %w", err)
	}
	if !slices.Equal(first, header) {
		return nil, fmt.Errorf("unexpected chart header %q", strings.Join(first, ","))
	}

	var accounts []model.Account
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return accounts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading chart: %w", err)
		}
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		accounts = append(accounts, acct)
	}
}

// WriteAccounts writes kontoplan.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colNumber] = acct.Number
	row[colName] = acct.Name
	if acct.VATRate.Valid {
		row[colVATRate] = acct.VATRate.Decimal.String()
	}
	row[colCompany] = acct.CompanyID
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	number := record[colNumber]
	if !validNumber(number) {
		return model.Account{}, fmt.Errorf("invalid account number %q", number)
	}

	var vat decimal.NullDecimal
	if record[colVATRate] != "" {
		d, err := decimal.NewFromString(record[colVATRate])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing vat_rate %q: %w", record[colVATRate], err)
		}
		vat = decimal.NewNullDecimal(d)
	}

	return model.Account{
		Number:    number,
		Name:      record[colName],
		VATRate:   vat,
		CompanyID: record[colCompany],
	}, nil
}

// validNumber reports whether s is a four-digit BAS account number.
func validNumber(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
