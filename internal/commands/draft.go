package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/kassabok/kassabok/internal/model"
)

const dateLayout = "2006-01-02"

// draftFile is a verification written by hand, e.g.
//
//	date: 2024-01-15
//	description: Försäljning
//	rows:
//	  - {account: 1930, debit: 1250}
//	  - {account: 3001, credit: 1000}
//	  - {account: 2610, credit: 250}
type draftFile struct {
	Date        string     `yaml:"date"`
	Description string     `yaml:"description"`
	Rows        []draftRow `yaml:"rows"`
}

type draftRow struct {
	Account     string `yaml:"account"`
	Description string `yaml:"description,omitempty"`
	Debit       string `yaml:"debit,omitempty"`
	Credit      string `yaml:"credit,omitempty"`
}

func readDraft(path string) (model.Verification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Verification{}, fmt.Errorf("reading verification: %w", err)
	}
	var d draftFile
	if err := yaml.Unmarshal(data, &d); err != nil {
		return model.Verification{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	v := model.Verification{Description: d.Description}
	if d.Date != "" {
		if v.Date, err = time.Parse(dateLayout, d.Date); err != nil {
			return v, fmt.Errorf("%s: invalid date %q: want YYYY-MM-DD", path, d.Date)
		}
	}
	for i, r := range d.Rows {
		row := model.VerificationRow{Account: r.Account, Description: r.Description}
		if row.Debit, err = amount(r.Debit); err != nil {
			return v, fmt.Errorf("%s: row %d debit: %w", path, i+1, err)
		}
		if row.Credit, err = amount(r.Credit); err != nil {
			return v, fmt.Errorf("%s: row %d credit: %w", path, i+1, err)
		}
		v.Rows = append(v.Rows, row)
	}
	return v, nil
}

func amount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// parseDate parses s, returning def when s is empty.
func parseDate(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
