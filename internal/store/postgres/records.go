package postgres

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kassabok/kassabok/internal/model"
)

// verificationRecord mirrors a verifications row.
type verificationRecord struct {
	ID          string
	CompanyID   string
	Series      string
	Year        int
	Seq         int
	Date        time.Time
	Description string
	Reverses    sql.NullString
}

// rowRecord mirrors a verification_rows row.
type rowRecord struct {
	VerificationID string
	Position       int
	Account        string
	Description    sql.NullString
	Debit          decimal.Decimal
	Credit         decimal.Decimal
}

type joinedRecord struct {
	Verification verificationRecord
	Row          rowRecord
}

type invoiceRecord struct {
	ID       string
	Number   string
	Supplier bool
	DueDate  time.Time
	Total    decimal.Decimal
	Status   sql.NullString
}

type transactionRecord struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Reference   sql.NullString
	Status      sql.NullString
}

func recordFrom(v model.Verification, series string, seq int) verificationRecord {
	return verificationRecord{
		ID:          v.ID,
		CompanyID:   v.CompanyID,
		Series:      series,
		Year:        v.Date.Year(),
		Seq:         seq,
		Date:        v.Date,
		Description: v.Description,
		Reverses:    nullString(v.Reverses),
	}
}

func rowRecordsFrom(v model.Verification) []rowRecord {
	out := make([]rowRecord, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = rowRecord{
			VerificationID: v.ID,
			Position:       i,
			Account:        r.Account,
			Description:    nullString(r.Description),
			Debit:          r.Debit,
			Credit:         r.Credit,
		}
	}
	return out
}

func (r verificationRecord) toModel() model.Verification {
	return model.Verification{
		ID:          r.ID,
		Date:        r.Date,
		Description: r.Description,
		Reverses:    r.Reverses.String,
		CompanyID:   r.CompanyID,
	}
}

func (r rowRecord) toModel() model.VerificationRow {
	return model.VerificationRow{
		Account:     r.Account,
		Description: r.Description.String,
		Debit:       r.Debit,
		Credit:      r.Credit,
	}
}

// groupVerifications folds joined rows, ordered by verification, into
// verifications keeping the query order.
func groupVerifications(joined []joinedRecord) []model.Verification {
	var out []model.Verification
	index := make(map[string]int)
	for _, j := range joined {
		i, ok := index[j.Verification.ID]
		if !ok {
			i = len(out)
			index[j.Verification.ID] = i
			out = append(out, j.Verification.toModel())
		}
		out[i].Rows = append(out[i].Rows, j.Row.toModel())
	}
	return out
}

func (r invoiceRecord) toModel(companyID string) model.Invoice {
	return model.Invoice{
		ID:        r.ID,
		CompanyID: companyID,
		Number:    r.Number,
		Supplier:  r.Supplier,
		DueDate:   r.DueDate,
		Total:     r.Total,
		Status:    model.InvoiceStatus(r.Status.String),
	}
}

func (r transactionRecord) toModel() model.BankTransaction {
	return model.BankTransaction{
		Date:        r.Date,
		Description: r.Description,
		Amount:      r.Amount,
		Reference:   r.Reference.String,
		Status:      model.TransactionStatus(r.Status.String),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
