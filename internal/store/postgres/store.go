// Package postgres stores verifications, invoices and bank transactions
// in PostgreSQL through database/sql and lib/pq.
//
// Expected tables, all scoped by company_id:
//
//	verifications(id, company_id, series, year, seq, date, description, reverses)
//	verification_rows(verification_id, company_id, position, account, description, debit, credit)
//	invoices(id, company_id, number, supplier, due_date, total, status)
//	bank_transactions(company_id, date, description, amount, reference, status)
//
// A verification is reversed at most once:
//
//	CREATE UNIQUE INDEX verifications_reverses_once ON verifications (company_id, reverses) WHERE reverses IS NOT NULL
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"go.uber.org/zap"

	"github.com/kassabok/kassabok/internal/id"
	"github.com/kassabok/kassabok/internal/logging"
	"github.com/kassabok/kassabok/internal/model"
	"github.com/kassabok/kassabok/internal/verification"
)

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return db, nil
}

// Store is the Postgres verification ledger of one company.
type Store struct {
	db        *sql.DB
	companyID string
	series    string
	accounts  verification.AccountChecker
}

var _ verification.Ledger = (*Store)(nil)

// New returns a Store for companyID. New verifications are numbered in
// series and checked against accounts.
func New(db *sql.DB, companyID, series string, accounts verification.AccountChecker) *Store {
	return &Store{db: db, companyID: companyID, series: series, accounts: accounts}
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Book checks v and inserts it in one transaction.
func (s *Store) Book(ctx context.Context, v model.Verification) (model.Verification, error) {
	var booked model.Verification
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		booked, err = s.insert(ctx, tx, v)
		return err
	})
	return booked, err
}

// Reverse books the offsetting verification of targetID dated on date.
// Concurrent reversals of the same target queue on an advisory lock, so
// the later one sees the first and fails with ErrAlreadyReversed.
func (s *Store) Reverse(ctx context.Context, targetID string, date time.Time) (model.Verification, error) {
	var booked model.Verification
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		lockKey := fmt.Sprintf("reverse/%s/%s", s.companyID, targetID)
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
			return fmt.Errorf("locking %s for reversal: %w", targetID, err)
		}
		target, err := s.get(ctx, tx, targetID)
		if err != nil {
			return err
		}
		var reversed bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM verifications WHERE company_id = $1 AND reverses = $2)`,
			s.companyID, targetID,
		).Scan(&reversed)
		if err != nil {
			return fmt.Errorf("checking reversals of %s: %w", targetID, err)
		}
		if reversed {
			return fmt.Errorf("%w: %s", verification.ErrAlreadyReversed, targetID)
		}
		booked, err = s.insert(ctx, tx, verification.Reversal(target, date))
		return err
	})
	return booked, err
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// insert numbers and writes v inside tx. The advisory lock serialises
// numbering per company, series and year.
func (s *Store) insert(ctx context.Context, tx *sql.Tx, v model.Verification) (model.Verification, error) {
	if verrs := verification.Check(v, s.accounts); len(verrs) > 0 {
		return model.Verification{}, verification.Rejection(verrs)
	}
	year := v.Date.Year()

	lockKey := fmt.Sprintf("%s/%s/%d", s.companyID, s.series, year)
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return model.Verification{}, fmt.Errorf("locking verification series: %w", err)
	}

	var seq int
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM verifications WHERE company_id = $1 AND series = $2 AND year = $3`,
		s.companyID, s.series, year,
	).Scan(&seq)
	if err != nil {
		return model.Verification{}, fmt.Errorf("numbering verification: %w", err)
	}

	v.ID = id.FormatVerificationID(s.series, year, seq)
	v.CompanyID = s.companyID
	rec := recordFrom(v, s.series, seq)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO verifications (id, company_id, series, year, seq, date, description, reverses) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.CompanyID, rec.Series, rec.Year, rec.Seq, rec.Date, rec.Description, rec.Reverses,
	)
	if err != nil {
		return model.Verification{}, fmt.Errorf("inserting verification %s: %w", v.ID, err)
	}

	for _, r := range rowRecordsFrom(v) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO verification_rows (verification_id, company_id, position, account, description, debit, credit) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.VerificationID, s.companyID, r.Position, r.Account, r.Description, r.Debit, r.Credit,
		)
		if err != nil {
			return model.Verification{}, fmt.Errorf("inserting row %d of %s: %w", r.Position+1, v.ID, err)
		}
	}

	logging.FromContext(ctx).Info("verification booked",
		zap.String("verification_id", v.ID),
		zap.String("company_id", s.companyID),
		zap.Int("rows", len(v.Rows)),
	)
	return v, nil
}

const selectVerifications = `SELECT v.id, v.date, v.description, v.reverses, r.position, r.account, r.description, r.debit, r.credit
FROM verifications v
JOIN verification_rows r ON r.verification_id = v.id AND r.company_id = v.company_id
WHERE v.company_id = $1`

// Get returns one verification.
func (s *Store) Get(ctx context.Context, verificationID string) (model.Verification, error) {
	return s.get(ctx, s.db, verificationID)
}

func (s *Store) get(ctx context.Context, q queryer, verificationID string) (model.Verification, error) {
	vs, err := s.query(ctx, q, selectVerifications+` AND v.id = $2 ORDER BY r.position`, s.companyID, verificationID)
	if err != nil {
		return model.Verification{}, err
	}
	if len(vs) == 0 {
		return model.Verification{}, fmt.Errorf("%w: %s", verification.ErrNotFound, verificationID)
	}
	return vs[0], nil
}

// List returns the verifications dated within period, ordered by date and ID.
func (s *Store) List(ctx context.Context, period model.Period) ([]model.Verification, error) {
	return s.query(ctx, s.db,
		selectVerifications+` AND v.date >= $2 AND v.date <= $3 ORDER BY v.date, v.id, r.position`,
		s.companyID, day(period.Start), day(period.End),
	)
}

// Verifications is List; it lets Store serve as a review source.
func (s *Store) Verifications(ctx context.Context, period model.Period) ([]model.Verification, error) {
	return s.List(ctx, period)
}

func (s *Store) query(ctx context.Context, q queryer, query string, args ...any) ([]model.Verification, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying verifications: %w", err)
	}
	defer rows.Close()

	var joined []joinedRecord
	for rows.Next() {
		var j joinedRecord
		if err := rows.Scan(
			&j.Verification.ID, &j.Verification.Date, &j.Verification.Description, &j.Verification.Reverses,
			&j.Row.Position, &j.Row.Account, &j.Row.Description, &j.Row.Debit, &j.Row.Credit,
		); err != nil {
			return nil, fmt.Errorf("scanning verification row: %w", err)
		}
		j.Verification.CompanyID = s.companyID
		j.Row.VerificationID = j.Verification.ID
		joined = append(joined, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading verifications: %w", err)
	}
	return groupVerifications(joined), nil
}

// Invoices returns the invoices due within period.
func (s *Store) Invoices(ctx context.Context, period model.Period) ([]model.Invoice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, number, supplier, due_date, total, status FROM invoices WHERE company_id = $1 AND due_date >= $2 AND due_date <= $3 ORDER BY due_date, number`,
		s.companyID, day(period.Start), day(period.End),
	)
	if err != nil {
		return nil, fmt.Errorf("querying invoices: %w", err)
	}
	defer rows.Close()

	var out []model.Invoice
	for rows.Next() {
		var r invoiceRecord
		if err := rows.Scan(&r.ID, &r.Number, &r.Supplier, &r.DueDate, &r.Total, &r.Status); err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}
		out = append(out, r.toModel(s.companyID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading invoices: %w", err)
	}
	return out, nil
}

// Transactions returns the bank transactions dated within period.
func (s *Store) Transactions(ctx context.Context, period model.Period) ([]model.BankTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, description, amount, reference, status FROM bank_transactions WHERE company_id = $1 AND date >= $2 AND date <= $3 ORDER BY date`,
		s.companyID, day(period.Start), day(period.End),
	)
	if err != nil {
		return nil, fmt.Errorf("querying bank transactions: %w", err)
	}
	defer rows.Close()

	var out []model.BankTransaction
	for rows.Next() {
		var r transactionRecord
		if err := rows.Scan(&r.Date, &r.Description, &r.Amount, &r.Reference, &r.Status); err != nil {
			return nil, fmt.Errorf("scanning bank transaction: %w", err)
		}
		out = append(out, r.toModel())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading bank transactions: %w", err)
	}
	return out, nil
}

func day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
