package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kassabok/kassabok/internal/model"
)

// TransactionsFile holds imported transactions, relative to the data root.
var TransactionsFile = filepath.Join("transaktioner", "transactions.csv")

// ErrUnknownTransaction is returned by SetStatus for an unknown reference.
var ErrUnknownTransaction = errors.New("unknown transaction")

const transactionHeader = "date,description,amount,reference,status"

const (
	txnNumFields = 5
	txnColDate   = 0
	txnColDesc   = 1
	txnColAmount = 2
	txnColRef    = 3
	txnColStatus = 4
)

// Store keeps imported bank transactions, one per reference.
type Store struct {
	root string
	mu   sync.Mutex
}

// NewStore returns a store under root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Add stores txns whose reference is not yet known and returns how many
// were new.
func (s *Store) Add(txns []model.BankTransaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readAll()
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t.Reference] = true
	}

	added := 0
	for _, t := range txns {
		if seen[t.Reference] {
			continue
		}
		seen[t.Reference] = true
		if t.Status == "" {
			t.Status = model.TransactionUnbooked
		}
		existing = append(existing, t)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	sort.SliceStable(existing, func(i, j int) bool { return existing[i].Date.Before(existing[j].Date) })
	return added, s.writeAll(existing)
}

// List returns the transactions dated within period.
func (s *Store) List(_ context.Context, period model.Period) ([]model.BankTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	var out []model.BankTransaction
	for _, t := range all {
		if period.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out, nil
}

// SetStatus changes the status of the transaction with reference.
func (s *Store) SetStatus(reference string, status model.TransactionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].Reference == reference {
			all[i].Status = status
			return s.writeAll(all)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownTransaction, reference)
}

func (s *Store) readAll() ([]model.BankTransaction, error) {
	f, err := os.Open(filepath.Join(s.root, TransactionsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening transactions: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = txnNumFields
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.BankTransaction
	for i, rec := range records[1:] {
		t, err := unmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, t)
	}
	return txns, nil
}

func (s *Store) writeAll(txns []model.BankTransaction) error {
	path := filepath.Join(s.root, TransactionsFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating transactions dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating transactions file: %w", err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(strings.Split(transactionHeader, ",")); err != nil {
		f.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	for _, t := range txns {
		if err := cw.Write(marshalTransaction(t)); err != nil {
			f.Close()
			return fmt.Errorf("writing transaction %s: %w", t.Reference, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flushing transactions: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing transactions file: %w", err)
	}
	return os.Rename(tmp, path)
}

func marshalTransaction(t model.BankTransaction) []string {
	row := make([]string, txnNumFields)
	row[txnColDate] = t.Date.Format(swedishDateFormat)
	row[txnColDesc] = t.Description
	row[txnColAmount] = t.Amount.StringFixed(2)
	row[txnColRef] = t.Reference
	row[txnColStatus] = string(t.Status)
	return row
}

func unmarshalTransaction(rec []string) (model.BankTransaction, error) {
	date, err := time.Parse(swedishDateFormat, rec[txnColDate])
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing date %q: %w", rec[txnColDate], err)
	}
	amount, err := decimal.NewFromString(rec[txnColAmount])
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing amount %q: %w", rec[txnColAmount], err)
	}
	return model.BankTransaction{
		Date:        date,
		Description: rec[txnColDesc],
		Amount:      amount,
		Reference:   rec[txnColRef],
		Status:      model.TransactionStatus(rec[txnColStatus]),
	}, nil
}
