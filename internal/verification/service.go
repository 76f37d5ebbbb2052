package verification

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kassabok/kassabok/internal/id"
	"github.com/kassabok/kassabok/internal/logging"
	"github.com/kassabok/kassabok/internal/model"
)

var (
	// ErrInvalid is returned when a verification fails Check.
	ErrInvalid = errors.New("verification rejected")
	// ErrNotFound is returned when a verification ID is unknown.
	ErrNotFound = errors.New("verification not found")
	// ErrAlreadyReversed is returned when reversing a verification twice.
	ErrAlreadyReversed = errors.New("verification already reversed")
)

// Dir is the verification directory relative to a company directory.
const Dir = "verifikationer"

// Service books verifications into one CSV file per year.
type Service struct {
	root     string
	series   string
	accounts AccountChecker

	// mu is the write boundary: numbering, checking and appending
	// happen under it so two bookings never interleave.
	mu sync.Mutex
}

// NewService creates a file-backed verification Service.
func NewService(root, series string, accounts AccountChecker) *Service {
	return &Service{root: root, series: series, accounts: accounts}
}

// Book checks v, assigns the next verification number of its year and
// appends it. The returned verification carries the assigned ID.
func (s *Service) Book(ctx context.Context, v model.Verification) (model.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book(ctx, v)
}

func (s *Service) book(ctx context.Context, v model.Verification) (model.Verification, error) {
	if verrs := Check(v, s.accounts); len(verrs) > 0 {
		return model.Verification{}, Rejection(verrs)
	}

	year := v.Date.Year()
	seq, err := s.NextSeq(year)
	if err != nil {
		return model.Verification{}, err
	}
	v.ID = id.FormatVerificationID(s.series, year, seq)

	path := s.yearPath(year)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return model.Verification{}, fmt.Errorf("creating verification dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return model.Verification{}, fmt.Errorf("opening verification file: %w", err)
	}
	defer f.Close()

	if isNew {
		err = WriteVerifications(f, []model.Verification{v})
	} else {
		err = AppendVerifications(f, []model.Verification{v})
	}
	if err != nil {
		return model.Verification{}, fmt.Errorf("appending verification: %w", err)
	}

	logging.FromContext(ctx).Info("verification booked",
		zap.String("verification_id", v.ID),
		zap.Int("rows", len(v.Rows)),
		zap.String("reverses", v.Reverses),
	)
	return v, nil
}

// Reverse books a verification that offsets target row by row, dated on
// date. A verification can only be reversed once.
func (s *Service) Reverse(ctx context.Context, targetID string, date time.Time) (model.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, year, _, err := id.ParseVerificationID(targetID)
	if err != nil {
		return model.Verification{}, fmt.Errorf("%w: %s", ErrNotFound, targetID)
	}
	existing, err := s.ReadYear(year)
	if err != nil {
		return model.Verification{}, err
	}

	var target *model.Verification
	for i := range existing {
		if existing[i].ID == targetID {
			target = &existing[i]
		}
	}
	if target == nil {
		return model.Verification{}, fmt.Errorf("%w: %s", ErrNotFound, targetID)
	}

	// Reversals of the target may live in a later year.
	years, err := s.years()
	if err != nil {
		return model.Verification{}, err
	}
	for _, y := range years {
		if y < year {
			continue
		}
		vs, err := s.ReadYear(y)
		if err != nil {
			return model.Verification{}, err
		}
		for _, v := range vs {
			if v.Reverses == targetID {
				return model.Verification{}, fmt.Errorf("%w: %s by %s", ErrAlreadyReversed, targetID, v.ID)
			}
		}
	}

	return s.book(ctx, Reversal(*target, date))
}

// Reversal returns the offsetting verification of v with debit and
// credit swapped on every row.
func Reversal(v model.Verification, date time.Time) model.Verification {
	rows := make([]model.VerificationRow, len(v.Rows))
	for i, r := range v.Rows {
		rows[i] = model.VerificationRow{
			Account:     r.Account,
			Description: r.Description,
			Debit:       r.Credit,
			Credit:      r.Debit,
		}
	}
	return model.Verification{
		Date:        date,
		Description: "Rättelse av " + v.ID + ": " + v.Description,
		Rows:        rows,
		Reverses:    v.ID,
		CompanyID:   v.CompanyID,
	}
}

// Get returns a booked verification by ID.
func (s *Service) Get(_ context.Context, verificationID string) (model.Verification, error) {
	_, year, _, err := id.ParseVerificationID(verificationID)
	if err != nil {
		return model.Verification{}, fmt.Errorf("%w: %s", ErrNotFound, verificationID)
	}
	vs, err := s.ReadYear(year)
	if err != nil {
		return model.Verification{}, err
	}
	for _, v := range vs {
		if v.ID == verificationID {
			return v, nil
		}
	}
	return model.Verification{}, fmt.Errorf("%w: %s", ErrNotFound, verificationID)
}

// List returns all verifications dated within period, in booking order.
func (s *Service) List(_ context.Context, period model.Period) ([]model.Verification, error) {
	years, err := s.years()
	if err != nil {
		return nil, err
	}

	var out []model.Verification
	for _, year := range years {
		if !period.Start.IsZero() && year < period.Start.Year() {
			continue
		}
		if year > period.End.Year() {
			continue
		}
		vs, err := s.ReadYear(year)
		if err != nil {
			return nil, err
		}
		for _, v := range vs {
			if period.Contains(v.Date) {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

// ReadYear reads all verifications booked in a year.
func (s *Service) ReadYear(year int) ([]model.Verification, error) {
	path := s.yearPath(year)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening verifications %s: %w", path, err)
	}
	defer f.Close()

	vs, err := ReadVerifications(f)
	if err != nil {
		return nil, fmt.Errorf("reading verifications %s: %w", path, err)
	}
	return vs, nil
}

// NextSeq returns the next free sequence number of the series in year.
func (s *Service) NextSeq(year int) (int, error) {
	vs, err := s.ReadYear(year)
	if err != nil {
		return 0, err
	}

	maxSeq := 0
	for _, v := range vs {
		series, _, seq, err := id.ParseVerificationID(v.ID)
		if err != nil || series != s.series {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1, nil
}

func (s *Service) years() ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, Dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading verification dir: %w", err)
	}

	var years []int
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".csv")
		if !ok || e.IsDir() {
			continue
		}
		year, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		years = append(years, year)
	}
	sort.Ints(years)
	return years, nil
}

func (s *Service) yearPath(year int) string {
	return filepath.Join(s.root, Dir, fmt.Sprintf("%04d.csv", year))
}

// Rejection wraps verrs in an ErrInvalid error.
func Rejection(verrs []ValidationError) error {
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}
