package accounts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kassabok/kassabok/internal/model"
)

// ChartPath is the chart location relative to a company directory.
var ChartPath = filepath.Join("accounts", "kontoplan.csv")

// Service provides in-memory lookup over the chart of accounts.
type Service struct {
	accounts []model.Account
	byNumber map[string]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	sorted := make([]model.Account, len(accounts))
	copy(sorted, accounts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	byNumber := make(map[string]model.Account, len(sorted))
	for _, a := range sorted {
		byNumber[a.Number] = a
	}
	return &Service{accounts: sorted, byNumber: byNumber}
}

// Load reads accounts/kontoplan.csv from a company directory.
func Load(root string) (*Service, error) {
	path := filepath.Join(root, ChartPath)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return NewService(accts), nil
}

// All returns all accounts ordered by number.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by number.
func (s *Service) Get(number string) (model.Account, bool) {
	a, ok := s.byNumber[number]
	return a, ok
}

// Exists reports whether an account number is in the chart.
func (s *Service) Exists(number string) bool {
	_, ok := s.byNumber[number]
	return ok
}

// Name returns the account name, or the number itself when unknown.
func (s *Service) Name(number string) string {
	if a, ok := s.byNumber[number]; ok {
		return a.Name
	}
	return number
}

// ByClass returns all accounts whose number classifies into class.
func (s *Service) ByClass(class model.AccountClass) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if Classify(a.Number).Class == class {
			result = append(result, a)
		}
	}
	return result
}

// Save writes the chart to accounts/kontoplan.csv under root.
func (s *Service) Save(root string) error {
	path := filepath.Join(root, ChartPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
