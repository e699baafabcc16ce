package accounts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tally-ledger/tally/internal/model"
)

const (
	accountsFile   = "chart-of-accounts.csv"
	categoriesFile = "categories.csv"
)

// Service provides in-memory lookup over the chart of accounts and categories.
type Service struct {
	accounts   []model.Account
	byID       map[uuid.UUID]model.Account
	categories []model.Category
	catByID    map[uuid.UUID]model.Category
}

// NewService creates a Service from accounts and categories.
func NewService(accounts []model.Account, categories []model.Category) *Service {
	byID := make(map[uuid.UUID]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	catByID := make(map[uuid.UUID]model.Category, len(categories))
	for _, c := range categories {
		catByID[c.ID] = c
	}
	return &Service{accounts: accounts, byID: byID, categories: categories, catByID: catByID}
}

// Load reads the chart of accounts and categories from a ledger root.
// A missing categories file yields no categories.
func Load(repoRoot string) (*Service, error) {
	f, err := os.Open(filepath.Join(repoRoot, "accounts", accountsFile))
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}

	var cats []model.Category
	cf, err := os.Open(filepath.Join(repoRoot, "accounts", categoriesFile))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("opening categories: %w", err)
	default:
		defer cf.Close()
		cats, err = ReadCategories(cf)
		if err != nil {
			return nil, fmt.Errorf("reading categories: %w", err)
		}
	}
	return NewService(accts, cats), nil
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by ID.
func (s *Service) Get(id uuid.UUID) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id uuid.UUID) bool {
	_, ok := s.byID[id]
	return ok
}

// Visible returns the accounts shown on the balance sheet.
func (s *Service) Visible() []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Visible {
			result = append(result, a)
		}
	}
	return result
}

// ByClassification returns all accounts on one side of the balance sheet.
func (s *Service) ByClassification(c model.Classification) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Classification == c {
			result = append(result, a)
		}
	}
	return result
}

// Resolve accepts an account id or a case-insensitive account name.
func (s *Service) Resolve(ref string) (model.Account, error) {
	if id, err := uuid.Parse(ref); err == nil {
		if a, ok := s.byID[id]; ok {
			return a, nil
		}
	}
	for _, a := range s.accounts {
		if strings.EqualFold(a.Name, ref) {
			return a, nil
		}
	}
	return model.Account{}, fmt.Errorf("unknown account %q", ref)
}

// Categories returns all categories.
func (s *Service) Categories() []model.Category {
	return s.categories
}

// CategoryExists reports whether a category ID exists.
func (s *Service) CategoryExists(id uuid.UUID) bool {
	_, ok := s.catByID[id]
	return ok
}

// CategoryByName finds a category by case-insensitive name or id.
func (s *Service) CategoryByName(ref string) (model.Category, error) {
	if id, err := uuid.Parse(ref); err == nil {
		if c, ok := s.catByID[id]; ok {
			return c, nil
		}
	}
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return model.Category{}, fmt.Errorf("unknown category %q", ref)
}

// Save writes accounts/chart-of-accounts.csv and accounts/categories.csv.
func (s *Service) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, "accounts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, accountsFile))
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()
	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	cf, err := os.Create(filepath.Join(dir, categoriesFile))
	if err != nil {
		return fmt.Errorf("creating categories file: %w", err)
	}
	defer cf.Close()
	if err := WriteCategories(cf, s.categories); err != nil {
		return fmt.Errorf("writing categories: %w", err)
	}
	return nil
}
