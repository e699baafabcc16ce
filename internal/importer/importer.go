// Package importer turns bank CSV exports into ledger entries for one account.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tally-ledger/tally/internal/ledger"
	"github.com/tally-ledger/tally/internal/log"
	"github.com/tally-ledger/tally/internal/model"
)

// Parser converts a bank CSV file into BankTransactions.
type Parser interface {
	Parse(r io.Reader) ([]model.BankTransaction, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists registered format names.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	r.Register(&MBankParser{})
	return r
}

// Store is where imported entries land.
type Store interface {
	ledger.Querier
	ledger.Appender
}

// Importer appends parsed bank transactions to a store, skipping any whose
// reference the account already holds.
type Importer struct {
	store    Store
	registry *Registry
	logger   *log.Logger
}

// New creates an Importer.
func New(store Store, registry *Registry, logger *log.Logger) *Importer {
	return &Importer{store: store, registry: registry, logger: logger.WithComponent("importer")}
}

// Result summarises one import.
type Result struct {
	Parsed   int
	Imported int
	Skipped  int
	EntryIDs []string
}

// Import parses r with the named format and appends new transactions to
// account. Imported entries are uncategorised transactions.
func (im *Importer) Import(ctx context.Context, r io.Reader, format string, account model.Account) (Result, error) {
	parser := im.registry.Get(format)
	if parser == nil {
		return Result{}, fmt.Errorf("unknown import format %q (known: %s)", format, strings.Join(im.registry.Formats(), ", "))
	}

	txns, err := parser.Parse(r)
	if err != nil {
		return Result{}, err
	}
	res := Result{Parsed: len(txns)}
	if len(txns) == 0 {
		return res, nil
	}
	for _, txn := range txns {
		if txn.Currency != "" && !strings.EqualFold(txn.Currency, account.Currency) {
			return Result{}, fmt.Errorf("%s transaction on %s is in %s but account %q is in %s",
				parser.Format(), txn.Date.Format("2006-01-02"), txn.Currency, account.Name, account.Currency)
		}
	}

	known, err := im.knownReferences(ctx, account.ID, txns)
	if err != nil {
		return Result{}, err
	}

	var entries []model.Entry
	for _, txn := range txns {
		if known[txn.Reference] {
			res.Skipped++
			continue
		}
		if txn.Amount.IsZero() {
			im.logger.WarnContext(ctx, "skipping zero-amount transaction", "date", txn.Date.Format("2006-01-02"), "description", txn.Description)
			res.Skipped++
			continue
		}
		entries = append(entries, model.Entry{
			AccountID:   account.ID,
			Date:        txn.Date,
			Amount:      txn.Amount,
			Currency:    account.Currency,
			Kind:        model.KindTransaction,
			Description: txn.Description,
			Reference:   txn.Reference,
		})
	}

	if len(entries) > 0 {
		ids, err := im.store.Append(ctx, entries)
		if err != nil {
			return Result{}, fmt.Errorf("appending imported entries: %w", err)
		}
		res.EntryIDs = ids
		res.Imported = len(ids)
	}

	im.logger.InfoContext(ctx, "import complete",
		"format", parser.Format(), "account", account.Name,
		"parsed", res.Parsed, "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}

// ImportFile imports the file at path.
func (im *Importer) ImportFile(ctx context.Context, path, format string, account model.Account) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	res, err := im.Import(ctx, f, format, account)
	if err != nil {
		return Result{}, fmt.Errorf("importing %s: %w", filepath.Base(path), err)
	}
	return res, nil
}

func (im *Importer) knownReferences(ctx context.Context, accountID uuid.UUID, txns []model.BankTransaction) (map[string]bool, error) {
	from, to := txns[0].Date, txns[0].Date
	for _, t := range txns[1:] {
		if t.Date.Before(from) {
			from = t.Date
		}
		if t.Date.After(to) {
			to = t.Date
		}
	}

	existing, err := im.store.Entries(ctx, ledger.Filter{
		AccountIDs:  []uuid.UUID{accountID},
		AnyCategory: true,
		Kinds:       []model.EntryKind{model.KindTransaction},
		From:        model.CivilDate(from),
		To:          model.CivilDate(to),
	})
	if err != nil {
		return nil, fmt.Errorf("loading existing entries: %w", err)
	}

	known := make(map[string]bool, len(existing))
	for _, e := range existing {
		if e.Reference != "" {
			known[e.Reference] = true
		}
	}
	return known, nil
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// importDir is the subdirectory for import CSVs.
const importDir = "import"

// processedDir is the subdirectory for processed CSVs.
const processedDir = "import/processed"

// Scan returns CSV files waiting in <repoRoot>/import/.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	if err := os.Rename(src, filepath.Join(dstDir, fileName)); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
