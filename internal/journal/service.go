package journal

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
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tally-ledger/tally/internal/id"
	"github.com/tally-ledger/tally/internal/ledger"
	"github.com/tally-ledger/tally/internal/model"
)

// Service stores ledger entries in monthly journal.csv files under repoRoot.
type Service struct {
	repoRoot string
	chart    Chart
}

var (
	_ ledger.Querier   = (*Service)(nil)
	_ ledger.Versioner = (*Service)(nil)
	_ ledger.Appender  = (*Service)(nil)
)

// NewService creates a journal Service.
func NewService(repoRoot string, chart Chart) *Service {
	return &Service{repoRoot: repoRoot, chart: chart}
}

// AddParams holds parameters for a new journal entry.
type AddParams struct {
	Date      time.Time
	AccountID uuid.UUID
	Amount    decimal.Decimal
	// Currency defaults to the account's currency when empty.
	Currency    string
	CategoryID  uuid.UUID
	Kind        model.EntryKind
	Description string
	Reference   string
}

// Add validates a single entry and appends it to its month's journal.csv.
// Returns the entry ID.
func (s *Service) Add(params AddParams) (string, error) {
	ids, err := s.Append(context.Background(), []model.Entry{params.entry()})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (p AddParams) entry() model.Entry {
	return model.Entry{
		AccountID:   p.AccountID,
		Date:        p.Date,
		Amount:      p.Amount,
		Currency:    p.Currency,
		CategoryID:  p.CategoryID,
		Kind:        p.Kind,
		Description: p.Description,
		Reference:   p.Reference,
	}
}

// Append implements ledger.Appender. It assigns ids to every entry, validates
// each affected month as a whole and only then writes. Nothing is written
// when any month fails.
func (s *Service) Append(ctx context.Context, entries []model.Entry) ([]string, error) {
	type monthKey struct{ year, month int }
	type pending struct {
		path     string
		existing int
		all      []model.Entry
	}

	ids := make([]string, len(entries))
	months := make(map[monthKey]*pending)
	var order []monthKey

	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e = Normalize(e, s.chart)
		key := monthKey{e.Date.Year(), int(e.Date.Month())}

		pm, ok := months[key]
		if !ok {
			existing, err := s.ReadMonth(key.year, key.month)
			if err != nil {
				return nil, err
			}
			pm = &pending{path: s.monthPath(key.year, key.month), existing: len(existing), all: existing}
			months[key] = pm
			order = append(order, key)
		}

		e.ID = id.New(key.year, key.month, len(pm.all)+1).String()
		pm.all = append(pm.all, e)
		ids[i] = e.ID
	}

	var msgs []string
	for _, key := range order {
		for _, ve := range ValidateEntries(months[key].all, s.chart, key.year, key.month) {
			msgs = append(msgs, ve.Error())
		}
	}
	if len(msgs) > 0 {
		return nil, fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}

	for _, key := range order {
		pm := months[key]
		if err := s.appendMonth(pm.path, pm.all[pm.existing:]); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// Normalize fills the defaults a new entry may omit: civil date, transaction
// kind and the account's currency.
func Normalize(e model.Entry, chart Chart) model.Entry {
	e.Date = model.CivilDate(e.Date)
	if e.Kind == "" {
		e.Kind = model.KindTransaction
	}
	if e.Currency == "" {
		if acct, ok := chart.Get(e.AccountID); ok {
			e.Currency = acct.Currency
		}
	}
	return e
}

// appendMonth appends entries to path, creating the directory and header if new.
func (s *Service) appendMonth(path string, entries []model.Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating journal dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	if err := AppendEntries(f, entries); err != nil {
		return fmt.Errorf("appending entries: %w", err)
	}
	return nil
}

// ReadMonth reads all entries for a given year/month.
func (s *Service) ReadMonth(year, month int) ([]model.Entry, error) {
	path := s.monthPath(year, month)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	defer f.Close()

	entries, err := ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("reading journal %s: %w", path, err)
	}
	return entries, nil
}

// Entries implements ledger.Querier. Only month files overlapping the
// filter's date range are read.
func (s *Service) Entries(ctx context.Context, f ledger.Filter) ([]model.Entry, error) {
	files, err := s.monthFiles()
	if err != nil {
		return nil, err
	}

	var out []model.Entry
	for _, mf := range files {
		if !f.From.IsZero() && mf.end().Before(f.From) {
			continue
		}
		if !f.To.IsZero() && mf.start().After(f.To) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := s.ReadMonth(mf.year, mf.month)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if f.Match(e) {
				out = append(out, e)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// DataVersion implements ledger.Versioner. Journals are append-only, so the
// file count, total size and newest modification time change on every write.
func (s *Service) DataVersion(context.Context) (string, error) {
	files, err := s.monthFiles()
	if err != nil {
		return "", err
	}

	var size, newest int64
	for _, mf := range files {
		info, err := os.Stat(mf.path)
		if err != nil {
			return "", fmt.Errorf("stat journal %s: %w", mf.path, err)
		}
		size += info.Size()
		if mt := info.ModTime().UnixNano(); mt > newest {
			newest = mt
		}
	}
	return strings.Join([]string{
		strconv.Itoa(len(files)),
		strconv.FormatInt(size, 10),
		strconv.FormatInt(newest, 10),
	}, "-"), nil
}

type monthFile struct {
	year, month int
	path        string
}

func (m monthFile) start() time.Time {
	return time.Date(m.year, time.Month(m.month), 1, 0, 0, 0, 0, time.UTC)
}

func (m monthFile) end() time.Time {
	return m.start().AddDate(0, 1, -1)
}

// monthFiles lists existing journal files in chronological order.
func (s *Service) monthFiles() ([]monthFile, error) {
	paths, err := filepath.Glob(filepath.Join(s.repoRoot, "[0-9][0-9][0-9][0-9]", "[0-9][0-9]", "journal.csv"))
	if err != nil {
		return nil, fmt.Errorf("listing journals: %w", err)
	}

	files := make([]monthFile, 0, len(paths))
	for _, p := range paths {
		monthDir := filepath.Dir(p)
		year, _ := strconv.Atoi(filepath.Base(filepath.Dir(monthDir)))
		month, _ := strconv.Atoi(filepath.Base(monthDir))
		if month < 1 || month > 12 {
			continue
		}
		files = append(files, monthFile{year: year, month: month, path: p})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].start().Before(files[j].start()) })
	return files, nil
}

func (s *Service) monthPath(year, month int) string {
	return filepath.Join(s.repoRoot, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), "journal.csv")
}
