// Package sqlite stores ledger entries in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/tally-ledger/tally/internal/id"
	"github.com/tally-ledger/tally/internal/journal"
	"github.com/tally-ledger/tally/internal/ledger"
	"github.com/tally-ledger/tally/internal/model"
)

const dateFormat = "2006-01-02"

// Store is a SQLite-backed ledger. Entries follow the same validation rules
// and id scheme as the journal files.
type Store struct {
	db    *sql.DB
	chart journal.Chart
}

var (
	_ ledger.Querier   = (*Store)(nil)
	_ ledger.Versioner = (*Store)(nil)
	_ ledger.Appender  = (*Store)(nil)
)

// Open opens or creates the database at dbPath and applies migrations.
func Open(dbPath string, chart journal.Chart) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, chart: chart}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Append implements ledger.Appender. The batch is validated up front and
// written in one transaction.
func (s *Store) Append(ctx context.Context, entries []model.Entry) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	next := make(map[string]int)
	ids := make([]string, len(entries))
	rows := make([]model.Entry, len(entries))
	var msgs []string

	for i, e := range entries {
		e = journal.Normalize(e, s.chart)
		month := e.Date.Format("2006-01")
		if _, ok := next[month]; !ok {
			var count int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM entries WHERE id LIKE ?`, month+"-%").Scan(&count); err != nil {
				return nil, fmt.Errorf("count entries for %s: %w", month, err)
			}
			next[month] = count + 1
		}
		e.ID = id.New(e.Date.Year(), int(e.Date.Month()), next[month]).String()
		next[month]++

		for _, ve := range journal.ValidateEntry(e, s.chart) {
			msgs = append(msgs, ve.Error())
		}
		rows[i] = e
		ids[i] = e.ID
	}
	if len(msgs) > 0 {
		return nil, fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (id, account_id, entry_date, amount, currency, category_id, kind, description, reference)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range rows {
		var category sql.NullString
		if e.Categorised() {
			category = sql.NullString{String: e.CategoryID.String(), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID, e.AccountID.String(), e.Date.Format(dateFormat), e.Amount.StringFixed(2),
			e.Currency, category, string(e.Kind), e.Description, e.Reference,
		); err != nil {
			return nil, fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}

	if len(rows) > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE ledger_meta SET value = value + 1 WHERE key = 'data_version'`); err != nil {
			return nil, fmt.Errorf("bump data version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}

// Entries implements ledger.Querier with a single SELECT.
func (s *Store) Entries(ctx context.Context, f ledger.Filter) ([]model.Entry, error) {
	if len(f.AccountIDs) == 0 || (!f.AnyCategory && len(f.CategoryIDs) == 0) {
		return nil, nil
	}

	var (
		where []string
		args  []any
	)
	in := func(col string, vals []string) {
		where = append(where, col+" IN ("+strings.TrimSuffix(strings.Repeat("?,", len(vals)), ",")+")")
		for _, v := range vals {
			args = append(args, v)
		}
	}

	in("account_id", uuidStrings(f.AccountIDs))
	kinds := f.EffectiveKinds()
	kindVals := make([]string, len(kinds))
	for i, k := range kinds {
		kindVals[i] = string(k)
	}
	in("kind", kindVals)
	if !f.AnyCategory {
		in("category_id", uuidStrings(f.CategoryIDs))
	}
	if !f.From.IsZero() {
		where = append(where, "entry_date >= ?")
		args = append(args, f.From.Format(dateFormat))
	}
	if !f.To.IsZero() {
		where = append(where, "entry_date <= ?")
		args = append(args, f.To.Format(dateFormat))
	}

	query := `SELECT id, account_id, entry_date, amount, currency, COALESCE(category_id, ''), kind, description, reference
		FROM entries WHERE ` + strings.Join(where, " AND ") + ` ORDER BY entry_date, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// DataVersion implements ledger.Versioner.
func (s *Store) DataVersion(ctx context.Context) (string, error) {
	var v int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT value FROM ledger_meta WHERE key = 'data_version'`).Scan(&v); err != nil {
		return "", fmt.Errorf("read data version: %w", err)
	}
	return strconv.FormatInt(v, 10), nil
}

func scanEntry(rows *sql.Rows) (model.Entry, error) {
	var (
		e                     model.Entry
		account, date, amount string
		category, kind        string
	)
	if err := rows.Scan(&e.ID, &account, &date, &amount, &e.Currency, &category, &kind, &e.Description, &e.Reference); err != nil {
		return model.Entry{}, fmt.Errorf("scan entry: %w", err)
	}

	var err error
	if e.AccountID, err = uuid.Parse(account); err != nil {
		return model.Entry{}, fmt.Errorf("entry %s: parsing account_id %q: %w", e.ID, account, err)
	}
	if e.Date, err = time.Parse(dateFormat, date); err != nil {
		return model.Entry{}, fmt.Errorf("entry %s: parsing date %q: %w", e.ID, date, err)
	}
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return model.Entry{}, fmt.Errorf("entry %s: parsing amount %q: %w", e.ID, amount, err)
	}
	if category != "" {
		if e.CategoryID, err = uuid.Parse(category); err != nil {
			return model.Entry{}, fmt.Errorf("entry %s: parsing category_id %q: %w", e.ID, category, err)
		}
	}
	e.Kind = model.EntryKind(kind)
	return e, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, u := range ids {
		out[i] = u.String()
	}
	return out
}
