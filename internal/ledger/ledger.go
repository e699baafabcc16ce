// Package ledger defines the read side of the entry store consumed by the
// series engine, plus the filter predicate every store shares.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tally-ledger/tally/internal/model"
)

// Filter selects entries by account, category, kind and an inclusive date range.
type Filter struct {
	AccountIDs  []uuid.UUID
	CategoryIDs []uuid.UUID
	// AnyCategory selects every entry regardless of category, uncategorised
	// ones included. When false only entries whose category is listed match.
	AnyCategory bool
	// Kinds defaults to transactions only when empty.
	Kinds []model.EntryKind
	From  time.Time
	To    time.Time
}

// Querier is a read-only source of ledger entries.
type Querier interface {
	Entries(ctx context.Context, f Filter) ([]model.Entry, error)
}

// Appender stores new entries, assigning and returning their ids.
type Appender interface {
	Append(ctx context.Context, entries []model.Entry) ([]string, error)
}

// Versioner reports a value that changes whenever stored entries change.
type Versioner interface {
	DataVersion(ctx context.Context) (string, error)
}

// EffectiveKinds returns the kinds the filter admits.
func (f Filter) EffectiveKinds() []model.EntryKind {
	if len(f.Kinds) == 0 {
		return []model.EntryKind{model.KindTransaction}
	}
	return f.Kinds
}

// Match reports whether e passes the filter.
func (f Filter) Match(e model.Entry) bool {
	if !containsKind(f.EffectiveKinds(), e.Kind) {
		return false
	}
	if !containsID(f.AccountIDs, e.AccountID) {
		return false
	}
	if !f.AnyCategory && (!e.Categorised() || !containsID(f.CategoryIDs, e.CategoryID)) {
		return false
	}
	d := model.CivilDate(e.Date)
	if !f.From.IsZero() && d.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && d.After(f.To) {
		return false
	}
	return true
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func containsKind(kinds []model.EntryKind, k model.EntryKind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}
