package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind says what produced a ledger entry.
type EntryKind string

const (
	KindTransaction EntryKind = "transaction"
	KindValuation   EntryKind = "valuation"
	KindTrade       EntryKind = "trade"
)

// Valid reports whether k is a known entry kind.
func (k EntryKind) Valid() bool {
	switch k {
	case KindTransaction, KindValuation, KindTrade:
		return true
	}
	return false
}

// Entry is a single dated, signed movement on one account.
type Entry struct {
	ID          string
	AccountID   uuid.UUID
	Date        time.Time       // civil date, midnight UTC
	Amount      decimal.Decimal // negative = outflow, positive = inflow
	Currency    string
	CategoryID  uuid.UUID // uuid.Nil = uncategorised
	Kind        EntryKind
	Description string
	Reference   string
}

// Categorised reports whether the entry carries a category.
func (e Entry) Categorised() bool {
	return e.CategoryID != uuid.Nil
}

// CivilDate drops the clock and location from t, keeping its calendar date.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BankTransaction represents a parsed bank CSV row.
type BankTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // negative = expense, positive = income
	Currency    string          // ISO code when the export states one
	Reference   string
	Type        string // bank transaction type (ACH_DEBIT, etc.)
}
