// Package series turns ledger entries into a fixed-cadence time series with
// a trailing moving average and direction-aware trends.
package series

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tally-ledger/tally/internal/model"
	"github.com/tally-ledger/tally/internal/money"
	"github.com/tally-ledger/tally/internal/period"
)

var (
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrInvalidDirection = errors.New("invalid favorable direction")
)

// Request describes one series computation.
type Request struct {
	AccountIDs         []uuid.UUID
	CategoryIDs        []uuid.UUID
	AnyCategory        bool
	Currency           string
	Period             period.Period
	Interval           period.Interval
	FavorableDirection model.Direction
}

// Validate fails fast on inputs that would produce a misaligned or
// meaningless series.
func (r Request) Validate() error {
	if !money.KnownCurrency(r.Currency) {
		return fmt.Errorf("%w: %q", ErrUnknownCurrency, r.Currency)
	}
	if r.FavorableDirection != model.DirectionUp && r.FavorableDirection != model.DirectionDown {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, r.FavorableDirection)
	}
	if err := r.Interval.Validate(); err != nil {
		return err
	}
	if r.Period.End.Before(r.Period.Start) {
		return fmt.Errorf("%w: %s", period.ErrInvalidPeriod, r.Period)
	}
	return nil
}

// SignMultiplier is -1 for down-favorable series and 1 otherwise.
func (r Request) SignMultiplier() decimal.Decimal {
	if r.FavorableDirection == model.DirectionDown {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// Selection returns the account/category filter of the request.
func (r Request) Selection() Selection {
	return Selection{
		AccountIDs:  r.AccountIDs,
		CategoryIDs: r.CategoryIDs,
		AnyCategory: r.AnyCategory,
	}
}

// CacheKey identifies the request against a given ledger data version.
// Account and category order does not matter.
func CacheKey(prefix string, r Request, version string) string {
	cats := "any"
	if !r.AnyCategory {
		cats = joinSorted(r.CategoryIDs)
	}
	return strings.Join([]string{
		prefix,
		joinSorted(r.AccountIDs),
		cats,
		strings.ToUpper(r.Currency),
		r.Period.Start.Format(time.DateOnly),
		r.Period.End.Format(time.DateOnly),
		r.Interval.String(),
		string(r.FavorableDirection),
		"v" + version,
	}, "|")
}

func joinSorted(ids []uuid.UUID) string {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	slices.Sort(strs)
	strs = slices.Compact(strs)
	return strings.Join(strs, ",")
}
