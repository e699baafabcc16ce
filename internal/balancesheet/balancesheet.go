// Package balancesheet serves household-level series over the visible
// accounts, such as monthly spending in one category.
package balancesheet

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tally-ledger/tally/internal/config"
	"github.com/tally-ledger/tally/internal/model"
	"github.com/tally-ledger/tally/internal/period"
	"github.com/tally-ledger/tally/internal/series"
)

// Chart is the part of the account chart the balance sheet reads.
type Chart interface {
	Visible() []model.Account
	CategoryByName(ref string) (model.Category, error)
}

// Service builds balance sheet series for one household.
type Service struct {
	chart    Chart
	series   *series.Cached
	currency string
	interval period.Interval
	category string
}

// NewService creates a Service. Currency, interval and the default category
// come from cfg.
func NewService(chart Chart, cached *series.Cached, cfg *config.Config) (*Service, error) {
	iv, err := cfg.Interval()
	if err != nil {
		return nil, err
	}
	return &Service{
		chart:    chart,
		series:   cached,
		currency: cfg.Household.Currency,
		interval: iv,
		category: cfg.Series.Category,
	}, nil
}

// Categorised is a category's spending series.
type Categorised struct {
	Category model.Category
	Series   series.Series
}

// MarshalJSON renders the category by id and name next to the series.
func (c Categorised) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		CategoryID   uuid.UUID     `json:"category_id"`
		CategoryName string        `json:"category_name"`
		Series       series.Series `json:"series"`
	}{c.Category.ID, c.Category.Name, c.Series})
}

// CategorisedSeries returns spending in one category across every visible
// account held in the household currency. An empty categoryRef selects the configured category. Spending is
// favorable when it goes down.
func (s *Service) CategorisedSeries(ctx context.Context, p period.Period, categoryRef string) (Categorised, error) {
	if categoryRef == "" {
		categoryRef = s.category
	}
	cat, err := s.chart.CategoryByName(categoryRef)
	if err != nil {
		return Categorised{}, fmt.Errorf("categorised series: %w", err)
	}

	// A series is in one currency; accounts in other currencies are left out.
	var ids []uuid.UUID
	for _, a := range s.chart.Visible() {
		if strings.EqualFold(a.Currency, s.currency) {
			ids = append(ids, a.ID)
		}
	}

	out, err := s.series.Series(ctx, series.Request{
		AccountIDs:         ids,
		CategoryIDs:        []uuid.UUID{cat.ID},
		Currency:           s.currency,
		Period:             p,
		Interval:           s.interval,
		FavorableDirection: model.DirectionDown,
	})
	if err != nil {
		return Categorised{}, err
	}
	return Categorised{Category: cat, Series: out}, nil
}
