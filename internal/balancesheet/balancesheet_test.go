package balancesheet

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-ledger/tally/internal/accounts"
	"github.com/tally-ledger/tally/internal/cache"
	"github.com/tally-ledger/tally/internal/config"
	"github.com/tally-ledger/tally/internal/ledger"
	"github.com/tally-ledger/tally/internal/ledger/memory"
	"github.com/tally-ledger/tally/internal/log"
	"github.com/tally-ledger/tally/internal/model"
	"github.com/tally-ledger/tally/internal/period"
	"github.com/tally-ledger/tally/internal/series"
)

// countingStore records how many ledger queries reach the store.
type countingStore struct {
	*memory.Store
	queries atomic.Int32
}

func (c *countingStore) Entries(ctx context.Context, f ledger.Filter) ([]model.Entry, error) {
	c.queries.Add(1)
	return c.Store.Entries(ctx, f)
}

type fixture struct {
	store   *countingStore
	svc     *Service
	chart   *accounts.Service
	food    model.Category
	housing model.Category
}

func account(name string, visible bool) model.Account {
	return model.Account{
		ID:             accounts.StableID("account", name),
		Name:           name,
		Classification: model.ClassificationAsset,
		Currency:       "USD",
		Visible:        visible,
	}
}

func entry(acct model.Account, day string, amount string, cat model.Category) model.Entry {
	d, _ := time.Parse(time.DateOnly, day)
	return model.Entry{
		AccountID:  acct.ID,
		Date:       d,
		Amount:     decimal.RequireFromString(amount),
		Currency:   acct.Currency,
		CategoryID: cat.ID,
		Kind:       model.KindTransaction,
	}
}

var (
	checking = account("Checking", true)
	card     = account("Credit Card", true)
	hidden   = account("Old Savings", false)
	euros    = model.Account{
		ID:             accounts.StableID("account", "Euro Checking"),
		Name:           "Euro Checking",
		Classification: model.ClassificationAsset,
		Currency:       "EUR",
		Visible:        true,
	}
)

func newFixture(t *testing.T) fixture {
	t.Helper()
	chart := accounts.NewService(
		[]model.Account{checking, card, hidden, euros},
		accounts.DefaultCategories(),
	)
	food, err := chart.CategoryByName("Food & Dining")
	require.NoError(t, err)
	housing, err := chart.CategoryByName("Housing")
	require.NoError(t, err)

	store := &countingStore{Store: memory.New(
		entry(checking, "2025-06-03", "-120.00", food),
		entry(card, "2025-06-20", "-30.50", food),
		entry(hidden, "2025-06-21", "-999.00", food),
		entry(euros, "2025-06-10", "-1000.00", food),
		entry(checking, "2025-07-01", "-1500.00", housing),
		entry(checking, "2025-07-15", "-80.00", food),
	)}

	cfg := config.Default("The Smiths", "USD")
	builder := series.NewBuilder(store)
	cached := series.NewCached(builder, store, cache.NewLRUCache[series.Series](16, 0), "smiths", log.Discard())
	svc, err := NewService(chart, cached, cfg)
	require.NoError(t, err)
	return fixture{store: store, svc: svc, chart: chart, food: food, housing: housing}
}

func july2025(t *testing.T) period.Period {
	t.Helper()
	p, err := period.New(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return p
}

func TestCategorisedSeries_DefaultCategory(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.CategorisedSeries(context.Background(), july2025(t), "")
	require.NoError(t, err)

	assert.Equal(t, f.food.ID, got.Category.ID)
	s := got.Series
	assert.Equal(t, model.DirectionDown, s.FavorableDirection)
	assert.Equal(t, "USD", s.Currency)
	require.Len(t, s.Values, 2)

	// Spending is negated so that less spending reads as a smaller number;
	// the hidden account is left out.
	assert.Equal(t, "150.50", s.Values[0].Value.Amount.StringFixed(2))
	assert.Equal(t, "80.00", s.Values[1].Value.Amount.StringFixed(2))
	assert.Equal(t, series.ChangeFavorable, s.Values[1].Trend.Change())
}

func TestCategorisedSeries_LeavesOutOtherCurrencies(t *testing.T) {
	f := newFixture(t)
	require.Len(t, f.chart.Visible(), 3)

	got, err := f.svc.CategorisedSeries(context.Background(), july2025(t), "")
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Series.Currency)
	assert.Equal(t, "150.50", got.Series.Values[0].Value.Amount.StringFixed(2), "EUR spending is not added to a USD series")
}

func TestCategorisedSeries_ExplicitCategory(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.CategorisedSeries(context.Background(), july2025(t), "housing")
	require.NoError(t, err)
	assert.Equal(t, "Housing", got.Category.Name)
	assert.Equal(t, "1500.00", got.Series.Values[1].Value.Amount.StringFixed(2))
}

func TestCategorisedSeries_UnknownCategory(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CategorisedSeries(context.Background(), july2025(t), "Pets")
	assert.ErrorContains(t, err, `unknown category "Pets"`)
	assert.Zero(t, f.store.queries.Load())
}

func TestCategorisedSeries_CachedUntilLedgerChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.CategorisedSeries(ctx, july2025(t), "")
	require.NoError(t, err)
	_, err = f.svc.CategorisedSeries(ctx, july2025(t), "")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.store.queries.Load(), "second call is served from cache")

	f.store.Add(entry(checking, "2025-07-20", "-20.00", f.food))
	third, err := f.svc.CategorisedSeries(ctx, july2025(t), "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.store.queries.Load())
	assert.Equal(t, "80.00", first.Series.Values[1].Value.Amount.StringFixed(2))
	assert.Equal(t, "100.00", third.Series.Values[1].Value.Amount.StringFixed(2))
}

func TestCategorisedSeries_JSON(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.CategorisedSeries(context.Background(), july2025(t), "")
	require.NoError(t, err)

	data, err := json.Marshal(got)
	require.NoError(t, err)

	var decoded struct {
		CategoryID   uuid.UUID       `json:"category_id"`
		CategoryName string          `json:"category_name"`
		Series       json.RawMessage `json:"series"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, f.food.ID, decoded.CategoryID)
	assert.Equal(t, "Food & Dining", decoded.CategoryName)
	assert.Contains(t, string(decoded.Series), `"favorable_direction":"down"`)
}

func TestNewService_BadInterval(t *testing.T) {
	cfg := config.Default("The Smiths", "USD")
	cfg.Series.Interval = "weekly"
	_, err := NewService(accounts.NewService(nil, nil), nil, cfg)
	assert.Error(t, err)
}
