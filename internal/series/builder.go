package series

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tally-ledger/tally/internal/ledger"
	"github.com/tally-ledger/tally/internal/log"
	"github.com/tally-ledger/tally/internal/model"
)

// Builder computes series from a ledger. It holds no per-request state and
// is safe for concurrent use.
type Builder struct {
	ledger ledger.Querier
	logger *log.Logger
	dates  DateFormatter
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for query failures.
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) { b.logger = l.WithComponent("series") }
}

// WithDateFormatter overrides the label formatter.
func WithDateFormatter(f DateFormatter) Option {
	return func(b *Builder) { b.dates = f }
}

// NewBuilder returns a Builder reading from q.
func NewBuilder(q ledger.Querier, opts ...Option) *Builder {
	b := &Builder{ledger: q, logger: log.Discard(), dates: LongDate}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Series computes the combined series over every selected category.
func (b *Builder) Series(ctx context.Context, req Request) (Series, error) {
	buckets, agg, err := b.aggregate(ctx, req)
	if err != nil {
		return Series{}, err
	}
	return Assemble(req, buckets, Annotate(agg.Total, MovingAverageWindow), b.dates), nil
}

// CategorySeries is the series of a single category.
type CategorySeries struct {
	CategoryID uuid.UUID
	Series     Series
}

// CategorySeries computes one series per category, each with its own
// moving average. With AnyCategory set, categories appear in order of first
// entry and uncategorised entries get uuid.Nil.
func (b *Builder) CategorySeries(ctx context.Context, req Request) ([]CategorySeries, error) {
	buckets, agg, err := b.aggregate(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]CategorySeries, 0, len(agg.Categories))
	for _, id := range agg.Categories {
		points := Annotate(agg.ByCategory[id], MovingAverageWindow)
		out = append(out, CategorySeries{CategoryID: id, Series: Assemble(req, buckets, points, b.dates)})
	}
	return out, nil
}

func (b *Builder) aggregate(ctx context.Context, req Request) (Buckets, Aggregates, error) {
	if err := req.Validate(); err != nil {
		return Buckets{}, Aggregates{}, err
	}
	buckets, err := GenerateBuckets(req.Period, req.Interval, MovingAverageWindow-1)
	if err != nil {
		return Buckets{}, Aggregates{}, err
	}

	from, to := buckets.Range()
	entries, err := b.load(ctx, req, from, to)
	if err != nil {
		return Buckets{}, Aggregates{}, err
	}
	return buckets, Aggregate(buckets.Extended(), entries, req.Selection(), req.SignMultiplier()), nil
}

func (b *Builder) load(ctx context.Context, req Request, from, to time.Time) ([]model.Entry, error) {
	f := req.Selection().filter()
	f.From, f.To = from, to

	entries, err := b.ledger.Entries(ctx, f)
	if err != nil {
		b.logger.ErrorContext(ctx, "series query failed",
			"error", err,
			"accounts", req.AccountIDs,
			"categories", req.CategoryIDs,
			"any_category", req.AnyCategory,
			"from", from.Format(time.DateOnly),
			"to", to.Format(time.DateOnly),
		)
		return nil, fmt.Errorf("querying ledger %s..%s: %w", from.Format(time.DateOnly), to.Format(time.DateOnly), err)
	}
	b.logger.DebugContext(ctx, "series entries loaded", "count", len(entries))
	return entries, nil
}
