package series

import (
	"context"
	"fmt"

	"github.com/tally-ledger/tally/internal/cache"
	"github.com/tally-ledger/tally/internal/ledger"
	"github.com/tally-ledger/tally/internal/log"
)

// Cached memoizes Builder.Series. Keys include the ledger's data version so
// any write to the ledger makes earlier results unreachable.
type Cached struct {
	builder  *Builder
	versions ledger.Versioner
	memo     *cache.Memo[Series]
	prefix   string
	logger   *log.Logger
}

// NewCached wraps builder. prefix scopes keys, e.g. per household.
func NewCached(builder *Builder, versions ledger.Versioner, store cache.Cache[Series], prefix string, logger *log.Logger) *Cached {
	if logger == nil {
		logger = log.Discard()
	}
	return &Cached{
		builder:  builder,
		versions: versions,
		memo:     cache.NewMemo(store),
		prefix:   prefix,
		logger:   logger.WithComponent("series-cache"),
	}
}

// Series returns the cached series for req or computes it.
func (c *Cached) Series(ctx context.Context, req Request) (Series, error) {
	if err := req.Validate(); err != nil {
		return Series{}, err
	}
	version, err := c.versions.DataVersion(ctx)
	if err != nil {
		return Series{}, fmt.Errorf("reading ledger version: %w", err)
	}
	key := CacheKey(c.prefix, req, version)

	s, hit, err := c.memo.FetchOrCompute(ctx, key, func(ctx context.Context) (Series, error) {
		return c.builder.Series(ctx, req)
	})
	if err != nil {
		return Series{}, err
	}
	c.logger.DebugContext(ctx, "series cache", "key", key, "hit", hit)
	return s, nil
}
