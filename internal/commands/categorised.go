package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tally-ledger/tally/internal/balancesheet"
	"github.com/tally-ledger/tally/internal/cache"
	"github.com/tally-ledger/tally/internal/series"
)

type categorisedOptions struct {
	repoDir  string
	category string
	period   periodFlags
	json     bool
}

func newCategorisedCommand() *cobra.Command {
	var opts categorisedOptions

	cmd := &cobra.Command{
		Use:   "categorised",
		Short: "Monthly spending in one category across all visible accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCategorised(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.repoDir, "repo", ".", "ledger directory")
	f.StringVar(&opts.category, "category", "", "category name or id (default from config)")
	f.StringVar(&opts.period.key, "period", "", "period key (default from config)")
	f.StringVar(&opts.period.start, "start", "", "custom period start, YYYY-MM-DD")
	f.StringVar(&opts.period.end, "end", "", "custom period end, YYYY-MM-DD")
	f.StringVar(&opts.period.asOf, "as-of", "", "date named periods end on, YYYY-MM-DD (default today)")
	f.BoolVar(&opts.json, "json", false, "print JSON")
	cmd.MarkFlagsMutuallyExclusive("period", "start")

	return cmd
}

func runCategorised(ctx context.Context, out, logOut io.Writer, opts categorisedOptions) error {
	ws, err := openWorkspace(opts.repoDir, logOut)
	if err != nil {
		return err
	}
	defer ws.Close()

	p, err := opts.period.resolve(ws.cfg)
	if err != nil {
		return err
	}

	ttl, err := ws.cfg.CacheTTL()
	if err != nil {
		return err
	}
	cached := series.NewCached(
		series.NewBuilder(ws.store, series.WithLogger(ws.logger)),
		ws.store,
		cache.NewLRUCache[series.Series](ws.cfg.Cache.Size, ttl),
		"balance_sheet_categorised_series:"+ws.cfg.Household.Name,
		ws.logger,
	)
	svc, err := balancesheet.NewService(ws.chart, cached, ws.cfg)
	if err != nil {
		return err
	}

	res, err := svc.CategorisedSeries(ctx, p, opts.category)
	if err != nil {
		return err
	}
	if opts.json {
		return writeJSON(out, res)
	}
	return renderSeries(out, fmt.Sprintf("%s spending", res.Category.Name), res.Series)
}
