package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tally-ledger/tally/internal/balancesheet"
	"github.com/tally-ledger/tally/internal/cache"
	"github.com/tally-ledger/tally/internal/model"
	"github.com/tally-ledger/tally/internal/money"
	"github.com/tally-ledger/tally/internal/period"
	"github.com/tally-ledger/tally/internal/series"
)

type seriesOptions struct {
	repoDir     string
	accounts    []string
	categories  []string
	anyCategory bool
	period      periodFlags
	interval    string
	direction   string
	currency    string
	byCategory  bool
	json        bool
}

func newSeriesCommand() *cobra.Command {
	var opts seriesOptions

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Sum entries into a periodic series with a moving average",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeries(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.repoDir, "repo", ".", "ledger directory")
	f.StringSliceVar(&opts.accounts, "accounts", nil, "account names or ids (default: all visible accounts)")
	f.StringSliceVar(&opts.categories, "categories", nil, "category names or ids")
	f.BoolVar(&opts.anyCategory, "any-category", false, "include every entry regardless of category")
	f.StringVar(&opts.period.key, "period", "", "period key, e.g. last_365_days (default from config)")
	f.StringVar(&opts.period.start, "start", "", "custom period start, YYYY-MM-DD")
	f.StringVar(&opts.period.end, "end", "", "custom period end, YYYY-MM-DD")
	f.StringVar(&opts.period.asOf, "as-of", "", "date named periods end on, YYYY-MM-DD (default today)")
	f.StringVar(&opts.interval, "interval", "", `bucket size, e.g. "1 month" (default from config)`)
	f.StringVar(&opts.direction, "direction", "", "favorable direction, up or down (default from the first account)")
	f.StringVar(&opts.currency, "currency", "", "currency code (default household currency)")
	f.BoolVar(&opts.byCategory, "by-category", false, "one series per category")
	f.BoolVar(&opts.json, "json", false, "print JSON")
	cmd.MarkFlagsMutuallyExclusive("categories", "any-category")
	cmd.MarkFlagsMutuallyExclusive("period", "start")

	return cmd
}

func runSeries(ctx context.Context, out, logOut io.Writer, opts seriesOptions) error {
	if !opts.anyCategory && len(opts.categories) == 0 {
		return fmt.Errorf("select categories with --categories or pass --any-category")
	}

	ws, err := openWorkspace(opts.repoDir, logOut)
	if err != nil {
		return err
	}
	defer ws.Close()

	req, err := buildSeriesRequest(ws, opts)
	if err != nil {
		return err
	}

	builder := series.NewBuilder(ws.store, series.WithLogger(ws.logger))

	if opts.byCategory {
		parts, err := builder.CategorySeries(ctx, req)
		if err != nil {
			return err
		}
		cats := make([]balancesheet.Categorised, len(parts))
		for i, p := range parts {
			cats[i] = balancesheet.Categorised{Category: categoryFor(ws, p.CategoryID), Series: p.Series}
		}
		if opts.json {
			return writeJSON(out, cats)
		}
		for i, c := range cats {
			if i > 0 {
				fmt.Fprintln(out)
			}
			if err := renderSeries(out, c.Category.Name, c.Series); err != nil {
				return err
			}
		}
		return nil
	}

	ttl, err := ws.cfg.CacheTTL()
	if err != nil {
		return err
	}
	cached := series.NewCached(builder, ws.store,
		cache.NewLRUCache[series.Series](ws.cfg.Cache.Size, ttl), ws.cfg.Household.Name, ws.logger)

	s, err := cached.Series(ctx, req)
	if err != nil {
		return err
	}
	if opts.json {
		return writeJSON(out, s)
	}
	return renderSeries(out, seriesTitle(ws, opts), s)
}

func buildSeriesRequest(ws *workspace, opts seriesOptions) (series.Request, error) {
	req := series.Request{
		AnyCategory: opts.anyCategory,
		Currency:    ws.cfg.Household.Currency,
	}
	if opts.currency != "" {
		req.Currency = strings.ToUpper(opts.currency)
	}
	if !money.KnownCurrency(req.Currency) {
		return series.Request{}, fmt.Errorf("%w: %q", series.ErrUnknownCurrency, req.Currency)
	}

	// Amounts are summed as-is, so every account must be in the series currency.
	var accts []model.Account
	if len(opts.accounts) == 0 {
		for _, a := range ws.chart.Visible() {
			if strings.EqualFold(a.Currency, req.Currency) {
				accts = append(accts, a)
			}
		}
		if len(accts) == 0 {
			return series.Request{}, fmt.Errorf("no visible accounts in %s", req.Currency)
		}
	} else {
		for _, ref := range opts.accounts {
			a, err := ws.chart.Resolve(strings.TrimSpace(ref))
			if err != nil {
				return series.Request{}, err
			}
			if !strings.EqualFold(a.Currency, req.Currency) {
				return series.Request{}, fmt.Errorf("account %q is in %s, not %s", a.Name, a.Currency, req.Currency)
			}
			accts = append(accts, a)
		}
	}
	for _, a := range accts {
		req.AccountIDs = append(req.AccountIDs, a.ID)
	}
	for _, ref := range opts.categories {
		c, err := ws.chart.CategoryByName(strings.TrimSpace(ref))
		if err != nil {
			return series.Request{}, err
		}
		req.CategoryIDs = append(req.CategoryIDs, c.ID)
	}
	var err error
	if req.Period, err = opts.period.resolve(ws.cfg); err != nil {
		return series.Request{}, err
	}

	ivText := opts.interval
	if ivText == "" {
		ivText = ws.cfg.Series.Interval
	}
	if req.Interval, err = period.ParseInterval(ivText); err != nil {
		return series.Request{}, err
	}

	if opts.direction == "" {
		req.FavorableDirection = accts[0].Classification.FavorableDirection()
	} else if req.FavorableDirection, err = model.ParseDirection(opts.direction); err != nil {
		return series.Request{}, fmt.Errorf("%w: %w", series.ErrInvalidDirection, err)
	}
	return req, nil
}

func categoryFor(ws *workspace, id uuid.UUID) model.Category {
	if id == uuid.Nil {
		return model.Category{Name: "Uncategorised"}
	}
	if c, err := ws.chart.CategoryByName(id.String()); err == nil {
		return c
	}
	return model.Category{ID: id, Name: id.String()}
}

func seriesTitle(ws *workspace, opts seriesOptions) string {
	if opts.anyCategory {
		return "All categories"
	}
	names := make([]string, 0, len(opts.categories))
	for _, ref := range opts.categories {
		if c, err := ws.chart.CategoryByName(strings.TrimSpace(ref)); err == nil {
			names = append(names, c.Name)
		}
	}
	return strings.Join(names, ", ")
}
