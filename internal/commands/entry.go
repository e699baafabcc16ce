package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tally-ledger/tally/internal/model"
)

func newEntryCommand() *cobra.Command {
	entryCmd := &cobra.Command{
		Use:   "entry",
		Short: "Ledger entry operations",
	}
	entryCmd.AddCommand(newEntryAddCommand())
	return entryCmd
}

type entryAddOptions struct {
	repoDir     string
	account     string
	date        string
	amount      string
	category    string
	kind        string
	description string
	reference   string
}

func newEntryAddCommand() *cobra.Command {
	var opts entryAddOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a single entry against an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntryAdd(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.repoDir, "repo", ".", "ledger directory")
	cmd.Flags().StringVar(&opts.account, "account", "", "account name or id (required)")
	cmd.Flags().StringVar(&opts.date, "date", "", "entry date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.amount, "amount", "", "signed amount; negative is an outflow (required)")
	cmd.Flags().StringVar(&opts.category, "category", "", "category name or id")
	cmd.Flags().StringVar(&opts.kind, "kind", string(model.KindTransaction), "transaction, valuation or trade")
	cmd.Flags().StringVar(&opts.description, "description", "", "free-text description")
	cmd.Flags().StringVar(&opts.reference, "reference", "", "external reference")
	for _, f := range []string{"account", "date", "amount"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func runEntryAdd(ctx context.Context, out, logOut io.Writer, opts entryAddOptions) error {
	ws, err := openWorkspace(opts.repoDir, logOut)
	if err != nil {
		return err
	}
	defer ws.Close()

	acct, err := ws.chart.Resolve(opts.account)
	if err != nil {
		return err
	}

	date, err := time.Parse(time.DateOnly, opts.date)
	if err != nil {
		return fmt.Errorf("parsing date %q: %w", opts.date, err)
	}

	amount, err := decimal.NewFromString(opts.amount)
	if err != nil {
		return fmt.Errorf("parsing amount %q: %w", opts.amount, err)
	}

	categoryID := uuid.Nil
	if opts.category != "" {
		cat, err := ws.chart.CategoryByName(opts.category)
		if err != nil {
			return err
		}
		categoryID = cat.ID
	}

	ids, err := ws.store.Append(ctx, []model.Entry{{
		AccountID:   acct.ID,
		Date:        date,
		Amount:      amount,
		CategoryID:  categoryID,
		Kind:        model.EntryKind(opts.kind),
		Description: opts.description,
		Reference:   opts.reference,
	}})
	if err != nil {
		return err
	}

	ws.logger.Info("entry added", "id", ids[0], "account", acct.Name, "amount", amount.StringFixed(2))
	fmt.Fprintf(out, "Added %s: %s %s on %s\n", ids[0], acct.Name, amount.StringFixed(2), date.Format(time.DateOnly))
	return nil
}
