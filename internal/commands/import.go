package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tally-ledger/tally/internal/importer"
)

type importOptions struct {
	repoDir string
	account string
	format  string
}

func newImportCommand() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a bank CSV export into an account",
		Long: "Import a bank CSV export into an account. Without a file argument every CSV\n" +
			"waiting in <repo>/import/ is imported and moved to import/processed/.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) > 0 {
				file = args[0]
			}
			return runImport(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), file, opts)
		},
	}

	cmd.Flags().StringVar(&opts.repoDir, "repo", ".", "ledger directory")
	cmd.Flags().StringVar(&opts.account, "account", "", "account name or id (required)")
	cmd.Flags().StringVar(&opts.format, "format", "chase", "bank export format")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func runImport(ctx context.Context, out, logOut io.Writer, file string, opts importOptions) error {
	ws, err := openWorkspace(opts.repoDir, logOut)
	if err != nil {
		return err
	}
	defer ws.Close()

	acct, err := ws.chart.Resolve(opts.account)
	if err != nil {
		return err
	}

	im := importer.New(ws.store, importer.DefaultRegistry(), ws.logger)

	if file != "" {
		res, err := im.ImportFile(ctx, file, opts.format, acct)
		if err != nil {
			return err
		}
		printImportResult(out, filepath.Base(file), res)
		return nil
	}

	files, err := importer.Scan(ws.root)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No CSV files waiting in import/")
		return nil
	}
	for _, f := range files {
		res, err := im.ImportFile(ctx, f.Path, opts.format, acct)
		if err != nil {
			return err
		}
		if err := importer.MarkProcessed(ws.root, f.Name); err != nil {
			return err
		}
		printImportResult(out, f.Name, res)
	}
	return nil
}

func printImportResult(out io.Writer, name string, res importer.Result) {
	fmt.Fprintf(out, "%s: %d parsed, %d imported, %d skipped\n", name, res.Parsed, res.Imported, res.Skipped)
}
