package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/tally-ledger/tally/internal/accounts"
	"github.com/tally-ledger/tally/internal/config"
	"github.com/tally-ledger/tally/internal/journal"
	"github.com/tally-ledger/tally/internal/ledger"
	"github.com/tally-ledger/tally/internal/ledger/sqlite"
	"github.com/tally-ledger/tally/internal/log"
)

// store is the read/write surface every ledger backend provides.
type store interface {
	ledger.Querier
	ledger.Versioner
	ledger.Appender
}

// workspace is an opened ledger directory.
type workspace struct {
	root   string
	cfg    *config.Config
	chart  *accounts.Service
	store  store
	logger *log.Logger
	close  func() error
}

// openWorkspace loads config and chart from repoDir and opens the configured
// storage backend. Logs go to logOut.
func openWorkspace(repoDir string, logOut io.Writer) (*workspace, error) {
	root, err := filepath.Abs(repoDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.LoadDir(root)
	if err != nil {
		return nil, err
	}

	chart, err := accounts.Load(root)
	if err != nil {
		return nil, err
	}

	ws := &workspace{
		root:   root,
		cfg:    cfg,
		chart:  chart,
		logger: cfg.Logger(logOut, "cli"),
		close:  func() error { return nil },
	}

	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLitePathIn(root), chart)
		if err != nil {
			return nil, err
		}
		ws.store = db
		ws.close = db.Close
	default:
		ws.store = journal.NewService(root, chart)
	}

	ws.logger.Debug("workspace opened", "root", root, "backend", cfg.Storage.Backend)
	return ws, nil
}

func (w *workspace) Close() error {
	return w.close()
}
