package providers

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/shelfsync/shelfsync/internal/config"
	"github.com/shelfsync/shelfsync/internal/journal"
	"github.com/shelfsync/shelfsync/internal/logger"
	"github.com/shelfsync/shelfsync/internal/retry"
	"github.com/shelfsync/shelfsync/internal/workspace"
	"github.com/shelfsync/shelfsync/internal/workspace/notion"
	"github.com/shelfsync/shelfsync/internal/workspace/sqlite"
)

// JournalHandle wraps the run journal with shutdown capability.
type JournalHandle struct {
	*journal.Journal
}

// Shutdown implements do.Shutdownable.
func (h *JournalHandle) Shutdown() error {
	return h.Close()
}

// ProvideJournal provides the run journal.
func ProvideJournal(i do.Injector) (*JournalHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := ensureDir(cfg.Storage.DataDir); err != nil {
		return nil, err
	}
	path := cfg.Storage.JournalPath()
	j, err := journal.Open(path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Debug("Journal initialized", "path", path)
	return &JournalHandle{Journal: j}, nil
}

// WorkspaceHandle is the destination workspace with every call retried,
// plus the page its databases live under.
type WorkspaceHandle struct {
	workspace.Workspace
	RootPageID string
	closer     io.Closer
}

// Shutdown implements do.Shutdownable.
func (h *WorkspaceHandle) Shutdown() error {
	if h.closer == nil {
		return nil
	}
	return h.closer.Close()
}

// ProvideWorkspace provides the destination selected by SHELFSYNC_BACKEND.
func ProvideWorkspace(i do.Injector) (*WorkspaceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	h := &WorkspaceHandle{}
	var ws workspace.Workspace
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		if err := ensureDir(filepath.Dir(cfg.Storage.SQLitePath)); err != nil {
			return nil, err
		}
		store, err := sqlite.Open(cfg.Storage.SQLitePath, log.Logger)
		if err != nil {
			return nil, err
		}
		ws, h.closer, h.RootPageID = store, store, sqlite.RootPageID
		log.Info("Local workspace opened", "path", cfg.Storage.SQLitePath)
	case config.BackendNotion:
		ws, h.RootPageID = notion.New(cfg.Notion.Token, log.Logger), cfg.Notion.PageID
		log.Info("Notion workspace selected", "page_id", cfg.Notion.PageID)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Storage.Backend)
	}

	h.Workspace = workspace.WithRetry(ws, retry.Policy{
		Attempts: cfg.Sync.RetryAttempts,
		Delay:    cfg.Sync.RetryDelay,
		Logger:   log.Logger,
	})
	return h, nil
}
