package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shelfsync/shelfsync/internal/config"
	"github.com/shelfsync/shelfsync/internal/domain"
	domainerrors "github.com/shelfsync/shelfsync/internal/errors"
	"github.com/shelfsync/shelfsync/internal/index"
	"github.com/shelfsync/shelfsync/internal/layout"
	"github.com/shelfsync/shelfsync/internal/ratelimit"
	"github.com/shelfsync/shelfsync/internal/reconcile"
	"github.com/shelfsync/shelfsync/internal/weread"
	"github.com/shelfsync/shelfsync/internal/workspace"
)

// Source is the WeRead account a run reads.
type Source interface {
	reconcile.Remote
	// Refresh renews the session cookies before a run.
	Refresh(ctx context.Context) error
}

var _ Source = (*weread.Client)(nil)

// RunJournal records runs.
type RunJournal interface {
	Begin(ctx context.Context, kind domain.SyncKind) (*domain.Run, error)
	Finish(ctx context.Context, run *domain.Run, stats domain.SyncStats, runErr error) error
	Recent(ctx context.Context, limit int) ([]domain.Run, error)
}

// SyncOptions configure every run of a SyncService.
type SyncOptions struct {
	RootPageID         string
	Databases          config.DatabaseNames
	Location           *time.Location
	AnnotationInterval time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// SyncService runs reconciliation against a workspace and journals the result.
type SyncService struct {
	source  Source
	ws      workspace.Workspace
	journal RunJournal
	opts    SyncOptions
	logger  *slog.Logger
}

// NewSyncService creates a new sync service.
func NewSyncService(source Source, ws workspace.Workspace, journal RunJournal, opts SyncOptions, logger *slog.Logger) *SyncService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SyncService{
		source:  source,
		ws:      ws,
		journal: journal,
		opts:    opts,
		logger:  logger,
	}
}

// Run performs one sync of kind and records it. The returned run carries
// the stats gathered before any failure.
func (s *SyncService) Run(ctx context.Context, kind domain.SyncKind) (*domain.Run, error) {
	run, err := s.journal.Begin(ctx, kind)
	if err != nil {
		return nil, err
	}

	s.logger.Info("sync started", "run_id", run.ID, "kind", kind)
	stats, runErr := s.sync(ctx, kind)

	// Record the outcome even when ctx was cancelled mid-run.
	if err := s.journal.Finish(context.WithoutCancel(ctx), run, stats, runErr); err != nil {
		s.logger.Error("failed to journal run", "run_id", run.ID, "error", err)
	}

	if runErr != nil {
		s.logger.Error("sync failed",
			"run_id", run.ID,
			"error", runErr,
			"code", domainerrors.CodeOf(runErr),
		)
		return run, runErr
	}
	s.logger.Info("sync finished",
		"run_id", run.ID,
		"duration", run.Duration(),
		"books_created", stats.BooksCreated,
		"books_updated", stats.BooksUpdated,
		"books_skipped", stats.BooksSkipped,
		"records_created", stats.RecordsCreated,
		"records_updated", stats.RecordsUpdated,
		"nodes_created", stats.NodesCreated,
		"annotations_created", stats.AnnotationsCreated,
	)
	return run, nil
}

func (s *SyncService) sync(ctx context.Context, kind domain.SyncKind) (domain.SyncStats, error) {
	if err := s.source.Refresh(ctx); err != nil {
		if errors.Is(err, weread.ErrUnauthorized) {
			return domain.SyncStats{}, domainerrors.Wrap(err, domainerrors.CodeRemote, "weread session expired")
		}
		// The stored cookies may still be good.
		s.logger.Warn("failed to refresh weread session", "error", err)
	}

	lay := layout.New(s.ws, s.opts.RootPageID, s.opts.Databases, s.opts.Location, s.logger)
	dbs, err := lay.Ensure(ctx)
	if err != nil {
		return domain.SyncStats{}, err
	}
	annotations, err := lay.TouchSettings(ctx, dbs.Setting, s.opts.Now())
	if err != nil {
		return domain.SyncStats{}, err
	}

	ix, err := index.Load(ctx, s.ws, dbs.Book, s.logger)
	if err != nil {
		return domain.SyncStats{}, err
	}
	s.logger.Info("workspace indexed", "books", ix.Len(), "annotations", annotations)

	r := reconcile.New(s.source, s.ws, ix, *dbs, reconcile.Options{
		Location:    s.opts.Location,
		Annotations: annotations,
		Throttle:    ratelimit.NewThrottle(s.opts.AnnotationInterval),
		Now:         s.opts.Now,
	}, s.logger)

	if kind.IncludesBooks() {
		if err := r.SyncBooks(ctx); err != nil {
			return r.Stats(), err
		}
	}
	if kind.IncludesReadTime() {
		if err := r.SyncReadTimes(ctx); err != nil {
			return r.Stats(), err
		}
	}
	return r.Stats(), nil
}

// History returns up to limit recent runs, newest first.
func (s *SyncService) History(ctx context.Context, limit int) ([]domain.Run, error) {
	return s.journal.Recent(ctx, limit)
}
