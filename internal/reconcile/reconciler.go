// Package reconcile brings the workspace in line with a WeRead snapshot:
// book pages, per-book reading records, the global daily reading time and
// annotations. Every write is decided by comparing the remote state with
// the run's index, so a run without remote changes writes nothing.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/shelfsync/shelfsync/internal/calendar"
	"github.com/shelfsync/shelfsync/internal/domain"
	domainerrors "github.com/shelfsync/shelfsync/internal/errors"
	"github.com/shelfsync/shelfsync/internal/index"
	"github.com/shelfsync/shelfsync/internal/layout"
	"github.com/shelfsync/shelfsync/internal/ratelimit"
	"github.com/shelfsync/shelfsync/internal/weread"
	"github.com/shelfsync/shelfsync/internal/workspace"
)

// Remote is the WeRead capability a run reads from.
type Remote interface {
	Shelf(ctx context.Context) (*weread.Shelf, error)
	Notebooks(ctx context.Context) ([]weread.Notebook, error)
	BookInfo(ctx context.Context, bookID string) (*weread.BookFields, error)
	ReadInfo(ctx context.Context, bookID string) (*weread.ReadInfo, error)
	ReadTimes(ctx context.Context) (map[int64]int64, error)
	Bookmarks(ctx context.Context, bookID string) ([]weread.Bookmark, error)
	Reviews(ctx context.Context, bookID string) ([]weread.Review, error)
	BookURL(bookID string) string
}

var _ Remote = (*weread.Client)(nil)

// Options tune a run.
type Options struct {
	// Location is the reference time zone of days and dates.
	Location *time.Location
	// Annotations enables highlight and note sync.
	Annotations bool
	// Throttle paces annotation writes. Nil disables pacing.
	Throttle *ratelimit.Throttle
	// Now defaults to time.Now.
	Now func() time.Time
}

// Reconciler carries the state of one run. It is not safe for concurrent use.
type Reconciler struct {
	remote   Remote
	ws       workspace.Workspace
	index    *index.Index
	resolver *calendar.Resolver
	dbs      layout.Databases
	opts     Options
	logger   *slog.Logger
	stats    domain.SyncStats
}

// New creates a reconciler writing to the databases in dbs. The index
// doubles as the resolver's relation cache.
func New(remote Remote, ws workspace.Workspace, ix *index.Index, dbs layout.Databases, opts Options, logger *slog.Logger) *Reconciler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reconciler{
		remote:   remote,
		ws:       ws,
		index:    ix,
		resolver: calendar.NewResolver(ws, ix, dbs.Calendar(), opts.Location, logger),
		dbs:      dbs,
		opts:     opts,
		logger:   logger,
	}
}

// Stats returns the counters of the run so far.
func (r *Reconciler) Stats() domain.SyncStats {
	s := r.stats
	s.NodesCreated = r.resolver.Created()
	return s
}

func (r *Reconciler) at(ts int64) time.Time {
	return time.Unix(ts, 0).In(r.opts.Location)
}

// remoteErr tags a WeRead failure for the caller.
func remoteErr(err error, format string, args ...any) error {
	return domainerrors.Wrapf(err, domainerrors.CodeRemote, format, args...)
}
