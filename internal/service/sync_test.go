package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfsync/shelfsync/internal/config"
	"github.com/shelfsync/shelfsync/internal/domain"
	domainerrors "github.com/shelfsync/shelfsync/internal/errors"
	"github.com/shelfsync/shelfsync/internal/journal"
	"github.com/shelfsync/shelfsync/internal/layout"
	"github.com/shelfsync/shelfsync/internal/weread"
	"github.com/shelfsync/shelfsync/internal/workspace"
	"github.com/shelfsync/shelfsync/internal/workspace/sqlite"
)

type fakeSource struct {
	refreshErr error
	shelfErr   error
	bookmarks  []weread.Bookmark
	refreshed  int
}

func (f *fakeSource) Refresh(context.Context) error {
	f.refreshed++
	return f.refreshErr
}

func (f *fakeSource) Shelf(context.Context) (*weread.Shelf, error) {
	if f.shelfErr != nil {
		return nil, f.shelfErr
	}
	return &weread.Shelf{
		Books:    []weread.ShelfBook{{BookID: "42"}},
		Progress: map[string]weread.Progress{"42": {BookID: "42", ReadingTime: 600}},
	}, nil
}

func (f *fakeSource) Notebooks(context.Context) ([]weread.Notebook, error) {
	return []weread.Notebook{{BookID: "42"}}, nil
}

func (f *fakeSource) BookInfo(context.Context, string) (*weread.BookFields, error) {
	title := "Book 42"
	return &weread.BookFields{Title: &title}, nil
}

func (f *fakeSource) ReadInfo(context.Context, string) (*weread.ReadInfo, error) {
	rt := int64(600)
	return &weread.ReadInfo{Fields: weread.BookFields{ReadingTime: &rt}}, nil
}

func (f *fakeSource) ReadTimes(context.Context) (map[int64]int64, error) {
	return map[int64]int64{1714492800: 600}, nil
}

func (f *fakeSource) Bookmarks(context.Context, string) ([]weread.Bookmark, error) {
	return f.bookmarks, nil
}

func (f *fakeSource) Reviews(context.Context, string) ([]weread.Review, error) { return nil, nil }

func (f *fakeSource) BookURL(bookID string) string { return "https://weread.qq.com/web/reader/" + bookID }

type testEnv struct {
	svc     *SyncService
	source  *fakeSource
	store   *sqlite.Store
	journal *journal.Journal
}

func setupTestSync(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlite.Open(filepath.Join(dir, "workspace.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	j, err := journal.Open(filepath.Join(dir, "journal"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	source := &fakeSource{
		bookmarks: []weread.Bookmark{{BookmarkID: "42_1_0-9", BookID: "42", MarkText: "first"}},
	}
	svc := NewSyncService(source, store, j, SyncOptions{
		RootPageID: sqlite.RootPageID,
		Databases: config.DatabaseNames{
			Book: "Bookshelf", Review: "Notes", Bookmark: "Highlights",
			Day: "Day", Week: "Week", Month: "Month", Year: "Year",
			Category: "Categories", Author: "Authors", Read: "Reading Records", Setting: "Settings",
		},
		Location: loc,
		Now:      func() time.Time { return time.Date(2024, 5, 5, 10, 0, 0, 0, loc) },
	}, logger)

	return &testEnv{svc: svc, source: source, store: store, journal: j}
}

func (e *testEnv) databases(t *testing.T) map[string]string {
	t.Helper()
	l := layout.New(e.store, sqlite.RootPageID, e.svc.opts.Databases, e.svc.opts.Location, e.svc.logger)
	found, err := l.Discover(context.Background())
	require.NoError(t, err)
	return found
}

func (e *testEnv) count(t *testing.T, databaseID string) int {
	t.Helper()
	pages, err := workspace.QueryAll(context.Background(), e.store, databaseID, nil)
	require.NoError(t, err)
	return len(pages)
}

func TestSyncService_RunAll(t *testing.T) {
	env := setupTestSync(t)
	ctx := context.Background()

	run, err := env.svc.Run(ctx, domain.SyncAll)
	require.NoError(t, err)
	assert.True(t, run.Succeeded())
	assert.Equal(t, 1, env.source.refreshed)
	assert.Equal(t, 1, run.Stats.BooksCreated)
	assert.Equal(t, 1, run.Stats.AnnotationsCreated)

	dbs := env.databases(t)
	assert.Len(t, dbs, 11)
	assert.Equal(t, 1, env.count(t, dbs["Bookshelf"]))
	assert.Equal(t, 1, env.count(t, dbs["Highlights"]))
	assert.Equal(t, 1, env.count(t, dbs["Settings"]))

	history, err := env.svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, run.ID, history[0].ID)
	assert.Equal(t, run.Stats, history[0].Stats)
}

func TestSyncService_SecondRunIsQuiet(t *testing.T) {
	env := setupTestSync(t)
	ctx := context.Background()

	_, err := env.svc.Run(ctx, domain.SyncAll)
	require.NoError(t, err)
	run, err := env.svc.Run(ctx, domain.SyncAll)
	require.NoError(t, err)
	assert.Zero(t, run.Stats.Writes())
	assert.Equal(t, 1, run.Stats.BooksSkipped)
}

func TestSyncService_KindSelectsWork(t *testing.T) {
	env := setupTestSync(t)
	ctx := context.Background()

	run, err := env.svc.Run(ctx, domain.SyncReadTime)
	require.NoError(t, err)
	assert.Zero(t, run.Stats.BooksConsidered)
	assert.Positive(t, run.Stats.RecordsCreated)

	dbs := env.databases(t)
	assert.Zero(t, env.count(t, dbs["Bookshelf"]))

	run, err = env.svc.Run(ctx, domain.SyncBooks)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Stats.BooksCreated)
	assert.Zero(t, run.Stats.RecordsUnchanged, "read time is not revisited")
}

func TestSyncService_SettingsDisableAnnotations(t *testing.T) {
	env := setupTestSync(t)
	ctx := context.Background()

	_, err := env.svc.Run(ctx, domain.SyncReadTime)
	require.NoError(t, err)

	dbs := env.databases(t)
	rows, err := workspace.QueryAll(ctx, env.store, dbs["Settings"], nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	_, err = env.store.UpdatePage(ctx, rows[0].ID, workspace.Properties{
		layout.PropSyncBookmarks: workspace.Checkbox(false),
	}, "")
	require.NoError(t, err)

	run, err := env.svc.Run(ctx, domain.SyncBooks)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Stats.BooksCreated)
	assert.Zero(t, run.Stats.AnnotationsCreated)
	assert.Zero(t, env.count(t, dbs["Highlights"]))
}

func TestSyncService_FailureIsJournaled(t *testing.T) {
	env := setupTestSync(t)
	env.source.shelfErr = weread.ErrServer
	ctx := context.Background()

	run, err := env.svc.Run(ctx, domain.SyncBooks)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrRemote))
	require.NotNil(t, run)

	got, err := env.journal.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.False(t, got.Succeeded())
	assert.Contains(t, got.Error, "server error")
}

func TestSyncService_RefreshFailure(t *testing.T) {
	t.Run("transient failure is tolerated", func(t *testing.T) {
		env := setupTestSync(t)
		env.source.refreshErr = weread.ErrServer
		_, err := env.svc.Run(context.Background(), domain.SyncReadTime)
		assert.NoError(t, err)
	})

	t.Run("expired session aborts", func(t *testing.T) {
		env := setupTestSync(t)
		env.source.refreshErr = weread.ErrUnauthorized
		_, err := env.svc.Run(context.Background(), domain.SyncReadTime)
		assert.True(t, errors.Is(err, weread.ErrUnauthorized))
		assert.True(t, errors.Is(err, domainerrors.ErrRemote))
	})
}
