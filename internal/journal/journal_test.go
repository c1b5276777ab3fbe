package journal

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

	"github.com/shelfsync/shelfsync/internal/domain"
	domainerrors "github.com/shelfsync/shelfsync/internal/errors"
	"github.com/shelfsync/shelfsync/internal/id"
)

// setupTestJournal opens a journal whose clock advances a minute per call.
func setupTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	clock := time.Date(2024, 5, 5, 2, 0, 0, 0, time.UTC)
	j.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return j
}

func TestBeginFinish(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()

	run, err := j.Begin(ctx, domain.SyncAll)
	require.NoError(t, err)
	assert.True(t, id.HasPrefix(run.ID, id.PrefixRun))
	assert.Nil(t, run.FinishedAt)

	stats := domain.SyncStats{BooksCreated: 2, RecordsCreated: 3}
	require.NoError(t, j.Finish(ctx, run, stats, nil))

	got, err := j.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, got.Succeeded())
	assert.Equal(t, stats, got.Stats)
	assert.Equal(t, time.Minute, got.Duration())
}

func TestBegin_InvalidKind(t *testing.T) {
	j := setupTestJournal(t)
	_, err := j.Begin(context.Background(), domain.SyncKind("everything"))
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))
}

func TestGet_NotFound(t *testing.T) {
	j := setupTestJournal(t)
	_, err := j.Get(context.Background(), "run-missing")
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestRecent_NewestFirst(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()

	var ids []string
	for _, kind := range []domain.SyncKind{domain.SyncBooks, domain.SyncReadTime, domain.SyncAll} {
		run, err := j.Begin(ctx, kind)
		require.NoError(t, err)
		require.NoError(t, j.Finish(ctx, run, domain.SyncStats{}, nil))
		ids = append(ids, run.ID)
	}

	runs, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[0], runs[2].ID)
	assert.Equal(t, domain.SyncBooks, runs[2].Kind)

	runs, err = j.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
}

func TestRecent_IncludesUnfinished(t *testing.T) {
	j := setupTestJournal(t)
	run, err := j.Begin(context.Background(), domain.SyncAll)
	require.NoError(t, err)

	runs, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.False(t, runs[0].Succeeded())
}

func TestLastSuccess(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()

	_, err := j.LastSuccess(ctx)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))

	ok, err := j.Begin(ctx, domain.SyncBooks)
	require.NoError(t, err)
	require.NoError(t, j.Finish(ctx, ok, domain.SyncStats{BooksUpdated: 1}, nil))

	failed, err := j.Begin(ctx, domain.SyncAll)
	require.NoError(t, err)
	require.NoError(t, j.Finish(ctx, failed, domain.SyncStats{}, errors.New("weread: server error")))

	last, err := j.LastSuccess(ctx)
	require.NoError(t, err)
	assert.Equal(t, ok.ID, last.ID)

	got, err := j.Get(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, "weread: server error", got.Error)
}
