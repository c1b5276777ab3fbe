package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfsync/shelfsync/internal/domain"
	"github.com/shelfsync/shelfsync/internal/journal"
)

// execute runs the root command with args against an isolated data dir.
func execute(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("WEREAD_COOKIE", "")
	t.Setenv("NOTION_TOKEN", "")
	t.Setenv("NOTION_PAGE", "")

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args,
		"--env-file", filepath.Join(dataDir, "missing.env"),
		"--data-dir", dataDir,
		"--log-level", "error",
	))
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"all", "books", "readtime", "history"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"env-file", "env", "log-level", "log-file", "backend", "sqlite-path", "data-dir", "timezone"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "flag %s", name)
	}
}

func TestHistory_Empty(t *testing.T) {
	out, err := execute(t, t.TempDir(), "history")
	require.NoError(t, err)
	assert.Equal(t, "no runs recorded\n", out)
}

func TestHistory_ListsRuns(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	j, err := journal.Open(filepath.Join(dir, "journal"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	ok, err := j.Begin(ctx, domain.SyncBooks)
	require.NoError(t, err)
	require.NoError(t, j.Finish(ctx, ok, domain.SyncStats{BooksCreated: 3}, nil))
	failed, err := j.Begin(ctx, domain.SyncReadTime)
	require.NoError(t, err)
	require.NoError(t, j.Finish(ctx, failed, domain.SyncStats{}, errors.New("boom")))
	require.NoError(t, j.Close())

	out, err := execute(t, dir, "history")
	require.NoError(t, err)
	assert.Contains(t, out, ok.ID)
	assert.Contains(t, out, "failed: boom")

	out, err = execute(t, dir, "history", "--json", "--limit", "1")
	require.NoError(t, err)
	var runs []domain.Run
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, failed.ID, runs[0].ID)
}

func TestSync_RequiresCredentials(t *testing.T) {
	_, err := execute(t, t.TempDir(), "readtime", "--backend", "sqlite")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEREAD_COOKIE is required")
}

func TestSync_RejectsBadTimezone(t *testing.T) {
	_, err := execute(t, t.TempDir(), "books", "--timezone", "Mars/Olympus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timezone")
}
