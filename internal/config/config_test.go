package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/shelfsync/shelfsync/internal/errors"
)

// isolate points every lookup at a temp dir and clears variables a developer
// machine might carry.
func isolate(t *testing.T) Overrides {
	t.Helper()
	dir := t.TempDir()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "LOG_FILE", "WEREAD_COOKIE", "NOTION_TOKEN", "NOTION_PAGE",
		"SHELFSYNC_BACKEND", "DATA_DIR", "SQLITE_PATH", "TIMEZONE", "RETRY_ATTEMPTS",
		"RETRY_DELAY", "BOOK_DATABASE_NAME", "DAY_DATABASE_NAME",
	} {
		t.Setenv(key, "")
	}
	return Overrides{EnvFile: filepath.Join(dir, "missing.env"), DataDir: dir}
}

func TestLoad_Defaults(t *testing.T) {
	o := isolate(t)

	cfg, err := Load(o)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, BackendNotion, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(o.DataDir, "workspace.db"), cfg.Storage.SQLitePath)
	assert.Equal(t, filepath.Join(o.DataDir, "journal"), cfg.Storage.JournalPath())
	assert.Equal(t, "Asia/Shanghai", cfg.Sync.Location.String())
	assert.Equal(t, 3, cfg.Sync.RetryAttempts)
	assert.Equal(t, 5*time.Second, cfg.Sync.RetryDelay)
	assert.Equal(t, "Bookshelf", cfg.Databases.Book)
	assert.Equal(t, "Reading Records", cfg.Databases.Read)
	assert.Equal(t, "Settings", cfg.Databases.Setting)
}

func TestLoad_Precedence(t *testing.T) {
	o := isolate(t)
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DAY_DATABASE_NAME", "Daily")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"# local overrides\nLOG_LEVEL=error\nexport BOOK_DATABASE_NAME=\"My Books\"\nRETRY_DELAY=10ms\n",
	), 0o600))
	o.EnvFile = envFile
	o.Backend = BackendSQLite

	cfg, err := Load(o)
	require.NoError(t, err)

	// Environment beats .env file.
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, "Daily", cfg.Databases.Day)
	// .env beats default.
	assert.Equal(t, "My Books", cfg.Databases.Book)
	assert.Equal(t, 10*time.Millisecond, cfg.Sync.RetryDelay)
	// Flag beats everything.
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "environment", key: "ENV", val: "test"},
		{name: "log level", key: "LOG_LEVEL", val: "loud"},
		{name: "backend", key: "SHELFSYNC_BACKEND", val: "airtable"},
		{name: "timezone", key: "TIMEZONE", val: "Mars/Olympus"},
		{name: "timezone off weread days", key: "TIMEZONE", val: "Europe/Berlin"},
		{name: "retry delay", key: "RETRY_DELAY", val: "soon"},
		{name: "page", key: "NOTION_PAGE", val: "https://www.notion.so/not-a-page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := isolate(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load(o)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrConfig)
		})
	}
}

func TestLoad_AcceptsOtherUTC8Zones(t *testing.T) {
	o := isolate(t)
	t.Setenv("TIMEZONE", "Asia/Hong_Kong")

	cfg, err := Load(o)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Hong_Kong", cfg.Sync.Location.String())
}

func TestExtractPageID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "page url with title slug",
			in:   "https://www.notion.so/myspace/Reading-1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d?pvs=4",
			want: "1a2b3c4d-5e6f-7a8b-9c0d-1e2f3a4b5c6d",
		},
		{
			name: "bare dashed id",
			in:   "1a2b3c4d-5e6f-7a8b-9c0d-1e2f3a4b5c6d",
			want: "1a2b3c4d-5e6f-7a8b-9c0d-1e2f3a4b5c6d",
		},
		{
			name: "uppercase hex",
			in:   "1A2B3C4D5E6F7A8B9C0D1E2F3A4B5C6D",
			want: "1a2b3c4d-5e6f-7a8b-9c0d-1e2f3a4b5c6d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractPageID(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ExtractPageID("https://www.notion.so/Reading")
	assert.ErrorIs(t, err, domainerrors.ErrConfig)
}

func TestRequireCredentials(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Backend: BackendNotion}}
	assert.ErrorContains(t, cfg.RequireCredentials(), "WEREAD_COOKIE")

	cfg.WeRead.Cookie = "wr_skey=abc"
	assert.ErrorContains(t, cfg.RequireCredentials(), "NOTION_TOKEN")

	cfg.Notion.Token = "secret_x"
	assert.ErrorContains(t, cfg.RequireCredentials(), "NOTION_PAGE")

	cfg.Notion.PageID = "1a2b3c4d-5e6f-7a8b-9c0d-1e2f3a4b5c6d"
	assert.NoError(t, cfg.RequireCredentials())

	local := &Config{Storage: StorageConfig{Backend: BackendSQLite}, WeRead: WeReadConfig{Cookie: "c"}}
	assert.NoError(t, local.RequireCredentials())
}
