// Package config loads shelfsync configuration from command-line flags,
// environment variables, and .env files.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"

	domainerrors "github.com/shelfsync/shelfsync/internal/errors"
	"github.com/shelfsync/shelfsync/internal/validation"
)

// Destination backends.
const (
	BackendNotion = "notion"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	WeRead    WeReadConfig
	Notion    NotionConfig
	Storage   StorageConfig
	Sync      SyncConfig
	Databases DatabaseNames
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `env:"ENV" validate:"oneof=development staging production"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	File  string `env:"LOG_FILE"`
}

// WeReadConfig holds the remote reading account session.
type WeReadConfig struct {
	Cookie string `env:"WEREAD_COOKIE"`
}

// NotionConfig holds destination workspace credentials.
type NotionConfig struct {
	Token string `env:"NOTION_TOKEN"`
	// Page is the raw value given by the user, usually a page URL.
	Page string `env:"NOTION_PAGE"`
	// PageID is the canonical id extracted from Page.
	PageID string
}

// StorageConfig holds local storage locations and the destination backend.
type StorageConfig struct {
	Backend    string `env:"SHELFSYNC_BACKEND" validate:"oneof=notion sqlite"`
	DataDir    string `env:"DATA_DIR" validate:"required"`
	SQLitePath string `env:"SQLITE_PATH"`
}

// JournalPath returns the directory of the run journal.
func (s StorageConfig) JournalPath() string {
	return filepath.Join(s.DataDir, "journal")
}

// SyncConfig holds reconciliation tunables.
type SyncConfig struct {
	Timezone      string `env:"TIMEZONE" validate:"required"`
	Location      *time.Location
	RetryAttempts int           `env:"RETRY_ATTEMPTS" validate:"gte=1"`
	RetryDelay    time.Duration `env:"RETRY_DELAY"`
	// AnnotationInterval is the pause before each highlight or review write.
	AnnotationInterval time.Duration
}

// DatabaseNames holds the titles under which destination databases are found.
type DatabaseNames struct {
	Book     string `env:"BOOK_DATABASE_NAME"`
	Review   string `env:"REVIEW_DATABASE_NAME"`
	Bookmark string `env:"BOOKMARK_DATABASE_NAME"`
	Day      string `env:"DAY_DATABASE_NAME"`
	Week     string `env:"WEEK_DATABASE_NAME"`
	Month    string `env:"MONTH_DATABASE_NAME"`
	Year     string `env:"YEAR_DATABASE_NAME"`
	Category string `env:"CATEGORY_DATABASE_NAME"`
	Author   string `env:"AUTHOR_DATABASE_NAME"`
	Read     string `env:"READ_DATABASE_NAME"`
	Setting  string `env:"SETTING_DATABASE_NAME"`
}

// Overrides carries values given on the command line. Empty fields fall
// through to the environment.
type Overrides struct {
	EnvFile    string
	Env        string
	LogLevel   string
	LogFile    string
	Backend    string
	DataDir    string
	SQLitePath string
	Timezone   string
}

// Load builds the configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(o Overrides) (*Config, error) {
	envFile := o.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// A missing .env file is fine.
	if err := loadEnvFile(envFile); err != nil && !os.IsNotExist(err) {
		return nil, domainerrors.Configf("read %s: %v", envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(o.Env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: strings.ToLower(getConfigValue(o.LogLevel, "LOG_LEVEL", "info")),
			File:  getConfigValue(o.LogFile, "LOG_FILE", ""),
		},
		WeRead: WeReadConfig{
			Cookie: getConfigValue("", "WEREAD_COOKIE", ""),
		},
		Notion: NotionConfig{
			Token: getConfigValue("", "NOTION_TOKEN", ""),
			Page:  getConfigValue("", "NOTION_PAGE", ""),
		},
		Storage: StorageConfig{
			Backend:    getConfigValue(o.Backend, "SHELFSYNC_BACKEND", BackendNotion),
			DataDir:    getConfigValue(o.DataDir, "DATA_DIR", ""),
			SQLitePath: getConfigValue(o.SQLitePath, "SQLITE_PATH", ""),
		},
		Sync: SyncConfig{
			Timezone:           getConfigValue(o.Timezone, "TIMEZONE", "Asia/Shanghai"),
			RetryAttempts:      getIntConfigValue("", "RETRY_ATTEMPTS", 3),
			AnnotationInterval: 100 * time.Millisecond,
		},
		Databases: DatabaseNames{
			Book:     getConfigValue("", "BOOK_DATABASE_NAME", "Bookshelf"),
			Review:   getConfigValue("", "REVIEW_DATABASE_NAME", "Notes"),
			Bookmark: getConfigValue("", "BOOKMARK_DATABASE_NAME", "Highlights"),
			Day:      getConfigValue("", "DAY_DATABASE_NAME", "Day"),
			Week:     getConfigValue("", "WEEK_DATABASE_NAME", "Week"),
			Month:    getConfigValue("", "MONTH_DATABASE_NAME", "Month"),
			Year:     getConfigValue("", "YEAR_DATABASE_NAME", "Year"),
			Category: getConfigValue("", "CATEGORY_DATABASE_NAME", "Categories"),
			Author:   getConfigValue("", "AUTHOR_DATABASE_NAME", "Authors"),
			Read:     getConfigValue("", "READ_DATABASE_NAME", "Reading Records"),
			Setting:  getConfigValue("", "SETTING_DATABASE_NAME", "Settings"),
		},
	}

	delayStr := getConfigValue("", "RETRY_DELAY", "5s")
	delay, err := time.ParseDuration(delayStr)
	if err != nil {
		return nil, domainerrors.Configf("invalid retry delay %q: %v", delayStr, err)
	}
	cfg.Sync.RetryDelay = delay

	if err := cfg.expandPaths(); err != nil {
		return nil, domainerrors.Configf("invalid data path: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Sync.Timezone)
	if err != nil {
		return nil, domainerrors.Configf("invalid timezone %q: %v", cfg.Sync.Timezone, err)
	}
	if !matchesWeReadDays(loc) {
		return nil, domainerrors.Configf("timezone %q: WeRead reports days as UTC+8 midnights, use a UTC+8 zone without daylight saving", cfg.Sync.Timezone)
	}
	cfg.Sync.Location = loc

	if cfg.Notion.Page != "" {
		pageID, err := ExtractPageID(cfg.Notion.Page)
		if err != nil {
			return nil, err
		}
		cfg.Notion.PageID = pageID
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// weReadOffset is the UTC offset of the midnights WeRead keys reading days by.
const weReadOffset = 8 * 60 * 60

// matchesWeReadDays reports whether loc sits at WeRead's offset all year.
func matchesWeReadDays(loc *time.Location) bool {
	for _, m := range []time.Month{time.January, time.July} {
		if _, off := time.Date(2024, m, 1, 0, 0, 0, 0, loc).Zone(); off != weReadOffset {
			return false
		}
	}
	return true
}

// Validate checks field-level constraints.
func (c *Config) Validate() error {
	v := validation.New()
	for _, section := range []any{c.App, c.Logger, c.Storage, c.Sync} {
		if err := v.Validate(section); err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeConfig, "config validation failed")
		}
	}
	return nil
}

// RequireCredentials reports the first credential a sync run is missing.
// Listing history needs none of them, so this is not part of Validate.
func (c *Config) RequireCredentials() error {
	if c.WeRead.Cookie == "" {
		return domainerrors.Config("WEREAD_COOKIE is required")
	}
	if c.Storage.Backend != BackendNotion {
		return nil
	}
	if c.Notion.Token == "" {
		return domainerrors.Config("NOTION_TOKEN is required")
	}
	if c.Notion.PageID == "" {
		return domainerrors.Config("NOTION_PAGE is required")
	}
	return nil
}

var pageIDPattern = regexp.MustCompile(`([a-f0-9]{32}|[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12})`)

// ExtractPageID finds the page id in a page URL or bare id and returns it in
// canonical dashed form.
func ExtractPageID(raw string) (string, error) {
	match := pageIDPattern.FindString(strings.ToLower(raw))
	if match == "" {
		return "", domainerrors.Configf("cannot find a page id in %q", raw)
	}
	id, err := uuid.Parse(match)
	if err != nil {
		return "", domainerrors.Wrapf(err, domainerrors.CodeConfig, "invalid page id %q", match)
	}
	return id.String(), nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandPaths resolves DATA_DIR (default ~/.shelfsync) and places the local
// workspace database inside it unless SQLITE_PATH says otherwise.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	dataDir, err := expandPath(c.Storage.DataDir, filepath.Join(homeDir, ".shelfsync"))
	if err != nil {
		return err
	}
	c.Storage.DataDir = dataDir

	sqlitePath, err := expandPath(c.Storage.SQLitePath, filepath.Join(dataDir, "workspace.db"))
	if err != nil {
		return err
	}
	c.Storage.SQLitePath = sqlitePath
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments). Variables already set in
// the environment win.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- env file path comes from the operator
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	// Cookie headers routinely exceed the default 64KiB token limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d", lineNum)
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
