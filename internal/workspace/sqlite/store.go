// Package sqlite implements workspace.Workspace on a local SQLite file, so a
// reading history can be kept without a Notion account.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/shelfsync/shelfsync/internal/errors"
	"github.com/shelfsync/shelfsync/internal/workspace"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// RootPageID is the parent used for databases when no root page is configured.
const RootPageID = "00000000-0000-0000-0000-000000000000"

// Store is a workspace kept in a SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ workspace.Workspace = (*Store)(nil)

// Open opens or creates the workspace file at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateDatabase creates a database under parentPageID.
func (s *Store) CreateDatabase(ctx context.Context, parentPageID, title, icon string, schema workspace.Schema) (*workspace.Database, error) {
	if title == "" {
		return nil, domainerrors.Validation("database title is required")
	}
	if schema == nil {
		schema = workspace.Schema{}
	}
	if _, ok := titleProperty(schema); !ok {
		return nil, domainerrors.Validation("database schema needs a title property")
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	db := &workspace.Database{ID: uuid.NewString(), Title: title, Icon: icon, Schema: schema}
	now := formatTime(s.now())
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO databases (id, parent_id, title, icon, schema, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		db.ID, parentPageID, title, icon, string(raw), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert database: %w", err)
	}

	s.logger.Debug("database created", "id", db.ID, "title", title)
	return db, nil
}

// RetrieveDatabase returns a database with its schema.
func (s *Store) RetrieveDatabase(ctx context.Context, databaseID string) (*workspace.Database, error) {
	var (
		db  workspace.Database
		raw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, icon, schema FROM databases WHERE id = ?`, databaseID,
	).Scan(&db.ID, &db.Title, &db.Icon, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFoundf("database %s not found", databaseID)
	}
	if err != nil {
		return nil, fmt.Errorf("select database: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &db.Schema); err != nil {
		return nil, fmt.Errorf("decode schema of %s: %w", databaseID, err)
	}
	return &db, nil
}

// UpdateDatabase adds or replaces the given schema properties.
func (s *Store) UpdateDatabase(ctx context.Context, databaseID string, schema workspace.Schema) (*workspace.Database, error) {
	db, err := s.RetrieveDatabase(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	for name, spec := range schema {
		db.Schema[name] = spec
	}
	raw, err := json.Marshal(db.Schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE databases SET schema = ?, updated_at = ? WHERE id = ?`,
		string(raw), formatTime(s.now()), databaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("update database: %w", err)
	}
	return db, nil
}

// ListChildren returns the databases created under blockID as child_database blocks.
func (s *Store) ListChildren(ctx context.Context, blockID string) ([]workspace.Block, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title FROM databases WHERE parent_id = ? ORDER BY seq`, blockID,
	)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var blocks []workspace.Block
	for rows.Next() {
		b := workspace.Block{Type: workspace.BlockChildDatabase}
		if err := rows.Scan(&b.ID, &b.Title); err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func titleProperty(schema workspace.Schema) (string, bool) {
	for name, spec := range schema {
		if spec.Type == workspace.TypeTitle {
			return name, true
		}
	}
	return "", false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
