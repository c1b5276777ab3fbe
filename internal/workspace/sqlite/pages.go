package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	domainerrors "github.com/shelfsync/shelfsync/internal/errors"
	"github.com/shelfsync/shelfsync/internal/workspace"
)

const maxPageSize = 100

// Query returns up to pageSize rows of a database after cursor, in creation order.
func (s *Store) Query(ctx context.Context, databaseID string, filter *workspace.Filter, cursor string, pageSize int) (*workspace.QueryResult, error) {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if _, err := s.RetrieveDatabase(ctx, databaseID); err != nil {
		return nil, err
	}

	var after int64
	if key, err := workspace.DecodeCursor(cursor); err != nil {
		return nil, domainerrors.Validation(err.Error())
	} else if key != "" {
		after, err = strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, domainerrors.Validation("invalid cursor")
		}
	}

	query := `SELECT seq, id, properties, icon, cover FROM pages WHERE database_id = ? AND seq > ?`
	args := []any{databaseID, after}
	if filter != nil && filter.Type == workspace.TypeTitle {
		query += ` AND title = ?`
		args = append(args, filter.Equals)
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var (
		pages []workspace.Page
		seqs  []int64
	)
	for rows.Next() && len(pages) <= pageSize {
		var seq int64
		page, err := scanPage(rows, &seq)
		if err != nil {
			return nil, err
		}
		page.DatabaseID = databaseID
		if !filter.Match(page.Properties) {
			continue
		}
		pages = append(pages, *page)
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}

	res := &workspace.QueryResult{Pages: pages}
	if len(pages) > pageSize {
		res.Pages = pages[:pageSize]
		res.HasMore = true
		res.NextCursor = workspace.EncodeCursor(strconv.FormatInt(seqs[pageSize-1], 10))
	}
	return res, nil
}

// CreatePage adds a row to a database. Every property must exist in the
// database schema with the same type.
func (s *Store) CreatePage(ctx context.Context, databaseID string, props workspace.Properties, icon, cover string) (*workspace.Page, error) {
	db, err := s.RetrieveDatabase(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	if err := checkProperties(db.Schema, props); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("marshal properties: %w", err)
	}

	page := &workspace.Page{
		ID:         uuid.NewString(),
		DatabaseID: databaseID,
		Properties: props,
		Icon:       icon,
		Cover:      cover,
	}
	now := formatTime(s.now())
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pages (id, database_id, title, properties, icon, cover, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		page.ID, databaseID, titleOf(db.Schema, props), string(raw), icon, cover, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert page: %w", err)
	}
	return page, nil
}

// UpdatePage overwrites the given properties of a row, leaving others as they are.
func (s *Store) UpdatePage(ctx context.Context, pageID string, props workspace.Properties, cover string) (*workspace.Page, error) {
	var (
		seq        int64
		databaseID string
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT seq, id, properties, icon, cover, database_id FROM pages WHERE id = ?`, pageID)
	page, err := scanPage(row, &seq, &databaseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFoundf("page %s not found", pageID)
	}
	if err != nil {
		return nil, err
	}
	page.DatabaseID = databaseID

	db, err := s.RetrieveDatabase(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	if err := checkProperties(db.Schema, props); err != nil {
		return nil, err
	}

	for name, prop := range props {
		page.Properties[name] = prop
	}
	if cover != "" {
		page.Cover = cover
	}

	raw, err := json.Marshal(page.Properties)
	if err != nil {
		return nil, fmt.Errorf("marshal properties: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE pages SET title = ?, properties = ?, cover = ?, updated_at = ? WHERE id = ?`,
		titleOf(db.Schema, page.Properties), string(raw), page.Cover, formatTime(s.now()), pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("update page: %w", err)
	}
	return page, nil
}

// scanPage reads seq, id, properties, icon, cover and any extra columns.
func scanPage(scanner interface{ Scan(dest ...any) error }, seq *int64, extra ...any) (*workspace.Page, error) {
	var (
		page workspace.Page
		raw  string
	)
	dest := append([]any{seq, &page.ID, &raw, &page.Icon, &page.Cover}, extra...)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &page.Properties); err != nil {
		return nil, fmt.Errorf("decode properties of %s: %w", page.ID, err)
	}
	if page.Properties == nil {
		page.Properties = workspace.Properties{}
	}
	return &page, nil
}

func checkProperties(schema workspace.Schema, props workspace.Properties) error {
	bad := map[string]string{}
	for name, prop := range props {
		spec, ok := schema[name]
		switch {
		case !ok:
			bad[name] = "is not a property of this database"
		case spec.Type != prop.Type:
			bad[name] = fmt.Sprintf("is %s, not %s", spec.Type, prop.Type)
		}
	}
	if len(bad) > 0 {
		return domainerrors.ValidationWithDetails("properties do not match database schema", bad)
	}
	return nil
}

func titleOf(schema workspace.Schema, props workspace.Properties) string {
	name, ok := titleProperty(schema)
	if !ok {
		return ""
	}
	return props[name].Text
}
