// Package workspace defines the destination storage capability the sync
// engine writes to: databases of pages carrying typed properties.
//
// Two backends implement Workspace: workspace/notion talks to the Notion
// REST API and workspace/sqlite keeps the same model in a local file.
package workspace

import (
	"context"
	"encoding/base64"
	"fmt"
)

// DefaultPageSize is the page size used for full scans.
const DefaultPageSize = 100

// Workspace is the destination storage capability. Every method is a
// potentially failing remote call.
type Workspace interface {
	// Query returns one page of rows of a database, optionally filtered.
	Query(ctx context.Context, databaseID string, filter *Filter, cursor string, pageSize int) (*QueryResult, error)
	// CreatePage adds a row to a database.
	CreatePage(ctx context.Context, databaseID string, props Properties, icon, cover string) (*Page, error)
	// UpdatePage changes the given properties of a row and, if cover is set, its cover.
	UpdatePage(ctx context.Context, pageID string, props Properties, cover string) (*Page, error)
	// RetrieveDatabase returns a database with its property schema.
	RetrieveDatabase(ctx context.Context, databaseID string) (*Database, error)
	// UpdateDatabase adds or retypes schema properties.
	UpdateDatabase(ctx context.Context, databaseID string, schema Schema) (*Database, error)
	// CreateDatabase creates a database under a page.
	CreateDatabase(ctx context.Context, parentPageID, title, icon string, schema Schema) (*Database, error)
	// ListChildren returns every child block of a page or block.
	ListChildren(ctx context.Context, blockID string) ([]Block, error)
}

// Page is a database row.
type Page struct {
	ID         string
	DatabaseID string
	Properties Properties
	Icon       string
	Cover      string
}

// QueryResult is one page of a paginated query.
type QueryResult struct {
	Pages      []Page
	NextCursor string
	HasMore    bool
}

// Database is a table of pages with a fixed property schema.
type Database struct {
	ID     string
	Title  string
	Icon   string
	Schema Schema
}

// Schema maps property names to their definitions.
type Schema map[string]PropertySpec

// PropertySpec defines one schema property.
type PropertySpec struct {
	Type PropertyType `json:"type"`
	// RelationTo is the target database of a relation property.
	RelationTo string `json:"relation_to,omitempty"`
	// Options seeds the choices of a select property.
	Options []string `json:"options,omitempty"`
}

// Block types returned by ListChildren that layout discovery cares about.
const (
	BlockChildDatabase = "child_database"
	BlockChildPage     = "child_page"
)

// Block is a child element of a page.
type Block struct {
	ID          string
	Type        string
	Title       string
	HasChildren bool
}

// EncodeCursor makes an opaque cursor from a backend position key.
func EncodeCursor(key string) string {
	if key == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor reverses EncodeCursor.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("invalid cursor: %w", err)
	}
	return string(decoded), nil
}

// QueryAll follows cursors until the result set is exhausted.
func QueryAll(ctx context.Context, ws Workspace, databaseID string, filter *Filter) ([]Page, error) {
	var (
		pages  []Page
		cursor string
	)
	for {
		res, err := ws.Query(ctx, databaseID, filter, cursor, DefaultPageSize)
		if err != nil {
			return nil, err
		}
		pages = append(pages, res.Pages...)
		if !res.HasMore || res.NextCursor == "" {
			return pages, nil
		}
		cursor = res.NextCursor
	}
}
