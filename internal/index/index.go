// Package index holds what a run already knows about the workspace: the
// synced books keyed by book id, per-book reading records, and a cache of
// resolved relation targets. An Index is built fresh for every run.
package index

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/shelfsync/shelfsync/internal/calendar"
	"github.com/shelfsync/shelfsync/internal/domain"
	"github.com/shelfsync/shelfsync/internal/layout"
	"github.com/shelfsync/shelfsync/internal/workspace"
)

type cacheKey struct {
	scope string
	label string
}

var _ calendar.Cache = (*Index)(nil)

// Index is the in-run view of the workspace.
type Index struct {
	ws        workspace.Workspace
	books     map[string]domain.StoredBook
	relations map[cacheKey]string
	logger    *slog.Logger
}

// New returns an empty index over ws.
func New(ws workspace.Workspace, logger *slog.Logger) *Index {
	return &Index{
		ws:        ws,
		books:     make(map[string]domain.StoredBook),
		relations: make(map[cacheKey]string),
		logger:    logger,
	}
}

// Load scans the whole Bookshelf database and indexes every row that has a
// book id.
func Load(ctx context.Context, ws workspace.Workspace, bookDB string, logger *slog.Logger) (*Index, error) {
	ix := New(ws, logger)
	pages, err := workspace.QueryAll(ctx, ws, bookDB, nil)
	if err != nil {
		return nil, fmt.Errorf("load bookshelf: %w", err)
	}
	for _, p := range pages {
		book := storedBook(p)
		if book.BookID == "" {
			continue
		}
		ix.books[book.BookID] = book
	}
	logger.Debug("bookshelf indexed", "rows", len(pages), "books", len(ix.books))
	return ix, nil
}

func storedBook(p workspace.Page) domain.StoredBook {
	props := p.Properties
	return domain.StoredBook{
		PageID:      p.ID,
		BookID:      props.Text(layout.PropBookID),
		Title:       props.Text(layout.PropTitle),
		ReadingTime: intPtr(props, layout.PropReadingTime),
		Category:    props.Text(layout.PropCategory),
		Cover:       p.Cover,
		MyRating:    props.Text(layout.PropMyRating),
		Status:      domain.ReadingStatus(props.Text(layout.PropStatus)),
		Sort:        intPtr(props, layout.PropSort),
		DoubanURL:   props.Text(layout.PropDoubanLink),
		Comment:     props.Text(layout.PropDoubanComment),
	}
}

func intPtr(props workspace.Properties, name string) *int64 {
	n, ok := props.Number(name)
	if !ok {
		return nil
	}
	v := int64(n)
	return &v
}

// Book returns the stored state of a book.
func (ix *Index) Book(bookID string) (domain.StoredBook, bool) {
	b, ok := ix.books[bookID]
	return b, ok
}

// Books returns the stored books keyed by book id. The map must not be modified.
func (ix *Index) Books() map[string]domain.StoredBook {
	return ix.books
}

// Len returns the number of stored books.
func (ix *Index) Len() int {
	return len(ix.books)
}

// ReadingRecords returns the Reading Records rows of one book, ordered by timestamp.
func (ix *Index) ReadingRecords(ctx context.Context, recordsDB, bookPageID string) ([]domain.StoredSample, error) {
	pages, err := workspace.QueryAll(ctx, ix.ws, recordsDB, workspace.RelationContains(layout.PropBookshelf, bookPageID))
	if err != nil {
		return nil, fmt.Errorf("load reading records of %s: %w", bookPageID, err)
	}
	return samples(pages), nil
}

// DayRecords returns every Day row that carries a timestamp, ordered by timestamp.
func (ix *Index) DayRecords(ctx context.Context, dayDB string) ([]domain.StoredSample, error) {
	pages, err := workspace.QueryAll(ctx, ix.ws, dayDB, nil)
	if err != nil {
		return nil, fmt.Errorf("load day records: %w", err)
	}
	return samples(pages), nil
}

func samples(pages []workspace.Page) []domain.StoredSample {
	out := make([]domain.StoredSample, 0, len(pages))
	for _, p := range pages {
		ts, ok := p.Properties.Number(layout.PropTimestamp)
		if !ok {
			continue
		}
		s := domain.StoredSample{RecordID: p.ID, Timestamp: int64(ts)}
		if d, ok := p.Properties.Number(layout.PropDuration); ok {
			s.Duration = int64(d)
		} else {
			s.NoDuration = true
		}
		out = append(out, s)
	}
	slices.SortStableFunc(out, func(a, b domain.StoredSample) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	return out
}

// Annotations returns the remote ids, read from idProperty, of the rows in
// databaseID that belong to a book page.
func (ix *Index) Annotations(ctx context.Context, databaseID, idProperty, bookPageID string) (map[string]bool, error) {
	pages, err := workspace.QueryAll(ctx, ix.ws, databaseID, workspace.RelationContains(layout.PropBooks, bookPageID))
	if err != nil {
		return nil, fmt.Errorf("load annotations of %s: %w", bookPageID, err)
	}
	ids := make(map[string]bool, len(pages))
	for _, p := range pages {
		if id := p.Properties.Text(idProperty); id != "" {
			ids[id] = true
		}
	}
	return ids, nil
}

// Relation returns the cached page id for label in scope.
func (ix *Index) Relation(scope, label string) (string, bool) {
	id, ok := ix.relations[cacheKey{scope, label}]
	return id, ok
}

// Remember caches the page id for label in scope.
func (ix *Index) Remember(scope, label, id string) {
	ix.relations[cacheKey{scope, label}] = id
}

// Put records the stored state of a book written during the run.
func (ix *Index) Put(book domain.StoredBook) {
	ix.books[book.BookID] = book
}
