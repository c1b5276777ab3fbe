package reconcile

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shelfsync/shelfsync/internal/calendar"
	"github.com/shelfsync/shelfsync/internal/domain"
	"github.com/shelfsync/shelfsync/internal/layout"
	"github.com/shelfsync/shelfsync/internal/weread"
	"github.com/shelfsync/shelfsync/internal/workspace"
)

// unchanged reports whether a synced book can be left alone this run:
// its reading time and shelf folder match the shelf, it has a cover, and
// a finished book already carries a personal rating.
func unchanged(stored domain.StoredBook, progress *weread.Progress, category string) bool {
	if progress != nil && (stored.ReadingTime == nil || *stored.ReadingTime != progress.ReadingTime) {
		return false
	}
	if stored.Category != category {
		return false
	}
	if stored.Cover == "" {
		return false
	}
	return stored.Status != domain.StatusComplete || stored.MyRating != ""
}

// candidates returns the ids of shelf and notebook books that need a sync,
// in ascending order.
func (r *Reconciler) candidates(shelf *weread.Shelf, notebooks []weread.Notebook, sorts map[string]int64) []string {
	categories := shelf.ArchiveCategories()
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true

		if stored, ok := r.index.Book(id); ok {
			var progress *weread.Progress
			if p, ok := shelf.Progress[id]; ok {
				progress = &p
			}
			if unchanged(stored, progress, categories[id]) && r.notesCurrent(stored, sorts) {
				r.stats.BooksSkipped++
				return
			}
		}
		ids = append(ids, id)
	}
	for _, nb := range notebooks {
		add(nb.BookID)
	}
	for _, id := range shelf.BookIDs() {
		add(id)
	}
	slices.Sort(ids)
	return ids
}

// notesCurrent reports whether a stored book's highlights and notes are up
// to date: WeRead moves a notebook's sort key whenever its notes change.
func (r *Reconciler) notesCurrent(stored domain.StoredBook, sorts map[string]int64) bool {
	sort, ok := sorts[stored.BookID]
	if !r.opts.Annotations || !ok {
		return true
	}
	return stored.Sort != nil && *stored.Sort == sort
}

// SyncBooks writes every shelf or notebook book whose tracked signals
// changed, then merges its per-day reading records. A failure fetching a
// book aborts the run.
func (r *Reconciler) SyncBooks(ctx context.Context) error {
	shelf, err := r.remote.Shelf(ctx)
	if err != nil {
		return remoteErr(err, "fetch bookshelf")
	}
	notebooks, err := r.remote.Notebooks(ctx)
	if err != nil {
		return remoteErr(err, "fetch notebooks")
	}
	sorts := make(map[string]int64, len(notebooks))
	for _, nb := range notebooks {
		sorts[nb.BookID] = nb.Sort
	}

	ids := r.candidates(shelf, notebooks, sorts)
	r.stats.BooksConsidered = len(ids) + r.stats.BooksSkipped
	categories := shelf.ArchiveCategories()

	for i, id := range ids {
		sort, annotated := sorts[id]
		var notebookSort *int64
		if r.opts.Annotations && annotated {
			notebookSort = &sort
		}
		pageID, err := r.syncBook(ctx, id, categories, notebookSort, i, len(ids))
		if err != nil {
			return err
		}
		if notebookSort != nil {
			if err := r.syncAnnotations(ctx, id, pageID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Reconciler) syncBook(ctx context.Context, bookID string, categories map[string]string, notebookSort *int64, n, total int) (string, error) {
	info, err := r.remote.BookInfo(ctx, bookID)
	if err != nil {
		return "", remoteErr(err, "fetch book info of %s", bookID)
	}
	read, err := r.remote.ReadInfo(ctx, bookID)
	if err != nil {
		return "", remoteErr(err, "fetch read info of %s", bookID)
	}

	layers := []Layer{ArchiveLayer(categories, bookID)}
	stored, synced := r.index.Book(bookID)
	if synced {
		layers = append(layers, StoredLayer(stored))
	}
	layers = append(layers, FieldsLayer(info), FieldsLayer(&read.Fields), Layer{Sort: notebookSort})
	rec := Merge(layers...)
	d := Derive(rec)

	props, err := r.bookProperties(ctx, bookID, rec, d)
	if err != nil {
		return "", err
	}

	title := deref(rec.Title)
	if title == "" {
		title = bookID
	}
	r.logger.Info(fmt.Sprintf("Inserting «%s», %d of %d", title, n+1, total), "book_id", bookID)

	var page *workspace.Page
	if synced {
		page, err = r.ws.UpdatePage(ctx, stored.PageID, props, d.Cover)
		if err != nil {
			return "", fmt.Errorf("update book %s: %w", bookID, err)
		}
		r.stats.BooksUpdated++
	} else {
		page, err = r.ws.CreatePage(ctx, r.dbs.Book, props, d.Cover, d.Cover)
		if err != nil {
			return "", fmt.Errorf("create book %s: %w", bookID, err)
		}
		r.stats.BooksCreated++
	}

	r.index.Put(domain.StoredBook{
		PageID:      page.ID,
		BookID:      bookID,
		Title:       title,
		ReadingTime: rec.ReadingTime,
		Category:    deref(rec.Category),
		Cover:       d.Cover,
		MyRating:    d.MyRating,
		Status:      d.Status,
		Sort:        rec.Sort,
		DoubanURL:   stored.DoubanURL,
		Comment:     stored.Comment,
	})

	if len(read.Daily) > 0 {
		if err := r.syncRecords(ctx, page.ID, read.Daily); err != nil {
			return "", err
		}
	}
	return page.ID, nil
}

// bookProperties builds the page properties of a merged record. Identity
// properties are only set for books without a page.
func (r *Reconciler) bookProperties(ctx context.Context, bookID string, rec Record, d Derived) (workspace.Properties, error) {
	loc := r.opts.Location
	props := workspace.Properties{
		layout.PropStatus:   r.dbs.Status(string(d.Status)),
		layout.PropProgress: workspace.Number(d.Progress),
	}
	setInt := func(name string, v *int64) {
		if v != nil {
			props[name] = workspace.Int(*v)
		}
	}
	setDate := func(name string, v *int64) {
		if ts := deref(v); ts != 0 {
			props[name] = workspace.Date(r.at(ts), time.Time{}, loc)
		}
	}

	setInt(layout.PropSort, rec.Sort)
	setInt(layout.PropRating, rec.NewRating)
	setInt(layout.PropReadingTime, rec.ReadingTime)
	setInt(layout.PropReadingDays, rec.TotalReadDay)
	setDate(layout.PropStartDate, rec.BeginReadingDate)
	setDate(layout.PropLastDate, rec.LastReadingDate)
	if rec.Category != nil {
		props[layout.PropCategory] = workspace.Select(*rec.Category)
	}
	if d.MyRating != "" {
		props[layout.PropMyRating] = workspace.Select(d.MyRating)
	}
	if d.Date != 0 {
		at := r.at(d.Date)
		props[layout.PropDate] = workspace.Date(at, time.Time{}, loc)
		rel, err := r.resolver.Relations(ctx, at)
		if err != nil {
			return nil, fmt.Errorf("resolve date of %s: %w", bookID, err)
		}
		rel.Apply(props)
	}

	if rec.Synced {
		return props, nil
	}

	props[layout.PropBookID] = workspace.RichText(bookID)
	props[layout.PropLink] = workspace.URL(r.remote.BookURL(bookID))
	if rec.Title != nil {
		props[layout.PropTitle] = workspace.Title(*rec.Title)
	}
	if rec.ISBN != nil {
		props[layout.PropISBN] = workspace.RichText(*rec.ISBN)
	}
	if rec.Intro != nil {
		props[layout.PropIntro] = workspace.RichText(*rec.Intro)
	}
	if rec.Author != nil {
		ids, err := r.tags(ctx, r.dbs.Author, layout.IconAuthors, SplitAuthors(*rec.Author))
		if err != nil {
			return nil, err
		}
		props[layout.PropAuthor] = workspace.Relation(ids...)
	}
	if len(rec.Categories) > 0 {
		names := make([]string, 0, len(rec.Categories))
		for _, c := range rec.Categories {
			names = append(names, c.Title)
		}
		ids, err := r.tags(ctx, r.dbs.Category, layout.IconTags, names)
		if err != nil {
			return nil, err
		}
		props[layout.PropCategories] = workspace.Relation(ids...)
	}
	return props, nil
}

// tags resolves tag entity names to page ids, creating missing entities.
func (r *Reconciler) tags(ctx context.Context, databaseID, icon string, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		id, err := r.resolver.LookupOrCreate(ctx, databaseID, name, icon, nil)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// syncRecords merges a book's per-day durations into its Reading Records rows.
func (r *Reconciler) syncRecords(ctx context.Context, bookPageID string, daily map[int64]int64) error {
	stored, err := r.index.ReadingRecords(ctx, r.dbs.Read, bookPageID)
	if err != nil {
		return err
	}
	plan := PlanSamples(daily, stored)
	if err := r.applyUpdates(ctx, plan); err != nil {
		return err
	}

	for _, s := range plan.Creates {
		at := r.at(s.Timestamp)
		rel, err := r.resolver.Relations(ctx, at)
		if err != nil {
			return fmt.Errorf("resolve record date: %w", err)
		}
		props := sampleProperties(s, at, r.opts.Location)
		props[layout.PropBookshelf] = workspace.Relation(bookPageID)
		rel.Apply(props)

		if _, err := r.ws.CreatePage(ctx, r.dbs.Read, props, calendar.NodeIcon, ""); err != nil {
			return fmt.Errorf("create reading record: %w", err)
		}
		r.stats.RecordsCreated++
	}
	return nil
}

// applyUpdates rewrites the Duration of every stored record the plan changes.
func (r *Reconciler) applyUpdates(ctx context.Context, plan Plan) error {
	r.stats.RecordsUnchanged += plan.Unchanged
	for _, u := range plan.Updates {
		props := workspace.Properties{layout.PropDuration: workspace.Int(u.Duration)}
		if _, err := r.ws.UpdatePage(ctx, u.RecordID, props, ""); err != nil {
			return fmt.Errorf("update record %s: %w", u.RecordID, err)
		}
		r.stats.RecordsUpdated++
	}
	return nil
}

func sampleProperties(s Sample, at time.Time, loc *time.Location) workspace.Properties {
	return workspace.Properties{
		layout.PropTitle:     workspace.Title(calendar.Label(at, calendar.Day)),
		layout.PropDate:      workspace.Date(at, time.Time{}, loc),
		layout.PropDuration:  workspace.Int(s.Duration),
		layout.PropTimestamp: workspace.Int(s.Timestamp),
	}
}
