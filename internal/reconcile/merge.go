package reconcile

import (
	"github.com/shelfsync/shelfsync/internal/domain"
	"github.com/shelfsync/shelfsync/internal/weread"
)

// Layer is one source of book state. Merge folds layers left to right, so
// later layers override earlier ones field by field.
type Layer struct {
	Fields   weread.BookFields
	Category *string
	Sort     *int64
	// Locks marks the stored state of a book that already has a page.
	// Identity fields are frozen once such a layer has been merged.
	Locks bool
}

// Record is the merged state of a book.
type Record struct {
	weread.BookFields
	Category *string
	Sort     *int64
	// Synced is set when a locking layer was merged. The identity fields of
	// a synced book are never written again.
	Synced bool
}

// Merge folds layers in order. Title, BookID, ISBN, Intro, Author and
// Categories are identity fields: after a locking layer they keep the value
// they had.
func Merge(layers ...Layer) Record {
	var rec Record
	for _, l := range layers {
		f := l.Fields
		if rec.Synced {
			f.Title = nil
			f.BookID = nil
			f.ISBN = nil
			f.Intro = nil
			f.Author = nil
			f.Categories = nil
		}
		rec.Overlay(f)
		if l.Category != nil {
			rec.Category = l.Category
		}
		if l.Sort != nil {
			rec.Sort = l.Sort
		}
		if l.Locks {
			rec.Synced = true
		}
	}
	return rec
}

// ArchiveLayer carries the shelf folder a book is filed under, if any.
func ArchiveLayer(categories map[string]string, bookID string) Layer {
	name, ok := categories[bookID]
	if !ok {
		return Layer{}
	}
	return Layer{Category: &name}
}

// StoredLayer carries what the workspace holds for a synced book.
func StoredLayer(b domain.StoredBook) Layer {
	l := Layer{
		Fields: weread.BookFields{
			BookID:      &b.BookID,
			ReadingTime: b.ReadingTime,
		},
		Sort:  b.Sort,
		Locks: true,
	}
	if b.Title != "" {
		l.Fields.Title = &b.Title
	}
	if b.Cover != "" {
		l.Fields.Cover = &b.Cover
	}
	return l
}

// FieldsLayer wraps fields fetched from WeRead. A nil pointer is an empty layer.
func FieldsLayer(f *weread.BookFields) Layer {
	if f == nil {
		return Layer{}
	}
	return Layer{Fields: *f}
}
