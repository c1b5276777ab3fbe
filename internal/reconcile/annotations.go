package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfsync/shelfsync/internal/layout"
	"github.com/shelfsync/shelfsync/internal/workspace"
)

// syncAnnotations creates the highlights and notes of a book that the
// workspace does not hold yet. Stored rows are never rewritten.
func (r *Reconciler) syncAnnotations(ctx context.Context, bookID, pageID string) error {
	marks, err := r.remote.Bookmarks(ctx, bookID)
	if err != nil {
		return remoteErr(err, "fetch highlights of %s", bookID)
	}
	if len(marks) > 0 {
		have, err := r.index.Annotations(ctx, r.dbs.Bookmark, layout.PropBookmarkID, pageID)
		if err != nil {
			return err
		}
		for _, m := range marks {
			if have[m.BookmarkID] {
				continue
			}
			props, err := r.annotationProperties(ctx, pageID, m.BookID, m.CreateTime, workspace.Properties{
				layout.PropAnnotationName: workspace.Title(m.MarkText),
				layout.PropBookmarkID:     workspace.RichText(m.BookmarkID),
				layout.PropRange:          workspace.RichText(m.Range),
				layout.PropChapterUID:     workspace.Int(m.ChapterUID),
				layout.PropBookVersion:    workspace.Int(m.BookVersion),
				layout.PropColorStyle:     workspace.Int(int64(m.ColorStyle)),
				layout.PropAnnotationType: workspace.Int(int64(m.Type)),
				layout.PropStyle:          workspace.Int(int64(m.Style)),
			})
			if err != nil {
				return err
			}
			if err := r.createAnnotation(ctx, r.dbs.Bookmark, layout.IconHighlights, props); err != nil {
				return fmt.Errorf("create highlight %s: %w", m.BookmarkID, err)
			}
		}
	}

	reviews, err := r.remote.Reviews(ctx, bookID)
	if err != nil {
		return remoteErr(err, "fetch notes of %s", bookID)
	}
	if len(reviews) == 0 {
		return nil
	}
	have, err := r.index.Annotations(ctx, r.dbs.Review, layout.PropReviewID, pageID)
	if err != nil {
		return err
	}
	for _, rv := range reviews {
		if have[rv.ReviewID] {
			continue
		}
		fields := workspace.Properties{
			layout.PropAnnotationName: workspace.Title(rv.Content),
			layout.PropReviewID:       workspace.RichText(rv.ReviewID),
			layout.PropChapterUID:     workspace.Int(rv.ChapterUID),
			layout.PropBookVersion:    workspace.Int(rv.BookVersion),
			layout.PropAnnotationType: workspace.Int(int64(rv.Type)),
		}
		if rv.Range != nil {
			fields[layout.PropRange] = workspace.RichText(*rv.Range)
		}
		if rv.Abstract != nil {
			fields[layout.PropAbstract] = workspace.RichText(*rv.Abstract)
		}
		if rv.Star != nil {
			fields[layout.PropStar] = workspace.Int(int64(*rv.Star))
		}
		props, err := r.annotationProperties(ctx, pageID, rv.BookID, rv.CreateTime, fields)
		if err != nil {
			return err
		}
		if err := r.createAnnotation(ctx, r.dbs.Review, layout.IconTags, props); err != nil {
			return fmt.Errorf("create note %s: %w", rv.ReviewID, err)
		}
	}
	return nil
}

// annotationProperties adds the book link and, when the creation time is
// known, the date and its calendar relations.
func (r *Reconciler) annotationProperties(ctx context.Context, pageID, bookID string, created *int64, props workspace.Properties) (workspace.Properties, error) {
	props[layout.PropAnnotBookID] = workspace.RichText(bookID)
	props[layout.PropBooks] = workspace.Relation(pageID)
	if created == nil {
		return props, nil
	}
	at := r.at(*created)
	props[layout.PropDate] = workspace.Date(at, time.Time{}, r.opts.Location)
	rel, err := r.resolver.Relations(ctx, at)
	if err != nil {
		return nil, fmt.Errorf("resolve annotation date: %w", err)
	}
	rel.Apply(props)
	return props, nil
}

func (r *Reconciler) createAnnotation(ctx context.Context, databaseID, icon string, props workspace.Properties) error {
	if r.opts.Throttle != nil {
		if err := r.opts.Throttle.Wait(ctx); err != nil {
			return err
		}
	}
	if _, err := r.ws.CreatePage(ctx, databaseID, props, icon, ""); err != nil {
		return err
	}
	r.stats.AnnotationsCreated++
	return nil
}
