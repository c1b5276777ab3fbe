package reconcile

import (
	"strings"

	"golang.org/x/text/width"

	"github.com/shelfsync/shelfsync/internal/domain"
	"github.com/shelfsync/shelfsync/internal/weread"
)

// DefaultCover replaces covers that are missing or not http URLs.
const DefaultCover = "https://www.notion.so/icons/book_gray.svg"

// Derived holds the values computed from a merged record.
type Derived struct {
	Status   domain.ReadingStatus
	Progress float64
	MyRating string
	// Date is the effective date in epoch seconds, zero when unknown.
	Date  int64
	Cover string
}

// Derive computes status, progress, personal rating, effective date and
// cover of a merged record.
func Derive(rec Record) Derived {
	marked := deref(rec.MarkedStatus)
	status := domain.DeriveStatus(marked, deref(rec.ReadingTime))

	progress := float64(deref(rec.ReadingProgress)) / 100
	if marked == weread.MarkedFinished {
		progress = 1
	}

	return Derived{
		Status:   status,
		Progress: progress,
		MyRating: domain.MyRating(deref(rec.MyRating), status),
		Date:     EffectiveDate(rec.BookFields),
		Cover:    NormalizeCover(deref(rec.Cover)),
	}
}

// EffectiveDate returns the finish date, else the last reading date, else
// the date the book was added to the shelf. Zero values count as absent.
func EffectiveDate(f weread.BookFields) int64 {
	for _, ts := range []*int64{f.FinishedDate, f.LastReadingDate, f.ReadingBookDate} {
		if v := deref(ts); v != 0 {
			return v
		}
	}
	return 0
}

// NormalizeCover switches WeRead's small cover to the large variant and
// falls back to DefaultCover for anything that is not an http URL.
func NormalizeCover(cover string) string {
	cover = strings.ReplaceAll(cover, "/s_", "/t7_")
	if strings.TrimSpace(cover) == "" || !strings.HasPrefix(cover, "http") {
		return DefaultCover
	}
	return cover
}

// SplitAuthors folds full-width characters and splits the author string
// on whitespace.
func SplitAuthors(author string) []string {
	return strings.Fields(width.Narrow.String(author))
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
