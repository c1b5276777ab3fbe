// Package weread provides a client for the WeRead web API.
//
// Responses are decoded into raw structs and converted at the boundary into
// typed records. Optional values are pointers: a nil field means WeRead did
// not send it, which is never an error.
package weread

// MarkedFinished is the markedStatus WeRead reports for a finished book.
const MarkedFinished = 4

// Shelf is the user's bookshelf snapshot.
type Shelf struct {
	Books    []ShelfBook
	Progress map[string]Progress
	Archives []Archive
}

// BookIDs returns the ids of every shelf book in shelf order.
func (s *Shelf) BookIDs() []string {
	ids := make([]string, 0, len(s.Books))
	for _, b := range s.Books {
		ids = append(ids, b.BookID)
	}
	return ids
}

// ArchiveCategories maps book ids to the name of the shelf folder holding
// them. A book in several folders gets the last one listed.
func (s *Shelf) ArchiveCategories() map[string]string {
	out := make(map[string]string)
	for _, a := range s.Archives {
		for _, id := range a.BookIDs {
			out[id] = a.Name
		}
	}
	return out
}

// ShelfBook is a book on the shelf.
type ShelfBook struct {
	BookID string `json:"bookId" validate:"required"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Cover  string `json:"cover"`
}

// Progress is the shelf's reading progress entry for a book.
type Progress struct {
	BookID      string `json:"bookId" validate:"required"`
	Progress    int    `json:"progress" validate:"gte=0,lte=100"`
	ReadingTime int64  `json:"readingTime" validate:"gte=0"`
	UpdateTime  int64  `json:"updateTime"`
}

// Archive is a named shelf folder.
type Archive struct {
	Name    string
	BookIDs []string
}

// Category is a catalog category of a book.
type Category struct {
	CategoryID int64  `json:"categoryId"`
	Title      string `json:"title"`
}

// BookFields is the set of book attributes WeRead reports across its book
// info and read info endpoints.
type BookFields struct {
	BookID     *string
	Title      *string
	Author     *string
	Cover      *string
	Intro      *string
	ISBN       *string
	Categories []Category

	// Average rating in tenths of a percent.
	NewRating *int64
	// Personal rating word: "poor", "fair" or "good".
	MyRating *string

	MarkedStatus    *int
	ReadingTime     *int64
	ReadingProgress *int
	TotalReadDay    *int64

	// Epoch seconds.
	FinishedDate     *int64
	LastReadingDate  *int64
	ReadingBookDate  *int64
	BeginReadingDate *int64
}

// Overlay copies every field set in o onto f.
func (f *BookFields) Overlay(o BookFields) {
	set(&f.BookID, o.BookID)
	set(&f.Title, o.Title)
	set(&f.Author, o.Author)
	set(&f.Cover, o.Cover)
	set(&f.Intro, o.Intro)
	set(&f.ISBN, o.ISBN)
	if o.Categories != nil {
		f.Categories = o.Categories
	}
	set(&f.NewRating, o.NewRating)
	set(&f.MyRating, o.MyRating)
	set(&f.MarkedStatus, o.MarkedStatus)
	set(&f.ReadingTime, o.ReadingTime)
	set(&f.ReadingProgress, o.ReadingProgress)
	set(&f.TotalReadDay, o.TotalReadDay)
	set(&f.FinishedDate, o.FinishedDate)
	set(&f.LastReadingDate, o.LastReadingDate)
	set(&f.ReadingBookDate, o.ReadingBookDate)
	set(&f.BeginReadingDate, o.BeginReadingDate)
}

func set[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// ReadInfo is a book's reading statistics.
type ReadInfo struct {
	// Fields holds the response flattened as top level, then readDetail,
	// then bookInfo, later levels overriding.
	Fields BookFields
	// Daily maps start-of-day timestamps to seconds read that day.
	Daily map[int64]int64
}

// Notebook is a book with highlights or reviews.
type Notebook struct {
	BookID        string `json:"bookId" validate:"required"`
	Title         string
	ReviewCount   int
	NoteCount     int
	BookmarkCount int
	Sort          int64
}

// Bookmark is a highlight.
type Bookmark struct {
	BookmarkID  string `json:"bookmarkId" validate:"required"`
	BookID      string `json:"bookId" validate:"required"`
	ChapterUID  int64
	Range       string
	MarkText    string
	ColorStyle  int
	Style       int
	Type        int
	BookVersion int64
	CreateTime  *int64
}

// Review is a note written by the user, optionally anchored to a range.
type Review struct {
	ReviewID    string `json:"reviewId" validate:"required"`
	BookID      string `json:"bookId" validate:"required"`
	ChapterUID  int64
	Range       *string
	Abstract    *string
	Content     string
	Star        *int
	Type        int
	BookVersion int64
	CreateTime  *int64
}
