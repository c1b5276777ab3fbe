package weread

import (
	"strconv"
)

// Raw API response types (internal)

type rawStatus struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

type rawShelf struct {
	Books        []ShelfBook `json:"books"`
	BookProgress []Progress  `json:"bookProgress"`
	Archive      []struct {
		Name    string   `json:"name"`
		BookIDs []string `json:"bookIds"`
	} `json:"archive"`
}

// rawFields is shared by the book info response and each level of the read
// info response.
type rawFields struct {
	BookID          *string    `json:"bookId"`
	Title           *string    `json:"title"`
	Author          *string    `json:"author"`
	Cover           *string    `json:"cover"`
	Intro           *string    `json:"intro"`
	ISBN            *string    `json:"isbn"`
	Categories      []Category `json:"categories"`
	NewRating       *int64     `json:"newRating"`
	NewRatingDetail *struct {
		MyRating string `json:"myRating"`
	} `json:"newRatingDetail"`

	MarkedStatus    *int   `json:"markedStatus"`
	ReadingTime     *int64 `json:"readingTime"`
	ReadingProgress *int   `json:"readingProgress"`
	TotalReadDay    *int64 `json:"totalReadDay"`

	FinishedDate     *int64 `json:"finishedDate"`
	LastReadingDate  *int64 `json:"lastReadingDate"`
	ReadingBookDate  *int64 `json:"readingBookDate"`
	BeginReadingDate *int64 `json:"beginReadingDate"`
}

func (r *rawFields) fields() BookFields {
	if r == nil {
		return BookFields{}
	}
	f := BookFields{
		BookID:           r.BookID,
		Title:            r.Title,
		Author:           r.Author,
		Cover:            r.Cover,
		Intro:            r.Intro,
		ISBN:             r.ISBN,
		Categories:       r.Categories,
		NewRating:        r.NewRating,
		MarkedStatus:     r.MarkedStatus,
		ReadingTime:      r.ReadingTime,
		ReadingProgress:  r.ReadingProgress,
		TotalReadDay:     r.TotalReadDay,
		FinishedDate:     r.FinishedDate,
		LastReadingDate:  r.LastReadingDate,
		ReadingBookDate:  r.ReadingBookDate,
		BeginReadingDate: r.BeginReadingDate,
	}
	if r.NewRatingDetail != nil {
		word := r.NewRatingDetail.MyRating
		f.MyRating = &word
	}
	return f
}

type rawReadInfo struct {
	rawFields
	ReadDetail *struct {
		rawFields
		Data []struct {
			ReadDate int64 `json:"readDate"`
			ReadTime int64 `json:"readTime"`
		} `json:"data"`
	} `json:"readDetail"`
	BookInfo *rawFields `json:"bookInfo"`
}

func (r *rawReadInfo) readInfo() *ReadInfo {
	info := &ReadInfo{Fields: r.rawFields.fields()}
	if r.ReadDetail != nil {
		info.Fields.Overlay(r.ReadDetail.rawFields.fields())
		if len(r.ReadDetail.Data) > 0 {
			info.Daily = make(map[int64]int64, len(r.ReadDetail.Data))
			for _, d := range r.ReadDetail.Data {
				info.Daily[d.ReadDate] = d.ReadTime
			}
		}
	}
	info.Fields.Overlay(r.BookInfo.fields())
	return info
}

type rawNotebooks struct {
	Books []struct {
		BookID        string `json:"bookId"`
		ReviewCount   int    `json:"reviewCount"`
		NoteCount     int    `json:"noteCount"`
		BookmarkCount int    `json:"bookmarkCount"`
		Sort          int64  `json:"sort"`
		Book          struct {
			Title string `json:"title"`
		} `json:"book"`
	} `json:"books"`
}

type rawBookmark struct {
	BookmarkID  string `json:"bookmarkId"`
	BookID      string `json:"bookId"`
	ChapterUID  int64  `json:"chapterUid"`
	Range       string `json:"range"`
	MarkText    string `json:"markText"`
	ColorStyle  int    `json:"colorStyle"`
	Style       int    `json:"style"`
	Type        int    `json:"type"`
	BookVersion int64  `json:"bookVersion"`
	CreateTime  *int64 `json:"createTime"`
}

func (r rawBookmark) bookmark() Bookmark {
	return Bookmark{
		BookmarkID:  r.BookmarkID,
		BookID:      r.BookID,
		ChapterUID:  r.ChapterUID,
		Range:       r.Range,
		MarkText:    r.MarkText,
		ColorStyle:  r.ColorStyle,
		Style:       r.Style,
		Type:        r.Type,
		BookVersion: r.BookVersion,
		CreateTime:  r.CreateTime,
	}
}

type rawReviews struct {
	Reviews []struct {
		Review rawReview `json:"review"`
	} `json:"reviews"`
}

type rawReview struct {
	ReviewID    string  `json:"reviewId"`
	BookID      string  `json:"bookId"`
	ChapterUID  int64   `json:"chapterUid"`
	Range       *string `json:"range"`
	Abstract    *string `json:"abstract"`
	Content     string  `json:"content"`
	Star        *int    `json:"star"`
	Type        int     `json:"type"`
	BookVersion int64   `json:"bookVersion"`
	CreateTime  *int64  `json:"createTime"`
}

func (r rawReview) review() Review {
	return Review{
		ReviewID:    r.ReviewID,
		BookID:      r.BookID,
		ChapterUID:  r.ChapterUID,
		Range:       r.Range,
		Abstract:    r.Abstract,
		Content:     r.Content,
		Star:        r.Star,
		Type:        r.Type,
		BookVersion: r.BookVersion,
		CreateTime:  r.CreateTime,
	}
}

type rawReadTimes struct {
	ReadTimes map[string]int64 `json:"readTimes"`
}

// series converts string-keyed epoch seconds; unparseable keys are dropped.
func (r rawReadTimes) series() map[int64]int64 {
	out := make(map[int64]int64, len(r.ReadTimes))
	for k, v := range r.ReadTimes {
		ts, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		out[ts] = v
	}
	return out
}
