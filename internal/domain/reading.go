// Package domain contains the entities the sync engine reconciles between
// the WeRead account and the workspace.
package domain

import "strings"

// ReadingStatus is the derived lifecycle state of a book.
type ReadingStatus string

// ReadingStatus values as written to the workspace.
const (
	StatusToDo       ReadingStatus = "To-do"
	StatusInProgress ReadingStatus = "In Progress"
	StatusComplete   ReadingStatus = "Complete"
)

// InProgressThreshold is the reading time, in seconds, from which an
// unfinished book counts as started.
const InProgressThreshold = 60

// DeriveStatus maps WeRead's markedStatus and accumulated reading time to a
// status. markedStatus 4 means the reader marked the book finished.
func DeriveStatus(markedStatus int, readingTime int64) ReadingStatus {
	switch {
	case markedStatus == 4:
		return StatusComplete
	case readingTime >= InProgressThreshold:
		return StatusInProgress
	default:
		return StatusToDo
	}
}

// Personal rating labels.
const (
	RatingPoor     = "⭐️"
	RatingFair     = "⭐️⭐️⭐️"
	RatingGood     = "⭐️⭐️⭐️⭐️⭐️"
	RatingNotRated = "Not Rated"
)

// MyRating maps WeRead's personal rating word to a select label.
// A finished book without a recognised rating word is "Not Rated";
// otherwise an unknown or empty word yields "".
func MyRating(word string, status ReadingStatus) string {
	switch strings.ToLower(word) {
	case "poor":
		return RatingPoor
	case "fair":
		return RatingFair
	case "good":
		return RatingGood
	}
	if status == StatusComplete {
		return RatingNotRated
	}
	return ""
}

// StoredBook is what the workspace already holds for a book.
type StoredBook struct {
	PageID      string
	BookID      string
	Title       string
	ReadingTime *int64
	Category    string
	Cover       string
	MyRating    string
	Status      ReadingStatus
	Sort        *int64
	DoubanURL   string
	Comment     string
}

// StoredSample is one reading-duration record already in the workspace.
type StoredSample struct {
	RecordID  string
	Timestamp int64
	Duration  int64
	// NoDuration marks a row created without a Duration, such as a Day node
	// made by the calendar resolver. It always differs from a remote value.
	NoDuration bool
}
