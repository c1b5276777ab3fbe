package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name   string
		marked int
		secs   int64
		want   ReadingStatus
	}{
		{"finished", 4, 0, StatusComplete},
		{"finished overrides time", 4, 9999, StatusComplete},
		{"threshold", 0, 60, StatusInProgress},
		{"below threshold", 0, 59, StatusToDo},
		{"untouched", 2, 0, StatusToDo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.marked, tt.secs))
		})
	}
}

func TestMyRating(t *testing.T) {
	tests := []struct {
		word   string
		status ReadingStatus
		want   string
	}{
		{"poor", StatusInProgress, "⭐️"},
		{"fair", StatusComplete, "⭐️⭐️⭐️"},
		{"good", StatusToDo, "⭐️⭐️⭐️⭐️⭐️"},
		{"", StatusComplete, "Not Rated"},
		{"", StatusInProgress, ""},
		{"meh", StatusToDo, ""},
		{"meh", StatusComplete, "Not Rated"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MyRating(tt.word, tt.status), "word=%q status=%s", tt.word, tt.status)
	}
}

func TestSyncKind(t *testing.T) {
	assert.True(t, SyncAll.IncludesBooks())
	assert.True(t, SyncAll.IncludesReadTime())
	assert.False(t, SyncBooks.IncludesReadTime())
	assert.False(t, SyncReadTime.IncludesBooks())
	assert.False(t, SyncKind("annotations").Valid())
}

func TestRun_Duration(t *testing.T) {
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	r := &Run{StartedAt: start}
	assert.Zero(t, r.Duration())
	assert.False(t, r.Succeeded())

	end := start.Add(90 * time.Second)
	r.FinishedAt = &end
	assert.Equal(t, 90*time.Second, r.Duration())
	assert.True(t, r.Succeeded())

	r.Error = "boom"
	assert.False(t, r.Succeeded())
}

func TestSyncStats_Writes(t *testing.T) {
	s := SyncStats{BooksConsidered: 10, BooksSkipped: 4, BooksCreated: 1, BooksUpdated: 2, RecordsCreated: 3, RecordsUnchanged: 7, NodesCreated: 4}
	assert.Equal(t, 10, s.Writes())
}
