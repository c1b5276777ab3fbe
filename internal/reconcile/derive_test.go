package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shelfsync/shelfsync/internal/domain"
	"github.com/shelfsync/shelfsync/internal/weread"
)

func TestDerive_StatusAndProgress(t *testing.T) {
	tests := []struct {
		name     string
		fields   weread.BookFields
		status   domain.ReadingStatus
		progress float64
		rating   string
	}{
		{
			name:     "finished without rating",
			fields:   weread.BookFields{MarkedStatus: ptr(4), ReadingProgress: ptr(87)},
			status:   domain.StatusComplete,
			progress: 1,
			rating:   domain.RatingNotRated,
		},
		{
			name:     "finished and rated good",
			fields:   weread.BookFields{MarkedStatus: ptr(4), MyRating: ptr("good")},
			status:   domain.StatusComplete,
			progress: 1,
			rating:   "⭐️⭐️⭐️⭐️⭐️",
		},
		{
			name:     "reading",
			fields:   weread.BookFields{ReadingTime: ptr(int64(60)), ReadingProgress: ptr(42)},
			status:   domain.StatusInProgress,
			progress: 0.42,
		},
		{
			name:     "barely opened",
			fields:   weread.BookFields{ReadingTime: ptr(int64(59)), MyRating: ptr("fair")},
			status:   domain.StatusToDo,
			rating:   "⭐️⭐️⭐️",
		},
		{
			name:   "nothing known",
			status: domain.StatusToDo,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Derive(Record{BookFields: tt.fields})
			assert.Equal(t, tt.status, d.Status)
			assert.InDelta(t, tt.progress, d.Progress, 1e-9)
			assert.Equal(t, tt.rating, d.MyRating)
		})
	}
}

func TestEffectiveDate(t *testing.T) {
	tests := []struct {
		name   string
		fields weread.BookFields
		want   int64
	}{
		{"finish date wins", weread.BookFields{FinishedDate: ptr(int64(3)), LastReadingDate: ptr(int64(2)), ReadingBookDate: ptr(int64(1))}, 3},
		{"then last read", weread.BookFields{LastReadingDate: ptr(int64(2)), ReadingBookDate: ptr(int64(1))}, 2},
		{"zero finish date is absent", weread.BookFields{FinishedDate: ptr(int64(0)), ReadingBookDate: ptr(int64(1))}, 1},
		{"then shelf added", weread.BookFields{ReadingBookDate: ptr(int64(1))}, 1},
		{"all absent", weread.BookFields{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveDate(tt.fields))
		})
	}
}

func TestNormalizeCover(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://cdn.weread.qq.com/weread/cover/80/s_695233.jpg", "https://cdn.weread.qq.com/weread/cover/80/t7_695233.jpg"},
		{"https://cdn.weread.qq.com/weread/cover/80/t7_695233.jpg", "https://cdn.weread.qq.com/weread/cover/80/t7_695233.jpg"},
		{"", DefaultCover},
		{"   ", DefaultCover},
		{"//cdn.weread.qq.com/cover.jpg", DefaultCover},
		{"ftp://example.com/cover.jpg", DefaultCover},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCover(tt.in), "cover %q", tt.in)
	}
}

func TestSplitAuthors(t *testing.T) {
	assert.Equal(t, []string{"[美]", "尤瓦尔·赫拉利"}, SplitAuthors("［美］　尤瓦尔·赫拉利"))
	assert.Equal(t, []string{"刘慈欣"}, SplitAuthors("刘慈欣"))
	assert.Equal(t, []string{"a", "b"}, SplitAuthors("a  b "))
	assert.Empty(t, SplitAuthors(""))
}
