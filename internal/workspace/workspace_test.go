package workspace

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/shelfsync/shelfsync/internal/errors"
	"github.com/shelfsync/shelfsync/internal/retry"
)

// flaky fails the first failures calls of every method, then serves rows.
type flaky struct {
	failures int
	calls    int
	rows     int
	err      error
}

func (f *flaky) fail() error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func (f *flaky) Query(_ context.Context, _ string, _ *Filter, cursor string, pageSize int) (*QueryResult, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	res := &QueryResult{}
	for i := start; i < f.rows && i < start+pageSize; i++ {
		res.Pages = append(res.Pages, Page{ID: strconv.Itoa(i)})
	}
	if start+pageSize < f.rows {
		res.HasMore = true
		res.NextCursor = strconv.Itoa(start + pageSize)
	}
	return res, nil
}

func (f *flaky) CreatePage(context.Context, string, Properties, string, string) (*Page, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return &Page{ID: "new"}, nil
}

func (f *flaky) UpdatePage(_ context.Context, id string, _ Properties, _ string) (*Page, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return &Page{ID: id}, nil
}

func (f *flaky) RetrieveDatabase(_ context.Context, id string) (*Database, error) {
	return &Database{ID: id}, f.fail()
}

func (f *flaky) UpdateDatabase(_ context.Context, id string, _ Schema) (*Database, error) {
	return &Database{ID: id}, f.fail()
}

func (f *flaky) CreateDatabase(_ context.Context, _, title, _ string, _ Schema) (*Database, error) {
	return &Database{ID: "db", Title: title}, f.fail()
}

func (f *flaky) ListChildren(context.Context, string) ([]Block, error) {
	return nil, f.fail()
}

func fastPolicy() retry.Policy {
	return retry.Policy{Attempts: 3, Delay: time.Millisecond}
}

func TestQueryAll_FollowsCursors(t *testing.T) {
	ws := &flaky{rows: 234}

	pages, err := QueryAll(context.Background(), ws, "db", nil)
	require.NoError(t, err)
	assert.Len(t, pages, 234)
	assert.Equal(t, "233", pages[233].ID)
	assert.Equal(t, 3, ws.calls)
}

func TestWithRetry_RecoversFromTransientFailures(t *testing.T) {
	ws := &flaky{failures: 2, err: errors.New("502 bad gateway")}

	page, err := WithRetry(ws, fastPolicy()).CreatePage(context.Background(), "db", Properties{}, "", "")
	require.NoError(t, err)
	assert.Equal(t, "new", page.ID)
	assert.Equal(t, 3, ws.calls)
}

func TestWithRetry_ExhaustionIsDestinationError(t *testing.T) {
	ws := &flaky{failures: 10, err: errors.New("timeout")}

	_, err := WithRetry(ws, fastPolicy()).UpdatePage(context.Background(), "p1", Properties{}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrDestination)
	assert.Equal(t, 3, ws.calls)
}

func TestWithRetry_CallerErrorsFailFast(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		want  error
		calls int
	}{
		{"bad request", domainerrors.Validation("body failed validation"), domainerrors.ErrValidation, 1},
		{"rejected token", domainerrors.Config("notion rejected the integration token"), domainerrors.ErrConfig, 1},
		{"missing page", domainerrors.NotFound("page p1"), domainerrors.ErrNotFound, 1},
		{"rate limited", domainerrors.ErrRateLimited, domainerrors.ErrDestination, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := &flaky{failures: 10, err: tt.err}

			_, err := WithRetry(ws, fastPolicy()).Query(context.Background(), "db", nil, "", 100)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.calls, ws.calls)
		})
	}
}

func TestFilter_Match(t *testing.T) {
	props := Properties{
		"Title":     Title("2024-01-01"),
		"Bookshelf": Relation("p1", "p2"),
	}

	var none *Filter
	assert.True(t, none.Match(props))
	assert.True(t, TitleEquals("Title", "2024-01-01").Match(props))
	assert.False(t, TitleEquals("Title", "2024-01-02").Match(props))
	assert.True(t, RelationContains("Bookshelf", "p2").Match(props))
	assert.False(t, RelationContains("Bookshelf", "p3").Match(props))
	assert.False(t, RelationContains("Author", "p1").Match(props))
}

func TestTextIsTruncated(t *testing.T) {
	long := strings.Repeat("读", MaxTextLength+10)

	assert.Equal(t, MaxTextLength, len([]rune(RichText(long).Text)))
	assert.Equal(t, MaxTextLength, len([]rune(Title(long).Text)))
	assert.Equal(t, "short", Title("short").Text)
}

func TestDate_FormatsInZone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	start := time.Date(2023, 12, 31, 16, 0, 0, 0, time.UTC)
	p := Date(start, start.AddDate(0, 0, 6), loc)

	require.NotNil(t, p.Date)
	assert.Equal(t, "2024-01-01 00:00:00", p.Date.Start)
	assert.Equal(t, "2024-01-07 00:00:00", p.Date.End)
	assert.Equal(t, "Asia/Shanghai", p.Date.TimeZone)

	got, ok := p.Date.StartTime(time.UTC)
	require.True(t, ok)
	assert.True(t, got.Equal(start))

	single := Date(start, time.Time{}, loc)
	assert.Empty(t, single.Date.End)
}

func TestCursorRoundTrip(t *testing.T) {
	key, err := DecodeCursor(EncodeCursor("42"))
	require.NoError(t, err)
	assert.Equal(t, "42", key)

	_, err = DecodeCursor("%%%")
	assert.Error(t, err)
}
