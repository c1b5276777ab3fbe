package weread

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/shelfsync/shelfsync/internal/ratelimit"
	"github.com/shelfsync/shelfsync/internal/validation"
)

const (
	// Rate limit: 2 requests per second per host, burst of 4
	defaultRPS   = 2.0
	defaultBurst = 4

	defaultTimeout = 30 * time.Second

	webBase  = "https://weread.qq.com"
	dataBase = "https://i.weread.qq.com"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"
)

// Client is a rate-limited WeRead API client authenticated by the cookies
// of a logged-in web session.
type Client struct {
	http     *http.Client
	limiter  *ratelimit.KeyedRateLimiter
	validate *validation.Validator
	logger   *slog.Logger
	cookies  []*http.Cookie

	webURL  string
	dataURL string
}

// New creates a client from a Cookie header value copied from the browser.
func New(cookie string, logger *slog.Logger) (*Client, error) {
	if cookie == "" {
		return nil, ErrNoCookie
	}
	cookies, err := http.ParseCookie(cookie)
	if err != nil {
		return nil, fmt.Errorf("parse cookie: %w", err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
		limiter:  ratelimit.New(defaultRPS, defaultBurst),
		validate: validation.New(),
		logger:   logger,
		cookies:  cookies,
	}
	if err := c.setBase(webBase, dataBase); err != nil {
		return nil, err
	}
	return c, nil
}

// setBase points the client at the given hosts and seeds the session
// cookies for both.
func (c *Client) setBase(web, data string) error {
	for _, base := range []string{web, data} {
		u, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("parse base url %q: %w", base, err)
		}
		c.http.Jar.SetCookies(u, c.cookies)
	}
	c.webURL, c.dataURL = web, data
	return nil
}

// doRequest executes a GET with rate limiting and returns the body of a
// successful response.
func (c *Client) doRequest(ctx context.Context, base, path string, query url.Values) ([]byte, error) {
	u, err := url.Parse(base + path)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	if err := c.limiter.Wait(ctx, u.Host); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	c.logger.Debug("weread request",
		"host", u.Host,
		"path", path,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// getJSON fetches a JSON endpoint, checks its errcode, and decodes it into out.
func (c *Client) getJSON(ctx context.Context, base, path string, query url.Values, out any) error {
	body, err := c.doRequest(ctx, base, path, query)
	if err != nil {
		return err
	}

	var status rawStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if status.ErrCode != 0 {
		return &CodeError{Code: status.ErrCode, Message: status.ErrMsg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// Refresh visits the home page so the jar picks up rotated session cookies.
func (c *Client) Refresh(ctx context.Context) error {
	if _, err := c.doRequest(ctx, c.webURL, "/", nil); err != nil {
		return wrapError("refresh", "", err)
	}
	return nil
}

// Shelf returns the bookshelf with progress entries and archive folders.
// Entries without a book id are dropped.
func (c *Client) Shelf(ctx context.Context) (*Shelf, error) {
	var resp rawShelf
	if err := c.getJSON(ctx, c.webURL, "/web/shelf/sync", nil, &resp); err != nil {
		return nil, wrapError("shelf", "", err)
	}

	shelf := &Shelf{
		Books:    make([]ShelfBook, 0, len(resp.Books)),
		Progress: make(map[string]Progress, len(resp.BookProgress)),
	}
	for _, b := range resp.Books {
		if err := c.validate.Validate(b); err != nil {
			c.logger.Debug("dropping shelf book", "error", err)
			continue
		}
		shelf.Books = append(shelf.Books, b)
	}
	for _, p := range resp.BookProgress {
		if err := c.validate.Validate(p); err != nil {
			c.logger.Warn("dropping shelf progress entry", "book_id", p.BookID, "error", err)
			continue
		}
		shelf.Progress[p.BookID] = p
	}
	for _, a := range resp.Archive {
		shelf.Archives = append(shelf.Archives, Archive{Name: a.Name, BookIDs: a.BookIDs})
	}
	return shelf, nil
}

// BookInfo returns catalog information for a book, or nil if WeRead
// returned a record without a book id.
func (c *Client) BookInfo(ctx context.Context, bookID string) (*BookFields, error) {
	query := url.Values{}
	query.Set("bookId", bookID)

	var resp rawFields
	if err := c.getJSON(ctx, c.webURL, "/web/book/info", query, &resp); err != nil {
		return nil, wrapError("bookInfo", bookID, err)
	}
	if resp.BookID == nil || *resp.BookID == "" {
		return nil, nil
	}
	fields := resp.fields()
	return &fields, nil
}

// ReadInfo returns reading statistics for a book, including the per-day
// breakdown when WeRead has one.
func (c *Client) ReadInfo(ctx context.Context, bookID string) (*ReadInfo, error) {
	query := url.Values{}
	query.Set("bookId", bookID)
	query.Set("readingDetail", "1")
	query.Set("readingBookIndex", "1")
	query.Set("finishedDate", "1")

	var resp rawReadInfo
	if err := c.getJSON(ctx, c.webURL, "/web/book/readinfo", query, &resp); err != nil {
		return nil, wrapError("readInfo", bookID, err)
	}
	return resp.readInfo(), nil
}

// Notebooks returns the books that have highlights or reviews.
func (c *Client) Notebooks(ctx context.Context) ([]Notebook, error) {
	var resp rawNotebooks
	if err := c.getJSON(ctx, c.webURL, "/api/user/notebook", nil, &resp); err != nil {
		return nil, wrapError("notebooks", "", err)
	}

	notebooks := make([]Notebook, 0, len(resp.Books))
	for _, b := range resp.Books {
		nb := Notebook{
			BookID:        b.BookID,
			Title:         b.Book.Title,
			ReviewCount:   b.ReviewCount,
			NoteCount:     b.NoteCount,
			BookmarkCount: b.BookmarkCount,
			Sort:          b.Sort,
		}
		if err := c.validate.Validate(nb); err != nil {
			c.logger.Debug("dropping notebook", "error", err)
			continue
		}
		notebooks = append(notebooks, nb)
	}
	return notebooks, nil
}

// ReadTimes returns the account-wide seconds read per day, keyed by the
// epoch second of the day's start.
func (c *Client) ReadTimes(ctx context.Context) (map[int64]int64, error) {
	query := url.Values{}
	query.Set("synckey", "0")

	var resp rawReadTimes
	if err := c.getJSON(ctx, c.dataURL, "/readdata/summary", query, &resp); err != nil {
		return nil, wrapError("readTimes", "", err)
	}
	return resp.series(), nil
}

// Bookmarks returns the highlights of a book.
func (c *Client) Bookmarks(ctx context.Context, bookID string) ([]Bookmark, error) {
	query := url.Values{}
	query.Set("bookId", bookID)

	var resp struct {
		Updated []rawBookmark `json:"updated"`
	}
	if err := c.getJSON(ctx, c.webURL, "/web/book/bookmarklist", query, &resp); err != nil {
		return nil, wrapError("bookmarks", bookID, err)
	}

	marks := make([]Bookmark, 0, len(resp.Updated))
	for _, r := range resp.Updated {
		m := r.bookmark()
		if err := c.validate.Validate(m); err != nil {
			c.logger.Debug("dropping bookmark", "book_id", bookID, "error", err)
			continue
		}
		marks = append(marks, m)
	}
	return marks, nil
}

// Reviews returns the user's own reviews and notes on a book.
func (c *Client) Reviews(ctx context.Context, bookID string) ([]Review, error) {
	query := url.Values{}
	query.Set("bookId", bookID)
	query.Set("listType", "11")
	query.Set("mine", "1")
	query.Set("syncKey", "0")

	var resp rawReviews
	if err := c.getJSON(ctx, c.webURL, "/web/review/list", query, &resp); err != nil {
		return nil, wrapError("reviews", bookID, err)
	}

	reviews := make([]Review, 0, len(resp.Reviews))
	for _, r := range resp.Reviews {
		rv := r.Review.review()
		if err := c.validate.Validate(rv); err != nil {
			c.logger.Debug("dropping review", "book_id", bookID, "error", err)
			continue
		}
		reviews = append(reviews, rv)
	}
	return reviews, nil
}

// BookURL returns the canonical reader URL of a book.
func (c *Client) BookURL(bookID string) string {
	return BookURL(bookID)
}
