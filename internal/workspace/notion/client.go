// Package notion implements workspace.Workspace on the Notion REST API.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shelfsync/shelfsync/internal/ratelimit"
	"github.com/shelfsync/shelfsync/internal/workspace"
)

const (
	// Notion allows an average of three requests per second per integration.
	defaultRPS   = 3.0
	defaultBurst = 3

	defaultTimeout = 30 * time.Second

	apiBase    = "https://api.notion.com/v1"
	apiVersion = "2022-06-28"
	limiterKey = "api.notion.com"
)

// Client is a rate-limited Notion API client.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
	token   string
	baseURL string
}

var _ workspace.Workspace = (*Client)(nil)

// New creates a client authenticating with an internal integration token.
func New(token string, logger *slog.Logger) *Client {
	return &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		logger:  logger,
		token:   token,
		baseURL: apiBase,
	}
}

// doRequest executes an API call with rate limiting and decodes the JSON
// response into out.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("notion request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return newAPIError(resp.StatusCode, apiErr.Code, apiErr.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// Query returns one page of rows of a database.
func (c *Client) Query(ctx context.Context, databaseID string, filter *workspace.Filter, cursor string, pageSize int) (*workspace.QueryResult, error) {
	body := map[string]any{"page_size": pageSize}
	if cursor != "" {
		body["start_cursor"] = cursor
	}
	if filter != nil {
		body["filter"] = encodeFilter(filter)
	}

	var resp rawList[rawPage]
	if err := c.doRequest(ctx, http.MethodPost, "/databases/"+databaseID+"/query", nil, body, &resp); err != nil {
		return nil, wrapError("query", databaseID, err)
	}

	res := &workspace.QueryResult{
		Pages:   make([]workspace.Page, 0, len(resp.Results)),
		HasMore: resp.HasMore,
	}
	if resp.NextCursor != nil {
		res.NextCursor = *resp.NextCursor
	}
	for _, p := range resp.Results {
		res.Pages = append(res.Pages, decodePage(p))
	}
	return res, nil
}

func encodeFilter(f *workspace.Filter) map[string]any {
	switch f.Type {
	case workspace.TypeRelation:
		return map[string]any{"property": f.Property, "relation": map[string]any{"contains": f.Contains}}
	default:
		return map[string]any{"property": f.Property, string(f.Type): map[string]any{"equals": f.Equals}}
	}
}

// CreatePage adds a row to a database.
func (c *Client) CreatePage(ctx context.Context, databaseID string, props workspace.Properties, iconURL, coverURL string) (*workspace.Page, error) {
	body := map[string]any{
		"parent":     map[string]any{"type": "database_id", "database_id": databaseID},
		"properties": encodeProperties(props),
	}
	if iconURL != "" {
		body["icon"] = icon(iconURL)
	}
	if coverURL != "" {
		body["cover"] = icon(coverURL)
	}

	var resp rawPage
	if err := c.doRequest(ctx, http.MethodPost, "/pages", nil, body, &resp); err != nil {
		return nil, wrapError("createPage", databaseID, err)
	}
	page := decodePage(resp)
	return &page, nil
}

// UpdatePage changes properties of a row and, if coverURL is set, its cover.
func (c *Client) UpdatePage(ctx context.Context, pageID string, props workspace.Properties, coverURL string) (*workspace.Page, error) {
	body := map[string]any{"properties": encodeProperties(props)}
	if coverURL != "" {
		body["cover"] = icon(coverURL)
	}

	var resp rawPage
	if err := c.doRequest(ctx, http.MethodPatch, "/pages/"+pageID, nil, body, &resp); err != nil {
		return nil, wrapError("updatePage", pageID, err)
	}
	page := decodePage(resp)
	return &page, nil
}

// RetrieveDatabase returns a database and its schema.
func (c *Client) RetrieveDatabase(ctx context.Context, databaseID string) (*workspace.Database, error) {
	var resp rawDatabase
	if err := c.doRequest(ctx, http.MethodGet, "/databases/"+databaseID, nil, nil, &resp); err != nil {
		return nil, wrapError("retrieveDatabase", databaseID, err)
	}
	return decodeDatabase(resp), nil
}

// UpdateDatabase adds or retypes schema properties.
func (c *Client) UpdateDatabase(ctx context.Context, databaseID string, schema workspace.Schema) (*workspace.Database, error) {
	body := map[string]any{"properties": encodeSchema(schema)}

	var resp rawDatabase
	if err := c.doRequest(ctx, http.MethodPatch, "/databases/"+databaseID, nil, body, &resp); err != nil {
		return nil, wrapError("updateDatabase", databaseID, err)
	}
	return decodeDatabase(resp), nil
}

// CreateDatabase creates an inline database under a page.
func (c *Client) CreateDatabase(ctx context.Context, parentPageID, title, iconURL string, schema workspace.Schema) (*workspace.Database, error) {
	body := map[string]any{
		"parent":     map[string]any{"type": "page_id", "page_id": parentPageID},
		"title":      textValue(title),
		"properties": encodeSchema(schema),
	}
	if iconURL != "" {
		body["icon"] = icon(iconURL)
	}

	var resp rawDatabase
	if err := c.doRequest(ctx, http.MethodPost, "/databases", nil, body, &resp); err != nil {
		return nil, wrapError("createDatabase", parentPageID, err)
	}
	return decodeDatabase(resp), nil
}

// ListChildren returns every child block of a block, following cursors.
func (c *Client) ListChildren(ctx context.Context, blockID string) ([]workspace.Block, error) {
	var (
		blocks []workspace.Block
		cursor string
	)
	for {
		query := url.Values{}
		query.Set("page_size", strconv.Itoa(workspace.DefaultPageSize))
		if cursor != "" {
			query.Set("start_cursor", cursor)
		}

		var resp rawList[rawBlock]
		if err := c.doRequest(ctx, http.MethodGet, "/blocks/"+blockID+"/children", query, nil, &resp); err != nil {
			return nil, wrapError("listChildren", blockID, err)
		}
		for _, b := range resp.Results {
			blocks = append(blocks, decodeBlock(b))
		}
		if !resp.HasMore || resp.NextCursor == nil {
			return blocks, nil
		}
		cursor = *resp.NextCursor
	}
}
