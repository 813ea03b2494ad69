package notion

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// APIEndpoint is the Notion REST API base URL.
	APIEndpoint = "https://api.notion.com/v1"
	// APIVersion is the Notion-Version header value the response shapes below are written against.
	APIVersion = "2022-06-28"
	// DefaultTitleProperty is the database property holding each record's title.
	DefaultTitleProperty = "Name"
	// DefaultRequestsPerSecond is Notion's published average request limit per integration.
	DefaultRequestsPerSecond = 3.0
	// DefaultTimeout bounds a single HTTP round trip.
	DefaultTimeout = 30 * time.Second

	pageSize = 100
)

// Options tunes a Client. Zero values fall back to the package defaults.
type Options struct {
	Version           string
	BaseURL           string
	TitleProperty     string
	RequestsPerSecond float64
	Timeout           time.Duration
	Logger            *zap.SugaredLogger
}

// Client represents a Notion API client.
type Client struct {
	apiKey        string
	version       string
	endpoint      string
	titleProperty string
	httpClient    *http.Client
	limiter       *rate.Limiter
	logger        *zap.SugaredLogger
}

// NewClient creates a new Notion API client.
func NewClient(apiKey string, opts Options) (client *Client) {
	if opts.Version == "" {
		opts.Version = APIVersion
	}
	if opts.BaseURL == "" {
		opts.BaseURL = APIEndpoint
	}
	if opts.TitleProperty == "" {
		opts.TitleProperty = DefaultTitleProperty
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	client = &Client{
		apiKey:        apiKey,
		version:       opts.Version,
		endpoint:      opts.BaseURL,
		titleProperty: opts.TitleProperty,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		logger:  opts.Logger,
	}
	return client
}

// DatabaseTitle returns the plain text of the first title run of a database.
func (c *Client) DatabaseTitle(ctx context.Context, databaseID string) (title string, err error) {
	var body []byte
	body, err = c.sendRequest(ctx, http.MethodGet, "/databases/"+url.PathEscape(databaseID), nil, nil)
	if err != nil {
		err = errors.Wrapf(err, "failed to retrieve database %s", databaseID)
		return title, err
	}

	content := gjson.GetBytes(body, "title.0.text.content")
	if !content.Exists() {
		err = errors.Errorf("database %s response has no title text", databaseID)
		return title, err
	}

	title = content.String()
	return title, err
}

// Records queries every record of a database, following pagination in order.
func (c *Client) Records(ctx context.Context, databaseID string) (records []Record, err error) {
	path := "/databases/" + url.PathEscape(databaseID) + "/query"
	cursor := ""

	for {
		var reqBody []byte
		reqBody, err = queryBody(cursor)
		if err != nil {
			return records, err
		}

		var body []byte
		body, err = c.sendRequest(ctx, http.MethodPost, path, nil, reqBody)
		if err != nil {
			err = errors.Wrapf(err, "failed to query database %s", databaseID)
			return records, err
		}

		results := gjson.GetBytes(body, "results")
		if !results.IsArray() {
			err = errors.Errorf("database %s query response has no results array", databaseID)
			return records, err
		}

		for _, result := range results.Array() {
			var record Record
			record, err = parseRecord(result, c.titleProperty)
			if err != nil {
				err = errors.Wrapf(err, "malformed record at index %d of database %s", len(records), databaseID)
				return records, err
			}
			records = append(records, record)
		}

		cursor, err = nextCursor(body)
		if err != nil {
			err = errors.Wrapf(err, "database %s query", databaseID)
			return records, err
		}
		if cursor == "" {
			break
		}
	}

	c.logger.Debugw("queried database", "database_id", databaseID, "count", len(records))

	return records, err
}

// Description returns one string per paragraph block under a page, each the
// concatenation of the paragraph's rich text runs. Other block types are skipped.
func (c *Client) Description(ctx context.Context, pageID string) (paragraphs []string, err error) {
	path := "/blocks/" + url.PathEscape(pageID) + "/children"
	cursor := ""

	for {
		query := url.Values{}
		query.Set("page_size", strconv.Itoa(pageSize))
		if cursor != "" {
			query.Set("start_cursor", cursor)
		}

		var body []byte
		body, err = c.sendRequest(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			err = errors.Wrapf(err, "failed to list blocks of page %s", pageID)
			return paragraphs, err
		}

		results := gjson.GetBytes(body, "results")
		if !results.IsArray() {
			err = errors.Errorf("page %s block response has no results array", pageID)
			return paragraphs, err
		}

		for i, block := range results.Array() {
			paragraph := block.Get("paragraph")
			if !paragraph.Exists() {
				continue
			}

			var text string
			var ok bool
			text, ok, err = paragraphText(paragraph)
			if err != nil {
				err = errors.Wrapf(err, "malformed paragraph at block %d of page %s", i, pageID)
				return paragraphs, err
			}
			if ok {
				paragraphs = append(paragraphs, text)
			}
		}

		cursor, err = nextCursor(body)
		if err != nil {
			err = errors.Wrapf(err, "page %s children", pageID)
			return paragraphs, err
		}
		if cursor == "" {
			break
		}
	}

	c.logger.Debugw("fetched description", "page_id", pageID, "count", len(paragraphs))

	return paragraphs, err
}

// sendRequest sends a request to the Notion API and returns the raw JSON body.
func (c *Client) sendRequest(ctx context.Context, method, path string, query url.Values, reqBody []byte) (respBody []byte, err error) {
	err = c.limiter.Wait(ctx)
	if err != nil {
		err = errors.Wrap(err, "rate limiter wait aborted")
		return respBody, err
	}

	target := c.endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if reqBody != nil {
		bodyReader = bytes.NewReader(reqBody)
	}

	// Create HTTP request
	var httpReq *http.Request
	httpReq, err = http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return respBody, err
	}

	// Set headers
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Notion-Version", c.version)
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()

	// Send request
	var resp *http.Response
	resp, err = c.httpClient.Do(httpReq)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return respBody, err
	}
	defer resp.Body.Close()

	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return respBody, err
	}

	c.logger.Debugw("notion request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		err = newAPIError(resp.StatusCode, respBody)
		return respBody, err
	}

	if !gjson.ValidBytes(respBody) {
		err = errors.Errorf("response from %s %s is not valid JSON", method, path)
		return respBody, err
	}

	return respBody, err
}

// queryBody builds the JSON body of a database query.
func queryBody(cursor string) (body []byte, err error) {
	body, err = sjson.SetBytes([]byte(`{}`), "page_size", pageSize)
	if err != nil {
		err = errors.Wrap(err, "failed to build query body")
		return body, err
	}

	if cursor != "" {
		body, err = sjson.SetBytes(body, "start_cursor", cursor)
		if err != nil {
			err = errors.Wrap(err, "failed to set query cursor")
			return body, err
		}
	}

	return body, err
}

// nextCursor returns the cursor of the next page, or "" on the last page.
func nextCursor(body []byte) (cursor string, err error) {
	if !gjson.GetBytes(body, "has_more").Bool() {
		return cursor, err
	}

	cursor = gjson.GetBytes(body, "next_cursor").String()
	if cursor == "" {
		err = errors.New("has_more is set but next_cursor is empty")
		return cursor, err
	}

	return cursor, err
}
