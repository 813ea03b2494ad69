package notion

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, handler http.Handler) (client *Client) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client = NewClient("test-key", Options{
		BaseURL:           server.URL,
		RequestsPerSecond: 1000,
		Logger:            zaptest.NewLogger(t).Sugar(),
	})
	return client
}

func page(id, title, url string) (p map[string]interface{}) {
	p = map[string]interface{}{
		"object": "page",
		"id":     id,
		"url":    url,
		"properties": map[string]interface{}{
			"Name": map[string]interface{}{
				"type": "title",
				"title": []interface{}{
					map[string]interface{}{"text": map[string]interface{}{"content": title}},
				},
			},
		},
	}
	return p
}

func paragraphBlock(runs ...string) (block map[string]interface{}) {
	richText := make([]interface{}, 0, len(runs))
	for _, r := range runs {
		richText = append(richText, map[string]interface{}{
			"type":       "text",
			"text":       map[string]interface{}{"content": r},
			"plain_text": r,
		})
	}
	block = map[string]interface{}{
		"type":      "paragraph",
		"paragraph": map[string]interface{}{"rich_text": richText},
	}
	return block
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err := json.NewEncoder(w).Encode(v)
	assert.NoError(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("secret", Options{})

	assert.Equal(t, "secret", client.apiKey)
	assert.Equal(t, APIEndpoint, client.endpoint)
	assert.Equal(t, APIVersion, client.version)
	assert.Equal(t, DefaultTitleProperty, client.titleProperty)
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
	assert.NotNil(t, client.limiter)
	assert.NotNil(t, client.logger)
}

func TestDatabaseTitle(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/databases/db-1", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, APIVersion, r.Header.Get("Notion-Version"))

		writeJSON(t, w, map[string]interface{}{
			"object": "database",
			"title": []interface{}{
				map[string]interface{}{"text": map[string]interface{}{"content": "Steam Achievements"}},
			},
		})
	}))

	title, err := client.DatabaseTitle(context.Background(), "db-1")
	require.NoError(t, err)
	assert.Equal(t, "Steam Achievements", title)
}

func TestDatabaseTitleMissing(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{"object": "database", "title": []interface{}{}})
	}))

	_, err := client.DatabaseTitle(context.Background(), "db-1")
	assert.Error(t, err)
}

func TestRecordsPaginates(t *testing.T) {
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/databases/db-1/query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, int64(pageSize), gjson.GetBytes(body, "page_size").Int())

		calls++
		switch gjson.GetBytes(body, "start_cursor").String() {
		case "":
			writeJSON(t, w, map[string]interface{}{
				"results":     []interface{}{page("1", "First Win", "http://x/1")},
				"has_more":    true,
				"next_cursor": "cursor-2",
			})
		case "cursor-2":
			writeJSON(t, w, map[string]interface{}{
				"results":     []interface{}{page("2", "second try", "http://x/2")},
				"has_more":    false,
				"next_cursor": nil,
			})
		default:
			t.Errorf("unexpected cursor in %s", body)
		}
	}))

	records, err := client.Records(context.Background(), "db-1")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []Record{
		{ID: "1", Title: "First Win", URL: "http://x/1"},
		{ID: "2", Title: "second try", URL: "http://x/2"},
	}, records)
}

func TestRecordsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		result map[string]interface{}
	}{
		{
			name:   "missing id",
			result: map[string]interface{}{"url": "http://x", "properties": map[string]interface{}{}},
		},
		{
			name:   "missing title property",
			result: map[string]interface{}{"id": "1", "url": "http://x", "properties": map[string]interface{}{}},
		},
		{
			name: "empty title list",
			result: map[string]interface{}{
				"id":  "1",
				"url": "http://x",
				"properties": map[string]interface{}{
					"Name": map[string]interface{}{"title": []interface{}{}},
				},
			},
		},
		{
			name:   "missing url",
			result: map[string]interface{}{"id": "1", "properties": page("1", "T", "u")["properties"]},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, map[string]interface{}{
					"results":  []interface{}{page("0", "Good", "http://x/0"), tt.result},
					"has_more": false,
				})
			}))

			_, err := client.Records(context.Background(), "db-1")
			assert.Error(t, err)
		})
	}
}

func TestRecordsCustomTitleProperty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"results": []interface{}{
				map[string]interface{}{
					"id":  "1",
					"url": "http://x/1",
					"properties": map[string]interface{}{
						"Achievement.Name": map[string]interface{}{
							"title": []interface{}{
								map[string]interface{}{"text": map[string]interface{}{"content": "Dotted"}},
							},
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient("k", Options{BaseURL: server.URL, TitleProperty: "Achievement.Name", RequestsPerSecond: 1000})

	records, err := client.Records(context.Background(), "db")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Dotted", records[0].Title)
}

func TestDescription(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/blocks/page-1/children", r.URL.Path)

		switch r.URL.Query().Get("start_cursor") {
		case "":
			writeJSON(t, w, map[string]interface{}{
				"results": []interface{}{
					paragraphBlock("Hello", " world"),
					map[string]interface{}{"type": "heading_1", "heading_1": map[string]interface{}{}},
					paragraphBlock(),
				},
				"has_more":    true,
				"next_cursor": "next",
			})
		case "next":
			writeJSON(t, w, map[string]interface{}{
				"results": []interface{}{
					paragraphBlock("Second paragraph"),
					map[string]interface{}{
						"type": "paragraph",
						"paragraph": map[string]interface{}{
							"rich_text": []interface{}{
								map[string]interface{}{"type": "mention", "plain_text": "@Someone"},
							},
						},
					},
				},
				"has_more": false,
			})
		}
	}))

	paragraphs, err := client.Description(context.Background(), "page-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello world", "Second paragraph", "@Someone"}, paragraphs)
}

func TestDescriptionMalformedRun(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"results": []interface{}{
				map[string]interface{}{
					"type":      "paragraph",
					"paragraph": map[string]interface{}{"rich_text": []interface{}{map[string]interface{}{}}},
				},
			},
		})
	}))

	_, err := client.Description(context.Background(), "page-1")
	assert.Error(t, err)
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"object":"error","status":404,"code":"object_not_found","message":"Could not find database"}`))
	}))

	_, err := client.DatabaseTitle(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "object_not_found", apiErr.Code)
	assert.Contains(t, err.Error(), "Could not find database")
}

func TestInvalidJSON(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))

	_, err := client.Records(context.Background(), "db-1")
	assert.Error(t, err)
}

func TestRequestTimeout(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		writeJSON(t, w, map[string]interface{}{"results": []interface{}{}})
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.Description(ctx, "slow")
	assert.Error(t, err)
}
