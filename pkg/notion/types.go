package notion

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Record is one row of a Notion database.
type Record struct {
	ID    string
	Title string
	URL   string
}

// APIError is a non-200 response from the Notion API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("Notion API request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("Notion API request failed with status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

func newAPIError(status int, body []byte) (apiErr *APIError) {
	apiErr = &APIError{StatusCode: status}
	if gjson.ValidBytes(body) {
		apiErr.Code = gjson.GetBytes(body, "code").String()
		apiErr.Message = gjson.GetBytes(body, "message").String()
	}
	return apiErr
}

// parseRecord extracts id, title and url from a page object. The title is the
// first run of the title property; a record without one is malformed.
func parseRecord(page gjson.Result, titleProperty string) (record Record, err error) {
	id := page.Get("id")
	if !id.Exists() {
		err = errors.New("record has no id")
		return record, err
	}
	record.ID = id.String()

	pageURL := page.Get("url")
	if !pageURL.Exists() {
		err = errors.Errorf("record %s has no url", record.ID)
		return record, err
	}
	record.URL = pageURL.String()

	var property gjson.Result
	page.Get("properties").ForEach(func(key, value gjson.Result) bool {
		if key.String() == titleProperty {
			property = value
			return false
		}
		return true
	})
	if !property.Exists() {
		err = errors.Errorf("record %s has no %q property", record.ID, titleProperty)
		return record, err
	}

	content := property.Get("title.0.text.content")
	if !content.Exists() {
		err = errors.Errorf("record %s has an empty %q title", record.ID, titleProperty)
		return record, err
	}
	record.Title = content.String()

	return record, err
}

// paragraphText concatenates the rich text runs of a paragraph block. ok is
// false for a paragraph without runs.
func paragraphText(paragraph gjson.Result) (text string, ok bool, err error) {
	runs := paragraph.Get("rich_text")
	if !runs.IsArray() {
		err = errors.New("paragraph has no rich_text array")
		return text, ok, err
	}

	var sb strings.Builder
	for i, run := range runs.Array() {
		content := run.Get("text.content")
		if !content.Exists() {
			// Mentions and equations carry no text object, only the rendered plain_text.
			content = run.Get("plain_text")
		}
		if !content.Exists() {
			err = errors.Errorf("rich text run %d has no text", i)
			return text, ok, err
		}
		sb.WriteString(content.String())
		ok = true
	}

	text = sb.String()
	return text, ok, err
}
