package achievement

import (
	"context"
	"fmt"

	"github.com/nikogura/notion-enum/pkg/notion"
	"github.com/pkg/errors"
)

// ErrEmptyIdentifier is returned for a title that contains no words.
var ErrEmptyIdentifier = errors.New("title produces an empty identifier")

// Achievement is one database record in the form the emitter consumes.
type Achievement struct {
	ID          string
	DisplayName string
	Identifier  string
	Description []string
	URL         string
}

// Source is the remote record store the transformer reads from.
// *notion.Client satisfies it.
type Source interface {
	DatabaseTitle(ctx context.Context, databaseID string) (title string, err error)
	Records(ctx context.Context, databaseID string) (records []notion.Record, err error)
	Description(ctx context.Context, pageID string) (paragraphs []string, err error)
}

// CollisionError reports two titles that derive the same identifier.
type CollisionError struct {
	Identifier string
	First      string
	Second     string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("titles %q and %q both produce identifier %s", e.First, e.Second, e.Identifier)
}
