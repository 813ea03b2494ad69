package achievement

import (
	"context"
	"sync"

	"github.com/nikogura/notion-enum/pkg/notion"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of description fetches in flight at once.
const DefaultConcurrency = 4

// Transformer turns raw database records into achievements.
type Transformer struct {
	source      Source
	concurrency int
	logger      *zap.SugaredLogger

	// OnProgress, when set, is called after each description fetch with the
	// number of fetches finished so far. Calls are serialized.
	OnProgress func(done, total int)

	mu   sync.Mutex
	done int
}

// NewTransformer creates a transformer reading descriptions from source.
// A concurrency below 1 falls back to DefaultConcurrency.
func NewTransformer(source Source, concurrency int, logger *zap.SugaredLogger) (t *Transformer) {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	t = &Transformer{
		source:      source,
		concurrency: concurrency,
		logger:      logger,
	}
	return t
}

// Transform converts records to achievements in the same order. With
// withDocs set, each achievement's description is fetched from the source;
// otherwise no fetch happens and descriptions stay empty.
//
// Titles producing an empty identifier, and titles that collide on the same
// identifier, fail the whole call.
func (t *Transformer) Transform(ctx context.Context, records []notion.Record, withDocs bool) (achievements []Achievement, err error) {
	achievements, err = fromRecords(records)
	if err != nil {
		return achievements, err
	}

	if !withDocs {
		return achievements, err
	}

	err = t.attachDescriptions(ctx, achievements)
	if err != nil {
		achievements = nil
		return achievements, err
	}

	return achievements, err
}

// fromRecords derives identifiers and checks them for emptiness and uniqueness.
func fromRecords(records []notion.Record) (achievements []Achievement, err error) {
	achievements = make([]Achievement, 0, len(records))
	seen := make(map[string]string, len(records))

	for _, record := range records {
		identifier := Identifier(record.Title)
		if identifier == "" {
			err = errors.Wrapf(ErrEmptyIdentifier, "record %s (title %q)", record.ID, record.Title)
			return achievements, err
		}

		if previous, ok := seen[identifier]; ok {
			err = &CollisionError{Identifier: identifier, First: previous, Second: record.Title}
			return achievements, err
		}
		seen[identifier] = record.Title

		achievements = append(achievements, Achievement{
			ID:          record.ID,
			DisplayName: record.Title,
			Identifier:  identifier,
			URL:         record.URL,
		})
	}

	return achievements, err
}

// attachDescriptions fetches descriptions on a bounded pool. Each worker
// writes only to its own index, so results land in input order.
func (t *Transformer) attachDescriptions(ctx context.Context, achievements []Achievement) (err error) {
	t.mu.Lock()
	t.done = 0
	t.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)

	for i := range achievements {
		g.Go(func() (fetchErr error) {
			if gctx.Err() != nil {
				fetchErr = gctx.Err()
				return fetchErr
			}

			var paragraphs []string
			paragraphs, fetchErr = t.source.Description(gctx, achievements[i].ID)
			if fetchErr != nil {
				fetchErr = errors.Wrapf(fetchErr, "failed to fetch description of %q", achievements[i].DisplayName)
				return fetchErr
			}

			achievements[i].Description = paragraphs
			t.logger.Debugw("attached description",
				"page_id", achievements[i].ID,
				"identifier", achievements[i].Identifier,
				"count", len(paragraphs),
			)
			t.reportProgress(len(achievements))

			return fetchErr
		})
	}

	err = g.Wait()
	return err
}

func (t *Transformer) reportProgress(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done++
	if t.OnProgress != nil {
		t.OnProgress(t.done, total)
	}
}
