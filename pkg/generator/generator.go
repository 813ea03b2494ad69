// Package generator runs one fetch, transform, emit and write pass.
package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nikogura/notion-enum/pkg/achievement"
	"github.com/nikogura/notion-enum/pkg/codegen"
	"github.com/nikogura/notion-enum/pkg/notion"
	"github.com/nikogura/notion-enum/pkg/output"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Stage names a step of a run.
type Stage string

// Run stages, in execution order.
const (
	StageFetchTitle   Stage = "fetch-title"
	StageFetchRecords Stage = "fetch-records"
	StageTransform    Stage = "transform"
	StageEmit         Stage = "emit"
	StageWrite        Stage = "write"
)

// StageError tags a run failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

// Cause supports errors.Cause.
func (e *StageError) Cause() error { return e.Err }

// Unwrap supports errors.Is and errors.As.
func (e *StageError) Unwrap() error { return e.Err }

func stageError(stage Stage, err error) (wrapped error) {
	wrapped = &StageError{Stage: stage, Err: err}
	return wrapped
}

// Options configures a single run.
type Options struct {
	DatabaseID string
	// EnumName overrides the database title as the enum name.
	EnumName        string
	Derives         []string
	Visibility      string
	GenerateDocs    bool
	GenerateDisplay bool
	Concurrency     int
}

// Result describes a finished run.
type Result struct {
	// RawName is the enum name before spaces are stripped.
	RawName     string
	TypeName    string
	Variants    int
	Code        string
	Destination string
}

// Generator runs the pipeline against a record source.
type Generator struct {
	source achievement.Source
	logger *zap.SugaredLogger
	now    func() time.Time

	// OnProgress is passed through to the transformer.
	OnProgress func(done, total int)
}

// New creates a generator.
func New(source achievement.Source, logger *zap.SugaredLogger) (g *Generator) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	g = &Generator{
		source: source,
		logger: logger,
		now:    time.Now,
	}
	return g
}

// Generate fetches, transforms and emits, returning the source text without
// writing it anywhere.
func (g *Generator) Generate(ctx context.Context, opts Options) (result Result, err error) {
	if opts.DatabaseID == "" {
		err = errors.New("database id is required")
		return result, err
	}

	log := g.logger.With("database_id", opts.DatabaseID)

	result.RawName = opts.EnumName
	if result.RawName == "" {
		log.Debugw("no enum name given, using database title", "stage", StageFetchTitle)

		result.RawName, err = g.source.DatabaseTitle(ctx, opts.DatabaseID)
		if err != nil {
			err = stageError(StageFetchTitle, err)
			return result, err
		}
		if strings.TrimSpace(result.RawName) == "" {
			err = stageError(StageFetchTitle, errors.Errorf("database %s has a blank title, pass an explicit enum name", opts.DatabaseID))
			return result, err
		}
	}
	result.TypeName = codegen.TypeName(result.RawName)

	var records []notion.Record
	records, err = g.source.Records(ctx, opts.DatabaseID)
	if err != nil {
		err = stageError(StageFetchRecords, err)
		return result, err
	}
	log.Infow("fetched records", "stage", StageFetchRecords, "count", len(records))
	if len(records) == 0 {
		log.Warnw("database has no records, emitting an empty enum", "stage", StageFetchRecords)
	}

	transformer := achievement.NewTransformer(g.source, opts.Concurrency, g.logger)
	transformer.OnProgress = g.OnProgress

	var achievements []achievement.Achievement
	achievements, err = transformer.Transform(ctx, records, opts.GenerateDocs)
	if err != nil {
		err = stageError(StageTransform, err)
		return result, err
	}

	for _, a := range achievements {
		if !codegen.IsValidIdentifier(a.Identifier) {
			log.Warnw("variant name is not a valid Rust identifier", "identifier", a.Identifier, "title", a.DisplayName)
		}
	}

	spec := codegen.NewEnumSpec(result.RawName, opts.Derives)
	spec.Visibility = opts.Visibility
	spec.AddAchievements(achievements)

	result.Code, err = codegen.Generate(spec, codegen.Options{Display: opts.GenerateDisplay}, g.now())
	if err != nil {
		err = stageError(StageEmit, err)
		return result, err
	}
	result.Variants = len(spec.Variants)

	return result, err
}

// Run generates and hands the text to the sink chosen by selectSink, which
// receives the raw enum name.
func (g *Generator) Run(ctx context.Context, opts Options, selectSink func(rawName string) output.Sink) (result Result, err error) {
	result, err = g.Generate(ctx, opts)
	if err != nil {
		return result, err
	}

	sink := selectSink(result.RawName)
	result.Destination = sink.Destination()

	err = sink.Write(result.Code)
	if err != nil {
		err = stageError(StageWrite, err)
		return result, err
	}

	g.logger.Infow("generated enum",
		"stage", StageWrite,
		"enum", result.TypeName,
		"count", result.Variants,
		"file", result.Destination,
	)

	return result, err
}
