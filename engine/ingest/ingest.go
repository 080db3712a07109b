// Package ingest builds the retrieval index from the catalog: each cocktail is
// synthesized into a document, chunked, embedded and stored.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/WessleyAI/cocktails/engine/domain"
	"github.com/WessleyAI/cocktails/engine/semantic"
	"github.com/WessleyAI/cocktails/pkg/fn"
	"github.com/google/uuid"
)

const (
	// DefaultWorkers bounds concurrent embedding calls.
	DefaultWorkers = 4
	// UpsertBatchSize is the max records per store write.
	UpsertBatchSize = 100
)

// Deps holds the external dependencies for index construction.
type Deps struct {
	Embedder  semantic.Embedder
	Store     semantic.Store
	Workers   int
	Retry     fn.RetryOpts
	ChunkSize int
	Overlap   int
	Logger    *slog.Logger
}

// Stats summarizes a build.
type Stats struct {
	Cocktails int
	Chunks    int
	Duration  time.Duration
}

// PointID returns the deterministic identifier of a cocktail chunk.
func PointID(cocktailID, chunkIndex int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("cocktail-%d-%d", cocktailID, chunkIndex))).String()
}

// --- Pipeline Stages ---

// SynthesizeAll renders every cocktail into a document, in catalog order.
var SynthesizeAll fn.Stage[[]domain.Cocktail, []Document] = fn.MapStage(func(cs []domain.Cocktail) []Document {
	return fn.Map(cs, Synthesize)
})

// NewChunk creates a stage that chunks every document, preserving order.
func NewChunk(chunkSize, overlap int) fn.Stage[[]Document, []Chunk] {
	return fn.MapStage(func(docs []Document) []Chunk {
		return fn.FlatMap(docs, func(d Document) []Chunk {
			return ChunkDocument(d, chunkSize, overlap)
		})
	})
}

// NewEmbed creates a stage that embeds a single chunk.
func NewEmbed(e semantic.Embedder) fn.Stage[Chunk, semantic.VectorRecord] {
	return func(ctx context.Context, c Chunk) fn.Result[semantic.VectorRecord] {
		vec, err := e.Embed(ctx, c.Text)
		if err != nil {
			return fn.Err[semantic.VectorRecord](fmt.Errorf("embed cocktail %d chunk %d: %w", c.Metadata.CocktailID, c.Index, err))
		}
		if len(vec) == 0 {
			return fn.Errf[semantic.VectorRecord]("embed cocktail %d chunk %d: empty vector", c.Metadata.CocktailID, c.Index)
		}
		return fn.Ok(c.record(vec))
	}
}

// NewStore creates a stage that writes records in order and reports the count.
func NewStore(s semantic.Store) fn.Stage[[]semantic.VectorRecord, int] {
	return func(ctx context.Context, records []semantic.VectorRecord) fn.Result[int] {
		for i := 0; i < len(records); i += UpsertBatchSize {
			end := min(i+UpsertBatchSize, len(records))
			if err := s.Upsert(ctx, records[i:end]); err != nil {
				return fn.Err[int](fmt.Errorf("vector upsert: %w", err))
			}
		}
		return fn.Ok(len(records))
	}
}

// logged wraps a stage with entry/exit logging.
func logged[In, Out any](name string, log *slog.Logger, stage fn.Stage[In, Out]) fn.Stage[In, Out] {
	return func(ctx context.Context, in In) fn.Result[Out] {
		log.Debug("stage.enter", "stage", name)
		start := time.Now()
		r := stage(ctx, in)
		log.Debug("stage.exit", "stage", name, "duration", time.Since(start), "ok", r.IsOk())
		return r
	}
}

// NewPipeline composes Synthesize → Chunk → Embed → Store.
func NewPipeline(deps Deps) fn.Stage[[]domain.Cocktail, int] {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	workers := deps.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	embed := fn.RetryStage(deps.Retry, NewEmbed(deps.Embedder))

	docs := logged("synthesize", log, fn.TracedStage("ingest.synthesize", SynthesizeAll))
	chunks := logged("chunk", log, fn.TracedStage("ingest.chunk", NewChunk(deps.ChunkSize, deps.Overlap)))
	embedded := logged("embed", log, fn.TracedStage("ingest.embed", fn.BatchStage(workers, embed)))
	stored := logged("store", log, fn.TracedStage("ingest.store", NewStore(deps.Store)))

	return fn.Then(docs, fn.Then(chunks, fn.Then(embedded, stored)))
}

// BuildIndex embeds the whole catalog into deps.Store. Records are stored in
// catalog order so similarity ties resolve by build order.
func BuildIndex(ctx context.Context, cocktails []domain.Cocktail, deps Deps) (Stats, error) {
	if deps.Embedder == nil || deps.Store == nil {
		return Stats{}, fmt.Errorf("ingest: embedder and store are required")
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	start := time.Now()
	n, err := NewPipeline(deps)(ctx, cocktails).Unwrap()
	stats := Stats{Cocktails: len(cocktails), Chunks: n, Duration: time.Since(start)}
	if err != nil {
		return stats, fmt.Errorf("ingest: build index: %w", err)
	}
	log.Info("index built", "cocktails", stats.Cocktails, "chunks", stats.Chunks, "duration", stats.Duration)
	return stats, nil
}
