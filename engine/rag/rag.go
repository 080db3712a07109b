// Package rag answers free-text questions from the retrieval index. It embeds
// the question, searches for relevant chunks, optionally enriches with graph
// context, builds a prompt, and asks the completion model for the answer.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/WessleyAI/cocktails/engine/domain"
	"github.com/WessleyAI/cocktails/engine/graph"
	"github.com/WessleyAI/cocktails/engine/semantic"
	"github.com/WessleyAI/cocktails/pkg/fn"
	"github.com/WessleyAI/cocktails/pkg/resilience"
)

// Completer produces free text for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Searcher abstracts the vector index.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, topK int) ([]semantic.SearchResult, error)
}

// GraphEnricher optionally enriches a query with ingredient-graph context.
type GraphEnricher interface {
	RelatedCocktails(ctx context.Context, keywords []string, limit int) ([]graph.Related, error)
}

// Options configures the RAG pipeline behaviour.
type Options struct {
	TopK          int
	SystemPrompt  string
	UseGraph      bool
	GraphLimit    int
	SearchTimeout time.Duration
	CallTimeout   time.Duration
	Retry         fn.RetryOpts
	Breaker       resilience.BreakerOpts
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		TopK:          semantic.DefaultTopK,
		SystemPrompt:  defaultSystemPrompt,
		UseGraph:      true,
		GraphLimit:    5,
		SearchTimeout: 5 * time.Second,
		CallTimeout:   60 * time.Second,
		Retry:         fn.DefaultRetry,
		Breaker:       resilience.DefaultBreakerOpts,
	}
}

const defaultSystemPrompt = `You are a knowledgeable bartender.
Answer the question using ONLY the cocktail context below. If the context
does not contain the answer, say you don't know.`

// Service is the RAG orchestration service.
type Service struct {
	embed    semantic.Embedder
	complete Completer
	search   Searcher
	graph    GraphEnricher
	opts     Options
	logger   *slog.Logger

	embedBreaker *resilience.Breaker
	chatBreaker  *resilience.Breaker
	graphBreaker *resilience.Breaker
}

// New creates a new RAG Service. graphEnricher may be nil.
func New(embed semantic.Embedder, complete Completer, search Searcher, graphEnricher GraphEnricher, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = semantic.DefaultTopK
	}
	breakerOpts := func(name string) resilience.BreakerOpts {
		b := opts.Breaker
		b.OnStateChange = func(from, to resilience.State) {
			logger.Warn("rag: breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		}
		return b
	}
	return &Service{
		embed:        embed,
		complete:     complete,
		search:       search,
		graph:        graphEnricher,
		opts:         opts,
		logger:       logger,
		embedBreaker: resilience.NewBreaker(breakerOpts("embed")),
		chatBreaker:  resilience.NewBreaker(breakerOpts("chat")),
		graphBreaker: resilience.NewBreaker(breakerOpts("graph")),
	}
}

// BreakerStates reports the circuit state of each model and graph dependency.
func (s *Service) BreakerStates() map[string]string {
	return map[string]string{
		"embed": s.embedBreaker.State().String(),
		"chat":  s.chatBreaker.State().String(),
		"graph": s.graphBreaker.State().String(),
	}
}

// Answer represents the structured response from the RAG pipeline.
type Answer struct {
	Text     string   `json:"text"`
	Sources  []Source `json:"sources"`
	NotFound bool     `json:"not_found"`
}

// Source represents a retrieved chunk backing the answer.
type Source struct {
	ID         string  `json:"id"`
	CocktailID int     `json:"cocktail_id"`
	Name       string  `json:"name"`
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
}

// Query runs the full RAG pipeline for a question. Failures to reach the
// embedding model, index or completion model wrap domain.ErrRetrievalUnavailable.
func (s *Service) Query(ctx context.Context, question string) (*Answer, error) {
	s.logger.Info("rag query start", "question_len", len(question))

	// 1. Embed the query.
	vec, err := guarded(ctx, s, s.embedBreaker, func(ctx context.Context) ([]float32, error) {
		return s.embed.Embed(ctx, question)
	}).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("rag: embed query: %w: %w", domain.ErrRetrievalUnavailable, err)
	}

	// 2. Semantic search.
	searchCtx := ctx
	if s.opts.SearchTimeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, s.opts.SearchTimeout)
		defer cancel()
	}
	results, err := s.search.Search(searchCtx, vec, s.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("rag: semantic search: %w: %w", domain.ErrRetrievalUnavailable, err)
	}
	s.logger.Info("rag semantic search done", "results", len(results))
	if len(results) == 0 {
		return &Answer{Sources: []Source{}, NotFound: true}, nil
	}

	// 3. Optionally enrich with graph context.
	var graphContext string
	if s.opts.UseGraph && s.graph != nil {
		graphContext = s.enrichWithGraph(ctx, question)
	}

	// 4. Complete.
	prompt := buildPrompt(s.opts.SystemPrompt, question, results, graphContext)
	text, err := guarded(ctx, s, s.chatBreaker, func(ctx context.Context) (string, error) {
		return s.complete.Complete(ctx, prompt)
	}).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("rag: complete: %w: %w", domain.ErrRetrievalUnavailable, err)
	}

	text = strings.TrimSpace(text)
	return &Answer{
		Text:     text,
		Sources:  fn.Map(results, toSource),
		NotFound: text == "",
	}, nil
}

// guarded runs a model call with a per-attempt timeout behind a breaker,
// retrying per opts.Retry. An open breaker is not retried.
func guarded[T any](ctx context.Context, s *Service, b *resilience.Breaker, call func(context.Context) (T, error)) fn.Result[T] {
	retry := s.opts.Retry
	retry.Retryable = retryable
	return fn.Retry(ctx, retry, func(ctx context.Context) fn.Result[T] {
		return resilience.CallResult(b, ctx, func(ctx context.Context) fn.Result[T] {
			if s.opts.CallTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, s.opts.CallTimeout)
				defer cancel()
			}
			v, err := call(ctx)
			return fn.FromPair(v, err)
		})
	})
}

func retryable(err error) bool {
	var perm interface{ Permanent() bool }
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, context.Canceled):
		return false
	case errors.As(err, &perm):
		return !perm.Permanent()
	}
	return true
}

func toSource(r semantic.SearchResult) Source {
	return Source{ID: r.ID, CocktailID: r.CocktailID, Name: r.Name, Content: r.Content, Score: r.Score}
}

// enrichWithGraph attempts to get graph context; failures are logged and skipped.
func (s *Service) enrichWithGraph(ctx context.Context, question string) string {
	keywords := extractKeywords(question)
	if len(keywords) == 0 {
		return ""
	}

	var related []graph.Related
	err := s.graphBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		related, err = s.graph.RelatedCocktails(ctx, keywords, s.opts.GraphLimit)
		return err
	})
	if err != nil {
		s.logger.Warn("rag: graph enrichment failed, continuing without", "err", err)
		return ""
	}
	if len(related) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Related cocktails from the ingredient graph:\n")
	for _, r := range related {
		fmt.Fprintf(&b, "- %s (shares %d: %s)\n", r.Name, r.Shared, strings.Join(r.Ingredients, ", "))
	}
	return b.String()
}

// buildPrompt lays out instructions, numbered context blocks and the question.
func buildPrompt(system, question string, results []semantic.SearchResult, graphContext string) string {
	var b strings.Builder
	if system != "" {
		b.WriteString(system)
		b.WriteString("\n\n")
	}
	b.WriteString("Context:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] (cocktail %d, score: %.3f)\n%s\n\n", i+1, r.CocktailID, r.Score, r.Content)
	}
	if graphContext != "" {
		b.WriteString(graphContext)
		b.WriteString("\n")
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "can": true,
	"to": true, "of": true, "in": true, "for": true, "on": true,
	"with": true, "at": true, "by": true, "from": true, "as": true,
	"what": true, "where": true, "when": true, "how": true, "which": true,
	"who": true, "this": true, "that": true, "these": true, "those": true,
	"me": true, "my": true, "it": true, "its": true, "and": true,
	"but": true, "not": true, "tell": true, "about": true, "make": true,
	"some": true, "any": true, "cocktail": true, "cocktails": true, "drink": true,
	"drinks": true, "you": true, "your": true,
}

// extractKeywords does simple keyword extraction from a question.
func extractKeywords(question string) []string {
	words := strings.Fields(strings.ToLower(question))
	keywords := fn.Filter(fn.Map(words, func(w string) string {
		return strings.Trim(w, "?.,!;:'\"")
	}), func(w string) bool {
		return len(w) > 2 && !stopWords[w]
	})
	return fn.UniqueBy(keywords, func(w string) string { return w })
}
