// Package query answers the four catalog operations. Name lookups try an exact
// case-insensitive match first and fall back to retrieval on a miss.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/WessleyAI/cocktails/engine/catalog"
	"github.com/WessleyAI/cocktails/engine/domain"
	"github.com/WessleyAI/cocktails/engine/rag"
	"github.com/WessleyAI/cocktails/pkg/fn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// NotFoundText is the answer given when neither the catalog nor the index
// has anything relevant.
const NotFoundText = "I couldn't find anything about that in the cocktail catalog."

// Retriever answers free-text questions from the index.
type Retriever interface {
	Query(ctx context.Context, question string) (*rag.Answer, error)
}

// Service is built once at startup and shared by every request. It holds no
// mutable state of its own.
type Service struct {
	catalog   *catalog.Catalog
	retriever Retriever
	logger    *slog.Logger
	metrics   *metrics
	tracer    trace.Tracer
}

// New creates a query Service. retriever may be nil, in which case every
// fallback fails with domain.ErrRetrievalUnavailable.
func New(cat *catalog.Catalog, retriever Retriever, logger *slog.Logger) (*Service, error) {
	if cat == nil {
		return nil, errors.New("query: catalog is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	m, err := newMetrics()
	if err != nil {
		return nil, fmt.Errorf("query: metrics: %w", err)
	}
	return &Service{
		catalog:   cat,
		retriever: retriever,
		logger:    logger,
		metrics:   m,
		tracer:    otel.Tracer("engine/query"),
	}, nil
}

// Fallback is the retrieval answer returned when an exact lookup misses.
type Fallback struct {
	Query     string       `json:"query"`
	Answer    string       `json:"answer"`
	NotFound  bool         `json:"not_found"`
	Sources   []rag.Source `json:"sources"`
	Cocktails []string     `json:"cocktails"` // catalog names behind Sources, best first
}

// CocktailResult holds exactly one of Cocktail or Fallback.
type CocktailResult struct {
	Cocktail *domain.Cocktail
	Fallback *Fallback
}

// MarshalJSON renders the entity on a hit and the fallback answer on a miss.
func (r CocktailResult) MarshalJSON() ([]byte, error) {
	if r.Cocktail != nil {
		return json.Marshal(r.Cocktail)
	}
	return json.Marshal(r.Fallback)
}

// IngredientResult holds exactly one of Ingredient or Fallback.
type IngredientResult struct {
	Ingredient *domain.Ingredient
	Fallback   *Fallback
}

// MarshalJSON renders the entity on a hit and the fallback answer on a miss.
func (r IngredientResult) MarshalJSON() ([]byte, error) {
	if r.Ingredient != nil {
		return json.Marshal(r.Ingredient)
	}
	return json.Marshal(r.Fallback)
}

// SuggestResult is the ranking response.
type SuggestResult struct {
	SuggestedCocktails []catalog.Suggestion `json:"suggested_cocktails"`
}

// AskResult is the free-text answer.
type AskResult struct {
	Answer    string       `json:"answer"`
	NotFound  bool         `json:"not_found,omitempty"`
	Sources   []rag.Source `json:"sources,omitempty"`
	Cocktails []string     `json:"cocktails,omitempty"`
}

// GetCocktailInfo looks a cocktail up by name.
func (s *Service) GetCocktailInfo(ctx context.Context, name string) (CocktailResult, error) {
	ctx, span := s.tracer.Start(ctx, "query.get_cocktail_info")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return CocktailResult{}, fmt.Errorf("%w: name is required", domain.ErrInvalidQuery)
	}
	if c, ok := s.catalog.Cocktail(name); ok {
		s.metrics.lookup(ctx, "cocktail", true)
		span.SetAttributes(attribute.Bool("query.hit", true))
		return CocktailResult{Cocktail: &c}, nil
	}
	s.metrics.lookup(ctx, "cocktail", false)

	fb, err := s.fallback(ctx, span, "cocktail", lookupPrompt(name))
	if err != nil {
		return CocktailResult{}, err
	}
	return CocktailResult{Fallback: fb}, nil
}

// GetIngredientInfo looks an ingredient up by name in the deduplicated list.
func (s *Service) GetIngredientInfo(ctx context.Context, name string) (IngredientResult, error) {
	ctx, span := s.tracer.Start(ctx, "query.get_ingredient_info")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return IngredientResult{}, fmt.Errorf("%w: name is required", domain.ErrInvalidQuery)
	}
	if ing, ok := s.catalog.Ingredient(name); ok {
		s.metrics.lookup(ctx, "ingredient", true)
		span.SetAttributes(attribute.Bool("query.hit", true))
		return IngredientResult{Ingredient: &ing}, nil
	}
	s.metrics.lookup(ctx, "ingredient", false)

	fb, err := s.fallback(ctx, span, "ingredient", lookupPrompt(name))
	if err != nil {
		return IngredientResult{}, err
	}
	return IngredientResult{Fallback: fb}, nil
}

// SuggestCocktails ranks cocktails by how many of the named ingredients they
// contain. Blank names are ignored; limit <= 0 yields an empty list.
func (s *Service) SuggestCocktails(ctx context.Context, ingredients []string, limit int) SuggestResult {
	_, span := s.tracer.Start(ctx, "query.suggest_cocktails")
	defer span.End()

	names := fn.Filter(fn.Map(ingredients, strings.TrimSpace), func(n string) bool { return n != "" })
	out := s.catalog.Suggest(names, limit)
	span.SetAttributes(attribute.Int("query.ingredients", len(names)), attribute.Int("query.results", len(out)))
	return SuggestResult{SuggestedCocktails: out}
}

// AskQuestion always goes to retrieval.
func (s *Service) AskQuestion(ctx context.Context, question string) (AskResult, error) {
	ctx, span := s.tracer.Start(ctx, "query.ask_question")
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" {
		return AskResult{}, fmt.Errorf("%w: question is required", domain.ErrInvalidQuery)
	}
	fb, err := s.fallback(ctx, span, "question", question)
	if err != nil {
		return AskResult{}, err
	}
	return AskResult{Answer: fb.Answer, NotFound: fb.NotFound, Sources: fb.Sources, Cocktails: fb.Cocktails}, nil
}

func lookupPrompt(name string) string {
	return "Tell me about " + name
}

// fallback issues exactly one retrieval query.
func (s *Service) fallback(ctx context.Context, span trace.Span, kind, question string) (*Fallback, error) {
	s.metrics.fallback(ctx, kind)
	if s.retriever == nil {
		err := fmt.Errorf("query: %w: no retriever configured", domain.ErrRetrievalUnavailable)
		s.fail(ctx, span, kind, err)
		return nil, err
	}

	ans, err := s.retriever.Query(ctx, question)
	if err != nil {
		s.fail(ctx, span, kind, err)
		return nil, fmt.Errorf("query: %s fallback: %w", kind, err)
	}

	fb := &Fallback{Query: question, Answer: ans.Text, NotFound: ans.NotFound, Sources: ans.Sources}
	if fb.NotFound || fb.Answer == "" {
		fb.NotFound = true
		fb.Answer = NotFoundText
	}
	if fb.Sources == nil {
		fb.Sources = []rag.Source{}
	}
	fb.Cocktails = s.resolve(fb.Sources)
	span.SetAttributes(attribute.Bool("query.not_found", fb.NotFound), attribute.Int("query.sources", len(fb.Sources)))
	return fb, nil
}

// resolve maps retrieved chunks back to catalog cocktails. Sources whose id
// is no longer in the catalog are dropped.
func (s *Service) resolve(sources []rag.Source) []string {
	names := []string{}
	for _, src := range fn.UniqueBy(sources, func(src rag.Source) int { return src.CocktailID }) {
		if c, ok := s.catalog.ByID(src.CocktailID); ok {
			names = append(names, c.Name)
		}
	}
	return names
}

func (s *Service) fail(ctx context.Context, span trace.Span, kind string, err error) {
	s.metrics.retrievalError(ctx, kind)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.Error("query: retrieval failed", "kind", kind, "error", err)
}
