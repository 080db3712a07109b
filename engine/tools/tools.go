// Package tools exposes the query operations as named tools invoked with JSON
// arguments. HTTP and NATS transports both dispatch through a Registry.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/WessleyAI/cocktails/engine/catalog"
	"github.com/WessleyAI/cocktails/engine/domain"
	"github.com/WessleyAI/cocktails/engine/query"
)

// Tool names.
const (
	GetCocktailInfo   = "get_cocktail_info"
	GetIngredientInfo = "get_ingredient_info"
	SuggestCocktails  = "suggest_cocktails_based_on_ingredients"
	AskQuestion       = "ask_question"
)

// ErrUnknownTool is returned by Call for unregistered names.
var ErrUnknownTool = errors.New("unknown tool")

// Error codes reported to transport clients.
const (
	CodeInvalidQuery         = "invalid_query"
	CodeUnknownTool          = "unknown_tool"
	CodeRetrievalUnavailable = "retrieval_unavailable"
	CodeInternal             = "internal"
)

// ErrorCode classifies err for transport responses.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		return CodeInvalidQuery
	case errors.Is(err, ErrUnknownTool):
		return CodeUnknownTool
	case errors.Is(err, domain.ErrRetrievalUnavailable):
		return CodeRetrievalUnavailable
	default:
		return CodeInternal
	}
}

// Querier is the set of operations the tools dispatch to.
type Querier interface {
	GetCocktailInfo(ctx context.Context, name string) (query.CocktailResult, error)
	GetIngredientInfo(ctx context.Context, name string) (query.IngredientResult, error)
	SuggestCocktails(ctx context.Context, ingredients []string, limit int) query.SuggestResult
	AskQuestion(ctx context.Context, question string) (query.AskResult, error)
}

// Handler runs a tool with raw JSON arguments and returns a JSON-serializable result.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Tool describes a registered tool.
type Tool struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Params      []string `json:"params"`
	handler     Handler
}

// Registry maps tool names to handlers.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry registers the four catalog tools against q.
func NewRegistry(q Querier) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	r.register(Tool{
		Name:        GetCocktailInfo,
		Description: "Returns the cocktail with the given name, or a retrieved answer when it is not in the catalog.",
		Params:      []string{"name"},
		handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				Name string `json:"name"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}
			return q.GetCocktailInfo(ctx, args.Name)
		},
	})
	r.register(Tool{
		Name:        GetIngredientInfo,
		Description: "Returns the ingredient with the given name, or a retrieved answer when it is not in the catalog.",
		Params:      []string{"name"},
		handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				Name string `json:"name"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}
			return q.GetIngredientInfo(ctx, args.Name)
		},
	})
	r.register(Tool{
		Name:        SuggestCocktails,
		Description: "Ranks cocktails by how many of the listed ingredients they use.",
		Params:      []string{"ingredients", "limit"},
		handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				Ingredients []string `json:"ingredients"`
				Limit       *int     `json:"limit"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}
			limit := catalog.DefaultSuggestLimit
			if args.Limit != nil {
				limit = *args.Limit
			}
			return q.SuggestCocktails(ctx, args.Ingredients, limit), nil
		},
	})
	r.register(Tool{
		Name:        AskQuestion,
		Description: "Answers a free-text question about cocktails from the catalog.",
		Params:      []string{"question"},
		handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				Question string `json:"question"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}
			return q.AskQuestion(ctx, args.Question)
		},
	})
	return r
}

func (r *Registry) register(t Tool) {
	r.tools[t.Name] = t
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Tools returns the registered tool descriptors, sorted by name.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, n := range r.Names() {
		out = append(out, r.tools[n])
	}
	return out
}

// Call runs the named tool.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return t.handler(ctx, args)
}

// decode accepts an empty body as an empty argument object.
func decode(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: arguments: %v", domain.ErrInvalidQuery, err)
	}
	return nil
}
