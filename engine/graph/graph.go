// Package graph mirrors the catalog into Neo4j as Cocktail and Ingredient
// nodes joined by CONTAINS edges, and answers "what else uses these
// ingredients" questions for retrieval enrichment.
package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/WessleyAI/cocktails/engine/domain"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// DefaultRelatedLimit caps RelatedCocktails when limit <= 0.
const DefaultRelatedLimit = 5

// GraphStore provides graph operations on top of a Neo4j driver.
type GraphStore struct {
	opener SessionOpener
}

// New creates a new GraphStore.
func New(driver neo4j.DriverWithContext) *GraphStore {
	return &GraphStore{opener: driverOpener{driver: driver}}
}

// NewWithOpener creates a GraphStore over a custom session opener.
func NewWithOpener(opener SessionOpener) *GraphStore {
	return &GraphStore{opener: opener}
}

// Related is a cocktail sharing ingredients with a query.
type Related struct {
	CocktailID  int      `json:"cocktail_id"`
	Name        string   `json:"name"`
	Shared      int      `json:"shared"`
	Ingredients []string `json:"ingredients"`
}

var constraints = []string{
	`CREATE CONSTRAINT cocktail_id IF NOT EXISTS FOR (c:Cocktail) REQUIRE c.id IS UNIQUE`,
	`CREATE CONSTRAINT ingredient_key IF NOT EXISTS FOR (i:Ingredient) REQUIRE i.key IS UNIQUE`,
}

// EnsureSchema creates uniqueness constraints.
func (g *GraphStore) EnsureSchema(ctx context.Context) error {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	for _, c := range constraints {
		if _, err := sess.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("graph: schema: %w", err)
		}
	}
	return nil
}

// Clear removes every Cocktail and Ingredient node.
func (g *GraphStore) Clear(ctx context.Context) error {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	_, err := sess.Run(ctx, `MATCH (n) WHERE n:Cocktail OR n:Ingredient DETACH DELETE n`, nil)
	if err != nil {
		return fmt.Errorf("graph: clear: %w", err)
	}
	return nil
}

const seedCypher = `MERGE (c:Cocktail {id: $id})
SET c.name = $name, c.category = $category, c.alcoholic = $alcoholic
WITH c
UNWIND $ingredients AS ing
MERGE (i:Ingredient {key: ing.key})
SET i.name = ing.name, i.alcohol = ing.alcohol
MERGE (c)-[r:CONTAINS]->(i)
SET r.measure = ing.measure`

// SeedCatalog writes every cocktail and its ingredients in one transaction.
func (g *GraphStore) SeedCatalog(ctx context.Context, cocktails []domain.Cocktail) error {
	if len(cocktails) == 0 {
		return nil
	}
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx CypherRunner) (any, error) {
		for _, c := range cocktails {
			if _, err := tx.Run(ctx, seedCypher, cocktailParams(c)); err != nil {
				return nil, fmt.Errorf("cocktail %d: %w", c.ID, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("graph: seed: %w", err)
	}
	return nil
}

func cocktailParams(c domain.Cocktail) map[string]any {
	ings := make([]map[string]any, len(c.Ingredients))
	for i, ing := range c.Ingredients {
		ings[i] = map[string]any{
			"key":     ingredientKey(ing.Name),
			"name":    ing.Name,
			"alcohol": ing.Alcohol.String(),
			"measure": domain.StringOr(ing.Measure, ""),
		}
	}
	return map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"category":    domain.StringOr(c.Category, ""),
		"alcoholic":   c.Alcoholic.String(),
		"ingredients": ings,
	}
}

func ingredientKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

const relatedCypher = `MATCH (c:Cocktail)-[:CONTAINS]->(i:Ingredient)
WHERE any(k IN $keywords WHERE i.key CONTAINS k)
WITH c, collect(DISTINCT i.name) AS ingredients
RETURN c.id AS id, c.name AS name, ingredients, size(ingredients) AS shared
ORDER BY shared DESC, id ASC
LIMIT $limit`

// RelatedCocktails returns cocktails containing an ingredient whose name
// contains any keyword, most shared ingredients first.
func (g *GraphStore) RelatedCocktails(ctx context.Context, keywords []string, limit int) ([]Related, error) {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	keys := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = ingredientKey(k); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, relatedCypher, map[string]any{"keywords": keys, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("graph: related: %w", err)
	}

	var out []Related
	for result.Next(ctx) {
		r, err := relatedFromRecord(result.Record())
		if err != nil {
			return nil, fmt.Errorf("graph: related: %w", err)
		}
		out = append(out, r)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("graph: related: %w", err)
	}
	return out, nil
}

func relatedFromRecord(rec *neo4j.Record) (Related, error) {
	id, _, err := neo4j.GetRecordValue[int64](rec, "id")
	if err != nil {
		return Related{}, err
	}
	name, _, err := neo4j.GetRecordValue[string](rec, "name")
	if err != nil {
		return Related{}, err
	}
	shared, _, err := neo4j.GetRecordValue[int64](rec, "shared")
	if err != nil {
		return Related{}, err
	}
	raw, _, err := neo4j.GetRecordValue[[]any](rec, "ingredients")
	if err != nil {
		return Related{}, err
	}
	ings := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ings = append(ings, s)
		}
	}
	return Related{CocktailID: int(id), Name: name, Shared: int(shared), Ingredients: ings}, nil
}
