// Package catalog holds the validated, read-only cocktail catalog together
// with the views derived from it: the deduplicated ingredient list, the
// case-insensitive name indexes and the ingredient-overlap ranking.
package catalog

import (
	"strings"

	"github.com/WessleyAI/cocktails/engine/domain"
	"github.com/WessleyAI/cocktails/pkg/fn"
)

// MissingID is reported for skipped records that carry no id.
const MissingID = "<missing_id>"

// Skipped records a raw record that failed validation.
type Skipped struct {
	ID     string
	Reason error
}

// Catalog is built once at startup and never mutated afterwards.
type Catalog struct {
	cocktails   []domain.Cocktail
	ingredients []domain.Ingredient
	skipped     []Skipped

	byName     map[string]int
	byID       map[int]int
	ingredient map[string]int
}

// New builds a Catalog and its derived views from validated cocktails.
func New(cocktails []domain.Cocktail) *Catalog {
	c := &Catalog{
		cocktails:  cocktails,
		byName:     make(map[string]int, len(cocktails)),
		byID:       make(map[int]int, len(cocktails)),
		ingredient: make(map[string]int),
	}
	for i, ct := range cocktails {
		key := nameKey(ct.Name)
		if _, ok := c.byName[key]; !ok {
			c.byName[key] = i
		}
		if _, ok := c.byID[ct.ID]; !ok {
			c.byID[ct.ID] = i
		}
	}
	c.ingredients = DedupIngredients(cocktails)
	for i, ing := range c.ingredients {
		key := nameKey(ing.Name)
		if _, ok := c.ingredient[key]; !ok {
			c.ingredient[key] = i
		}
	}
	return c
}

// nameKey folds case and surrounding whitespace so stored names and
// request names land on the same index entry.
func nameKey(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// DedupIngredients returns every distinct ingredient in first-seen order
// (catalog order, then listed order) with Measure cleared.
func DedupIngredients(cocktails []domain.Cocktail) []domain.Ingredient {
	all := fn.FlatMap(cocktails, func(c domain.Cocktail) []domain.Ingredient {
		return fn.Map(c.Ingredients, domain.Ingredient.Canonical)
	})
	return fn.UniqueBy(all, domain.Ingredient.Key)
}

// Len returns the number of cocktails.
func (c *Catalog) Len() int { return len(c.cocktails) }

// Cocktails returns the cocktails in catalog order. Callers must not modify it.
func (c *Catalog) Cocktails() []domain.Cocktail { return c.cocktails }

// Ingredients returns the deduplicated ingredient list. Callers must not modify it.
func (c *Catalog) Ingredients() []domain.Ingredient { return c.ingredients }

// Skipped returns the records dropped during loading.
func (c *Catalog) Skipped() []Skipped { return c.skipped }

// Cocktail looks a cocktail up by case-insensitive exact name.
func (c *Catalog) Cocktail(name string) (domain.Cocktail, bool) {
	i, ok := c.byName[nameKey(name)]
	if !ok {
		return domain.Cocktail{}, false
	}
	return c.cocktails[i], true
}

// ByID returns the cocktail with the given identifier.
func (c *Catalog) ByID(id int) (domain.Cocktail, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Cocktail{}, false
	}
	return c.cocktails[i], true
}

// Ingredient looks an ingredient up by case-insensitive exact name.
func (c *Catalog) Ingredient(name string) (domain.Ingredient, bool) {
	i, ok := c.ingredient[nameKey(name)]
	if !ok {
		return domain.Ingredient{}, false
	}
	return c.ingredients[i], true
}
