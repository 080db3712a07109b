package catalog

import "sort"

// DefaultSuggestLimit is used when callers do not pass a limit.
const DefaultSuggestLimit = 3

// Suggestion is one ranked cocktail.
type Suggestion struct {
	Name    string `json:"name"`
	Matches int    `json:"matches"`
}

// Suggest ranks cocktails by how many of their ingredient occurrences match
// one of names (case-insensitive exact match). Cocktails without a match are
// left out; equal scores keep catalog order. limit <= 0 yields no results.
func (c *Catalog) Suggest(names []string, limit int) []Suggestion {
	out := []Suggestion{}
	if limit <= 0 || len(names) == 0 {
		return out
	}

	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[nameKey(n)] = struct{}{}
	}

	for _, ct := range c.cocktails {
		matches := 0
		for _, ing := range ct.Ingredients {
			key := nameKey(ing.Name)
			if key == "" {
				continue
			}
			if _, ok := wanted[key]; ok {
				matches++
			}
		}
		if matches > 0 {
			out = append(out, Suggestion{Name: ct.Name, Matches: matches})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Matches > out[j].Matches })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
