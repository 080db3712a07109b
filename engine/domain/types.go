// Package domain defines the cocktail catalog entities and the pure
// normalization and validation rules that turn raw JSON records into them.
package domain

import "encoding/json"

// Tristate is a boolean that may be unknown.
type Tristate int8

const (
	Unknown Tristate = iota
	False
	True
)

// TristateOf converts a native bool.
func TristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes Unknown as null.
func (t Tristate) MarshalJSON() ([]byte, error) {
	switch t {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON applies NormalizeAlcohol to whatever the field holds.
func (t *Tristate) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*t = Unknown
		return nil
	}
	*t = NormalizeAlcohol(raw)
	return nil
}

// Ingredient is one ingredient occurrence. Measure is per cocktail; every
// other field is intrinsic to the ingredient.
type Ingredient struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Alcohol     Tristate `json:"alcohol"`
	Type        *string  `json:"type"`
	Percentage  *float64 `json:"percentage"`
	ImageURL    *string  `json:"imageUrl"`
	Measure     *string  `json:"measure"`
}

// IngredientKey is the dedup identity of an ingredient: all fields but Measure.
type IngredientKey struct {
	ID             int
	Name           string
	Description    string
	HasDescription bool
	Alcohol        Tristate
	Type           string
	HasType        bool
	Percentage     float64
	HasPercentage  bool
	ImageURL       string
	HasImageURL    bool
}

// Key returns the comparable dedup key.
func (i Ingredient) Key() IngredientKey {
	k := IngredientKey{ID: i.ID, Name: i.Name, Alcohol: i.Alcohol}
	k.Description, k.HasDescription = deref(i.Description)
	k.Type, k.HasType = deref(i.Type)
	k.ImageURL, k.HasImageURL = deref(i.ImageURL)
	if i.Percentage != nil {
		k.Percentage, k.HasPercentage = *i.Percentage, true
	}
	return k
}

// Canonical returns a copy with Measure cleared.
func (i Ingredient) Canonical() Ingredient {
	i.Measure = nil
	return i
}

// Cocktail is one validated catalog record.
type Cocktail struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	Category     *string      `json:"category"`
	Glass        *string      `json:"glass"`
	Tags         []string     `json:"tags"`
	Instructions *string      `json:"instructions"`
	ImageURL     *string      `json:"imageUrl"`
	Alcoholic    Tristate     `json:"alcoholic"`
	Ingredients  []Ingredient `json:"ingredients"`
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

// StringOr returns *s, or fallback when s is nil or empty.
func StringOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
