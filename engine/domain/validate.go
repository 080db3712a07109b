package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/WessleyAI/cocktails/pkg/fn"
)

// ValidateCocktail turns one raw JSON record into a Cocktail. Unknown fields
// are ignored. All field errors are joined into the returned error.
func ValidateCocktail(raw any) fn.Result[Cocktail] {
	rec, ok := raw.(map[string]any)
	if !ok {
		return fn.Err[Cocktail](NewValidationError("record", typeName(raw), ErrInvalidType))
	}

	var errs []error
	c := Cocktail{Alcoholic: NormalizeAlcohol(rec["alcoholic"])}
	var err error

	if c.ID, err = requiredInt(rec, "id"); err != nil {
		errs = append(errs, err)
	}
	if c.Name, err = requiredString(rec, "name"); err != nil {
		errs = append(errs, err)
	}
	if c.Category, err = optionalString(rec, "category"); err != nil {
		errs = append(errs, err)
	}
	if c.Glass, err = optionalString(rec, "glass"); err != nil {
		errs = append(errs, err)
	}
	if c.Instructions, err = optionalString(rec, "instructions"); err != nil {
		errs = append(errs, err)
	}
	if c.ImageURL, err = optionalString(rec, "imageUrl"); err != nil {
		errs = append(errs, err)
	}
	if c.Tags, err = NormalizeTags(rec["tags"]); err != nil {
		errs = append(errs, err)
	}
	if c.Ingredients, err = ingredientList(rec["ingredients"]); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fn.Err[Cocktail](errors.Join(errs...))
	}
	return fn.Ok(c)
}

// ValidateIngredient turns one raw ingredient object into an Ingredient.
func ValidateIngredient(raw any) fn.Result[Ingredient] {
	rec, ok := raw.(map[string]any)
	if !ok {
		return fn.Err[Ingredient](NewValidationError("ingredient", typeName(raw), ErrInvalidType))
	}

	var errs []error
	ing := Ingredient{Alcohol: NormalizeAlcohol(rec["alcohol"])}
	var err error

	if ing.ID, err = requiredInt(rec, "id"); err != nil {
		errs = append(errs, err)
	}
	if ing.Name, err = requiredString(rec, "name"); err != nil {
		errs = append(errs, err)
	}
	if ing.Description, err = optionalString(rec, "description"); err != nil {
		errs = append(errs, err)
	}
	if ing.Type, err = optionalString(rec, "type"); err != nil {
		errs = append(errs, err)
	}
	if ing.Percentage, err = optionalFloat(rec, "percentage"); err != nil {
		errs = append(errs, err)
	}
	if ing.ImageURL, err = optionalString(rec, "imageUrl"); err != nil {
		errs = append(errs, err)
	}
	if ing.Measure, err = optionalString(rec, "measure"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fn.Err[Ingredient](errors.Join(errs...))
	}
	return fn.Ok(ing)
}

func ingredientList(raw any) ([]Ingredient, error) {
	if raw == nil {
		return []Ingredient{}, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, NewValidationError("ingredients", typeName(raw), ErrInvalidType)
	}
	out := make([]Ingredient, 0, len(items))
	for i, item := range items {
		ing, err := ValidateIngredient(item).Unwrap()
		if err != nil {
			return nil, fmt.Errorf("ingredients[%d]: %w", i, err)
		}
		out = append(out, ing)
	}
	return out, nil
}

func requiredInt(rec map[string]any, field string) (int, error) {
	raw, ok := rec[field]
	if !ok || raw == nil {
		return 0, NewValidationError(field, "", ErrMissingField)
	}
	switch v := raw.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
		if f, err := v.Float64(); err == nil && isIntegral(f) {
			return int(f), nil
		}
	case float64:
		if isIntegral(v) {
			return int(v), nil
		}
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, nil
		}
	}
	return 0, NewValidationError(field, fmt.Sprint(raw), ErrInvalidType)
}

func requiredString(rec map[string]any, field string) (string, error) {
	raw, ok := rec[field]
	if !ok || raw == nil {
		return "", NewValidationError(field, "", ErrMissingField)
	}
	s, ok := raw.(string)
	if !ok {
		return "", NewValidationError(field, typeName(raw), ErrInvalidType)
	}
	return s, nil
}

func optionalString(rec map[string]any, field string) (*string, error) {
	raw := rec[field]
	if raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, NewValidationError(field, typeName(raw), ErrInvalidType)
	}
	return &s, nil
}

func optionalFloat(rec map[string]any, field string) (*float64, error) {
	var f float64
	var err error
	switch v := rec[field].(type) {
	case nil:
		return nil, nil
	case json.Number:
		f, err = v.Float64()
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		err = ErrInvalidType
	}
	if err != nil {
		return nil, NewValidationError(field, fmt.Sprint(rec[field]), ErrInvalidType)
	}
	return &f, nil
}

func isIntegral(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)
}
