package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeRaw(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestValidateCocktail(t *testing.T) {
	raw := decodeRaw(t, `{
		"id": 11007,
		"name": "Margarita",
		"category": "Ordinary Drink",
		"glass": "Cocktail glass",
		"tags": "IBA",
		"instructions": "Shake.",
		"alcoholic": "1",
		"unexpected": {"nested": true},
		"ingredients": [
			{"id": 1, "name": "Tequila", "alcohol": 1, "percentage": 40, "measure": "1 1/2 oz"},
			{"id": 2, "name": "Lime juice", "alcohol": "", "measure": null}
		]
	}`)

	c, err := ValidateCocktail(raw).Unwrap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID != 11007 || c.Name != "Margarita" {
		t.Fatalf("unexpected identity: %+v", c)
	}
	if c.Alcoholic != True {
		t.Fatalf("expected alcoholic true, got %v", c.Alcoholic)
	}
	if len(c.Tags) != 1 || c.Tags[0] != "IBA" {
		t.Fatalf("unexpected tags: %v", c.Tags)
	}
	if len(c.Ingredients) != 2 {
		t.Fatalf("expected 2 ingredients, got %d", len(c.Ingredients))
	}
	tequila := c.Ingredients[0]
	if tequila.Alcohol != True || tequila.Percentage == nil || *tequila.Percentage != 40 {
		t.Fatalf("unexpected tequila: %+v", tequila)
	}
	if tequila.Measure == nil || *tequila.Measure != "1 1/2 oz" {
		t.Fatalf("unexpected measure: %v", tequila.Measure)
	}
	if c.Ingredients[1].Alcohol != Unknown || c.Ingredients[1].Measure != nil {
		t.Fatalf("unexpected lime juice: %+v", c.Ingredients[1])
	}
}

func TestValidateCocktailDefaults(t *testing.T) {
	c, err := ValidateCocktail(decodeRaw(t, `{"id": "7", "name": "Plain"}`)).Unwrap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID != 7 {
		t.Fatalf("expected numeric string id to coerce, got %d", c.ID)
	}
	if c.Tags == nil || len(c.Tags) != 0 {
		t.Fatalf("tags should be an empty list, got %#v", c.Tags)
	}
	if c.Ingredients == nil || len(c.Ingredients) != 0 {
		t.Fatalf("ingredients should be an empty list, got %#v", c.Ingredients)
	}
	if c.Alcoholic != Unknown || c.Category != nil {
		t.Fatalf("unexpected optional fields: %+v", c)
	}
}

func TestValidateCocktailMissingName(t *testing.T) {
	_, err := ValidateCocktail(decodeRaw(t, `{"id": 3}`)).Unwrap()
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "name" {
		t.Fatalf("expected name validation error, got %v", err)
	}
}

func TestValidateCocktailCollectsAllErrors(t *testing.T) {
	_, err := ValidateCocktail(decodeRaw(t, `{"id": 1.5, "name": 12, "tags": 4}`)).Unwrap()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, field := range []string{"id", "name", "tags"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q should mention %s", err, field)
		}
	}
}

func TestValidateCocktailBadIngredient(t *testing.T) {
	_, err := ValidateCocktail(decodeRaw(t, `{"id": 1, "name": "X", "ingredients": [{"id": 2}]}`)).Unwrap()
	if !errors.Is(err, ErrMissingField) || !strings.Contains(err.Error(), "ingredients[0]") {
		t.Fatalf("expected nested ingredient error, got %v", err)
	}
}

func TestValidateCocktailNotAnObject(t *testing.T) {
	_, err := ValidateCocktail(decodeRaw(t, `["id", 1]`)).Unwrap()
	if !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestValidateIngredientPercentageString(t *testing.T) {
	ing, err := ValidateIngredient(decodeRaw(t, `{"id": 5, "name": "Rum", "percentage": "37.5"}`)).Unwrap()
	if err != nil {
		t.Fatal(err)
	}
	if ing.Percentage == nil || *ing.Percentage != 37.5 {
		t.Fatalf("unexpected percentage: %v", ing.Percentage)
	}
	if _, err := ValidateIngredient(decodeRaw(t, `{"id": 5, "name": "Rum", "percentage": "strong"}`)).Unwrap(); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestIngredientKeyIgnoresMeasure(t *testing.T) {
	a, b := "1 oz", "2 oz"
	desc := "Agave spirit"
	x := Ingredient{ID: 1, Name: "Tequila", Description: &desc, Measure: &a}
	y := Ingredient{ID: 1, Name: "Tequila", Description: &desc, Measure: &b}
	if x.Key() != y.Key() {
		t.Fatal("keys should match when only measure differs")
	}
	other := "Mezcal"
	z := Ingredient{ID: 1, Name: "Tequila", Description: &other}
	if x.Key() == z.Key() {
		t.Fatal("keys should differ when description differs")
	}
	if x.Canonical().Measure != nil || x.Measure == nil {
		t.Fatal("Canonical should clear measure on the copy only")
	}
}

func TestValidationErrorMessage(t *testing.T) {
	ve := NewValidationError("name", "number", ErrInvalidType)
	if got := ve.Error(); got != "validation: name: invalid type (value=number)" {
		t.Fatalf("unexpected error string: %s", got)
	}
}
