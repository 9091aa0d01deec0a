package recipe

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Recipe represents a recipe suggested by the model.
type Recipe struct {
	Name         string   `json:"recipeName"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

// HistoricalRecipe is a generated recipe as kept in the history log.
type HistoricalRecipe struct {
	Recipe
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generatedAt"`
	IsFavorite  bool      `json:"isFavorite"`
}

// MealType is the kind of meal a recipe is requested for.
type MealType string

const (
	Breakfast MealType = "Breakfast"
	Lunch     MealType = "Lunch"
	Dinner    MealType = "Dinner"
	Snack     MealType = "Snack"
)

// DefaultMealType is offered when the user has not picked one.
const DefaultMealType = Dinner

// MealTypes lists every meal type.
var MealTypes = []MealType{Breakfast, Lunch, Dinner, Snack}

// ErrInvalidMealType is returned for meal types outside MealTypes.
var ErrInvalidMealType = errors.New("invalid meal type")

// ParseMealType matches s case-insensitively against MealTypes.
func ParseMealType(s string) (MealType, error) {
	s = strings.TrimSpace(s)
	for _, mt := range MealTypes {
		if strings.EqualFold(s, string(mt)) {
			return mt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMealType, s)
}

// Valid reports whether m is one of MealTypes.
func (m MealType) Valid() bool {
	_, err := ParseMealType(string(m))
	return err == nil && string(m) != ""
}
