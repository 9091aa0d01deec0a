package recipe

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var payloadValidator = validator.New()

// ParseIngredientList turns a comma separated model reply into normalized
// ingredient names. Empty tokens are dropped; duplicates are kept for the
// inventory to reconcile.
func ParseIngredientList(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}
	}
	parts := strings.Split(text, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if item := strings.ToLower(strings.TrimSpace(p)); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// recipePayload mirrors the response schema; pointers tell absent fields
// from empty ones.
type recipePayload struct {
	RecipeName   *string   `json:"recipeName" validate:"required"`
	Description  *string   `json:"description" validate:"required"`
	Ingredients  *[]string `json:"ingredients" validate:"required"`
	Instructions *[]string `json:"instructions" validate:"required"`
}

// ParseRecipe decodes a model reply into a Recipe. Markdown fences or text
// around the JSON object are ignored.
func ParseRecipe(text string) (*Recipe, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || start > end {
		return nil, fmt.Errorf("could not find JSON object in response: %q", text)
	}
	cleanJSON := text[start : end+1]

	var p recipePayload
	if err := json.Unmarshal([]byte(cleanJSON), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w", err)
	}
	if err := payloadValidator.Struct(p); err != nil {
		return nil, fmt.Errorf("recipe JSON does not match schema: %w", err)
	}

	return &Recipe{
		Name:         *p.RecipeName,
		Description:  *p.Description,
		Ingredients:  *p.Ingredients,
		Instructions: *p.Instructions,
	}, nil
}
