package recipe

import (
	"errors"
	"fmt"
	"strings"

	"pantrypal/internal/locale"
)

// Errors shared by every model provider. Provider failures wrap
// ErrExtractionFailed or ErrGenerationFailed together with their cause.
var (
	ErrExtractionFailed = errors.New("failed to identify ingredients from the image")
	ErrGenerationFailed = errors.New("failed to generate a recipe")
	ErrEmptyInventory   = errors.New("cannot generate a recipe with an empty inventory")
	ErrInvalidServings  = errors.New("servings must be a positive number")
)

// GenerationRequest is everything a provider needs to suggest a recipe.
type GenerationRequest struct {
	Inventory []string
	MealType  MealType
	Servings  int
	Language  locale.Code
}

// Validate checks the request preconditions. Providers call it before
// touching the network.
func (r *GenerationRequest) Validate() error {
	if len(r.Inventory) == 0 {
		return ErrEmptyInventory
	}
	if r.Servings < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidServings, r.Servings)
	}
	mt, err := ParseMealType(string(r.MealType))
	if err != nil {
		return err
	}
	r.MealType = mt
	if !r.Language.Valid() {
		r.Language = locale.Default
	}
	return nil
}

// ExtractionPrompt asks for a comma separated list of the food items in a photo.
func ExtractionPrompt(lang locale.Code) string {
	return fmt.Sprintf("Analyze this image of a fridge, pantry, or grocery items. Identify all distinct food items. If a barcode is visible, identify the product. Respond ONLY with a comma-separated list of the items in %s. For example: \"milk, eggs, cheese, bread, chicken breast\"", lang.PromptName())
}

// GenerationPrompt asks for one recipe using the request's inventory.
func GenerationPrompt(r GenerationRequest) string {
	return fmt.Sprintf("Based on the following available ingredients: %s. Please suggest one recipe for a %s for %d people, written in %s. Use the available ingredients as much as possible.",
		strings.Join(r.Inventory, ", "), r.MealType, r.Servings, r.Language.PromptName())
}

// Field descriptions of the recipe response schema.
const (
	SchemaNameDescription         = "The name of the recipe."
	SchemaDescriptionDescription  = "A brief, enticing description of the dish."
	SchemaIngredientsDescription  = "A list of ingredients required for the recipe."
	SchemaInstructionsDescription = "Step-by-step instructions to prepare the meal."
)

// SchemaRequired lists the fields every recipe response must carry.
var SchemaRequired = []string{"recipeName", "description", "ingredients", "instructions"}

// JSONSchema is the recipe response schema in JSON Schema form, for
// providers that accept one.
func JSONSchema() map[string]any {
	stringArray := func(desc string) map[string]any {
		return map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": desc,
		}
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"recipeName":   map[string]any{"type": "string", "description": SchemaNameDescription},
			"description":  map[string]any{"type": "string", "description": SchemaDescriptionDescription},
			"ingredients":  stringArray(SchemaIngredientsDescription),
			"instructions": stringArray(SchemaInstructionsDescription),
		},
		"required":             SchemaRequired,
		"additionalProperties": false,
	}
}
