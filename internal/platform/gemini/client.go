package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"pantrypal/internal/locale"
	"pantrypal/internal/recipe"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// ProviderName identifies this provider in logs and metrics.
const ProviderName = "gemini"

var errEmptyResponse = errors.New("empty response from Gemini")

// contentGenerator is the part of *genai.GenerativeModel the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client is a client for the Gemini API.
type Client struct {
	client  *genai.Client
	vision  contentGenerator
	recipes contentGenerator
	log     *zap.Logger
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey, modelName string, log *zap.Logger) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	recipes := client.GenerativeModel(modelName)
	recipes.ResponseMIMEType = "application/json"
	recipes.ResponseSchema = RecipeSchema()

	c := newClient(client.GenerativeModel(modelName), recipes, log)
	c.client = client
	return c, nil
}

func newClient(vision, recipes contentGenerator, log *zap.Logger) *Client {
	return &Client{vision: vision, recipes: recipes, log: log}
}

// Name returns the provider name.
func (c *Client) Name() string { return ProviderName }

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// RecipeSchema is the structured output schema requested for recipes.
func RecipeSchema() *genai.Schema {
	stringArray := func(desc string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: desc,
		}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"recipeName":   {Type: genai.TypeString, Description: recipe.SchemaNameDescription},
			"description":  {Type: genai.TypeString, Description: recipe.SchemaDescriptionDescription},
			"ingredients":  stringArray(recipe.SchemaIngredientsDescription),
			"instructions": stringArray(recipe.SchemaInstructionsDescription),
		},
		Required: recipe.SchemaRequired,
	}
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errEmptyResponse
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// ExtractIngredients lists the food items visible in an image.
func (c *Client) ExtractIngredients(ctx context.Context, imageData []byte, mimeType string, lang locale.Code) ([]string, error) {
	prompt := []genai.Part{
		genai.Blob{MIMEType: mimeType, Data: imageData},
		genai.Text(recipe.ExtractionPrompt(lang)),
	}

	resp, err := c.vision.GenerateContent(ctx, prompt...)
	if err == nil {
		var text string
		if text, err = responseText(resp); err == nil {
			items := recipe.ParseIngredientList(text)
			c.log.Debug("extracted ingredients", zap.Int("count", len(items)), zap.String("language", string(lang)))
			return items, nil
		}
	}

	c.log.Error("error analyzing image", zap.Error(err))
	return nil, fmt.Errorf("%w: %w", recipe.ErrExtractionFailed, err)
}

// GenerateRecipe suggests one recipe for the request's inventory. Invalid
// requests fail before any call is made.
func (c *Client) GenerateRecipe(ctx context.Context, req recipe.GenerationRequest) (*recipe.Recipe, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r, err := c.generateRecipe(ctx, req)
	if err != nil {
		c.log.Error("error generating recipe", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", recipe.ErrGenerationFailed, err)
	}
	return r, nil
}

func (c *Client) generateRecipe(ctx context.Context, req recipe.GenerationRequest) (*recipe.Recipe, error) {
	resp, err := c.recipes.GenerateContent(ctx, genai.Text(recipe.GenerationPrompt(req)))
	if err != nil {
		return nil, err
	}
	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}
	return recipe.ParseRecipe(text)
}
