package localllm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"pantrypal/internal/locale"
	"pantrypal/internal/recipe"
)

// Defaults for an LM Studio style server running on the same machine.
const (
	DefaultURL   = "http://localhost:1234/v1/chat/completions"
	DefaultModel = "gemma-3-12b-it:2"
)

// ProviderName identifies this provider in logs and metrics.
const ProviderName = "local"

// Client represents a client for the local LLM.
type Client struct {
	httpClient *http.Client
	apiURL     string
	model      string
	log        *zap.Logger
}

// NewClient creates a new client for the local LLM.
func NewClient(apiURL, model string, log *zap.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		httpClient: &http.Client{},
		apiURL:     apiURL,
		model:      model,
		log:        log,
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return ProviderName }

// Request represents the request body for the local LLM.
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// Message represents a message in the request.
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

// Content represents the content of a message.
type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL represents the image URL in the content.
type ImageURL struct {
	URL string `json:"url"`
}

// ResponseFormat constrains the reply to a JSON schema.
type ResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

// JSONSchema names the schema the reply must follow.
type JSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// Response represents the response from the local LLM.
type Response struct {
	Choices []Choice `json:"choices"`
}

// Choice represents a choice in the response.
type Choice struct {
	Message ResponseMessage `json:"message"`
}

// ResponseMessage represents a message in the response.
type ResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateContent sends a request to the local LLM and returns the response.
func (c *Client) GenerateContent(ctx context.Context, reqBody Request) (string, error) {
	reqBody.Model = c.model
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("received non-OK status code: %d", resp.StatusCode)
	}

	var llmResp Response
	if err := json.NewDecoder(resp.Body).Decode(&llmResp); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(llmResp.Choices) > 0 {
		c.log.Debug("local LLM response", zap.String("content", llmResp.Choices[0].Message.Content))
		return llmResp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("no content found in response")
}

// ExtractIngredients lists the food items visible in an image.
func (c *Client) ExtractIngredients(ctx context.Context, imageData []byte, mimeType string, lang locale.Code) ([]string, error) {
	encodedImage := base64.StdEncoding.EncodeToString(imageData)
	reqBody := Request{
		Messages: []Message{
			{
				Role: "user",
				Content: []Content{
					{
						Type:     "image_url",
						ImageURL: &ImageURL{URL: "data:" + mimeType + ";base64," + encodedImage},
					},
					{
						Type: "text",
						Text: recipe.ExtractionPrompt(lang),
					},
				},
			},
		},
		Temperature: 0.2,
		MaxTokens:   512,
	}

	responseText, err := c.GenerateContent(ctx, reqBody)
	if err != nil {
		c.log.Error("error analyzing image", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", recipe.ErrExtractionFailed, err)
	}
	return recipe.ParseIngredientList(responseText), nil
}

// GenerateRecipe suggests one recipe for the request's inventory. Invalid
// requests fail before any call is made.
func (c *Client) GenerateRecipe(ctx context.Context, req recipe.GenerationRequest) (*recipe.Recipe, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	reqBody := Request{
		Messages: []Message{
			{
				Role:    "user",
				Content: []Content{{Type: "text", Text: recipe.GenerationPrompt(req)}},
			},
		},
		Temperature: 1,
		MaxTokens:   1024,
		ResponseFormat: &ResponseFormat{
			Type: "json_schema",
			JSONSchema: &JSONSchema{
				Name:   "recipe",
				Strict: true,
				Schema: recipe.JSONSchema(),
			},
		},
	}

	responseText, err := c.GenerateContent(ctx, reqBody)
	if err == nil {
		var r *recipe.Recipe
		if r, err = recipe.ParseRecipe(responseText); err == nil {
			return r, nil
		}
	}

	c.log.Error("error generating recipe", zap.Error(err))
	return nil, fmt.Errorf("%w: %w", recipe.ErrGenerationFailed, err)
}
