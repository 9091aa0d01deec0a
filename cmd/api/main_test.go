package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pantrypal/internal/config"
	"pantrypal/internal/locale"
	"pantrypal/internal/platform/localllm"
	"pantrypal/internal/recipe"
)

// mockProvider is a mock of the AI provider.
type mockProvider struct {
	items []string
}

func (m *mockProvider) Name() string { return "mock" }

// ExtractIngredients mocks the ExtractIngredients method.
func (m *mockProvider) ExtractIngredients(ctx context.Context, imageData []byte, mimeType string, lang locale.Code) ([]string, error) {
	return m.items, nil
}

// GenerateRecipe mocks the GenerateRecipe method.
func (m *mockProvider) GenerateRecipe(ctx context.Context, req recipe.GenerationRequest) (*recipe.Recipe, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &recipe.Recipe{
		Name:         "Mock Fried Rice",
		Description:  "Uses up leftovers",
		Ingredients:  req.Inventory,
		Instructions: []string{"Fry"},
	}, nil
}

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	return &config.Config{
		AIProvider:     "local",
		StorageDriver:  driver,
		DataDir:        t.TempDir(),
		Port:           "0",
		AllowedOrigins: []string{"http://localhost:8081"},
		Env:            "development",
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	// Set up Gin in test mode
	gin.SetMode(gin.TestMode)

	app, err := newApp(context.Background(), cfg, &mockProvider{}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func serve(app *App, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)
	return rr
}

func TestApp_EndToEnd(t *testing.T) {
	app := newTestApp(t, testConfig(t, "memory"))

	rr := serve(app, http.MethodPost, "/inventory/import", []byte(`["Rice","Eggs"]`), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = serve(app, http.MethodPost, "/recipes", []byte(`{"mealType":"Lunch","servings":2}`), nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var entry recipe.HistoricalRecipe
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entry))
	assert.Equal(t, "Mock Fried Rice", entry.Name)
	assert.Equal(t, []string{"rice", "eggs"}, entry.Ingredients)

	rr = serve(app, http.MethodGet, "/history", nil, nil)
	var history []recipe.HistoricalRecipe
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, entry.ID, history[0].ID)

	rr = serve(app, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestApp_CORS(t *testing.T) {
	app := newTestApp(t, testConfig(t, "memory"))

	rr := serve(app, http.MethodOptions, "/inventory", nil, map[string]string{
		"Origin":                        "http://localhost:8081",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:8081", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = serve(app, http.MethodGet, "/inventory", nil, map[string]string{"Origin": "http://evil.test"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestApp_StatePersistsAcrossRestarts(t *testing.T) {
	for _, driver := range []string{"file", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(t, driver)

			app := newTestApp(t, cfg)
			serve(app, http.MethodPost, "/inventory", []byte(`{"item":"Basil"}`), nil)
			serve(app, http.MethodPost, "/recipes", nil, nil)
			serve(app, http.MethodPut, "/language", []byte(`{"language":"de"}`), nil)
			require.NoError(t, app.Close())

			restarted := newTestApp(t, cfg)
			assert.Equal(t, []string{"basil"}, restarted.Handler.Inventory.Items())
			assert.Len(t, restarted.Handler.History.List(), 1)
			lang, chosen := restarted.Handler.Preferences.Language()
			assert.Equal(t, locale.German, lang)
			assert.True(t, chosen)
		})
	}
}

func TestNewProvider_Local(t *testing.T) {
	cfg := testConfig(t, "memory")
	cfg.LocalLLMURL = "http://localhost:1234/v1/chat/completions"

	provider, closeProvider, err := newProvider(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeProvider()
	assert.Equal(t, localllm.ProviderName, provider.Name())
}
