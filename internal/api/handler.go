package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pantrypal/internal/imaging"
	"pantrypal/internal/inventory"
	"pantrypal/internal/locale"
	"pantrypal/internal/metrics"
	"pantrypal/internal/recipe"
)

// maxUploadSize bounds photo and import uploads.
const maxUploadSize = 20 << 20

const defaultServings = 2

// AIProvider defines the interface for the model backends.
type AIProvider interface {
	Name() string
	ExtractIngredients(ctx context.Context, imageData []byte, mimeType string, lang locale.Code) ([]string, error)
	GenerateRecipe(ctx context.Context, req recipe.GenerationRequest) (*recipe.Recipe, error)
}

// InventoryStore defines the pantry operations used by the handlers.
type InventoryStore interface {
	Add(ctx context.Context, item string) bool
	Remove(ctx context.Context, item string) bool
	BulkMerge(ctx context.Context, items []string) int
	ImportReplace(ctx context.Context, raw []byte) ([]string, error)
	ExportSnapshot() ([]byte, error)
	Items() []string
}

// HistoryStore defines the meal history operations used by the handlers.
type HistoryStore interface {
	Record(ctx context.Context, r recipe.Recipe) recipe.HistoricalRecipe
	ToggleFavorite(ctx context.Context, id string) (recipe.HistoricalRecipe, bool)
	Delete(ctx context.Context, id string) bool
	Get(id string) (recipe.HistoricalRecipe, bool)
	List() []recipe.HistoricalRecipe
	Filter(keep func(recipe.HistoricalRecipe) bool) []recipe.HistoricalRecipe
}

// LanguagePreference stores the user's language.
type LanguagePreference interface {
	Language() (locale.Code, bool)
	SetLanguage(ctx context.Context, code locale.Code) error
}

// Translator resolves UI strings.
type Translator interface {
	T(c locale.Code, key string) string
	Bundle(c locale.Code) map[string]string
}

// Handler handles HTTP requests.
type Handler struct {
	Provider    AIProvider
	Inventory   InventoryStore
	History     HistoryStore
	Preferences LanguagePreference
	Translator  Translator
	Metrics     *metrics.Metrics
	Log         *zap.Logger
}

// NewHandler creates a new Handler. m may be nil.
func NewHandler(provider AIProvider, inv InventoryStore, history HistoryStore, prefs LanguagePreference, tr Translator, m *metrics.Metrics, log *zap.Logger) *Handler {
	return &Handler{
		Provider:    provider,
		Inventory:   inv,
		History:     history,
		Preferences: prefs,
		Translator:  tr,
		Metrics:     m,
		Log:         log,
	}
}

// RegisterRoutes mounts every endpoint on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/inventory", h.GetInventory)
	r.POST("/inventory", h.AddItem)
	r.DELETE("/inventory/*item", h.RemoveItem)
	r.POST("/inventory/analyze", h.AnalyzeImage)
	r.POST("/inventory/import", h.ImportInventory)
	r.GET("/inventory/export", h.ExportInventory)

	r.POST("/recipes", h.GenerateRecipe)

	r.GET("/history", h.GetHistory)
	r.GET("/history/:id", h.GetHistoryEntry)
	r.POST("/history/:id/favorite", h.ToggleFavorite)
	r.DELETE("/history/:id", h.DeleteHistory)

	r.GET("/language", h.GetLanguage)
	r.PUT("/language", h.SetLanguage)
	r.GET("/locales/:lang", h.GetLocale)

	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}
}

// language is the stored preference, or the best Accept-Language match
// when the user never picked one.
func (h *Handler) language(c *gin.Context) locale.Code {
	if lang, chosen := h.Preferences.Language(); chosen {
		return lang
	}
	return locale.Negotiate(c.GetHeader("Accept-Language"))
}

// fail writes a translated error body and records err on the context.
func (h *Handler) fail(c *gin.Context, status int, key string, err error, args ...any) {
	if err != nil {
		_ = c.Error(err)
	}
	msg := h.Translator.T(h.language(c), key)
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func inventoryBody(items []string) gin.H {
	if items == nil {
		items = []string{}
	}
	return gin.H{"items": items}
}

// GetInventory returns the pantry items.
func (h *Handler) GetInventory(c *gin.Context) {
	c.JSON(http.StatusOK, inventoryBody(h.Inventory.Items()))
}

type addItemRequest struct {
	Item string `json:"item" binding:"required"`
}

// AddItem adds one manually typed item.
func (h *Handler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "error.invalid_request", err)
		return
	}

	added := h.Inventory.Add(c.Request.Context(), req.Item)
	body := inventoryBody(h.Inventory.Items())
	body["added"] = added
	c.JSON(http.StatusOK, body)
}

// RemoveItem removes one item. The item is the rest of the path, so names
// containing "/" work when escaped. Removing an absent item is not an error.
func (h *Handler) RemoveItem(c *gin.Context) {
	item := strings.TrimPrefix(c.Param("item"), "/")
	removed := h.Inventory.Remove(c.Request.Context(), item)
	body := inventoryBody(h.Inventory.Items())
	body["removed"] = removed
	c.JSON(http.StatusOK, body)
}

// readUpload returns the bytes and declared content type of the multipart
// "file" field.
func readUpload(c *gin.Context) ([]byte, string, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("get form err: %w", err)
	}
	if file.Size > maxUploadSize {
		return nil, "", fmt.Errorf("upload of %d bytes exceeds limit", file.Size)
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open file err: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", fmt.Errorf("read file err: %w", err)
	}

	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" || strings.HasPrefix(mimeType, "application/octet-stream") {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

// AnalyzeImage identifies the food in an uploaded photo and merges it into
// the pantry.
func (h *Handler) AnalyzeImage(c *gin.Context) {
	data, mimeType, err := readUpload(c)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "error.read_image", err)
		return
	}

	data, mimeType, err = imaging.Prepare(data, mimeType)
	switch {
	case errors.Is(err, imaging.ErrUnsupportedImage):
		h.fail(c, http.StatusBadRequest, "error.unsupported_image", err)
		return
	case err != nil:
		h.fail(c, http.StatusBadRequest, "error.read_image", err)
		return
	}

	lang := h.language(c)
	start := time.Now()
	items, err := h.Provider.ExtractIngredients(c.Request.Context(), data, mimeType, lang)
	h.Metrics.ObserveAI(metrics.OpExtract, h.Provider.Name(), start, err)
	if err != nil {
		h.fail(c, http.StatusBadGateway, "error.extraction_failed", err)
		return
	}
	if len(items) == 0 {
		h.fail(c, http.StatusUnprocessableEntity, "error.no_ingredients", nil)
		return
	}

	added := h.Inventory.BulkMerge(c.Request.Context(), items)
	h.Log.Info("analyzed image",
		zap.String("provider", h.Provider.Name()),
		zap.Int("detected", len(items)),
		zap.Int("added", added))

	body := inventoryBody(h.Inventory.Items())
	body["detected"] = items
	body["added"] = added
	c.JSON(http.StatusOK, body)
}

// ImportInventory replaces the pantry with an uploaded backup. The payload
// may be the multipart "file" field or the raw request body.
func (h *Handler) ImportInventory(c *gin.Context) {
	var (
		raw []byte
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		raw, _, err = readUpload(c)
	} else {
		raw, err = io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize))
	}
	if err != nil {
		h.fail(c, http.StatusBadRequest, "error.import_failed", err, err.Error())
		return
	}

	items, err := h.Inventory.ImportReplace(c.Request.Context(), raw)
	if err != nil {
		reason := err.Error()
		var importErr *inventory.ImportError
		if errors.As(err, &importErr) {
			reason = importErr.Reason
		}
		h.fail(c, http.StatusBadRequest, "error.import_failed", err, reason)
		return
	}
	c.JSON(http.StatusOK, inventoryBody(items))
}

// ExportInventory downloads the pantry as pantry-backup.json.
func (h *Handler) ExportInventory(c *gin.Context) {
	data, err := h.Inventory.ExportSnapshot()
	if errors.Is(err, inventory.ErrNothingToExport) {
		h.fail(c, http.StatusBadRequest, "error.nothing_to_export", err)
		return
	}
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "error.invalid_request", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="pantry-backup.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

type generateRequest struct {
	MealType string `json:"mealType"`
	Servings *int   `json:"servings"`
}

// GenerateRecipe suggests a recipe from the current pantry and records it
// in the meal history.
func (h *Handler) GenerateRecipe(c *gin.Context) {
	// An empty body means all defaults.
	var body generateRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		h.fail(c, http.StatusBadRequest, "error.invalid_request", err)
		return
	}

	req := recipe.GenerationRequest{
		Inventory: h.Inventory.Items(),
		MealType:  recipe.MealType(body.MealType),
		Servings:  defaultServings,
		Language:  h.language(c),
	}
	if req.MealType == "" {
		req.MealType = recipe.DefaultMealType
	}
	if body.Servings != nil {
		req.Servings = *body.Servings
	}

	if err := req.Validate(); err != nil {
		switch {
		case errors.Is(err, recipe.ErrEmptyInventory):
			h.fail(c, http.StatusBadRequest, "error.empty_pantry", err)
		case errors.Is(err, recipe.ErrInvalidServings):
			h.fail(c, http.StatusBadRequest, "error.invalid_servings", err)
		default:
			h.fail(c, http.StatusBadRequest, "error.invalid_meal_type", err)
		}
		return
	}

	start := time.Now()
	r, err := h.Provider.GenerateRecipe(c.Request.Context(), req)
	h.Metrics.ObserveAI(metrics.OpGenerate, h.Provider.Name(), start, err)
	if err != nil {
		h.fail(c, http.StatusBadGateway, "error.generation_failed", err)
		return
	}

	entry := h.History.Record(c.Request.Context(), *r)
	h.Log.Info("generated recipe",
		zap.String("provider", h.Provider.Name()),
		zap.String("id", entry.ID),
		zap.String("mealType", string(req.MealType)),
		zap.Int("servings", req.Servings))
	c.JSON(http.StatusCreated, entry)
}

// GetHistory lists the meal history, newest first. ?filter=favorites keeps
// only favorites.
func (h *Handler) GetHistory(c *gin.Context) {
	var entries []recipe.HistoricalRecipe
	switch c.Query("filter") {
	case "", "all":
		entries = h.History.List()
	case "favorites":
		entries = h.History.Filter(recipe.Favorites)
	default:
		h.fail(c, http.StatusBadRequest, "error.invalid_request", fmt.Errorf("unknown filter %q", c.Query("filter")))
		return
	}
	if entries == nil {
		entries = []recipe.HistoricalRecipe{}
	}
	c.JSON(http.StatusOK, entries)
}

// GetHistoryEntry returns one history entry.
func (h *Handler) GetHistoryEntry(c *gin.Context) {
	entry, ok := h.History.Get(c.Param("id"))
	if !ok {
		h.fail(c, http.StatusNotFound, "error.recipe_not_found", nil)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// ToggleFavorite flips the favorite flag of a history entry.
func (h *Handler) ToggleFavorite(c *gin.Context) {
	entry, ok := h.History.ToggleFavorite(c.Request.Context(), c.Param("id"))
	if !ok {
		h.fail(c, http.StatusNotFound, "error.recipe_not_found", nil)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// DeleteHistory removes a history entry.
func (h *Handler) DeleteHistory(c *gin.Context) {
	if !h.History.Delete(c.Request.Context(), c.Param("id")) {
		h.fail(c, http.StatusNotFound, "error.recipe_not_found", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func languageBody(lang locale.Code, chosen bool) gin.H {
	return gin.H{
		"language":  lang,
		"name":      lang.NativeName(),
		"direction": lang.Direction(),
		"chosen":    chosen,
		"supported": locale.Supported,
	}
}

// GetLanguage reports the active language.
func (h *Handler) GetLanguage(c *gin.Context) {
	_, chosen := h.Preferences.Language()
	c.JSON(http.StatusOK, languageBody(h.language(c), chosen))
}

type setLanguageRequest struct {
	Language string `json:"language" binding:"required"`
}

// SetLanguage stores the user's language.
func (h *Handler) SetLanguage(c *gin.Context) {
	var req setLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "error.invalid_request", err)
		return
	}
	if err := h.Preferences.SetLanguage(c.Request.Context(), locale.Code(req.Language)); err != nil {
		h.fail(c, http.StatusBadRequest, "error.unsupported_language", err)
		return
	}
	lang, chosen := h.Preferences.Language()
	c.JSON(http.StatusOK, languageBody(lang, chosen))
}

// GetLocale returns the translation bundle for a language, filled in with
// English for missing keys. Unknown languages get the English bundle.
func (h *Handler) GetLocale(c *gin.Context) {
	lang, _ := locale.Parse(c.Param("lang"))
	c.JSON(http.StatusOK, gin.H{
		"language":  lang,
		"direction": lang.Direction(),
		"messages":  h.Translator.Bundle(lang),
	})
}
