package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pantrypal/internal/api"
	"pantrypal/internal/config"
	"pantrypal/internal/inventory"
	"pantrypal/internal/locale"
	"pantrypal/internal/logger"
	"pantrypal/internal/metrics"
	"pantrypal/internal/platform/gemini"
	"pantrypal/internal/platform/localllm"
	"pantrypal/internal/recipe"
	"pantrypal/internal/storage"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load("config.json")
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(fmt.Errorf("failed to initialize logger: %w", err))
	}
	defer func() { _ = log.Sync() }()

	provider, closeProvider, err := newProvider(ctx, cfg, log)
	if err != nil {
		log.Fatal("error creating AI provider", zap.Error(err))
	}
	defer closeProvider()

	app, err := newApp(ctx, cfg, provider, log)
	if err != nil {
		log.Fatal("error starting application", zap.Error(err))
	}
	defer app.Close()

	log.Info("listening",
		zap.String("addr", cfg.Addr()),
		zap.String("provider", provider.Name()),
		zap.String("storage", cfg.StorageDriver))
	if err := app.Router.Run(cfg.Addr()); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// newProvider picks the model backend named by the configuration.
func newProvider(ctx context.Context, cfg *config.Config, log *zap.Logger) (api.AIProvider, func(), error) {
	switch cfg.AIProvider {
	case localllm.ProviderName:
		return localllm.NewClient(cfg.LocalLLMURL, cfg.LocalLLMModel, log.Named("localllm")), func() {}, nil
	default:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log.Named("gemini"))
		if err != nil {
			return nil, nil, fmt.Errorf("error creating gemini client: %w", err)
		}
		return client, func() {
			if err := client.Close(); err != nil {
				log.Warn("error closing gemini client", zap.Error(err))
			}
		}, nil
	}
}

// App is the wired HTTP application.
type App struct {
	Router  *gin.Engine
	Handler *api.Handler
	store   storage.Store
}

// Close releases the storage backend.
func (a *App) Close() error {
	return a.store.Close()
}

// newApp opens storage, loads the persisted state and builds the router.
func newApp(ctx context.Context, cfg *config.Config, provider api.AIProvider, log *zap.Logger) (*App, error) {
	store, err := storage.Open(cfg.StorageDriver, cfg.DataDir, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("error opening %s storage: %w", cfg.StorageDriver, err)
	}

	inv := inventory.NewStore(store, log.Named("inventory"))
	inv.Load(ctx)
	history := recipe.NewHistory(store, log.Named("history"))
	history.Load(ctx)
	prefs := locale.NewPreferences(store, log.Named("preferences"))
	prefs.Load(ctx)

	var locales fs.FS = locale.EmbeddedFS()
	if cfg.LocalesDir != "" {
		locales = os.DirFS(cfg.LocalesDir)
	}
	translator, err := locale.NewTranslator(locales, log.Named("locale"))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	handler := api.NewHandler(provider, inv, history, prefs, translator, metrics.New(), log.Named("api"))
	return &App{
		Router:  newRouter(cfg, handler, log),
		Handler: handler,
		store:   store,
	}, nil
}

func newRouter(cfg *config.Config, handler *api.Handler, log *zap.Logger) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(logger.Middleware(log.Named("http")), gin.Recovery())

	// Configure CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler.RegisterRoutes(r)
	return r
}
