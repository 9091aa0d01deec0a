package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	AIProvider     string   `json:"ai_provider" validate:"oneof=gemini local"`
	GeminiAPIKey   string   `json:"gemini_api_key" validate:"required_if=AIProvider gemini"`
	GeminiModel    string   `json:"gemini_model" validate:"required"`
	LocalLLMURL    string   `json:"local_llm_url" validate:"omitempty,url"`
	LocalLLMModel  string   `json:"local_llm_model"`
	StorageDriver  string   `json:"storage_driver" validate:"oneof=memory file sqlite postgres"`
	DataDir        string   `json:"data_dir" validate:"required_if=StorageDriver file"`
	DatabaseURL    string   `json:"DATABASE_URL" validate:"required_if=StorageDriver postgres"`
	Port           string   `json:"port" validate:"required,numeric"`
	AllowedOrigins []string `json:"allowed_origins" validate:"dive,required"`
	LocalesDir     string   `json:"locales_dir"`
	Env            string   `json:"env" validate:"oneof=development production"`
}

// Load reads the optional JSON file at path, then applies .env and process
// environment overrides, then fills defaults and validates the result.
func Load(path string) (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		default:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
			}
		}
	}

	cfg.AIProvider = getEnv("AI_PROVIDER", cfg.AIProvider, "gemini")
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey, "")
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel, "gemini-2.5-flash")
	cfg.LocalLLMURL = getEnv("LOCAL_LLM_URL", cfg.LocalLLMURL, "")
	cfg.LocalLLMModel = getEnv("LOCAL_LLM_MODEL", cfg.LocalLLMModel, "")
	cfg.StorageDriver = getEnv("STORAGE_DRIVER", cfg.StorageDriver, "file")
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir, "data")
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL, "")
	cfg.Port = getEnv("PORT", cfg.Port, "8080")
	cfg.LocalesDir = getEnv("LOCALES_DIR", cfg.LocalesDir, "")
	cfg.Env = getEnv("ENV", cfg.Env, "development")

	if origins, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		cfg.AllowedOrigins = splitList(origins)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:8081"}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// getEnv returns the environment value for key, else the file value, else
// the default.
func getEnv(key, fileValue, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
