package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

//go:embed locales/*.json
var embedded embed.FS

// bundleCacheSize keeps every supported language resident.
const bundleCacheSize = 8

// EmbeddedFS returns the locale files compiled into the binary.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		panic(fmt.Errorf("locale: embedded locales missing: %w", err))
	}
	return sub
}

// Translator loads <code>.json bundles on demand and resolves keys with
// English as the fallback language.
type Translator struct {
	fsys    fs.FS
	bundles *lru.Cache[Code, map[string]string]
	log     *zap.Logger
	mu      sync.Mutex
}

// NewTranslator creates a translator reading bundles from fsys.
func NewTranslator(fsys fs.FS, log *zap.Logger) (*Translator, error) {
	cache, err := lru.New[Code, map[string]string](bundleCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create bundle cache: %w", err)
	}
	return &Translator{fsys: fsys, bundles: cache, log: log}, nil
}

func (t *Translator) load(c Code) (map[string]string, error) {
	if b, ok := t.bundles.Get(c); ok {
		return b, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.bundles.Get(c); ok {
		return b, nil
	}

	data, err := fs.ReadFile(t.fsys, string(c)+".json")
	if err != nil {
		return nil, fmt.Errorf("failed to load %s translations: %w", c, err)
	}
	var b map[string]string
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse %s translations: %w", c, err)
	}
	t.bundles.Add(c, b)
	return b, nil
}

// bundle returns a loaded bundle or nil, logging load failures.
func (t *Translator) bundle(c Code) map[string]string {
	b, err := t.load(c)
	if err != nil {
		t.log.Warn("translation bundle unavailable", zap.String("language", string(c)), zap.Error(err))
		return nil
	}
	return b
}

// T resolves key in language c, then in English, then returns the key itself.
func (t *Translator) T(c Code, key string) string {
	if c != English {
		if s, ok := t.bundle(c)[key]; ok && s != "" {
			return s
		}
	}
	if s, ok := t.bundle(English)[key]; ok && s != "" {
		return s
	}
	return key
}

// Bundle returns every English key resolved for language c.
func (t *Translator) Bundle(c Code) map[string]string {
	en := t.bundle(English)
	out := make(map[string]string, len(en))
	for k, v := range en {
		out[k] = v
	}
	if c != English {
		for k, v := range t.bundle(c) {
			if v != "" {
				out[k] = v
			}
		}
	}
	return out
}
