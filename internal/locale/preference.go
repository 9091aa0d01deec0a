package locale

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"pantrypal/internal/storage"
)

// PreferenceKey is the storage key of the chosen language.
const PreferenceKey = "pantryPalLanguage"

// ErrUnsupportedLanguage is returned when setting a language outside Supported.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Preferences holds the user's chosen language.
type Preferences struct {
	store storage.Store
	log   *zap.Logger

	mu     sync.RWMutex
	lang   Code
	chosen bool
}

// NewPreferences returns preferences defaulting to English until Load is called.
func NewPreferences(store storage.Store, log *zap.Logger) *Preferences {
	return &Preferences{store: store, log: log, lang: Default}
}

// Load reads the stored language. Missing or unknown values leave the default.
func (p *Preferences) Load(ctx context.Context) {
	data, err := p.store.Get(ctx, PreferenceKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			p.log.Error("failed to load language preference", zap.Error(err))
		}
		return
	}

	code, ok := Parse(strings.Trim(string(data), `"`))
	if !ok {
		p.log.Warn("ignoring stored language preference", zap.ByteString("value", data))
		return
	}

	p.mu.Lock()
	p.lang, p.chosen = code, true
	p.mu.Unlock()
}

// Language returns the current language and whether the user chose it.
func (p *Preferences) Language() (Code, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lang, p.chosen
}

// SetLanguage changes and persists the language.
func (p *Preferences) SetLanguage(ctx context.Context, code Code) error {
	parsed, ok := Parse(string(code))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	code = parsed

	p.mu.Lock()
	p.lang, p.chosen = code, true
	p.mu.Unlock()

	if err := p.store.Put(ctx, PreferenceKey, []byte(code)); err != nil {
		p.log.Error("failed to save language preference", zap.Error(err))
	}
	return nil
}
