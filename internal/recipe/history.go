package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pantrypal/internal/storage"
)

// HistoryKey is the storage key of the history log.
const HistoryKey = "pantryPalMealHistory"

// History is the log of generated recipes, newest first. Every mutation is
// written through to storage; write failures are logged, not returned.
type History struct {
	store storage.Store
	log   *zap.Logger
	now   func() time.Time
	newID func() string

	mu      sync.RWMutex
	entries []HistoricalRecipe
}

// NewHistory returns an empty history backed by store. Call Load to read
// the persisted log.
func NewHistory(store storage.Store, log *zap.Logger) *History {
	return &History{
		store:   store,
		log:     log,
		now:     time.Now,
		newID:   newHistoryID,
		entries: []HistoricalRecipe{},
	}
}

// newHistoryID returns a time-ordered UUIDv7.
func newHistoryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Load replaces the in-memory log with the persisted one. Missing or corrupt
// data leaves an empty log.
func (h *History) Load(ctx context.Context) {
	entries := []HistoricalRecipe{}

	data, err := h.store.Get(ctx, HistoryKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		h.log.Error("failed to load meal history", zap.Error(err))
	default:
		if err := json.Unmarshal(data, &entries); err != nil || entries == nil {
			h.log.Error("failed to parse meal history, starting empty", zap.Error(err))
			entries = []HistoricalRecipe{}
		}
	}

	h.mu.Lock()
	h.entries = entries
	h.mu.Unlock()
}

// save must be called with h.mu held.
func (h *History) save(ctx context.Context) {
	data, err := json.Marshal(h.entries)
	if err != nil {
		h.log.Error("failed to encode meal history", zap.Error(err))
		return
	}
	if err := h.store.Put(ctx, HistoryKey, data); err != nil {
		h.log.Error("failed to save meal history", zap.Error(err))
	}
}

// Record adds a freshly generated recipe to the front of the log.
func (h *History) Record(ctx context.Context, r Recipe) HistoricalRecipe {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.newID()
	for h.indexOf(id) >= 0 {
		id = h.newID()
	}
	entry := HistoricalRecipe{
		Recipe:      r,
		ID:          id,
		GeneratedAt: h.now().UTC(),
	}
	h.entries = append([]HistoricalRecipe{entry}, h.entries...)
	h.save(ctx)

	h.log.Debug("recorded recipe", zap.String("id", id), zap.String("name", r.Name))
	return entry
}

func (h *History) indexOf(id string) int {
	for i := range h.entries {
		if h.entries[i].ID == id {
			return i
		}
	}
	return -1
}

// ToggleFavorite flips the favorite flag of id. It returns false when id is
// not in the log.
func (h *History) ToggleFavorite(ctx context.Context, id string) (HistoricalRecipe, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.indexOf(id)
	if i < 0 {
		return HistoricalRecipe{}, false
	}
	h.entries[i].IsFavorite = !h.entries[i].IsFavorite
	h.save(ctx)
	return h.entries[i], true
}

// Delete removes id from the log. It returns false when id is not in the log.
func (h *History) Delete(ctx context.Context, id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.indexOf(id)
	if i < 0 {
		return false
	}
	h.entries = append(h.entries[:i:i], h.entries[i+1:]...)
	h.save(ctx)
	return true
}

// Get returns the entry with id.
func (h *History) Get(id string) (HistoricalRecipe, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i := h.indexOf(id); i >= 0 {
		return h.entries[i], true
	}
	return HistoricalRecipe{}, false
}

// List returns the whole log, newest first.
func (h *History) List() []HistoricalRecipe {
	return h.Filter(func(HistoricalRecipe) bool { return true })
}

// Filter returns the entries matching keep, in log order. The log itself is
// not modified.
func (h *History) Filter(keep func(HistoricalRecipe) bool) []HistoricalRecipe {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]HistoricalRecipe, 0, len(h.entries))
	for _, e := range h.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Favorites matches entries marked as favorite.
func Favorites(e HistoricalRecipe) bool { return e.IsFavorite }
