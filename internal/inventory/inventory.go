// Package inventory keeps the user's pantry: an ordered set of normalized
// food names, written through to storage on every change.
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"pantrypal/internal/storage"
)

// Key is the storage key of the inventory.
const Key = "pantryInventory"

// ErrNothingToExport is returned by ExportSnapshot on an empty inventory.
var ErrNothingToExport = errors.New("pantry is empty, nothing to export")

// Store is the pantry inventory. Safe for concurrent use.
type Store struct {
	store storage.Store
	log   *zap.Logger

	mu    sync.RWMutex
	items []string
}

// NewStore returns an empty inventory backed by store. Call Load to read the
// persisted items.
func NewStore(store storage.Store, log *zap.Logger) *Store {
	return &Store{store: store, log: log, items: []string{}}
}

// Load replaces the in-memory items with the persisted ones. Missing or
// corrupt data leaves an empty inventory.
func (s *Store) Load(ctx context.Context) {
	items := []string{}

	data, err := s.store.Get(ctx, Key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		s.log.Error("failed to load inventory", zap.Error(err))
	default:
		var saved []string
		if err := json.Unmarshal(data, &saved); err != nil {
			s.log.Error("failed to parse inventory, starting empty", zap.Error(err))
		} else {
			items = dedupe(saved)
		}
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

// save must be called with s.mu held.
func (s *Store) save(ctx context.Context) {
	data, err := json.Marshal(s.items)
	if err != nil {
		s.log.Error("failed to encode inventory", zap.Error(err))
		return
	}
	if err := s.store.Put(ctx, Key, data); err != nil {
		s.log.Error("failed to save inventory", zap.Error(err))
	}
}

func (s *Store) contains(item string) bool {
	for _, existing := range s.items {
		if existing == item {
			return true
		}
	}
	return false
}

// Add inserts item unless it is empty or already present.
func (s *Store) Add(ctx context.Context, item string) bool {
	item = Normalize(item)
	if item == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.contains(item) {
		return false
	}
	s.items = append(s.items, item)
	s.save(ctx)
	return true
}

// Remove deletes item if present.
func (s *Store) Remove(ctx context.Context, item string) bool {
	item = Normalize(item)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.items {
		if existing == item {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			s.save(ctx)
			return true
		}
	}
	return false
}

// BulkMerge unions items into the inventory, keeping first occurrences, and
// returns how many names were new.
func (s *Store) BulkMerge(ctx context.Context, items []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.items)
	s.items = dedupe(append(append([]string{}, s.items...), items...))
	added := len(s.items) - before
	if added > 0 {
		s.save(ctx)
	}
	return added
}

// ImportReplace replaces the whole inventory with an import payload. On an
// *ImportError the inventory is left untouched.
func (s *Store) ImportReplace(ctx context.Context, raw []byte) ([]string, error) {
	items, err := ParseImport(raw)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = items
	s.save(ctx)
	return append([]string{}, items...), nil
}

// ExportSnapshot returns the inventory as an indented JSON array.
func (s *Store) ExportSnapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.items) == 0 {
		return nil, ErrNothingToExport
	}
	return json.MarshalIndent(s.items, "", "  ")
}

// Items returns a copy of the current items in insertion order.
func (s *Store) Items() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.items...)
}
