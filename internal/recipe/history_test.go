package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pantrypal/internal/storage"
)

func omelette() Recipe {
	return Recipe{
		Name:         "Omelette",
		Description:  "Fluffy eggs",
		Ingredients:  []string{"eggs", "milk"},
		Instructions: []string{"Whisk", "Cook"},
	}
}

func newTestHistory(t *testing.T, store storage.Store) *History {
	t.Helper()
	h := NewHistory(store, zap.NewNop())
	h.Load(context.Background())
	return h
}

func TestHistory_RecordNewestFirstWithDistinctIDs(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory(t, storage.NewMemoryStore())

	first := h.Record(ctx, omelette())
	second := h.Record(ctx, Recipe{Name: "Pancakes", Ingredients: []string{}, Instructions: []string{}})

	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.IsFavorite)
	assert.False(t, first.GeneratedAt.IsZero())

	list := h.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestHistory_RecordSkipsCollidingIDs(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory(t, storage.NewMemoryStore())
	ids := []string{"same", "same", "other"}
	h.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	a := h.Record(ctx, omelette())
	b := h.Record(ctx, omelette())
	assert.Equal(t, "same", a.ID)
	assert.Equal(t, "other", b.ID)
}

func TestHistory_ToggleFavoriteTwiceRestores(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory(t, storage.NewMemoryStore())
	e := h.Record(ctx, omelette())

	got, ok := h.ToggleFavorite(ctx, e.ID)
	require.True(t, ok)
	assert.True(t, got.IsFavorite)

	got, ok = h.ToggleFavorite(ctx, e.ID)
	require.True(t, ok)
	assert.False(t, got.IsFavorite)

	_, ok = h.ToggleFavorite(ctx, "missing")
	assert.False(t, ok)
}

func TestHistory_Delete(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory(t, storage.NewMemoryStore())
	a := h.Record(ctx, omelette())
	b := h.Record(ctx, omelette())

	assert.False(t, h.Delete(ctx, "missing"))
	assert.Len(t, h.List(), 2)

	assert.True(t, h.Delete(ctx, a.ID))
	list := h.List()
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	_, ok := h.Get(a.ID)
	assert.False(t, ok)
}

func TestHistory_FilterFavorites(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory(t, storage.NewMemoryStore())
	h.Record(ctx, omelette())
	fav := h.Record(ctx, omelette())
	h.Record(ctx, omelette())
	h.ToggleFavorite(ctx, fav.ID)

	favorites := h.Filter(Favorites)
	require.Len(t, favorites, 1)
	assert.Equal(t, fav.ID, favorites[0].ID)
	assert.Len(t, h.List(), 3)
}

func TestHistory_PersistsOnEveryMutation(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	h := newTestHistory(t, store)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	e := h.Record(ctx, omelette())
	h.ToggleFavorite(ctx, e.ID)

	data, err := store.Get(ctx, HistoryKey)
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "Omelette", raw[0]["recipeName"])
	assert.Equal(t, e.ID, raw[0]["id"])
	assert.Equal(t, "2024-05-01T12:00:00Z", raw[0]["generatedAt"])
	assert.Equal(t, true, raw[0]["isFavorite"])

	reloaded := newTestHistory(t, store)
	list := reloaded.List()
	require.Len(t, list, 1)
	assert.Equal(t, e.ID, list[0].ID)
	assert.True(t, list[0].IsFavorite)
	assert.Equal(t, []string{"Whisk", "Cook"}, list[0].Instructions)
}

func TestHistory_CorruptDataLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, HistoryKey, []byte("{not json")))

	h := newTestHistory(t, store)
	assert.Empty(t, h.List())

	require.NoError(t, store.Put(ctx, HistoryKey, []byte("null")))
	h = newTestHistory(t, store)
	assert.NotNil(t, h.List())
	assert.Empty(t, h.List())
}

type failingStore struct{ storage.Store }

func (failingStore) Put(context.Context, string, []byte) error {
	return fmt.Errorf("disk full")
}

func TestHistory_WriteFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory(t, failingStore{storage.NewMemoryStore()})

	e := h.Record(ctx, omelette())
	assert.NotEmpty(t, e.ID)
	assert.Len(t, h.List(), 1)
}
