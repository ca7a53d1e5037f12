package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linkman-app/linkman/internal/cache"
	"github.com/linkman-app/linkman/internal/clock"
	"github.com/linkman-app/linkman/internal/domain"
	"github.com/linkman-app/linkman/internal/logger"
	"github.com/linkman-app/linkman/internal/storage"
)

// countingKV wraps MemoryKV and counts reads so tests can tell cache
// hits from store reads.
type countingKV struct {
	*storage.MemoryKV
	gets int
}

func (c *countingKV) Get(ctx context.Context, key string) (string, bool, error) {
	c.gets++
	return c.MemoryKV.Get(ctx, key)
}

// failingKV wraps MemoryKV and can reject writes on demand.
type failingKV struct {
	*storage.MemoryKV
	failSet bool
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errors.New("write rejected")
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func newTestCachedStore(t *testing.T) (*CachedStore, *countingKV) {
	t.Helper()
	kv := &countingKV{MemoryKV: storage.NewMemoryKV()}
	clk := &clock.Fixed{T: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := cache.New(time.Minute)
	return NewCachedStore(kv, c, clk, seqGen(), logger.New("error", false)), kv
}

func TestCachedSettingsReadThrough(t *testing.T) {
	store, kv := newTestCachedStore(t)
	ctx := context.Background()

	first, err := store.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if !first.IsFirstLaunch {
		t.Error("seeded settings should have isFirstLaunch true")
	}

	reads := kv.gets
	second, err := store.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if kv.gets != reads {
		t.Errorf("second read hit the store (%d -> %d gets), want cache hit", reads, kv.gets)
	}
	if second.CreatedAt != first.CreatedAt {
		t.Error("cached read should return the same settings")
	}
}

func TestCachedMutationKeepsCacheInLockstep(t *testing.T) {
	store, kv := newTestCachedStore(t)
	ctx := context.Background()

	link, err := store.AddLink(ctx, NewLink{URL: "https://x.example", Title: "X", CategoryID: "c1"})
	if err != nil {
		t.Fatalf("AddLink() error = %v", err)
	}

	reads := kv.gets
	links, err := store.Links(ctx)
	if err != nil {
		t.Fatalf("Links() error = %v", err)
	}
	if kv.gets != reads {
		t.Error("read after mutation should be served from cache")
	}
	if len(links) != 1 || links[0].ID != link.ID {
		t.Errorf("Links() = %v, want the added link", links)
	}

	// The store saw the same write
	stored, err := storage.GetJSON[[]domain.Link](ctx, kv, storage.KeyLinks)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if stored == nil || len(*stored) != 1 || (*stored)[0].ID != link.ID {
		t.Error("mutation must be persisted before it is cached")
	}
}

func TestCachedDeleteCategoryLockstep(t *testing.T) {
	store, _ := newTestCachedStore(t)
	ctx := context.Background()

	categories, err := store.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	work := categories[3]

	link, err := store.AddLink(ctx, NewLink{URL: "https://a.example", Title: "A", CategoryID: work.ID})
	if err != nil {
		t.Fatalf("AddLink() error = %v", err)
	}

	if err := store.DeleteCategory(ctx, work.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}

	remaining, err := store.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if len(remaining) != 4 {
		t.Errorf("len(categories) = %d, want 4", len(remaining))
	}

	moved, err := store.LinkByID(ctx, link.ID)
	if err != nil {
		t.Fatalf("LinkByID() error = %v", err)
	}
	if moved == nil || moved.CategoryID == work.ID {
		t.Error("cached link should be reassigned off the deleted category")
	}
}

func TestCachedUpdateCategoryFailedWriteLeavesCacheUntouched(t *testing.T) {
	kv := &failingKV{MemoryKV: storage.NewMemoryKV()}
	clk := &clock.Fixed{T: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := NewCachedStore(kv, cache.New(time.Minute), clk, seqGen(), logger.New("error", false))
	ctx := context.Background()

	seeded := []domain.Category{{
		ID: "c1", Name: "Old", Color: "#fff", Icon: "c",
		SortOrder: 0, CreatedAt: "x", UpdatedAt: "x",
	}}
	if err := storage.SetJSON(ctx, kv, storage.KeyCategories, seeded); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}

	// Cold cache: the update's internal read populates the cache
	// right before the rejected write.
	kv.failSet = true
	name := "New"
	if _, err := store.UpdateCategory(ctx, "c1", CategoryUpdate{Name: &name}); err == nil {
		t.Fatal("UpdateCategory() should surface the failed write")
	}
	kv.failSet = false

	categories, err := store.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if categories[0].Name != "Old" {
		t.Errorf("cached Name = %q, want %q after a failed write", categories[0].Name, "Old")
	}

	stored, err := storage.GetJSON[[]domain.Category](ctx, kv, storage.KeyCategories)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if (*stored)[0].Name != "Old" {
		t.Errorf("stored Name = %q, want %q after a failed write", (*stored)[0].Name, "Old")
	}
}

func TestInitializeAppDataFlipsFirstLaunchOnce(t *testing.T) {
	clk := &clock.Fixed{T: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := NewCachedStore(storage.NewMemoryKV(), cache.New(time.Minute), clk, seqGen(), logger.New("error", false))
	ctx := context.Background()

	settings, categories, err := store.InitializeAppData(ctx)
	if err != nil {
		t.Fatalf("InitializeAppData() error = %v", err)
	}
	if settings.IsFirstLaunch {
		t.Error("isFirstLaunch should be flipped off")
	}
	if len(categories) != 5 {
		t.Errorf("len(categories) = %d, want 5", len(categories))
	}

	// Idempotent: a later call changes nothing even as time moves on
	clk.T = clk.T.Add(time.Hour)
	again, _, err := store.InitializeAppData(ctx)
	if err != nil {
		t.Fatalf("InitializeAppData() error = %v", err)
	}
	if again.IsFirstLaunch {
		t.Error("isFirstLaunch should stay off")
	}
	if again.UpdatedAt != settings.UpdatedAt {
		t.Error("second initialization should not rewrite settings")
	}
}

func TestRefreshAllCaches(t *testing.T) {
	store, kv := newTestCachedStore(t)
	ctx := context.Background()

	if _, err := store.Settings(ctx); err != nil {
		t.Fatalf("Settings() error = %v", err)
	}

	// Change the store behind the cache's back
	settings := domain.DefaultSettings("2030-01-01T00:00:00.000Z")
	settings.IsDarkMode = true
	if err := storage.SetJSON(ctx, kv, storage.KeySettings, settings); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}

	if err := store.RefreshAllCaches(ctx); err != nil {
		t.Fatalf("RefreshAllCaches() error = %v", err)
	}

	refreshed, err := store.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if !refreshed.IsDarkMode {
		t.Error("refresh should reload the changed value")
	}
}

func TestRefreshCacheSingleKey(t *testing.T) {
	store, kv := newTestCachedStore(t)
	ctx := context.Background()

	if _, err := store.Links(ctx); err != nil {
		t.Fatalf("Links() error = %v", err)
	}

	planted := []domain.Link{{
		ID: "l1", URL: "https://x.example", Title: "X", CategoryID: "c1",
		Tags: []string{}, CreatedAt: "x", UpdatedAt: "x",
	}}
	if err := storage.SetJSON(ctx, kv, storage.KeyLinks, planted); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}

	if err := store.RefreshCache(ctx, cache.KeyLinks); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}

	links, err := store.Links(ctx)
	if err != nil {
		t.Fatalf("Links() error = %v", err)
	}
	if len(links) != 1 || links[0].ID != "l1" {
		t.Errorf("Links() = %v, want the planted link", links)
	}

	if err := store.RefreshCache(ctx, cache.Key("bogus")); err == nil {
		t.Error("RefreshCache() should reject an unknown key")
	}
}

func TestCachedLinksInCategorySorted(t *testing.T) {
	store, _ := newTestCachedStore(t)
	ctx := context.Background()

	for _, order := range []int{2, 0, 1} {
		if _, err := store.AddLink(ctx, NewLink{
			URL:        "https://x.example",
			Title:      "X",
			CategoryID: "c1",
			SortOrder:  order,
		}); err != nil {
			t.Fatalf("AddLink() error = %v", err)
		}
	}

	links, err := store.LinksInCategory(ctx, "c1")
	if err != nil {
		t.Fatalf("LinksInCategory() error = %v", err)
	}
	for i, link := range links {
		if link.SortOrder != i {
			t.Errorf("links[%d].SortOrder = %d, want ascending order", i, link.SortOrder)
		}
	}
}

func TestCachedStoreSkipsValidationOnMiss(t *testing.T) {
	store, kv := newTestCachedStore(t)
	ctx := context.Background()

	// Shape-invalid but decodable: the façade trusts the adapter decode
	if err := kv.Set(ctx, storage.KeyLinks, `[{"id":"l1","url":"u","title":"t","categoryId":"c","isFavorite":false,"tags":[],"sortOrder":0,"accessCount":0,"createdAt":"x"}]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	links, err := store.Links(ctx)
	if err != nil {
		t.Fatalf("Links() error = %v", err)
	}
	if len(links) != 1 {
		t.Errorf("len(links) = %d, want 1 despite the missing updatedAt", len(links))
	}
}
