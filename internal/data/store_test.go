package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/linkman-app/linkman/internal/clock"
	"github.com/linkman-app/linkman/internal/domain"
	"github.com/linkman-app/linkman/internal/ids"
	"github.com/linkman-app/linkman/internal/logger"
	"github.com/linkman-app/linkman/internal/storage"
)

func seqGen() ids.Generator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func newTestStore(t *testing.T) (*Store, *storage.MemoryKV) {
	t.Helper()
	kv := storage.NewMemoryKV()
	clk := &clock.Fixed{T: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewStore(kv, clk, seqGen(), logger.New("error", false)), kv
}

func TestSettingsSeedsDefaults(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	settings, err := store.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}

	if !settings.IsFirstLaunch {
		t.Error("seeded settings should have isFirstLaunch true")
	}
	if settings.AutoLockTimeMinutes != 5 {
		t.Errorf("AutoLockTimeMinutes = %d, want 5", settings.AutoLockTimeMinutes)
	}
	if !settings.AutoDetectClipboard {
		t.Error("seeded settings should have autoDetectClipboard true")
	}
	if settings.AppVersion != domain.CurrentAppVersion {
		t.Errorf("AppVersion = %q, want %q", settings.AppVersion, domain.CurrentAppVersion)
	}

	// The seed is persisted, not just returned
	if _, found, _ := kv.Get(ctx, storage.KeySettings); !found {
		t.Error("seeded settings should be persisted")
	}

	// A second read returns the stored value, not a fresh seed
	again, err := store.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if again.CreatedAt != settings.CreatedAt {
		t.Error("second read should return the persisted settings")
	}
}

func TestSettingsInvalidShape(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	// Parseable JSON with the wrong shape
	if err := kv.Set(ctx, storage.KeySettings, `{"isFirstLaunch": "yes"}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	_, err := store.Settings(ctx)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Settings() error = %v, want ErrInvalidFormat", err)
	}
}

func TestSettingsMalformedValue(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	if err := kv.Set(ctx, storage.KeySettings, `{broken`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	_, err := store.Settings(ctx)
	var serr *storage.StorageError
	if !errors.As(err, &serr) {
		t.Errorf("Settings() error = %v, want *StorageError for malformed JSON", err)
	}
}

func TestUpdateSettingsPartial(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	dark := true
	updated, err := store.UpdateSettings(ctx, SettingsUpdate{IsDarkMode: &dark})
	if err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}

	if !updated.IsDarkMode {
		t.Error("IsDarkMode should be updated")
	}
	if !updated.IsFirstLaunch {
		t.Error("untouched fields must keep their values")
	}
}

func TestResetSettings(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	dark := true
	if _, err := store.UpdateSettings(ctx, SettingsUpdate{IsDarkMode: &dark}); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}

	settings, err := store.ResetSettings(ctx)
	if err != nil {
		t.Fatalf("ResetSettings() error = %v", err)
	}
	if settings.IsDarkMode {
		t.Error("reset should restore defaults")
	}
}

func TestCategoriesSeedsDefaults(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	categories, err := store.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}

	if len(categories) != 5 {
		t.Fatalf("len(categories) = %d, want 5", len(categories))
	}
	for i, c := range categories {
		if c.SortOrder != i {
			t.Errorf("categories[%d].SortOrder = %d, want %d", i, c.SortOrder, i)
		}
		if c.ID == "" || c.CreatedAt == "" {
			t.Errorf("categories[%d] missing id or timestamps", i)
		}
	}
	if categories[4].Name != domain.MiscCategoryName {
		t.Errorf("last default category = %q, want %q", categories[4].Name, domain.MiscCategoryName)
	}
}

func TestCategoriesSortedBySortOrder(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	stored := []domain.Category{
		{ID: "b", Name: "B", Color: "#fff", Icon: "b", SortOrder: 2, CreatedAt: "x", UpdatedAt: "x"},
		{ID: "a", Name: "A", Color: "#fff", Icon: "a", SortOrder: 1, CreatedAt: "x", UpdatedAt: "x"},
	}
	raw, _ := json.Marshal(stored)
	if err := kv.Set(ctx, storage.KeyCategories, string(raw)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	categories, err := store.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if categories[0].ID != "a" || categories[1].ID != "b" {
		t.Errorf("order = %s,%s, want a,b", categories[0].ID, categories[1].ID)
	}
}

func TestAddAndGetCategory(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.AddCategory(ctx, NewCategory{
		Name: "새 카테고리", Color: "#123456", Icon: "🆕", SortOrder: 9,
	})
	if err != nil {
		t.Fatalf("AddCategory() error = %v", err)
	}
	if created.ID == "" || created.CreatedAt == "" || created.UpdatedAt == "" {
		t.Error("created category must carry id and timestamps")
	}

	found, err := store.CategoryByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("CategoryByID() error = %v", err)
	}
	if found == nil || found.Name != "새 카테고리" {
		t.Errorf("CategoryByID() = %+v, want the created category", found)
	}

	missing, err := store.CategoryByID(ctx, "nope")
	if err != nil {
		t.Fatalf("CategoryByID() error = %v", err)
	}
	if missing != nil {
		t.Error("CategoryByID() should return nil for an unknown id")
	}
}

func TestUpdateCategoryNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	name := "x"
	_, err := store.UpdateCategory(context.Background(), "ghost", CategoryUpdate{Name: &name})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateCategory() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteCategoryReassignsLinks(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	categories, err := store.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	work := categories[3] // 업무
	var misc domain.Category
	for _, c := range categories {
		if c.Name == domain.MiscCategoryName {
			misc = c
		}
	}

	link, err := store.AddLink(ctx, NewLink{URL: "https://a.example", Title: "A", CategoryID: work.ID})
	if err != nil {
		t.Fatalf("AddLink() error = %v", err)
	}

	if err := store.DeleteCategory(ctx, work.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}

	moved, err := store.LinkByID(ctx, link.ID)
	if err != nil {
		t.Fatalf("LinkByID() error = %v", err)
	}
	if moved.CategoryID != misc.ID {
		t.Errorf("link CategoryID = %s, want misc %s", moved.CategoryID, misc.ID)
	}

	remaining, err := store.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if len(remaining) != 4 {
		t.Errorf("len(categories) = %d, want 4", len(remaining))
	}
	for _, c := range remaining {
		if c.ID == work.ID {
			t.Error("deleted category should be gone")
		}
	}
}

func TestDeleteCategoryCreatesMiscOnce(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	// Stored categories without the misc fallback
	stored := []domain.Category{
		{ID: "c1", Name: "One", Color: "#fff", Icon: "1", SortOrder: 0, CreatedAt: "x", UpdatedAt: "x"},
		{ID: "c2", Name: "Two", Color: "#fff", Icon: "2", SortOrder: 1, CreatedAt: "x", UpdatedAt: "x"},
	}
	raw, _ := json.Marshal(stored)
	if err := kv.Set(ctx, storage.KeyCategories, string(raw)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, err := store.AddLink(ctx, NewLink{URL: "https://a.example", Title: "A", CategoryID: "c1"}); err != nil {
		t.Fatalf("AddLink() error = %v", err)
	}

	if err := store.DeleteCategory(ctx, "c1"); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}

	categories, err := store.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}

	miscCount := 0
	var misc domain.Category
	for _, c := range categories {
		if c.Name == domain.MiscCategoryName {
			miscCount++
			misc = c
		}
	}
	if miscCount != 1 {
		t.Fatalf("misc category count = %d, want exactly 1", miscCount)
	}
	if misc.SortOrder != 2 {
		t.Errorf("misc SortOrder = %d, want max+1 = 2", misc.SortOrder)
	}

	links, err := store.Links(ctx)
	if err != nil {
		t.Fatalf("Links() error = %v", err)
	}
	if links[0].CategoryID != misc.ID {
		t.Errorf("link CategoryID = %s, want the created misc %s", links[0].CategoryID, misc.ID)
	}
}

func TestDeleteCategoryNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.DeleteCategory(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteCategory() error = %v, want ErrNotFound", err)
	}
}

func TestLinksSeedsEmptyList(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	links, err := store.Links(ctx)
	if err != nil {
		t.Fatalf("Links() error = %v", err)
	}
	if len(links) != 0 {
		t.Errorf("len(links) = %d, want 0", len(links))
	}

	value, found, _ := kv.Get(ctx, storage.KeyLinks)
	if !found || value != "[]" {
		t.Errorf("stored links = %q, want persisted empty list", value)
	}
}

func TestAddLinkDefaults(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	link, err := store.AddLink(ctx, NewLink{URL: "https://x.example", Title: "X", CategoryID: "c1"})
	if err != nil {
		t.Fatalf("AddLink() error = %v", err)
	}

	if link.Tags == nil || len(link.Tags) != 0 {
		t.Errorf("Tags = %v, want empty non-nil slice", link.Tags)
	}
	if link.AccessCount != 0 {
		t.Errorf("AccessCount = %d, want 0", link.AccessCount)
	}
	if link.CreatedAt == "" || link.UpdatedAt != link.CreatedAt {
		t.Error("timestamps should be stamped and equal on creation")
	}
}

func TestUpdateLink(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	link, err := store.AddLink(ctx, NewLink{URL: "https://x.example", Title: "X", CategoryID: "c1"})
	if err != nil {
		t.Fatalf("AddLink() error = %v", err)
	}

	title := "Renamed"
	tags := []string{"a"}
	updated, err := store.UpdateLink(ctx, link.ID, LinkUpdate{Title: &title, Tags: &tags})
	if err != nil {
		t.Fatalf("UpdateLink() error = %v", err)
	}

	if updated.Title != "Renamed" {
		t.Errorf("Title = %q, want Renamed", updated.Title)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != "a" {
		t.Errorf("Tags = %v, want [a]", updated.Tags)
	}
	if updated.URL != link.URL {
		t.Error("untouched fields must keep their values")
	}

	_, err = store.UpdateLink(ctx, "ghost", LinkUpdate{Title: &title})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateLink() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteLink(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	link, err := store.AddLink(ctx, NewLink{URL: "https://x.example", Title: "X", CategoryID: "c1"})
	if err != nil {
		t.Fatalf("AddLink() error = %v", err)
	}

	if err := store.DeleteLink(ctx, link.ID); err != nil {
		t.Fatalf("DeleteLink() error = %v", err)
	}

	found, err := store.LinkByID(ctx, link.ID)
	if err != nil {
		t.Fatalf("LinkByID() error = %v", err)
	}
	if found != nil {
		t.Error("deleted link should be gone")
	}

	if err := store.DeleteLink(ctx, link.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteLink() error = %v, want ErrNotFound", err)
	}
}

func TestLinksInCategorySorted(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for i, order := range []int{2, 0, 1} {
		if _, err := store.AddLink(ctx, NewLink{
			URL: fmt.Sprintf("https://l%d.example", i), Title: fmt.Sprintf("L%d", i),
			CategoryID: "c1", SortOrder: order,
		}); err != nil {
			t.Fatalf("AddLink() error = %v", err)
		}
	}
	if _, err := store.AddLink(ctx, NewLink{URL: "https://other.example", Title: "Other", CategoryID: "c2"}); err != nil {
		t.Fatalf("AddLink() error = %v", err)
	}

	links, err := store.LinksInCategory(ctx, "c1")
	if err != nil {
		t.Fatalf("LinksInCategory() error = %v", err)
	}
	if len(links) != 3 {
		t.Fatalf("len(links) = %d, want 3", len(links))
	}
	for i, l := range links {
		if l.SortOrder != i {
			t.Errorf("links[%d].SortOrder = %d, want %d", i, l.SortOrder, i)
		}
	}
}

func TestSearchLinks(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.AddLink(ctx, NewLink{
		URL: "https://github.com", Title: "GitHub", CategoryID: "c1",
		IsFavorite: true, Tags: []string{"dev"},
	}); err != nil {
		t.Fatalf("AddLink() error = %v", err)
	}
	if _, err := store.AddLink(ctx, NewLink{
		URL: "https://example.com", Title: "Example", CategoryID: "c2",
	}); err != nil {
		t.Fatalf("AddLink() error = %v", err)
	}

	fav := true
	results, err := store.SearchLinks(ctx, domain.SearchOptions{Query: "git", IsFavorite: &fav})
	if err != nil {
		t.Fatalf("SearchLinks() error = %v", err)
	}
	if len(results) != 1 || results[0].Title != "GitHub" {
		t.Errorf("SearchLinks() = %v, want only GitHub", results)
	}
}

func TestRecordLinkAccess(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	link, err := store.AddLink(ctx, NewLink{URL: "https://x.example", Title: "X", CategoryID: "c1"})
	if err != nil {
		t.Fatalf("AddLink() error = %v", err)
	}

	accessed, err := store.RecordLinkAccess(ctx, link.ID)
	if err != nil {
		t.Fatalf("RecordLinkAccess() error = %v", err)
	}
	if accessed.AccessCount != 1 {
		t.Errorf("AccessCount = %d, want 1", accessed.AccessCount)
	}
	if accessed.LastAccessedAt == "" {
		t.Error("LastAccessedAt should be stamped")
	}

	again, err := store.RecordLinkAccess(ctx, link.ID)
	if err != nil {
		t.Fatalf("RecordLinkAccess() error = %v", err)
	}
	if again.AccessCount != 2 {
		t.Errorf("AccessCount = %d, want 2", again.AccessCount)
	}

	if _, err := store.RecordLinkAccess(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RecordLinkAccess() error = %v, want ErrNotFound", err)
	}
}

func TestLinksInvalidShape(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	if err := kv.Set(ctx, storage.KeyLinks, `[{"id": 5}]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	_, err := store.Links(ctx)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Links() error = %v, want ErrInvalidFormat", err)
	}
}
