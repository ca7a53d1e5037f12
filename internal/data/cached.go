package data

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/linkman-app/linkman/internal/cache"
	"github.com/linkman-app/linkman/internal/clock"
	"github.com/linkman-app/linkman/internal/domain"
	"github.com/linkman-app/linkman/internal/ids"
	"github.com/linkman-app/linkman/internal/logger"
	"github.com/linkman-app/linkman/internal/storage"
)

// CachedStore mirrors Store's API behind the memory cache. Reads
// consult the cache first and, on a miss, go straight to the storage
// adapter (default seeding included) before populating the cache.
// Mutations write the store first and replace the cached value only
// when the write succeeded, so cache and store never observably
// diverge.
type CachedStore struct {
	kv     storage.KV
	cache  *cache.Cache
	clock  clock.Clock
	newID  ids.Generator
	logger logger.Logger
}

// NewCachedStore wires the façade.
func NewCachedStore(kv storage.KV, c *cache.Cache, clk clock.Clock, gen ids.Generator, log logger.Logger) *CachedStore {
	return &CachedStore{kv: kv, cache: c, clock: clk, newID: gen, logger: log}
}

// Cache exposes the underlying cache for stats and refresh endpoints.
func (s *CachedStore) Cache() *cache.Cache { return s.cache }

// ─────────────────────────────────────────────────────────────────
// Settings
// ─────────────────────────────────────────────────────────────────

// Settings returns cached settings, loading (or seeding) from the
// store on a miss.
func (s *CachedStore) Settings(ctx context.Context) (domain.Settings, error) {
	if v, ok := s.cache.Get(cache.KeySettings); ok {
		if settings, ok := v.(domain.Settings); ok {
			return settings, nil
		}
	}

	stored, err := storage.GetJSON[domain.Settings](ctx, s.kv, storage.KeySettings)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("get cached settings: %w", err)
	}

	if stored == nil {
		defaults := domain.DefaultSettings(s.clock.NowISO())
		if err := storage.SetJSON(ctx, s.kv, storage.KeySettings, defaults); err != nil {
			return domain.Settings{}, fmt.Errorf("seed default settings: %w", err)
		}
		s.cache.Set(cache.KeySettings, defaults)
		return defaults, nil
	}

	s.cache.Set(cache.KeySettings, *stored)
	return *stored, nil
}

// UpdateSettings merges the update, persists it and refreshes the
// cached copy.
func (s *CachedStore) UpdateSettings(ctx context.Context, update SettingsUpdate) (domain.Settings, error) {
	current, err := s.Settings(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("update cached settings: %w", err)
	}

	merged := applySettingsUpdate(current, update, s.clock.NowISO())
	if err := storage.SetJSON(ctx, s.kv, storage.KeySettings, merged); err != nil {
		return domain.Settings{}, fmt.Errorf("update cached settings: %w", err)
	}
	s.cache.Set(cache.KeySettings, merged)
	return merged, nil
}

// ResetSettings persists fresh defaults and refreshes the cache.
func (s *CachedStore) ResetSettings(ctx context.Context) (domain.Settings, error) {
	defaults := domain.DefaultSettings(s.clock.NowISO())
	if err := storage.SetJSON(ctx, s.kv, storage.KeySettings, defaults); err != nil {
		return domain.Settings{}, fmt.Errorf("reset cached settings: %w", err)
	}
	s.cache.Set(cache.KeySettings, defaults)
	return defaults, nil
}

// ─────────────────────────────────────────────────────────────────
// Categories
// ─────────────────────────────────────────────────────────────────

// Categories returns cached categories sorted by sortOrder, loading
// (or seeding the five defaults) on a miss.
func (s *CachedStore) Categories(ctx context.Context) ([]domain.Category, error) {
	if v, ok := s.cache.Get(cache.KeyCategories); ok {
		if categories, ok := v.([]domain.Category); ok {
			sorted := make([]domain.Category, len(categories))
			copy(sorted, categories)
			sortCategories(sorted)
			return sorted, nil
		}
	}

	stored, err := storage.GetJSON[[]domain.Category](ctx, s.kv, storage.KeyCategories)
	if err != nil {
		return nil, fmt.Errorf("get cached categories: %w", err)
	}

	if stored == nil {
		return s.seedDefaultCategories(ctx)
	}

	categories := *stored
	sortCategories(categories)
	s.cache.Set(cache.KeyCategories, categories)
	return categories, nil
}

// CategoryByID returns the matching category or nil.
func (s *CachedStore) CategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("get cached category %s: %w", id, err)
	}
	for i := range categories {
		if categories[i].ID == id {
			return &categories[i], nil
		}
	}
	return nil, nil
}

// AddCategory appends a category, persisting the list and then
// replacing the cached copy.
func (s *CachedStore) AddCategory(ctx context.Context, nc NewCategory) (domain.Category, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return domain.Category{}, fmt.Errorf("add cached category: %w", err)
	}

	now := s.clock.NowISO()
	category := domain.Category{
		ID:          s.newID(),
		Name:        nc.Name,
		Color:       nc.Color,
		Icon:        nc.Icon,
		Description: nc.Description,
		SortOrder:   nc.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	updated := append(categories, category)
	if err := storage.SetJSON(ctx, s.kv, storage.KeyCategories, updated); err != nil {
		return domain.Category{}, fmt.Errorf("add cached category: %w", err)
	}
	s.cache.Set(cache.KeyCategories, updated)
	return category, nil
}

// UpdateCategory merges the partial update, persists and re-caches.
func (s *CachedStore) UpdateCategory(ctx context.Context, id string, update CategoryUpdate) (domain.Category, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return domain.Category{}, fmt.Errorf("update cached category %s: %w", id, err)
	}

	idx := categoryIndex(categories, id)
	if idx == -1 {
		return domain.Category{}, fmt.Errorf("update cached category %s: %w", id, ErrNotFound)
	}

	updated := make([]domain.Category, len(categories))
	copy(updated, categories)
	updated[idx] = applyCategoryUpdate(updated[idx], update, s.clock.NowISO())
	if err := storage.SetJSON(ctx, s.kv, storage.KeyCategories, updated); err != nil {
		return domain.Category{}, fmt.Errorf("update cached category %s: %w", id, err)
	}
	s.cache.Set(cache.KeyCategories, updated)
	return updated[idx], nil
}

// DeleteCategory mirrors Store.DeleteCategory through the cache:
// reassign the category's links to the misc fallback, then persist the
// removal, keeping both cached lists in step.
func (s *CachedStore) DeleteCategory(ctx context.Context, id string) error {
	categories, err := s.Categories(ctx)
	if err != nil {
		return fmt.Errorf("delete cached category %s: %w", id, err)
	}
	if categoryIndex(categories, id) == -1 {
		return fmt.Errorf("delete cached category %s: %w", id, ErrNotFound)
	}

	misc, err := s.findOrCreateMiscCategory(ctx, categories)
	if err != nil {
		return fmt.Errorf("delete cached category %s: %w", id, err)
	}

	links, err := s.Links(ctx)
	if err != nil {
		return fmt.Errorf("delete cached category %s: %w", id, err)
	}
	for _, link := range links {
		if link.CategoryID != id {
			continue
		}
		if _, err := s.UpdateLink(ctx, link.ID, LinkUpdate{CategoryID: &misc.ID}); err != nil {
			return fmt.Errorf("delete cached category %s: reassign link %s: %w", id, link.ID, err)
		}
	}

	categories, err = s.Categories(ctx)
	if err != nil {
		return fmt.Errorf("delete cached category %s: %w", id, err)
	}
	remaining := make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		if c.ID != id {
			remaining = append(remaining, c)
		}
	}
	if err := storage.SetJSON(ctx, s.kv, storage.KeyCategories, remaining); err != nil {
		return fmt.Errorf("delete cached category %s: %w", id, err)
	}
	s.cache.Set(cache.KeyCategories, remaining)
	return nil
}

func (s *CachedStore) findOrCreateMiscCategory(ctx context.Context, categories []domain.Category) (domain.Category, error) {
	for _, c := range categories {
		if c.Name == domain.MiscCategoryName {
			return c, nil
		}
	}

	maxOrder := 0
	for _, c := range categories {
		if c.SortOrder > maxOrder {
			maxOrder = c.SortOrder
		}
	}
	seed := domain.MiscCategorySeed(maxOrder + 1)
	return s.AddCategory(ctx, NewCategory{
		Name:        seed.Name,
		Color:       seed.Color,
		Icon:        seed.Icon,
		Description: seed.Description,
		SortOrder:   seed.SortOrder,
	})
}

func (s *CachedStore) seedDefaultCategories(ctx context.Context) ([]domain.Category, error) {
	now := s.clock.NowISO()
	categories := make([]domain.Category, 0, len(domain.DefaultCategories))
	for _, seed := range domain.DefaultCategories {
		categories = append(categories, domain.Category{
			ID:          s.newID(),
			Name:        seed.Name,
			Color:       seed.Color,
			Icon:        seed.Icon,
			Description: seed.Description,
			SortOrder:   seed.SortOrder,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if err := storage.SetJSON(ctx, s.kv, storage.KeyCategories, categories); err != nil {
		return nil, fmt.Errorf("seed default categories: %w", err)
	}
	s.cache.Set(cache.KeyCategories, categories)
	return categories, nil
}

// ─────────────────────────────────────────────────────────────────
// Links
// ─────────────────────────────────────────────────────────────────

// Links returns cached links, loading (or seeding the empty list) on a
// miss.
func (s *CachedStore) Links(ctx context.Context) ([]domain.Link, error) {
	if v, ok := s.cache.Get(cache.KeyLinks); ok {
		if links, ok := v.([]domain.Link); ok {
			return links, nil
		}
	}

	stored, err := storage.GetJSON[[]domain.Link](ctx, s.kv, storage.KeyLinks)
	if err != nil {
		return nil, fmt.Errorf("get cached links: %w", err)
	}

	if stored == nil {
		empty := []domain.Link{}
		if err := storage.SetJSON(ctx, s.kv, storage.KeyLinks, empty); err != nil {
			return nil, fmt.Errorf("seed empty links: %w", err)
		}
		s.cache.Set(cache.KeyLinks, empty)
		return empty, nil
	}

	s.cache.Set(cache.KeyLinks, *stored)
	return *stored, nil
}

// LinkByID returns the matching link or nil.
func (s *CachedStore) LinkByID(ctx context.Context, id string) (*domain.Link, error) {
	links, err := s.Links(ctx)
	if err != nil {
		return nil, fmt.Errorf("get cached link %s: %w", id, err)
	}
	for i := range links {
		if links[i].ID == id {
			return &links[i], nil
		}
	}
	return nil, nil
}

// LinksInCategory returns the category's links sorted by sortOrder.
func (s *CachedStore) LinksInCategory(ctx context.Context, categoryID string) ([]domain.Link, error) {
	links, err := s.Links(ctx)
	if err != nil {
		return nil, fmt.Errorf("get cached links in category %s: %w", categoryID, err)
	}
	filtered := make([]domain.Link, 0)
	for _, link := range links {
		if link.CategoryID == categoryID {
			filtered = append(filtered, link)
		}
	}
	domainSortBySortOrder(filtered)
	return filtered, nil
}

// AddLink appends a link, persisting and then re-caching the list.
func (s *CachedStore) AddLink(ctx context.Context, nl NewLink) (domain.Link, error) {
	links, err := s.Links(ctx)
	if err != nil {
		return domain.Link{}, fmt.Errorf("add cached link: %w", err)
	}

	link := newLinkRecord(nl, s.newID(), s.clock.NowISO())
	updated := append(links, link)
	if err := storage.SetJSON(ctx, s.kv, storage.KeyLinks, updated); err != nil {
		return domain.Link{}, fmt.Errorf("add cached link: %w", err)
	}
	s.cache.Set(cache.KeyLinks, updated)
	return link, nil
}

// UpdateLink merges the partial update, persists and re-caches.
func (s *CachedStore) UpdateLink(ctx context.Context, id string, update LinkUpdate) (domain.Link, error) {
	links, err := s.Links(ctx)
	if err != nil {
		return domain.Link{}, fmt.Errorf("update cached link %s: %w", id, err)
	}

	idx := linkIndex(links, id)
	if idx == -1 {
		return domain.Link{}, fmt.Errorf("update cached link %s: %w", id, ErrNotFound)
	}

	updated := make([]domain.Link, len(links))
	copy(updated, links)
	updated[idx] = applyLinkUpdate(updated[idx], update, s.clock.NowISO())
	if err := storage.SetJSON(ctx, s.kv, storage.KeyLinks, updated); err != nil {
		return domain.Link{}, fmt.Errorf("update cached link %s: %w", id, err)
	}
	s.cache.Set(cache.KeyLinks, updated)
	return updated[idx], nil
}

// DeleteLink removes the link, persisting and then re-caching.
func (s *CachedStore) DeleteLink(ctx context.Context, id string) error {
	links, err := s.Links(ctx)
	if err != nil {
		return fmt.Errorf("delete cached link %s: %w", id, err)
	}

	idx := linkIndex(links, id)
	if idx == -1 {
		return fmt.Errorf("delete cached link %s: %w", id, ErrNotFound)
	}

	updated := make([]domain.Link, 0, len(links)-1)
	updated = append(updated, links[:idx]...)
	updated = append(updated, links[idx+1:]...)
	if err := storage.SetJSON(ctx, s.kv, storage.KeyLinks, updated); err != nil {
		return fmt.Errorf("delete cached link %s: %w", id, err)
	}
	s.cache.Set(cache.KeyLinks, updated)
	return nil
}

// SearchLinks filters the cached link list.
func (s *CachedStore) SearchLinks(ctx context.Context, opts domain.SearchOptions) ([]domain.Link, error) {
	links, err := s.Links(ctx)
	if err != nil {
		return nil, fmt.Errorf("search cached links: %w", err)
	}
	matched := make([]domain.Link, 0)
	for _, link := range links {
		if domain.MatchesSearch(link, opts) {
			matched = append(matched, link)
		}
	}
	return matched, nil
}

// RecordLinkAccess increments the access count and stamps
// lastAccessedAt through the cached update path.
func (s *CachedStore) RecordLinkAccess(ctx context.Context, id string) (domain.Link, error) {
	link, err := s.LinkByID(ctx, id)
	if err != nil {
		return domain.Link{}, fmt.Errorf("record cached link access %s: %w", id, err)
	}
	if link == nil {
		return domain.Link{}, fmt.Errorf("record cached link access %s: %w", id, ErrNotFound)
	}

	count := link.AccessCount + 1
	now := s.clock.NowISO()
	return s.UpdateLink(ctx, id, LinkUpdate{
		AccessCount:    &count,
		LastAccessedAt: &now,
	})
}

// ─────────────────────────────────────────────────────────────────
// Initialization & refresh
// ─────────────────────────────────────────────────────────────────

// InitializeAppData seeds settings and categories on first launch and
// flips isFirstLaunch off. Subsequent calls just return the current
// values without further writes.
func (s *CachedStore) InitializeAppData(ctx context.Context) (domain.Settings, []domain.Category, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return domain.Settings{}, nil, fmt.Errorf("initialize app data: %w", err)
	}

	categories, err := s.Categories(ctx)
	if err != nil {
		return domain.Settings{}, nil, fmt.Errorf("initialize app data: %w", err)
	}

	if settings.IsFirstLaunch {
		s.logger.Info("first launch detected, initializing default data")
		off := false
		settings, err = s.UpdateSettings(ctx, SettingsUpdate{IsFirstLaunch: &off})
		if err != nil {
			return domain.Settings{}, nil, fmt.Errorf("initialize app data: %w", err)
		}
	}

	return settings, categories, nil
}

// RefreshAllCaches invalidates every cache key and reloads the three
// aggregates concurrently.
func (s *CachedStore) RefreshAllCaches(ctx context.Context) error {
	s.cache.InvalidateAll()

	var wg sync.WaitGroup
	errCh := make(chan error, 3)

	reload := func(fn func() error) {
		defer wg.Done()
		if err := fn(); err != nil {
			errCh <- err
		}
	}

	wg.Add(3)
	go reload(func() error { _, err := s.Settings(ctx); return err })
	go reload(func() error { _, err := s.Categories(ctx); return err })
	go reload(func() error { _, err := s.Links(ctx); return err })
	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return fmt.Errorf("refresh all caches: %w", err)
	}
	return nil
}

// RefreshCache invalidates and reloads exactly one cache key.
func (s *CachedStore) RefreshCache(ctx context.Context, key cache.Key) error {
	s.cache.Invalidate(key)

	var err error
	switch key {
	case cache.KeySettings:
		_, err = s.Settings(ctx)
	case cache.KeyCategories:
		_, err = s.Categories(ctx)
	case cache.KeyLinks:
		_, err = s.Links(ctx)
	default:
		return fmt.Errorf("refresh cache: unknown key %q", key)
	}
	if err != nil {
		return fmt.Errorf("refresh cache %s: %w", key, err)
	}
	return nil
}

func domainSortBySortOrder(links []domain.Link) {
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].SortOrder < links[j].SortOrder
	})
}
