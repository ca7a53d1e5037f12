package data

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/linkman-app/linkman/internal/domain"
	"github.com/linkman-app/linkman/internal/logger"
	"github.com/linkman-app/linkman/internal/storage"
)

// Categories returns all categories sorted ascending by sortOrder,
// seeding the five defaults when none are stored.
func (s *Store) Categories(ctx context.Context) ([]domain.Category, error) {
	raw, err := storage.GetRaw(ctx, s.kv, storage.KeyCategories)
	if err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}

	if raw == nil {
		return s.seedDefaultCategories(ctx)
	}

	shape, ok := domain.DecodeShape(raw)
	if !ok || !domain.ValidCategoryListShape(shape) {
		return nil, fmt.Errorf("get categories: %w", ErrInvalidFormat)
	}

	var categories []domain.Category
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	sortCategories(categories)
	return categories, nil
}

// CategoryByID returns the matching category or nil.
func (s *Store) CategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("get category %s: %w", id, err)
	}
	for i := range categories {
		if categories[i].ID == id {
			return &categories[i], nil
		}
	}
	return nil, nil
}

// AddCategory appends a new category with generated id and timestamps
// and persists the full list.
func (s *Store) AddCategory(ctx context.Context, nc NewCategory) (domain.Category, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return domain.Category{}, fmt.Errorf("add category: %w", err)
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
		return domain.Category{}, fmt.Errorf("add category: %w", err)
	}
	return category, nil
}

// UpdateCategory merges the partial update, restamps updatedAt and
// persists the list. Fails with ErrNotFound when the id is absent.
func (s *Store) UpdateCategory(ctx context.Context, id string, update CategoryUpdate) (domain.Category, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return domain.Category{}, fmt.Errorf("update category %s: %w", id, err)
	}

	idx := categoryIndex(categories, id)
	if idx == -1 {
		return domain.Category{}, fmt.Errorf("update category %s: %w", id, ErrNotFound)
	}

	categories[idx] = applyCategoryUpdate(categories[idx], update, s.clock.NowISO())
	if err := storage.SetJSON(ctx, s.kv, storage.KeyCategories, categories); err != nil {
		return domain.Category{}, fmt.Errorf("update category %s: %w", id, err)
	}
	return categories[idx], nil
}

// DeleteCategory removes a category after reassigning every link it
// held to the misc fallback category, creating the fallback first when
// it does not exist yet. Link reassignment completes before the
// category removal is persisted.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	categories, err := s.Categories(ctx)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	if categoryIndex(categories, id) == -1 {
		return fmt.Errorf("delete category %s: %w", id, ErrNotFound)
	}

	misc, err := s.findOrCreateMiscCategory(ctx, categories)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}

	links, err := s.Links(ctx)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	for _, link := range links {
		if link.CategoryID != id {
			continue
		}
		if _, err := s.UpdateLink(ctx, link.ID, LinkUpdate{CategoryID: &misc.ID}); err != nil {
			return fmt.Errorf("delete category %s: reassign link %s: %w", id, link.ID, err)
		}
	}

	// Re-read so a freshly created misc category survives the removal.
	categories, err = s.Categories(ctx)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	remaining := make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		if c.ID != id {
			remaining = append(remaining, c)
		}
	}
	if err := storage.SetJSON(ctx, s.kv, storage.KeyCategories, remaining); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}

	s.logger.Info("category deleted",
		logger.String("category_id", id),
		logger.String("fallback_id", misc.ID))
	return nil
}

// findOrCreateMiscCategory locates the fallback category by name,
// creating it with sortOrder max+1 when missing.
func (s *Store) findOrCreateMiscCategory(ctx context.Context, categories []domain.Category) (domain.Category, error) {
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

func (s *Store) seedDefaultCategories(ctx context.Context) ([]domain.Category, error) {
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
	s.logger.Info("seeded default categories",
		logger.Int("count", len(categories)))
	return categories, nil
}

func sortCategories(categories []domain.Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].SortOrder < categories[j].SortOrder
	})
}

func categoryIndex(categories []domain.Category, id string) int {
	for i := range categories {
		if categories[i].ID == id {
			return i
		}
	}
	return -1
}

func applyCategoryUpdate(c domain.Category, update CategoryUpdate, nowISO string) domain.Category {
	if update.Name != nil {
		c.Name = *update.Name
	}
	if update.Color != nil {
		c.Color = *update.Color
	}
	if update.Icon != nil {
		c.Icon = *update.Icon
	}
	if update.Description != nil {
		c.Description = *update.Description
	}
	if update.SortOrder != nil {
		c.SortOrder = *update.SortOrder
	}
	c.UpdatedAt = nowISO
	return c
}
