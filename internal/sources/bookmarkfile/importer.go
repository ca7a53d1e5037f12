package bookmarkfile

import (
	"context"
	"fmt"
	"strings"

	"github.com/linkman-app/linkman/internal/data"
	"github.com/linkman-app/linkman/internal/domain"
	"github.com/linkman-app/linkman/internal/logger"
)

// ImportStats reports what an import run added.
type ImportStats struct {
	CategoriesCreated int
	LinksAdded        int
	LinksSkipped      int
}

// Importer writes parsed import entries through the cached store.
type Importer struct {
	store  *data.CachedStore
	logger logger.Logger
}

// NewImporter creates a new importer
func NewImporter(store *data.CachedStore, log logger.Logger) *Importer {
	return &Importer{store: store, logger: log}
}

// Import merges the config into the store: categories are found or
// created by name, links are added unless their URL is already
// present.
func (i *Importer) Import(ctx context.Context, config *ImportConfig) (*ImportStats, error) {
	stats := &ImportStats{}

	existing, err := i.store.Links(ctx)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	knownURLs := make(map[string]struct{}, len(existing))
	for _, link := range existing {
		knownURLs[normalizeURL(link.URL)] = struct{}{}
	}

	for _, entry := range config.Categories {
		if entry.Name == "" {
			continue
		}

		category, created, err := i.findOrCreateCategory(ctx, entry)
		if err != nil {
			return stats, fmt.Errorf("import category %q: %w", entry.Name, err)
		}
		if created {
			stats.CategoriesCreated++
		}

		for _, le := range entry.Links {
			if le.URL == "" {
				continue
			}
			if _, ok := knownURLs[normalizeURL(le.URL)]; ok {
				stats.LinksSkipped++
				continue
			}

			title := le.Title
			if title == "" {
				title = le.URL
			}
			_, err := i.store.AddLink(ctx, data.NewLink{
				URL:         le.URL,
				Title:       title,
				Description: le.Description,
				CategoryID:  category.ID,
				IsFavorite:  le.Favorite,
				Tags:        le.Tags,
				Notes:       le.Notes,
			})
			if err != nil {
				return stats, fmt.Errorf("import link %q: %w", le.URL, err)
			}
			knownURLs[normalizeURL(le.URL)] = struct{}{}
			stats.LinksAdded++
		}
	}

	i.logger.Info("bookmark import finished",
		logger.Int("categories_created", stats.CategoriesCreated),
		logger.Int("links_added", stats.LinksAdded),
		logger.Int("links_skipped", stats.LinksSkipped))
	return stats, nil
}

func (i *Importer) findOrCreateCategory(ctx context.Context, entry CategoryEntry) (domain.Category, bool, error) {
	categories, err := i.store.Categories(ctx)
	if err != nil {
		return domain.Category{}, false, err
	}

	for _, c := range categories {
		if c.Name == entry.Name {
			return c, false, nil
		}
	}

	maxOrder := 0
	for _, c := range categories {
		if c.SortOrder > maxOrder {
			maxOrder = c.SortOrder
		}
	}

	color := entry.Color
	if color == "" {
		color = "#9E9E9E"
	}
	icon := entry.Icon
	if icon == "" {
		icon = "📎"
	}

	created, err := i.store.AddCategory(ctx, data.NewCategory{
		Name:        entry.Name,
		Color:       color,
		Icon:        icon,
		Description: entry.Description,
		SortOrder:   maxOrder + 1,
	})
	if err != nil {
		return domain.Category{}, false, err
	}
	return created, true, nil
}

func normalizeURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}
