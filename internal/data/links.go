package data

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/linkman-app/linkman/internal/domain"
	"github.com/linkman-app/linkman/internal/storage"
)

// Links returns all stored links, seeding an empty list when none are
// stored yet.
func (s *Store) Links(ctx context.Context) ([]domain.Link, error) {
	raw, err := storage.GetRaw(ctx, s.kv, storage.KeyLinks)
	if err != nil {
		return nil, fmt.Errorf("get links: %w", err)
	}

	if raw == nil {
		empty := []domain.Link{}
		if err := storage.SetJSON(ctx, s.kv, storage.KeyLinks, empty); err != nil {
			return nil, fmt.Errorf("seed empty links: %w", err)
		}
		return empty, nil
	}

	shape, ok := domain.DecodeShape(raw)
	if !ok || !domain.ValidLinkListShape(shape) {
		return nil, fmt.Errorf("get links: %w", ErrInvalidFormat)
	}

	var links []domain.Link
	if err := json.Unmarshal(raw, &links); err != nil {
		return nil, fmt.Errorf("decode links: %w", err)
	}
	return links, nil
}

// LinkByID returns the matching link or nil.
func (s *Store) LinkByID(ctx context.Context, id string) (*domain.Link, error) {
	links, err := s.Links(ctx)
	if err != nil {
		return nil, fmt.Errorf("get link %s: %w", id, err)
	}
	for i := range links {
		if links[i].ID == id {
			return &links[i], nil
		}
	}
	return nil, nil
}

// LinksInCategory returns the category's links sorted ascending by
// sortOrder.
func (s *Store) LinksInCategory(ctx context.Context, categoryID string) ([]domain.Link, error) {
	links, err := s.Links(ctx)
	if err != nil {
		return nil, fmt.Errorf("get links in category %s: %w", categoryID, err)
	}
	filtered := make([]domain.Link, 0)
	for _, link := range links {
		if link.CategoryID == categoryID {
			filtered = append(filtered, link)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].SortOrder < filtered[j].SortOrder
	})
	return filtered, nil
}

// AddLink appends a new link with generated id and timestamps and
// persists the full list.
func (s *Store) AddLink(ctx context.Context, nl NewLink) (domain.Link, error) {
	links, err := s.Links(ctx)
	if err != nil {
		return domain.Link{}, fmt.Errorf("add link: %w", err)
	}

	link := newLinkRecord(nl, s.newID(), s.clock.NowISO())
	updated := append(links, link)
	if err := storage.SetJSON(ctx, s.kv, storage.KeyLinks, updated); err != nil {
		return domain.Link{}, fmt.Errorf("add link: %w", err)
	}
	return link, nil
}

// UpdateLink merges the partial update, restamps updatedAt and
// persists the list. Fails with ErrNotFound when the id is absent.
func (s *Store) UpdateLink(ctx context.Context, id string, update LinkUpdate) (domain.Link, error) {
	links, err := s.Links(ctx)
	if err != nil {
		return domain.Link{}, fmt.Errorf("update link %s: %w", id, err)
	}

	idx := linkIndex(links, id)
	if idx == -1 {
		return domain.Link{}, fmt.Errorf("update link %s: %w", id, ErrNotFound)
	}

	links[idx] = applyLinkUpdate(links[idx], update, s.clock.NowISO())
	if err := storage.SetJSON(ctx, s.kv, storage.KeyLinks, links); err != nil {
		return domain.Link{}, fmt.Errorf("update link %s: %w", id, err)
	}
	return links[idx], nil
}

// DeleteLink removes the link by id.
func (s *Store) DeleteLink(ctx context.Context, id string) error {
	links, err := s.Links(ctx)
	if err != nil {
		return fmt.Errorf("delete link %s: %w", id, err)
	}

	idx := linkIndex(links, id)
	if idx == -1 {
		return fmt.Errorf("delete link %s: %w", id, ErrNotFound)
	}

	updated := append(links[:idx:idx], links[idx+1:]...)
	if err := storage.SetJSON(ctx, s.kv, storage.KeyLinks, updated); err != nil {
		return fmt.Errorf("delete link %s: %w", id, err)
	}
	return nil
}

// SearchLinks returns links matching every supplied filter.
func (s *Store) SearchLinks(ctx context.Context, opts domain.SearchOptions) ([]domain.Link, error) {
	links, err := s.Links(ctx)
	if err != nil {
		return nil, fmt.Errorf("search links: %w", err)
	}
	matched := make([]domain.Link, 0)
	for _, link := range links {
		if domain.MatchesSearch(link, opts) {
			matched = append(matched, link)
		}
	}
	return matched, nil
}

// RecordLinkAccess increments the link's access count and stamps
// lastAccessedAt.
func (s *Store) RecordLinkAccess(ctx context.Context, id string) (domain.Link, error) {
	link, err := s.LinkByID(ctx, id)
	if err != nil {
		return domain.Link{}, fmt.Errorf("record link access %s: %w", id, err)
	}
	if link == nil {
		return domain.Link{}, fmt.Errorf("record link access %s: %w", id, ErrNotFound)
	}

	count := link.AccessCount + 1
	now := s.clock.NowISO()
	return s.UpdateLink(ctx, id, LinkUpdate{
		AccessCount:    &count,
		LastAccessedAt: &now,
	})
}

func newLinkRecord(nl NewLink, id, nowISO string) domain.Link {
	tags := nl.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Link{
		ID:           id,
		URL:          nl.URL,
		Title:        nl.Title,
		Description:  nl.Description,
		ThumbnailURL: nl.ThumbnailURL,
		CategoryID:   nl.CategoryID,
		IsFavorite:   nl.IsFavorite,
		Tags:         tags,
		Notes:        nl.Notes,
		SortOrder:    nl.SortOrder,
		CreatedAt:    nowISO,
		UpdatedAt:    nowISO,
	}
}

func linkIndex(links []domain.Link, id string) int {
	for i := range links {
		if links[i].ID == id {
			return i
		}
	}
	return -1
}

func applyLinkUpdate(l domain.Link, update LinkUpdate, nowISO string) domain.Link {
	if update.URL != nil {
		l.URL = *update.URL
	}
	if update.Title != nil {
		l.Title = *update.Title
	}
	if update.Description != nil {
		l.Description = *update.Description
	}
	if update.ThumbnailURL != nil {
		l.ThumbnailURL = *update.ThumbnailURL
	}
	if update.CategoryID != nil {
		l.CategoryID = *update.CategoryID
	}
	if update.IsFavorite != nil {
		l.IsFavorite = *update.IsFavorite
	}
	if update.Tags != nil {
		l.Tags = *update.Tags
	}
	if update.Notes != nil {
		l.Notes = *update.Notes
	}
	if update.SortOrder != nil {
		l.SortOrder = *update.SortOrder
	}
	if update.LastAccessedAt != nil {
		l.LastAccessedAt = *update.LastAccessedAt
	}
	if update.AccessCount != nil {
		l.AccessCount = *update.AccessCount
	}
	l.UpdatedAt = nowISO
	return l
}
