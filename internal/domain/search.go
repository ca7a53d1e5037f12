package domain

import (
	"sort"
	"strings"
)

// SearchOptions filters links. A link matches when every supplied
// filter matches; zero-valued filters match everything.
type SearchOptions struct {
	// Query is matched case-insensitively as a substring of title,
	// description, url or notes. Empty matches all.
	Query string

	// CategoryID requires an exact category match when non-empty.
	CategoryID string

	// IsFavorite requires an exact flag match when non-nil.
	IsFavorite *bool

	// Tags matches links carrying at least one of the given tags.
	// Empty matches all.
	Tags []string
}

// MatchesSearch reports whether l satisfies every filter in opts.
func MatchesSearch(l Link, opts SearchOptions) bool {
	if q := strings.ToLower(opts.Query); q != "" {
		fields := []string{l.Title, l.Description, l.URL, l.Notes}
		hit := false
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), q) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	if opts.CategoryID != "" && l.CategoryID != opts.CategoryID {
		return false
	}

	if opts.IsFavorite != nil && l.IsFavorite != *opts.IsFavorite {
		return false
	}

	if len(opts.Tags) > 0 {
		hit := false
		for _, want := range opts.Tags {
			for _, have := range l.Tags {
				if have == want {
					hit = true
					break
				}
			}
			if hit {
				break
			}
		}
		if !hit {
			return false
		}
	}

	return true
}

// SortField selects the link attribute SortLinks orders by.
type SortField string

const (
	SortByCreatedAt      SortField = "createdAt"
	SortByUpdatedAt      SortField = "updatedAt"
	SortByTitle          SortField = "title"
	SortByAccessCount    SortField = "accessCount"
	SortByLastAccessedAt SortField = "lastAccessedAt"
)

// SortOrder is the sort direction, descending by default.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortLinks returns a sorted copy of links. Timestamps compare
// lexicographically (ISO-8601), titles case-insensitively, access
// counts numerically. The sort is stable; an unknown field returns the
// original order.
func SortLinks(links []Link, field SortField, order SortOrder) []Link {
	sorted := make([]Link, len(links))
	copy(sorted, links)

	if order != SortAsc {
		order = SortDesc
	}

	less := func(a, b Link) bool {
		switch field {
		case SortByCreatedAt:
			return a.CreatedAt < b.CreatedAt
		case SortByUpdatedAt:
			return a.UpdatedAt < b.UpdatedAt
		case SortByLastAccessedAt:
			return a.LastAccessedAt < b.LastAccessedAt
		case SortByTitle:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		case SortByAccessCount:
			return a.AccessCount < b.AccessCount
		default:
			return false
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if order == SortAsc {
			return less(sorted[i], sorted[j])
		}
		return less(sorted[j], sorted[i])
	})

	return sorted
}
