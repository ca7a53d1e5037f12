package domain

// Link is a stored bookmark.
type Link struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the unique identifier, generated on creation.
	ID string `json:"id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// URL is the bookmarked address.
	URL string `json:"url"`

	// Title is the display title.
	Title string `json:"title"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// ThumbnailURL is an optional preview image address.
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`

	// Notes is optional user memo text.
	Notes string `json:"notes,omitempty"`

	// ─────────────────────────────
	// Organization
	// ─────────────────────────────

	// CategoryID references an existing Category. The recovery engine,
	// not a synchronous constraint, enforces the reference.
	CategoryID string `json:"categoryId"`

	// IsFavorite flags the link for the favorites view.
	IsFavorite bool `json:"isFavorite"`

	// Tags is a set-like list; membership is tested by exact match.
	Tags []string `json:"tags"`

	// SortOrder defines ascending order within a category.
	SortOrder int `json:"sortOrder"`

	// ─────────────────────────────
	// Usage tracking
	// ─────────────────────────────

	// LastAccessedAt is set by access recording, empty until first use.
	LastAccessedAt string `json:"lastAccessedAt,omitempty"`

	// AccessCount grows by one per recorded access, never decreases.
	AccessCount int `json:"accessCount"`

	// CreatedAt / UpdatedAt are ISO-8601 timestamps.
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}
