// Package data implements the CRUD access layer over the durable
// store: an authoritative Store owning schema validation and
// category↔link integrity, and a CachedStore façade keeping the memory
// cache and the store in lockstep.
package data

import (
	"errors"

	"github.com/linkman-app/linkman/internal/clock"
	"github.com/linkman-app/linkman/internal/ids"
	"github.com/linkman-app/linkman/internal/logger"
	"github.com/linkman-app/linkman/internal/storage"
)

var (
	// ErrNotFound marks an id-keyed lookup or mutation on an absent
	// entity. Not retryable.
	ErrNotFound = errors.New("not found")

	// ErrInvalidFormat marks stored data that failed its shape
	// validator, distinct from a storage-level decode failure.
	ErrInvalidFormat = errors.New("invalid data format")
)

// Store is the authoritative, uncached data-access layer.
type Store struct {
	kv     storage.KV
	clock  clock.Clock
	newID  ids.Generator
	logger logger.Logger
}

// NewStore wires the store against a KV backend.
func NewStore(kv storage.KV, clk clock.Clock, gen ids.Generator, log logger.Logger) *Store {
	return &Store{kv: kv, clock: clk, newID: gen, logger: log}
}

// NewCategory carries the caller-supplied fields of a category to
// create; identity and timestamps are assigned by the store.
type NewCategory struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Description string `json:"description,omitempty"`
	SortOrder   int    `json:"sortOrder"`
}

// NewLink carries the caller-supplied fields of a link to create.
type NewLink struct {
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	CategoryID   string   `json:"categoryId"`
	IsFavorite   bool     `json:"isFavorite"`
	Tags         []string `json:"tags"`
	Notes        string   `json:"notes,omitempty"`
	SortOrder    int      `json:"sortOrder"`
}

// SettingsUpdate is a partial settings mutation; nil fields are left
// untouched.
type SettingsUpdate struct {
	PasswordHash        *string `json:"passwordHash,omitempty"`
	IsFirstLaunch       *bool   `json:"isFirstLaunch,omitempty"`
	IsDarkMode          *bool   `json:"isDarkMode,omitempty"`
	AppVersion          *string `json:"appVersion,omitempty"`
	AutoLockTimeMinutes *int    `json:"autoLockTimeMinutes,omitempty"`
	AutoDetectClipboard *bool   `json:"autoDetectClipboard,omitempty"`
}

// CategoryUpdate is a partial category mutation.
type CategoryUpdate struct {
	Name        *string `json:"name,omitempty"`
	Color       *string `json:"color,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	Description *string `json:"description,omitempty"`
	SortOrder   *int    `json:"sortOrder,omitempty"`
}

// LinkUpdate is a partial link mutation.
type LinkUpdate struct {
	URL            *string   `json:"url,omitempty"`
	Title          *string   `json:"title,omitempty"`
	Description    *string   `json:"description,omitempty"`
	ThumbnailURL   *string   `json:"thumbnailUrl,omitempty"`
	CategoryID     *string   `json:"categoryId,omitempty"`
	IsFavorite     *bool     `json:"isFavorite,omitempty"`
	Tags           *[]string `json:"tags,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	SortOrder      *int      `json:"sortOrder,omitempty"`
	LastAccessedAt *string   `json:"lastAccessedAt,omitempty"`
	AccessCount    *int      `json:"accessCount,omitempty"`
}
