package domain

// CurrentAppVersion is the schema version written by a fresh install and
// targeted by the migration engine.
const CurrentAppVersion = "1.0.0"

// Settings is the singleton application settings record.
//
// Exactly one instance exists per installation. It is created lazily:
// reading settings from an empty store seeds and persists this default
// shape.
type Settings struct {
	// ─────────────────────────────
	// Security
	// ─────────────────────────────

	// PasswordHash is the hashed unlock code, empty when no lock is set.
	PasswordHash string `json:"passwordHash,omitempty"`

	// ─────────────────────────────
	// Flags
	// ─────────────────────────────

	// IsFirstLaunch is true until initial app data setup completes.
	IsFirstLaunch bool `json:"isFirstLaunch"`

	// IsDarkMode selects the dark color theme.
	IsDarkMode bool `json:"isDarkMode"`

	// AutoDetectClipboard enables URL detection from the clipboard.
	AutoDetectClipboard bool `json:"autoDetectClipboard"`

	// ─────────────────────────────
	// Versioning & metadata
	// ─────────────────────────────

	// AppVersion marks the schema version of the stored data.
	AppVersion string `json:"appVersion"`

	// AutoLockTimeMinutes is the idle lock delay, >= 0.
	AutoLockTimeMinutes int `json:"autoLockTimeMinutes"`

	// CreatedAt is the ISO-8601 creation timestamp.
	CreatedAt string `json:"createdAt"`

	// UpdatedAt is restamped on every mutation.
	UpdatedAt string `json:"updatedAt"`
}

// DefaultSettings returns the settings seeded on first access.
func DefaultSettings(nowISO string) Settings {
	return Settings{
		IsFirstLaunch:       true,
		IsDarkMode:          false,
		AppVersion:          CurrentAppVersion,
		AutoLockTimeMinutes: 5,
		AutoDetectClipboard: true,
		CreatedAt:           nowISO,
		UpdatedAt:           nowISO,
	}
}
