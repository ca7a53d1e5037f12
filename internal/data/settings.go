package data

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/linkman-app/linkman/internal/domain"
	"github.com/linkman-app/linkman/internal/storage"
)

// Settings returns the stored settings, seeding and persisting the
// default value when none exist yet.
func (s *Store) Settings(ctx context.Context) (domain.Settings, error) {
	raw, err := storage.GetRaw(ctx, s.kv, storage.KeySettings)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	if raw == nil {
		defaults := domain.DefaultSettings(s.clock.NowISO())
		if err := storage.SetJSON(ctx, s.kv, storage.KeySettings, defaults); err != nil {
			return domain.Settings{}, fmt.Errorf("seed default settings: %w", err)
		}
		s.logger.Info("seeded default settings")
		return defaults, nil
	}

	shape, ok := domain.DecodeShape(raw)
	if !ok || !domain.ValidSettingsShape(shape) {
		return domain.Settings{}, fmt.Errorf("get settings: %w", ErrInvalidFormat)
	}

	var settings domain.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return domain.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

// UpdateSettings merges the partial update into current settings,
// restamps updatedAt and persists the result.
func (s *Store) UpdateSettings(ctx context.Context, update SettingsUpdate) (domain.Settings, error) {
	current, err := s.Settings(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("update settings: %w", err)
	}

	merged := applySettingsUpdate(current, update, s.clock.NowISO())
	if err := storage.SetJSON(ctx, s.kv, storage.KeySettings, merged); err != nil {
		return domain.Settings{}, fmt.Errorf("update settings: %w", err)
	}
	return merged, nil
}

// ResetSettings persists a fresh default settings value.
func (s *Store) ResetSettings(ctx context.Context) (domain.Settings, error) {
	defaults := domain.DefaultSettings(s.clock.NowISO())
	if err := storage.SetJSON(ctx, s.kv, storage.KeySettings, defaults); err != nil {
		return domain.Settings{}, fmt.Errorf("reset settings: %w", err)
	}
	s.logger.Info("settings reset to defaults")
	return defaults, nil
}

func applySettingsUpdate(current domain.Settings, update SettingsUpdate, nowISO string) domain.Settings {
	if update.PasswordHash != nil {
		current.PasswordHash = *update.PasswordHash
	}
	if update.IsFirstLaunch != nil {
		current.IsFirstLaunch = *update.IsFirstLaunch
	}
	if update.IsDarkMode != nil {
		current.IsDarkMode = *update.IsDarkMode
	}
	if update.AppVersion != nil {
		current.AppVersion = *update.AppVersion
	}
	if update.AutoLockTimeMinutes != nil {
		current.AutoLockTimeMinutes = *update.AutoLockTimeMinutes
	}
	if update.AutoDetectClipboard != nil {
		current.AutoDetectClipboard = *update.AutoDetectClipboard
	}
	current.UpdatedAt = nowISO
	return current
}
