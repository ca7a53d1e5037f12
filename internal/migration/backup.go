package migration

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/linkman-app/linkman/internal/domain"
	"github.com/linkman-app/linkman/internal/logger"
	"github.com/linkman-app/linkman/internal/storage"
)

// backupMetadata describes a stored backup.
type backupMetadata struct {
	Version   string   `json:"version"`
	Timestamp string   `json:"timestamp"`
	DataTypes []string `json:"dataTypes"`
	Size      int      `json:"size"`
}

// backupPayload is the persisted backup envelope. Data sections are
// kept raw so a backup of a newer or older schema survives untouched.
type backupPayload struct {
	Metadata backupMetadata `json:"metadata"`
	Data     backupData     `json:"data"`
}

type backupData struct {
	Settings   json.RawMessage `json:"settings,omitempty"`
	Categories json.RawMessage `json:"categories,omitempty"`
	Links      json.RawMessage `json:"links,omitempty"`
}

// CreateBackup snapshots whatever is currently stored under a single
// backup key. It never fails the caller; a failed backup just returns
// false so migration can proceed without one.
func (e *Engine) CreateBackup(ctx context.Context, version string) bool {
	payload := backupPayload{
		Metadata: backupMetadata{
			Version:   version,
			Timestamp: e.clock.NowISO(),
			DataTypes: []string{},
		},
	}

	capture := func(key string, dataType string, dst *json.RawMessage) bool {
		raw, err := storage.GetRaw(ctx, e.kv, key)
		if err != nil {
			e.logger.Error("backup capture failed",
				logger.String("key", key),
				logger.Error(err))
			return false
		}
		if raw == nil {
			return true
		}
		*dst = json.RawMessage(raw)
		payload.Metadata.DataTypes = append(payload.Metadata.DataTypes, dataType)
		payload.Metadata.Size += len(raw)
		return true
	}

	if !capture(storage.KeySettings, "settings", &payload.Data.Settings) ||
		!capture(storage.KeyCategories, "categories", &payload.Data.Categories) ||
		!capture(storage.KeyLinks, "links", &payload.Data.Links) {
		return false
	}

	if err := storage.SetJSON(ctx, e.kv, storage.KeyBackup, payload); err != nil {
		e.logger.Error("failed to write backup", logger.Error(err))
		return false
	}

	e.logger.Info("backup created",
		logger.String("version", version),
		logger.Strings("data_types", payload.Metadata.DataTypes),
		logger.Int("size_bytes", payload.Metadata.Size))
	return true
}

// RestoreFromBackup writes each validly-shaped backup section back to
// its storage key. Sections that fail shape validation are skipped;
// the restore succeeds when at least one section came back.
func (e *Engine) RestoreFromBackup(ctx context.Context) (*RecoveryResult, error) {
	result := &RecoveryResult{
		DataType: "all",
		Strategy: "backup",
		Errors:   []string{},
	}

	backup, err := storage.GetJSON[backupPayload](ctx, e.kv, storage.KeyBackup)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, &RecoveryError{DataType: "all", Strategy: "backup", Err: err}
	}
	if backup == nil {
		err := errors.New("no backup data found")
		result.Errors = append(result.Errors, err.Error())
		return result, &RecoveryError{DataType: "all", Strategy: "backup", Err: err}
	}

	e.logger.Info("restoring from backup",
		logger.String("backup_version", backup.Metadata.Version),
		logger.String("backup_timestamp", backup.Metadata.Timestamp))

	restore := func(raw json.RawMessage, key string, valid func(any) bool) error {
		if raw == nil {
			return nil
		}
		shape, ok := domain.DecodeShape(raw)
		if !ok || !valid(shape) {
			return nil
		}
		if err := storage.SetRaw(ctx, e.kv, key, raw); err != nil {
			return err
		}
		result.RecoveredItems++
		return nil
	}

	if err := restore(backup.Data.Settings, storage.KeySettings, domain.ValidSettingsShape); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, &RecoveryError{DataType: "all", Strategy: "backup", Err: err}
	}
	if err := restore(backup.Data.Categories, storage.KeyCategories, domain.ValidCategoryListShape); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, &RecoveryError{DataType: "all", Strategy: "backup", Err: err}
	}
	if err := restore(backup.Data.Links, storage.KeyLinks, domain.ValidLinkListShape); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, &RecoveryError{DataType: "all", Strategy: "backup", Err: err}
	}

	result.Success = result.RecoveredItems > 0
	e.logger.Info("backup restore finished",
		logger.Bool("success", result.Success),
		logger.Int("recovered_items", result.RecoveredItems))
	return result, nil
}

// ResetToDefaults replaces all three aggregates with fresh defaults.
func (e *Engine) ResetToDefaults(ctx context.Context) (*RecoveryResult, error) {
	result := &RecoveryResult{
		DataType: "all",
		Strategy: "default",
		Errors:   []string{},
	}

	now := e.clock.NowISO()

	if err := storage.SetJSON(ctx, e.kv, storage.KeySettings, domain.DefaultSettings(now)); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, &RecoveryError{DataType: "all", Strategy: "default", Err: err}
	}
	result.RecoveredItems++

	if err := storage.SetJSON(ctx, e.kv, storage.KeyCategories, e.defaultCategories(now)); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, &RecoveryError{DataType: "all", Strategy: "default", Err: err}
	}
	result.RecoveredItems++

	if err := storage.SetJSON(ctx, e.kv, storage.KeyLinks, []domain.Link{}); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, &RecoveryError{DataType: "all", Strategy: "default", Err: err}
	}
	result.RecoveredItems++

	result.Success = true
	e.logger.Info("data reset to defaults")
	return result, nil
}

func (e *Engine) defaultCategories(nowISO string) []domain.Category {
	categories := make([]domain.Category, 0, len(domain.DefaultCategories))
	for _, seed := range domain.DefaultCategories {
		categories = append(categories, domain.Category{
			ID:          e.newID(),
			Name:        seed.Name,
			Color:       seed.Color,
			Icon:        seed.Icon,
			Description: seed.Description,
			SortOrder:   seed.SortOrder,
			CreatedAt:   nowISO,
			UpdatedAt:   nowISO,
		})
	}
	return categories
}
