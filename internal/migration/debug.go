package migration

import (
	"context"
	"errors"

	"github.com/linkman-app/linkman/internal/storage"
)

// ErrDevOnly rejects debug operations outside development mode.
var ErrDevOnly = errors.New("operation is only available in development mode")

// StorageState is a point-in-time snapshot for debugging.
type StorageState struct {
	TotalKeys int              `json:"totalKeys"`
	Keys      []string         `json:"keys"`
	ItemSizes map[string]int   `json:"itemSizes"`
	Integrity *IntegrityReport `json:"integrity"`
}

// DebugStorageState reports every stored key, the sizes of the main
// aggregates and an integrity scan. Development mode only.
func (e *Engine) DebugStorageState(ctx context.Context) (*StorageState, error) {
	if !e.devMode {
		return nil, ErrDevOnly
	}

	keys, err := storage.ListKeys(ctx, e.kv)
	if err != nil {
		return nil, err
	}

	sizes := make(map[string]int)
	for _, key := range []string{storage.KeySettings, storage.KeyCategories, storage.KeyLinks} {
		raw, err := storage.GetRaw(ctx, e.kv, key)
		if err != nil {
			return nil, err
		}
		sizes[key] = len(raw)
	}

	report, err := e.ValidateDataIntegrity(ctx)
	if err != nil {
		return nil, err
	}

	return &StorageState{
		TotalKeys: len(keys),
		Keys:      keys,
		ItemSizes: sizes,
		Integrity: report,
	}, nil
}

// ForceMigration runs the migration steps for an arbitrary version
// pair. Development mode only.
func (e *Engine) ForceMigration(ctx context.Context, fromVersion, toVersion string) (*Result, error) {
	if !e.devMode {
		return nil, ErrDevOnly
	}
	return e.performMigration(ctx, fromVersion, toVersion), nil
}

// NukeStorage clears every stored key. Development mode only.
func (e *Engine) NukeStorage(ctx context.Context) error {
	if !e.devMode {
		return ErrDevOnly
	}
	e.logger.Warn("clearing all storage data")
	return storage.Clear(ctx, e.kv)
}
