// Package migration owns schema migration, backup and corruption
// recovery for the persisted app data. It works directly against the
// storage adapter so it can run before any cache is populated and can
// still operate when stored payloads no longer match the current
// schema.
package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/linkman-app/linkman/internal/clock"
	"github.com/linkman-app/linkman/internal/domain"
	"github.com/linkman-app/linkman/internal/ids"
	"github.com/linkman-app/linkman/internal/logger"
	"github.com/linkman-app/linkman/internal/storage"
)

// TargetVersion is the schema version this build writes.
const TargetVersion = "1.0.0"

// legacyVersion is assumed for stored settings that predate version
// stamping.
const legacyVersion = "0.9.0"

// MigrationError marks a failure of the migration machinery itself,
// as opposed to individual step failures which are accumulated in the
// Result.
type MigrationError struct {
	Version string
	Op      string
	Err     error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %s (version %s): %v", e.Op, e.Version, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// RecoveryError marks a failed backup restore or recovery pass.
type RecoveryError struct {
	DataType string
	Strategy string
	Err      error
}

func (e *RecoveryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("recovery of %s via %s failed", e.DataType, e.Strategy)
	}
	return fmt.Sprintf("recovery of %s via %s failed: %v", e.DataType, e.Strategy, e.Err)
}

func (e *RecoveryError) Unwrap() error { return e.Err }

// Result reports what a migration run did. Success means every step
// completed; a partial run still stamps the target version so the app
// does not re-run broken steps on every start.
type Result struct {
	Success       bool     `json:"success"`
	FromVersion   string   `json:"fromVersion"`
	ToVersion     string   `json:"toVersion"`
	MigratedData  []string `json:"migratedData"`
	Errors        []string `json:"errors"`
	BackupCreated bool     `json:"backupCreated"`
}

// RecoveryResult reports a backup restore or recovery pass.
type RecoveryResult struct {
	Success        bool     `json:"success"`
	DataType       string   `json:"dataType"`
	Strategy       string   `json:"strategy"`
	RecoveredItems int      `json:"recoveredItems"`
	Errors         []string `json:"errors"`
}

// Engine runs migrations and recovery against a KV backend.
type Engine struct {
	kv      storage.KV
	clock   clock.Clock
	newID   ids.Generator
	logger  logger.Logger
	devMode bool
}

// NewEngine wires the engine. devMode unlocks the debug operations.
func NewEngine(kv storage.KV, clk clock.Clock, gen ids.Generator, log logger.Logger, devMode bool) *Engine {
	return &Engine{kv: kv, clock: clk, newID: gen, logger: log, devMode: devMode}
}

// MigrateIfNeeded checks the stored schema version and migrates when
// it is behind. A fresh install (no stored settings) needs no
// migration and returns a nil result.
func (e *Engine) MigrateIfNeeded(ctx context.Context) (*Result, error) {
	raw, err := storage.GetRaw(ctx, e.kv, storage.KeySettings)
	if err != nil {
		return nil, &MigrationError{Version: TargetVersion, Op: "check", Err: err}
	}
	if raw == nil {
		e.logger.Info("no stored settings, migration not needed")
		return nil, nil
	}

	shape, ok := domain.DecodeShape(raw)
	if !ok || shape == nil {
		e.logger.Info("no stored settings, migration not needed")
		return nil, nil
	}

	var settings domain.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, &MigrationError{Version: TargetVersion, Op: "check", Err: err}
	}

	current := settings.AppVersion
	if current == "" {
		current = legacyVersion
	}
	if current == TargetVersion {
		e.logger.Info("already on latest schema version",
			logger.String("version", TargetVersion))
		return nil, nil
	}

	e.logger.Info("schema migration needed",
		logger.String("from", current),
		logger.String("to", TargetVersion))
	result := e.performMigration(ctx, current, TargetVersion)
	return result, nil
}

// performMigration runs the version steps, accumulating per-step
// errors, and stamps the target version afterwards.
func (e *Engine) performMigration(ctx context.Context, fromVersion, toVersion string) *Result {
	result := &Result{
		FromVersion:  fromVersion,
		ToVersion:    toVersion,
		MigratedData: []string{},
		Errors:       []string{},
	}

	result.BackupCreated = e.CreateBackup(ctx, fromVersion)

	for _, step := range e.migrationSteps(fromVersion, toVersion) {
		if err := step.run(ctx); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed migration step: %s", step.description))
			e.logger.Error("migration step failed",
				logger.String("step", step.description),
				logger.Error(err))
			continue
		}
		result.MigratedData = append(result.MigratedData, step.description)
		e.logger.Info("migration step completed",
			logger.String("step", step.description))
	}

	if err := e.stampVersion(ctx, toVersion); err != nil {
		result.Errors = append(result.Errors, "failed to update app version")
		e.logger.Error("failed to stamp schema version", logger.Error(err))
	} else {
		result.MigratedData = append(result.MigratedData, "Updated app version")
	}

	result.Success = len(result.Errors) == 0
	e.logger.Info("migration finished",
		logger.String("from", fromVersion),
		logger.String("to", toVersion),
		logger.Bool("success", result.Success),
		logger.Int("errors", len(result.Errors)))
	return result
}

type migrationStep struct {
	description string
	run         func(ctx context.Context) error
}

func (e *Engine) migrationSteps(fromVersion, toVersion string) []migrationStep {
	var steps []migrationStep

	if strings.HasPrefix(fromVersion, "0.9") && toVersion == "1.0.0" {
		steps = append(steps,
			migrationStep{
				description: "Add missing category sortOrder field",
				run:         e.backfillCategorySortOrder,
			},
			migrationStep{
				description: "Add missing link fields for 1.0.0",
				run:         e.backfillLinkFields,
			},
			migrationStep{
				description: "Update settings format for 1.0.0",
				run: func(ctx context.Context) error {
					return e.rewriteSettings(ctx, toVersion)
				},
			},
		)
	}

	return steps
}

// backfillCategorySortOrder gives every stored category a sortOrder,
// defaulting to its list position. Works on generic maps so payloads
// predating the field survive.
func (e *Engine) backfillCategorySortOrder(ctx context.Context) error {
	items, err := storage.GetJSON[[]map[string]any](ctx, e.kv, storage.KeyCategories)
	if err != nil {
		return err
	}
	if items == nil {
		return nil
	}

	for i, category := range *items {
		if _, ok := category["sortOrder"]; !ok {
			category["sortOrder"] = i
		}
	}
	return storage.SetJSON(ctx, e.kv, storage.KeyCategories, *items)
}

// backfillLinkFields fills the fields 1.0.0 added to links so the
// stored list passes shape validation again.
func (e *Engine) backfillLinkFields(ctx context.Context) error {
	items, err := storage.GetJSON[[]map[string]any](ctx, e.kv, storage.KeyLinks)
	if err != nil {
		return err
	}
	if items == nil {
		return nil
	}

	for _, link := range *items {
		if _, ok := link["accessCount"]; !ok {
			link["accessCount"] = 0
		}
		if _, ok := link["tags"]; !ok {
			link["tags"] = []string{}
		}
		if _, ok := link["isFavorite"]; !ok {
			link["isFavorite"] = false
		}
	}
	return storage.SetJSON(ctx, e.kv, storage.KeyLinks, *items)
}

// rewriteSettings rebuilds the settings payload in the 1.0.0 shape,
// keeping values that are already present.
func (e *Engine) rewriteSettings(ctx context.Context, toVersion string) error {
	stored, err := storage.GetJSON[map[string]any](ctx, e.kv, storage.KeySettings)
	if err != nil {
		return err
	}
	if stored == nil {
		return nil
	}

	old := *stored
	now := e.clock.NowISO()
	updated := domain.Settings{
		IsFirstLaunch:       boolOr(old["isFirstLaunch"], false),
		IsDarkMode:          boolOr(old["isDarkMode"], false),
		AppVersion:          toVersion,
		AutoLockTimeMinutes: intOr(old["autoLockTimeMinutes"], 5),
		AutoDetectClipboard: boolOr(old["autoDetectClipboard"], true),
		CreatedAt:           stringOr(old["createdAt"], now),
		UpdatedAt:           now,
	}
	if hash, ok := old["passwordHash"].(string); ok {
		updated.PasswordHash = hash
	}
	return storage.SetJSON(ctx, e.kv, storage.KeySettings, updated)
}

// stampVersion writes the target version into stored settings and the
// standalone version marker.
func (e *Engine) stampVersion(ctx context.Context, version string) error {
	settings, err := storage.GetJSON[domain.Settings](ctx, e.kv, storage.KeySettings)
	if err != nil {
		return err
	}
	if settings == nil {
		return nil
	}
	settings.AppVersion = version
	settings.UpdatedAt = e.clock.NowISO()
	if err := storage.SetJSON(ctx, e.kv, storage.KeySettings, *settings); err != nil {
		return err
	}
	return storage.SetJSON(ctx, e.kv, storage.KeyAppVersion, version)
}

func boolOr(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

func intOr(v any, fallback int) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return fallback
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}
