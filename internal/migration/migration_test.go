package migration

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/linkman-app/linkman/internal/clock"
	"github.com/linkman-app/linkman/internal/domain"
	"github.com/linkman-app/linkman/internal/ids"
	"github.com/linkman-app/linkman/internal/logger"
	"github.com/linkman-app/linkman/internal/storage"
)

func seqGen() ids.Generator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func newTestEngine(t *testing.T, devMode bool) (*Engine, *storage.MemoryKV) {
	t.Helper()
	kv := storage.NewMemoryKV()
	clk := &clock.Fixed{T: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewEngine(kv, clk, seqGen(), logger.New("error", false), devMode), kv
}

func validSettings(version string) domain.Settings {
	s := domain.DefaultSettings("2025-01-01T00:00:00.000Z")
	s.AppVersion = version
	return s
}

func validCategory(id string) domain.Category {
	return domain.Category{
		ID: id, Name: "Category " + id, Color: "#fff", Icon: "c",
		SortOrder: 0, CreatedAt: "x", UpdatedAt: "x",
	}
}

func validLink(id, categoryID string) domain.Link {
	return domain.Link{
		ID: id, URL: "https://" + id + ".example", Title: id,
		CategoryID: categoryID, Tags: []string{}, CreatedAt: "x", UpdatedAt: "x",
	}
}

func TestMigrateIfNeededFreshInstall(t *testing.T) {
	engine, _ := newTestEngine(t, false)

	result, err := engine.MigrateIfNeeded(context.Background())
	if err != nil {
		t.Fatalf("MigrateIfNeeded() error = %v", err)
	}
	if result != nil {
		t.Errorf("MigrateIfNeeded() = %+v, want nil on fresh install", result)
	}
}

func TestMigrateIfNeededAlreadyCurrent(t *testing.T) {
	engine, kv := newTestEngine(t, false)
	ctx := context.Background()

	if err := storage.SetJSON(ctx, kv, storage.KeySettings, validSettings(TargetVersion)); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}

	result, err := engine.MigrateIfNeeded(ctx)
	if err != nil {
		t.Fatalf("MigrateIfNeeded() error = %v", err)
	}
	if result != nil {
		t.Errorf("MigrateIfNeeded() = %+v, want nil when already current", result)
	}
}

func TestMigrateFrom090(t *testing.T) {
	engine, kv := newTestEngine(t, false)
	ctx := context.Background()

	// Legacy payloads: no category sortOrder, links missing 1.0.0 fields
	if err := kv.Set(ctx, storage.KeySettings,
		`{"isFirstLaunch":false,"isDarkMode":true,"appVersion":"0.9.0"}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := kv.Set(ctx, storage.KeyCategories,
		`[{"id":"c1","name":"A","color":"#fff","icon":"a","createdAt":"x","updatedAt":"x"},
		  {"id":"c2","name":"B","color":"#fff","icon":"b","createdAt":"x","updatedAt":"x"}]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := kv.Set(ctx, storage.KeyLinks,
		`[{"id":"l1","url":"https://a.example","title":"A","categoryId":"c1","sortOrder":0,"createdAt":"x","updatedAt":"x"}]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	result, err := engine.MigrateIfNeeded(ctx)
	if err != nil {
		t.Fatalf("MigrateIfNeeded() error = %v", err)
	}
	if result == nil {
		t.Fatal("MigrateIfNeeded() = nil, want a migration result")
	}
	if !result.Success {
		t.Errorf("Success = false, errors: %v", result.Errors)
	}
	if result.FromVersion != "0.9.0" || result.ToVersion != TargetVersion {
		t.Errorf("versions = %s -> %s, want 0.9.0 -> %s", result.FromVersion, result.ToVersion, TargetVersion)
	}
	if !result.BackupCreated {
		t.Error("a backup should be created before migrating")
	}

	categories, err := storage.GetJSON[[]domain.Category](ctx, kv, storage.KeyCategories)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	for i, c := range *categories {
		if c.SortOrder != i {
			t.Errorf("categories[%d].SortOrder = %d, want backfilled index %d", i, c.SortOrder, i)
		}
	}

	linksRaw, err := storage.GetRaw(ctx, kv, storage.KeyLinks)
	if err != nil {
		t.Fatalf("GetRaw() error = %v", err)
	}
	shape, _ := domain.DecodeShape(linksRaw)
	if !domain.ValidLinkListShape(shape) {
		t.Error("migrated links should pass shape validation")
	}

	settings, err := storage.GetJSON[domain.Settings](ctx, kv, storage.KeySettings)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if settings.AppVersion != TargetVersion {
		t.Errorf("AppVersion = %q, want %q", settings.AppVersion, TargetVersion)
	}
	if !settings.IsDarkMode {
		t.Error("settings rewrite must preserve existing values")
	}
	if settings.AutoLockTimeMinutes != 5 {
		t.Errorf("AutoLockTimeMinutes = %d, want backfilled 5", settings.AutoLockTimeMinutes)
	}

	marker, err := storage.GetJSON[string](ctx, kv, storage.KeyAppVersion)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if marker == nil || *marker != TargetVersion {
		t.Errorf("version marker = %v, want %q", marker, TargetVersion)
	}
}

func TestMigrateMissingVersionTreatedAsLegacy(t *testing.T) {
	engine, kv := newTestEngine(t, false)
	ctx := context.Background()

	if err := kv.Set(ctx, storage.KeySettings, `{"isFirstLaunch":true}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	result, err := engine.MigrateIfNeeded(ctx)
	if err != nil {
		t.Fatalf("MigrateIfNeeded() error = %v", err)
	}
	if result == nil || result.FromVersion != "0.9.0" {
		t.Errorf("result = %+v, want migration from assumed 0.9.0", result)
	}
}

func TestCreateBackupAndRestore(t *testing.T) {
	engine, kv := newTestEngine(t, false)
	ctx := context.Background()

	if err := storage.SetJSON(ctx, kv, storage.KeySettings, validSettings(TargetVersion)); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	if err := storage.SetJSON(ctx, kv, storage.KeyCategories, []domain.Category{validCategory("c1")}); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	if err := storage.SetJSON(ctx, kv, storage.KeyLinks, []domain.Link{validLink("l1", "c1")}); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}

	if !engine.CreateBackup(ctx, TargetVersion) {
		t.Fatal("CreateBackup() = false, want true")
	}

	backup, err := storage.GetJSON[backupPayload](ctx, kv, storage.KeyBackup)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if backup == nil || len(backup.Metadata.DataTypes) != 3 {
		t.Fatalf("backup metadata = %+v, want 3 data types", backup)
	}

	// Corrupt the live settings, then restore
	if err := kv.Set(ctx, storage.KeySettings, `{"broken": true}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	result, err := engine.RestoreFromBackup(ctx)
	if err != nil {
		t.Fatalf("RestoreFromBackup() error = %v", err)
	}
	if !result.Success || result.RecoveredItems != 3 {
		t.Errorf("restore = %+v, want 3 recovered items", result)
	}

	settings, err := storage.GetJSON[domain.Settings](ctx, kv, storage.KeySettings)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if settings.AppVersion != TargetVersion {
		t.Error("restore should bring back the backed-up settings")
	}
}

func TestRestoreFromBackupMissing(t *testing.T) {
	engine, _ := newTestEngine(t, false)

	_, err := engine.RestoreFromBackup(context.Background())
	var rerr *RecoveryError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *RecoveryError", err)
	}
	if rerr.Strategy != "backup" {
		t.Errorf("Strategy = %q, want backup", rerr.Strategy)
	}
}

func TestResetToDefaults(t *testing.T) {
	engine, kv := newTestEngine(t, false)
	ctx := context.Background()

	result, err := engine.ResetToDefaults(ctx)
	if err != nil {
		t.Fatalf("ResetToDefaults() error = %v", err)
	}
	if !result.Success || result.RecoveredItems != 3 {
		t.Errorf("result = %+v, want 3 recovered items", result)
	}

	categories, err := storage.GetJSON[[]domain.Category](ctx, kv, storage.KeyCategories)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if len(*categories) != 5 {
		t.Errorf("len(categories) = %d, want 5 defaults", len(*categories))
	}

	links, err := storage.GetJSON[[]domain.Link](ctx, kv, storage.KeyLinks)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if len(*links) != 0 {
		t.Errorf("len(links) = %d, want 0", len(*links))
	}
}

func TestValidateDataIntegrity(t *testing.T) {
	t.Run("missing data does not flip validity", func(t *testing.T) {
		engine, _ := newTestEngine(t, false)

		report, err := engine.ValidateDataIntegrity(context.Background())
		if err != nil {
			t.Fatalf("ValidateDataIntegrity() error = %v", err)
		}
		if !report.IsValid {
			t.Error("missing settings/categories should not flip isValid")
		}
		if len(report.CorruptedData) != 2 {
			t.Errorf("CorruptedData = %v, want settings and categories tagged", report.CorruptedData)
		}
	})

	t.Run("corrupt settings flip validity", func(t *testing.T) {
		engine, kv := newTestEngine(t, false)
		ctx := context.Background()

		if err := kv.Set(ctx, storage.KeySettings, `{"invalid": "data"}`); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		report, err := engine.ValidateDataIntegrity(ctx)
		if err != nil {
			t.Fatalf("ValidateDataIntegrity() error = %v", err)
		}
		if report.IsValid {
			t.Error("corrupt settings should flip isValid")
		}
	})

	t.Run("orphaned links are detected", func(t *testing.T) {
		engine, kv := newTestEngine(t, false)
		ctx := context.Background()

		if err := storage.SetJSON(ctx, kv, storage.KeySettings, validSettings(TargetVersion)); err != nil {
			t.Fatalf("SetJSON() error = %v", err)
		}
		if err := storage.SetJSON(ctx, kv, storage.KeyCategories, []domain.Category{validCategory("c1")}); err != nil {
			t.Fatalf("SetJSON() error = %v", err)
		}
		if err := storage.SetJSON(ctx, kv, storage.KeyLinks, []domain.Link{validLink("l1", "ghost")}); err != nil {
			t.Fatalf("SetJSON() error = %v", err)
		}

		report, err := engine.ValidateDataIntegrity(ctx)
		if err != nil {
			t.Fatalf("ValidateDataIntegrity() error = %v", err)
		}
		if report.IsValid {
			t.Error("orphaned links should flip isValid")
		}
		foundTag := false
		for _, tag := range report.CorruptedData {
			if tag == "link-category-relationships" {
				foundTag = true
			}
		}
		if !foundTag {
			t.Errorf("CorruptedData = %v, want link-category-relationships", report.CorruptedData)
		}
	})
}

func TestAutoRecoverNoCorruption(t *testing.T) {
	engine, kv := newTestEngine(t, false)
	ctx := context.Background()

	if err := storage.SetJSON(ctx, kv, storage.KeySettings, validSettings(TargetVersion)); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	if err := storage.SetJSON(ctx, kv, storage.KeyCategories, []domain.Category{validCategory("c1")}); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	if err := storage.SetJSON(ctx, kv, storage.KeyLinks, []domain.Link{validLink("l1", "c1")}); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}

	result, err := engine.AutoRecoverCorruptedData(ctx)
	if err != nil {
		t.Fatalf("AutoRecoverCorruptedData() error = %v", err)
	}
	if !result.Success || result.RecoveredItems != 0 {
		t.Errorf("result = %+v, want success with nothing to do", result)
	}
}

func TestAutoRecoverCorruptedSettingsWithoutBackup(t *testing.T) {
	engine, kv := newTestEngine(t, false)
	ctx := context.Background()

	if err := kv.Set(ctx, storage.KeySettings, `{"invalid": "data"}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := storage.SetJSON(ctx, kv, storage.KeyCategories, []domain.Category{validCategory("c1")}); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	if err := storage.SetJSON(ctx, kv, storage.KeyLinks, []domain.Link{}); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}

	result, err := engine.AutoRecoverCorruptedData(ctx)
	if err != nil {
		t.Fatalf("AutoRecoverCorruptedData() error = %v", err)
	}
	if !result.Success || result.RecoveredItems != 1 {
		t.Errorf("result = %+v, want 1 recovered item", result)
	}
	if result.Strategy != "rebuild" {
		t.Errorf("Strategy = %q, want rebuild", result.Strategy)
	}

	settings, err := storage.GetJSON[domain.Settings](ctx, kv, storage.KeySettings)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if settings.AppVersion != domain.CurrentAppVersion {
		t.Error("settings should be rebuilt from defaults")
	}
}

func TestAutoRecoverFixesOrphanedLinks(t *testing.T) {
	engine, kv := newTestEngine(t, false)
	ctx := context.Background()

	if err := storage.SetJSON(ctx, kv, storage.KeySettings, validSettings(TargetVersion)); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	if err := storage.SetJSON(ctx, kv, storage.KeyCategories, []domain.Category{validCategory("c1")}); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	if err := storage.SetJSON(ctx, kv, storage.KeyLinks, []domain.Link{validLink("l1", "ghost")}); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}

	result, err := engine.AutoRecoverCorruptedData(ctx)
	if err != nil {
		t.Fatalf("AutoRecoverCorruptedData() error = %v", err)
	}
	if !result.Success || result.RecoveredItems != 1 {
		t.Errorf("result = %+v, want 1 recovered item", result)
	}

	categories, err := storage.GetJSON[[]domain.Category](ctx, kv, storage.KeyCategories)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	var misc *domain.Category
	for i := range *categories {
		if (*categories)[i].Name == domain.MiscCategoryName {
			misc = &(*categories)[i]
		}
	}
	if misc == nil {
		t.Fatal("the misc fallback category should be created")
	}

	links, err := storage.GetJSON[[]domain.Link](ctx, kv, storage.KeyLinks)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if (*links)[0].CategoryID != misc.ID {
		t.Errorf("link CategoryID = %s, want the misc fallback %s", (*links)[0].CategoryID, misc.ID)
	}
}

func TestDebugOpsRequireDevMode(t *testing.T) {
	engine, _ := newTestEngine(t, false)
	ctx := context.Background()

	if _, err := engine.DebugStorageState(ctx); !errors.Is(err, ErrDevOnly) {
		t.Errorf("DebugStorageState() error = %v, want ErrDevOnly", err)
	}
	if _, err := engine.ForceMigration(ctx, "0.9.0", "1.0.0"); !errors.Is(err, ErrDevOnly) {
		t.Errorf("ForceMigration() error = %v, want ErrDevOnly", err)
	}
	if err := engine.NukeStorage(ctx); !errors.Is(err, ErrDevOnly) {
		t.Errorf("NukeStorage() error = %v, want ErrDevOnly", err)
	}
}

func TestDebugOpsInDevMode(t *testing.T) {
	engine, kv := newTestEngine(t, true)
	ctx := context.Background()

	if err := storage.SetJSON(ctx, kv, storage.KeySettings, validSettings(TargetVersion)); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}

	state, err := engine.DebugStorageState(ctx)
	if err != nil {
		t.Fatalf("DebugStorageState() error = %v", err)
	}
	if state.TotalKeys != 1 {
		t.Errorf("TotalKeys = %d, want 1", state.TotalKeys)
	}
	if state.ItemSizes[storage.KeySettings] == 0 {
		t.Error("settings size should be reported")
	}

	result, err := engine.ForceMigration(ctx, "0.9.0", TargetVersion)
	if err != nil {
		t.Fatalf("ForceMigration() error = %v", err)
	}
	if result == nil {
		t.Fatal("ForceMigration() = nil, want a result")
	}

	if err := engine.NukeStorage(ctx); err != nil {
		t.Fatalf("NukeStorage() error = %v", err)
	}
	keys, err := storage.ListKeys(ctx, kv)
	if err != nil {
		t.Fatalf("ListKeys() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("keys after nuke = %v, want none", keys)
	}
}
