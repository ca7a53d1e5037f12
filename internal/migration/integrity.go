package migration

import (
	"context"
	"fmt"

	"github.com/linkman-app/linkman/internal/domain"
	"github.com/linkman-app/linkman/internal/logger"
	"github.com/linkman-app/linkman/internal/storage"
)

// IntegrityReport is the outcome of an integrity scan. Missing
// settings or categories are reported with a recommendation but do
// not flip IsValid: the data layer seeds them on first read. Corrupt
// shapes and orphaned links do.
type IntegrityReport struct {
	IsValid         bool     `json:"isValid"`
	CorruptedData   []string `json:"corruptedData"`
	Recommendations []string `json:"recommendations"`
}

// ValidateDataIntegrity checks each stored aggregate against its
// schema and cross-checks that every link points at an existing
// category.
func (e *Engine) ValidateDataIntegrity(ctx context.Context) (*IntegrityReport, error) {
	report := &IntegrityReport{
		IsValid:         true,
		CorruptedData:   []string{},
		Recommendations: []string{},
	}

	settingsShape, settingsPresent, err := e.loadShape(ctx, storage.KeySettings)
	if err != nil {
		return nil, &RecoveryError{DataType: "all", Strategy: "validation", Err: err}
	}
	settingsValid := settingsPresent && domain.ValidSettingsShape(settingsShape)
	switch {
	case settingsPresent && !settingsValid:
		report.IsValid = false
		report.CorruptedData = append(report.CorruptedData, "settings")
		report.Recommendations = append(report.Recommendations,
			"Settings data is corrupted - restore from backup or reset to defaults")
	case !settingsPresent:
		report.CorruptedData = append(report.CorruptedData, "settings")
		report.Recommendations = append(report.Recommendations,
			"Settings data is missing - initialize with defaults")
	}

	categoriesShape, categoriesPresent, err := e.loadShape(ctx, storage.KeyCategories)
	if err != nil {
		return nil, &RecoveryError{DataType: "all", Strategy: "validation", Err: err}
	}
	categoriesValid := categoriesPresent && domain.ValidCategoryListShape(categoriesShape)
	switch {
	case categoriesPresent && !categoriesValid:
		report.IsValid = false
		report.CorruptedData = append(report.CorruptedData, "categories")
		report.Recommendations = append(report.Recommendations,
			"Categories data is corrupted - restore from backup or reset to defaults")
	case !categoriesPresent:
		report.CorruptedData = append(report.CorruptedData, "categories")
		report.Recommendations = append(report.Recommendations,
			"Categories data is missing - initialize with defaults")
	}

	linksShape, linksPresent, err := e.loadShape(ctx, storage.KeyLinks)
	if err != nil {
		return nil, &RecoveryError{DataType: "all", Strategy: "validation", Err: err}
	}
	linksValid := linksPresent && domain.ValidLinkListShape(linksShape)
	if linksPresent && !linksValid {
		report.IsValid = false
		report.CorruptedData = append(report.CorruptedData, "links")
		report.Recommendations = append(report.Recommendations,
			"Links data is corrupted - restore from backup or clear links")
	}

	if categoriesValid && linksValid {
		orphans := countOrphanedLinks(categoriesShape, linksShape)
		if orphans > 0 {
			report.IsValid = false
			report.CorruptedData = append(report.CorruptedData, "link-category-relationships")
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("Found %d orphaned links - assign them to existing categories", orphans))
		}
	}

	if !report.IsValid {
		e.logger.Warn("data integrity check failed",
			logger.Strings("corrupted", report.CorruptedData))
	}
	return report, nil
}

// loadShape reads a key and generically decodes it. A stored JSON
// null counts as absent, matching the data layer's seeding behavior.
func (e *Engine) loadShape(ctx context.Context, key string) (any, bool, error) {
	raw, err := storage.GetRaw(ctx, e.kv, key)
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, nil
	}
	shape, ok := domain.DecodeShape(raw)
	if !ok || shape == nil {
		return nil, false, nil
	}
	return shape, true, nil
}

func countOrphanedLinks(categoriesShape, linksShape any) int {
	categoryIDs := make(map[string]struct{})
	for _, item := range categoriesShape.([]any) {
		category := item.(map[string]any)
		if id, ok := category["id"].(string); ok {
			categoryIDs[id] = struct{}{}
		}
	}

	orphans := 0
	for _, item := range linksShape.([]any) {
		link := item.(map[string]any)
		categoryID, _ := link["categoryId"].(string)
		if _, ok := categoryIDs[categoryID]; !ok {
			orphans++
		}
	}
	return orphans
}

// AutoRecoverCorruptedData repairs whatever ValidateDataIntegrity
// flagged: first by restoring the backup, then tag by tag with
// defaults or orphan reassignment. Per-tag failures accumulate;
// success means at least one repair landed.
func (e *Engine) AutoRecoverCorruptedData(ctx context.Context) (*RecoveryResult, error) {
	result := &RecoveryResult{
		DataType: "all",
		Strategy: "rebuild",
		Errors:   []string{},
	}

	report, err := e.ValidateDataIntegrity(ctx)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, &RecoveryError{DataType: "all", Strategy: "rebuild", Err: err}
	}

	if report.IsValid {
		result.Success = true
		return result, nil
	}

	if backupResult, err := e.RestoreFromBackup(ctx); err == nil && backupResult.Success {
		return backupResult, nil
	} else if err != nil {
		result.Errors = append(result.Errors, "Backup recovery failed")
		e.logger.Warn("backup recovery failed, trying individual data recovery")
	}

	now := e.clock.NowISO()
	for _, corrupted := range report.CorruptedData {
		var repairErr error
		switch corrupted {
		case "settings":
			repairErr = storage.SetJSON(ctx, e.kv, storage.KeySettings, domain.DefaultSettings(now))
		case "categories":
			repairErr = storage.SetJSON(ctx, e.kv, storage.KeyCategories, e.defaultCategories(now))
		case "links":
			repairErr = storage.SetJSON(ctx, e.kv, storage.KeyLinks, []domain.Link{})
		case "link-category-relationships":
			repairErr = e.fixOrphanedLinks(ctx)
		default:
			continue
		}
		if repairErr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to recover %s: %v", corrupted, repairErr))
			continue
		}
		result.RecoveredItems++
	}

	result.Success = result.RecoveredItems > 0
	e.logger.Info("auto recovery finished",
		logger.Bool("success", result.Success),
		logger.Int("recovered_items", result.RecoveredItems),
		logger.Int("errors", len(result.Errors)))
	return result, nil
}

// fixOrphanedLinks moves links whose category no longer exists into
// the misc fallback category, creating it when missing. Bails out
// quietly when either aggregate is unreadable; other repair paths
// handle those.
func (e *Engine) fixOrphanedLinks(ctx context.Context) error {
	categoriesShape, categoriesPresent, err := e.loadShape(ctx, storage.KeyCategories)
	if err != nil {
		return err
	}
	linksShape, linksPresent, err := e.loadShape(ctx, storage.KeyLinks)
	if err != nil {
		return err
	}
	if !categoriesPresent || !linksPresent ||
		!domain.ValidCategoryListShape(categoriesShape) ||
		!domain.ValidLinkListShape(linksShape) {
		return nil
	}

	categories, err := storage.GetJSON[[]domain.Category](ctx, e.kv, storage.KeyCategories)
	if err != nil {
		return err
	}
	links, err := storage.GetJSON[[]domain.Link](ctx, e.kv, storage.KeyLinks)
	if err != nil {
		return err
	}

	categoryIDs := make(map[string]struct{}, len(*categories))
	for _, c := range *categories {
		categoryIDs[c.ID] = struct{}{}
	}

	now := e.clock.NowISO()
	var misc *domain.Category
	for i := range *categories {
		if (*categories)[i].Name == domain.MiscCategoryName {
			misc = &(*categories)[i]
			break
		}
	}
	if misc == nil {
		maxOrder := 0
		for _, c := range *categories {
			if c.SortOrder > maxOrder {
				maxOrder = c.SortOrder
			}
		}
		seed := domain.MiscCategorySeed(maxOrder + 1)
		created := domain.Category{
			ID:          e.newID(),
			Name:        seed.Name,
			Color:       seed.Color,
			Icon:        seed.Icon,
			Description: seed.Description,
			SortOrder:   seed.SortOrder,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		updated := append(*categories, created)
		if err := storage.SetJSON(ctx, e.kv, storage.KeyCategories, updated); err != nil {
			return err
		}
		misc = &created
	}

	moved := 0
	updatedLinks := make([]domain.Link, len(*links))
	copy(updatedLinks, *links)
	for i := range updatedLinks {
		if _, ok := categoryIDs[updatedLinks[i].CategoryID]; ok {
			continue
		}
		updatedLinks[i].CategoryID = misc.ID
		updatedLinks[i].UpdatedAt = now
		moved++
	}
	if err := storage.SetJSON(ctx, e.kv, storage.KeyLinks, updatedLinks); err != nil {
		return err
	}

	e.logger.Info("fixed orphaned links",
		logger.Int("moved", moved),
		logger.String("fallback_id", misc.ID))
	return nil
}
