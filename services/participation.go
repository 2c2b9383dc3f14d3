package services

import (
	"context"
	"fmt"

	"regatta-resume/models"
	"regatta-resume/storage"
	"regatta-resume/utils"
)

// ParticipationSource scrapes a sailor's rows from the scoring sites.
type ParticipationSource interface {
	Scrape(ctx context.Context, name string) []models.ParticipationRow
}

// CollectParticipation scrapes name and saves the rows as the primary
// editable table. Nothing is written when no site returns rows.
func CollectParticipation(ctx context.Context, src ParticipationSource, tables storage.TableStore, name string, logger *utils.Logger) ([]models.ParticipationRow, error) {
	rows := src.Scrape(ctx, name)
	if len(rows) == 0 {
		logger.Warn("[participation] No scoring-site rows for %s", name)
		return nil, nil
	}
	if err := tables.SavePrimary(storage.ParticipationTable(rows)); err != nil {
		return rows, fmt.Errorf("save participation table: %w", err)
	}
	logger.Info("[participation] Saved %d rows for %s", len(rows), name)
	return rows, nil
}
