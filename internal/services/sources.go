package services

import (
	"context"
	"strings"

	"osint-stories/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SourceService keeps the registry of OSINT sources and their groups
type SourceService struct {
	db *gorm.DB
}

// NewSourceService creates a new source service
func NewSourceService(db *gorm.DB) *SourceService {
	return &SourceService{db: db}
}

// UpsertSource creates a source or updates its name and group
func (ss *SourceService) UpsertSource(ctx context.Context, source models.OSINTSource) error {
	source.ID = strings.TrimSpace(source.ID)
	if source.ID == "" {
		return validationError("source id must not be empty")
	}

	err := ss.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "group_id", "updated_at"}),
	}).Create(&source).Error
	return classify("upsert source", err)
}

// ListSources returns every source, optionally limited to one group
func (ss *SourceService) ListSources(ctx context.Context, groupID string) ([]models.OSINTSource, error) {
	var sources []models.OSINTSource
	query := ss.db.WithContext(ctx).Order("id")
	if groupID != "" {
		query = query.Where("group_id = ?", groupID)
	}
	if err := query.Find(&sources).Error; err != nil {
		return nil, classify("list sources", err)
	}
	return sources, nil
}
