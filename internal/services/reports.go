package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"osint-stories/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReportService manages reports and their story assignments
type ReportService struct {
	db *gorm.DB
}

// NewReportService creates a new report service
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// CreateReport creates an open report
func (rs *ReportService) CreateReport(ctx context.Context, title string) (*models.Report, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationError("report title must not be empty")
	}

	report := &models.Report{Title: title}
	if err := rs.db.WithContext(ctx).Create(report).Error; err != nil {
		return nil, classify("create report", err)
	}
	log.Printf("📝 Created report %s (%s)", report.ID, title)
	return report, nil
}

// GetReport returns a report with its story assignments
func (rs *ReportService) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	err := rs.db.WithContext(ctx).Preload("Stories").Where("id = ?", id).First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("report %s", id)
		}
		return nil, classify("get report", err)
	}
	return &report, nil
}

// AssignToReport adds a story to an open report. Assigning twice is a no-op.
func (rs *ReportService) AssignToReport(ctx context.Context, reportID, storyID uuid.UUID) error {
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		report, err := openReport(tx, reportID)
		if err != nil {
			return err
		}

		var stories int64
		if err := tx.Model(&models.Story{}).Where("id = ?", storyID).Count(&stories).Error; err != nil {
			return err
		}
		if stories == 0 {
			return notFoundError("story %s", storyID)
		}

		assignment := models.ReportStory{ReportID: report.ID, StoryID: storyID}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&assignment).Error
	})
	return classify("assign to report", err)
}

// RemoveFromReport takes a story out of an open report
func (rs *ReportService) RemoveFromReport(ctx context.Context, reportID, storyID uuid.UUID) error {
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := openReport(tx, reportID); err != nil {
			return err
		}
		res := tx.Where("report_id = ? AND story_id = ?", reportID, storyID).Delete(&models.ReportStory{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFoundError("story %s in report %s", storyID, reportID)
		}
		return nil
	})
	return classify("remove from report", err)
}

// SetFinalized finalizes or reopens a report. Stories in a finalized report
// cannot be merged, split or deleted.
func (rs *ReportService) SetFinalized(ctx context.Context, reportID uuid.UUID, finalized bool) error {
	res := rs.db.WithContext(ctx).Model(&models.Report{}).Where("id = ?", reportID).Update("finalized", finalized)
	if res.Error != nil {
		return classify("finalize report", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundError("report %s", reportID)
	}
	log.Printf("📝 Report %s finalized=%v", reportID, finalized)
	return nil
}

func openReport(tx *gorm.DB, reportID uuid.UUID) (*models.Report, error) {
	var report models.Report
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", reportID).First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("report %s", reportID)
		}
		return nil, err
	}
	if report.Finalized {
		return nil, conflictError("report %s is finalized", reportID)
	}
	return &report, nil
}

// copyReportAssignments puts toID into every report that holds fromID
func copyReportAssignments(tx *gorm.DB, fromID, toID uuid.UUID) error {
	var assignments []models.ReportStory
	if err := tx.Where("story_id = ?", fromID).Find(&assignments).Error; err != nil {
		return err
	}
	for _, assignment := range assignments {
		moved := models.ReportStory{ReportID: assignment.ReportID, StoryID: toID}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "report_id"}, {Name: "story_id"}},
			DoNothing: true,
		}).Create(&moved).Error
		if err != nil {
			return err
		}
	}
	return nil
}
