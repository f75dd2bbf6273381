package services

import (
	"context"

	"osint-stories/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessChecker decides whether requester may move, vote on or delete item
type AccessChecker interface {
	CanModify(ctx context.Context, item *models.NewsItem, requester string) bool
}

// AccessCheckerFunc adapts a function to AccessChecker
type AccessCheckerFunc func(ctx context.Context, item *models.NewsItem, requester string) bool

// CanModify calls f
func (f AccessCheckerFunc) CanModify(ctx context.Context, item *models.NewsItem, requester string) bool {
	return f(ctx, item, requester)
}

// AllowAll permits every requester to modify every item
var AllowAll AccessChecker = AccessCheckerFunc(func(context.Context, *models.NewsItem, string) bool {
	return true
})

// ReportChecker reports whether any of the stories is locked by a report.
// It runs inside the caller's transaction.
type ReportChecker interface {
	IsAssignedToReport(tx *gorm.DB, storyIDs []uuid.UUID) (bool, error)
}

// FinalizedReports locks stories that belong to a finalized report
type FinalizedReports struct{}

// IsAssignedToReport implements ReportChecker
func (FinalizedReports) IsAssignedToReport(tx *gorm.DB, storyIDs []uuid.UUID) (bool, error) {
	if len(storyIDs) == 0 {
		return false, nil
	}

	var count int64
	err := tx.Model(&models.ReportStory{}).
		Joins("JOIN reports ON reports.id = report_stories.report_id").
		Where("report_stories.story_id IN ? AND reports.finalized = ?", storyIDs, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
