package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Report groups stories for publication. Stories referenced by a finalized
// report cannot be regrouped.
type Report struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Title     string    `json:"title"`
	Finalized bool      `json:"finalized" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Stories []ReportStory `json:"stories,omitempty" gorm:"foreignKey:ReportID"`
}

// TableName sets the table name for the Report model
func (Report) TableName() string {
	return "reports"
}

// BeforeCreate assigns an id when the caller did not
func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ReportStory assigns a story to a report
type ReportStory struct {
	ID       uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	ReportID uuid.UUID `json:"report_id" gorm:"type:uuid;not null;uniqueIndex:idx_report_stories_unique"`
	StoryID  uuid.UUID `json:"story_id" gorm:"type:uuid;not null;uniqueIndex:idx_report_stories_unique;index"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the table name for the ReportStory model
func (ReportStory) TableName() string {
	return "report_stories"
}

// BeforeCreate assigns an id when the caller did not
func (r *ReportStory) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
