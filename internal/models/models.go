// Package models contains all data models for the story aggregation engine
package models

import (
	"gorm.io/gorm"
)

// AllModels returns a slice of all model types for database migrations
func AllModels() []interface{} {
	return []interface{}{
		&OSINTSource{},
		&Story{},
		&NewsItem{},
		&NewsItemAttribute{},
		&NewsItemVote{},
		&StoryTag{},
		&StoryAttribute{},
		&StoryLink{},
		&StorySearchIndex{},
		&Report{},
		&ReportStory{},
	}
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
