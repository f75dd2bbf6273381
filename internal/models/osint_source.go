package models

import (
	"time"
)

// OSINTSource is the collector configuration that produced an item. Sources
// belong to at most one group.
type OSINTSource struct {
	ID      string `json:"id" gorm:"primaryKey"`
	Name    string `json:"name"`
	GroupID string `json:"group_id" gorm:"index"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the OSINTSource model
func (OSINTSource) TableName() string {
	return "osint_sources"
}
