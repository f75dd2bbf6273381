package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewsItemVote is the single active vote of one voter on one item. Like and
// Dislike are never both true.
type NewsItemVote struct {
	ID         uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	NewsItemID uuid.UUID `json:"news_item_id" gorm:"type:uuid;not null;uniqueIndex:idx_news_item_votes_item_voter"`
	VoterID    string    `json:"voter_id" gorm:"not null;uniqueIndex:idx_news_item_votes_item_voter"`
	Like       bool      `json:"like" gorm:"default:false"`
	Dislike    bool      `json:"dislike" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the NewsItemVote model
func (NewsItemVote) TableName() string {
	return "news_item_votes"
}

// BeforeCreate assigns an id when the caller did not
func (v *NewsItemVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
