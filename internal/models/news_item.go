package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewsItem is one individually collected document. Its content never changes
// after ingestion; only its story membership, flags, counters and attributes do.
type NewsItem struct {
	ID      uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	StoryID uuid.UUID `json:"story_id" gorm:"type:uuid;not null;index"`
	Hash    string    `json:"hash" gorm:"uniqueIndex;not null"` // SHA-256 of author+title+link

	Title         string `json:"title"`
	Review        string `json:"review" gorm:"type:text"`
	Content       string `json:"content" gorm:"type:text"`
	Author        string `json:"author"`
	Source        string `json:"source"` // Human readable source label
	Link          string `json:"link"`
	Language      string `json:"language"`
	OSINTSourceID string `json:"osint_source_id" gorm:"index"`

	Published time.Time `json:"published" gorm:"not null;index"`
	Collected time.Time `json:"collected" gorm:"not null"`

	// Per-item state rolled up into the owning story
	Read      bool `json:"read" gorm:"default:false"`
	Important bool `json:"important" gorm:"default:false"`
	Likes     int  `json:"likes" gorm:"default:0"`
	Dislikes  int  `json:"dislikes" gorm:"default:0"`
	Relevance int  `json:"relevance" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Attributes []NewsItemAttribute `json:"attributes,omitempty" gorm:"foreignKey:NewsItemID"`
}

// TableName sets the table name for the NewsItem model
func (NewsItem) TableName() string {
	return "news_items"
}

// BeforeCreate assigns an id when the caller did not
func (n *NewsItem) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// ItemHash returns the dedup key of a document: the hex SHA-256 digest of the
// UTF-8 bytes of author+title+link.
func ItemHash(author, title, link string) string {
	sum := sha256.Sum256([]byte(author + title + link))
	return hex.EncodeToString(sum[:])
}

// NewsItemAttribute is a key/value annotation on a single item. Keys are unique
// per item.
type NewsItemAttribute struct {
	ID         uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	NewsItemID uuid.UUID `json:"news_item_id" gorm:"type:uuid;not null;uniqueIndex:idx_news_item_attributes_item_key"`
	Key        string    `json:"key" gorm:"not null;uniqueIndex:idx_news_item_attributes_item_key"`
	Value      string    `json:"value" gorm:"type:text"`
	Binary     []byte    `json:"binary,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the NewsItemAttribute model
func (NewsItemAttribute) TableName() string {
	return "news_item_attributes"
}

// BeforeCreate assigns an id when the caller did not
func (a *NewsItemAttribute) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
