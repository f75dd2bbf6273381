package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Story is a cluster of news items about the same event. Read, Important,
// Likes, Dislikes, Relevance, Created and SourceLabels are rollups over the
// member items and are only ever written through ApplyRollup.
type Story struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Title       string    `json:"title"`
	Description string    `json:"description" gorm:"type:text"`

	Created time.Time `json:"created" gorm:"not null;index"` // earliest member publish time
	Updated time.Time `json:"updated" gorm:"not null;index"` // last mutation

	// Rollups
	Read         bool   `json:"read" gorm:"default:false;index"`
	Important    bool   `json:"important" gorm:"default:false;index"`
	Likes        int    `json:"likes" gorm:"default:0"`
	Dislikes     int    `json:"dislikes" gorm:"default:0"`
	Relevance    int    `json:"relevance" gorm:"default:0;index"`
	SourceLabels Labels `json:"source_labels"`

	// Analyst and bot annotations
	Comments string `json:"comments" gorm:"type:text"`
	Summary  string `json:"summary" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	// Relationships
	NewsItems  []NewsItem       `json:"news_items,omitempty" gorm:"foreignKey:StoryID"`
	Tags       []StoryTag       `json:"tags,omitempty" gorm:"foreignKey:StoryID"`
	Attributes []StoryAttribute `json:"attributes,omitempty" gorm:"foreignKey:StoryID"`
	Links      []StoryLink      `json:"links,omitempty" gorm:"foreignKey:StoryID"`
}

// TableName sets the table name for the Story model
func (Story) TableName() string {
	return "stories"
}

// BeforeCreate assigns an id when the caller did not
func (s *Story) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// NewStoryFromItem seeds a singleton story from the fields of its only member.
func NewStoryFromItem(item *NewsItem) *Story {
	description := item.Review
	if description == "" {
		description = item.Content
	}
	return &Story{
		ID:          uuid.New(),
		Title:       item.Title,
		Description: description,
		Created:     item.Published,
	}
}

// ApplyRollup recomputes every aggregate field of s from items. It reports
// false, leaving s untouched, when items is empty: an empty story must be
// deleted instead.
func (s *Story) ApplyRollup(items []NewsItem, now time.Time) bool {
	if len(items) == 0 {
		return false
	}

	s.Read = true
	s.Important = false
	s.Likes = 0
	s.Dislikes = 0
	s.Relevance = 0
	s.Created = items[0].Published

	seen := make(map[string]bool)
	labels := Labels{}
	for _, item := range items {
		s.Likes += item.Likes
		s.Dislikes += item.Dislikes
		s.Relevance += item.Relevance
		s.Read = s.Read && item.Read
		s.Important = s.Important || item.Important
		if item.Published.Before(s.Created) {
			s.Created = item.Published
		}
		if item.Source != "" && !seen[item.Source] {
			seen[item.Source] = true
			labels = append(labels, item.Source)
		}
	}
	sort.Strings(labels)
	s.SourceLabels = labels
	s.Updated = now
	return true
}

// StoryTag is a named, typed tag. Names are unique per story.
type StoryTag struct {
	ID      uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	StoryID uuid.UUID `json:"story_id" gorm:"type:uuid;not null;uniqueIndex:idx_story_tags_story_name"`
	Name    string    `json:"name" gorm:"not null;uniqueIndex:idx_story_tags_story_name;index"`
	TagType string    `json:"tag_type" gorm:"index"` // e.g. "CVE", "LOC", "ORG"
}

// TableName sets the table name for the StoryTag model
func (StoryTag) TableName() string {
	return "story_tags"
}

// BeforeCreate assigns an id when the caller did not
func (t *StoryTag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// StoryAttribute is a key/value annotation such as a TLP level or a bot
// processing marker. Keys are unique per story.
type StoryAttribute struct {
	ID      uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	StoryID uuid.UUID `json:"story_id" gorm:"type:uuid;not null;uniqueIndex:idx_story_attributes_story_key"`
	Key     string    `json:"key" gorm:"not null;uniqueIndex:idx_story_attributes_story_key"`
	Value   string    `json:"value" gorm:"type:text"`
}

// TableName sets the table name for the StoryAttribute model
func (StoryAttribute) TableName() string {
	return "story_attributes"
}

// BeforeCreate assigns an id when the caller did not
func (a *StoryAttribute) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// StoryLink is a weak reference from a story to a story on a remote node.
// It never owns anything on either side.
type StoryLink struct {
	ID       uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	StoryID  uuid.UUID `json:"story_id" gorm:"type:uuid;not null;uniqueIndex:idx_story_links_unique"`
	Relation string    `json:"relation" gorm:"not null;uniqueIndex:idx_story_links_unique"`
	RemoteID string    `json:"remote_id" gorm:"not null;uniqueIndex:idx_story_links_unique"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the table name for the StoryLink model
func (StoryLink) TableName() string {
	return "story_links"
}

// BeforeCreate assigns an id when the caller did not
func (l *StoryLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// StorySearchIndex holds the lower-cased searchable text of one story
type StorySearchIndex struct {
	StoryID   uuid.UUID `json:"story_id" gorm:"primaryKey;type:uuid"`
	Data      string    `json:"data" gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the StorySearchIndex model
func (StorySearchIndex) TableName() string {
	return "story_search_index"
}
