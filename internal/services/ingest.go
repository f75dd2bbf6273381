package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"osint-stories/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RawItem is one collected document as handed over by a collector
type RawItem struct {
	Title         string           `json:"title"`
	Review        string           `json:"review"`
	Content       string           `json:"content"`
	Author        string           `json:"author"`
	Source        string           `json:"source"`
	Link          string           `json:"link"`
	Language      string           `json:"language"`
	Published     time.Time        `json:"published"`
	OSINTSourceID string           `json:"osint_source_id"`
	Attributes    []AttributeInput `json:"attributes"`

	// StoryID places the item into an existing story instead of a new one
	StoryID *uuid.UUID `json:"story_id,omitempty"`
}

// Hash returns the dedup key of the item
func (r *RawItem) Hash() string {
	return models.ItemHash(r.Author, r.Title, r.Link)
}

func (r *RawItem) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Link = strings.TrimSpace(r.Link)
	r.Author = strings.TrimSpace(r.Author)
	r.Source = strings.TrimSpace(r.Source)
}

// IngestResult reports where an item went, or that it was a duplicate
type IngestResult struct {
	ItemID  uuid.UUID `json:"item_id"`
	StoryID uuid.UUID `json:"story_id"`
	Skipped bool      `json:"skipped"`
}

// IngestFailure describes one item of a batch that could not be ingested
type IngestFailure struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// IngestSummary is the outcome of a batch
type IngestSummary struct {
	Created []IngestResult  `json:"created"`
	Skipped int             `json:"skipped"`
	Failed  []IngestFailure `json:"failed"`
}

// StoryIDs returns the stories that received new items
func (s *IngestSummary) StoryIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Created))
	for _, created := range s.Created {
		ids = append(ids, created.StoryID)
	}
	return uniqueIDs(ids)
}

// Ingest stores a newly collected item in a new singleton story, or in
// raw.StoryID when set. An item whose hash is already known is skipped and
// reported with Skipped set and a nil error.
func (s *StoryService) Ingest(ctx context.Context, raw RawItem) (*IngestResult, error) {
	raw.normalize()
	if raw.Title == "" && raw.Link == "" && strings.TrimSpace(raw.Content) == "" {
		return nil, validationError("item needs a title, link or content")
	}
	attributes, err := cleanAttributes(raw.Attributes)
	if err != nil {
		return nil, err
	}

	hash := raw.Hash()
	result := &IngestResult{}
	_, err = s.transact(ctx, "ingest", func(tx *gorm.DB, cs *changeSet) error {
		var existing int64
		if err := tx.Model(&models.NewsItem{}).Where("hash = ?", hash).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicate
		}

		now := s.now()
		item := &models.NewsItem{
			ID:            uuid.New(),
			Hash:          hash,
			Title:         raw.Title,
			Review:        raw.Review,
			Content:       raw.Content,
			Author:        raw.Author,
			Source:        raw.Source,
			Link:          raw.Link,
			Language:      raw.Language,
			OSINTSourceID: raw.OSINTSourceID,
			Published:     raw.Published,
			Collected:     now,
		}
		if item.Published.IsZero() {
			item.Published = now
		}

		if raw.StoryID != nil {
			target := *raw.StoryID
			if _, err := lockStories(tx, []uuid.UUID{target}); err != nil {
				return err
			}
			if err := s.ensureNotInReport(tx, []uuid.UUID{target}); err != nil {
				return err
			}
			item.StoryID = target
			cs.touch(target)
		} else {
			story := models.NewStoryFromItem(item)
			story.Updated = now
			if err := tx.Create(story).Error; err != nil {
				return err
			}
			item.StoryID = story.ID
			cs.create(story.ID)
		}

		if err := tx.Create(item).Error; err != nil {
			return err
		}
		if err := writeItemAttributes(tx, item.ID, attributes, true); err != nil {
			return err
		}

		result.ItemID = item.ID
		result.StoryID = item.StoryID
		return nil
	})
	if errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return &IngestResult{Skipped: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IngestMany ingests each item independently; a failing item does not stop
// the rest of the batch.
func (s *StoryService) IngestMany(ctx context.Context, raws []RawItem) *IngestSummary {
	summary := &IngestSummary{
		Created: []IngestResult{},
		Failed:  []IngestFailure{},
	}

	for i, raw := range raws {
		result, err := s.Ingest(ctx, raw)
		switch {
		case err != nil:
			summary.Failed = append(summary.Failed, IngestFailure{Index: i, Kind: KindOf(err), Error: err.Error()})
		case result.Skipped:
			summary.Skipped++
		default:
			summary.Created = append(summary.Created, *result)
		}
	}

	if len(summary.Failed) > 0 {
		log.Printf("⚠️ Ingested batch of %d: %d created, %d skipped, %d failed",
			len(raws), len(summary.Created), summary.Skipped, len(summary.Failed))
	} else {
		log.Printf("📊 Ingested batch of %d: %d created, %d skipped",
			len(raws), len(summary.Created), summary.Skipped)
	}
	return summary
}
