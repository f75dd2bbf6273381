package services

import (
	"context"
	"log"

	"osint-stories/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeleteItem removes an item with its votes and attributes. A story left
// without items is deleted with it.
func (s *StoryService) DeleteItem(ctx context.Context, itemID uuid.UUID, requester string) error {
	_, err := s.transact(ctx, "delete item", func(tx *gorm.DB, cs *changeSet) error {
		items, err := lockItems(tx, []uuid.UUID{itemID})
		if err != nil {
			return err
		}
		item := &items[0]

		if _, err := lockStories(tx, []uuid.UUID{item.StoryID}); err != nil {
			return err
		}
		if err := s.ensureNotInReport(tx, []uuid.UUID{item.StoryID}); err != nil {
			return err
		}
		if !s.access.CanModify(ctx, item, requester) {
			return permissionError("%s may not delete item %s", requester, itemID)
		}

		if err := tx.Where("news_item_id = ?", itemID).Delete(&models.NewsItemVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("news_item_id = ?", itemID).Delete(&models.NewsItemAttribute{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", itemID).Delete(&models.NewsItem{}).Error; err != nil {
			return err
		}
		cs.touch(item.StoryID)
		return nil
	})
	return err
}

// DeleteStory removes a story and every item in it
func (s *StoryService) DeleteStory(ctx context.Context, storyID uuid.UUID, requester string) error {
	_, err := s.transact(ctx, "delete story", func(tx *gorm.DB, cs *changeSet) error {
		if _, err := lockStories(tx, []uuid.UUID{storyID}); err != nil {
			return err
		}
		if err := s.ensureNotInReport(tx, []uuid.UUID{storyID}); err != nil {
			return err
		}

		var items []models.NewsItem
		if err := tx.Where("story_id = ?", storyID).Find(&items).Error; err != nil {
			return err
		}
		for i := range items {
			if !s.access.CanModify(ctx, &items[i], requester) {
				return permissionError("%s may not delete item %s", requester, items[i].ID)
			}
		}
		return s.deleteStoryTx(tx, storyID, cs)
	})
	if err == nil {
		log.Printf("🗑️ Deleted story %s", storyID)
	}
	return err
}

// SweepResult summarizes a consistency sweep
type SweepResult struct {
	Checked   int `json:"checked"`
	Deleted   int `json:"deleted"`
	Orphans   int `json:"orphans"`
	Failed    int `json:"failed"`
	StaleRows int `json:"stale_rows"`
}

// RecomputeAll recomputes every story in its own transaction, gives items
// whose story no longer exists a new story, and drops index rows of deleted
// stories.
func (s *StoryService) RecomputeAll(ctx context.Context) (*SweepResult, error) {
	log.Printf("🔄 Starting consistency sweep")
	result := &SweepResult{}

	var orphans []models.NewsItem
	err := s.db.WithContext(ctx).
		Where("story_id NOT IN (?)", s.db.Model(&models.Story{}).Select("id")).
		Find(&orphans).Error
	if err != nil {
		return nil, classify("find orphans", err)
	}
	for i := range orphans {
		missing := orphans[i].StoryID
		_, err := s.transact(ctx, "adopt orphan", func(tx *gorm.DB, cs *changeSet) error {
			if _, err := s.detach(tx, cs, &orphans[i]); err != nil {
				return err
			}
			cs.forget(missing)
			return nil
		})
		if err != nil {
			log.Printf("⚠️ Failed to adopt orphan item %s: %v", orphans[i].ID, err)
			result.Failed++
			continue
		}
		result.Orphans++
	}

	var storyIDs []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Story{}).Order("id").Pluck("id", &storyIDs).Error; err != nil {
		return nil, classify("list stories", err)
	}
	for _, id := range storyIDs {
		if err := ctx.Err(); err != nil {
			return result, classify("sweep", err)
		}

		cs, err := s.transact(ctx, "sweep", func(tx *gorm.DB, cs *changeSet) error {
			cs.touch(id)
			return nil
		})
		if err != nil {
			log.Printf("⚠️ Failed to recompute story %s: %v", id, err)
			result.Failed++
			continue
		}
		result.Checked++
		result.Deleted += len(cs.deleted)
	}

	res := s.db.WithContext(ctx).
		Where("story_id NOT IN (?)", s.db.Model(&models.Story{}).Select("id")).
		Delete(&models.StorySearchIndex{})
	if res.Error != nil {
		return result, classify("drop stale index rows", res.Error)
	}
	result.StaleRows = int(res.RowsAffected)

	log.Printf("✅ Sweep finished: %d checked, %d deleted, %d orphans adopted, %d stale index rows, %d failed",
		result.Checked, result.Deleted, result.Orphans, result.StaleRows, result.Failed)
	return result, nil
}
