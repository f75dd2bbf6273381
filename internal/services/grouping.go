package services

import (
	"context"
	"log"

	"osint-stories/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MergeResult reports the outcome of a merge per item. Items the requester
// may not modify are listed in Denied and stay where they were.
type MergeResult struct {
	StoryID uuid.UUID   `json:"story_id"`
	Moved   []uuid.UUID `json:"moved"`
	Denied  []uuid.UUID `json:"denied"`
	Deleted []uuid.UUID `json:"deleted"`
}

// SplitResult reports the stories created by a split, the items left in place
// because the requester may not modify them, and the stories that emptied.
type SplitResult struct {
	Created []uuid.UUID `json:"created"`
	Denied  []uuid.UUID `json:"denied"`
	Deleted []uuid.UUID `json:"deleted"`
}

// Merge moves every item of the other stories into the first one. Tags and
// attributes are unioned with the first story winning name and key
// collisions, and emptied stories are deleted. The whole merge is rejected
// when any story is assigned to a finalized report.
func (s *StoryService) Merge(ctx context.Context, storyIDs []uuid.UUID, requester string) (*MergeResult, error) {
	ids := uniqueIDs(storyIDs)
	if len(ids) < 2 {
		return nil, validationError("merge needs at least two distinct stories")
	}

	result := &MergeResult{StoryID: ids[0], Moved: []uuid.UUID{}, Denied: []uuid.UUID{}}
	cs, err := s.transact(ctx, "merge", func(tx *gorm.DB, cs *changeSet) error {
		stories, err := lockStories(tx, ids)
		if err != nil {
			return err
		}
		if err := s.ensureNotInReport(tx, ids); err != nil {
			return err
		}

		var items []models.NewsItem
		if err := tx.Where("story_id IN ?", ids[1:]).Order("published ASC, id ASC").Find(&items).Error; err != nil {
			return err
		}

		donors := make([]*models.Story, 0, len(ids)-1)
		for _, id := range ids[1:] {
			donors = append(donors, stories[id])
		}
		return s.absorb(ctx, tx, cs, stories[ids[0]], donors, items, requester, result)
	})
	if err != nil {
		return nil, err
	}

	result.Deleted = sortedIDs(cs.deleted)
	log.Printf("🔗 Merged %d stories into %s: %d moved, %d denied, %d deleted",
		len(ids), result.StoryID, len(result.Moved), len(result.Denied), len(result.Deleted))
	return result, nil
}

// MergeItems moves the given items into the story of the first one
func (s *StoryService) MergeItems(ctx context.Context, itemIDs []uuid.UUID, requester string) (*MergeResult, error) {
	ids := uniqueIDs(itemIDs)
	if len(ids) < 2 {
		return nil, validationError("merge needs at least two distinct items")
	}

	result := &MergeResult{Moved: []uuid.UUID{}, Denied: []uuid.UUID{}}
	cs, err := s.transact(ctx, "merge items", func(tx *gorm.DB, cs *changeSet) error {
		items, err := lockItems(tx, ids)
		if err != nil {
			return err
		}

		storyIDs := make([]uuid.UUID, 0, len(items))
		for _, item := range items {
			storyIDs = append(storyIDs, item.StoryID)
		}
		storyIDs = uniqueIDs(storyIDs)

		stories, err := lockStories(tx, storyIDs)
		if err != nil {
			return err
		}
		if err := s.ensureNotInReport(tx, storyIDs); err != nil {
			return err
		}

		donors := make([]*models.Story, 0, len(storyIDs)-1)
		for _, id := range storyIDs[1:] {
			donors = append(donors, stories[id])
		}
		result.StoryID = storyIDs[0]
		return s.absorb(ctx, tx, cs, stories[storyIDs[0]], donors, items[1:], requester, result)
	})
	if err != nil {
		return nil, err
	}

	result.Deleted = sortedIDs(cs.deleted)
	log.Printf("🔗 Merged %d items into %s: %d moved, %d denied, %d deleted",
		len(ids), result.StoryID, len(result.Moved), len(result.Denied), len(result.Deleted))
	return result, nil
}

// absorb moves the permitted items into survivor and unions the donors'
// annotations into it. Rollups are left to settle.
func (s *StoryService) absorb(ctx context.Context, tx *gorm.DB, cs *changeSet, survivor *models.Story, donors []*models.Story, items []models.NewsItem, requester string, result *MergeResult) error {
	for i := range items {
		item := &items[i]
		if item.StoryID == survivor.ID {
			continue
		}
		if !s.access.CanModify(ctx, item, requester) {
			result.Denied = append(result.Denied, item.ID)
			continue
		}
		result.Moved = append(result.Moved, item.ID)
	}

	if len(result.Moved) > 0 {
		err := tx.Model(&models.NewsItem{}).
			Where("id IN ?", result.Moved).
			Update("story_id", survivor.ID).Error
		if err != nil {
			return err
		}
	}

	if err := seedText(tx, survivor, donors); err != nil {
		return err
	}
	for _, donor := range donors {
		if err := copyAnnotations(tx, donor.ID, survivor.ID); err != nil {
			return err
		}
		if err := copyReportAssignments(tx, donor.ID, survivor.ID); err != nil {
			return err
		}
		cs.touch(donor.ID)
	}
	cs.touch(survivor.ID)
	return nil
}

// seedText fills the empty text fields of survivor from the first donor that
// has them.
func seedText(tx *gorm.DB, survivor *models.Story, donors []*models.Story) error {
	updates := make(map[string]interface{})
	fill := func(column, current string, pick func(*models.Story) string) {
		if current != "" {
			return
		}
		for _, donor := range donors {
			if value := pick(donor); value != "" {
				updates[column] = value
				return
			}
		}
	}

	fill("title", survivor.Title, func(d *models.Story) string { return d.Title })
	fill("description", survivor.Description, func(d *models.Story) string { return d.Description })
	fill("summary", survivor.Summary, func(d *models.Story) string { return d.Summary })

	if len(updates) == 0 {
		return nil
	}
	return tx.Model(&models.Story{}).Where("id = ?", survivor.ID).Updates(updates).Error
}

// Split moves each given item out into a new story of its own. Stories that
// are emptied are deleted. A story left with a single item is renormalized:
// that item also gets a fresh story. Whenever exactly one item carries on a
// story, its fresh story inherits the old story's tags, attributes, links,
// comments, summary and report assignments.
func (s *StoryService) Split(ctx context.Context, itemIDs []uuid.UUID, requester string) (*SplitResult, error) {
	ids := uniqueIDs(itemIDs)
	if len(ids) == 0 {
		return nil, validationError("split needs at least one item")
	}

	result := &SplitResult{Created: []uuid.UUID{}, Denied: []uuid.UUID{}}
	cs, err := s.transact(ctx, "split", func(tx *gorm.DB, cs *changeSet) error {
		items, err := lockItems(tx, ids)
		if err != nil {
			return err
		}
		return s.splitTx(ctx, tx, cs, items, requester, result)
	})
	if err != nil {
		return nil, err
	}

	result.Deleted = sortedIDs(cs.deleted)
	log.Printf("✂️ Split %d items: %d new stories, %d denied, %d deleted",
		len(ids), len(result.Created), len(result.Denied), len(result.Deleted))
	return result, nil
}

// SplitStories ungroups every item of the given stories
func (s *StoryService) SplitStories(ctx context.Context, storyIDs []uuid.UUID, requester string) (*SplitResult, error) {
	ids := uniqueIDs(storyIDs)
	if len(ids) == 0 {
		return nil, validationError("split needs at least one story")
	}

	result := &SplitResult{Created: []uuid.UUID{}, Denied: []uuid.UUID{}}
	cs, err := s.transact(ctx, "split stories", func(tx *gorm.DB, cs *changeSet) error {
		if _, err := lockStories(tx, ids); err != nil {
			return err
		}

		var items []models.NewsItem
		if err := tx.Where("story_id IN ?", ids).Order("published ASC, id ASC").Find(&items).Error; err != nil {
			return err
		}
		return s.splitTx(ctx, tx, cs, items, requester, result)
	})
	if err != nil {
		return nil, err
	}

	result.Deleted = sortedIDs(cs.deleted)
	log.Printf("✂️ Split %d stories: %d new stories, %d denied, %d deleted",
		len(ids), len(result.Created), len(result.Denied), len(result.Deleted))
	return result, nil
}

func (s *StoryService) splitTx(ctx context.Context, tx *gorm.DB, cs *changeSet, items []models.NewsItem, requester string, result *SplitResult) error {
	origins := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		origins = append(origins, item.StoryID)
	}
	origins = uniqueIDs(origins)

	if _, err := lockStories(tx, origins); err != nil {
		return err
	}
	if err := s.ensureNotInReport(tx, origins); err != nil {
		return err
	}

	detached := make(map[uuid.UUID][]uuid.UUID)
	for i := range items {
		item := &items[i]
		if !s.access.CanModify(ctx, item, requester) {
			result.Denied = append(result.Denied, item.ID)
			continue
		}
		origin := item.StoryID
		storyID, err := s.detach(tx, cs, item)
		if err != nil {
			return err
		}
		detached[origin] = append(detached[origin], storyID)
		result.Created = append(result.Created, storyID)
	}

	for _, origin := range origins {
		if len(detached[origin]) == 0 {
			continue
		}

		var remaining []models.NewsItem
		if err := tx.Where("story_id = ?", origin).Limit(2).Find(&remaining).Error; err != nil {
			return err
		}

		switch {
		case len(remaining) == 0 && len(detached[origin]) == 1:
			// the story's only item moved out
			if err := inherit(tx, origin, detached[origin][0]); err != nil {
				return err
			}
		case len(remaining) == 1 && s.access.CanModify(ctx, &remaining[0], requester):
			storyID, err := s.detach(tx, cs, &remaining[0])
			if err != nil {
				return err
			}
			if err := inherit(tx, origin, storyID); err != nil {
				return err
			}
			result.Created = append(result.Created, storyID)
		}
	}
	return nil
}

// inherit carries the annotations, analyst text and report assignments of
// origin over to the story that replaces it
func inherit(tx *gorm.DB, origin, storyID uuid.UUID) error {
	if err := copyAnnotations(tx, origin, storyID); err != nil {
		return err
	}
	if err := copyReportAssignments(tx, origin, storyID); err != nil {
		return err
	}

	var previous models.Story
	if err := tx.Select("comments", "summary").Where("id = ?", origin).First(&previous).Error; err != nil {
		return err
	}
	if previous.Comments == "" && previous.Summary == "" {
		return nil
	}
	return tx.Model(&models.Story{}).Where("id = ?", storyID).Updates(map[string]interface{}{
		"comments": previous.Comments,
		"summary":  previous.Summary,
	}).Error
}

// detach moves item into a new singleton story seeded from its own fields
func (s *StoryService) detach(tx *gorm.DB, cs *changeSet, item *models.NewsItem) (uuid.UUID, error) {
	origin := item.StoryID
	story := models.NewStoryFromItem(item)
	story.Updated = s.now()
	if err := tx.Create(story).Error; err != nil {
		return uuid.Nil, err
	}

	if err := tx.Model(&models.NewsItem{}).Where("id = ?", item.ID).Update("story_id", story.ID).Error; err != nil {
		return uuid.Nil, err
	}
	item.StoryID = story.ID

	cs.create(story.ID)
	cs.touch(origin)
	return story.ID, nil
}
