package services

import (
	"context"
	"strings"

	"osint-stories/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoryUpdate carries the analyst-editable text of a story. Nil fields are
// left unchanged.
type StoryUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Comments    *string `json:"comments"`
	Summary     *string `json:"summary"`
}

// BotOutput is what an enrichment bot returns for one story
type BotOutput struct {
	StoryID    uuid.UUID        `json:"story_id"`
	Tags       []TagInput       `json:"tags"`
	Attributes []AttributeInput `json:"attributes"`
	Summary    *string          `json:"summary,omitempty"`
}

// ItemFlags sets the read and important flags of an item. Nil fields are left
// unchanged.
type ItemFlags struct {
	Read      *bool `json:"read"`
	Important *bool `json:"important"`
}

// UpdateTags adds tags to a story by name. A name already on the story keeps
// its existing tag. With reset set all tags are removed first.
func (s *StoryService) UpdateTags(ctx context.Context, storyID uuid.UUID, tags []TagInput, reset bool) error {
	clean, err := cleanTags(tags)
	if err != nil {
		return err
	}

	_, err = s.transact(ctx, "update tags", func(tx *gorm.DB, cs *changeSet) error {
		if _, err := lockStories(tx, []uuid.UUID{storyID}); err != nil {
			return err
		}
		if reset {
			if err := tx.Where("story_id = ?", storyID).Delete(&models.StoryTag{}).Error; err != nil {
				return err
			}
		}
		if err := addTags(tx, storyID, clean); err != nil {
			return err
		}
		cs.touch(storyID)
		return nil
	})
	return err
}

// RemoveTag deletes one tag from a story
func (s *StoryService) RemoveTag(ctx context.Context, storyID uuid.UUID, name string) error {
	_, err := s.transact(ctx, "remove tag", func(tx *gorm.DB, cs *changeSet) error {
		if _, err := lockStories(tx, []uuid.UUID{storyID}); err != nil {
			return err
		}
		res := tx.Where("story_id = ? AND name = ?", storyID, name).Delete(&models.StoryTag{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFoundError("tag %q on story %s", name, storyID)
		}
		cs.touch(storyID)
		return nil
	})
	return err
}

// UpdateAttributes merges attributes into a story by key, overwriting the
// values of keys it already has.
func (s *StoryService) UpdateAttributes(ctx context.Context, storyID uuid.UUID, attributes []AttributeInput) error {
	clean, err := cleanAttributes(attributes)
	if err != nil {
		return err
	}

	_, err = s.transact(ctx, "update attributes", func(tx *gorm.DB, cs *changeSet) error {
		if _, err := lockStories(tx, []uuid.UUID{storyID}); err != nil {
			return err
		}
		if err := writeStoryAttributes(tx, storyID, clean, true); err != nil {
			return err
		}
		cs.touch(storyID)
		return nil
	})
	return err
}

// RemoveAttribute deletes one attribute from a story
func (s *StoryService) RemoveAttribute(ctx context.Context, storyID uuid.UUID, key string) error {
	_, err := s.transact(ctx, "remove attribute", func(tx *gorm.DB, cs *changeSet) error {
		if _, err := lockStories(tx, []uuid.UUID{storyID}); err != nil {
			return err
		}
		res := tx.Where("story_id = ? AND key = ?", storyID, key).Delete(&models.StoryAttribute{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFoundError("attribute %q on story %s", key, storyID)
		}
		cs.touch(storyID)
		return nil
	})
	return err
}

// UpdateItemAttributes merges attributes into an item by key
func (s *StoryService) UpdateItemAttributes(ctx context.Context, itemID uuid.UUID, attributes []AttributeInput) error {
	clean, err := cleanAttributes(attributes)
	if err != nil {
		return err
	}

	_, err = s.transact(ctx, "update item attributes", func(tx *gorm.DB, cs *changeSet) error {
		items, err := lockItems(tx, []uuid.UUID{itemID})
		if err != nil {
			return err
		}
		if err := writeItemAttributes(tx, itemID, clean, true); err != nil {
			return err
		}
		cs.touch(items[0].StoryID)
		return nil
	})
	return err
}

// UpdateStory changes the text fields of a story
func (s *StoryService) UpdateStory(ctx context.Context, storyID uuid.UUID, update StoryUpdate) error {
	updates := update.columns()
	if len(updates) == 0 {
		return validationError("nothing to update")
	}

	_, err := s.transact(ctx, "update story", func(tx *gorm.DB, cs *changeSet) error {
		if _, err := lockStories(tx, []uuid.UUID{storyID}); err != nil {
			return err
		}
		if err := tx.Model(&models.Story{}).Where("id = ?", storyID).Updates(updates).Error; err != nil {
			return err
		}
		cs.touch(storyID)
		return nil
	})
	return err
}

func (u StoryUpdate) columns() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Title != nil {
		updates["title"] = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		updates["description"] = *u.Description
	}
	if u.Comments != nil {
		updates["comments"] = *u.Comments
	}
	if u.Summary != nil {
		updates["summary"] = *u.Summary
	}
	return updates
}

// ApplyBotOutput stores the tags, attributes and summary a bot produced for a
// story in one transaction.
func (s *StoryService) ApplyBotOutput(ctx context.Context, output BotOutput) error {
	if output.StoryID == uuid.Nil {
		return validationError("bot output needs a story id")
	}
	tags, err := cleanTags(output.Tags)
	if err != nil {
		return err
	}
	attributes, err := cleanAttributes(output.Attributes)
	if err != nil {
		return err
	}

	_, err = s.transact(ctx, "apply bot output", func(tx *gorm.DB, cs *changeSet) error {
		if _, err := lockStories(tx, []uuid.UUID{output.StoryID}); err != nil {
			return err
		}
		if err := addTags(tx, output.StoryID, tags); err != nil {
			return err
		}
		if err := writeStoryAttributes(tx, output.StoryID, attributes, true); err != nil {
			return err
		}
		if output.Summary != nil {
			err := tx.Model(&models.Story{}).Where("id = ?", output.StoryID).Update("summary", *output.Summary).Error
			if err != nil {
				return err
			}
		}
		cs.touch(output.StoryID)
		return nil
	})
	return err
}

// MarkStoryRead sets the read flag on every item of a story
func (s *StoryService) MarkStoryRead(ctx context.Context, storyID uuid.UUID, read bool) error {
	return s.setStoryItemsFlag(ctx, storyID, "read", read)
}

// MarkStoryImportant sets the important flag on every item of a story
func (s *StoryService) MarkStoryImportant(ctx context.Context, storyID uuid.UUID, important bool) error {
	return s.setStoryItemsFlag(ctx, storyID, "important", important)
}

func (s *StoryService) setStoryItemsFlag(ctx context.Context, storyID uuid.UUID, column string, value bool) error {
	_, err := s.transact(ctx, "mark story "+column, func(tx *gorm.DB, cs *changeSet) error {
		if _, err := lockStories(tx, []uuid.UUID{storyID}); err != nil {
			return err
		}
		if err := tx.Model(&models.NewsItem{}).Where("story_id = ?", storyID).Update(column, value).Error; err != nil {
			return err
		}
		cs.touch(storyID)
		return nil
	})
	return err
}

// SetItemFlags changes the read and important flags of one item
func (s *StoryService) SetItemFlags(ctx context.Context, itemID uuid.UUID, flags ItemFlags) error {
	updates := make(map[string]interface{})
	if flags.Read != nil {
		updates["read"] = *flags.Read
	}
	if flags.Important != nil {
		updates["important"] = *flags.Important
	}
	if len(updates) == 0 {
		return validationError("nothing to update")
	}

	_, err := s.transact(ctx, "set item flags", func(tx *gorm.DB, cs *changeSet) error {
		items, err := lockItems(tx, []uuid.UUID{itemID})
		if err != nil {
			return err
		}
		if err := tx.Model(&models.NewsItem{}).Where("id = ?", itemID).Updates(updates).Error; err != nil {
			return err
		}
		cs.touch(items[0].StoryID)
		return nil
	})
	return err
}

// LinkRemote records a weak reference from a story to a story on a remote
// node. Linking the same pair twice is a no-op.
func (s *StoryService) LinkRemote(ctx context.Context, storyID uuid.UUID, relation, remoteID string) error {
	relation = strings.TrimSpace(relation)
	remoteID = strings.TrimSpace(remoteID)
	if relation == "" || remoteID == "" {
		return validationError("link needs a relation and a remote id")
	}

	_, err := s.transact(ctx, "link remote", func(tx *gorm.DB, cs *changeSet) error {
		if _, err := lockStories(tx, []uuid.UUID{storyID}); err != nil {
			return err
		}
		if err := addLink(tx, storyID, relation, remoteID); err != nil {
			return err
		}
		cs.touch(storyID)
		return nil
	})
	return err
}

// UnlinkRemote removes a remote link
func (s *StoryService) UnlinkRemote(ctx context.Context, storyID uuid.UUID, relation, remoteID string) error {
	_, err := s.transact(ctx, "unlink remote", func(tx *gorm.DB, cs *changeSet) error {
		if _, err := lockStories(tx, []uuid.UUID{storyID}); err != nil {
			return err
		}
		res := tx.Where("story_id = ? AND relation = ? AND remote_id = ?", storyID, relation, remoteID).Delete(&models.StoryLink{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFoundError("link %s/%s on story %s", relation, remoteID, storyID)
		}
		cs.touch(storyID)
		return nil
	})
	return err
}

func addLink(tx *gorm.DB, storyID uuid.UUID, relation, remoteID string) error {
	link := models.StoryLink{StoryID: storyID, Relation: relation, RemoteID: remoteID}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
}
