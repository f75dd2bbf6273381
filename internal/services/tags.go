package services

import (
	"strings"

	"osint-stories/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TagInput is a tag as supplied by a bot or analyst
type TagInput struct {
	Name    string `json:"name"`
	TagType string `json:"tag_type"`
}

// AttributeInput is a key/value annotation. Binary is only kept on items.
type AttributeInput struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Binary []byte `json:"binary,omitempty"`
}

// MergeTags returns the incoming tags whose names are not on the story yet.
// The first occurrence of a name wins, both against existing tags and within
// incoming.
func MergeTags(existing []models.StoryTag, incoming []TagInput) []TagInput {
	seen := make(map[string]bool, len(existing))
	for _, tag := range existing {
		seen[tag.Name] = true
	}

	var added []TagInput
	for _, tag := range incoming {
		if seen[tag.Name] {
			continue
		}
		seen[tag.Name] = true
		added = append(added, tag)
	}
	return added
}

// MergeAttributes plans a merge by key against the stored key/value pairs.
// With overwrite set an incoming value replaces the stored one and the last
// duplicate key in incoming wins; otherwise stored and earlier values win.
func MergeAttributes(existing map[string]string, incoming []AttributeInput, overwrite bool) (create, update []AttributeInput) {
	merged := make(map[string]AttributeInput, len(incoming))
	var order []string
	for _, attribute := range incoming {
		if _, seen := merged[attribute.Key]; seen {
			if overwrite {
				merged[attribute.Key] = attribute
			}
			continue
		}
		merged[attribute.Key] = attribute
		order = append(order, attribute.Key)
	}

	for _, key := range order {
		attribute := merged[key]
		current, ok := existing[key]
		switch {
		case !ok:
			create = append(create, attribute)
		case overwrite && (current != attribute.Value || len(attribute.Binary) > 0):
			update = append(update, attribute)
		}
	}
	return create, update
}

func cleanTags(tags []TagInput) ([]TagInput, error) {
	clean := make([]TagInput, 0, len(tags))
	for _, tag := range tags {
		tag.Name = strings.TrimSpace(tag.Name)
		tag.TagType = strings.TrimSpace(tag.TagType)
		if tag.Name == "" {
			return nil, validationError("tag name must not be empty")
		}
		clean = append(clean, tag)
	}
	return clean, nil
}

func cleanAttributes(attributes []AttributeInput) ([]AttributeInput, error) {
	clean := make([]AttributeInput, 0, len(attributes))
	for _, attribute := range attributes {
		attribute.Key = strings.TrimSpace(attribute.Key)
		if attribute.Key == "" {
			return nil, validationError("attribute key must not be empty")
		}
		clean = append(clean, attribute)
	}
	return clean, nil
}

// addTags appends the tags whose names the story does not carry yet
func addTags(tx *gorm.DB, storyID uuid.UUID, incoming []TagInput) error {
	var existing []models.StoryTag
	if err := tx.Where("story_id = ?", storyID).Find(&existing).Error; err != nil {
		return err
	}

	for _, tag := range MergeTags(existing, incoming) {
		row := models.StoryTag{StoryID: storyID, Name: tag.Name, TagType: tag.TagType}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// writeStoryAttributes merges attributes into a story by key
func writeStoryAttributes(tx *gorm.DB, storyID uuid.UUID, incoming []AttributeInput, overwrite bool) error {
	var existing []models.StoryAttribute
	if err := tx.Where("story_id = ?", storyID).Find(&existing).Error; err != nil {
		return err
	}
	current := make(map[string]string, len(existing))
	for _, attribute := range existing {
		current[attribute.Key] = attribute.Value
	}

	create, update := MergeAttributes(current, incoming, overwrite)
	for _, attribute := range create {
		row := models.StoryAttribute{StoryID: storyID, Key: attribute.Key, Value: attribute.Value}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	for _, attribute := range update {
		err := tx.Model(&models.StoryAttribute{}).
			Where("story_id = ? AND key = ?", storyID, attribute.Key).
			Update("value", attribute.Value).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// writeItemAttributes merges attributes into an item by key
func writeItemAttributes(tx *gorm.DB, itemID uuid.UUID, incoming []AttributeInput, overwrite bool) error {
	var existing []models.NewsItemAttribute
	if err := tx.Where("news_item_id = ?", itemID).Find(&existing).Error; err != nil {
		return err
	}
	current := make(map[string]string, len(existing))
	for _, attribute := range existing {
		current[attribute.Key] = attribute.Value
	}

	create, update := MergeAttributes(current, incoming, overwrite)
	for _, attribute := range create {
		row := models.NewsItemAttribute{
			NewsItemID: itemID,
			Key:        attribute.Key,
			Value:      attribute.Value,
			Binary:     attribute.Binary,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	for _, attribute := range update {
		err := tx.Model(&models.NewsItemAttribute{}).
			Where("news_item_id = ? AND key = ?", itemID, attribute.Key).
			Updates(map[string]interface{}{"value": attribute.Value, "binary": attribute.Binary}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// copyAnnotations unions the tags, attributes and remote links of one story
// into another. Values already on the target win.
func copyAnnotations(tx *gorm.DB, fromID, toID uuid.UUID) error {
	var tags []models.StoryTag
	if err := tx.Where("story_id = ?", fromID).Order("name").Find(&tags).Error; err != nil {
		return err
	}
	tagInputs := make([]TagInput, len(tags))
	for i, tag := range tags {
		tagInputs[i] = TagInput{Name: tag.Name, TagType: tag.TagType}
	}
	if err := addTags(tx, toID, tagInputs); err != nil {
		return err
	}

	var attributes []models.StoryAttribute
	if err := tx.Where("story_id = ?", fromID).Order("key").Find(&attributes).Error; err != nil {
		return err
	}
	attributeInputs := make([]AttributeInput, len(attributes))
	for i, attribute := range attributes {
		attributeInputs[i] = AttributeInput{Key: attribute.Key, Value: attribute.Value}
	}
	if err := writeStoryAttributes(tx, toID, attributeInputs, false); err != nil {
		return err
	}

	var links []models.StoryLink
	if err := tx.Where("story_id = ?", fromID).Find(&links).Error; err != nil {
		return err
	}
	for _, link := range links {
		if err := addLink(tx, toID, link.Relation, link.RemoteID); err != nil {
			return err
		}
	}
	return nil
}
