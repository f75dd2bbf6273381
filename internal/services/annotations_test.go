package services

import (
	"context"
	"errors"
	"testing"

	"osint-stories/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storyTags(t *testing.T, s *StoryService, storyID uuid.UUID) []models.StoryTag {
	t.Helper()
	var tags []models.StoryTag
	require.NoError(t, s.db.Where("story_id = ?", storyID).Order("name").Find(&tags).Error)
	return tags
}

func TestUpdateTags_Idempotent(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	a := mustIngest(t, s, rawItem("a"))

	tags := []TagInput{{Name: "CVE-2024-1"}}
	require.NoError(t, s.UpdateTags(ctx, a.StoryID, tags, false))
	require.NoError(t, s.UpdateTags(ctx, a.StoryID, tags, false))

	got := storyTags(t, s, a.StoryID)
	require.Len(t, got, 1)
	assert.Equal(t, "CVE-2024-1", got[0].Name)
	assert.Contains(t, searchData(t, db, a.StoryID), "cve-2024-1")
}

func TestUpdateTags_FirstWriterWinsAndReset(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	a := mustIngest(t, s, rawItem("a"))

	require.NoError(t, s.UpdateTags(ctx, a.StoryID, []TagInput{{Name: "Kyiv", TagType: "LOC"}}, false))
	require.NoError(t, s.UpdateTags(ctx, a.StoryID, []TagInput{
		{Name: "Kyiv", TagType: "ORG"},
		{Name: " Sandworm ", TagType: "ORG"},
		{Name: "Sandworm", TagType: "MISC"},
	}, false))

	got := storyTags(t, s, a.StoryID)
	require.Len(t, got, 2)
	assert.Equal(t, "LOC", got[0].TagType)
	assert.Equal(t, "Sandworm", got[1].Name)
	assert.Equal(t, "ORG", got[1].TagType)

	require.NoError(t, s.UpdateTags(ctx, a.StoryID, []TagInput{{Name: "Kyiv", TagType: "ORG"}}, true))
	got = storyTags(t, s, a.StoryID)
	require.Len(t, got, 1)
	assert.Equal(t, "ORG", got[0].TagType)

	require.NoError(t, s.RemoveTag(ctx, a.StoryID, "Kyiv"))
	assert.Empty(t, storyTags(t, s, a.StoryID))
	assert.True(t, errors.Is(s.RemoveTag(ctx, a.StoryID, "Kyiv"), ErrNotFound))
}

func TestUpdateTags_Errors(t *testing.T) {
	s, _ := newTestService(t)
	a := mustIngest(t, s, rawItem("a"))

	err := s.UpdateTags(context.Background(), uuid.New(), []TagInput{{Name: "x"}}, false)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "not_found", KindOf(err))

	err = s.UpdateTags(context.Background(), a.StoryID, []TagInput{{Name: "  "}}, false)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestUpdateAttributes_OverwriteByKey(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	a := mustIngest(t, s, rawItem("a"))

	require.NoError(t, s.UpdateAttributes(ctx, a.StoryID, []AttributeInput{{Key: "TLP", Value: "green"}}))
	require.NoError(t, s.UpdateAttributes(ctx, a.StoryID, []AttributeInput{{Key: "TLP", Value: "crimson"}, {Key: "sentiment", Value: "negative"}}))

	var attributes []models.StoryAttribute
	require.NoError(t, db.Where("story_id = ?", a.StoryID).Order("key").Find(&attributes).Error)
	require.Len(t, attributes, 2)
	assert.Equal(t, "crimson", attributes[0].Value)
	assert.Equal(t, "negative", attributes[1].Value)

	data := searchData(t, db, a.StoryID)
	assert.Contains(t, data, "crimson")
	assert.NotContains(t, data, "green")

	require.NoError(t, s.RemoveAttribute(ctx, a.StoryID, "TLP"))
	assert.True(t, errors.Is(s.RemoveAttribute(ctx, a.StoryID, "TLP"), ErrNotFound))
	assert.NotContains(t, searchData(t, db, a.StoryID), "crimson")
}

func TestUpdateItemAttributes(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	a := mustIngest(t, s, rawItem("a"))

	require.NoError(t, s.UpdateItemAttributes(ctx, a.ItemID, []AttributeInput{
		{Key: "ioc", Value: "198.51.100.7"},
		{Key: "screenshot", Value: "image/png", Binary: []byte{0x89, 0x50}},
	}))
	require.NoError(t, s.UpdateItemAttributes(ctx, a.ItemID, []AttributeInput{{Key: "ioc", Value: "203.0.113.9"}}))

	var attributes []models.NewsItemAttribute
	require.NoError(t, db.Where("news_item_id = ?", a.ItemID).Order("key").Find(&attributes).Error)
	require.Len(t, attributes, 2)
	assert.Equal(t, "203.0.113.9", attributes[0].Value)
	assert.Equal(t, []byte{0x89, 0x50}, attributes[1].Binary)

	data := searchData(t, db, a.StoryID)
	assert.Contains(t, data, "203.0.113.9")
	assert.NotContains(t, data, "image/png")

	err := s.UpdateItemAttributes(ctx, uuid.New(), []AttributeInput{{Key: "k", Value: "v"}})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateStory(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	a := mustIngest(t, s, rawItem("a"))

	title := "  Renamed  "
	comments := "Analyst note about Lazarus"
	require.NoError(t, s.UpdateStory(ctx, a.StoryID, StoryUpdate{Title: &title, Comments: &comments}))

	story := loadStory(t, db, a.StoryID)
	assert.Equal(t, "Renamed", story.Title)
	assert.Equal(t, comments, story.Comments)
	assert.Equal(t, "Review of a", story.Description)
	assert.Contains(t, searchData(t, db, a.StoryID), "lazarus")

	assert.True(t, errors.Is(s.UpdateStory(ctx, a.StoryID, StoryUpdate{}), ErrValidation))
	assert.True(t, errors.Is(s.UpdateStory(ctx, uuid.New(), StoryUpdate{Title: &title}), ErrNotFound))
}

func TestApplyBotOutput(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	a := mustIngest(t, s, rawItem("a"))

	summary := "**Ransomware** hit a utility."
	err := s.ApplyBotOutput(ctx, BotOutput{
		StoryID:    a.StoryID,
		Tags:       []TagInput{{Name: "LockBit", TagType: "ORG"}},
		Attributes: []AttributeInput{{Key: "summary_bot", Value: "processed"}},
		Summary:    &summary,
	})
	require.NoError(t, err)

	story := loadStory(t, db, a.StoryID)
	assert.Equal(t, summary, story.Summary)
	assert.Len(t, storyTags(t, s, a.StoryID), 1)
	assert.Contains(t, searchData(t, db, a.StoryID), "lockbit")
	assert.Contains(t, searchData(t, db, a.StoryID), "utility")

	assert.True(t, errors.Is(s.ApplyBotOutput(ctx, BotOutput{}), ErrValidation))
	assert.True(t, errors.Is(s.ApplyBotOutput(ctx, BotOutput{StoryID: uuid.New()}), ErrNotFound))
}

func TestMarkStoryReadAndImportant(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	a := mustIngest(t, s, rawItem("a"))
	b := mustIngest(t, s, rawItem("b"))
	_, err := s.Merge(ctx, []uuid.UUID{a.StoryID, b.StoryID}, "u1")
	require.NoError(t, err)

	require.NoError(t, s.MarkStoryRead(ctx, a.StoryID, true))
	require.NoError(t, s.MarkStoryImportant(ctx, a.StoryID, true))
	story := loadStory(t, db, a.StoryID)
	assert.True(t, story.Read)
	assert.True(t, story.Important)

	unread := false
	require.NoError(t, s.SetItemFlags(ctx, b.ItemID, ItemFlags{Read: &unread}))
	story = loadStory(t, db, a.StoryID)
	assert.False(t, story.Read)
	assert.True(t, story.Important)

	notImportant := false
	require.NoError(t, s.SetItemFlags(ctx, a.ItemID, ItemFlags{Important: &notImportant}))
	assert.True(t, loadStory(t, db, a.StoryID).Important)
	require.NoError(t, s.SetItemFlags(ctx, b.ItemID, ItemFlags{Important: &notImportant}))
	assert.False(t, loadStory(t, db, a.StoryID).Important)

	assert.True(t, errors.Is(s.SetItemFlags(ctx, a.ItemID, ItemFlags{}), ErrValidation))
	assertConsistent(t, db)
}

func TestLinkRemote(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	a := mustIngest(t, s, rawItem("a"))

	require.NoError(t, s.LinkRemote(ctx, a.StoryID, "same_as", "node-b/42"))
	require.NoError(t, s.LinkRemote(ctx, a.StoryID, "same_as", "node-b/42"))
	assert.Equal(t, int64(1), countRows(t, db, &models.StoryLink{}))

	assert.True(t, errors.Is(s.LinkRemote(ctx, a.StoryID, "", "x"), ErrValidation))
	assert.True(t, errors.Is(s.LinkRemote(ctx, uuid.New(), "same_as", "x"), ErrNotFound))

	require.NoError(t, s.UnlinkRemote(ctx, a.StoryID, "same_as", "node-b/42"))
	assert.True(t, errors.Is(s.UnlinkRemote(ctx, a.StoryID, "same_as", "node-b/42"), ErrNotFound))
}
