package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestItemHash(t *testing.T) {
	// sha256("alicetitlehttps://example.com")
	a := ItemHash("alice", "title", "https://example.com")
	b := ItemHash("alice", "title", "https://example.com")
	c := ItemHash("bob", "title", "https://example.com")

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", ItemHash("", "", ""))
}

func TestStory_ApplyRollup(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	early := now.Add(-48 * time.Hour)
	late := now.Add(-2 * time.Hour)

	t.Run("aggregates members", func(t *testing.T) {
		story := &Story{}
		items := []NewsItem{
			{Published: late, Read: true, Likes: 2, Relevance: 2, Source: "feed-b"},
			{Published: early, Read: false, Important: true, Dislikes: 1, Relevance: -1, Source: "feed-a"},
			{Published: late, Read: true, Source: "feed-b"},
		}

		assert.True(t, story.ApplyRollup(items, now))
		assert.Equal(t, 2, story.Likes)
		assert.Equal(t, 1, story.Dislikes)
		assert.Equal(t, 1, story.Relevance)
		assert.False(t, story.Read)
		assert.True(t, story.Important)
		assert.Equal(t, early, story.Created)
		assert.Equal(t, now, story.Updated)
		assert.Equal(t, Labels{"feed-a", "feed-b"}, story.SourceLabels)
	})

	t.Run("read only when every member is read", func(t *testing.T) {
		story := &Story{}
		assert.True(t, story.ApplyRollup([]NewsItem{{Published: late, Read: true}, {Published: late, Read: true}}, now))
		assert.True(t, story.Read)
		assert.False(t, story.Important)
	})

	t.Run("stale values are replaced", func(t *testing.T) {
		story := &Story{Likes: 10, Relevance: 10, Important: true}
		assert.True(t, story.ApplyRollup([]NewsItem{{Published: late}}, now))
		assert.Equal(t, 0, story.Likes)
		assert.Equal(t, 0, story.Relevance)
		assert.False(t, story.Important)
	})

	t.Run("empty membership is refused", func(t *testing.T) {
		story := &Story{Title: "kept", Relevance: 3}
		assert.False(t, story.ApplyRollup(nil, now))
		assert.Equal(t, 3, story.Relevance)
	})
}

func TestNewStoryFromItem(t *testing.T) {
	published := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	story := NewStoryFromItem(&NewsItem{Title: "Breach", Review: "short", Content: "long", Published: published})
	assert.Equal(t, "Breach", story.Title)
	assert.Equal(t, "short", story.Description)
	assert.Equal(t, published, story.Created)

	story = NewStoryFromItem(&NewsItem{Title: "Breach", Content: "long"})
	assert.Equal(t, "long", story.Description)
}
