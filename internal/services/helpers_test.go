package services

import (
	"context"
	"testing"
	"time"

	"osint-stories/internal/database"
	"osint-stories/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testClock = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig("silent"))
	require.NoError(t, err, "Failed to connect to test database")

	// every pooled connection would get its own in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db), "Failed to migrate test database")
	return db
}

func newTestService(t *testing.T, opts ...Option) (*StoryService, *gorm.DB) {
	db := setupTestDB(t)
	opts = append([]Option{WithClock(func() time.Time { return testClock })}, opts...)
	return NewStoryService(db, opts...), db
}

// MockNotifier records published story events
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Publish(event StoryEvent) {
	m.Called(event)
}

func rawItem(title string) RawItem {
	return RawItem{
		Title:     title,
		Review:    "Review of " + title,
		Content:   "<p>Shared content</p>",
		Author:    "analyst",
		Source:    "wire",
		Link:      "https://example.com/" + title,
		Published: testClock.Add(-time.Hour),
	}
}

func mustIngest(t *testing.T, s *StoryService, raw RawItem) *IngestResult {
	t.Helper()
	result, err := s.Ingest(context.Background(), raw)
	require.NoError(t, err)
	require.False(t, result.Skipped)
	return result
}

func storyItems(t *testing.T, db *gorm.DB, storyID uuid.UUID) []models.NewsItem {
	t.Helper()
	var items []models.NewsItem
	require.NoError(t, db.Where("story_id = ?", storyID).Order("published ASC, id ASC").Find(&items).Error)
	return items
}

func loadStory(t *testing.T, db *gorm.DB, storyID uuid.UUID) models.Story {
	t.Helper()
	var story models.Story
	require.NoError(t, db.Where("id = ?", storyID).First(&story).Error)
	return story
}

func storyExists(t *testing.T, db *gorm.DB, storyID uuid.UUID) bool {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.Story{}).Where("id = ?", storyID).Count(&count).Error)
	return count > 0
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Count(&count).Error)
	return count
}

func searchData(t *testing.T, db *gorm.DB, storyID uuid.UUID) string {
	t.Helper()
	var entry models.StorySearchIndex
	require.NoError(t, db.Where("story_id = ?", storyID).First(&entry).Error)
	return entry.Data
}

// assertConsistent checks the invariants that must hold after every
// operation: no empty story, exact rollups, one index row per live story.
func assertConsistent(t *testing.T, db *gorm.DB) {
	t.Helper()

	var stories []models.Story
	require.NoError(t, db.Find(&stories).Error)
	for _, story := range stories {
		items := storyItems(t, db, story.ID)
		require.NotEmpty(t, items, "story %s has no items", story.ID)

		likes, dislikes, relevance := 0, 0, 0
		read, important := true, false
		created := items[0].Published
		for _, item := range items {
			likes += item.Likes
			dislikes += item.Dislikes
			relevance += item.Relevance
			read = read && item.Read
			important = important || item.Important
			if item.Published.Before(created) {
				created = item.Published
			}
		}
		assert.Equal(t, likes, story.Likes, "likes of %s", story.ID)
		assert.Equal(t, dislikes, story.Dislikes, "dislikes of %s", story.ID)
		assert.Equal(t, relevance, story.Relevance, "relevance of %s", story.ID)
		assert.Equal(t, read, story.Read, "read of %s", story.ID)
		assert.Equal(t, important, story.Important, "important of %s", story.ID)
		assert.True(t, created.Equal(story.Created), "created of %s", story.ID)

		var entries int64
		require.NoError(t, db.Model(&models.StorySearchIndex{}).Where("story_id = ?", story.ID).Count(&entries).Error)
		assert.Equal(t, int64(1), entries, "index rows of %s", story.ID)
	}

	assert.Equal(t, int64(len(stories)), countRows(t, db, &models.StorySearchIndex{}))
}

func finalizedReport(t *testing.T, db *gorm.DB, storyIDs ...uuid.UUID) *models.Report {
	t.Helper()
	report := &models.Report{Title: "Weekly", Finalized: true}
	require.NoError(t, db.Create(report).Error)
	for _, id := range storyIDs {
		require.NoError(t, db.Create(&models.ReportStory{ReportID: report.ID, StoryID: id}).Error)
	}
	return report
}
