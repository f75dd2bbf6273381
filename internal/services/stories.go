package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"osint-stories/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoryService is the only writer of story membership, story rollups and the
// search index. Every exported mutation runs in one database transaction and
// recomputes each story it touched before committing.
type StoryService struct {
	db       *gorm.DB
	access   AccessChecker
	reports  ReportChecker
	notifier Notifier
	now      func() time.Time
}

// Option configures a StoryService
type Option func(*StoryService)

// WithAccessChecker sets the per-item permission predicate
func WithAccessChecker(access AccessChecker) Option {
	return func(s *StoryService) { s.access = access }
}

// WithReportChecker sets the collaborator that locks stories in reports
func WithReportChecker(reports ReportChecker) Option {
	return func(s *StoryService) { s.reports = reports }
}

// WithNotifier sets where committed story events are published
func WithNotifier(notifier Notifier) Option {
	return func(s *StoryService) { s.notifier = notifier }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *StoryService) { s.now = now }
}

// NewStoryService creates a new story service
func NewStoryService(db *gorm.DB, opts ...Option) *StoryService {
	s := &StoryService{
		db:       db,
		access:   AllowAll,
		reports:  FinalizedReports{},
		notifier: nopNotifier{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// transact runs fn and then settles every story fn touched, all inside one
// transaction. Events are published only after commit.
func (s *StoryService) transact(ctx context.Context, op string, fn func(tx *gorm.DB, cs *changeSet) error) (*changeSet, error) {
	cs := newChangeSet()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx, cs); err != nil {
			return err
		}
		return s.settle(tx, cs)
	})
	if err != nil {
		return nil, classify(op, err)
	}

	for _, event := range cs.events(s.now()) {
		s.notifier.Publish(event)
	}
	return cs, nil
}

// settle recomputes every touched story
func (s *StoryService) settle(tx *gorm.DB, cs *changeSet) error {
	for _, id := range cs.pending() {
		if err := s.recomputeTx(tx, id, cs); err != nil {
			return err
		}
	}
	return nil
}

// recomputeTx rebuilds the rollups and search index entry of a story from its
// current members, deleting the story when it has none.
func (s *StoryService) recomputeTx(tx *gorm.DB, storyID uuid.UUID, cs *changeSet) error {
	var story models.Story
	if err := tx.Where("id = ?", storyID).First(&story).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("story %s", storyID)
		}
		return err
	}

	var items []models.NewsItem
	if err := tx.Where("story_id = ?", storyID).Order("published ASC, id ASC").Find(&items).Error; err != nil {
		return err
	}

	if !story.ApplyRollup(items, s.now()) {
		return s.deleteStoryTx(tx, storyID, cs)
	}

	err := tx.Model(&models.Story{}).Where("id = ?", storyID).Updates(map[string]interface{}{
		"created":       story.Created,
		"updated":       story.Updated,
		"read":          story.Read,
		"important":     story.Important,
		"likes":         story.Likes,
		"dislikes":      story.Dislikes,
		"relevance":     story.Relevance,
		"source_labels": story.SourceLabels,
	}).Error
	if err != nil {
		return err
	}

	return s.reindexTx(tx, &story, items)
}

// reindexTx regenerates the search index row of story
func (s *StoryService) reindexTx(tx *gorm.DB, story *models.Story, items []models.NewsItem) error {
	var tags []models.StoryTag
	if err := tx.Where("story_id = ?", story.ID).Order("name").Find(&tags).Error; err != nil {
		return err
	}

	var attributes []models.StoryAttribute
	if err := tx.Where("story_id = ?", story.ID).Order("key").Find(&attributes).Error; err != nil {
		return err
	}

	var itemAttributes []models.NewsItemAttribute
	if len(items) > 0 {
		ids := make([]uuid.UUID, len(items))
		for i, item := range items {
			ids[i] = item.ID
		}
		if err := tx.Where("news_item_id IN ?", ids).Order("key").Find(&itemAttributes).Error; err != nil {
			return err
		}
	}

	entry := models.StorySearchIndex{
		StoryID: story.ID,
		Data:    BuildSearchText(story, items, tags, attributes, itemAttributes),
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "story_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&entry).Error
}

// deleteStoryTx removes a story together with everything it owns
func (s *StoryService) deleteStoryTx(tx *gorm.DB, storyID uuid.UUID, cs *changeSet) error {
	var itemIDs []uuid.UUID
	if err := tx.Model(&models.NewsItem{}).Where("story_id = ?", storyID).Pluck("id", &itemIDs).Error; err != nil {
		return err
	}
	if len(itemIDs) > 0 {
		if err := tx.Where("news_item_id IN ?", itemIDs).Delete(&models.NewsItemVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("news_item_id IN ?", itemIDs).Delete(&models.NewsItemAttribute{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", itemIDs).Delete(&models.NewsItem{}).Error; err != nil {
			return err
		}
	}

	owned := []interface{}{
		&models.StoryTag{},
		&models.StoryAttribute{},
		&models.StoryLink{},
		&models.ReportStory{},
		&models.StorySearchIndex{},
	}
	for _, model := range owned {
		if err := tx.Where("story_id = ?", storyID).Delete(model).Error; err != nil {
			return err
		}
	}

	if err := tx.Where("id = ?", storyID).Delete(&models.Story{}).Error; err != nil {
		return err
	}
	cs.remove(storyID)
	return nil
}

// lockStories loads and row-locks the given stories in id order
func lockStories(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*models.Story, error) {
	var stories []models.Story
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&stories).Error
	if err != nil {
		return nil, err
	}

	found := make(map[uuid.UUID]*models.Story, len(stories))
	for i := range stories {
		found[stories[i].ID] = &stories[i]
	}

	var missing []string
	for _, id := range ids {
		if found[id] == nil {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return nil, notFoundError("story %s", strings.Join(missing, ", "))
	}
	return found, nil
}

// lockItems loads and row-locks the given items, returned in the order of ids
func lockItems(tx *gorm.DB, ids []uuid.UUID) ([]models.NewsItem, error) {
	var items []models.NewsItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.NewsItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	ordered := make([]models.NewsItem, 0, len(ids))
	var missing []string
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			missing = append(missing, id.String())
			continue
		}
		ordered = append(ordered, item)
	}
	if len(missing) > 0 {
		return nil, notFoundError("news item %s", strings.Join(missing, ", "))
	}
	return ordered, nil
}

// ensureNotInReport rejects the operation when a report holds any of the stories
func (s *StoryService) ensureNotInReport(tx *gorm.DB, storyIDs []uuid.UUID) error {
	inUse, err := s.reports.IsAssignedToReport(tx, storyIDs)
	if err != nil {
		return err
	}
	if inUse {
		return conflictError("story is assigned to a finalized report")
	}
	return nil
}

// Recompute rebuilds the rollups and search index of one story
func (s *StoryService) Recompute(ctx context.Context, storyID uuid.UUID) error {
	_, err := s.transact(ctx, "recompute", func(tx *gorm.DB, cs *changeSet) error {
		if _, err := lockStories(tx, []uuid.UUID{storyID}); err != nil {
			return err
		}
		cs.touch(storyID)
		return nil
	})
	return err
}
