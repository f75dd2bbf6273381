package services

import (
	"context"
	"errors"
	"time"

	"osint-stories/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SortKey orders query results. Ties are always broken by id.
type SortKey string

const (
	SortCreatedDesc   SortKey = "created_desc"
	SortCreatedAsc    SortKey = "created_asc"
	SortUpdatedDesc   SortKey = "updated_desc"
	SortUpdatedAsc    SortKey = "updated_asc"
	SortRelevanceDesc SortKey = "relevance_desc"
	SortRelevanceAsc  SortKey = "relevance_asc"
)

var sortClauses = map[SortKey]string{
	"":                "created DESC, id ASC",
	SortCreatedDesc:   "created DESC, id ASC",
	SortCreatedAsc:    "created ASC, id ASC",
	SortUpdatedDesc:   "updated DESC, id ASC",
	SortUpdatedAsc:    "updated ASC, id ASC",
	SortRelevanceDesc: "relevance DESC, id ASC",
	SortRelevanceAsc:  "relevance ASC, id ASC",
}

// DateRange selects stories by their created time
type DateRange string

const (
	RangeAll      DateRange = ""
	RangeToday    DateRange = "today"
	RangeWeek     DateRange = "week"
	RangeMonth    DateRange = "month"
	RangeLastDays DateRange = "last_days"
	RangeCustom   DateRange = "custom"
)

// StoryFilter selects stories. Zero values do not filter; nil tri-state
// flags match both states.
type StoryFilter struct {
	SourceIDs []string `json:"source_ids"`
	GroupIDs  []string `json:"group_ids"`
	Tags      []string `json:"tags"`      // every name must be present
	TagTypes  []string `json:"tag_types"` // any type may match
	Search    string   `json:"search"`

	Read      *bool `json:"read"`
	Important *bool `json:"important"`
	Relevant  *bool `json:"relevant"`
	InReport  *bool `json:"in_report"`

	Range    DateRange  `json:"range"`
	LastDays int        `json:"last_days"`
	From     *time.Time `json:"from"`
	To       *time.Time `json:"to"`

	Sort   SortKey `json:"sort"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

// StoryCounts are computed over the whole filtered set, not the page
type StoryCounts struct {
	Total     int64 `json:"total"`
	Read      int64 `json:"read"`
	Important int64 `json:"important"`
	InReport  int64 `json:"in_report"`
}

// StoryPage is one page of a query
type StoryPage struct {
	Stories []models.Story `json:"stories"`
	Counts  StoryCounts    `json:"counts"`
	Offset  int            `json:"offset"`
	Limit   int            `json:"limit"`
}

// Stats is a snapshot of table sizes for the admin view
type Stats struct {
	Stories          int64 `json:"stories"`
	NewsItems        int64 `json:"news_items"`
	Votes            int64 `json:"votes"`
	Tags             int64 `json:"tags"`
	Reports          int64 `json:"reports"`
	FinalizedReports int64 `json:"finalized_reports"`
	Sources          int64 `json:"sources"`
}

// QueryService answers read-side questions about stories. It never writes.
type QueryService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewQueryService creates a new query service
func NewQueryService(db *gorm.DB) *QueryService {
	return &QueryService{db: db, now: time.Now}
}

// bounds resolves the date range of f against now
func (f *StoryFilter) bounds(now time.Time) (start, end *time.Time, err error) {
	at := func(t time.Time) *time.Time { return &t }

	switch f.Range {
	case RangeAll:
		return nil, nil, nil
	case RangeToday:
		y, m, d := now.Date()
		return at(time.Date(y, m, d, 0, 0, 0, 0, now.Location())), nil, nil
	case RangeWeek:
		return at(now.AddDate(0, 0, -7)), nil, nil
	case RangeMonth:
		return at(now.AddDate(0, -1, 0)), nil, nil
	case RangeLastDays:
		if f.LastDays <= 0 {
			return nil, nil, validationError("last_days must be positive")
		}
		return at(now.AddDate(0, 0, -f.LastDays)), nil, nil
	case RangeCustom:
		if f.From == nil && f.To == nil {
			return nil, nil, validationError("custom range needs from or to")
		}
		if f.From != nil && f.To != nil && f.From.After(*f.To) {
			return nil, nil, validationError("range starts after it ends")
		}
		return f.From, f.To, nil
	}
	return nil, nil, validationError("unknown date range %q", f.Range)
}

// Validate checks the filter and fills in paging defaults
func (f *StoryFilter) Validate() error {
	if _, ok := sortClauses[f.Sort]; !ok {
		return validationError("unknown sort %q", f.Sort)
	}
	if f.Offset < 0 {
		return validationError("offset must not be negative")
	}
	if f.Limit < 0 {
		return validationError("limit must not be negative")
	}
	if f.Limit == 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	_, _, err := f.bounds(time.Now())
	return err
}

// filtered returns a fresh story query with every predicate of f applied
func (q *QueryService) filtered(ctx context.Context, f *StoryFilter, start, end *time.Time) *gorm.DB {
	db := q.db.WithContext(ctx).Model(&models.Story{})

	if len(f.SourceIDs) > 0 {
		db = db.Where("id IN (?)", q.db.Model(&models.NewsItem{}).
			Select("story_id").
			Where("osint_source_id IN ?", f.SourceIDs))
	}
	if len(f.GroupIDs) > 0 {
		sources := q.db.Model(&models.OSINTSource{}).Select("id").Where("group_id IN ?", f.GroupIDs)
		db = db.Where("id IN (?)", q.db.Model(&models.NewsItem{}).
			Select("story_id").
			Where("osint_source_id IN (?)", sources))
	}
	for _, name := range f.Tags {
		db = db.Where("id IN (?)", q.db.Model(&models.StoryTag{}).Select("story_id").Where("name = ?", name))
	}
	if len(f.TagTypes) > 0 {
		db = db.Where("id IN (?)", q.db.Model(&models.StoryTag{}).Select("story_id").Where("tag_type IN ?", f.TagTypes))
	}
	for _, term := range ParseSearchTerms(f.Search) {
		db = db.Where("id IN (?)", q.db.Model(&models.StorySearchIndex{}).
			Select("story_id").
			Where(`data LIKE ? ESCAPE '\'`, likePattern(term)))
	}

	if f.Read != nil {
		db = db.Where("read = ?", *f.Read)
	}
	if f.Important != nil {
		db = db.Where("important = ?", *f.Important)
	}
	if f.Relevant != nil {
		if *f.Relevant {
			db = db.Where("relevance > 0")
		} else {
			db = db.Where("relevance <= 0")
		}
	}
	if f.InReport != nil {
		inReport := q.db.Model(&models.ReportStory{}).Select("story_id")
		if *f.InReport {
			db = db.Where("id IN (?)", inReport)
		} else {
			db = db.Where("id NOT IN (?)", inReport)
		}
	}

	if start != nil {
		db = db.Where("created >= ?", *start)
	}
	if end != nil {
		db = db.Where("created <= ?", *end)
	}
	return db
}

// Query returns one page of stories matching filter, with their items and
// tags, and the counts over every matching story.
func (q *QueryService) Query(ctx context.Context, filter StoryFilter) (*StoryPage, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	start, end, err := filter.bounds(q.now())
	if err != nil {
		return nil, err
	}

	page := &StoryPage{Stories: []models.Story{}, Offset: filter.Offset, Limit: filter.Limit}
	counts := []struct {
		target *int64
		where  func(*gorm.DB) *gorm.DB
	}{
		{&page.Counts.Total, func(db *gorm.DB) *gorm.DB { return db }},
		{&page.Counts.Read, func(db *gorm.DB) *gorm.DB { return db.Where("read = ?", true) }},
		{&page.Counts.Important, func(db *gorm.DB) *gorm.DB { return db.Where("important = ?", true) }},
		{&page.Counts.InReport, func(db *gorm.DB) *gorm.DB {
			return db.Where("id IN (?)", q.db.Model(&models.ReportStory{}).Select("story_id"))
		}},
	}
	for _, c := range counts {
		if err := q.filtered(ctx, &filter, start, end).Scopes(c.where).Count(c.target).Error; err != nil {
			return nil, classify("count stories", err)
		}
	}

	err = q.filtered(ctx, &filter, start, end).
		Preload("NewsItems", func(db *gorm.DB) *gorm.DB { return db.Order("published DESC, id ASC") }).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Order(sortClauses[filter.Sort]).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&page.Stories).Error
	if err != nil {
		return nil, classify("query stories", err)
	}
	return page, nil
}

// GetStories returns the stories matching filter for bots and exports
func (q *QueryService) GetStories(ctx context.Context, filter StoryFilter) ([]models.Story, error) {
	page, err := q.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	return page.Stories, nil
}

// GetStory returns a story with its items, tags, attributes and links
func (q *QueryService) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	var story models.Story
	err := q.db.WithContext(ctx).
		Preload("NewsItems", func(db *gorm.DB) *gorm.DB { return db.Order("published DESC, id ASC") }).
		Preload("NewsItems.Attributes", func(db *gorm.DB) *gorm.DB { return db.Order("key") }).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Preload("Attributes", func(db *gorm.DB) *gorm.DB { return db.Order("key") }).
		Preload("Links").
		Where("id = ?", id).
		First(&story).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("story %s", id)
		}
		return nil, classify("get story", err)
	}
	return &story, nil
}

// GetItem returns one item with its attributes
func (q *QueryService) GetItem(ctx context.Context, id uuid.UUID) (*models.NewsItem, error) {
	var item models.NewsItem
	err := q.db.WithContext(ctx).Preload("Attributes").Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("news item %s", id)
		}
		return nil, classify("get item", err)
	}
	return &item, nil
}

// Stats counts the rows of the main tables
func (q *QueryService) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	counts := []struct {
		target *int64
		query  *gorm.DB
	}{
		{&stats.Stories, q.db.Model(&models.Story{})},
		{&stats.NewsItems, q.db.Model(&models.NewsItem{})},
		{&stats.Votes, q.db.Model(&models.NewsItemVote{})},
		{&stats.Tags, q.db.Model(&models.StoryTag{})},
		{&stats.Reports, q.db.Model(&models.Report{})},
		{&stats.FinalizedReports, q.db.Model(&models.Report{}).Where("finalized = ?", true)},
		{&stats.Sources, q.db.Model(&models.OSINTSource{})},
	}
	for _, c := range counts {
		if err := c.query.WithContext(ctx).Count(c.target).Error; err != nil {
			return nil, classify("stats", err)
		}
	}
	return stats, nil
}
