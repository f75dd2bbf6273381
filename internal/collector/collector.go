package collector

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"osint-stories/internal/metadata"
	"osint-stories/internal/models"
	"osint-stories/internal/services"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Ingester receives the raw items of one collected feed
type Ingester interface {
	IngestMany(ctx context.Context, raws []services.RawItem) *services.IngestSummary
}

// SourceRegistry records the sources the collector reads from
type SourceRegistry interface {
	UpsertSource(ctx context.Context, source models.OSINTSource) error
}

// PageExtractor fills in entries that carry no body
type PageExtractor interface {
	Extract(ctx context.Context, pageURL string) (*metadata.Page, error)
}

// SourceResult is the outcome of collecting one source
type SourceResult struct {
	SourceID string `json:"source_id"`
	Fetched  int    `json:"fetched"`
	Created  int    `json:"created"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
	Enriched int    `json:"enriched"`
	Error    string `json:"error,omitempty"`
}

// RunResult summarizes one collection cycle
type RunResult struct {
	Sources  []SourceResult `json:"sources"`
	Fetched  int            `json:"fetched"`
	Created  int            `json:"created"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Errors   int            `json:"errors"`
	Duration time.Duration  `json:"duration"`
}

// Collector fetches the configured feeds and hands their entries to the
// engine as raw items
type Collector struct {
	config    *Config
	ingester  Ingester
	registry  SourceRegistry
	extractor PageExtractor
	client    *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// Option configures a Collector
type Option func(*Collector)

// WithRegistry registers every source before it is collected
func WithRegistry(registry SourceRegistry) Option {
	return func(c *Collector) {
		c.registry = registry
	}
}

// WithExtractor enables page enrichment for sources with enrich: true
func WithExtractor(extractor PageExtractor) Option {
	return func(c *Collector) {
		c.extractor = extractor
	}
}

// WithHTTPClient replaces the client used to fetch feeds
func WithHTTPClient(client *http.Client) Option {
	return func(c *Collector) {
		c.client = client
	}
}

// NewCollector creates a new collector
func NewCollector(config *Config, ingester Ingester, opts ...Option) *Collector {
	c := &Collector{
		config:   config,
		ingester: ingester,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiters: make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the collector's configuration
func (c *Collector) Config() *Config {
	return c.config
}

// Run collects every enabled source, at most Concurrency at a time. A failing
// source is recorded in the result and does not stop the others.
func (c *Collector) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	sources := c.config.Enabled()
	log.Printf("🔄 Collecting %d sources (concurrency %d)", len(sources), c.config.Concurrency)

	results := make([]SourceResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Concurrency)
	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			results[i] = c.collectSource(gctx, source)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collection cancelled: %w", err)
	}

	run := &RunResult{Sources: results, Duration: time.Since(start)}
	for _, r := range results {
		run.Fetched += r.Fetched
		run.Created += r.Created
		run.Skipped += r.Skipped
		run.Failed += r.Failed
		if r.Error != "" {
			run.Errors++
		}
	}

	log.Printf("📊 Collection finished in %v: %d fetched, %d created, %d skipped, %d failed, %d source errors",
		run.Duration.Round(time.Millisecond), run.Fetched, run.Created, run.Skipped, run.Failed, run.Errors)
	return run, nil
}

func (c *Collector) collectSource(ctx context.Context, source SourceConfig) SourceResult {
	result := SourceResult{SourceID: source.ID}

	if c.registry != nil {
		err := c.registry.UpsertSource(ctx, models.OSINTSource{ID: source.ID, Name: source.Name, GroupID: source.GroupID})
		if err != nil {
			log.Printf("⚠️ Failed to register source %s: %v", source.ID, err)
		}
	}

	feed, err := c.fetchFeed(ctx, source)
	if err != nil {
		log.Printf("❌ Failed to fetch %s: %v", source.ID, err)
		result.Error = err.Error()
		return result
	}

	raws := ToRawItems(source, feed)
	result.Fetched = len(raws)
	if source.Enrich && c.extractor != nil {
		result.Enriched = c.enrich(ctx, source, raws)
	}
	if len(raws) == 0 {
		log.Printf("✅ %s: feed is empty", source.ID)
		return result
	}

	summary := c.ingester.IngestMany(ctx, raws)
	result.Created = len(summary.Created)
	result.Skipped = summary.Skipped
	result.Failed = len(summary.Failed)

	log.Printf("✅ %s: %d entries, %d new, %d already known", source.ID, result.Fetched, result.Created, result.Skipped)
	return result
}

func (c *Collector) fetchFeed(ctx context.Context, source SourceConfig) (*gofeed.Feed, error) {
	if err := c.limiter(source).Wait(ctx); err != nil {
		return nil, err
	}

	parser := gofeed.NewParser()
	parser.UserAgent = c.config.UserAgent
	parser.Client = c.client
	return parser.ParseURLWithContext(source.URL, ctx)
}

// enrich fills content, author and language of body-less entries from their
// linked pages. Failures leave the entry as it came.
func (c *Collector) enrich(ctx context.Context, source SourceConfig, raws []services.RawItem) int {
	enriched := 0
	for i := range raws {
		raw := &raws[i]
		if raw.Content != "" || raw.Link == "" {
			continue
		}
		if err := c.limiter(source).Wait(ctx); err != nil {
			return enriched
		}

		page, err := c.extractor.Extract(ctx, raw.Link)
		if err != nil {
			log.Printf("⚠️ Could not enrich %s: %v", raw.Link, err)
			continue
		}
		raw.Content = page.Text
		if raw.Review == "" {
			raw.Review = page.Description
		}
		if raw.Author == "" {
			raw.Author = page.Author
		}
		if raw.Language == "" {
			raw.Language = page.Language
		}
		if raw.Published.IsZero() && page.PublishedAt != nil {
			raw.Published = *page.PublishedAt
		}
		enriched++
	}
	return enriched
}

func (c *Collector) limiter(source SourceConfig) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.limiters[source.ID]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Inf, 1)
	if source.RatePerMinute > 0 {
		l = rate.NewLimiter(rate.Limit(source.RatePerMinute/60), 1)
	}
	c.limiters[source.ID] = l
	return l
}

// ToRawItems converts feed entries into raw items attributed to source
func ToRawItems(source SourceConfig, feed *gofeed.Feed) []services.RawItem {
	language := source.Language
	if language == "" {
		language = feed.Language
	}

	keys := make([]string, 0, len(source.Attributes))
	for key := range source.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	raws := make([]services.RawItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		raw := services.RawItem{
			Title:         strings.TrimSpace(item.Title),
			Review:        item.Description,
			Content:       item.Content,
			Author:        authorName(item),
			Source:        source.Name,
			Link:          strings.TrimSpace(item.Link),
			Language:      language,
			OSINTSourceID: source.ID,
		}
		switch {
		case item.PublishedParsed != nil:
			raw.Published = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			raw.Published = *item.UpdatedParsed
		}
		for _, key := range keys {
			raw.Attributes = append(raw.Attributes, services.AttributeInput{Key: key, Value: source.Attributes[key]})
		}
		raws = append(raws, raw)
	}
	return raws
}

func authorName(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	var names []string
	for _, person := range item.Authors {
		if person != nil && person.Name != "" {
			names = append(names, person.Name)
		}
	}
	return strings.Join(names, ", ")
}
