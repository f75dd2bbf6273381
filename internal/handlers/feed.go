package handlers

import (
	"net/http"
	"strings"
	"time"

	"osint-stories/internal/metadata"
	"osint-stories/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
)

// StatusReporter reports the state of the background workers
type StatusReporter interface {
	GetStatus() map[string]interface{}
}

// FeedHandler publishes filtered stories as Atom or RSS, plus health and
// worker status
type FeedHandler struct {
	queries *services.QueryService
	workers StatusReporter
	baseURL string
}

// NewFeedHandler creates a new feed handler. workers may be nil.
func NewFeedHandler(queries *services.QueryService, workers StatusReporter, baseURL string) *FeedHandler {
	return &FeedHandler{
		queries: queries,
		workers: workers,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ServeAtom handles GET /api/stories/feed.atom. It accepts the same filters
// as GET /api/stories; format=rss switches to RSS 2.0.
func (h *FeedHandler) ServeAtom(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if filter.Sort == "" {
		filter.Sort = services.SortUpdatedDesc
	}

	stories, err := h.queries.GetStories(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	feed := &feeds.Feed{
		Title:       "OSINT Stories",
		Link:        &feeds.Link{Href: h.baseURL + "/api/stories"},
		Description: "Clustered open source intelligence stories",
		Id:          h.baseURL + "/api/stories/feed.atom",
		Created:     time.Now(),
	}
	for _, story := range stories {
		if story.Updated.After(feed.Updated) {
			feed.Updated = story.Updated
		}

		item := &feeds.Item{
			Id:          story.ID.String(),
			IsPermaLink: "false",
			Title:       story.Title,
			Link:        &feeds.Link{Href: h.baseURL + "/api/stories/" + story.ID.String()},
			Description: metadata.Preview(story.Description, 500),
			Created:     story.Created,
			Updated:     story.Updated,
		}
		if story.Summary != "" {
			item.Content = RenderMarkdown(story.Summary)
		}
		if len(story.SourceLabels) > 0 {
			item.Author = &feeds.Author{Name: strings.Join(story.SourceLabels, ", ")}
		}
		feed.Items = append(feed.Items, item)
	}

	var (
		body        string
		contentType string
	)
	if c.Query("format") == "rss" {
		body, err = feed.ToRss()
		contentType = "application/rss+xml; charset=utf-8"
	} else {
		body, err = feed.ToAtom()
		contentType = "application/atom+xml; charset=utf-8"
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "feed_render",
			"details": err.Error(),
		})
		return
	}

	c.Header("Content-Type", contentType)
	c.String(http.StatusOK, body)
}

// HealthCheck handles GET /health
func (h *FeedHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "osint-stories",
	})
}

// WorkerStatus handles GET /api/worker/status
func (h *FeedHandler) WorkerStatus(c *gin.Context) {
	if h.workers == nil {
		c.JSON(http.StatusOK, gin.H{"worker_status": gin.H{"running": false}})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"worker_status": h.workers.GetStatus(),
	})
}
