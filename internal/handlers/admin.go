package handlers

import (
	"html"
	"net/http"
	"os"
	"strconv"

	"osint-stories/internal/models"
	"osint-stories/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler handles the admin interface
type AdminHandler struct {
	stories *services.StoryService
	queries *services.QueryService
	reports *services.ReportService
	sources *services.SourceService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(stories *services.StoryService, queries *services.QueryService, reports *services.ReportService, sources *services.SourceService) *AdminHandler {
	return &AdminHandler{
		stories: stories,
		queries: queries,
		reports: reports,
		sources: sources,
	}
}

// AdminAuth middleware for basic password protection
func (h *AdminHandler) AdminAuth() gin.HandlerFunc {
	return gin.BasicAuth(gin.Accounts{
		"admin": getAdminPassword(),
	})
}

// getAdminPassword returns the admin password from environment or default
func getAdminPassword() string {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123" // Default password for development
	}
	return password
}

type reportRequest struct {
	Title string `json:"title" binding:"required"`
}

type reportStoryRequest struct {
	StoryID uuid.UUID `json:"story_id" binding:"required"`
}

type finalizeRequest struct {
	Finalized bool `json:"finalized"`
}

// ServeAdminDashboard serves the admin dashboard
func (h *AdminHandler) ServeAdminDashboard(c *gin.Context) {
	stats, err := h.queries.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	recent, err := h.queries.GetStories(c.Request.Context(), services.StoryFilter{Sort: services.SortUpdatedDesc, Limit: 10})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, h.generateAdminDashboardHTML(stats, recent))
}

// Stats handles GET /admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.queries.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Recompute handles POST /admin/recompute
func (h *AdminHandler) Recompute(c *gin.Context) {
	result, err := h.stories.RecomputeAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"sweep":   result,
	})
}

// ListSources handles GET /admin/sources
func (h *AdminHandler) ListSources(c *gin.Context) {
	sources, err := h.sources.ListSources(c.Request.Context(), c.Query("group"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

// CreateReport handles POST /admin/reports
func (h *AdminHandler) CreateReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	report, err := h.reports.CreateReport(c.Request.Context(), req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// GetReport handles GET /admin/reports/:id
func (h *AdminHandler) GetReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	report, err := h.reports.GetReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// AssignStory handles POST /admin/reports/:id/stories
func (h *AdminHandler) AssignStory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req reportStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.reports.AssignToReport(c.Request.Context(), id, req.StoryID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveStory handles DELETE /admin/reports/:id/stories/:story_id
func (h *AdminHandler) RemoveStory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	storyID, err := uuid.Parse(c.Param("story_id"))
	if err != nil {
		badRequest(c, "invalid story_id: "+c.Param("story_id"))
		return
	}

	if err := h.reports.RemoveFromReport(c.Request.Context(), id, storyID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// FinalizeReport handles POST /admin/reports/:id/finalize
func (h *AdminHandler) FinalizeReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	req := finalizeRequest{Finalized: true}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	if err := h.reports.SetFinalized(c.Request.Context(), id, req.Finalized); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report_id": id, "finalized": req.Finalized})
}

func (h *AdminHandler) generateAdminDashboardHTML(stats *services.Stats, recent []models.Story) string {
	return `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>OSINT Stories Admin</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background: #f8fafc; margin: 0; }
        .admin-nav { background: #1e293b; color: #f1f5f9; padding: 1rem 2rem; font-weight: 700; }
        .main-content { max-width: 1200px; margin: 0 auto; padding: 2rem 1rem; }
        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
            gap: 1.5rem;
            margin-bottom: 2rem;
        }
        .stat-card {
            background: white;
            padding: 1.5rem;
            border-radius: 12px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
            text-align: center;
        }
        .stat-number { font-size: 2.2rem; font-weight: 700; color: #3b82f6; }
        .stat-label { color: #64748b; font-weight: 500; }
        .recent-activity { background: white; padding: 1.5rem; border-radius: 12px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .activity-item { padding: 0.75rem 0; border-bottom: 1px solid #e2e8f0; }
        .activity-item:last-child { border-bottom: none; }
        .activity-meta { color: #64748b; font-size: 0.85rem; }
    </style>
</head>
<body>
    <nav class="admin-nav">OSINT Stories Admin</nav>
    <div class="main-content">
        <h1>Admin Dashboard</h1>
        <div class="stats-grid">` +
		statCard(stats.Stories, "Stories") +
		statCard(stats.NewsItems, "News items") +
		statCard(stats.Votes, "Votes") +
		statCard(stats.Tags, "Tags") +
		statCard(stats.Sources, "Sources") +
		statCard(stats.FinalizedReports, "Finalized reports") + `
        </div>
        <div class="recent-activity">
            <h2>Recently Updated Stories</h2>
            ` + h.generateRecentStoriesHTML(recent) + `
        </div>
    </div>
</body>
</html>`
}

func statCard(value int64, label string) string {
	return `
            <div class="stat-card">
                <div class="stat-number">` + strconv.FormatInt(value, 10) + `</div>
                <div class="stat-label">` + label + `</div>
            </div>`
}

// generateRecentStoriesHTML generates HTML for recently updated stories
func (h *AdminHandler) generateRecentStoriesHTML(stories []models.Story) string {
	if len(stories) == 0 {
		return `<p>No stories found.</p>`
	}

	out := ""
	for _, story := range stories {
		out += `
            <div class="activity-item">
                <a href="/api/stories/` + story.ID.String() + `/summary">` + html.EscapeString(story.Title) + `</a>
                <div class="activity-meta">` + strconv.Itoa(len(story.NewsItems)) + ` items · relevance ` +
			strconv.Itoa(story.Relevance) + ` · updated ` + story.Updated.UTC().Format("2006-01-02 15:04") + `</div>
            </div>`
	}
	return out
}
