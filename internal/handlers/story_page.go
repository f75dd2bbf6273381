package handlers

import (
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"osint-stories/internal/metadata"
	"osint-stories/internal/models"
	"osint-stories/internal/services"

	"github.com/gin-gonic/gin"
)

// StoryPageHandler renders story lists as HTML pages and embeddable widgets
type StoryPageHandler struct {
	queries *services.QueryService
}

// NewStoryPageHandler creates a new story page handler
func NewStoryPageHandler(queries *services.QueryService) *StoryPageHandler {
	return &StoryPageHandler{queries: queries}
}

// ServeStoriesHTML handles GET /stories. It takes the same filter parameters
// as the JSON listing plus page.
func (h *StoryPageHandler) ServeStoriesHTML(c *gin.Context) {
	filter, page, ok := h.pageFilter(c)
	if !ok {
		return
	}

	result, err := h.queries.Query(c.Request.Context(), filter)
	if err != nil {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(statusFor(err), `<div class="error-state"><h3>Failed to load stories</h3><p>%s</p></div>`,
			html.EscapeString(err.Error()))
		return
	}

	body := generateStoryListHTML(result, "Stories", page, true, c.Request.URL.Query())
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, wrapPage("Stories", "", body))
}

// ServeWidget handles GET /widget/stories, a compact list for embedding
func (h *StoryPageHandler) ServeWidget(c *gin.Context) {
	filter, _, ok := h.pageFilter(c)
	if !ok {
		return
	}
	theme := c.DefaultQuery("theme", "light")
	if theme != "dark" {
		theme = "light"
	}
	autoRefresh, _ := strconv.Atoi(c.DefaultQuery("autorefresh", "300"))
	if autoRefresh < 60 {
		autoRefresh = 300
	}

	result, err := h.queries.Query(c.Request.Context(), filter)
	if err != nil {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(statusFor(err), `<div class="error-state"><h3>Widget Error</h3><p>Failed to load stories</p></div>`)
		return
	}

	classes := "widget"
	if c.Query("compact") == "true" {
		classes += " compact"
	}
	body := `<div class="` + classes + `">` +
		generateStoryListHTML(result, c.DefaultQuery("title", "Latest Stories"), 1, false, nil) +
		`</div>
    <script>
        setInterval(function() { location.reload(); }, ` + strconv.Itoa(autoRefresh*1000) + `);
    </script>`

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, wrapPage("Latest Stories", theme, body))
}

// pageFilter parses the filter and turns page into an offset
func (h *StoryPageHandler) pageFilter(c *gin.Context) (services.StoryFilter, int, bool) {
	filter, err := parseFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return filter, 0, false
	}
	if filter.Limit <= 0 || filter.Limit > services.MaxPageSize {
		filter.Limit = services.DefaultPageSize
	}

	page, err := queryInt(c, "page")
	if err != nil {
		badRequest(c, err.Error())
		return filter, 0, false
	}
	if page < 1 {
		page = 1
	}
	if filter.Offset == 0 {
		filter.Offset = (page - 1) * filter.Limit
	}
	return filter, page, true
}

func wrapPage(title, theme, body string) string {
	if theme == "" {
		theme = "light"
	}
	return `<!DOCTYPE html>
<html lang="en" data-theme="` + theme + `">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>` + html.EscapeString(title) + ` - OSINT Stories</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 0; padding: 1rem; background: #f5f5f5; color: #333; }
        [data-theme="dark"] body, html[data-theme="dark"] body { background: #1d1f21; color: #ddd; }
        .story { background: white; border-radius: 8px; padding: 1rem; margin-bottom: 0.75rem; box-shadow: 0 2px 4px rgba(0,0,0,0.08); }
        html[data-theme="dark"] .story { background: #282a2e; }
        .story h2 { font-size: 1.1rem; margin: 0 0 0.25rem 0; }
        .story a { color: #3498db; text-decoration: none; }
        .story-meta { font-size: 0.85rem; color: #7f8c8d; display: flex; gap: 1rem; flex-wrap: wrap; }
        .story-preview { margin: 0.5rem 0; }
        .tag { display: inline-block; background: #ecf0f1; color: #2c3e50; padding: 0.1rem 0.5rem; border-radius: 3px; font-size: 0.8rem; margin-right: 0.25rem; }
        .important { color: #e67e22; }
        .compact .story-preview { display: none; }
        .pagination { display: flex; gap: 1rem; justify-content: center; align-items: center; margin-top: 1rem; }
        .empty-state { text-align: center; color: #7f8c8d; padding: 2rem; }
    </style>
</head>
<body>
` + body + `
</body>
</html>`
}

// generateStoryListHTML renders one page of stories. query carries the
// current filter into the pagination links; nil disables pagination.
func generateStoryListHTML(result *services.StoryPage, title string, page int, paginate bool, query url.Values) string {
	out := `<div class="feed-header">
        <h1 class="feed-title">` + html.EscapeString(title) + `</h1>
        <div class="feed-meta">` + strconv.FormatInt(result.Counts.Total, 10) + ` stories, ` +
		strconv.FormatInt(result.Counts.Important, 10) + ` important</div>
    </div>`

	if len(result.Stories) == 0 {
		out += `
    <div class="empty-state">
        <h3>No stories found</h3>
        <p>Nothing matches this filter yet.</p>
    </div>`
		return out
	}

	out += `<div class="stories">`
	for i := range result.Stories {
		out += storyCardHTML(&result.Stories[i])
	}
	out += `</div>`

	if paginate {
		out += generatePaginationHTML(page, result, query)
	}
	return out
}

func storyCardHTML(story *models.Story) string {
	marker := ""
	if story.Important {
		marker = `<span class="important">★</span> `
	}

	preview := story.Description
	if preview == "" && len(story.NewsItems) > 0 {
		preview = story.NewsItems[0].Review
		if preview == "" {
			preview = story.NewsItems[0].Content
		}
	}
	preview = metadata.Preview(preview, 200)

	card := `
        <article class="story">
            <h2>` + marker + `<a href="/api/stories/` + story.ID.String() + `/summary">` + html.EscapeString(story.Title) + `</a></h2>`
	if preview != "" {
		card += `
            <p class="story-preview">` + html.EscapeString(preview) + `</p>`
	}
	if len(story.Tags) > 0 {
		card += `
            <div class="story-tags">`
		for _, tag := range story.Tags {
			card += `<span class="tag">` + html.EscapeString(tag.Name) + `</span>`
		}
		card += `</div>`
	}
	card += `
            <div class="story-meta">
                <span>` + formatRelativeTime(story.Created) + `</span>
                <span>` + strconv.Itoa(len(story.NewsItems)) + ` items</span>
                <span>relevance ` + strconv.Itoa(story.Relevance) + `</span>`
	if len(story.SourceLabels) > 0 {
		card += `
                <span>` + html.EscapeString(strings.Join(story.SourceLabels, ", ")) + `</span>`
	}
	card += `
            </div>
        </article>`
	return card
}

func generatePaginationHTML(page int, result *services.StoryPage, query url.Values) string {
	link := func(target int) string {
		values := url.Values{}
		for key, v := range query {
			values[key] = v
		}
		values.Del("offset")
		values.Set("page", strconv.Itoa(target))
		return "/stories?" + html.EscapeString(values.Encode())
	}

	out := `<div class="pagination">`
	if page > 1 {
		out += `<a href="` + link(page-1) + `">Previous</a>`
	}
	out += `<span class="current-page">Page ` + strconv.Itoa(page) + `</span>`
	if int64(result.Offset+len(result.Stories)) < result.Counts.Total {
		out += `<a href="` + link(page+1) + `">Next</a>`
	}
	out += `</div>`
	return out
}

func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		minutes := int(diff.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return strconv.Itoa(minutes) + " minutes ago"
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return strconv.Itoa(hours) + " hours ago"
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return strconv.Itoa(days) + " days ago"
	default:
		return t.Format("Jan 2, 2006")
	}
}
