package handlers

import (
	"html"
	"net/http"
	"strings"

	"osint-stories/internal/models"
	"osint-stories/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/russross/blackfriday/v2"
)

// SummaryHandler renders story summaries, which analysts and bots write in
// Markdown
type SummaryHandler struct {
	queries *services.QueryService
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(queries *services.QueryService) *SummaryHandler {
	return &SummaryHandler{queries: queries}
}

// RenderMarkdown converts Markdown to HTML. Raw HTML in the input is dropped.
func RenderMarkdown(markdown string) string {
	extensions := blackfriday.CommonExtensions | blackfriday.AutoHeadingIDs
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML | blackfriday.Safelink,
	})
	normalized := strings.ReplaceAll(markdown, "\r\n", "\n")
	return string(blackfriday.Run([]byte(normalized), blackfriday.WithRenderer(renderer), blackfriday.WithExtensions(extensions)))
}

// ServeSummary handles GET /api/stories/:id/summary. With format=json only
// the rendered fragment is returned.
func (h *SummaryHandler) ServeSummary(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	story, err := h.queries.GetStory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	rendered := RenderMarkdown(story.Summary)
	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, gin.H{
			"story_id": story.ID,
			"title":    story.Title,
			"html":     rendered,
		})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, h.wrapWithTheme(story, rendered))
}

// wrapWithTheme wraps the rendered summary in a standalone page
func (h *SummaryHandler) wrapWithTheme(story *models.Story, content string) string {
	title := html.EscapeString(story.Title)
	if content == "" {
		content = `<p class="empty">No summary yet.</p>`
	}

	var tags []string
	for _, tag := range story.Tags {
		tags = append(tags, `<span class="tag">`+html.EscapeString(tag.Name)+`</span>`)
	}

	return `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>` + title + ` - OSINT Stories</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            line-height: 1.6;
            color: #333;
            background: #f8f9fa;
            padding: 20px;
        }
        .container { max-width: 900px; margin: 0 auto; }
        .header {
            background: linear-gradient(135deg, #1e293b 0%, #334155 100%);
            color: white;
            padding: 1.5rem 2rem;
            border-radius: 12px;
            margin-bottom: 1.5rem;
        }
        .header .meta { opacity: 0.8; font-size: 0.9rem; }
        .tag {
            display: inline-block;
            background: #e2e8f0;
            color: #1e293b;
            border-radius: 6px;
            padding: 0.1rem 0.5rem;
            margin-right: 0.3rem;
            font-size: 0.8rem;
        }
        .content {
            background: white;
            padding: 2rem;
            border-radius: 12px;
            border: 1px solid #e5e7eb;
        }
        .content pre, .content code { background: #f3f4f6; border-radius: 4px; }
        .empty { color: #94a3b8; font-style: italic; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>` + title + `</h1>
            <div class="meta">` + story.Created.UTC().Format("2006-01-02 15:04 UTC") + ` · ` +
		html.EscapeString(strings.Join(story.SourceLabels, ", ")) + `</div>
            <div>` + strings.Join(tags, "") + `</div>
        </div>
        <div class="content">
            ` + content + `
        </div>
    </div>
</body>
</html>`
}
