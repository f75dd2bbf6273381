package handlers

import (
	"osint-stories/internal/auth"
	"osint-stories/internal/services"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the HTTP surface is built on
type Dependencies struct {
	Stories   *services.StoryService
	Queries   *services.QueryService
	Reports   *services.ReportService
	Sources   *services.SourceService
	Hub       *StreamHub
	Validator auth.TokenValidator
	Workers   StatusReporter // optional
	BaseURL   string
}

// CORS allows browser clients from any origin
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// RegisterRoutes mounts every route on r
func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	storiesHandler := NewStoriesHandler(deps.Stories, deps.Queries)
	itemsHandler := NewItemsHandler(deps.Stories, deps.Queries)
	summaryHandler := NewSummaryHandler(deps.Queries)
	feedHandler := NewFeedHandler(deps.Queries, deps.Workers, deps.BaseURL)
	adminHandler := NewAdminHandler(deps.Stories, deps.Queries, deps.Reports, deps.Sources)
	pageHandler := NewStoryPageHandler(deps.Queries)
	requireRequester := auth.RequireRequester(deps.Validator)

	// Health check
	r.GET("/health", feedHandler.HealthCheck)

	// Story web interface
	r.GET("/stories", pageHandler.ServeStoriesHTML)
	r.GET("/widget/stories", pageHandler.ServeWidget)

	api := r.Group("/api")
	{
		stories := api.Group("/stories")
		{
			stories.GET("", storiesHandler.ListStories)
			stories.GET("/feed.atom", feedHandler.ServeAtom)
			stories.GET("/stream", deps.Hub.ServeStream)
			stories.GET("/:id", storiesHandler.GetStory)
			stories.GET("/:id/summary", summaryHandler.ServeSummary)
		}

		writes := api.Group("/stories", requireRequester)
		{
			writes.POST("/merge", storiesHandler.MergeStories)
			writes.POST("/split", storiesHandler.SplitStories)
			writes.PATCH("/:id", storiesHandler.UpdateStory)
			writes.DELETE("/:id", storiesHandler.DeleteStory)
			writes.PUT("/:id/tags", storiesHandler.UpdateTags)
			writes.DELETE("/:id/tags/:name", storiesHandler.RemoveTag)
			writes.PUT("/:id/attributes", storiesHandler.UpdateAttributes)
			writes.DELETE("/:id/attributes/:key", storiesHandler.RemoveAttribute)
			writes.POST("/:id/bot", storiesHandler.ApplyBotOutput)
			writes.POST("/:id/read", storiesHandler.MarkRead)
			writes.POST("/:id/important", storiesHandler.MarkImportant)
			writes.POST("/:id/links", storiesHandler.LinkRemote)
			writes.DELETE("/:id/links", storiesHandler.UnlinkRemote)
		}

		api.GET("/items/:id", itemsHandler.GetItem)
		items := api.Group("/items", requireRequester)
		{
			items.POST("", itemsHandler.Ingest)
			items.POST("/merge", itemsHandler.MergeItems)
			items.POST("/split", itemsHandler.SplitItems)
			items.PATCH("/:id", itemsHandler.SetFlags)
			items.DELETE("/:id", itemsHandler.DeleteItem)
			items.POST("/:id/vote", itemsHandler.Vote)
			items.DELETE("/:id/vote", itemsHandler.RetractVote)
			items.PUT("/:id/attributes", itemsHandler.UpdateAttributes)
		}

		api.GET("/worker/status", feedHandler.WorkerStatus)
	}

	// Admin routes (password protected)
	admin := r.Group("/admin", adminHandler.AdminAuth())
	{
		admin.GET("/", adminHandler.ServeAdminDashboard)
		admin.GET("/stats", adminHandler.Stats)
		admin.POST("/recompute", adminHandler.Recompute)
		admin.GET("/sources", adminHandler.ListSources)
		admin.POST("/reports", adminHandler.CreateReport)
		admin.GET("/reports/:id", adminHandler.GetReport)
		admin.POST("/reports/:id/stories", adminHandler.AssignStory)
		admin.DELETE("/reports/:id/stories/:story_id", adminHandler.RemoveStory)
		admin.POST("/reports/:id/finalize", adminHandler.FinalizeReport)
	}
}
