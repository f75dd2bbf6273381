package handlers

import (
	"context"
	"net/http"

	"osint-stories/internal/auth"
	"osint-stories/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StoriesHandler handles story reads and story-level mutations
type StoriesHandler struct {
	stories *services.StoryService
	queries *services.QueryService
}

// NewStoriesHandler creates a new stories handler
func NewStoriesHandler(stories *services.StoryService, queries *services.QueryService) *StoriesHandler {
	return &StoriesHandler{stories: stories, queries: queries}
}

type storyIDsRequest struct {
	StoryIDs []uuid.UUID `json:"story_ids" binding:"required"`
}

type tagsRequest struct {
	Tags  []services.TagInput `json:"tags"`
	Reset bool                `json:"reset"`
}

type attributesRequest struct {
	Attributes []services.AttributeInput `json:"attributes"`
}

type flagRequest struct {
	Value *bool `json:"value"`
}

type linkRequest struct {
	Relation string `json:"relation" binding:"required"`
	RemoteID string `json:"remote_id" binding:"required"`
}

// ListStories handles GET /api/stories
func (h *StoriesHandler) ListStories(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	page, err := h.queries.Query(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetStory handles GET /api/stories/:id
func (h *StoriesHandler) GetStory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	story, err := h.queries.GetStory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, story)
}

// MergeStories handles POST /api/stories/merge
func (h *StoriesHandler) MergeStories(c *gin.Context) {
	var req storyIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.stories.Merge(c.Request.Context(), req.StoryIDs, auth.Requester(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SplitStories handles POST /api/stories/split
func (h *StoriesHandler) SplitStories(c *gin.Context) {
	var req storyIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.stories.SplitStories(c.Request.Context(), req.StoryIDs, auth.Requester(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateTags handles PUT /api/stories/:id/tags
func (h *StoriesHandler) UpdateTags(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req tagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.stories.UpdateTags(c.Request.Context(), id, req.Tags, req.Reset); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveTag handles DELETE /api/stories/:id/tags/:name
func (h *StoriesHandler) RemoveTag(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.stories.RemoveTag(c.Request.Context(), id, c.Param("name")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateAttributes handles PUT /api/stories/:id/attributes
func (h *StoriesHandler) UpdateAttributes(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req attributesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.stories.UpdateAttributes(c.Request.Context(), id, req.Attributes); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveAttribute handles DELETE /api/stories/:id/attributes/:key
func (h *StoriesHandler) RemoveAttribute(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.stories.RemoveAttribute(c.Request.Context(), id, c.Param("key")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ApplyBotOutput handles POST /api/stories/:id/bot
func (h *StoriesHandler) ApplyBotOutput(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var output services.BotOutput
	if err := c.ShouldBindJSON(&output); err != nil {
		badRequest(c, err.Error())
		return
	}
	output.StoryID = id

	if err := h.stories.ApplyBotOutput(c.Request.Context(), output); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateStory handles PATCH /api/stories/:id
func (h *StoriesHandler) UpdateStory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var update services.StoryUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.stories.UpdateStory(c.Request.Context(), id, update); err != nil {
		respondError(c, err)
		return
	}

	story, err := h.queries.GetStory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// MarkRead handles POST /api/stories/:id/read
func (h *StoriesHandler) MarkRead(c *gin.Context) {
	h.setFlag(c, h.stories.MarkStoryRead)
}

// MarkImportant handles POST /api/stories/:id/important
func (h *StoriesHandler) MarkImportant(c *gin.Context) {
	h.setFlag(c, h.stories.MarkStoryImportant)
}

// setFlag applies a story-wide item flag; an empty body sets it to true
func (h *StoriesHandler) setFlag(c *gin.Context, apply func(ctx context.Context, id uuid.UUID, value bool) error) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req flagRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	value := true
	if req.Value != nil {
		value = *req.Value
	}

	if err := apply(c.Request.Context(), id, value); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"story_id": id, "value": value})
}

// DeleteStory handles DELETE /api/stories/:id
func (h *StoriesHandler) DeleteStory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.stories.DeleteStory(c.Request.Context(), id, auth.Requester(c)); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// LinkRemote handles POST /api/stories/:id/links
func (h *StoriesHandler) LinkRemote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.stories.LinkRemote(c.Request.Context(), id, req.Relation, req.RemoteID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UnlinkRemote handles DELETE /api/stories/:id/links
func (h *StoriesHandler) UnlinkRemote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	err := h.stories.UnlinkRemote(c.Request.Context(), id, c.Query("relation"), c.Query("remote_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
