package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"osint-stories/internal/auth"
	"osint-stories/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxIngestBytes bounds the body of one ingestion request
const maxIngestBytes = 8 << 20

// ItemsHandler handles ingestion and item-level mutations
type ItemsHandler struct {
	stories *services.StoryService
	queries *services.QueryService
}

// NewItemsHandler creates a new items handler
func NewItemsHandler(stories *services.StoryService, queries *services.QueryService) *ItemsHandler {
	return &ItemsHandler{stories: stories, queries: queries}
}

type itemIDsRequest struct {
	ItemIDs []uuid.UUID `json:"item_ids" binding:"required"`
}

type voteRequest struct {
	Direction string `json:"direction" binding:"required"`
}

// Ingest handles POST /api/items. The body is either one raw item or an array
// of them; an array is ingested item by item and answered with a summary.
func (h *ItemsHandler) Ingest(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxIngestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":   services.KindOf(services.ErrValidation),
				"details": "body exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
			})
			return
		}
		badRequest(c, "failed to read body: "+err.Error())
		return
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		badRequest(c, "empty body")
		return
	}

	if body[0] == '[' {
		var raws []services.RawItem
		if err := json.Unmarshal(body, &raws); err != nil {
			badRequest(c, "invalid item list: "+err.Error())
			return
		}
		c.JSON(http.StatusOK, h.stories.IngestMany(c.Request.Context(), raws))
		return
	}

	var raw services.RawItem
	if err := json.Unmarshal(body, &raw); err != nil {
		badRequest(c, "invalid item: "+err.Error())
		return
	}
	result, err := h.stories.Ingest(c.Request.Context(), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	if result.Skipped {
		c.JSON(http.StatusOK, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetItem handles GET /api/items/:id
func (h *ItemsHandler) GetItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	item, err := h.queries.GetItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// MergeItems handles POST /api/items/merge
func (h *ItemsHandler) MergeItems(c *gin.Context) {
	var req itemIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.stories.MergeItems(c.Request.Context(), req.ItemIDs, auth.Requester(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SplitItems handles POST /api/items/split
func (h *ItemsHandler) SplitItems(c *gin.Context) {
	var req itemIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.stories.Split(c.Request.Context(), req.ItemIDs, auth.Requester(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Vote handles POST /api/items/:id/vote
func (h *ItemsHandler) Vote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	direction, err := services.ParseVoteDirection(req.Direction)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.stories.Vote(c.Request.Context(), id, auth.Requester(c), direction)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RetractVote handles DELETE /api/items/:id/vote
func (h *ItemsHandler) RetractVote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := h.stories.RetractVote(c.Request.Context(), id, auth.Requester(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SetFlags handles PATCH /api/items/:id
func (h *ItemsHandler) SetFlags(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var flags services.ItemFlags
	if err := c.ShouldBindJSON(&flags); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.stories.SetItemFlags(c.Request.Context(), id, flags); err != nil {
		respondError(c, err)
		return
	}

	item, err := h.queries.GetItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateAttributes handles PUT /api/items/:id/attributes
func (h *ItemsHandler) UpdateAttributes(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req attributesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.stories.UpdateItemAttributes(c.Request.Context(), id, req.Attributes); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteItem handles DELETE /api/items/:id
func (h *ItemsHandler) DeleteItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.stories.DeleteItem(c.Request.Context(), id, auth.Requester(c)); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
