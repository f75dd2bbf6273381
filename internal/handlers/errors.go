package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"osint-stories/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// statusFor maps an engine error kind to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrPermission):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": kind, "details": message}
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{
		"error":   services.KindOf(err),
		"details": err.Error(),
	})
}

// badRequest rejects malformed input before it reaches the engine
func badRequest(c *gin.Context, details string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   services.KindOf(services.ErrValidation),
		"details": details,
	})
}

// pathID parses the :id route parameter
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id: "+c.Param("id"))
		return uuid.Nil, false
	}
	return id, true
}

// queryList reads a repeatable, comma separated query parameter
func queryList(c *gin.Context, key string) []string {
	var values []string
	for _, raw := range c.QueryArray(key) {
		for _, value := range strings.Split(raw, ",") {
			if value = strings.TrimSpace(value); value != "" {
				values = append(values, value)
			}
		}
	}
	return values
}

// queryBool reads an optional true/false query parameter
func queryBool(c *gin.Context, key string) (*bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.New(key + " must be true or false")
	}
	return &value, nil
}

// queryTime accepts RFC3339 timestamps and plain dates
func queryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New(key + " must be an RFC3339 time or a YYYY-MM-DD date")
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(key + " must be a number")
	}
	return value, nil
}

// parseFilter builds a story filter from the query string
func parseFilter(c *gin.Context) (services.StoryFilter, error) {
	filter := services.StoryFilter{
		SourceIDs: queryList(c, "source"),
		GroupIDs:  queryList(c, "group"),
		Tags:      queryList(c, "tag"),
		TagTypes:  queryList(c, "tag_type"),
		Search:    c.Query("search"),
		Range:     services.DateRange(c.Query("range")),
		Sort:      services.SortKey(c.Query("sort")),
	}

	var err error
	bools := []struct {
		key    string
		target **bool
	}{
		{"read", &filter.Read},
		{"important", &filter.Important},
		{"relevant", &filter.Relevant},
		{"in_report", &filter.InReport},
	}
	for _, b := range bools {
		if *b.target, err = queryBool(c, b.key); err != nil {
			return filter, err
		}
	}
	if filter.LastDays, err = queryInt(c, "last_days"); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(c, "offset"); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		return filter, err
	}
	if filter.From, err = queryTime(c, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		return filter, err
	}
	return filter, nil
}
