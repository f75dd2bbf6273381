package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"osint-stories/internal/database"
	"osint-stories/internal/models"
	"osint-stories/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// tokenMap treats the bearer token as a key into a fixed set of requesters
type tokenMap map[string]string

func (m tokenMap) ValidateToken(authHeader string) (string, bool) {
	requester, ok := m[strings.TrimPrefix(authHeader, "Bearer ")]
	return requester, ok
}

type testServer struct {
	router  *gin.Engine
	db      *gorm.DB
	stories *services.StoryService
	reports *services.ReportService
	hub     *StreamHub
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig("silent"))
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db), "Failed to migrate test database")
	return db
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	t.Setenv("ADMIN_PASSWORD", "letmein")

	db := setupTestDB(t)
	hub := NewStreamHub()
	access := services.AccessCheckerFunc(func(ctx context.Context, item *models.NewsItem, requester string) bool {
		return requester != "intruder"
	})
	stories := services.NewStoryService(db, services.WithNotifier(hub), services.WithAccessChecker(access))
	queries := services.NewQueryService(db)
	reports := services.NewReportService(db)

	router := gin.New()
	RegisterRoutes(router, Dependencies{
		Stories:   stories,
		Queries:   queries,
		Reports:   reports,
		Sources:   services.NewSourceService(db),
		Hub:       hub,
		Validator: tokenMap{"analyst-token": "analyst", "intruder-token": "intruder"},
		BaseURL:   "https://osint.example.org/",
	})

	return &testServer{router: router, db: db, stories: stories, reports: reports, hub: hub}
}

// do sends a request as the analyst unless token is overridden
func (ts *testServer) do(t *testing.T, method, path string, body interface{}, token ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, encodeBody(t, body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	bearer := "analyst-token"
	if len(token) > 0 {
		bearer = token[0]
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// encodeBody passes strings through verbatim and JSON-encodes anything else
func encodeBody(t *testing.T, body interface{}) *bytes.Reader {
	t.Helper()
	switch b := body.(type) {
	case nil:
		return bytes.NewReader(nil)
	case string:
		return bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		return bytes.NewReader(data)
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target), w.Body.String())
}

func rawItem(title string) services.RawItem {
	return services.RawItem{
		Title:     title,
		Review:    "Review of " + title,
		Content:   "<p>Body of " + title + "</p>",
		Author:    "wire desk",
		Source:    "wire",
		Link:      "https://news.example.com/" + strings.ReplaceAll(title, " ", "-"),
		Published: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

// ingest posts one raw item and returns where it landed
func (ts *testServer) ingest(t *testing.T, title string) services.IngestResult {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/items", rawItem(title))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result services.IngestResult
	decode(t, w, &result)
	return result
}

func (ts *testServer) storyCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, ts.db.Model(&models.Story{}).Count(&count).Error)
	return count
}

func (ts *testServer) itemStory(t *testing.T, itemID uuid.UUID) uuid.UUID {
	t.Helper()
	var item models.NewsItem
	require.NoError(t, ts.db.Where("id = ?", itemID).First(&item).Error)
	return item.StoryID
}
