package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"osint-stories/internal/models"
	"osint-stories/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) admin(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, encodeBody(t, body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth("admin", "letmein")

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestAdmin_RequiresPassword(t *testing.T) {
	ts := newTestServer(t)

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.SetBasicAuth("admin", "wrong")
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdmin_StatsAndDashboard(t *testing.T) {
	ts := newTestServer(t)
	ts.ingest(t, "Pipeline sabotage")
	ts.ingest(t, "Pipeline <script>alert(1)</script>")

	w := ts.admin(t, http.MethodGet, "/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats services.Stats
	decode(t, w, &stats)
	assert.Equal(t, int64(2), stats.Stories)
	assert.Equal(t, int64(2), stats.NewsItems)

	w = ts.admin(t, http.MethodGet, "/admin/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Pipeline sabotage")
	assert.NotContains(t, w.Body.String(), "<script>alert(1)</script>")
}

func TestAdmin_Recompute(t *testing.T) {
	ts := newTestServer(t)
	item := ts.ingest(t, "Airport drone closure")

	// drift the rollup behind the engine's back
	require.NoError(t, ts.db.Model(&models.Story{}).Where("id = ?", item.StoryID).Update("relevance", 40).Error)

	w := ts.admin(t, http.MethodPost, "/admin/recompute", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Success bool                 `json:"success"`
		Sweep   services.SweepResult `json:"sweep"`
	}
	decode(t, w, &body)
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Sweep.Checked)

	var story models.Story
	require.NoError(t, ts.db.Where("id = ?", item.StoryID).First(&story).Error)
	assert.Equal(t, 0, story.Relevance)
}

func TestAdmin_Reports(t *testing.T) {
	ts := newTestServer(t)
	item := ts.ingest(t, "Embassy protest")

	w := ts.admin(t, http.MethodPost, "/admin/reports", gin.H{"title": "Daily"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var report models.Report
	decode(t, w, &report)

	w = ts.admin(t, http.MethodPost, "/admin/reports/"+report.ID.String()+"/stories", gin.H{"story_id": item.StoryID})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = ts.admin(t, http.MethodPost, "/admin/reports/"+report.ID.String()+"/finalize", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/stories/split", gin.H{"story_ids": []string{item.StoryID.String()}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.admin(t, http.MethodDelete, "/admin/reports/"+report.ID.String()+"/stories/"+item.StoryID.String(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.admin(t, http.MethodPost, "/admin/reports/"+report.ID.String()+"/finalize", gin.H{"finalized": false})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.admin(t, http.MethodDelete, "/admin/reports/"+report.ID.String()+"/stories/"+item.StoryID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.admin(t, http.MethodGet, "/admin/reports/"+report.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdmin_Sources(t *testing.T) {
	ts := newTestServer(t)
	sources := services.NewSourceService(ts.db)
	require.NoError(t, sources.UpsertSource(context.Background(), models.OSINTSource{ID: "cisa", Name: "CISA", GroupID: "gov"}))
	require.NoError(t, sources.UpsertSource(context.Background(), models.OSINTSource{ID: "blog", Name: "Blog", GroupID: "community"}))

	w := ts.admin(t, http.MethodGet, "/admin/sources?group=gov", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Sources []models.OSINTSource `json:"sources"`
	}
	decode(t, w, &body)
	require.Len(t, body.Sources, 1)
	assert.Equal(t, "cisa", body.Sources[0].ID)
}
