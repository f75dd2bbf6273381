package services

import (
	"context"
	"errors"
	"testing"

	"osint-stories/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService(t *testing.T) {
	s, db := newTestService(t)
	reports := NewReportService(db)
	ctx := context.Background()
	a := mustIngest(t, s, rawItem("a"))
	b := mustIngest(t, s, rawItem("b"))

	_, err := reports.CreateReport(ctx, " ")
	assert.True(t, errors.Is(err, ErrValidation))

	report, err := reports.CreateReport(ctx, "Weekly brief")
	require.NoError(t, err)

	require.NoError(t, reports.AssignToReport(ctx, report.ID, a.StoryID))
	require.NoError(t, reports.AssignToReport(ctx, report.ID, a.StoryID))
	assert.True(t, errors.Is(reports.AssignToReport(ctx, report.ID, uuid.New()), ErrNotFound))
	assert.True(t, errors.Is(reports.AssignToReport(ctx, uuid.New(), a.StoryID), ErrNotFound))

	got, err := reports.GetReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Len(t, got.Stories, 1)

	inUse, err := FinalizedReports{}.IsAssignedToReport(db, []uuid.UUID{a.StoryID, b.StoryID})
	require.NoError(t, err)
	assert.False(t, inUse)

	require.NoError(t, reports.SetFinalized(ctx, report.ID, true))
	inUse, err = FinalizedReports{}.IsAssignedToReport(db, []uuid.UUID{b.StoryID, a.StoryID})
	require.NoError(t, err)
	assert.True(t, inUse)

	_, err = s.Merge(ctx, []uuid.UUID{b.StoryID, a.StoryID}, "u1")
	assert.True(t, errors.Is(err, ErrConflict))

	assert.True(t, errors.Is(reports.AssignToReport(ctx, report.ID, b.StoryID), ErrConflict))
	assert.True(t, errors.Is(reports.RemoveFromReport(ctx, report.ID, a.StoryID), ErrConflict))

	require.NoError(t, reports.SetFinalized(ctx, report.ID, false))
	require.NoError(t, reports.RemoveFromReport(ctx, report.ID, a.StoryID))
	assert.True(t, errors.Is(reports.RemoveFromReport(ctx, report.ID, a.StoryID), ErrNotFound))

	_, err = s.Merge(ctx, []uuid.UUID{b.StoryID, a.StoryID}, "u1")
	require.NoError(t, err)
	assert.True(t, errors.Is(reports.SetFinalized(ctx, uuid.New(), true), ErrNotFound))
}

func TestFinalizedReports_Empty(t *testing.T) {
	db := setupTestDB(t)
	inUse, err := FinalizedReports{}.IsAssignedToReport(db, nil)
	require.NoError(t, err)
	assert.False(t, inUse)
}

func TestMerge_CarriesOpenReportAssignments(t *testing.T) {
	s, db := newTestService(t)
	reports := NewReportService(db)
	ctx := context.Background()
	a := mustIngest(t, s, rawItem("a"))
	b := mustIngest(t, s, rawItem("b"))
	c := mustIngest(t, s, rawItem("c"))

	report, err := reports.CreateReport(ctx, "Open brief")
	require.NoError(t, err)
	require.NoError(t, reports.AssignToReport(ctx, report.ID, b.StoryID))
	require.NoError(t, reports.AssignToReport(ctx, report.ID, c.StoryID))

	merged, err := s.Merge(ctx, []uuid.UUID{a.StoryID, b.StoryID, c.StoryID}, "u1")
	require.NoError(t, err)
	assert.Len(t, merged.Deleted, 2)

	var assignments []models.ReportStory
	require.NoError(t, db.Find(&assignments).Error)
	require.Len(t, assignments, 1)
	assert.Equal(t, report.ID, assignments[0].ReportID)
	assert.Equal(t, a.StoryID, assignments[0].StoryID)
}

func TestSplit_CarriesOpenReportAssignments(t *testing.T) {
	s, db := newTestService(t)
	reports := NewReportService(db)
	ctx := context.Background()
	a := mustIngest(t, s, rawItem("a"))
	b := mustIngest(t, s, rawItem("b"))

	merged, err := s.Merge(ctx, []uuid.UUID{a.StoryID, b.StoryID}, "u1")
	require.NoError(t, err)
	report, err := reports.CreateReport(ctx, "Open brief")
	require.NoError(t, err)
	require.NoError(t, reports.AssignToReport(ctx, report.ID, merged.StoryID))

	_, err = s.Split(ctx, []uuid.UUID{b.ItemID}, "u1")
	require.NoError(t, err)

	var item models.NewsItem
	require.NoError(t, db.Where("id = ?", a.ItemID).First(&item).Error)

	got, err := reports.GetReport(ctx, report.ID)
	require.NoError(t, err)
	require.Len(t, got.Stories, 1)
	assert.Equal(t, item.StoryID, got.Stories[0].StoryID)
}
