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

func TestNextVote(t *testing.T) {
	tests := []struct {
		name         string
		like         bool
		dislike      bool
		direction    VoteDirection
		wantLike     bool
		wantDislike  bool
		wantLikes    int
		wantDislikes int
	}{
		{"first like", false, false, VoteLike, true, false, 1, 0},
		{"first dislike", false, false, VoteDislike, false, true, 0, 1},
		{"like again retracts", true, false, VoteLike, false, false, -1, 0},
		{"dislike again retracts", false, true, VoteDislike, false, false, 0, -1},
		{"like flips dislike", false, true, VoteLike, true, false, 1, -1},
		{"dislike flips like", true, false, VoteDislike, false, true, -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vote := &models.NewsItemVote{Like: tt.like, Dislike: tt.dislike}
			likes, dislikes := nextVote(vote, tt.direction)
			assert.Equal(t, tt.wantLike, vote.Like)
			assert.Equal(t, tt.wantDislike, vote.Dislike)
			assert.Equal(t, tt.wantLikes, likes)
			assert.Equal(t, tt.wantDislikes, dislikes)
			assert.False(t, vote.Like && vote.Dislike)
		})
	}
}

func TestParseVoteDirection(t *testing.T) {
	direction, err := ParseVoteDirection(" Like ")
	require.NoError(t, err)
	assert.Equal(t, VoteLike, direction)

	_, err = ParseVoteDirection("meh")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestVote_ToggleReturnsToPreVoteState(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	a := mustIngest(t, s, rawItem("a"))

	result, err := s.Vote(ctx, a.ItemID, "u1", VoteLike)
	require.NoError(t, err)
	assert.True(t, result.Like)
	assert.Equal(t, 1, result.Likes)
	assert.Equal(t, 1, result.Relevance)
	assert.Equal(t, a.StoryID, result.StoryID)
	assert.Equal(t, 1, loadStory(t, db, a.StoryID).Relevance)

	result, err = s.Vote(ctx, a.ItemID, "u1", VoteLike)
	require.NoError(t, err)
	assert.False(t, result.Like)
	assert.Equal(t, 0, result.Likes)
	assert.Equal(t, 0, result.Relevance)

	story := loadStory(t, db, a.StoryID)
	assert.Equal(t, 0, story.Likes)
	assert.Equal(t, 0, story.Relevance)
	assert.Equal(t, int64(0), countRows(t, db, &models.NewsItemVote{}))
	assertConsistent(t, db)
}

func TestVote_FlipMovesRelevanceByTwo(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	a := mustIngest(t, s, rawItem("a"))

	_, err := s.Vote(ctx, a.ItemID, "u1", VoteLike)
	require.NoError(t, err)
	before := loadStory(t, db, a.StoryID)

	result, err := s.Vote(ctx, a.ItemID, "u1", VoteDislike)
	require.NoError(t, err)
	assert.False(t, result.Like)
	assert.True(t, result.Dislike)

	after := loadStory(t, db, a.StoryID)
	assert.Equal(t, before.Likes-1, after.Likes)
	assert.Equal(t, before.Dislikes+1, after.Dislikes)
	assert.Equal(t, before.Relevance-2, after.Relevance)

	var votes []models.NewsItemVote
	require.NoError(t, db.Find(&votes).Error)
	require.Len(t, votes, 1)
	assert.False(t, votes[0].Like && votes[0].Dislike)
	assertConsistent(t, db)
}

func TestVote_SeveralVotersRollUpIntoStory(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	a := mustIngest(t, s, rawItem("a"))
	b := mustIngest(t, s, rawItem("b"))
	_, err := s.Merge(ctx, []uuid.UUID{a.StoryID, b.StoryID}, "u1")
	require.NoError(t, err)

	for _, voter := range []string{"u1", "u2", "u3"} {
		_, err := s.Vote(ctx, a.ItemID, voter, VoteLike)
		require.NoError(t, err)
	}
	_, err = s.Vote(ctx, b.ItemID, "u1", VoteDislike)
	require.NoError(t, err)

	story := loadStory(t, db, a.StoryID)
	assert.Equal(t, 3, story.Likes)
	assert.Equal(t, 1, story.Dislikes)
	assert.Equal(t, 2, story.Relevance)
	assertConsistent(t, db)
}

func TestVote_Validation(t *testing.T) {
	s, _ := newTestService(t)
	a := mustIngest(t, s, rawItem("a"))

	_, err := s.Vote(context.Background(), a.ItemID, " ", VoteLike)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = s.Vote(context.Background(), a.ItemID, "u1", VoteDirection("up"))
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = s.Vote(context.Background(), uuid.New(), "u1", VoteLike)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestVote_PermissionDenied(t *testing.T) {
	access := AccessCheckerFunc(func(_ context.Context, _ *models.NewsItem, requester string) bool {
		return requester != "banned"
	})
	s, db := newTestService(t, WithAccessChecker(access))
	a := mustIngest(t, s, rawItem("a"))

	_, err := s.Vote(context.Background(), a.ItemID, "banned", VoteLike)
	assert.True(t, errors.Is(err, ErrPermission))
	assert.Equal(t, "permission_denied", KindOf(err))
	assert.Equal(t, int64(0), countRows(t, db, &models.NewsItemVote{}))
	assert.Equal(t, 0, loadStory(t, db, a.StoryID).Likes)
}

func TestRetractVote(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	a := mustIngest(t, s, rawItem("a"))

	_, err := s.Vote(ctx, a.ItemID, "u1", VoteDislike)
	require.NoError(t, err)
	assert.Equal(t, -1, loadStory(t, db, a.StoryID).Relevance)

	result, err := s.RetractVote(ctx, a.ItemID, "u1")
	require.NoError(t, err)
	assert.False(t, result.Dislike)
	assert.Equal(t, 0, result.Dislikes)
	assert.Equal(t, 0, loadStory(t, db, a.StoryID).Relevance)
	assert.Equal(t, int64(0), countRows(t, db, &models.NewsItemVote{}))

	// retracting nothing is a no-op
	result, err = s.RetractVote(ctx, a.ItemID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Relevance)
	assertConsistent(t, db)
}
