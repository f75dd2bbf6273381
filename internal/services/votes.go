package services

import (
	"context"
	"errors"
	"strings"

	"osint-stories/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoteDirection is either a like or a dislike
type VoteDirection string

const (
	VoteLike    VoteDirection = "like"
	VoteDislike VoteDirection = "dislike"
)

// ParseVoteDirection validates a direction received from a caller
func ParseVoteDirection(direction string) (VoteDirection, error) {
	switch VoteDirection(strings.ToLower(strings.TrimSpace(direction))) {
	case VoteLike:
		return VoteLike, nil
	case VoteDislike:
		return VoteDislike, nil
	}
	return "", validationError("vote direction must be like or dislike, got %q", direction)
}

// VoteResult is the state of the voter's vote and the item's tallies after
// the call.
type VoteResult struct {
	ItemID    uuid.UUID `json:"item_id"`
	StoryID   uuid.UUID `json:"story_id"`
	Like      bool      `json:"like"`
	Dislike   bool      `json:"dislike"`
	Likes     int       `json:"likes"`
	Dislikes  int       `json:"dislikes"`
	Relevance int       `json:"relevance"`
}

// nextVote moves vote to its state after a vote in direction and returns the
// change to the like and dislike tallies. Repeating a direction retracts it
// and the opposite direction flips it.
func nextVote(vote *models.NewsItemVote, direction VoteDirection) (likes, dislikes int) {
	switch direction {
	case VoteLike:
		if vote.Like {
			vote.Like = false
			return -1, 0
		}
		if vote.Dislike {
			vote.Dislike = false
			dislikes = -1
		}
		vote.Like = true
		return 1, dislikes
	case VoteDislike:
		if vote.Dislike {
			vote.Dislike = false
			return 0, -1
		}
		if vote.Like {
			vote.Like = false
			likes = -1
		}
		vote.Dislike = true
		return likes, 1
	}
	return 0, 0
}

// Vote records a like or dislike by voterID on an item. The item's tallies
// change incrementally and the owning story is then recomputed.
func (s *StoryService) Vote(ctx context.Context, itemID uuid.UUID, voterID string, direction VoteDirection) (*VoteResult, error) {
	voterID = strings.TrimSpace(voterID)
	if voterID == "" {
		return nil, validationError("voter id must not be empty")
	}
	if _, err := ParseVoteDirection(string(direction)); err != nil {
		return nil, err
	}

	return s.changeVote(ctx, "vote", itemID, voterID, func(vote *models.NewsItemVote) (int, int) {
		return nextVote(vote, direction)
	})
}

// RetractVote removes the vote of voterID on an item, if any
func (s *StoryService) RetractVote(ctx context.Context, itemID uuid.UUID, voterID string) (*VoteResult, error) {
	voterID = strings.TrimSpace(voterID)
	if voterID == "" {
		return nil, validationError("voter id must not be empty")
	}

	return s.changeVote(ctx, "retract vote", itemID, voterID, func(vote *models.NewsItemVote) (likes, dislikes int) {
		if vote.Like {
			likes = -1
		}
		if vote.Dislike {
			dislikes = -1
		}
		vote.Like, vote.Dislike = false, false
		return likes, dislikes
	})
}

func (s *StoryService) changeVote(ctx context.Context, op string, itemID uuid.UUID, voterID string, apply func(*models.NewsItemVote) (int, int)) (*VoteResult, error) {
	result := &VoteResult{ItemID: itemID}
	_, err := s.transact(ctx, op, func(tx *gorm.DB, cs *changeSet) error {
		items, err := lockItems(tx, []uuid.UUID{itemID})
		if err != nil {
			return err
		}
		item := &items[0]
		if !s.access.CanModify(ctx, item, voterID) {
			return permissionError("%s may not vote on item %s", voterID, itemID)
		}

		vote := models.NewsItemVote{NewsItemID: itemID, VoterID: voterID}
		found := true
		if err := tx.Where("news_item_id = ? AND voter_id = ?", itemID, voterID).First(&vote).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			found = false
		}

		likes, dislikes := apply(&vote)
		switch {
		case vote.Like || vote.Dislike:
			if found {
				err = tx.Save(&vote).Error
			} else {
				err = tx.Create(&vote).Error
			}
		case found:
			err = tx.Delete(&vote).Error
		}
		if err != nil {
			return err
		}

		if likes != 0 || dislikes != 0 {
			err := tx.Model(&models.NewsItem{}).Where("id = ?", itemID).Updates(map[string]interface{}{
				"likes":     gorm.Expr("likes + ?", likes),
				"dislikes":  gorm.Expr("dislikes + ?", dislikes),
				"relevance": gorm.Expr("relevance + ?", likes-dislikes),
			}).Error
			if err != nil {
				return err
			}
		}

		if err := tx.Where("id = ?", itemID).First(item).Error; err != nil {
			return err
		}
		result.StoryID = item.StoryID
		result.Like = vote.Like
		result.Dislike = vote.Dislike
		result.Likes = item.Likes
		result.Dislikes = item.Dislikes
		result.Relevance = item.Relevance
		cs.touch(item.StoryID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
