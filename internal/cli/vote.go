package cli

import (
	"fmt"

	"osint-stories/internal/services"

	"github.com/spf13/cobra"
)

var retractVote bool

var voteCmd = &cobra.Command{
	Use:   "vote [item-id] [like|dislike]",
	Short: "Vote on a news item",
	Long: `Records a like or dislike on a news item for the --as requester.
Voting the same direction twice withdraws the vote. --retract clears it.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runVote,
}

func init() {
	voteCmd.Flags().BoolVar(&retractVote, "retract", false, "clear the requester's vote")
	rootCmd.AddCommand(voteCmd)
}

func runVote(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[:1])
	if err != nil {
		return err
	}

	var result *services.VoteResult
	switch {
	case retractVote:
		result, err = stories.RetractVote(cmd.Context(), ids[0], requester)
	case len(args) < 2:
		return fmt.Errorf("vote direction required (like or dislike)")
	default:
		direction, perr := services.ParseVoteDirection(args[1])
		if perr != nil {
			return perr
		}
		result, err = stories.Vote(cmd.Context(), ids[0], requester, direction)
	}
	if err != nil {
		return fmt.Errorf("vote failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, result)
	}
	cmd.Printf("Item %s: like=%t dislike=%t\n", result.ItemID, result.Like, result.Dislike)
	cmd.Printf("Story %s: %d likes, %d dislikes, relevance %d\n",
		result.StoryID, result.Likes, result.Dislikes, result.Relevance)
	return nil
}
