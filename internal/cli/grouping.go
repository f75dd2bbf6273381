package cli

import (
	"fmt"

	"osint-stories/internal/services"

	"github.com/spf13/cobra"
)

var (
	mergeItems   bool
	splitStories bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge [id...]",
	Short: "Merge stories into the first one",
	Long: `Moves every item of the given stories into the first story and deletes
the stories left empty. With --items the ids are news items, which are
gathered into the story of the first item.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

var splitCmd = &cobra.Command{
	Use:   "split [id...]",
	Short: "Move items into stories of their own",
	Long: `Gives each listed news item its own new story. With --stories every item
of the listed stories is split out.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSplit,
}

func init() {
	mergeCmd.Flags().BoolVar(&mergeItems, "items", false, "ids are news item ids")
	splitCmd.Flags().BoolVar(&splitStories, "stories", false, "ids are story ids")
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(splitCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	var result *services.MergeResult
	if mergeItems {
		result, err = stories.MergeItems(cmd.Context(), ids, requester)
	} else {
		result, err = stories.Merge(cmd.Context(), ids, requester)
	}
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, result)
	}
	cmd.Printf("Merged into story %s: %d moved, %d denied, %d deleted\n",
		result.StoryID, len(result.Moved), len(result.Denied), len(result.Deleted))
	return nil
}

func runSplit(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	var result *services.SplitResult
	if splitStories {
		result, err = stories.SplitStories(cmd.Context(), ids, requester)
	} else {
		result, err = stories.Split(cmd.Context(), ids, requester)
	}
	if err != nil {
		return fmt.Errorf("split failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, result)
	}
	cmd.Printf("Split into %d new stories, %d denied, %d deleted\n",
		len(result.Created), len(result.Denied), len(result.Deleted))
	for _, id := range result.Created {
		cmd.Printf("  %s\n", id)
	}
	return nil
}
