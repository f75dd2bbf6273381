package cli

import (
	"fmt"
	"strings"

	"osint-stories/internal/services"

	"github.com/spf13/cobra"
)

var (
	querySearch   string
	queryTags     string
	querySources  string
	queryGroups   string
	queryRange    string
	queryLastDays int
	querySort     string
	queryLimit    int
	queryOffset   int
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute [story-id...]",
	Short: "Recompute story rollups",
	Long: `Rebuilds the rollups and search index entry of the given stories. Without
arguments every story is swept and orphaned items get stories of their own.`,
	RunE: runRecompute,
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "List stories matching a filter",
	Args:  cobra.NoArgs,
	RunE:  runQuery,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show row counts of the story store",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	queryCmd.Flags().StringVarP(&querySearch, "search", "s", "", "full-text search")
	queryCmd.Flags().StringVar(&queryTags, "tags", "", "comma separated tag names, all required")
	queryCmd.Flags().StringVar(&querySources, "sources", "", "comma separated source ids")
	queryCmd.Flags().StringVar(&queryGroups, "groups", "", "comma separated source group ids")
	queryCmd.Flags().StringVar(&queryRange, "range", "", "today, week, month or last_days")
	queryCmd.Flags().IntVar(&queryLastDays, "last-days", 0, "days back for --range last_days")
	queryCmd.Flags().StringVar(&querySort, "sort", string(services.SortCreatedDesc), "sort order")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", services.DefaultPageSize, "maximum number of stories")
	queryCmd.Flags().IntVar(&queryOffset, "offset", 0, "stories to skip")

	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statsCmd)
}

func runRecompute(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		result, err := stories.RecomputeAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd, result)
		}
		cmd.Printf("Checked %d stories: %d deleted, %d orphans regrouped, %d failed, %d stale index rows\n",
			result.Checked, result.Deleted, result.Orphans, result.Failed, result.StaleRows)
		return nil
	}

	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := stories.Recompute(cmd.Context(), id); err != nil {
			return fmt.Errorf("recompute %s failed: %w", id, err)
		}
		cmd.Printf("Recomputed %s\n", id)
	}
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	filter := services.StoryFilter{
		Search:    querySearch,
		Tags:      splitList(queryTags),
		SourceIDs: splitList(querySources),
		GroupIDs:  splitList(queryGroups),
		Range:     services.DateRange(queryRange),
		LastDays:  queryLastDays,
		Sort:      services.SortKey(querySort),
		Limit:     queryLimit,
		Offset:    queryOffset,
	}

	page, err := queries.Query(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, page)
	}

	if len(page.Stories) == 0 {
		cmd.Println("No stories found.")
		return nil
	}

	cmd.Printf("%d of %d stories (%d read, %d important, %d in reports)\n\n",
		len(page.Stories), page.Counts.Total, page.Counts.Read, page.Counts.Important, page.Counts.InReport)
	for i, story := range page.Stories {
		cmd.Printf("  [%d] %s (relevance %d, %d items)\n", page.Offset+i+1, story.Title, story.Relevance, len(story.NewsItems))
		cmd.Printf("      %s  %s\n", story.ID, story.Created.Format("2006-01-02 15:04"))
		if len(story.Tags) > 0 {
			names := make([]string, 0, len(story.Tags))
			for _, tag := range story.Tags {
				names = append(names, tag.Name)
			}
			cmd.Printf("      tags: %s\n", strings.Join(names, ", "))
		}
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := queries.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, stats)
	}

	cmd.Printf("Stories:     %d\n", stats.Stories)
	cmd.Printf("News items:  %d\n", stats.NewsItems)
	cmd.Printf("Votes:       %d\n", stats.Votes)
	cmd.Printf("Tags:        %d\n", stats.Tags)
	cmd.Printf("Reports:     %d (%d finalized)\n", stats.Reports, stats.FinalizedReports)
	cmd.Printf("Sources:     %d\n", stats.Sources)
	return nil
}
