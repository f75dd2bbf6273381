package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"osint-stories/internal/database"
	"osint-stories/internal/services"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// skipDatabase marks commands that run without a store
const skipDatabase = "skip-database"

var (
	stories *services.StoryService
	queries *services.QueryService

	requester  string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "storyctl",
	Short: "Operate the story engine from the command line",
	Long: `storyctl ingests raw items, regroups stories, records votes and
inspects the story store. Database settings come from the same DB_*
environment variables as the server.`,
	SilenceUsage:      true,
	PersistentPreRunE: connect,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&requester, "as", "storyctl", "requester id used for permission checks and votes")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output results as JSON")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// UseDatabase points every command at db instead of connecting on start
func UseDatabase(db *gorm.DB) {
	stories = services.NewStoryService(db)
	queries = services.NewQueryService(db)
}

func connect(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipDatabase] != "" || stories != nil {
		return nil
	}
	if err := database.Connect(database.LoadConfig()); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	UseDatabase(database.DB)
	return nil
}

func parseIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := uuid.Parse(strings.TrimSpace(arg))
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
