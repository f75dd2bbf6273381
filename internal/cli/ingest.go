package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"osint-stories/internal/services"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest raw items from a JSON file",
	Long: `Reads one raw item or an array of raw items from file ("-" for stdin)
and ingests them. Items already present are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	raws, err := decodeRawItems(data)
	if err != nil {
		return err
	}

	summary := stories.IngestMany(cmd.Context(), raws)
	if jsonOutput {
		return printJSON(cmd, summary)
	}

	cmd.Printf("Created %d, skipped %d, failed %d\n", len(summary.Created), summary.Skipped, len(summary.Failed))
	for _, created := range summary.Created {
		cmd.Printf("  item %s -> story %s\n", created.ItemID, created.StoryID)
	}
	for _, failure := range summary.Failed {
		cmd.Printf("  [%d] %s: %s\n", failure.Index, failure.Kind, failure.Error)
	}
	return nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func decodeRawItems(data []byte) ([]services.RawItem, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("no items in input")
	}

	if data[0] == '[' {
		var raws []services.RawItem
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("invalid item list: %w", err)
		}
		return raws, nil
	}

	var raw services.RawItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid item: %w", err)
	}
	return []services.RawItem{raw}, nil
}
