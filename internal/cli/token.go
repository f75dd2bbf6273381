package cli

import (
	"fmt"
	"os"
	"time"

	"osint-stories/internal/auth"

	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token [subject]",
	Short: "Issue a bearer token for the HTTP API",
	Long: `Signs a token for subject with JWT_SECRET (and JWT_ISSUER when set). The
subject becomes the requester of every write made with the token.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipDatabase: "true"},
	RunE:        runToken,
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	verifier, err := auth.NewJWTVerifier(os.Getenv("JWT_SECRET"), os.Getenv("JWT_ISSUER"))
	if err != nil {
		return err
	}

	token, err := verifier.IssueToken(args[0], tokenTTL)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}
	cmd.Println(token)
	return nil
}
