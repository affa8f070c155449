package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskgram/service/internal/auth"
)

var (
	tokenUser string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue API bearer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:     "issue",
	Short:   "Print a signed token for a user ID",
	Example: `  taskgramctl token issue --user 6f1c... --ttl 24h`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := auth.IssueToken(cfg.JWTSecret, tokenUser, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenUser, "user", "", "user ID to put in the token subject")
	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", auth.DefaultTTL, "token lifetime")
	_ = tokenIssueCmd.MarkFlagRequired("user")
	tokenCmd.AddCommand(tokenIssueCmd)
}
