package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskgram/service/internal/db"
	"github.com/taskgram/service/internal/user"
)

var (
	userName  string
	userEmail string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a user and print its ID",
	Example: `  taskgramctl user create --name "Ada Lovelace" --email ada@example.com`,
	Args:    cobra.NoArgs,
	RunE:    runUserCreate,
}

func init() {
	userCreateCmd.Flags().StringVar(&userName, "name", "", "display name")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address (unique)")
	_ = userCreateCmd.MarkFlagRequired("name")
	_ = userCreateCmd.MarkFlagRequired("email")
	userCmd.AddCommand(userCreateCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	u, err := user.NewService(user.NewRepository(pool)).Create(ctx, userName, userEmail)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", u.ID, u.Name, u.Email)
	return nil
}
