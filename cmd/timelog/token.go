package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/wellness-backend/internal/app"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
	"github.com/yungbote/wellness-backend/internal/services"
)

func tokenCmd() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with the configured secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("--user must be a uuid: %w", err)
			}
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			log, err := logger.New("nop")
			if err != nil {
				return err
			}
			token, err := services.NewAuthService(log, cfg.JWTSecretKey, cfg.JWTIssuer).IssueToken(id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to put in the sub claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
