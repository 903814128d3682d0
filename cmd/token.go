package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/pkg/jwt"
)

// newTokenCommand issues an access token signed with the configured secret,
// for local testing against the gateway.
func newTokenCommand() *cobra.Command {
	var (
		userID   string
		name     string
		email    string
		register bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd.Context())

			manager, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.Issuer)
			if err != nil {
				return err
			}

			if register {
				db, err := openDatabase(cfg)
				if err != nil {
					return err
				}
				user := &domain.UserModel{ID: userID, Username: name, DisplayName: name, Email: email}
				if err := db.WithContext(cmd.Context()).Save(user).Error; err != nil {
					return fmt.Errorf("failed to register user: %w", err)
				}
			}

			token, exp, err := manager.GenerateAccessToken(userID, email, name)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", exp.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id to put in the token")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().BoolVar(&register, "register", false, "also upsert the user into the users table")
	cmd.MarkFlagRequired("user")

	return cmd
}
