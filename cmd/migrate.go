package main

import (
	"github.com/spf13/cobra"

	pkglog "github.com/weiawesome/wes-io-chat/pkg/log"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd.Context())

			if _, err := openDatabase(cfg); err != nil {
				return err
			}

			logger := pkglog.L()
			logger.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")
			return nil
		},
	}
}
