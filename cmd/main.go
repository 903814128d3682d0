package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/weiawesome/wes-io-chat/internal/config"
	pkglog "github.com/weiawesome/wes-io-chat/pkg/log"
)

const serviceName = "chat-gateway"

func main() {
	root := &cobra.Command{
		Use:           "wes-io-chat",
		Short:         "Realtime chat gateway and chat API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			pkglog.Init(pkglog.Config{
				Level:       cfg.Log.Level,
				Pretty:      cfg.Log.Pretty || cfg.Log.Level == "debug",
				ServiceName: serviceName,
			})
			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
	}

	serve := newServeCommand()
	root.RunE = serve.RunE
	root.AddCommand(serve, newMigrateCommand(), newTokenCommand())

	if err := root.Execute(); err != nil {
		l := pkglog.L()
		l.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
