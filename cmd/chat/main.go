package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/persona-chat/backend/internal/app"
	"github.com/zhouzirui/persona-chat/backend/internal/config"
	"github.com/zhouzirui/persona-chat/backend/internal/logging"
	"github.com/zhouzirui/persona-chat/backend/internal/service/conversation"
)

func newRootCmd() *cobra.Command {
	var (
		personaID string
		list      bool
	)

	cmd := &cobra.Command{
		Use:           "chat",
		Short:         "Chat with a persona in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return errors.Wrap(err, "failed to load configuration")
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Format)

			personas, err := app.LoadPersonas(cfg)
			if err != nil {
				return err
			}
			if list {
				for _, p := range personas.List() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", p.ID, p.Name)
				}
				return nil
			}

			p, ok := personas.FindByID(personaID)
			if !ok {
				return errors.Errorf("unknown persona %q (use --list)", personaID)
			}

			ctx := cmd.Context()
			be, err := cfg.Backend.NewBackend(ctx)
			if err != nil {
				return err
			}
			ctrl, err := conversation.New(ctx, be, p.Config)
			if err != nil {
				return errors.Wrapf(err, "failed to start conversation with %s", p.ID)
			}

			return runREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), p, ctrl)
		},
	}

	cmd.Flags().StringVarP(&personaID, "persona", "p", "career-advisor", "persona id")
	cmd.Flags().BoolVar(&list, "list", false, "list personas and exit")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("chat failed")
		os.Exit(1)
	}
}
