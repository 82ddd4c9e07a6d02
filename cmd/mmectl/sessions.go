package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sgtes/maismedicos-go/internal/platform/postgres"
	"github.com/sgtes/maismedicos-go/internal/wizard"
)

func newSessionsCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Maintain wizard sessions stored in Postgres",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired wizard sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dbCfg, err := postgres.ConfigFromEnv()
			if err != nil {
				return err
			}
			db, err := postgres.Open(ctx, dbCfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			n, err := purge(cmd, wizard.NewPostgresStore(db), time.Now())
			if err != nil {
				return err
			}
			root.logger(cmd).Info("sessions purged", "count", n)
			return nil
		},
	})
	return cmd
}

func purge(cmd *cobra.Command, store wizard.Store, now time.Time) (int64, error) {
	n, err := store.PurgeExpired(cmd.Context(), now)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d sessão(ões) expirada(s) removida(s)\n", n)
	return n, nil
}
