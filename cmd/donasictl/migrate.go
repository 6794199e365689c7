package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anggiadiputra/donasiku-sub000/internal/config"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/campaigns"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/notify"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/payments"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/transactions"
)

// schema lists every table the service owns.
var schema = []any{
	&campaigns.Campaign{},
	&transactions.Transaction{},
	&payments.GatewayCallback{},
	&notify.NotificationLog{},
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}

			if err := db.WithContext(cmd.Context()).AutoMigrate(schema...); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables.\n", len(schema))
			return nil
		},
	}
}
