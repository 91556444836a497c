package cmd

import (
	"fmt"

	"wedding-booking/internal/data/migrations"
	"wedding-booking/pkg/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.InitDB(config.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		return migrations.Apply(cmd.Context(), db, logger)
	},
}
