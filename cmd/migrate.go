package cmd

import (
	"github.com/klokku/timesheet/internal/database"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := database.Migrate(cfg.Database); err != nil {
			return err
		}
		log.Info("database is up to date")
		return nil
	},
}
