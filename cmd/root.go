package cmd

import (
	"github.com/klokku/timesheet/internal/config"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "timesheet",
	Short: "Weekly timesheet service",
	Long: `timesheet records weekly hours per project task, routes them through approval
and reports on them.

Without a subcommand it serves the HTTP API, like 'timesheet serve'.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(createUserCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (config.Application, error) {
	return config.Load(configPath)
}
