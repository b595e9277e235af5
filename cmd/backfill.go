package cmd

import (
	"fmt"

	"github.com/klokku/timesheet/internal/database"
	"github.com/klokku/timesheet/internal/utils"
	"github.com/klokku/timesheet/pkg/assignment"
	"github.com/klokku/timesheet/pkg/project"
	"github.com/klokku/timesheet/pkg/timesheet"
	"github.com/spf13/cobra"
)

// backfillCmd represents the backfill-assignments command
var backfillCmd = &cobra.Command{
	Use:   "backfill-assignments",
	Short: "Bind legacy entries to their assignment",
	Long: `Bind every entry recorded without an assignment to the single assignment of the same
employee, project and task that overlaps the entry week. Entries matching no assignment
or several assignments are reported and left alone.

Running it twice is harmless: bound entries are never touched again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := database.Migrate(cfg.Database); err != nil {
			return err
		}
		db, err := database.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		catalog := assignment.NewService(assignment.NewRepository(db), project.NewService(project.NewRepository(db)))
		service := timesheet.NewService(timesheet.NewRepository(db), catalog, cfg.Timesheet, utils.SystemClock{})
		result, err := service.BackfillAssignments(cmd.Context())
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "scanned %d, matched %d, ambiguous %d, unmatched %d\n",
			result.Scanned, result.Matched, result.Ambiguous, result.Unmatched)
		return nil
	},
}
