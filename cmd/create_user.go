package cmd

import (
	"fmt"

	"github.com/klokku/timesheet/internal/database"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/user"
	"github.com/spf13/cobra"
)

var (
	createUserName        string
	createUserDisplayName string
	createUserEmail       string
	createUserRole        string
)

// createUserCmd represents the create-user command
var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Register a user",
	Long: `Register a user directly in the database. Use it to bootstrap the first administrator,
who then manages everyone else through the API.

Example:
  timesheet create-user --username admin --display-name "Site Admin" --role administrator`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := authz.ParseRole(createUserRole)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		service := user.NewUserService(user.NewUserRepo(db))
		created, err := service.Register(cmd.Context(), user.User{
			Username:    createUserName,
			DisplayName: createUserDisplayName,
			Email:       createUserEmail,
			Role:        role,
		})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created user %d, send requests with X-User-Id: %s\n", created.Id, created.Uid)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&createUserName, "username", "", "login name")
	createUserCmd.Flags().StringVar(&createUserDisplayName, "display-name", "", "name shown in reports")
	createUserCmd.Flags().StringVar(&createUserEmail, "email", "", "address for decision notifications")
	createUserCmd.Flags().StringVar(&createUserRole, "role", string(authz.RoleEmployee), "employee, project_approver, department_manager or administrator")
	_ = createUserCmd.MarkFlagRequired("username")
}
