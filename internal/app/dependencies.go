package app

import (
	"context"

	"github.com/klokku/timesheet/internal/config"
	"github.com/klokku/timesheet/internal/database"
	"github.com/klokku/timesheet/internal/event_bus"
	"github.com/klokku/timesheet/internal/utils"
	"github.com/klokku/timesheet/pkg/approval"
	"github.com/klokku/timesheet/pkg/assignment"
	"github.com/klokku/timesheet/pkg/department"
	"github.com/klokku/timesheet/pkg/notification"
	"github.com/klokku/timesheet/pkg/project"
	"github.com/klokku/timesheet/pkg/report"
	"github.com/klokku/timesheet/pkg/task"
	"github.com/klokku/timesheet/pkg/timesheet"
	"github.com/klokku/timesheet/pkg/user"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus
	Notifier *notification.Notifier

	UserService user.Service
	UserHandler *user.Handler

	DepartmentService department.Service
	DepartmentHandler *department.Handler

	ProjectService project.Service
	ProjectHandler *project.Handler

	TaskService task.Service
	TaskHandler *task.Handler

	AssignmentService *assignment.ServiceImpl
	AssignmentHandler *assignment.Handler

	TimesheetService timesheet.Service
	TimesheetHandler *timesheet.Handler

	ApprovalService approval.Service
	ApprovalHandler *approval.Handler

	ReportService report.Service
	ReportHandler *report.Handler

	Clock utils.Clock

	unsubscribe func()
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(ctx context.Context, db database.Pool, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}
	deps.Clock = &utils.SystemClock{}

	deps.EventBus = event_bus.NewEventBus()
	sender, err := notification.NewSender(ctx, cfg.Notification)
	if err != nil {
		return nil, err
	}
	deps.Notifier = notification.NewNotifier(sender, cfg.Notification.AppUrl)
	deps.unsubscribe = deps.Notifier.Subscribe(deps.EventBus)

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.DepartmentService = department.NewService(department.NewRepository(db))
	deps.DepartmentHandler = department.NewHandler(deps.DepartmentService)

	deps.ProjectService = project.NewService(project.NewRepository(db))
	deps.ProjectHandler = project.NewHandler(deps.ProjectService)

	deps.TaskService = task.NewService(task.NewRepository(db))
	deps.TaskHandler = task.NewHandler(deps.TaskService)

	deps.AssignmentService = assignment.NewService(assignment.NewRepository(db), deps.ProjectService)
	deps.AssignmentHandler = assignment.NewHandler(deps.AssignmentService)

	deps.TimesheetService = timesheet.NewService(timesheet.NewRepository(db), deps.AssignmentService, cfg.Timesheet, deps.Clock)
	deps.TimesheetHandler = timesheet.NewHandler(deps.TimesheetService)

	deps.ApprovalService = approval.NewService(approval.NewRepository(db), deps.EventBus)
	deps.ApprovalHandler = approval.NewHandler(deps.ApprovalService)

	deps.ReportService = report.NewService(report.NewRepository(db))
	deps.ReportHandler = report.NewHandler(deps.ReportService)

	return deps, nil
}
