package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Weekly timesheet
	r.HandleFunc("/api/timesheet/week", deps.TimesheetHandler.GetWeek).Methods("GET")
	r.HandleFunc("/api/timesheet/week", deps.TimesheetHandler.SaveWeek).Methods("PUT")
	r.HandleFunc("/api/timesheet/week/status", deps.TimesheetHandler.GetWeekStatus).Methods("GET")
	r.HandleFunc("/api/timesheet/assignable", deps.TimesheetHandler.GetAssignableWork).Methods("GET")

	// Administrator corrections
	r.HandleFunc("/api/admin/entry", deps.TimesheetHandler.CreateEntry).Methods("POST")
	r.HandleFunc("/api/admin/entry/{entryId}", deps.TimesheetHandler.UpdateEntry).Methods("PUT")

	// Approvals
	r.HandleFunc("/api/approval/pending", deps.ApprovalHandler.ListPending).Methods("GET")
	r.HandleFunc("/api/approval/entry/{entryId}/decision", deps.ApprovalHandler.Decide).Methods("POST")
	r.HandleFunc("/api/approval/entry/{entryId}/history", deps.ApprovalHandler.History).Methods("GET")

	// Reports
	r.HandleFunc("/api/report/totals", deps.ReportHandler.Totals).Methods("GET")
	r.HandleFunc("/api/report/projects", deps.ReportHandler.SummaryByProject).Methods("GET")
	r.HandleFunc("/api/report/statuses", deps.ReportHandler.StatusBreakdown).Methods("GET")
	r.HandleFunc("/api/report/tasktypes", deps.ReportHandler.TaskTypeDistribution).Methods("GET")
	r.HandleFunc("/api/report/entries", deps.ReportHandler.DetailedEntries).Methods("GET")
	r.HandleFunc("/api/report/entries/export", deps.ReportHandler.ExportEntries).Methods("GET")

	// Departments
	r.HandleFunc("/api/department", deps.DepartmentHandler.List).Methods("GET")
	r.HandleFunc("/api/department", deps.DepartmentHandler.Create).Methods("POST")
	r.HandleFunc("/api/department/{departmentId}", deps.DepartmentHandler.Update).Methods("PUT")
	r.HandleFunc("/api/department/{departmentId}", deps.DepartmentHandler.Delete).Methods("DELETE")

	// Projects
	r.HandleFunc("/api/project", deps.ProjectHandler.List).Methods("GET")
	r.HandleFunc("/api/project", deps.ProjectHandler.Create).Methods("POST")
	r.HandleFunc("/api/project/{projectId}", deps.ProjectHandler.Get).Methods("GET")
	r.HandleFunc("/api/project/{projectId}", deps.ProjectHandler.Update).Methods("PUT")
	r.HandleFunc("/api/project/{projectId}", deps.ProjectHandler.Delete).Methods("DELETE")

	// Task types and tasks
	r.HandleFunc("/api/tasktype", deps.TaskHandler.ListTaskTypes).Methods("GET")
	r.HandleFunc("/api/tasktype", deps.TaskHandler.CreateTaskType).Methods("POST")
	r.HandleFunc("/api/tasktype/{taskTypeId}", deps.TaskHandler.UpdateTaskType).Methods("PUT")
	r.HandleFunc("/api/tasktype/{taskTypeId}", deps.TaskHandler.DeleteTaskType).Methods("DELETE")
	r.HandleFunc("/api/task", deps.TaskHandler.ListTasks).Methods("GET")
	r.HandleFunc("/api/task", deps.TaskHandler.CreateTask).Methods("POST")
	r.HandleFunc("/api/task/{taskId}", deps.TaskHandler.UpdateTask).Methods("PUT")
	r.HandleFunc("/api/task/{taskId}", deps.TaskHandler.DeleteTask).Methods("DELETE")

	// Assignments
	r.HandleFunc("/api/assignment", deps.AssignmentHandler.List).Methods("GET")
	r.HandleFunc("/api/assignment", deps.AssignmentHandler.Create).Methods("POST")
	r.HandleFunc("/api/assignment/{assignmentId}", deps.AssignmentHandler.Get).Methods("GET")
	r.HandleFunc("/api/assignment/{assignmentId}", deps.AssignmentHandler.Update).Methods("PUT")
	r.HandleFunc("/api/assignment/{assignmentId}", deps.AssignmentHandler.Delete).Methods("DELETE")

	// User management
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/name-availability", deps.UserHandler.IsUsernameAvailable).Methods("GET").Queries("username", "{username}")
	r.HandleFunc("/api/user", deps.UserHandler.GetAvailableUsers).Methods("GET")
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user/{userId}", deps.UserHandler.UpdateUser).Methods("PUT")
	r.HandleFunc("/api/user/{userId}", deps.UserHandler.DeleteUser).Methods("DELETE")
}
