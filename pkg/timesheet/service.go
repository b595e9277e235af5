package timesheet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/klokku/timesheet/internal/apperr"
	"github.com/klokku/timesheet/internal/config"
	"github.com/klokku/timesheet/internal/utils"
	"github.com/klokku/timesheet/pkg/assignment"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/user"
	log "github.com/sirupsen/logrus"
)

// hours are stored with two decimals, anything below is rounding noise
const (
	hoursEpsilon = 0.001
	centsEpsilon = 1e-6
)

type Service interface {
	ListAssignableWork(ctx context.Context, employeeId int, date time.Time) ([]assignment.View, error)
	LoadWeek(ctx context.Context, employeeId int, date time.Time) (Week, error)
	Save(ctx context.Context, employeeId int, date time.Time, rows []Row, target Status) error
	WeekStatus(ctx context.Context, employeeId int, date time.Time) (Status, error)
	AdminCreateEntry(ctx context.Context, e Entry) (Entry, error)
	AdminUpdateEntry(ctx context.Context, e Entry, comment string) (Entry, error)
	BackfillAssignments(ctx context.Context) (BackfillResult, error)
}

type ServiceImpl struct {
	repo      Repository
	catalog   assignment.Catalog
	clock     utils.Clock
	firstDay  time.Weekday
	weeklyCap float64
	maxDaily  float64
}

func NewService(repo Repository, catalog assignment.Catalog, cfg config.Timesheet, clock utils.Clock) *ServiceImpl {
	firstDay, err := cfg.FirstDay()
	if err != nil {
		log.Warnf("%v, weeks start on monday", err)
	}
	return &ServiceImpl{
		repo:      repo,
		catalog:   catalog,
		clock:     clock,
		firstDay:  firstDay,
		weeklyCap: cfg.WeeklyHourCap,
		maxDaily:  cfg.MaxDailyHours,
	}
}

// weekOf anchors date, or today when date is zero.
func (s *ServiceImpl) weekOf(date time.Time) time.Time {
	if date.IsZero() {
		date = utils.Today(s.clock)
	}
	return WeekStart(date, s.firstDay)
}

func (s *ServiceImpl) ListAssignableWork(ctx context.Context, employeeId int, date time.Time) ([]assignment.View, error) {
	if _, err := s.authorize(ctx, employeeId); err != nil {
		return nil, err
	}
	weekStart := s.weekOf(date)
	return s.catalog.ListAssignableWork(ctx, employeeId, weekStart, WeekEnd(weekStart))
}

func (s *ServiceImpl) WeekStatus(ctx context.Context, employeeId int, date time.Time) (Status, error) {
	if _, err := s.authorize(ctx, employeeId); err != nil {
		return "", err
	}
	entries, err := s.repo.ListWeek(ctx, employeeId, s.weekOf(date))
	if err != nil {
		return "", apperr.Persistence("load week", err)
	}
	return DeriveWeekStatus(entries), nil
}

// LoadWeek returns one row per assignable work item overlaid with the latest entry of its key. Latest entries
// without assignable work behind them are appended as read-only legacy rows.
func (s *ServiceImpl) LoadWeek(ctx context.Context, employeeId int, date time.Time) (Week, error) {
	if _, err := s.authorize(ctx, employeeId); err != nil {
		return Week{}, err
	}
	weekStart := s.weekOf(date)
	views, err := s.catalog.ListAssignableWork(ctx, employeeId, weekStart, WeekEnd(weekStart))
	if err != nil {
		return Week{}, err
	}
	entries, err := s.repo.ListWeek(ctx, employeeId, weekStart)
	if err != nil {
		return Week{}, apperr.Persistence("load week", err)
	}

	week := Week{
		EmployeeId: employeeId,
		Start:      weekStart,
		End:        WeekEnd(weekStart),
		Status:     DeriveWeekStatus(entries),
	}
	week.Editable = Editable(week.Status)
	week.Rows = overlay(views, LatestByKey(entries))
	for _, row := range week.Rows {
		week.Total += row.Hours.Total()
	}

	if week.Status == StatusRejected {
		week.RejectionReason, err = s.repo.LatestRejectionReason(ctx, employeeId, weekStart)
		if err != nil {
			return Week{}, apperr.Persistence("load rejection reason", err)
		}
	}
	if week.Editable {
		week.SubmissionBlock, err = submissionBlock(ctx, s.repo, employeeId, weekStart)
		if err != nil {
			return Week{}, err
		}
	}
	return week, nil
}

func overlay(views []assignment.View, latest map[Key]Entry) []WeekRow {
	rows := make([]WeekRow, 0, len(views)+len(latest))
	used := make(map[Key]bool, len(latest))
	// an entry belongs to the view of its own assignment first
	claimed := make(map[int]Key)
	for _, v := range views {
		key := Key{ProjectId: v.ProjectId, TaskId: v.TaskId}
		if e, ok := latest[key]; ok && e.AssignmentId != nil && *e.AssignmentId == v.AssignmentId {
			claimed[v.AssignmentId] = key
			used[key] = true
		}
	}
	for _, v := range views {
		key := Key{ProjectId: v.ProjectId, TaskId: v.TaskId}
		assignmentId := v.AssignmentId
		row := WeekRow{
			ProjectId:       v.ProjectId,
			ProjectName:     v.ProjectName,
			Billable:        v.Billable,
			TaskId:          v.TaskId,
			TaskName:        v.TaskName,
			TaskTypeName:    v.TaskTypeName,
			AssignmentId:    &assignmentId,
			Assignment:      v.Name,
			AssignmentNotes: v.Notes,
			ValidFrom:       &v.StartDate,
			ValidTo:         v.EndDate,
		}
		_, own := claimed[v.AssignmentId]
		if e, ok := latest[key]; ok && (own || !used[key]) {
			used[key] = true
			withEntry(&row, e)
		}
		rows = append(rows, row)
	}
	legacy := make([]Entry, 0)
	for key, e := range latest {
		if !used[key] {
			legacy = append(legacy, e)
		}
	}
	sortEntries(legacy)
	for _, e := range legacy {
		row := WeekRow{
			ProjectId:    e.ProjectId,
			ProjectName:  e.ProjectName,
			TaskId:       e.TaskId,
			TaskName:     e.TaskName,
			AssignmentId: e.AssignmentId,
			Legacy:       true,
		}
		withEntry(&row, e)
		rows = append(rows, row)
	}
	return rows
}

func withEntry(row *WeekRow, e Entry) {
	id, version, status := e.Id, e.Version, e.Status
	row.EntryId = &id
	row.Version = &version
	row.Status = &status
	row.Hours = e.Hours
	row.Notes = e.Notes
}

// Save writes rows for the employee week with the given target status in one transaction.
func (s *ServiceImpl) Save(ctx context.Context, employeeId int, date time.Time, rows []Row, target Status) error {
	actor, err := s.authorize(ctx, employeeId)
	if err != nil {
		return err
	}
	if target != StatusDraft && target != StatusSubmitted {
		return apperr.Validation("target status must be draft or submitted, got %q", target)
	}
	if target == StatusSubmitted && len(rows) == 0 {
		return apperr.Validation("cannot submit an empty timesheet")
	}
	weekStart := s.weekOf(date)
	for _, row := range rows {
		if err := s.validateHours(weekStart, row.Hours); err != nil {
			return err
		}
	}
	views, err := s.catalog.ListAssignableWork(ctx, employeeId, weekStart, WeekEnd(weekStart))
	if err != nil {
		return err
	}
	rows, err = bindRows(rows, views, weekStart)
	if err != nil {
		return err
	}
	var rowsTotal float64
	for _, row := range rows {
		rowsTotal += row.Hours.Total()
	}
	if rowsTotal > s.weeklyCap+hoursEpsilon {
		return apperr.Validation("%.2f hours logged, at most %g hours are allowed per week", rowsTotal, s.weeklyCap)
	}

	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		if err := repo.LockWeek(ctx, employeeId, weekStart); err != nil {
			return err
		}
		entries, err := repo.ListWeek(ctx, employeeId, weekStart)
		if err != nil {
			return err
		}
		status := DeriveWeekStatus(entries)
		if !Editable(status) && actor.Role != authz.RoleAdministrator {
			return apperr.Validation("week of %s is %s and can no longer be edited", weekStart.Format(time.DateOnly), status)
		}
		latest := LatestByKey(entries)
		if err := s.checkLiveTotal(rows, latest); err != nil {
			return err
		}
		if target == StatusSubmitted {
			block, err := submissionBlock(ctx, repo, employeeId, weekStart)
			if err != nil {
				return err
			}
			if block != "" {
				return apperr.Validation("%s", block)
			}
		}
		for _, row := range rows {
			if err := upsert(ctx, repo, employeeId, weekStart, row, latest, target); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Debugf("saving week %s of employee %d failed: %v", weekStart.Format(time.DateOnly), employeeId, err)
		return apperr.Persistence("save week", err)
	}
	log.Infof("employee %d saved %d rows for week %s as %s", employeeId, len(rows), weekStart.Format(time.DateOnly), target)
	return nil
}

// bindRows resolves every row to assignable work of the week and fills in its project, task and assignment.
func bindRows(rows []Row, views []assignment.View, weekStart time.Time) ([]Row, error) {
	bound := make([]Row, 0, len(rows))
	seen := make(map[Key]bool, len(rows))
	for _, row := range rows {
		view, ok := findView(row, views, weekStart)
		if !ok {
			return nil, apperr.Validation("project %d task %d is not assigned to the employee for the week of %s",
				row.ProjectId, row.TaskId, weekStart.Format(time.DateOnly))
		}
		for i, h := range row.Hours {
			if h > 0 && !view.Covers(Day(weekStart, i)) {
				return nil, apperr.Validation("hours on %s are outside the assignment to %s / %s",
					Day(weekStart, i).Format(time.DateOnly), view.ProjectName, view.TaskName)
			}
		}
		assignmentId := view.AssignmentId
		row.ProjectId, row.TaskId, row.AssignmentId = view.ProjectId, view.TaskId, &assignmentId
		if seen[row.Key()] {
			return nil, apperr.Validation("%s / %s appears more than once", view.ProjectName, view.TaskName)
		}
		seen[row.Key()] = true
		bound = append(bound, row)
	}
	return bound, nil
}

func findView(row Row, views []assignment.View, weekStart time.Time) (assignment.View, bool) {
	if row.AssignmentId != nil {
		for _, v := range views {
			if v.AssignmentId != *row.AssignmentId {
				continue
			}
			if (row.ProjectId != 0 && row.ProjectId != v.ProjectId) || (row.TaskId != 0 && row.TaskId != v.TaskId) {
				return assignment.View{}, false
			}
			return v, true
		}
		return assignment.View{}, false
	}
	var candidate *assignment.View
	for i, v := range views {
		if v.ProjectId != row.ProjectId || v.TaskId != row.TaskId {
			continue
		}
		if candidate == nil {
			candidate = &views[i]
		}
		if coversHours(v, row.Hours, weekStart) {
			return v, true
		}
	}
	if candidate == nil {
		return assignment.View{}, false
	}
	return *candidate, true
}

func coversHours(v assignment.View, hours Hours, weekStart time.Time) bool {
	for i, h := range hours {
		if h > 0 && !v.Covers(Day(weekStart, i)) {
			return false
		}
	}
	return true
}

func (s *ServiceImpl) validateHours(weekStart time.Time, hours Hours) error {
	for i, h := range hours {
		if math.IsNaN(h) || h < 0 || h > s.maxDaily {
			return apperr.Validation("hours on %s must be between 0 and %g", Day(weekStart, i).Format(time.DateOnly), s.maxDaily)
		}
		// stored as NUMERIC(5, 2)
		if cents := h * 100; math.Abs(cents-math.Round(cents)) > centsEpsilon {
			return apperr.Validation("hours on %s may have at most two decimals", Day(weekStart, i).Format(time.DateOnly))
		}
	}
	return nil
}

// checkLiveTotal keeps the week total, the saved rows plus the latest live entries of other keys, under the cap.
func (s *ServiceImpl) checkLiveTotal(rows []Row, latest map[Key]Entry) error {
	keys := make(map[Key]bool, len(rows))
	var total float64
	for _, row := range rows {
		keys[row.Key()] = true
		total += row.Hours.Total()
	}
	for key, e := range latest {
		if !keys[key] && e.Status != StatusRejected {
			total += e.Hours.Total()
		}
	}
	if total > s.weeklyCap+hoursEpsilon {
		return apperr.Validation("week total would be %.2f hours, at most %g hours are allowed per week", total, s.weeklyCap)
	}
	return nil
}

// submissionBlock explains why the week can not be submitted because of the week before it.
func submissionBlock(ctx context.Context, repo Repository, employeeId int, weekStart time.Time) (string, error) {
	previous := PreviousWeek(weekStart)
	entries, err := repo.ListWeek(ctx, employeeId, previous)
	if err != nil {
		return "", apperr.Persistence("load previous week", err)
	}
	for _, e := range entries {
		if e.Status == StatusDraft {
			return fmt.Sprintf("the week of %s still has draft entries and must be submitted first",
				previous.Format(time.DateOnly)), nil
		}
	}
	if DeriveWeekStatus(entries) == StatusRejected {
		return fmt.Sprintf("the week of %s was rejected and must be resubmitted first", previous.Format(time.DateOnly)), nil
	}
	return "", nil
}

func upsert(ctx context.Context, repo Repository, employeeId int, weekStart time.Time, row Row, latest map[Key]Entry, target Status) error {
	var current *Entry
	if e, ok := latest[row.Key()]; ok {
		current = &e
	}
	if row.ExpectedVersion != nil && (current == nil || current.Version != *row.ExpectedVersion) {
		return apperr.Conflict("entry for project %d task %d was changed by someone else, reload the week", row.ProjectId, row.TaskId)
	}
	switch ResolveUpsert(current) {
	case ActionInsert:
		_, err := repo.Insert(ctx, Entry{
			EmployeeId:   employeeId,
			ProjectId:    row.ProjectId,
			TaskId:       row.TaskId,
			AssignmentId: row.AssignmentId,
			WeekStart:    weekStart,
			Hours:        row.Hours,
			Status:       target,
			Notes:        row.Notes,
		})
		if errors.Is(err, ErrLiveEntryExists) {
			return apperr.Conflict("entry for project %d task %d was created concurrently, reload the week", row.ProjectId, row.TaskId)
		}
		return err
	default:
		updated := *current
		updated.AssignmentId = row.AssignmentId
		updated.Hours = row.Hours
		updated.Status = target
		updated.Notes = row.Notes
		_, err := repo.Update(ctx, updated, current.Version)
		if errors.Is(err, ErrVersionMismatch) {
			return apperr.Conflict("entry %d was changed by someone else, reload the week", current.Id)
		}
		return err
	}
}

func (s *ServiceImpl) authorize(ctx context.Context, employeeId int) (authz.Actor, error) {
	actor, err := user.CurrentActor(ctx)
	if err != nil {
		return authz.Actor{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return actor, authz.RequireSelfOrAdmin(actor, employeeId)
}
