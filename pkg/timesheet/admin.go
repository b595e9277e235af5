package timesheet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klokku/timesheet/internal/apperr"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/user"
	log "github.com/sirupsen/logrus"
)

const (
	adminCreatedComment  = "entered by administrator"
	adminApprovedComment = "approved by administrator"
)

// AdminCreateEntry records hours on behalf of an employee. The entry is approved right away.
func (s *ServiceImpl) AdminCreateEntry(ctx context.Context, e Entry) (Entry, error) {
	actor, err := s.requireAdministrator(ctx)
	if err != nil {
		return Entry{}, err
	}
	e.WeekStart = s.weekOf(e.WeekStart)
	if err := s.validateEntry(e); err != nil {
		return Entry{}, err
	}
	e.Status = StatusApproved

	var created Entry
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		if err := repo.LockWeek(ctx, e.EmployeeId, e.WeekStart); err != nil {
			return err
		}
		entries, err := repo.ListWeek(ctx, e.EmployeeId, e.WeekStart)
		if err != nil {
			return err
		}
		latest := LatestByKey(entries)
		if existing, ok := latest[e.Key()]; ok && existing.Status != StatusRejected {
			return apperr.Conflict("entry %d already holds these hours, edit it instead", existing.Id)
		}
		if err := s.checkLiveTotal([]Row{{ProjectId: e.ProjectId, TaskId: e.TaskId, Hours: e.Hours}}, latest); err != nil {
			return err
		}
		created, err = repo.Insert(ctx, e)
		if err != nil {
			return err
		}
		return repo.RecordApproval(ctx, created.Id, actor.UserId, StatusApproved, adminCreatedComment)
	})
	if err != nil {
		return Entry{}, translateWrite(err)
	}
	log.Infof("administrator %d created entry %d for employee %d", actor.UserId, created.Id, e.EmployeeId)
	return created, nil
}

// AdminUpdateEntry edits a live entry. A zero Version skips the concurrency check.
// Moving the entry to approved or rejected records the decision with comment; rejecting needs a comment.
// Rejected entries stay as they were, a correction goes into a new entry.
func (s *ServiceImpl) AdminUpdateEntry(ctx context.Context, e Entry, comment string) (Entry, error) {
	actor, err := s.requireAdministrator(ctx)
	if err != nil {
		return Entry{}, err
	}
	if _, err := ParseStatus(string(e.Status)); err != nil {
		return Entry{}, apperr.Validation("%s", err.Error())
	}
	comment = strings.TrimSpace(comment)
	if e.Status == StatusRejected && comment == "" {
		return Entry{}, apperr.Validation("a comment is required when rejecting an entry")
	}

	var updated Entry
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		existing, err := repo.Get(ctx, e.Id)
		if err != nil {
			return err
		}
		if existing.Status == StatusRejected {
			return apperr.Conflict("entry %d was rejected and is kept as history, create a new entry instead", existing.Id)
		}
		if err := repo.LockWeek(ctx, existing.EmployeeId, existing.WeekStart); err != nil {
			return err
		}
		entries, err := repo.ListWeek(ctx, existing.EmployeeId, existing.WeekStart)
		if err != nil {
			return err
		}
		expected := existing.Version
		if e.Version != 0 {
			expected = e.Version
		}
		if existing.Key() != e.Key() {
			// the old assignment does not cover the new key
			e.AssignmentId = nil
		}
		e.EmployeeId = existing.EmployeeId
		e.WeekStart = existing.WeekStart
		if err := s.validateEntry(e); err != nil {
			return err
		}

		latest := LatestByKey(entries)
		delete(latest, existing.Key())
		if other, ok := latest[e.Key()]; ok && other.Status != StatusRejected {
			return apperr.Conflict("entry %d already holds these hours, edit it instead", other.Id)
		}
		if e.Status != StatusRejected {
			row := Row{ProjectId: e.ProjectId, TaskId: e.TaskId, Hours: e.Hours}
			if err := s.checkLiveTotal([]Row{row}, latest); err != nil {
				return err
			}
		}

		updated, err = repo.Update(ctx, e, expected)
		if err != nil {
			return err
		}
		if e.Status == existing.Status || (e.Status != StatusApproved && e.Status != StatusRejected) {
			return nil
		}
		if comment == "" {
			comment = adminApprovedComment
		}
		return repo.RecordApproval(ctx, updated.Id, actor.UserId, e.Status, comment)
	})
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return Entry{}, apperr.NotFound("timesheet entry", e.Id)
		}
		return Entry{}, translateWrite(err)
	}
	log.Infof("administrator %d updated entry %d", actor.UserId, e.Id)
	return updated, nil
}

func (s *ServiceImpl) validateEntry(e Entry) error {
	if e.EmployeeId == 0 || e.ProjectId == 0 || e.TaskId == 0 {
		return apperr.Validation("employee, project and task are required")
	}
	if err := s.validateHours(e.WeekStart, e.Hours); err != nil {
		return err
	}
	if total := e.Hours.Total(); total > s.weeklyCap+hoursEpsilon {
		return apperr.Validation("%.2f hours logged, at most %g hours are allowed per week", total, s.weeklyCap)
	}
	return nil
}

func translateWrite(err error) error {
	switch {
	case errors.Is(err, ErrVersionMismatch):
		return apperr.Conflict("entry was changed by someone else, reload it")
	case errors.Is(err, ErrLiveEntryExists):
		return apperr.Conflict("%s", err.Error())
	case errors.Is(err, ErrUnknownReference):
		return apperr.Validation("%s", err.Error())
	}
	return apperr.Persistence("write timesheet entry", err)
}

func (s *ServiceImpl) requireAdministrator(ctx context.Context) (authz.Actor, error) {
	actor, err := user.CurrentActor(ctx)
	if err != nil {
		return authz.Actor{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return actor, authz.RequireRole(actor, authz.RoleAdministrator)
}

type BackfillResult struct {
	Scanned   int
	Matched   int
	Ambiguous int
	Unmatched int
}

// BackfillAssignments binds entries without an assignment to the single assignment of the same employee,
// project and task overlapping the entry week. Entries with zero or several candidates are left alone.
func (s *ServiceImpl) BackfillAssignments(ctx context.Context) (BackfillResult, error) {
	var result BackfillResult
	entries, err := s.repo.ListUnassigned(ctx)
	if err != nil {
		return result, apperr.Persistence("list unassigned entries", err)
	}
	result.Scanned = len(entries)
	for _, e := range entries {
		matches, err := s.catalog.FindMatching(ctx, e.EmployeeId, e.ProjectId, e.TaskId, e.WeekStart, WeekEnd(e.WeekStart))
		if err != nil {
			return result, err
		}
		switch len(matches) {
		case 0:
			result.Unmatched++
			log.Debugf("no assignment matches entry %d", e.Id)
		case 1:
			if err := s.repo.SetAssignment(ctx, e.Id, matches[0].Id); err != nil {
				return result, apperr.Persistence("set entry assignment", err)
			}
			result.Matched++
		default:
			result.Ambiguous++
			log.Warnf("entry %d of week %s matches %d assignments, left unassigned", e.Id, e.WeekStart.Format(time.DateOnly), len(matches))
		}
	}
	log.Infof("backfill done: %d entries scanned, %d matched, %d ambiguous, %d unmatched",
		result.Scanned, result.Matched, result.Ambiguous, result.Unmatched)
	return result, nil
}
