package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/klokku/timesheet/internal/apperr"
	"github.com/klokku/timesheet/internal/event_bus"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/timesheet"
	"github.com/klokku/timesheet/pkg/user"
	log "github.com/sirupsen/logrus"
)

const maxCommentLength = 2000

type Service interface {
	Decide(ctx context.Context, entryId, approverId int, decision Decision, comment string) (Approval, error)
	ListPending(ctx context.Context, filter PendingFilter) ([]PendingEntry, error)
	History(ctx context.Context, entryId int) ([]Approval, error)
}

type Publisher interface {
	Publish(e event_bus.Event) error
}

type ServiceImpl struct {
	repo   Repository
	events Publisher
}

func NewService(repo Repository, events Publisher) *ServiceImpl {
	return &ServiceImpl{repo: repo, events: events}
}

// Decide records the approver's decision on a submitted entry. The status change and the approval row
// are written in one transaction; the employee is notified after commit on a best-effort basis.
func (s *ServiceImpl) Decide(ctx context.Context, entryId, approverId int, decision Decision, comment string) (Approval, error) {
	comment = strings.TrimSpace(comment)
	if _, err := ParseDecision(string(decision)); err != nil {
		return Approval{}, apperr.Validation("%s", err.Error())
	}
	if decision == DecisionRejected && comment == "" {
		return Approval{}, apperr.Validation("a comment is required when rejecting an entry")
	}
	if len(comment) > maxCommentLength {
		return Approval{}, apperr.Validation("comment must not exceed %d characters", maxCommentLength)
	}
	approver, err := user.CurrentUser(ctx)
	if err != nil {
		return Approval{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if approver.Id != approverId {
		return Approval{}, apperr.Unauthorized("user %d may not decide on behalf of user %d", approver.Id, approverId)
	}
	actor := approver.Actor()

	var subject Subject
	var recorded Approval
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		subject, err = repo.LockSubject(ctx, entryId)
		if err != nil {
			return err
		}
		if err := authz.AuthorizeApproval(actor, subject.Project); err != nil {
			return err
		}
		if subject.Status != timesheet.StatusSubmitted {
			return apperr.Conflict("entry %d is %s and no longer awaits a decision", entryId, subject.Status)
		}
		if err := repo.MarkDecided(ctx, entryId, subject.Version, decision.Status()); err != nil {
			return err
		}
		recorded, err = repo.Insert(ctx, Approval{EntryId: entryId, ApproverId: approverId, Decision: decision, Comment: comment})
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEntryNotFound):
			return Approval{}, apperr.NotFound("timesheet entry", entryId)
		case errors.Is(err, ErrNotSubmitted):
			return Approval{}, apperr.Conflict("entry %d was decided concurrently", entryId)
		}
		return Approval{}, apperr.Persistence("decide entry", err)
	}
	recorded.ApproverName = approver.DisplayName
	log.Infof("user %d %s entry %d of employee %d", approverId, decision, entryId, subject.EmployeeId)

	s.notify(ctx, subject, recorded)
	return recorded, nil
}

func (s *ServiceImpl) notify(ctx context.Context, subject Subject, recorded Approval) {
	if s.events == nil {
		return
	}
	event := event_bus.NewEvent(ctx, event_bus.EntryDecidedType, event_bus.EntryDecided{
		EntryId:       subject.EntryId,
		ApprovalId:    recorded.Id,
		EmployeeId:    subject.EmployeeId,
		EmployeeName:  subject.EmployeeName,
		EmployeeEmail: subject.EmployeeEmail,
		ApproverId:    recorded.ApproverId,
		ApproverName:  recorded.ApproverName,
		ProjectName:   subject.ProjectName,
		TaskName:      subject.TaskName,
		WeekStart:     subject.WeekStart,
		TotalHours:    subject.Hours.Total(),
		Decision:      string(recorded.Decision),
		Comment:       recorded.Comment,
		DecidedAt:     recorded.DecidedAt,
	})
	if err := s.events.Publish(event); err != nil {
		notificationErr := &apperr.NotificationError{Recipient: subject.EmployeeName, Err: err}
		log.Warnf("decision on entry %d stays recorded: %v", subject.EntryId, notificationErr)
	}
}

// ListPending returns entries in the caller's approval scope, submitted ones unless the filter says otherwise.
func (s *ServiceImpl) ListPending(ctx context.Context, filter PendingFilter) ([]PendingEntry, error) {
	actor, err := user.CurrentActor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if !actor.Role.IsApprover() {
		return nil, apperr.Unauthorized("role %s has no approval scope", actor.Role)
	}
	if filter.Status == "" {
		filter.Status = timesheet.StatusSubmitted
	} else if _, err := timesheet.ParseStatus(string(filter.Status)); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	entries, err := s.repo.ListPending(ctx, authz.VisibilityFor(actor), filter)
	if err != nil {
		return nil, apperr.Persistence("list pending entries", err)
	}
	return entries, nil
}

// History lists the decisions on one entry, oldest first. It is visible to whoever may see the entry.
func (s *ServiceImpl) History(ctx context.Context, entryId int) ([]Approval, error) {
	actor, err := user.CurrentActor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	subject, err := s.repo.GetSubject(ctx, entryId)
	if errors.Is(err, ErrEntryNotFound) {
		return nil, apperr.NotFound("timesheet entry", entryId)
	} else if err != nil {
		return nil, apperr.Persistence("load entry", err)
	}
	if !authz.VisibilityFor(actor).Allows(subject.Project, subject.EmployeeId) {
		return nil, apperr.Unauthorized("user %d may not see entry %d", actor.UserId, entryId)
	}
	approvals, err := s.repo.History(ctx, entryId)
	if err != nil {
		return nil, apperr.Persistence("load approval history", err)
	}
	return approvals, nil
}
