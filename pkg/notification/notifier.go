package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/timesheet/internal/apperr"
	"github.com/klokku/timesheet/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

// Notifier turns committed approval decisions into messages for the entry's employee.
type Notifier struct {
	sender Sender
	appUrl string
}

func NewNotifier(sender Sender, appUrl string) *Notifier {
	return &Notifier{sender: sender, appUrl: appUrl}
}

// Subscribe registers the notifier for decision events on bus.
func (n *Notifier) Subscribe(bus *event_bus.EventBus) (unsubscribe func()) {
	return event_bus.SubscribeTyped(bus, event_bus.EntryDecidedType, n.handle)
}

func (n *Notifier) handle(e event_bus.EventT[event_bus.EntryDecided]) error {
	reference := uuid.NewString()
	msg := BuildMessage(e.Data, n.appUrl)
	log.Debugf("sending notification %s for entry %d", reference, e.Data.EntryId)
	if err := n.sender.Send(e.Context(), msg); err != nil {
		return &apperr.NotificationError{Recipient: e.Data.EmployeeName, Err: fmt.Errorf("notification %s: %w", reference, err)}
	}
	log.Infof("notification %s sent to employee %d", reference, e.Data.EmployeeId)
	return nil
}

func BuildMessage(d event_bus.EntryDecided, appUrl string) Message {
	week := d.WeekStart.Format(time.DateOnly)
	subject := fmt.Sprintf("Timesheet %s: %s / %s, week of %s", d.Decision, d.ProjectName, d.TaskName, week)

	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\n\n", d.EmployeeName)
	fmt.Fprintf(&body, "%s %s your %.2f hours on %s / %s for the week of %s.\n",
		d.ApproverName, d.Decision, d.TotalHours, d.ProjectName, d.TaskName, week)
	if d.Comment != "" {
		fmt.Fprintf(&body, "\nComment: %s\n", d.Comment)
	}
	if d.Decision == "rejected" {
		body.WriteString("\nPlease correct the entry and submit the week again.\n")
	}
	if appUrl != "" {
		fmt.Fprintf(&body, "\n%s/timesheet?date=%s\n", strings.TrimRight(appUrl, "/"), week)
	}
	return Message{
		RecipientName:  d.EmployeeName,
		RecipientEmail: d.EmployeeEmail,
		Subject:        subject,
		Body:           body.String(),
	}
}
