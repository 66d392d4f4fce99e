package membership

import (
	"fmt"
	"time"

	"membership-app-go/internal/domain/audit"
	"membership-app-go/internal/domain/event"
	"membership-app-go/internal/domain/notification"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionSuspend Action = "suspend"
	ActionRenew   Action = "renew"
)

const modelMember = "Member"

// transitions lists every legal (from, action) pair. Anything else is a no-op.
var transitions = map[Action]struct {
	from []string
	to   string
}{
	ActionApprove: {from: []string{StatusPending}, to: StatusApproved},
	ActionReject:  {from: []string{StatusPending}, to: StatusRejected},
	ActionSuspend: {from: []string{StatusApproved}, to: StatusSuspended},
	ActionRenew:   {from: []string{StatusApproved, StatusSuspended}, to: StatusApproved},
}

// Command is one requested lifecycle change.
type Command struct {
	Action  Action
	ActorID string
	Now     time.Time
	// Reason is recorded on rejection.
	Reason string
	// DurationMonths comes from the member's category on approve and renew.
	DurationMonths int
}

// Outcome describes what Apply did. Events is empty unless Applied.
type Outcome struct {
	Applied        bool
	From           string
	To             string
	PreviousExpiry *time.Time
	NewExpiry      *time.Time
	Events         []event.Event
}

// CanApply reports whether action is legal from status.
func CanApply(status string, action Action) bool {
	t, ok := transitions[action]
	if !ok {
		return false
	}
	for _, from := range t.from {
		if from == status {
			return true
		}
	}
	return false
}

// Apply mutates m according to cmd and returns the side effects to dispatch.
// Illegal pairs leave m untouched and return Outcome{Applied: false}.
func Apply(m *Member, cmd Command) (Outcome, error) {
	t, ok := transitions[cmd.Action]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}
	if cmd.Now.IsZero() {
		return Outcome{}, fmt.Errorf("lifecycle: command time is required")
	}
	if (cmd.Action == ActionApprove || cmd.Action == ActionRenew) && cmd.DurationMonths <= 0 {
		return Outcome{}, ErrInvalidDuration
	}

	outcome := Outcome{From: m.Status}
	if !CanApply(m.Status, cmd.Action) {
		outcome.To = m.Status
		return outcome, nil
	}

	now := cmd.Now.UTC()
	today := Today(now)
	outcome.PreviousExpiry = copyTime(m.ExpiryDate)

	switch cmd.Action {
	case ActionApprove:
		expiry := ExpiryFrom(today, cmd.DurationMonths)
		m.ApprovalDate = &now
		m.ExpiryDate = &expiry
		m.ApprovedBy = actorPtr(cmd.ActorID)
	case ActionReject:
		m.RejectionReason = cmd.Reason
		m.ApprovedBy = actorPtr(cmd.ActorID)
	case ActionRenew:
		expiry := ExpiryFrom(renewalBase(m.ExpiryDate, now), cmd.DurationMonths)
		m.ExpiryDate = &expiry
	}

	m.Status = t.to
	outcome.Applied = true
	outcome.To = t.to
	outcome.NewExpiry = copyTime(m.ExpiryDate)
	outcome.Events = lifecycleEvents(m, cmd, outcome)
	return outcome, nil
}

func lifecycleEvents(m *Member, cmd Command, outcome Outcome) []event.Event {
	record := event.Audit{
		ActorID:   cmd.ActorID,
		ModelName: modelMember,
		ObjectID:  m.ID,
		Metadata: map[string]any{
			"membership_id": m.MembershipID,
			"from":          outcome.From,
			"to":            outcome.To,
		},
	}
	notify := event.Notify{RecipientID: m.UserID}

	switch cmd.Action {
	case ActionApprove:
		record.Action = audit.ActionApprove
		record.Description = fmt.Sprintf("Approved member %s", m.MembershipID)
		record.Metadata["expiry_date"] = formatDate(m.ExpiryDate)
		notify.Type = notification.TypeApproval
		notify.Title = "Membership Approved"
		notify.Message = fmt.Sprintf("Congratulations! Your membership application has been approved. Your membership ID is %s.", m.MembershipID)
	case ActionReject:
		record.Action = audit.ActionReject
		record.Description = fmt.Sprintf("Rejected member %s. Reason: %s", m.MembershipID, cmd.Reason)
		notify.Type = notification.TypeApproval
		notify.Title = "Membership Application Rejected"
		notify.Message = fmt.Sprintf("Your membership application has been rejected. Reason: %s", cmd.Reason)
	case ActionSuspend:
		record.Action = audit.ActionSuspend
		record.Description = fmt.Sprintf("Suspended member %s", m.MembershipID)
		notify.Type = notification.TypeSystem
		notify.Title = "Membership Suspended"
		notify.Message = fmt.Sprintf("Your membership %s has been suspended. Please contact the administrator.", m.MembershipID)
	case ActionRenew:
		record.Action = audit.ActionRenew
		record.Description = fmt.Sprintf("Renewed membership %s until %s", m.MembershipID, formatDate(m.ExpiryDate))
		record.Metadata["previous_expiry_date"] = formatDate(outcome.PreviousExpiry)
		record.Metadata["expiry_date"] = formatDate(m.ExpiryDate)
		notify.Type = notification.TypeRenewal
		notify.Title = "Membership Renewed"
		notify.Message = fmt.Sprintf("Your membership %s has been renewed until %s.", m.MembershipID, formatDate(m.ExpiryDate))
	}

	return []event.Event{record, notify}
}

func actorPtr(actorID string) *string {
	if actorID == "" {
		return nil
	}
	return &actorID
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
