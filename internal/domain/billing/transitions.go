package billing

type Action string

const (
	ActionMarkPending Action = "mark_pending"
	ActionComplete    Action = "complete"
	ActionFail        Action = "fail"
	ActionCancel      Action = "cancel"
	ActionRefund      Action = "refund"
)

type transition struct {
	from []string
	to   string
}

var transitions = map[Action]transition{
	ActionMarkPending: {from: []string{StatusInitiated}, to: StatusPending},
	ActionComplete:    {from: []string{StatusInitiated, StatusPending}, to: StatusCompleted},
	ActionFail:        {from: []string{StatusInitiated, StatusPending}, to: StatusFailed},
	ActionCancel:      {from: []string{StatusInitiated, StatusPending}, to: StatusCancelled},
	ActionRefund:      {from: []string{StatusCompleted}, to: StatusRefunded},
}

// NextStatus returns the status action leads to from current, or false when
// the pair is not a legal transition.
func NextStatus(current string, action Action) (string, bool) {
	t, ok := transitions[action]
	if !ok {
		return "", false
	}
	for _, from := range t.from {
		if from == current {
			return t.to, true
		}
	}
	return "", false
}
