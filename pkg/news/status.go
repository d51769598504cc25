package news

import "fmt"

// Status is the lifecycle state of an article. Transitions are validated
// against a fixed table instead of trusting caller discipline.
type Status string

const (
	StatusReceived         Status = "received"
	StatusPendingDecision  Status = "pending_decision"
	StatusApproved         Status = "approved"
	StatusPublished        Status = "published"
	StatusIngested         Status = "ingested"
	StatusDuplicateFlagged Status = "duplicate_flagged"
)

var validTransitions = map[Status][]Status{
	StatusReceived:         {StatusPendingDecision, StatusDuplicateFlagged, StatusIngested},
	StatusPendingDecision:  {StatusApproved, StatusDuplicateFlagged},
	StatusApproved:         {StatusPublished},
	StatusPublished:        {StatusIngested},
	StatusDuplicateFlagged: {StatusPendingDecision},
	StatusIngested:         {},
}

// ParseStatus validates a stored status value.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := validTransitions[status]; !ok {
		return "", fmt.Errorf("unknown article status: %q", s)
	}
	return status, nil
}

// CanTransition reports whether from → to is a legal lifecycle step.
// A transition onto the same status is a no-op and always allowed, which is
// what makes repeated upserts of the same article idempotent.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns to when the step is legal and an error otherwise.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("illegal status transition %s -> %s", from, to)
	}
	return to, nil
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return len(validTransitions[s]) == 0
}
