package transaction

import "fmt"

// Status defines transaction lifecycle states
type Status string

const (
	// StatusPending is reserved for future asynchronous postings; no engine
	// path creates it today.
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusCancelled  Status = "CANCELLED"
	StatusReconciled Status = "RECONCILED"
)

// transitions is the closed state machine. Transitions are monotone:
// nothing leaves CANCELLED or RECONCILED.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusReconciled},
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusReconciled:
		return true
	}
	return false
}

// ErrInvalidStateTransition indicates a lifecycle operation attempted from
// a state that does not permit it
type ErrInvalidStateTransition struct {
	From Status
	To   Status
}

func (e ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// ErrAlreadyReconciled indicates a cancellation attempt on a reconciled
// transaction; reconciled balance effects are immutable
type ErrAlreadyReconciled struct {
	TransactionID string
}

func (e ErrAlreadyReconciled) Error() string {
	return "transaction already reconciled: " + e.TransactionID
}
