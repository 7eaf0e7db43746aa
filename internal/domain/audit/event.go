// Package audit holds the transactional audit trail. Events are written in
// the same database transaction as the balance mutation they describe and
// later published to the audit topic by the dispatcher (outbox pattern).
package audit

import (
	"encoding/json"
	"time"
)

// Action names the business operation an event records.
type Action string

const (
	ActionTransactionPosted     Action = "transaction.posted"
	ActionTransferPosted        Action = "transfer.posted"
	ActionTransactionCancelled  Action = "transaction.cancelled"
	ActionTransactionReconciled Action = "transaction.reconciled"
	ActionAccountCreated        Action = "account.created"
)

// PublishStatus defines event publishing states
type PublishStatus string

const (
	PublishStatusPending         PublishStatus = "PENDING"
	PublishStatusProcessed       PublishStatus = "PROCESSED"
	PublishStatusFailedToPublish PublishStatus = "FAILED_TO_PUBLISH"
)

// Event is one audit-trail entry: who did what to which entity, with the
// entity snapshot as payload.
type Event struct {
	ID            int64           `json:"id"`
	Actor         string          `json:"actor"`
	Action        Action          `json:"action"`
	EntityType    string          `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	Payload       json.RawMessage `json:"payload"`
	Status        PublishStatus   `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

// NewEvent builds a pending audit event, marshaling the entity snapshot
// into the payload.
func NewEvent(actor string, action Action, entityType, entityID string, entity interface{}) (*Event, error) {
	payload, err := json.Marshal(entity)
	if err != nil {
		return nil, err
	}

	return &Event{
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    payload,
		Status:     PublishStatusPending,
		Attempts:   0,
		CreatedAt:  time.Now(),
	}, nil
}

// ErrEventNotFound indicates a missing audit event
type ErrEventNotFound struct {
	ID int64
}

func (e ErrEventNotFound) Error() string {
	return "audit event not found"
}
