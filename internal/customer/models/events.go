package models

import (
	"time"

	id "guestman/pkg/domain"
)

// EventKind names a customer lifecycle event.
type EventKind string

const (
	EventCustomerCreated EventKind = "customer_created"
	EventCustomerUpdated EventKind = "customer_updated"
)

// Change is one field's before and after values.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Event is published after a customer write commits.
type Event struct {
	ID         string            `json:"id"`
	Kind       EventKind         `json:"kind"`
	CustomerID id.CustomerID     `json:"customer_id"`
	Code       string            `json:"code"`
	Changes    map[string]Change `json:"changes,omitempty"`
	Actor      string            `json:"actor,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
