// Package queue defines message payloads exchanged over the message broker.
package queue

// LodgingCreatedQueue is the durable queue carrying LodgingCreatedEvent.
const LodgingCreatedQueue = "lodging.created"

// LodgingCreatedEvent is published after a lodging row has been inserted.
// Linked is false when the id could not be appended to the owner's
// lodgings array, which leaves the two stores out of step.
type LodgingCreatedEvent struct {
    LodgingID int64  `json:"lodging_id"`
    OwnerID   string `json:"owner_id"`
    Linked    bool   `json:"linked"`
    CreatedAt string `json:"created_at"`
}
