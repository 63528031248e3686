package ports

import "context"

const (
	EventSeedCommitted EventKind = iota + 1
	EventTicketSetCommitted
	EventDrawResolved
)

type EventKind int32

// Event is the opaque payload published on the announcement relay.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp int64     `json:"timestamp"`
	Payload   []byte    `json:"payload"`
}

// EventPublisher delivers a single event to the relay network. Publish
// may fail transiently, retrying is the caller's concern.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}
