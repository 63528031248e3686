package dbtypes

import "github.com/fairdraw/fairdraw/internal/core/domain"

type EventStore interface {
	domain.RoundEventRepository
	RegisterEventsHandler(func(*domain.Round))
	Close()
}

type RoundStore interface {
	domain.RoundRepository
	Close()
}

type TicketStore interface {
	domain.TicketRepository
	Close()
}

type CommitmentStore interface {
	domain.CommitmentRepository
	Close()
}

type DeadLetterStore interface {
	domain.DeadLetterRepository
	Close()
}
