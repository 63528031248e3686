package ports

import "github.com/fairdraw/fairdraw/internal/core/domain"

type RepoManager interface {
	Events() domain.RoundEventRepository
	Rounds() domain.RoundRepository
	Tickets() domain.TicketRepository
	Commitments() domain.CommitmentRepository
	DeadLetters() domain.DeadLetterRepository
	RegisterEventsHandler(func(round *domain.Round))
	Close()
}
