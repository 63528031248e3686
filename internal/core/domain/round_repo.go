package domain

import (
	"context"
	"errors"
)

var (
	ErrNoActiveRound = errors.New("no active round")
	ErrRoundNotFound = errors.New("round not found")
)

type RoundEventRepository interface {
	Save(ctx context.Context, id uint64, events ...RoundEvent) error
	Load(ctx context.Context, id uint64) (*Round, error)
}

type RoundRepository interface {
	AddOrUpdateRound(ctx context.Context, round Round) error
	// GetCurrentRound returns the oldest round that is pending or in
	// countdown, or ErrNoActiveRound.
	GetCurrentRound(ctx context.Context) (*Round, error)
	GetRoundWithId(ctx context.Context, id uint64) (*Round, error)
	GetLastRoundId(ctx context.Context) (uint64, error)
}

type TicketRepository interface {
	AddTicket(ctx context.Context, ticket Ticket) error
	// ListTicketIdsForRound returns ticket ids in ascending order. The
	// ordering is part of the merkle commitment and must be stable.
	ListTicketIdsForRound(ctx context.Context, roundId uint64) ([]string, error)
	CountTicketsForRound(ctx context.Context, roundId uint64) (int64, error)
	SumTicketAmountsForRound(ctx context.Context, roundId uint64) (uint64, error)
}

type CommitmentRepository interface {
	AddSeedCommitment(ctx context.Context, commitment SeedCommitment) error
	GetSeedCommitment(ctx context.Context, roundId uint64) (*SeedCommitment, error)
	AddWinnerRecord(ctx context.Context, record WinnerRecord) error
	GetWinnerRecord(ctx context.Context, roundId uint64) (*WinnerRecord, error)
}

type DeadLetterRepository interface {
	AddDeadLetter(ctx context.Context, entry DeadLetterEntry) error
	AddFailedPayout(ctx context.Context, payout FailedPayout) error
}
