package domain

import (
	"fmt"
	"time"
)

const (
	RoundPending RoundState = iota
	RoundCountdown
	RoundDone
)

type RoundState int

func (s RoundState) String() string {
	switch s {
	case RoundCountdown:
		return "COUNTDOWN"
	case RoundDone:
		return "DONE"
	default:
		return "PENDING"
	}
}

// Round is the aggregate of the draw protocol. It is rebuilt from its
// event log and mutated only through the phase transition methods below.
// The state machine is monotonic: pending -> countdown -> done.
type Round struct {
	Id                uint64
	StartingTimestamp int64
	EndingTimestamp   int64
	State             RoundState
	SeedHash          string
	MerkleRoot        string
	FutureBlock       int64
	Winner            string
	Prize             uint64
	Fee               uint64
	BlockHash         string
	Version           uint
	Changes           []RoundEvent
}

func NewRound(id uint64) *Round {
	return &Round{
		Id:      id,
		Changes: make([]RoundEvent, 0),
	}
}

func NewRoundFromEvents(events []RoundEvent) *Round {
	r := &Round{}

	for _, event := range events {
		r.On(event, true)
	}

	r.Changes = append([]RoundEvent{}, events...)

	return r
}

func (r *Round) Events() []RoundEvent {
	return r.Changes
}

func (r *Round) On(event RoundEvent, replayed bool) {
	switch e := event.(type) {
	case RoundStarted:
		r.Id = e.Id
		r.State = RoundPending
		r.StartingTimestamp = e.Timestamp
	case RoundSeedCommitted:
		r.SeedHash = e.SeedHash
	case RoundCountdownStarted:
		r.State = RoundCountdown
		r.MerkleRoot = e.MerkleRoot
		r.FutureBlock = e.FutureBlock
	case RoundDrawResolved:
		r.State = RoundDone
		r.Winner = e.Winner
		r.Prize = e.Prize
		r.Fee = e.Fee
		r.BlockHash = e.BlockHash
		r.EndingTimestamp = e.Timestamp
	}

	if replayed {
		r.Version++
	}
}

func (r *Round) Open() ([]RoundEvent, error) {
	if r.StartingTimestamp > 0 || len(r.Changes) > 0 {
		return nil, fmt.Errorf("round already opened")
	}

	event := RoundStarted{
		Id:        r.Id,
		Timestamp: time.Now().Unix(),
	}
	r.raise(event)

	return []RoundEvent{event}, nil
}

func (r *Round) CommitSeed(seedHash string) ([]RoundEvent, error) {
	if r.State != RoundPending {
		return nil, fmt.Errorf("not in a valid state to commit a seed")
	}
	if len(r.SeedHash) > 0 {
		return nil, fmt.Errorf("seed already committed")
	}
	if len(seedHash) <= 0 {
		return nil, fmt.Errorf("missing seed hash")
	}

	event := RoundSeedCommitted{
		Id:        r.Id,
		SeedHash:  seedHash,
		Timestamp: time.Now().Unix(),
	}
	r.raise(event)

	return []RoundEvent{event}, nil
}

func (r *Round) CommitTicketSet(merkleRoot string, futureBlock int64) ([]RoundEvent, error) {
	if r.State != RoundPending {
		return nil, fmt.Errorf("not in a valid state to commit the ticket set")
	}
	if len(r.SeedHash) <= 0 {
		return nil, fmt.Errorf("seed must be committed before the ticket set")
	}
	if len(merkleRoot) <= 0 {
		return nil, fmt.Errorf("missing merkle root")
	}
	if futureBlock <= 0 {
		return nil, fmt.Errorf("invalid future block height")
	}

	event := RoundCountdownStarted{
		Id:          r.Id,
		MerkleRoot:  merkleRoot,
		FutureBlock: futureBlock,
	}
	r.raise(event)

	return []RoundEvent{event}, nil
}

func (r *Round) ResolveDraw(
	winner string, prize, fee uint64, blockHash string,
) ([]RoundEvent, error) {
	if r.State != RoundCountdown {
		return nil, fmt.Errorf("not in a valid state to resolve the draw")
	}
	if len(winner) <= 0 {
		return nil, fmt.Errorf("missing winner")
	}
	if len(blockHash) <= 0 {
		return nil, fmt.Errorf("missing block hash")
	}

	event := RoundDrawResolved{
		Id:        r.Id,
		Winner:    winner,
		Prize:     prize,
		Fee:       fee,
		BlockHash: blockHash,
		Timestamp: time.Now().Unix(),
	}
	r.raise(event)

	return []RoundEvent{event}, nil
}

func (r *Round) IsPending() bool {
	return r.State == RoundPending
}

func (r *Round) IsCountdown() bool {
	return r.State == RoundCountdown
}

func (r *Round) IsDone() bool {
	return r.State == RoundDone
}

func (r *Round) raise(event RoundEvent) {
	if r.Changes == nil {
		r.Changes = make([]RoundEvent, 0)
	}
	r.Changes = append(r.Changes, event)
	r.On(event, false)
}
