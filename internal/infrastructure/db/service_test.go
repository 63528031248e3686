package db_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fairdraw/fairdraw/internal/core/domain"
	"github.com/fairdraw/fairdraw/internal/core/ports"
	"github.com/fairdraw/fairdraw/internal/infrastructure/db"
	"github.com/stretchr/testify/require"
)

const (
	seedHash   = "aa00000000000000000000000000000000000000000000000000000000000000"
	merkleRoot = "bb00000000000000000000000000000000000000000000000000000000000000"
	blockHash  = "cc00000000000000000000000000000000000000000000000000000000000000"
)

func newTestService(t *testing.T) ports.RepoManager {
	t.Helper()
	svc, err := db.NewService(db.ServiceConfig{
		EventStoreType:   "badger",
		DataStoreType:    "badger",
		EventStoreConfig: []interface{}{"", nil},
		DataStoreConfig:  []interface{}{"", nil},
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func TestEventStore(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	round := domain.NewRound(1)
	events, err := round.Open()
	require.NoError(t, err)
	moreEvents, err := round.CommitSeed(seedHash)
	require.NoError(t, err)
	evenMoreEvents, err := round.CommitTicketSet(merkleRoot, 800144)
	require.NoError(t, err)
	lastEvents, err := round.ResolveDraw("t7", 297, 3, blockHash)
	require.NoError(t, err)

	// Projection updates arrive asynchronously and unordered, latch on
	// the replay that carries the full event log.
	var handled *domain.Round
	var lock sync.Mutex
	svc.RegisterEventsHandler(func(r *domain.Round) {
		lock.Lock()
		defer lock.Unlock()
		if r.IsDone() {
			handled = r
		}
	})

	require.NoError(t, svc.Events().Save(ctx, round.Id, events...))
	require.NoError(t, svc.Events().Save(ctx, round.Id, moreEvents...))
	require.NoError(t, svc.Events().Save(ctx, round.Id, evenMoreEvents...))
	require.NoError(t, svc.Events().Save(ctx, round.Id, lastEvents...))

	loaded, err := svc.Events().Load(ctx, round.Id)
	require.NoError(t, err)
	require.Equal(t, round.Id, loaded.Id)
	require.True(t, loaded.IsDone())
	require.Equal(t, round.SeedHash, loaded.SeedHash)
	require.Equal(t, round.MerkleRoot, loaded.MerkleRoot)
	require.Equal(t, round.FutureBlock, loaded.FutureBlock)
	require.Equal(t, round.Winner, loaded.Winner)

	// The registered handler receives the replayed round.
	require.Eventually(t, func() bool {
		lock.Lock()
		defer lock.Unlock()
		return handled != nil && handled.IsDone()
	}, 2*time.Second, 20*time.Millisecond)

	_, err = svc.Events().Load(ctx, 42)
	require.ErrorIs(t, err, domain.ErrRoundNotFound)
}

func TestRoundStore(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Rounds().GetCurrentRound(ctx)
	require.ErrorIs(t, err, domain.ErrNoActiveRound)

	lastId, err := svc.Rounds().GetLastRoundId(ctx)
	require.NoError(t, err)
	require.Zero(t, lastId)

	first := domain.NewRound(1)
	_, err = first.Open()
	require.NoError(t, err)
	_, err = first.CommitSeed(seedHash)
	require.NoError(t, err)
	_, err = first.CommitTicketSet(merkleRoot, 800144)
	require.NoError(t, err)
	_, err = first.ResolveDraw("t7", 297, 3, blockHash)
	require.NoError(t, err)
	require.NoError(t, svc.Rounds().AddOrUpdateRound(ctx, *first))

	second := domain.NewRound(2)
	_, err = second.Open()
	require.NoError(t, err)
	require.NoError(t, svc.Rounds().AddOrUpdateRound(ctx, *second))

	// The oldest non-done round is the current one.
	current, err := svc.Rounds().GetCurrentRound(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), current.Id)
	require.True(t, current.IsPending())

	got, err := svc.Rounds().GetRoundWithId(ctx, 1)
	require.NoError(t, err)
	require.True(t, got.IsDone())
	require.Equal(t, "t7", got.Winner)

	lastId, err = svc.Rounds().GetLastRoundId(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), lastId)

	_, err = svc.Rounds().GetRoundWithId(ctx, 42)
	require.ErrorIs(t, err, domain.ErrRoundNotFound)
}

func TestTicketStore(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// Insertion order deliberately not sorted.
	for _, ticket := range []domain.Ticket{
		{TicketId: "t3", RoundId: 1, Amount: 100},
		{TicketId: "t1", RoundId: 1, Amount: 100},
		{TicketId: "t2", RoundId: 1, Amount: 100},
		{TicketId: "u1", RoundId: 2, Amount: 50},
	} {
		require.NoError(t, svc.Tickets().AddTicket(ctx, ticket))
	}

	require.EqualError(
		t,
		svc.Tickets().AddTicket(ctx, domain.Ticket{TicketId: "t1", RoundId: 1, Amount: 1}),
		"ticket t1 already exists",
	)
	require.Error(t, svc.Tickets().AddTicket(ctx, domain.Ticket{RoundId: 1, Amount: 1}))

	ids, err := svc.Tickets().ListTicketIdsForRound(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"t1", "t2", "t3"}, ids)

	count, err := svc.Tickets().CountTicketsForRound(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	sum, err := svc.Tickets().SumTicketAmountsForRound(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(300), sum)

	ids, err = svc.Tickets().ListTicketIdsForRound(ctx, 3)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestCommitmentStore(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	seed := make([]byte, 32)
	seed[0] = 0x01

	commitment := domain.SeedCommitment{
		RoundId: 1, Seed: seed, SeedHash: seedHash, Timestamp: time.Now().Unix(),
	}
	require.NoError(t, svc.Commitments().AddSeedCommitment(ctx, commitment))
	// Append-only: a second commitment for the same round is rejected.
	require.EqualError(
		t, svc.Commitments().AddSeedCommitment(ctx, commitment),
		"seed commitment for round 1 already exists",
	)

	got, err := svc.Commitments().GetSeedCommitment(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, seed, got.Seed)
	require.Equal(t, seedHash, got.SeedHash)

	record := domain.WinnerRecord{
		RoundId: 1, Winner: "t7", Prize: 297, Fee: 3,
		BlockHash: blockHash, Timestamp: time.Now().Unix(),
	}
	require.NoError(t, svc.Commitments().AddWinnerRecord(ctx, record))
	require.EqualError(
		t, svc.Commitments().AddWinnerRecord(ctx, record),
		"winner record for round 1 already exists",
	)

	gotRecord, err := svc.Commitments().GetWinnerRecord(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, record.Winner, gotRecord.Winner)
	require.Equal(t, record.Prize, gotRecord.Prize)
	require.Equal(t, record.Fee, gotRecord.Fee)

	_, err = svc.Commitments().GetSeedCommitment(ctx, 42)
	require.Error(t, err)
	_, err = svc.Commitments().GetWinnerRecord(ctx, 42)
	require.Error(t, err)
}

func TestDeadLetterStore(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.DeadLetters().AddDeadLetter(ctx, domain.DeadLetterEntry{
		Id: "dl-1", Kind: 1, Payload: []byte(`{"roundId":1}`),
		Reason: "relay unreachable", Attempts: 3, Timestamp: time.Now().Unix(),
	}))
	require.NoError(t, svc.DeadLetters().AddFailedPayout(ctx, domain.FailedPayout{
		Id: "fp-1", RoundId: 1, Recipient: "t7", Amount: 297,
		Memo: "prize", Reason: "payout rail unreachable", Timestamp: time.Now().Unix(),
	}))
}
