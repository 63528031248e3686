package domain_test

import (
	"testing"

	"github.com/fairdraw/fairdraw/internal/core/domain"
	"github.com/stretchr/testify/require"
)

const (
	seedHash   = "aa00000000000000000000000000000000000000000000000000000000000000"
	merkleRoot = "bb00000000000000000000000000000000000000000000000000000000000000"
	blockHash  = "cc00000000000000000000000000000000000000000000000000000000000000"
)

func TestRound(t *testing.T) {
	t.Run("open", func(t *testing.T) {
		round := domain.NewRound(1)
		events, err := round.Open()
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.True(t, round.IsPending())
		require.Greater(t, round.StartingTimestamp, int64(0))

		_, err = round.Open()
		require.EqualError(t, err, "round already opened")
	})

	t.Run("commit_seed", func(t *testing.T) {
		round := openedRound(t)

		events, err := round.CommitSeed(seedHash)
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.Equal(t, seedHash, round.SeedHash)
		// Committing the seed does not advance the state machine.
		require.True(t, round.IsPending())

		_, err = round.CommitSeed(seedHash)
		require.EqualError(t, err, "seed already committed")
	})

	t.Run("commit_ticket_set", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			round := openedRound(t)
			_, err := round.CommitSeed(seedHash)
			require.NoError(t, err)

			events, err := round.CommitTicketSet(merkleRoot, 800144)
			require.NoError(t, err)
			require.Len(t, events, 1)
			require.True(t, round.IsCountdown())
			require.Equal(t, merkleRoot, round.MerkleRoot)
			require.Equal(t, int64(800144), round.FutureBlock)
		})

		t.Run("requires_seed_commitment", func(t *testing.T) {
			round := openedRound(t)
			_, err := round.CommitTicketSet(merkleRoot, 800144)
			require.EqualError(t, err, "seed must be committed before the ticket set")
			require.True(t, round.IsPending())
			require.Zero(t, round.FutureBlock)
		})
	})

	t.Run("resolve_draw", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			round := countdownRound(t)
			events, err := round.ResolveDraw("t7", 297, 3, blockHash)
			require.NoError(t, err)
			require.Len(t, events, 1)
			require.True(t, round.IsDone())
			require.Equal(t, "t7", round.Winner)
			require.Equal(t, uint64(297), round.Prize)
			require.Equal(t, uint64(3), round.Fee)
			require.Equal(t, blockHash, round.BlockHash)
		})

		t.Run("requires_countdown", func(t *testing.T) {
			round := openedRound(t)
			_, err := round.ResolveDraw("t7", 297, 3, blockHash)
			require.EqualError(t, err, "not in a valid state to resolve the draw")
		})

		t.Run("terminal", func(t *testing.T) {
			round := countdownRound(t)
			_, err := round.ResolveDraw("t7", 297, 3, blockHash)
			require.NoError(t, err)

			_, err = round.ResolveDraw("t8", 297, 3, blockHash)
			require.EqualError(t, err, "not in a valid state to resolve the draw")
			_, err = round.CommitTicketSet(merkleRoot, 800288)
			require.EqualError(t, err, "not in a valid state to commit the ticket set")
			_, err = round.CommitSeed(seedHash)
			require.EqualError(t, err, "not in a valid state to commit a seed")
			require.Equal(t, "t7", round.Winner)
		})
	})

	t.Run("state_never_regresses", func(t *testing.T) {
		round := countdownRound(t)
		_, err := round.CommitTicketSet(merkleRoot, 800288)
		require.Error(t, err)
		require.True(t, round.IsCountdown())
		require.Equal(t, int64(800144), round.FutureBlock)
	})

	t.Run("replay_from_events", func(t *testing.T) {
		round := countdownRound(t)
		_, err := round.ResolveDraw("t7", 297, 3, blockHash)
		require.NoError(t, err)

		replayed := domain.NewRoundFromEvents(round.Events())
		require.Equal(t, round.Id, replayed.Id)
		require.Equal(t, round.State, replayed.State)
		require.Equal(t, round.SeedHash, replayed.SeedHash)
		require.Equal(t, round.MerkleRoot, replayed.MerkleRoot)
		require.Equal(t, round.FutureBlock, replayed.FutureBlock)
		require.Equal(t, round.Winner, replayed.Winner)
		require.Equal(t, uint(len(round.Events())), replayed.Version)
	})
}

func openedRound(t *testing.T) *domain.Round {
	t.Helper()
	round := domain.NewRound(1)
	_, err := round.Open()
	require.NoError(t, err)
	return round
}

func countdownRound(t *testing.T) *domain.Round {
	t.Helper()
	round := openedRound(t)
	_, err := round.CommitSeed(seedHash)
	require.NoError(t, err)
	_, err = round.CommitTicketSet(merkleRoot, 800144)
	require.NoError(t, err)
	return round
}
