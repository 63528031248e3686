package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/fairdraw/fairdraw/internal/core/domain"
	dbtypes "github.com/fairdraw/fairdraw/internal/infrastructure/db/types"
	"github.com/timshannon/badgerhold/v4"
)

const roundStoreDir = "rounds"

type roundRepository struct {
	store *badgerhold.Store
}

func NewRoundRepository(config ...interface{}) (dbtypes.RoundStore, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, roundStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open round store: %s", err)
	}

	return &roundRepository{store}, nil
}

func (r *roundRepository) AddOrUpdateRound(
	_ context.Context, round domain.Round,
) error {
	// The event log lives in the event store, the projection row only
	// holds the current state.
	round.Changes = nil
	return r.store.Upsert(round.Id, round)
}

func (r *roundRepository) GetCurrentRound(
	ctx context.Context,
) (*domain.Round, error) {
	query := badgerhold.Where("State").Ne(domain.RoundDone).SortBy("Id")
	rounds, err := r.findRound(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(rounds) <= 0 {
		return nil, domain.ErrNoActiveRound
	}
	return &rounds[0], nil
}

func (r *roundRepository) GetRoundWithId(
	ctx context.Context, id uint64,
) (*domain.Round, error) {
	query := badgerhold.Where("Id").Eq(id)
	rounds, err := r.findRound(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(rounds) <= 0 {
		return nil, fmt.Errorf("round with id %d: %w", id, domain.ErrRoundNotFound)
	}
	return &rounds[0], nil
}

func (r *roundRepository) GetLastRoundId(ctx context.Context) (uint64, error) {
	rounds, err := r.findRound(ctx, nil)
	if err != nil {
		return 0, err
	}
	lastId := uint64(0)
	for _, round := range rounds {
		if round.Id > lastId {
			lastId = round.Id
		}
	}
	return lastId, nil
}

func (r *roundRepository) Close() {
	r.store.Close()
}

func (r *roundRepository) findRound(
	_ context.Context, query *badgerhold.Query,
) ([]domain.Round, error) {
	var rounds []domain.Round
	err := r.store.Find(&rounds, query)
	return rounds, err
}
