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

const commitmentStoreDir = "commitments"

// commitmentRepository holds the append-only records of a round: the
// seed commitment and the winner record. Both are inserted, never
// upserted, a second write for the same round fails.
type commitmentRepository struct {
	store *badgerhold.Store
}

func NewCommitmentRepository(config ...interface{}) (dbtypes.CommitmentStore, error) {
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
		dir = filepath.Join(baseDir, commitmentStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open commitment store: %s", err)
	}

	return &commitmentRepository{store}, nil
}

func (r *commitmentRepository) AddSeedCommitment(
	_ context.Context, commitment domain.SeedCommitment,
) error {
	if err := r.store.Insert(commitment.RoundId, commitment); err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("seed commitment for round %d already exists", commitment.RoundId)
		}
		return err
	}
	return nil
}

func (r *commitmentRepository) GetSeedCommitment(
	_ context.Context, roundId uint64,
) (*domain.SeedCommitment, error) {
	var commitment domain.SeedCommitment
	if err := r.store.Get(roundId, &commitment); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("seed commitment for round %d not found", roundId)
		}
		return nil, err
	}
	return &commitment, nil
}

func (r *commitmentRepository) AddWinnerRecord(
	_ context.Context, record domain.WinnerRecord,
) error {
	if err := r.store.Insert(record.RoundId, record); err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("winner record for round %d already exists", record.RoundId)
		}
		return err
	}
	return nil
}

func (r *commitmentRepository) GetWinnerRecord(
	_ context.Context, roundId uint64,
) (*domain.WinnerRecord, error) {
	var record domain.WinnerRecord
	if err := r.store.Get(roundId, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("winner record for round %d not found", roundId)
		}
		return nil, err
	}
	return &record, nil
}

func (r *commitmentRepository) Close() {
	r.store.Close()
}
