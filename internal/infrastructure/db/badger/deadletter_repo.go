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

const deadLetterStoreDir = "dead-letters"

// deadLetterRepository is write-only for the engine, entries are
// consumed out-of-band by operators.
type deadLetterRepository struct {
	store *badgerhold.Store
}

func NewDeadLetterRepository(config ...interface{}) (dbtypes.DeadLetterStore, error) {
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
		dir = filepath.Join(baseDir, deadLetterStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open dead-letter store: %s", err)
	}

	return &deadLetterRepository{store}, nil
}

func (r *deadLetterRepository) AddDeadLetter(
	_ context.Context, entry domain.DeadLetterEntry,
) error {
	return r.store.Insert(entry.Id, entry)
}

func (r *deadLetterRepository) AddFailedPayout(
	_ context.Context, payout domain.FailedPayout,
) error {
	return r.store.Insert(payout.Id, payout)
}

func (r *deadLetterRepository) Close() {
	r.store.Close()
}
