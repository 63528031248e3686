package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/fairdraw/fairdraw/internal/core/domain"
	dbtypes "github.com/fairdraw/fairdraw/internal/infrastructure/db/types"
	"github.com/timshannon/badgerhold/v4"
)

const eventStoreDir = "round-events"

type eventsDTO struct {
	Events [][]byte
}

type eventRepository struct {
	store     *badgerhold.Store
	lock      *sync.Mutex
	chUpdates chan *domain.Round
	handler   func(round *domain.Round)
}

func NewRoundEventRepository(config ...interface{}) (dbtypes.EventStore, error) {
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
		dir = filepath.Join(baseDir, eventStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open round events store: %s", err)
	}
	repo := &eventRepository{store, &sync.Mutex{}, make(chan *domain.Round), nil}
	go repo.listen()
	return repo, nil
}

func (r *eventRepository) Save(
	ctx context.Context, id uint64, events ...domain.RoundEvent,
) error {
	allEvents, err := r.get(ctx, id)
	if err != nil {
		return err
	}

	allEvents = append(allEvents, events...)
	if err := r.upsert(ctx, id, allEvents); err != nil {
		return err
	}
	go r.publishEvents(allEvents)
	return nil
}

func (r *eventRepository) Load(
	ctx context.Context, id uint64,
) (*domain.Round, error) {
	events, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(events) <= 0 {
		return nil, domain.ErrRoundNotFound
	}
	return domain.NewRoundFromEvents(events), nil
}

func (r *eventRepository) RegisterEventsHandler(
	handler func(round *domain.Round),
) {
	r.handler = handler
}

func (r *eventRepository) Close() {
	close(r.chUpdates)
	r.store.Close()
}

func (r *eventRepository) get(
	_ context.Context, id uint64,
) ([]domain.RoundEvent, error) {
	dto := eventsDTO{}
	if err := r.store.Get(id, &dto); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get events of round %d: %s", id, err)
	}

	return deserializeEvents(dto.Events)
}

func (r *eventRepository) upsert(
	_ context.Context, id uint64, events []domain.RoundEvent,
) error {
	rawEvents, err := serializeEvents(events)
	if err != nil {
		return err
	}
	if err := r.store.Upsert(id, eventsDTO{rawEvents}); err != nil {
		return fmt.Errorf("failed to upsert events of round %d: %s", id, err)
	}
	return nil
}

func (r *eventRepository) listen() {
	for updatedRound := range r.chUpdates {
		if r.handler != nil {
			r.handler(updatedRound)
		}
	}
}

func (r *eventRepository) publishEvents(events []domain.RoundEvent) {
	r.lock.Lock()
	defer r.lock.Unlock()
	round := domain.NewRoundFromEvents(events)
	r.chUpdates <- round
}
