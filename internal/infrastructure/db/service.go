package db

import (
	"fmt"

	"github.com/fairdraw/fairdraw/internal/core/domain"
	"github.com/fairdraw/fairdraw/internal/core/ports"
	badgerdb "github.com/fairdraw/fairdraw/internal/infrastructure/db/badger"
	dbtypes "github.com/fairdraw/fairdraw/internal/infrastructure/db/types"
)

var (
	eventStoreTypes = map[string]func(...interface{}) (dbtypes.EventStore, error){
		"badger": badgerdb.NewRoundEventRepository,
	}
	roundStoreTypes = map[string]func(...interface{}) (dbtypes.RoundStore, error){
		"badger": badgerdb.NewRoundRepository,
	}
	ticketStoreTypes = map[string]func(...interface{}) (dbtypes.TicketStore, error){
		"badger": badgerdb.NewTicketRepository,
	}
	commitmentStoreTypes = map[string]func(...interface{}) (dbtypes.CommitmentStore, error){
		"badger": badgerdb.NewCommitmentRepository,
	}
	deadLetterStoreTypes = map[string]func(...interface{}) (dbtypes.DeadLetterStore, error){
		"badger": badgerdb.NewDeadLetterRepository,
	}
)

type ServiceConfig struct {
	EventStoreType string
	DataStoreType  string

	EventStoreConfig []interface{}
	DataStoreConfig  []interface{}
}

type service struct {
	eventStore      dbtypes.EventStore
	roundStore      dbtypes.RoundStore
	ticketStore     dbtypes.TicketStore
	commitmentStore dbtypes.CommitmentStore
	deadLetterStore dbtypes.DeadLetterStore
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	eventStoreFactory, ok := eventStoreTypes[config.EventStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid event store type: %s", config.EventStoreType)
	}
	eventStore, err := eventStoreFactory(config.EventStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create event store: %w", err)
	}

	roundStoreFactory, ok := roundStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	ticketStoreFactory := ticketStoreTypes[config.DataStoreType]
	commitmentStoreFactory := commitmentStoreTypes[config.DataStoreType]
	deadLetterStoreFactory := deadLetterStoreTypes[config.DataStoreType]

	roundStore, err := roundStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create round store: %w", err)
	}
	ticketStore, err := ticketStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket store: %w", err)
	}
	commitmentStore, err := commitmentStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create commitment store: %w", err)
	}
	deadLetterStore, err := deadLetterStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create dead-letter store: %w", err)
	}

	return &service{
		eventStore:      eventStore,
		roundStore:      roundStore,
		ticketStore:     ticketStore,
		commitmentStore: commitmentStore,
		deadLetterStore: deadLetterStore,
	}, nil
}

func (s *service) RegisterEventsHandler(handler func(round *domain.Round)) {
	s.eventStore.RegisterEventsHandler(handler)
}

func (s *service) Events() domain.RoundEventRepository {
	return s.eventStore
}

func (s *service) Rounds() domain.RoundRepository {
	return s.roundStore
}

func (s *service) Tickets() domain.TicketRepository {
	return s.ticketStore
}

func (s *service) Commitments() domain.CommitmentRepository {
	return s.commitmentStore
}

func (s *service) DeadLetters() domain.DeadLetterRepository {
	return s.deadLetterStore
}

func (s *service) Close() {
	s.eventStore.Close()
	s.roundStore.Close()
	s.ticketStore.Close()
	s.commitmentStore.Close()
	s.deadLetterStore.Close()
}
