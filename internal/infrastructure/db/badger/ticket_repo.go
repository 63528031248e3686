package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/fairdraw/fairdraw/internal/core/domain"
	dbtypes "github.com/fairdraw/fairdraw/internal/infrastructure/db/types"
	"github.com/timshannon/badgerhold/v4"
)

const ticketStoreDir = "tickets"

type ticketRepository struct {
	store *badgerhold.Store
}

func NewTicketRepository(config ...interface{}) (dbtypes.TicketStore, error) {
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
		dir = filepath.Join(baseDir, ticketStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open ticket store: %s", err)
	}

	return &ticketRepository{store}, nil
}

func (r *ticketRepository) AddTicket(_ context.Context, ticket domain.Ticket) error {
	if err := ticket.Validate(); err != nil {
		return err
	}
	if err := r.store.Insert(ticket.TicketId, ticket); err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("ticket %s already exists", ticket.TicketId)
		}
		return err
	}
	return nil
}

// ListTicketIdsForRound returns ids sorted ascending, the order the
// merkle commitment is computed over.
func (r *ticketRepository) ListTicketIdsForRound(
	ctx context.Context, roundId uint64,
) ([]string, error) {
	tickets, err := r.findTickets(ctx, roundId)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(tickets))
	for _, ticket := range tickets {
		ids = append(ids, ticket.TicketId)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *ticketRepository) CountTicketsForRound(
	_ context.Context, roundId uint64,
) (int64, error) {
	count, err := r.store.Count(&domain.Ticket{}, badgerhold.Where("RoundId").Eq(roundId))
	if err != nil {
		return 0, err
	}
	return int64(count), nil
}

func (r *ticketRepository) SumTicketAmountsForRound(
	ctx context.Context, roundId uint64,
) (uint64, error) {
	tickets, err := r.findTickets(ctx, roundId)
	if err != nil {
		return 0, err
	}
	sum := uint64(0)
	for _, ticket := range tickets {
		sum += ticket.Amount
	}
	return sum, nil
}

func (r *ticketRepository) Close() {
	r.store.Close()
}

func (r *ticketRepository) findTickets(
	_ context.Context, roundId uint64,
) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	err := r.store.Find(&tickets, badgerhold.Where("RoundId").Eq(roundId))
	return tickets, err
}
