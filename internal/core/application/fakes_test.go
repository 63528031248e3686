package application

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/fairdraw/fairdraw/internal/core/domain"
	"github.com/fairdraw/fairdraw/internal/core/ports"
)

type fakeRepoManager struct {
	events      *fakeEventRepo
	rounds      *fakeRoundRepo
	tickets     *fakeTicketRepo
	commitments *fakeCommitmentRepo
	deadLetters *fakeDeadLetterRepo
}

func newFakeRepoManager() *fakeRepoManager {
	m := &fakeRepoManager{
		events:      &fakeEventRepo{log: make(map[uint64][]domain.RoundEvent)},
		rounds:      &fakeRoundRepo{rounds: make(map[uint64]domain.Round)},
		tickets:     &fakeTicketRepo{tickets: make(map[string]domain.Ticket)},
		commitments: &fakeCommitmentRepo{
			seeds:   make(map[uint64]domain.SeedCommitment),
			winners: make(map[uint64]domain.WinnerRecord),
		},
		deadLetters: &fakeDeadLetterRepo{},
	}
	return m
}

func (m *fakeRepoManager) Events() domain.RoundEventRepository        { return m.events }
func (m *fakeRepoManager) Rounds() domain.RoundRepository             { return m.rounds }
func (m *fakeRepoManager) Tickets() domain.TicketRepository           { return m.tickets }
func (m *fakeRepoManager) Commitments() domain.CommitmentRepository   { return m.commitments }
func (m *fakeRepoManager) DeadLetters() domain.DeadLetterRepository   { return m.deadLetters }
func (m *fakeRepoManager) RegisterEventsHandler(h func(*domain.Round)) {
	m.events.handler = h
}
func (m *fakeRepoManager) Close() {}

type fakeEventRepo struct {
	lock    sync.Mutex
	log     map[uint64][]domain.RoundEvent
	handler func(*domain.Round)
}

func (r *fakeEventRepo) Save(
	_ context.Context, id uint64, events ...domain.RoundEvent,
) error {
	r.lock.Lock()
	r.log[id] = append(r.log[id], events...)
	all := append([]domain.RoundEvent{}, r.log[id]...)
	handler := r.handler
	r.lock.Unlock()

	// Synchronous projection update keeps the tests deterministic.
	if handler != nil {
		handler(domain.NewRoundFromEvents(all))
	}
	return nil
}

func (r *fakeEventRepo) Load(_ context.Context, id uint64) (*domain.Round, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	events, ok := r.log[id]
	if !ok {
		return nil, domain.ErrRoundNotFound
	}
	return domain.NewRoundFromEvents(events), nil
}

type fakeRoundRepo struct {
	lock   sync.Mutex
	rounds map[uint64]domain.Round
}

func (r *fakeRoundRepo) AddOrUpdateRound(_ context.Context, round domain.Round) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.rounds[round.Id] = round
	return nil
}

func (r *fakeRoundRepo) GetCurrentRound(_ context.Context) (*domain.Round, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	var current *domain.Round
	for id := range r.rounds {
		round := r.rounds[id]
		if round.IsDone() {
			continue
		}
		if current == nil || round.Id < current.Id {
			current = &round
		}
	}
	if current == nil {
		return nil, domain.ErrNoActiveRound
	}
	return current, nil
}

func (r *fakeRoundRepo) GetRoundWithId(_ context.Context, id uint64) (*domain.Round, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	round, ok := r.rounds[id]
	if !ok {
		return nil, domain.ErrRoundNotFound
	}
	return &round, nil
}

func (r *fakeRoundRepo) GetLastRoundId(_ context.Context) (uint64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	last := uint64(0)
	for id := range r.rounds {
		if id > last {
			last = id
		}
	}
	return last, nil
}

type fakeTicketRepo struct {
	lock    sync.Mutex
	tickets map[string]domain.Ticket
}

func (r *fakeTicketRepo) AddTicket(_ context.Context, ticket domain.Ticket) error {
	if err := ticket.Validate(); err != nil {
		return err
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.tickets[ticket.TicketId]; ok {
		return fmt.Errorf("ticket %s already exists", ticket.TicketId)
	}
	r.tickets[ticket.TicketId] = ticket
	return nil
}

func (r *fakeTicketRepo) ListTicketIdsForRound(
	_ context.Context, roundId uint64,
) ([]string, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	ids := make([]string, 0)
	for _, t := range r.tickets {
		if t.RoundId == roundId {
			ids = append(ids, t.TicketId)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeTicketRepo) CountTicketsForRound(
	ctx context.Context, roundId uint64,
) (int64, error) {
	ids, _ := r.ListTicketIdsForRound(ctx, roundId)
	return int64(len(ids)), nil
}

func (r *fakeTicketRepo) SumTicketAmountsForRound(
	_ context.Context, roundId uint64,
) (uint64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	sum := uint64(0)
	for _, t := range r.tickets {
		if t.RoundId == roundId {
			sum += t.Amount
		}
	}
	return sum, nil
}

type fakeCommitmentRepo struct {
	lock    sync.Mutex
	seeds   map[uint64]domain.SeedCommitment
	winners map[uint64]domain.WinnerRecord
}

func (r *fakeCommitmentRepo) AddSeedCommitment(
	_ context.Context, commitment domain.SeedCommitment,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.seeds[commitment.RoundId]; ok {
		return fmt.Errorf("seed commitment for round %d already exists", commitment.RoundId)
	}
	r.seeds[commitment.RoundId] = commitment
	return nil
}

func (r *fakeCommitmentRepo) GetSeedCommitment(
	_ context.Context, roundId uint64,
) (*domain.SeedCommitment, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	commitment, ok := r.seeds[roundId]
	if !ok {
		return nil, fmt.Errorf("seed commitment for round %d not found", roundId)
	}
	return &commitment, nil
}

func (r *fakeCommitmentRepo) AddWinnerRecord(
	_ context.Context, record domain.WinnerRecord,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.winners[record.RoundId]; ok {
		return fmt.Errorf("winner record for round %d already exists", record.RoundId)
	}
	r.winners[record.RoundId] = record
	return nil
}

func (r *fakeCommitmentRepo) GetWinnerRecord(
	_ context.Context, roundId uint64,
) (*domain.WinnerRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	record, ok := r.winners[roundId]
	if !ok {
		return nil, fmt.Errorf("winner record for round %d not found", roundId)
	}
	return &record, nil
}

type fakeDeadLetterRepo struct {
	lock          sync.Mutex
	deadLetters   []domain.DeadLetterEntry
	failedPayouts []domain.FailedPayout
	failAdd       bool
}

func (r *fakeDeadLetterRepo) AddDeadLetter(
	_ context.Context, entry domain.DeadLetterEntry,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.failAdd {
		return fmt.Errorf("dead-letter store unavailable")
	}
	r.deadLetters = append(r.deadLetters, entry)
	return nil
}

func (r *fakeDeadLetterRepo) AddFailedPayout(
	_ context.Context, payout domain.FailedPayout,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.failedPayouts = append(r.failedPayouts, payout)
	return nil
}

type fakeOracle struct {
	height int64
	hashes map[int64]*chainhash.Hash
}

func (o *fakeOracle) GetBlockHeight(_ context.Context) (int64, error) {
	return o.height, nil
}

func (o *fakeOracle) GetBlockHash(
	_ context.Context, height int64,
) (*chainhash.Hash, error) {
	if height > o.height {
		return nil, fmt.Errorf("block %d not mined yet", height)
	}
	hash, ok := o.hashes[height]
	if !ok {
		return nil, fmt.Errorf("block %d not found", height)
	}
	return hash, nil
}

type payment struct {
	recipient string
	amount    uint64
	memo      string
}

type fakePayout struct {
	lock     sync.Mutex
	payments []payment
	fail     bool
}

func (p *fakePayout) Pay(
	_ context.Context, recipient string, amount uint64, memo string,
) (string, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.fail {
		return "", fmt.Errorf("payout rail unreachable")
	}
	p.payments = append(p.payments, payment{recipient, amount, memo})
	return fmt.Sprintf("payment-%d", len(p.payments)), nil
}

func (p *fakePayout) Close() {}

type fakePublisher struct {
	lock      sync.Mutex
	published []ports.Event
	failures  int
}

func (p *fakePublisher) Publish(_ context.Context, event ports.Event) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.failures != 0 {
		if p.failures > 0 {
			p.failures--
		}
		return fmt.Errorf("relay unreachable")
	}
	p.published = append(p.published, event)
	return nil
}

func (p *fakePublisher) Close() {}

func (p *fakePublisher) events() []ports.Event {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]ports.Event{}, p.published...)
}

type fakeScheduler struct {
	task func()
}

func (s *fakeScheduler) Start() {}
func (s *fakeScheduler) Stop()  {}
func (s *fakeScheduler) ScheduleTask(_ int64, _ bool, task func()) error {
	s.task = task
	return nil
}
