package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fairdraw/fairdraw/internal/core/domain"
	"github.com/fairdraw/fairdraw/internal/core/ports"
	"github.com/fairdraw/fairdraw/pkg/fairness"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const seedSize = 32

type Service interface {
	Start() error
	Stop()
	StartRound(ctx context.Context) (*domain.Round, error)
	RegisterTicket(ctx context.Context, ticketId string, amount uint64) (*domain.Ticket, error)
	GetCurrentRound(ctx context.Context) (*domain.Round, error)
	GetRoundWithId(ctx context.Context, id uint64) (*domain.Round, error)
	GetSeedCommitment(ctx context.Context, roundId uint64) (*domain.SeedCommitment, error)
	GetWinnerRecord(ctx context.Context, roundId uint64) (*domain.WinnerRecord, error)
}

type service struct {
	roundInterval         int64
	participantsThreshold int64
	maxTickets            int
	blockHorizon          int64
	operatorAddr          string

	repoManager ports.RepoManager
	oracle      ports.ChainOracle
	payout      ports.PayoutService
	scheduler   ports.SchedulerService
	announcer   *Announcer
}

func NewService(
	roundInterval, participantsThreshold int64, maxTickets int, blockHorizon int64,
	operatorAddr string,
	repoManager ports.RepoManager, oracle ports.ChainOracle,
	payout ports.PayoutService, publisher ports.EventPublisher,
	scheduler ports.SchedulerService,
) (Service, error) {
	if blockHorizon <= 0 {
		return nil, fmt.Errorf("block horizon must be positive")
	}
	if maxTickets <= 0 {
		return nil, fmt.Errorf("max tickets must be positive")
	}

	announcer := NewAnnouncer(
		publisher, repoManager.DeadLetters(),
		defaultAnnounceAttempts, defaultAnnounceDelay,
	)
	svc := &service{
		roundInterval, participantsThreshold, maxTickets, blockHorizon,
		operatorAddr, repoManager, oracle, payout, scheduler, announcer,
	}
	repoManager.RegisterEventsHandler(svc.updateProjectionStore)

	return svc, nil
}

func (s *service) Start() error {
	log.Debug("starting draw engine")
	if err := s.scheduler.ScheduleTask(s.roundInterval, false, s.tick); err != nil {
		return err
	}
	s.scheduler.Start()
	return nil
}

func (s *service) Stop() {
	s.scheduler.Stop()
	log.Debug("stopped scheduler")
	s.announcer.Close()
	log.Debug("closed connection to relay")
	s.payout.Close()
	log.Debug("closed connection to payout rail")
	s.repoManager.Close()
	log.Debug("closed connection to db")
}

// StartRound opens round n+1 if and only if no round is pending or in
// countdown. The scheduler never creates rounds, it only advances them.
func (s *service) StartRound(ctx context.Context) (*domain.Round, error) {
	if _, err := s.repoManager.Rounds().GetCurrentRound(ctx); err == nil {
		return nil, fmt.Errorf("a round is already active")
	} else if !errors.Is(err, domain.ErrNoActiveRound) {
		return nil, err
	}

	lastId, err := s.repoManager.Rounds().GetLastRoundId(ctx)
	if err != nil {
		return nil, err
	}

	round := domain.NewRound(lastId + 1)
	changes, err := round.Open()
	if err != nil {
		return nil, err
	}
	if err := s.repoManager.Events().Save(ctx, round.Id, changes...); err != nil {
		return nil, fmt.Errorf("failed to store round events: %s", err)
	}

	log.Debugf("opened round %d", round.Id)
	return round, nil
}

// RegisterTicket enrolls a ticket into the current round. Tickets are
// accepted only while the round is pending, once the ticket set is
// committed the list is expected to be frozen.
func (s *service) RegisterTicket(
	ctx context.Context, ticketId string, amount uint64,
) (*domain.Ticket, error) {
	round, err := s.repoManager.Rounds().GetCurrentRound(ctx)
	if err != nil {
		return nil, err
	}
	if !round.IsPending() {
		return nil, fmt.Errorf("not in a valid state to register tickets")
	}

	count, err := s.repoManager.Tickets().CountTicketsForRound(ctx, round.Id)
	if err != nil {
		return nil, err
	}
	if count >= int64(s.maxTickets) {
		return nil, fmt.Errorf("round %d is full", round.Id)
	}

	ticket := domain.Ticket{TicketId: ticketId, RoundId: round.Id, Amount: amount}
	if err := s.repoManager.Tickets().AddTicket(ctx, ticket); err != nil {
		return nil, err
	}

	log.Debugf("registered ticket %s for round %d", ticketId, round.Id)
	return &ticket, nil
}

func (s *service) GetCurrentRound(ctx context.Context) (*domain.Round, error) {
	return s.repoManager.Rounds().GetCurrentRound(ctx)
}

func (s *service) GetRoundWithId(ctx context.Context, id uint64) (*domain.Round, error) {
	return s.repoManager.Rounds().GetRoundWithId(ctx, id)
}

func (s *service) GetSeedCommitment(
	ctx context.Context, roundId uint64,
) (*domain.SeedCommitment, error) {
	return s.repoManager.Commitments().GetSeedCommitment(ctx, roundId)
}

func (s *service) GetWinnerRecord(
	ctx context.Context, roundId uint64,
) (*domain.WinnerRecord, error) {
	return s.repoManager.Commitments().GetWinnerRecord(ctx, roundId)
}

// tick samples external state once and decides which phase transition, if
// any, to trigger. It holds no state of its own between invocations.
func (s *service) tick() {
	ctx := context.Background()

	round, err := s.repoManager.Rounds().GetCurrentRound(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveRound) {
			log.Debug("no active round")
			return
		}
		log.WithError(err).Warn("failed to retrieve current round")
		return
	}

	switch {
	case round.IsPending():
		count, err := s.repoManager.Tickets().CountTicketsForRound(ctx, round.Id)
		if err != nil {
			log.WithError(err).Warnf("failed to count participants for round %d", round.Id)
			return
		}
		if count < s.participantsThreshold {
			log.Debugf(
				"round %d waiting for participants: %d/%d",
				round.Id, count, s.participantsThreshold,
			)
			return
		}

		if len(round.SeedHash) <= 0 {
			if err := s.commitSeed(ctx, round); err != nil {
				log.WithError(err).Warnf("failed to commit seed for round %d", round.Id)
				return
			}
		}

		tip, err := s.oracle.GetBlockHeight(ctx)
		if err != nil {
			log.WithError(err).Warn("failed to fetch chain tip")
			return
		}
		if err := s.commitTicketSet(ctx, round, tip+s.blockHorizon); err != nil {
			log.WithError(err).Warnf("failed to commit ticket set for round %d", round.Id)
		}
	case round.IsCountdown():
		tip, err := s.oracle.GetBlockHeight(ctx)
		if err != nil {
			log.WithError(err).Warn("failed to fetch chain tip")
			return
		}
		if tip < round.FutureBlock {
			log.Debugf(
				"round %d waiting for block %d, tip is %d",
				round.Id, round.FutureBlock, tip,
			)
			return
		}
		if err := s.resolveDraw(ctx, round); err != nil {
			log.WithError(err).Warnf("failed to resolve draw for round %d", round.Id)
			s.recordFailure(ctx, round.Id, ports.EventDrawResolved, err)
		}
	}
}

// commitSeed draws a fresh random secret, persists the commitment and
// announces the hash. The plaintext seed never leaves the commitment
// store until the round is done.
func (s *service) commitSeed(ctx context.Context, round *domain.Round) error {
	seed := make([]byte, seedSize)
	if _, err := rand.Read(seed); err != nil {
		return fmt.Errorf("failed to generate seed: %s", err)
	}
	seedHash := hex.EncodeToString(fairness.ContentHash(seed))

	changes, err := round.CommitSeed(seedHash)
	if err != nil {
		return err
	}

	// The commitment is durable before anything is published.
	if err := s.repoManager.Commitments().AddSeedCommitment(ctx, domain.SeedCommitment{
		RoundId:   round.Id,
		Seed:      seed,
		SeedHash:  seedHash,
		Timestamp: time.Now().Unix(),
	}); err != nil {
		return fmt.Errorf("failed to store seed commitment: %s", err)
	}
	if err := s.repoManager.Events().Save(ctx, round.Id, changes...); err != nil {
		return fmt.Errorf("failed to store round events: %s", err)
	}

	s.announce(ctx, ports.EventSeedCommitted, seedCommittedPayload{
		RoundId:  round.Id,
		SeedHash: seedHash,
	})
	seedCommitmentsCounter.Inc()

	log.Debugf("committed seed for round %d", round.Id)
	return nil
}

// commitTicketSet freezes the public commitment to the ticket set and
// starts the countdown towards the resolving block height.
func (s *service) commitTicketSet(
	ctx context.Context, round *domain.Round, futureBlock int64,
) error {
	tickets, err := s.repoManager.Tickets().ListTicketIdsForRound(ctx, round.Id)
	if err != nil {
		return fmt.Errorf("failed to list tickets: %s", err)
	}
	if err := s.validateTicketList(tickets); err != nil {
		return err
	}

	merkleRoot := fairness.MerkleRoot(tickets)

	changes, err := round.CommitTicketSet(merkleRoot, futureBlock)
	if err != nil {
		return err
	}
	if err := s.repoManager.Events().Save(ctx, round.Id, changes...); err != nil {
		return fmt.Errorf("failed to store round events: %s", err)
	}

	s.announce(ctx, ports.EventTicketSetCommitted, ticketSetCommittedPayload{
		RoundId:     round.Id,
		MerkleRoot:  merkleRoot,
		FutureBlock: futureBlock,
	})
	ticketSetCommitmentsCounter.Inc()

	log.Debugf(
		"committed ticket set for round %d, draw at block %d", round.Id, futureBlock,
	)
	return nil
}

// resolveDraw derives the winner from the committed seed mixed with the
// resolving block hash. The winner record is durable before any payout
// side effect is attempted and the round is never rolled back.
func (s *service) resolveDraw(ctx context.Context, round *domain.Round) error {
	if !round.IsCountdown() {
		return fmt.Errorf("not in a valid state to resolve the draw")
	}

	blockHash, err := s.oracle.GetBlockHash(ctx, round.FutureBlock)
	if err != nil {
		return fmt.Errorf("failed to fetch block hash at height %d: %s", round.FutureBlock, err)
	}

	commitment, err := s.repoManager.Commitments().GetSeedCommitment(ctx, round.Id)
	if err != nil {
		return fmt.Errorf("failed to load seed commitment: %s", err)
	}

	tickets, err := s.repoManager.Tickets().ListTicketIdsForRound(ctx, round.Id)
	if err != nil {
		return fmt.Errorf("failed to list tickets: %s", err)
	}
	if err := s.validateTicketList(tickets); err != nil {
		return err
	}
	// Registration is not locked at commitment time. The draw uses the
	// list as read now, the committed root stays the public commitment.
	if root := fairness.MerkleRoot(tickets); root != round.MerkleRoot {
		log.Warnf(
			"draw-time ticket set of round %d differs from committed root %s",
			round.Id, round.MerkleRoot,
		)
	}

	shuffleSeed := fairness.DeriveShuffleSeed(commitment.Seed, blockHash.CloneBytes())
	winner := fairness.Shuffle(tickets, shuffleSeed)[0]

	pool, err := s.repoManager.Tickets().SumTicketAmountsForRound(ctx, round.Id)
	if err != nil {
		return fmt.Errorf("failed to compute pool: %s", err)
	}
	prize, fee := fairness.SplitPool(pool)

	if err := s.repoManager.Commitments().AddWinnerRecord(ctx, domain.WinnerRecord{
		RoundId:   round.Id,
		Winner:    winner,
		Prize:     prize,
		Fee:       fee,
		BlockHash: blockHash.String(),
		Timestamp: time.Now().Unix(),
	}); err != nil {
		return fmt.Errorf("failed to store winner record: %s", err)
	}

	changes, err := round.ResolveDraw(winner, prize, fee, blockHash.String())
	if err != nil {
		return err
	}
	if err := s.repoManager.Events().Save(ctx, round.Id, changes...); err != nil {
		return fmt.Errorf("failed to store round events: %s", err)
	}

	s.pay(ctx, round.Id, winner, prize, fmt.Sprintf("fairdraw round %d prize", round.Id))
	if fee > 0 && len(s.operatorAddr) > 0 {
		s.pay(ctx, round.Id, s.operatorAddr, fee, fmt.Sprintf("fairdraw round %d fee", round.Id))
	}

	s.announce(ctx, ports.EventDrawResolved, drawResolvedPayload{
		RoundId:   round.Id,
		Winner:    winner,
		Prize:     prize,
		Fee:       fee,
		BlockHash: blockHash.String(),
	})
	roundsResolvedCounter.Inc()

	log.Debugf("resolved round %d, winner %s, prize %d, fee %d", round.Id, winner, prize, fee)
	return nil
}

func (s *service) validateTicketList(tickets []string) error {
	if len(tickets) <= 0 {
		return fmt.Errorf("no tickets registered")
	}
	if len(tickets) > s.maxTickets {
		return fmt.Errorf(
			"ticket list exceeds maximum size: %d > %d", len(tickets), s.maxTickets,
		)
	}
	return nil
}

func (s *service) pay(
	ctx context.Context, roundId uint64, recipient string, amount uint64, memo string,
) {
	if _, err := s.payout.Pay(ctx, recipient, amount, memo); err != nil {
		log.WithError(err).Warnf("failed to pay %d to %s for round %d", amount, recipient, roundId)
		if dbErr := s.repoManager.DeadLetters().AddFailedPayout(ctx, domain.FailedPayout{
			Id:        uuid.New().String(),
			RoundId:   roundId,
			Recipient: recipient,
			Amount:    amount,
			Memo:      memo,
			Reason:    err.Error(),
			Timestamp: time.Now().Unix(),
		}); dbErr != nil {
			log.WithError(dbErr).Warn("failed to record failed payout")
		}
		failedPayoutsCounter.Inc()
	}
}

func (s *service) announce(ctx context.Context, kind ports.EventKind, payload interface{}) {
	buf, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Warnf("failed to serialize event %d", kind)
		return
	}
	// Fire-and-forget with respect to round progress, the result only
	// feeds logs and metrics.
	s.announcer.Announce(ctx, ports.Event{
		Kind:      kind,
		Timestamp: time.Now().Unix(),
		Payload:   buf,
	})
}

func (s *service) updateProjectionStore(round *domain.Round) {
	ctx := context.Background()
	for {
		if err := s.repoManager.Rounds().AddOrUpdateRound(ctx, *round); err != nil {
			log.WithError(err).Warn("failed to update round projection, retrying soon")
			time.Sleep(100 * time.Millisecond)
			continue
		}
		break
	}
}

func (s *service) recordFailure(
	ctx context.Context, roundId uint64, kind ports.EventKind, failure error,
) {
	buf, _ := json.Marshal(map[string]uint64{"roundId": roundId})
	if err := s.repoManager.DeadLetters().AddDeadLetter(ctx, domain.DeadLetterEntry{
		Id:        uuid.New().String(),
		Kind:      int32(kind),
		Payload:   buf,
		Reason:    failure.Error(),
		Attempts:  1,
		Timestamp: time.Now().Unix(),
	}); err != nil {
		log.WithError(err).Warnf("failed to record failure for round %d", roundId)
	}
}

type seedCommittedPayload struct {
	RoundId  uint64 `json:"roundId"`
	SeedHash string `json:"seedHash"`
}

type ticketSetCommittedPayload struct {
	RoundId     uint64 `json:"roundId"`
	MerkleRoot  string `json:"merkleRoot"`
	FutureBlock int64  `json:"futureBlock"`
}

type drawResolvedPayload struct {
	RoundId   uint64 `json:"roundId"`
	Winner    string `json:"winner"`
	Prize     uint64 `json:"prize"`
	Fee       uint64 `json:"fee"`
	BlockHash string `json:"blockHash"`
}
