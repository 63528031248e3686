package application

import (
	"context"
	"time"

	"github.com/fairdraw/fairdraw/internal/core/domain"
	"github.com/fairdraw/fairdraw/internal/core/ports"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	defaultAnnounceAttempts = 3
	defaultAnnounceDelay    = time.Second
)

const (
	Delivered AnnounceResult = iota
	DeadLettered
)

type AnnounceResult int

func (r AnnounceResult) String() string {
	if r == Delivered {
		return "DELIVERED"
	}
	return "DEAD_LETTERED"
}

// Announcer wraps the relay publisher with a fixed retry budget. Every
// failure is retried identically, there is no backoff and no error
// classification. When the budget is exhausted the event is persisted as
// a dead letter and the caller moves on, an announcement never blocks
// round progress.
type Announcer struct {
	publisher   ports.EventPublisher
	deadLetters domain.DeadLetterRepository
	attempts    int
	delay       time.Duration
}

func NewAnnouncer(
	publisher ports.EventPublisher, deadLetters domain.DeadLetterRepository,
	attempts int, delay time.Duration,
) *Announcer {
	if attempts <= 0 {
		attempts = defaultAnnounceAttempts
	}
	if delay < 0 {
		delay = defaultAnnounceDelay
	}
	return &Announcer{publisher, deadLetters, attempts, delay}
}

func (a *Announcer) Announce(ctx context.Context, event ports.Event) AnnounceResult {
	var lastErr error
	for i := 0; i < a.attempts; i++ {
		if i > 0 {
			time.Sleep(a.delay)
		}
		if err := a.publisher.Publish(ctx, event); err != nil {
			lastErr = err
			log.WithError(err).Debugf(
				"announcement attempt %d/%d failed for event %d", i+1, a.attempts, event.Kind,
			)
			continue
		}
		return Delivered
	}

	entry := domain.DeadLetterEntry{
		Id:        uuid.New().String(),
		Kind:      int32(event.Kind),
		Payload:   event.Payload,
		Reason:    lastErr.Error(),
		Attempts:  a.attempts,
		Timestamp: time.Now().Unix(),
	}
	if err := a.deadLetters.AddDeadLetter(ctx, entry); err != nil {
		// Best effort last resort, the entry is lost if this fails.
		log.WithError(err).Warnf("failed to dead-letter event %d", event.Kind)
	}
	deadLetteredCounter.Inc()
	log.Warnf("announcement for event %d dead-lettered after %d attempts", event.Kind, a.attempts)

	return DeadLettered
}

func (a *Announcer) Close() {
	a.publisher.Close()
}
