package domain

import "fmt"

// Ticket is a participant entry. Tickets join a round only while it is
// pending, the committed set is what the draw is replayed against.
type Ticket struct {
	TicketId string
	RoundId  uint64
	Amount   uint64
}

func (t Ticket) Validate() error {
	if len(t.TicketId) <= 0 {
		return fmt.Errorf("missing ticket id")
	}
	if t.RoundId <= 0 {
		return fmt.Errorf("missing round id")
	}
	if t.Amount <= 0 {
		return fmt.Errorf("missing ticket amount")
	}
	return nil
}

// SeedCommitment stores the plaintext seed next to its public hash so the
// draw can be replayed and audited after the reveal. Append-only.
type SeedCommitment struct {
	RoundId   uint64
	Seed      []byte
	SeedHash  string
	Timestamp int64
}

// WinnerRecord is written exactly once per round, before any payout side
// effect is attempted.
type WinnerRecord struct {
	RoundId   uint64
	Winner    string
	Prize     uint64
	Fee       uint64
	BlockHash string
	Timestamp int64
}

// DeadLetterEntry holds an announcement that exhausted its retry budget.
// It is consumed out-of-band only, the engine never reads it back.
type DeadLetterEntry struct {
	Id        string
	Kind      int32
	Payload   []byte
	Reason    string
	Attempts  int
	Timestamp int64
}

type FailedPayout struct {
	Id        string
	RoundId   uint64
	Recipient string
	Amount    uint64
	Memo      string
	Reason    string
	Timestamp int64
}
