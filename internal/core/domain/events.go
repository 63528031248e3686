package domain

type RoundEvent interface {
	isEvent()
}

func (r RoundStarted) isEvent()          {}
func (r RoundSeedCommitted) isEvent()    {}
func (r RoundCountdownStarted) isEvent() {}
func (r RoundDrawResolved) isEvent()     {}

type RoundStarted struct {
	Id        uint64
	Timestamp int64
}

// RoundSeedCommitted carries the public commitment only, never the seed.
type RoundSeedCommitted struct {
	Id        uint64
	SeedHash  string
	Timestamp int64
}

type RoundCountdownStarted struct {
	Id          uint64
	MerkleRoot  string
	FutureBlock int64
}

type RoundDrawResolved struct {
	Id        uint64
	Winner    string
	Prize     uint64
	Fee       uint64
	BlockHash string
	Timestamp int64
}
