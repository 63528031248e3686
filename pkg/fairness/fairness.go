// Package fairness holds the deterministic primitives of the draw
// protocol: content hashing, merkle commitments and the seeded shuffle.
// Everything here is a pure function of its inputs so that any external
// verifier can recompute a draw from the published values.
package fairness

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSize is the digest size of the content hash, in bytes.
const HashSize = sha256.Size

// ContentHash is the single hash function of the protocol. The same
// function is used for merkle leaves, seed commitments and the shuffle
// seed, commitment and verification paths must never diverge.
func ContentHash(buf []byte) []byte {
	digest := sha256.Sum256(buf)
	return digest[:]
}

// MerkleRoot commits to an ordered list of ticket ids. Leaves are hashed
// independently, adjacent nodes are paired left-to-right and an odd node
// is paired with itself. The empty list yields the all-zero sentinel
// root rather than an error.
func MerkleRoot(ids []string) string {
	if len(ids) == 0 {
		return hex.EncodeToString(make([]byte, HashSize))
	}

	level := make([][]byte, 0, len(ids))
	for _, id := range ids {
		level = append(level, ContentHash([]byte(id)))
	}

	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, ContentHash(append(append([]byte{}, left...), right...)))
		}
		level = next
	}

	return hex.EncodeToString(level[0])
}

// Shuffle permutes items with a Fisher-Yates pass driven purely by the
// seed bytes: j = seed[i mod len(seed)] mod (i+1). Seed bytes are reused
// cyclically when the list outgrows the seed, which keeps the process
// reproducible from (items, seed) alone. The input slice is not mutated.
func Shuffle(items []string, seed []byte) []string {
	shuffled := append([]string{}, items...)
	if len(seed) == 0 {
		return shuffled
	}

	for i := len(shuffled) - 1; i >= 1; i-- {
		j := int(seed[i%len(seed)]) % (i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled
}

// DeriveShuffleSeed mixes the committed secret seed with the resolving
// block hash: bytes are XOR-combined position-wise, block hash bytes
// reused cyclically, and the result is content-hashed. The outcome
// depends on both values, neither party alone controls it.
func DeriveShuffleSeed(seed, blockHash []byte) []byte {
	if len(blockHash) == 0 {
		return ContentHash(seed)
	}

	combined := make([]byte, len(seed))
	for i := range seed {
		combined[i] = seed[i] ^ blockHash[i%len(blockHash)]
	}

	return ContentHash(combined)
}

// SplitPool computes prize and fee from the round pool: the prize is
// floor(pool * 0.99), the fee is the remainder, they always sum to the
// pool exactly.
func SplitPool(pool uint64) (prize, fee uint64) {
	prize = pool * 99 / 100
	fee = pool - prize
	return
}
