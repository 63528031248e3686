package ports

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ChainOracle exposes the source chain used to time and resolve draws.
type ChainOracle interface {
	GetBlockHeight(ctx context.Context) (int64, error)
	// GetBlockHash fails explicitly if the height has not been reached,
	// it never returns a placeholder hash.
	GetBlockHash(ctx context.Context, height int64) (*chainhash.Hash, error)
}
