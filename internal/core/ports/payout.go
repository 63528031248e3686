package ports

import "context"

// PayoutService creates a payment instruction for the given amount,
// addressed to a recipient identifier. It may fail, the caller is in
// charge of recording the failure.
type PayoutService interface {
	Pay(ctx context.Context, recipient string, amount uint64, memo string) (string, error)
	Close()
}
