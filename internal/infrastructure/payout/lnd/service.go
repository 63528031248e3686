package lnd

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/fairdraw/fairdraw/internal/core/ports"
	"github.com/lightningnetwork/lnd/lnrpc"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// service pays prizes and fees over a lightning node. Recipients are
// node identifiers, the memo ends up in the payment record for audit.
type service struct {
	addr   string
	conn   *grpc.ClientConn
	client lnrpc.LightningClient
}

func NewService(addr string) (ports.PayoutService, error) {
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &service{
		addr:   addr,
		conn:   conn,
		client: lnrpc.NewLightningClient(conn),
	}, nil
}

func (s *service) Pay(
	ctx context.Context, recipient string, amount uint64, memo string,
) (string, error) {
	log.Debugf("paying %d to %s (%s)", amount, recipient, memo)
	resp, err := s.client.SendPaymentSync(ctx, &lnrpc.SendRequest{
		DestString: recipient,
		Amt:        int64(amount),
	})
	if err != nil {
		return "", err
	}
	if len(resp.GetPaymentError()) > 0 {
		return "", fmt.Errorf("payment failed: %s", resp.GetPaymentError())
	}
	return hex.EncodeToString(resp.GetPaymentPreimage()), nil
}

func (s *service) Close() {
	// nolint:all
	s.conn.Close()
}
