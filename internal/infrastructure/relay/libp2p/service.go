package libp2prelay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fairdraw/fairdraw/internal/core/ports"
	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	log "github.com/sirupsen/logrus"
)

// service publishes round events on a gossipsub topic. Delivery is
// best-effort, retry and dead-lettering happen upstream.
type service struct {
	host  host.Host
	topic *pubsub.Topic
}

func NewService(topicName string, bootstrapPeers []string) (ports.EventPublisher, error) {
	ctx := context.Background()

	h, err := libp2p.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create relay host: %s", err)
	}

	for _, addr := range bootstrapPeers {
		info, err := peer.AddrInfoFromString(addr)
		if err != nil {
			// nolint:all
			h.Close()
			return nil, fmt.Errorf("invalid bootstrap peer %s: %s", addr, err)
		}
		if err := h.Connect(ctx, *info); err != nil {
			log.WithError(err).Warnf("failed to connect to bootstrap peer %s", addr)
		}
	}

	gossipSub, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		// nolint:all
		h.Close()
		return nil, fmt.Errorf("failed to create gossipsub router: %s", err)
	}
	topic, err := gossipSub.Join(topicName)
	if err != nil {
		// nolint:all
		h.Close()
		return nil, fmt.Errorf("failed to join topic %s: %s", topicName, err)
	}

	log.Debugf("relay host %s joined topic %s", h.ID(), topicName)

	return &service{host: h, topic: topic}, nil
}

func (s *service) Publish(ctx context.Context, event ports.Event) error {
	buf, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.topic.Publish(ctx, buf)
}

func (s *service) Close() {
	// nolint:all
	s.topic.Close()
	// nolint:all
	s.host.Close()
}
