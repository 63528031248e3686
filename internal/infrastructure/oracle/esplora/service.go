package esplora

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/fairdraw/fairdraw/internal/core/ports"
)

// service talks to an Esplora-compatible block explorer. Only two
// endpoints are used: the chain tip height and the block hash at a
// given height.
type service struct {
	url    string
	client *http.Client
}

func NewService(baseURL string) (ports.ChainOracle, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid esplora url: %s", err)
	}
	return &service{
		url: baseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

func (s *service) GetBlockHeight(ctx context.Context) (int64, error) {
	body, err := s.get(ctx, "blocks", "tip", "height")
	if err != nil {
		return 0, err
	}
	height, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid tip height: %s", err)
	}
	return height, nil
}

func (s *service) GetBlockHash(ctx context.Context, height int64) (*chainhash.Hash, error) {
	endpoint, err := url.JoinPath(s.url, "block-height", strconv.FormatInt(height, 10))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("block %d not mined yet", height)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("block-height endpoint HTTP error: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	hash, err := chainhash.NewHashFromStr(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("invalid block hash for height %d: %s", height, err)
	}
	return hash, nil
}

func (s *service) get(ctx context.Context, elems ...string) ([]byte, error) {
	endpoint, err := url.JoinPath(s.url, elems...)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s endpoint HTTP error: %s", endpoint, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
