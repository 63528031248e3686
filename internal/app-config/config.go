package appconfig

import (
	"fmt"
	"strings"

	"github.com/fairdraw/fairdraw/internal/core/application"
	"github.com/fairdraw/fairdraw/internal/core/ports"
	"github.com/fairdraw/fairdraw/internal/infrastructure/db"
	"github.com/fairdraw/fairdraw/internal/infrastructure/oracle/esplora"
	"github.com/fairdraw/fairdraw/internal/infrastructure/payout/lnd"
	libp2prelay "github.com/fairdraw/fairdraw/internal/infrastructure/relay/libp2p"
	scheduler "github.com/fairdraw/fairdraw/internal/infrastructure/scheduler/gocron"
	log "github.com/sirupsen/logrus"
)

var (
	supportedDbs = supportedType{
		"badger": {},
	}
	supportedSchedulers = supportedType{
		"gocron": {},
	}
)

type Config struct {
	DbType                string
	DbDir                 string
	SchedulerType         string
	RoundInterval         int64
	ParticipantsThreshold int64
	MaxTickets            int
	BlockHorizon          int64
	EsploraURL            string
	LndAddr               string
	OperatorAddress       string
	RelayTopic            string
	RelayBootstrapPeers   []string

	repo      ports.RepoManager
	oracle    ports.ChainOracle
	payout    ports.PayoutService
	publisher ports.EventPublisher
	scheduler ports.SchedulerService
	svc       application.Service
}

func (c *Config) Validate() error {
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedSchedulers.supports(c.SchedulerType) {
		return fmt.Errorf("scheduler type not supported, please select one of: %s", supportedSchedulers)
	}
	if c.RoundInterval < 5 {
		return fmt.Errorf("invalid round interval, must be at least 5 seconds")
	}
	if len(c.EsploraURL) <= 0 {
		return fmt.Errorf("missing esplora url")
	}
	if len(c.OperatorAddress) <= 0 {
		return fmt.Errorf("missing operator address")
	}
	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.oracleService(); err != nil {
		return err
	}
	if err := c.payoutService(); err != nil {
		return fmt.Errorf("failed to connect to payout rail: %s", err)
	}
	if err := c.relayService(); err != nil {
		return fmt.Errorf("failed to join relay network: %s", err)
	}
	if err := c.schedulerService(); err != nil {
		return err
	}
	if err := c.appService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) AppService() application.Service {
	return c.svc
}

func (c *Config) repoManager() error {
	var svc ports.RepoManager
	var err error
	switch c.DbType {
	case "badger":
		logger := log.New()
		svc, err = db.NewService(db.ServiceConfig{
			EventStoreType: c.DbType,
			DataStoreType:  c.DbType,

			EventStoreConfig: []interface{}{c.DbDir, logger},
			DataStoreConfig:  []interface{}{c.DbDir, logger},
		})
	default:
		return fmt.Errorf("unknown db type")
	}
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) oracleService() error {
	svc, err := esplora.NewService(c.EsploraURL)
	if err != nil {
		return err
	}

	c.oracle = svc
	return nil
}

func (c *Config) payoutService() error {
	svc, err := lnd.NewService(c.LndAddr)
	if err != nil {
		return err
	}

	c.payout = svc
	return nil
}

func (c *Config) relayService() error {
	svc, err := libp2prelay.NewService(c.RelayTopic, c.RelayBootstrapPeers)
	if err != nil {
		return err
	}

	c.publisher = svc
	return nil
}

func (c *Config) schedulerService() error {
	switch c.SchedulerType {
	case "gocron":
		c.scheduler = scheduler.NewScheduler()
		return nil
	default:
		return fmt.Errorf("unknown scheduler type")
	}
}

func (c *Config) appService() error {
	svc, err := application.NewService(
		c.RoundInterval, c.ParticipantsThreshold, c.MaxTickets, c.BlockHorizon,
		c.OperatorAddress,
		c.repo, c.oracle, c.payout, c.publisher, c.scheduler,
	)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
