package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
)

type Config struct {
	BaseDirectory         string
	DbType                string
	DbDir                 string
	SchedulerType         string
	Port                  uint32
	LogLevel              int
	RoundInterval         int64
	ParticipantsThreshold int64
	MaxTickets            int
	BlockHorizon          int64
	EsploraURL            string
	LndAddr               string
	OperatorAddress       string
	RelayTopic            string
	RelayBootstrapPeers   []string
}

var (
	Datadir               = "DATADIR"
	DbType                = "DB_TYPE"
	SchedulerType         = "SCHEDULER_TYPE"
	Port                  = "PORT"
	LogLevel              = "LOG_LEVEL"
	RoundInterval         = "ROUND_INTERVAL"
	ParticipantsThreshold = "PARTICIPANTS_THRESHOLD"
	MaxTickets            = "MAX_TICKETS"
	BlockHorizon          = "BLOCK_HORIZON"
	EsploraURL            = "ESPLORA_URL"
	LndAddr               = "LND_ADDR"
	OperatorAddress       = "OPERATOR_ADDRESS"
	RelayTopic            = "RELAY_TOPIC"
	RelayBootstrapPeers   = "RELAY_BOOTSTRAP_PEERS"

	defaultDatadir               = btcutil.AppDataDir("fairdrawd", false)
	defaultDbType                = "badger"
	defaultSchedulerType         = "gocron"
	defaultPort                  = 7070
	defaultLogLevel              = 5
	defaultRoundInterval         = 60
	defaultParticipantsThreshold = 10
	defaultMaxTickets            = 100
	defaultBlockHorizon          = 144
	defaultEsploraURL            = "https://blockstream.info/api"
	defaultRelayTopic            = "fairdraw/rounds"
)

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("FAIRDRAW")
	viper.AutomaticEnv()

	viper.SetDefault(Datadir, defaultDatadir)
	viper.SetDefault(DbType, defaultDbType)
	viper.SetDefault(SchedulerType, defaultSchedulerType)
	viper.SetDefault(Port, defaultPort)
	viper.SetDefault(LogLevel, defaultLogLevel)
	viper.SetDefault(RoundInterval, defaultRoundInterval)
	viper.SetDefault(ParticipantsThreshold, defaultParticipantsThreshold)
	viper.SetDefault(MaxTickets, defaultMaxTickets)
	viper.SetDefault(BlockHorizon, defaultBlockHorizon)
	viper.SetDefault(EsploraURL, defaultEsploraURL)
	viper.SetDefault(RelayTopic, defaultRelayTopic)

	if err := initDatadir(); err != nil {
		return nil, fmt.Errorf("error while creating datadir: %s", err)
	}

	var bootstrapPeers []string
	if peers := viper.GetString(RelayBootstrapPeers); len(peers) > 0 {
		bootstrapPeers = strings.Split(peers, ",")
	}

	cfg := &Config{
		BaseDirectory:         viper.GetString(Datadir),
		DbType:                viper.GetString(DbType),
		DbDir:                 filepath.Join(viper.GetString(Datadir), "db"),
		SchedulerType:         viper.GetString(SchedulerType),
		Port:                  viper.GetUint32(Port),
		LogLevel:              viper.GetInt(LogLevel),
		RoundInterval:         viper.GetInt64(RoundInterval),
		ParticipantsThreshold: viper.GetInt64(ParticipantsThreshold),
		MaxTickets:            viper.GetInt(MaxTickets),
		BlockHorizon:          viper.GetInt64(BlockHorizon),
		EsploraURL:            viper.GetString(EsploraURL),
		LndAddr:               viper.GetString(LndAddr),
		OperatorAddress:       viper.GetString(OperatorAddress),
		RelayTopic:            viper.GetString(RelayTopic),
		RelayBootstrapPeers:   bootstrapPeers,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RoundInterval < 5 {
		return fmt.Errorf("round interval must be at least 5 seconds")
	}
	if c.ParticipantsThreshold <= 0 {
		return fmt.Errorf("participants threshold must be positive")
	}
	if c.MaxTickets < int(c.ParticipantsThreshold) {
		return fmt.Errorf("max tickets must be at least the participants threshold")
	}
	if c.BlockHorizon <= 0 {
		return fmt.Errorf("block horizon must be positive")
	}
	if len(c.EsploraURL) <= 0 {
		return fmt.Errorf("missing esplora url")
	}
	if len(c.LndAddr) <= 0 {
		return fmt.Errorf("missing lnd address")
	}
	if len(c.OperatorAddress) <= 0 {
		return fmt.Errorf("missing operator address")
	}
	return nil
}

func initDatadir() error {
	datadir := viper.GetString(Datadir)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
