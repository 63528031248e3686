package main

import (
	"os"
	"os/signal"
	"syscall"

	appconfig "github.com/fairdraw/fairdraw/internal/app-config"
	"github.com/fairdraw/fairdraw/internal/config"
	httpservice "github.com/fairdraw/fairdraw/internal/interface/http"
	log "github.com/sirupsen/logrus"
)

//nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	svcConfig := httpservice.Config{
		Port: cfg.Port,
	}
	appConfig := &appconfig.Config{
		DbType:                cfg.DbType,
		DbDir:                 cfg.DbDir,
		SchedulerType:         cfg.SchedulerType,
		RoundInterval:         cfg.RoundInterval,
		ParticipantsThreshold: cfg.ParticipantsThreshold,
		MaxTickets:            cfg.MaxTickets,
		BlockHorizon:          cfg.BlockHorizon,
		EsploraURL:            cfg.EsploraURL,
		LndAddr:               cfg.LndAddr,
		OperatorAddress:       cfg.OperatorAddress,
		RelayTopic:            cfg.RelayTopic,
		RelayBootstrapPeers:   cfg.RelayBootstrapPeers,
	}
	svc, err := httpservice.NewService(svcConfig, appConfig)
	if err != nil {
		log.Fatal(err)
	}

	log.RegisterExitHandler(svc.Stop)

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		log.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)
}
