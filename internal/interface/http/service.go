package httpservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	appconfig "github.com/fairdraw/fairdraw/internal/app-config"
	interfaces "github.com/fairdraw/fairdraw/internal/interface"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Port uint32
}

func (c Config) Validate() error {
	if c.Port == 0 {
		return fmt.Errorf("missing port")
	}
	lis, err := net.Listen("tcp", c.address())
	if err != nil {
		return fmt.Errorf("port %d not available: %s", c.Port, err)
	}
	// nolint:all
	lis.Close()
	return nil
}

func (c Config) address() string {
	return fmt.Sprintf(":%d", c.Port)
}

type service struct {
	config    Config
	appConfig *appconfig.Config
	server    *http.Server
}

func NewService(
	svcConfig Config, appConfig *appconfig.Config,
) (interfaces.Service, error) {
	if err := svcConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %s", err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid app config: %s", err)
	}

	handler := newHandler(appConfig.AppService())
	server := &http.Server{
		Addr:         svcConfig.address(),
		Handler:      handler.router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return &service{svcConfig, appConfig, server}, nil
}

func (s *service) Start() error {
	// nolint:all
	go s.server.ListenAndServe()
	log.Infof("started listening at %s", s.config.address())

	if err := s.appConfig.AppService().Start(); err != nil {
		return fmt.Errorf("failed to start app service: %s", err)
	}
	log.Info("started app service")
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// nolint:all
	s.server.Shutdown(ctx)
	log.Info("stopped http server")
	s.appConfig.AppService().Stop()
	log.Info("stopped app service")
}
