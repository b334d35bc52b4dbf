// Command kbequiv serves the ontology-equivalence resolver over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/kbequiv/internal/api"
	"github.com/persistorai/kbequiv/internal/config"
	"github.com/persistorai/kbequiv/internal/resolver"
	"github.com/persistorai/kbequiv/internal/service"
	"github.com/persistorai/kbequiv/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("loading config")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("parsing log level")
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("server exited")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "kbequiv",
		ServiceVersion: config.Version,
		Exporter:       cfg.TracesExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		OTLPInsecure:   cfg.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := shutdownTracing(tctx); err != nil {
			log.WithError(err).Warn("tracing shutdown")
		}
	}()

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.close()

	classification, err := cfg.Classification()
	if err != nil {
		return fmt.Errorf("edge classification: %w", err)
	}

	oracle := service.NewInstrumentedOracle(backend.oracle, log)
	engine := resolver.NewEngine(oracle, log,
		resolver.WithBatchSize(cfg.BatchSize),
		resolver.WithConcurrency(cfg.BatchConcurrency),
	)
	svc := service.NewResolveService(engine, service.Defaults{
		TargetClass:      cfg.TargetClass,
		AliasDepth:       cfg.AliasDepth,
		DirectionalDepth: cfg.DirectionalDepth,
		Classification:   classification,
		Timeout:          cfg.QueryTimeout,
	}, log)

	handler := api.NewRouter(ctx, &api.RouterDeps{
		Log:            log,
		Service:        svc,
		Pinger:         oracle,
		APIKey:         cfg.APIKey.Value(),
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Version:        config.Version,
		Backend:        cfg.OracleBackend,
		SchemaVersion:  backend.schemaVersion,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Resolutions may run up to QUERY_TIMEOUT before the response is written.
		WriteTimeout: cfg.QueryTimeout + 15*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"backend": cfg.OracleBackend,
			"version": config.Version,
			"auth":    cfg.APIKey.Value() != "",
		}).Info("server.start")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listening: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server.shutdown")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	return nil
}
