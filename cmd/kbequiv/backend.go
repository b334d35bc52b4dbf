package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/kbequiv/internal/config"
	"github.com/persistorai/kbequiv/internal/db"
	"github.com/persistorai/kbequiv/internal/db/migrations"
	"github.com/persistorai/kbequiv/internal/dbpool"
	"github.com/persistorai/kbequiv/internal/domain"
	"github.com/persistorai/kbequiv/internal/graphkb"
	"github.com/persistorai/kbequiv/internal/memgraph"
	"github.com/persistorai/kbequiv/internal/store"
)

// backend is the oracle selected by ORACLE_BACKEND plus its cleanup.
type backend struct {
	oracle        domain.Oracle
	schemaVersion int
	close         func()
}

func openBackend(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*backend, error) {
	switch cfg.OracleBackend {
	case config.BackendGraphKB:
		return openGraphKB(ctx, cfg, log)
	case config.BackendPostgres:
		return openPostgres(ctx, cfg, log)
	case config.BackendFile:
		g, err := memgraph.LoadFile(cfg.GraphFile)
		if err != nil {
			return nil, err
		}

		vertices, edges := g.Stats()
		log.WithFields(logrus.Fields{"file": cfg.GraphFile, "vertices": vertices, "edges": edges}).Info("graph file loaded")

		return &backend{oracle: g, close: func() {}}, nil
	default:
		return nil, fmt.Errorf("unknown oracle backend %q", cfg.OracleBackend)
	}
}

func openGraphKB(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*backend, error) {
	client, err := graphkb.New(graphkb.Config{
		BaseURL:    cfg.GraphKBURL,
		Username:   cfg.GraphKBUsername,
		Password:   cfg.GraphKBPassword.Value(),
		PageSize:   cfg.GraphKBPageSize,
		MaxRetries: cfg.GraphKBMaxRetries,
		RateLimit:  cfg.GraphKBRateLimit,
		CacheSize:  cfg.GraphKBCacheSize,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("creating graphkb client: %w", err)
	}

	if cfg.GraphKBUsername != "" {
		if err := client.Login(ctx); err != nil {
			return nil, fmt.Errorf("graphkb login: %w", err)
		}
	}

	closeFn := func() {
		s := client.Stats()
		log.WithFields(logrus.Fields{
			"requests":   s.Requests,
			"cache_hits": s.CacheHits,
			"load":       s.Load,
		}).Info("graphkb.stats")
	}

	return &backend{oracle: client, close: closeFn}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*backend, error) {
	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), cfg.DBMaxConns)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
			pool.Close()

			return nil, err
		}
	}

	gs := store.NewGraphStore(pool, log)

	vertices, edges, err := gs.Counts(ctx)
	if err != nil {
		pool.Close()

		return nil, fmt.Errorf("reading graph size (run with RUN_MIGRATIONS=true to create the schema): %w", err)
	}

	log.WithFields(logrus.Fields{"vertices": vertices, "edges": edges}).Info("postgres graph opened")

	return &backend{oracle: gs, schemaVersion: db.SchemaVersion(), close: pool.Close}, nil
}
