package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lixing-Zhang/campus-queue/internal/config"
	"github.com/Lixing-Zhang/campus-queue/internal/handlers"
	"github.com/Lixing-Zhang/campus-queue/internal/repository"
)

// stores bundles the persistence backends selected by ORDER_STORE
type stores struct {
	orders   repository.OrderRepository
	profiles repository.ProfileRepository
	checks   map[string]handlers.HealthCheck
	closers  []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores connects the configured order store.
// Profiles live in Redis for the redis backend and in memory otherwise.
func openStores(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (*stores, error) {
	st := &stores{checks: make(map[string]handlers.HealthCheck)}

	switch cfg.Backend {
	case config.StoreRedis:
		client, err := repository.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = client.Close() })
		st.orders = repository.NewRedisOrderRepository(client, cfg.RedisNamespace)
		st.profiles = repository.NewRedisProfileRepository(client, cfg.RedisNamespace)
		st.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		log.Info("using redis order store", "namespace", cfg.RedisNamespace)

	case config.StorePostgres:
		pool, err := repository.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, pool.Close)
		orders, err := repository.NewPostgresOrderRepository(ctx, pool)
		if err != nil {
			st.close()
			return nil, err
		}
		st.orders = orders
		st.profiles = repository.NewInMemoryProfileRepository()
		st.checks["postgres"] = pool.Ping
		log.Info("using postgres order store")

	case config.StoreMemory:
		st.orders = repository.NewInMemoryOrderRepository()
		st.profiles = repository.NewInMemoryProfileRepository()
		log.Info("using in-memory order store")

	default:
		return nil, fmt.Errorf("unsupported order store: %s", cfg.Backend)
	}

	return st, nil
}
