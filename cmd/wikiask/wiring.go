package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/wikiask/config"
	"github.com/mohammad-safakhou/wikiask/internal/knowledge/provider"
	"github.com/mohammad-safakhou/wikiask/internal/skill"
	"github.com/mohammad-safakhou/wikiask/internal/telemetry"
	"github.com/mohammad-safakhou/wikiask/session"
	"github.com/mohammad-safakhou/wikiask/session/inmemory"
	redis_session "github.com/mohammad-safakhou/wikiask/session/redis"
)

// app is everything a command needs to hold a conversation.
type app struct {
	skill    *skill.Skill
	sessions session.Store
	registry *prometheus.Registry
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}
	var metrics *telemetry.Metrics
	if cfg.Telemetry.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
		m, err := telemetry.NewMetrics(cfg.Telemetry.Namespace, a.registry)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		metrics = m
	}

	src, closeSrc, err := provider.NewSource(cfg.Knowledge, logger, metrics)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeSrc)

	sessions, closeSessions, err := newSessionStore(ctx, cfg.Storage, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.sessions = sessions
	a.closers = append(a.closers, closeSessions)

	a.skill = skill.NewFromConfig(cfg, src, logger, metrics)
	return a, nil
}

func newSessionStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (session.Store, func(), error) {
	switch session.StoreType(cfg.Session.Type) {
	case session.RedisStore:
		store := redis_session.NewRedisSessionStore(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Session.TTL)
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.Timeout)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("redis session store: %w", err)
		}
		logger.Info("session store ready", zap.String("type", "redis"), zap.String("addr", cfg.Redis.Addr()))
		return store, func() { _ = store.Close() }, nil
	default:
		logger.Debug("session store ready", zap.String("type", "inmemory"))
		return inmemory.NewInMemorySessionStore(cfg.Session.TTL), func() {}, nil
	}
}
