// Package provider builds the configured knowledge source.
package provider

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/wikiask/config"
	"github.com/mohammad-safakhou/wikiask/internal/knowledge"
	"github.com/mohammad-safakhou/wikiask/internal/knowledge/cache"
	"github.com/mohammad-safakhou/wikiask/internal/knowledge/local"
	"github.com/mohammad-safakhou/wikiask/internal/knowledge/mediawiki"
	"github.com/mohammad-safakhou/wikiask/internal/telemetry"
)

var ErrUnsupportedProvider = errors.New("unsupported knowledge provider")

// NewSource returns the source selected by cfg.Provider, wrapped in the read
// through cache when enabled. The returned func releases its resources.
func NewSource(cfg config.KnowledgeConfig, logger *zap.Logger, metrics *telemetry.Metrics) (knowledge.Source, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		src     knowledge.Source
		closers []func()
	)
	switch cfg.Provider {
	case config.ProviderMediaWiki:
		src = mediawiki.New(mediawiki.Options{
			APIURL:             cfg.APIURL,
			UserAgent:          cfg.UserAgent,
			Timeout:            cfg.Timeout,
			RateLimit:          cfg.RateLimit,
			Burst:              cfg.Burst,
			DefaultLanguage:    cfg.Language,
			SupportedLanguages: cfg.SupportedLanguages,
			IntroOnly:          cfg.IntroOnly,
			Logger:             logger,
			Metrics:            metrics,
		})
	case config.ProviderLocal:
		l, err := local.Open(cfg.LocalPath, logger)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = l.Close() })
		src = l
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}

	if cfg.Cache.Enabled {
		c, err := cache.New(src, cache.Config{
			NumCounters: cfg.Cache.NumCounters,
			MaxCost:     cfg.Cache.MaxCost,
			TTL:         cfg.Cache.TTL,
		}, metrics)
		if err != nil {
			for _, fn := range closers {
				fn()
			}
			return nil, nil, err
		}
		closers = append(closers, c.Close)
		src = c
	}
	logger.Info("knowledge source ready", zap.String("provider", cfg.Provider), zap.Bool("cache", cfg.Cache.Enabled))

	return src, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}
