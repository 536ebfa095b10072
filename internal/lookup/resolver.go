// Package lookup resolves a topic to one article by racing an exact and a
// fuzzy lookup against the knowledge source.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mohammad-safakhou/wikiask/internal/knowledge"
	"github.com/mohammad-safakhou/wikiask/internal/telemetry"
	"github.com/mohammad-safakhou/wikiask/models"
)

type Resolver struct {
	source  knowledge.Source
	images  knowledge.ImagePicker
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

func NewResolver(source knowledge.Source, images knowledge.ImagePicker, logger *zap.Logger, metrics *telemetry.Metrics) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{source: source, images: images, logger: logger.Named("lookup"), metrics: metrics}
}

// attempt is the outcome of one strategy. err is only ever an unavailability
// error; every other failure has already been folded into res.
type attempt struct {
	res Result
	err error
}

// Resolve looks topic up with both strategies concurrently and reconciles the
// two answers. The only error it returns wraps knowledge.ErrSourceUnavailable.
func (r *Resolver) Resolve(ctx context.Context, topic, lang string) (Result, error) {
	start := time.Now()
	defer func() { r.metrics.LookupDuration(time.Since(start)) }()

	var strict, lenient attempt
	var g errgroup.Group
	g.Go(func() error {
		strict = r.try(ctx, topic, lang, models.StrategyStrict)
		return nil
	})
	g.Go(func() error {
		lenient = r.try(ctx, topic, lang, models.StrategyLenient)
		return nil
	})
	_ = g.Wait()

	res, err := reconcile(strict, lenient)
	if err != nil {
		r.logger.Warn("knowledge source unavailable", zap.String("topic", topic), zap.Error(err))
		return res, err
	}
	r.logger.Debug("lookup resolved",
		zap.String("topic", topic),
		zap.Stringer("kind", res.Kind),
		zap.String("strategy", string(res.Strategy)),
	)
	return res, nil
}

// reconcile prefers an exact match, then whatever the fuzzy lookup found. The
// exact answer is only used otherwise when the fuzzy lookup could not reach
// the source.
func reconcile(strict, lenient attempt) (Result, error) {
	if strict.err == nil && strict.res.Kind == ArticleMatch {
		return strict.res, nil
	}
	if lenient.err == nil {
		return lenient.res, nil
	}
	if strict.err == nil && strict.res.Kind != NoMatch {
		return strict.res, nil
	}
	err := lenient.err
	if strict.err != nil {
		err = errors.Join(strict.err, lenient.err)
	}
	return None(""), fmt.Errorf("resolve: %w", err)
}

func (r *Resolver) try(ctx context.Context, topic, lang string, strategy models.Strategy) attempt {
	res, err := r.lookup(ctx, topic, lang, strategy)
	outcome := res.Kind.String()
	if err != nil {
		outcome = "unavailable"
	}
	r.metrics.LookupAttempt(string(strategy), outcome)
	return attempt{res: res, err: err}
}

func (r *Resolver) lookup(ctx context.Context, topic, lang string, strategy models.Strategy) (Result, error) {
	log := r.logger.With(zap.String("topic", topic), zap.String("strategy", string(strategy)))
	if strings.TrimSpace(topic) == "" {
		return None(strategy), nil
	}
	titles, err := r.source.Search(ctx, topic, lang)
	if err != nil {
		return r.fault(log, strategy, err)
	}
	if len(titles) == 0 {
		return None(strategy), nil
	}
	page, err := r.source.GetPage(ctx, titles[0], strategy, lang)
	if err != nil {
		return r.fault(log.With(zap.String("title", titles[0])), strategy, err)
	}
	if page == nil || strings.TrimSpace(page.Title) == "" {
		log.Error("knowledge source returned an empty page")
		return None(strategy), nil
	}
	return Matched(models.NewArticle(page, strategy, r.images.Best(page))), nil
}

// fault maps a source failure onto a result. Unavailability is kept as an
// error so that it can be reported distinctly.
func (r *Resolver) fault(log *zap.Logger, strategy models.Strategy, err error) (Result, error) {
	if amb, ok := knowledge.AsAmbiguous(err); ok {
		return Ambiguous(amb.Options, strategy), nil
	}
	switch {
	case errors.Is(err, knowledge.ErrNotFound):
		log.Warn("page not found", zap.Error(err))
	case knowledge.IsUnavailable(err):
		return None(strategy), err
	default:
		log.Error("unexpected knowledge source failure", zap.Error(err))
	}
	return None(strategy), nil
}
