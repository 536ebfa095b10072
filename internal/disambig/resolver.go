// Package disambig settles ambiguous topics, either by taking the first
// candidate or by asking the user.
package disambig

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/wikiask/internal/knowledge"
	"github.com/mohammad-safakhou/wikiask/internal/lookup"
	"github.com/mohammad-safakhou/wikiask/models"
)

// Lookup is the part of the lookup resolver a chosen title is fed back into.
type Lookup interface {
	Resolve(ctx context.Context, topic, lang string) (lookup.Result, error)
}

// DeferredError carries the options a deferred chooser was offered, and the
// round they were offered in, so that the choice can be completed later with
// Settle.
type DeferredError struct {
	Options []string
	Round   int
}

func (e *DeferredError) Error() string { return ErrChoiceDeferred.Error() }

func (e *DeferredError) Unwrap() error { return ErrChoiceDeferred }

type Resolver struct {
	lookup     Lookup
	maxOptions int
	maxRounds  int
	logger     *zap.Logger
}

func NewResolver(l Lookup, maxOptions, maxRounds int, logger *zap.Logger) *Resolver {
	if maxOptions <= 0 || maxOptions > knowledge.MaxSearchResults {
		maxOptions = knowledge.MaxSearchResults
	}
	if maxRounds <= 0 {
		maxRounds = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{lookup: l, maxOptions: maxOptions, maxRounds: maxRounds, logger: logger.Named("disambig")}
}

// Resolve offers options to chooser and looks the choice up. A nil article
// with a nil error means no match: the user declined, the choice found
// nothing, or it was ambiguous again and no further round is allowed.
// Errors wrap knowledge.ErrSourceUnavailable or are a *DeferredError.
func (r *Resolver) Resolve(ctx context.Context, options []string, lang string, chooser Chooser) (*models.Article, error) {
	return r.ask(ctx, options, lang, chooser, 1)
}

// Settle completes a choice that was made outside a chooser, in the given
// round.
func (r *Resolver) Settle(ctx context.Context, choice, lang string, chooser Chooser, round int) (*models.Article, error) {
	if choice == "" {
		return nil, nil
	}
	res, err := r.lookup.Resolve(ctx, choice, lang)
	if err != nil {
		return nil, err
	}
	switch res.Kind {
	case lookup.ArticleMatch:
		return res.Article, nil
	case lookup.NoMatch:
		r.logger.Info("choice found nothing", zap.String("choice", choice))
		return nil, nil
	case lookup.Disambiguation:
		if !isInteractive(chooser) || round >= r.maxRounds {
			r.logger.Info("choice is ambiguous again, giving up",
				zap.String("choice", choice), zap.Int("round", round))
			return nil, nil
		}
		return r.ask(ctx, res.Options, lang, chooser, round+1)
	default:
		return nil, fmt.Errorf("unknown lookup result kind %s", res.Kind)
	}
}

func (r *Resolver) ask(ctx context.Context, options []string, lang string, chooser Chooser, round int) (*models.Article, error) {
	if len(options) > r.maxOptions {
		options = options[:r.maxOptions]
	}
	if len(options) == 0 {
		return nil, nil
	}
	choice, err := chooser.Choose(ctx, options)
	if err != nil {
		if errors.Is(err, ErrChoiceDeferred) {
			return nil, &DeferredError{Options: append([]string(nil), options...), Round: round}
		}
		return nil, fmt.Errorf("choose: %w", err)
	}
	if choice == "" {
		r.logger.Debug("choice declined", zap.Strings("options", options))
		return nil, nil
	}
	r.logger.Debug("option chosen", zap.String("choice", choice), zap.Int("round", round))
	return r.Settle(ctx, choice, lang, chooser, round)
}

// AsDeferred unwraps a *DeferredError from err.
func AsDeferred(err error) (*DeferredError, bool) {
	var d *DeferredError
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
