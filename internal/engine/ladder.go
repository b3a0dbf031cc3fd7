package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/law-makers/nepafeed/internal/cache"
	"github.com/law-makers/nepafeed/pkg/models"
	"github.com/rs/zerolog/log"
)

// Ladder tries its strategies in order and returns the records of the first
// one that succeeds. An empty result is a success.
type Ladder struct {
	strategies []Strategy
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewLadder creates a ladder over the given strategies. A nil cache disables
// memoization.
func NewLadder(c cache.Cache, ttl time.Duration, strategies ...Strategy) *Ladder {
	return &Ladder{
		strategies: strategies,
		cache:      c,
		cacheTTL:   ttl,
	}
}

// Name returns the rung names joined in order.
func (l *Ladder) Name() string {
	names := make([]string, len(l.strategies))
	for i, s := range l.strategies {
		names[i] = s.Name()
	}
	return "Ladder[" + strings.Join(names, ">") + "]"
}

// Strategies returns the configured rungs.
func (l *Ladder) Strategies() []Strategy {
	return l.strategies
}

// Retrieve runs the ladder for one term. Fallback-class failures move on to
// the next rung; any other failure ends the term. When every rung falls
// through, the last failure is returned, except that a page which only
// "needs JavaScript" on the final rung is a zero-result page: there is no
// renderer left to try.
func (l *Ladder) Retrieve(ctx context.Context, term models.SearchTerm) ([]models.Record, error) {
	if len(l.strategies) == 0 {
		return nil, ErrNoStrategies
	}

	if l.cache != nil {
		if records, ok := l.cache.Get(term.Key()); ok {
			return records, nil
		}
	}

	var lastErr error
	for i, s := range l.strategies {
		start := time.Now()
		records, err := s.Retrieve(ctx, term)
		if err == nil {
			log.Debug().
				Str("term", term.String()).
				Str("strategy", s.Name()).
				Int("records", len(records)).
				Dur("elapsed", time.Since(start)).
				Msg("Strategy succeeded")
			if l.cache != nil {
				l.cache.Set(term.Key(), records, l.cacheTTL)
			}
			return records, nil
		}

		if !IsFallback(err) {
			return nil, fmt.Errorf("%s: %w", s.Name(), err)
		}

		if i == len(l.strategies)-1 && errors.Is(err, ErrNeedsJavaScript) {
			log.Debug().
				Str("term", term.String()).
				Str("strategy", s.Name()).
				Msg("Script-only page on last rung, treating as no results")
			return []models.Record{}, nil
		}

		log.Debug().
			Err(err).
			Str("term", term.String()).
			Str("strategy", s.Name()).
			Msg("Strategy fell through")
		lastErr = fmt.Errorf("%s: %w", s.Name(), err)
	}

	return nil, lastErr
}
