package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/law-makers/nepafeed/internal/cache"
	"github.com/law-makers/nepafeed/internal/config"
	"github.com/law-makers/nepafeed/internal/feed"
	"github.com/law-makers/nepafeed/internal/pipeline"
	"github.com/law-makers/nepafeed/internal/runctx"
	"github.com/law-makers/nepafeed/internal/utils/output"
	"github.com/law-makers/nepafeed/pkg/models"
)

// ErrEmptyPlan is returned when the plan expands to no search terms.
var ErrEmptyPlan = errors.New("plan has no search terms")

// Run executes the configured plan end to end: every term is retrieved,
// the merged set is partitioned by state, and all feeds plus the run
// summary are written once the full set is known.
func (a *Application) Run(ctx context.Context, onTerm func(pipeline.TermResult)) (*output.Summary, error) {
	ctx = runctx.WithRunContext(ctx)
	rc := runctx.GetRunContext(ctx)

	logger := a.Logger.With().Str("run_id", rc.RunID).Logger()
	ctx = logger.WithContext(ctx)

	plan := a.Config.Plan
	terms := plan.Terms()
	if len(terms) == 0 {
		return nil, runctx.NewRunError(ctx, ErrEmptyPlan)
	}

	if a.UsesBrowser() {
		if err := a.EnsureBrowserPool(ctx); err != nil {
			return nil, runctx.NewRunError(ctx, err)
		}
	}

	logger.Info().
		Int("terms", len(terms)).
		Str("ladder", a.Retriever.Name()).
		Msg("Run started")

	reconciler := pipeline.NewReconciler(a.Retriever)
	reconciler.OnTerm = onTerm

	acc, stats, err := reconciler.Run(ctx, plan, pipeline.NewAccumulator())
	if err != nil {
		return nil, runctx.NewRunError(ctx, err)
	}

	records := acc.Records()
	summary, err := a.writeOutputs(records, stats, rc.RunID, a.now())
	if err != nil {
		return nil, runctx.NewRunError(ctx, err)
	}

	event := logger.Info()
	if mc, ok := a.Cache.(*cache.MemoryCache); ok {
		hits, misses := mc.Stats()
		event = event.Uint64("cache_hits", hits).Uint64("cache_misses", misses)
	}
	event.
		Int("records", summary.Count).
		Int("failed_terms", stats.FailedTerms).
		Int("duplicates", stats.Duplicates).
		Int("files", len(summary.Files)).
		Dur("elapsed", time.Since(rc.StartTime)).
		Msg("Run completed")

	return summary, nil
}

func (a *Application) writeOutputs(records []models.Record, stats pipeline.Stats, runID string, generated time.Time) (*output.Summary, error) {
	cfg := a.Config
	summary := &output.Summary{
		RunID:       runID,
		GeneratedAt: generated.UTC(),
		Count:       len(records),
		Terms:       stats.Terms,
		FailedTerms: stats.FailedTerms,
		Duplicates:  stats.Duplicates,
		States:      map[string]int{},
	}

	national := filepath.Join(cfg.OutputDir, config.DefaultNationalFeedName)
	if err := output.WriteFile(national, feed.Serialize(cfg.FeedTitle, cfg.FeedLink, records, generated)); err != nil {
		return nil, fmt.Errorf("write national feed: %w", err)
	}
	summary.Files = append(summary.Files, config.DefaultNationalFeedName)

	parts := pipeline.Partition(records)
	grouped, stems := feed.GroupByStem(parts, pipeline.Labels(parts), records)
	for _, stem := range stems {
		name := filepath.ToSlash(filepath.Join(config.DefaultStateFeedDir, stem+".xml"))
		doc := feed.Serialize(cfg.FeedTitle+" - "+stem, cfg.FeedLink, grouped[stem], generated)
		if err := output.WriteFile(filepath.Join(cfg.OutputDir, name), doc); err != nil {
			return nil, fmt.Errorf("write %s feed: %w", stem, err)
		}
		summary.States[stem] = len(grouped[stem])
		summary.Files = append(summary.Files, name)
	}

	if cfg.CSV {
		if err := output.SaveCSV(records, filepath.Join(cfg.OutputDir, config.DefaultCSVName)); err != nil {
			return nil, fmt.Errorf("write csv: %w", err)
		}
		summary.Files = append(summary.Files, config.DefaultCSVName)
	}

	if err := output.SaveSummary(summary, filepath.Join(cfg.OutputDir, config.DefaultSummaryName)); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}
	return summary, nil
}
