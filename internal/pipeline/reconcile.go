package pipeline

import (
	"context"
	"time"

	"github.com/law-makers/nepafeed/pkg/models"
	"github.com/rs/zerolog"
)

// Retriever resolves one search term to records.
type Retriever interface {
	Retrieve(ctx context.Context, term models.SearchTerm) ([]models.Record, error)
}

// Accumulator is the ordered, id-deduplicated record set of one run.
// The first record seen for an id is kept.
type Accumulator struct {
	records []models.Record
	seen    map[string]struct{}
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{seen: make(map[string]struct{})}
}

// Add appends r unless its id is empty or already present. It reports
// whether r was kept.
func (a *Accumulator) Add(r models.Record) bool {
	if r.ID == "" {
		return false
	}
	if _, dup := a.seen[r.ID]; dup {
		return false
	}
	a.seen[r.ID] = struct{}{}
	a.records = append(a.records, r)
	return true
}

// Records returns the merged set in first-seen order.
func (a *Accumulator) Records() []models.Record {
	out := make([]models.Record, len(a.records))
	copy(out, a.records)
	return out
}

// Len returns the number of distinct records.
func (a *Accumulator) Len() int {
	return len(a.records)
}

// Stats counts what happened during a run.
type Stats struct {
	Terms       int `json:"terms"`
	FailedTerms int `json:"failedTerms"`
	Retrieved   int `json:"retrieved"`
	Duplicates  int `json:"duplicates"`
}

// TermResult is reported after each term finishes.
type TermResult struct {
	Term    models.SearchTerm
	Records int
	Added   int
	Err     error
	Elapsed time.Duration
}

// Reconciler retrieves every term of a plan one at a time and folds the
// results into an accumulator.
type Reconciler struct {
	retriever Retriever
	// OnTerm, when set, is called after every term.
	OnTerm func(TermResult)
}

// NewReconciler creates a reconciler over r.
func NewReconciler(r Retriever) *Reconciler {
	return &Reconciler{retriever: r}
}

// Run processes the plan in configuration order. A failed term is logged,
// counted and skipped. Only cancellation of ctx stops the run early, in
// which case the partial accumulator and ctx.Err() are returned.
func (rc *Reconciler) Run(ctx context.Context, plan Plan, acc *Accumulator) (*Accumulator, Stats, error) {
	if acc == nil {
		acc = NewAccumulator()
	}
	logger := zerolog.Ctx(ctx)

	var stats Stats
	for _, term := range plan.Terms() {
		if err := ctx.Err(); err != nil {
			return acc, stats, err
		}

		stats.Terms++
		start := time.Now()
		records, err := rc.retriever.Retrieve(ctx, term)
		result := TermResult{Term: term, Records: len(records), Err: err, Elapsed: time.Since(start)}

		if err != nil {
			stats.FailedTerms++
			logger.Warn().Err(err).Str("term", term.String()).Msg("Term failed, skipping")
		} else {
			stats.Retrieved += len(records)
			for _, r := range records {
				if acc.Add(r) {
					result.Added++
				} else if r.ID != "" {
					stats.Duplicates++
				}
			}
			logger.Info().
				Str("term", term.String()).
				Int("records", len(records)).
				Int("added", result.Added).
				Dur("elapsed", result.Elapsed).
				Msg("Term retrieved")
		}

		if rc.OnTerm != nil {
			rc.OnTerm(result)
		}
	}

	return acc, stats, nil
}
