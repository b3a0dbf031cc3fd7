package engine

import (
	"context"

	"github.com/law-makers/nepafeed/pkg/models"
)

// Strategy is one way of obtaining result records for a search term.
type Strategy interface {
	// Retrieve returns the records for term. Errors for which IsFallback
	// reports true hand the term to the next strategy.
	Retrieve(ctx context.Context, term models.SearchTerm) ([]models.Record, error)

	// Name returns the name of the strategy implementation
	Name() string
}
