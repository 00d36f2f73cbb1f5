// Package scope answers one question: how close is a query to the
// indexed course material?
//
// The checker runs a top-1 vector search through the knowledge store
// and reports the cosine distance of the best match. Lower distance
// means closer; the governor compares the distance to its threshold.
package scope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AazainKhan/luminate-ai-sub002/internal/knowledge"
)

// ErrEmptyIndex indicates the vector index holds no documents, so no
// distance can be computed. Callers can distinguish this from a store
// outage with errors.Is.
var ErrEmptyIndex = errors.New("scope: no documents indexed")

// Searcher is the slice of the knowledge store the checker needs.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// Checker computes best-match distances against the course index.
//
// Checker is safe for concurrent use by multiple goroutines.
type Checker struct {
	searcher Searcher
	logger   *slog.Logger
}

// New creates a Checker over the given searcher.
func New(searcher Searcher, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{searcher: searcher, logger: logger}
}

// BestMatch returns the cosine distance of the single closest indexed
// document to the query. Distance is 1 - similarity, so 0 is identical
// and values approaching 2 are unrelated.
//
// Returns ErrEmptyIndex when nothing is indexed, or a wrapped store
// error when the search itself fails.
func (c *Checker) BestMatch(ctx context.Context, query string) (float64, error) {
	results, err := c.searcher.Search(ctx, query, knowledge.WithTopK(1))
	if err != nil {
		return 0, fmt.Errorf("scope check: %w", err)
	}
	if len(results) == 0 {
		return 0, ErrEmptyIndex
	}

	distance := 1 - float64(results[0].Similarity)
	c.logger.Debug("scope distance computed",
		"distance", distance,
		"best_match_id", results[0].Document.ID)
	return distance, nil
}
