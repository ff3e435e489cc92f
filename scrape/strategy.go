// Package scrape implements the two fetch strategies (direct HTTP and
// browser-rendered), the shared browser session manager, and the
// orchestrator that cascades between them.
package scrape

import (
	"context"

	"github.com/use-agent/itemscope/extract"
	"github.com/use-agent/itemscope/models"
)

// Strategy is one way of turning an item URL into an extraction attempt.
// Implementations never return an error: every failure mode becomes a
// rejected attempt carrying the cause, so the orchestrator's cascade logic
// only ever deals in attempts.
type Strategy interface {
	Name() models.Strategy
	Attempt(ctx context.Context, url string, site *extract.Site) *models.ExtractionAttempt
}
