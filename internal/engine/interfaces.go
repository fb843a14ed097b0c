package engine

import (
	"context"

	"github.com/ledgerloom/receiptd/internal/llm"
)

// Classifier is the seam between the orchestrator and the LLM adapter.
// A non-nil error from Classify is always recoverable; the orchestrator
// responds with its fallback policy, never by failing the request.
type Classifier interface {
	Classify(ctx context.Context, summary llm.Summary) (*llm.Result, error)
	Version() string
}
