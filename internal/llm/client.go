// Package llm wraps the external language-model API behind a small adapter
// that produces validated, confidence-clamped category decisions.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerloom/receiptd/internal/model"
)

// Client defines the interface for LLM providers. Implementations return the
// model's raw text output; parsing and validation happen in the adapter.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Summary carries the receipt fields the adapter is allowed to see.
type Summary struct {
	Date      *time.Time
	Subtotal  *float64
	TaxAmount *float64
	Vendor    string
	RawText   string
	LineItems []model.LineItem
	Total     float64
}

// SummaryFromReceipt extracts the prompt-relevant fields from a receipt.
func SummaryFromReceipt(r *model.Receipt) Summary {
	return Summary{
		Vendor:    r.VendorText,
		Total:     r.Total,
		Subtotal:  r.Subtotal,
		TaxAmount: r.TaxAmount,
		Date:      r.ReceiptDate,
		LineItems: r.LineItems,
		RawText:   r.RawText,
	}
}

// Result is a validated classification decision from the model.
type Result struct {
	Category   string
	Reasoning  string
	CategoryID int
	Confidence float64
}

// Failure reasons for recoverable adapter failures.
const (
	FailureTransport       = "transport"
	FailureTimeout         = "timeout"
	FailureNoJSON          = "no_json"
	FailureBadJSON         = "bad_json"
	FailureUnknownCategory = "unknown_category"
)

// Failure is a recoverable adapter failure. It is a typed result, not a
// fault: the orchestrator treats every Failure identically and falls back to
// its degradation policy.
type Failure struct {
	Err    error
	Reason string
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("llm classification failed (%s): %v", f.Reason, f.Err)
	}
	return fmt.Sprintf("llm classification failed (%s)", f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Err
}
