package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledgerloom/receiptd/internal/common"
	"github.com/ledgerloom/receiptd/internal/service"
	"github.com/ledgerloom/receiptd/internal/taxonomy"
)

// DefaultConfidenceCeiling caps the model's self-reported confidence. LLM
// confidence is unreliable; without a ceiling it would dominate rule-based
// evidence in every close call.
const DefaultConfidenceCeiling = 0.85

// DefaultTimeout bounds one classification call including retries.
const DefaultTimeout = 8 * time.Second

// Config holds configuration for the LLM classifier.
type Config struct {
	Provider          string
	APIKey            string
	Model             string
	MaxRetries        int
	MaxTokens         int
	RetryDelay        time.Duration
	Timeout           time.Duration
	ConfidenceCeiling float64
}

// Classifier turns a receipt summary into a validated category decision via
// an external model. It performs no writes; its only side effect is the
// outbound API call.
type Classifier struct {
	client    Client
	logger    *slog.Logger
	version   string
	retryOpts service.RetryOptions
	timeout   time.Duration
	ceiling   float64
}

// NewClassifier creates a new LLM-based classifier.
func NewClassifier(cfg Config, logger *slog.Logger) (*Classifier, error) {
	var client Client
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "anthropic", "":
		client, err = newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	return newClassifier(client, cfg, "anthropic/"+model, logger), nil
}

// NewClassifierWithClient wires an explicit client, used by tests and by the
// engine's mock wiring.
func NewClassifierWithClient(client Client, cfg Config, version string, logger *slog.Logger) *Classifier {
	return newClassifier(client, cfg, version, logger)
}

func newClassifier(client Client, cfg Config, version string, logger *slog.Logger) *Classifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ceiling := cfg.ConfidenceCeiling
	if ceiling <= 0 || ceiling > 1 {
		ceiling = DefaultConfidenceCeiling
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     timeout,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 2
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = 500 * time.Millisecond
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Classifier{
		client:    client,
		logger:    logger,
		version:   version,
		retryOpts: retryOpts,
		timeout:   timeout,
		ceiling:   ceiling,
	}
}

// Version identifies the engine/model for audit records.
func (c *Classifier) Version() string {
	return c.version
}

// Ceiling returns the configured confidence cap.
func (c *Classifier) Ceiling() float64 {
	return c.ceiling
}

// Classify builds a scrubbed, bounded prompt for the receipt summary, invokes
// the model under the configured timeout, and validates the response against
// the taxonomy allow-list.
//
// A non-nil error is always a *Failure: a typed, recoverable outcome the
// orchestrator handles with its fallback policy. Classify never panics and
// never returns an unclamped confidence.
func (c *Classifier) Classify(ctx context.Context, summary Summary) (*Result, error) {
	prompt := BuildPrompt(summary)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var raw string
	err := common.WithRetry(ctx, func() error {
		text, callErr := c.client.Complete(ctx, systemPrompt, prompt)
		if callErr != nil {
			c.logger.Warn("llm classification attempt failed", "error", callErr)
			return &common.RetryableError{Err: callErr, Retryable: true}
		}
		raw = text
		return nil
	}, c.retryOpts)
	if err != nil {
		reason := FailureTransport
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			reason = FailureTimeout
		}
		return nil, &Failure{Reason: reason, Err: err}
	}

	resp, failure := parseResponse(raw)
	if failure != nil {
		c.logger.Warn("llm response unparsable", "reason", failure.Reason, "error", failure.Err)
		return nil, failure
	}

	// Unknown category names are rejected, never coerced.
	cat, ok := taxonomy.Lookup(resp.Category)
	if !ok {
		return nil, &Failure{
			Reason: FailureUnknownCategory,
			Err:    fmt.Errorf("category %q is not in the taxonomy", resp.Category),
		}
	}

	confidence := resp.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > c.ceiling {
		confidence = c.ceiling
	}

	c.logger.Info("llm classified receipt",
		"vendor", summary.Vendor,
		"category", cat.Name,
		"confidence", confidence,
		"model", c.version)

	return &Result{
		Category:   cat.Name,
		CategoryID: cat.ID,
		Confidence: confidence,
		Reasoning:  resp.Reasoning,
	}, nil
}
