// Package engine implements the classification orchestrator: the decision
// policy that sequences the rules engine and the LLM adapter and settles on
// a final outcome for each receipt.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ledgerloom/receiptd/internal/llm"
	"github.com/ledgerloom/receiptd/internal/model"
	"github.com/ledgerloom/receiptd/internal/rules"
	"github.com/ledgerloom/receiptd/internal/service"
)

// DefaultThreshold is the rule confidence at or above which the LLM is not
// consulted.
const DefaultThreshold = 0.75

// Config holds configuration options for the orchestrator.
type Config struct {
	// Threshold is the rule confidence needed to finalize without the LLM.
	Threshold float64
	// AlwaysCallLLM runs the LLM even on a confident rule hit, recording its
	// prediction for evaluation. The rule decision still wins.
	AlwaysCallLLM bool
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold}
}

// Options tunes a single classification request.
type Options struct {
	// MinConfidence, when positive, overrides the configured threshold and
	// also floors the final decision: an outcome below it becomes
	// needs-review instead of a categorization.
	MinConfidence float64
}

// Orchestrator runs the classification pipeline for one receipt at a time.
// It holds no per-request state; concurrent calls are independent.
type Orchestrator struct {
	store      service.ReceiptStore
	audit      service.AuditLog
	rules      rules.Provider
	classifier Classifier
	logger     *slog.Logger
	config     Config
}

// New creates a new orchestrator with the given collaborators.
func New(store service.ReceiptStore, audit service.AuditLog, provider rules.Provider, classifier Classifier, config Config, logger *slog.Logger) *Orchestrator {
	if config.Threshold <= 0 {
		config.Threshold = DefaultThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:      store,
		audit:      audit,
		rules:      provider,
		classifier: classifier,
		logger:     logger,
		config:     config,
	}
}

// Classify runs one classification attempt with default options.
func (o *Orchestrator) Classify(ctx context.Context, receiptID string) (*model.Decision, error) {
	return o.ClassifyWithOptions(ctx, receiptID, Options{})
}

// ClassifyWithOptions runs one classification attempt.
//
// The attempt is idempotent: it re-evaluates rules and (if needed) the LLM
// from the receipt's extracted fields alone and overwrites the classification
// columns, so re-running an unchanged receipt converges to the same state.
func (o *Orchestrator) ClassifyWithOptions(ctx context.Context, receiptID string, opts Options) (*model.Decision, error) {
	receipt, err := o.store.GetReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}

	threshold := o.config.Threshold
	if opts.MinConfidence > 0 {
		threshold = opts.MinConfidence
	}

	pack := o.rules.Current()
	match := rules.Evaluate(pack, receipt.VendorText, receipt.LineItems)
	if match != nil {
		o.recordRuleHit(ctx, receipt.ID, pack.Version, match)
	}

	// Confident rule hit short-circuits the LLM entirely.
	if match != nil && match.Confidence >= threshold && !o.config.AlwaysCallLLM {
		return o.finalize(ctx, receipt.ID, match.CategoryID, match.Category, match.Confidence, model.SourceRules, false)
	}

	result, llmErr := o.classifier.Classify(ctx, llm.SummaryFromReceipt(receipt))
	o.recordLLMAttempt(ctx, receipt.ID, result, llmErr)

	// Evaluation mode: the LLM ran for the audit trail, but a rule hit at or
	// above the threshold still decides.
	if match != nil && match.Confidence >= threshold {
		return o.finalize(ctx, receipt.ID, match.CategoryID, match.Category, match.Confidence, model.SourceRules, false)
	}

	switch {
	case llmErr == nil && result.Confidence >= opts.MinConfidence:
		return o.finalize(ctx, receipt.ID, result.CategoryID, result.Category, result.Confidence, model.SourceLLM, false)

	case match != nil:
		// Graceful degradation: the sub-threshold rule hit beats giving up.
		o.logger.Info("no usable llm result, falling back to rule hit",
			"receipt_id", receipt.ID,
			"category", match.Category,
			"confidence", match.Confidence)
		return o.finalize(ctx, receipt.ID, match.CategoryID, match.Category, match.Confidence, model.SourceRules, true)

	default:
		// Legitimate terminal outcome, not an error: nothing matched and the
		// model produced nothing usable. Surface for manual categorization.
		if err := o.store.MarkNeedsReview(ctx, receipt.ID); err != nil {
			return nil, fmt.Errorf("failed to mark receipt for review: %w", err)
		}
		o.logger.Info("receipt needs manual review", "receipt_id", receipt.ID)
		return &model.Decision{ReceiptID: receipt.ID, NeedsReview: true}, nil
	}
}

func (o *Orchestrator) finalize(ctx context.Context, receiptID string, categoryID int, category string, confidence float64, source model.Source, fallback bool) (*model.Decision, error) {
	if err := o.store.FinalizeReceipt(ctx, receiptID, categoryID, category, confidence, source); err != nil {
		return nil, fmt.Errorf("failed to finalize receipt: %w", err)
	}

	o.logger.Info("receipt categorized",
		"receipt_id", receiptID,
		"category", category,
		"confidence", confidence,
		"source", string(source),
		"fallback", fallback)

	return &model.Decision{
		ReceiptID:  receiptID,
		CategoryID: &categoryID,
		Category:   category,
		Confidence: confidence,
		Source:     source,
		Fallback:   fallback,
	}, nil
}

// recordRuleHit appends the rule hit to the audit log. Audit writes never
// fail the request.
func (o *Orchestrator) recordRuleHit(ctx context.Context, receiptID, packVersion string, match *model.Match) {
	details, _ := json.Marshal(map[string]string{
		"source":  string(match.Source),
		"pattern": match.Pattern,
	})

	categoryID := match.CategoryID
	o.recordPrediction(ctx, &model.Prediction{
		SubjectType: model.SubjectTypeReceipt,
		SubjectID:   receiptID,
		CategoryID:  &categoryID,
		Confidence:  match.Confidence,
		Method:      model.MethodRule,
		Version:     packVersion,
		Details:     string(details),
	})
}

// recordLLMAttempt appends the LLM outcome, successful or not. Failed
// attempts are recorded with a null category and the failure reason so the
// audit trail explains every needs-review receipt.
func (o *Orchestrator) recordLLMAttempt(ctx context.Context, receiptID string, result *llm.Result, llmErr error) {
	p := &model.Prediction{
		SubjectType: model.SubjectTypeReceipt,
		SubjectID:   receiptID,
		Method:      model.MethodLLM,
		Version:     o.classifier.Version(),
	}

	if llmErr != nil {
		details, _ := json.Marshal(map[string]string{"failure": llmErr.Error()})
		p.Details = string(details)
	} else {
		categoryID := result.CategoryID
		p.CategoryID = &categoryID
		p.Confidence = result.Confidence
		details, _ := json.Marshal(map[string]string{"reasoning": result.Reasoning})
		p.Details = string(details)
	}

	o.recordPrediction(ctx, p)
}

func (o *Orchestrator) recordPrediction(ctx context.Context, p *model.Prediction) {
	if err := o.audit.InsertPrediction(ctx, p); err != nil {
		o.logger.Error("failed to record prediction",
			"receipt_id", p.SubjectID,
			"method", string(p.Method),
			"error", err)
	}
}
