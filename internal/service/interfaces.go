// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/ledgerloom/receiptd/internal/model"
)

// ReceiptStore defines the contract for the receipt persistence layer.
//
// The pipeline reads one receipt per classification request and writes only
// the classification columns back. FinalizeReceipt and MarkNeedsReview are the
// only mutators of those columns; each is a single atomic update so readers
// never observe a partially classified receipt.
type ReceiptStore interface {
	GetReceipt(ctx context.Context, id string) (*model.Receipt, error)
	ListReceiptsByStatus(ctx context.Context, status model.ReceiptStatus, limit int) ([]model.Receipt, error)
	SaveReceipt(ctx context.Context, receipt *model.Receipt) error
	FinalizeReceipt(ctx context.Context, id string, categoryID int, categoryName string, confidence float64, source model.Source) error
	MarkNeedsReview(ctx context.Context, id string) error
}

// AuditLog records every classification attempt as an immutable prediction.
type AuditLog interface {
	InsertPrediction(ctx context.Context, p *model.Prediction) error
	ListPredictionsBySubject(ctx context.Context, subjectType, subjectID string) ([]model.Prediction, error)
}

// Storage combines the persistence contracts plus lifecycle management.
type Storage interface {
	ReceiptStore
	AuditLog
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
