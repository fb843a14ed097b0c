package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ledgerloom/receiptd/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("value cannot be empty")
	ErrNilReceipt    = errors.New("receipt cannot be nil")
	ErrNilPrediction = errors.New("prediction cannot be nil")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(value, name string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, name)
	}
	return nil
}

func validateReceipt(receipt *model.Receipt) error {
	if receipt == nil {
		return ErrNilReceipt
	}
	if receipt.ID == "" {
		return fmt.Errorf("%w: receipt.ID", ErrEmptyString)
	}
	return nil
}

func validatePrediction(p *model.Prediction) error {
	if p == nil {
		return ErrNilPrediction
	}
	if p.SubjectType == "" {
		return fmt.Errorf("%w: prediction.SubjectType", ErrEmptyString)
	}
	if p.SubjectID == "" {
		return fmt.Errorf("%w: prediction.SubjectID", ErrEmptyString)
	}
	if p.Method != model.MethodRule && p.Method != model.MethodLLM {
		return fmt.Errorf("invalid prediction method: %s", p.Method)
	}
	return nil
}
