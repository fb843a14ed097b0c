package model

import "time"

// SubjectTypeReceipt is the only audited subject type today.
const SubjectTypeReceipt = "receipt"

// Prediction is one append-only audit record of a classification attempt.
//
// Predictions are never updated or deleted after insertion. A single receipt
// accumulates one prediction per attempt per method, including failed attempts
// (CategoryID nil, Details carrying the failure reason).
type Prediction struct {
	CreatedAt   time.Time
	CategoryID  *int
	SubjectType string
	SubjectID   string
	Method      Method
	Version     string
	Details     string
	Confidence  float64
	ID          int64
}
