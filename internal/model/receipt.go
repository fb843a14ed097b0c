// Package model defines the core domain models used throughout the application.
package model

import "time"

// ReceiptStatus tracks where a receipt is in its lifecycle.
type ReceiptStatus string

// Receipt status constants.
const (
	// StatusOCRDone means the OCR extractor has produced structured fields
	// but no categorization attempt has completed yet.
	StatusOCRDone ReceiptStatus = "ocr_done"
	// StatusCategorized means a categorization attempt has completed. The
	// category fields may still be null if no method produced a confident
	// result (needs manual review).
	StatusCategorized ReceiptStatus = "categorized"
)

// LineItem is a single extracted line from a receipt.
type LineItem struct {
	Description string  `json:"description"`
	Total       float64 `json:"total"`
}

// Receipt represents one uploaded receipt after OCR extraction.
//
// The extracted fields are owned by the OCR extractor and read-only here.
// The classification fields (CategoryID, Category, CategoryConfidence,
// CategorySource, Status) are owned by the categorization pipeline.
// Invariant: CategoryID is non-nil iff Category and CategoryConfidence are
// non-nil and Status is StatusCategorized.
type Receipt struct {
	ReceiptDate        *time.Time
	Subtotal           *float64
	TaxAmount          *float64
	CategoryID         *int
	Category           *string
	CategoryConfidence *float64
	CategorySource     *Source
	ID                 string
	VendorText         string
	RawText            string
	Status             ReceiptStatus
	LineItems          []LineItem
	TaxBreakdown       map[string]float64
	Total              float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsClassified reports whether the receipt carries a finalized category.
func (r *Receipt) IsClassified() bool {
	return r.Status == StatusCategorized && r.CategoryID != nil
}

// NeedsReview reports whether a categorization attempt completed without a
// confident result.
func (r *Receipt) NeedsReview() bool {
	return r.Status == StatusCategorized && r.CategoryID == nil
}
