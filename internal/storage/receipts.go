package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerloom/receiptd/internal/common"
	"github.com/ledgerloom/receiptd/internal/model"
)

// GetReceipt retrieves a single receipt by id.
func (s *SQLiteStorage) GetReceipt(ctx context.Context, id string) (*model.Receipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, vendor_text, total, subtotal, tax_amount, tax_breakdown,
		       receipt_date, line_items, raw_text,
		       category_id, category, category_confidence, category_source,
		       status, created_at, updated_at
		FROM receipts
		WHERE id = ?
	`, id)

	receipt, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: receipt %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return receipt, nil
}

// ListReceiptsByStatus returns receipts in the given status, oldest first.
// A limit of 0 means no limit.
func (s *SQLiteStorage) ListReceiptsByStatus(ctx context.Context, status model.ReceiptStatus, limit int) ([]model.Receipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, vendor_text, total, subtotal, tax_amount, tax_breakdown,
		       receipt_date, line_items, raw_text,
		       category_id, category, category_confidence, category_source,
		       status, created_at, updated_at
		FROM receipts
		WHERE status = ?
		ORDER BY created_at`
	args := []any{string(status)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var receipts []model.Receipt
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, *receipt)
	}

	return receipts, rows.Err()
}

// SaveReceipt inserts or replaces a receipt's extracted fields. This is the
// OCR extractor's write path (and the seed path for tests); classification
// fields go through FinalizeReceipt and MarkNeedsReview only.
func (s *SQLiteStorage) SaveReceipt(ctx context.Context, receipt *model.Receipt) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReceipt(receipt); err != nil {
		return err
	}

	lineItems, err := json.Marshal(receipt.LineItems)
	if err != nil {
		return fmt.Errorf("failed to encode line items: %w", err)
	}
	var taxBreakdown []byte
	if receipt.TaxBreakdown != nil {
		taxBreakdown, err = json.Marshal(receipt.TaxBreakdown)
		if err != nil {
			return fmt.Errorf("failed to encode tax breakdown: %w", err)
		}
	}

	status := receipt.Status
	if status == "" {
		status = model.StatusOCRDone
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO receipts (
			id, vendor_text, total, subtotal, tax_amount, tax_breakdown,
			receipt_date, line_items, raw_text, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			vendor_text = excluded.vendor_text,
			total = excluded.total,
			subtotal = excluded.subtotal,
			tax_amount = excluded.tax_amount,
			tax_breakdown = excluded.tax_breakdown,
			receipt_date = excluded.receipt_date,
			line_items = excluded.line_items,
			raw_text = excluded.raw_text,
			updated_at = CURRENT_TIMESTAMP
	`,
		receipt.ID,
		receipt.VendorText,
		receipt.Total,
		receipt.Subtotal,
		receipt.TaxAmount,
		nullableBytes(taxBreakdown),
		receipt.ReceiptDate,
		string(lineItems),
		receipt.RawText,
		string(status),
	)
	if err != nil {
		return fmt.Errorf("failed to save receipt: %w", err)
	}

	return nil
}

// FinalizeReceipt writes the decided category onto the receipt. All four
// classification fields, the status, and the timestamp move in one UPDATE so
// readers never observe a partially classified row. Re-finalizing an already
// categorized receipt is a plain overwrite (last writer wins).
func (s *SQLiteStorage) FinalizeReceipt(ctx context.Context, id string, categoryID int, categoryName string, confidence float64, source model.Source) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateString(categoryName, "categoryName"); err != nil {
		return err
	}
	if confidence < 0 || confidence > 1 {
		return fmt.Errorf("confidence %f out of range [0,1]", confidence)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE receipts SET
			category_id = ?,
			category = ?,
			category_confidence = ?,
			category_source = ?,
			status = ?,
			updated_at = ?
		WHERE id = ?
	`,
		categoryID,
		categoryName,
		confidence,
		string(source),
		string(model.StatusCategorized),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize receipt: %w", err)
	}

	return requireRowAffected(result, id)
}

// MarkNeedsReview records a completed attempt that produced no confident
// category: status moves to categorized with all category fields null.
func (s *SQLiteStorage) MarkNeedsReview(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE receipts SET
			category_id = NULL,
			category = NULL,
			category_confidence = NULL,
			category_source = NULL,
			status = ?,
			updated_at = ?
		WHERE id = ?
	`,
		string(model.StatusCategorized),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark receipt for review: %w", err)
	}

	return requireRowAffected(result, id)
}

func requireRowAffected(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: receipt %s", common.ErrNotFound, id)
	}
	return nil
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*model.Receipt, error) {
	var (
		r            model.Receipt
		subtotal     sql.NullFloat64
		taxAmount    sql.NullFloat64
		taxBreakdown sql.NullString
		receiptDate  sql.NullTime
		lineItems    sql.NullString
		categoryID   sql.NullInt64
		category     sql.NullString
		confidence   sql.NullFloat64
		source       sql.NullString
		status       string
	)

	err := row.Scan(
		&r.ID, &r.VendorText, &r.Total, &subtotal, &taxAmount, &taxBreakdown,
		&receiptDate, &lineItems, &r.RawText,
		&categoryID, &category, &confidence, &source,
		&status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Status = model.ReceiptStatus(status)
	if subtotal.Valid {
		r.Subtotal = &subtotal.Float64
	}
	if taxAmount.Valid {
		r.TaxAmount = &taxAmount.Float64
	}
	if receiptDate.Valid {
		date := receiptDate.Time
		r.ReceiptDate = &date
	}
	if taxBreakdown.Valid && taxBreakdown.String != "" {
		if err := json.Unmarshal([]byte(taxBreakdown.String), &r.TaxBreakdown); err != nil {
			return nil, fmt.Errorf("failed to parse tax breakdown: %w", err)
		}
	}
	if lineItems.Valid && lineItems.String != "" {
		if err := json.Unmarshal([]byte(lineItems.String), &r.LineItems); err != nil {
			return nil, fmt.Errorf("failed to parse line items: %w", err)
		}
	}
	if categoryID.Valid {
		id := int(categoryID.Int64)
		r.CategoryID = &id
	}
	if category.Valid {
		r.Category = &category.String
	}
	if confidence.Valid {
		r.CategoryConfidence = &confidence.Float64
	}
	if source.Valid {
		src := model.Source(source.String)
		r.CategorySource = &src
	}

	return &r, nil
}
