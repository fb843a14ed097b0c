package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerloom/receiptd/internal/model"
)

// InsertPrediction appends one classification attempt to the audit log.
// Predictions are insert-only; there is no update or delete path.
func (s *SQLiteStorage) InsertPrediction(ctx context.Context, p *model.Prediction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePrediction(p); err != nil {
		return err
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO predictions (
			subject_type, subject_id, category_id, confidence,
			method, version, details, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.SubjectType,
		p.SubjectID,
		p.CategoryID,
		p.Confidence,
		string(p.Method),
		p.Version,
		p.Details,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		p.ID = id
	}

	return nil
}

// ListPredictionsBySubject returns all predictions for a subject in insertion
// order.
func (s *SQLiteStorage) ListPredictionsBySubject(ctx context.Context, subjectType, subjectID string) ([]model.Prediction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(subjectType, "subjectType"); err != nil {
		return nil, err
	}
	if err := validateString(subjectID, "subjectID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_type, subject_id, category_id, confidence,
		       method, version, details, created_at
		FROM predictions
		WHERE subject_type = ? AND subject_id = ?
		ORDER BY id
	`, subjectType, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var predictions []model.Prediction
	for rows.Next() {
		var (
			p          model.Prediction
			categoryID *int64
			method     string
		)
		if err := rows.Scan(
			&p.ID, &p.SubjectType, &p.SubjectID, &categoryID, &p.Confidence,
			&method, &p.Version, &p.Details, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		if categoryID != nil {
			id := int(*categoryID)
			p.CategoryID = &id
		}
		p.Method = model.Method(method)
		predictions = append(predictions, p)
	}

	return predictions, rows.Err()
}
