package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/daryakhm/storefront-core/internal/apperr"
	"github.com/daryakhm/storefront-core/internal/models"
)

// CreateRequest сохраняет новую заявку на подписку и возвращает её ID.
func (s *Storage) CreateRequest(ctx context.Context, req models.SubscriptionRequest) (string, error) {
	const op = "repository.CreateRequest"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscription_requests (account_uid, plan, payment_proof_urls, status)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		req.AccountUID, req.Plan, pq.Array(req.PaymentProofURLs), req.Status).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetRequest возвращает заявку по её ID.
func (s *Storage) GetRequest(ctx context.Context, id string) (*models.SubscriptionRequest, error) {
	const op = "repository.GetRequest"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, account_uid, plan, payment_proof_urls, status,
			      submitted_at, reviewed_at, reviewed_by, notes
			  FROM subscription_requests
			  WHERE id = $1`
	req := &models.SubscriptionRequest{}
	row := s.DB.QueryRowContext(ctx, query, id)

	var reviewedAt sql.NullTime
	var reviewedBy, notes sql.NullString
	if err := row.Scan(&req.ID, &req.AccountUID, &req.Plan, pq.Array(&req.PaymentProofURLs),
		&req.Status, &req.SubmittedAt, &reviewedAt, &reviewedBy, &notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if reviewedAt.Valid {
		req.ReviewedAt = &reviewedAt.Time
	}
	if reviewedBy.Valid {
		req.ReviewedBy = &reviewedBy.String
	}
	if notes.Valid {
		req.Notes = &notes.String
	}
	return req, nil
}

// ListRequests возвращает заявки, новые сверху, с опциональным фильтром по статусу.
func (s *Storage) ListRequests(ctx context.Context, status *models.RequestStatus, limit, offset int) ([]*models.SubscriptionRequest, error) {
	const op = "repository.ListRequests"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, account_uid, plan, payment_proof_urls, status,
			      submitted_at, reviewed_at, reviewed_by, notes
			  FROM subscription_requests
			  WHERE ($1::text IS NULL OR status = $1)
			  ORDER BY submitted_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionRequest
	for rows.Next() {
		req := &models.SubscriptionRequest{}
		var reviewedAt sql.NullTime
		var reviewedBy, notes sql.NullString
		if err := rows.Scan(&req.ID, &req.AccountUID, &req.Plan, pq.Array(&req.PaymentProofURLs),
			&req.Status, &req.SubmittedAt, &reviewedAt, &reviewedBy, &notes); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if reviewedAt.Valid {
			req.ReviewedAt = &reviewedAt.Time
		}
		if reviewedBy.Valid {
			req.ReviewedBy = &reviewedBy.String
		}
		if notes.Valid {
			req.Notes = &notes.String
		}
		result = append(result, req)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListRequestsByAccount возвращает заявки одного аккаунта, новые сверху.
func (s *Storage) ListRequestsByAccount(ctx context.Context, accountUID string, limit, offset int) ([]*models.SubscriptionRequest, error) {
	const op = "repository.ListRequestsByAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, account_uid, plan, payment_proof_urls, status,
			      submitted_at, reviewed_at, reviewed_by, notes
			  FROM subscription_requests
			  WHERE account_uid = $1
			  ORDER BY submitted_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, accountUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionRequest
	for rows.Next() {
		req := &models.SubscriptionRequest{}
		var reviewedAt sql.NullTime
		var reviewedBy, notes sql.NullString
		if err := rows.Scan(&req.ID, &req.AccountUID, &req.Plan, pq.Array(&req.PaymentProofURLs),
			&req.Status, &req.SubmittedAt, &reviewedAt, &reviewedBy, &notes); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if reviewedAt.Valid {
			req.ReviewedAt = &reviewedAt.Time
		}
		if reviewedBy.Valid {
			req.ReviewedBy = &reviewedBy.String
		}
		if notes.Valid {
			req.Notes = &notes.String
		}
		result = append(result, req)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateRequestReview записывает решение по заявке: статус, момент решения,
// UID администратора и комментарий. Возвращает число изменённых строк.
// Предусловие status=pending проверяет сервис непосредственно перед записью;
// это осознанно не compare-and-swap.
func (s *Storage) UpdateRequestReview(ctx context.Context, id string, status models.RequestStatus,
	reviewedBy string, notes *string, reviewedAt time.Time) (int, error) {
	const op = "repository.UpdateRequestReview"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscription_requests
			  SET status = $1, reviewed_at = $2, reviewed_by = $3, notes = $4
			  WHERE id = $5`
	result, err := s.DB.ExecContext(ctx, query, status, reviewedAt, reviewedBy, notes, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
