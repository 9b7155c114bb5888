package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/daryakhm/storefront-core/internal/apperr"
	"github.com/daryakhm/storefront-core/internal/models"
)

// CreateBroadcast сохраняет глобальное уведомление и возвращает его ID.
func (s *Storage) CreateBroadcast(ctx context.Context, b models.Broadcast) (string, error) {
	const op = "repository.CreateBroadcast"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO broadcasts (title, description, is_active)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query, b.Title, b.Description, b.IsActive).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// UpdateBroadcast обновляет глобальное уведомление, возвращает число изменённых строк.
func (s *Storage) UpdateBroadcast(ctx context.Context, b models.Broadcast) (int, error) {
	const op = "repository.UpdateBroadcast"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE broadcasts
			  SET title = $1, description = $2, is_active = $3
			  WHERE id = $4`
	result, err := s.DB.ExecContext(ctx, query, b.Title, b.Description, b.IsActive, b.ID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// DeleteBroadcast удаляет глобальное уведомление. Отметки о прочтении
// не трогаются — они просто перестают на что-то ссылаться.
func (s *Storage) DeleteBroadcast(ctx context.Context, id string) (int, error) {
	const op = "repository.DeleteBroadcast"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM broadcasts WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListActiveBroadcasts возвращает все активные глобальные уведомления, новые сверху.
func (s *Storage) ListActiveBroadcasts(ctx context.Context) ([]*models.Broadcast, error) {
	const op = "repository.ListActiveBroadcasts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, title, description, is_active, created_at
			  FROM broadcasts
			  WHERE is_active = true
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Broadcast
	for rows.Next() {
		b := &models.Broadcast{}
		if err := rows.Scan(&b.ID, &b.Title, &b.Description, &b.IsActive, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListActiveBroadcastsForAccount возвращает активные глобальные уведомления
// с признаком прочтения конкретным аккаунтом. Признак вычисляется
// LEFT JOIN-ом по отметкам: нет отметки — не прочитано.
func (s *Storage) ListActiveBroadcastsForAccount(ctx context.Context, accountUID string) ([]*models.BroadcastWithRead, error) {
	const op = "repository.ListActiveBroadcastsForAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT b.id, b.title, b.description, b.is_active, b.created_at,
			      (r.broadcast_id IS NOT NULL) AS is_read
			  FROM broadcasts b
			  LEFT JOIN broadcast_reads r
			    ON r.broadcast_id = b.id AND r.account_uid = $1
			  WHERE b.is_active = true
			  ORDER BY b.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, accountUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.BroadcastWithRead
	for rows.Next() {
		b := &models.BroadcastWithRead{}
		if err := rows.Scan(&b.ID, &b.Title, &b.Description, &b.IsActive,
			&b.CreatedAt, &b.IsRead); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountUnreadBroadcasts считает активные глобальные уведомления без отметки
// о прочтении данным аккаунтом.
func (s *Storage) CountUnreadBroadcasts(ctx context.Context, accountUID string) (int, error) {
	const op = "repository.CountUnreadBroadcasts"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*)
			  FROM broadcasts b
			  LEFT JOIN broadcast_reads r
			    ON r.broadcast_id = b.id AND r.account_uid = $1
			  WHERE b.is_active = true AND r.broadcast_id IS NULL`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, accountUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// MarkBroadcastRead создает отметку о прочтении. Повторная отметка — no-op.
func (s *Storage) MarkBroadcastRead(ctx context.Context, accountUID, broadcastID string) error {
	const op = "repository.MarkBroadcastRead"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO broadcast_reads (account_uid, broadcast_id)
			  VALUES ($1, $2)
			  ON CONFLICT (account_uid, broadcast_id) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, accountUID, broadcastID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetBroadcast возвращает глобальное уведомление по ID.
func (s *Storage) GetBroadcast(ctx context.Context, id string) (*models.Broadcast, error) {
	const op = "repository.GetBroadcast"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, title, description, is_active, created_at
			  FROM broadcasts
			  WHERE id = $1`
	b := &models.Broadcast{}
	row := s.DB.QueryRowContext(ctx, query, id)
	if err := row.Scan(&b.ID, &b.Title, &b.Description, &b.IsActive, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

// CreateDirectNotification сохраняет персональное уведомление для одного аккаунта.
func (s *Storage) CreateDirectNotification(ctx context.Context, n models.DirectNotification) (string, error) {
	const op = "repository.CreateDirectNotification"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO direct_notifications (account_uid, title, body)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query, n.AccountUID, n.Title, n.Body).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListDirectNotifications возвращает персональные уведомления аккаунта, новые сверху.
func (s *Storage) ListDirectNotifications(ctx context.Context, accountUID string) ([]*models.DirectNotification, error) {
	const op = "repository.ListDirectNotifications"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, account_uid, title, body, is_read, created_at
			  FROM direct_notifications
			  WHERE account_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, accountUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.DirectNotification
	for rows.Next() {
		n := &models.DirectNotification{}
		if err := rows.Scan(&n.ID, &n.AccountUID, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkDirectNotificationRead помечает персональное уведомление прочитанным.
// Получатель ровно один, поэтому признак хранится прямо на записи.
func (s *Storage) MarkDirectNotificationRead(ctx context.Context, accountUID, id string) error {
	const op = "repository.MarkDirectNotificationRead"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE direct_notifications
			  SET is_read = true
			  WHERE id = $1 AND account_uid = $2`
	res, err := s.DB.ExecContext(ctx, query, id, accountUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}
