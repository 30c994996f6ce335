// Package store persists notifications in PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "franchise-notifications/internal/common/errors"
	"franchise-notifications/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	Query(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	// BatchUpdateStatus moves the given UNREAD notifications of role to READ.
	// Rows that are already READ or belong to another role are left untouched.
	BatchUpdateStatus(ctx context.Context, ids []string, role models.Role, update models.StatusUpdate) (*models.BatchUpdateResult, error)
	CountUnread(ctx context.Context, role models.Role) (int, error)
}

const notificationColumns = `id, type, priority, status, title, message, data, target_user_id, target_role,
	franchise_id, related_entity_id, related_entity_type, action_url, created_at, read_at, expires_at`

const insertNotification = `INSERT INTO notifications (` + notificationColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

const updateStatus = `UPDATE notifications
	SET status = $3, read_at = $4
	WHERE id = ANY($1::uuid[]) AND target_role = $2 AND status = 'UNREAD'
	RETURNING id`

const countUnread = `SELECT COUNT(*) FROM notifications WHERE target_role = $1 AND status = 'UNREAD'`

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// notificationRow carries the JSONB payload that models.Notification keeps
// as a map.
type notificationRow struct {
	models.Notification
	RawData []byte `db:"data"`
}

func (s *PostgresStore) Create(ctx context.Context, n *models.Notification) error {
	data := n.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return apperrors.NewNotificationPersistFailedError(fmt.Errorf("marshal data: %w", err))
	}

	_, err = s.db.ExecContext(ctx, insertNotification,
		n.ID, n.Type, n.Priority, n.Status, n.Title, n.Message, raw,
		n.TargetUserID, n.TargetRole, n.FranchiseID, n.RelatedEntityID, n.RelatedEntityType,
		n.ActionURL, n.CreatedAt, n.ReadAt, n.ExpiresAt,
	)
	if err != nil {
		return apperrors.NewNotificationPersistFailedError(err).WithMetadata("notificationId", n.ID)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	query, args := buildQuery(filter)

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewNotificationQueryFailedError(err)
	}

	out := make([]models.Notification, 0, len(rows))
	for _, row := range rows {
		n := row.Notification
		if len(row.RawData) > 0 {
			if err := json.Unmarshal(row.RawData, &n.Data); err != nil {
				return nil, apperrors.NewNotificationQueryFailedError(fmt.Errorf("decode data of %s: %w", n.ID, err))
			}
		}
		out = append(out, n)
	}
	return out, nil
}

func buildQuery(f models.NotificationFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f.Role != "" {
		add("target_role = $%d", f.Role)
	}
	if len(f.Types) > 0 {
		add("type = ANY($%d)", pq.Array(toStrings(f.Types)))
	}
	if len(f.Priorities) > 0 {
		add("priority = ANY($%d)", pq.Array(toStrings(f.Priorities)))
	}
	if len(f.Statuses) > 0 {
		add("status = ANY($%d)", pq.Array(toStrings(f.Statuses)))
	}
	if f.FranchiseID != "" {
		add("franchise_id = $%d", f.FranchiseID)
	}
	if f.TargetUserID != "" {
		add("target_user_id = $%d", f.TargetUserID)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}

	var b strings.Builder
	b.WriteString("SELECT " + notificationColumns + " FROM notifications")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func (s *PostgresStore) BatchUpdateStatus(ctx context.Context, ids []string, role models.Role, update models.StatusUpdate) (*models.BatchUpdateResult, error) {
	if update.Status != models.StatusRead {
		return nil, apperrors.NewInvalidStatusTransitionError(string(models.StatusUnread), string(update.Status))
	}
	result := &models.BatchUpdateResult{UpdatedIDs: []string{}}
	if len(ids) == 0 {
		return result, nil
	}

	var updated []string
	if err := s.db.SelectContext(ctx, &updated, updateStatus, pq.Array(ids), role, update.Status, update.ReadAt); err != nil {
		return nil, apperrors.NewStatusUpdateFailedError(err)
	}
	result.UpdatedIDs = append(result.UpdatedIDs, updated...)
	result.UpdatedCount = len(updated)
	return result, nil
}

func (s *PostgresStore) CountUnread(ctx context.Context, role models.Role) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, countUnread, role); err != nil {
		return 0, apperrors.NewNotificationQueryFailedError(err)
	}
	return count, nil
}
