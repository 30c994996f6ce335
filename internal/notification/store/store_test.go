package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	apperrors "franchise-notifications/internal/common/errors"
	"franchise-notifications/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rowCols = []string{
	"id", "type", "priority", "status", "title", "message", "data", "target_user_id", "target_role",
	"franchise_id", "related_entity_id", "related_entity_type", "action_url", "created_at", "read_at", "expires_at",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(sqlx.NewDb(db, "postgres")), mock
}

func strPtr(s string) *string { return &s }

// ==========================
// Create
// ==========================

func TestPostgresStore_Create(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	n := &models.Notification{
		ID:          "0b7c4c52-9f51-4bb1-9a53-0a0c1d3f8e11",
		Type:        models.TypeOrderCreated,
		Priority:    models.PriorityMedium,
		Status:      models.StatusUnread,
		Title:       "Order created",
		Message:     "Order #42",
		Data:        map[string]interface{}{"orderNumber": "42"},
		TargetRole:  models.RoleAdmin,
		FranchiseID: strPtr("F1"),
		CreatedAt:   created,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WithArgs(n.ID, "ORDER_CREATED", "MEDIUM", "UNREAD", "Order created", "Order #42", []byte(`{"orderNumber":"42"}`),
			nil, "ADMIN", "F1", nil, nil, nil, created, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Create(context.Background(), n))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateFailureIsPersistError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WillReturnError(errors.New("connection refused"))

	err := s.Create(context.Background(), &models.Notification{ID: "n-1", TargetRole: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotificationPersistFailed, apperrors.CodeOf(err))
	assert.True(t, apperrors.IsRetryableErrorCode(apperrors.CodeOf(err)))
}

// ==========================
// Query
// ==========================

func TestBuildQuery(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	query, args := buildQuery(models.NotificationFilter{
		Role:        models.RoleAdmin,
		Types:       []models.NotificationType{models.TypeOrderCreated, models.TypeInvoiceOverdue},
		Statuses:    []models.NotificationStatus{models.StatusUnread},
		FranchiseID: "F1",
		From:        &from,
		Limit:       20,
		Offset:      40,
	})

	assert.Contains(t, query, "WHERE target_role = $1 AND type = ANY($2) AND status = ANY($3) AND franchise_id = $4 AND created_at >= $5")
	assert.Contains(t, query, "ORDER BY created_at DESC, id LIMIT $6 OFFSET $7")
	require.Len(t, args, 7)
	assert.Equal(t, models.RoleAdmin, args[0])
	assert.Equal(t, 20, args[5])
	assert.Equal(t, 40, args[6])
}

func TestBuildQuery_NoFilters(t *testing.T) {
	query, args := buildQuery(models.NotificationFilter{})
	assert.NotContains(t, query, "WHERE")
	assert.NotContains(t, query, "LIMIT")
	assert.Empty(t, args)
}

func TestPostgresStore_QueryDecodesData(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM notifications WHERE target_role = $1 AND status = ANY($2)")).
		WithArgs("FRANCHISEE", pq.Array([]string{"UNREAD"})).
		WillReturnRows(sqlmock.NewRows(rowCols).
			AddRow("n-1", "STOCK_LOW", "HIGH", "UNREAD", "Stock low", "Brake pads", []byte(`{"franchiseName":"Downtown"}`),
				"U1", "FRANCHISEE", "F1", nil, nil, "/inventory", created, nil, nil))

	got, err := s.Query(context.Background(), models.NotificationFilter{
		Role:     models.RoleFranchisee,
		Statuses: []models.NotificationStatus{models.StatusUnread},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)

	n := got[0]
	assert.Equal(t, models.TypeStockLow, n.Type)
	assert.Equal(t, models.PriorityHigh, n.Priority)
	assert.Equal(t, "Downtown", n.Data[models.DataKeyFranchiseName])
	require.NotNil(t, n.TargetUserID)
	assert.Equal(t, "U1", *n.TargetUserID)
	require.NotNil(t, n.ActionURL)
	assert.Equal(t, "/inventory", *n.ActionURL)
	assert.Nil(t, n.ReadAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM notifications").WillReturnError(errors.New("timeout"))

	_, err := s.Query(context.Background(), models.NotificationFilter{})
	assert.Equal(t, apperrors.ErrCodeNotificationQueryFailed, apperrors.CodeOf(err))
}

// ==========================
// BatchUpdateStatus
// ==========================

func TestPostgresStore_BatchUpdateOnlyTouchesUnread(t *testing.T) {
	s, mock := newMockStore(t)
	readAt := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	ids := []string{"n-1", "n-2", "n-3"}

	// n-2 is already READ, so the guarded UPDATE returns only the other two.
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ANY($1::uuid[]) AND target_role = $2 AND status = 'UNREAD'")).
		WithArgs(pq.Array(ids), "ADMIN", "READ", readAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("n-1").AddRow("n-3"))

	res, err := s.BatchUpdateStatus(context.Background(), ids, models.RoleAdmin,
		models.StatusUpdate{Status: models.StatusRead, ReadAt: &readAt})
	require.NoError(t, err)
	assert.Equal(t, 2, res.UpdatedCount)
	assert.Equal(t, []string{"n-1", "n-3"}, res.UpdatedIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_BatchUpdateRejectsUnread(t *testing.T) {
	s, mock := newMockStore(t)

	_, err := s.BatchUpdateStatus(context.Background(), []string{"n-1"}, models.RoleAdmin,
		models.StatusUpdate{Status: models.StatusUnread})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidStatusTransition, apperrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_BatchUpdateEmptyIDs(t *testing.T) {
	s, mock := newMockStore(t)

	res, err := s.BatchUpdateStatus(context.Background(), nil, models.RoleAdmin,
		models.StatusUpdate{Status: models.StatusRead})
	require.NoError(t, err)
	assert.Equal(t, 0, res.UpdatedCount)
	assert.Empty(t, res.UpdatedIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_BatchUpdateError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("UPDATE notifications").WillReturnError(errors.New("deadlock detected"))

	_, err := s.BatchUpdateStatus(context.Background(), []string{"n-1"}, models.RoleAdmin,
		models.StatusUpdate{Status: models.StatusRead})
	assert.Equal(t, apperrors.ErrCodeStatusUpdateFailed, apperrors.CodeOf(err))
}

// ==========================
// CountUnread
// ==========================

func TestPostgresStore_CountUnread(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(countUnread)).
		WithArgs("ADMIN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := s.CountUnread(context.Background(), models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
