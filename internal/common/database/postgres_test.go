package database

import (
	"context"
	"errors"
	"testing"

	apperrors "franchise-notifications/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockClient(t *testing.T, monitorPings bool) (*PostgresClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(monitorPings))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &PostgresClient{DB: sqlx.NewDb(db, "postgres")}, mock
}

func TestPing_WrapsConnectionFailure(t *testing.T) {
	client, mock := newMockClient(t, true)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDatabaseConnectionFailed, apperrors.CodeOf(err))

	stdErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.True(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPing_Healthy(t *testing.T) {
	client, mock := newMockClient(t, true)
	mock.ExpectPing()

	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_WrapsDriverFailure(t *testing.T) {
	// No expectations: the migration driver's first query is rejected.
	client, _ := newMockClient(t, false)

	err := client.Migrate()
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeMigrationFailed, apperrors.CodeOf(err))
}
