package marknotificationsread

import (
	"context"
	"testing"

	"franchise-notifications/internal/common/errors"
	"franchise-notifications/internal/common/logger"
	"franchise-notifications/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Service Implementation
// ==========================

type MockUpdater struct {
	mock.Mock
}

func (m *MockUpdater) MarkRead(ctx context.Context, ids []string, role models.Role) (*models.BatchUpdateResult, error) {
	args := m.Called(ctx, ids, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchUpdateResult), args.Error(1)
}

func (m *MockUpdater) MarkAllRead(ctx context.Context, role models.Role) (*models.BatchUpdateResult, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchUpdateResult), args.Error(1)
}

func newTestHandler(t *testing.T, u StatusUpdater) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{Updater: u, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	return h
}

// ==========================
// Tests
// ==========================

func TestParseVariables(t *testing.T) {
	input, err := parseVariables(map[string]interface{}{
		"role": "FRANCHISEE",
		"ids":  []interface{}{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleFranchisee, input.Role)
	require.NotNil(t, input.IDs)
	assert.Equal(t, []string{"a", "b"}, *input.IDs)

	input, err = parseVariables(map[string]interface{}{"role": "ADMIN"})
	require.NoError(t, err)
	assert.Nil(t, input.IDs)

	_, err = parseVariables(map[string]interface{}{"role": "OWNER"})
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))

	_, err = parseVariables(map[string]interface{}{})
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))
}

func TestExecute_WithIDsMarksThoseIDs(t *testing.T) {
	u := &MockUpdater{}
	u.On("MarkRead", mock.Anything, []string{"a", "b"}, models.RoleAdmin).
		Return(&models.BatchUpdateResult{UpdatedCount: 1, UpdatedIDs: []string{"a"}}, nil)

	out, err := newTestHandler(t, u).Execute(context.Background(), &Input{Role: models.RoleAdmin, IDs: &[]string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.UpdatedCount)
	assert.Equal(t, []string{"a"}, out.UpdatedIDs)
	u.AssertNotCalled(t, "MarkAllRead", mock.Anything, mock.Anything)
}

func TestExecute_WithoutIDsMarksAll(t *testing.T) {
	u := &MockUpdater{}
	u.On("MarkAllRead", mock.Anything, models.RoleFranchisee).
		Return(&models.BatchUpdateResult{}, nil)

	out, err := newTestHandler(t, u).Execute(context.Background(), &Input{Role: models.RoleFranchisee})
	require.NoError(t, err)
	assert.Equal(t, 0, out.UpdatedCount)
	assert.Equal(t, []string{}, out.UpdatedIDs)
	u.AssertExpectations(t)
}

func TestExecute_EmptyIDListMarksNothing(t *testing.T) {
	input, err := parseVariables(map[string]interface{}{
		"role": "ADMIN",
		"ids":  []interface{}{},
	})
	require.NoError(t, err)
	require.NotNil(t, input.IDs)
	assert.Empty(t, *input.IDs)

	u := &MockUpdater{}
	u.On("MarkRead", mock.Anything, []string{}, models.RoleAdmin).
		Return(&models.BatchUpdateResult{UpdatedIDs: []string{}}, nil)

	out, err := newTestHandler(t, u).Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 0, out.UpdatedCount)
	u.AssertExpectations(t)
	u.AssertNotCalled(t, "MarkAllRead", mock.Anything, mock.Anything)
}

func TestExecute_PropagatesStoreFailure(t *testing.T) {
	u := &MockUpdater{}
	u.On("MarkAllRead", mock.Anything, models.RoleAdmin).
		Return(nil, errors.NewStatusUpdateFailedError(assert.AnError))

	_, err := newTestHandler(t, u).Execute(context.Background(), &Input{Role: models.RoleAdmin})
	assert.Equal(t, errors.ErrCodeStatusUpdateFailed, errors.CodeOf(err))
}
