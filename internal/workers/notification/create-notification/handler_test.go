package createnotification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"franchise-notifications/internal/common/errors"
	"franchise-notifications/internal/common/logger"
	"franchise-notifications/internal/models"
	"franchise-notifications/internal/notification/channel"
	"franchise-notifications/internal/notification/service"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Service Implementation
// ==========================

type MockCreator struct {
	mock.Mock
}

func (m *MockCreator) Create(ctx context.Context, req *models.NotificationCreateRequest, actor *models.UserEmailInfo, override *models.EmailChannelConfig) (*service.CreateResult, error) {
	args := m.Called(ctx, req, actor, override)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreateResult), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "order-process",
		ElementId:          "Activity_CreateNotification",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func validVariables() map[string]interface{} {
	return map[string]interface{}{
		"type":        "ORDER_CREATED",
		"priority":    "HIGH",
		"title":       "New order",
		"message":     "Order #42 was placed",
		"targetRole":  "ADMIN",
		"franchiseId": "f-1",
		"data":        map[string]interface{}{"orderNumber": "42"},
	}
}

func newTestHandler(t *testing.T, creator Creator) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{Creator: creator, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	return h
}

// ==========================
// Handler Creation Tests
// ==========================

func TestNewHandler(t *testing.T) {
	_, err := NewHandler(HandlerOptions{Creator: &MockCreator{}})
	assert.NoError(t, err)

	_, err = NewHandler(HandlerOptions{})
	assert.Error(t, err)

	_, err = NewHandler(HandlerOptions{Creator: &MockCreator{}, Config: &Config{MaxJobsActive: 1}})
	assert.ErrorContains(t, err, "timeout must be positive")
}

// ==========================
// Input Parsing Tests
// ==========================

func TestParseInput_Valid(t *testing.T) {
	vars := validVariables()
	vars["actor"] = map[string]interface{}{"id": "u-1", "email": "owner@example.com", "role": "FRANCHISEE"}
	vars["emailOverride"] = map[string]interface{}{"sendEmail": true, "emailRecipients": []string{"ops@example.com"}}
	vars["expiresAt"] = "2030-01-01T00:00:00Z"

	h := newTestHandler(t, &MockCreator{})
	input, err := h.parseInput(createMockJob(1, vars))
	require.NoError(t, err)

	assert.Equal(t, models.TypeOrderCreated, input.Type)
	assert.Equal(t, models.PriorityHigh, input.Priority)
	assert.Equal(t, models.RoleAdmin, input.TargetRole)
	require.NotNil(t, input.FranchiseID)
	assert.Equal(t, "f-1", *input.FranchiseID)
	assert.Equal(t, "42", input.Data["orderNumber"])
	require.NotNil(t, input.Actor)
	assert.Equal(t, "owner@example.com", input.Actor.Email)
	require.NotNil(t, input.EmailOverride)
	assert.Equal(t, []string{"ops@example.com"}, input.EmailOverride.EmailRecipients)
	require.NotNil(t, input.ExpiresAt)
	assert.Equal(t, 2030, input.ExpiresAt.Year())
}

func TestParseInput_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		field  string
	}{
		{"missing title", func(v map[string]interface{}) { delete(v, "title") }, "title"},
		{"bad role", func(v map[string]interface{}) { v["targetRole"] = "OWNER" }, "targetRole"},
		{"bad priority", func(v map[string]interface{}) { v["priority"] = "CRITICAL" }, "priority"},
		{"override without sendEmail", func(v map[string]interface{}) { v["emailOverride"] = map[string]interface{}{} }, "emailOverride"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := validVariables()
			tt.mutate(vars)

			_, err := parseVariables(vars)
			require.Error(t, err)
			stdErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
			assert.Contains(t, stdErr.Details, tt.field)
		})
	}
}

// ==========================
// Execute Tests
// ==========================

func TestExecute_ReportsChannelResults(t *testing.T) {
	creator := &MockCreator{}
	creator.On("Create", mock.Anything, mock.MatchedBy(func(req *models.NotificationCreateRequest) bool {
		return req.Type == models.TypeOrderCreated
	}), (*models.UserEmailInfo)(nil), (*models.EmailChannelConfig)(nil)).Return(&service.CreateResult{
		Notification: &models.Notification{ID: "n-1", Status: models.StatusUnread, CreatedAt: time.Now()},
		ChannelResults: map[string]channel.Result{
			"email": channel.Failed("email", errors.NewRecipientsEmptyError("ORDER_CREATED")),
		},
	}, nil)

	h := newTestHandler(t, creator)
	input, err := parseVariables(validVariables())
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "n-1", out.NotificationID)
	assert.Equal(t, models.StatusUnread, out.NotificationStatus)
	assert.Equal(t, channel.OutcomeFailed, out.ChannelResults["email"].Outcome)
	creator.AssertExpectations(t)
}

func TestExecute_PropagatesPersistFailure(t *testing.T) {
	creator := &MockCreator{}
	persistErr := errors.NewNotificationPersistFailedError(assert.AnError)
	creator.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, persistErr)

	h := newTestHandler(t, creator)
	input, err := parseVariables(validVariables())
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), input)
	assert.Nil(t, out)
	assert.Equal(t, errors.ErrCodeNotificationPersistFailed, errors.CodeOf(err))

	bpmn := errors.ConvertToBPMNError(persistErr)
	assert.Equal(t, "NOTIFICATION_PERSIST_FAILED", bpmn.Code)
	assert.Equal(t, 3, bpmn.Retries)
}
