package recipients

import (
	"context"
	"errors"
	"testing"

	"franchise-notifications/internal/common/logger"
	"franchise-notifications/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type mockDirectory struct {
	GetUserByIDFunc       func(ctx context.Context, id string) (*models.UserEmailInfo, error)
	GetFranchiseOwnerFunc func(ctx context.Context, id string) (*models.UserEmailInfo, error)
	ListActiveAdminsFunc  func(ctx context.Context) ([]models.UserEmailInfo, error)
	adminCalls            int
}

func (m *mockDirectory) GetUserByID(ctx context.Context, id string) (*models.UserEmailInfo, error) {
	if m.GetUserByIDFunc == nil {
		return nil, nil
	}
	return m.GetUserByIDFunc(ctx, id)
}

func (m *mockDirectory) GetFranchiseOwner(ctx context.Context, id string) (*models.UserEmailInfo, error) {
	if m.GetFranchiseOwnerFunc == nil {
		return nil, nil
	}
	return m.GetFranchiseOwnerFunc(ctx, id)
}

func (m *mockDirectory) GetFranchiseName(context.Context, string) (string, error) {
	return "", nil
}

func (m *mockDirectory) ListActiveAdmins(ctx context.Context) ([]models.UserEmailInfo, error) {
	m.adminCalls++
	if m.ListActiveAdminsFunc == nil {
		return nil, nil
	}
	return m.ListActiveAdminsFunc(ctx)
}

// ==========================
// Test Helper Functions
// ==========================

func strPtr(s string) *string { return &s }

func twoAdmins() *mockDirectory {
	return &mockDirectory{
		ListActiveAdminsFunc: func(context.Context) ([]models.UserEmailInfo, error) {
			return []models.UserEmailInfo{
				{ID: "A1", Email: "a@x.com", Name: strPtr("Alice"), Role: models.RoleAdmin},
				{ID: "A2", Email: "b@x.com", Role: models.RoleAdmin},
			}, nil
		},
	}
}

var defaultAdmins = []string{"ops@franchise-hub.com", "finance@franchise-hub.com"}

func adminAddresses() map[string]bool {
	set := map[string]bool{"a@x.com": true, "b@x.com": true}
	for _, a := range defaultAdmins {
		set[a] = true
	}
	return set
}

// ==========================
// Scenarios
// ==========================

func TestResolve_OrderCreatedForAdminsIncludesActiveAdmins(t *testing.T) {
	resolver := NewResolver(twoAdmins(), nil, logger.NewNoOpLogger())
	n := &models.Notification{
		Type:        models.TypeOrderCreated,
		TargetRole:  models.RoleAdmin,
		FranchiseID: strPtr("F1"),
	}
	cfg := models.EmailChannelConfig{SendEmail: true, IncludeDefaultRecipients: true}

	got := resolver.Resolve(context.Background(), n, nil, cfg)
	assert.ElementsMatch(t, []string{"a@x.com", "b@x.com"}, Addresses(got))

	actor := &models.UserEmailInfo{ID: "U9", Email: "buyer@franchise.com"}
	got = resolver.Resolve(context.Background(), n, actor, cfg)
	assert.ElementsMatch(t, []string{"a@x.com", "b@x.com", "buyer@franchise.com"}, Addresses(got))
}

func TestResolve_VehicleBreakdownForFranchiseeOnlyReachesOwner(t *testing.T) {
	dir := twoAdmins()
	resolver := NewResolver(dir, defaultAdmins, logger.NewNoOpLogger())
	n := &models.Notification{
		Type:         models.TypeVehicleBreakdown,
		TargetRole:   models.RoleFranchisee,
		TargetUserID: strPtr("U1"),
	}
	owner := &models.UserEmailInfo{ID: "U1", Email: "owner@franchise.com", Role: models.RoleFranchisee}
	cfg := models.EmailChannelConfig{SendEmail: true, IncludeDefaultRecipients: true}

	got := resolver.Resolve(context.Background(), n, owner, cfg)
	assert.Equal(t, []string{"owner@franchise.com"}, Addresses(got))
	assert.Zero(t, dir.adminCalls, "contextual lookup must be skipped for franchisees")
}

// ==========================
// Properties
// ==========================

func TestResolve_FranchiseeNeverReachesAdminLists(t *testing.T) {
	resolver := NewResolver(twoAdmins(), defaultAdmins, logger.NewNoOpLogger())
	admins := adminAddresses()
	actor := &models.UserEmailInfo{ID: "U1", Email: "owner@franchise.com"}

	for _, nt := range models.AllNotificationTypes() {
		for _, include := range []bool{true, false} {
			n := &models.Notification{Type: nt, TargetRole: models.RoleFranchisee, FranchiseID: strPtr("F1")}
			cfg := models.EmailChannelConfig{SendEmail: true, IncludeDefaultRecipients: include}

			for _, addr := range Addresses(resolver.Resolve(context.Background(), n, actor, cfg)) {
				assert.Falsef(t, admins[addr], "type %s include=%v leaked %s", nt, include, addr)
			}
		}
	}
}

func TestResolve_Deduplicates(t *testing.T) {
	resolver := NewResolver(twoAdmins(), []string{"a@x.com", "ops@x.com"}, logger.NewNoOpLogger())
	n := &models.Notification{Type: models.TypeInvoiceOverdue, TargetRole: models.RoleAdmin}
	actor := &models.UserEmailInfo{ID: "A1", Email: "A@X.com"}
	cfg := models.EmailChannelConfig{
		SendEmail:                true,
		IncludeDefaultRecipients: true,
		EmailRecipients:          []string{"a@x.com", "ops@x.com", " ops@x.com "},
	}

	got := Addresses(resolver.Resolve(context.Background(), n, actor, cfg))
	assert.Equal(t, []string{"a@x.com", "ops@x.com", "b@x.com"}, got)
}

func TestResolve_NameFilledFromLaterPath(t *testing.T) {
	resolver := NewResolver(twoAdmins(), nil, logger.NewNoOpLogger())
	n := &models.Notification{Type: models.TypeOrderCreated, TargetRole: models.RoleAdmin}
	cfg := models.EmailChannelConfig{SendEmail: true, EmailRecipients: []string{"a@x.com"}}

	got := resolver.Resolve(context.Background(), n, nil, cfg)
	require.NotEmpty(t, got)
	assert.Equal(t, "Alice", got[0].Name)
}

func TestResolve_DropsInvalidAddresses(t *testing.T) {
	resolver := NewResolver(&mockDirectory{}, []string{"not-an-email", "ops@x.com"}, logger.NewNoOpLogger())
	n := &models.Notification{Type: models.TypeSystemAnnouncement, TargetRole: models.RoleAdmin}
	cfg := models.EmailChannelConfig{
		SendEmail:                true,
		IncludeDefaultRecipients: true,
		EmailRecipients:          []string{"", "missing-at.com", "two@@x.com", "no-tld@x", "ok@x.com"},
	}

	got := Addresses(resolver.Resolve(context.Background(), n, &models.UserEmailInfo{Email: "bad address@x.com"}, cfg))
	assert.Equal(t, []string{"ok@x.com", "ops@x.com"}, got)
}

func TestResolve_IncludeDefaultsFalseSkipsDefaultList(t *testing.T) {
	resolver := NewResolver(&mockDirectory{}, defaultAdmins, logger.NewNoOpLogger())
	n := &models.Notification{Type: models.TypeOrderConfirmed, TargetRole: models.RoleAdmin}

	got := resolver.Resolve(context.Background(), n, nil, models.EmailChannelConfig{SendEmail: true})
	assert.Empty(t, got)
}

func TestResolve_UnresolvedFranchiseeYieldsEmptySet(t *testing.T) {
	resolver := NewResolver(twoAdmins(), defaultAdmins, logger.NewNoOpLogger())
	n := &models.Notification{
		Type:         models.TypeInvoiceOverdue,
		TargetRole:   models.RoleFranchisee,
		TargetUserID: strPtr("U404"),
	}

	got := resolver.Resolve(context.Background(), n, nil, models.EmailChannelConfig{SendEmail: true, IncludeDefaultRecipients: true})
	assert.Empty(t, got)
}

func TestResolve_ContextualLookupFailureIsContained(t *testing.T) {
	dir := &mockDirectory{
		ListActiveAdminsFunc: func(context.Context) ([]models.UserEmailInfo, error) {
			return nil, errors.New("db down")
		},
	}
	resolver := NewResolver(dir, []string{"ops@x.com"}, logger.NewNoOpLogger())
	n := &models.Notification{Type: models.TypeStockOut, TargetRole: models.RoleAdmin}

	got := resolver.Resolve(context.Background(), n, nil, models.EmailChannelConfig{SendEmail: true, IncludeDefaultRecipients: true})
	assert.Equal(t, []string{"ops@x.com"}, Addresses(got))
}

func TestResolve_NonOperationalTypesHaveNoContextualRecipients(t *testing.T) {
	dir := twoAdmins()
	resolver := NewResolver(dir, nil, logger.NewNoOpLogger())
	n := &models.Notification{Type: models.TypePasswordReset, TargetRole: models.RoleAdmin}

	got := resolver.Resolve(context.Background(), n, nil, models.EmailChannelConfig{SendEmail: true})
	assert.Empty(t, got)
	assert.Zero(t, dir.adminCalls)
}

// ==========================
// ResolveAddressee
// ==========================

func TestResolveAddressee(t *testing.T) {
	owner := &models.UserEmailInfo{ID: "U1", Email: "owner@franchise.com"}
	target := &models.UserEmailInfo{ID: "U2", Email: "manager@franchise.com"}

	tests := []struct {
		name     string
		n        *models.Notification
		dir      *mockDirectory
		expected *models.UserEmailInfo
	}{
		{
			name: "target user wins",
			n:    &models.Notification{TargetUserID: strPtr("U2"), FranchiseID: strPtr("F1")},
			dir: &mockDirectory{
				GetUserByIDFunc: func(_ context.Context, id string) (*models.UserEmailInfo, error) {
					assert.Equal(t, "U2", id)
					return target, nil
				},
			},
			expected: target,
		},
		{
			name: "franchise owner when no target user",
			n:    &models.Notification{FranchiseID: strPtr("F1")},
			dir: &mockDirectory{
				GetFranchiseOwnerFunc: func(_ context.Context, id string) (*models.UserEmailInfo, error) {
					assert.Equal(t, "F1", id)
					return owner, nil
				},
			},
			expected: owner,
		},
		{
			name: "target lookup failure does not fall back",
			n:    &models.Notification{TargetUserID: strPtr("U2"), FranchiseID: strPtr("F1")},
			dir: &mockDirectory{
				GetUserByIDFunc: func(context.Context, string) (*models.UserEmailInfo, error) {
					return nil, errors.New("timeout")
				},
				GetFranchiseOwnerFunc: func(context.Context, string) (*models.UserEmailInfo, error) {
					panic("franchise owner must not be consulted")
				},
			},
			expected: nil,
		},
		{
			name:     "nothing to resolve",
			n:        &models.Notification{},
			dir:      &mockDirectory{},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewResolver(tt.dir, nil, logger.NewTestLogger(t))
			assert.Equal(t, tt.expected, resolver.ResolveAddressee(context.Background(), tt.n))
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("owner@franchise.com"))
	assert.True(t, IsValidEmail("first.last+tag@sub.example.co"))
	assert.False(t, IsValidEmail("owner@franchise"))
	assert.False(t, IsValidEmail("@franchise.com"))
	assert.False(t, IsValidEmail("owner franchise@x.com"))
	assert.False(t, IsValidEmail(""))
}
