package policy

import (
	"testing"

	"franchise-notifications/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_CoversEveryType(t *testing.T) {
	for _, nt := range models.AllNotificationTypes() {
		_, ok := Lookup(nt)
		assert.Truef(t, ok, "notification type %s has no delivery policy", nt)
	}
}

func TestLookup_UnknownTypeDoesNotSend(t *testing.T) {
	cfg, ok := Lookup(models.NotificationType("NOT_A_TYPE"))
	assert.False(t, ok)
	assert.False(t, cfg.SendEmail)
	assert.False(t, cfg.IncludeDefaultRecipients)
}

func TestLookup_PolicyShape(t *testing.T) {
	tests := []struct {
		name            string
		nt              models.NotificationType
		sendEmail       bool
		includeDefaults bool
	}{
		{"breakdown escalates", models.TypeVehicleBreakdown, true, true},
		{"overdue invoice escalates", models.TypeInvoiceOverdue, true, true},
		{"suspension escalates", models.TypeFranchiseSuspended, true, true},
		{"order created escalates", models.TypeOrderCreated, true, true},
		{"order confirmed addressee only", models.TypeOrderConfirmed, true, false},
		{"order shipped addressee only", models.TypeOrderShipped, true, false},
		{"profile updated silent", models.TypeProfileUpdated, false, false},
		{"stock received silent", models.TypeStockReceived, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, ok := Lookup(tt.nt)
			require.True(t, ok)
			assert.Equal(t, tt.sendEmail, cfg.SendEmail)
			assert.Equal(t, tt.includeDefaults, cfg.IncludeDefaultRecipients)
			assert.Empty(t, cfg.EmailRecipients)
		})
	}
}

func TestResolve_OverrideWins(t *testing.T) {
	override := &models.EmailChannelConfig{
		SendEmail:       true,
		EmailRecipients: []string{"cfo@franchise.com"},
	}

	cfg := Resolve(models.TypeStockReceived, override)
	assert.True(t, cfg.SendEmail)
	assert.Equal(t, []string{"cfo@franchise.com"}, cfg.EmailRecipients)

	cfg.EmailRecipients[0] = "changed@franchise.com"
	assert.Equal(t, "cfo@franchise.com", override.EmailRecipients[0], "override must not be aliased")
}

func TestResolve_FallsBackToTable(t *testing.T) {
	cfg := Resolve(models.TypeVehicleBreakdown, nil)
	assert.True(t, cfg.SendEmail)
	assert.True(t, cfg.IncludeDefaultRecipients)
}
