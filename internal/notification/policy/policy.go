// Package policy holds the per-type email delivery defaults.
package policy

import "franchise-notifications/internal/models"

// notify emails the directly addressed party only.
func notify() models.EmailChannelConfig {
	return models.EmailChannelConfig{SendEmail: true}
}

// escalate emails the addressee and copies operational staff.
func escalate() models.EmailChannelConfig {
	return models.EmailChannelConfig{SendEmail: true, IncludeDefaultRecipients: true}
}

// silent keeps the notification in-app only.
func silent() models.EmailChannelConfig {
	return models.EmailChannelConfig{}
}

// Lookup returns the default email policy for t. Every known type has an
// explicit case; ok is false only for values outside the enumeration, which
// get the silent policy.
func Lookup(t models.NotificationType) (cfg models.EmailChannelConfig, ok bool) {
	switch t {
	case models.TypeOrderCreated:
		return escalate(), true
	case models.TypeOrderConfirmed:
		return notify(), true
	case models.TypeOrderShipped:
		return notify(), true
	case models.TypeOrderDelivered:
		return notify(), true
	case models.TypeOrderCancelled:
		return escalate(), true

	case models.TypeVehicleAssigned:
		return notify(), true
	case models.TypeVehicleMaintenanceDue:
		return notify(), true
	case models.TypeVehicleBreakdown:
		return escalate(), true
	case models.TypeVehicleReturned:
		return silent(), true

	case models.TypeInvoiceCreated:
		return notify(), true
	case models.TypeInvoiceOverdue:
		return escalate(), true
	case models.TypeInvoicePaid:
		return notify(), true
	case models.TypePaymentReceived:
		return escalate(), true
	case models.TypePaymentFailed:
		return escalate(), true
	case models.TypeRoyaltyDue:
		return notify(), true
	case models.TypeRoyaltyOverdue:
		return escalate(), true

	case models.TypeFranchiseApplicationSubmitted:
		return escalate(), true
	case models.TypeFranchiseApproved:
		return notify(), true
	case models.TypeFranchiseRejected:
		return notify(), true
	case models.TypeFranchiseSuspended:
		return escalate(), true
	case models.TypeFranchiseActivated:
		return notify(), true

	case models.TypeStockLow:
		return notify(), true
	case models.TypeStockOut:
		return escalate(), true
	case models.TypeStockReceived:
		return silent(), true

	case models.TypeUserCreated:
		return notify(), true
	case models.TypeProfileUpdated:
		return silent(), true
	case models.TypePasswordReset:
		return notify(), true

	case models.TypeReportGenerated:
		return silent(), true
	case models.TypeMonthlyReportAvailable:
		return notify(), true

	case models.TypeSystemAnnouncement:
		return notify(), true
	}
	return silent(), false
}

// Resolve returns the per-call override when given, else the table entry.
func Resolve(t models.NotificationType, override *models.EmailChannelConfig) models.EmailChannelConfig {
	if override != nil {
		cfg := *override
		cfg.EmailRecipients = append([]string(nil), override.EmailRecipients...)
		return cfg
	}
	cfg, _ := Lookup(t)
	return cfg
}
