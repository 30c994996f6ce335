// internal/models/notification.go
package models

import "time"

type NotificationType string

const (
	// Order lifecycle
	TypeOrderCreated   NotificationType = "ORDER_CREATED"
	TypeOrderConfirmed NotificationType = "ORDER_CONFIRMED"
	TypeOrderShipped   NotificationType = "ORDER_SHIPPED"
	TypeOrderDelivered NotificationType = "ORDER_DELIVERED"
	TypeOrderCancelled NotificationType = "ORDER_CANCELLED"

	// Vehicle lifecycle
	TypeVehicleAssigned       NotificationType = "VEHICLE_ASSIGNED"
	TypeVehicleMaintenanceDue NotificationType = "VEHICLE_MAINTENANCE_DUE"
	TypeVehicleBreakdown      NotificationType = "VEHICLE_BREAKDOWN"
	TypeVehicleReturned       NotificationType = "VEHICLE_RETURNED"

	// Financial
	TypeInvoiceCreated  NotificationType = "INVOICE_CREATED"
	TypeInvoiceOverdue  NotificationType = "INVOICE_OVERDUE"
	TypeInvoicePaid     NotificationType = "INVOICE_PAID"
	TypePaymentReceived NotificationType = "PAYMENT_RECEIVED"
	TypePaymentFailed   NotificationType = "PAYMENT_FAILED"
	TypeRoyaltyDue      NotificationType = "ROYALTY_DUE"
	TypeRoyaltyOverdue  NotificationType = "ROYALTY_OVERDUE"

	// Franchise lifecycle
	TypeFranchiseApplicationSubmitted NotificationType = "FRANCHISE_APPLICATION_SUBMITTED"
	TypeFranchiseApproved             NotificationType = "FRANCHISE_APPROVED"
	TypeFranchiseRejected             NotificationType = "FRANCHISE_REJECTED"
	TypeFranchiseSuspended            NotificationType = "FRANCHISE_SUSPENDED"
	TypeFranchiseActivated            NotificationType = "FRANCHISE_ACTIVATED"

	// Inventory
	TypeStockLow      NotificationType = "STOCK_LOW"
	TypeStockOut      NotificationType = "STOCK_OUT"
	TypeStockReceived NotificationType = "STOCK_RECEIVED"

	// User / account
	TypeUserCreated    NotificationType = "USER_CREATED"
	TypeProfileUpdated NotificationType = "PROFILE_UPDATED"
	TypePasswordReset  NotificationType = "PASSWORD_RESET"

	// Reporting
	TypeReportGenerated        NotificationType = "REPORT_GENERATED"
	TypeMonthlyReportAvailable NotificationType = "MONTHLY_REPORT_AVAILABLE"

	TypeSystemAnnouncement NotificationType = "SYSTEM_ANNOUNCEMENT"
)

var allNotificationTypes = []NotificationType{
	TypeOrderCreated, TypeOrderConfirmed, TypeOrderShipped, TypeOrderDelivered, TypeOrderCancelled,
	TypeVehicleAssigned, TypeVehicleMaintenanceDue, TypeVehicleBreakdown, TypeVehicleReturned,
	TypeInvoiceCreated, TypeInvoiceOverdue, TypeInvoicePaid, TypePaymentReceived, TypePaymentFailed,
	TypeRoyaltyDue, TypeRoyaltyOverdue,
	TypeFranchiseApplicationSubmitted, TypeFranchiseApproved, TypeFranchiseRejected,
	TypeFranchiseSuspended, TypeFranchiseActivated,
	TypeStockLow, TypeStockOut, TypeStockReceived,
	TypeUserCreated, TypeProfileUpdated, TypePasswordReset,
	TypeReportGenerated, TypeMonthlyReportAvailable,
	TypeSystemAnnouncement,
}

// AllNotificationTypes returns a copy of the closed set of notification types.
func AllNotificationTypes() []NotificationType {
	out := make([]NotificationType, len(allNotificationTypes))
	copy(out, allNotificationTypes)
	return out
}

func (t NotificationType) IsValid() bool {
	for _, known := range allNotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

type NotificationCategory string

const (
	CategoryOrder     NotificationCategory = "order"
	CategoryVehicle   NotificationCategory = "vehicle"
	CategoryFinancial NotificationCategory = "financial"
	CategoryFranchise NotificationCategory = "franchise"
	CategoryInventory NotificationCategory = "inventory"
	CategoryAccount   NotificationCategory = "account"
	CategoryReporting NotificationCategory = "reporting"
	CategorySystem    NotificationCategory = "system"
	CategoryUnknown   NotificationCategory = "unknown"
)

// Category groups a type by the business domain that emits it.
func (t NotificationType) Category() NotificationCategory {
	switch t {
	case TypeOrderCreated, TypeOrderConfirmed, TypeOrderShipped, TypeOrderDelivered, TypeOrderCancelled:
		return CategoryOrder
	case TypeVehicleAssigned, TypeVehicleMaintenanceDue, TypeVehicleBreakdown, TypeVehicleReturned:
		return CategoryVehicle
	case TypeInvoiceCreated, TypeInvoiceOverdue, TypeInvoicePaid, TypePaymentReceived,
		TypePaymentFailed, TypeRoyaltyDue, TypeRoyaltyOverdue:
		return CategoryFinancial
	case TypeFranchiseApplicationSubmitted, TypeFranchiseApproved, TypeFranchiseRejected,
		TypeFranchiseSuspended, TypeFranchiseActivated:
		return CategoryFranchise
	case TypeStockLow, TypeStockOut, TypeStockReceived:
		return CategoryInventory
	case TypeUserCreated, TypeProfileUpdated, TypePasswordReset:
		return CategoryAccount
	case TypeReportGenerated, TypeMonthlyReportAvailable:
		return CategoryReporting
	case TypeSystemAnnouncement:
		return CategorySystem
	}
	return CategoryUnknown
}

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "LOW"
	PriorityMedium NotificationPriority = "MEDIUM"
	PriorityHigh   NotificationPriority = "HIGH"
	PriorityUrgent NotificationPriority = "URGENT"
)

// Rank orders priorities LOW < MEDIUM < HIGH < URGENT. Unknown values rank 0.
func (p NotificationPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

func (p NotificationPriority) AtLeast(other NotificationPriority) bool {
	return p.Rank() >= other.Rank()
}

func (p NotificationPriority) IsValid() bool {
	return p.Rank() > 0
}

type NotificationStatus string

const (
	StatusUnread NotificationStatus = "UNREAD"
	StatusRead   NotificationStatus = "READ"
)

func (s NotificationStatus) IsValid() bool {
	return s == StatusUnread || s == StatusRead
}

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleFranchisee Role = "FRANCHISEE"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleFranchisee
}

// Notification is the persisted record of a business event.
type Notification struct {
	ID                string                 `json:"id" db:"id"`
	Type              NotificationType       `json:"type" db:"type"`
	Priority          NotificationPriority   `json:"priority" db:"priority"`
	Status            NotificationStatus     `json:"status" db:"status"`
	Title             string                 `json:"title" db:"title"`
	Message           string                 `json:"message" db:"message"`
	Data              map[string]interface{} `json:"data,omitempty" db:"-"`
	TargetUserID      *string                `json:"targetUserId,omitempty" db:"target_user_id"`
	TargetRole        Role                   `json:"targetRole" db:"target_role"`
	FranchiseID       *string                `json:"franchiseId,omitempty" db:"franchise_id"`
	RelatedEntityID   *string                `json:"relatedEntityId,omitempty" db:"related_entity_id"`
	RelatedEntityType *string                `json:"relatedEntityType,omitempty" db:"related_entity_type"`
	ActionURL         *string                `json:"actionUrl,omitempty" db:"action_url"`
	CreatedAt         time.Time              `json:"createdAt" db:"created_at"`
	ReadAt            *time.Time             `json:"readAt,omitempty" db:"read_at"`
	ExpiresAt         *time.Time             `json:"expiresAt,omitempty" db:"expires_at"`
}

// DataString returns data[key] when it holds a non-empty string.
func (n *Notification) DataString(key string) (string, bool) {
	if n == nil || n.Data == nil {
		return "", false
	}
	s, ok := n.Data[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

type NotificationCreateRequest struct {
	Type              NotificationType       `json:"type" validate:"required"`
	Priority          NotificationPriority   `json:"priority,omitempty"`
	Title             string                 `json:"title" validate:"required,max=255"`
	Message           string                 `json:"message" validate:"required"`
	TargetUserID      *string                `json:"targetUserId,omitempty" validate:"omitempty,min=1"`
	TargetRole        Role                   `json:"targetRole" validate:"required,oneof=ADMIN FRANCHISEE"`
	FranchiseID       *string                `json:"franchiseId,omitempty" validate:"omitempty,min=1"`
	RelatedEntityID   *string                `json:"relatedEntityId,omitempty"`
	RelatedEntityType *string                `json:"relatedEntityType,omitempty"`
	ActionURL         *string                `json:"actionUrl,omitempty" validate:"omitempty,uri"`
	ExpiresAt         *time.Time             `json:"expiresAt,omitempty"`
	Data              map[string]interface{} `json:"data,omitempty"`
}

type NotificationFilter struct {
	Role         Role                   `json:"role"`
	Types        []NotificationType     `json:"types,omitempty"`
	Priorities   []NotificationPriority `json:"priorities,omitempty"`
	Statuses     []NotificationStatus   `json:"statuses,omitempty"`
	FranchiseID  string                 `json:"franchiseId,omitempty"`
	TargetUserID string                 `json:"targetUserId,omitempty"`
	From         *time.Time             `json:"from,omitempty"`
	To           *time.Time             `json:"to,omitempty"`
	Limit        int                    `json:"limit,omitempty"` // 0 means no limit
	Offset       int                    `json:"offset,omitempty"`
}

type StatusUpdate struct {
	Status NotificationStatus `json:"status"`
	ReadAt *time.Time         `json:"readAt,omitempty"`
}

type BatchUpdateResult struct {
	UpdatedCount int      `json:"updatedCount"`
	UpdatedIDs   []string `json:"updatedIds"`
}

// EmailChannelConfig is the per-type delivery policy, optionally overridden per call.
type EmailChannelConfig struct {
	SendEmail                bool     `json:"sendEmail"`
	EmailRecipients          []string `json:"emailRecipients,omitempty"`
	IncludeDefaultRecipients bool     `json:"includeDefaultRecipients"`
}

// Data keys written by enrichment and read by rendering.
const (
	DataKeyFranchiseName = "franchiseName"
	DataKeyUserName      = "userName"
	DataKeyPaymentType   = "paymentType"
)

const PaymentTypeEntryFee = "ENTRY_FEE"
