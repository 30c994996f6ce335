package recipients

import (
	"context"

	"franchise-notifications/internal/models"
)

type contextualLookup func(ctx context.Context, n *models.Notification) ([]models.UserEmailInfo, error)

// contextualLookupFor returns the type-specific recipient lookup, or nil when
// the type has none. Operational categories all resolve to the active admins
// today.
func (r *Resolver) contextualLookupFor(t models.NotificationType) contextualLookup {
	switch t.Category() {
	case models.CategoryOrder:
		return r.activeAdmins
	case models.CategoryVehicle:
		return r.activeAdmins
	case models.CategoryFinancial:
		return r.activeAdmins
	case models.CategoryFranchise:
		return r.activeAdmins
	case models.CategoryInventory:
		return r.activeAdmins
	}
	return nil
}

func (r *Resolver) activeAdmins(ctx context.Context, _ *models.Notification) ([]models.UserEmailInfo, error) {
	return r.directory.ListActiveAdmins(ctx)
}

func (r *Resolver) contextual(ctx context.Context, n *models.Notification) []models.UserEmailInfo {
	lookup := r.contextualLookupFor(n.Type)
	if lookup == nil {
		return nil
	}

	users, err := lookup(ctx, n)
	if err != nil {
		r.logger.Warn("contextual recipient lookup failed", map[string]interface{}{
			"notificationId": n.ID,
			"type":           string(n.Type),
			"error":          err.Error(),
		})
		return nil
	}
	return users
}
