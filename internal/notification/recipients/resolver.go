// Package recipients computes the deduplicated, validated address set for one
// delivery attempt.
package recipients

import (
	"context"
	"regexp"
	"strings"

	"franchise-notifications/internal/common/logger"
	"franchise-notifications/internal/models"
	"franchise-notifications/internal/notification/directory"
)

// Recipient is one resolved email address. Name is empty when unknown.
type Recipient struct {
	Address string
	Name    string
}

// Addresses flattens recipients to their addresses, preserving order.
func Addresses(rs []Recipient) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Address
	}
	return out
}

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail is a local@domain.tld shape check, not RFC 5322 validation.
func IsValidEmail(addr string) bool {
	return emailShape.MatchString(addr)
}

type Resolver struct {
	directory     directory.Directory
	defaultAdmins []string
	logger        logger.Logger
}

// NewResolver copies defaultAdminEmails; the list is fixed for the resolver's
// lifetime.
func NewResolver(dir directory.Directory, defaultAdminEmails []string, log logger.Logger) *Resolver {
	return &Resolver{
		directory:     dir,
		defaultAdmins: append([]string(nil), defaultAdminEmails...),
		logger:        log.WithFields(map[string]interface{}{"component": "recipient-resolver"}),
	}
}

// Resolve merges, in order, the explicit override list, the addressee, the
// default admin list and the type's contextual recipients. Admin defaults and
// contextual recipients are never added for FRANCHISEE notifications.
func (r *Resolver) Resolve(ctx context.Context, n *models.Notification, actor *models.UserEmailInfo, cfg models.EmailChannelConfig) []Recipient {
	set := newRecipientSet()

	for _, addr := range cfg.EmailRecipients {
		set.add(addr, "")
	}

	if actor != nil {
		set.add(actor.Email, actor.DisplayName())
	}

	if n.TargetRole != models.RoleFranchisee {
		if cfg.IncludeDefaultRecipients && n.TargetRole == models.RoleAdmin {
			for _, addr := range r.defaultAdmins {
				set.add(addr, "")
			}
		}

		for _, user := range r.contextual(ctx, n) {
			set.add(user.Email, user.DisplayName())
		}
	}

	return set.list()
}

// ResolveAddressee looks up the directly addressed user: the target user when
// one is set, otherwise the owner of the notification's franchise. Failures
// are logged and yield nil.
func (r *Resolver) ResolveAddressee(ctx context.Context, n *models.Notification) *models.UserEmailInfo {
	var (
		user   *models.UserEmailInfo
		err    error
		lookup string
	)
	switch {
	case n.TargetUserID != nil && *n.TargetUserID != "":
		lookup = "targetUser"
		user, err = r.directory.GetUserByID(ctx, *n.TargetUserID)
	case n.FranchiseID != nil && *n.FranchiseID != "":
		lookup = "franchiseOwner"
		user, err = r.directory.GetFranchiseOwner(ctx, *n.FranchiseID)
	default:
		return nil
	}

	if err != nil {
		r.logger.Warn("addressee lookup failed", map[string]interface{}{
			"notificationId": n.ID,
			"lookup":         lookup,
			"error":          err.Error(),
		})
		return nil
	}
	if user == nil {
		r.logger.Debug("addressee not found", map[string]interface{}{
			"notificationId": n.ID,
			"lookup":         lookup,
		})
	}
	return user
}

type recipientSet struct {
	index map[string]int
	items []Recipient
}

func newRecipientSet() *recipientSet {
	return &recipientSet{index: map[string]int{}}
}

func (s *recipientSet) add(addr, name string) {
	addr = strings.TrimSpace(addr)
	if !IsValidEmail(addr) {
		return
	}
	key := strings.ToLower(addr)
	if i, seen := s.index[key]; seen {
		if s.items[i].Name == "" {
			s.items[i].Name = name
		}
		return
	}
	s.index[key] = len(s.items)
	s.items = append(s.items, Recipient{Address: addr, Name: name})
}

func (s *recipientSet) list() []Recipient {
	return s.items
}
