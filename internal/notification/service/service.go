// Package service is the notification orchestrator: it validates, enriches
// and persists a notification, then fans it out to every registered channel.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "franchise-notifications/internal/common/errors"
	"franchise-notifications/internal/common/logger"
	"franchise-notifications/internal/common/metrics"
	"franchise-notifications/internal/common/observability"
	"franchise-notifications/internal/models"
	"franchise-notifications/internal/notification/channel"
	"franchise-notifications/internal/notification/policy"
	"franchise-notifications/internal/notification/store"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
)

// AddresseeResolver finds the directly addressed user of a notification.
type AddresseeResolver interface {
	ResolveAddressee(ctx context.Context, n *models.Notification) *models.UserEmailInfo
}

type Deps struct {
	Store    store.Store
	Channels *channel.Registry
	Resolver AddresseeResolver
	Enricher *Enricher
	Unread   *UnreadCache
	Obs      *observability.Observability
	Logger   logger.Logger

	Now   func() time.Time
	NewID func() string
}

type Service struct {
	store    store.Store
	channels *channel.Registry
	resolver AddresseeResolver
	enricher *Enricher
	unread   *UnreadCache
	obs      *observability.Observability
	logger   logger.Logger
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

func New(d Deps) *Service {
	s := &Service{
		store:    d.Store,
		channels: d.Channels,
		resolver: d.Resolver,
		enricher: d.Enricher,
		unread:   d.Unread,
		obs:      d.Obs,
		logger:   d.Logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      d.Now,
		newID:    d.NewID,
	}
	if s.channels == nil {
		s.channels, _ = channel.NewRegistry()
	}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	return s
}

// CreateResult is the persisted notification plus every channel's outcome.
type CreateResult struct {
	Notification   *models.Notification      `json:"notification"`
	ChannelResults map[string]channel.Result `json:"channelResults"`
}

// Create persists the notification and then attempts delivery on every
// registered channel. Only validation and persistence failures are returned
// as errors; channel outcomes are reported in the result.
func (s *Service) Create(ctx context.Context, req *models.NotificationCreateRequest, actor *models.UserEmailInfo, override *models.EmailChannelConfig) (*CreateResult, error) {
	if req == nil {
		return nil, apperrors.NewValidationError("request is required")
	}
	start := s.now()
	ctx, span := s.obs.StartSpan(ctx, "notification.create", attribute.String("notification.type", string(req.Type)))
	defer span.End()

	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	n := &models.Notification{
		ID:                s.newID(),
		Type:              req.Type,
		Priority:          req.Priority,
		Status:            models.StatusUnread,
		Title:             req.Title,
		Message:           req.Message,
		TargetUserID:      req.TargetUserID,
		TargetRole:        req.TargetRole,
		FranchiseID:       req.FranchiseID,
		RelatedEntityID:   req.RelatedEntityID,
		RelatedEntityType: req.RelatedEntityType,
		ActionURL:         req.ActionURL,
		ExpiresAt:         req.ExpiresAt,
		CreatedAt:         start.UTC(),
	}
	if n.Priority == "" {
		n.Priority = models.PriorityMedium
	}

	var franchiseID string
	if n.FranchiseID != nil {
		franchiseID = *n.FranchiseID
	}
	n.Data = s.enricher.Enrich(ctx, franchiseID, req.Data).MergeInto(req.Data)

	if err := s.store.Create(ctx, n); err != nil {
		metrics.NotificationPersistFailures.WithLabelValues(string(n.Type)).Inc()
		s.obs.RecordCreateDuration(ctx, s.now().Sub(start), "persist_failed")
		s.logger.Error("failed to persist notification", map[string]interface{}{
			"type":       string(n.Type),
			"targetRole": string(n.TargetRole),
			"error":      err.Error(),
		})
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.NewNotificationPersistFailedError(err)
	}

	metrics.NotificationsCreated.WithLabelValues(string(n.Type), string(n.Priority), string(n.TargetRole)).Inc()
	s.obs.RecordNotificationCreated(ctx, string(n.Type), string(n.Priority))
	s.unread.Invalidate(ctx, n.TargetRole)

	if actor == nil && s.resolver != nil {
		actor = s.resolver.ResolveAddressee(ctx, n)
	}
	cfg := policy.Resolve(n.Type, override)

	results := s.fanOut(ctx, n, cfg, actor)

	elapsed := s.now().Sub(start)
	metrics.CreateDuration.WithLabelValues(string(n.Type)).Observe(elapsed.Seconds())
	s.obs.RecordCreateDuration(ctx, elapsed, "success")

	s.logger.Info("notification created", map[string]interface{}{
		"notificationId": n.ID,
		"type":           string(n.Type),
		"priority":       string(n.Priority),
		"targetRole":     string(n.TargetRole),
		"channels":       summarize(results),
	})

	return &CreateResult{Notification: n, ChannelResults: results}, nil
}

// fanOut runs every channel concurrently and waits for all of them. A
// panicking channel is reported as failed without affecting the others.
func (s *Service) fanOut(ctx context.Context, n *models.Notification, cfg models.EmailChannelConfig, actor *models.UserEmailInfo) map[string]channel.Result {
	chans := s.channels.Channels()
	results := make(map[string]channel.Result, len(chans))
	if len(chans) == 0 {
		return results
	}

	type named struct {
		name string
		res  channel.Result
	}
	p := pool.NewWithResults[named]()
	for _, ch := range chans {
		name := ch.Name()
		p.Go(func() named {
			var res channel.Result
			var pc panics.Catcher
			pc.Try(func() { res = ch.Send(ctx, n, cfg, actor) })
			if r := pc.Recovered(); r != nil {
				s.logger.Error("channel panicked", map[string]interface{}{
					"channel":        name,
					"notificationId": n.ID,
					"panic":          fmt.Sprint(r.Value),
				})
				return named{name: name, res: channel.Failed(name, r.AsError())}
			}
			res.Channel = name
			return named{name: name, res: res}
		})
	}

	// Keyed by registry name so a channel cannot overwrite a sibling's result.
	for _, out := range p.Wait() {
		results[out.name] = out.res
		metrics.ChannelDeliveries.WithLabelValues(out.name, string(out.res.Outcome)).Inc()
		metrics.ChannelRecipients.WithLabelValues(out.name).Observe(float64(out.res.Attempted))
		s.obs.RecordDelivery(ctx, out.name, string(out.res.Outcome))
	}
	return results
}

func summarize(results map[string]channel.Result) map[string]string {
	out := make(map[string]string, len(results))
	for name, r := range results {
		out[name] = string(r.Outcome)
	}
	return out
}

func (s *Service) validateCreate(req *models.NotificationCreateRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperrors.NewValidationError(describeValidation(err))
	}
	if !req.Type.IsValid() {
		return apperrors.NewInvalidNotificationTypeError(string(req.Type))
	}
	if req.Priority != "" && !req.Priority.IsValid() {
		return apperrors.NewValidationError(fmt.Sprintf("priority %q must be one of LOW, MEDIUM, HIGH, URGENT", req.Priority))
	}
	return nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed '%s=%s'", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed '%s'", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// List returns the notifications addressed to role that match filter.
func (s *Service) List(ctx context.Context, role models.Role, filter models.NotificationFilter) ([]models.Notification, error) {
	if !role.IsValid() {
		return nil, apperrors.NewInvalidRoleError(string(role))
	}
	filter.Role = role
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, apperrors.NewValidationError("limit and offset must not be negative")
	}
	return s.store.Query(ctx, filter)
}

// MarkRead moves the given notifications of role to READ.
func (s *Service) MarkRead(ctx context.Context, ids []string, role models.Role) (*models.BatchUpdateResult, error) {
	return s.UpdateStatus(ctx, ids, role, models.StatusRead)
}

// MarkAllRead finds every UNREAD notification of role and moves exactly those
// to READ.
func (s *Service) MarkAllRead(ctx context.Context, role models.Role) (*models.BatchUpdateResult, error) {
	if !role.IsValid() {
		return nil, apperrors.NewInvalidRoleError(string(role))
	}
	unread, err := s.store.Query(ctx, models.NotificationFilter{
		Role:     role,
		Statuses: []models.NotificationStatus{models.StatusUnread},
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(unread))
	for _, n := range unread {
		ids = append(ids, n.ID)
	}
	return s.update(ctx, ids, role, "mark_all_read")
}

// UpdateStatus applies a status change. Only UNREAD to READ exists, so any
// request for UNREAD is rejected.
func (s *Service) UpdateStatus(ctx context.Context, ids []string, role models.Role, status models.NotificationStatus) (*models.BatchUpdateResult, error) {
	if !role.IsValid() {
		return nil, apperrors.NewInvalidRoleError(string(role))
	}
	switch status {
	case models.StatusRead:
	case models.StatusUnread:
		return nil, apperrors.NewInvalidStatusTransitionError(string(models.StatusRead), string(models.StatusUnread))
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown status %q", status))
	}
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("invalid notification id %q", id))
		}
	}
	return s.update(ctx, ids, role, "mark_read")
}

func (s *Service) update(ctx context.Context, ids []string, role models.Role, op string) (*models.BatchUpdateResult, error) {
	if len(ids) == 0 {
		return &models.BatchUpdateResult{UpdatedIDs: []string{}}, nil
	}
	readAt := s.now().UTC()
	res, err := s.store.BatchUpdateStatus(ctx, ids, role, models.StatusUpdate{Status: models.StatusRead, ReadAt: &readAt})
	if err != nil {
		s.logger.Error("status update failed", map[string]interface{}{
			"role":      string(role),
			"operation": op,
			"requested": len(ids),
			"error":     err.Error(),
		})
		return nil, err
	}

	metrics.StatusUpdates.WithLabelValues(string(role), op).Add(float64(res.UpdatedCount))
	s.unread.Invalidate(ctx, role)
	s.logger.Info("notifications marked read", map[string]interface{}{
		"role":      string(role),
		"operation": op,
		"requested": len(ids),
		"updated":   res.UpdatedCount,
	})
	return res, nil
}

// UnreadCount returns the number of UNREAD notifications for role, served
// from the redis cache when present.
func (s *Service) UnreadCount(ctx context.Context, role models.Role) (int, error) {
	if !role.IsValid() {
		return 0, apperrors.NewInvalidRoleError(string(role))
	}
	if count, ok := s.unread.Get(ctx, role); ok {
		return count, nil
	}
	count, err := s.store.CountUnread(ctx, role)
	if err != nil {
		return 0, err
	}
	s.unread.Set(ctx, role, count)
	return count, nil
}
