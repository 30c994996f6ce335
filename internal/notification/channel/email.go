package channel

import (
	"context"

	apperrors "franchise-notifications/internal/common/errors"
	"franchise-notifications/internal/common/logger"
	"franchise-notifications/internal/models"

	"github.com/sourcegraph/conc/pool"
)

// EmailChannel sends one personalised message per resolved recipient.
type EmailChannel struct {
	resolver  RecipientResolver
	transport EmailTransport
	renderer  *Renderer
	logger    logger.Logger
}

func NewEmailChannel(resolver RecipientResolver, transport EmailTransport, renderer *Renderer, log logger.Logger) *EmailChannel {
	return &EmailChannel{
		resolver:  resolver,
		transport: transport,
		renderer:  renderer,
		logger:    log.WithFields(map[string]interface{}{"channel": NameEmail}),
	}
}

func (c *EmailChannel) Name() string {
	return NameEmail
}

func (c *EmailChannel) Send(ctx context.Context, n *models.Notification, cfg models.EmailChannelConfig, actor *models.UserEmailInfo) Result {
	if !cfg.SendEmail {
		c.logger.Debug("email disabled for notification type", map[string]interface{}{
			"notificationId": n.ID,
			"type":           string(n.Type),
		})
		return Skipped(NameEmail, "email disabled for type "+string(n.Type))
	}

	rcpts := c.resolver.Resolve(ctx, n, actor, cfg)
	if len(rcpts) == 0 {
		c.logger.Warn("no valid recipients", map[string]interface{}{
			"notificationId": n.ID,
			"type":           string(n.Type),
			"targetRole":     string(n.TargetRole),
		})
		return Failed(NameEmail, apperrors.NewRecipientsEmptyError(string(n.Type)))
	}

	p := pool.NewWithResults[attempt]()
	for i, r := range rcpts {
		p.Go(func() attempt {
			a := attempt{index: i, recipient: r.Address}
			msg, err := c.renderer.Render(n, r.Address, r.Name)
			if err != nil {
				a.err = err
				return a
			}
			a.messageID, a.err = c.transport.SendEmail(ctx, msg)
			if a.err != nil {
				a.err = apperrors.NewTransportFailedError(NameEmail, a.err)
			}
			return a
		})
	}
	res := aggregate(NameEmail, p.Wait())

	fields := map[string]interface{}{
		"notificationId": n.ID,
		"recipients":     res.Attempted,
		"failed":         res.FailedCount,
		"outcome":        string(res.Outcome),
	}
	switch res.Outcome {
	case OutcomeDelivered:
		c.logger.Info("email delivered", fields)
	case OutcomePartiallyDelivered:
		fields["warning"] = res.Warning
		c.logger.Warn("email partially delivered", fields)
	default:
		fields["error"] = res.Error
		c.logger.Error("email delivery failed", fields)
	}
	return res
}
