package channel

import (
	"context"

	"franchise-notifications/internal/models"
)

type EmailMessage struct {
	To       []string
	Subject  string
	HTML     string
	Text     string
	Priority models.NotificationPriority
}

// EmailTransport sends one composed message and returns the provider's
// message id.
type EmailTransport interface {
	SendEmail(ctx context.Context, msg EmailMessage) (messageID string, err error)
}
