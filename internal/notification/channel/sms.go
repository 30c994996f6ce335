package channel

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "franchise-notifications/internal/common/errors"
	"franchise-notifications/internal/common/logger"
	"franchise-notifications/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSService is the part of the SNS client the SMS channel calls.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

const maxSMSLength = 160

// SMSChannel texts the directly addressed user for notifications at or above
// a priority threshold. It never fans out to admin lists.
type SMSChannel struct {
	client    SNSService
	threshold models.NotificationPriority
	senderID  string
	brand     string
	logger    logger.Logger
}

func NewSMSChannel(client SNSService, threshold models.NotificationPriority, senderID, brand string, log logger.Logger) *SMSChannel {
	if !threshold.IsValid() {
		threshold = models.PriorityUrgent
	}
	return &SMSChannel{
		client:    client,
		threshold: threshold,
		senderID:  senderID,
		brand:     brand,
		logger:    log.WithFields(map[string]interface{}{"channel": NameSMS}),
	}
}

func (c *SMSChannel) Name() string {
	return NameSMS
}

func (c *SMSChannel) Send(ctx context.Context, n *models.Notification, cfg models.EmailChannelConfig, actor *models.UserEmailInfo) Result {
	if !cfg.SendEmail {
		return Skipped(NameSMS, "delivery disabled for type "+string(n.Type))
	}
	if !n.Priority.AtLeast(c.threshold) {
		return Skipped(NameSMS, fmt.Sprintf("priority %s below %s", n.Priority, c.threshold))
	}
	if actor == nil || actor.Phone == nil || strings.TrimSpace(*actor.Phone) == "" {
		return Skipped(NameSMS, "addressee has no phone number")
	}

	input := &sns.PublishInput{
		PhoneNumber: aws.String(strings.TrimSpace(*actor.Phone)),
		Message:     aws.String(c.message(n)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	}
	if c.senderID != "" {
		input.MessageAttributes["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(c.senderID),
		}
	}

	out, err := c.client.Publish(ctx, input)
	if err != nil {
		c.logger.Error("sms publish failed", map[string]interface{}{
			"notificationId": n.ID,
			"userId":         actor.ID,
			"error":          err.Error(),
		})
		return Failed(NameSMS, apperrors.NewTransportFailedError(NameSMS, err))
	}

	c.logger.Info("sms sent", map[string]interface{}{
		"notificationId": n.ID,
		"userId":         actor.ID,
	})
	return Delivered(NameSMS, aws.ToString(out.MessageId))
}

func (c *SMSChannel) message(n *models.Notification) string {
	msg := fmt.Sprintf("%s%s: %s", subjectPrefix(n.Priority), c.brand, n.Title)
	return truncateUTF8(msg, maxSMSLength)
}

// truncateUTF8 shortens s to at most limit bytes, ending with "..." and never
// splitting a multi-byte character.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
