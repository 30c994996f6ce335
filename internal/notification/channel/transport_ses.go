package channel

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESService is the part of the SES client the transport calls.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESTransport struct {
	client           SESService
	source           string
	configurationSet string
}

func NewSESTransport(client SESService, fromEmail, fromName, configurationSet string) *SESTransport {
	source := fromEmail
	if fromName != "" {
		source = (&mail.Address{Name: fromName, Address: fromEmail}).String()
	}
	return &SESTransport{
		client:           client,
		source:           source,
		configurationSet: configurationSet,
	}
}

func (t *SESTransport) SendEmail(ctx context.Context, msg EmailMessage) (string, error) {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: msg.To,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
				Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(t.source),
	}
	if t.configurationSet != "" {
		input.ConfigurationSetName = aws.String(t.configurationSet)
	}

	out, err := t.client.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("ses send to %v: %w", msg.To, err)
	}
	return aws.ToString(out.MessageId), nil
}
