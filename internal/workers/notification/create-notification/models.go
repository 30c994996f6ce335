package createnotification

import (
	"franchise-notifications/internal/common/validation"
	"franchise-notifications/internal/models"
	"franchise-notifications/internal/notification/channel"
)

// Input is the job variables of a create request. Notification fields sit at
// the top level next to the optional actor and per-call email override.
type Input struct {
	models.NotificationCreateRequest
	Actor         *models.UserEmailInfo      `json:"actor,omitempty"`
	EmailOverride *models.EmailChannelConfig `json:"emailOverride,omitempty"`
}

type Output struct {
	NotificationID     string                    `json:"notificationId"`
	NotificationStatus models.NotificationStatus `json:"notificationStatus"`
	ChannelResults     map[string]channel.Result `json:"channelResults"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["type", "title", "message", "targetRole"],
	"properties": {
		"type":       {"type": "string", "minLength": 1},
		"priority":   {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH", "URGENT"]},
		"title":      {"type": "string", "minLength": 1, "maxLength": 255},
		"message":    {"type": "string", "minLength": 1},
		"targetRole": {"type": "string", "enum": ["ADMIN", "FRANCHISEE"]},
		"targetUserId":      {"type": "string"},
		"franchiseId":       {"type": "string"},
		"relatedEntityId":   {"type": "string"},
		"relatedEntityType": {"type": "string"},
		"actionUrl":         {"type": "string"},
		"expiresAt":         {"type": "string", "format": "date-time"},
		"data":              {"type": "object"},
		"actor": {
			"type": "object",
			"required": ["email"],
			"properties": {
				"id":    {"type": "string"},
				"email": {"type": "string"},
				"role":  {"type": "string"}
			}
		},
		"emailOverride": {
			"type": "object",
			"required": ["sendEmail"],
			"properties": {
				"sendEmail":                {"type": "boolean"},
				"emailRecipients":          {"type": "array", "items": {"type": "string"}},
				"includeDefaultRecipients": {"type": "boolean"}
			}
		}
	}
}`)
