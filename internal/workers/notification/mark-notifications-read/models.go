package marknotificationsread

import (
	"franchise-notifications/internal/common/validation"
	"franchise-notifications/internal/models"
)

// Input marks ids read for role. Only a missing ids key marks every unread
// notification of the role; an empty list marks nothing.
type Input struct {
	Role models.Role `json:"role"`
	IDs  *[]string   `json:"ids,omitempty"`
}

type Output struct {
	UpdatedCount int      `json:"updatedCount"`
	UpdatedIDs   []string `json:"updatedIds"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["role"],
	"properties": {
		"role": {"type": "string", "enum": ["ADMIN", "FRANCHISEE"]},
		"ids":  {"type": "array", "items": {"type": "string", "minLength": 1}}
	}
}`)
