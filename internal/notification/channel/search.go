package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	apperrors "franchise-notifications/internal/common/errors"
	"franchise-notifications/internal/common/logger"
	"franchise-notifications/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// SearchIndexMapping is applied when the notifications index is created.
const SearchIndexMapping = `{
  "mappings": {
    "properties": {
      "id":                {"type": "keyword"},
      "type":              {"type": "keyword"},
      "category":          {"type": "keyword"},
      "priority":          {"type": "keyword"},
      "status":            {"type": "keyword"},
      "title":             {"type": "text"},
      "message":           {"type": "text"},
      "targetRole":        {"type": "keyword"},
      "targetUserId":      {"type": "keyword"},
      "franchiseId":       {"type": "keyword"},
      "franchiseName":     {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "relatedEntityId":   {"type": "keyword"},
      "relatedEntityType": {"type": "keyword"},
      "createdAt":         {"type": "date"}
    }
  }
}`

// SearchChannel indexes every notification for the admin activity search. It
// ignores the email policy: indexing is not a message to anyone.
type SearchChannel struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewSearchChannel(client *elasticsearch.Client, index string, log logger.Logger) *SearchChannel {
	return &SearchChannel{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"channel": NameSearch}),
	}
}

func (c *SearchChannel) Name() string {
	return NameSearch
}

type searchDocument struct {
	ID                string                      `json:"id"`
	Type              models.NotificationType     `json:"type"`
	Category          models.NotificationCategory `json:"category"`
	Priority          models.NotificationPriority `json:"priority"`
	Status            models.NotificationStatus   `json:"status"`
	Title             string                      `json:"title"`
	Message           string                      `json:"message"`
	TargetRole        models.Role                 `json:"targetRole"`
	TargetUserID      *string                     `json:"targetUserId,omitempty"`
	FranchiseID       *string                     `json:"franchiseId,omitempty"`
	FranchiseName     string                      `json:"franchiseName,omitempty"`
	RelatedEntityID   *string                     `json:"relatedEntityId,omitempty"`
	RelatedEntityType *string                     `json:"relatedEntityType,omitempty"`
	CreatedAt         string                      `json:"createdAt"`
}

func (c *SearchChannel) Send(ctx context.Context, n *models.Notification, _ models.EmailChannelConfig, _ *models.UserEmailInfo) Result {
	doc := searchDocument{
		ID:                n.ID,
		Type:              n.Type,
		Category:          n.Type.Category(),
		Priority:          n.Priority,
		Status:            n.Status,
		Title:             n.Title,
		Message:           n.Message,
		TargetRole:        n.TargetRole,
		TargetUserID:      n.TargetUserID,
		FranchiseID:       n.FranchiseID,
		RelatedEntityID:   n.RelatedEntityID,
		RelatedEntityType: n.RelatedEntityType,
		CreatedAt:         n.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	doc.FranchiseName, _ = n.DataString(models.DataKeyFranchiseName)

	body, err := json.Marshal(doc)
	if err != nil {
		return Failed(NameSearch, apperrors.NewSearchIndexFailedError(c.index, err))
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: n.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return c.fail(n, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return c.fail(n, fmt.Errorf("index response %s: %s", res.Status(), string(raw)))
	}

	var indexed struct {
		ID     string `json:"_id"`
		Result string `json:"result"`
	}
	if err := json.NewDecoder(res.Body).Decode(&indexed); err != nil || indexed.ID == "" {
		indexed.ID = n.ID
	}

	c.logger.Debug("notification indexed", map[string]interface{}{
		"notificationId": n.ID,
		"index":          c.index,
		"result":         indexed.Result,
	})
	return Delivered(NameSearch, indexed.ID)
}

func (c *SearchChannel) fail(n *models.Notification, err error) Result {
	c.logger.Error("search indexing failed", map[string]interface{}{
		"notificationId": n.ID,
		"index":          c.index,
		"error":          err.Error(),
	})
	return Failed(NameSearch, apperrors.NewSearchIndexFailedError(c.index, err))
}
