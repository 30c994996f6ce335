package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"franchise-notifications/internal/models"

	"github.com/gin-gonic/gin"
)

type createRequest struct {
	models.NotificationCreateRequest
	EmailOverride *models.EmailChannelConfig `json:"emailOverride,omitempty"`
}

type markReadRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleCreate(c *gin.Context) {
	var body createRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid JSON body: "+err.Error())
		return
	}

	// The caller is not the addressee; the service resolves targetUserId or
	// the franchise owner itself.
	result, err := s.service.Create(c.Request.Context(), &body.NotificationCreateRequest, nil, body.EmailOverride)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"notification":   result.Notification,
		"channelResults": result.ChannelResults,
	})
}

func (s *Server) handleList(c *gin.Context) {
	id := identityFrom(c)
	filter, err := parseFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	items, err := s.service.List(c.Request.Context(), id.Role, filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if items == nil {
		items = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items, "count": len(items)})
}

func (s *Server) handleUnreadCount(c *gin.Context) {
	id := identityFrom(c)
	count, err := s.service.UnreadCount(c.Request.Context(), id.Role)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": id.Role, "unreadCount": count})
}

func (s *Server) handleMarkRead(c *gin.Context) {
	var body markReadRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid JSON body: "+err.Error())
		return
	}

	result, err := s.service.MarkRead(c.Request.Context(), body.IDs, identityFrom(c).Role)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleMarkAllRead(c *gin.Context) {
	result, err := s.service.MarkAllRead(c.Request.Context(), identityFrom(c).Role)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseFilter(c *gin.Context) (models.NotificationFilter, error) {
	var f models.NotificationFilter

	for _, v := range splitQuery(c, "type") {
		f.Types = append(f.Types, models.NotificationType(strings.ToUpper(v)))
	}
	for _, v := range splitQuery(c, "priority") {
		f.Priorities = append(f.Priorities, models.NotificationPriority(strings.ToUpper(v)))
	}
	for _, v := range splitQuery(c, "status") {
		f.Statuses = append(f.Statuses, models.NotificationStatus(strings.ToUpper(v)))
	}
	f.FranchiseID = c.Query("franchiseId")
	f.TargetUserID = c.Query("targetUserId")

	var err error
	if f.From, err = parseTime(c, "from"); err != nil {
		return f, err
	}
	if f.To, err = parseTime(c, "to"); err != nil {
		return f, err
	}
	if f.Limit, err = parseInt(c, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = parseInt(c, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

// splitQuery accepts both repeated keys and comma separated values.
func splitQuery(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseTime(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, &queryError{key: key, reason: "must be an RFC3339 timestamp"}
	}
	return &t, nil
}

func parseInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &queryError{key: key, reason: "must be an integer"}
	}
	return n, nil
}

type queryError struct {
	key    string
	reason string
}

func (e *queryError) Error() string {
	return e.key + " " + e.reason
}
