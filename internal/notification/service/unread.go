package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"franchise-notifications/internal/common/logger"
	"franchise-notifications/internal/models"

	"github.com/redis/go-redis/v9"
)

const unreadKeyPrefix = "notifications:unread:"

// UnreadCache keeps the per-role unread badge count in redis. Redis failures
// are logged and treated as a miss.
type UnreadCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewUnreadCache(client *redis.Client, ttl time.Duration, log logger.Logger) *UnreadCache {
	return &UnreadCache{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "unread-cache"}),
	}
}

func unreadKey(role models.Role) string {
	return unreadKeyPrefix + string(role)
}

func (c *UnreadCache) Get(ctx context.Context, role models.Role) (int, bool) {
	if c == nil {
		return 0, false
	}
	val, err := c.client.Get(ctx, unreadKey(role)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("unread count read failed", map[string]interface{}{"role": string(role), "error": err.Error()})
		}
		return 0, false
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return count, true
}

func (c *UnreadCache) Set(ctx context.Context, role models.Role, count int) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, unreadKey(role), count, c.ttl).Err(); err != nil {
		c.logger.Warn("unread count write failed", map[string]interface{}{"role": string(role), "error": err.Error()})
	}
}

func (c *UnreadCache) Invalidate(ctx context.Context, role models.Role) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, unreadKey(role)).Err(); err != nil {
		c.logger.Warn("unread count invalidation failed", map[string]interface{}{"role": string(role), "error": err.Error()})
	}
}
