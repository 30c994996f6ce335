package directory

import (
	"context"
	"errors"
	"time"

	"franchise-notifications/internal/common/logger"
	"franchise-notifications/internal/models"

	"github.com/redis/go-redis/v9"
)

const franchiseNameKeyPrefix = "notifications:franchise-name:"

// CachedDirectory caches franchise display names in redis. User identities
// are always read from the underlying directory.
type CachedDirectory struct {
	inner  Directory
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedDirectory(inner Directory, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedDirectory {
	return &CachedDirectory{
		inner:  inner,
		redis:  client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "directory-cache"}),
	}
}

func (c *CachedDirectory) GetUserByID(ctx context.Context, userID string) (*models.UserEmailInfo, error) {
	return c.inner.GetUserByID(ctx, userID)
}

func (c *CachedDirectory) GetFranchiseOwner(ctx context.Context, franchiseID string) (*models.UserEmailInfo, error) {
	return c.inner.GetFranchiseOwner(ctx, franchiseID)
}

func (c *CachedDirectory) ListActiveAdmins(ctx context.Context) ([]models.UserEmailInfo, error) {
	return c.inner.ListActiveAdmins(ctx)
}

func (c *CachedDirectory) GetFranchiseName(ctx context.Context, franchiseID string) (string, error) {
	if franchiseID == "" {
		return "", nil
	}
	key := franchiseNameKeyPrefix + franchiseID

	cached, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("franchise name cache read failed", map[string]interface{}{
			"franchiseId": franchiseID,
			"error":       err.Error(),
		})
	}

	name, err := c.inner.GetFranchiseName(ctx, franchiseID)
	if err != nil || name == "" {
		return name, err
	}

	if err := c.redis.Set(ctx, key, name, c.ttl).Err(); err != nil {
		c.logger.Warn("franchise name cache write failed", map[string]interface{}{
			"franchiseId": franchiseID,
			"error":       err.Error(),
		})
	}
	return name, nil
}
