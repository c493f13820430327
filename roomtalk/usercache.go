package roomtalk

import (
	"context"
	"fmt"
	"sync"
)

// UserResolver resolves a user id to a display name.
type UserResolver interface {
	Resolve(ctx context.Context, userID int64) (string, error)
}

// UserCache memoizes successful display-name lookups by user id. Failed
// lookups degrade to a placeholder derived from the id and are retried on the
// next request rather than cached.
type UserCache struct {
	resolver UserResolver
	logger   Logger

	mu    sync.Mutex
	names map[int64]string
}

// NewUserCache creates a cache backed by resolver.
func NewUserCache(resolver UserResolver) *UserCache {
	return &UserCache{
		resolver: resolver,
		logger:   noopLogger{},
		names:    make(map[int64]string),
	}
}

// SetLogger overrides the logger (optional).
func (c *UserCache) SetLogger(l Logger) {
	if l != nil {
		c.logger = l
	}
}

// DisplayName returns the username for userID, or a placeholder on lookup
// failure. It never returns an error; rendering must not fail on a bad lookup.
func (c *UserCache) DisplayName(ctx context.Context, userID int64) string {
	c.mu.Lock()
	name, ok := c.names[userID]
	c.mu.Unlock()
	if ok {
		return name
	}

	name, err := c.resolver.Resolve(ctx, userID)
	if err != nil {
		c.logger.Warn("username lookup failed", map[string]any{"userId": userID, "error": err.Error()})
		return fmt.Sprintf("UnknownUser(%d)", userID)
	}

	c.mu.Lock()
	c.names[userID] = name
	c.mu.Unlock()
	return name
}
