// internal/store/cache/state_cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/conversation/orchestrator"
	"github.com/josephinoo/agent-bg/internal/models"
)

const (
	stateKeyPrefix  = "conv:state:"
	DefaultStateTTL = 30 * time.Minute
)

// CachedStore keeps the latest state per phone number in Redis in front of
// a durable store. Redis failures degrade to the durable store.
type CachedStore struct {
	inner  orchestrator.Store
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

var _ orchestrator.Store = (*CachedStore)(nil)

func NewCachedStore(inner orchestrator.Store, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &CachedStore{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger.ForComponent(log, "state-cache"),
	}
}

func stateKey(phone string) string {
	return stateKeyPrefix + phone
}

func (c *CachedStore) LoadState(ctx context.Context, phone string) (*models.ConversationState, error) {
	key := stateKey(phone)
	val, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var state models.ConversationState
		if jsonErr := json.Unmarshal(val, &state); jsonErr == nil {
			return &state, nil
		}
		c.logger.Warn("Discarding unreadable cached state", map[string]interface{}{
			"phone": models.MaskPhone(phone),
		})
		c.client.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("State cache read failed", map[string]interface{}{
			"phone": models.MaskPhone(phone),
			"error": err.Error(),
		})
	}

	state, err := c.inner.LoadState(ctx, phone)
	if err != nil || state == nil {
		return state, err
	}
	c.put(ctx, state)
	return state, nil
}

// SaveState writes through: the durable store first, then the cache.
func (c *CachedStore) SaveState(ctx context.Context, state *models.ConversationState) error {
	if err := c.inner.SaveState(ctx, state); err != nil {
		return err
	}
	c.put(ctx, state)
	return nil
}

func (c *CachedStore) AppendMessage(ctx context.Context, sessionID string, role models.Role, text string, step models.Step) (string, error) {
	return c.inner.AppendMessage(ctx, sessionID, role, text, step)
}

func (c *CachedStore) SaveLead(ctx context.Context, state *models.ConversationState) (string, error) {
	return c.inner.SaveLead(ctx, state)
}

func (c *CachedStore) put(ctx context.Context, state *models.ConversationState) {
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, stateKey(state.Phone), data, c.ttl).Err(); err != nil {
		c.logger.Warn("State cache write failed", map[string]interface{}{
			"sessionId": state.SessionID,
			"error":     err.Error(),
		})
	}
}
