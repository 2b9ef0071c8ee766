package cache

import (
	"churchhealth/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// AssessmentCache is the durable per-client copy of in-progress answers.
// Entries are scoped to (clientID, email) so one device never leaks one
// respondent's answers to the next.
type AssessmentCache interface {
	Load(ctx context.Context, clientID, email string) (*model.CachedState, error)
	Save(ctx context.Context, clientID, email string, state *model.CachedState) error
	Delete(ctx context.Context, clientID, email string) error
	DeleteLegacy(ctx context.Context, clientID string) error

	// Last user seen on the client
	LastUser(ctx context.Context, clientID string) (string, error)
	SetLastUser(ctx context.Context, clientID, email string) error
}

type assessmentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAssessmentCache creates a new assessment cache; entries expire after ttl
// without writes
func NewAssessmentCache(client *redis.Client, ttl time.Duration) AssessmentCache {
	return &assessmentCache{
		client: client,
		ttl:    ttl,
	}
}

// Key helpers
func (c *assessmentCache) key(clientID, email string) string {
	return fmt.Sprintf("assessment:v1:%s:%s", clientID, strings.ToLower(email))
}

// legacyKey is the pre-scoping entry, shared by every user of a client
func (c *assessmentCache) legacyKey(clientID string) string {
	return fmt.Sprintf("assessment:v1:%s", clientID)
}

func (c *assessmentCache) lastUserKey(clientID string) string {
	return fmt.Sprintf("assessment:v1:%s:lastUser", clientID)
}

// Load returns nil when nothing is cached or the entry is malformed
func (c *assessmentCache) Load(ctx context.Context, clientID, email string) (*model.CachedState, error) {
	data, err := c.client.Get(ctx, c.key(clientID, email)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state model.CachedState
	if err := json.Unmarshal([]byte(data), &state); err != nil || !state.Valid() {
		return nil, nil
	}
	return &state, nil
}

// Save writes the entry and extends the client's last-user marker with it,
// so a live entry is never orphaned by an expired marker
func (c *assessmentCache) Save(ctx context.Context, clientID, email string, state *model.CachedState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.key(clientID, email), data, c.ttl)
		pipe.Expire(ctx, c.lastUserKey(clientID), c.ttl)
		return nil
	})
	return err
}

func (c *assessmentCache) Delete(ctx context.Context, clientID, email string) error {
	return c.client.Del(ctx, c.key(clientID, email)).Err()
}

func (c *assessmentCache) DeleteLegacy(ctx context.Context, clientID string) error {
	return c.client.Del(ctx, c.legacyKey(clientID)).Err()
}

func (c *assessmentCache) LastUser(ctx context.Context, clientID string) (string, error) {
	email, err := c.client.Get(ctx, c.lastUserKey(clientID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return email, err
}

func (c *assessmentCache) SetLastUser(ctx context.Context, clientID, email string) error {
	return c.client.Set(ctx, c.lastUserKey(clientID), strings.ToLower(email), c.ttl).Err()
}
