package cache

import (
	"churchhealth/internal/model"
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const questionBankKey = "questions:current"

// QuestionCache holds the current question bank document
type QuestionCache interface {
	Get(ctx context.Context) (*model.QuestionsData, error)
	Set(ctx context.Context, q *model.QuestionsData) error
	Invalidate(ctx context.Context) error
}

type questionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQuestionCache creates a new question bank cache
func NewQuestionCache(client *redis.Client) QuestionCache {
	return &questionCache{
		client: client,
		ttl:    10 * time.Minute,
	}
}

func (c *questionCache) Get(ctx context.Context) (*model.QuestionsData, error) {
	data, err := c.client.Get(ctx, questionBankKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var q model.QuestionsData
	if err := json.Unmarshal([]byte(data), &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *questionCache) Set(ctx context.Context, q *model.QuestionsData) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, questionBankKey, data, c.ttl).Err()
}

func (c *questionCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, questionBankKey).Err()
}
