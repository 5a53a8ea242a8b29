// Package store keeps confirmed batches in Redis so an operator can look a
// batch up again after the confirm response is gone.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofrs/uuid"

	"pricesync/models"
)

var ErrBatchNotFound = errors.New("batch-not-found")

const keyPrefix = "confirm:batch:"

type BatchStore struct {
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

func New(client *redis.Client, ttl time.Duration) *BatchStore {
	return &BatchStore{redis: client, ttl: ttl, now: time.Now}
}

func Key(id string) string {
	return keyPrefix + id
}

// Save records results under a fresh batch id and returns the stored batch.
func (s *BatchStore) Save(ctx context.Context, results []models.UpdateOutcome) (models.Batch, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return models.Batch{}, err
	}

	batch := models.NewBatch(id.String(), results, s.now())
	payload, err := json.Marshal(batch)
	if err != nil {
		return models.Batch{}, err
	}

	if err := s.redis.Set(ctx, Key(batch.ID), payload, s.ttl).Err(); err != nil {
		return models.Batch{}, fmt.Errorf("save batch: %w", err)
	}
	return batch, nil
}

func (s *BatchStore) Get(ctx context.Context, id string) (models.Batch, error) {
	if _, err := uuid.FromString(id); err != nil {
		return models.Batch{}, ErrBatchNotFound
	}

	payload, err := s.redis.Get(ctx, Key(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return models.Batch{}, ErrBatchNotFound
		}
		return models.Batch{}, fmt.Errorf("get batch: %w", err)
	}

	var batch models.Batch
	if err := json.Unmarshal(payload, &batch); err != nil {
		return models.Batch{}, fmt.Errorf("decode batch: %w", err)
	}
	return batch, nil
}
