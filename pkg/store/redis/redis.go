// Package redis implements store.ChunkStore on Redis. Chunk text and
// job-status records are plain keys with bounded expiry; job status is the
// only piece of state visible to API consumers while a job runs.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"videorag/pkg/common"
	"videorag/pkg/store"

	goredis "github.com/redis/go-redis/v9"
)

const (
	chunkKeyPrefix     = "chunk:"
	jobStatusKeyPrefix = "job_status:"

	chunkTTL = 0 // chunks do not expire
)

// ChunkStorage is the Redis-backed chunk and job-status store.
// A ChunkStorage should be created using NewChunkStorage.
type ChunkStorage struct {
	client *goredis.Client
}

// NewChunkStorageParams defines the configuration parameters for creating
// a new ChunkStorage.
type NewChunkStorageParams struct {
	Addr     string
	Password string
	DB       int
}

// NewChunkStorage creates and returns a new ChunkStorage connected to the
// configured Redis instance.
//
// Example:
//
//	cs := redis.NewChunkStorage(redis.NewChunkStorageParams{
//		Addr: "localhost:6379",
//	})
func NewChunkStorage(params NewChunkStorageParams) *ChunkStorage {
	client := goredis.NewClient(&goredis.Options{
		Addr:     params.Addr,
		Password: params.Password,
		DB:       params.DB,
	})
	return &ChunkStorage{client: client}
}

// Ping verifies the connection.
func (c *ChunkStorage) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (c *ChunkStorage) Close() error {
	return c.client.Close()
}

// SetChunk stores a chunk's raw text.
func (c *ChunkStorage) SetChunk(ctx context.Context, chunkID, content string) error {
	if err := c.client.Set(ctx, chunkKeyPrefix+chunkID, content, chunkTTL).Err(); err != nil {
		return fmt.Errorf("failed to store chunk %s: %w", chunkID, err)
	}
	return nil
}

// GetChunk returns a chunk's raw text, or store.ErrNotFound.
func (c *ChunkStorage) GetChunk(ctx context.Context, chunkID string) (string, error) {
	val, err := c.client.Get(ctx, chunkKeyPrefix+chunkID).Result()
	if errors.Is(err, goredis.Nil) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get chunk %s: %w", chunkID, err)
	}
	return val, nil
}

// SetJobStatus writes the job-status record as JSON under the job's key
// with the given TTL. Last writer wins; only one orchestrator owns a job id.
func (c *ChunkStorage) SetJobStatus(ctx context.Context, status common.JobStatus, ttl time.Duration) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal job status: %w", err)
	}
	if err := c.client.Set(ctx, jobStatusKeyPrefix+status.ID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store job status %s: %w", status.ID, err)
	}
	return nil
}

// GetJobStatus returns the job-status record, or store.ErrNotFound when
// the job is unknown or its record has expired.
func (c *ChunkStorage) GetJobStatus(ctx context.Context, jobID string) (common.JobStatus, error) {
	raw, err := c.client.Get(ctx, jobStatusKeyPrefix+jobID).Result()
	if errors.Is(err, goredis.Nil) {
		return common.JobStatus{}, store.ErrNotFound
	}
	if err != nil {
		return common.JobStatus{}, fmt.Errorf("failed to get job status %s: %w", jobID, err)
	}

	var status common.JobStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return common.JobStatus{}, fmt.Errorf("malformed job status %s: %w", jobID, err)
	}
	return status, nil
}
