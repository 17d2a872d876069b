package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blacx/annotator/pkg/models"
)

// Cache provides caching for repeated external-service calls and for job
// state shared between the API and the worker. Every lookup treats a miss
// and a backend failure the same way so a degraded Redis never blocks a run.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks the connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Frame Analysis Cache

// FrameKey derives the cache key for a frame from its image content, so the
// same frame re-analyzed across runs hits the cache.
func FrameKey(imageBytes []byte) string {
	sum := sha256.Sum256(imageBytes)
	return "analysis:" + hex.EncodeToString(sum[:])
}

// SetFrameAnalysis caches the vision result for a frame. Sentinel analyses
// are never cached; a transient vision failure should be retried next run.
func (c *Cache) SetFrameAnalysis(ctx context.Context, key string, analysis models.FrameAnalysis) error {
	if analysis.IsSentinel() {
		return nil
	}

	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// GetFrameAnalysis retrieves a cached vision result. The second return value
// reports a hit.
func (c *Cache) GetFrameAnalysis(ctx context.Context, key string) (models.FrameAnalysis, bool) {
	var analysis models.FrameAnalysis

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return analysis, false
	}

	if err := json.Unmarshal(data, &analysis); err != nil {
		return analysis, false
	}

	return analysis, true
}

// Translation Cache

// TranslationKey derives the cache key for a (language, text) pair.
func TranslationKey(langCode, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("translation:%s:%s", langCode, hex.EncodeToString(sum[:]))
}

// SetTranslation caches a translated segment text.
func (c *Cache) SetTranslation(ctx context.Context, key, translated string) error {
	return c.client.Set(ctx, key, translated, c.ttl).Err()
}

// GetTranslation retrieves a cached translation.
func (c *Cache) GetTranslation(ctx context.Context, key string) (string, bool) {
	translated, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return translated, true
}

// Job Cache Operations

// SetJob caches job state
func (c *Cache) SetJob(ctx context.Context, job *models.AnnotationJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	key := fmt.Sprintf("job:%s", job.ID)
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// GetJob retrieves job state from cache
func (c *Cache) GetJob(ctx context.Context, jobID string) (*models.AnnotationJob, error) {
	key := fmt.Sprintf("job:%s", jobID)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get job from cache: %w", err)
	}

	var job models.AnnotationJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// SetJobProgress caches job progress for quick retrieval
func (c *Cache) SetJobProgress(ctx context.Context, jobID string, progress float64) error {
	key := fmt.Sprintf("job:progress:%s", jobID)
	return c.client.Set(ctx, key, progress, c.ttl).Err()
}

// GetJobProgress retrieves job progress from cache
func (c *Cache) GetJobProgress(ctx context.Context, jobID string) (float64, error) {
	key := fmt.Sprintf("job:progress:%s", jobID)
	return c.client.Get(ctx, key).Float64()
}

// Record Cache Operations

// SetRecord caches a finalized annotation record so API reads survive a
// worker restart for the TTL window.
func (c *Cache) SetRecord(ctx context.Context, record *models.AnnotationRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	key := fmt.Sprintf("record:%s", record.ID)
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// GetRecord retrieves an annotation record from cache
func (c *Cache) GetRecord(ctx context.Context, recordID string) (*models.AnnotationRecord, error) {
	key := fmt.Sprintf("record:%s", recordID)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get record from cache: %w", err)
	}

	var record models.AnnotationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return &record, nil
}

// Rate Limiting Operations

// CheckRateLimit checks if a rate limit has been exceeded
func (c *Cache) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	rateLimitKey := fmt.Sprintf("ratelimit:%s", key)

	// Increment counter
	count, err := c.client.Incr(ctx, rateLimitKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	// Set expiry on first request
	if count == 1 {
		if err := c.client.Expire(ctx, rateLimitKey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set expiry: %w", err)
		}
	}

	// Check if limit exceeded
	return count <= limit, nil
}
