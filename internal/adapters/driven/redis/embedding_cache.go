package redis

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

const embeddingPrefix = "ragsense:emb:"

// EmbeddingCache stores query vectors in Redis.
// Keys hash the model and text so that arbitrary query strings stay short
// and a model change never returns a stale vector.
type EmbeddingCache struct {
	client redis.UniversalClient
}

// NewEmbeddingCache creates a Redis-backed EmbeddingCache
func NewEmbeddingCache(client redis.UniversalClient) *EmbeddingCache {
	return &EmbeddingCache{client: client}
}

func cacheKey(model, text string) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return embeddingPrefix + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached vector, or ok=false on a miss
func (c *EmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(model, text)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached embedding: %w", err)
	}

	vec, err := decodeVector(data)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Set stores a vector with a TTL
func (c *EmbeddingCache) Set(ctx context.Context, model, text string, vector []float32, ttl time.Duration) error {
	if err := c.client.Set(ctx, cacheKey(model, text), encodeVector(vector), ttl).Err(); err != nil {
		return fmt.Errorf("write cached embedding: %w", err)
	}
	return nil
}

// encodeVector packs float32 values little-endian
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("corrupt cached embedding of %d bytes", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v, nil
}
