/*
 * Xtream-Gateway converts an Xtream-codes IPTV service into anonymized,
 * tokenized stream URLs that never expose provider credentials.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package server

import (
	"context"
	"log"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

// RedisCache caches upstream listing responses. Sessions never touch
// Redis: tokens stay process-local, cached listings carry no
// credentials beyond the cache key.
//
// All methods are nil-receiver-safe so callers can hold a nil cache
// when Redis is not configured.
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisCache connects to Redis, or returns nil when url is empty
// (caching disabled).
func NewRedisCache(url string) (*RedisCache, error) {
	if url == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("[xtream-gateway] Redis listing cache initialized")
	return &RedisCache{client: client, ctx: ctx}, nil
}

// Get retrieves cached bytes by key; nil, nil on a cache miss.
func (r *RedisCache) Get(key string) ([]byte, error) {
	if r == nil {
		return nil, nil
	}

	val, err := r.client.Get(r.ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		log.Printf("[xtream-gateway] WARNING: Redis Get error for key %s: %v", key, err)
		return nil, err
	}
	return val, nil
}

// Set stores bytes with a TTL.
func (r *RedisCache) Set(key string, data []byte, ttl time.Duration) error {
	if r == nil {
		return nil
	}

	if err := r.client.Set(r.ctx, key, data, ttl).Err(); err != nil {
		log.Printf("[xtream-gateway] WARNING: Redis Set error for key %s: %v", key, err)
		return err
	}
	return nil
}

// GetJSON retrieves and unmarshals cached JSON. Uses json-iterator,
// which tolerates the ,string tags in listing structs.
func (r *RedisCache) GetJSON(key string, dest interface{}) (bool, error) {
	if r == nil {
		return false, nil
	}

	data, err := r.Get(key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}

	var json = jsoniter.ConfigCompatibleWithStandardLibrary
	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("[xtream-gateway] WARNING: failed to unmarshal cached data for key %s: %v", key, err)
		return false, err
	}
	return true, nil
}

// SetJSON marshals and stores JSON data with a TTL.
func (r *RedisCache) SetJSON(key string, data interface{}, ttl time.Duration) error {
	if r == nil {
		return nil
	}

	var json = jsoniter.ConfigCompatibleWithStandardLibrary
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return r.Set(key, jsonData, ttl)
}

// Close closes the Redis connection.
func (r *RedisCache) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
