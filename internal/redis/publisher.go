// Package redis publishes built snapshots to Redis for external dashboards.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/driftworks/stackpulse/pkg/types"
)

const (
	keyPrefix     = "stackpulse:snapshot:"
	updateChannel = "stackpulse:updates"
)

// Publisher writes each snapshot to a host-scoped key with a TTL and
// publishes it on the update channel.
type Publisher struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// ParseRedisURL parses a redis:// URL and returns client options.
func ParseRedisURL(rawURL string) (*redis.Options, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("empty Redis URL")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	opts := &redis.Options{
		Addr: u.Host,
	}

	if u.Port() == "" {
		opts.Addr = u.Hostname() + ":6379"
	}

	if u.User != nil {
		if pwd, ok := u.User.Password(); ok {
			opts.Password = pwd
		}
	}

	// Database from path (e.g., redis://localhost/1)
	if len(u.Path) > 1 {
		if db, err := strconv.Atoi(u.Path[1:]); err == nil {
			opts.DB = db
		}
	}

	return opts, nil
}

// NewPublisher creates a publisher from a redis:// URL. The connection is
// lazy: a Redis that is down at startup only degrades publishing, it never
// prevents the agent from running. The TTL should be a few multiples of the
// refresh interval so stale hosts age out.
func NewPublisher(redisURL string, ttl time.Duration) (*Publisher, error) {
	opts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	if ttl <= 0 {
		ttl = 90 * time.Second
	}

	return &Publisher{
		client: redis.NewClient(opts),
		key:    keyPrefix + hostname,
		ttl:    ttl,
	}, nil
}

// PublishSnapshot stores the snapshot under the host key and broadcasts it
// on the update channel.
func (p *Publisher) PublishSnapshot(ctx context.Context, snap *types.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := p.client.Set(ctx, p.key, data, p.ttl).Err(); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	if err := p.client.Publish(ctx, updateChannel, data).Err(); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}

	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
