package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps Redis operations for fleet status publishing.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	NodeName string        `yaml:"node_name"`
	TTL      time.Duration `yaml:"ttl"`
	Interval time.Duration `yaml:"interval"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func statusKey(node string) string {
	return fmt.Sprintf("vigil:status:%s", node)
}

// SetStatus stores a serialized status snapshot with a TTL, so a node that
// stops publishing disappears from the fleet view instead of going stale.
func (c *Client) SetStatus(ctx context.Context, node string, payload []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, statusKey(node), payload, ttl).Err(); err != nil {
		return fmt.Errorf("set status failed: %w", err)
	}
	return nil
}

// GetStatus fetches the status snapshot for a node. Returns nil when absent.
func (c *Client) GetStatus(ctx context.Context, node string) ([]byte, error) {
	val, err := c.rdb.Get(ctx, statusKey(node)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get status failed: %w", err)
	}
	return val, nil
}
