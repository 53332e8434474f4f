package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tdnguyen/vigil/internal/core/domain"
)

// StatusSource yields the current controller status snapshot.
type StatusSource func() domain.Status

// Publisher periodically pushes the controller status to Redis so a fleet
// dashboard can watch many capture nodes without polling each one.
type Publisher struct {
	client   *Client
	node     string
	interval time.Duration
	ttl      time.Duration
	source   StatusSource
	log      *slog.Logger
}

// NewPublisher creates a status publisher.
func NewPublisher(client *Client, cfg Config, source StatusSource) *Publisher {
	interval := cfg.Interval
	if interval == 0 {
		interval = 5 * time.Second
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 3 * interval
	}
	node := cfg.NodeName
	if node == "" {
		node = "vigil"
	}
	return &Publisher{
		client:   client,
		node:     node,
		interval: interval,
		ttl:      ttl,
		source:   source,
		log:      slog.Default().With("component", "status-publisher"),
	}
}

// Run publishes until the context is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.publish(ctx); err != nil {
				p.log.Warn("Failed to publish status", "error", err)
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context) error {
	status := p.source()
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return p.client.SetStatus(ctx, p.node, payload, p.ttl)
}
