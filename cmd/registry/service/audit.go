package service

import (
	"context"
	"encoding/json"

	"github.com/specworks/reqregistry/common/logger"
	"github.com/specworks/reqregistry/common/queue"
)

// AuditSubscriber consumes the registry event topic and writes each domain
// event to the structured log. It is the only in-process consumer; external
// systems listen on the redis channel instead.
type AuditSubscriber struct {
	queue queue.Queue
	log   *logger.Logger
}

// NewAuditSubscriber creates a new audit subscriber
func NewAuditSubscriber(q queue.Queue, log *logger.Logger) *AuditSubscriber {
	return &AuditSubscriber{queue: q, log: log}
}

// Start begins consuming events. Runs until ctx is cancelled.
func (a *AuditSubscriber) Start(ctx context.Context) error {
	return a.queue.Subscribe(ctx, EventsTopic, a.handle)
}

func (a *AuditSubscriber) handle(ctx context.Context, key string, value []byte) error {
	var event map[string]interface{}
	if err := json.Unmarshal(value, &event); err != nil {
		a.log.Warn("malformed audit event", "key", key, "error", err)
		return nil
	}

	attrs := []interface{}{"key", key}
	for _, field := range []string{"type", "workspace_id", "base_id", "version_number", "release_id", "public_id"} {
		if v, ok := event[field]; ok {
			attrs = append(attrs, field, v)
		}
	}

	a.log.Info("audit", attrs...)
	return nil
}
