// Package notify hands Notifications to the mail service.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/logger"
)

// OutboxKey is the Redis list the mail service pops Notifications from.
const OutboxKey = "retention:notifications"

var (
	_ retention.Notifier = (*RedisOutbox)(nil)
	_ retention.Notifier = (*LogNotifier)(nil)
)

// A RedisOutbox pushes JSON-encoded Notifications onto a Redis list.
type RedisOutbox struct {
	client *redis.Client
	key    string
}

// NewRedisOutbox constructs a *RedisOutbox pushing onto OutboxKey.
func NewRedisOutbox(client *redis.Client) *RedisOutbox {
	return &RedisOutbox{client: client, key: OutboxKey}
}

// Notify enqueues n for delivery.
func (o *RedisOutbox) Notify(ctx context.Context, n retention.Notification) error {
	if err := n.Kind.Valid(); err != nil {
		return err
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%w: encoding notification: %s", retention.ErrUnexpected, err)
	}

	if err := o.client.LPush(ctx, o.key, b).Err(); err != nil {
		return fmt.Errorf("%w: enqueueing notification: %s", retention.ErrDependency, err)
	}

	return nil
}

// A LogNotifier writes Notifications to a logger.Logger instead of sending them.
type LogNotifier struct {
	l logger.Logger
}

// NewLogNotifier constructs a *LogNotifier.
func NewLogNotifier(l logger.Logger) *LogNotifier { return &LogNotifier{l: l} }

// Notify logs n.
func (n *LogNotifier) Notify(_ context.Context, msg retention.Notification) error {
	if err := msg.Kind.Valid(); err != nil {
		return err
	}

	n.l.Info("notification", &logger.LogContext{
		Data: map[string]any{
			retention.LogKindKey: retention.AppLogKind,
			"kind":               msg.Kind.String(),
			"accountId":          msg.AccountID.String(),
			"scheduledFor":       msg.ScheduledFor,
			"daysRemaining":      msg.DaysRemaining,
		},
	})

	return nil
}
