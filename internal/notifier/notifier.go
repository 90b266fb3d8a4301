package notifier

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Notifier is the fire-and-forget notification sink used for match-found
// and achievement pushes outside the live connection path. Delivery is
// best-effort; failures are logged and never surfaced to gameplay.
type Notifier interface {
	Notify(ctx context.Context, identityID, event string, payload any)
}

type redisNotifier struct {
	logger *slog.Logger
	client *redis.Client
}

func New(logger *slog.Logger, client *redis.Client) Notifier {
	return &redisNotifier{
		logger: logger.With("component", "notifier"),
		client: client,
	}
}

type envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

func (that *redisNotifier) Notify(ctx context.Context, identityID, event string, payload any) {
	body, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		that.logger.Error("failed to marshal notification", "event", event, "error", err)
		return
	}

	if err = that.client.Publish(ctx, "notify:"+identityID, body).Err(); err != nil {
		that.logger.Error("failed to publish notification", "identity", identityID, "event", event, "error", err)
	}
}
