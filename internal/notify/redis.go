package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"warehouse-sync-api/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	// QueueKey is the list an external delivery worker consumes.
	QueueKey = "wsa:notify:queue"

	// tokenKeyPrefix prefixes the per-actor device token sets.
	tokenKeyPrefix = "wsa:push:tokens:"

	// tokenTTL keeps stale device registrations from piling up.
	tokenTTL = 90 * 24 * time.Hour
)

// Message is the wire format pushed onto the delivery queue, one per device token.
type Message struct {
	To    string         `json:"to"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data"`
}

// RedisDispatcher queues push notifications in Redis for an external delivery
// worker. It also acts as the device token registry.
type RedisDispatcher struct {
	client *redis.Client
}

// NewRedisDispatcher creates a Redis-backed dispatcher.
func NewRedisDispatcher(client *redis.Client) *RedisDispatcher {
	return &RedisDispatcher{client: client}
}

// RegisterToken records a device token for the actor.
func (d *RedisDispatcher) RegisterToken(ctx context.Context, actorID int64, role model.Role, token string) error {
	key := tokenKey(actorID, role)
	pipe := d.client.TxPipeline()
	pipe.SAdd(ctx, key, token)
	pipe.Expire(ctx, key, tokenTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to register push token: %w", err)
	}
	return nil
}

// NotifyPendingCreated tells the admin a new approval request is waiting.
func (d *RedisDispatcher) NotifyPendingCreated(ctx context.Context, adminID int64, action *model.PendingAction) error {
	return d.enqueue(ctx, adminID, model.RoleAdmin, Message{
		Title: "Approval required",
		Body:  "Request to " + actionTypeText(action.ActionType),
		Data:  map[string]any{"type": "pending_action", "id": action.ID},
	})
}

// NotifyApproved tells the assistant its request was approved.
func (d *RedisDispatcher) NotifyApproved(ctx context.Context, assistantID int64, action *model.PendingAction) error {
	return d.enqueue(ctx, assistantID, model.RoleAssistant, Message{
		Title: "Action approved",
		Body:  "Your request to " + actionTypeText(action.ActionType) + " was approved",
		Data:  map[string]any{"type": "action_approved", "id": action.ID},
	})
}

// NotifyRejected tells the assistant its request was rejected.
func (d *RedisDispatcher) NotifyRejected(ctx context.Context, assistantID int64, action *model.PendingAction) error {
	return d.enqueue(ctx, assistantID, model.RoleAssistant, Message{
		Title: "Action rejected",
		Body:  "Your request to " + actionTypeText(action.ActionType) + " was rejected",
		Data:  map[string]any{"type": "action_rejected", "id": action.ID},
	})
}

// enqueue fans the message out to every registered device token of the actor.
// No registered tokens is not an error; delivery is best-effort by contract.
func (d *RedisDispatcher) enqueue(ctx context.Context, actorID int64, role model.Role, msg Message) error {
	tokens, err := d.client.SMembers(ctx, tokenKey(actorID, role)).Result()
	if err != nil {
		return fmt.Errorf("failed to load push tokens: %w", err)
	}
	if len(tokens) == 0 {
		log.Printf("[Notify] No push tokens registered for %s %d", role, actorID)
		return nil
	}

	payloads := make([]any, 0, len(tokens))
	for _, token := range tokens {
		msg.To = token
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to encode notification: %w", err)
		}
		payloads = append(payloads, data)
	}

	if err := d.client.LPush(ctx, QueueKey, payloads...).Err(); err != nil {
		return fmt.Errorf("failed to enqueue notifications: %w", err)
	}
	return nil
}

func tokenKey(actorID int64, role model.Role) string {
	return fmt.Sprintf("%s%s:%d", tokenKeyPrefix, role, actorID)
}

var (
	_ Dispatcher    = (*RedisDispatcher)(nil)
	_ TokenRegistry = (*RedisDispatcher)(nil)
)
