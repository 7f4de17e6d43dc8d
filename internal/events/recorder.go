// Package events carries the admin activity trail from mutating operations
// to the background worker that persists it.
package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sanu276140-eng/examsk24/internal/config"
)

type actorKey struct{}

// WithActor stashes the acting admin's email in the context so downstream
// mutations can attribute their activity events.
func WithActor(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, actorKey{}, email)
}

// Actor returns the acting admin's email, or empty if none was recorded.
func Actor(ctx context.Context) string {
	email, _ := ctx.Value(actorKey{}).(string)
	return email
}

// Event is one queued activity entry.
type Event struct {
	UserEmail string `json:"user_email"`
	Action    string `json:"action"`
	Detail    string `json:"detail"`
}

// Recorder accepts activity events. Recording is best-effort: a failed
// record never fails the mutation it describes.
type Recorder interface {
	Record(ctx context.Context, action, detail string)
}

// RedisRecorder pushes events onto the activity queue for the worker.
type RedisRecorder struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisRecorder creates a queue-backed recorder.
func NewRedisRecorder(rdb *redis.Client, log zerolog.Logger) *RedisRecorder {
	return &RedisRecorder{
		rdb: rdb,
		log: log.With().Str("component", "activity_recorder").Logger(),
	}
}

// Record enqueues the event, attributing it to the context's actor.
func (r *RedisRecorder) Record(ctx context.Context, action, detail string) {
	payload, _ := json.Marshal(Event{
		UserEmail: Actor(ctx),
		Action:    action,
		Detail:    detail,
	})

	if err := r.rdb.LPush(ctx, config.ActivityQueue, payload).Err(); err != nil {
		r.log.Warn().Err(err).Str("action", action).Msg("Activity enqueue failed")
	}
}

// Noop discards events. Used in tests and tooling.
type Noop struct{}

func (Noop) Record(context.Context, string, string) {}
