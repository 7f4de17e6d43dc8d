package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sanu276140-eng/examsk24/internal/config"
	"github.com/sanu276140-eng/examsk24/internal/events"
	"github.com/sanu276140-eng/examsk24/internal/resource"
	"github.com/sanu276140-eng/examsk24/internal/store"
)

// ActivityWorker consumes the activity queue and persists entries to the
// activity collection for the dashboard feed.
type ActivityWorker struct {
	st  store.Store
	rdb *redis.Client
	log zerolog.Logger
}

// NewActivityWorker creates a new ActivityWorker.
func NewActivityWorker(st store.Store, rdb *redis.Client, log zerolog.Logger) *ActivityWorker {
	return &ActivityWorker{
		st:  st,
		rdb: rdb,
		log: log.With().Str("component", "activity_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *ActivityWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ActivityWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.ActivityQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	if err := w.persist(ctx, []byte(result[1])); err != nil {
		w.log.Error().Err(err).Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.ActivityQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *ActivityWorker) persist(ctx context.Context, raw []byte) error {
	var ev events.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error, dropping event")
		return nil
	}

	_, err := w.st.Collection(resource.ActivityCollection).Add(ctx, map[string]any{
		"user_email": ev.UserEmail,
		"action":     ev.Action,
		"detail":     ev.Detail,
	})
	return err
}

// drain processes all remaining items in the queue before shutdown.
func (w *ActivityWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.ActivityQueue).Result()
		if err != nil {
			break
		}

		if err := w.persist(ctx, []byte(result)); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.ActivityQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
