package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codequest_admin/internal/common"
	"codequest_admin/internal/domain/model"
	"codequest_admin/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLock deletes the lock only if we still hold it.
var releaseLock = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// LeaderboardBroadcaster drains the leaderboard queue. For each snapshot it
// takes the room's lock, stores the snapshot as the room's latest standings
// and publishes it on the room channel.
type LeaderboardBroadcaster struct {
	rdb       *redis.Client
	queueName string
	lockTTL   time.Duration
	// popTimeout bounds each BRPOP so shutdown is noticed.
	popTimeout time.Duration
	// lockBackoff is the pause after a busy room lock.
	lockBackoff time.Duration
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewLeaderboardBroadcaster(rdb *redis.Client, queueName string, lockTTL time.Duration, m *metrics.Metrics, logger *slog.Logger) *LeaderboardBroadcaster {
	return &LeaderboardBroadcaster{
		rdb:         rdb,
		queueName:   queueName,
		lockTTL:     lockTTL,
		popTimeout:  5 * time.Second,
		lockBackoff: 250 * time.Millisecond,
		metrics:     m,
		logger:      logger,
	}
}

func (w *LeaderboardBroadcaster) Start(ctx context.Context) {
	w.logger.Info("leaderboard broadcaster started", "queue", w.queueName)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("leaderboard broadcaster stopping")
			return
		default:
		}

		result, err := w.rdb.BRPop(ctx, w.popTimeout, w.queueName).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Error("failed to BRPOP leaderboard queue", "queue", w.queueName, "error", err)
			sleep(ctx, 5*time.Second)
			continue
		}

		// result is [queueName, value]
		if len(result) < 2 || result[1] == "" {
			w.logger.Warn("BRPOP returned an empty leaderboard payload")
			continue
		}
		err = w.Process(ctx, []byte(result[1]))
		w.metrics.ObserveBroadcast(err)
		if errors.Is(err, common.ErrLockFailed) {
			sleep(ctx, w.lockBackoff)
			continue
		}
		if err != nil {
			w.logger.Error("leaderboard broadcast failed", "error", err)
		}
	}
}

// Process handles one queued payload. When another worker holds the room
// lock the payload goes to the back of the queue so other rooms are served
// first.
func (w *LeaderboardBroadcaster) Process(ctx context.Context, payload []byte) error {
	var msg model.LeaderboardBroadcast
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decoding leaderboard broadcast: %w", err)
	}
	if msg.RoomID == "" {
		return fmt.Errorf("leaderboard broadcast %s has no room: %w", msg.ID, common.ErrValidation)
	}

	lockKey := model.LeaderboardLockKey(msg.RoomID)
	lockValue := uuid.NewString()
	ok, err := w.rdb.SetNX(ctx, lockKey, lockValue, w.lockTTL).Result()
	if err != nil {
		w.requeue(ctx, payload)
		return fmt.Errorf("acquiring %s: %w", lockKey, err)
	}
	if !ok {
		w.logger.Info("leaderboard lock busy, requeueing", "room_id", msg.RoomID, "broadcast_id", msg.ID)
		w.requeue(ctx, payload)
		return fmt.Errorf("room %s: %w", msg.RoomID, common.ErrLockFailed)
	}
	defer func() {
		deleted, err := releaseLock.Run(ctx, w.rdb, []string{lockKey}, lockValue).Int64()
		if err != nil {
			w.logger.Error("failed to release leaderboard lock", "key", lockKey, "error", err)
		} else if deleted == 0 {
			w.logger.Warn("leaderboard lock expired before release", "key", lockKey)
		}
	}()

	return w.publish(ctx, msg, payload)
}

func (w *LeaderboardBroadcaster) publish(ctx context.Context, msg model.LeaderboardBroadcast, payload []byte) error {
	// Skip snapshots older than the one already stored.
	latest, err := w.rdb.Get(ctx, model.LeaderboardLatestKey(msg.RoomID)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("reading latest leaderboard: %w", err)
	}
	if err == nil {
		var prev model.LeaderboardBroadcast
		if json.Unmarshal(latest, &prev) == nil && prev.PublishedAt.After(msg.PublishedAt) {
			w.logger.Debug("dropping stale leaderboard snapshot", "room_id", msg.RoomID, "broadcast_id", msg.ID)
			return nil
		}
	}

	pipe := w.rdb.TxPipeline()
	pipe.Set(ctx, model.LeaderboardLatestKey(msg.RoomID), payload, 0)
	pipe.Publish(ctx, model.LeaderboardChannel(msg.RoomID), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publishing leaderboard for room %s: %w", msg.RoomID, err)
	}
	w.logger.Info("leaderboard published", "room_id", msg.RoomID, "broadcast_id", msg.ID, "teams", len(msg.Entries))
	return nil
}

// requeue pushes onto the end producers use; BRPOP reads the other end.
func (w *LeaderboardBroadcaster) requeue(ctx context.Context, payload []byte) {
	if err := w.rdb.LPush(ctx, w.queueName, payload).Err(); err != nil {
		w.logger.Error("failed to requeue leaderboard broadcast", "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
