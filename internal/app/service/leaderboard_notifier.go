package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"codequest_admin/internal/common"
	"codequest_admin/internal/domain/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// LeaderboardNotifier hands standings to whatever pushes them to players.
type LeaderboardNotifier interface {
	Notify(ctx context.Context, roomID string, entries []model.LeaderboardEntry) error
}

type noopNotifier struct{}

// NewNoopNotifier is used when no Redis is configured.
func NewNoopNotifier() LeaderboardNotifier { return noopNotifier{} }

func (noopNotifier) Notify(context.Context, string, []model.LeaderboardEntry) error { return nil }

// RedisLeaderboardNotifier queues standings for the broadcaster worker.
type RedisLeaderboardNotifier struct {
	rdb       *redis.Client
	queueName string
	logger    *slog.Logger
	now       func() time.Time
}

func NewRedisLeaderboardNotifier(rdb *redis.Client, queueName string, logger *slog.Logger) *RedisLeaderboardNotifier {
	return &RedisLeaderboardNotifier{rdb: rdb, queueName: queueName, logger: logger, now: time.Now}
}

func (n *RedisLeaderboardNotifier) Notify(ctx context.Context, roomID string, entries []model.LeaderboardEntry) error {
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	msg := model.LeaderboardBroadcast{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		Entries:     entries,
		PublishedAt: n.now(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return common.Errorf("failed to marshal leaderboard broadcast: %w", err)
	}
	if err := n.rdb.LPush(ctx, n.queueName, payload).Err(); err != nil {
		return common.Errorf("failed to push leaderboard broadcast to Redis queue: %w", err)
	}
	n.logger.DebugContext(ctx, "leaderboard broadcast enqueued", "room_id", roomID, "broadcast_id", msg.ID, "teams", len(entries))
	return nil
}
