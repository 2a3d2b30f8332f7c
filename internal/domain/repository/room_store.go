package repository

import (
	"context"

	"codequest_admin/internal/domain/model"
)

// RoomStore is the storage capability behind the game state container.
// Reads return copies; writes are applied atomically per call where the
// backing store allows it.
type RoomStore interface {
	ListRooms(ctx context.Context) ([]model.Room, error)
	// CreateRoom may overwrite server-assigned fields (ID, Code, CreatedAt).
	CreateRoom(ctx context.Context, room *model.Room) error
	DeleteRoom(ctx context.Context, roomID string) error

	ListTeams(ctx context.Context, roomID string) ([]model.Team, error)

	ListQuestions(ctx context.Context, roomID string) ([]model.Question, error)
	CreateQuestion(ctx context.Context, roomID string, q *model.Question) error
	UpdateQuestion(ctx context.Context, roomID string, q model.Question) error
	DeleteQuestion(ctx context.Context, roomID, questionID string) error

	ListTrades(ctx context.Context, roomID string) ([]model.Trade, error)
	ListUnlocks(ctx context.Context, roomID string) ([]model.UnlockOverride, error)

	// Apply persists the outcome of one state transition.
	Apply(ctx context.Context, cs ChangeSet) error
}

// LeaderboardSource is implemented by stores that can return a server-ranked
// leaderboard. It is only consulted when no teams are known locally.
type LeaderboardSource interface {
	FetchLeaderboard(ctx context.Context, roomID string) ([]model.LeaderboardEntry, error)
}

// ChangeSet describes everything one transition changes in one room.
type ChangeSet struct {
	RoomID string

	Room *RoomChange

	Teams []TeamChange

	// LockQuestions, when set, locks (true) or unlocks (false) every question.
	LockQuestions *bool

	Trades []model.Trade

	Unlock       *model.UnlockOverride
	ClearUnlocks bool
}

type RoomChange struct {
	Before model.Room
	After  model.Room
}

type TeamChange struct {
	Before model.Team
	After  model.Team
}

// Empty is true when the change set touches nothing; stores skip the write.
func (cs ChangeSet) Empty() bool {
	return cs.Room == nil && len(cs.Teams) == 0 && cs.LockQuestions == nil &&
		len(cs.Trades) == 0 && cs.Unlock == nil && !cs.ClearUnlocks
}

func BoolPtr(b bool) *bool { return &b }
