package service

import (
	"context"
	"sync"

	"codequest_admin/internal/domain/model"
	"codequest_admin/internal/domain/repository"
)

// fakeStore delegates to a MemoryStore unless a Func override is set.
type fakeStore struct {
	*repository.MemoryStore

	ApplyFunc          func(ctx context.Context, cs repository.ChangeSet) error
	CreateRoomFunc     func(ctx context.Context, room *model.Room) error
	CreateQuestionFunc func(ctx context.Context, roomID string, q *model.Question) error
	ListTeamsFunc      func(ctx context.Context, roomID string) ([]model.Team, error)
}

func (f *fakeStore) Apply(ctx context.Context, cs repository.ChangeSet) error {
	if f.ApplyFunc != nil {
		return f.ApplyFunc(ctx, cs)
	}
	return f.MemoryStore.Apply(ctx, cs)
}

func (f *fakeStore) CreateRoom(ctx context.Context, room *model.Room) error {
	if f.CreateRoomFunc != nil {
		return f.CreateRoomFunc(ctx, room)
	}
	return f.MemoryStore.CreateRoom(ctx, room)
}

func (f *fakeStore) CreateQuestion(ctx context.Context, roomID string, q *model.Question) error {
	if f.CreateQuestionFunc != nil {
		return f.CreateQuestionFunc(ctx, roomID, q)
	}
	return f.MemoryStore.CreateQuestion(ctx, roomID, q)
}

func (f *fakeStore) ListTeams(ctx context.Context, roomID string) ([]model.Team, error) {
	if f.ListTeamsFunc != nil {
		return f.ListTeamsFunc(ctx, roomID)
	}
	return f.MemoryStore.ListTeams(ctx, roomID)
}

// rankedStore also serves a server-ranked leaderboard.
type rankedStore struct {
	*fakeStore
	entries []model.LeaderboardEntry
}

func (r *rankedStore) FetchLeaderboard(ctx context.Context, roomID string) ([]model.LeaderboardEntry, error) {
	return r.entries, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

type notifyCall struct {
	roomID  string
	entries []model.LeaderboardEntry
}

func (n *recordingNotifier) Notify(ctx context.Context, roomID string, entries []model.LeaderboardEntry) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{roomID: roomID, entries: entries})
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}
