package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codequest_admin/internal/common"
	"codequest_admin/internal/domain/model"
	"codequest_admin/internal/gateway"
)

// RemoteStore persists through the CodeQuest backend. Operations the backend
// has no endpoint for (start, pause, question edits, trade cancellation,
// unlock overrides, flags) live in a process-wide overlay shared by all
// sessions.
//
// Apply is not atomic across the backend: remote calls run first and in
// order, and the overlay is only updated when all of them succeed. A failure
// halfway through a multi-team reset leaves the earlier remote calls applied.
type RemoteStore struct {
	gw      *gateway.Gateway
	overlay *MemoryStore
	logger  *slog.Logger
}

func NewRemoteStore(gw *gateway.Gateway, overlay *MemoryStore, logger *slog.Logger) *RemoteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteStore{gw: gw, overlay: overlay, logger: logger}
}

var (
	_ RoomStore         = (*RemoteStore)(nil)
	_ LeaderboardSource = (*RemoteStore)(nil)
)

func (s *RemoteStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	data, err := s.gw.GetMyRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching rooms: %w", err)
	}
	known, _ := s.overlay.ListRooms(ctx)
	byID := make(map[string]model.Room, len(known))
	for _, r := range known {
		byID[r.ID] = r
	}

	rooms := make([]model.Room, 0, len(data))
	for _, d := range data {
		local, ok := byID[d.ID]
		room := mergeRoom(d.ToRoom(), local, ok)
		s.overlay.UpsertRoom(room)
		questions := make([]model.Question, 0, len(d.Questions))
		for i, q := range d.Questions {
			questions = append(questions, q.ToQuestion(i+1))
		}
		if err := s.overlay.MergeQuestions(room.ID, questions); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// mergeRoom combines the backend view with local fields. A closed backend room
// is always ended; an open one keeps the local status unless the local copy
// still thinks it ended.
func mergeRoom(remote, local model.Room, haveLocal bool) model.Room {
	if !haveLocal {
		return remote
	}
	out := local
	out.Code = remote.Code
	if remote.Name != "" {
		out.Name = remote.Name
	}
	if remote.StartingPoints > 0 {
		out.StartingPoints = remote.StartingPoints
	}
	if !remote.CreatedAt.IsZero() {
		out.CreatedAt = remote.CreatedAt
	}
	switch {
	case remote.Status == model.RoomEnded:
		out.Status = model.RoomEnded
	case local.Status == model.RoomEnded:
		out.Status = model.RoomNotStarted
	}
	return out
}

func (s *RemoteStore) CreateRoom(ctx context.Context, room *model.Room) error {
	data, err := s.gw.CreateRoom(ctx, gateway.CreateRoomRequest{
		RoomName:      room.Name,
		InitialPoints: room.StartingPoints,
	})
	if err != nil {
		return fmt.Errorf("creating room: %w", err)
	}
	if data.ID == "" {
		return fmt.Errorf("backend returned a room without id: %w", common.ErrBackend)
	}
	room.ID = data.ID
	if data.RoomCode != "" {
		room.Code = data.RoomCode
	}
	if !data.CreatedAt.IsZero() {
		room.CreatedAt = data.CreatedAt.Time
	}
	s.overlay.UpsertRoom(*room)
	return nil
}

func (s *RemoteStore) DeleteRoom(ctx context.Context, roomID string) error {
	if err := s.gw.DeleteRoom(ctx, roomID); err != nil {
		return fmt.Errorf("deleting room: %w", err)
	}
	if err := s.overlay.DeleteRoom(ctx, roomID); err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	return nil
}

func (s *RemoteStore) ListTeams(ctx context.Context, roomID string) ([]model.Team, error) {
	participants, err := s.gw.GetRoomParticipants(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("fetching participants: %w", err)
	}
	s.ensureRoom(roomID)

	local, err := s.overlay.ListTeams(ctx, roomID)
	if err != nil {
		return nil, err
	}
	history := make(map[string]model.Team, len(local))
	for _, t := range local {
		history[t.ID] = t
	}

	teams := make([]model.Team, 0, len(participants))
	for _, p := range participants {
		team := p.ToTeam()
		if prev, ok := history[team.ID]; ok {
			team.BanHistory = prev.Clone().BanHistory
			if team.Status == model.TeamBanned && team.BanReason == "" {
				team.BanReason = prev.BanReason
			}
			if team.JoinedAt.IsZero() {
				team.JoinedAt = prev.JoinedAt
			}
		}
		teams = append(teams, team)
	}
	if err := s.overlay.ReplaceTeams(roomID, teams); err != nil {
		return nil, err
	}
	return s.overlay.ListTeams(ctx, roomID)
}

func (s *RemoteStore) ListQuestions(ctx context.Context, roomID string) ([]model.Question, error) {
	rooms, err := s.gw.GetMyRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching questions: %w", err)
	}
	s.ensureRoom(roomID)
	for _, d := range rooms {
		if d.ID != roomID {
			continue
		}
		questions := make([]model.Question, 0, len(d.Questions))
		for i, q := range d.Questions {
			questions = append(questions, q.ToQuestion(i+1))
		}
		if err := s.overlay.MergeQuestions(roomID, questions); err != nil {
			return nil, err
		}
	}
	return s.overlay.ListQuestions(ctx, roomID)
}

func (s *RemoteStore) CreateQuestion(ctx context.Context, roomID string, q *model.Question) error {
	data, err := s.gw.AddQuestion(ctx, roomID, gateway.NewQuestionRequest(*q))
	if err != nil {
		return fmt.Errorf("adding question: %w", err)
	}
	if data.ID != "" {
		q.ID = data.ID
	}
	if data.AccessCode != "" {
		q.AccessCode = data.AccessCode
	}
	s.ensureRoom(roomID)
	return s.overlay.CreateQuestion(ctx, roomID, q)
}

func (s *RemoteStore) UpdateQuestion(ctx context.Context, roomID string, q model.Question) error {
	return s.overlay.UpdateQuestion(ctx, roomID, q)
}

func (s *RemoteStore) DeleteQuestion(ctx context.Context, roomID, questionID string) error {
	return s.overlay.DeleteQuestion(ctx, roomID, questionID)
}

func (s *RemoteStore) ListTrades(ctx context.Context, roomID string) ([]model.Trade, error) {
	txs, err := s.gw.GetRoomTransactions(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}
	s.ensureRoom(roomID)

	local, err := s.overlay.ListTrades(ctx, roomID)
	if err != nil {
		return nil, err
	}
	cancelled := make(map[string]bool)
	for _, t := range local {
		if t.Status == model.TradeCancelled {
			cancelled[t.ID] = true
		}
	}

	trades := make([]model.Trade, 0, len(txs))
	for _, tx := range txs {
		trade := tx.ToTrade()
		if cancelled[trade.ID] && trade.Status == model.TradePending {
			trade.Status = model.TradeCancelled
		}
		trades = append(trades, trade)
	}
	if err := s.overlay.ReplaceTrades(roomID, trades); err != nil {
		return nil, err
	}
	return trades, nil
}

func (s *RemoteStore) ListUnlocks(ctx context.Context, roomID string) ([]model.UnlockOverride, error) {
	s.ensureRoom(roomID)
	return s.overlay.ListUnlocks(ctx, roomID)
}

func (s *RemoteStore) Apply(ctx context.Context, cs ChangeSet) error {
	if cs.Room != nil {
		before, after := cs.Room.Before.Status, cs.Room.After.Status
		switch {
		case after == model.RoomEnded && before != model.RoomEnded:
			if err := s.gw.CloseRoom(ctx, cs.RoomID); err != nil {
				return fmt.Errorf("closing room: %w", err)
			}
		case before == model.RoomEnded && after != model.RoomEnded:
			if err := s.gw.ReopenRoom(ctx, cs.RoomID); err != nil {
				return fmt.Errorf("reopening room: %w", err)
			}
		}
	}

	for _, tc := range cs.Teams {
		switch {
		case tc.Before.Status == model.TeamActive && tc.After.Status == model.TeamBanned:
			if err := s.gw.BanUser(ctx, cs.RoomID, tc.After.ID); err != nil {
				return fmt.Errorf("banning %s: %w", tc.After.Name, err)
			}
		case tc.Before.Status == model.TeamBanned && tc.After.Status == model.TeamActive:
			if err := s.gw.UnbanUser(ctx, cs.RoomID, tc.After.ID); err != nil {
				return fmt.Errorf("unbanning %s: %w", tc.After.Name, err)
			}
		}
	}

	s.ensureRoom(cs.RoomID)
	if err := s.overlay.Apply(ctx, cs); err != nil {
		s.logger.ErrorContext(ctx, "remote changes applied but local overlay failed", "room_id", cs.RoomID, "error", err)
		return err
	}
	return nil
}

func (s *RemoteStore) FetchLeaderboard(ctx context.Context, roomID string) ([]model.LeaderboardEntry, error) {
	rows, err := s.gw.GetLeaderboard(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("fetching leaderboard: %w", err)
	}
	entries := make([]model.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entry := row.ToEntry()
		if entry.Rank == 0 {
			entry.Rank = i + 1
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *RemoteStore) ensureRoom(roomID string) {
	if !s.overlay.HasRoom(roomID) {
		s.overlay.UpsertRoom(model.Room{ID: roomID, Status: model.RoomNotStarted})
	}
}
