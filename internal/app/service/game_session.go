package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"codequest_admin/internal/common"
	"codequest_admin/internal/domain/model"
	"codequest_admin/internal/domain/repository"
	"codequest_admin/internal/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Snapshot is a copy of everything the dashboard renders for one session.
type Snapshot struct {
	Rooms             []model.Room             `json:"rooms"`
	CurrentRoom       *model.Room              `json:"currentRoom"`
	Teams             []model.Team             `json:"teams"`
	Questions         []model.Question         `json:"questions"`
	Trades            []model.Trade            `json:"trades"`
	Unlocks           []model.UnlockOverride   `json:"unlocks"`
	Leaderboard       []model.LeaderboardEntry `json:"leaderboard"`
	Stats             model.AdminStats         `json:"stats"`
	TradingEnabled    bool                     `json:"tradingEnabled"`
	LeaderboardFrozen bool                     `json:"leaderboardFrozen"`
	Loading           bool                     `json:"loading"`
}

type sessionState struct {
	rooms     []model.Room
	currentID string
	teams     []model.Team
	questions []model.Question
	trades    []model.Trade
	unlocks   []model.UnlockOverride
	// ranked is the server ranking of a room whose teams were not listed.
	ranked []model.LeaderboardEntry
}

// leaderboard derives the ranking from the loaded teams and falls back to the
// last server ranking when there are none.
func (s sessionState) leaderboard() []model.LeaderboardEntry {
	if len(s.teams) > 0 {
		return model.DeriveLeaderboard(s.teams)
	}
	return append([]model.LeaderboardEntry{}, s.ranked...)
}

func (s sessionState) current() (model.Room, bool) {
	if s.currentID == "" {
		return model.Room{}, false
	}
	for _, r := range s.rooms {
		if r.ID == s.currentID {
			return r, true
		}
	}
	return model.Room{}, false
}

func (s sessionState) clone() sessionState {
	out := sessionState{
		rooms:     append([]model.Room{}, s.rooms...),
		currentID: s.currentID,
		questions: append([]model.Question{}, s.questions...),
		trades:    append([]model.Trade{}, s.trades...),
		unlocks:   append([]model.UnlockOverride{}, s.unlocks...),
		ranked:    append([]model.LeaderboardEntry{}, s.ranked...),
	}
	out.teams = make([]model.Team, len(s.teams))
	for i, t := range s.teams {
		out.teams[i] = t.Clone()
	}
	return out
}

// GameSession is the state container of one admin session. Operations are
// serialized; each one computes the next state on a copy, persists it through
// the store and only then replaces the snapshot. A failed store call leaves
// the snapshot as it was.
type GameSession struct {
	id       string
	store    repository.RoomStore
	notifier LeaderboardNotifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time

	opMu    sync.Mutex
	stateMu sync.RWMutex
	state   sessionState
	loading atomic.Bool
}

func NewGameSession(id string, store repository.RoomStore, notifier LeaderboardNotifier, m *metrics.Metrics, logger *slog.Logger) *GameSession {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GameSession{
		id:       id,
		store:    store,
		notifier: notifier,
		metrics:  m,
		logger:   logger.With("session_id", id),
		now:      time.Now,
	}
}

func (s *GameSession) ID() string { return s.id }

// Snapshot never blocks on a running operation.
func (s *GameSession) Snapshot() Snapshot {
	s.stateMu.RLock()
	st := s.state.clone()
	s.stateMu.RUnlock()

	snap := Snapshot{
		Rooms:       st.rooms,
		Teams:       st.teams,
		Questions:   st.questions,
		Trades:      st.trades,
		Unlocks:     st.unlocks,
		Leaderboard: st.leaderboard(),
		Stats:       model.ComputeStats(st.rooms, st.teams),
		Loading:     s.loading.Load(),
	}
	if room, ok := st.current(); ok {
		snap.CurrentRoom = &room
		snap.TradingEnabled = room.TradingEnabled
		snap.LeaderboardFrozen = room.LeaderboardFrozen
	}
	return snap
}

func (s *GameSession) snapshotState() sessionState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state.clone()
}

func (s *GameSession) commit(next sessionState) {
	s.stateMu.Lock()
	s.state = next
	s.stateMu.Unlock()
}

// begin serializes an operation. The returned func records the outcome.
func (s *GameSession) begin(op string) func(*error) {
	s.opMu.Lock()
	return func(errp *error) {
		s.opMu.Unlock()
		var err error
		if errp != nil {
			err = *errp
		}
		s.metrics.ObserveTransition(op, err)
		if err != nil {
			s.logger.Debug("operation failed", "operation", op, "error", err)
		}
	}
}

func (s *GameSession) withLoading() func() {
	s.loading.Store(true)
	return func() { s.loading.Store(false) }
}

func (s *GameSession) requireRoom(st sessionState) (model.Room, error) {
	room, ok := st.current()
	if !ok {
		return model.Room{}, common.ErrNoRoomSelected
	}
	return room, nil
}

// Refresh reloads the room list and, when a room is selected, its contents.
func (s *GameSession) Refresh(ctx context.Context) (err error) {
	done := s.begin("refresh")
	defer done(&err)
	defer s.withLoading()()

	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return err
	}
	next := s.snapshotState()
	next.rooms = rooms
	if _, ok := next.current(); !ok {
		next = sessionState{rooms: rooms}
		s.commit(next)
		return nil
	}
	if err := s.loadRoomInto(ctx, &next); err != nil {
		return err
	}
	s.commit(next)
	return nil
}

func (s *GameSession) ListRooms() []model.Room {
	return s.snapshotState().rooms
}

// loadRoomInto fetches the current room's slices concurrently.
func (s *GameSession) loadRoomInto(ctx context.Context, st *sessionState) error {
	roomID := st.currentID
	var (
		teams     []model.Team
		questions []model.Question
		trades    []model.Trade
		unlocks   []model.UnlockOverride
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		teams, err = s.store.ListTeams(gctx, roomID)
		return err
	})
	g.Go(func() (err error) {
		questions, err = s.store.ListQuestions(gctx, roomID)
		return err
	})
	g.Go(func() (err error) {
		trades, err = s.store.ListTrades(gctx, roomID)
		return err
	})
	g.Go(func() (err error) {
		unlocks, err = s.store.ListUnlocks(gctx, roomID)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	sortQuestions(questions)
	st.teams, st.questions, st.trades, st.unlocks = teams, questions, trades, unlocks
	st.ranked = nil
	if len(teams) == 0 {
		if source, ok := s.store.(repository.LeaderboardSource); ok {
			ranked, err := source.FetchLeaderboard(ctx, roomID)
			if err != nil {
				return err
			}
			st.ranked = ranked
		}
	}
	return nil
}

// CreateRoom registers a new room and makes it the current one.
func (s *GameSession) CreateRoom(ctx context.Context, cfg model.RoomConfig) (room model.Room, err error) {
	done := s.begin("create_room")
	defer done(&err)

	next := s.snapshotState()
	taken := make(map[string]bool, len(next.rooms))
	for _, r := range next.rooms {
		taken[r.Code] = true
	}
	code, err := model.UniqueRoomCode(taken)
	if err != nil {
		return model.Room{}, err
	}

	room = model.Room{
		ID:               uuid.NewString(),
		Code:             code,
		Name:             strings.TrimSpace(cfg.Name),
		StartingPoints:   cfg.StartingPoints,
		MaxTeams:         cfg.MaxTeams,
		TotalQuestions:   cfg.TotalQuestions,
		TradingEnabled:   cfg.TradingEnabled,
		PenaltiesEnabled: cfg.PenaltiesEnabled,
		Status:           model.RoomNotStarted,
		CreatedAt:        s.now(),
	}
	if room.Name == "" {
		room.Name = "Room " + code
	}
	if err := s.store.CreateRoom(ctx, &room); err != nil {
		return model.Room{}, err
	}

	next.rooms = append(next.rooms, room)
	next.currentID = room.ID
	next.teams = []model.Team{}
	next.questions = []model.Question{}
	next.trades = []model.Trade{}
	next.unlocks = []model.UnlockOverride{}
	next.ranked = nil
	s.commit(next)
	s.logger.InfoContext(ctx, "room created", "room_id", room.ID, "code", room.Code)
	return room, nil
}

// SelectRoom switches the current room and loads its contents.
func (s *GameSession) SelectRoom(ctx context.Context, roomID string) (err error) {
	done := s.begin("select_room")
	defer done(&err)
	defer s.withLoading()()

	next := s.snapshotState()
	if !containsRoom(next.rooms, roomID) {
		rooms, err := s.store.ListRooms(ctx)
		if err != nil {
			return err
		}
		next.rooms = rooms
		if !containsRoom(rooms, roomID) {
			return fmt.Errorf("room %s: %w", roomID, common.ErrNotFound)
		}
	}
	next.currentID = roomID
	if err := s.loadRoomInto(ctx, &next); err != nil {
		return err
	}
	s.commit(next)
	return nil
}

func (s *GameSession) DeleteRoom(ctx context.Context, roomID string) (err error) {
	done := s.begin("delete_room")
	defer done(&err)

	if err := s.store.DeleteRoom(ctx, roomID); err != nil {
		return err
	}
	next := s.snapshotState()
	rooms := next.rooms[:0]
	for _, r := range next.rooms {
		if r.ID != roomID {
			rooms = append(rooms, r)
		}
	}
	next.rooms = rooms
	if next.currentID == roomID {
		next = sessionState{rooms: rooms}
	}
	s.commit(next)
	s.logger.InfoContext(ctx, "room deleted", "room_id", roomID)
	return nil
}

func containsRoom(rooms []model.Room, id string) bool {
	for _, r := range rooms {
		if r.ID == id {
			return true
		}
	}
	return false
}

// transitionRoom moves the current room to status to. extend adds the
// operation's other effects to the change set and to the next state.
func (s *GameSession) transitionRoom(ctx context.Context, op string, to model.RoomStatus, from []model.RoomStatus,
	extend func(next *sessionState, cs *repository.ChangeSet)) (err error) {
	done := s.begin(op)
	defer done(&err)

	next := s.snapshotState()
	room, err := s.requireRoom(next)
	if err != nil {
		return err
	}
	moved, err := room.Transition(to, from...)
	if err != nil {
		return err
	}

	cs := repository.ChangeSet{RoomID: room.ID, Room: &repository.RoomChange{Before: room, After: moved}}
	replaceRoom(next.rooms, moved)
	if extend != nil {
		extend(&next, &cs)
	}
	if err := s.store.Apply(ctx, cs); err != nil {
		return err
	}
	s.commit(next)
	s.logger.InfoContext(ctx, "room status changed", "room_id", room.ID, "from", room.Status, "to", moved.Status)
	return nil
}

// StartGame takes a room that has not started live and locks every question.
func (s *GameSession) StartGame(ctx context.Context) error {
	err := s.transitionRoom(ctx, "start_game", model.RoomLive, []model.RoomStatus{model.RoomNotStarted},
		func(next *sessionState, cs *repository.ChangeSet) {
			cs.LockQuestions = repository.BoolPtr(true)
			for i := range next.questions {
				next.questions[i].Locked = true
			}
		})
	if err == nil {
		s.broadcast(ctx)
	}
	return err
}

func (s *GameSession) PauseGame(ctx context.Context) error {
	return s.transitionRoom(ctx, "pause_game", model.RoomPaused, nil, nil)
}

func (s *GameSession) ResumeGame(ctx context.Context) error {
	return s.transitionRoom(ctx, "resume_game", model.RoomLive, []model.RoomStatus{model.RoomPaused}, nil)
}

func (s *GameSession) EndGame(ctx context.Context) error {
	return s.transitionRoom(ctx, "end_game", model.RoomEnded, nil, nil)
}

// ResetRoom returns the room and its teams to the pre-game state. Ban history
// is kept; unlock overrides are dropped.
func (s *GameSession) ResetRoom(ctx context.Context) error {
	at := s.now()
	err := s.transitionRoom(ctx, "reset_room", model.RoomNotStarted, nil,
		func(next *sessionState, cs *repository.ChangeSet) {
			room, _ := next.current()
			cs.LockQuestions = repository.BoolPtr(false)
			cs.ClearUnlocks = true
			for i := range next.questions {
				next.questions[i].Locked = false
			}
			for i, t := range next.teams {
				reset := t.Reset(room.StartingPoints, at)
				cs.Teams = append(cs.Teams, repository.TeamChange{Before: t, After: reset})
				next.teams[i] = reset
			}
			next.unlocks = []model.UnlockOverride{}
		})
	if err == nil {
		s.broadcast(ctx)
	}
	return err
}

func replaceRoom(rooms []model.Room, room model.Room) {
	for i := range rooms {
		if rooms[i].ID == room.ID {
			rooms[i] = room
			return
		}
	}
}

// toggleRoomFlag flips one boolean on the current room.
func (s *GameSession) toggleRoomFlag(ctx context.Context, op string, flip func(*model.Room) bool) (value bool, err error) {
	done := s.begin(op)
	defer done(&err)

	next := s.snapshotState()
	room, err := s.requireRoom(next)
	if err != nil {
		return false, err
	}
	changed := room
	value = flip(&changed)

	if err := s.store.Apply(ctx, repository.ChangeSet{
		RoomID: room.ID,
		Room:   &repository.RoomChange{Before: room, After: changed},
	}); err != nil {
		return !value, err
	}
	replaceRoom(next.rooms, changed)
	s.commit(next)
	return value, nil
}

// ToggleTrading flips trading for the current room. Pending trades are left
// alone.
func (s *GameSession) ToggleTrading(ctx context.Context) (bool, error) {
	return s.toggleRoomFlag(ctx, "toggle_trading", func(r *model.Room) bool {
		r.TradingEnabled = !r.TradingEnabled
		return r.TradingEnabled
	})
}

// ToggleLeaderboardFreeze stops or resumes leaderboard broadcasts. Unfreezing
// publishes the current standings right away.
func (s *GameSession) ToggleLeaderboardFreeze(ctx context.Context) (bool, error) {
	frozen, err := s.toggleRoomFlag(ctx, "toggle_leaderboard_freeze", func(r *model.Room) bool {
		r.LeaderboardFrozen = !r.LeaderboardFrozen
		return r.LeaderboardFrozen
	})
	if err == nil && !frozen {
		s.broadcast(ctx)
	}
	return frozen, err
}

func findTeam(teams []model.Team, id string) (int, error) {
	for i := range teams {
		if teams[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("team %s: %w", id, common.ErrNotFound)
}

func (s *GameSession) updateTeam(ctx context.Context, op, teamID string, change func(model.Team) (model.Team, error)) (team model.Team, err error) {
	done := s.begin(op)
	defer done(&err)

	next := s.snapshotState()
	room, err := s.requireRoom(next)
	if err != nil {
		return model.Team{}, err
	}
	i, err := findTeam(next.teams, teamID)
	if err != nil {
		return model.Team{}, err
	}
	before := next.teams[i]
	after, err := change(before)
	if err != nil {
		return before, err
	}
	if err := s.store.Apply(ctx, repository.ChangeSet{
		RoomID: room.ID,
		Teams:  []repository.TeamChange{{Before: before, After: after}},
	}); err != nil {
		return before, err
	}
	next.teams[i] = after
	s.commit(next)
	return after.Clone(), nil
}

// BanTeam bans an active team and opens a ban record.
func (s *GameSession) BanTeam(ctx context.Context, teamID, reason string) (model.Team, error) {
	at := s.now()
	team, err := s.updateTeam(ctx, "ban_team", teamID, func(t model.Team) (model.Team, error) {
		return t.Ban(reason, at)
	})
	if err == nil {
		s.logger.InfoContext(ctx, "team banned", "team_id", teamID, "reason", team.BanReason)
		s.broadcast(ctx)
	}
	return team, err
}

// UnbanTeam reactivates a banned team and closes its latest ban record.
func (s *GameSession) UnbanTeam(ctx context.Context, teamID string) (model.Team, error) {
	at := s.now()
	team, err := s.updateTeam(ctx, "unban_team", teamID, func(t model.Team) (model.Team, error) {
		return t.Unban(at)
	})
	if err == nil {
		s.logger.InfoContext(ctx, "team unbanned", "team_id", teamID)
		s.broadcast(ctx)
	}
	return team, err
}

// LoadParticipants replaces the team list with the store's.
func (s *GameSession) LoadParticipants(ctx context.Context) (teams []model.Team, err error) {
	done := s.begin("load_participants")
	defer done(&err)
	defer s.withLoading()()

	next := s.snapshotState()
	room, err := s.requireRoom(next)
	if err != nil {
		return nil, err
	}
	teams, err = s.store.ListTeams(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	next.teams = teams
	s.commit(next)
	s.broadcastLocked(ctx, next)
	return s.snapshotState().teams, nil
}

func (s *GameSession) requireEditableRoom(st sessionState) (model.Room, error) {
	room, err := s.requireRoom(st)
	if err != nil {
		return room, err
	}
	if !room.QuestionsEditable() {
		return room, fmt.Errorf("questions of room %s can only change before the game starts (status %s): %w",
			room.Code, room.Status, common.ErrInvalidTransition)
	}
	return room, nil
}

func findQuestion(questions []model.Question, id string) (int, error) {
	for i := range questions {
		if questions[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("question %s: %w", id, common.ErrNotFound)
}

func sortQuestions(questions []model.Question) {
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })
}

// AddQuestion appends a question to a room that has not started. An order of
// zero or less takes the next free position.
func (s *GameSession) AddQuestion(ctx context.Context, q model.Question) (created model.Question, err error) {
	done := s.begin("add_question")
	defer done(&err)

	next := s.snapshotState()
	room, err := s.requireEditableRoom(next)
	if err != nil {
		return model.Question{}, err
	}
	q.Title = strings.TrimSpace(q.Title)
	if q.Title == "" {
		return model.Question{}, fmt.Errorf("question title is required: %w", common.ErrValidation)
	}
	if q.Order <= 0 {
		q.Order = model.NextQuestionOrder(next.questions)
	} else if err := model.CheckOrderFree(next.questions, q.Order, ""); err != nil {
		return model.Question{}, err
	}
	q.ID = ""
	q.Locked = false

	if err := s.store.CreateQuestion(ctx, room.ID, &q); err != nil {
		return model.Question{}, err
	}
	next.questions = append(next.questions, q)
	sortQuestions(next.questions)
	s.commit(next)
	return q, nil
}

func (s *GameSession) UpdateQuestion(ctx context.Context, questionID string, patch model.QuestionPatch) (updated model.Question, err error) {
	done := s.begin("update_question")
	defer done(&err)

	next := s.snapshotState()
	room, err := s.requireEditableRoom(next)
	if err != nil {
		return model.Question{}, err
	}
	i, err := findQuestion(next.questions, questionID)
	if err != nil {
		return model.Question{}, err
	}
	updated, err = patch.Apply(next.questions[i])
	if err != nil {
		return model.Question{}, err
	}
	if patch.Order != nil {
		if updated.Order <= 0 {
			return model.Question{}, fmt.Errorf("question order must be positive: %w", common.ErrValidation)
		}
		if err := model.CheckOrderFree(next.questions, updated.Order, questionID); err != nil {
			return model.Question{}, err
		}
	}

	if err := s.store.UpdateQuestion(ctx, room.ID, updated); err != nil {
		return model.Question{}, err
	}
	next.questions[i] = updated
	sortQuestions(next.questions)
	s.commit(next)
	return updated, nil
}

// DeleteQuestion removes a question. Remaining orders are not renumbered.
func (s *GameSession) DeleteQuestion(ctx context.Context, questionID string) (err error) {
	done := s.begin("delete_question")
	defer done(&err)

	next := s.snapshotState()
	room, err := s.requireEditableRoom(next)
	if err != nil {
		return err
	}
	i, err := findQuestion(next.questions, questionID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteQuestion(ctx, room.ID, questionID); err != nil {
		return err
	}
	next.questions = append(next.questions[:i], next.questions[i+1:]...)
	s.commit(next)
	return nil
}

// ForceUnlockQuestion opens one question for one team while the game runs.
// Unlocking the same pair twice keeps the first record.
func (s *GameSession) ForceUnlockQuestion(ctx context.Context, questionID, teamID string) (unlock model.UnlockOverride, err error) {
	done := s.begin("force_unlock_question")
	defer done(&err)

	next := s.snapshotState()
	room, err := s.requireRoom(next)
	if err != nil {
		return unlock, err
	}
	if !room.InProgress() {
		return unlock, fmt.Errorf("room %s is %s, questions can only be unlocked during a game: %w",
			room.Code, room.Status, common.ErrInvalidTransition)
	}
	ti, err := findTeam(next.teams, teamID)
	if err != nil {
		return unlock, err
	}
	if next.teams[ti].Status != model.TeamActive {
		return unlock, fmt.Errorf("team %s is banned: %w", next.teams[ti].Name, common.ErrInvalidTransition)
	}
	if _, err := findQuestion(next.questions, questionID); err != nil {
		return unlock, err
	}
	for _, u := range next.unlocks {
		if u.TeamID == teamID && u.QuestionID == questionID {
			return u, nil
		}
	}

	unlock = model.UnlockOverride{TeamID: teamID, QuestionID: questionID, UnlockedAt: s.now()}
	if err := s.store.Apply(ctx, repository.ChangeSet{RoomID: room.ID, Unlock: &unlock}); err != nil {
		return model.UnlockOverride{}, err
	}
	next.unlocks = append(next.unlocks, unlock)
	s.commit(next)
	s.logger.InfoContext(ctx, "question force-unlocked", "room_id", room.ID, "question_id", questionID, "team_id", teamID)
	return unlock, nil
}

// CancelTrade cancels a pending trade. Completed and cancelled trades are
// final.
func (s *GameSession) CancelTrade(ctx context.Context, tradeID string) (trade model.Trade, err error) {
	done := s.begin("cancel_trade")
	defer done(&err)

	next := s.snapshotState()
	room, err := s.requireRoom(next)
	if err != nil {
		return trade, err
	}
	idx := -1
	for i := range next.trades {
		if next.trades[i].ID == tradeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return trade, fmt.Errorf("trade %s: %w", tradeID, common.ErrNotFound)
	}
	trade, err = next.trades[idx].Cancel()
	if err != nil {
		return next.trades[idx], err
	}
	if err := s.store.Apply(ctx, repository.ChangeSet{RoomID: room.ID, Trades: []model.Trade{trade}}); err != nil {
		return next.trades[idx], err
	}
	next.trades[idx] = trade
	s.commit(next)
	return trade, nil
}

// LoadTrades replaces the trade history with the store's.
func (s *GameSession) LoadTrades(ctx context.Context) (trades []model.Trade, err error) {
	done := s.begin("load_trades")
	defer done(&err)
	defer s.withLoading()()

	next := s.snapshotState()
	room, err := s.requireRoom(next)
	if err != nil {
		return nil, err
	}
	trades, err = s.store.ListTrades(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	next.trades = trades
	s.commit(next)
	return append([]model.Trade(nil), trades...), nil
}

// Leaderboard ranks the current room's active teams. The server-ranked list
// is only consulted when no teams are known locally.
func (s *GameSession) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	st := s.snapshotState()
	room, err := s.requireRoom(st)
	if err != nil {
		return nil, err
	}
	source, ok := s.store.(repository.LeaderboardSource)
	if len(st.teams) > 0 || !ok {
		return st.leaderboard(), nil
	}
	entries, err := source.FetchLeaderboard(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	s.keepRanking(room.ID, entries)
	return entries, nil
}

// keepRanking stores a fetched server ranking for snapshots, unless the
// session moved to another room or loaded teams meanwhile.
func (s *GameSession) keepRanking(roomID string, entries []model.LeaderboardEntry) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.state.currentID == roomID && len(s.state.teams) == 0 {
		s.state.ranked = append([]model.LeaderboardEntry{}, entries...)
	}
}

func (s *GameSession) Stats() model.AdminStats {
	st := s.snapshotState()
	return model.ComputeStats(st.rooms, st.teams)
}

// CurrentRoom returns the selected room.
func (s *GameSession) CurrentRoom() (model.Room, error) {
	return s.requireRoom(s.snapshotState())
}

func (s *GameSession) broadcast(ctx context.Context) {
	s.broadcastLocked(ctx, s.snapshotState())
}

// broadcastLocked queues the standings unless the room is frozen. Failures
// are logged; they never fail the operation.
func (s *GameSession) broadcastLocked(ctx context.Context, st sessionState) {
	room, ok := st.current()
	if !ok || room.LeaderboardFrozen {
		return
	}
	if err := s.notifier.Notify(ctx, room.ID, model.DeriveLeaderboard(st.teams)); err != nil {
		s.logger.WarnContext(ctx, "failed to queue leaderboard broadcast", "room_id", room.ID, "error", err)
	}
}
