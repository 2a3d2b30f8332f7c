package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"codequest_admin/internal/common"
	"codequest_admin/internal/domain/model"

	"github.com/google/uuid"
)

type memoryRoom struct {
	room      model.Room
	teams     []model.Team
	questions []model.Question
	trades    []model.Trade
	unlocks   []model.UnlockOverride

	// removed remembers deleted question ids so a merge does not bring them back.
	removed map[string]bool
}

// MemoryStore keeps rooms in process memory. It backs local development,
// tests and the overlay of the remote store.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*memoryRoom
	order []string
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]*memoryRoom),
		now:   time.Now,
	}
}

func (s *MemoryStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Room, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rooms[id].room)
	}
	return out, nil
}

func (s *MemoryStore) CreateRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = s.now()
	}
	if _, exists := s.rooms[room.ID]; exists {
		return fmt.Errorf("room %s already exists: %w", room.ID, common.ErrConflict)
	}
	for _, r := range s.rooms {
		if r.room.Code == room.Code {
			return fmt.Errorf("room code %s already in use: %w", room.Code, common.ErrConflict)
		}
	}
	s.rooms[room.ID] = &memoryRoom{room: *room}
	s.order = append(s.order, room.ID)
	return nil
}

func (s *MemoryStore) DeleteRoom(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return fmt.Errorf("room %s: %w", roomID, common.ErrNotFound)
	}
	delete(s.rooms, roomID)
	for i, id := range s.order {
		if id == roomID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) ListTeams(ctx context.Context, roomID string) ([]model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.get(roomID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Team, len(r.teams))
	for i, t := range r.teams {
		out[i] = t.Clone()
	}
	return out, nil
}

func (s *MemoryStore) ListQuestions(ctx context.Context, roomID string) ([]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.get(roomID)
	if err != nil {
		return nil, err
	}
	out := append([]model.Question(nil), r.questions...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *MemoryStore) CreateQuestion(ctx context.Context, roomID string, q *model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(roomID)
	if err != nil {
		return err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	r.questions = append(r.questions, *q)
	return nil
}

func (s *MemoryStore) UpdateQuestion(ctx context.Context, roomID string, q model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(roomID)
	if err != nil {
		return err
	}
	for i := range r.questions {
		if r.questions[i].ID == q.ID {
			r.questions[i] = q
			return nil
		}
	}
	return fmt.Errorf("question %s: %w", q.ID, common.ErrNotFound)
}

func (s *MemoryStore) DeleteQuestion(ctx context.Context, roomID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(roomID)
	if err != nil {
		return err
	}
	for i := range r.questions {
		if r.questions[i].ID == questionID {
			r.questions = append(r.questions[:i], r.questions[i+1:]...)
			if r.removed == nil {
				r.removed = make(map[string]bool)
			}
			r.removed[questionID] = true
			return nil
		}
	}
	return fmt.Errorf("question %s: %w", questionID, common.ErrNotFound)
}

func (s *MemoryStore) ListTrades(ctx context.Context, roomID string) ([]model.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.get(roomID)
	if err != nil {
		return nil, err
	}
	return append([]model.Trade(nil), r.trades...), nil
}

func (s *MemoryStore) ListUnlocks(ctx context.Context, roomID string) ([]model.UnlockOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.get(roomID)
	if err != nil {
		return nil, err
	}
	return append([]model.UnlockOverride(nil), r.unlocks...), nil
}

func (s *MemoryStore) Apply(ctx context.Context, cs ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(cs.RoomID)
	if err != nil {
		return err
	}
	if cs.Empty() {
		return nil
	}

	// Validate every reference before touching anything.
	teamIdx := make(map[string]int, len(r.teams))
	for i, t := range r.teams {
		teamIdx[t.ID] = i
	}
	for _, tc := range cs.Teams {
		if _, ok := teamIdx[tc.After.ID]; !ok {
			return fmt.Errorf("team %s: %w", tc.After.ID, common.ErrNotFound)
		}
	}
	tradeIdx := make(map[string]int, len(r.trades))
	for i, t := range r.trades {
		tradeIdx[t.ID] = i
	}
	for _, t := range cs.Trades {
		if _, ok := tradeIdx[t.ID]; !ok {
			return fmt.Errorf("trade %s: %w", t.ID, common.ErrNotFound)
		}
	}

	if cs.Room != nil {
		r.room = cs.Room.After
	}
	for _, tc := range cs.Teams {
		r.teams[teamIdx[tc.After.ID]] = tc.After.Clone()
	}
	if cs.LockQuestions != nil {
		for i := range r.questions {
			r.questions[i].Locked = *cs.LockQuestions
		}
	}
	for _, t := range cs.Trades {
		r.trades[tradeIdx[t.ID]] = t
	}
	if cs.ClearUnlocks {
		r.unlocks = nil
	}
	if cs.Unlock != nil {
		r.unlocks = appendUnlock(r.unlocks, *cs.Unlock)
	}
	return nil
}

// AddTeam registers a participant; joining happens outside the dashboard.
func (s *MemoryStore) AddTeam(roomID string, team model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(roomID)
	if err != nil {
		return err
	}
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	if team.JoinedAt.IsZero() {
		team.JoinedAt = s.now()
	}
	r.teams = append(r.teams, team.Clone())
	return nil
}

// AddTrade records a trade initiated by teams.
func (s *MemoryStore) AddTrade(roomID string, trade model.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(roomID)
	if err != nil {
		return err
	}
	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	r.trades = append(r.trades, trade)
	return nil
}

// ReplaceTeams swaps the team list wholesale.
func (s *MemoryStore) ReplaceTeams(roomID string, teams []model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(roomID)
	if err != nil {
		return err
	}
	r.teams = make([]model.Team, len(teams))
	for i, t := range teams {
		r.teams[i] = t.Clone()
	}
	return nil
}

// ReplaceTrades swaps the trade list wholesale.
func (s *MemoryStore) ReplaceTrades(roomID string, trades []model.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(roomID)
	if err != nil {
		return err
	}
	r.trades = append([]model.Trade(nil), trades...)
	return nil
}

// MergeQuestions adds questions whose ids are unknown. Known questions keep
// their local version and deleted ones stay deleted. New questions take the
// next free order when theirs is taken.
func (s *MemoryStore) MergeQuestions(roomID string, questions []model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(roomID)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(r.questions))
	for _, q := range r.questions {
		known[q.ID] = true
	}
	for _, q := range questions {
		if known[q.ID] || r.removed[q.ID] {
			continue
		}
		if q.Order <= 0 || model.CheckOrderFree(r.questions, q.Order, q.ID) != nil {
			q.Order = model.NextQuestionOrder(r.questions)
		}
		r.questions = append(r.questions, q)
		known[q.ID] = true
	}
	return nil
}

// UpsertRoom inserts or overwrites a room without touching its children.
func (s *MemoryStore) UpsertRoom(room model.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[room.ID]; ok {
		r.room = room
		return
	}
	s.rooms[room.ID] = &memoryRoom{room: room}
	s.order = append(s.order, room.ID)
}

// HasRoom reports whether the room is known.
func (s *MemoryStore) HasRoom(roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[roomID]
	return ok
}

func (s *MemoryStore) get(roomID string) (*memoryRoom, error) {
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("room %s: %w", roomID, common.ErrNotFound)
	}
	return r, nil
}

func appendUnlock(unlocks []model.UnlockOverride, u model.UnlockOverride) []model.UnlockOverride {
	for _, existing := range unlocks {
		if existing.TeamID == u.TeamID && existing.QuestionID == u.QuestionID {
			return unlocks
		}
	}
	return append(unlocks, u)
}
