package model

import (
	"fmt"
	"time"

	"codequest_admin/internal/common"
)

type RoomStatus string

const (
	RoomNotStarted RoomStatus = "not_started"
	RoomLive       RoomStatus = "live"
	RoomPaused     RoomStatus = "paused"
	RoomEnded      RoomStatus = "ended"
)

type Room struct {
	ID                string     `json:"id"`
	Code              string     `json:"code"`
	Name              string     `json:"name"`
	StartingPoints    int        `json:"startingPoints"`
	MaxTeams          int        `json:"maxTeams"`
	TotalQuestions    int        `json:"totalQuestions"`
	TradingEnabled    bool       `json:"tradingEnabled"`
	PenaltiesEnabled  bool       `json:"penaltiesEnabled"`
	LeaderboardFrozen bool       `json:"leaderboardFrozen"`
	Status            RoomStatus `json:"status"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// RoomConfig is what the admin chooses on the create-room form.
type RoomConfig struct {
	Name             string `json:"name"`
	StartingPoints   int    `json:"startingPoints"`
	MaxTeams         int    `json:"maxTeams"`
	TotalQuestions   int    `json:"totalQuestions"`
	TradingEnabled   bool   `json:"tradingEnabled"`
	PenaltiesEnabled bool   `json:"penaltiesEnabled"`
}

// roomTransitions lists, per target status, the statuses it may be entered from.
var roomTransitions = map[RoomStatus][]RoomStatus{
	RoomLive:       {RoomNotStarted, RoomPaused},
	RoomPaused:     {RoomLive},
	RoomEnded:      {RoomLive, RoomPaused},
	RoomNotStarted: {RoomNotStarted, RoomLive, RoomPaused, RoomEnded},
}

func (s RoomStatus) Valid() bool {
	_, ok := roomTransitions[s]
	return ok
}

// QuestionsEditable reports whether questions may still be added, edited or deleted.
func (r Room) QuestionsEditable() bool {
	return r.Status == RoomNotStarted
}

// InProgress is true while teams can play (live or paused).
func (r Room) InProgress() bool {
	return r.Status == RoomLive || r.Status == RoomPaused
}

// Transition returns a copy of r moved to status to, or ErrInvalidTransition.
// Start and resume both enter live but from different statuses, so callers
// that care pass the single allowed source in from.
func (r Room) Transition(to RoomStatus, from ...RoomStatus) (Room, error) {
	allowed := roomTransitions[to]
	if len(from) > 0 {
		allowed = from
	}
	for _, s := range allowed {
		if r.Status == s {
			r.Status = to
			return r, nil
		}
	}
	return r, fmt.Errorf("room %s cannot move from %s to %s: %w", r.Code, r.Status, to, common.ErrInvalidTransition)
}
