package model

import (
	"fmt"
	"strings"
	"time"

	"codequest_admin/internal/common"
)

type TeamStatus string

const (
	TeamActive TeamStatus = "active"
	TeamBanned TeamStatus = "banned"
)

type Team struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Points          int         `json:"points"`
	SolvedQuestions int         `json:"solvedQuestions"`
	Status          TeamStatus  `json:"status"`
	BanReason       string      `json:"banReason,omitempty"`
	BanHistory      []BanRecord `json:"banHistory"`
	JoinedAt        time.Time   `json:"joinedAt"`
}

// BanRecord is one entry of a team's append-only moderation history.
type BanRecord struct {
	Reason     string     `json:"reason"`
	BannedAt   time.Time  `json:"bannedAt"`
	UnbannedAt *time.Time `json:"unbannedAt,omitempty"`
}

// Clone copies the team including its ban history.
func (t Team) Clone() Team {
	t.BanHistory = append([]BanRecord(nil), t.BanHistory...)
	if t.BanHistory == nil {
		t.BanHistory = []BanRecord{}
	}
	return t
}

// Ban returns the banned copy of t.
func (t Team) Ban(reason string, at time.Time) (Team, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return t, fmt.Errorf("ban reason is required: %w", common.ErrValidation)
	}
	if t.Status != TeamActive {
		return t, fmt.Errorf("team %s is already banned: %w", t.Name, common.ErrInvalidTransition)
	}
	out := t.Clone()
	out.Status = TeamBanned
	out.BanReason = reason
	out.BanHistory = append(out.BanHistory, BanRecord{Reason: reason, BannedAt: at})
	return out, nil
}

// Unban returns the active copy of t with the latest ban record closed.
func (t Team) Unban(at time.Time) (Team, error) {
	if t.Status != TeamBanned {
		return t, fmt.Errorf("team %s is not banned: %w", t.Name, common.ErrInvalidTransition)
	}
	out := t.Clone()
	out.Status = TeamActive
	out.BanReason = ""
	if n := len(out.BanHistory); n > 0 {
		stamp := at
		out.BanHistory[n-1].UnbannedAt = &stamp
	}
	return out, nil
}

// Reset restores the team to its pre-game state. Ban history is kept.
func (t Team) Reset(startingPoints int, at time.Time) Team {
	out := t.Clone()
	if out.Status == TeamBanned {
		out.closeLastBan(at)
	}
	out.Points = startingPoints
	out.SolvedQuestions = 0
	out.Status = TeamActive
	out.BanReason = ""
	return out
}

func (t *Team) closeLastBan(at time.Time) {
	if n := len(t.BanHistory); n > 0 && t.BanHistory[n-1].UnbannedAt == nil {
		stamp := at
		t.BanHistory[n-1].UnbannedAt = &stamp
	}
}
