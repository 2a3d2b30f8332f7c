package model

import (
	"sort"
	"time"
)

type LeaderboardEntry struct {
	Rank            int    `json:"rank"`
	TeamID          string `json:"teamId"`
	TeamName        string `json:"teamName"`
	Points          int    `json:"points"`
	QuestionsSolved int    `json:"questionsSolved"`
}

// DeriveLeaderboard ranks active teams by points, highest first. Equal points
// keep their input order.
func DeriveLeaderboard(teams []Team) []LeaderboardEntry {
	active := make([]Team, 0, len(teams))
	for _, t := range teams {
		if t.Status == TeamActive {
			active = append(active, t)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Points > active[j].Points
	})

	entries := make([]LeaderboardEntry, len(active))
	for i, t := range active {
		entries[i] = LeaderboardEntry{
			Rank:            i + 1,
			TeamID:          t.ID,
			TeamName:        t.Name,
			Points:          t.Points,
			QuestionsSolved: t.SolvedQuestions,
		}
	}
	return entries
}

type AdminStats struct {
	TotalActiveRooms int `json:"totalActiveRooms"`
	TotalTeamsJoined int `json:"totalTeamsJoined"`
	LiveGames        int `json:"liveGames"`
}

func ComputeStats(rooms []Room, teams []Team) AdminStats {
	live := 0
	for _, r := range rooms {
		if r.Status == RoomLive {
			live++
		}
	}
	return AdminStats{
		TotalActiveRooms: live,
		TotalTeamsJoined: len(teams),
		LiveGames:        live,
	}
}

// LeaderboardBroadcast is one standings snapshot queued for publishing.
type LeaderboardBroadcast struct {
	ID          string             `json:"id"`
	RoomID      string             `json:"roomId"`
	Entries     []LeaderboardEntry `json:"entries"`
	PublishedAt time.Time          `json:"publishedAt"`
}

func LeaderboardChannel(roomID string) string {
	return "leaderboard:" + roomID
}

func LeaderboardLatestKey(roomID string) string {
	return "leaderboard:" + roomID + ":latest"
}

func LeaderboardLockKey(roomID string) string {
	return "leaderboard:" + roomID + ":lock"
}
