package repository

import (
	"time"

	"codequest_admin/internal/domain/model"
)

// SeedDemoData loads one live room with a handful of teams, questions and
// trades so the dashboard has something to show on a fresh process.
func SeedDemoData(s *MemoryStore, now time.Time) model.Room {
	room := model.Room{
		ID:               "demo-room",
		Code:             "ABC123",
		Name:             "Demo Arena",
		StartingPoints:   500,
		MaxTeams:         10,
		TotalQuestions:   5,
		TradingEnabled:   true,
		PenaltiesEnabled: true,
		Status:           model.RoomLive,
		CreatedAt:        now,
	}
	s.UpsertRoom(room)

	teams := []model.Team{
		{ID: "team-1", Name: "ByteBlasters", Points: 450, SolvedQuestions: 3, Status: model.TeamActive},
		{ID: "team-2", Name: "CodeCrusaders", Points: 520, SolvedQuestions: 4, Status: model.TeamActive},
		{ID: "team-3", Name: "AlgoAces", Points: 380, SolvedQuestions: 2, Status: model.TeamActive},
		{
			ID: "team-4", Name: "DebugDynamos", Points: 290, SolvedQuestions: 2, Status: model.TeamBanned,
			BanReason:  "Suspicious activity",
			BanHistory: []model.BanRecord{{Reason: "Suspicious activity", BannedAt: now}},
		},
		{ID: "team-5", Name: "SyntaxSurfers", Points: 610, SolvedQuestions: 5, Status: model.TeamActive},
	}
	for _, t := range teams {
		t.JoinedAt = now
		_ = s.AddTeam(room.ID, t)
	}

	questions := []model.Question{
		{ID: "q-1", Order: 1, Title: "Two Sum", Description: "Find two numbers that add up to target", InputFormat: "Array of integers, target", ExpectedOutput: "Indices of two numbers", Points: 100, Difficulty: model.DifficultyEasy},
		{ID: "q-2", Order: 2, Title: "Reverse String", Description: "Reverse a given string", InputFormat: "String", ExpectedOutput: "Reversed string", Points: 50, Difficulty: model.DifficultyEasy},
		{ID: "q-3", Order: 3, Title: "Binary Search", Description: "Implement binary search algorithm", InputFormat: "Sorted array, target", ExpectedOutput: "Index or -1", Points: 150, Difficulty: model.DifficultyMedium},
	}
	s.mu.Lock()
	s.rooms[room.ID].questions = questions
	s.mu.Unlock()

	_ = s.AddTrade(room.ID, model.Trade{
		ID: "trade-1", SellerID: "team-1", SellerName: "ByteBlasters", BuyerID: "team-3", BuyerName: "AlgoAces",
		QuestionID: "q-1", QuestionTitle: "Two Sum", Price: 50, Status: model.TradeCompleted, Timestamp: now.Add(-time.Hour),
	})
	_ = s.AddTrade(room.ID, model.Trade{
		ID: "trade-2", SellerID: "team-2", SellerName: "CodeCrusaders", BuyerID: "team-5", BuyerName: "SyntaxSurfers",
		QuestionID: "q-2", QuestionTitle: "Reverse String", Price: 30, Status: model.TradePending, Timestamp: now,
	})
	return room
}
