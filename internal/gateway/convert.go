package gateway

import (
	"strings"

	"codequest_admin/internal/domain/model"
)

// Backend room statuses. Anything but closed counts as open.
const (
	BackendRoomClosed = "closed"
)

func (r RoomData) Closed() bool {
	s := strings.ToLower(r.Status)
	return s == BackendRoomClosed || s == "ended"
}

// ToRoom maps the backend room. Fields the backend does not track keep their
// zero value and are filled from the local overlay.
func (r RoomData) ToRoom() model.Room {
	status := model.RoomNotStarted
	if r.Closed() {
		status = model.RoomEnded
	}
	return model.Room{
		ID:             r.ID,
		Code:           r.RoomCode,
		Name:           r.RoomName,
		StartingPoints: r.InitialPoints,
		TotalQuestions: len(r.Questions),
		TradingEnabled: true,
		Status:         status,
		CreatedAt:      r.CreatedAt.Time,
	}
}

func (q QuestionData) ToQuestion(order int) model.Question {
	if q.Order > 0 {
		order = q.Order
	}
	out := model.Question{
		ID:           q.ID,
		Order:        order,
		Title:        q.Title,
		Description:  q.Description,
		InputFormat:  q.InputFormat,
		OutputFormat: q.OutputFormat,
		Constraints:  q.Constraints,
		Points:       q.Points,
		AccessCode:   q.AccessCode,
		Difficulty:   model.QuestionDifficulty(strings.ToLower(q.Difficulty)),
	}
	for _, ex := range q.Examples {
		out.Examples = append(out.Examples, model.Example{Input: ex.Input, Output: ex.Output, Explanation: ex.Explanation})
		if out.ExpectedOutput == "" {
			out.ExpectedOutput = ex.Output
		}
	}
	for _, tc := range q.TestCases {
		out.TestCases = append(out.TestCases, model.TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput, IsHidden: tc.IsHidden})
	}
	return out
}

func NewQuestionRequest(q model.Question) QuestionRequest {
	req := QuestionRequest{
		Title:        q.Title,
		Description:  q.Description,
		InputFormat:  q.InputFormat,
		OutputFormat: q.OutputFormat,
		Constraints:  q.Constraints,
		Points:       q.Points,
		Difficulty:   string(q.Difficulty),
		AccessCode:   q.AccessCode,
		Examples:     []Example{},
		TestCases:    []TestCase{},
	}
	if req.OutputFormat == "" {
		req.OutputFormat = q.ExpectedOutput
	}
	if req.Difficulty == "" {
		req.Difficulty = string(model.DifficultyMedium)
	}
	for _, ex := range q.Examples {
		req.Examples = append(req.Examples, Example{Input: ex.Input, Output: ex.Output, Explanation: ex.Explanation})
	}
	for _, tc := range q.TestCases {
		req.TestCases = append(req.TestCases, TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput, IsHidden: tc.IsHidden})
	}
	return req
}

// PlayerID is the id the ban endpoints expect.
func (p Participant) PlayerID() string {
	if p.UserID != "" {
		return p.UserID
	}
	return p.ID
}

func (p Participant) ToTeam() model.Team {
	name := p.TeamName
	if name == "" {
		name = p.Username
	}
	t := model.Team{
		ID:              p.PlayerID(),
		Name:            name,
		Points:          p.Points,
		SolvedQuestions: p.QuestionsSolved,
		Status:          model.TeamActive,
		BanHistory:      []model.BanRecord{},
		JoinedAt:        p.JoinedAt.Time,
	}
	if p.IsBanned {
		t.Status = model.TeamBanned
		t.BanReason = p.BanReason
	}
	return t
}

func (r LeaderboardRow) ToEntry() model.LeaderboardEntry {
	name := r.TeamName
	if name == "" {
		name = r.Username
	}
	return model.LeaderboardEntry{
		Rank:            r.Rank,
		TeamID:          r.UserID,
		TeamName:        name,
		Points:          r.Points,
		QuestionsSolved: r.QuestionsSolved,
	}
}

func (p Party) displayName() string {
	if p.TeamName != "" {
		return p.TeamName
	}
	return p.Username
}

func (t Transaction) ToTrade() model.Trade {
	status := model.TradeStatus(strings.ToLower(t.Status))
	switch status {
	case model.TradePending, model.TradeCompleted, model.TradeCancelled:
	case "success", "done":
		status = model.TradeCompleted
	default:
		status = model.TradePending
	}
	return model.Trade{
		ID:            t.ID,
		SellerID:      t.Seller.ID,
		SellerName:    t.Seller.displayName(),
		BuyerID:       t.Buyer.ID,
		BuyerName:     t.Buyer.displayName(),
		QuestionID:    t.Question.ID,
		QuestionTitle: t.Question.Title,
		Price:         t.Price,
		Status:        status,
		Timestamp:     t.CreatedAt.Time,
	}
}
