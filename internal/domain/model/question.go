package model

import (
	"fmt"
	"strings"

	"codequest_admin/internal/common"
)

type QuestionDifficulty string

const (
	DifficultyEasy   QuestionDifficulty = "easy"
	DifficultyMedium QuestionDifficulty = "medium"
	DifficultyHard   QuestionDifficulty = "hard"
)

type Question struct {
	ID             string             `json:"id"`
	Order          int                `json:"order"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	InputFormat    string             `json:"inputFormat"`
	ExpectedOutput string             `json:"expectedOutput"`
	Points         int                `json:"points"`
	Locked         bool               `json:"locked"`
	AccessCode     string             `json:"accessCode,omitempty"`
	OutputFormat   string             `json:"outputFormat,omitempty"`
	Constraints    string             `json:"constraints,omitempty"`
	Difficulty     QuestionDifficulty `json:"difficulty,omitempty"`
	Examples       []Example          `json:"examples,omitempty"`
	TestCases      []TestCase         `json:"testCases,omitempty"`
}

type Example struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation,omitempty"`
}

type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	IsHidden       bool   `json:"isHidden"`
}

// QuestionPatch carries the fields of an edit; nil means unchanged.
type QuestionPatch struct {
	Order          *int                `json:"order,omitempty"`
	Title          *string             `json:"title,omitempty"`
	Description    *string             `json:"description,omitempty"`
	InputFormat    *string             `json:"inputFormat,omitempty"`
	ExpectedOutput *string             `json:"expectedOutput,omitempty"`
	Points         *int                `json:"points,omitempty"`
	AccessCode     *string             `json:"accessCode,omitempty"`
	OutputFormat   *string             `json:"outputFormat,omitempty"`
	Constraints    *string             `json:"constraints,omitempty"`
	Difficulty     *QuestionDifficulty `json:"difficulty,omitempty"`
	Examples       *[]Example          `json:"examples,omitempty"`
	TestCases      *[]TestCase         `json:"testCases,omitempty"`
}

func (p QuestionPatch) Apply(q Question) (Question, error) {
	if p.Order != nil {
		q.Order = *p.Order
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return q, fmt.Errorf("question title is required: %w", common.ErrValidation)
		}
		q.Title = title
	}
	if p.Description != nil {
		q.Description = *p.Description
	}
	if p.InputFormat != nil {
		q.InputFormat = *p.InputFormat
	}
	if p.ExpectedOutput != nil {
		q.ExpectedOutput = *p.ExpectedOutput
	}
	if p.Points != nil {
		q.Points = *p.Points
	}
	if p.AccessCode != nil {
		q.AccessCode = *p.AccessCode
	}
	if p.OutputFormat != nil {
		q.OutputFormat = *p.OutputFormat
	}
	if p.Constraints != nil {
		q.Constraints = *p.Constraints
	}
	if p.Difficulty != nil {
		q.Difficulty = *p.Difficulty
	}
	if p.Examples != nil {
		q.Examples = *p.Examples
	}
	if p.TestCases != nil {
		q.TestCases = *p.TestCases
	}
	return q, nil
}

// NextQuestionOrder is one past the highest order in use.
func NextQuestionOrder(questions []Question) int {
	max := 0
	for _, q := range questions {
		if q.Order > max {
			max = q.Order
		}
	}
	return max + 1
}

// CheckOrderFree rejects an order already used by a question other than exceptID.
func CheckOrderFree(questions []Question, order int, exceptID string) error {
	for _, q := range questions {
		if q.ID != exceptID && q.Order == order {
			return fmt.Errorf("order %d is already used by %q: %w", order, q.Title, common.ErrConflict)
		}
	}
	return nil
}
