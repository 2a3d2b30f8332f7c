package handler

import (
	"net/http"

	"codequest_admin/internal/common"
	"codequest_admin/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type QuestionHandler struct{}

func NewQuestionHandler() *QuestionHandler {
	return &QuestionHandler{}
}

type questionRequest struct {
	Order          int                      `json:"order" validate:"gte=0"`
	Title          string                   `json:"title" validate:"required"`
	Description    string                   `json:"description"`
	InputFormat    string                   `json:"inputFormat"`
	ExpectedOutput string                   `json:"expectedOutput"`
	Points         int                      `json:"points" validate:"gte=0"`
	AccessCode     string                   `json:"accessCode"`
	OutputFormat   string                   `json:"outputFormat"`
	Constraints    string                   `json:"constraints"`
	Difficulty     model.QuestionDifficulty `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Examples       []model.Example          `json:"examples"`
	TestCases      []model.TestCase         `json:"testCases"`
}

func (q questionRequest) toModel() model.Question {
	return model.Question{
		Order:          q.Order,
		Title:          q.Title,
		Description:    q.Description,
		InputFormat:    q.InputFormat,
		ExpectedOutput: q.ExpectedOutput,
		Points:         q.Points,
		AccessCode:     q.AccessCode,
		OutputFormat:   q.OutputFormat,
		Constraints:    q.Constraints,
		Difficulty:     q.Difficulty,
		Examples:       q.Examples,
		TestCases:      q.TestCases,
	}
}

func (h *QuestionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listQuestions)
	r.Post("/", h.addQuestion)
	r.Patch("/{questionID}", h.updateQuestion)
	r.Delete("/{questionID}", h.deleteQuestion)
}

func (h *QuestionHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	common.RespondWithJSON(w, http.StatusOK, gs.Snapshot().Questions)
}

func (h *QuestionHandler) addQuestion(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	var req questionRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	q, err := gs.AddQuestion(r.Context(), req.toModel())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, q)
}

func (h *QuestionHandler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	var patch model.QuestionPatch
	if !decodeRequest(w, r, &patch) {
		return
	}
	q, err := gs.UpdateQuestion(r.Context(), chi.URLParam(r, "questionID"), patch)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, q)
}

func (h *QuestionHandler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	if err := gs.DeleteQuestion(r.Context(), chi.URLParam(r, "questionID")); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
