package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sanu276140-eng/examsk24/internal/model"
	"github.com/sanu276140-eng/examsk24/internal/resource"
	"github.com/sanu276140-eng/examsk24/internal/response"
	"github.com/sanu276140-eng/examsk24/internal/validator"
)

// QuestionHandler handles question management endpoints.
type QuestionHandler struct {
	questions *resource.QuestionManager
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questions *resource.QuestionManager) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

// ListQuestions godoc
// GET /api/v1/admin/questions?exam_id=&category=&limit=
// Lists questions, newest first, optionally filtered.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	opts := resource.QuestionListOptions{
		ExamID:   c.Query("exam_id"),
		Category: c.Query("category"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return
		}
		opts.Limit = limit
	}

	questions, err := h.questions.List(c.Request.Context(), opts)
	if err != nil {
		failStore(c, err)
		return
	}

	if questions == nil {
		questions = []model.Question{}
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// GetQuestion godoc
// GET /api/v1/admin/questions/:id
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	question, err := h.questions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failStore(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// CreateQuestion godoc
// POST /api/v1/admin/questions
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var form model.QuestionForm
	if fields := validator.Bind(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	form.ID = ""

	id, err := h.questions.Save(c.Request.Context(), form)
	if err != nil {
		failQuestionSave(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"id": id})
}

// UpdateQuestion godoc
// PUT /api/v1/admin/questions/:id
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	var form model.QuestionForm
	if fields := validator.Bind(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	form.ID = c.Param("id")

	id, err := h.questions.Save(c.Request.Context(), form)
	if err != nil {
		failQuestionSave(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": id})
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/questions/:id?confirm=true
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	if !requireConfirm(c) {
		return
	}

	if err := h.questions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failStore(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

func failQuestionSave(c *gin.Context, err error) {
	if errors.Is(err, resource.ErrAnswerNotInOptions) || errors.Is(err, resource.ErrIncompleteOptions) {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAnswer)
		return
	}
	failStore(c, err)
}
