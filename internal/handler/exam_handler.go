package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sanu276140-eng/examsk24/internal/model"
	"github.com/sanu276140-eng/examsk24/internal/resource"
	"github.com/sanu276140-eng/examsk24/internal/response"
	"github.com/sanu276140-eng/examsk24/internal/validator"
)

// ExamHandler handles exam management endpoints.
type ExamHandler struct {
	exams *resource.ExamManager
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(exams *resource.ExamManager) *ExamHandler {
	return &ExamHandler{exams: exams}
}

// ListExams godoc
// GET /api/v1/admin/exams?category=&status=&limit=
func (h *ExamHandler) ListExams(c *gin.Context) {
	opts := resource.ExamListOptions{
		Category: c.Query("category"),
		Status:   c.Query("status"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return
		}
		opts.Limit = limit
	}

	exams, err := h.exams.List(c.Request.Context(), opts)
	if err != nil {
		failStore(c, err)
		return
	}

	if exams == nil {
		exams = []model.Exam{}
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetExam godoc
// GET /api/v1/admin/exams/:id
func (h *ExamHandler) GetExam(c *gin.Context) {
	exam, err := h.exams.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failStore(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// CreateExam godoc
// POST /api/v1/admin/exams
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var form model.ExamForm
	if fields := validator.Bind(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	form.ID = ""

	id, err := h.exams.Save(c.Request.Context(), form)
	if err != nil {
		failStore(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"id": id})
}

// UpdateExam godoc
// PUT /api/v1/admin/exams/:id
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	var form model.ExamForm
	if fields := validator.Bind(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	form.ID = c.Param("id")

	id, err := h.exams.Save(c.Request.Context(), form)
	if err != nil {
		failStore(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": id})
}

// DeleteExam godoc
// DELETE /api/v1/admin/exams/:id?confirm=true
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	if !requireConfirm(c) {
		return
	}

	if err := h.exams.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failStore(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
