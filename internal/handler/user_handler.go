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

// UserHandler handles user management endpoints.
type UserHandler struct {
	users *resource.UserManager
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *resource.UserManager) *UserHandler {
	return &UserHandler{users: users}
}

// ListUsers godoc
// GET /api/v1/admin/users?role=&status=&limit=
func (h *UserHandler) ListUsers(c *gin.Context) {
	opts := resource.UserListOptions{
		Role:   c.Query("role"),
		Status: c.Query("status"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return
		}
		opts.Limit = limit
	}

	users, err := h.users.List(c.Request.Context(), opts)
	if err != nil {
		failStore(c, err)
		return
	}

	if users == nil {
		users = []model.User{}
	}

	response.Success(c, http.StatusOK, gin.H{"users": users})
}

// GetUser godoc
// GET /api/v1/admin/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failStore(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// CreateUser godoc
// POST /api/v1/admin/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var form model.UserForm
	if fields := validator.Bind(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	form.ID = ""

	id, err := h.users.Save(c.Request.Context(), form)
	if err != nil {
		failStore(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"id": id})
}

// UpdateUser godoc
// PUT /api/v1/admin/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var form model.UserForm
	if fields := validator.Bind(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	form.ID = c.Param("id")

	id, err := h.users.Save(c.Request.Context(), form)
	if err != nil {
		failStore(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": id})
}

// DeleteUser godoc
// DELETE /api/v1/admin/users/:id?confirm=true
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if !requireConfirm(c) {
		return
	}

	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failStore(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
