package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sanu276140-eng/examsk24/internal/authz"
	"github.com/sanu276140-eng/examsk24/internal/events"
	"github.com/sanu276140-eng/examsk24/internal/identity"
	"github.com/sanu276140-eng/examsk24/internal/middleware"
	"github.com/sanu276140-eng/examsk24/internal/model"
	"github.com/sanu276140-eng/examsk24/internal/response"
	"github.com/sanu276140-eng/examsk24/internal/validator"
)

// AuthHandler handles admin authentication endpoints.
type AuthHandler struct {
	identityService *identity.Service
	checker         *authz.Checker
	recorder        events.Recorder
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(identityService *identity.Service, checker *authz.Checker, recorder events.Recorder) *AuthHandler {
	return &AuthHandler{
		identityService: identityService,
		checker:         checker,
		recorder:        recorder,
	}
}

// Login godoc
// POST /api/v1/auth/admin/login
// Validates email + password, checks the admin record, returns JWT.
// An authenticated identity without the admin role is rejected without
// a token: authentication alone grants nothing here.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ident, err := h.identityService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
		return
	}

	if !h.checker.IsAdmin(c.Request.Context(), ident) {
		response.Fail(c, http.StatusForbidden, response.ErrAccessDenied)
		return
	}

	token, err := h.identityService.GenerateToken(ident)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.recorder.Record(events.WithActor(c.Request.Context(), ident.Email), "auth.login", ident.Email)

	response.Success(c, http.StatusOK, model.LoginResponse{
		Token:    token,
		Identity: *ident,
		Label:    ident.Label(),
	})
}

// Me godoc
// GET /api/v1/auth/admin/me
// Returns the profile of the currently authenticated admin.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	ident := claims.Identity()
	response.Success(c, http.StatusOK, gin.H{
		"identity": ident,
		"label":    ident.Label(),
	})
}

// Logout godoc
// POST /api/v1/auth/admin/logout
// Records the sign-out in the activity trail. Tokens are stateless, so
// there is nothing to revoke server-side; the client drops its copy.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	h.recorder.Record(c.Request.Context(), "auth.logout", claims.Email)
	response.Success(c, http.StatusOK, gin.H{})
}

// CreateIdentity godoc
// POST /api/v1/admin/identities
// Creates a new identity; with grant_admin the authorization record is
// written alongside, so the new identity passes the admin check.
func (h *AuthHandler) CreateIdentity(c *gin.Context) {
	var req model.CreateIdentityRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ident, err := h.identityService.CreateIdentity(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
		return
	}

	if req.GrantAdmin {
		if err := h.checker.Grant(c.Request.Context(), ident.ID); err != nil {
			// The identity exists but is not an admin; surface the partial
			// outcome instead of pretending the grant happened.
			response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
			return
		}
	}

	h.recorder.Record(c.Request.Context(), "identity.create", ident.Email)
	response.Success(c, http.StatusCreated, gin.H{"identity": ident})
}
