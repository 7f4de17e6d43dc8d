package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sanu276140-eng/examsk24/internal/response"
	"github.com/sanu276140-eng/examsk24/internal/store"
)

// failStore maps a store error onto the response taxonomy: a missing primary
// target is 404, anything else is a user-visible non-fatal store failure the
// caller may re-trigger. Nothing is retried automatically.
func failStore(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
}

// requireConfirm enforces the explicit confirmation step in front of every
// irreversible delete. Returns false after responding if it is missing.
func requireConfirm(c *gin.Context) bool {
	if c.Query("confirm") != "true" {
		response.Fail(c, http.StatusBadRequest, response.ErrConfirmationRequired)
		return false
	}
	return true
}
