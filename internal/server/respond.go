package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	adminservice "cafe-control-plane/internal/admin/service"
	sessionservice "cafe-control-plane/internal/session/service"
	terminalservice "cafe-control-plane/internal/terminal/service"
)

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorBody{Code: status, Message: message})
}

// respondServiceError maps lease and auth sentinels to HTTP statuses.
// Anything unmapped is a 500 with a generic body so internals never leak.
func respondServiceError(c *gin.Context, err error) {
	var wrong *sessionservice.WrongTerminalError

	switch {
	case errors.Is(err, terminalservice.ErrInvalidName),
		errors.Is(err, sessionservice.ErrInvalidPin),
		errors.Is(err, sessionservice.ErrInvalidDuration):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, sessionservice.ErrTerminalNotFound),
		errors.Is(err, sessionservice.ErrPinNotFound),
		errors.Is(err, sessionservice.ErrNoActiveSession):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, sessionservice.ErrAlreadyLeased),
		errors.Is(err, sessionservice.ErrPinInUse):
		respondError(c, http.StatusConflict, err.Error())
	case errors.As(err, &wrong):
		respondError(c, http.StatusConflict, "pin belongs to a different terminal")
	case errors.Is(err, sessionservice.ErrSessionExpired):
		respondError(c, http.StatusGone, err.Error())
	case errors.Is(err, adminservice.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}
