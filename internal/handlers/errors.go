package handlers

import (
	"errors"
	"net/http"

	"studytodo/internal/service"
)

// errorStatus maps a service error to its status and client message.
// ok is false for unexpected errors.
func errorStatus(err error) (status int, msg string, ok bool) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message, true
	case errors.Is(err, service.ErrInvalidID):
		return http.StatusBadRequest, "Invalid id", true
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Not found", true
	}
	return http.StatusInternalServerError, "Server error", false
}
