package handlers

import (
	"errors"
	"net/http"

	"github.com/tradejournal/brokergate/internal/models"
)

// writeServiceError maps the service error taxonomy onto HTTP status
// codes. Every failure leaves the boundary as a status plus a user-facing
// message, never a panic or an opaque 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError
	var authErr *models.AuthError
	var streamErr *models.StreamError
	var rejectedErr *models.OrderRejectedError

	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrBrokerNotFound):
		http.Error(w, "Broker not found", http.StatusNotFound)
	case errors.Is(err, models.ErrBackendUnreachable):
		http.Error(w, "Broker server unavailable, try again later", http.StatusServiceUnavailable)
	case errors.As(err, &authErr):
		http.Error(w, authErr.Error(), http.StatusBadRequest)
	case errors.As(err, &rejectedErr):
		http.Error(w, rejectedErr.Error(), http.StatusBadRequest)
	case errors.As(err, &streamErr):
		http.Error(w, streamErr.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
