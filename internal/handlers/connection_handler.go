package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tradejournal/brokergate/internal/models"
	"github.com/tradejournal/brokergate/internal/services"
	"github.com/tradejournal/brokergate/internal/utils"
)

// ConnectionHandler drives broker connect/disconnect flows
type ConnectionHandler struct {
	connectionService services.ConnectionService
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connectionService services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

// RegisterRoutes registers connection routes
func (h *ConnectionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/connections", h.GetConnections).Methods("GET")
	router.HandleFunc("/brokers/{id}/connect", h.Connect).Methods("POST")
	router.HandleFunc("/brokers/{id}/oauth/callback", h.OAuthCallback).Methods("POST")
	router.HandleFunc("/brokers/{id}/disconnect", h.Disconnect).Methods("POST")
	router.HandleFunc("/brokers/{id}/status", h.GetStatus).Methods("GET")
}

// GetConnections returns the user's broker connections. Always succeeds;
// an unreachable backend yields an empty list.
func (h *ConnectionHandler) GetConnections(w http.ResponseWriter, r *http.Request) {
	username, err := utils.GetUsernameFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	connections := h.connectionService.ListConnections(r.Context(), username)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(connections)
}

// Connect runs the auth handshake for a broker
func (h *ConnectionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	username, err := utils.GetUsernameFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)

	// The credential body is optional: OAuth brokers connect without one.
	var payload models.CredentialPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.connectionService.Connect(r.Context(), username, vars["id"], &payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// OAuthCallback completes a pending OAuth connect with the provider token
func (h *ConnectionHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req models.OAuthCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.connectionService.CompleteOAuth(r.Context(), vars["id"], req.AccessToken, req.RefreshToken); err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.ConnectResult{Connected: true})
}

// Disconnect tears down a broker connection
func (h *ConnectionHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	username, err := utils.GetUsernameFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)

	if !h.connectionService.Disconnect(r.Context(), username, vars["id"]) {
		http.Error(w, "Broker not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Disconnected"})
}

// GetStatus returns the cached connection status for a broker
func (h *ConnectionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	brokerID := vars["id"]

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"brokerId":  brokerID,
		"status":    h.connectionService.Status(brokerID),
		"connected": h.connectionService.HasValidCredentials(brokerID),
	})
}
