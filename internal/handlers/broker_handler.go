package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tradejournal/brokergate/internal/models"
	"github.com/tradejournal/brokergate/internal/registry"
	"github.com/tradejournal/brokergate/internal/services"
)

// BrokerHandler serves the broker catalog and credential storage
type BrokerHandler struct {
	registry          *registry.Registry
	credentialService services.CredentialService
}

// NewBrokerHandler creates a new broker handler
func NewBrokerHandler(reg *registry.Registry, credentialService services.CredentialService) *BrokerHandler {
	return &BrokerHandler{
		registry:          reg,
		credentialService: credentialService,
	}
}

// RegisterRoutes registers broker catalog routes
func (h *BrokerHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/brokers", h.GetBrokers).Methods("GET")
	router.HandleFunc("/brokers/{id}", h.GetBroker).Methods("GET")
	router.HandleFunc("/brokers/{id}/credentials", h.StoreCredential).Methods("POST")
}

// GetBrokers returns all supported broker descriptors
func (h *BrokerHandler) GetBrokers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.registry.List())
}

// GetBroker returns a single broker descriptor by ID
func (h *BrokerHandler) GetBroker(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	broker, ok := h.registry.Find(vars["id"])
	if !ok {
		http.Error(w, "Broker not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(broker)
}

// StoreCredential validates and stores a credential payload for a broker
func (h *BrokerHandler) StoreCredential(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var payload models.CredentialPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.credentialService.Store(vars["id"], payload); err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Credentials saved"})
}
