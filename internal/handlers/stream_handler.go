package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tradejournal/brokergate/internal/models"
	"github.com/tradejournal/brokergate/internal/services"
	"github.com/tradejournal/brokergate/internal/utils"
	"github.com/tradejournal/brokergate/internal/websocket"
)

// StreamHandler controls live quote streams and serves cached last values
type StreamHandler struct {
	streamService services.StreamService
	quoteCache    *services.QuoteCache
	wsHub         *websocket.Hub
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(streamService services.StreamService, quoteCache *services.QuoteCache, wsHub *websocket.Hub) *StreamHandler {
	return &StreamHandler{
		streamService: streamService,
		quoteCache:    quoteCache,
		wsHub:         wsHub,
	}
}

// RegisterRoutes registers stream routes
func (h *StreamHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/brokers/{id}/stream/start", h.StartStream).Methods("POST")
	router.HandleFunc("/brokers/{id}/stream/stop", h.StopStream).Methods("POST")
	router.HandleFunc("/quotes/latest", h.LatestQuote).Methods("GET")
}

// StartStream opens a quote stream for a broker. Incoming quotes fan out
// to browser clients over the hub and refresh the last-value cache.
func (h *StreamHandler) StartStream(w http.ResponseWriter, r *http.Request) {
	username, err := utils.GetUsernameFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	brokerID := vars["id"]

	var req models.StartStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Symbols) == 0 {
		http.Error(w, "At least one symbol is required", http.StatusBadRequest)
		return
	}

	err = h.streamService.Start(r.Context(), brokerID, username, req.Symbols, func(quote models.Quote) {
		h.quoteCache.Put(brokerID, quote)
		h.wsHub.BroadcastQuote(brokerID, quote)
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"streaming": true,
		"symbols":   req.Symbols,
	})
}

// StopStream closes the broker's quote stream. Stopping a broker without
// an open stream is a no-op.
func (h *StreamHandler) StopStream(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.streamService.Stop(vars["id"])

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"streaming": false})
}

// LatestQuote serves the most recent cached quote for a symbol
func (h *StreamHandler) LatestQuote(w http.ResponseWriter, r *http.Request) {
	brokerID := r.URL.Query().Get("broker")
	symbol := r.URL.Query().Get("symbol")
	if brokerID == "" || symbol == "" {
		http.Error(w, "broker and symbol query parameters are required", http.StatusBadRequest)
		return
	}

	quote, ok := h.quoteCache.Latest(brokerID, symbol)
	if !ok {
		http.Error(w, "No cached quote", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quote)
}
