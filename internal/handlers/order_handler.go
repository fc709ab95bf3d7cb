package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tradejournal/brokergate/internal/models"
	"github.com/tradejournal/brokergate/internal/services"
	"github.com/tradejournal/brokergate/internal/utils"
)

// OrderHandler routes orders and serves charge estimates
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/orders/estimate", h.Estimate).Methods("POST")
	router.HandleFunc("/brokers/{id}/orders", h.PlaceOrder).Methods("POST")
	router.HandleFunc("/brokers/{id}/orders", h.GetOrders).Methods("GET")
	router.HandleFunc("/brokers/{id}/positions", h.GetPositions).Methods("GET")
}

// Estimate returns the charge breakdown for a notional order value
func (h *OrderHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req models.EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.orderService.EstimateCharges(req.OrderValue))
}

// PlaceOrder validates and submits an order to the broker
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	username, err := utils.GetUsernameFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)

	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.orderService.Place(r.Context(), username, vars["id"], req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(order)
}

// GetOrders returns the broker's order listing for the user
func (h *OrderHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	username, err := utils.GetUsernameFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)

	orders, err := h.orderService.Orders(r.Context(), username, vars["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

// GetPositions returns the broker's position listing for the user
func (h *OrderHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	username, err := utils.GetUsernameFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)

	positions, err := h.orderService.Positions(r.Context(), username, vars["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if positions == nil {
		positions = []models.Position{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(positions)
}
