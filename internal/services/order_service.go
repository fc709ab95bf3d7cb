package services

import (
	"context"
	"log"
	"math"

	"github.com/tradejournal/brokergate/internal/backend"
	"github.com/tradejournal/brokergate/internal/models"
	"github.com/tradejournal/brokergate/internal/registry"
)

// Charge schedule for equity intraday orders. Rates are fractions of the
// notional order value; brokerage is capped at a flat fee.
const (
	brokerageRate = 0.0003  // 0.03%
	brokerageCap  = 20.0    // flat cap per order
	sttRate       = 0.00025 // securities transaction tax
	exchangeRate  = 0.0000325
	gstRate       = 0.18 // applied to brokerage + exchange charges
)

// OrderService validates and routes orders to a connected broker, and
// estimates charges client-side before submission. Estimates are advisory
// only; they never gate whether submission is attempted.
type OrderService interface {
	EstimateCharges(orderValue float64) models.OrderCharges
	Place(ctx context.Context, userID, brokerID string, req models.OrderRequest) (models.Order, error)
	Orders(ctx context.Context, userID, brokerID string) ([]models.Order, error)
	Positions(ctx context.Context, userID, brokerID string) ([]models.Position, error)
}

// orderService implements the OrderService interface
type orderService struct {
	registry    *registry.Registry
	connections ConnectionService
	backend     *backend.Client
}

// NewOrderService creates a new order service
func NewOrderService(reg *registry.Registry, connections ConnectionService, backendClient *backend.Client) OrderService {
	return &orderService{
		registry:    reg,
		connections: connections,
		backend:     backendClient,
	}
}

// EstimateCharges computes the cost breakdown for a notional order value.
// Pure function: no side effects, never fails.
func (s *orderService) EstimateCharges(orderValue float64) models.OrderCharges {
	if orderValue < 0 {
		orderValue = 0
	}

	brokerage := math.Min(orderValue*brokerageRate, brokerageCap)
	stt := orderValue * sttRate
	exchange := orderValue * exchangeRate
	gst := (brokerage + exchange) * gstRate

	return models.OrderCharges{
		Brokerage:       round2(brokerage),
		STT:             round2(stt),
		ExchangeCharges: round2(exchange),
		GST:             round2(gst),
		Total:           round2(brokerage + stt + exchange + gst),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Place validates the order locally and submits it to the broker order
// endpoint. Every precondition failure is reported before any network
// call; a rejected submission leaves the order not placed.
func (s *orderService) Place(ctx context.Context, userID, brokerID string, req models.OrderRequest) (models.Order, error) {
	if brokerID == "" {
		return models.Order{}, models.NewValidationError("broker")
	}
	broker, ok := s.registry.Find(brokerID)
	if !ok {
		return models.Order{}, models.ErrBrokerNotFound
	}
	if !broker.Features.OrderPlacement {
		return models.Order{}, &models.OrderRejectedError{BrokerID: brokerID, Reason: "order placement not supported"}
	}

	if err := validateOrderRequest(req); err != nil {
		return models.Order{}, err
	}

	if !s.connections.HasValidCredentials(brokerID) {
		return models.Order{}, &models.AuthError{BrokerID: brokerID, Reason: "not connected"}
	}

	order, err := s.backend.PlaceOrder(ctx, brokerID, backend.ResolvePath(broker.Endpoints.Orders, brokerID), userID, req)
	if err != nil {
		return models.Order{}, err
	}

	order.BrokerID = brokerID
	if order.Status == "" {
		order.Status = models.OrderPending
	}

	log.Printf("order placed on %s: %s %d %s", brokerID, order.Side, order.Quantity, order.Symbol)
	return order, nil
}

// validateOrderRequest enforces the local order preconditions
func validateOrderRequest(req models.OrderRequest) error {
	if req.Symbol == "" {
		return models.NewValidationError("symbol")
	}
	if req.Quantity <= 0 {
		return models.NewValidationError("quantity")
	}

	// Every non-market order type carries a price.
	switch req.Type {
	case models.OrderLimit, models.OrderStopLoss, models.OrderStopLimit:
		if req.Price <= 0 {
			return models.NewValidationError("price")
		}
	}
	switch req.Type {
	case models.OrderStopLoss, models.OrderStopLimit:
		if req.StopPrice <= 0 {
			return models.NewValidationError("stopPrice")
		}
	}
	return nil
}

// Orders returns the broker's order listing for the user
func (s *orderService) Orders(ctx context.Context, userID, brokerID string) ([]models.Order, error) {
	broker, ok := s.registry.Find(brokerID)
	if !ok {
		return nil, models.ErrBrokerNotFound
	}
	return s.backend.Orders(ctx, backend.ResolvePath(broker.Endpoints.Orders, brokerID), userID)
}

// Positions returns the broker's position listing for the user
func (s *orderService) Positions(ctx context.Context, userID, brokerID string) ([]models.Position, error) {
	broker, ok := s.registry.Find(brokerID)
	if !ok {
		return nil, models.ErrBrokerNotFound
	}
	return s.backend.Positions(ctx, backend.ResolvePath(broker.Endpoints.Positions, brokerID), userID)
}
