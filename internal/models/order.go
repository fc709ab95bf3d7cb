package models

import "time"

// OrderSide is the direction of an order
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderType is the execution type of an order
type OrderType string

const (
	OrderMarket    OrderType = "market"
	OrderLimit     OrderType = "limit"
	OrderStopLoss  OrderType = "stop_loss"
	OrderStopLimit OrderType = "stop_limit"
)

// OrderStatus is the broker-reported state of an order
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderFilled    OrderStatus = "filled"
	OrderCancelled OrderStatus = "cancelled"
	OrderRejected  OrderStatus = "rejected"
	OrderPartial   OrderStatus = "partial"
)

// OrderRequest is the client-side order submission payload
type OrderRequest struct {
	Symbol    string    `json:"symbol"`
	Side      OrderSide `json:"side"`
	Type      OrderType `json:"type"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price,omitempty"`
	StopPrice float64   `json:"stopPrice,omitempty"`
	Validity  string    `json:"validity,omitempty"`
	Product   string    `json:"product,omitempty"`
	Exchange  string    `json:"exchange,omitempty"`
}

// Order is a broker-acknowledged order record
type Order struct {
	ID        string      `json:"id"`
	BrokerID  string      `json:"brokerId"`
	Symbol    string      `json:"symbol"`
	Side      OrderSide   `json:"side"`
	Type      OrderType   `json:"type"`
	Quantity  int         `json:"quantity"`
	Price     float64     `json:"price,omitempty"`
	StopPrice float64     `json:"stopPrice,omitempty"`
	Status    OrderStatus `json:"status"`
	FilledQty int         `json:"filledQty"`
	Validity  string      `json:"validity,omitempty"`
	Product   string      `json:"product,omitempty"`
	Exchange  string      `json:"exchange,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Position is a broker-reported holding
type Position struct {
	Symbol       string  `json:"symbol"`
	Quantity     int     `json:"quantity"`
	AveragePrice float64 `json:"averagePrice"`
	LastPrice    float64 `json:"lastPrice"`
	PnL          float64 `json:"pnl"`
	Product      string  `json:"product,omitempty"`
	Exchange     string  `json:"exchange,omitempty"`
}

// OrderCharges is the estimated cost breakdown for an order of a given
// notional value
type OrderCharges struct {
	Brokerage       float64 `json:"brokerage"`
	STT             float64 `json:"stt"`
	ExchangeCharges float64 `json:"exchangeCharges"`
	GST             float64 `json:"gst"`
	Total           float64 `json:"total"`
}
