package models

import "time"

// ConnectionStatus is the lifecycle state of a broker connection. Within a
// single connect attempt the status only moves forward: disconnected ->
// connecting -> connected or error.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusError        ConnectionStatus = "error"
)

// Connection is the local record of one (user, broker) authentication.
type Connection struct {
	ID           string           `json:"id"`
	BrokerID     string           `json:"brokerId"`
	BrokerName   string           `json:"brokerName"`
	Status       ConnectionStatus `json:"status"`
	AccessToken  string           `json:"accessToken,omitempty"`
	RefreshToken string           `json:"refreshToken,omitempty"`
	ExpiresAt    *time.Time       `json:"expiresAt,omitempty"`
	LastSyncAt   *time.Time       `json:"lastSyncAt,omitempty"`
	IsActive     bool             `json:"isActive"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// ConnectResult reports the outcome of a connect attempt. For OAuth brokers
// Connected stays false and AuthURL carries the authorization URL the user
// must visit; the connection completes on the OAuth callback.
type ConnectResult struct {
	Connected bool   `json:"connected"`
	AuthURL   string `json:"authUrl,omitempty"`
	Message   string `json:"message,omitempty"`
}
