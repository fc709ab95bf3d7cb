package models

// Message represents a WebSocket message fanned out to browser clients
type Message struct {
	Type    string      `json:"type"`
	Content interface{} `json:"content"`
}

// StartStreamRequest is the request body for opening a quote stream
type StartStreamRequest struct {
	Symbols []string `json:"symbols"`
}

// EstimateRequest is the request body for a charge estimate
type EstimateRequest struct {
	OrderValue float64 `json:"orderValue"`
}

// OAuthCallbackRequest carries the token delivered by the OAuth callback
type OAuthCallbackRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}
