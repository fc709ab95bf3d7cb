// Package backend implements the HTTP client for the upstream broker
// backend. Every broker operation that leaves the process goes through
// this client.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tradejournal/brokergate/internal/models"
)

// Client talks to the broker backend over HTTP
type Client struct {
	baseURL       string
	healthTimeout time.Duration
	httpClient    *http.Client
}

// NewClient creates a backend client. healthTimeout bounds the health
// probe; regular requests use a fixed 30 second timeout.
func NewClient(baseURL string, healthTimeout time.Duration) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		healthTimeout: healthTimeout,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the configured backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResolvePath substitutes the broker ID into an endpoint path template
func ResolvePath(template, brokerID string) string {
	return strings.ReplaceAll(template, "{broker}", brokerID)
}

// Health probes the backend health endpoint with a bounded timeout. A
// timeout, transport error, or non-200 response all mean unreachable.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrBackendUnreachable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned %d", models.ErrBackendUnreachable, resp.StatusCode)
	}
	return nil
}

// Connections fetches the server-reported connection list for a user. A
// 404 or a non-JSON response body is treated as "no connections".
func (c *Client) Connections(ctx context.Context, userID string) ([]models.Connection, error) {
	path := "/api/brokers/connections/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBackendUnreachable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: connections returned %d", models.ErrBackendUnreachable, resp.StatusCode)
	}

	var connections []models.Connection
	if err := json.NewDecoder(resp.Body).Decode(&connections); err != nil {
		return nil, nil
	}
	return connections, nil
}

// OAuthInit requests an authorization URL for an OAuth broker. A missing
// authUrl in the response is a hard failure.
func (c *Client) OAuthInit(ctx context.Context, brokerID, path, userID string) (string, error) {
	var result struct {
		AuthURL string `json:"authUrl"`
	}
	if err := c.postJSON(ctx, path, map[string]string{"userId": userID}, &result); err != nil {
		return "", err
	}
	if result.AuthURL == "" {
		return "", &models.AuthError{BrokerID: brokerID, Reason: "authorization URL missing from response"}
	}
	return result.AuthURL, nil
}

// connectResponse is the broker connect acknowledgement. Success must be
// explicitly true; anything else is an authentication failure.
type connectResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

// Connect submits an api_key or credentials handshake to the broker
// connect endpoint. On success it returns the access token reference the
// backend issued (which may be empty).
func (c *Client) Connect(ctx context.Context, brokerID, path string, payload map[string]string) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrBackendUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	var ack connectResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return "", &models.AuthError{BrokerID: brokerID, Reason: fmt.Sprintf("connect returned %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK || !ack.Success {
		return "", &models.AuthError{BrokerID: brokerID, Reason: ack.Error}
	}
	return ack.AccessToken, nil
}

// Disconnect requests server-side teardown of a broker connection
func (c *Client) Disconnect(ctx context.Context, path, userID string) error {
	return c.postJSON(ctx, path, map[string]string{"userId": userID}, nil)
}

// orderSubmission is the order payload sent to the broker order endpoint
type orderSubmission struct {
	UserID string `json:"userId"`
	models.OrderRequest
}

// PlaceOrder submits an order to the broker order endpoint. Anything other
// than a 2xx acknowledgement means the order was not placed.
func (c *Client) PlaceOrder(ctx context.Context, brokerID, path, userID string, orderReq models.OrderRequest) (models.Order, error) {
	body, err := json.Marshal(orderSubmission{UserID: userID, OrderRequest: orderReq})
	if err != nil {
		return models.Order{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return models.Order{}, fmt.Errorf("%w: %v", models.ErrBackendUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Order{}, fmt.Errorf("%w: %v", models.ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Order{}, &models.OrderRejectedError{BrokerID: brokerID, Reason: readErrorMessage(resp.Body)}
	}

	var order models.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return models.Order{}, &models.OrderRejectedError{BrokerID: brokerID, Reason: "malformed order acknowledgement"}
	}
	return order, nil
}

// Orders fetches the order listing for a broker
func (c *Client) Orders(ctx context.Context, path, userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := c.getJSON(ctx, path+"?userId="+url.QueryEscape(userID), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Positions fetches the position listing for a broker
func (c *Client) Positions(ctx context.Context, path, userID string) ([]models.Position, error) {
	var positions []models.Position
	if err := c.getJSON(ctx, path+"?userId="+url.QueryEscape(userID), &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// postJSON posts a JSON body and optionally decodes a JSON response
func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrBackendUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, readErrorMessage(resp.Body))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// getJSON fetches and decodes a JSON response
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrBackendUnreachable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, readErrorMessage(resp.Body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// readErrorMessage pulls the error text out of a failure response body,
// falling back to the raw body when it is not JSON
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
