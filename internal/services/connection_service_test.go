package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradejournal/brokergate/internal/backend"
	"github.com/tradejournal/brokergate/internal/brokerlock"
	"github.com/tradejournal/brokergate/internal/models"
	"github.com/tradejournal/brokergate/internal/registry"
)

// mockBackend counts every request so tests can assert that validation
// failures never reach the network.
type mockBackend struct {
	server   *httptest.Server
	requests int64

	connectResponse func(w http.ResponseWriter, r *http.Request)
}

func newMockBackend(t *testing.T) *mockBackend {
	t.Helper()
	m := &mockBackend{}
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&m.requests, 1)

		switch {
		case r.URL.Path == "/health":
			w.WriteHeader(http.StatusOK)
		case strings.HasSuffix(r.URL.Path, "/connect"):
			if m.connectResponse != nil {
				m.connectResponse(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "accessToken": "tok-1"})
		case strings.HasSuffix(r.URL.Path, "/oauth/init"):
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"authUrl": "https://broker.example/authorize"})
		case strings.HasSuffix(r.URL.Path, "/disconnect"):
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]bool{"success": true})
		case strings.HasSuffix(r.URL.Path, "/orders") && r.Method == http.MethodPost:
			var submitted map[string]interface{}
			json.NewDecoder(r.Body).Decode(&submitted)
			w.Header().Set("Content-Type", "application/json")
			if submitted["symbol"] == "UNTRADEABLE" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "symbol is not tradeable"})
				return
			}
			json.NewEncoder(w).Encode(models.Order{ID: "ord-1", Symbol: submitted["symbol"].(string), Status: models.OrderPending})
		case strings.HasSuffix(r.URL.Path, "/orders"):
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode([]models.Order{{ID: "ord-1", Symbol: "TCS", Status: models.OrderFilled}})
		case strings.HasSuffix(r.URL.Path, "/positions"):
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode([]models.Position{{Symbol: "INFY", Quantity: 5, AveragePrice: 1540, LastPrice: 1550, PnL: 50}})
		case strings.HasPrefix(r.URL.Path, "/api/brokers/connections/"):
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode([]models.Connection{})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockBackend) count() int64 {
	return atomic.LoadInt64(&m.requests)
}

type connectionFixture struct {
	backend     *mockBackend
	credentials CredentialService
	streams     StreamService
	connections ConnectionService
}

func newConnectionFixture(t *testing.T) *connectionFixture {
	t.Helper()
	mock := newMockBackend(t)
	reg := registry.New()
	client := backend.NewClient(mock.server.URL, 3*time.Second)
	locks := brokerlock.NewSet()
	credentials := NewCredentialService(reg)
	streams := NewStreamService(reg, credentials, client, "ws://127.0.0.1:1", 0, nil, locks)
	connections := NewConnectionService(reg, credentials, client, streams, locks)
	return &connectionFixture{
		backend:     mock,
		credentials: credentials,
		streams:     streams,
		connections: connections,
	}
}

func TestListConnectionsWithoutCredentials(t *testing.T) {
	f := newConnectionFixture(t)

	// No credentials stored anywhere: empty result with zero network calls.
	connections := f.connections.ListConnections(context.Background(), "1")
	assert.Empty(t, connections)
	assert.EqualValues(t, 0, f.backend.count())
}

func TestListConnectionsBackendDown(t *testing.T) {
	f := newConnectionFixture(t)
	require.NoError(t, f.credentials.Store("delta_exchange", models.CredentialPayload{APIKey: "k", APISecret: "s"}))

	f.backend.server.Close()

	connections := f.connections.ListConnections(context.Background(), "1")
	assert.Empty(t, connections)
}

func TestConnectAPIKey(t *testing.T) {
	f := newConnectionFixture(t)

	result, err := f.connections.Connect(context.Background(), "1", "delta_exchange", &models.CredentialPayload{
		APIKey: "k", APISecret: "s",
	})
	require.NoError(t, err)
	assert.True(t, result.Connected)
	assert.Equal(t, models.StatusConnected, f.connections.Status("delta_exchange"))
	assert.True(t, f.connections.HasValidCredentials("delta_exchange"))
}

func TestConnectMissingFieldsSkipsNetwork(t *testing.T) {
	f := newConnectionFixture(t)

	_, err := f.connections.Connect(context.Background(), "1", "delta_exchange", &models.CredentialPayload{
		APIKey: "k",
	})

	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "apiSecret")
	assert.EqualValues(t, 0, f.backend.count())
	assert.Equal(t, models.StatusDisconnected, f.connections.Status("delta_exchange"))
}

func TestConnectRejectedByServer(t *testing.T) {
	f := newConnectionFixture(t)
	f.backend.connectResponse = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "invalid api key"})
	}

	_, err := f.connections.Connect(context.Background(), "1", "delta_exchange", &models.CredentialPayload{
		APIKey: "k", APISecret: "s",
	})

	var authErr *models.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, models.StatusError, f.connections.Status("delta_exchange"))
	assert.False(t, f.connections.HasValidCredentials("delta_exchange"))
}

func TestConnectBackendUnreachable(t *testing.T) {
	f := newConnectionFixture(t)
	f.backend.server.Close()

	_, err := f.connections.Connect(context.Background(), "1", "delta_exchange", &models.CredentialPayload{
		APIKey: "k", APISecret: "s",
	})

	assert.ErrorIs(t, err, models.ErrBackendUnreachable)
	assert.Equal(t, models.StatusError, f.connections.Status("delta_exchange"))
}

func TestConnectCredentialsWithTOTP(t *testing.T) {
	f := newConnectionFixture(t)

	var submitted map[string]string
	f.backend.connectResponse = func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&submitted)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "accessToken": "tok-2"})
	}

	result, err := f.connections.Connect(context.Background(), "1", "zerodha", &models.CredentialPayload{
		Username: "trader1", Password: "pw", TOTP: "123456",
	})
	require.NoError(t, err)
	assert.True(t, result.Connected)
	assert.Equal(t, "trader1", submitted["username"])
	assert.Equal(t, "123456", submitted["totp"])
}

func TestOAuthStaysPendingUntilCallback(t *testing.T) {
	f := newConnectionFixture(t)

	result, err := f.connections.Connect(context.Background(), "1", "upstox", nil)
	require.NoError(t, err)
	assert.False(t, result.Connected)
	assert.Equal(t, "https://broker.example/authorize", result.AuthURL)

	// The connection is not connected until the provider callback lands.
	assert.Equal(t, models.StatusConnecting, f.connections.Status("upstox"))
	assert.False(t, f.connections.HasValidCredentials("upstox"))

	require.NoError(t, f.connections.CompleteOAuth(context.Background(), "upstox", "oauth-tok", "refresh-tok"))
	assert.Equal(t, models.StatusConnected, f.connections.Status("upstox"))
	assert.True(t, f.connections.HasValidCredentials("upstox"))
}

func TestCompleteOAuthGuards(t *testing.T) {
	f := newConnectionFixture(t)

	t.Run("no pending authorization", func(t *testing.T) {
		err := f.connections.CompleteOAuth(context.Background(), "upstox", "tok", "")
		var authErr *models.AuthError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := f.connections.Connect(context.Background(), "1", "upstox", nil)
		require.NoError(t, err)

		err = f.connections.CompleteOAuth(context.Background(), "upstox", "", "")
		var validationErr *models.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, models.StatusConnecting, f.connections.Status("upstox"))
	})

	t.Run("unknown broker", func(t *testing.T) {
		err := f.connections.CompleteOAuth(context.Background(), "nope", "tok", "")
		assert.ErrorIs(t, err, models.ErrBrokerNotFound)
	})
}

func TestDisconnectLifecycle(t *testing.T) {
	f := newConnectionFixture(t)

	_, err := f.connections.Connect(context.Background(), "1", "delta_exchange", &models.CredentialPayload{
		APIKey: "k", APISecret: "s",
	})
	require.NoError(t, err)
	require.True(t, f.connections.HasValidCredentials("delta_exchange"))

	ok := f.connections.Disconnect(context.Background(), "1", "delta_exchange")
	assert.True(t, ok)
	assert.Equal(t, models.StatusDisconnected, f.connections.Status("delta_exchange"))
	assert.False(t, f.connections.HasValidCredentials("delta_exchange"))
	assert.False(t, f.credentials.Has("delta_exchange"))
	assert.False(t, f.streams.Active("delta_exchange"))
}

func TestDisconnectSurvivesBackendFailure(t *testing.T) {
	f := newConnectionFixture(t)

	_, err := f.connections.Connect(context.Background(), "1", "delta_exchange", &models.CredentialPayload{
		APIKey: "k", APISecret: "s",
	})
	require.NoError(t, err)

	// Local state is cleared even when the server-side teardown fails.
	f.backend.server.Close()
	ok := f.connections.Disconnect(context.Background(), "1", "delta_exchange")
	assert.True(t, ok)
	assert.Equal(t, models.StatusDisconnected, f.connections.Status("delta_exchange"))
	assert.False(t, f.credentials.Has("delta_exchange"))
}

func TestConnectUnsupportedAuthType(t *testing.T) {
	mock := newMockBackend(t)
	reg := registry.NewFromDescriptors(models.BrokerDescriptor{
		ID:       "legacy_broker",
		Name:     "Legacy Broker",
		AuthType: models.AuthType("magic_link"),
	})
	client := backend.NewClient(mock.server.URL, 3*time.Second)
	locks := brokerlock.NewSet()
	credentials := NewCredentialService(reg)
	streams := NewStreamService(reg, credentials, client, "ws://127.0.0.1:1", 0, nil, locks)
	connections := NewConnectionService(reg, credentials, client, streams, locks)

	_, err := connections.Connect(context.Background(), "1", "legacy_broker", nil)
	require.Error(t, err)

	// The broker exists; the failure must name the auth type, not claim the
	// broker is unknown.
	assert.NotErrorIs(t, err, models.ErrBrokerNotFound)
	assert.Contains(t, err.Error(), "magic_link")
	assert.Equal(t, models.StatusError, connections.Status("legacy_broker"))
}

func TestConnectUnknownBroker(t *testing.T) {
	f := newConnectionFixture(t)

	_, err := f.connections.Connect(context.Background(), "1", "nope", nil)
	assert.ErrorIs(t, err, models.ErrBrokerNotFound)
	assert.False(t, f.connections.Disconnect(context.Background(), "1", "nope"))
}
