package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradejournal/brokergate/internal/models"
)

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "/api/brokers/zerodha/connect", ResolvePath("/api/brokers/{broker}/connect", "zerodha"))
	assert.Equal(t, "/plain", ResolvePath("/plain", "zerodha"))
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(server.URL, 3*time.Second)
		assert.NoError(t, client.Health(context.Background()))
	})

	t.Run("non-200 means unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(server.URL, 3*time.Second)
		assert.ErrorIs(t, client.Health(context.Background()), models.ErrBackendUnreachable)
	})

	t.Run("probe timeout is bounded", func(t *testing.T) {
		block := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-block
		}))
		defer server.Close()
		defer close(block)

		client := NewClient(server.URL, 100*time.Millisecond)
		start := time.Now()
		err := client.Health(context.Background())
		assert.ErrorIs(t, err, models.ErrBackendUnreachable)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("dead server", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		client := NewClient(server.URL, time.Second)
		assert.ErrorIs(t, client.Health(context.Background()), models.ErrBackendUnreachable)
	})
}

func TestConnections(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/brokers/connections/1", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode([]models.Connection{
				{ID: "c1", BrokerID: "zerodha", Status: models.StatusConnected},
			})
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		connections, err := client.Connections(context.Background(), "1")
		require.NoError(t, err)
		require.Len(t, connections, 1)
		assert.Equal(t, "zerodha", connections[0].BrokerID)
	})

	t.Run("404 is treated as empty", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		connections, err := client.Connections(context.Background(), "1")
		require.NoError(t, err)
		assert.Empty(t, connections)
	})

	t.Run("non-JSON body is treated as empty", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html>proxy error page</html>"))
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		connections, err := client.Connections(context.Background(), "1")
		require.NoError(t, err)
		assert.Empty(t, connections)
	})
}

func TestOAuthInit(t *testing.T) {
	t.Run("returns auth url", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "1", body["userId"])

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"authUrl": "https://broker.example/authorize"})
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		authURL, err := client.OAuthInit(context.Background(), "upstox", "/api/brokers/upstox/oauth/init", "1")
		require.NoError(t, err)
		assert.Equal(t, "https://broker.example/authorize", authURL)
	})

	t.Run("missing auth url is a hard failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		_, err := client.OAuthInit(context.Background(), "upstox", "/api/brokers/upstox/oauth/init", "1")

		var authErr *models.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "upstox", authErr.BrokerID)
	})
}

func TestConnect(t *testing.T) {
	t.Run("explicit success required", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "accessToken": "tok-1"})
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		token, err := client.Connect(context.Background(), "delta_exchange", "/api/brokers/delta_exchange/connect", map[string]string{"apiKey": "k"})
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
	})

	t.Run("server error message is surfaced", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "invalid api key"})
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		_, err := client.Connect(context.Background(), "delta_exchange", "/api/brokers/delta_exchange/connect", nil)

		var authErr *models.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Contains(t, authErr.Error(), "invalid api key")
	})
}

func TestPlaceOrder(t *testing.T) {
	t.Run("acknowledged order is returned", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "1", body["userId"])
			assert.Equal(t, "TCS", body["symbol"])

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(models.Order{ID: "ord-1", Symbol: "TCS", Status: models.OrderPending})
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		order, err := client.PlaceOrder(context.Background(), "zerodha", "/api/brokers/zerodha/orders", "1", models.OrderRequest{
			Symbol: "TCS", Side: models.SideBuy, Type: models.OrderMarket, Quantity: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, "ord-1", order.ID)
		assert.Equal(t, models.OrderPending, order.Status)
	})

	t.Run("rejection surfaces the broker message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "insufficient funds"})
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		_, err := client.PlaceOrder(context.Background(), "zerodha", "/api/brokers/zerodha/orders", "1", models.OrderRequest{
			Symbol: "TCS", Side: models.SideBuy, Type: models.OrderMarket, Quantity: 10,
		})

		var rejected *models.OrderRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Contains(t, rejected.Error(), "insufficient funds")
	})
}
