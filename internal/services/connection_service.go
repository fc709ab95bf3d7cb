package services

import (
	"context"
	"fmt"
	"log"

	"github.com/oklog/ulid/v2"

	"github.com/tradejournal/brokergate/internal/backend"
	"github.com/tradejournal/brokergate/internal/brokerlock"
	"github.com/tradejournal/brokergate/internal/models"
	"github.com/tradejournal/brokergate/internal/registry"
)

// ConnectionService orchestrates broker connect/disconnect flows and owns
// the connection status cache. Broker integrations are best-effort: network
// failures are downgraded to safe defaults and typed errors, never panics.
type ConnectionService interface {
	// ListConnections returns the server-reported connections for the user.
	// It never fails: no stored credentials, an unreachable backend, or a
	// backend error all yield an empty list.
	ListConnections(ctx context.Context, userID string) []models.Connection

	// Connect runs the auth handshake for the broker. For OAuth brokers the
	// result carries the authorization URL and the connection stays in
	// "connecting" until CompleteOAuth is called.
	Connect(ctx context.Context, userID, brokerID string, payload *models.CredentialPayload) (models.ConnectResult, error)

	// CompleteOAuth finishes a pending OAuth connect with the token
	// delivered by the provider callback.
	CompleteOAuth(ctx context.Context, brokerID, accessToken, refreshToken string) error

	// Disconnect tears the connection down server-side and unconditionally
	// closes any open stream for the broker locally.
	Disconnect(ctx context.Context, userID, brokerID string) bool

	// Status is a local cache lookup; it performs no network call.
	Status(brokerID string) models.ConnectionStatus

	// HasValidCredentials reports whether the broker is connected with an
	// access token. Distinct from CredentialService.Has, which only means a
	// payload was stored.
	HasValidCredentials(brokerID string) bool
}

// connectionService implements the ConnectionService interface
type connectionService struct {
	registry    *registry.Registry
	credentials CredentialService
	backend     *backend.Client
	streams     StreamService
	locks       *brokerlock.Set
	cache       *connectionCache
}

// NewConnectionService creates a new connection service
func NewConnectionService(
	reg *registry.Registry,
	credentials CredentialService,
	backendClient *backend.Client,
	streams StreamService,
	locks *brokerlock.Set,
) ConnectionService {
	return &connectionService{
		registry:    reg,
		credentials: credentials,
		backend:     backendClient,
		streams:     streams,
		locks:       locks,
		cache:       newConnectionCache(),
	}
}

// ListConnections returns the user's broker connections, best-effort
func (s *connectionService) ListConnections(ctx context.Context, userID string) []models.Connection {
	// Fast path: without any stored credential there is nothing the
	// backend could report, so skip the network entirely.
	if !s.credentials.HasAny() {
		return []models.Connection{}
	}

	if err := s.backend.Health(ctx); err != nil {
		log.Printf("listing connections skipped: %v", err)
		return []models.Connection{}
	}

	connections, err := s.backend.Connections(ctx, userID)
	if err != nil {
		log.Printf("listing connections failed: %v", err)
		return []models.Connection{}
	}
	if connections == nil {
		return []models.Connection{}
	}
	return connections
}

// Connect runs the connect flow for one broker
func (s *connectionService) Connect(ctx context.Context, userID, brokerID string, payload *models.CredentialPayload) (models.ConnectResult, error) {
	unlock := s.locks.Lock(brokerID)
	defer unlock()

	broker, ok := s.registry.Find(brokerID)
	if !ok {
		return models.ConnectResult{}, models.ErrBrokerNotFound
	}

	// Credential format is checked before anything touches the network.
	var credential models.CredentialPayload
	if payload != nil {
		credential = *payload
	}
	if missing := credential.MissingFields(broker.AuthType); len(missing) > 0 {
		return models.ConnectResult{}, &models.ValidationError{Fields: missing}
	}
	if err := s.credentials.Store(brokerID, credential); err != nil {
		return models.ConnectResult{}, err
	}

	s.cache.transition(brokerID, broker.Name, models.StatusConnecting)

	if err := s.backend.Health(ctx); err != nil {
		s.cache.transition(brokerID, broker.Name, models.StatusError)
		return models.ConnectResult{}, err
	}

	switch broker.AuthType {
	case models.AuthOAuth:
		authURL, err := s.backend.OAuthInit(ctx, brokerID, backend.ResolvePath(broker.Endpoints.OAuthInit, brokerID), userID)
		if err != nil {
			s.cache.transition(brokerID, broker.Name, models.StatusError)
			return models.ConnectResult{}, err
		}
		// The connection stays in "connecting" until the provider callback
		// lands in CompleteOAuth. Reporting connected here would paper over
		// an authorization the user may never grant.
		return models.ConnectResult{AuthURL: authURL, Message: "complete authorization in the broker window"}, nil

	case models.AuthAPIKey:
		return s.handshake(ctx, broker, map[string]string{
			"apiKey":    credential.APIKey,
			"apiSecret": credential.APISecret,
		})

	case models.AuthCredentials:
		payload := map[string]string{
			"username": credential.Username,
			"password": credential.Password,
		}
		if credential.TOTP != "" {
			payload["totp"] = credential.TOTP
		}
		return s.handshake(ctx, broker, payload)
	}

	s.cache.transition(brokerID, broker.Name, models.StatusError)
	return models.ConnectResult{}, fmt.Errorf("unsupported auth type %q for broker %s", broker.AuthType, brokerID)
}

// handshake submits an api_key or credentials connect and records the
// resulting connection state
func (s *connectionService) handshake(ctx context.Context, broker models.BrokerDescriptor, payload map[string]string) (models.ConnectResult, error) {
	token, err := s.backend.Connect(ctx, broker.ID, backend.ResolvePath(broker.Endpoints.Connect, broker.ID), payload)
	if err != nil {
		s.cache.transition(broker.ID, broker.Name, models.StatusError)
		return models.ConnectResult{}, err
	}

	// Some brokers acknowledge without issuing a token; the connection
	// still needs a non-empty access token reference locally.
	if token == "" {
		token = ulid.Make().String()
	}
	s.cache.connected(broker.ID, broker.Name, token, "")

	log.Printf("connected to %s", broker.ID)
	return models.ConnectResult{Connected: true}, nil
}

// CompleteOAuth finishes a pending OAuth connect
func (s *connectionService) CompleteOAuth(ctx context.Context, brokerID, accessToken, refreshToken string) error {
	unlock := s.locks.Lock(brokerID)
	defer unlock()

	broker, ok := s.registry.Find(brokerID)
	if !ok {
		return models.ErrBrokerNotFound
	}
	if accessToken == "" {
		return models.NewValidationError("accessToken")
	}
	if s.cache.status(brokerID) != models.StatusConnecting {
		return &models.AuthError{BrokerID: brokerID, Reason: "no pending authorization"}
	}

	s.cache.connected(brokerID, broker.Name, accessToken, refreshToken)
	log.Printf("connected to %s via oauth", brokerID)
	return nil
}

// Disconnect tears down the broker connection. Server-side teardown is
// best-effort; local streams and state are always cleared.
func (s *connectionService) Disconnect(ctx context.Context, userID, brokerID string) bool {
	unlock := s.locks.Lock(brokerID)
	defer unlock()

	broker, ok := s.registry.Find(brokerID)
	if !ok {
		return false
	}

	if err := s.backend.Disconnect(ctx, backend.ResolvePath(broker.Endpoints.Disconnect, brokerID), userID); err != nil {
		log.Printf("server-side disconnect for %s failed: %v", brokerID, err)
	}

	s.streams.Stop(brokerID)
	s.credentials.Delete(brokerID)
	s.cache.reset(brokerID, broker.Name)

	log.Printf("disconnected from %s", brokerID)
	return true
}

// Status returns the cached connection status for the broker
func (s *connectionService) Status(brokerID string) models.ConnectionStatus {
	return s.cache.status(brokerID)
}

// HasValidCredentials reports connected-with-token state
func (s *connectionService) HasValidCredentials(brokerID string) bool {
	conn, ok := s.cache.get(brokerID)
	return ok && conn.Status == models.StatusConnected && conn.AccessToken != ""
}
