package services

import (
	"sync"
	"time"

	"github.com/tradejournal/brokergate/internal/models"
	"github.com/tradejournal/brokergate/internal/registry"
)

// CredentialService defines the in-memory store for broker credentials.
// A credential counts as configured only when it satisfies the shape its
// broker's auth type requires; invalid payloads are rejected before any
// write so a previously valid credential is never clobbered.
type CredentialService interface {
	Store(brokerID string, payload models.CredentialPayload) error
	Has(brokerID string) bool
	HasAny() bool
	Get(brokerID string) (models.CredentialPayload, bool)
	Delete(brokerID string)
}

// credentialService implements the CredentialService interface
type credentialService struct {
	registry *registry.Registry

	mu          sync.RWMutex
	credentials map[string]models.CredentialPayload
}

// NewCredentialService creates a new credential service
func NewCredentialService(reg *registry.Registry) CredentialService {
	return &credentialService{
		registry:    reg,
		credentials: make(map[string]models.CredentialPayload),
	}
}

// Store validates the payload against the broker's auth type and persists
// it, overwriting any prior value. Validation failures perform no write.
func (s *credentialService) Store(brokerID string, payload models.CredentialPayload) error {
	broker, ok := s.registry.Find(brokerID)
	if !ok {
		return models.ErrBrokerNotFound
	}

	if missing := payload.MissingFields(broker.AuthType); len(missing) > 0 {
		return &models.ValidationError{Fields: missing}
	}

	payload.StoredAt = time.Now()

	s.mu.Lock()
	s.credentials[brokerID] = payload
	s.mu.Unlock()
	return nil
}

// Has reports whether a validated credential exists for the broker
func (s *credentialService) Has(brokerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.credentials[brokerID]
	return ok
}

// HasAny reports whether any broker has a stored credential. Used by the
// connection listing fast path to avoid pointless network calls.
func (s *credentialService) HasAny() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.credentials) > 0
}

// Get returns the stored credential for the broker
func (s *credentialService) Get(brokerID string) (models.CredentialPayload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.credentials[brokerID]
	return payload, ok
}

// Delete removes the stored credential for the broker
func (s *credentialService) Delete(brokerID string) {
	s.mu.Lock()
	delete(s.credentials, brokerID)
	s.mu.Unlock()
}
