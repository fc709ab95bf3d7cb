package services

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tradejournal/brokergate/internal/models"
)

// connectionCache is the process-local record of broker connection state.
// The connection service is its only writer; everything else reads through
// the service surface.
type connectionCache struct {
	mu          sync.RWMutex
	connections map[string]*models.Connection
}

func newConnectionCache() *connectionCache {
	return &connectionCache{connections: make(map[string]*models.Connection)}
}

// ensure returns the record for the broker, creating it when absent
func (c *connectionCache) ensure(brokerID, brokerName string) *models.Connection {
	conn, ok := c.connections[brokerID]
	if !ok {
		now := time.Now()
		conn = &models.Connection{
			ID:         ulid.Make().String(),
			BrokerID:   brokerID,
			BrokerName: brokerName,
			Status:     models.StatusDisconnected,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		c.connections[brokerID] = conn
	}
	return conn
}

// transition moves the broker's connection into the given status
func (c *connectionCache) transition(brokerID, brokerName string, status models.ConnectionStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn := c.ensure(brokerID, brokerName)
	conn.Status = status
	conn.UpdatedAt = time.Now()
}

// connected records a successful handshake with its token references
func (c *connectionCache) connected(brokerID, brokerName, accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	conn := c.ensure(brokerID, brokerName)
	conn.Status = models.StatusConnected
	conn.AccessToken = accessToken
	conn.RefreshToken = refreshToken
	conn.IsActive = true
	conn.LastSyncAt = &now
	conn.UpdatedAt = now
}

// reset returns the broker's connection to the disconnected state and
// clears its token references
func (c *connectionCache) reset(brokerID, brokerName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn := c.ensure(brokerID, brokerName)
	conn.Status = models.StatusDisconnected
	conn.AccessToken = ""
	conn.RefreshToken = ""
	conn.IsActive = false
	conn.ExpiresAt = nil
	conn.UpdatedAt = time.Now()
}

// status returns the cached status, defaulting to disconnected
func (c *connectionCache) status(brokerID string) models.ConnectionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if conn, ok := c.connections[brokerID]; ok {
		return conn.Status
	}
	return models.StatusDisconnected
}

// get returns a copy of the cached connection record
func (c *connectionCache) get(brokerID string) (models.Connection, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conn, ok := c.connections[brokerID]
	if !ok {
		return models.Connection{}, false
	}
	return *conn, true
}
