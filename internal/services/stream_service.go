package services

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tradejournal/brokergate/internal/backend"
	"github.com/tradejournal/brokergate/internal/brokerlock"
	"github.com/tradejournal/brokergate/internal/models"
	"github.com/tradejournal/brokergate/internal/registry"
)

// QuoteHandler receives each parsed quote from an open stream
type QuoteHandler func(models.Quote)

// StreamErrorHandler is notified when a stream fails and is closed
type StreamErrorHandler func(brokerID string, err error)

// StreamService manages live quote streams. There is at most one open
// stream per broker ID; starting a new one closes the previous handle
// first. Stopping an already-closed stream is a no-op.
type StreamService interface {
	Start(ctx context.Context, brokerID, userID string, symbols []string, onQuote QuoteHandler) error
	Stop(brokerID string)
	StopAll()
	Active(brokerID string) bool
}

// streamHandle is one open streaming connection
type streamHandle struct {
	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}
}

// close tears the handle down; safe to call more than once
func (h *streamHandle) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		return
	default:
	}
	close(h.done)
	if h.conn != nil {
		h.conn.Close()
	}
}

// swapConn replaces the underlying connection after a dial or reconnect.
// Returns false, closing the new connection, when the handle was stopped
// in the meantime.
func (h *streamHandle) swapConn(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		conn.Close()
		return false
	default:
	}
	if h.conn != nil {
		h.conn.Close()
	}
	h.conn = conn
	return true
}

func (h *streamHandle) closed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// streamService implements the StreamService interface
type streamService struct {
	registry          *registry.Registry
	credentials       CredentialService
	backend           *backend.Client
	liveDataURL       string
	reconnectAttempts int
	onError           StreamErrorHandler
	dialer            *websocket.Dialer
	locks             *brokerlock.Set

	mu      sync.Mutex
	handles map[string]*streamHandle
}

// NewStreamService creates a new stream service. onError is invoked when a
// stream fails permanently; it may be nil.
func NewStreamService(
	reg *registry.Registry,
	credentials CredentialService,
	backendClient *backend.Client,
	liveDataURL string,
	reconnectAttempts int,
	onError StreamErrorHandler,
	locks *brokerlock.Set,
) StreamService {
	return &streamService{
		registry:          reg,
		credentials:       credentials,
		backend:           backendClient,
		liveDataURL:       strings.TrimRight(liveDataURL, "/"),
		reconnectAttempts: reconnectAttempts,
		onError:           onError,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		locks:   locks,
		handles: make(map[string]*streamHandle),
	}
}

// Start opens a quote stream for the broker scoped to the given symbols.
// Preconditions: the broker must have a stored credential and the backend
// must pass its health probe; both are checked before any socket is opened.
func (s *streamService) Start(ctx context.Context, brokerID, userID string, symbols []string, onQuote QuoteHandler) error {
	// Serialized with connect/disconnect for the same broker.
	unlock := s.locks.Lock(brokerID)
	defer unlock()

	broker, ok := s.registry.Find(brokerID)
	if !ok {
		return models.ErrBrokerNotFound
	}
	if !s.credentials.Has(brokerID) {
		return &models.AuthError{BrokerID: brokerID, Reason: "no credentials configured, connect the broker first"}
	}
	if err := s.backend.Health(ctx); err != nil {
		return err
	}

	streamURL := s.liveDataURL + backend.ResolvePath(broker.Endpoints.LiveData, brokerID) +
		"?symbols=" + url.QueryEscape(strings.Join(symbols, ",")) +
		"&userId=" + url.QueryEscape(userID)

	// One live handle per broker: the previous stream is closed before a
	// replacement is dialed. The handle is registered before the dial so
	// the service lock is never held across network I/O; a Stop landing
	// mid-dial closes the handle and the fresh connection is discarded.
	handle := &streamHandle{done: make(chan struct{})}
	s.mu.Lock()
	if prev, ok := s.handles[brokerID]; ok {
		prev.close()
	}
	s.handles[brokerID] = handle
	s.mu.Unlock()

	conn, _, err := s.dialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		s.mu.Lock()
		if s.handles[brokerID] == handle {
			delete(s.handles, brokerID)
		}
		s.mu.Unlock()
		handle.close()
		return &models.StreamError{BrokerID: brokerID, Err: err}
	}

	if !handle.swapConn(conn) {
		// Stopped while dialing.
		return nil
	}

	go s.readLoop(handle, brokerID, streamURL, onQuote)

	log.Printf("stream opened for %s (%d symbols)", brokerID, len(symbols))
	return nil
}

// Stop closes the stream for the broker and discards its handle. Stopping
// a broker without an open stream is a no-op.
func (s *streamService) Stop(brokerID string) {
	s.mu.Lock()
	handle, ok := s.handles[brokerID]
	if ok {
		delete(s.handles, brokerID)
	}
	s.mu.Unlock()

	if ok {
		handle.close()
		log.Printf("stream closed for %s", brokerID)
	}
}

// StopAll closes every open stream
func (s *streamService) StopAll() {
	s.mu.Lock()
	handles := s.handles
	s.handles = make(map[string]*streamHandle)
	s.mu.Unlock()

	for brokerID, handle := range handles {
		handle.close()
		log.Printf("stream closed for %s", brokerID)
	}
}

// Active reports whether the broker currently has an open stream
func (s *streamService) Active(brokerID string) bool {
	s.mu.Lock()
	handle, ok := s.handles[brokerID]
	s.mu.Unlock()
	return ok && !handle.closed()
}

// readLoop consumes inbound quote messages until the handle is closed or
// the transport fails past its reconnect budget. Malformed messages are
// logged and dropped; they never bring the stream down.
func (s *streamService) readLoop(handle *streamHandle, brokerID, streamURL string, onQuote QuoteHandler) {
	attempts := 0
	for {
		handle.mu.Lock()
		conn := handle.conn
		handle.mu.Unlock()

		_, message, err := conn.ReadMessage()
		if err != nil {
			if handle.closed() {
				return
			}

			if attempts < s.reconnectAttempts {
				attempts++
				log.Printf("%s: stream dropped, reconnecting (attempt %d/%d)", brokerID, attempts, s.reconnectAttempts)
				time.Sleep(1 * time.Second)
				next, _, dialErr := s.dialer.Dial(streamURL, nil)
				if dialErr != nil {
					log.Printf("%s: reconnect failed: %v", brokerID, dialErr)
					continue
				}
				if !handle.swapConn(next) {
					return
				}
				continue
			}

			s.fail(handle, brokerID, err)
			return
		}

		var quote models.Quote
		if err := json.Unmarshal(message, &quote); err != nil || quote.Symbol == "" {
			log.Printf("%s: dropping malformed quote message", brokerID)
			continue
		}

		onQuote(quote)
		attempts = 0
	}
}

// fail closes a broken stream and notifies the error handler
func (s *streamService) fail(handle *streamHandle, brokerID string, err error) {
	s.mu.Lock()
	if s.handles[brokerID] == handle {
		delete(s.handles, brokerID)
	}
	s.mu.Unlock()
	handle.close()

	streamErr := &models.StreamError{BrokerID: brokerID, Err: err}
	log.Printf("%v", streamErr)
	if s.onError != nil {
		s.onError(brokerID, streamErr)
	}
}
