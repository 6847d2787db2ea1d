// Package client maintains a single authenticated websocket connection to
// the realtime endpoint on behalf of one user. The manager guarantees at
// most one live connection at a time: initializing a new connection tears
// down the previous one first, and disconnecting is idempotent with no
// event delivery after it returns.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jadhavharshh/ConnectX-sub001/internal/realtime"
	"github.com/jadhavharshh/ConnectX-sub001/pkg/config"
)

// State describes where a connection is in its lifecycle.
type State string

const (
	StateDisconnected  State = "disconnected"
	StateConnecting    State = "connecting"
	StateConnected     State = "connected"
	StateAuthenticated State = "authenticated"
	StateError         State = "error"
)

// ErrSuperseded is returned when a newer Initialize call, or a Disconnect,
// invalidated this attempt before it could finish.
var ErrSuperseded = fmt.Errorf("realtime client: connection attempt superseded")

// ErrEmptyUser is returned by Initialize when no user identity is given.
var ErrEmptyUser = fmt.Errorf("realtime client: userID must not be empty")

// Event is delivered on a handle's Events channel: a state transition, a
// server push, or both.
type Event struct {
	State    State
	Envelope *realtime.Envelope
	Err      error
}

// TokenProvider supplies a fresh identity token for the handshake.
type TokenProvider func(ctx context.Context) (string, error)

// Handle is one live connection. Events carries server pushes and state
// transitions until the handle is closed, at which point the channel is
// closed and nothing further is delivered.
type Handle struct {
	ws     *websocket.Conn
	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup

	closeOnce sync.Once
	userID    string

	mu    sync.RWMutex
	state State
}

// UserID returns the identity the handle authenticated as.
func (h *Handle) UserID() string { return h.userID }

// Events is the delivery channel for this connection.
func (h *Handle) Events() <-chan Event { return h.events }

// State returns the connection's current lifecycle state.
func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *Handle) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// emit delivers an event unless the handle is already closing.
func (h *Handle) emit(ev Event) {
	select {
	case <-h.done:
	case h.events <- ev:
	}
}

// close shuts the handle down and waits for the read pump to stop before
// closing the events channel, so no event is delivered after it returns.
func (h *Handle) close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.ws.Close()
		h.wg.Wait()
		h.setState(StateDisconnected)
		close(h.events)
	})
}

func (h *Handle) readPump() {
	defer h.wg.Done()
	for {
		_, data, err := h.ws.ReadMessage()
		if err != nil {
			select {
			case <-h.done:
				// Deliberate close, not an error.
			default:
				h.setState(StateError)
				h.emit(Event{State: StateError, Err: err})
			}
			return
		}

		var env realtime.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch env.Event {
		case realtime.EventError:
			h.setState(StateError)
			h.emit(Event{State: StateError, Envelope: &env})
		default:
			h.emit(Event{State: h.State(), Envelope: &env})
		}
	}
}

// Manager owns the single connection slot. All methods are safe for
// concurrent use; when Initialize calls overlap, the newest wins and the
// older attempt is discarded.
type Manager struct {
	url    string
	cfg    config.RealtimeConfig
	token  TokenProvider
	dialer *websocket.Dialer
	logger *zap.Logger

	seq Sequencer

	mu      sync.Mutex
	current *Handle
}

// NewManager constructs a manager dialing the given websocket URL.
func NewManager(url string, token TokenProvider, cfg config.RealtimeConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	jar, _ := cookiejar.New(nil)
	dialer := &websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
		Jar:              jar,
	}
	return &Manager{url: url, cfg: cfg, token: token, dialer: dialer, logger: logger}
}

// Initialize establishes the connection for userID, first closing any
// connection the manager already holds. The dial is retried a fixed number
// of times with a fixed delay; once the transport is up the handshake must
// complete within the auth deadline.
func (m *Manager) Initialize(ctx context.Context, userID string) (*Handle, error) {
	if userID == "" {
		return nil, ErrEmptyUser
	}
	ticket := m.seq.Next()

	m.mu.Lock()
	previous := m.current
	m.current = nil
	m.mu.Unlock()
	if previous != nil {
		previous.close()
	}

	token, err := m.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("realtime client: token: %w", err)
	}

	ws, err := m.dial(ctx)
	if err != nil {
		return nil, err
	}

	handle := &Handle{
		ws:     ws,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
		userID: userID,
		state:  StateConnected,
	}

	if err := m.handshake(handle, userID, token); err != nil {
		ws.Close()
		return nil, err
	}

	m.mu.Lock()
	if !m.seq.Latest(ticket) {
		m.mu.Unlock()
		handle.close()
		return nil, ErrSuperseded
	}
	m.current = handle
	m.mu.Unlock()

	handle.wg.Add(1)
	go handle.readPump()

	m.logger.Info("realtime connection authenticated", zap.String("user_id", userID))
	return handle, nil
}

// Disconnect closes the current connection if there is one. It is
// idempotent, and once it returns no further events are delivered. An
// Initialize still in flight is superseded and will discard its connection.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.seq.Next()
	current := m.current
	m.current = nil
	m.mu.Unlock()

	if current != nil {
		current.close()
	}
}

// Current returns the live handle, nil when disconnected.
func (m *Manager) Current() *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// dial attempts the websocket upgrade with bounded, fixed-delay retry.
func (m *Manager) dial(ctx context.Context) (*websocket.Conn, error) {
	attempts := m.cfg.MaxRetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := m.cfg.RetryDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		ws, _, err := m.dialer.DialContext(ctx, m.url, nil)
		if err == nil {
			return ws, nil
		}
		lastErr = err
		m.logger.Debug("dial attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt == attempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("realtime client: dial failed after %d attempts: %w", attempts, lastErr)
}

// handshake sends the authenticate frame and waits for the server's verdict.
func (m *Manager) handshake(handle *Handle, userID, token string) error {
	payload, err := json.Marshal(realtime.AuthPayload{UserID: userID, Token: token})
	if err != nil {
		return err
	}
	frame, err := json.Marshal(realtime.Envelope{Event: realtime.EventAuthenticate, Data: payload})
	if err != nil {
		return err
	}

	deadline := m.cfg.AuthDeadline
	if deadline <= 0 {
		deadline = 10 * time.Second
	}
	handle.ws.SetWriteDeadline(time.Now().Add(deadline))
	if err := handle.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("realtime client: handshake write: %w", err)
	}
	handle.ws.SetWriteDeadline(time.Time{})

	handle.ws.SetReadDeadline(time.Now().Add(deadline))
	defer handle.ws.SetReadDeadline(time.Time{})

	_, data, err := handle.ws.ReadMessage()
	if err != nil {
		return fmt.Errorf("realtime client: handshake read: %w", err)
	}
	var env realtime.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("realtime client: handshake decode: %w", err)
	}

	switch env.Event {
	case realtime.EventAuthenticated:
		handle.setState(StateAuthenticated)
		return nil
	case realtime.EventError:
		var serverErr realtime.ErrorPayload
		_ = json.Unmarshal(env.Data, &serverErr)
		return fmt.Errorf("realtime client: authentication rejected: %s", serverErr.Message)
	default:
		return fmt.Errorf("realtime client: unexpected handshake event %q", env.Event)
	}
}
