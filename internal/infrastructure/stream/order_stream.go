package stream

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vitos/option_ladder_bot/internal/domain"
)

// connState is the lifecycle of the order-update subscription.
type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateSubscribed
	stateReconnecting
	stateTerminal
)

// wsConn is the subset of *websocket.Conn the manager uses. Tests substitute
// an in-memory implementation through the dial function.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v any) error
	Close() error
}

// DialFunc opens one connection to the venue's order-update socket.
type DialFunc func() (wsConn, error)

// Manager keeps one websocket subscription to the venue's order updates
// alive, reconnecting up to maxRetries times before going terminal. Updates
// are queued in order of arrival; the queue is never drained on reconnect.
type Manager struct {
	dial           DialFunc
	logger         *zap.Logger
	maxRetries     int
	reconnectDelay time.Duration

	mu      sync.Mutex
	state   connState
	conn    wsConn
	retries int

	updates chan domain.OrderUpdate
	fatal   chan error
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewManager dials wsURL with an Authorization header built from the venue
// credentials, the same header shape the REST adapter uses.
func NewManager(wsURL, clientID, accessToken string, maxRetries int, reconnectDelay time.Duration, queueSize int, logger *zap.Logger) *Manager {
	dial := func() (wsConn, error) {
		u := fmt.Sprintf("%s?access_token=%s:%s", wsURL, clientID, accessToken)
		c, _, err := websocket.DefaultDialer.Dial(u, nil)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return NewManagerWithDialer(dial, maxRetries, reconnectDelay, queueSize, logger)
}

// NewManagerWithDialer is the injectable constructor used by tests.
func NewManagerWithDialer(dial DialFunc, maxRetries int, reconnectDelay time.Duration, queueSize int, logger *zap.Logger) *Manager {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Manager{
		dial:           dial,
		logger:         logger,
		maxRetries:     maxRetries,
		reconnectDelay: reconnectDelay,
		updates:        make(chan domain.OrderUpdate, queueSize),
		fatal:          make(chan error, 1),
		done:           make(chan struct{}),
	}
}

// CheckAndStart connects and subscribes if the manager is not already
// running. Safe to call before every wait phase.
func (m *Manager) CheckAndStart() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case stateSubscribed, stateConnecting, stateReconnecting:
		return nil
	case stateTerminal:
		return domain.Errorf(domain.KindFatal, "stream.CheckAndStart", "stream is terminal")
	}

	m.state = stateConnecting
	conn, err := m.dial()
	if err != nil {
		m.state = stateDisconnected
		return domain.E(domain.KindTransient, "stream.CheckAndStart", err)
	}
	m.conn = conn
	m.retries = 0

	if err := m.subscribeLocked(); err != nil {
		conn.Close()
		m.conn = nil
		m.state = stateDisconnected
		return err
	}
	m.state = stateSubscribed

	m.wg.Add(1)
	go m.readLoop()
	return nil
}

func (m *Manager) subscribeLocked() error {
	msg := map[string]any{"T": "SUB_ORD", "SLIST": []string{"orderUpdate"}, "SUB_T": 1}
	if err := m.conn.WriteJSON(msg); err != nil {
		return domain.E(domain.KindTransient, "stream.Subscribe", err)
	}
	return nil
}

func (m *Manager) unsubscribeLocked() error {
	msg := map[string]any{"T": "SUB_ORD", "SLIST": []string{"orderUpdate"}, "SUB_T": 0}
	if err := m.conn.WriteJSON(msg); err != nil {
		return domain.E(domain.KindTransient, "stream.Unsubscribe", err)
	}
	return nil
}

// Subscribe and Unsubscribe are no-ops while disconnected; the topic is
// (re)subscribed on every successful connect anyway.
func (m *Manager) Subscribe() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		m.logger.Warn("subscribe skipped, stream not connected")
		return nil
	}
	return m.subscribeLocked()
}

func (m *Manager) Unsubscribe() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		m.logger.Warn("unsubscribe skipped, stream not connected")
		return nil
	}
	return m.unsubscribeLocked()
}

func (m *Manager) Updates() <-chan domain.OrderUpdate { return m.updates }

func (m *Manager) Fatal() <-chan error { return m.fatal }

// Stop unsubscribes, closes the connection and joins the read loop. The
// join is bounded so a wedged socket cannot hang shutdown.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.state == stateTerminal {
		m.mu.Unlock()
		return
	}
	m.state = stateTerminal
	close(m.done)
	if m.conn != nil {
		if err := m.unsubscribeLocked(); err != nil {
			m.logger.Warn("unsubscribe on stop failed", zap.Error(err))
		}
		m.conn.Close()
		m.conn = nil
	}
	m.mu.Unlock()

	joined := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(joined)
	}()
	select {
	case <-joined:
	case <-time.After(5 * time.Second):
		m.logger.Warn("stream read loop did not exit in time")
	}
}

func (m *Manager) readLoop() {
	defer m.wg.Done()

	for {
		m.mu.Lock()
		conn := m.conn
		m.mu.Unlock()
		if conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-m.done:
				return
			default:
			}
			if !m.reconnect() {
				return
			}
			continue
		}

		m.handleMessage(raw)
	}
}

// handleMessage parses one frame. Malformed frames are logged and dropped,
// they never tear the connection down.
func (m *Manager) handleMessage(raw []byte) {
	var envelope struct {
		Type   string             `json:"s"`
		Orders domain.OrderUpdate `json:"orders"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		m.logger.Warn("dropping malformed order update", zap.Error(err), zap.ByteString("raw", raw))
		return
	}
	if envelope.Orders.OrderID == "" {
		// acks and heartbeats carry no order payload
		return
	}

	select {
	case m.updates <- envelope.Orders:
	default:
		m.logger.Error("order update queue full, dropping update",
			zap.String("order_id", envelope.Orders.OrderID))
	}
}

// reconnect redials with a fixed delay until maxRetries is exhausted, then
// marks the stream terminal and delivers the fatal error. Returns false when
// the read loop should exit.
func (m *Manager) reconnect() bool {
	m.mu.Lock()
	m.state = stateReconnecting
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.mu.Unlock()

	for {
		m.mu.Lock()
		if m.retries >= m.maxRetries {
			m.state = stateTerminal
			m.mu.Unlock()
			m.logger.Error("order stream reconnect attempts exhausted", zap.Int("retries", m.maxRetries))
			select {
			case m.fatal <- domain.Errorf(domain.KindFatal, "stream.reconnect",
				"disconnected after %d reconnect attempts", m.maxRetries):
			default:
			}
			return false
		}
		m.retries++
		attempt := m.retries
		m.mu.Unlock()

		select {
		case <-m.done:
			return false
		case <-time.After(m.reconnectDelay):
		}

		conn, err := m.dial()
		if err != nil {
			m.logger.Warn("order stream reconnect failed",
				zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		m.mu.Lock()
		m.conn = conn
		err = m.subscribeLocked()
		if err != nil {
			conn.Close()
			m.conn = nil
			m.mu.Unlock()
			m.logger.Warn("resubscribe after reconnect failed", zap.Error(err))
			continue
		}
		m.state = stateSubscribed
		m.retries = 0
		m.mu.Unlock()
		m.logger.Info("order stream reconnected", zap.Int("attempt", attempt))
		return true
	}
}
