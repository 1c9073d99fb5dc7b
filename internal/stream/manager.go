// Package stream owns the dashboard's single event-stream connection.
//
// A Manager dials the server's WebSocket endpoint, subscribes to log
// events, and forwards them on one channel in transport order. Each
// successful connection is an epoch; a new epoch always begins with a
// fresh subscription and therefore a fresh backfill. Dropped connections
// are retried with exponential backoff until Close.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tinytelemetry/logstream/internal/model"
)

const (
	// DefaultEventBuffer is the default size of the outgoing event channel.
	DefaultEventBuffer = 256

	writeWait = 5 * time.Second
	// pongWait must exceed the server's ping period.
	pongWait = 60 * time.Second
)

// Config holds tunable parameters for a Manager.
type Config struct {
	URL            string
	Reconnect      bool
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	EventBuffer    int
	Dialer         *websocket.Dialer
}

// Manager maintains the live subscription.
type Manager struct {
	cfg    Config
	events chan model.StreamEvent

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	conn    *websocket.Conn
	state   model.ConnectionState
	epoch   uint64
	writeMu sync.Mutex

	startOnce sync.Once
	closeOnce sync.Once
}

// NewManager creates a Manager. Call Start to begin connecting.
func NewManager(cfg Config) *Manager {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultEventBuffer
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:    cfg,
		events: make(chan model.StreamEvent, cfg.EventBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Events returns the ordered event channel. It is closed after Close.
func (m *Manager) Events() <-chan model.StreamEvent { return m.events }

// State returns the current connection state.
func (m *Manager) State() model.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start begins the connect loop in the background.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		m.wg.Add(1)
		go m.run()
	})
}

// Close unsubscribes, closes the socket, stops reconnecting and closes the
// event channel.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.mu.Lock()
		conn := m.conn
		m.mu.Unlock()
		if conn != nil {
			if werr := m.write(conn, model.EventUnsubscribe); werr != nil {
				log.Printf("stream: unsubscribe: %v", werr)
			}
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
		}

		m.cancel()
		if conn != nil {
			if cerr := conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
				err = cerr
			}
		}

		// A Start after Close must not spawn a loop that writes to a closed channel.
		m.startOnce.Do(func() {})
		m.wg.Wait()
		close(m.events)
	})
	return err
}

func (m *Manager) run() {
	defer m.wg.Done()

	attempt := 0
	for {
		if m.ctx.Err() != nil {
			return
		}

		conn, _, err := m.cfg.Dialer.DialContext(m.ctx, m.cfg.URL, nil)
		if err != nil {
			if m.ctx.Err() != nil {
				return
			}
			m.setState(model.Disconnected, nil)
			m.emit(model.StreamEvent{Kind: model.EventDisconnect, Err: fmt.Errorf("stream: dial: %w", err)})
			if !m.waitRetry(attempt) {
				return
			}
			attempt++
			continue
		}
		attempt = 0

		epoch := m.setState(model.Connected, conn)
		m.emit(model.StreamEvent{Kind: model.EventConnect, Epoch: epoch})

		err = m.session(conn, epoch)
		_ = conn.Close()
		m.setState(model.Disconnected, nil)
		if m.ctx.Err() != nil {
			return
		}
		m.emit(model.StreamEvent{Kind: model.EventDisconnect, Epoch: epoch, Err: err})
		if !m.waitRetry(attempt) {
			return
		}
		attempt++
	}
}

// session subscribes and pumps frames until the connection fails.
func (m *Manager) session(conn *websocket.Conn, epoch uint64) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-m.ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	if err := m.write(conn, model.EventSubscribe); err != nil {
		return fmt.Errorf("stream: subscribe: %w", err)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		ev, err := Decode(data, epoch)
		if err != nil {
			log.Printf("%v", err)
			continue
		}
		if !m.emit(ev) {
			return m.ctx.Err()
		}
	}
}

func (m *Manager) write(conn *websocket.Conn, event string) error {
	frame, err := Encode(event, nil)
	if err != nil {
		return err
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// waitRetry sleeps before reconnect attempt n. It returns false when
// reconnecting is disabled or the manager is closing.
func (m *Manager) waitRetry(n int) bool {
	if !m.cfg.Reconnect {
		return false
	}
	m.setState(model.Connecting, nil)
	delay := Backoff(n, m.cfg.InitialBackoff, m.cfg.MaxBackoff, nil)
	if !m.emit(model.StreamEvent{Kind: model.EventReconnecting}) {
		return false
	}
	log.Printf("stream: reconnecting in %s (attempt %d)", delay.Round(time.Millisecond), n+1)

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-m.ctx.Done():
		return false
	}
}

// setState records the transport state. A new connection starts a new
// epoch, which is returned.
func (m *Manager) setState(state model.ConnectionState, conn *websocket.Conn) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.conn = conn
	if state == model.Connected {
		m.epoch++
	}
	return m.epoch
}

// emit delivers ev unless the manager is closing.
func (m *Manager) emit(ev model.StreamEvent) bool {
	select {
	case m.events <- ev:
		return true
	case <-m.ctx.Done():
		return false
	}
}
