package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tinytelemetry/logstream/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxClientFrame bounds client frames; clients only send tiny control events.
	maxClientFrame = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	// The dashboard is a local tool without authentication.
	CheckOrigin: func(*http.Request) bool { return true },
}

type client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	addr       string
	subscribed bool // guarded by hub.mu
}

// ServeWS upgrades the request and serves one client until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("hub: upgrade from %s: %v", r.RemoteAddr, err)
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.sendBuf),
		addr: r.RemoteAddr,
	}
	if !h.register(c) {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer c.hub.wg.Done()
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxClientFrame)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("hub: read from %s: %v", c.addr, err)
			}
			return
		}

		var env model.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("hub: malformed frame from %s: %v", c.addr, err)
			continue
		}
		switch env.Event {
		case model.EventSubscribe:
			c.hub.subscribe(c)
		case model.EventUnsubscribe:
			c.hub.unsubscribe(c)
		default:
			log.Printf("hub: ignoring event %q from %s", env.Event, c.addr)
		}
	}
}

func (c *client) writePump() {
	defer c.hub.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
