package mirror

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"floatclock/internal/clock"
	"floatclock/internal/metrics"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 8
)

// Frame is one broadcast: every slot as drawn at Time.
type Frame struct {
	Time  time.Time        `json:"time"`
	Slots []clock.SlotView `json:"slots"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	addr string
}

// Hub fans frames out to WebSocket viewers at a capped rate. Publish is
// called from the face's goroutine and never blocks on a viewer.
type Hub struct {
	interval time.Duration
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	clients  map[*client]struct{}
	lastSent time.Time
	closed   bool
}

// NewHub creates a hub sending at most rateHz frames per second. m may be nil.
func NewHub(rateHz int, m *metrics.Metrics) *Hub {
	if rateHz <= 0 {
		rateHz = 10
	}
	return &Hub{
		interval: time.Second / time.Duration(rateHz),
		metrics:  m,
		clients:  make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  512,
			WriteBufferSize: 4096,
			// viewers are local tools and browsers on any origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Publish broadcasts views if at least one interval has passed since the last
// frame sent. Viewers whose buffer is full miss the frame.
func (h *Hub) Publish(now time.Time, views []clock.SlotView) {
	h.mu.Lock()
	if h.closed || len(h.clients) == 0 || now.Sub(h.lastSent) < h.interval {
		h.mu.Unlock()
		return
	}
	h.lastSent = now
	h.mu.Unlock()

	data, err := json.Marshal(Frame{Time: now, Slots: views})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode mirror frame")
		return
	}
	// send channels are only closed under the write lock
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			if h.metrics != nil {
				h.metrics.RecordDropped()
			}
			log.Debug().Str("viewer", c.addr).Msg("viewer slow, frame dropped")
		}
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams frames until the viewer leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer), addr: r.RemoteAddr}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	log.Info().Str("viewer", c.addr).Int("viewers", n).Msg("mirror viewer connected")

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards incoming messages and unregisters the viewer when the
// connection ends.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("viewer", c.addr).Msg("viewer read error")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	log.Info().Str("viewer", c.addr).Int("viewers", n).Msg("mirror viewer left")
}

// Close disconnects every viewer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
