// Package transport serves a running Simulation to external clients:
// a websocket snapshot feed, and a chi-routed HTTP API for the
// scenario catalog and simulation lifecycle. Clients are read-only
// subscribers; there is no per-player input channel.
package transport

import (
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lab1702/oort-sim/metrics"
	"github.com/lab1702/oort-sim/sim"
	"github.com/lab1702/oort-sim/snapshot"
)

// isValidOrigin allows same-origin and localhost connections.
func isValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		log.Printf("transport: invalid origin %q", origin)
		return false
	}
	if r.Host == originURL.Host {
		return true
	}
	if strings.HasPrefix(originURL.Host, "localhost:") || strings.HasPrefix(originURL.Host, "127.0.0.1:") {
		return true
	}
	log.Printf("transport: rejected websocket connection from origin %q", origin)
	return false
}

var upgrader = websocket.Upgrader{
	CheckOrigin:       isValidOrigin,
	EnableCompression: true,
}

// client is one connected snapshot subscriber.
type client struct {
	id   int
	conn *websocket.Conn
	send chan snapshot.Snapshot
}

// RunHandle owns one running Simulation and broadcasts its snapshot to
// every connected client once per tick, splitting simulation state
// from client fanout.
type RunHandle struct {
	mu         sync.RWMutex
	id         string
	sim        *sim.Simulation
	tickRate   time.Duration
	metrics    *metrics.Collectors
	clients    map[int]*client
	register   chan *client
	unregister chan *client
	broadcast  chan snapshot.Snapshot
	stop       chan struct{}
	nextID     int
}

// NewRunHandle wraps sim with the broadcast plumbing, not yet running.
// m may be nil, in which case metrics collection is skipped.
func NewRunHandle(id string, s *sim.Simulation, tickRate time.Duration, m *metrics.Collectors) *RunHandle {
	return &RunHandle{
		id: id, sim: s, tickRate: tickRate, metrics: m,
		clients:    make(map[int]*client),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan snapshot.Snapshot, 256),
		stop:       make(chan struct{}),
	}
}

// Run drives the fixed-tick loop and the client fanout loop until Stop
// is called.
func (h *RunHandle) Run() {
	go h.tickLoop()
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.send)
			}
			h.mu.Unlock()
		case snap := <-h.broadcast:
			h.mu.RLock()
			for _, c := range h.clients {
				select {
				case c.send <- snap:
				default:
					log.Printf("transport: run %s client %d send buffer full, dropping snapshot", h.id, c.id)
				}
			}
			h.mu.RUnlock()
		case <-h.stop:
			return
		}
	}
}

func (h *RunHandle) tickLoop() {
	ticker := time.NewTicker(h.tickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			start := time.Now()
			h.mu.Lock()
			if err := h.sim.Step(); err != nil {
				log.Printf("transport: run %s step error: %v", h.id, err)
			}
			snap := h.sim.Snapshot()
			shipCount := h.sim.ShipCount()
			radioDelivered := h.sim.RadioMessagesDelivered()
			h.mu.Unlock()

			if h.metrics != nil {
				h.metrics.TickDuration.Observe(time.Since(start).Seconds())
				h.metrics.ActiveShips.Set(float64(shipCount))
				h.metrics.RadioMessageTotal.Add(float64(radioDelivered))
				for _, ce := range snap.Errors {
					h.metrics.VMFaultTotal.WithLabelValues(ce.Kind).Inc()
					if ce.Kind == "runtime" {
						h.metrics.GasExhaustedTotal.Inc()
					}
				}
			}

			select {
			case h.broadcast <- snap:
			default:
				log.Printf("transport: run %s broadcast channel full, dropping tick", h.id)
			}
			if snap.Status != 0 { // non-Running: one final broadcast then stop driving ticks
				h.Stop()
				return
			}
		case <-h.stop:
			return
		}
	}
}

// Stop ends the tick loop and the client fanout loop.
func (h *RunHandle) Stop() {
	select {
	case <-h.stop:
	default:
		close(h.stop)
	}
}

// Status reports the simulation's current tick.
func (h *RunHandle) Status() (tick uint32) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sim.Tick
}

// ServeWebSocket upgrades r and streams this run's snapshots to the
// connection until it disconnects.
func (h *RunHandle) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("transport: websocket upgrade error: %v", err)
		return
	}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.mu.Unlock()

	c := &client{id: id, conn: conn, send: make(chan snapshot.Snapshot, 32)}
	h.register <- c
	go h.writePump(c)
	go h.readPump(c)
}

func (h *RunHandle) readPump(c *client) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break // snapshots are read-only; any client frame just keeps the deadline alive
		}
	}
}

func (h *RunHandle) writePump(c *client) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case snap, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(snap); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
