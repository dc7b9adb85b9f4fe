// Package viewer streams presented frames to read-only websocket spectators.
package viewer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"tank-arena/internal/config"
	"tank-arena/internal/sim"
)

const frameQueueSize = 8

// Hub implements sim.RenderSink. Present never blocks the frame loop: frames
// that do not fit the queue are dropped, and Run thins the rest to the
// broadcast rate.
type Hub struct {
	log     zerolog.Logger
	limiter *rate.Limiter
	frames  chan sim.Frame
	secret  []byte
	dropped atomic.Uint64
	sent    atomic.Uint64

	mu      sync.RWMutex
	clients map[*client]struct{}

	// connection limits, touched from HTTP handlers
	connMu        sync.Mutex
	ipConns       map[string]int
	totalConns    int
	maxConns      int
	maxConnsPerIP int
}

// NewHub creates a hub with the limits and secret of c. Call Run to start
// broadcasting.
func NewHub(c config.ViewerConfig, log zerolog.Logger) *Hub {
	h := &Hub{
		log:           log,
		limiter:       rate.NewLimiter(rate.Limit(c.BroadcastRate), 1),
		frames:        make(chan sim.Frame, frameQueueSize),
		clients:       make(map[*client]struct{}),
		ipConns:       make(map[string]int),
		maxConns:      c.MaxConns,
		maxConnsPerIP: c.MaxConnsPerIP,
	}
	if c.Secret != "" {
		h.secret = []byte(c.Secret)
	}
	return h
}

// Attach and Detach are no-ops: every frame carries the whole population.
func (h *Hub) Attach(sim.EntityID, sim.Sprite) {}
func (h *Hub) Detach(sim.EntityID)             {}

func (h *Hub) Present(f sim.Frame) {
	select {
	case h.frames <- f:
	default:
		h.dropped.Add(1)
	}
}

// Run broadcasts queued frames until ctx is done, then disconnects every
// spectator.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case f := <-h.frames:
			if h.ClientCount() == 0 || !h.limiter.Allow() {
				continue
			}
			data, err := EncodeFrame(f)
			if err != nil {
				h.log.Error().Err(err).Uint64("tick", f.Tick).Msg("encode frame")
				continue
			}
			h.broadcast(data)
		}
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.sendBinary(data)
	}
	h.sent.Add(1)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info().Str("ip", c.remoteAddr).Int("spectators", n).Msg("spectator joined")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info().Str("ip", c.remoteAddr).Int("spectators", n).Msg("spectator left")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// tryConnect reserves a connection slot for ip if the limits allow it. A
// reservation that does not end in a registered client is released with
// trackDisconnect.
func (h *Hub) tryConnect(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.maxConns > 0 && h.totalConns >= h.maxConns {
		return false
	}
	if h.maxConnsPerIP > 0 && h.ipConns[ip] >= h.maxConnsPerIP {
		return false
	}
	h.ipConns[ip]++
	h.totalConns++
	return true
}

func (h *Hub) trackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// ClientCount returns the number of connected spectators.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns broadcast frames and frames dropped at the queue.
func (h *Hub) Stats() (sent, dropped uint64) {
	return h.sent.Load(), h.dropped.Load()
}
