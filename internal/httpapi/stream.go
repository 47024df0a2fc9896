package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dogloot/server/internal/registry"
	"dogloot/server/logging"
	"dogloot/server/session"
)

// StreamHub fans a per-map game-state snapshot out to every subscribed
// websocket connection once per tick. It implements app.ApplicationListener
// so the orchestrator drives it exactly like the snapshot scheduler; the
// same suspension-point rule applies, so OnTick only builds in-memory
// payloads and hands the actual socket writes to background goroutines.
type StreamHub struct {
	registry *registry.Registry
	logger   logging.Publisher
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[string]map[*websocket.Conn]struct{}
}

// NewStreamHub constructs a hub broadcasting from reg's live sessions.
func NewStreamHub(reg *registry.Registry, logger logging.Publisher) *StreamHub {
	if logger == nil {
		logger = logging.NopPublisher()
	}
	return &StreamHub{
		registry:    reg,
		logger:      logger,
		subscribers: make(map[string]map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *StreamHub) subscribe(mapID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.subscribers[mapID]
	if !ok {
		conns = make(map[*websocket.Conn]struct{})
		h.subscribers[mapID] = conns
	}
	conns[conn] = struct{}{}
}

func (h *StreamHub) unsubscribe(mapID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.subscribers[mapID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.subscribers, mapID)
		}
	}
}

// OnTick builds one JSON payload per map with active subscribers and
// dispatches its delivery to a goroutine per connection, so a slow or dead
// client's write never stalls the simulation strand.
func (h *StreamHub) OnTick(dt time.Duration) {
	h.mu.Lock()
	if len(h.subscribers) == 0 {
		h.mu.Unlock()
		return
	}
	targets := make(map[string][]*websocket.Conn, len(h.subscribers))
	for mapID, conns := range h.subscribers {
		list := make([]*websocket.Conn, 0, len(conns))
		for c := range conns {
			list = append(list, c)
		}
		targets[mapID] = list
	}
	h.mu.Unlock()

	sessions := h.registry.Sessions()
	for mapID, conns := range targets {
		sess, ok := sessions[mapID]
		if !ok {
			continue
		}
		payload := streamPayload(sess)
		go h.broadcast(mapID, conns, payload)
	}
}

func (h *StreamHub) broadcast(mapID string, conns []*websocket.Conn, payload any) {
	for _, conn := range conns {
		if err := conn.WriteJSON(payload); err != nil {
			h.unsubscribe(mapID, conn)
			_ = conn.Close()
		}
	}
}

func streamPayload(sess *session.Session) map[string]any {
	dogs := sess.Dogs()
	players := make([]map[string]any, 0, len(dogs))
	for _, d := range dogs {
		players = append(players, map[string]any{
			"id":    d.ID,
			"pos":   []float64{d.Position.X, d.Position.Y},
			"speed": []float64{d.Velocity.X, d.Velocity.Y},
			"dir":   string(d.Direction),
			"score": d.Score,
		})
	}
	loot := sess.LootObjects()
	lost := make([]map[string]any, 0, len(loot))
	for _, item := range loot {
		lost = append(lost, map[string]any{
			"id":   item.ID,
			"type": item.Type,
			"pos":  []float64{item.Position.X, item.Position.Y},
		})
	}
	return map[string]any{"players": players, "lostObjects": lost}
}

// handleStream upgrades the connection and subscribes it to its bearer
// token's map, tearing the subscription down once the client disconnects.
func (s *server) handleStream(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeInvalidToken(w)
		return
	}
	mapID, err := s.app.ResolveMapID(r.Context(), token)
	if err != nil {
		writeUnknownToken(w)
		return
	}

	conn, err := s.stream.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logError(r.Context(), "websocket upgrade failed", err)
		return
	}
	s.stream.subscribe(mapID, conn)

	// Drain incoming frames (pings, close) on a dedicated goroutine; this
	// connection is receive-only from the client's perspective, so any
	// text/binary frame just keeps the read loop pumping until close.
	go func() {
		defer func() {
			s.stream.unsubscribe(mapID, conn)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
