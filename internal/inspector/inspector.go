// Package inspector implements the web-inspector bridge (SPEC_FULL.md
// §2.6): a small HTTP status endpoint plus a WebSocket mirror of the debug
// protocol's STATE broadcasts, for browser-based tooling; CHARACTER_DETAILS
// frames are not mirrored. It is additive and read-only - it never participates in
// SELECT/PAUSE/STEP/RESET/CHANGE, which remain TCP-protocol-only (spec
// §6).
package inspector

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/zoneai/zoneai/internal/protocol"
	"github.com/zoneai/zoneai/pkg/logger"
)

// Bridge fans a copy of every STATE frame the debug server broadcasts out
// to any connected WebSocket viewers, as JSON. CHARACTER_DETAILS frames
// are not mirrored.
type Bridge struct {
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[*websocket.Conn]struct{}

	zoneNames func() []string
}

// New builds a Bridge. zoneNames is called to answer the /status
// endpoint's zone list.
func New(zoneNames func() []string) *Bridge {
	return &Bridge{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The binary TCP protocol (spec §6) is the canonical wire
			// format; this bridge is a same-origin operator convenience,
			// not a public API, so the default same-origin check is
			// relaxed to keep local tooling simple.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[*websocket.Conn]struct{}),
		zoneNames: zoneNames,
	}
}

// Router returns the mux.Router serving /status (health/zone list) and
// /ws (the JSON frame mirror).
func (b *Bridge) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/status", b.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/ws", b.handleWebSocket)
	return r
}

type statusResponse struct {
	Zones []string `json:"zones"`
}

func (b *Bridge) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statusResponse{Zones: b.zoneNames()})
}

func (b *Bridge) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("inspector: websocket upgrade failed: %v", err)
		return
	}

	b.mu.Lock()
	b.sessions[conn] = struct{}{}
	b.mu.Unlock()

	// The mirror is write-only from the server's perspective; read and
	// discard so the connection's close/ping control frames are handled
	// and a dead client is detected.
	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.sessions, conn)
			b.mu.Unlock()
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// jsonCharacterState mirrors protocol.CharacterState for JSON encoding.
type jsonCharacterState struct {
	Id          uint64            `json:"id"`
	X           float32           `json:"x"`
	Y           float32           `json:"y"`
	Z           float32           `json:"z"`
	Orientation float32           `json:"orientation"`
	Attributes  map[string]string `json:"attributes"`
}

type jsonFrame struct {
	Type  string               `json:"type"`
	State []jsonCharacterState `json:"state,omitempty"`
}

// MirrorState broadcasts a STATE frame's content as JSON to every
// connected viewer.
func (b *Bridge) MirrorState(rows []protocol.CharacterState) {
	out := make([]jsonCharacterState, len(rows))
	for i, r := range rows {
		out[i] = jsonCharacterState{Id: uint64(r.Id), X: r.X, Y: r.Y, Z: r.Z, Orientation: r.Orientation, Attributes: r.Attributes}
	}
	b.broadcastJSON(jsonFrame{Type: "state", State: out})
}

func (b *Bridge) broadcastJSON(v any) {
	b.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(b.sessions))
	for c := range b.sessions {
		conns = append(conns, c)
	}
	b.mu.RUnlock()

	for _, c := range conns {
		if err := c.WriteJSON(v); err != nil {
			logger.Warnf("inspector: websocket write failed: %v", err)
		}
	}
}
