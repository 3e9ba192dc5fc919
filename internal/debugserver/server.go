// Package debugserver implements the remote debug protocol server (spec
// §4.8): a TCP listener accepting multiple concurrent clients, streaming
// zone state and pushing control-plane changes (select/pause/step/reset/
// change) back into the simulation.
package debugserver

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zoneai/zoneai/internal/agent"
	"github.com/zoneai/zoneai/internal/character"
	"github.com/zoneai/zoneai/internal/protocol"
	"github.com/zoneai/zoneai/internal/zone"
	"github.com/zoneai/zoneai/pkg/logger"
)

// Config configures the debug server's network and runtime behaviour.
type Config struct {
	// Address to bind, e.g. "0.0.0.0:9191".
	Address string
	// IdleTimeout drops a client whose socket has been silent this long.
	// Zero means no timeout (spec §5 "default: none").
	IdleTimeout time.Duration
	// ProtocolVersion is this server's own semver string, sent in
	// response to a client HELLO (SPEC_FULL.md §2.5).
	ProtocolVersion string
}

// Server is the debug protocol server (spec §4.8). Exactly one debug zone
// is active at a time; CHANGE switches it.
type Server struct {
	cfg Config

	listener net.Listener

	zonesMu sync.RWMutex
	zones   map[string]*zone.Zone

	clientsMu sync.RWMutex
	clients   map[uuid.UUID]*clientConn

	stateMu       sync.Mutex
	paused        bool
	selected      character.Id
	hasSelection  bool
	debugZoneName string

	cancel context.CancelFunc
	group  *errgroup.Group

	inspector stateMirror
}

// stateMirror is the subset of internal/inspector.Bridge the debug server
// needs, declared here to keep the dependency direction one-way (the
// inspector bridge subscribes to the server's broadcasts; the server does
// not need inspector's HTTP/WebSocket types).
type stateMirror interface {
	MirrorState(rows []protocol.CharacterState)
}

// New builds a Server bound to no zones; call RegisterZone before Start.
func New(cfg Config) *Server {
	return &Server{
		cfg:     cfg,
		zones:   make(map[string]*zone.Zone),
		clients: make(map[uuid.UUID]*clientConn),
	}
}

// SetInspector wires an optional web-inspector bridge (SPEC_FULL.md §2.6)
// that mirrors every STATE broadcast as JSON; nil disables the mirror.
func (s *Server) SetInspector(bridge stateMirror) {
	s.inspector = bridge
}

// RegisterZone makes z available to CHANGE by name (spec §4.8 CHANGE).
func (s *Server) RegisterZone(z *zone.Zone) {
	s.zonesMu.Lock()
	defer s.zonesMu.Unlock()
	s.zones[z.Name()] = z
}

// ZoneNames returns every registered zone's name (spec §4.8 NAMES list, on
// connect).
func (s *Server) ZoneNames() []string {
	s.zonesMu.RLock()
	defer s.zonesMu.RUnlock()
	names := make([]string, 0, len(s.zones))
	for name := range s.zones {
		names = append(names, name)
	}
	return names
}

// Start binds the listener and begins accepting clients (spec §4.8
// connection lifecycle step 1).
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	s.listener = ln

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	group, gctx := errgroup.WithContext(ctx)
	s.group = group

	logger.Infof("debug server listening on %s", ln.Addr())

	group.Go(func() error {
		return s.acceptLoop(gctx)
	})
	return nil
}

// Stop closes the listener and every client connection, waiting for the
// accept loop and client goroutines to exit.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.clientsMu.Lock()
	for _, c := range s.clients {
		_ = c.conn.Close()
	}
	s.clientsMu.Unlock()
	if s.group != nil {
		return s.group.Wait()
	}
	return nil
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				logger.Warnf("debug server accept error: %v", err)
				return err
			}
		}
		s.group.Go(func() error {
			s.handleConnection(ctx, conn)
			return nil
		})
	}
}

// handleConnection runs one client's full lifecycle (spec §4.8 steps 2,
// 4): on connect, send pause state and zone names; read frames until EOF,
// idle timeout, or protocol error; on exit, deregister and, if this was
// the last client, reset pause/selection/debug state.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	id := uuid.New()
	c := &clientConn{id: id, conn: conn}

	s.clientsMu.Lock()
	s.clients[id] = c
	s.clientsMu.Unlock()
	logger.Infof("debug client connected: %s", id)

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, id)
		remaining := len(s.clients)
		s.clientsMu.Unlock()
		_ = conn.Close()
		logger.Infof("debug client disconnected: %s", id)

		if remaining == 0 {
			s.onLastClientDisconnect()
		}
	}()

	s.sendInitialState(c)

	reader := bufio.NewReader(conn)
	for {
		if s.cfg.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := protocol.ReadFrame(reader)
		if err != nil {
			if err.Error() != "EOF" {
				logger.Warnf("debug client %s: %v", id, err)
			}
			return
		}
		s.dispatch(c, frame)
	}
}

func (s *Server) sendInitialState(c *clientConn) {
	s.stateMu.Lock()
	paused := s.paused
	s.stateMu.Unlock()

	_ = c.send(protocol.Pause, protocol.EncodePause(paused))
	_ = c.send(protocol.Names, protocol.EncodeNames(s.ZoneNames()))
}

// onLastClientDisconnect runs spec §4.8 step 4.
func (s *Server) onLastClientDisconnect() {
	s.stateMu.Lock()
	s.paused = false
	s.hasSelection = false
	s.selected = 0
	zoneName := s.debugZoneName
	s.debugZoneName = ""
	s.stateMu.Unlock()

	if zoneName != "" {
		if z := s.zoneByName(zoneName); z != nil {
			z.SetDebug(false)
		}
	}
}

func (s *Server) zoneByName(name string) *zone.Zone {
	s.zonesMu.RLock()
	defer s.zonesMu.RUnlock()
	return s.zones[name]
}

func (s *Server) debugZone() *zone.Zone {
	s.stateMu.Lock()
	name := s.debugZoneName
	s.stateMu.Unlock()
	if name == "" {
		return nil
	}
	return s.zoneByName(name)
}

// Update drives the periodic broadcast (spec §4.8 step 3): if a zone is
// marked debug, clients are connected, and the server is not paused,
// broadcasts a state frame and, if a character is selected, a details
// frame.
func (s *Server) Update(dt int64) {
	z := s.debugZone()
	if z == nil {
		return
	}

	s.clientsMu.RLock()
	anyClients := len(s.clients) > 0
	s.clientsMu.RUnlock()
	if !anyClients {
		return
	}

	s.stateMu.Lock()
	paused := s.paused
	s.stateMu.Unlock()
	if paused {
		return
	}

	s.broadcastStateAndDetails(z)
}

func (s *Server) broadcastStateAndDetails(z *zone.Zone) {
	rows := stateRows(z)
	s.broadcast(protocol.State, protocol.EncodeState(rows))
	if s.inspector != nil {
		s.inspector.MirrorState(rows)
	}

	s.stateMu.Lock()
	selected, hasSelection := s.selected, s.hasSelection
	s.stateMu.Unlock()
	if !hasSelection {
		return
	}

	ai, ok := z.AIById(selected)
	if !ok {
		return
	}
	s.broadcast(protocol.CharacterDetails, encodeDetails(ai, selected))
}

func stateRows(z *zone.Zone) []protocol.CharacterState {
	var rows []protocol.CharacterState
	z.Visit(func(a *agent.AI) {
		x, y, zc := a.Character().Position()
		rows = append(rows, protocol.CharacterState{
			Id:          a.Id(),
			X:           x,
			Y:           y,
			Z:           zc,
			Orientation: a.Character().Orientation(),
			Attributes:  a.Character().Attributes(),
		})
	})
	return rows
}

func (s *Server) broadcast(msgType protocol.MessageType, payload []byte) {
	s.clientsMu.RLock()
	clients := make([]*clientConn, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.RUnlock()

	for _, c := range clients {
		if err := c.send(msgType, payload); err != nil {
			logger.Warnf("debug client %s: broadcast failed: %v", c.id, err)
		}
	}
}
