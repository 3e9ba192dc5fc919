package debugserver

import (
	"github.com/zoneai/zoneai/internal/agent"
	"github.com/zoneai/zoneai/internal/aicore"
	"github.com/zoneai/zoneai/internal/behavior"
	"github.com/zoneai/zoneai/internal/character"
	"github.com/zoneai/zoneai/internal/protocol"
	"github.com/zoneai/zoneai/pkg/logger"
)

// dispatch routes one decoded frame to its handler (spec §4.8 "Handlers").
// A decode failure for a given message type is a ProtocolError (spec §7):
// logged at warn and otherwise ignored, not dropped-connection, since the
// framing itself (which IS fatal) already succeeded.
func (s *Server) dispatch(c *clientConn, frame protocol.Frame) {
	switch frame.Type {
	case protocol.Ping:
		// Acknowledged implicitly; no state change (spec §4.8).
	case protocol.Hello:
		s.handleHello(c, frame.Payload)
	case protocol.Select:
		s.handleSelect(frame.Payload)
	case protocol.Pause:
		s.handlePause(frame.Payload)
	case protocol.Step:
		s.handleStep(frame.Payload)
	case protocol.Reset:
		s.handleReset()
	case protocol.Change:
		s.handleChange(frame.Payload)
	default:
		logger.Warnf("debug server: unhandled message type %d", frame.Type)
	}
}

func (s *Server) handleHello(c *clientConn, payload []byte) {
	version, err := protocol.DecodeHello(payload)
	if err != nil {
		logger.Warnf("debug server: malformed HELLO: %v", err)
		return
	}
	logger.Infof("debug client %s negotiating protocol version %s", c.id, version)
	_ = c.send(protocol.Hello, protocol.EncodeHello(s.cfg.ProtocolVersion))
}

// handleSelect records characterId as selected if it exists in the
// currently debugged zone; while paused, it immediately pushes one state
// and details frame (spec §4.8 SELECT).
func (s *Server) handleSelect(payload []byte) {
	id, err := protocol.DecodeSelect(payload)
	if err != nil {
		logger.Warnf("debug server: malformed SELECT: %v", err)
		return
	}

	z := s.debugZone()
	if z == nil {
		return
	}
	if _, ok := z.AIById(id); !ok {
		return
	}

	s.stateMu.Lock()
	s.selected = id
	s.hasSelection = true
	paused := s.paused
	s.stateMu.Unlock()

	if paused {
		s.broadcastStateAndDetails(z)
	}
}

// handlePause sets the global pause flag, propagates it to every agent in
// the debug zone, broadcasts a PauseFrame, and - if pausing - pushes one
// state+details frame (spec §4.8 PAUSE).
func (s *Server) handlePause(payload []byte) {
	paused, err := protocol.DecodePause(payload)
	if err != nil {
		logger.Warnf("debug server: malformed PAUSE: %v", err)
		return
	}

	s.stateMu.Lock()
	s.paused = paused
	s.stateMu.Unlock()

	if z := s.debugZone(); z != nil {
		z.Visit(func(a *agent.AI) { a.SetPaused(paused) })
	}

	s.broadcast(protocol.Pause, protocol.EncodePause(paused))

	if paused {
		if z := s.debugZone(); z != nil {
			s.broadcastStateAndDetails(z)
		}
	}
}

// handleStep is only effective while paused: each agent in the debug zone
// is force-updated by dt with its own paused flag temporarily cleared and
// restored, then one state+details frame is broadcast (spec §4.8 STEP).
func (s *Server) handleStep(payload []byte) {
	dt, err := protocol.DecodeStep(payload)
	if err != nil {
		logger.Warnf("debug server: malformed STEP: %v", err)
		return
	}

	s.stateMu.Lock()
	paused := s.paused
	s.stateMu.Unlock()
	if !paused {
		return
	}

	z := s.debugZone()
	if z == nil {
		return
	}

	z.Visit(func(a *agent.AI) {
		wasPaused := a.Paused()
		a.SetPaused(false)
		a.Update(dt, true)
		a.SetPaused(wasPaused)
	})

	s.broadcastStateAndDetails(z)
}

// handleReset clears NodeState for every agent in the debug zone (spec
// §4.8 RESET).
func (s *Server) handleReset() {
	z := s.debugZone()
	if z == nil {
		return
	}
	z.Visit(func(a *agent.AI) { a.ResetTree() })
}

// handleChange marks the named zone as the debug zone, clearing the flag
// on any previously debugged zone (spec §4.8 CHANGE).
func (s *Server) handleChange(payload []byte) {
	name, err := protocol.DecodeChange(payload)
	if err != nil {
		logger.Warnf("debug server: malformed CHANGE: %v", err)
		return
	}

	newZone := s.zoneByName(name)
	if newZone == nil {
		logger.Warnf("debug server: CHANGE to unknown zone %q", name)
		return
	}

	s.stateMu.Lock()
	oldName := s.debugZoneName
	s.debugZoneName = name
	s.selected = 0
	s.hasSelection = false
	s.stateMu.Unlock()

	if oldName != "" && oldName != name {
		if old := s.zoneByName(oldName); old != nil {
			old.SetDebug(false)
		}
	}
	newZone.SetDebug(true)
}

// encodeDetails builds a CHARACTER_DETAILS payload for selected (spec
// §4.8): the agent's aggro entries in stable order, plus a recursive
// snapshot of its behaviour tree.
func encodeDetails(ai *agent.AI, selected character.Id) []byte {
	entries := ai.AggroManager().Entries()
	rows := make([]protocol.AggroRow, len(entries))
	for i, e := range entries {
		rows[i] = protocol.AggroRow{Id: e.CharacterId, Amount: e.Amount}
	}

	root := ai.Root()
	var tree protocol.TreeSnapshot
	if root != nil {
		// The root is always reported as running, matching
		// Server.cpp's addChildren hardcoding the root node's running
		// flag to true unconditionally.
		tree = snapshot(root, ai, true)
	}
	return protocol.EncodeCharacterDetails(selected, rows, tree)
}

// snapshot recursively renders node's debug view (spec §4.8): name,
// conditionRendering, deltaSinceLastExec, lastStatus, a running flag, and
// each child's own snapshot. running is handed down from the parent's own
// RunningChildren set rather than read off node's own LastStatus
// (_examples/original_source/src/ai/server/Server.cpp's addChildren calls
// node->getRunningChildren(ai, currentlyRunning) on the parent and passes
// currentlyRunning[i] to child i) - a node a PrioritySelector preempted
// away from without re-invoking this tick keeps a stale LastStatus==RUNNING,
// so reading it directly would misreport that node as still running.
func snapshot(node behavior.TreeNode, a aicore.Agent, running bool) protocol.TreeSnapshot {
	state := a.NodeState(node.ID())
	runningChildren := node.RunningChildren(a)

	children := node.Children()
	childSnapshots := make([]protocol.TreeSnapshot, len(children))
	for i, child := range children {
		_, childRunning := runningChildren[i]
		childSnapshots[i] = snapshot(child, a, childRunning)
	}

	conditionRendering := ""
	if node.Condition() != nil {
		conditionRendering = node.Condition().NameWithConditions(a)
	}

	delta := aicore.NoLastExec
	if state.LastExecMillis != aicore.NoLastExec {
		delta = a.Time() - state.LastExecMillis
	}

	return protocol.TreeSnapshot{
		Name:               node.Name(),
		ConditionRendering: conditionRendering,
		DeltaMillis:        delta,
		Status:             state.LastStatus,
		Running:            running,
		Children:           childSnapshots,
	}
}
