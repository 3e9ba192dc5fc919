package debugserver

import (
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/zoneai/zoneai/internal/protocol"
)

// clientConn is one connected debug client: a socket plus a write mutex,
// since broadcasts and handler replies can race on the same connection.
type clientConn struct {
	id   uuid.UUID
	conn net.Conn
	mu   sync.Mutex
}

func (c *clientConn) send(msgType protocol.MessageType, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return protocol.WriteFrame(c.conn, msgType, payload)
}
