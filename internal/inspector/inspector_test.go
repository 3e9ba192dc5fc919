package inspector

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/zoneai/zoneai/internal/character"
	"github.com/zoneai/zoneai/internal/protocol"
)

func TestStatusEndpointListsZones(t *testing.T) {
	b := New(func() []string { return []string{"forest", "dungeon"} })
	srv := httptest.NewServer(b.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.ElementsMatch(t, []string{"forest", "dungeon"}, out.Zones)
}

func TestWebSocketMirrorsState(t *testing.T) {
	b := New(func() []string { return nil })
	srv := httptest.NewServer(b.Router())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server a moment to register the session before mirroring.
	time.Sleep(50 * time.Millisecond)

	b.MirrorState([]protocol.CharacterState{
		{Id: character.Id(1), X: 1, Y: 2, Z: 3, Orientation: 0, Attributes: map[string]string{"hp": "5"}},
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame jsonFrame
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "state", frame.Type)
	require.Len(t, frame.State, 1)
	require.Equal(t, uint64(1), frame.State[0].Id)
	require.Equal(t, "5", frame.State[0].Attributes["hp"])
}
