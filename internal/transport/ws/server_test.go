package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deckforge/collab-service/internal/collab"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConn struct {
	id       string
	mu       sync.Mutex
	received []collab.Envelope
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(msg collab.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, msg)
	return nil
}

func (m *mockConn) Close() error { return nil }

func (m *mockConn) byType(t string) []collab.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []collab.Envelope
	for _, e := range m.received {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestHandleMessage_Dispatch(t *testing.T) {
	relay := collab.NewRelay()
	srv := NewServer(relay, 16, time.Second)

	a := &mockConn{id: "a"}
	b := &mockConn{id: "b"}
	relay.Register(a)
	relay.Register(b)

	srv.handleMessage(a, []byte(`{"type":"join-session","payload":{"sessionId":"deck-1"}}`))
	srv.handleMessage(b, []byte(`{"type":"join-session","payload":{"sessionId":"deck-1"}}`))
	require.ElementsMatch(t, []string{"a", "b"}, relay.Roster("deck-1"))

	srv.handleMessage(a, []byte(`{"type":"slide-update","payload":{"sessionId":"deck-1","slide":{"id":"s1","title":"X"}}}`))

	got := b.byType(collab.TypeSlideUpdated)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"id":"s1","title":"X"}`, string(got[0].Payload.(json.RawMessage)))
	assert.Empty(t, a.byType(collab.TypeSlideUpdated))

	srv.handleMessage(a, []byte(`{"type":"slide-delete","payload":{"sessionId":"deck-1","slideId":"s1"}}`))
	deleted := b.byType(collab.TypeSlideDeleted)
	require.Len(t, deleted, 1)
	assert.JSONEq(t, `"s1"`, string(deleted[0].Payload.(json.RawMessage)))

	srv.handleMessage(a, []byte(`{"type":"typing-start","payload":{"sessionId":"deck-1","slideId":"s1"}}`))
	typing := b.byType(collab.TypeUserTyping)
	require.Len(t, typing, 1)
	tp := typing[0].Payload.(collab.UserTypingPayload)
	assert.Equal(t, "a", tp.ConnectionID)
	assert.True(t, tp.IsTyping)

	srv.handleMessage(a, []byte(`{"type":"leave-session","payload":{"sessionId":"deck-1"}}`))
	assert.ElementsMatch(t, []string{"b"}, relay.Roster("deck-1"))
}

func TestHandleMessage_IgnoresGarbage(t *testing.T) {
	relay := collab.NewRelay()
	srv := NewServer(relay, 16, time.Second)

	a := &mockConn{id: "a"}
	b := &mockConn{id: "b"}
	relay.Register(a)
	relay.Register(b)
	srv.handleMessage(a, []byte(`{"type":"join-session","payload":{"sessionId":"deck-1"}}`))
	srv.handleMessage(b, []byte(`{"type":"join-session","payload":{"sessionId":"deck-1"}}`))

	before := len(b.byType(collab.TypeSlideUpdated))

	srv.handleMessage(a, []byte(`not json at all`))
	srv.handleMessage(a, []byte(`{"type":"export-pdf","payload":{}}`))
	srv.handleMessage(a, []byte(`{"type":"slide-update","payload":"boom"}`))
	srv.handleMessage(a, []byte(`{"type":"slide-update","payload":{"slide":{"id":"s1"}}}`))

	assert.Len(t, b.byType(collab.TypeSlideUpdated), before)
	rooms, _ := relay.Stats()
	assert.Equal(t, 1, rooms)
}

// --- socket-level round trip ---

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

// readUntil skips frames until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", typ)
		var f frame
		require.NoError(t, json.Unmarshal(data, &f))
		if f.Type == typ {
			return f
		}
	}
}

func TestServer_EndToEnd(t *testing.T) {
	relay := collab.NewRelay()
	srv := NewServer(relay, 16, time.Second)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.HandleWS)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	a := dial(t, url)
	send(t, a, `{"type":"join-session","payload":{"sessionId":"deck-1"}}`)
	ack := readUntil(t, a, "joined-session")
	assert.JSONEq(t, `"deck-1"`, string(ack.Payload))

	var pa collab.PresencePayload
	require.NoError(t, json.Unmarshal(readUntil(t, a, "user-joined").Payload, &pa))
	aID := pa.ConnectionID
	assert.ElementsMatch(t, []string{aID}, pa.ActiveUsers)

	b := dial(t, url)
	send(t, b, `{"type":"join-session","payload":{"sessionId":"deck-1"}}`)
	readUntil(t, b, "joined-session")

	var pb collab.PresencePayload
	require.NoError(t, json.Unmarshal(readUntil(t, b, "user-joined").Payload, &pb))
	bID := pb.ConnectionID
	assert.ElementsMatch(t, []string{aID, bID}, pb.ActiveUsers)

	// A sees B arrive with the same roster
	require.NoError(t, json.Unmarshal(readUntil(t, a, "user-joined").Payload, &pa))
	assert.Equal(t, bID, pa.ConnectionID)
	assert.ElementsMatch(t, []string{aID, bID}, pa.ActiveUsers)

	// slide mutation reaches B verbatim
	send(t, a, `{"type":"slide-update","payload":{"sessionId":"deck-1","slide":{"id":"s1","title":"X"}}}`)
	upd := readUntil(t, b, "slide-updated")
	assert.JSONEq(t, `{"id":"s1","title":"X"}`, string(upd.Payload))

	// cursor gets the sender stamped in
	send(t, a, `{"type":"cursor-move","payload":{"sessionId":"deck-1","position":{"x":10,"y":20}}}`)
	var cur collab.CursorMovedPayload
	require.NoError(t, json.Unmarshal(readUntil(t, b, "cursor-moved").Payload, &cur))
	assert.Equal(t, aID, cur.ConnectionID)
	assert.JSONEq(t, `{"x":10,"y":20}`, string(cur.Position))

	// abrupt drop: no leave-session frame, just a dead TCP conn
	require.NoError(t, a.Close())

	var left collab.PresencePayload
	require.NoError(t, json.Unmarshal(readUntil(t, b, "user-left").Payload, &left))
	assert.Equal(t, aID, left.ConnectionID)
	assert.Equal(t, []string{bID}, left.ActiveUsers)

	require.Eventually(t, func() bool {
		ids := relay.Roster("deck-1")
		return len(ids) == 1 && ids[0] == bID
	}, 2*time.Second, 10*time.Millisecond)
}
