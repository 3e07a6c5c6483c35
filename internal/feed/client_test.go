package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockFeedServer cria um servidor WebSocket de teste; handler recebe cada mensagem do cliente
func mockFeedServer(t *testing.T, handler func(conn *websocket.Conn, msg ClientMessage) bool) *httptest.Server {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		for {
			var msg ClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if !handler(conn, msg) {
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func startClient(t *testing.T, server *httptest.Server) (*WSClient, context.CancelFunc) {
	t.Helper()
	client := NewWSClient(wsURL(server), 20*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go client.Start(ctx)

	waitForState(t, client, func(s ConnectionState) bool { return s.Status == StatusConnected })
	return client, cancel
}

func waitForState(t *testing.T, client *WSClient, pred func(ConnectionState) bool) ConnectionState {
	t.Helper()
	states, cancel := client.ConnectionStates()
	defer cancel()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			if pred(s) {
				return s
			}
		case <-timeout:
			t.Fatalf("timed out waiting for connection state, last=%+v", client.State())
		}
	}
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "stream closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed event")
		return Event{}
	}
}

func TestWSClient_SubscribeReceivesHandleAndUpdate(t *testing.T) {
	server := mockFeedServer(t, func(conn *websocket.Conn, msg ClientMessage) bool {
		if msg.Type != MsgSubscribe {
			return true
		}
		_ = conn.WriteJSON(ServerMessage{Type: MsgSubscribed, OutcomeID: msg.OutcomeID, Handle: "h-1"})
		_ = conn.WriteJSON(ServerMessage{
			Type:      MsgUpdate,
			OutcomeID: msg.OutcomeID,
			Event: &Match{
				ID: msg.EventID,
				Markets: []Market{{
					ID:       "mkt-1",
					Outcomes: []Outcome{{ID: msg.OutcomeID, Odd: decimal.RequireFromString("1.85"), Available: true}},
				}},
			},
		})
		return true
	})
	defer server.Close()

	client, cancel := startClient(t, server)
	defer cancel()

	events, err := client.SubscribeToSingleOutcome(context.Background(), "MATCH_001", "out-1")
	require.NoError(t, err)

	ev := nextEvent(t, events)
	assert.Equal(t, EventConnected, ev.Type)
	assert.Equal(t, "h-1", ev.Handle)

	ev = nextEvent(t, events)
	require.Equal(t, EventContentUpdate, ev.Type)
	require.Len(t, ev.Match.Markets, 1)
	assert.Equal(t, "MATCH_001", ev.Match.ID)
	assert.True(t, ev.Match.Markets[0].Outcomes[0].Odd.Equal(decimal.RequireFromString("1.85")))
}

func TestWSClient_ResourceUnavailableEndsStream(t *testing.T) {
	server := mockFeedServer(t, func(conn *websocket.Conn, msg ClientMessage) bool {
		if msg.Type == MsgSubscribe {
			_ = conn.WriteJSON(ServerMessage{Type: MsgError, OutcomeID: msg.OutcomeID, Code: CodeResourceDeleted, Message: "outcome suspended"})
		}
		return true
	})
	defer server.Close()

	client, cancel := startClient(t, server)
	defer cancel()

	events, err := client.SubscribeToSingleOutcome(context.Background(), "MATCH_001", "out-1")
	require.NoError(t, err)

	ev := nextEvent(t, events)
	require.Equal(t, EventFailed, ev.Type)
	assert.ErrorIs(t, ev.Err, ErrResourceUnavailable)

	_, ok := <-events
	assert.False(t, ok)
}

func TestWSClient_DropClosesStreamsAndReconnects(t *testing.T) {
	server := mockFeedServer(t, func(conn *websocket.Conn, msg ClientMessage) bool {
		// Derruba a conexão ao receber a primeira assinatura
		return msg.Type != MsgSubscribe
	})
	defer server.Close()

	client, cancel := startClient(t, server)
	defer cancel()
	first := client.State().Generation

	events, err := client.SubscribeToSingleOutcome(context.Background(), "MATCH_001", "out-1")
	require.NoError(t, err)

	ev := nextEvent(t, events)
	assert.Equal(t, EventDisconnected, ev.Type)
	_, ok := <-events
	assert.False(t, ok)

	st := waitForState(t, client, func(s ConnectionState) bool {
		return s.Status == StatusConnected && s.Generation > first
	})
	assert.Equal(t, first+1, st.Generation)
}

func TestWSClient_SubscribeWhileDisconnected(t *testing.T) {
	client := NewWSClient("ws://127.0.0.1:1/ws", time.Second, zap.NewNop())

	_, err := client.SubscribeToSingleOutcome(context.Background(), "MATCH_001", "out-1")
	assert.ErrorIs(t, err, ErrNotConnected)
}
