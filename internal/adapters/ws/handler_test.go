package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"subastas-service/internal/ports/outbound"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBroadcaster delivers events in-process and tracks subscription state
// so tests can observe teardown.
type fakeBroadcaster struct {
	mu       sync.Mutex
	topics   map[string]map[string]bool // clientID -> topic -> subscribed
	channels map[string]chan outbound.Event
	released []string // clientIDs torn down via UnsubscribeAll
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{
		topics:   make(map[string]map[string]bool),
		channels: make(map[string]chan outbound.Event),
	}
}

func (b *fakeBroadcaster) Subscribe(ctx context.Context, topic string, clientID string, eventChan chan outbound.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.topics[clientID] == nil {
		b.topics[clientID] = make(map[string]bool)
	}
	b.topics[clientID][topic] = true
	b.channels[clientID] = eventChan
	return nil
}

func (b *fakeBroadcaster) Unsubscribe(ctx context.Context, topic string, clientID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clientTopics := b.topics[clientID]; clientTopics != nil {
		delete(clientTopics, topic)
		if len(clientTopics) == 0 {
			delete(b.topics, clientID)
			delete(b.channels, clientID)
		}
	}
	return nil
}

func (b *fakeBroadcaster) UnsubscribeAll(ctx context.Context, clientID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.topics, clientID)
	delete(b.channels, clientID)
	b.released = append(b.released, clientID)
	return nil
}

func (b *fakeBroadcaster) Publish(ctx context.Context, topic string, event outbound.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	event.Topic = topic
	for clientID, clientTopics := range b.topics {
		if clientTopics[topic] {
			select {
			case b.channels[clientID] <- event:
			default:
			}
		}
	}
	return nil
}

func (b *fakeBroadcaster) IsSubscribed(ctx context.Context, topic string, clientID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.topics[clientID][topic]
}

func (b *fakeBroadcaster) subscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics)
}

func (b *fakeBroadcaster) releasedClients() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.released...)
}

func registerAndLogin(t *testing.T, ts *httptest.Server) string {
	t.Helper()

	resp := postJSON(t, ts.URL+"/auth/register", map[string]string{
		"email":    "oferente@subastas.ar",
		"password": "secreto1",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/auth/login", map[string]string{
		"email":    "oferente@subastas.ar",
		"password": "secreto1",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := decodeBody(t, resp)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func dialWS(t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestDisconnectReleasesSubscriptions(t *testing.T) {
	ts, _, bc := newTestServer(t)
	token := registerAndLogin(t, ts)

	conn := dialWS(t, ts, token)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":  "subscribe",
		"topic": outbound.TopicAuctions,
	}))

	var reply ServerMessage
	require.NoError(t, conn.ReadJSON(&reply))
	require.Equal(t, "subscribed", reply.Data["status"])
	require.Equal(t, 1, bc.subscriberCount())

	conn.Close()

	// The drop-side teardown owns the subscription; the client never sent
	// an unsubscribe
	assert.Eventually(t, func() bool {
		return bc.subscriberCount() == 0 && len(bc.releasedClients()) == 1
	}, 2*time.Second, 10*time.Millisecond, "subscriptions not released after disconnect")
}

func TestRejectedMessageGetsErrorReply(t *testing.T) {
	ts, _, _ := newTestServer(t)
	token := registerAndLogin(t, ts)

	conn := dialWS(t, ts, token)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "explode"}))

	var errReply ServerMessage
	require.NoError(t, conn.ReadJSON(&errReply))
	assert.Equal(t, MessageTypeError, errReply.Type)
	require.NotNil(t, errReply.Error)
	assert.Contains(t, *errReply.Error, "unknown message type")

	// The connection survives the rejection and keeps serving queued
	// replies in order
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))

	var pong ServerMessage
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, MessageTypePong, pong.Type)
}
