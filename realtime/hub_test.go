package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notesphere/backend/models"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	server := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	t.Cleanup(server.Close)
	return hub, server
}

func dialHub(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	// Registration races the dial response; give the run loop a beat.
	time.Sleep(50 * time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) models.NoteUpdateMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg models.NoteUpdateMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	hub, server := newTestHub(t)

	first := dialHub(t, server)
	second := dialHub(t, server)

	note := &models.Note{ID: 1, Content: "hello", UserID: 1}
	hub.Broadcast(models.EventNoteCreated, note)

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		assert.Equal(t, models.EventNoteCreated, msg.Type)
		require.NotNil(t, msg.Note)
		assert.Equal(t, int64(1), msg.Note.ID)
		assert.Equal(t, "hello", msg.Note.Content)
	}
}

func TestSameNoteEventsArriveInPublishOrder(t *testing.T) {
	hub, server := newTestHub(t)
	conn := dialHub(t, server)

	note := &models.Note{ID: 2, Content: "ordered", UserID: 1}
	published := []models.EventType{
		models.EventNoteCreated,
		models.EventSentimentUpdate,
		models.EventTitleUpdate,
		models.EventSummaryUpdate,
		models.EventEmbeddingUpdate,
	}
	for _, eventType := range published {
		hub.Broadcast(eventType, note)
	}

	var received []models.EventType
	for range published {
		received = append(received, readMessage(t, conn).Type)
	}
	assert.Equal(t, published, received)
}

func TestClosedSubscriberDoesNotAffectOthers(t *testing.T) {
	hub, server := newTestHub(t)

	doomed := dialHub(t, server)
	survivor := dialHub(t, server)

	require.NoError(t, doomed.Close())
	time.Sleep(50 * time.Millisecond)

	note := &models.Note{ID: 3, Content: "still here", UserID: 1}
	hub.Broadcast(models.EventNoteUpdated, note)

	msg := readMessage(t, survivor)
	assert.Equal(t, models.EventNoteUpdated, msg.Type)
	assert.Equal(t, int64(3), msg.Note.ID)
}

func TestLateSubscriberGetsNoReplay(t *testing.T) {
	hub, server := newTestHub(t)

	// Published into the void: nobody is connected yet.
	hub.Broadcast(models.EventNoteCreated, &models.Note{ID: 4, Content: "missed", UserID: 1})
	time.Sleep(50 * time.Millisecond)

	conn := dialHub(t, server)
	hub.Broadcast(models.EventTitleUpdate, &models.Note{ID: 4, Content: "missed", UserID: 1})

	msg := readMessage(t, conn)
	assert.Equal(t, models.EventTitleUpdate, msg.Type, "a late subscriber sees only events published after it connected")
}
