package realtime

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/notesphere/backend/models"
)

const (
	writeWait       = 10 * time.Second
	sendBufferSize  = 16
	broadcastBuffer = 64
)

// subscriber is one connected websocket client on the shared topic.
type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan models.NoteUpdateMessage
}

// Hub fans every note mutation out to all subscribers of the single shared
// topic. One run loop serializes broadcasts, so each subscriber sees events
// for a given note in publish order. Delivery is at-most-once and there is no
// replay: subscribers that connect after an event never see it, and a
// subscriber that cannot keep up is dropped without affecting the others or
// the publisher.
type Hub struct {
	upgrader    websocket.Upgrader
	register    chan *subscriber
	unregister  chan *subscriber
	broadcast   chan models.NoteUpdateMessage
	subscribers map[string]*subscriber
}

// NewHub creates a Hub. Call Run in its own goroutine before broadcasting.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The topic is world-readable; access control lives upstream.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		broadcast:   make(chan models.NoteUpdateMessage, broadcastBuffer),
		subscribers: make(map[string]*subscriber),
	}
}

// Run owns the subscriber set. It must be the only goroutine touching it.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.subscribers[sub.id] = sub
			log.Printf("HUB: subscriber %s connected (%d total)", sub.id, len(h.subscribers))

		case sub := <-h.unregister:
			if _, ok := h.subscribers[sub.id]; ok {
				delete(h.subscribers, sub.id)
				close(sub.send)
				log.Printf("HUB: subscriber %s disconnected (%d total)", sub.id, len(h.subscribers))
			}

		case msg := <-h.broadcast:
			for id, sub := range h.subscribers {
				select {
				case sub.send <- msg:
				default:
					// Subscriber can't keep up; drop it rather than stall
					// the topic for everyone else.
					delete(h.subscribers, id)
					close(sub.send)
					log.Printf("HUB: dropped slow subscriber %s", id)
				}
			}
		}
	}
}

// Broadcast publishes one event to every currently connected subscriber. It
// never returns an error: delivery problems are handled per subscriber inside
// the hub and must not reach the storage operation that triggered the event.
func (h *Hub) Broadcast(eventType models.EventType, note *models.Note) {
	h.broadcast <- models.NoteUpdateMessage{Type: eventType, Note: note}
}

// HandleConnection upgrades an HTTP request to a websocket subscription on
// the shared topic.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("HUB: websocket upgrade failed: %v", err)
		return
	}

	sub := &subscriber{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan models.NoteUpdateMessage, sendBufferSize),
	}
	h.register <- sub

	go sub.writePump(h)
	go sub.readPump(h)
}

// writePump delivers broadcasts to this subscriber until its send channel is
// closed or a write fails.
func (s *subscriber) writePump(h *Hub) {
	defer s.conn.Close()
	for msg := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteJSON(msg); err != nil {
			log.Printf("HUB: write to subscriber %s failed: %v", s.id, err)
			h.unregister <- s
			return
		}
	}
}

// readPump discards inbound frames; the topic is publish-only. Its real job
// is to notice the peer going away.
func (s *subscriber) readPump(h *Hub) {
	defer s.conn.Close()
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			h.unregister <- s
			return
		}
	}
}
