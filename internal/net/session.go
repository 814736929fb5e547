package net

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout   = 5 * time.Second
	sendBufferSize = 8
)

// session pumps state snapshots to one websocket client and feeds its
// movement intents back to the hub. All writes go through the send channel
// so a single goroutine owns the connection's write side; snapshots the
// writer cannot keep up with are skipped and the client sees the next frame.
type session struct {
	hub    Hub
	conn   *websocket.Conn
	id     string
	logger *log.Logger
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func newSession(hub Hub, conn *websocket.Conn, id string, logger *log.Logger) *session {
	return &session{
		hub:    hub,
		conn:   conn,
		id:     id,
		logger: logger,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// start subscribes to the hub and queues the initial state frame. It reports
// false when the hub does not know the player.
func (s *session) start() bool {
	initial, err := s.hub.StateSnapshot()
	if err != nil {
		s.logger.Printf("initial snapshot for %s failed: %v", s.id, err)
		return false
	}
	s.send <- initial
	if !s.hub.Subscribe(s.id, s.send) {
		return false
	}
	go s.writeLoop()
	return true
}

func (s *session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.close()
				return
			}
		}
	}
}

// enqueue offers data to the writer without ever blocking the caller.
func (s *session) enqueue(data []byte) {
	select {
	case s.send <- data:
	default:
	}
}

// readLoop blocks until the connection drops, handling intents and
// heartbeats.
func (s *session) readLoop() {
	defer s.close()
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Printf("discarding malformed message from %s: %v", s.id, err)
			continue
		}

		switch msg.Type {
		case "intent":
			s.hub.SetIntent(s.id, msg.DX, msg.DY)
		case "heartbeat":
			reply := heartbeatMessage{
				Ver:        1,
				Type:       "heartbeat",
				ServerTime: time.Now().UnixMilli(),
				ClientTime: msg.SentAt,
			}
			if data, err := json.Marshal(reply); err == nil {
				s.enqueue(data)
			}
		default:
			s.logger.Printf("unknown message type %q from %s", msg.Type, s.id)
		}
	}
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
		s.hub.Disconnect(s.id)
		s.conn.Close()
	})
}
