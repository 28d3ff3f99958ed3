package fanout

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 10
	sendBuffer     = 32
)

// Session is one live client connection. The only client-to-server traffic
// on this channel is the room join/leave primitive; all business commands
// go over plain HTTP.
type Session struct {
	hub    *Hub
	conn   *websocket.Conn
	userId string

	out  chan []byte
	once sync.Once

	mux   sync.Mutex
	rooms map[string]struct{}
}

// Serve registers the session and blocks until the connection dies. The
// caller has already authenticated userId; an unauthenticated handle must
// never reach this point.
func (h *Hub) Serve(conn *websocket.Conn, userId string) {
	s := &Session{
		hub:    h,
		conn:   conn,
		userId: userId,
		out:    make(chan []byte, sendBuffer),
		rooms:  make(map[string]struct{}),
	}
	h.add(s)
	go s.writePump()
	s.readPump()
}

func (s *Session) close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.out)
	})
}

// send never blocks; a slow consumer loses the message, not the process.
func (s *Session) send(msg []byte) {
	defer func() {
		// Losing the race with close() just means the delivery is dropped.
		recover()
	}()
	select {
	case s.out <- msg:
	default:
		log.Println("fanout: dropping event for slow session of user", s.userId)
	}
}

func (s *Session) inRoom(room string) bool {
	s.mux.Lock()
	_, ok := s.rooms[room]
	s.mux.Unlock()
	return ok
}

type clientCommand struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

func (s *Session) readPump() {
	defer func() {
		s.close()
		s.conn.Close()
	}()
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd clientCommand
		if json.Unmarshal(raw, &cmd) != nil || cmd.Room == "" {
			continue
		}
		s.mux.Lock()
		switch cmd.Action {
		case "join":
			s.rooms[cmd.Room] = struct{}{}
		case "leave":
			delete(s.rooms, cmd.Room)
		}
		s.mux.Unlock()
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.out:
			if !ok {
				s.conn.SetWriteDeadline(time.Now().Add(writeWait))
				s.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
