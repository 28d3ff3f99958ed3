package fanout

import (
	"encoding/json"
	"log"
	"sync"
)

// Event is the wire envelope pushed to clients.
type Event struct {
	Event string          `json:"event"`
	Room  string          `json:"room,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub is the process-wide directory of live sessions per user identity.
// It is an owned registry constructed once at startup and handed to the
// server, never a package global. It is purely an optimization layer over
// persisted state: a dropped delivery is not data loss, clients can always
// re-read.
type Hub struct {
	mux      sync.Mutex
	sessions map[string]map[*Session]struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[*Session]struct{}),
	}
}

func (h *Hub) add(s *Session) {
	h.mux.Lock()
	set := h.sessions[s.userId]
	if set == nil {
		set = make(map[*Session]struct{})
		h.sessions[s.userId] = set
	}
	set[s] = struct{}{}
	h.mux.Unlock()
}

func (h *Hub) remove(s *Session) {
	h.mux.Lock()
	if set := h.sessions[s.userId]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(h.sessions, s.userId)
		}
	}
	h.mux.Unlock()
}

// SessionCount reports how many live sessions the user has.
func (h *Hub) SessionCount(userId string) int {
	h.mux.Lock()
	n := len(h.sessions[userId])
	h.mux.Unlock()
	return n
}

// InRoom reports whether any of the user's sessions joined the room.
func (h *Hub) InRoom(userId, room string) bool {
	h.mux.Lock()
	defer h.mux.Unlock()
	for s := range h.sessions[userId] {
		if s.inRoom(room) {
			return true
		}
	}
	return false
}

// Emit delivers the event to every live session of the user. Fire and
// forget: no registered session means the event is silently dropped, a full
// session buffer drops just that session's copy. Never an error for the
// caller; the originating operation has already committed.
func (h *Hub) Emit(userId, event string, payload interface{}) {
	h.deliver(userId, "", event, payload)
}

// EmitRoom delivers only to the user's sessions that joined the room; used
// for UI-level filtering like per-deal message threads.
func (h *Hub) EmitRoom(userId, room, event string, payload interface{}) {
	h.deliver(userId, room, event, payload)
}

func (h *Hub) deliver(userId, room, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Println("fanout: unmarshalable payload for", event, err)
		return
	}
	msg, err := json.Marshal(Event{Event: event, Room: room, Data: data})
	if err != nil {
		log.Println("fanout: envelope encode failed for", event, err)
		return
	}

	h.mux.Lock()
	targets := make([]*Session, 0, len(h.sessions[userId]))
	for s := range h.sessions[userId] {
		targets = append(targets, s)
	}
	h.mux.Unlock()

	for _, s := range targets {
		if room != "" && !s.inRoom(room) {
			continue
		}
		s.send(msg)
	}
}
