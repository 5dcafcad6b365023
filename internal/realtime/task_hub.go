package realtime

import (
	"log"
	"net/http"
	"sync"

	"immitrack/internal/models"
)

// sendBuffer is how many events a subscriber may fall behind before it is dropped.
const sendBuffer = 16

type subscriber struct {
	person string
	send   chan models.TaskEvent
}

// TaskHub fans task events out to every connected dashboard. Each subscriber
// has its own queue and writer goroutine, so Publish never waits on a socket.
type TaskHub struct {
	mu    sync.RWMutex
	conns map[*Conn]*subscriber
}

func NewTaskHub() *TaskHub {
	return &TaskHub{conns: make(map[*Conn]*subscriber)}
}

func (h *TaskHub) Register(conn *Conn, person string) {
	sub := &subscriber{person: person, send: make(chan models.TaskEvent, sendBuffer)}
	h.mu.Lock()
	h.conns[conn] = sub
	h.mu.Unlock()
	go h.writeLoop(conn, sub)
}

func (h *TaskHub) Unregister(conn *Conn) {
	h.mu.Lock()
	sub, ok := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()
	if ok {
		close(sub.send)
		_ = conn.Close()
	}
}

func (h *TaskHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Publish queues the event for every subscriber. A subscriber whose queue is
// full is dropped; it reloads on reconnect.
func (h *TaskHub) Publish(ev models.TaskEvent) {
	var slow []*Conn
	h.mu.RLock()
	for c, sub := range h.conns {
		select {
		case sub.send <- ev:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Printf("[ws][publish][err] subscriber %q too slow, dropping", h.person(c))
		h.Unregister(c)
	}
}

func (h *TaskHub) person(c *Conn) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if sub, ok := h.conns[c]; ok {
		return sub.person
	}
	return ""
}

func (h *TaskHub) writeLoop(conn *Conn, sub *subscriber) {
	for ev := range sub.send {
		if err := conn.WriteJSON(ev); err != nil {
			log.Printf("[ws][write][err] person=%q: %v", sub.person, err)
			h.Unregister(conn)
			return
		}
	}
}

// Serve upgrades the request and keeps the subscriber until it disconnects.
func (h *TaskHub) Serve(w http.ResponseWriter, r *http.Request, person string) error {
	conn, err := Upgrade(w, r)
	if err != nil {
		return err
	}
	// tell the client to fetch a fresh snapshot
	if err := conn.WriteJSON(models.TaskEvent{Type: models.EventReloaded}); err != nil {
		_ = conn.Close()
		return nil
	}
	h.Register(conn, person)
	log.Printf("[ws][open] person=%q subscribers=%d", person, h.Count())
	for {
		if _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.Unregister(conn)
	log.Printf("[ws][close] person=%q", person)
	return nil
}
