// Package live fans out points activity to connected clients. Each client id
// has a stream with a bounded backlog that new subscribers receive first.
package live

import (
	"errors"
	"strings"
	"sync"

	"github.com/messismo/bar/internal/config"
)

const (
	DefaultBufferSize       = 50
	DefaultSubscriberBuffer = 16
)

type Event struct {
	ClientID   string  `json:"client_id"`
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`
	Balance    float64 `json:"balance"`
	Source     string  `json:"source"`
	OccurredAt string  `json:"occurred_at"`
}

type Hub struct {
	mu               sync.RWMutex
	streams          map[string]*stream
	bufferSize       func() int
	subscriberBuffer int
}

type stream struct {
	mu     sync.Mutex
	buffer []Event
	subs   map[uint64]chan Event
	nextID uint64
}

type Subscription struct {
	hub      *Hub
	clientID string
	id       uint64
	ch       chan Event
	once     sync.Once
}

// NewHub sizes backlogs from the hot-reloaded loyalty config.
func NewHub(holder *config.LoyaltyConfigHolder) *Hub {
	return &Hub{
		streams:          make(map[string]*stream),
		bufferSize:       func() int { return holder.Get().LiveBufferSize },
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

// Publish records event for clientID. Events for clients nobody watches are
// dropped; slow subscribers miss events instead of blocking the publisher.
func (h *Hub) Publish(clientID string, event Event) {
	if h == nil {
		return
	}
	id := strings.TrimSpace(clientID)
	if id == "" {
		return
	}
	h.mu.RLock()
	s := h.streams[id]
	h.mu.RUnlock()
	if s == nil {
		return
	}

	limit := h.limit()
	s.mu.Lock()
	s.buffer = append(s.buffer, event)
	if len(s.buffer) > limit {
		s.buffer = s.buffer[len(s.buffer)-limit:]
	}
	subs := make([]chan Event, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *Hub) Subscribe(clientID string) (*Subscription, []Event, error) {
	if h == nil {
		return nil, nil, errors.New("hub_unavailable")
	}
	id := strings.TrimSpace(clientID)
	if id == "" {
		return nil, nil, errors.New("invalid_client_id")
	}

	s := h.ensureStream(id)
	s.mu.Lock()
	subID := s.nextID
	s.nextID++
	ch := make(chan Event, h.subscriberBuffer)
	s.subs[subID] = ch
	backlog := append([]Event(nil), s.buffer...)
	s.mu.Unlock()

	return &Subscription{hub: h, clientID: id, id: subID, ch: ch}, backlog, nil
}

func (h *Hub) limit() int {
	if h.bufferSize == nil {
		return DefaultBufferSize
	}
	if n := h.bufferSize(); n > 0 {
		return n
	}
	return DefaultBufferSize
}

func (h *Hub) ensureStream(clientID string) *stream {
	h.mu.RLock()
	current := h.streams[clientID]
	h.mu.RUnlock()
	if current != nil {
		return current
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	current = h.streams[clientID]
	if current == nil {
		current = &stream{subs: make(map[uint64]chan Event)}
		h.streams[clientID] = current
	}
	return current
}

// unsubscribe drops the stream, backlog included, once its last subscriber leaves.
func (h *Hub) unsubscribe(clientID string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.streams[clientID]
	if s == nil {
		return
	}
	s.mu.Lock()
	delete(s.subs, id)
	empty := len(s.subs) == 0
	s.mu.Unlock()
	if empty {
		delete(h.streams, clientID)
	}
}

func (s *Subscription) Events() <-chan Event {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.clientID, s.id)
	})
}
