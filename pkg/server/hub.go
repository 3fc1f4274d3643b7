package server

import (
	"log/slog"
	"sync"
)

// closeReason tells the write loop what to send before closing.
type closeReason uint8

const (
	closeClient     closeReason = iota // Peer went away or a write failed
	closeOverloaded                    // Queue overflowed
	closeShutdown                      // Server is shutting down
)

// subscriber is one stream connection. Frames are queued on send and
// written by a single goroutine.
type subscriber struct {
	id     uint64
	remote string
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	reason closeReason // written once before done is closed
}

func newSubscriber(id uint64, buffer int, remote string) *subscriber {
	return &subscriber{
		id:     id,
		remote: remote,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

// close marks the subscriber closed. Only the first reason sticks.
func (s *subscriber) close(reason closeReason) bool {
	closed := false
	s.once.Do(func() {
		s.reason = reason
		close(s.done)
		closed = true
	})
	return closed
}

// enqueue queues msg without blocking and reports whether it was queued.
func (s *subscriber) enqueue(msg []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- msg:
		return true
	default:
		return false
	}
}

// hub fans frames out to subscribers.
type hub struct {
	mu      sync.Mutex
	subs    map[uint64]*subscriber
	metrics *Metrics
	logger  *slog.Logger
}

func newHub(metrics *Metrics, logger *slog.Logger) *hub {
	return &hub{
		subs:    make(map[uint64]*subscriber),
		metrics: metrics,
		logger:  logger,
	}
}

func (h *hub) add(s *subscriber) {
	h.mu.Lock()
	h.subs[s.id] = s
	n := len(h.subs)
	h.mu.Unlock()
	h.metrics.setSubscribers(n)
}

func (h *hub) remove(s *subscriber) bool {
	h.mu.Lock()
	_, ok := h.subs[s.id]
	delete(h.subs, s.id)
	n := len(h.subs)
	h.mu.Unlock()
	if ok {
		h.metrics.setSubscribers(n)
	}
	return ok
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// broadcast queues msg for every subscriber and returns how many took it.
// A subscriber with a full queue is removed and closed as overloaded.
func (h *hub) broadcast(msg []byte) int {
	h.mu.Lock()
	delivered := 0
	var dropped []*subscriber
	for id, s := range h.subs {
		select {
		case <-s.done:
			delete(h.subs, id)
			continue
		default:
		}
		if s.enqueue(msg) {
			delivered++
			continue
		}
		delete(h.subs, id)
		dropped = append(dropped, s)
	}
	n := len(h.subs)
	h.mu.Unlock()

	for _, s := range dropped {
		if s.close(closeOverloaded) {
			h.metrics.drop()
			h.logger.Warn("subscriber fell behind, dropped", "subscriber", s.id, "remote", s.remote)
		}
	}
	h.metrics.setSubscribers(n)
	return delivered
}

// closeAll closes and forgets every subscriber.
func (h *hub) closeAll(reason closeReason) {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[uint64]*subscriber)
	h.mu.Unlock()

	for _, s := range subs {
		s.close(reason)
	}
	h.metrics.setSubscribers(0)
}
