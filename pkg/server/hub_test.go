package server

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func TestHubBroadcast(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	h := newHub(m, quiet)
	a := newSubscriber(1, 4, "a")
	b := newSubscriber(2, 4, "b")
	h.add(a)
	h.add(b)

	if n := h.broadcast([]byte("x")); n != 2 {
		t.Errorf("broadcast delivered to %d, want 2", n)
	}
	if gaugeValue(t, m.subscribers) != 2 {
		t.Errorf("subscribers gauge = %v", gaugeValue(t, m.subscribers))
	}
	if len(a.send) != 1 || len(b.send) != 1 {
		t.Errorf("queues = %d, %d", len(a.send), len(b.send))
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	h := newHub(m, quiet)
	slow := newSubscriber(1, 1, "slow")
	fast := newSubscriber(2, 8, "fast")
	h.add(slow)
	h.add(fast)

	h.broadcast([]byte("1"))
	if n := h.broadcast([]byte("2")); n != 1 {
		t.Errorf("second broadcast delivered to %d, want 1", n)
	}

	select {
	case <-slow.done:
	default:
		t.Fatal("slow subscriber not closed")
	}
	if slow.reason != closeOverloaded {
		t.Errorf("reason = %v, want overloaded", slow.reason)
	}
	if h.len() != 1 {
		t.Errorf("len = %d, want 1", h.len())
	}
	if got := counterValue(t, m.dropped); got != 1 {
		t.Errorf("dropped = %v, want 1", got)
	}
	if len(fast.send) != 2 {
		t.Errorf("fast queue = %d, want 2", len(fast.send))
	}
}

func TestHubForgetsClosedSubscriber(t *testing.T) {
	h := newHub(nil, quiet)
	s := newSubscriber(1, 1, "gone")
	h.add(s)
	s.close(closeClient)

	if n := h.broadcast([]byte("x")); n != 0 {
		t.Errorf("delivered = %d", n)
	}
	if h.len() != 0 {
		t.Errorf("len = %d, want 0", h.len())
	}
	if s.reason != closeClient {
		t.Errorf("reason changed to %v", s.reason)
	}
}

func TestSubscriberCloseOnce(t *testing.T) {
	s := newSubscriber(1, 1, "x")
	if !s.close(closeShutdown) {
		t.Error("first close returned false")
	}
	if s.close(closeOverloaded) {
		t.Error("second close returned true")
	}
	if s.reason != closeShutdown {
		t.Errorf("reason = %v", s.reason)
	}
	if s.enqueue([]byte("x")) {
		t.Error("enqueue after close succeeded")
	}
}

func TestHubCloseAll(t *testing.T) {
	h := newHub(nil, quiet)
	subs := []*subscriber{newSubscriber(1, 1, "a"), newSubscriber(2, 1, "b")}
	for _, s := range subs {
		h.add(s)
	}
	h.closeAll(closeShutdown)
	for _, s := range subs {
		if s.reason != closeShutdown {
			t.Errorf("subscriber %d reason = %v", s.id, s.reason)
		}
	}
	if h.len() != 0 {
		t.Errorf("len = %d", h.len())
	}
}
