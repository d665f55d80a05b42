package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

const DefaultBuffer = 64

// Loader reads the current state of a topic for the initial snapshot.
type Loader func(ctx context.Context) (any, error)

type Hub struct {
	broker Broker
	buffer int

	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

func NewHub(broker Broker) *Hub {
	if broker == nil {
		broker = NewLocalBroker()
	}
	h := &Hub{
		broker: broker,
		buffer: DefaultBuffer,
		subs:   make(map[string]map[*Subscription]struct{}),
	}
	broker.Attach(h.dispatch)
	return h
}

// Subscription receives a snapshot and then the deltas of one topic.
type Subscription struct {
	hub   *Hub
	uid   string
	topic string
	ch    chan Event
	quit  chan struct{}

	// guarded by hub.mu
	loading bool
	pending []Event
	closed  bool
	once    sync.Once
}

// Events is closed when the subscription ends, including when it was dropped
// for falling behind.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Subscribe registers first and loads second, so deltas published while the
// snapshot is being read are queued and delivered right after it.
func (h *Hub) Subscribe(ctx context.Context, uid, topic string, load Loader) (*Subscription, error) {
	sub := &Subscription{
		hub:     h,
		uid:     uid,
		topic:   topic,
		ch:      make(chan Event, h.buffer),
		quit:    make(chan struct{}),
		loading: true,
	}
	h.mu.Lock()
	set, ok := h.subs[topic]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[topic] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	state, err := load(ctx)
	if err != nil {
		sub.Close()
		return nil, err
	}
	data, err := json.Marshal(state)
	if err != nil {
		sub.Close()
		return nil, err
	}

	h.mu.Lock()
	if sub.closed {
		h.mu.Unlock()
		return sub, nil
	}
	sub.ch <- Event{Topic: topic, Type: EventSnapshot, Data: data}
	for _, ev := range sub.pending {
		select {
		case sub.ch <- ev:
		default:
			h.dropLocked(sub)
		}
		if sub.closed {
			break
		}
	}
	sub.pending = nil
	sub.loading = false
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.quit:
		}
	}()
	return sub, nil
}

// Publish hands the event to the broker; delivery to local subscribers happens
// when the broker calls back.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	return h.broker.Publish(ctx, ev)
}

func (h *Hub) dispatch(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[ev.Topic] {
		if !ev.VisibleTo(sub.uid) {
			continue
		}
		if sub.loading {
			if len(sub.pending) >= h.buffer {
				h.dropLocked(sub)
				continue
			}
			sub.pending = append(sub.pending, ev)
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			h.dropLocked(sub)
		}
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) dropLocked(sub *Subscription) {
	log.Printf("[realtime] drop slow subscriber uid=%s topic=%s", sub.uid, sub.topic)
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *Subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	if set, ok := h.subs[sub.topic]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.topic)
		}
	}
	close(sub.ch)
	close(sub.quit)
}

// Count returns the number of live subscriptions on topic.
func (h *Hub) Count(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}

func (h *Hub) Close() error {
	h.mu.Lock()
	for _, set := range h.subs {
		for sub := range set {
			h.removeLocked(sub)
		}
	}
	h.mu.Unlock()
	return h.broker.Close()
}
