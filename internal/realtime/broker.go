package realtime

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/go-redis/redis/v8"
)

// Broker moves published events to every hub attached to it.
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	Attach(deliver func(Event))
	Close() error
}

// LocalBroker delivers in-process, synchronously.
type LocalBroker struct {
	mu      sync.RWMutex
	deliver func(Event)
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{}
}

func (b *LocalBroker) Attach(deliver func(Event)) {
	b.mu.Lock()
	b.deliver = deliver
	b.mu.Unlock()
}

func (b *LocalBroker) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	deliver := b.deliver
	b.mu.RUnlock()
	if deliver != nil {
		deliver(ev)
	}
	return nil
}

func (b *LocalBroker) Close() error { return nil }

// RedisBroker shares events between server instances over Redis pub/sub.
type RedisBroker struct {
	client  *redis.Client
	channel string

	cancel context.CancelFunc
	done   chan struct{}
}

const DefaultRedisChannel = "fleamarket:events"

// NewRedisClient accepts a redis:// URL or a bare host:port.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if strings.Contains(redisURL, "://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, err
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

func NewRedisBroker(client *redis.Client, channel string) *RedisBroker {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisBroker{client: client, channel: channel}
}

func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

// Attach subscribes to the channel and feeds every message to deliver until Close.
func (b *RedisBroker) Attach(deliver func(Event)) {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	pubsub := b.client.Subscribe(ctx, b.channel)

	go func() {
		defer close(b.done)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("[realtime] drop malformed event channel=%s err=%v", b.channel, err)
					continue
				}
				deliver(ev)
			}
		}
	}()
	log.Printf("[realtime] redis broker attached channel=%s", b.channel)
}

func (b *RedisBroker) Close() error {
	if b.cancel != nil {
		b.cancel()
		<-b.done
	}
	return b.client.Close()
}
