// Package pubsub carries registry events across goroutines.
//
// The event registry is single-threaded: listeners run on the dispatching
// goroutine. A Broker lets other goroutines follow a handler through
// buffered channels instead. Forward attaches a listener that republishes
// every dispatch to a broker.
package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zjrosen/eventlink/internal/event"
)

const defaultBufferSize = 64

// Topic names the stream a message was published on.
type Topic string

const (
	TopicLog           Topic = "log.entry"
	TopicConfigApplied Topic = "config.applied"
	TopicConfigFailed  Topic = "config.failed"
)

// Message is one published payload.
type Message[T any] struct {
	Topic   Topic
	Seq     uint64
	Payload T
	Time    time.Time
}

// Broker fans messages out to channel subscribers. It is safe for
// concurrent use. Slow subscribers lose messages rather than block the
// publisher; Dropped counts them.
type Broker[T any] struct {
	mu         sync.RWMutex
	subs       map[chan Message[T]]struct{}
	done       chan struct{}
	bufferSize int
	seq        atomic.Uint64
	dropped    atomic.Uint64
}

// NewBroker creates a broker with the default buffer size (64).
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer creates a broker whose subscriber channels hold size
// messages.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return &Broker[T]{
		subs:       make(map[chan Message[T]]struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// Subscribe returns a channel receiving every later message. The channel
// is closed when ctx is done or the broker closes.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Message[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed() {
		ch := make(chan Message[T])
		close(ch)
		return ch
	}

	sub := make(chan Message[T], b.bufferSize)
	b.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed() {
			return
		}
		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// Publish sends payload to every subscriber without blocking.
func (b *Broker[T]) Publish(topic Topic, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed() {
		return
	}

	msg := Message[T]{
		Topic:   topic,
		Seq:     b.seq.Add(1),
		Payload: payload,
		Time:    time.Now(),
	}
	for sub := range b.subs {
		select {
		case sub <- msg:
		default:
			b.dropped.Add(1)
		}
	}
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed() {
		return
	}
	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// SubscriberCount returns the number of open subscriptions.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber's
// buffer was full.
func (b *Broker[T]) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *Broker[T]) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// Forward returns a listener that publishes each argument it is invoked
// with on topic. Subscribe it to any handler; close it to stop forwarding.
func Forward[T any](b *Broker[T], topic Topic) *event.Listener[T] {
	return event.NewListener(func(v T) {
		b.Publish(topic, v)
	})
}
