package repository

import (
	"context"
	"sync"

	"tab_chat_sync/internal/chat/domain"
)

// ChangeFeed best-effort broadcast of key changes to the other live contexts
// A subscriber never receives events whose Origin is its own context id.
// Handlers run on the delivering goroutine and must not block.
type ChangeFeed interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
	Subscribe(ctx context.Context, contextID string, handler func(domain.ChangeEvent)) (func(), error)
}

// MemoryBus in-process ChangeFeed
type MemoryBus struct {
	mu   sync.RWMutex
	next int
	subs map[int]memorySub
}

type memorySub struct {
	contextID string
	handler   func(domain.ChangeEvent)
}

// NewMemoryBus create MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]memorySub)}
}

func (b *MemoryBus) Publish(_ context.Context, ev domain.ChangeEvent) error {
	b.mu.RLock()
	targets := make([]func(domain.ChangeEvent), 0, len(b.subs))
	for _, s := range b.subs {
		if s.contextID != ev.Origin {
			targets = append(targets, s.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range targets {
		h(ev)
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, contextID string, handler func(domain.ChangeEvent)) (func(), error) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = memorySub{contextID: contextID, handler: handler}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}, nil
}

// Subscribers number of live subscriptions
func (b *MemoryBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
