package session

import (
	"context"
	"sync"

	"github.com/sipward/sipsession/internal/types"
)

// EventHandler receives events published for a sender it subscribed to.
type EventHandler func(ctx context.Context, sender any, evt Event)

// EventBus delivers [Event] values to handlers subscribed by sender.
// The engine publishes transaction outcomes keyed by the transaction;
// sessions publish their lifecycle events keyed by themselves. Both sides
// of a session must share one bus.
type EventBus interface {
	// Subscribe registers fn for events published with the given sender.
	// The returned cancel function removes exactly this registration and
	// is safe to call more than once.
	Subscribe(sender any, fn EventHandler) (cancel func())
	// Publish delivers evt to every handler subscribed to sender.
	Publish(ctx context.Context, sender any, evt Event)
}

// Bus is the in-memory [EventBus]. Handlers run synchronously on the
// publisher's goroutine, in subscription order. Asynchrony comes from the
// publisher: the engine publishes from its own worker context.
type Bus struct {
	mu   sync.RWMutex
	subs map[any]*types.CallbackManager[EventHandler]
}

// NewBus creates an empty in-memory event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[any]*types.CallbackManager[EventHandler])}
}

// Subscribe implements [EventBus].
func (b *Bus) Subscribe(sender any, fn EventHandler) (cancel func()) {
	if sender == nil || fn == nil {
		return func() {}
	}

	// Add happens under the bus lock so that a concurrent cancel of the
	// last registration cannot delete the manager between lookup and Add,
	// which would leave this handler on a manager Publish never finds.
	b.mu.Lock()
	cm, ok := b.subs[sender]
	if !ok {
		cm = &types.CallbackManager[EventHandler]{}
		b.subs[sender] = cm
	}
	remove := cm.Add(fn)
	b.mu.Unlock()

	return func() {
		remove()
		b.mu.Lock()
		if cur, ok := b.subs[sender]; ok && cur == cm && cur.Len() == 0 {
			delete(b.subs, sender)
		}
		b.mu.Unlock()
	}
}

// Publish implements [EventBus]. Publishing to a sender without
// subscribers is a no-op.
func (b *Bus) Publish(ctx context.Context, sender any, evt Event) {
	if sender == nil || evt == nil {
		return
	}

	b.mu.RLock()
	cm := b.subs[sender]
	b.mu.RUnlock()

	cm.Range(func(fn EventHandler) { fn(ctx, sender, evt) })
}
