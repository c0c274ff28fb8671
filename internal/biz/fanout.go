package biz

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"VisionGuard/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// StatusListener receives aggregate status snapshots after poll cycles that
// observed a change. Listeners must treat the snapshot as read-only.
type StatusListener func(ctx context.Context, snapshot *model.StatusSnapshot) error

// Subscription is the opaque handle returned by Register and consumed by
// Unregister. Handles are never reused within a process lifetime.
type Subscription struct {
	id uint64
}

// StatusFanout is a typed listener registry. Dispatch is sequential and each
// listener runs in its own failure domain: an error or panic is logged and
// never reaches the other listeners or the poller.
type StatusFanout struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[uint64]StatusListener

	logger *log.Helper
}

// NewStatusFanout creates an empty listener registry.
func NewStatusFanout(logger log.Logger) *StatusFanout {
	return &StatusFanout{
		listeners: make(map[uint64]StatusListener),
		logger:    log.NewHelper(logger),
	}
}

// Register adds a listener and returns its handle.
func (f *StatusFanout) Register(listener StatusListener) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := f.nextID
	f.listeners[id] = listener

	f.logger.Debugw("status listener registered", "subscription_id", id)
	return &Subscription{id: id}
}

// Unregister removes a listener. Removing an already-removed or nil handle
// is a no-op; the listener receives no further notifications afterwards.
func (f *StatusFanout) Unregister(sub *Subscription) {
	if sub == nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.listeners, sub.id)
	f.logger.Debugw("status listener unregistered", "subscription_id", sub.id)
}

// Notify dispatches the snapshot to every registered listener sequentially,
// in registration order. The listener set is copied under the lock so
// listeners may register or unregister from within a callback.
func (f *StatusFanout) Notify(ctx context.Context, snapshot *model.StatusSnapshot) {
	type entry struct {
		id       uint64
		listener StatusListener
	}

	f.mu.RLock()
	entries := make([]entry, 0, len(f.listeners))
	for id, l := range f.listeners {
		entries = append(entries, entry{id: id, listener: l})
	}
	f.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	for _, e := range entries {
		f.dispatch(ctx, e.id, e.listener, snapshot)
	}
}

// dispatch invokes one listener with panic isolation.
func (f *StatusFanout) dispatch(ctx context.Context, id uint64, listener StatusListener, snapshot *model.StatusSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Errorw("status listener panicked",
				"subscription_id", id,
				"panic", fmt.Sprint(r))
		}
	}()

	if err := listener(ctx, snapshot); err != nil {
		f.logger.Warnw("status listener failed",
			"subscription_id", id,
			"error", err)
	}
}
