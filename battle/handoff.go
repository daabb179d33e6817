// Package battle buffers battle-log frames for a room until its delegate
// is ready, then replays them in arrival order exactly once.
package battle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"pschat/contract"
	"pschat/errs"
)

// queueLimit bounds the pre-attach frame queue. Without a delegate
// loader no delegate ever attaches, so the queue would otherwise grow
// for the room's whole lifetime; past the limit the oldest frame drops.
const queueLimit = 1000

// Handoff is the per-room two-state frame router. Before Attach, Feed
// queues. After Attach, Feed forwards directly and the queue is gone.
type Handoff struct {
	log    *slog.Logger
	roomID string

	mu       sync.Mutex
	delegate contract.BattleDelegate
	queue    []string
	dropped  int
	request  json.RawMessage
}

func NewHandoff(log *slog.Logger, roomID string) *Handoff {
	return &Handoff{log: log, roomID: roomID}
}

// Feed routes one raw protocol line. Delegate errors surface but do not
// tear the session down; the stream continues.
func (h *Handoff) Feed(line string) error {
	h.mu.Lock()
	if h.delegate == nil {
		if len(h.queue) >= queueLimit {
			h.queue = h.queue[1:]
			h.dropped++
			if h.dropped == 1 {
				h.log.Warn("battle frame queue full, dropping oldest", "room", h.roomID)
			}
		}
		h.queue = append(h.queue, line)
		h.mu.Unlock()
		return nil
	}
	d := h.delegate
	h.mu.Unlock()
	if err := d.Feed(line); err != nil {
		return fmt.Errorf("battle delegate feed in %s: %w", h.roomID, err)
	}
	return nil
}

// Attach transitions to the ready state: queued frames replay in order,
// then the queue is discarded. Attaching twice is a no-op.
func (h *Handoff) Attach(delegate contract.BattleDelegate) error {
	h.mu.Lock()
	if h.delegate != nil {
		h.mu.Unlock()
		h.log.Warn("battle delegate already attached", "room", h.roomID)
		return nil
	}
	h.delegate = delegate
	pending := h.queue
	h.queue = nil
	h.mu.Unlock()

	for _, line := range pending {
		if err := delegate.Feed(line); err != nil {
			return fmt.Errorf("replaying battle frame in %s: %w", h.roomID, err)
		}
	}
	return nil
}

// Ready reports whether the delegate is attached.
func (h *Handoff) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.delegate != nil
}

// Queued is the number of frames waiting for the delegate.
func (h *Handoff) Queued() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

// SetRequest buffers the most recent |request| payload so it can be
// re-emitted to late observers.
func (h *Handoff) SetRequest(raw json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.request = raw
}

// Request returns the buffered |request| payload, preferring the
// delegate's own view once attached.
func (h *Handoff) Request() json.RawMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.delegate != nil {
		if r := h.delegate.Request(); r != nil {
			return r
		}
	}
	return h.request
}

// Launch starts the asynchronous delegate load and attaches on success.
// Frames keep queueing while the load is in flight.
func (h *Handoff) Launch(ctx context.Context, loader contract.DelegateLoader) {
	go func() {
		delegate, err := loader(ctx, h.roomID)
		if err != nil {
			h.log.Error("battle delegate load failed",
				"room", h.roomID, "err", fmt.Errorf("%w: %v", errs.ErrDelegateLoad, err))
			return
		}
		if err := h.Attach(delegate); err != nil {
			h.log.Error("battle frame replay failed", "room", h.roomID, "err", err)
		}
	}()
}
