// Package notify decides, per inserted message, whether a notification
// event fires. One logical event per qualifying message, never batched.
package notify

import (
	"log/slog"

	"pschat/contract"
	"pschat/domain"
)

type Engine struct {
	log   *slog.Logger
	focus contract.FocusProbe
}

func NewEngine(log *slog.Logger, focus contract.FocusProbe) *Engine {
	return &Engine{log: log, focus: focus}
}

// ShouldNotify applies the policy: skip when the room is selected and
// the window has focus; skip backfilled history; PMs from someone other
// than self always count; otherwise a highlight is required.
func (e *Engine) ShouldNotify(room *domain.Room, m *domain.Message, selected bool, authUser string) bool {
	if m.NoNotify {
		return false
	}
	if selected && e.hasFocus() {
		return false
	}
	if room.IsStale(m) {
		return false
	}
	if m.IsHighlighted() {
		return true
	}
	if room.Type == domain.RoomPM && domain.ToID(m.User) != domain.ToID(authUser) {
		return true
	}
	return false
}

func (e *Engine) hasFocus() bool {
	if e.focus == nil {
		return false
	}
	return e.focus.HasFocus()
}
