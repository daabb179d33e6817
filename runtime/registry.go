// Package runtime owns the session state machine: the room registry and
// the command dispatcher that is its single writer. Observers receive
// read-only domain events through registered sinks.
package runtime

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"pschat/domain"
	"pschat/errs"
)

// HomeRoomID and SettingsRoomID are the permanent rooms: always present,
// hidden on close, never removed.
const (
	HomeRoomID     = "home"
	SettingsRoomID = "settings"
)

// Registry is the authoritative room map plus the selection pointer. Not
// safe for concurrent use; the dispatcher is its only writer.
type Registry struct {
	rooms    map[string]*domain.Room
	order    []string
	selected string
}

func NewRegistry() *Registry {
	r := &Registry{rooms: make(map[string]*domain.Room)}
	r.Upsert(domain.NewRoom(HomeRoomID, "Home", domain.RoomPermanent, true, true))
	r.Upsert(domain.NewRoom(SettingsRoomID, "Settings", domain.RoomPermanent, true, false))
	r.selected = HomeRoomID
	return r
}

func (r *Registry) Get(id string) (*domain.Room, error) {
	room, ok := r.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrRoomNotFound, id)
	}
	return room, nil
}

func (r *Registry) Has(id string) bool {
	_, ok := r.rooms[id]
	return ok
}

// Upsert registers a room, preserving insertion order for listing. An
// existing id keeps its room untouched, making creation idempotent.
func (r *Registry) Upsert(room *domain.Room) *domain.Room {
	if existing, ok := r.rooms[room.ID]; ok {
		return existing
	}
	r.rooms[room.ID] = room
	r.order = append(r.order, room.ID)
	return room
}

// Remove drops a room entirely. Permanent rooms are only hidden.
func (r *Registry) Remove(id string) error {
	room, ok := r.rooms[id]
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrRoomNotFound, id)
	}
	if room.Type == domain.RoomPermanent {
		room.Open = false
	} else {
		delete(r.rooms, id)
		r.order = lo.Without(r.order, id)
	}
	if r.selected == id {
		r.selectFallback()
	}
	return nil
}

func (r *Registry) selectFallback() {
	r.selected = HomeRoomID
	if home, ok := r.rooms[HomeRoomID]; ok {
		home.Open = true
		home.Select(time.Now())
	}
}

// ListOpen returns open rooms in insertion order.
func (r *Registry) ListOpen() []*domain.Room {
	out := make([]*domain.Room, 0, len(r.order))
	for _, id := range r.order {
		if room, ok := r.rooms[id]; ok && room.Open {
			out = append(out, room)
		}
	}
	return out
}

// Select makes a room current, clearing its counters and stamping the
// read marker.
func (r *Registry) Select(id string) (*domain.Room, error) {
	room, ok := r.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrRoomNotFound, id)
	}
	room.Open = true
	room.Select(time.Now())
	r.selected = id
	return room, nil
}

// Selected is the currently focused room id.
func (r *Registry) Selected() string {
	return r.selected
}

func (r *Registry) IsSelected(id string) bool {
	return r.selected == id
}
