package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pschat/domain"
	"pschat/errs"
)

func TestRegistry_PermanentRoomsAlwaysExist(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	home, err := r.Get(HomeRoomID)
	req.NoError(err)
	req.Equal(domain.RoomPermanent, home.Type)

	_, err = r.Get(SettingsRoomID)
	req.NoError(err)
	req.Equal(HomeRoomID, r.Selected())
}

func TestRegistry_UpsertIsIdempotent(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	first := r.Upsert(domain.NewRoom("lobby", "Lobby", domain.RoomChat, true, true))
	second := r.Upsert(domain.NewRoom("lobby", "Other", domain.RoomChat, true, true))

	req.Same(first, second)
	req.Equal("Lobby", second.Name)
}

func TestRegistry_ClosePermanentHidesOnly(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	req.NoError(r.Remove(SettingsRoomID))

	room, err := r.Get(SettingsRoomID)
	req.NoError(err)
	req.False(room.Open)
}

func TestRegistry_CloseSelectedFallsBackToHome(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	r.Upsert(domain.NewRoom("lobby", "Lobby", domain.RoomChat, true, true))

	_, err := r.Select("lobby")
	req.NoError(err)
	req.Equal("lobby", r.Selected())

	req.NoError(r.Remove("lobby"))
	req.Equal(HomeRoomID, r.Selected())
	req.False(r.Has("lobby"))
}

func TestRegistry_RemoveUnknownRoom(t *testing.T) {
	r := NewRegistry()
	require.ErrorIs(t, r.Remove("nope"), errs.ErrRoomNotFound)
}

func TestRegistry_ListOpenPreservesInsertionOrder(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	r.Upsert(domain.NewRoom("alpha", "Alpha", domain.RoomChat, true, true))
	r.Upsert(domain.NewRoom("beta", "Beta", domain.RoomChat, true, false))
	r.Upsert(domain.NewRoom("gamma", "Gamma", domain.RoomChat, true, true))

	ids := make([]string, 0)
	for _, room := range r.ListOpen() {
		ids = append(ids, room.ID)
	}
	// home is open by default, settings is hidden.
	req.Equal([]string{HomeRoomID, "alpha", "gamma"}, ids)
}

func TestRegistry_SelectClearsCounters(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	room := r.Upsert(domain.NewRoom("lobby", "Lobby", domain.RoomChat, true, true))
	room.Unread = 3
	room.Mentions = 1

	_, err := r.Select("lobby")
	req.NoError(err)
	req.Zero(room.Unread)
	req.Zero(room.Mentions)
	req.True(r.IsSelected("lobby"))
}
