package notify

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pschat/domain"
	"pschat/mocks"
)

func chatMessage(user, content string) *domain.Message {
	return domain.NewMessage(domain.KindChat, user, content).WithTimestamp(time.Now().Add(time.Minute))
}

func TestShouldNotify_HighlightedMessage(t *testing.T) {
	e := NewEngine(slog.Default(), nil)
	room := domain.NewRoom("lobby", "Lobby", domain.RoomChat, true, true)

	m := chatMessage("Bob", "hey Annika")
	m.SetHighlighted(true)

	require.True(t, e.ShouldNotify(room, m, false, "Annika"))
}

func TestShouldNotify_PlainChatDoesNot(t *testing.T) {
	e := NewEngine(slog.Default(), nil)
	room := domain.NewRoom("lobby", "Lobby", domain.RoomChat, true, true)

	require.False(t, e.ShouldNotify(room, chatMessage("Bob", "hello"), false, "Annika"))
}

func TestShouldNotify_PMFromOtherAlwaysCounts(t *testing.T) {
	e := NewEngine(slog.Default(), nil)
	room := domain.NewRoom(domain.PMRoomID("Bob"), "Bob", domain.RoomPM, true, true)

	require.True(t, e.ShouldNotify(room, chatMessage("Bob", "psst"), false, "Annika"))
	require.False(t, e.ShouldNotify(room, chatMessage("Annika", "reply"), false, "Annika"))
}

func TestShouldNotify_SelectedWithFocusSuppressed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	focus := mocks.NewMockFocusProbe(ctrl)
	focus.EXPECT().HasFocus().Return(true)

	e := NewEngine(slog.Default(), focus)
	room := domain.NewRoom(domain.PMRoomID("Bob"), "Bob", domain.RoomPM, true, true)

	require.False(t, e.ShouldNotify(room, chatMessage("Bob", "psst"), true, "Annika"))
}

func TestShouldNotify_SelectedWithoutFocusFires(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	focus := mocks.NewMockFocusProbe(ctrl)
	focus.EXPECT().HasFocus().Return(false)

	e := NewEngine(slog.Default(), focus)
	room := domain.NewRoom(domain.PMRoomID("Bob"), "Bob", domain.RoomPM, true, true)

	require.True(t, e.ShouldNotify(room, chatMessage("Bob", "psst"), true, "Annika"))
}

// History backfill carries timestamps before the session start; those
// must never re-fire notifications.
func TestShouldNotify_BackfillSuppressed(t *testing.T) {
	e := NewEngine(slog.Default(), nil)
	room := domain.NewRoom(domain.PMRoomID("Bob"), "Bob", domain.RoomPM, true, true)

	stale := domain.NewMessage(domain.KindChat, "Bob", "old news").
		WithTimestamp(time.Now().Add(-time.Hour))
	require.False(t, e.ShouldNotify(room, stale, false, "Annika"))
}

func TestShouldNotify_NoNotifyExempt(t *testing.T) {
	e := NewEngine(slog.Default(), nil)
	room := domain.NewRoom(domain.PMRoomID("Bob"), "Bob", domain.RoomPM, true, true)

	m := chatMessage("Bob", "status change")
	m.NoNotify = true
	require.False(t, e.ShouldNotify(room, m, false, "Annika"))
}
