package observability

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pschat/domain"
	"pschat/domain/event"
)

func TestStats_ConsumeCountsEvents(t *testing.T) {
	req := require.New(t)
	s := NewStats(slog.Default(), time.Millisecond)

	msg := domain.NewMessage(domain.KindChat, "Annika", "hi")
	s.Consume(event.NewMessageAdded("lobby", domain.RoomChat, msg))
	s.Consume(event.NewMessageAdded("lobby", domain.RoomChat, msg))
	s.Consume(event.NewNotificationRaised("lobby", domain.RoomChat, "Annika", "hi", true))
	s.Consume(event.NewParseFailed("lobby", "|bogus|x"))
	s.Consume(event.NewRoomAdded("lobby", domain.RoomChat))
	s.Consume(event.NewRoomAdded("ou", domain.RoomChat))
	s.Consume(event.NewRoomRemoved("ou"))
	// Untracked events are ignored.
	s.Consume(event.NewChallstrReceived())

	snap := s.update()
	req.Equal(uint64(2), snap.Messages)
	req.Equal(uint64(1), snap.Notifications)
	req.Equal(uint64(1), snap.ParseFailures)
	req.Equal(int64(1), snap.RoomsOpen)
	req.False(snap.At.IsZero())
}

func TestStats_RunPublishesLatest(t *testing.T) {
	req := require.New(t)
	s := NewStats(slog.Default(), 5*time.Millisecond)
	s.Consume(event.NewParseFailed("lobby", "|bogus|x"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req.NoError(s.Run(ctx))

	req.Equal(uint64(1), s.Latest().ParseFailures)
}
