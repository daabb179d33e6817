package client

import (
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fasthttp/websocket"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"pschat/domain"
	"pschat/errs"
	"pschat/internal"
	"pschat/runtime"
	"pschat/settings"
)

// startServer runs a websocket server recording every received frame.
func startServer(t *testing.T) (string, <-chan string) {
	t.Helper()
	received := make(chan string, 32)

	upgrader := websocket.FastHTTPUpgrader{}
	handler := func(ctx *fasthttp.RequestCtx) {
		_ = upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
			defer conn.Close()
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return
				}
				received <- string(data)
			}
		})
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &fasthttp.Server{Handler: handler}
	go srv.Serve(ln) //nolint:errcheck
	t.Cleanup(func() { _ = srv.Shutdown() })

	return "ws://" + ln.Addr().String(), received
}

func recvFrames(t *testing.T, ch <-chan string, n int) []string {
	t.Helper()
	frames := make([]string, 0, n)
	for len(frames) < n {
		select {
		case msg := <-ch:
			frames = append(frames, msg)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d frames: %v", len(frames), n, frames)
		}
	}
	return frames
}

func newSession(t *testing.T, cfg internal.Config) (*Session, *settings.Store) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := settings.NewStore(db, slog.Default())

	s, err := New(context.Background(), slog.Default(), cfg, store, nil, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, store
}

func TestSession_SendWireFormats(t *testing.T) {
	req := require.New(t)
	url, received := startServer(t)
	s, _ := newSession(t, internal.Config{ServerURL: url})

	// Materialize a chat room and a PM conversation from server traffic.
	s.Dispatcher().HandleChunk(">lobby\n|init|chat\n|title|Lobby")
	s.Dispatcher().HandleChunk("|pm| Annika| Bob|hey")

	req.NoError(s.Connect(context.Background()))

	req.NoError(s.Send("gl hf", ""))
	req.NoError(s.Send("hello room", "lobby"))
	req.NoError(s.Send("hello you", domain.PMRoomID("Annika")))
	req.ErrorIs(s.Send("nope", "ghost"), errs.ErrRoomNotFound)

	frames := recvFrames(t, received, 3)
	req.Equal([]string{
		"|gl hf",
		"lobby|hello room",
		"|/pm Annika, hello you",
	}, frames)
}

func TestSession_SendRecordsChatHistoryOnly(t *testing.T) {
	req := require.New(t)
	url, _ := startServer(t)
	s, _ := newSession(t, internal.Config{ServerURL: url})
	s.Dispatcher().HandleChunk(">lobby\n|init|chat")
	req.NoError(s.Connect(context.Background()))

	req.NoError(s.Send("first message", "lobby"))
	req.NoError(s.Send("/me waves", "lobby"))

	room, err := s.Room("lobby")
	req.NoError(err)
	req.Equal("first message", room.HistoryPrev())
	req.Empty(room.HistoryPrev())
}

// Joins issued before login flush immediately and replay once more after
// login succeeds, in original order.
func TestSession_PendingJoinsReplayOnLogin(t *testing.T) {
	req := require.New(t)
	url, received := startServer(t)
	s, _ := newSession(t, internal.Config{ServerURL: url})

	req.NoError(s.Join("lobby"))
	req.NoError(s.Join("techcode"))

	s.Dispatcher().HandleChunk("|updateuser| Annika|1|lucas|{}")

	req.NoError(s.Connect(context.Background()))

	frames := recvFrames(t, received, 5)
	req.Equal([]string{
		"|/join lobby",
		"|/join techcode",
		"|/cmd userdetails annika",
		"|/join lobby",
		"|/join techcode",
	}, frames)
}

// With no explicit joins pending, login falls back to the durable open
// rooms; PM conversations and closed rooms never autojoin.
func TestSession_AutojoinFromSavedRooms(t *testing.T) {
	req := require.New(t)
	url, received := startServer(t)
	s, store := newSession(t, internal.Config{ServerURL: url, Autojoin: "ignored"})

	store.RememberRoom(settings.SavedRoom{ID: "ou", Open: true})
	store.RememberRoom(settings.SavedRoom{ID: "pm-bob", Open: true})
	store.RememberRoom(settings.SavedRoom{ID: "monotype", Open: true})
	store.ForgetRoom("monotype")

	s.Dispatcher().HandleChunk("|updateuser| Annika|1|lucas|{}")
	req.NoError(s.Connect(context.Background()))

	frames := recvFrames(t, received, 2)
	req.Equal([]string{
		"|/cmd userdetails annika",
		"|/autojoin ou",
	}, frames)
}

func TestSession_AutojoinFromConfigWhenNothingSaved(t *testing.T) {
	req := require.New(t)
	url, received := startServer(t)
	s, _ := newSession(t, internal.Config{ServerURL: url, Autojoin: "lobby, techcode"})

	s.Dispatcher().HandleChunk("|updateuser| Annika|1|lucas|{}")
	req.NoError(s.Connect(context.Background()))

	frames := recvFrames(t, received, 2)
	req.Equal("|/autojoin lobby,techcode", frames[1])
}

func TestSession_CloseRoomLeavesServerRoom(t *testing.T) {
	req := require.New(t)
	url, received := startServer(t)
	s, store := newSession(t, internal.Config{ServerURL: url})

	s.Dispatcher().HandleChunk(">lobby\n|init|chat")
	req.NoError(s.Connect(context.Background()))

	req.NoError(s.CloseRoom("lobby"))
	req.False(s.Dispatcher().Registry().Has("lobby"))

	saved, ok := store.SavedRoom("lobby")
	req.True(ok)
	req.False(saved.Open)

	req.Equal("|/leave lobby", recvFrames(t, received, 1)[0])
}

func TestSession_CloseRoomKeepsPermanentHidden(t *testing.T) {
	req := require.New(t)
	url, received := startServer(t)
	s, _ := newSession(t, internal.Config{ServerURL: url})
	req.NoError(s.Connect(context.Background()))

	req.NoError(s.CloseRoom(runtime.SettingsRoomID))

	room, err := s.Room(runtime.SettingsRoomID)
	req.NoError(err)
	req.False(room.Open)

	// Permanent rooms have no server side, so nothing goes on the wire.
	select {
	case frame := <-received:
		t.Fatalf("unexpected frame %q", frame)
	case <-time.After(100 * time.Millisecond):
	}
}

// A room closed this session must come back open in the durable
// snapshot once it is rejoined and selected; otherwise the next
// session's autojoin would skip it forever.
func TestSession_ReopenedRoomSnapshotsOpen(t *testing.T) {
	req := require.New(t)
	url, _ := startServer(t)
	s, store := newSession(t, internal.Config{ServerURL: url})

	s.Dispatcher().HandleChunk(">techcode\n|init|chat")
	req.NoError(s.CloseRoom("techcode"))
	saved, ok := store.SavedRoom("techcode")
	req.True(ok)
	req.False(saved.Open)

	s.Dispatcher().HandleChunk(">techcode\n|init|chat")
	req.NoError(s.SelectRoom("techcode"))

	saved, ok = store.SavedRoom("techcode")
	req.True(ok)
	req.True(saved.Open)
	room, err := s.Room("techcode")
	req.NoError(err)
	req.True(room.Open)
}

func TestSession_SelectRoomPersistsReadMarker(t *testing.T) {
	req := require.New(t)
	url, _ := startServer(t)
	s, store := newSession(t, internal.Config{ServerURL: url})
	s.Dispatcher().HandleChunk(">lobby\n|init|chat")

	req.NoError(s.SelectRoom("lobby"))
	req.True(s.Dispatcher().Registry().IsSelected("lobby"))

	saved, ok := store.SavedRoom("lobby")
	req.True(ok)
	req.True(saved.Open)
	req.False(saved.LastReadTime.IsZero())
}

func TestSession_LeaveUnknownRoom(t *testing.T) {
	url, _ := startServer(t)
	s, _ := newSession(t, internal.Config{ServerURL: url})
	require.ErrorIs(t, s.Leave("ghost"), errs.ErrRoomNotFound)
}

func TestSession_SetHighlightWordsReevaluates(t *testing.T) {
	req := require.New(t)
	url, _ := startServer(t)
	s, store := newSession(t, internal.Config{ServerURL: url})

	s.Dispatcher().HandleChunk(">lobby\n|init|chat\n|chat|+Bob|the secret word")
	room, err := s.Room("lobby")
	req.NoError(err)
	req.False(room.Messages[0].IsHighlighted())

	s.SetHighlightWords("lobby", []string{"secret"})

	req.True(room.Messages[0].IsHighlighted())
	req.Equal([]string{"secret"}, store.HighlightWords("lobby"))
}
