package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func chatAt(user, content string, ts time.Time) *Message {
	return NewMessage(KindChat, user, content).WithTimestamp(ts)
}

func TestRoom_UnreadAccounting_Margin(t *testing.T) {
	req := require.New(t)
	room := NewRoom("lobby", "Lobby", RoomChat, true, true)
	lastRead := time.Now()
	room.LastReadTime = lastRead

	// Older than the read marker minus the margin: already seen.
	room.AddMessage(chatAt("Alice", "old", lastRead.Add(-2*time.Second)), AddOpts{})
	req.Equal(0, room.Unread)

	// Inside the grace window counts as new.
	room.AddMessage(chatAt("Alice", "fresh", lastRead.Add(time.Second)), AddOpts{})
	req.Equal(1, room.Unread)
}

func TestRoom_UnreadSkipsSelectedAndSelf(t *testing.T) {
	req := require.New(t)
	room := NewRoom("lobby", "Lobby", RoomChat, true, true)
	ts := time.Now().Add(time.Minute)

	room.AddMessage(chatAt("Alice", "one", ts), AddOpts{Selected: true})
	req.Equal(0, room.Unread)

	room.AddMessage(chatAt("Me", "two", ts), AddOpts{SelfSent: true})
	req.Equal(0, room.Unread)
}

func TestRoom_PMCountsAsMention(t *testing.T) {
	room := NewRoom(PMRoomID("Alice"), "Alice", RoomPM, true, true)
	mentioned := room.AddMessage(chatAt("Alice", "psst", time.Now().Add(time.Minute)), AddOpts{})

	require.True(t, mentioned)
	require.Equal(t, 1, room.Mentions)
}

func TestRoom_MessageEviction(t *testing.T) {
	room := NewRoom("lobby", "Lobby", RoomChat, true, true)
	for i := 0; i < messageLimit+5; i++ {
		room.AddMessage(NewMessage(KindChat, "Alice", fmt.Sprintf("msg %d", i)), AddOpts{})
	}

	require.Len(t, room.Messages, messageLimit)
	require.Equal(t, "msg 5", room.Messages[0].Content)
}

func TestRoom_BoxReplaceNotAppend(t *testing.T) {
	req := require.New(t)
	room := NewRoom("lobby", "Lobby", RoomChat, true, true)

	room.AddBox(NewMessage(KindBoxedHTML, "", "<div>A</div>").WithBoxName("box1"), AddOpts{})
	room.AddBox(NewMessage(KindBoxedHTML, "", "<div>B</div>").WithBoxName("box1"), AddOpts{})

	var boxes []*Message
	for _, m := range room.Messages {
		if m.BoxName == "box1" {
			boxes = append(boxes, m)
		}
	}
	req.Len(boxes, 1)
	req.Equal("<div>B</div>", boxes[0].Content)
}

func TestRoom_ChangeBoxAbsent(t *testing.T) {
	room := NewRoom("lobby", "Lobby", RoomChat, true, true)

	err := room.ChangeBox("never-created", "<div>X</div>")

	require.Error(t, err)
	require.Empty(t, room.Messages)
}

func TestRoom_ChangeBoxInPlace(t *testing.T) {
	room := NewRoom("lobby", "Lobby", RoomChat, true, true)
	room.AddBox(NewMessage(KindBoxedHTML, "", "<div>A</div>").WithBoxName("poll"), AddOpts{})

	require.NoError(t, room.ChangeBox("poll", "<div>B</div>"))
	require.Len(t, room.Messages, 1)
	require.Equal(t, "<div>B</div>", room.Messages[0].Content)
}

func TestRoom_UserListSortedAndUnique(t *testing.T) {
	req := require.New(t)
	room := NewRoom("lobby", "Lobby", RoomChat, true, true)

	room.ReplaceUsers([]User{NewUser(" bob"), NewUser("@Annika"), NewUser("+Zoe")})
	req.Equal([]UserID{"annika", "zoe", "bob"}, userIDs(room.Users))

	// Upsert keeps identity unique.
	room.AddUsers(NewUser("+bob"))
	req.Equal([]UserID{"annika", "bob", "zoe"}, userIDs(room.Users))

	room.RemoveUser("zoe")
	req.Equal([]UserID{"annika", "bob"}, userIDs(room.Users))
}

func userIDs(users []User) []UserID {
	ids := make([]UserID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func TestRoom_SelectResetsCounters(t *testing.T) {
	room := NewRoom("lobby", "Lobby", RoomChat, true, true)
	room.Unread = 4
	room.Mentions = 2

	now := time.Now()
	room.Select(now)

	require.Zero(t, room.Unread)
	require.Zero(t, room.Mentions)
	require.Equal(t, now, room.LastReadTime)
}

func TestRoom_SentHistoryRecall(t *testing.T) {
	req := require.New(t)
	room := NewRoom("lobby", "Lobby", RoomChat, true, true)

	room.RecordSent("first")
	room.RecordSent("second")
	room.RecordSent("third")

	req.Equal("third", room.HistoryPrev())
	req.Equal("second", room.HistoryPrev())
	req.Equal("first", room.HistoryPrev())
	req.Equal("", room.HistoryPrev())

	req.Equal("second", room.HistoryNext())
	req.Equal("third", room.HistoryNext())
	req.Equal("", room.HistoryNext())
}

func TestRoom_SentHistoryBounded(t *testing.T) {
	room := NewRoom("lobby", "Lobby", RoomChat, true, true)
	for i := 0; i < sentHistoryMax+10; i++ {
		room.RecordSent(fmt.Sprintf("msg %d", i))
	}

	require.Equal(t, fmt.Sprintf("msg %d", sentHistoryMax+9), room.HistoryPrev())
	count := 1
	for room.HistoryPrev() != "" {
		count++
	}
	require.Equal(t, sentHistoryMax, count)
}

func TestRoom_EndChallenge(t *testing.T) {
	room := NewRoom(PMRoomID("Alice"), "Alice", RoomPM, true, true)
	room.AddMessage(NewMessage(KindChallenge, "Alice", "gen9ou"), AddOpts{})

	require.NoError(t, room.EndChallenge())
	require.Empty(t, room.Messages)
	require.Error(t, room.EndChallenge())
}

func TestPMRoomID(t *testing.T) {
	require.Equal(t, "pm-alice", PMRoomID("@Alice"))
}
