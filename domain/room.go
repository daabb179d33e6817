package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"pschat/errs"
)

type RoomType string

const (
	RoomChat      RoomType = "chat"
	RoomBattle    RoomType = "battle"
	RoomPM        RoomType = "pm"
	RoomPermanent RoomType = "permanent"
	RoomHTML      RoomType = "html"
)

const (
	messageLimit      = 200
	sentHistoryMax    = 25
	defaultReadMargin = time.Second
)

// Room is a named channel. The registry holds at most one Room per ID;
// PM rooms are keyed "pm-<counterpart id>".
type Room struct {
	ID        string
	Name      string
	Type      RoomType
	Connected bool
	Open      bool

	LastReadTime time.Time
	// ReadMargin is the grace window subtracted from LastReadTime when
	// deciding unread counts, tolerating clock skew across reconnects.
	// Its presence is load-bearing; the value is tunable.
	ReadMargin time.Duration
	Unread     int
	Mentions   int

	// Perspective is only meaningful for battle rooms ("p1"/"p2").
	Perspective string

	Messages []*Message
	Users    []User

	sentHistory []string
	histIdx     int

	// sessionStart bounds notification replay: backfilled messages
	// timestamped before it never notify again this session.
	sessionStart time.Time
}

func NewRoom(id, name string, typ RoomType, connected, open bool) *Room {
	now := time.Now()
	return &Room{
		ID:           id,
		Name:         name,
		Type:         typ,
		Connected:    connected,
		Open:         open,
		LastReadTime: now,
		ReadMargin:   defaultReadMargin,
		sessionStart: now,
	}
}

func (r *Room) Rename(name string) {
	r.Name = name
}

// Select stamps the read marker, clears counters and resets the sent
// history cursor.
func (r *Room) Select(now time.Time) {
	r.LastReadTime = now
	r.Unread = 0
	r.Mentions = 0
	r.histIdx = len(r.sentHistory)
}

func (r *Room) ClearNotifications() {
	r.Unread = 0
	r.Mentions = 0
}

// AddOpts carries the per-insert context the accounting rules need.
type AddOpts struct {
	Selected bool
	SelfSent bool
	Now      time.Time
}

// AddMessage appends a message, evicting the oldest past capacity, and
// updates unread/mention counters. It reports whether the insert counts
// as a mention.
func (r *Room) AddMessage(m *Message, opts AddOpts) bool {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	if len(r.Messages) >= messageLimit {
		r.Messages = r.Messages[1:]
	}
	if opts.Selected {
		r.LastReadTime = now
	}
	mentioned := false
	if m.Kind == KindChat && !opts.SelfSent && !opts.Selected &&
		!m.Timestamp.IsZero() &&
		m.Timestamp.After(r.LastReadTime.Add(-r.ReadMargin)) {
		r.Unread++
		if m.IsHighlighted() || r.Type == RoomPM {
			r.Mentions++
			mentioned = true
		}
	}
	r.Messages = append(r.Messages, m)
	return mentioned
}

// AddBox inserts a boxed message, replacing rather than appending when a
// live message with the same box name exists.
func (r *Room) AddBox(m *Message, opts AddOpts) bool {
	if m.BoxName != "" {
		if i := r.boxIndex(m.BoxName); i >= 0 {
			r.Messages = append(r.Messages[:i], r.Messages[i+1:]...)
		}
	}
	return r.AddMessage(m, opts)
}

// ChangeBox mutates the content of an existing boxed message in place.
func (r *Room) ChangeBox(name, content string) error {
	if name == "" {
		return fmt.Errorf("%w: unnamed box in room %s", errs.ErrNoBoxMessage, r.ID)
	}
	i := r.boxIndex(name)
	if i < 0 {
		return fmt.Errorf("%w: %s in room %s", errs.ErrNoBoxMessage, name, r.ID)
	}
	r.Messages[i].Content = content
	return nil
}

func (r *Room) boxIndex(name string) int {
	for i, m := range r.Messages {
		if m.BoxName == name {
			return i
		}
	}
	return -1
}

// EndChallenge cancels and removes the live challenge message, if any.
func (r *Room) EndChallenge() error {
	for i, m := range r.Messages {
		if m.Kind == KindChallenge {
			m.Cancelled = true
			r.Messages = append(r.Messages[:i], r.Messages[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no live challenge message in room %s", r.ID)
}

// IsStale reports whether a timestamped message predates this session,
// i.e. was carried by history backfill.
func (r *Room) IsStale(m *Message) bool {
	return !m.Timestamp.IsZero() &&
		m.Timestamp.Before(r.sessionStart.Add(-r.ReadMargin))
}

// ReplaceUsers swaps the whole visible user list.
func (r *Room) ReplaceUsers(users []User) {
	r.Users = sortUsers(lo.UniqBy(users, func(u User) UserID { return u.ID }))
}

// AddUsers upserts users into the list, keeping it sorted.
func (r *Room) AddUsers(users ...User) {
	merged := lo.UniqBy(append(users, r.Users...), func(u User) UserID { return u.ID })
	r.Users = sortUsers(merged)
}

func (r *Room) RemoveUser(id UserID) {
	r.Users = lo.Reject(r.Users, func(u User, _ int) bool { return u.ID == id })
}

// RenameUser updates the user previously known by oldID. The new entry
// carries rank prefix and optional "@status" suffix.
func (r *Room) RenameUser(entry string, oldID UserID) error {
	for i, u := range r.Users {
		if u.ID == oldID {
			r.Users[i] = NewUser(entry)
			r.Users = sortUsers(r.Users)
			return nil
		}
	}
	return fmt.Errorf("%w: user %s in room %s", errs.ErrRoomNotFound, oldID, r.ID)
}

func sortUsers(users []User) []User {
	sort.SliceStable(users, func(i, j int) bool { return users[i].Less(users[j]) })
	return users
}

// RecordSent pushes onto the bounded shell-style recall history and
// resets the cursor past the newest entry.
func (r *Room) RecordSent(message string) {
	r.sentHistory = append(r.sentHistory, message)
	if len(r.sentHistory) > sentHistoryMax {
		r.sentHistory = r.sentHistory[1:]
	}
	r.histIdx = len(r.sentHistory)
}

// HistoryPrev walks backwards through sent messages; empty string at the
// oldest end.
func (r *Room) HistoryPrev() string {
	if r.histIdx == 0 {
		return ""
	}
	r.histIdx--
	return r.sentHistory[r.histIdx]
}

// HistoryNext walks forwards; empty string once past the newest entry.
func (r *Room) HistoryNext() string {
	if r.histIdx >= len(r.sentHistory)-1 {
		r.histIdx = len(r.sentHistory)
		return ""
	}
	r.histIdx++
	return r.sentHistory[r.histIdx]
}

// RunHighlight re-evaluates chat messages against the matcher, used when
// highlight words change.
func (r *Room) RunHighlight(match func(roomID string, m *Message) bool) {
	for _, m := range r.Messages {
		if m.Kind == KindChat {
			match(r.ID, m)
		}
	}
}

// PMRoomID is the registry key for a private conversation.
func PMRoomID(counterpart string) string {
	return "pm-" + string(ToID(counterpart))
}
