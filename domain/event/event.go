// Package event defines the read-only notifications the dispatcher fans
// out to subscribed observers. Observers never mutate session state.
package event

import (
	"encoding/json"
	"time"

	"pschat/domain"
)

type DomainEvent interface {
	Name() string
	OccurredAt() time.Time
}

type base struct {
	At time.Time
}

func (b base) OccurredAt() time.Time { return b.At }

func now() base { return base{At: time.Now()} }

type RoomAdded struct {
	base
	RoomID string
	Type   domain.RoomType
}

func NewRoomAdded(roomID string, typ domain.RoomType) RoomAdded {
	return RoomAdded{base: now(), RoomID: roomID, Type: typ}
}
func (RoomAdded) Name() string { return "RoomAdded" }

type RoomRemoved struct {
	base
	RoomID string
}

func NewRoomRemoved(roomID string) RoomRemoved { return RoomRemoved{base: now(), RoomID: roomID} }
func (RoomRemoved) Name() string               { return "RoomRemoved" }

type RoomSelected struct {
	base
	RoomID string
}

func NewRoomSelected(roomID string) RoomSelected { return RoomSelected{base: now(), RoomID: roomID} }
func (RoomSelected) Name() string                { return "RoomSelected" }

type MessageAdded struct {
	base
	RoomID   string
	RoomType domain.RoomType
	Message  *domain.Message
}

func NewMessageAdded(roomID string, typ domain.RoomType, m *domain.Message) MessageAdded {
	return MessageAdded{base: now(), RoomID: roomID, RoomType: typ, Message: m}
}
func (MessageAdded) Name() string { return "MessageAdded" }

// MessagesUpdated signals an in-place mutation (uhtmlchange, cancelled
// challenge) that invalidates any cached view of the room log.
type MessagesUpdated struct {
	base
	RoomID string
}

func NewMessagesUpdated(roomID string) MessagesUpdated {
	return MessagesUpdated{base: now(), RoomID: roomID}
}
func (MessagesUpdated) Name() string { return "MessagesUpdated" }

type UserListUpdated struct {
	base
	RoomID string
	Count  int
}

func NewUserListUpdated(roomID string, count int) UserListUpdated {
	return UserListUpdated{base: now(), RoomID: roomID, Count: count}
}
func (UserListUpdated) Name() string { return "UserListUpdated" }

// NotificationRaised is one logical notification event per qualifying
// message; it is never batched.
type NotificationRaised struct {
	base
	RoomID   string
	RoomType domain.RoomType
	User     string
	Content  string
	Mention  bool
}

func NewNotificationRaised(roomID string, typ domain.RoomType, user, content string, mention bool) NotificationRaised {
	return NotificationRaised{base: now(), RoomID: roomID, RoomType: typ, User: user, Content: content, Mention: mention}
}
func (NotificationRaised) Name() string { return "NotificationRaised" }

// ErrorRaised is the user-visible failure channel (toast-worthy).
type ErrorRaised struct {
	base
	Text string
}

func NewErrorRaised(text string) ErrorRaised { return ErrorRaised{base: now(), Text: text} }
func (ErrorRaised) Name() string             { return "ErrorRaised" }

type ChallstrReceived struct {
	base
}

func NewChallstrReceived() ChallstrReceived { return ChallstrReceived{base: now()} }
func (ChallstrReceived) Name() string       { return "ChallstrReceived" }

type LoginCompleted struct {
	base
	Username string
}

func NewLoginCompleted(username string) LoginCompleted {
	return LoginCompleted{base: now(), Username: username}
}
func (LoginCompleted) Name() string { return "LoginCompleted" }

type ThemeChanged struct {
	base
	Theme string
}

func NewThemeChanged(theme string) ThemeChanged { return ThemeChanged{base: now(), Theme: theme} }
func (ThemeChanged) Name() string               { return "ThemeChanged" }

// ParseFailed marks a protocol parse bug: the line is logged and the
// stream continues, but observers may count it.
type ParseFailed struct {
	base
	RoomID string
	Raw    string
}

func NewParseFailed(roomID, raw string) ParseFailed {
	return ParseFailed{base: now(), RoomID: roomID, Raw: raw}
}
func (ParseFailed) Name() string { return "ParseFailed" }

// BattleRequest re-emits a battle room's buffered request object.
type BattleRequest struct {
	base
	RoomID  string
	Request json.RawMessage
}

func NewBattleRequest(roomID string, request json.RawMessage) BattleRequest {
	return BattleRequest{base: now(), RoomID: roomID, Request: request}
}
func (BattleRequest) Name() string { return "BattleRequest" }
