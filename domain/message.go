package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind classifies how a message renders and whether it can notify.
type Kind string

const (
	KindChat      Kind = "chat"
	KindRawHTML   Kind = "rawHTML"
	KindBoxedHTML Kind = "boxedHTML"
	KindLog       Kind = "log"
	KindSimple    Kind = "simple"
	KindError     Kind = "error"
	KindRoleplay  Kind = "roleplay"
	KindAnnounce  Kind = "announce"
	KindChallenge Kind = "challenge"
)

// Message is one entry of a room's log. Highlighted is tri-state: nil
// until the highlight matcher has run, then cached.
type Message struct {
	ID          uuid.UUID
	Content     string
	Kind        Kind
	User        string
	Timestamp   time.Time
	Highlighted *bool
	// BoxName is set only for boxed/uhtml kinds; at most one live message
	// per (room, BoxName).
	BoxName   string
	Cancelled bool
	// NoNotify exempts the message from the notification policy
	// (the /nonotify prefix) while still delivering it.
	NoNotify bool
}

func NewMessage(kind Kind, user, content string) *Message {
	return &Message{ID: uuid.New(), Kind: kind, User: user, Content: content}
}

func (m *Message) WithTimestamp(ts time.Time) *Message {
	m.Timestamp = ts
	return m
}

func (m *Message) WithBoxName(name string) *Message {
	m.BoxName = name
	return m
}

func (m *Message) SetHighlighted(v bool) {
	m.Highlighted = &v
}

func (m *Message) IsHighlighted() bool {
	return m.Highlighted != nil && *m.Highlighted
}

// ParsedContent is the result of classifying a raw chat payload by its
// leading /command token.
type ParsedContent struct {
	Kind     Kind
	Content  string
	BoxName  string
	NoNotify bool
	// ChangeBox marks a /uhtmlchange payload: mutate an existing boxed
	// message instead of appending.
	ChangeBox bool
}

// ParseContent classifies a chat payload. Unmatched content is plain chat.
func ParseContent(content string) ParsedContent {
	cmd, _, _ := strings.Cut(content, " ")
	switch cmd {
	case "/raw":
		return ParsedContent{Kind: KindRawHTML, Content: tail(content, cmd)}
	case "/uhtml":
		name, html := cutBoxPayload(content)
		return ParsedContent{Kind: KindBoxedHTML, Content: html, BoxName: name}
	case "/uhtmlchange":
		name, html := cutBoxPayload(content)
		return ParsedContent{Kind: KindBoxedHTML, Content: html, BoxName: name, ChangeBox: true}
	case "/error":
		return ParsedContent{Kind: KindError, Content: tail(content, cmd)}
	case "/text", "/log":
		return ParsedContent{Kind: KindLog, Content: tail(content, cmd)}
	case "/announce":
		return ParsedContent{Kind: KindAnnounce, Content: tail(content, cmd)}
	case "/me":
		return ParsedContent{Kind: KindRoleplay, Content: tail(content, cmd)}
	case "/challenge":
		return ParsedContent{Kind: KindChallenge, Content: tail(content, cmd)}
	case "/nonotify":
		return ParsedContent{Kind: KindLog, Content: tail(content, cmd), NoNotify: true}
	default:
		return ParsedContent{Kind: KindChat, Content: content}
	}
}

func tail(content, cmd string) string {
	if len(content) <= len(cmd)+1 {
		return ""
	}
	return content[len(cmd)+1:]
}

// cutBoxPayload splits "/uhtml name,<div>...</div>" into the box name and
// the html, which may itself contain commas.
func cutBoxPayload(content string) (name, html string) {
	head, rest, _ := strings.Cut(content, ",")
	_, name, _ = strings.Cut(head, " ")
	return name, rest
}
