// Package highlight decides whether a chat message mentions the current
// user, using per-room word lists plus a "global" fallback list.
package highlight

import (
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	"pschat/domain"
)

// GlobalRoomID is the sentinel word-list key consulted when a room's own
// list does not match.
const GlobalRoomID = "global"

// Matcher holds one Aho-Corasick machine per room, built over normalized
// patterns. The message body is normalized the same way before the
// search, so words match even with punctuation or spacing between
// letters.
type Matcher struct {
	log             *slog.Logger
	machines        map[string]*goahocorasick.Machine
	words           map[string][]string
	username        string
	highlightOnSelf bool
}

func NewMatcher(log *slog.Logger) *Matcher {
	return &Matcher{
		log:      log,
		machines: make(map[string]*goahocorasick.Machine),
		words:    make(map[string][]string),
	}
}

// SetUsername records the name appended to every pattern set when
// highlight-on-self is enabled; machines are rebuilt lazily.
func (m *Matcher) SetUsername(username string, highlightOnSelf bool) {
	m.username = username
	m.highlightOnSelf = highlightOnSelf
	m.machines = make(map[string]*goahocorasick.Machine)
}

// SetWords replaces a room's word list and invalidates its machine.
func (m *Matcher) SetWords(roomID string, words []string) {
	m.words[roomID] = words
	delete(m.machines, roomID)
}

// Match tests a message body against the room's list, falling back to
// the global list.
func (m *Matcher) Match(roomID, content string) bool {
	body := normalize(content)
	if len(body) == 0 {
		return false
	}
	if m.search(roomID, body) {
		return true
	}
	if roomID == GlobalRoomID {
		return false
	}
	return m.search(GlobalRoomID, body)
}

// Apply computes and caches the highlight flag on a message. Self-sent
// messages are never highlighted.
func (m *Matcher) Apply(roomID string, msg *domain.Message, authUser string, force bool) bool {
	if msg.Highlighted != nil && !force {
		return *msg.Highlighted
	}
	if authUser != "" && domain.ToID(msg.User) == domain.ToID(authUser) {
		msg.SetHighlighted(false)
		return false
	}
	hl := m.Match(roomID, msg.Content)
	msg.SetHighlighted(hl)
	return hl
}

func (m *Matcher) search(roomID string, body []rune) bool {
	machine, ok := m.machines[roomID]
	if !ok {
		machine = m.build(roomID)
		m.machines[roomID] = machine
	}
	if machine == nil {
		return false
	}
	return len(machine.MultiPatternSearch(body, true)) > 0
}

// build compiles the room's machine from its normalized word list plus,
// conditionally, the user's own name. A nil machine means nothing to
// match.
func (m *Matcher) build(roomID string) *goahocorasick.Machine {
	patterns := make([][]rune, 0, len(m.words[roomID])+1)
	for _, w := range m.words[roomID] {
		if n := normalize(w); len(n) > 0 {
			patterns = append(patterns, n)
		}
	}
	if m.highlightOnSelf && m.username != "" {
		if n := normalize(m.username); len(n) > 0 {
			patterns = append(patterns, n)
		}
	}
	if len(patterns) == 0 {
		return nil
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		m.log.Error("failed to build highlight machine", "room", roomID, "err", err)
		return nil
	}
	return machine
}

// normalize lowercases and strips everything outside letters and digits.
func normalize(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, unicode.ToLower(r))
		}
	}
	return out
}
