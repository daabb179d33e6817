// Package domain contains core concepts of the chat session.
// Rooms own their messages and user lists; all mutation goes through the
// dispatcher, which is the single writer.
package domain

import "strings"

// UserID is a normalized identity: lowercased with everything outside
// [a-z0-9] stripped, rank prefix included in the stripping.
type UserID string

// ToID normalizes a display name (with or without rank prefix) into a UserID.
func ToID(s string) UserID {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return UserID(b.String())
}

// rankWeight orders staff symbols above voice above regulars. Unknown
// leading characters sort with regulars.
var rankWeight = map[rune]int{
	'~': 110, // administrator
	'&': 100, // leader
	'#': 90,  // room owner
	'*': 80,  // bot
	'@': 70,  // moderator
	'%': 60,  // driver
	'§': 50,  // section leader
	'+': 40,  // voice
	'^': 30,  // prize winner
	' ': 20,  // regular
	'!': 10,  // muted
	'‽': 0,   // locked
}

// User is owned exclusively by its Room. Name keeps the one-character
// rank prefix; Status may carry a leading '!' marking "away".
type User struct {
	Name   string
	ID     UserID
	Status string
}

// NewUser builds a User from a protocol entry whose first character is
// the rank prefix, e.g. "@Annika" or " someguy@!brb". The rank character
// is kept out of the status split so "@" ranks don't eat the separator.
func NewUser(entry string) User {
	runes := []rune(entry)
	if len(runes) == 0 {
		return User{}
	}
	rest, status, _ := strings.Cut(string(runes[1:]), "@")
	name := string(runes[0]) + rest
	return User{Name: name, ID: ToID(name), Status: status}
}

func (u User) Rank() rune {
	for _, r := range u.Name {
		return r
	}
	return ' '
}

func (u User) rankWeight() int {
	if w, ok := rankWeight[u.Rank()]; ok {
		return w
	}
	return rankWeight[' ']
}

// DisplayName is the name without its rank prefix.
func (u User) DisplayName() string {
	if u.Name == "" {
		return ""
	}
	return u.Name[len(string(u.Rank())):]
}

// Away reports whether the status text carries the '!' marker.
func (u User) Away() bool {
	return strings.HasPrefix(u.Status, "!")
}

// StatusText is the status with the away marker stripped.
func (u User) StatusText() string {
	return strings.TrimPrefix(u.Status, "!")
}

// Less orders users by rank, then case-insensitive display name.
func (u User) Less(other User) bool {
	if u.rankWeight() != other.rankWeight() {
		return u.rankWeight() > other.rankWeight()
	}
	return strings.ToLower(u.DisplayName()) < strings.ToLower(other.DisplayName())
}
