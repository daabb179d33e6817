// Package settings is the durable, serializable configuration, distinct
// from volatile session state. One versioned JSON blob plus two
// lightweight keys (theme for fast early read, the login token).
package settings

import "time"

// BlobVersion gates the whole stored blob: any mismatch on load discards
// it entirely rather than attempting a partial merge.
const BlobVersion = 1

const (
	DefaultServerURL      = "wss://sim3.psim.us/showdown/websocket"
	DefaultLoginServerURL = "https://play.pokemonshowdown.com/api/"
)

// SavedRoom is the open-rooms snapshot entry used to restore sessions.
type SavedRoom struct {
	ID           string    `json:"id" validate:"required"`
	LastReadTime time.Time `json:"lastReadTime"`
	Open         bool      `json:"open"`
}

// Blob is the serialized shape. Only serializable data belongs here.
type Blob struct {
	Version         int                 `json:"version" validate:"required,gt=0"`
	Username        string              `json:"username"`
	Rooms           []SavedRoom         `json:"rooms" validate:"dive"`
	ServerURL       string              `json:"serverURL" validate:"omitempty,url|startswith=wss://|startswith=ws://"`
	LoginServerURL  string              `json:"loginServerURL" validate:"omitempty,url"`
	HighlightWords  map[string][]string `json:"highlightWords"`
	HighlightOnSelf bool                `json:"highlightOnSelf"`
	Avatar          string              `json:"avatar"`
	Theme           string              `json:"theme" validate:"omitempty,oneof=light dark system"`
}

func defaultBlob() Blob {
	return Blob{
		Version:         BlobVersion,
		ServerURL:       DefaultServerURL,
		LoginServerURL:  DefaultLoginServerURL,
		HighlightWords:  make(map[string][]string),
		HighlightOnSelf: true,
		Theme:           "system",
	}
}
