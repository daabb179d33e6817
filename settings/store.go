package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"pschat/errs"
)

const (
	blobKey  = "settings"
	themeKey = "theme"
	tokenKey = "ps-token"
)

// Store persists the settings blob in BadgerDB. Every mutating setter
// writes synchronously. Load failures fail closed: the stored blob is
// discarded and defaults take over. The blob is guarded by a mutex
// because the auth goroutine reads it while the dispatcher writes.
type Store struct {
	db       *badger.DB
	log      *slog.Logger
	validate *validator.Validate

	mu   sync.RWMutex
	blob Blob
}

func NewStore(db *badger.DB, log *slog.Logger) *Store {
	s := &Store{
		db:       db,
		log:      log,
		validate: validator.New(),
		blob:     defaultBlob(),
	}
	s.load()
	return s
}

func (s *Store) load() {
	raw, err := s.get(blobKey)
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			s.log.Error("failed to read settings blob", "err", err)
		}
		return
	}
	var blob Blob
	if err := json.Unmarshal(raw, &blob); err != nil {
		s.log.Warn("corrupted settings blob, discarding", "err", err)
		s.discard()
		return
	}
	if blob.Version != BlobVersion {
		s.log.Warn("settings blob version mismatch, discarding",
			"stored", blob.Version, "current", BlobVersion, "err", errs.ErrSettingsVersion)
		s.discard()
		return
	}
	if err := s.validate.Struct(blob); err != nil {
		s.log.Warn("invalid settings blob, discarding", "err", err)
		s.discard()
		return
	}
	if blob.HighlightWords == nil {
		blob.HighlightWords = make(map[string][]string)
	}
	s.blob = blob
}

func (s *Store) discard() {
	if err := s.delete(blobKey); err != nil {
		s.log.Error("failed to delete settings blob", "err", err)
	}
	s.blob = defaultBlob()
}

// save must be called with the write lock held.
func (s *Store) save() {
	raw, err := json.Marshal(s.blob)
	if err != nil {
		s.log.Error("failed to marshal settings", "err", err)
		return
	}
	if err := s.set(blobKey, raw); err != nil {
		s.log.Error("failed to persist settings", "err", err)
	}
}

func (s *Store) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blob.Username
}

func (s *Store) SetUsername(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob.Username = username
	s.save()
}

// UpdateUser persists the username/avatar pair reported by updateuser.
func (s *Store) UpdateUser(username, avatar string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob.Username = username
	s.blob.Avatar = avatar
	s.save()
}

func (s *Store) Avatar() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blob.Avatar
}

func (s *Store) ServerURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.blob.ServerURL == "" {
		return DefaultServerURL
	}
	return s.blob.ServerURL
}

func (s *Store) LoginServerURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.blob.LoginServerURL == "" {
		return DefaultLoginServerURL
	}
	return s.blob.LoginServerURL
}

func (s *Store) SetServerURLs(serverURL, loginServerURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob.ServerURL = serverURL
	s.blob.LoginServerURL = loginServerURL
	s.save()
}

func (s *Store) HighlightOnSelf() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blob.HighlightOnSelf
}

func (s *Store) SetHighlightOnSelf(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob.HighlightOnSelf = v
	s.save()
}

func (s *Store) HighlightWords(roomID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.blob.HighlightWords[roomID]...)
}

func (s *Store) HighlightWordsMap() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]string, len(s.blob.HighlightWords))
	for roomID, words := range s.blob.HighlightWords {
		out[roomID] = append([]string(nil), words...)
	}
	return out
}

func (s *Store) SetHighlightWords(roomID string, words []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setHighlightWords(roomID, words)
}

// setHighlightWords must be called with the write lock held.
func (s *Store) setHighlightWords(roomID string, words []string) {
	s.blob.HighlightWords[roomID] = lo.Uniq(words)
	s.save()
}

func (s *Store) AddHighlightWord(roomID, word string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setHighlightWords(roomID, append(s.blob.HighlightWords[roomID], word))
}

func (s *Store) RemoveHighlightWord(roomID, word string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	words, ok := s.blob.HighlightWords[roomID]
	if !ok {
		s.log.Warn("removeHighlightWord: room has no words", "room", roomID)
		return
	}
	remaining := lo.Without(words, word)
	if len(remaining) == len(words) {
		s.log.Warn("removeHighlightWord: word not found", "room", roomID, "word", word)
		return
	}
	if len(remaining) == 0 {
		delete(s.blob.HighlightWords, roomID)
		s.save()
		return
	}
	s.setHighlightWords(roomID, remaining)
}

// SavedRooms is the open-rooms snapshot from the last session.
func (s *Store) SavedRooms() []SavedRoom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SavedRoom(nil), s.blob.Rooms...)
}

// SavedRoom looks up one snapshot entry.
func (s *Store) SavedRoom(roomID string) (SavedRoom, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Find(s.blob.Rooms, func(r SavedRoom) bool { return r.ID == roomID })
}

// RememberRoom upserts a room into the snapshot. An existing entry has
// its open flag and read marker refreshed, so a room closed in an
// earlier session comes back open once it is selected again.
func (s *Store) RememberRoom(room SavedRoom) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.blob.Rooms {
		if s.blob.Rooms[i].ID == room.ID {
			s.blob.Rooms[i].Open = room.Open
			if !room.LastReadTime.IsZero() {
				s.blob.Rooms[i].LastReadTime = room.LastReadTime
			}
			s.save()
			return
		}
	}
	s.blob.Rooms = append(s.blob.Rooms, room)
	s.save()
}

// ForgetRoom marks a room closed in the snapshot without dropping its
// read marker.
func (s *Store) ForgetRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.blob.Rooms {
		if s.blob.Rooms[i].ID == roomID {
			s.blob.Rooms[i].Open = false
			s.save()
			return
		}
	}
}

// Theme also writes the standalone fast-read key so the UI can pick the
// theme before the full blob loads.
func (s *Store) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blob.Theme
}

func (s *Store) SetTheme(theme string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob.Theme = theme
	s.save()
	if err := s.set(themeKey, []byte(theme)); err != nil {
		s.log.Error("failed to persist theme key", "err", err)
	}
}

// FastTheme reads the standalone theme key without touching the blob.
func (s *Store) FastTheme() string {
	raw, err := s.get(themeKey)
	if err != nil {
		return s.Theme()
	}
	return string(raw)
}

// Token is the durable login token; empty when absent.
func (s *Store) Token() string {
	raw, err := s.get(tokenKey)
	if err != nil {
		return ""
	}
	return string(raw)
}

func (s *Store) SetToken(token string) error {
	return s.set(tokenKey, []byte(token))
}

func (s *Store) ClearToken() error {
	return s.delete(tokenKey)
}

func (s *Store) get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) set(key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("badger set %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("badger delete %s: %w", key, err)
	}
	return nil
}
