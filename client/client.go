// Package client is the top-level session object: it wires the
// transport, dispatcher, auth, settings, queries and search behind one
// explicit owner constructed by the process entry point.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"pschat/auth"
	"pschat/contract"
	"pschat/domain"
	"pschat/errs"
	"pschat/highlight"
	"pschat/internal"
	"pschat/notify"
	"pschat/observability"
	"pschat/query"
	"pschat/runtime"
	"pschat/search"
	"pschat/settings"
	"pschat/transport"
)

// Session owns the whole state machine. It implements contract.Sender
// and is the only component allowed to write to the transport.
type Session struct {
	log        *slog.Logger
	cfg        internal.Config
	store      *settings.Store
	transport  *transport.Adapter
	registry   *runtime.Registry
	dispatcher *runtime.Dispatcher
	auth       *auth.Manager
	correlator *query.Correlator
	matcher    *highlight.Matcher
	index      *search.Index
	stats      *observability.Stats

	mu           sync.Mutex
	pendingJoins []string
}

// New wires the session. The delegate loader, auth flow and focus probe
// are external collaborators and may be nil.
func New(
	ctx context.Context,
	log *slog.Logger,
	cfg internal.Config,
	store *settings.Store,
	flow contract.AuthFlow,
	focus contract.FocusProbe,
	loader contract.DelegateLoader,
) (*Session, error) {
	s := &Session{
		log:      log,
		cfg:      cfg,
		store:    store,
		registry: runtime.NewRegistry(),
	}

	s.auth = auth.NewManager(log, s, store, flow, cfg.OAuthClientID, cfg.LoginPollInterval, cfg.LoginPollRetries)
	s.correlator = query.NewCorrelator(log, s, cfg.NewsURL, cfg.NewsRetries)

	s.matcher = highlight.NewMatcher(log)
	for roomID, words := range store.HighlightWordsMap() {
		s.matcher.SetWords(roomID, words)
	}
	s.matcher.SetUsername(store.Username(), store.HighlightOnSelf())

	notifier := notify.NewEngine(log, focus)
	s.dispatcher = runtime.NewDispatcher(ctx, log, s.registry, s.auth, s.correlator, s.matcher, notifier, store, loader)
	s.dispatcher.SetLoginHook(s.onLogin)

	index, err := search.NewIndex(log)
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}
	s.index = index
	s.dispatcher.RegisterSink(index)

	s.stats = observability.NewStats(log, cfg.StatsInterval)
	s.dispatcher.RegisterSink(s.stats)

	serverURL := cfg.ServerURL
	if serverURL == "" {
		serverURL = store.ServerURL()
	}
	s.transport = transport.NewAdapter(log, serverURL, s.dispatcher.HandleChunk)
	return s, nil
}

// Connect dials the server and kicks off the non-interactive login
// attempt. Sends issued before the dial queue and flush on open.
func (s *Session) Connect(ctx context.Context) error {
	if err := s.transport.Dial(ctx); err != nil {
		return err
	}
	go func() {
		if err := s.auth.TryLogin(ctx, s.cfg.StartupAssertion, s.cfg.StartupToken); err != nil {
			s.log.Warn("auto-login failed", "err", err)
		}
	}()
	return nil
}

// Close shuts the transport and the search index.
func (s *Session) Close() error {
	if err := s.index.Close(); err != nil {
		s.log.Warn("failed to close search index", "err", err)
	}
	return s.transport.Close()
}

// Send implements contract.Sender with the wire formatting rules: global
// scope is "|msg", PM rooms go through /pm, everything else is
// "roomid|msg". Chat sends to a known room are recorded in its recall
// history.
func (s *Session) Send(message, roomID string) error {
	if roomID == "" {
		return s.transport.WriteText("|" + message)
	}
	room, err := s.registry.Get(roomID)
	if err != nil {
		return fmt.Errorf("%w: cannot send to %s", errs.ErrRoomNotFound, roomID)
	}
	var payload string
	if room.Type == domain.RoomPM {
		payload = fmt.Sprintf("|/pm %s, %s", room.Name, message)
	} else {
		payload = roomID + "|" + message
	}
	if err := s.transport.WriteText(payload); err != nil {
		return err
	}
	if !strings.HasPrefix(message, "/") {
		room.RecordSent(message)
	}
	return nil
}

// Join requests a room. Joins issued before login completes are also
// queued for replay in original order on login success.
func (s *Session) Join(roomID string) error {
	if !s.auth.LoggedIn() {
		s.mu.Lock()
		s.pendingJoins = append(s.pendingJoins, roomID)
		s.mu.Unlock()
	}
	return s.transport.WriteText("|/join " + roomID)
}

func (s *Session) Leave(roomID string) error {
	if !s.registry.Has(roomID) {
		return fmt.Errorf("%w: cannot leave %s", errs.ErrRoomNotFound, roomID)
	}
	return s.transport.WriteText("|/leave " + roomID)
}

// Autojoin issues one bulk join for up to the server's limit of rooms.
func (s *Session) Autojoin(rooms []string) error {
	if len(rooms) == 0 {
		return nil
	}
	return s.transport.WriteText("|/autojoin " + strings.Join(rooms, ","))
}

// onLogin replays pending joins in original order; the durable autojoin
// snapshot is consulted only when no explicit joins were pending.
func (s *Session) onLogin(username string) {
	s.mu.Lock()
	pending := s.pendingJoins
	s.pendingJoins = nil
	s.mu.Unlock()

	if len(pending) > 0 {
		for _, roomID := range pending {
			if err := s.transport.WriteText("|/join " + roomID); err != nil {
				s.log.Warn("pending join replay failed", "room", roomID, "err", err)
			}
		}
		return
	}

	var saved []string
	for _, r := range s.store.SavedRooms() {
		if r.Open && !strings.HasPrefix(r.ID, "pm-") {
			saved = append(saved, r.ID)
		}
	}
	if len(saved) == 0 {
		saved = s.cfg.AutojoinRooms()
	}
	if err := s.Autojoin(saved); err != nil {
		s.log.Warn("autojoin failed", "err", err)
	}
}

// SelectRoom focuses a room, clearing its counters.
func (s *Session) SelectRoom(roomID string) error {
	room, err := s.registry.Select(roomID)
	if err != nil {
		return err
	}
	s.store.RememberRoom(settings.SavedRoom{ID: room.ID, LastReadTime: room.LastReadTime, Open: true})
	return nil
}

// CloseRoom hides permanent rooms and removes the rest, leaving the
// server room when still connected.
func (s *Session) CloseRoom(roomID string) error {
	room, err := s.registry.Get(roomID)
	if err != nil {
		return err
	}
	connected := room.Connected && room.Type != domain.RoomPM && room.Type != domain.RoomPermanent
	if err := s.registry.Remove(roomID); err != nil {
		return err
	}
	s.store.ForgetRoom(roomID)
	if connected {
		return s.transport.WriteText("|/leave " + roomID)
	}
	return nil
}

func (s *Session) Room(roomID string) (*domain.Room, error) { return s.registry.Get(roomID) }

func (s *Session) OpenRooms() []*domain.Room { return s.registry.ListOpen() }

func (s *Session) QueryUser(user string, cb query.Callback) error {
	return s.correlator.QueryUser(user, cb)
}

func (s *Session) QueryRooms(cb query.Callback) error {
	return s.correlator.QueryRooms(cb)
}

func (s *Session) QueryNews(ctx context.Context, cb query.Callback) error {
	return s.correlator.QueryNews(ctx, cb)
}

// Login runs the interactive flow explicitly.
func (s *Session) Login(ctx context.Context) error { return s.auth.Login(ctx) }

// LoginWithPassword uses the legacy name/password loginserver flow.
func (s *Session) LoginWithPassword(ctx context.Context, username, password string) error {
	return s.auth.LoginWithPassword(ctx, username, password)
}

func (s *Session) Logout() error { return s.auth.Logout() }

// Subscribe registers a read-only observer for domain events.
func (s *Session) Subscribe(sink contract.EventSink) {
	s.dispatcher.RegisterSink(sink)
}

// SetHighlightWords updates one room's word list, persists it, and
// re-evaluates existing messages.
func (s *Session) SetHighlightWords(roomID string, words []string) {
	s.store.SetHighlightWords(roomID, words)
	s.matcher.SetWords(roomID, words)
	s.dispatcher.RunHighlight()
}

// SearchHistory greps the local chat log.
func (s *Session) SearchHistory(ctx context.Context, q, roomID string, limit int) ([]search.Hit, error) {
	return s.index.Search(ctx, q, roomID, limit)
}

// Stats exposes the observability reporter for the entry point to run.
func (s *Session) Stats() *observability.Stats { return s.stats }

// Dispatcher exposes the state owner for tests and the console observer.
func (s *Session) Dispatcher() *runtime.Dispatcher { return s.dispatcher }
