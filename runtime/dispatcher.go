package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"pschat/auth"
	"pschat/battle"
	"pschat/contract"
	"pschat/domain"
	"pschat/domain/event"
	"pschat/errs"
	"pschat/highlight"
	"pschat/notify"
	"pschat/protocol"
	"pschat/query"
	"pschat/settings"
)

// Dispatcher interprets tokenized commands against the registry, auth
// state and correlator. It is the single writer: one chunk is dispatched
// to completion before the next, in arrival order.
type Dispatcher struct {
	log        *slog.Logger
	registry   *Registry
	auth       *auth.Manager
	correlator *query.Correlator
	matcher    *highlight.Matcher
	notifier   *notify.Engine
	store      *settings.Store

	loader   contract.DelegateLoader
	handoffs map[string]*battle.Handoff

	sinks   []contract.EventSink
	formats *protocol.Formats

	// onLogin fires once per named updateuser, after auth state and
	// settings are updated; the client replays pending joins here.
	onLogin func(username string)

	ctx context.Context
}

func NewDispatcher(
	ctx context.Context,
	log *slog.Logger,
	registry *Registry,
	authMgr *auth.Manager,
	correlator *query.Correlator,
	matcher *highlight.Matcher,
	notifier *notify.Engine,
	store *settings.Store,
	loader contract.DelegateLoader,
) *Dispatcher {
	return &Dispatcher{
		ctx:        ctx,
		log:        log,
		registry:   registry,
		auth:       authMgr,
		correlator: correlator,
		matcher:    matcher,
		notifier:   notifier,
		store:      store,
		loader:     loader,
		handoffs:   make(map[string]*battle.Handoff),
	}
}

func (d *Dispatcher) RegisterSink(sink contract.EventSink) {
	d.sinks = append(d.sinks, sink)
}

func (d *Dispatcher) SetLoginHook(fn func(username string)) {
	d.onLogin = fn
}

func (d *Dispatcher) emit(e event.DomainEvent) {
	for _, sink := range d.sinks {
		sink.Consume(e)
	}
}

// Registry exposes read access for the client facade.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Formats is the last parsed format catalogue, nil until one arrives.
func (d *Dispatcher) Formats() *protocol.Formats { return d.formats }

// HandleChunk tokenizes and dispatches one raw chunk to completion.
// Per-line failures are logged and skip only that line's effects.
func (d *Dispatcher) HandleChunk(chunk string) {
	for _, line := range protocol.SplitChunk(chunk) {
		if err := d.dispatch(line); err != nil {
			d.log.Error("dispatch failed", "room", line.RoomID, "cmd", string(line.Cmd), "raw", line.Raw, "err", err)
		}
	}
}

func (d *Dispatcher) dispatch(line protocol.Line) error {
	cmd := line.Cmd
	switch {
	case cmd.IsBattleLog():
		return d.feedBattle(line)
	case cmd.IsIgnored():
		d.log.Debug("ignoring command", "cmd", string(cmd), "room", line.RoomID)
		return nil
	}

	switch cmd {
	case protocol.CmdChallstr:
		d.auth.SetChallstr(protocol.JoinArgs(line.Args))
		d.emit(event.NewChallstrReceived())
		return nil
	case protocol.CmdInit:
		return d.handleInit(line)
	case protocol.CmdTitle:
		return d.handleTitle(line)
	case protocol.CmdUsers:
		return d.handleUsers(line)
	case protocol.CmdJoin:
		return d.handleJoin(line)
	case protocol.CmdLeave:
		return d.handleLeave(line)
	case protocol.CmdName:
		return d.handleName(line)
	case protocol.CmdChat:
		return d.handleChat(line, time.Time{})
	case protocol.CmdTimestampChat:
		return d.handleTimestampChat(line)
	case protocol.CmdBareText:
		return d.handleBareText(line)
	case protocol.CmdPM:
		return d.handlePM(line)
	case protocol.CmdQueryResponse:
		return d.handleQueryResponse(line)
	case protocol.CmdNoInit:
		return d.handleNoInit(line)
	case protocol.CmdUpdateUser:
		return d.handleUpdateUser(line)
	case protocol.CmdDeinit:
		return d.removeRoom(line.RoomID, false)
	case protocol.CmdUHTML, protocol.CmdUHTMLChange:
		return d.handleUHTML(line)
	case protocol.CmdHTML, protocol.CmdRaw, protocol.CmdPageHTML:
		return d.handleRawHTML(line)
	case protocol.CmdError:
		return d.handleError(line)
	case protocol.CmdFormats:
		formats, err := protocol.ParseFormats(line.Args)
		if err != nil {
			d.emit(event.NewParseFailed(line.RoomID, line.Raw))
			return err
		}
		d.formats = formats
		return nil
	case protocol.CmdPlayer:
		return d.handlePlayer(line)
	case protocol.CmdRequest:
		return d.handleRequest(line)
	default:
		d.emit(event.NewParseFailed(line.RoomID, line.Raw))
		return fmt.Errorf("%w: %q", errs.ErrUnknownCommand, string(cmd))
	}
}

func (d *Dispatcher) handleInit(line protocol.Line) error {
	if len(line.Args) < 1 {
		return fmt.Errorf("init without room type: %q", line.Raw)
	}
	typ := domain.RoomType(line.Args[0])
	d.createRoom(line.RoomID, typ)
	return nil
}

// createRoom is idempotent. Newly created rooms open unless the durable
// snapshot remembers them closed. Battle rooms start their delegate load
// immediately.
func (d *Dispatcher) createRoom(roomID string, typ domain.RoomType) *domain.Room {
	if room, err := d.registry.Get(roomID); err == nil {
		room.Connected = true
		return room
	}
	open := true
	if saved, ok := d.store.SavedRoom(roomID); ok && !saved.Open {
		open = false
	}
	room := d.registry.Upsert(domain.NewRoom(roomID, roomID, typ, true, open))
	if saved, ok := d.store.SavedRoom(roomID); ok && !saved.LastReadTime.IsZero() {
		room.LastReadTime = saved.LastReadTime
	} else {
		d.store.RememberRoom(settings.SavedRoom{ID: roomID, LastReadTime: room.LastReadTime, Open: open})
	}
	if typ == domain.RoomBattle {
		h := battle.NewHandoff(d.log, roomID)
		d.handoffs[roomID] = h
		if d.loader != nil {
			h.Launch(d.ctx, d.loader)
		}
	}
	d.emit(event.NewRoomAdded(roomID, typ))
	return room
}

func (d *Dispatcher) handleTitle(line protocol.Line) error {
	room, err := d.registry.Get(line.RoomID)
	if err != nil {
		return err
	}
	room.Rename(protocol.JoinArgs(line.Args))
	return nil
}

// handleUsers full-replaces the visible user list. The first comma entry
// is a count sentinel and is discarded.
func (d *Dispatcher) handleUsers(line protocol.Line) error {
	room, err := d.registry.Get(line.RoomID)
	if err != nil {
		return err
	}
	entries := strings.Split(protocol.JoinArgs(line.Args), ",")
	if len(entries) > 0 {
		entries = entries[1:]
	}
	users := make([]domain.User, 0, len(entries))
	for _, entry := range entries {
		if entry != "" {
			users = append(users, domain.NewUser(entry))
		}
	}
	room.ReplaceUsers(users)
	d.emit(event.NewUserListUpdated(room.ID, len(room.Users)))
	return nil
}

func (d *Dispatcher) handleJoin(line protocol.Line) error {
	room, err := d.registry.Get(line.RoomID)
	if err != nil {
		return err
	}
	if len(line.Args) < 1 {
		return fmt.Errorf("join without user: %q", line.Raw)
	}
	room.AddUsers(domain.NewUser(line.Args[0]))
	d.emit(event.NewUserListUpdated(room.ID, len(room.Users)))
	return nil
}

func (d *Dispatcher) handleLeave(line protocol.Line) error {
	room, err := d.registry.Get(line.RoomID)
	if err != nil {
		return err
	}
	if len(line.Args) < 1 {
		return fmt.Errorf("leave without user: %q", line.Raw)
	}
	room.RemoveUser(domain.ToID(line.Args[0]))
	d.emit(event.NewUserListUpdated(room.ID, len(room.Users)))
	return nil
}

// handleName renames one user: the payload is "newEntry|oldID", with the
// new entry carrying rank prefix and optional "@status" suffix.
func (d *Dispatcher) handleName(line protocol.Line) error {
	room, err := d.registry.Get(line.RoomID)
	if err != nil {
		return err
	}
	if len(line.Args) < 2 {
		return fmt.Errorf("name without old id: %q", line.Raw)
	}
	if err := room.RenameUser(line.Args[0], domain.ToID(line.Args[1])); err != nil {
		d.log.Warn("rename for unknown user", "room", room.ID, "err", err)
	}
	d.emit(event.NewUserListUpdated(room.ID, len(room.Users)))
	return nil
}

func (d *Dispatcher) handleTimestampChat(line protocol.Line) error {
	if len(line.Args) < 3 {
		return fmt.Errorf("timestamped chat too short: %q", line.Raw)
	}
	secs, err := strconv.ParseInt(line.Args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad chat timestamp %q: %w", line.Args[0], err)
	}
	shifted := line
	shifted.Args = line.Args[1:]
	return d.handleChat(shifted, time.Unix(secs, 0))
}

func (d *Dispatcher) handleChat(line protocol.Line, ts time.Time) error {
	room, err := d.registry.Get(line.RoomID)
	if err != nil {
		return err
	}
	if len(line.Args) < 2 {
		return fmt.Errorf("chat line too short: %q", line.Raw)
	}
	user := line.Args[0]
	content := protocol.JoinArgs(line.Args[1:])
	d.appendMessage(room, user, content, ts)
	return nil
}

// handleBareText delivers unframed text as a log entry of the chunk's
// room. Like every other room-scoped command, an unknown room skips the
// line; servers send banners after init, never before.
func (d *Dispatcher) handleBareText(line protocol.Line) error {
	room, err := d.registry.Get(line.RoomID)
	if err != nil {
		return err
	}
	m := domain.NewMessage(domain.KindLog, "", line.Raw)
	room.AddMessage(m, domain.AddOpts{Selected: d.registry.IsSelected(room.ID)})
	d.emit(event.NewMessageAdded(room.ID, room.Type, m))
	return nil
}

// handlePM routes by counterpart: the PM room belongs to whichever side
// is not the authenticated user, created on demand.
func (d *Dispatcher) handlePM(line protocol.Line) error {
	if len(line.Args) < 2 {
		return fmt.Errorf("pm line too short: %q", line.Raw)
	}
	sender := domain.NewUser(line.Args[0])
	receiver := domain.NewUser(line.Args[1])
	content := protocol.JoinArgs(line.Args[2:])

	counterpart := sender
	if sender.ID == domain.ToID(d.auth.Username()) {
		counterpart = receiver
	}
	roomID := domain.PMRoomID(string(counterpart.ID))
	room, err := d.registry.Get(roomID)
	if err != nil {
		room = d.registry.Upsert(domain.NewRoom(roomID, counterpart.DisplayName(), domain.RoomPM, true, true))
		d.emit(event.NewRoomAdded(roomID, domain.RoomPM))
	}

	// An empty /challenge payload cancels the live challenge instead of
	// appending a new message.
	if strings.TrimSpace(content) == "/challenge" {
		if err := room.EndChallenge(); err != nil {
			d.log.Debug("challenge end with no live challenge", "room", roomID)
			return nil
		}
		d.emit(event.NewMessagesUpdated(roomID))
		return nil
	}

	d.appendMessage(room, sender.DisplayName(), content, time.Now())
	return nil
}

func (d *Dispatcher) handleQueryResponse(line protocol.Line) error {
	if len(line.Args) < 2 {
		return fmt.Errorf("queryresponse too short: %q", line.Raw)
	}
	kind := protocol.QueryKind(line.Args[0])
	raw := json.RawMessage(protocol.JoinArgs(line.Args[1:]))
	if err := d.correlator.HandleResponse(kind, raw); err != nil {
		d.emit(event.NewParseFailed(line.RoomID, line.Raw))
		return err
	}
	return nil
}

func (d *Dispatcher) handleNoInit(line protocol.Line) error {
	if len(line.Args) < 1 {
		return fmt.Errorf("noinit without reason: %q", line.Raw)
	}
	reason := protocol.NoInitReason(line.Args[0])
	switch reason {
	case protocol.NoInitNonexistent, protocol.NoInitJoinFailed:
		text := protocol.JoinArgs(line.Args[1:])
		if text == "" {
			text = fmt.Sprintf("Could not join %s", line.RoomID)
		}
		d.emit(event.NewErrorRaised(text))
		return d.removeRoom(line.RoomID, true)
	case protocol.NoInitNameRequired:
		// Login still pending; the join will be replayed after auth.
		return nil
	case protocol.NoInitRename:
		return d.handleRenameRoom(line)
	default:
		d.log.Warn("unhandled noinit reason", "reason", string(reason), "room", line.RoomID)
		return nil
	}
}

// handleRenameRoom re-keys a room: "|noinit|rename|newID|newTitle".
func (d *Dispatcher) handleRenameRoom(line protocol.Line) error {
	if len(line.Args) < 2 {
		return fmt.Errorf("noinit rename too short: %q", line.Raw)
	}
	room, err := d.registry.Get(line.RoomID)
	if err != nil {
		return err
	}
	newID := line.Args[1]
	title := newID
	if len(line.Args) > 2 {
		title = line.Args[2]
	}
	if err := d.registry.Remove(room.ID); err != nil {
		return err
	}
	room.ID = newID
	room.Rename(title)
	d.registry.Upsert(room)
	d.emit(event.NewRoomAdded(newID, room.Type))
	return nil
}

func (d *Dispatcher) removeRoom(roomID string, userVisible bool) error {
	delete(d.handoffs, roomID)
	if err := d.registry.Remove(roomID); err != nil {
		if userVisible {
			return err
		}
		d.log.Debug("deinit for unknown room", "room", roomID)
		return nil
	}
	d.store.ForgetRoom(roomID)
	d.emit(event.NewRoomRemoved(roomID))
	return nil
}

// handleUpdateUser always updates the live username; a named non-guest
// login additionally persists the identity, runs a self-query, and fires
// the login hook exactly once per name change.
func (d *Dispatcher) handleUpdateUser(line protocol.Line) error {
	if len(line.Args) < 2 {
		return fmt.Errorf("updateuser too short: %q", line.Raw)
	}
	user := domain.NewUser(line.Args[0])
	named := line.Args[1] == "1"
	avatar := ""
	if len(line.Args) > 2 {
		avatar = line.Args[2]
	}

	name := user.DisplayName()
	if !named || strings.HasPrefix(string(user.ID), "guest") {
		d.auth.MarkGuest(name)
		return nil
	}

	wasLoggedIn := d.auth.LoggedIn()
	d.auth.MarkLoggedIn(name)
	d.store.UpdateUser(name, avatar)
	d.matcher.SetUsername(name, d.store.HighlightOnSelf())

	if err := d.correlator.QueryUser(name, nil); err != nil {
		d.log.Warn("self userdetails query failed", "err", err)
	}
	d.emit(event.NewLoginCompleted(name))
	if !wasLoggedIn && d.onLogin != nil {
		d.onLogin(name)
	}
	return nil
}

// handleUHTML upserts a named box; uhtmlchange mutates in place and is a
// logged no-op when the box never existed.
func (d *Dispatcher) handleUHTML(line protocol.Line) error {
	room, err := d.registry.Get(line.RoomID)
	if err != nil {
		return err
	}
	if len(line.Args) < 2 {
		return fmt.Errorf("uhtml line too short: %q", line.Raw)
	}
	name := line.Args[0]
	html := protocol.JoinArgs(line.Args[1:])

	if line.Cmd == protocol.CmdUHTMLChange {
		if err := room.ChangeBox(name, html); err != nil {
			d.log.Warn("uhtmlchange for absent box", "room", room.ID, "box", name)
			return nil
		}
		d.emit(event.NewMessagesUpdated(room.ID))
		return nil
	}

	m := domain.NewMessage(domain.KindBoxedHTML, "", html).WithBoxName(name)
	room.AddBox(m, domain.AddOpts{Selected: d.registry.IsSelected(room.ID)})
	d.emit(event.NewMessageAdded(room.ID, room.Type, m))
	return nil
}

func (d *Dispatcher) handleRawHTML(line protocol.Line) error {
	room, err := d.registry.Get(line.RoomID)
	if err != nil {
		return err
	}
	m := domain.NewMessage(domain.KindRawHTML, "", protocol.JoinArgs(line.Args))
	room.AddMessage(m, domain.AddOpts{Selected: d.registry.IsSelected(room.ID)})
	d.emit(event.NewMessageAdded(room.ID, room.Type, m))
	return nil
}

func (d *Dispatcher) handleError(line protocol.Line) error {
	room, err := d.registry.Get(line.RoomID)
	if err != nil {
		return err
	}
	m := domain.NewMessage(domain.KindError, "", protocol.JoinArgs(line.Args))
	room.AddMessage(m, domain.AddOpts{Selected: d.registry.IsSelected(room.ID)})
	d.emit(event.NewMessageAdded(room.ID, room.Type, m))
	return nil
}

// handlePlayer sets the battle perspective when the named player is the
// authenticated user.
func (d *Dispatcher) handlePlayer(line protocol.Line) error {
	room, err := d.registry.Get(line.RoomID)
	if err != nil {
		return err
	}
	if room.Type != domain.RoomBattle || len(line.Args) < 2 {
		return d.feedBattle(line)
	}
	if domain.ToID(line.Args[1]) == domain.ToID(d.auth.Username()) {
		room.Perspective = line.Args[0]
	}
	return d.feedBattle(line)
}

// handleRequest buffers the request payload and re-emits it; parsing the
// payload is the battle delegate's job.
func (d *Dispatcher) handleRequest(line protocol.Line) error {
	room, err := d.registry.Get(line.RoomID)
	if err != nil {
		return err
	}
	if room.Type != domain.RoomBattle {
		return fmt.Errorf("request outside battle room %s", room.ID)
	}
	raw := json.RawMessage(protocol.JoinArgs(line.Args))
	h, ok := d.handoffs[room.ID]
	if !ok {
		return fmt.Errorf("%w: no handoff for %s", errs.ErrRoomNotFound, room.ID)
	}
	h.SetRequest(raw)
	d.emit(event.NewBattleRequest(room.ID, raw))
	return d.feedBattle(line)
}

// feedBattle forwards one raw line, verbatim and in order, to the room's
// battle handoff. Battle-log lines for non-battle rooms are skipped.
func (d *Dispatcher) feedBattle(line protocol.Line) error {
	h, ok := d.handoffs[line.RoomID]
	if !ok {
		d.log.Debug("battle line outside battle room", "room", line.RoomID, "cmd", string(line.Cmd))
		return nil
	}
	return h.Feed(line.Raw)
}

// Handoff exposes a room's battle handoff to the client facade.
func (d *Dispatcher) Handoff(roomID string) (*battle.Handoff, bool) {
	h, ok := d.handoffs[roomID]
	return h, ok
}

// appendMessage runs the message pipeline: classify, compute self/
// highlight flags, append per room invariants, then the notification
// policy.
func (d *Dispatcher) appendMessage(room *domain.Room, user, content string, ts time.Time) {
	parsed := domain.ParseContent(content)

	// uhtmlchange delivered through the chat path mutates in place.
	if parsed.ChangeBox {
		if err := room.ChangeBox(parsed.BoxName, parsed.Content); err != nil {
			d.log.Warn("uhtmlchange for absent box", "room", room.ID, "box", parsed.BoxName)
			return
		}
		d.emit(event.NewMessagesUpdated(room.ID))
		return
	}

	m := domain.NewMessage(parsed.Kind, user, parsed.Content).WithTimestamp(ts)
	m.NoNotify = parsed.NoNotify
	if parsed.BoxName != "" {
		m.WithBoxName(parsed.BoxName)
	}

	authUser := d.auth.Username()
	selfSent := authUser != "" && domain.ToID(user) == domain.ToID(authUser)
	if m.Kind == domain.KindChat {
		d.matcher.Apply(room.ID, m, authUser, false)
	}

	selected := d.registry.IsSelected(room.ID)
	opts := domain.AddOpts{Selected: selected, SelfSent: selfSent}
	var mentioned bool
	if m.BoxName != "" {
		mentioned = room.AddBox(m, opts)
	} else {
		mentioned = room.AddMessage(m, opts)
	}

	d.emit(event.NewMessageAdded(room.ID, room.Type, m))
	if d.notifier.ShouldNotify(room, m, selected, authUser) {
		d.emit(event.NewNotificationRaised(room.ID, room.Type, m.User, m.Content, mentioned || room.Type == domain.RoomPM))
	}
}

// RunHighlight re-evaluates every room's chat log after highlight words
// change, forcing the cached flag to recompute.
func (d *Dispatcher) RunHighlight() {
	for _, room := range d.registry.ListOpen() {
		authUser := d.auth.Username()
		room.RunHighlight(func(roomID string, m *domain.Message) bool {
			return d.matcher.Apply(roomID, m, authUser, true)
		})
		d.emit(event.NewMessagesUpdated(room.ID))
	}
}
