// Package protocol tokenizes the pipe-delimited line protocol and names
// its closed command vocabulary. Anything outside the vocabulary is a
// parse bug, surfaced by the dispatcher.
package protocol

type Command string

const (
	CmdChallstr      Command = "challstr"
	CmdInit          Command = "init"
	CmdTitle         Command = "title"
	CmdUsers         Command = "users"
	CmdBareText      Command = ""
	CmdChat          Command = "chat"
	CmdTimestampChat Command = "c:"
	CmdPM            Command = "pm"
	CmdJoin          Command = "join"
	CmdLeave         Command = "leave"
	CmdName          Command = "name"
	CmdQueryResponse Command = "queryresponse"
	CmdNoInit        Command = "noinit"
	CmdUpdateUser    Command = "updateuser"
	CmdDeinit        Command = "deinit"
	CmdPageHTML      Command = "pagehtml"
	CmdUHTMLChange   Command = "uhtmlchange"
	CmdUHTML         Command = "uhtml"
	CmdHTML          Command = "html"
	CmdRaw           Command = "raw"
	CmdError         Command = "error"
	CmdFormats       Command = "formats"
	CmdPlayer        Command = "player"
	CmdRequest       Command = "request"
)

// QueryKind is the sub-vocabulary of queryresponse.
type QueryKind string

const (
	QueryUserDetails QueryKind = "userdetails"
	QueryRooms       QueryKind = "rooms"
	QueryRoomList    QueryKind = "roomlist"
	QueryLadderTop   QueryKind = "laddertop"
	QueryRoomInfo    QueryKind = "roominfo"
	QuerySaveReplay  QueryKind = "savereplay"
	QueryDebug       QueryKind = "debug"
)

// NoInitReason is the sub-vocabulary of noinit.
type NoInitReason string

const (
	NoInitNameRequired NoInitReason = "namerequired"
	NoInitNonexistent  NoInitReason = "nonexistent"
	NoInitJoinFailed   NoInitReason = "joinfailed"
	NoInitRename       NoInitReason = "rename"
)

// battleCommands are forwarded verbatim to the room's battle delegate;
// the dispatcher does not interpret their payload.
var battleCommands = map[Command]struct{}{
	"move": {}, "switch": {}, "drag": {}, "replace": {}, "swap": {},
	"cant": {}, "faint": {}, "done": {}, "start": {}, "upkeep": {},
	"turn": {}, "win": {}, "tie": {}, "expire": {}, "t:": {}, ":": {},
	"teamsize": {}, "gametype": {}, "gen": {}, "tier": {}, "rule": {},
	"rated": {}, "seed": {}, "clearpoke": {}, "poke": {}, "teampreview": {},
	"updatepoke": {}, "inactive": {}, "inactiveoff": {}, "battle": {},
	"detailschange": {}, "sentchoice": {}, "usercount": {}, "message": {},
	"tournament": {}, "askreg": {},
	"-fail": {}, "-status": {}, "-item": {}, "-enditem": {}, "-unboost": {},
	"-formechange": {}, "-clearnegativeboost": {}, "-supereffective": {},
	"-end": {}, "-singleturn": {}, "-miss": {}, "-crit": {}, "-immune": {},
	"-sidestart": {}, "-sideend": {}, "-start": {}, "-resisted": {},
	"-damage": {}, "-heal": {}, "-ability": {}, "-message": {}, "-boost": {},
	"-block": {}, "-notarget": {}, "-sethp": {}, "-curestatus": {},
	"-cureteam": {}, "-setboost": {}, "-swapsideconditions": {},
	"-swapboost": {}, "-invertboost": {}, "-clearboost": {},
	"-clearallboost": {}, "-clearpositiveboost": {}, "-endability": {},
	"-transform": {}, "-mega": {}, "-primal": {}, "-burst": {},
	"-zpower": {}, "-zbroken": {}, "-activate": {}, "-fieldactivate": {},
	"-hint": {}, "-center": {}, "-combine": {}, "-copyboost": {},
	"-weather": {}, "-fieldstart": {}, "-fieldend": {}, "-waiting": {},
	"-prepare": {}, "-mustrecharge": {}, "-hitcount": {}, "-singlemove": {},
	"-anim": {}, "-ohko": {}, "-candynamax": {}, "-terastallize": {},
}

// ignoredCommands are recognized but carry no session-core behavior.
var ignoredCommands = map[Command]struct{}{
	"customgroups": {}, "notify": {}, "popup": {}, "nametaken": {},
	"updatesearch": {}, "updatechallenges": {}, "debug": {}, "unlink": {},
	"warning": {}, "bigerror": {}, "chatmsg": {}, "chatmsg-raw": {},
	"controlshtml": {}, "fieldhtml": {}, "selectorhtml": {}, "refresh": {},
	"tempnotify": {}, "tempnotifyoff": {}, "hidelines": {}, "custom": {},
}

var coreCommands = map[Command]struct{}{
	CmdChallstr: {}, CmdInit: {}, CmdTitle: {}, CmdUsers: {},
	CmdBareText: {}, CmdChat: {}, CmdTimestampChat: {}, CmdPM: {},
	CmdJoin: {}, CmdLeave: {}, CmdName: {}, CmdQueryResponse: {},
	CmdNoInit: {}, CmdUpdateUser: {}, CmdDeinit: {}, CmdPageHTML: {},
	CmdUHTMLChange: {}, CmdUHTML: {}, CmdHTML: {}, CmdRaw: {},
	CmdError: {}, CmdFormats: {}, CmdPlayer: {}, CmdRequest: {},
}

func (c Command) IsBattleLog() bool {
	_, ok := battleCommands[c]
	return ok
}

func (c Command) IsIgnored() bool {
	_, ok := ignoredCommands[c]
	return ok
}

// IsKnown reports whether the command is inside the closed vocabulary.
func (c Command) IsKnown() bool {
	if _, ok := coreCommands[c]; ok {
		return true
	}
	return c.IsBattleLog() || c.IsIgnored()
}
