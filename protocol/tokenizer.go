package protocol

import "strings"

// DefaultRoomID frames chunks that carry no ">roomid" marker.
const DefaultRoomID = "lobby"

// Line is one tokenized protocol line, scoped to the room its chunk was
// framed for.
type Line struct {
	RoomID string
	Cmd    Command
	Args   []string
	Raw    string
}

// SplitChunk tokenizes one raw chunk into ordered lines. If the first
// line starts with '>' its remainder becomes the room id for the whole
// chunk; blank lines are skipped. Order is preserved: dispatch order must
// equal arrival order.
func SplitChunk(chunk string) []Line {
	rows := strings.Split(chunk, "\n")
	roomID := DefaultRoomID
	start := 0
	if len(rows) > 0 && strings.HasPrefix(rows[0], ">") {
		roomID = rows[0][1:]
		start = 1
	}
	lines := make([]Line, 0, len(rows)-start)
	for _, row := range rows[start:] {
		if row == "" {
			continue
		}
		lines = append(lines, splitLine(roomID, row))
	}
	return lines
}

// splitLine cuts one row on '|'. Rows without a leading pipe are bare
// text, delivered as the "" command with the row as sole argument.
func splitLine(roomID, row string) Line {
	if !strings.HasPrefix(row, "|") {
		return Line{RoomID: roomID, Cmd: CmdBareText, Args: []string{row}, Raw: row}
	}
	fields := strings.Split(row[1:], "|")
	return Line{RoomID: roomID, Cmd: Command(fields[0]), Args: fields[1:], Raw: row}
}

// JoinArgs reassembles a pipe-split tail, for payloads (challstr) that
// must not be re-split on pipes.
func JoinArgs(args []string) string {
	return strings.Join(args, "|")
}
