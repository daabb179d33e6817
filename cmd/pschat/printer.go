package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"pschat/client"
	"pschat/domain"
	"pschat/domain/event"
)

// consolePrinter is the minimal observer: it renders events to stdout as
// they happen. It never mutates session state.
type consolePrinter struct {
	log *slog.Logger
}

func newConsolePrinter(log *slog.Logger) *consolePrinter {
	return &consolePrinter{log: log}
}

func (p *consolePrinter) Consume(e event.DomainEvent) {
	switch evt := e.(type) {
	case event.MessageAdded:
		p.printMessage(evt)
	case event.NotificationRaised:
		tag := color.New(color.BgBlack, color.FgYellow).Render("[notify]")
		fmt.Printf("%s %s: %s\n", tag, evt.RoomID, evt.Content)
	case event.ErrorRaised:
		fmt.Println(color.New(color.FgRed).Render("error: " + evt.Text))
	case event.LoginCompleted:
		fmt.Println(color.New(color.FgGreen).Render("logged in as " + evt.Username))
	case event.RoomAdded:
		p.log.Debug("room added", "room", evt.RoomID, "type", string(evt.Type))
	}
}

func (p *consolePrinter) printMessage(evt event.MessageAdded) {
	m := evt.Message
	room := color.New(color.FgCyan).Render("[" + evt.RoomID + "]")
	switch m.Kind {
	case domain.KindChat:
		name := m.User
		if m.IsHighlighted() {
			name = color.New(color.BgBlack, color.FgMagenta).Render(name)
		}
		fmt.Printf("%s %s: %s\n", room, name, m.Content)
	case domain.KindError:
		fmt.Printf("%s %s\n", room, color.New(color.FgRed).Render(m.Content))
	case domain.KindAnnounce:
		fmt.Printf("%s %s\n", room, color.New(color.FgYellow).Render(m.Content))
	case domain.KindRoleplay:
		fmt.Printf("%s * %s %s\n", room, m.User, m.Content)
	}
}

// printRoomTable dumps the open-room summary on shutdown.
func printRoomTable(session *client.Session) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Room", "Type", "Users", "Messages", "Unread", "Mentions"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, room := range session.OpenRooms() {
		table.Append([]string{
			room.ID,
			string(room.Type),
			fmt.Sprintf("%d", len(room.Users)),
			fmt.Sprintf("%d", len(room.Messages)),
			fmt.Sprintf("%d", room.Unread),
			fmt.Sprintf("%d", room.Mentions),
		})
	}
	table.Render()
}
