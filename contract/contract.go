//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"encoding/json"

	"pschat/domain/event"
)

// Sender formats and transmits one outbound message. An empty roomID
// means the global scope ("|message" on the wire).
type Sender interface {
	Send(message, roomID string) error
}

// Socket is the duplex text stream under the transport adapter.
type Socket interface {
	WriteText(payload string) error
	Close() error
}

// EventSink receives read-only domain events from the dispatcher.
type EventSink interface {
	Consume(e event.DomainEvent)
}

// BattleDelegate is the specialized sub-protocol handler for battle log
// lines. The session core only decides which room a frame belongs to and
// forwards it verbatim, in order.
type BattleDelegate interface {
	Feed(line string) error
	Request() json.RawMessage
}

// DelegateLoader lazily constructs the battle delegate for a room. The
// load is asynchronous and races with already-arriving frames; callers
// queue frames until it returns.
type DelegateLoader func(ctx context.Context, roomID string) (BattleDelegate, error)

// AuthFlow is the out-of-band interactive authorization collaborator:
// Open launches the external flow, Poll checks the redirect target for
// an assertion/token pair.
type AuthFlow interface {
	Open(url string) error
	Poll() (assertion, token string, done bool, err error)
}

// FocusProbe reports whether the surrounding UI currently has input
// focus; the notification policy consults it per message.
type FocusProbe interface {
	HasFocus() bool
}
