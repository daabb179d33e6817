// Package query correlates outbound query commands with their
// asynchronous replies. The protocol has no request IDs, so at most one
// listener is registered per query kind; a re-query displaces the
// previous listener.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"pschat/contract"
	"pschat/domain"
	"pschat/errs"
	"pschat/protocol"
)

type Callback func(raw json.RawMessage)

// UserDetails is the cached shape of the most recent userdetails reply.
type UserDetails struct {
	UserID string
	Status string
	Raw    json.RawMessage
}

type Correlator struct {
	log    *slog.Logger
	sender contract.Sender

	listeners map[protocol.QueryKind]Callback

	// roomsCache and newsCache are idempotent: first successful response
	// wins and is replayed to later callers without re-querying.
	roomsCache json.RawMessage
	newsCache  json.RawMessage

	// lastUser backs the stale-while-revalidate userdetails behavior.
	lastUser *UserDetails

	httpClient  *http.Client
	newsURL     string
	newsRetries int
}

func NewCorrelator(log *slog.Logger, sender contract.Sender, newsURL string, newsRetries int) *Correlator {
	return &Correlator{
		log:         log,
		sender:      sender,
		listeners:   make(map[protocol.QueryKind]Callback),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		newsURL:     newsURL,
		newsRetries: newsRetries,
	}
}

// QueryUser asks for a user's details, keyed by normalized id. If the
// same user was queried before, the stale result is replayed immediately
// while a fresh query is still issued.
func (c *Correlator) QueryUser(user string, cb Callback) error {
	id := string(domain.ToID(user))
	if c.lastUser != nil && c.lastUser.UserID == id && cb != nil {
		cb(c.lastUser.Raw)
	}
	if err := c.sender.Send(fmt.Sprintf("/cmd userdetails %s", id), ""); err != nil {
		return err
	}
	c.listeners[protocol.QueryUserDetails] = cb
	return nil
}

// QueryRooms asks for the public room directory, cached after the first
// response.
func (c *Correlator) QueryRooms(cb Callback) error {
	if c.roomsCache != nil {
		if cb != nil {
			cb(c.roomsCache)
		}
		return nil
	}
	if err := c.sender.Send("/cmd rooms", ""); err != nil {
		return err
	}
	c.listeners[protocol.QueryRooms] = cb
	return nil
}

// QueryNews fetches the news feed over plain HTTP, not the socket, with
// a bounded retry count so abandoned callers never leave unbounded work
// behind. The first successful body is cached.
func (c *Correlator) QueryNews(ctx context.Context, cb Callback) error {
	if c.newsCache != nil {
		if cb != nil {
			cb(c.newsCache)
		}
		return nil
	}
	var lastErr error
	for attempt := 0; attempt < c.newsRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := c.fetchNews(ctx)
		if err != nil {
			lastErr = err
			c.log.Warn("news fetch failed", "attempt", attempt+1, "err", err)
			continue
		}
		c.newsCache = body
		if cb != nil {
			cb(body)
		}
		return nil
	}
	return fmt.Errorf("news fetch abandoned after %d attempts: %w", c.newsRetries, lastErr)
}

func (c *Correlator) fetchNews(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.newsURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news endpoint returned %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("news endpoint returned invalid JSON")
	}
	return body, nil
}

// HandleResponse routes one |queryresponse| payload. A reply with no
// registered listener is a warning, not an error: it is expected during
// startup races. An unknown kind is a protocol bug.
func (c *Correlator) HandleResponse(kind protocol.QueryKind, raw json.RawMessage) error {
	switch kind {
	case protocol.QueryUserDetails:
		var details struct {
			UserID string `json:"userid"`
			Status string `json:"status"`
		}
		if err := json.Unmarshal(raw, &details); err != nil {
			return fmt.Errorf("malformed userdetails payload: %w", err)
		}
		c.lastUser = &UserDetails{UserID: details.UserID, Status: details.Status, Raw: raw}
	case protocol.QueryRooms:
		c.roomsCache = raw
	case protocol.QueryRoomList, protocol.QueryLadderTop, protocol.QueryRoomInfo,
		protocol.QuerySaveReplay, protocol.QueryDebug:
		// Recognized, no session-core behavior.
		return nil
	default:
		return fmt.Errorf("%w: %s", errs.ErrUnknownQueryKind, kind)
	}

	cb, ok := c.listeners[kind]
	if !ok || cb == nil {
		c.log.Warn("queryresponse with no listener", "kind", kind)
		return nil
	}
	delete(c.listeners, kind)
	cb(raw)
	return nil
}

// HasUserListener reports whether a userdetails reply is expected.
func (c *Correlator) HasUserListener() bool {
	_, ok := c.listeners[protocol.QueryUserDetails]
	return ok
}

// LastUser exposes the most recent userdetails for stale replay.
func (c *Correlator) LastUser() *UserDetails {
	return c.lastUser
}
