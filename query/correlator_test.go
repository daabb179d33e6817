package query

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pschat/errs"
	"pschat/mocks"
	"pschat/protocol"
)

func newTestCorrelator(t *testing.T, newsURL string) (*Correlator, *mocks.MockSender) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	sender := mocks.NewMockSender(ctrl)
	return NewCorrelator(slog.Default(), sender, newsURL, 3), sender
}

func TestCorrelator_ReQueryOverwritesListener(t *testing.T) {
	req := require.New(t)
	c, sender := newTestCorrelator(t, "")
	sender.EXPECT().Send("/cmd rooms", "").Return(nil).Times(2)

	var firstCalled, secondCalled bool
	req.NoError(c.QueryRooms(func(json.RawMessage) { firstCalled = true }))
	req.NoError(c.QueryRooms(func(json.RawMessage) { secondCalled = true }))

	req.NoError(c.HandleResponse(protocol.QueryRooms, json.RawMessage(`{"chat":[]}`)))
	req.False(firstCalled)
	req.True(secondCalled)
}

func TestCorrelator_RoomsCachedAfterFirstResponse(t *testing.T) {
	req := require.New(t)
	c, sender := newTestCorrelator(t, "")
	sender.EXPECT().Send("/cmd rooms", "").Return(nil)

	req.NoError(c.QueryRooms(nil))
	req.NoError(c.HandleResponse(protocol.QueryRooms, json.RawMessage(`{"chat":[]}`)))

	// Second caller is served from cache, no outbound send.
	var replayed json.RawMessage
	req.NoError(c.QueryRooms(func(raw json.RawMessage) { replayed = raw }))
	req.JSONEq(`{"chat":[]}`, string(replayed))
}

func TestCorrelator_UserDetailsStaleWhileRevalidate(t *testing.T) {
	req := require.New(t)
	c, sender := newTestCorrelator(t, "")
	sender.EXPECT().Send("/cmd userdetails annika", "").Return(nil).Times(2)

	req.NoError(c.QueryUser("annika", nil))
	req.NoError(c.HandleResponse(protocol.QueryUserDetails,
		json.RawMessage(`{"userid":"annika","status":"busy"}`)))

	// The stale result replays immediately while a fresh query still goes out.
	var stale json.RawMessage
	req.NoError(c.QueryUser("annika", func(raw json.RawMessage) { stale = raw }))
	req.NotNil(stale)
	req.True(c.HasUserListener())
}

func TestCorrelator_OrphanResponseIsWarningOnly(t *testing.T) {
	c, _ := newTestCorrelator(t, "")

	err := c.HandleResponse(protocol.QueryUserDetails, json.RawMessage(`{"userid":"bob"}`))
	require.NoError(t, err)
}

func TestCorrelator_UnknownKindIsHardFailure(t *testing.T) {
	c, _ := newTestCorrelator(t, "")

	err := c.HandleResponse(protocol.QueryKind("wat"), json.RawMessage(`{}`))
	require.ErrorIs(t, err, errs.ErrUnknownQueryKind)
}

func TestCorrelator_RecognizedNoOpKinds(t *testing.T) {
	c, _ := newTestCorrelator(t, "")

	for _, kind := range []protocol.QueryKind{
		protocol.QueryRoomList, protocol.QueryLadderTop,
		protocol.QueryRoomInfo, protocol.QuerySaveReplay, protocol.QueryDebug,
	} {
		require.NoError(t, c.HandleResponse(kind, json.RawMessage(`{}`)))
	}
}

func TestCorrelator_NewsFetchedOverHTTPAndCached(t *testing.T) {
	req := require.New(t)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[{"title":"scheduled downtime"}]`))
	}))
	defer srv.Close()

	c, _ := newTestCorrelator(t, srv.URL)

	var got json.RawMessage
	req.NoError(c.QueryNews(context.Background(), func(raw json.RawMessage) { got = raw }))
	req.JSONEq(`[{"title":"scheduled downtime"}]`, string(got))

	req.NoError(c.QueryNews(context.Background(), func(json.RawMessage) {}))
	req.Equal(int32(1), hits.Load())
}

func TestCorrelator_NewsRetriesAreBounded(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := newTestCorrelator(t, srv.URL)

	err := c.QueryNews(context.Background(), nil)
	require.Error(t, err)
	require.Equal(t, int32(3), hits.Load())
}
