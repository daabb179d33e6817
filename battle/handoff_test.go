package battle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pschat/contract"
	"pschat/mocks"
)

func TestHandoff_QueuesUntilAttach(t *testing.T) {
	req := require.New(t)
	h := NewHandoff(slog.Default(), "battle-gen9ou-1")

	req.NoError(h.Feed("|move|p1a: Pikachu|Thunderbolt|p2a: Gyarados"))
	req.NoError(h.Feed("|-damage|p2a: Gyarados|12/100"))
	req.False(h.Ready())
	req.Equal(2, h.Queued())
}

// Queued frames replay in arrival order, exactly once, then the queue is
// discarded.
func TestHandoff_ReplaysInOrderOnce(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewHandoff(slog.Default(), "battle-gen9ou-1")
	req.NoError(h.Feed("|start"))
	req.NoError(h.Feed("|turn|1"))

	delegate := mocks.NewMockBattleDelegate(ctrl)
	gomock.InOrder(
		delegate.EXPECT().Feed("|start").Return(nil),
		delegate.EXPECT().Feed("|turn|1").Return(nil),
	)

	req.NoError(h.Attach(delegate))
	req.True(h.Ready())
	req.Zero(h.Queued())

	// Later frames go straight through.
	delegate.EXPECT().Feed("|turn|2").Return(nil)
	req.NoError(h.Feed("|turn|2"))
}

// Without a delegate the queue is bounded: past the limit the oldest
// frame drops so an unattended battle room cannot grow forever.
func TestHandoff_QueueIsBounded(t *testing.T) {
	req := require.New(t)
	h := NewHandoff(slog.Default(), "battle-gen9ou-1")

	for i := 0; i <= queueLimit; i++ {
		req.NoError(h.Feed(fmt.Sprintf("|turn|%d", i)))
	}

	req.Equal(queueLimit, h.Queued())
}

func TestHandoff_DoubleAttachIsNoOp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewHandoff(slog.Default(), "battle-gen9ou-1")
	first := mocks.NewMockBattleDelegate(ctrl)
	second := mocks.NewMockBattleDelegate(ctrl)

	require.NoError(t, h.Attach(first))
	require.NoError(t, h.Attach(second))

	first.EXPECT().Feed("|turn|1").Return(nil)
	require.NoError(t, h.Feed("|turn|1"))
}

func TestHandoff_DelegateErrorSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewHandoff(slog.Default(), "battle-gen9ou-1")
	delegate := mocks.NewMockBattleDelegate(ctrl)
	require.NoError(t, h.Attach(delegate))

	delegate.EXPECT().Feed("|turn|1").Return(fmt.Errorf("bad frame"))
	require.Error(t, h.Feed("|turn|1"))
}

func TestHandoff_RequestBuffer(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewHandoff(slog.Default(), "battle-gen9ou-1")
	raw := json.RawMessage(`{"active":[]}`)
	h.SetRequest(raw)
	req.Equal(raw, h.Request())

	// Once attached, the delegate's own view wins when present.
	delegate := mocks.NewMockBattleDelegate(ctrl)
	req.NoError(h.Attach(delegate))
	delegate.EXPECT().Request().Return(json.RawMessage(`{"wait":true}`))
	req.JSONEq(`{"wait":true}`, string(h.Request()))
}

func TestHandoff_LaunchAttachesAsynchronously(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewHandoff(slog.Default(), "battle-gen9ou-1")
	req.NoError(h.Feed("|start"))

	delegate := mocks.NewMockBattleDelegate(ctrl)
	delegate.EXPECT().Feed("|start").Return(nil)

	loader := contract.DelegateLoader(func(ctx context.Context, roomID string) (contract.BattleDelegate, error) {
		return delegate, nil
	})
	h.Launch(context.Background(), loader)

	req.Eventually(func() bool { return h.Ready() }, time.Second, 10*time.Millisecond)
}
