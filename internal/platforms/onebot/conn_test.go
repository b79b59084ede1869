package onebot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepmind9/chatbridge/internal/bridge"
)

// TestConn_DispatchFrame tests frame routing between events and API
// responses
func TestConn_DispatchFrame(t *testing.T) {
	t.Run("event frames reach the handler", func(t *testing.T) {
		c := NewConn("ws://127.0.0.1:6700", "")
		var got bridge.Event
		c.handler = func(ev bridge.Event) { got = ev }

		c.dispatchFrame([]byte(`{
			"post_type": "message",
			"message_type": "private",
			"message_id": 1,
			"user_id": 10001,
			"self_id": 99,
			"message": [{"type":"text","data":{"text":"hi"}}]
		}`))

		require.NotNil(t, got)
		assert.IsType(t, &PrivateMessageEvent{}, got)
		assert.Equal(t, "99", c.BotID(), "self id learned from the first event")
	})

	t.Run("echo frames complete pending calls", func(t *testing.T) {
		c := NewConn("ws://127.0.0.1:6700", "")
		ch := make(chan apiResponse, 1)
		c.pending["echo-1"] = ch

		c.dispatchFrame([]byte(`{"status":"ok","retcode":0,"data":{"message_id":5},"echo":"echo-1"}`))

		resp := <-ch
		assert.Equal(t, "ok", resp.Status)
		assert.JSONEq(t, `{"message_id":5}`, string(resp.Data))
	})

	t.Run("unknown echo is ignored", func(t *testing.T) {
		c := NewConn("ws://127.0.0.1:6700", "")
		assert.NotPanics(t, func() {
			c.dispatchFrame([]byte(`{"status":"ok","echo":"nobody"}`))
		})
	})

	t.Run("malformed frames are dropped", func(t *testing.T) {
		c := NewConn("ws://127.0.0.1:6700", "")
		assert.NotPanics(t, func() { c.dispatchFrame([]byte(`{oops`)) })
	})
}

// TestConn_StopWithPendingCalls tests that shutdown completes outstanding
// API calls with a failure and tolerates responses racing the shutdown
func TestConn_StopWithPendingCalls(t *testing.T) {
	t.Run("pending calls receive a failed response", func(t *testing.T) {
		c := NewConn("ws://127.0.0.1:6700", "")
		ch := make(chan apiResponse, 1)
		c.pending["echo-1"] = ch

		require.NoError(t, c.Stop())

		resp := <-ch
		assert.Equal(t, "failed", resp.Status)
		assert.Empty(t, c.pending)
	})

	t.Run("response racing stop never blocks or panics", func(t *testing.T) {
		c := NewConn("ws://127.0.0.1:6700", "")
		// The caller was already served, so the buffer is full and a
		// blocking send here would wedge the read loop
		ch := make(chan apiResponse, 1)
		ch <- apiResponse{Status: "ok"}
		c.pending["echo-1"] = ch

		assert.NotPanics(t, func() {
			c.dispatchFrame([]byte(`{"status":"ok","echo":"echo-1"}`))
			require.NoError(t, c.Stop())
		})
	})

	t.Run("duplicate echo delivers once", func(t *testing.T) {
		c := NewConn("ws://127.0.0.1:6700", "")
		ch := make(chan apiResponse, 1)
		c.pending["echo-1"] = ch

		c.dispatchFrame([]byte(`{"status":"ok","echo":"echo-1"}`))
		c.dispatchFrame([]byte(`{"status":"ok","echo":"echo-1"}`))

		<-ch
		select {
		case resp := <-ch:
			t.Fatalf("second delivery for one echo: %+v", resp)
		default:
		}
	})
}

// TestConn_RememberSelfID tests that the first learned id sticks
func TestConn_RememberSelfID(t *testing.T) {
	c := NewConn("ws://127.0.0.1:6700", "")
	c.rememberSelfID("")
	assert.Empty(t, c.BotID())

	c.rememberSelfID("99")
	c.rememberSelfID("100")
	assert.Equal(t, "99", c.BotID())
}

// TestConn_InvokeWithoutConnection tests the unconnected error path
func TestConn_InvokeWithoutConnection(t *testing.T) {
	c := NewConn("ws://127.0.0.1:6700", "")
	_, err := c.Invoke(context.Background(), "send_group_msg", nil)
	assert.ErrorContains(t, err, "not started")
}
