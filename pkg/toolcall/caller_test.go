package toolcall

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/channel"
)

// fakeSender records outbound tool requests for inspection.
type fakeSender struct {
	mu   sync.Mutex
	sent []channel.ToolRequest
	err  error
}

func (f *fakeSender) Send(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	if req, ok := v.(channel.ToolRequest); ok {
		f.sent = append(f.sent, req)
	}
	return nil
}

func (f *fakeSender) last() (channel.ToolRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.sent) == 0 {
		return channel.ToolRequest{}, false
	}
	return f.sent[len(f.sent)-1], true
}

func (f *fakeSender) waitForRequest(t *testing.T) channel.ToolRequest {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if req, ok := f.last(); ok {
			return req
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no tool request was sent")
	return channel.ToolRequest{}
}

func TestDispatchSuccess(t *testing.T) {
	sender := &fakeSender{}
	c := NewCaller("navigation", sender, "navigate_to_screen")
	defer c.Close()

	done := make(chan struct{})
	var result map[string]interface{}
	var dispatchErr error
	go func() {
		defer close(done)
		result, dispatchErr = c.Dispatch(context.Background(), "navigate_to_screen",
			map[string]interface{}{"screen": "home"}, "home")
	}()

	req := sender.waitForRequest(t)
	assert.Equal(t, "navigate_to_screen", req.Tool)
	assert.True(t, strings.HasPrefix(req.RequestID, "navigation_"))

	resolved := c.Resolve(channel.ToolResult{
		Type:      channel.TypeToolResult,
		Tool:      "navigate_to_screen",
		RequestID: req.RequestID,
		Success:   true,
		Result:    map[string]interface{}{"current_screen": "home"},
	})
	assert.True(t, resolved)

	<-done
	require.NoError(t, dispatchErr)
	assert.Equal(t, "home", result["current_screen"])
	assert.Equal(t, 0, c.PendingCount())
}

func TestDispatchRemoteError(t *testing.T) {
	sender := &fakeSender{}
	c := NewCaller("safety", sender, "set_sensitivity")
	defer c.Close()

	done := make(chan struct{})
	var dispatchErr error
	go func() {
		defer close(done)
		_, dispatchErr = c.Dispatch(context.Background(), "set_sensitivity",
			map[string]interface{}{"level": "high"}, "high")
	}()

	req := sender.waitForRequest(t)
	c.Resolve(channel.ToolResult{
		RequestID: req.RequestID,
		Tool:      "set_sensitivity",
		Success:   false,
		Error:     "watch unreachable",
	})

	<-done
	require.Error(t, dispatchErr)

	var remoteErr *RemoteError
	require.True(t, errors.As(dispatchErr, &remoteErr))
	assert.Equal(t, "set_sensitivity", remoteErr.Tool)
	assert.Contains(t, remoteErr.Message, "watch unreachable")
	assert.Equal(t, 0, c.PendingCount())
}

func TestDispatchTimeout(t *testing.T) {
	sender := &fakeSender{}
	c := NewCaller("call", sender, "start_video_call")
	defer c.Close()
	c.timeout = 50 * time.Millisecond

	_, err := c.Dispatch(context.Background(), "start_video_call",
		map[string]interface{}{"contact": "daughter"}, "daughter")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, 0, c.PendingCount())
}

func TestDispatchSendFailure(t *testing.T) {
	sender := &fakeSender{err: fmt.Errorf("no connected client")}
	c := NewCaller("navigation", sender, "go_back")
	defer c.Close()

	_, err := c.Dispatch(context.Background(), "go_back", map[string]interface{}{}, "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChannelUnavailable))
	assert.Equal(t, 0, c.PendingCount())
}

func TestDispatchContextCancel(t *testing.T) {
	sender := &fakeSender{}
	c := NewCaller("preferences", sender, "get_preferences")
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := c.Dispatch(ctx, "get_preferences", map[string]interface{}{}, "")
		done <- err
	}()

	sender.waitForRequest(t)
	cancel()

	err := <-done
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, c.PendingCount())
}

func TestResolveUnmatched(t *testing.T) {
	sender := &fakeSender{}
	c := NewCaller("navigation", sender)
	defer c.Close()

	resolved := c.Resolve(channel.ToolResult{
		RequestID: "navigation_123_abcdefgh_home",
		Tool:      "navigate_to_screen",
		Success:   true,
	})
	assert.False(t, resolved)
}

func TestResolveDeliversAtMostOnce(t *testing.T) {
	sender := &fakeSender{}
	c := NewCaller("navigation", sender, "navigate_to_screen")
	defer c.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Dispatch(context.Background(), "navigate_to_screen",
			map[string]interface{}{"screen": "home"}, "home")
	}()

	req := sender.waitForRequest(t)
	res := channel.ToolResult{RequestID: req.RequestID, Tool: "navigate_to_screen", Success: true}

	assert.True(t, c.Resolve(res))
	// Duplicate delivery finds no pending entry
	assert.False(t, c.Resolve(res))

	<-done
	assert.Equal(t, 0, c.PendingCount())
}

func TestSweepCancelsStaleRequests(t *testing.T) {
	sender := &fakeSender{}
	c := NewCaller("location", sender, "toggle_location_tracking")
	defer c.Close()
	c.timeout = 5 * time.Second

	done := make(chan error, 1)
	go func() {
		_, err := c.Dispatch(context.Background(), "toggle_location_tracking",
			map[string]interface{}{"enabled": true}, "")
		done <- err
	}()

	sender.waitForRequest(t)
	require.Eventually(t, func() bool { return c.PendingCount() == 1 },
		time.Second, 5*time.Millisecond)

	// Everything pending is older than maxPendingAge from tomorrow's view
	c.sweepOnce(time.Now().Add(c.maxPendingAge + time.Minute))

	err := <-done
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Contains(t, err.Error(), "swept")
	assert.Equal(t, 0, c.PendingCount())
}

func TestCanHandle(t *testing.T) {
	sender := &fakeSender{}
	c := NewCaller("safety", sender, "set_sensitivity", "delay_emergency")
	defer c.Close()

	t.Run("owner prefix", func(t *testing.T) {
		assert.True(t, c.CanHandle("safety_1700000000_abcd1234_high", "anything"))
	})

	t.Run("legacy method match", func(t *testing.T) {
		assert.True(t, c.CanHandle("unprefixed-id", "delay_emergency"))
	})

	t.Run("foreign response", func(t *testing.T) {
		assert.False(t, c.CanHandle("navigation_1700000000_abcd1234_home", "go_back"))
	})
}

func TestRequestIDFormat(t *testing.T) {
	sender := &fakeSender{}
	c := NewCaller("form", sender)
	defer c.Close()

	t.Run("with disambiguator", func(t *testing.T) {
		id := c.newRequestID("set_reminder_date", "2025-11-25")
		parts := strings.Split(id, "_")
		require.GreaterOrEqual(t, len(parts), 4)
		assert.Equal(t, "form", parts[0])
		assert.True(t, strings.HasSuffix(id, "_2025-11-25"))
	})

	t.Run("falls back to method", func(t *testing.T) {
		id := c.newRequestID("cancel_form", "")
		assert.True(t, strings.HasPrefix(id, "form_"))
		assert.True(t, strings.HasSuffix(id, "_cancel_form"))
	})

	t.Run("unique across calls", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			id := c.newRequestID("submit_form", "")
			assert.False(t, seen[id], "duplicate request id %s", id)
			seen[id] = true
		}
	})
}

func TestCloseCancelsPending(t *testing.T) {
	sender := &fakeSender{}
	c := NewCaller("navigation", sender, "navigate_to_screen")
	c.timeout = 5 * time.Second

	done := make(chan error, 1)
	go func() {
		_, err := c.Dispatch(context.Background(), "navigate_to_screen",
			map[string]interface{}{"screen": "home"}, "home")
		done <- err
	}()

	sender.waitForRequest(t)
	require.Eventually(t, func() bool { return c.PendingCount() == 1 },
		time.Second, 5*time.Millisecond)

	c.Close()

	err := <-done
	require.Error(t, err)
	assert.Equal(t, 0, c.PendingCount())
}
