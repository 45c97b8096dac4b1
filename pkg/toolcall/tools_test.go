package toolcall

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/channel"
)

// channelResultFor builds a successful client reply for a captured request.
func channelResultFor(req channel.ToolRequest) channel.ToolResult {
	return channel.ToolResult{
		Type:      channel.TypeToolResult,
		Tool:      req.Tool,
		RequestID: req.RequestID,
		Success:   true,
		Result:    map[string]interface{}{},
	}
}

func TestSafetyToolValidation(t *testing.T) {
	sender := &fakeSender{}
	tool := NewSafetyTool(sender)
	defer tool.Close()

	t.Run("invalid sensitivity rejected locally", func(t *testing.T) {
		_, err := tool.SetSensitivity(context.Background(), "extreme")
		assert.Error(t, err)

		_, err = tool.SetWatchSensitivity(context.Background(), "")
		assert.Error(t, err)

		_, sent := sender.last()
		assert.False(t, sent, "invalid levels must not reach the client")
	})

	t.Run("valid sensitivity dispatches", func(t *testing.T) {
		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = tool.SetSensitivity(context.Background(), "medium")
		}()

		req := sender.waitForRequest(t)
		assert.Equal(t, "set_sensitivity", req.Tool)
		assert.Equal(t, "medium", req.Params["level"])

		tool.Resolve(channelResultFor(req))
		<-done
	})
}

func TestLocationToolValidation(t *testing.T) {
	sender := &fakeSender{}
	tool := NewLocationTool(sender)
	defer tool.Close()

	_, err := tool.UpdateInterval(context.Background(), 0)
	assert.Error(t, err)

	_, err = tool.UpdateInterval(context.Background(), -5)
	assert.Error(t, err)
}

func TestCallToolValidation(t *testing.T) {
	sender := &fakeSender{}
	tool := NewCallTool(sender)
	defer tool.Close()

	_, err := tool.StartVideoCall(context.Background(), "")
	assert.Error(t, err)
}

func TestPreferencesToolValidation(t *testing.T) {
	sender := &fakeSender{}
	tool := NewPreferencesTool(sender)
	defer tool.Close()

	_, err := tool.Set(context.Background(), "", "large-text")
	assert.Error(t, err)
}

func TestNavigationToolDispatch(t *testing.T) {
	sender := &fakeSender{}
	tool := NewNavigationTool(sender)
	defer tool.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = tool.Navigate(context.Background(), "reminders")
	}()

	req := sender.waitForRequest(t)
	assert.Equal(t, "navigate_to_screen", req.Tool)
	assert.Equal(t, "reminders", req.Params["screen"])

	tool.Resolve(channelResultFor(req))
	<-done
}
