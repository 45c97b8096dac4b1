package roles

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/clienttime"
	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/toolcall"
)

func TestSharedStateIdentity(t *testing.T) {
	state := NewSharedState("margaret", "Margaret", toolcall.NewRegistry(), clienttime.NewTracker())

	assert.Equal(t, "margaret", state.UserID())
	assert.Equal(t, "Margaret", state.UserName())
	assert.NotNil(t, state.Navigation)
	assert.Empty(t, state.ActiveRole())
	assert.False(t, state.Transitioning())
}

func TestHistoryBounded(t *testing.T) {
	state := testState(t)

	for i := 0; i < historyLimit+5; i++ {
		state.AppendHistory("user", fmt.Sprintf("turn %d", i))
	}

	history := state.History()
	assert.Len(t, history, historyLimit)
	assert.Equal(t, "turn 5", history[0].Content)
	assert.Equal(t, fmt.Sprintf("turn %d", historyLimit+4), history[len(history)-1].Content)
}

func TestHistoryReturnsCopy(t *testing.T) {
	state := testState(t)
	state.AppendHistory("user", "hello")

	history := state.History()
	history[0].Content = "mutated"

	assert.Equal(t, "hello", state.History()[0].Content)
}

func TestRecentHistory(t *testing.T) {
	state := testState(t)
	state.AppendHistory("user", "one")
	state.AppendHistory("assistant", "two")
	state.AppendHistory("user", "three")

	t.Run("last n", func(t *testing.T) {
		recent := state.RecentHistory(2)
		assert.Len(t, recent, 2)
		assert.Equal(t, "two", recent[0].Content)
		assert.Equal(t, "three", recent[1].Content)
	})

	t.Run("n larger than history", func(t *testing.T) {
		recent := state.RecentHistory(50)
		assert.Len(t, recent, 3)
	})

	t.Run("non-positive n", func(t *testing.T) {
		assert.Nil(t, state.RecentHistory(0))
		assert.Nil(t, state.RecentHistory(-1))
	})
}

func TestNavigationState(t *testing.T) {
	nav := NewNavigationState()

	t.Run("initialize from session payload", func(t *testing.T) {
		nav.InitializeFromSession(map[string]interface{}{
			"current_screen":   "home",
			"navigation_stack": []interface{}{"home"},
		})

		assert.Equal(t, "home", nav.CurrentScreen())
		assert.Equal(t, []string{"home"}, nav.Stack())
	})

	t.Run("update from navigation result", func(t *testing.T) {
		nav.UpdateFromNavigation([]string{"home", "reminders"}, "reminders")

		assert.Equal(t, "reminders", nav.CurrentScreen())
		assert.Equal(t, []string{"home", "reminders"}, nav.Stack())
	})

	t.Run("clear resets everything", func(t *testing.T) {
		nav.Clear()

		assert.Empty(t, nav.CurrentScreen())
		assert.Empty(t, nav.Stack())
	})
}
