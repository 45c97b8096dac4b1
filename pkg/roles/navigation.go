package roles

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// NavigationState mirrors the client application's screen state. It is
// seeded from session_init, updated after successful navigation tool calls,
// and cleared by explicit session teardown.
type NavigationState struct {
	mu            sync.Mutex
	currentScreen string
	stack         []string
}

// NewNavigationState creates empty navigation state.
func NewNavigationState() *NavigationState {
	return &NavigationState{}
}

// InitializeFromSession seeds state from the session_init navigation block.
func (n *NavigationState) InitializeFromSession(data map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if screen, ok := data["current_screen"].(string); ok {
		n.currentScreen = screen
	}

	n.stack = nil
	if raw, ok := data["navigation_stack"].([]interface{}); ok {
		for _, entry := range raw {
			if screen, ok := entry.(string); ok {
				n.stack = append(n.stack, screen)
			}
		}
	}

	log.Info().
		Str("currentScreen", n.currentScreen).
		Int("stackDepth", len(n.stack)).
		Msg("Navigation state seeded from session init")
}

// UpdateFromNavigation applies the stack reported by a successful
// navigate_to_screen result.
func (n *NavigationState) UpdateFromNavigation(stack []string, currentScreen string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.stack = append([]string(nil), stack...)
	n.currentScreen = currentScreen

	log.Debug().Str("currentScreen", currentScreen).Msg("Navigation state updated")
}

// CurrentScreen returns the screen the client is showing.
func (n *NavigationState) CurrentScreen() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.currentScreen
}

// Stack returns a copy of the navigation stack.
func (n *NavigationState) Stack() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.stack...)
}

// Clear resets navigation state. Invoked by the session lifecycle on
// teardown, never from a finalizer.
func (n *NavigationState) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.currentScreen = ""
	n.stack = nil
}
