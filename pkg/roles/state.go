package roles

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/clienttime"
	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/toolcall"
)

// historyLimit bounds the conversation context kept for intent detection and
// specialist continuity.
const historyLimit = 10

// HistoryEntry is one conversation turn.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SharedState is the per-session record every role reads and the handoff
// runtime mutates. One instance exists per session; collaborators (tool
// registry, time tracker) are shared references, not owned.
type SharedState struct {
	userID   string
	userName string

	Tools      *toolcall.Registry
	Time       *clienttime.Tracker
	Navigation *NavigationState

	mu            sync.Mutex
	activeRole    string
	transitioning bool
	history       []HistoryEntry
	orchestrator  *Role
}

// NewSharedState creates session state for one user.
func NewSharedState(userID, userName string, tools *toolcall.Registry, timeTracker *clienttime.Tracker) *SharedState {
	return &SharedState{
		userID:     userID,
		userName:   userName,
		Tools:      tools,
		Time:       timeTracker,
		Navigation: NewNavigationState(),
	}
}

// UserID returns the immutable user identifier.
func (s *SharedState) UserID() string { return s.userID }

// UserName returns the immutable user display name.
func (s *SharedState) UserName() string { return s.userName }

// ActiveRole returns the name of the currently active role.
func (s *SharedState) ActiveRole() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeRole
}

func (s *SharedState) setActiveRole(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeRole = name
}

// Transitioning reports whether a handoff is in its synchronous window.
// Side channels (reminder announcements, check-ins) must read this before
// producing unsolicited output and suppress it while true.
func (s *SharedState) Transitioning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitioning
}

func (s *SharedState) setTransitioning(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitioning = v
}

// AppendHistory records a conversation turn, evicting the oldest entry past
// the history limit.
func (s *SharedState) AppendHistory(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, HistoryEntry{Role: role, Content: content})
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}

	log.Debug().Str("role", role).Int("historyLen", len(s.history)).Msg("Appended to history")
}

// History returns a copy of the bounded conversation history.
func (s *SharedState) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// RecentHistory returns the last n turns.
func (s *SharedState) RecentHistory(n int) []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || len(s.history) == 0 {
		return nil
	}
	if n > len(s.history) {
		n = len(s.history)
	}
	out := make([]HistoryEntry, n)
	copy(out, s.history[len(s.history)-n:])
	return out
}

// orchestratorHandle returns the cached orchestrator, if one was built.
func (s *SharedState) orchestratorHandle() *Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orchestrator
}

// cacheOrchestrator stores the orchestrator once for the session's lifetime.
func (s *SharedState) cacheOrchestrator(r *Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orchestrator = r
}
