package toolcall

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/channel"
)

// Tool is a named client-side capability backed by a correlation caller.
type Tool interface {
	Name() string
	Methods() []string
	CanHandle(requestID, tool string) bool
	Resolve(res channel.ToolResult) bool
	Close()
}

// Registry holds the session's tools and routes inbound tool responses to
// the caller that issued the request.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool under its name.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("tool is required")
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns sorted registered tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Route delivers an inbound tool_result to the owning caller. Responses are
// matched by request-id prefix first, falling back to method-name matching
// for legacy clients. An unroutable response is logged and dropped; the
// channel stays open either way.
func (r *Registry) Route(res channel.ToolResult) bool {
	r.mu.RLock()
	ordered := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		ordered = append(ordered, r.tools[name])
	}
	r.mu.RUnlock()

	for _, t := range ordered {
		if t.CanHandle(res.RequestID, res.Tool) {
			return t.Resolve(res)
		}
	}

	log.Warn().
		Str("requestId", res.RequestID).
		Str("tool", res.Tool).
		Msg("No tool claims response, dropping")
	return false
}

// Close closes every registered tool's caller. Called on session teardown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tools {
		t.Close()
	}
}
