package roles

import (
	"github.com/rs/zerolog/log"

	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/toolcall"
)

// OrchestratorName is the reserved name of the routing role.
const OrchestratorName = "orchestrator"

// Spec declares a role: its name, the prompt module its instructions come
// from, and the tool names it resolves from the session registry. Roles are
// data, not types; the runtime builds Role values from specs on demand.
type Spec struct {
	Name         string   `json:"name"`
	PromptModule string   `json:"prompt_module"`
	Description  string   `json:"description"`
	ToolNames    []string `json:"tool_names"`
}

// Role is a constructed conversational persona: rendered instructions plus
// the tools it resolved. Specialists are rebuilt fresh on every entry; the
// orchestrator is built once and cached on the shared state.
type Role struct {
	Name         string
	Instructions string
	Tools        []toolcall.Tool
	MissingTools []string
}

// Orchestrator reports whether this role is the routing role.
func (r *Role) Orchestrator() bool {
	return r.Name == OrchestratorName
}

// Degraded reports whether the role activated without some declared tools.
func (r *Role) Degraded() bool {
	return len(r.MissingTools) > 0
}

// resolveTools looks up a spec's tool names in the registry. A missing tool
// does not fail construction: the role activates with a reduced tool list
// and the gap is recorded, so one absent optional capability can't break a
// handoff.
func resolveTools(spec Spec, registry *toolcall.Registry) ([]toolcall.Tool, []string) {
	var tools []toolcall.Tool
	var missing []string

	for _, name := range spec.ToolNames {
		tool, ok := registry.Get(name)
		if !ok {
			log.Warn().
				Str("role", spec.Name).
				Str("tool", name).
				Msg("Declared tool not registered, activating without it")
			missing = append(missing, name)
			continue
		}
		tools = append(tools, tool)
	}

	return tools, missing
}
