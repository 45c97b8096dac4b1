package roles

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// InstructionBuilder renders a role's instruction text from its prompt
// module, interpolating the user's name and current client time.
type InstructionBuilder interface {
	Build(module, userName, currentTime string) (string, error)
}

// Transition is the explicit result of a handoff: the next active role and
// a user-facing transition message. The central dispatcher installs Next as
// the active role and speaks Message; nothing is inferred from return-value
// shape.
type Transition struct {
	Next    *Role
	Message string
}

// Runtime is the agent-handoff state machine. Exactly one role is active at
// any observation point outside a transition window. The orchestrator is
// the initial state; every specialist transition passes through it.
type Runtime struct {
	state   *SharedState
	builder InstructionBuilder

	orchestratorSpec Spec
	specialists      map[string]Spec

	active *Role
}

// NewRuntime creates the handoff runtime over shared session state.
func NewRuntime(state *SharedState, builder InstructionBuilder, orchestratorSpec Spec, specialists []Spec) (*Runtime, error) {
	if state == nil {
		return nil, fmt.Errorf("shared state is required")
	}
	if builder == nil {
		return nil, fmt.Errorf("instruction builder is required")
	}
	if orchestratorSpec.Name != OrchestratorName {
		return nil, fmt.Errorf("orchestrator spec must be named %q, got %q", OrchestratorName, orchestratorSpec.Name)
	}

	specs := make(map[string]Spec, len(specialists))
	for _, spec := range specialists {
		if spec.Name == "" {
			return nil, fmt.Errorf("specialist name is required")
		}
		if spec.Name == OrchestratorName {
			return nil, fmt.Errorf("specialist may not be named %q", OrchestratorName)
		}
		if _, exists := specs[spec.Name]; exists {
			return nil, fmt.Errorf("duplicate specialist %q", spec.Name)
		}
		specs[spec.Name] = spec
	}

	return &Runtime{
		state:            state,
		builder:          builder,
		orchestratorSpec: orchestratorSpec,
		specialists:      specs,
	}, nil
}

// Start enters the initial orchestrator state and returns the active role.
func (r *Runtime) Start() *Role {
	orch := r.ensureOrchestrator()
	r.active = orch
	r.state.setActiveRole(orch.Name)
	log.Info().Str("role", orch.Name).Msg("Handoff runtime started")
	return orch
}

// Active returns the currently active role.
func (r *Runtime) Active() *Role {
	return r.active
}

// SpecialistNames returns the registered specialist names.
func (r *Runtime) SpecialistNames() []string {
	names := make([]string, 0, len(r.specialists))
	for name := range r.specialists {
		names = append(names, name)
	}
	return names
}

// Handoff transitions Orchestrator -> Specialist(name). The specialist is
// constructed fresh: its instructions and tool list are rebuilt from
// current shared state on every entry, so nothing persists across visits.
// Only the orchestrator may hand off; a specialist's sole exit is
// HandoffBack.
func (r *Runtime) Handoff(specialistName, reason string) (Transition, error) {
	if r.active != nil && !r.active.Orchestrator() {
		return Transition{}, fmt.Errorf("only the orchestrator can hand off (active: %s)", r.active.Name)
	}

	spec, ok := r.specialists[specialistName]
	if !ok {
		return Transition{}, fmt.Errorf("unknown specialist %q", specialistName)
	}

	r.state.setTransitioning(true)
	defer r.state.setTransitioning(false)

	specialist := r.buildRole(spec)
	r.active = specialist
	r.state.setActiveRole(specialist.Name)

	message := fmt.Sprintf("Routing to %s", spec.Description)
	if reason != "" {
		message = fmt.Sprintf("Continuing with %s request: %s", spec.Name, reason)
	}

	log.Info().
		Str("from", OrchestratorName).
		Str("to", specialistName).
		Str("reason", reason).
		Msg("Handoff")

	return Transition{Next: specialist, Message: message}, nil
}

// HandoffBack transitions Specialist(*) -> Orchestrator, reusing the cached
// orchestrator so its accumulated tool-call context survives repeated
// round trips. Calling it while the orchestrator is already active is
// harmless and still reuses the single cached instance.
func (r *Runtime) HandoffBack(summary string) (Transition, error) {
	previous := OrchestratorName
	if r.active != nil {
		previous = r.active.Name
	}

	r.state.setTransitioning(true)
	defer r.state.setTransitioning(false)

	orch := r.ensureOrchestrator()
	r.active = orch
	r.state.setActiveRole(orch.Name)

	var message string
	if summary != "" {
		message = fmt.Sprintf("%s completed: %s", previous, summary)
	} else {
		message = fmt.Sprintf("%s task completed. How else can I help?", previous)
	}

	log.Info().
		Str("from", previous).
		Str("summary", summary).
		Msg("Handoff back to orchestrator")

	return Transition{Next: orch, Message: message}, nil
}

// ensureOrchestrator builds the orchestrator once and caches it on shared
// state. At most one orchestrator instance exists per session.
func (r *Runtime) ensureOrchestrator() *Role {
	if cached := r.state.orchestratorHandle(); cached != nil {
		return cached
	}

	orch := r.buildRole(r.orchestratorSpec)
	r.state.cacheOrchestrator(orch)
	log.Info().Msg("Orchestrator constructed and cached")
	return orch
}

// buildRole constructs a role from its spec against current shared state.
// Construction degrades rather than fails: missing tools shrink the tool
// list, and a prompt-rendering error falls back to the raw module name.
func (r *Runtime) buildRole(spec Spec) *Role {
	tools, missing := resolveTools(spec, r.state.Tools)

	instructions, err := r.builder.Build(spec.PromptModule, r.state.UserName(), r.state.Time.Formatted())
	if err != nil {
		log.Warn().Err(err).
			Str("role", spec.Name).
			Str("module", spec.PromptModule).
			Msg("Failed to build instructions, using fallback")
		instructions = fmt.Sprintf("You are the %s role for %s.", spec.Name, r.state.UserName())
	}

	role := &Role{
		Name:         spec.Name,
		Instructions: instructions,
		Tools:        tools,
		MissingTools: missing,
	}

	log.Info().
		Str("role", spec.Name).
		Int("tools", len(tools)).
		Int("missingTools", len(missing)).
		Str("user", r.state.UserName()).
		Msg("Role constructed")

	return role
}
