package runtime

import (
	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/roles"
)

// orchestratorSpec describes the default conversational role: it greets,
// answers small talk, and routes anything task-shaped to a specialist.
func orchestratorSpec() roles.Spec {
	return roles.Spec{
		Name:         roles.OrchestratorName,
		PromptModule: "orchestrator",
		Description:  "general assistant",
		ToolNames:    []string{"navigation", "call"},
	}
}

// SpecialistNames lists the roster names a handoff can target, in roster
// order. Intent detectors are seeded from this list so they can only route
// to specialists that actually exist.
func SpecialistNames() []string {
	specs := specialistSpecs()
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		names = append(names, spec.Name)
	}
	return names
}

// specialistSpecs is the handoff roster. Each specialist is rebuilt fresh
// on every handoff; only the orchestrator is cached across transitions.
func specialistSpecs() []roles.Spec {
	return []roles.Spec{
		{
			Name:         "backlog",
			PromptModule: "backlog",
			Description:  "reminder management specialist",
			ToolNames:    []string{"form", "navigation"},
		},
		{
			Name:         "medication",
			PromptModule: "medication",
			Description:  "medication management specialist",
			ToolNames:    []string{"form", "navigation"},
		},
		{
			Name:         "health",
			PromptModule: "health",
			Description:  "health and wellbeing specialist",
			ToolNames:    []string{"navigation"},
		},
		{
			Name:         "settings",
			PromptModule: "settings",
			Description:  "device settings specialist",
			ToolNames:    []string{"safety", "location", "preferences"},
		},
		{
			Name:         "story",
			PromptModule: "story",
			Description:  "storytelling companion",
			ToolNames:    []string{"navigation"},
		},
		{
			Name:         "memory",
			PromptModule: "memory",
			Description:  "shared memories companion",
			ToolNames:    nil,
		},
	}
}
