package roles

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/clienttime"
	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/toolcall"
)

// stubBuilder renders predictable instructions and counts builds per module.
type stubBuilder struct {
	builds map[string]int
	fail   bool
}

func newStubBuilder() *stubBuilder {
	return &stubBuilder{builds: make(map[string]int)}
}

func (b *stubBuilder) Build(module, userName, currentTime string) (string, error) {
	b.builds[module]++
	if b.fail {
		return "", fmt.Errorf("module %s unavailable", module)
	}
	return fmt.Sprintf("[%s] assistant for %s at %s", module, userName, currentTime), nil
}

func testState(t *testing.T) *SharedState {
	t.Helper()
	return NewSharedState("margaret", "Margaret", toolcall.NewRegistry(), clienttime.NewTracker())
}

func testSpecs() (Spec, []Spec) {
	orch := Spec{Name: OrchestratorName, PromptModule: "orchestrator", Description: "general assistant"}
	specialists := []Spec{
		{Name: "backlog", PromptModule: "backlog", Description: "reminder management specialist"},
		{Name: "story", PromptModule: "story", Description: "storytelling companion"},
	}
	return orch, specialists
}

func TestNewRuntimeValidation(t *testing.T) {
	orch, specialists := testSpecs()
	builder := newStubBuilder()

	t.Run("nil state", func(t *testing.T) {
		_, err := NewRuntime(nil, builder, orch, specialists)
		assert.Error(t, err)
	})

	t.Run("nil builder", func(t *testing.T) {
		_, err := NewRuntime(testState(t), nil, orch, specialists)
		assert.Error(t, err)
	})

	t.Run("misnamed orchestrator", func(t *testing.T) {
		bad := orch
		bad.Name = "router"
		_, err := NewRuntime(testState(t), builder, bad, specialists)
		assert.Error(t, err)
	})

	t.Run("specialist named orchestrator", func(t *testing.T) {
		_, err := NewRuntime(testState(t), builder, orch, []Spec{{Name: OrchestratorName}})
		assert.Error(t, err)
	})

	t.Run("duplicate specialist", func(t *testing.T) {
		_, err := NewRuntime(testState(t), builder, orch, []Spec{
			{Name: "backlog"}, {Name: "backlog"},
		})
		assert.Error(t, err)
	})
}

func TestRuntimeStart(t *testing.T) {
	orch, specialists := testSpecs()
	state := testState(t)
	builder := newStubBuilder()

	rt, err := NewRuntime(state, builder, orch, specialists)
	require.NoError(t, err)

	active := rt.Start()
	require.NotNil(t, active)
	assert.True(t, active.Orchestrator())
	assert.Equal(t, OrchestratorName, state.ActiveRole())
	assert.False(t, state.Transitioning())
}

func TestHandoff(t *testing.T) {
	orch, specialists := testSpecs()
	state := testState(t)
	builder := newStubBuilder()

	rt, err := NewRuntime(state, builder, orch, specialists)
	require.NoError(t, err)
	rt.Start()

	t.Run("routes to specialist", func(t *testing.T) {
		transition, err := rt.Handoff("backlog", "")
		require.NoError(t, err)

		assert.Equal(t, "backlog", transition.Next.Name)
		assert.Equal(t, "Routing to reminder management specialist", transition.Message)
		assert.Equal(t, "backlog", state.ActiveRole())
		assert.False(t, state.Transitioning(), "transition flag must be cleared")
	})

	t.Run("specialist cannot hand off", func(t *testing.T) {
		_, err := rt.Handoff("story", "")
		assert.Error(t, err)
		assert.Equal(t, "backlog", state.ActiveRole())
	})

	t.Run("handoff back then route with reason", func(t *testing.T) {
		_, err := rt.HandoffBack("")
		require.NoError(t, err)

		transition, err := rt.Handoff("story", "tell me about the old days")
		require.NoError(t, err)
		assert.Equal(t, "Continuing with story request: tell me about the old days", transition.Message)
	})

	t.Run("unknown specialist", func(t *testing.T) {
		_, err := rt.HandoffBack("")
		require.NoError(t, err)

		_, err = rt.Handoff("gardening", "")
		assert.Error(t, err)
		assert.Equal(t, OrchestratorName, state.ActiveRole())
		assert.False(t, state.Transitioning())
	})
}

func TestHandoffBack(t *testing.T) {
	orch, specialists := testSpecs()
	state := testState(t)
	builder := newStubBuilder()

	rt, err := NewRuntime(state, builder, orch, specialists)
	require.NoError(t, err)
	rt.Start()

	_, err = rt.Handoff("backlog", "")
	require.NoError(t, err)

	t.Run("with summary", func(t *testing.T) {
		transition, err := rt.HandoffBack("reminder created for 8am")
		require.NoError(t, err)

		assert.True(t, transition.Next.Orchestrator())
		assert.Equal(t, "backlog completed: reminder created for 8am", transition.Message)
		assert.Equal(t, OrchestratorName, state.ActiveRole())
		assert.False(t, state.Transitioning())
	})

	t.Run("idempotent from orchestrator", func(t *testing.T) {
		transition, err := rt.HandoffBack("")
		require.NoError(t, err)

		assert.True(t, transition.Next.Orchestrator())
		assert.Equal(t, "orchestrator task completed. How else can I help?", transition.Message)
	})
}

func TestOrchestratorCachedExactlyOnce(t *testing.T) {
	orch, specialists := testSpecs()
	state := testState(t)
	builder := newStubBuilder()

	rt, err := NewRuntime(state, builder, orch, specialists)
	require.NoError(t, err)

	first := rt.Start()

	// Two full round trips
	_, err = rt.Handoff("backlog", "")
	require.NoError(t, err)
	back1, err := rt.HandoffBack("")
	require.NoError(t, err)

	_, err = rt.Handoff("story", "")
	require.NoError(t, err)
	back2, err := rt.HandoffBack("")
	require.NoError(t, err)

	assert.Same(t, first, back1.Next)
	assert.Same(t, first, back2.Next)
	assert.Equal(t, 1, builder.builds["orchestrator"], "orchestrator built once per session")
}

func TestSpecialistRebuiltFreshEachEntry(t *testing.T) {
	orch, specialists := testSpecs()
	state := testState(t)
	builder := newStubBuilder()

	rt, err := NewRuntime(state, builder, orch, specialists)
	require.NoError(t, err)
	rt.Start()

	t1, err := rt.Handoff("backlog", "")
	require.NoError(t, err)
	_, err = rt.HandoffBack("")
	require.NoError(t, err)

	t2, err := rt.Handoff("backlog", "")
	require.NoError(t, err)

	assert.NotSame(t, t1.Next, t2.Next)
	assert.Equal(t, 2, builder.builds["backlog"])
}

func TestBuildRoleFallsBackOnBuilderError(t *testing.T) {
	orch, specialists := testSpecs()
	state := testState(t)
	builder := newStubBuilder()
	builder.fail = true

	rt, err := NewRuntime(state, builder, orch, specialists)
	require.NoError(t, err)

	active := rt.Start()
	require.NotNil(t, active)
	assert.Contains(t, active.Instructions, OrchestratorName)
	assert.Contains(t, active.Instructions, "Margaret")
}

func TestRoleDegradesOnMissingTools(t *testing.T) {
	state := testState(t)
	builder := newStubBuilder()

	orch := Spec{
		Name:         OrchestratorName,
		PromptModule: "orchestrator",
		ToolNames:    []string{"navigation", "call"},
	}

	rt, err := NewRuntime(state, builder, orch, nil)
	require.NoError(t, err)

	// Registry is empty: both tools are missing
	active := rt.Start()
	assert.Empty(t, active.Tools)
	assert.ElementsMatch(t, []string{"navigation", "call"}, active.MissingTools)
	assert.True(t, active.Degraded())
}
