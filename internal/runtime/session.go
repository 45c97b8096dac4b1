package runtime

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/HarithHaroon/voice-command-agent-sub000/internal/metrics"
	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/channel"
	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/clienttime"
	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/intent"
	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/prompts"
	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/reminder"
	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/roles"
	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/toolcall"
	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/transcript"
)

// Config holds session runtime configuration.
type Config struct {
	UserID            string
	UserName          string
	Port              int
	DataDir           string
	PromptModulesDir  string
	SchedulerInterval time.Duration
	Detector          intent.Detector
	Metrics           *metrics.Metrics
	Logger            zerolog.Logger
}

// Session is one single-tenant assistant runtime: the push channel to the
// client application, the session's tools, the handoff runtime, and the
// background loops (reminder scheduler, correlation sweeps). One Session
// exists per connected user; everything it owns is torn down by Stop.
type Session struct {
	id     string
	cfg    Config
	logger zerolog.Logger

	tracker     *clienttime.Tracker
	tools       *toolcall.Registry
	state       *roles.SharedState
	runtime     *roles.Runtime
	prompts     *prompts.Manager
	detector    intent.Detector
	reminders   *reminder.Store
	scheduler   *reminder.Scheduler
	transcripts *transcript.Store
	server      *channel.Server
	metrics     *metrics.Metrics

	navigation *toolcall.NavigationTool

	checkinMu       sync.Mutex
	pendingCheckIn  *channel.EmotionEvent
	awaitingCheckIn bool

	startMu sync.Mutex
	started bool
}

// NewSession builds a fully wired session runtime. Nothing runs until
// Start.
func NewSession(cfg Config) (*Session, error) {
	if cfg.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	if cfg.Detector == nil {
		cfg.Detector = intent.NewRegexDetector()
	}
	if cfg.SchedulerInterval <= 0 {
		cfg.SchedulerInterval = reminder.DefaultInterval
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewMetrics()
	}

	s := &Session{
		id:       uuid.New().String(),
		cfg:      cfg,
		logger:   cfg.Logger,
		tracker:  clienttime.NewTracker(),
		detector: cfg.Detector,
		metrics:  cfg.Metrics,
	}

	// The push channel server delivers inbound messages straight into the
	// session's handlers.
	router := channel.NewRouter(channel.Handlers{
		SessionInit: s.handleSessionInit,
		ToolResult:  s.handleToolResult,
		Emotion:     s.handleEmotion,
	}, cfg.Logger)

	server, err := channel.NewServer(channel.Config{
		Port:    cfg.Port,
		Router:  router,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics.Handler(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create channel server: %w", err)
	}
	s.server = server

	// Client-side tools share the session's outbound channel.
	s.tools = toolcall.NewRegistry()
	s.navigation = toolcall.NewNavigationTool(server)
	for _, tool := range []toolcall.Tool{
		s.navigation,
		toolcall.NewSafetyTool(server),
		toolcall.NewLocationTool(server),
		toolcall.NewPreferencesTool(server),
		toolcall.NewCallTool(server),
		toolcall.NewFormTool(server),
	} {
		if err := s.tools.Register(tool); err != nil {
			return nil, fmt.Errorf("failed to register tool: %w", err)
		}
	}

	s.state = roles.NewSharedState(cfg.UserID, cfg.UserName, s.tools, s.tracker)

	s.prompts = prompts.NewManager(cfg.PromptModulesDir)
	s.runtime, err = roles.NewRuntime(s.state, s.prompts, orchestratorSpec(), specialistSpecs())
	if err != nil {
		return nil, fmt.Errorf("failed to create handoff runtime: %w", err)
	}

	s.transcripts, err = transcript.NewStore(filepath.Join(cfg.DataDir, "transcripts"))
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript store: %w", err)
	}

	s.reminders, err = reminder.NewStore(filepath.Join(cfg.DataDir, "reminders.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open reminder store: %w", err)
	}

	s.scheduler, err = reminder.NewScheduler(reminder.SchedulerConfig{
		UserID:    cfg.UserID,
		Tracker:   s.tracker,
		Store:     s.reminders,
		Announcer: s,
		Guard:     s.state,
		Interval:  cfg.SchedulerInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State exposes the shared conversation state.
func (s *Session) State() *roles.SharedState { return s.state }

// Reminders exposes the session's reminder store.
func (s *Session) Reminders() *reminder.Store { return s.reminders }

// Start brings the session up: channel server, prompt watcher, initial
// orchestrator, reminder scheduler.
func (s *Session) Start() error {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.started {
		return fmt.Errorf("session already started")
	}

	if err := s.server.Start(); err != nil {
		return fmt.Errorf("failed to start channel server: %w", err)
	}
	if err := s.prompts.Watch(); err != nil {
		s.logger.Warn().Err(err).Msg("Prompt watcher unavailable, modules load cold")
	}

	s.runtime.Start()
	s.scheduler.Start()
	s.started = true

	s.logger.Info().
		Str("sessionId", s.id).
		Str("userId", s.cfg.UserID).
		Msg("Session started")
	return nil
}

// Stop tears the session down in reverse order. All background loops are
// awaited; nothing survives teardown.
func (s *Session) Stop() error {
	s.scheduler.Stop()
	s.tools.Close()
	s.prompts.Stop()

	err := s.server.Stop()

	s.state.Navigation.Clear()

	if closeErr := s.reminders.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	s.logger.Info().Str("sessionId", s.id).Msg("Session stopped")
	return err
}

// handleSessionInit seeds the time baseline and navigation state from the
// client's one-shot init message.
func (s *Session) handleSessionInit(msg channel.SessionInit) {
	s.tracker.Initialize(msg.CurrentTime, msg.TimezoneOffsetMinutes)
	if msg.Navigation != nil {
		s.state.Navigation.InitializeFromSession(msg.Navigation)
	}

	s.logger.Info().
		Str("clientTime", msg.CurrentTime).
		Int("tzOffsetMinutes", msg.TimezoneOffsetMinutes).
		Msg("Session initialized by client")
}

// handleToolResult routes a response to its waiting dispatch, then applies
// navigation side effects for successful navigations.
func (s *Session) handleToolResult(msg channel.ToolResult) {
	s.tools.Route(msg)

	status := "success"
	if !msg.Success {
		status = "error"
	}
	s.metrics.ToolResultsTotal.WithLabelValues(msg.Tool, status).Inc()

	if msg.Tool == "navigate_to_screen" && msg.Success && msg.Result != nil {
		stackRaw, okStack := msg.Result["navigation_stack"].([]interface{})
		current, okCurrent := msg.Result["current_screen"].(string)
		if okStack && okCurrent {
			stack := make([]string, 0, len(stackRaw))
			for _, entry := range stackRaw {
				if screen, ok := entry.(string); ok {
					stack = append(stack, screen)
				}
			}
			s.state.Navigation.UpdateFromNavigation(stack, current)
		}
	}
}

// ProcessTurn consumes one user turn. It records the turn, captures a
// pending check-in answer if one is awaited, and otherwise routes the turn
// through intent detection: a detected specialist triggers a handoff and
// the transition message is spoken back. The returned string is the
// runtime's own user-facing output for the turn ("" when the active role's
// model reply is the only output).
func (s *Session) ProcessTurn(ctx context.Context, userText string) (string, error) {
	s.recordTurn("user", userText)
	s.metrics.TurnsTotal.WithLabelValues(s.state.ActiveRole()).Inc()

	if s.captureCheckInResponse(userText) {
		return "", nil
	}

	history := s.historyLines(5)
	result, err := s.detector.Detect(ctx, userText, history)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Intent detection failed, orchestrator keeps the turn")
		return "", nil
	}

	if result.Specialist == "" || s.state.ActiveRole() != roles.OrchestratorName {
		return "", nil
	}

	transition, err := s.runtime.Handoff(result.Specialist, result.Reason)
	if err != nil {
		s.logger.Warn().Err(err).Str("specialist", result.Specialist).Msg("Handoff failed")
		return "", nil
	}
	s.metrics.HandoffsTotal.WithLabelValues(result.Specialist).Inc()

	s.Speak(transition.Message)
	return transition.Message, nil
}

// CompleteSpecialistTurn hands control back to the orchestrator once the
// active specialist finishes its task.
func (s *Session) CompleteSpecialistTurn(summary string) (string, error) {
	transition, err := s.runtime.HandoffBack(summary)
	if err != nil {
		return "", err
	}
	s.metrics.HandoffBacksTotal.Inc()
	s.Speak(transition.Message)
	return transition.Message, nil
}

// Speak emits assistant output: mirrored to the client, appended to the
// bounded history and the persisted transcript.
func (s *Session) Speak(text string) {
	if text == "" {
		return
	}
	if err := s.server.Send(channel.NewConversationMessage("assistant", text)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to mirror assistant message to client")
	}
	s.recordTurn("assistant", text)
}

// Announce implements reminder.Announcer. Unsolicited speech re-checks the
// transition flag immediately before emitting; while a handoff is mid
// flight the announcement is deferred to the next tick.
func (s *Session) Announce(text string) error {
	if s.state.Transitioning() {
		s.metrics.AnnouncementsDeferredTotal.Inc()
		return fmt.Errorf("handoff in progress, announcement suppressed")
	}

	if err := s.server.Send(channel.NewConversationMessage("assistant", text)); err != nil {
		return fmt.Errorf("failed to announce: %w", err)
	}
	s.metrics.AnnouncementsTotal.Inc()
	s.recordTurn("assistant", text)
	return nil
}

func (s *Session) recordTurn(role, content string) {
	s.state.AppendHistory(role, content)
	if err := s.transcripts.Append(s.id, transcript.Turn{
		Role:     role,
		Content:  content,
		RoleName: s.state.ActiveRole(),
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist transcript turn")
	}
}

func (s *Session) historyLines(n int) []string {
	entries := s.state.RecentHistory(n)
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, entry.Role+": "+entry.Content)
	}
	return lines
}
