package daemon

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/HarithHaroon/voice-command-agent-sub000/internal/config"
	"github.com/HarithHaroon/voice-command-agent-sub000/internal/logger"
	"github.com/HarithHaroon/voice-command-agent-sub000/internal/metrics"
	"github.com/HarithHaroon/voice-command-agent-sub000/internal/runtime"
	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/intent"
)

// Daemon represents the voice agent daemon service. It owns exactly one
// session runtime for the configured user.
type Daemon struct {
	config *config.Config
	logger *logger.Logger

	session   *runtime.Session
	lifecycle *LifecycleManager
	metrics   *metrics.Metrics

	startTime time.Time
	running   bool
	mu        sync.RWMutex
}

// New creates a new daemon instance
func New(cfg *config.Config, log *logger.Logger) (*Daemon, error) {
	d := &Daemon{
		config:  cfg,
		logger:  log,
		metrics: metrics.NewMetrics(),
	}

	detector, err := buildDetector(cfg, log)
	if err != nil {
		return nil, err
	}

	session, err := runtime.NewSession(runtime.Config{
		UserID:            cfg.User.ID,
		UserName:          cfg.User.Name,
		Port:              cfg.Channel.Port,
		DataDir:           cfg.DataDir,
		PromptModulesDir:  cfg.Prompts.ModulesDir,
		SchedulerInterval: cfg.Reminders.Interval(),
		Detector:          detector,
		Metrics:           d.metrics,
		Logger:            log.GetZerolog(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session runtime: %w", err)
	}
	d.session = session
	d.lifecycle = NewLifecycleManager(d)

	return d, nil
}

// buildDetector selects the intent detection backend from config.
func buildDetector(cfg *config.Config, log *logger.Logger) (intent.Detector, error) {
	switch cfg.Intent.Mode {
	case "llm":
		detector, err := intent.NewLLMDetector(cfg.Intent.APIKey, cfg.Intent.Model, runtime.SpecialistNames())
		if err != nil {
			return nil, fmt.Errorf("failed to create llm intent detector: %w", err)
		}
		log.Info().Str("model", cfg.Intent.Model).Msg("Using llm intent detection")
		return detector, nil
	default:
		log.Info().Msg("Using regex intent detection")
		return intent.NewRegexDetector(), nil
	}
}

// Start starts the daemon service
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	d.logger.Info().Msg("Starting voice agent daemon")

	if err := d.lifecycle.Start(); err != nil {
		return fmt.Errorf("failed to start lifecycle manager: %w", err)
	}

	if err := d.session.Start(); err != nil {
		return fmt.Errorf("failed to start session runtime: %w", err)
	}

	d.logger.Info().
		Str("userId", d.config.User.ID).
		Int("port", d.config.Channel.Port).
		Msg("Daemon started successfully")

	return nil
}

// Stop stops the daemon service gracefully
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not running")
	}
	d.running = false
	d.mu.Unlock()

	d.logger.Info().Msg("Stopping voice agent daemon")

	if err := d.session.Stop(); err != nil {
		d.logger.Error().Err(err).Msg("Failed to stop session runtime")
	}

	if err := d.lifecycle.Stop(); err != nil {
		d.logger.Error().Err(err).Msg("Failed to stop lifecycle manager")
	}

	d.logger.Info().Msg("Daemon stopped successfully")

	return nil
}

// Status returns the daemon status
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	status := Status{
		Running: d.running,
	}

	if d.running {
		status.Uptime = time.Since(d.startTime)
		status.StartTime = d.startTime
	}

	return status
}

// Wait waits for the daemon to stop
func (d *Daemon) Wait() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	d.logger.Info().Str("signal", sig.String()).Msg("Received signal")

	if err := d.Stop(); err != nil {
		d.logger.Error().Err(err).Msg("Failed to stop daemon")
	}
}

// GetConfig returns the daemon configuration
func (d *Daemon) GetConfig() *config.Config {
	return d.config
}

// GetLogger returns the daemon logger
func (d *Daemon) GetLogger() *logger.Logger {
	return d.logger
}

// GetSession returns the session runtime
func (d *Daemon) GetSession() *runtime.Session {
	return d.session
}

// GetMetrics returns the daemon metrics
func (d *Daemon) GetMetrics() *metrics.Metrics {
	return d.metrics
}

// Status represents daemon status
type Status struct {
	Running   bool
	Uptime    time.Duration
	StartTime time.Time
}
