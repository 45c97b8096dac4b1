package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const defaultBasePrompt = `You are a helpful voice assistant for elderly care.
Warm tone, brief responses (1-3 sentences), take initiative.
User's name: {{user_name}}
Current time: {{current_time}}
`

// Manager loads per-role instruction modules from a directory of markdown
// files and assembles them with the session's base prompt. Module files are
// cached and the cache is invalidated by a filesystem watcher, so prompt
// edits take effect on the next role construction without a restart.
type Manager struct {
	modulesDir string

	mu    sync.RWMutex
	cache map[string]string

	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a prompt module manager over modulesDir. The directory
// may be empty or absent; every module then falls back to the base prompt.
func NewManager(modulesDir string) *Manager {
	return &Manager{
		modulesDir: modulesDir,
		cache:      make(map[string]string),
		done:       make(chan struct{}),
	}
}

// Watch starts invalidating cached modules when their files change.
func (m *Manager) Watch() error {
	if _, err := os.Stat(m.modulesDir); os.IsNotExist(err) {
		log.Info().Str("dir", m.modulesDir).Msg("Prompt modules directory absent, watch skipped")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(m.modulesDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", m.modulesDir, err)
	}

	m.watcher = watcher
	go m.eventLoop()

	log.Info().Str("dir", m.modulesDir).Msg("Prompt module watcher started")
	return nil
}

// Stop stops the watcher.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		if m.watcher != nil {
			_ = m.watcher.Close()
		}
	})
}

func (m *Manager) eventLoop() {
	for {
		select {
		case <-m.done:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := strings.TrimSuffix(filepath.Base(event.Name), ".md")
			m.mu.Lock()
			delete(m.cache, name)
			m.mu.Unlock()
			log.Debug().Str("module", name).Msg("Prompt module cache invalidated")
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Prompt module watcher error")
		}
	}
}

// loadModule reads a module file, caching the content. Missing modules
// return empty content without error; the role still gets the base prompt.
func (m *Manager) loadModule(name string) string {
	m.mu.RLock()
	cached, ok := m.cache[name]
	m.mu.RUnlock()
	if ok {
		return cached
	}

	path := filepath.Join(m.modulesDir, name+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error().Err(err).Str("module", name).Msg("Failed to read prompt module")
		}
		return ""
	}

	content := string(data)
	m.mu.Lock()
	m.cache[name] = content
	m.mu.Unlock()

	log.Debug().Str("module", name).Msg("Loaded prompt module")
	return content
}

// basePrompt returns the on-disk base module or the built-in default.
func (m *Manager) basePrompt() string {
	if content := m.loadModule("base"); content != "" {
		return content
	}
	return defaultBasePrompt
}

// Build renders the instruction text for a role: base prompt plus the
// role's module, with {{user_name}} and {{current_time}} interpolated.
// Implements the handoff runtime's InstructionBuilder.
func (m *Manager) Build(module, userName, currentTime string) (string, error) {
	if module == "" {
		return "", fmt.Errorf("prompt module name is required")
	}

	var b strings.Builder
	b.WriteString(m.basePrompt())

	if content := m.loadModule(module); content != "" {
		b.WriteString("\n\n")
		b.WriteString(content)
	}

	text := b.String()
	text = strings.ReplaceAll(text, "{{user_name}}", userName)
	text = strings.ReplaceAll(text, "{{current_time}}", currentTime)

	return text, nil
}
