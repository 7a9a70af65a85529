package simhooks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Manager dispatches simulation events to whatever observers were
// registered for them. Concurrency is bounded by a counting semaphore and
// drained with a sync.WaitGroup on Close, the same shutdown idiom
// Orchestrator uses for its player-loop goroutines (stopPlay/playLoopWG in
// internal/orchestrator/orchestrator.go) rather than a dedicated worker-pool
// type — there's no separate pool lifecycle to manage here, just bounded
// fan-out per TriggerEvent call.
type Manager struct {
	hooks     map[EventType][]Hook
	stdioHook *StdioHook
	mu        sync.RWMutex
	sem       chan struct{}
	wg        sync.WaitGroup
	logger    *slog.Logger
	config    Config
}

// NewManager creates a new hook manager.
func NewManager(config Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := time.ParseDuration(config.Timeout); err != nil {
		logger.Warn("invalid hook timeout, ignoring", "timeout", config.Timeout, "error", err)
	}

	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	m := &Manager{
		hooks:  make(map[EventType][]Hook),
		logger: logger,
		config: config,
		sem:    make(chan struct{}, concurrency),
	}

	if config.StdioFormat != "" {
		m.EnableStdioOutput(config.StdioFormat)
	}

	return m
}

// RegisterHook registers a hook for the specified event type.
func (m *Manager) RegisterHook(eventType EventType, hook Hook) error {
	if hook == nil {
		return fmt.Errorf("cannot register nil hook")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks[eventType] = append(m.hooks[eventType], hook)
	m.logger.Info("hook registered", "event_type", eventType, "hook_type", hook.Type(), "hook_id", hook.ID())
	return nil
}

// UnregisterHook removes a hook by ID from the specified event type.
func (m *Manager) UnregisterHook(eventType EventType, hookID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	hooks := m.hooks[eventType]
	for i, h := range hooks {
		if h.ID() == hookID {
			m.hooks[eventType] = append(hooks[:i], hooks[i+1:]...)
			m.logger.Info("hook unregistered", "event_type", eventType, "hook_id", hookID)
			return true
		}
	}
	return false
}

// TriggerEvent fans the event out to every hook registered for its type
// (plus stdio output, if enabled), each running in its own goroutine
// bounded by the semaphore. Safe to call on a nil Manager (no-op), so
// callers don't need to guard every call site on whether hooks were ever
// configured.
func (m *Manager) TriggerEvent(ctx context.Context, event Event) {
	if m == nil {
		return
	}

	m.mu.RLock()
	hooks := make([]Hook, len(m.hooks[event.Type]))
	copy(hooks, m.hooks[event.Type])
	stdio := m.stdioHook
	m.mu.RUnlock()

	if stdio != nil {
		hooks = append(hooks, stdio)
	}
	if len(hooks) == 0 {
		return
	}

	m.logger.Debug("triggering event", "event_type", event.Type, "hook_count", len(hooks), "event", event.String())
	for _, hook := range hooks {
		m.dispatch(ctx, hook, event)
	}
}

// dispatch never blocks the caller on a full semaphore: TriggerEvent is
// called inline from simulation hot paths (proxy cache hit/miss, client
// playback callbacks), which must not stall waiting on a slow webhook.
func (m *Manager) dispatch(ctx context.Context, hook Hook, event Event) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.sem <- struct{}{}
		defer func() { <-m.sem }()

		start := time.Now()
		err := hook.Execute(ctx, event)
		elapsed := time.Since(start)

		if err != nil {
			m.logger.Error("hook execution failed", "hook_type", hook.Type(), "hook_id", hook.ID(),
				"event_type", event.Type, "duration_ms", elapsed.Milliseconds(), "error", err)
			return
		}
		m.logger.Debug("hook executed", "hook_type", hook.Type(), "hook_id", hook.ID(),
			"event_type", event.Type, "duration_ms", elapsed.Milliseconds())
	}()
}

// EnableStdioOutput enables structured output to stderr.
func (m *Manager) EnableStdioOutput(format string) error {
	if format != "json" && format != "env" {
		return fmt.Errorf("unsupported stdio format: %s", format)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stdioHook = NewStdioHook("stdio", format)
	m.logger.Info("stdio output enabled", "format", format)
	return nil
}

// GetStats returns a snapshot of hook registration counts, for diagnostics.
func (m *Manager) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hooksByType := make(map[string]int)
	total := 0
	for eventType, hooks := range m.hooks {
		hooksByType[string(eventType)] = len(hooks)
		total += len(hooks)
	}

	return map[string]interface{}{
		"event_types":   len(m.hooks),
		"total_hooks":   total,
		"hooks_by_type": hooksByType,
		"stdio_enabled": m.stdioHook != nil,
		"pool_size":     cap(m.sem),
	}
}

// Close waits for in-flight hook executions to finish. Safe to call on a
// nil Manager (no-op).
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.wg.Wait()
	m.logger.Info("hook manager closed")
	return nil
}
