package hass

import (
	"context"
	"errors"
	"sync"
	"time"

	"stable_dashboard/internal/logger"
)

// ConnState is the lifecycle of the live connection.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateLive         ConnState = "live"
)

// Status is what the dashboard shows about the controller link.
type Status struct {
	State      ConnState  `json:"state"`
	Mode       Mode       `json:"mode,omitempty"`
	Live       bool       `json:"live"`
	Configured bool       `json:"configured"`
	Error      string     `json:"error,omitempty"`
	Entities   int        `json:"entities"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// ConnectionObserver is told about every state transition.
type ConnectionObserver interface {
	ObserveConnectionState(state string)
}

// Manager owns at most one streaming subscription and falls back to a
// single polling refresh whenever streaming fails or drops. It never retries
// on its own.
type Manager struct {
	streaming Source
	polling   Source
	cache     *Cache
	creds     CredentialsProvider
	observer  ConnectionObserver
	log       *logger.Logger

	// opMu serialises Connect, Disconnect, Refresh and drop handling.
	opMu sync.Mutex

	mu      sync.Mutex
	state   ConnState
	mode    Mode
	sub     Subscription
	gen     uint64
	lastErr error
}

type ManagerOption func(*Manager)

func WithObserver(o ConnectionObserver) ManagerOption {
	return func(m *Manager) { m.observer = o }
}

func NewManager(streaming, polling Source, cache *Cache, creds CredentialsProvider, log *logger.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		streaming: streaming,
		polling:   polling,
		cache:     cache,
		creds:     creds,
		log:       logger.OrNop(log).Named("hass.manager"),
		state:     StateDisconnected,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect opens the streaming subscription, or returns the existing one.
// On failure the manager goes back to disconnected, performs one polling
// refresh and returns the streaming error.
func (m *Manager) Connect(ctx context.Context) (Subscription, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.sub != nil {
		sub := m.sub
		m.mu.Unlock()
		return sub, nil
	}
	m.gen++
	gen := m.gen
	m.setStateLocked(StateConnecting, ModeNone)
	m.mu.Unlock()

	sub, err := m.streaming.Open(ctx, func(err error) { m.onStreamClosed(gen, err) })
	if err != nil {
		m.mu.Lock()
		m.setStateLocked(StateDisconnected, ModeNone)
		if errors.Is(err, ErrNotConfigured) {
			m.lastErr = nil
		} else {
			m.lastErr = err
		}
		m.mu.Unlock()

		if errors.Is(err, ErrNotConfigured) {
			m.log.Infow("connect_skipped", "reason", "not_configured")
			return nil, err
		}
		m.log.Warnw("stream_connect_failed", "error", err)
		if rerr := m.refreshLocked(ctx); rerr != nil {
			m.log.Warnw("fallback_refresh_failed", "error", rerr)
		}
		m.mu.Lock()
		m.lastErr = err
		m.mu.Unlock()
		return nil, err
	}

	m.mu.Lock()
	m.sub = sub
	m.lastErr = nil
	m.setStateLocked(StateLive, m.streaming.Mode())
	m.mu.Unlock()

	m.log.Infow("connected", "mode", m.streaming.Mode(), "entities", m.cache.Len())
	return sub, nil
}

// Disconnect closes the subscription if there is one. Idempotent.
func (m *Manager) Disconnect() error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	sub := m.sub
	m.sub = nil
	m.gen++
	m.lastErr = nil
	m.setStateLocked(StateDisconnected, ModeNone)
	m.mu.Unlock()

	if sub == nil {
		return nil
	}
	if err := sub.Close(); err != nil {
		m.log.Warnw("disconnect_close_failed", "error", err)
	}
	m.log.Infow("disconnected")
	return nil
}

// Refresh polls the full state list once. A missing configuration is not an
// error: the manager simply stays disconnected.
func (m *Manager) Refresh(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.refreshLocked(ctx)
}

// Streaming reports whether a streaming subscription is open.
func (m *Manager) Streaming() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sub != nil
}

func (m *Manager) Status(ctx context.Context) Status {
	configured := false
	if creds, err := m.creds.Credentials(ctx); err == nil {
		configured = creds.Configured()
	}

	m.mu.Lock()
	st := Status{
		State:      m.state,
		Mode:       m.mode,
		Live:       m.state == StateLive,
		Configured: configured,
	}
	if m.lastErr != nil {
		st.Error = m.lastErr.Error()
	}
	m.mu.Unlock()

	st.Entities = m.cache.Len()
	if ts := m.cache.UpdatedAt(); !ts.IsZero() {
		st.UpdatedAt = &ts
	}
	return st
}

func (m *Manager) refreshLocked(ctx context.Context) error {
	sub, err := m.polling.Open(ctx, nil)
	if err != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		if errors.Is(err, ErrNotConfigured) {
			if m.sub == nil {
				m.setStateLocked(StateDisconnected, ModeNone)
			}
			m.lastErr = nil
			return nil
		}
		if m.sub == nil {
			m.setStateLocked(StateDisconnected, ModeNone)
		}
		m.lastErr = err
		return err
	}
	_ = sub.Close()

	m.mu.Lock()
	if m.sub == nil {
		m.setStateLocked(StateLive, m.polling.Mode())
	}
	m.lastErr = nil
	m.mu.Unlock()
	m.log.Debugw("refreshed", "entities", m.cache.Len())
	return nil
}

func (m *Manager) onStreamClosed(gen uint64, cause error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if gen != m.gen || m.sub == nil {
		m.mu.Unlock()
		return
	}
	m.sub = nil
	m.gen++
	m.setStateLocked(StateDisconnected, ModeNone)
	m.mu.Unlock()

	m.log.Warnw("stream_dropped", "error", cause)
	if err := m.refreshLocked(context.Background()); err != nil {
		m.log.Warnw("fallback_refresh_failed", "error", err)
	}
	m.mu.Lock()
	if m.lastErr == nil && cause != nil {
		m.lastErr = cause
	}
	m.mu.Unlock()
}

func (m *Manager) setStateLocked(state ConnState, mode Mode) {
	changed := m.state != state
	m.state = state
	m.mode = mode
	if changed && m.observer != nil {
		m.observer.ObserveConnectionState(string(state))
	}
}
