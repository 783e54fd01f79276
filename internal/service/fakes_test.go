package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"stable_dashboard/internal/hass"
	"stable_dashboard/internal/models"
	"stable_dashboard/internal/repository"
)

// ---- Test doubles ----

// memAlertRepo is an in-memory repository.AlertRepo.
type memAlertRepo struct {
	mu    sync.Mutex
	rules map[string]models.AlertRule
	err   error
}

func newMemAlertRepo(rules ...models.AlertRule) *memAlertRepo {
	r := &memAlertRepo{rules: map[string]models.AlertRule{}}
	for _, rule := range rules {
		r.rules[rule.ID] = rule
	}
	return r
}

func (r *memAlertRepo) sorted(onlyEnabled bool) []models.AlertRule {
	out := make([]models.AlertRule, 0, len(r.rules))
	for _, rule := range r.rules {
		if onlyEnabled && !rule.Enabled {
			continue
		}
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *memAlertRepo) List(context.Context) ([]models.AlertRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.sorted(false), nil
}

func (r *memAlertRepo) ListEnabled(context.Context) ([]models.AlertRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.sorted(true), nil
}

func (r *memAlertRepo) Get(_ context.Context, id string) (models.AlertRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return models.AlertRule{}, repository.ErrNotFound
	}
	return rule, nil
}

func (r *memAlertRepo) Create(_ context.Context, rule models.AlertRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.rules[rule.ID] = rule
	return nil
}

func (r *memAlertRepo) Update(_ context.Context, rule models.AlertRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[rule.ID]; !ok {
		return repository.ErrNotFound
	}
	r.rules[rule.ID] = rule
	return nil
}

func (r *memAlertRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rules, id)
	return nil
}

// memHistoryRepo is an in-memory repository.HistoryRepo.
type memHistoryRepo struct {
	mu        sync.Mutex
	records   []models.AlertHistoryRecord
	err       error
	lastLimit int
}

func (h *memHistoryRepo) AppendBatch(_ context.Context, recs []models.AlertHistoryRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.records = append(h.records, recs...)
	return nil
}

func (h *memHistoryRepo) List(_ context.Context, limit int) ([]models.AlertHistoryRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastLimit = limit
	out := make([]models.AlertHistoryRecord, 0, len(h.records))
	for i := len(h.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.records[i])
	}
	return out, nil
}

// memSettingsRepo is an in-memory repository.SettingsRepo.
type memSettingsRepo struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMemSettings() *memSettingsRepo { return &memSettingsRepo{values: map[string]string{}} }

func (s *memSettingsRepo) Get(_ context.Context, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.values[name]
	return v, ok, nil
}

func (s *memSettingsRepo) Set(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.values[name] = value
	return nil
}

func (s *memSettingsRepo) Delete(_ context.Context, names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		delete(s.values, n)
	}
	return nil
}

// stubManager is a scripted ConnectionManager.
type stubManager struct {
	streaming   bool
	refreshErr  error
	connectErr  error
	refreshes   int
	connects    int
	disconnects int
	status      hass.Status
	onRefresh   func()
}

func (m *stubManager) Connect(context.Context) (hass.Subscription, error) {
	m.connects++
	if m.connectErr != nil {
		return nil, m.connectErr
	}
	m.streaming = true
	return nil, nil
}

func (m *stubManager) Disconnect() error {
	m.disconnects++
	m.streaming = false
	return nil
}

func (m *stubManager) Refresh(context.Context) error {
	m.refreshes++
	if m.onRefresh != nil {
		m.onRefresh()
	}
	return m.refreshErr
}

func (m *stubManager) Status(context.Context) hass.Status { return m.status }
func (m *stubManager) Streaming() bool                    { return m.streaming }

type serviceCall struct {
	domain, service string
	payload         any
}

// stubGateway records service calls and serves single states.
type stubGateway struct {
	calls  []serviceCall
	states map[string]models.EntityState
	err    error
}

func (g *stubGateway) State(_ context.Context, id string) (models.EntityState, error) {
	if g.err != nil {
		return models.EntityState{}, g.err
	}
	st, ok := g.states[id]
	if !ok {
		return models.EntityState{}, &hass.StatusError{Code: 404}
	}
	return st, nil
}

func (g *stubGateway) CallService(_ context.Context, domain, service string, payload any) (json.RawMessage, error) {
	g.calls = append(g.calls, serviceCall{domain: domain, service: service, payload: payload})
	if g.err != nil {
		return nil, g.err
	}
	return json.RawMessage(`[]`), nil
}
