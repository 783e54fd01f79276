package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"stable_dashboard/internal/hass"
	"stable_dashboard/internal/models"
	"stable_dashboard/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockAlerts struct {
	rules     []models.AlertRule
	rule      models.AlertRule
	history   []models.AlertHistoryRecord
	triggered []models.TriggeredAlert
	err       error

	lastInput  service.RuleInput
	lastID     string
	lastLimit  int
	resetCalls int
}

func (m *mockAlerts) ListRules(ctx context.Context) ([]models.AlertRule, error) {
	return m.rules, m.err
}
func (m *mockAlerts) CreateRule(ctx context.Context, in service.RuleInput) (models.AlertRule, error) {
	m.lastInput = in
	return m.rule, m.err
}
func (m *mockAlerts) UpdateRule(ctx context.Context, id string, in service.RuleInput) (models.AlertRule, error) {
	m.lastID = id
	m.lastInput = in
	return m.rule, m.err
}
func (m *mockAlerts) DeleteRule(ctx context.Context, id string) error {
	m.lastID = id
	return m.err
}
func (m *mockAlerts) History(ctx context.Context, limit int) ([]models.AlertHistoryRecord, error) {
	m.lastLimit = limit
	return m.history, m.err
}
func (m *mockAlerts) Check(ctx context.Context) ([]models.TriggeredAlert, error) {
	return m.triggered, m.err
}
func (m *mockAlerts) ResetStates() { m.resetCalls++ }

type mockController struct {
	status   hass.Status
	entities []models.EntityState
	state    models.EntityState
	raw      json.RawMessage
	err      error

	lastEntityID    string
	lastDomain      string
	lastService     string
	lastPayload     map[string]any
	lastAction      string
	connectCalls    int
	disconnectCalls int
	refreshCalls    int
}

func (m *mockController) Status(ctx context.Context) hass.Status { return m.status }
func (m *mockController) Entities() []models.EntityState         { return m.entities }
func (m *mockController) States(ctx context.Context) ([]models.EntityState, error) {
	return m.entities, m.err
}
func (m *mockController) State(ctx context.Context, entityID string) (models.EntityState, error) {
	m.lastEntityID = entityID
	return m.state, m.err
}
func (m *mockController) Refresh(ctx context.Context) error {
	m.refreshCalls++
	return m.err
}
func (m *mockController) Connect(ctx context.Context) error {
	m.connectCalls++
	return m.err
}
func (m *mockController) Disconnect() error {
	m.disconnectCalls++
	return m.err
}
func (m *mockController) CallService(ctx context.Context, domain, svc string, payload map[string]any) (json.RawMessage, error) {
	m.lastDomain, m.lastService, m.lastPayload = domain, svc, payload
	return m.raw, m.err
}
func (m *mockController) Automations(ctx context.Context) ([]models.EntityState, error) {
	return m.entities, m.err
}
func (m *mockController) ControlAutomation(ctx context.Context, entityID, action string) (json.RawMessage, error) {
	m.lastEntityID, m.lastAction = entityID, action
	return m.raw, m.err
}

type mockSettings struct {
	status service.TokenStatus
	url    string
	token  string
	ws     service.WebSocketConfig
	err    error

	lastURL    string
	lastToken  string
	clearCalls int
}

func (m *mockSettings) TokenStatus(ctx context.Context) (service.TokenStatus, error) {
	return m.status, m.err
}
func (m *mockSettings) SaveCredentials(ctx context.Context, url, token string) error {
	m.lastURL, m.lastToken = url, token
	return m.err
}
func (m *mockSettings) ClearCredentials(ctx context.Context) error {
	m.clearCalls++
	return m.err
}
func (m *mockSettings) URL(ctx context.Context) (string, error)   { return m.url, m.err }
func (m *mockSettings) Token(ctx context.Context) (string, error) { return m.token, m.err }
func (m *mockSettings) WebSocketConfig(ctx context.Context) (service.WebSocketConfig, error) {
	return m.ws, m.err
}

// ---- Shared Test Helpers ----

// okAuth accepts any bearer token as user 1.
func okAuth() *mockAuth { return &mockAuth{parseID: 1} }

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
