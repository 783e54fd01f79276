package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"stable_dashboard/internal/alerts"
	"stable_dashboard/internal/hass"
	"stable_dashboard/internal/logger"
	"stable_dashboard/internal/metrics"
	"stable_dashboard/internal/models"
	"stable_dashboard/internal/notifier"
	"stable_dashboard/internal/repository"
)

// ErrValidation marks input rejected before any side effect.
var ErrValidation = errors.New("validation failed")

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Alerts manages alert rules and runs evaluation passes.
type Alerts interface {
	ListRules(ctx context.Context) ([]models.AlertRule, error)
	CreateRule(ctx context.Context, in RuleInput) (models.AlertRule, error)
	UpdateRule(ctx context.Context, id string, in RuleInput) (models.AlertRule, error)
	DeleteRule(ctx context.Context, id string) error
	History(ctx context.Context, limit int) ([]models.AlertHistoryRecord, error)
	Check(ctx context.Context) ([]models.TriggeredAlert, error)
	ResetStates()
}

// Controller exposes the Home Assistant link: cached entities, connection
// lifecycle, service calls and automations.
type Controller interface {
	Status(ctx context.Context) hass.Status
	Entities() []models.EntityState
	States(ctx context.Context) ([]models.EntityState, error)
	State(ctx context.Context, entityID string) (models.EntityState, error)
	Refresh(ctx context.Context) error
	Connect(ctx context.Context) error
	Disconnect() error
	CallService(ctx context.Context, domain, service string, payload map[string]any) (json.RawMessage, error)
	Automations(ctx context.Context) ([]models.EntityState, error)
	ControlAutomation(ctx context.Context, entityID, action string) (json.RawMessage, error)
}

// Settings manages the stored controller URL and token.
type Settings interface {
	TokenStatus(ctx context.Context) (TokenStatus, error)
	SaveCredentials(ctx context.Context, url, token string) error
	ClearCredentials(ctx context.Context) error
	URL(ctx context.Context) (string, error)
	Token(ctx context.Context) (string, error)
	WebSocketConfig(ctx context.Context) (WebSocketConfig, error)
}

// Checker runs evaluation passes in the background.
// Stop via context cancellation in main() for graceful shutdown.
type Checker interface {
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	Authorization
	Alerts
	Controller
	Settings
	Checker
}

// Deps are the collaborators NewService wires together.
type Deps struct {
	Repos       *repository.Repository
	Cache       *hass.Cache
	Manager     *hass.Manager
	Client      *hass.Client
	Evaluator   *alerts.Evaluator
	Credentials *CredentialStore
	Notifier    notifier.Notifier
	Metrics     *metrics.Metrics
	Auth        AuthConfig
	Log         *logger.Logger
}

func NewService(d Deps) *Service {
	alertSvc := NewAlertService(d.Repos.Alerts, d.Repos.History, d.Evaluator, d.Cache, d.Notifier, d.Metrics, d.Log)
	controller := NewControllerService(d.Manager, d.Cache, d.Client, d.Metrics, d.Log)
	return &Service{
		Authorization: NewAuthService(d.Repos.Auth, d.Auth),
		Alerts:        alertSvc,
		Controller:    controller,
		Settings:      NewSettingsService(d.Credentials, controller, d.Cache, d.Log),
		Checker:       NewAlertChecker(alertSvc, d.Log),
	}
}
