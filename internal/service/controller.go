package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"stable_dashboard/internal/hass"
	"stable_dashboard/internal/logger"
	"stable_dashboard/internal/metrics"
	"stable_dashboard/internal/models"
)

const automationDomain = "automation"

// Automation actions accepted by ControlAutomation.
var automationActions = map[string]bool{
	"trigger":  true,
	"turn_on":  true,
	"turn_off": true,
	"toggle":   true,
}

// ConnectionManager is the part of hass.Manager used here.
type ConnectionManager interface {
	Connect(ctx context.Context) (hass.Subscription, error)
	Disconnect() error
	Refresh(ctx context.Context) error
	Status(ctx context.Context) hass.Status
	Streaming() bool
}

// EntityGateway is the part of hass.Client used here.
type EntityGateway interface {
	State(ctx context.Context, entityID string) (models.EntityState, error)
	CallService(ctx context.Context, domain, service string, payload any) (json.RawMessage, error)
}

// EntityCache is the part of hass.Cache used here.
type EntityCache interface {
	Get(entityID string) (models.EntityState, bool)
	List(domain string) []models.EntityState
	Clear()
}

type ControllerService struct {
	manager ConnectionManager
	cache   EntityCache
	gateway EntityGateway
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewControllerService(manager ConnectionManager, cache EntityCache, gateway EntityGateway, m *metrics.Metrics, log *logger.Logger) *ControllerService {
	return &ControllerService{
		manager: manager,
		cache:   cache,
		gateway: gateway,
		metrics: m,
		log:     logger.OrNop(log).Named("controller"),
	}
}

func (s *ControllerService) Status(ctx context.Context) hass.Status {
	return s.manager.Status(ctx)
}

// Entities returns the cache as it is, without touching the network.
func (s *ControllerService) Entities() []models.EntityState {
	return s.cache.List("")
}

// States returns all entities, polling first unless a stream keeps the cache
// current.
func (s *ControllerService) States(ctx context.Context) ([]models.EntityState, error) {
	if !s.manager.Streaming() {
		if err := s.manager.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return s.cache.List(""), nil
}

// State serves from the cache while streaming and from the REST API otherwise.
func (s *ControllerService) State(ctx context.Context, entityID string) (models.EntityState, error) {
	if !hass.ValidEntityID(entityID) {
		return models.EntityState{}, fmt.Errorf("%w: invalid entity id %q", ErrValidation, entityID)
	}
	if s.manager.Streaming() {
		if st, ok := s.cache.Get(entityID); ok {
			return st, nil
		}
	}
	return s.gateway.State(ctx, entityID)
}

func (s *ControllerService) Refresh(ctx context.Context) error {
	return s.manager.Refresh(ctx)
}

func (s *ControllerService) Connect(ctx context.Context) error {
	_, err := s.manager.Connect(ctx)
	return err
}

func (s *ControllerService) Disconnect() error {
	return s.manager.Disconnect()
}

func (s *ControllerService) CallService(ctx context.Context, domain, service string, payload map[string]any) (json.RawMessage, error) {
	if !hass.ValidIdentifier(domain) || !hass.ValidIdentifier(service) {
		return nil, fmt.Errorf("%w: domain and service must match [a-z0-9_]+", ErrValidation)
	}
	var body any
	if payload != nil {
		body = payload
	}
	resp, err := s.gateway.CallService(ctx, domain, service, body)
	s.metrics.ObserveServiceCall(domain, err)
	if err != nil {
		return nil, err
	}
	s.log.Infow("service_call", "domain", domain, "service", service)
	return resp, nil
}

// Automations lists automation.* entities.
func (s *ControllerService) Automations(ctx context.Context) ([]models.EntityState, error) {
	if !s.manager.Streaming() {
		if err := s.manager.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return s.cache.List(automationDomain), nil
}

// ControlAutomation maps trigger/turn_on/turn_off/toggle onto the matching
// automation service.
func (s *ControllerService) ControlAutomation(ctx context.Context, entityID, action string) (json.RawMessage, error) {
	if !automationActions[action] {
		return nil, fmt.Errorf("%w: unknown automation action %q", ErrValidation, action)
	}
	if !strings.HasPrefix(entityID, automationDomain+".") || !hass.ValidEntityID(entityID) {
		return nil, fmt.Errorf("%w: %q is not an automation entity", ErrValidation, entityID)
	}
	resp, err := s.CallService(ctx, automationDomain, action, map[string]any{"entity_id": entityID})
	if err != nil && !errors.Is(err, ErrValidation) {
		s.log.Warnw("automation_control_failed", "entity_id", entityID, "action", action, "error", err)
	}
	return resp, err
}
