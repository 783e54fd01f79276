package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stable_dashboard/internal/alerts"
	"stable_dashboard/internal/logger"
	"stable_dashboard/internal/metrics"
	"stable_dashboard/internal/models"
	"stable_dashboard/internal/notifier"
	"stable_dashboard/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500

	notifyTimeout = 10 * time.Second
)

// SnapshotProvider supplies the entity map an evaluation pass runs against.
type SnapshotProvider interface {
	Snapshot() map[string]models.EntityState
}

// AlertService is the rule CRUD and evaluation entry point.
type AlertService struct {
	rules     repository.AlertRepo
	history   repository.HistoryRepo
	evaluator *alerts.Evaluator
	states    SnapshotProvider
	notifier  notifier.Notifier
	metrics   *metrics.Metrics
	log       *logger.Logger
	now       func() time.Time
}

func NewAlertService(
	rules repository.AlertRepo,
	history repository.HistoryRepo,
	evaluator *alerts.Evaluator,
	states SnapshotProvider,
	n notifier.Notifier,
	m *metrics.Metrics,
	log *logger.Logger,
) *AlertService {
	return &AlertService{
		rules:     rules,
		history:   history,
		evaluator: evaluator,
		states:    states,
		notifier:  n,
		metrics:   m,
		log:       logger.OrNop(log).Named("alerts.service"),
		now:       time.Now,
	}
}

func (s *AlertService) ListRules(ctx context.Context) ([]models.AlertRule, error) {
	return s.rules.List(ctx)
}

func (s *AlertService) CreateRule(ctx context.Context, in RuleInput) (models.AlertRule, error) {
	now := s.now().UTC()
	rule := models.AlertRule{
		ID:        uuid.NewString(),
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applyRuleInput(&rule, in); err != nil {
		return models.AlertRule{}, err
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return models.AlertRule{}, err
	}
	s.warnIfNeverTriggers(rule)
	s.log.Infow("alert_rule_created", "alert_id", rule.ID, "entity_id", rule.EntityID, "condition", rule.Condition)
	return rule, nil
}

// UpdateRule replaces a rule's fields and re-arms it.
func (s *AlertService) UpdateRule(ctx context.Context, id string, in RuleInput) (models.AlertRule, error) {
	rule, err := s.rules.Get(ctx, id)
	if err != nil {
		return models.AlertRule{}, err
	}
	if err := applyRuleInput(&rule, in); err != nil {
		return models.AlertRule{}, err
	}
	rule.UpdatedAt = s.now().UTC()
	if err := s.rules.Update(ctx, rule); err != nil {
		return models.AlertRule{}, err
	}
	s.evaluator.ForgetRule(rule.ID)
	s.warnIfNeverTriggers(rule)
	s.log.Infow("alert_rule_updated", "alert_id", rule.ID, "enabled", rule.Enabled)
	return rule, nil
}

// DeleteRule removes the rule and its trigger flag. Its history stays.
func (s *AlertService) DeleteRule(ctx context.Context, id string) error {
	if err := s.rules.Delete(ctx, id); err != nil {
		return err
	}
	s.evaluator.ForgetRule(id)
	s.log.Infow("alert_rule_deleted", "alert_id", id)
	return nil
}

// History lists the newest records. limit <= 0 selects the default; larger
// values are capped.
func (s *AlertService) History(ctx context.Context, limit int) ([]models.AlertHistoryRecord, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	return s.history.List(ctx, limit)
}

// Check runs one evaluation pass over the cached entities and publishes the
// fresh triggers. Notification failures are logged only.
func (s *AlertService) Check(ctx context.Context) ([]models.TriggeredAlert, error) {
	triggered, err := s.evaluator.Evaluate(ctx, s.states.Snapshot())
	s.metrics.ObserveEvaluation(len(triggered), err)
	if err != nil {
		return triggered, err
	}

	if len(triggered) > 0 && s.notifier != nil {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		nerr := s.notifier.Notify(nctx, triggered)
		cancel()
		s.metrics.ObserveNotification(nerr)
		if nerr != nil {
			s.log.Warnw("alert_notify_failed", "count", len(triggered), "error", nerr)
		}
	}
	return triggered, nil
}

// ResetStates forgets every trigger flag.
func (s *AlertService) ResetStates() {
	s.evaluator.ClearStates()
}

// warnIfNeverTriggers flags above/below rules whose threshold is not a
// number: they evaluate to false for every state.
func (s *AlertService) warnIfNeverTriggers(rule models.AlertRule) {
	if rule.Condition.Ordered() && !alerts.IsNumeric(rule.Threshold) {
		s.log.Warnw("alert_rule_non_numeric_threshold",
			"alert_id", rule.ID,
			"condition", rule.Condition,
			"threshold", rule.Threshold,
		)
	}
}

func applyRuleInput(rule *models.AlertRule, in RuleInput) error {
	entityID := strings.TrimSpace(in.EntityID)
	name := strings.TrimSpace(in.Name)
	cond := models.AlertCondition(strings.TrimSpace(in.Condition))

	switch {
	case entityID == "":
		return fmt.Errorf("%w: entity_id is required", ErrValidation)
	case name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case !cond.Valid():
		return fmt.Errorf("%w: condition must be one of above, below, equals, not_equals", ErrValidation)
	case strings.TrimSpace(in.Threshold) == "":
		return fmt.Errorf("%w: threshold is required", ErrValidation)
	}

	rule.EntityID = entityID
	rule.Name = name
	rule.Condition = cond
	rule.Threshold = in.Threshold
	if in.Enabled != nil {
		rule.Enabled = *in.Enabled
	}
	return nil
}
