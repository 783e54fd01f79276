package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stable_dashboard/internal/logger"
	"stable_dashboard/internal/models"
)

// RuleSource lists the rules to evaluate, in a stable order.
type RuleSource interface {
	ListEnabled(ctx context.Context) ([]models.AlertRule, error)
}

// HistoryWriter stores the records of one pass atomically.
type HistoryWriter interface {
	AppendBatch(ctx context.Context, records []models.AlertHistoryRecord) error
}

// Evaluator performs edge-triggered rule evaluation against entity snapshots.
type Evaluator struct {
	rules   RuleSource
	history HistoryWriter
	state   *TriggerState
	log     *logger.Logger
	now     func() time.Time
	newID   func() string

	// mu makes each pass a single read-compare-commit over the trigger flags.
	mu sync.Mutex
}

type Option func(*Evaluator)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// WithIDGenerator sets how history record ids are produced.
func WithIDGenerator(gen func() string) Option {
	return func(e *Evaluator) { e.newID = gen }
}

func NewEvaluator(rules RuleSource, history HistoryWriter, state *TriggerState, log *logger.Logger, opts ...Option) *Evaluator {
	if state == nil {
		state = NewTriggerState()
	}
	e := &Evaluator{
		rules:   rules,
		history: history,
		state:   state,
		log:     logger.OrNop(log).Named("alerts"),
		now:     time.Now,
		newID:   func() string { return "" },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State exposes the trigger flags owned by this evaluator.
func (e *Evaluator) State() *TriggerState { return e.state }

// Evaluate runs one pass over the enabled rules. It returns the rules that
// moved from not-triggered to triggered, in rule order, after their history
// records have been written. Rules whose entity is missing from states are
// skipped and keep their flag.
//
// On any error the pass is abandoned: the result is empty, no flag changes
// and no history is kept.
func (e *Evaluator) Evaluate(ctx context.Context, states map[string]models.EntityState) ([]models.TriggeredAlert, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rules, err := e.rules.ListEnabled(ctx)
	if err != nil {
		e.log.Errorw("load_rules_failed", "error", err)
		return []models.TriggeredAlert{}, fmt.Errorf("load rules: %w", err)
	}

	prev := e.state.Snapshot()
	next := make(map[string]bool, len(rules))
	triggered := make([]models.TriggeredAlert, 0)
	records := make([]models.AlertHistoryRecord, 0)
	now := e.now().UTC()

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		entity, ok := states[rule.EntityID]
		if !ok {
			continue
		}

		hit := EvaluateCondition(rule.Condition, entity.State, rule.Threshold)
		if hit && !prev[rule.ID] {
			triggered = append(triggered, models.TriggeredAlert{
				AlertRule:   rule,
				StateValue:  entity.State,
				TriggeredAt: now,
			})
			records = append(records, models.AlertHistoryRecord{
				ID:          e.newID(),
				AlertID:     rule.ID,
				EntityID:    rule.EntityID,
				StateValue:  entity.State,
				TriggeredAt: now,
			})
		}
		next[rule.ID] = hit
	}

	if len(records) > 0 {
		if err := e.history.AppendBatch(ctx, records); err != nil {
			e.log.Errorw("write_history_failed", "error", err, "records", len(records))
			return []models.TriggeredAlert{}, fmt.Errorf("write history: %w", err)
		}
	}

	e.state.Merge(next)

	for _, t := range triggered {
		e.log.Infow("alert_triggered",
			"alert_id", t.ID,
			"name", t.Name,
			"entity_id", t.EntityID,
			"entity_name", states[t.EntityID].FriendlyName(),
			"condition", t.Condition,
			"threshold", t.Threshold,
			"state", t.StateValue,
		)
	}
	e.log.Debugw("evaluation_done", "rules", len(rules), "triggered", len(triggered))
	return triggered, nil
}

// ForgetRule drops one rule's flag so it can fire again. It waits for a
// running pass, which would otherwise write the old flag back.
func (e *Evaluator) ForgetRule(ruleID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Forget(ruleID)
}

// ClearStates forgets every trigger flag.
func (e *Evaluator) ClearStates() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Clear()
	e.log.Infow("alert_states_cleared")
}
