package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"stable_dashboard/internal/alerts"
	"stable_dashboard/internal/hass"
	"stable_dashboard/internal/models"
	"stable_dashboard/internal/repository"
)

type recordingNotifier struct {
	batches [][]models.TriggeredAlert
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, a []models.TriggeredAlert) error {
	n.batches = append(n.batches, a)
	return n.err
}

type alertFixture struct {
	svc      *AlertService
	rules    *memAlertRepo
	history  *memHistoryRepo
	cache    *hass.Cache
	notifier *recordingNotifier
}

func newAlertFixture(rules ...models.AlertRule) *alertFixture {
	f := &alertFixture{
		rules:    newMemAlertRepo(rules...),
		history:  &memHistoryRepo{},
		cache:    hass.NewCache(),
		notifier: &recordingNotifier{},
	}
	ev := alerts.NewEvaluator(f.rules, f.history, alerts.NewTriggerState(), nil)
	f.svc = NewAlertService(f.rules, f.history, ev, f.cache, f.notifier, nil, nil)
	return f
}

func boolPtr(b bool) *bool { return &b }

func TestAlertService_CreateRule(t *testing.T) {
	f := newAlertFixture()

	rule, err := f.svc.CreateRule(context.Background(), RuleInput{
		EntityID:  " sensor.barn_temp ",
		Name:      "Barn hot",
		Condition: "above",
		Threshold: "75",
	})
	if err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
	if rule.ID == "" || !rule.Enabled || rule.EntityID != "sensor.barn_temp" {
		t.Fatalf("unexpected rule: %+v", rule)
	}
	if rule.CreatedAt.IsZero() || !rule.CreatedAt.Equal(rule.UpdatedAt) {
		t.Fatalf("timestamps not set: %+v", rule)
	}
	if _, err := f.rules.Get(context.Background(), rule.ID); err != nil {
		t.Fatalf("rule not stored: %v", err)
	}
}

func TestAlertService_CreateRule_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   RuleInput
	}{
		{"missing entity", RuleInput{Name: "n", Condition: "above", Threshold: "1"}},
		{"missing name", RuleInput{EntityID: "sensor.a", Condition: "above", Threshold: "1"}},
		{"bad condition", RuleInput{EntityID: "sensor.a", Name: "n", Condition: "greater", Threshold: "1"}},
		{"missing threshold", RuleInput{EntityID: "sensor.a", Name: "n", Condition: "equals", Threshold: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAlertFixture()
			if _, err := f.svc.CreateRule(context.Background(), tt.in); !errors.Is(err, ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
			if len(f.rules.rules) != 0 {
				t.Fatalf("nothing should be stored on validation failure")
			}
		})
	}
}

func TestAlertService_CreateRule_NonNumericOrderedIsAccepted(t *testing.T) {
	f := newAlertFixture()
	rule, err := f.svc.CreateRule(context.Background(), RuleInput{
		EntityID: "sensor.a", Name: "typo", Condition: "above", Threshold: "7O",
	})
	if err != nil {
		t.Fatalf("non-numeric threshold must still be accepted, got %v", err)
	}
	if rule.Threshold != "7O" {
		t.Fatalf("threshold altered: %q", rule.Threshold)
	}
}

func TestAlertService_UpdateRule(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := newAlertFixture(models.AlertRule{
		ID: "r1", EntityID: "sensor.temp", Name: "hot", Condition: models.ConditionAbove,
		Threshold: "75", Enabled: true, CreatedAt: created, UpdatedAt: created,
	})
	f.cache.Replace([]models.EntityState{{EntityID: "sensor.temp", State: "80"}})

	if got, _ := f.svc.Check(context.Background()); len(got) != 1 {
		t.Fatalf("rule should fire before update")
	}

	rule, err := f.svc.UpdateRule(context.Background(), "r1", RuleInput{
		EntityID: "sensor.temp", Name: "very hot", Condition: "above", Threshold: "78",
	})
	if err != nil {
		t.Fatalf("UpdateRule: %v", err)
	}
	if rule.Name != "very hot" || !rule.Enabled || !rule.CreatedAt.Equal(created) || !rule.UpdatedAt.After(created) {
		t.Fatalf("unexpected updated rule: %+v", rule)
	}
	if got, _ := f.svc.Check(context.Background()); len(got) != 1 {
		t.Fatalf("updated rule should be re-armed and fire again")
	}

	if _, err := f.svc.UpdateRule(context.Background(), "nope", RuleInput{
		EntityID: "sensor.temp", Name: "x", Condition: "above", Threshold: "1",
	}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	rule, err = f.svc.UpdateRule(context.Background(), "r1", RuleInput{
		EntityID: "sensor.temp", Name: "very hot", Condition: "above", Threshold: "78", Enabled: boolPtr(false),
	})
	if err != nil || rule.Enabled {
		t.Fatalf("disable failed: %+v %v", rule, err)
	}
}

func TestAlertService_DeleteRuleForgetsFlag(t *testing.T) {
	f := newAlertFixture(models.AlertRule{ID: "r1", EntityID: "sensor.temp", Name: "hot",
		Condition: models.ConditionAbove, Threshold: "75", Enabled: true})
	f.cache.Replace([]models.EntityState{{EntityID: "sensor.temp", State: "80"}})

	_, _ = f.svc.Check(context.Background())
	if err := f.svc.DeleteRule(context.Background(), "r1"); err != nil {
		t.Fatalf("DeleteRule: %v", err)
	}
	if f.svc.evaluator.State().Len() != 0 {
		t.Fatalf("flag should be forgotten")
	}
	if err := f.svc.DeleteRule(context.Background(), "r1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if len(f.history.records) != 1 {
		t.Fatalf("history must survive rule deletion")
	}
}

func TestAlertService_CheckNotifiesAndResets(t *testing.T) {
	f := newAlertFixture(models.AlertRule{ID: "r1", EntityID: "alarm.front", Name: "armed",
		Condition: models.ConditionEquals, Threshold: "armed", Enabled: true})
	f.cache.Replace([]models.EntityState{{EntityID: "alarm.front", State: "armed"}})

	got, err := f.svc.Check(context.Background())
	if err != nil || len(got) != 1 {
		t.Fatalf("Check: %v %+v", err, got)
	}
	if len(f.notifier.batches) != 1 || f.notifier.batches[0][0].ID != "r1" {
		t.Fatalf("notifier not called with trigger: %+v", f.notifier.batches)
	}

	if got, _ := f.svc.Check(context.Background()); len(got) != 0 {
		t.Fatalf("second check should not fire")
	}
	if len(f.notifier.batches) != 1 {
		t.Fatalf("notifier must not be called for empty passes")
	}

	f.svc.ResetStates()
	if got, _ := f.svc.Check(context.Background()); len(got) != 1 {
		t.Fatalf("check after reset should fire")
	}
}

func TestAlertService_CheckIgnoresNotifierFailure(t *testing.T) {
	f := newAlertFixture(models.AlertRule{ID: "r1", EntityID: "sensor.temp", Name: "hot",
		Condition: models.ConditionAbove, Threshold: "75", Enabled: true})
	f.cache.Replace([]models.EntityState{{EntityID: "sensor.temp", State: "99"}})
	f.notifier.err = errors.New("broker down")

	got, err := f.svc.Check(context.Background())
	if err != nil || len(got) != 1 {
		t.Fatalf("notifier failure must not fail the pass: %v %+v", err, got)
	}
}

func TestAlertService_CheckError(t *testing.T) {
	f := newAlertFixture()
	f.rules.err = errors.New("database is locked")

	got, err := f.svc.Check(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func TestAlertService_HistoryLimit(t *testing.T) {
	f := newAlertFixture()
	tests := []struct {
		in, want int
	}{
		{0, DefaultHistoryLimit},
		{-5, DefaultHistoryLimit},
		{10, 10},
		{10_000, MaxHistoryLimit},
	}
	for _, tt := range tests {
		if _, err := f.svc.History(context.Background(), tt.in); err != nil {
			t.Fatalf("History(%d): %v", tt.in, err)
		}
		if f.history.lastLimit != tt.want {
			t.Fatalf("History(%d) used limit %d, want %d", tt.in, f.history.lastLimit, tt.want)
		}
	}
}
