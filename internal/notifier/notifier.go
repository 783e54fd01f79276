package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"stable_dashboard/internal/models"
)

// Notifier forwards freshly triggered alerts to an external sink.
type Notifier interface {
	Notify(ctx context.Context, alerts []models.TriggeredAlert) error
}

// alertEvent is the JSON document published for every triggered alert.
type alertEvent struct {
	AlertID     string                `json:"alert_id"`
	Name        string                `json:"name"`
	EntityID    string                `json:"entity_id"`
	Condition   models.AlertCondition `json:"condition"`
	Threshold   string                `json:"threshold"`
	StateValue  string                `json:"state_value"`
	TriggeredAt time.Time             `json:"triggered_at"`
}

func encode(a models.TriggeredAlert) ([]byte, error) {
	return json.Marshal(alertEvent{
		AlertID:     a.ID,
		Name:        a.Name,
		EntityID:    a.EntityID,
		Condition:   a.Condition,
		Threshold:   a.Threshold,
		StateValue:  a.StateValue,
		TriggeredAt: a.TriggeredAt,
	})
}

// Multi fans out to every sink and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, alerts []models.TriggeredAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, alerts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
