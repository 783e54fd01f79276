package models

import "time"

// AlertCondition is the comparison applied between an entity state and a threshold.
type AlertCondition string

const (
	ConditionAbove     AlertCondition = "above"
	ConditionBelow     AlertCondition = "below"
	ConditionEquals    AlertCondition = "equals"
	ConditionNotEquals AlertCondition = "not_equals"
)

// Valid reports whether c is one of the four supported conditions.
func (c AlertCondition) Valid() bool {
	switch c {
	case ConditionAbove, ConditionBelow, ConditionEquals, ConditionNotEquals:
		return true
	}
	return false
}

// Ordered reports whether the condition needs numeric operands.
func (c AlertCondition) Ordered() bool {
	return c == ConditionAbove || c == ConditionBelow
}

// AlertRule is a user-defined condition on one entity.
type AlertRule struct {
	ID        string         `json:"id"`
	EntityID  string         `json:"entity_id"`
	Name      string         `json:"name"`
	Condition AlertCondition `json:"condition"`
	Threshold string         `json:"threshold"`
	Enabled   bool           `json:"enabled"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// AlertHistoryRecord is written once per edge-trigger and never changed.
type AlertHistoryRecord struct {
	ID          string    `json:"id"`
	AlertID     string    `json:"alert_id"`
	AlertName   string    `json:"alert_name,omitempty"` // filled on read, from the rule if it still exists
	EntityID    string    `json:"entity_id"`
	StateValue  string    `json:"state_value"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// TriggeredAlert is a rule that transitioned to triggered during one evaluation pass.
type TriggeredAlert struct {
	AlertRule
	StateValue  string    `json:"state_value"`
	TriggeredAt time.Time `json:"triggered_at"`
}
