package models

import "testing"

func TestEntityState_Domain(t *testing.T) {
	cases := map[string]string{
		"sensor.temp":        "sensor",
		"automation.morning": "automation",
		"nodot":              "",
		"":                   "",
	}
	for id, want := range cases {
		if got := (EntityState{EntityID: id}).Domain(); got != want {
			t.Fatalf("Domain(%q) = %q; want %q", id, got, want)
		}
	}
}

func TestEntityState_FriendlyName(t *testing.T) {
	e := EntityState{EntityID: "sensor.barn_temp", Attributes: map[string]any{"friendly_name": "Barn temperature"}}
	if got := e.FriendlyName(); got != "Barn temperature" {
		t.Fatalf("got %q", got)
	}
	e.Attributes = map[string]any{"friendly_name": 12}
	if got := e.FriendlyName(); got != "sensor.barn_temp" {
		t.Fatalf("expected entity id fallback, got %q", got)
	}
}

func TestAlertCondition_Valid(t *testing.T) {
	for _, c := range []AlertCondition{ConditionAbove, ConditionBelow, ConditionEquals, ConditionNotEquals} {
		if !c.Valid() {
			t.Fatalf("%q should be valid", c)
		}
	}
	for _, c := range []AlertCondition{"", "gt", "ABOVE", "greater"} {
		if c.Valid() {
			t.Fatalf("%q should be invalid", c)
		}
	}
}
