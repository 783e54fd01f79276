package hass

import (
	"testing"
	"time"

	"stable_dashboard/internal/models"
)

func TestCache_ReplaceIsWholesale(t *testing.T) {
	c := NewCache()
	c.Replace([]models.EntityState{
		{EntityID: "sensor.a", State: "1"},
		{EntityID: "sensor.b", State: "2"},
	})
	c.Replace([]models.EntityState{{EntityID: "sensor.c", State: "3"}})

	if c.Len() != 1 {
		t.Fatalf("want 1 entity after replace, got %d", c.Len())
	}
	if _, ok := c.Get("sensor.a"); ok {
		t.Fatalf("sensor.a should be gone")
	}
	if c.UpdatedAt().IsZero() {
		t.Fatalf("UpdatedAt not set")
	}
}

func TestCache_GetReturnsCopy(t *testing.T) {
	c := NewCache()
	c.Replace([]models.EntityState{{EntityID: "sensor.a", State: "1", Attributes: map[string]any{"unit": "°C"}}})

	st, _ := c.Get("sensor.a")
	st.Attributes["unit"] = "K"
	st.State = "changed"

	again, _ := c.Get("sensor.a")
	if again.State != "1" || again.Attributes["unit"] != "°C" {
		t.Fatalf("cache mutated through copy: %+v", again)
	}
}

func TestCache_ListSortedAndFiltered(t *testing.T) {
	c := NewCache()
	c.Replace([]models.EntityState{
		{EntityID: "sensor.z"},
		{EntityID: "automation.feed"},
		{EntityID: "sensor.a"},
		{EntityID: ""},
	})

	all := c.List("")
	if len(all) != 3 || all[0].EntityID != "automation.feed" || all[2].EntityID != "sensor.z" {
		t.Fatalf("unexpected list: %+v", all)
	}
	autos := c.List("automation")
	if len(autos) != 1 || autos[0].EntityID != "automation.feed" {
		t.Fatalf("unexpected automation list: %+v", autos)
	}
}

func TestCache_SnapshotIsIndependentMap(t *testing.T) {
	c := NewCache()
	c.now = func() time.Time { return time.Unix(100, 0) }
	c.ReplaceMap(map[string]models.EntityState{"sensor.a": {EntityID: "sensor.a", State: "1"}})

	snap := c.Snapshot()
	delete(snap, "sensor.a")
	if c.Len() != 1 {
		t.Fatalf("deleting from snapshot changed the cache")
	}
	if !c.UpdatedAt().Equal(time.Unix(100, 0)) {
		t.Fatalf("unexpected UpdatedAt %v", c.UpdatedAt())
	}

	c.Clear()
	if c.Len() != 0 || !c.UpdatedAt().IsZero() {
		t.Fatalf("Clear did not reset cache")
	}
}
