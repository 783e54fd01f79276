package hass

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"stable_dashboard/internal/models"
)

// Cache is the in-memory entity_id -> EntityState map. It is only ever
// replaced wholesale.
type Cache struct {
	mu        sync.RWMutex
	states    map[string]models.EntityState
	updatedAt time.Time
	now       func() time.Time
}

func NewCache() *Cache {
	return &Cache{states: map[string]models.EntityState{}, now: time.Now}
}

// Replace swaps in the states from a REST listing.
func (c *Cache) Replace(list []models.EntityState) {
	m := make(map[string]models.EntityState, len(list))
	for _, st := range list {
		if st.EntityID == "" {
			continue
		}
		m[st.EntityID] = st
	}
	c.ReplaceMap(m)
}

// ReplaceMap swaps in m. The cache takes ownership of m.
func (c *Cache) ReplaceMap(m map[string]models.EntityState) {
	if m == nil {
		m = map[string]models.EntityState{}
	}
	c.mu.Lock()
	c.states = m
	c.updatedAt = c.now()
	c.mu.Unlock()
}

// Clear drops every entity.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.states = map[string]models.EntityState{}
	c.updatedAt = time.Time{}
	c.mu.Unlock()
}

// Get returns a copy of one entity.
func (c *Cache) Get(entityID string) (models.EntityState, bool) {
	c.mu.RLock()
	st, ok := c.states[entityID]
	c.mu.RUnlock()
	if !ok {
		return models.EntityState{}, false
	}
	st.Attributes = maps.Clone(st.Attributes)
	return st, true
}

// List returns copies of all entities sorted by entity id, optionally
// restricted to one domain.
func (c *Cache) List(domain string) []models.EntityState {
	c.mu.RLock()
	out := make([]models.EntityState, 0, len(c.states))
	for _, st := range c.states {
		if domain != "" && st.Domain() != domain {
			continue
		}
		st.Attributes = maps.Clone(st.Attributes)
		out = append(out, st)
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b models.EntityState) int {
		return strings.Compare(a.EntityID, b.EntityID)
	})
	return out
}

// Snapshot returns a shallow copy of the map. Attribute maps are shared with
// the cache and must be treated as read-only.
func (c *Cache) Snapshot() map[string]models.EntityState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.states)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.states)
}

// UpdatedAt is the time of the last replacement, zero if never filled.
func (c *Cache) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}
