package models

import (
	"strings"
	"time"
)

// EntityState is the last known condition of one Home Assistant entity.
type EntityState struct {
	EntityID    string         `json:"entity_id"` // <domain>.<object>
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastUpdated time.Time      `json:"last_updated"`
}

// Domain returns the part of the entity id before the first dot.
func (e EntityState) Domain() string {
	domain, _, ok := strings.Cut(e.EntityID, ".")
	if !ok {
		return ""
	}
	return domain
}

// FriendlyName returns attributes.friendly_name, or the entity id.
func (e EntityState) FriendlyName() string {
	if name, ok := e.Attributes["friendly_name"].(string); ok && name != "" {
		return name
	}
	return e.EntityID
}
