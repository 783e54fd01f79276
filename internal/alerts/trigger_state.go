package alerts

import (
	"maps"
	"sync"
)

// TriggerState remembers, per rule id, whether the rule was triggered on the
// previous evaluation. It lives only in memory.
type TriggerState struct {
	mu    sync.Mutex
	flags map[string]bool
}

func NewTriggerState() *TriggerState {
	return &TriggerState{flags: make(map[string]bool)}
}

// Was reports the stored flag for one rule. Unknown rules are not triggered.
func (s *TriggerState) Was(ruleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[ruleID]
}

// Snapshot returns a copy of all flags.
func (s *TriggerState) Snapshot() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.flags)
}

// Merge overwrites the flags named in next and leaves the rest alone.
func (s *TriggerState) Merge(next map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.flags, next)
}

// Forget drops the flag for one rule.
func (s *TriggerState) Forget(ruleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flags, ruleID)
}

// Clear drops every flag, so all rules whose condition still holds fire
// again on the next evaluation.
func (s *TriggerState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.flags)
}

func (s *TriggerState) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flags)
}
