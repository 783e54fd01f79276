package service

// RuleInput is the writable part of an alert rule.
type RuleInput struct {
	EntityID  string
	Name      string
	Condition string
	Threshold string
	Enabled   *bool // nil keeps the current value, or true on create
}

// TokenStatus reports whether controller credentials are available and where
// they come from ("settings", "config" or "").
type TokenStatus struct {
	Configured bool   `json:"configured"`
	HasURL     bool   `json:"has_url"`
	HasToken   bool   `json:"has_token"`
	Source     string `json:"source,omitempty"`
}

// WebSocketConfig is what a browser needs to talk to Home Assistant directly.
type WebSocketConfig struct {
	Configured bool   `json:"configured"`
	URL        string `json:"url,omitempty"`
	Token      string `json:"token,omitempty"`
}
