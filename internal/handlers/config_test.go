package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"stable_dashboard/internal/service"
)

func TestConfig_TokenLifecycle(t *testing.T) {
	st := &mockSettings{status: service.TokenStatus{Configured: true, HasURL: true, HasToken: true, Source: "settings"}}
	r := newTestRouter(&service.Service{Authorization: okAuth(), Settings: st})

	w := doJSON(t, r, http.MethodGet, "/api/config/token", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var ts service.TokenStatus
	_ = json.Unmarshal(w.Body.Bytes(), &ts)
	if !ts.Configured || ts.Source != "settings" {
		t.Fatalf("unexpected status: %+v", ts)
	}

	w = doJSON(t, r, http.MethodPost, "/api/config/token", `{"url":"http://ha.local:8123","token":"abc"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("save status=%d body=%s", w.Code, w.Body.String())
	}
	if st.lastURL != "http://ha.local:8123" || st.lastToken != "abc" {
		t.Fatalf("credentials not forwarded: %q %q", st.lastURL, st.lastToken)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/config/token", "")
	if w.Code != http.StatusOK || st.clearCalls != 1 {
		t.Fatalf("delete status=%d clears=%d", w.Code, st.clearCalls)
	}
}

func TestConfig_SaveValidationError(t *testing.T) {
	st := &mockSettings{err: fmt.Errorf("%w: token is required", service.ErrValidation)}
	r := newTestRouter(&service.Service{Authorization: okAuth(), Settings: st})

	w := doJSON(t, r, http.MethodPost, "/api/config/token", `{"url":"http://ha.local:8123"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestConfig_Getters(t *testing.T) {
	st := &mockSettings{
		url:   "http://ha.local:8123",
		token: "abc",
		ws:    service.WebSocketConfig{Configured: true, URL: "ws://ha.local:8123/api/websocket", Token: "abc"},
	}
	r := newTestRouter(&service.Service{Authorization: okAuth(), Settings: st})

	cases := []struct {
		path string
		key  string
		want string
	}{
		{"/api/config/ha_url", "url", "http://ha.local:8123"},
		{"/api/config/ha_token", "token", "abc"},
		{"/api/config/websocket", "url", "ws://ha.local:8123/api/websocket"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := doJSON(t, r, http.MethodGet, tc.path, "")
			if w.Code != http.StatusOK {
				t.Fatalf("status=%d", w.Code)
			}
			var m map[string]any
			_ = json.Unmarshal(w.Body.Bytes(), &m)
			if m[tc.key] != tc.want {
				t.Fatalf("%s=%v want %q", tc.key, m[tc.key], tc.want)
			}
		})
	}
}

func TestConfig_DeleteReportsConfigFallback(t *testing.T) {
	st := &mockSettings{status: service.TokenStatus{Configured: true, HasURL: true, HasToken: true, Source: "config"}}
	r := newTestRouter(&service.Service{Authorization: okAuth(), Settings: st})

	w := doJSON(t, r, http.MethodDelete, "/api/config/token", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Status     string `json:"status"`
		Configured bool   `json:"configured"`
		Source     string `json:"source"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Status != "deleted" || !out.Configured || out.Source != "config" {
		t.Fatalf("unexpected response: %+v", out)
	}
}
