package hass

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testToken = "llat-test"

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(StaticCredentials{URL: srv.URL + "/", Token: testToken}, NewHTTPClient(2*time.Second, false), nil)
	return c, srv
}

func TestClient_States(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/states" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer "+testToken {
			t.Errorf("unexpected auth header %q", got)
		}
		_, _ = io.WriteString(w, `[
			{"entity_id":"sensor.barn_temp","state":"21.5","attributes":{"unit_of_measurement":"°C"},"last_updated":"2026-04-01T10:00:00+00:00"},
			{"entity_id":"alarm.front","state":"armed","attributes":{}}
		]`)
	})

	states, err := c.States(context.Background())
	if err != nil {
		t.Fatalf("States: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("want 2 states, got %d", len(states))
	}
	if states[0].EntityID != "sensor.barn_temp" || states[0].State != "21.5" {
		t.Fatalf("unexpected first state: %+v", states[0])
	}
	if states[0].LastUpdated.IsZero() {
		t.Fatalf("last_updated not decoded")
	}
}

func TestClient_State_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/states/sensor.missing" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Entity not found."}`)
	})

	_, err := c.State(context.Background(), "sensor.missing")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("want 404 StatusError, got %v", err)
	}
}

func TestClient_CallService(t *testing.T) {
	var gotBody map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/services/light/turn_on" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("missing json content type")
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `[{"entity_id":"light.stall_3","state":"on","attributes":{}}]`)
	})

	raw, err := c.CallService(context.Background(), "light", "turn_on", map[string]any{"entity_id": "light.stall_3"})
	if err != nil {
		t.Fatalf("CallService: %v", err)
	}
	if gotBody["entity_id"] != "light.stall_3" {
		t.Fatalf("payload not forwarded: %v", gotBody)
	}
	var changed []map[string]any
	if err := json.Unmarshal(raw, &changed); err != nil || len(changed) != 1 {
		t.Fatalf("unexpected response %s (%v)", raw, err)
	}
}

func TestClient_CallService_Errors(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "bad service data")
	})

	tests := []struct {
		name    string
		domain  string
		service string
		check   func(error) bool
	}{
		{"empty domain", "", "turn_on", func(err error) bool { return errors.Is(err, ErrInvalidServiceCall) }},
		{"bad service", "light", "turn on", func(err error) bool { return errors.Is(err, ErrInvalidServiceCall) }},
		{"non-2xx", "light", "turn_on", func(err error) bool {
			var se *StatusError
			return errors.As(err, &se) && se.Code == http.StatusBadRequest && se.Body == "bad service data"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CallService(context.Background(), tt.domain, tt.service, nil)
			if !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(StaticCredentials{URL: "http://ha.local:8123"}, nil, nil)
	if _, err := c.States(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
	if _, err := c.CallService(context.Background(), "light", "turn_on", nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(StaticCredentials{URL: url, Token: testToken}, NewHTTPClient(2*time.Second, false), nil)
	if _, err := c.States(context.Background()); !errors.Is(err, ErrConnectionRefused) {
		t.Fatalf("want ErrConnectionRefused, got %v", err)
	}
}

func TestClient_Certificate(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	strict := NewClient(StaticCredentials{URL: srv.URL, Token: testToken}, NewHTTPClient(2*time.Second, false), nil)
	if _, err := strict.States(context.Background()); !errors.Is(err, ErrCertificate) {
		t.Fatalf("want ErrCertificate, got %v", err)
	}

	lax := NewClient(StaticCredentials{URL: srv.URL, Token: testToken}, NewHTTPClient(2*time.Second, true), nil)
	if _, err := lax.States(context.Background()); err != nil {
		t.Fatalf("insecure client: %v", err)
	}
}

func TestValidIdentifier(t *testing.T) {
	tests := map[string]bool{
		"light":        true,
		"turn_on":      true,
		"input_number": true,
		"":             false,
		"Light":        false,
		"light/../x":   false,
		"a.b":          false,
	}
	for in, want := range tests {
		if got := ValidIdentifier(in); got != want {
			t.Fatalf("ValidIdentifier(%q) = %v, want %v", in, got, want)
		}
	}
}
