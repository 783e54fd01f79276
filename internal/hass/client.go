package hass

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"stable_dashboard/internal/logger"
	"stable_dashboard/internal/models"
)

const (
	statesPath   = "/api/states"
	servicesPath = "/api/services"

	// maxBodyBytes bounds how much of a response is read into memory.
	maxBodyBytes = 16 << 20
	// maxErrorBody bounds how much of an error body is kept in StatusError.
	maxErrorBody = 512
)

var (
	identifierRe = regexp.MustCompile(`^[a-z0-9_]+$`)
	entityIDRe   = regexp.MustCompile(`^[a-z0-9_]+\.[a-z0-9_]+$`)
)

// ValidIdentifier reports whether s is a legal domain or service name.
func ValidIdentifier(s string) bool { return identifierRe.MatchString(s) }

// ValidEntityID reports whether s looks like <domain>.<object_id>.
func ValidEntityID(s string) bool { return entityIDRe.MatchString(s) }

// NewHTTPClient builds the client used for REST calls.
func NewHTTPClient(timeout time.Duration, insecureSkipVerify bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// Client talks to the Home Assistant REST API.
type Client struct {
	creds CredentialsProvider
	http  *http.Client
	log   *logger.Logger
}

func NewClient(creds CredentialsProvider, httpClient *http.Client, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(10*time.Second, false)
	}
	return &Client{creds: creds, http: httpClient, log: logger.OrNop(log).Named("hass.rest")}
}

// States fetches every entity.
func (c *Client) States(ctx context.Context) ([]models.EntityState, error) {
	body, err := c.do(ctx, http.MethodGet, statesPath, nil)
	if err != nil {
		return nil, err
	}
	var states []models.EntityState
	if err := json.Unmarshal(body, &states); err != nil {
		return nil, fmt.Errorf("decode states: %w", err)
	}
	return states, nil
}

// State fetches one entity. A missing entity yields a *StatusError with Code 404.
func (c *Client) State(ctx context.Context, entityID string) (models.EntityState, error) {
	if !ValidEntityID(entityID) {
		return models.EntityState{}, fmt.Errorf("%w: bad entity id %q", ErrInvalidServiceCall, entityID)
	}
	body, err := c.do(ctx, http.MethodGet, statesPath+"/"+url.PathEscape(entityID), nil)
	if err != nil {
		return models.EntityState{}, err
	}
	var st models.EntityState
	if err := json.Unmarshal(body, &st); err != nil {
		return models.EntityState{}, fmt.Errorf("decode state %s: %w", entityID, err)
	}
	return st, nil
}

// CallService posts payload to /api/services/{domain}/{service} and returns
// the raw response body (the list of states changed by the call).
func (c *Client) CallService(ctx context.Context, domain, service string, payload any) (json.RawMessage, error) {
	if !ValidIdentifier(domain) || !ValidIdentifier(service) {
		return nil, fmt.Errorf("%w: %q.%q", ErrInvalidServiceCall, domain, service)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := c.do(ctx, http.MethodPost, servicesPath+"/"+domain+"/"+service, payload)
	if err != nil {
		c.log.Warnw("service_call_failed", "domain", domain, "service", service, "error", err)
		return nil, err
	}
	c.log.Infow("service_called", "domain", domain, "service", service)
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("[]"), nil
	}
	return json.RawMessage(body), nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	creds, err := c.creds.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve credentials: %w", err)
	}
	if !creds.Configured() {
		return nil, ErrNotConfigured
	}

	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, creds.BaseURL()+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(creds.Token))
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: msg}
	}
	return body, nil
}
