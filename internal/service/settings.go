package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"stable_dashboard/internal/hass"
	"stable_dashboard/internal/logger"
	"stable_dashboard/internal/models"
	"stable_dashboard/internal/repository"
)

const (
	sourceSettings = "settings"
	sourceConfig   = "config"
)

// CredentialStore resolves controller credentials: values stored through the
// settings API win over the ones from the config file.
type CredentialStore struct {
	repo     repository.SettingsRepo
	fallback hass.Credentials
}

var _ hass.CredentialsProvider = (*CredentialStore)(nil)

func NewCredentialStore(repo repository.SettingsRepo, fallback hass.Credentials) *CredentialStore {
	return &CredentialStore{repo: repo, fallback: fallback}
}

func (s *CredentialStore) Credentials(ctx context.Context) (hass.Credentials, error) {
	creds, _, err := s.resolve(ctx)
	return creds, err
}

// resolve returns the effective credentials and where the token came from.
func (s *CredentialStore) resolve(ctx context.Context) (hass.Credentials, string, error) {
	creds := s.fallback
	source := ""
	if strings.TrimSpace(creds.Token) != "" {
		source = sourceConfig
	}

	u, ok, err := s.repo.Get(ctx, models.SettingHAURL)
	if err != nil {
		return hass.Credentials{}, "", fmt.Errorf("load %s: %w", models.SettingHAURL, err)
	}
	if ok && u != "" {
		creds.URL = u
	}
	tok, ok, err := s.repo.Get(ctx, models.SettingHAToken)
	if err != nil {
		return hass.Credentials{}, "", fmt.Errorf("load %s: %w", models.SettingHAToken, err)
	}
	if ok && tok != "" {
		creds.Token = tok
		source = sourceSettings
	}
	return creds, source, nil
}

func (s *CredentialStore) save(ctx context.Context, creds hass.Credentials) error {
	if err := s.repo.Set(ctx, models.SettingHAURL, creds.URL); err != nil {
		return err
	}
	return s.repo.Set(ctx, models.SettingHAToken, creds.Token)
}

func (s *CredentialStore) clear(ctx context.Context) error {
	return s.repo.Delete(ctx, models.SettingHAURL, models.SettingHAToken)
}

// linkControl is the part of Controller that SettingsService drives.
type linkControl interface {
	Connect(ctx context.Context) error
	Disconnect() error
}

type SettingsService struct {
	store *CredentialStore
	link  linkControl
	cache EntityCache
	log   *logger.Logger
}

func NewSettingsService(store *CredentialStore, link linkControl, cache EntityCache, log *logger.Logger) *SettingsService {
	return &SettingsService{store: store, link: link, cache: cache, log: logger.OrNop(log).Named("settings")}
}

func (s *SettingsService) TokenStatus(ctx context.Context) (TokenStatus, error) {
	creds, source, err := s.store.resolve(ctx)
	if err != nil {
		return TokenStatus{}, err
	}
	return TokenStatus{
		Configured: creds.Configured(),
		HasURL:     strings.TrimSpace(creds.URL) != "",
		HasToken:   strings.TrimSpace(creds.Token) != "",
		Source:     source,
	}, nil
}

// SaveCredentials validates and stores URL and token, then reconnects. A
// failed reconnect is reported through the connection status, not here.
func (s *SettingsService) SaveCredentials(ctx context.Context, rawURL, token string) error {
	base, err := normalizeBaseURL(rawURL)
	if err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrValidation)
	}

	if err := s.store.save(ctx, hass.Credentials{URL: base, Token: token}); err != nil {
		return err
	}
	s.log.Infow("credentials_saved", "url", base)

	if err := s.link.Disconnect(); err != nil {
		s.log.Warnw("disconnect_failed", "error", err)
	}
	if err := s.link.Connect(ctx); err != nil {
		s.log.Warnw("reconnect_failed", "error", err)
	}
	return nil
}

// ClearCredentials removes stored credentials, drops the live connection and
// empties the cache.
func (s *SettingsService) ClearCredentials(ctx context.Context) error {
	if err := s.store.clear(ctx); err != nil {
		return err
	}
	if err := s.link.Disconnect(); err != nil {
		s.log.Warnw("disconnect_failed", "error", err)
	}
	s.cache.Clear()
	s.log.Infow("credentials_cleared")
	return nil
}

func (s *SettingsService) URL(ctx context.Context) (string, error) {
	creds, err := s.store.Credentials(ctx)
	if err != nil {
		return "", err
	}
	return creds.BaseURL(), nil
}

func (s *SettingsService) Token(ctx context.Context) (string, error) {
	creds, err := s.store.Credentials(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(creds.Token), nil
}

func (s *SettingsService) WebSocketConfig(ctx context.Context) (WebSocketConfig, error) {
	creds, err := s.store.Credentials(ctx)
	if err != nil {
		return WebSocketConfig{}, err
	}
	if !creds.Configured() {
		return WebSocketConfig{}, nil
	}
	wsURL, err := hass.WebSocketURL(creds.BaseURL())
	if err != nil {
		return WebSocketConfig{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return WebSocketConfig{Configured: true, URL: wsURL, Token: strings.TrimSpace(creds.Token)}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", fmt.Errorf("%w: url is required", ErrValidation)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: url must be an absolute http or https URL", ErrValidation)
	}
	return raw, nil
}
