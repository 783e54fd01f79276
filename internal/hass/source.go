package hass

import (
	"context"

	"stable_dashboard/internal/models"
)

// Mode names how the cache is currently being fed.
type Mode string

const (
	ModeNone      Mode = ""
	ModeStreaming Mode = "streaming"
	ModePolling   Mode = "polling"
)

// Subscription is an open feed into the cache.
type Subscription interface {
	Close() error
}

// Source fills the cache either once (polling) or continuously (streaming).
// onDone is invoked when a continuous feed ends on its own.
type Source interface {
	Open(ctx context.Context, onDone func(error)) (Subscription, error)
	Mode() Mode
}

// StatesFetcher is the part of Client used for polling.
type StatesFetcher interface {
	States(ctx context.Context) ([]models.EntityState, error)
}

type noopSubscription struct{}

func (noopSubscription) Close() error { return nil }

// PollingSource does one GET /api/states and replaces the cache.
type PollingSource struct {
	fetcher StatesFetcher
	cache   *Cache
}

func NewPollingSource(fetcher StatesFetcher, cache *Cache) *PollingSource {
	return &PollingSource{fetcher: fetcher, cache: cache}
}

func (p *PollingSource) Mode() Mode { return ModePolling }

func (p *PollingSource) Open(ctx context.Context, _ func(error)) (Subscription, error) {
	list, err := p.fetcher.States(ctx)
	if err != nil {
		return nil, err
	}
	p.cache.Replace(list)
	return noopSubscription{}, nil
}

// StreamOpener is the part of StreamDialer used by StreamingSource.
type StreamOpener interface {
	Dial(ctx context.Context, creds Credentials, onSnapshot SnapshotFunc, onClose func(error)) (*Stream, error)
}

// StreamingSource keeps the cache in sync over the websocket API.
type StreamingSource struct {
	dialer StreamOpener
	creds  CredentialsProvider
	cache  *Cache
}

func NewStreamingSource(dialer StreamOpener, creds CredentialsProvider, cache *Cache) *StreamingSource {
	return &StreamingSource{dialer: dialer, creds: creds, cache: cache}
}

func (s *StreamingSource) Mode() Mode { return ModeStreaming }

func (s *StreamingSource) Open(ctx context.Context, onDone func(error)) (Subscription, error) {
	creds, err := s.creds.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	if !creds.Configured() {
		return nil, ErrNotConfigured
	}
	stream, err := s.dialer.Dial(ctx, creds, s.cache.ReplaceMap, onDone)
	if err != nil {
		return nil, err
	}
	return stream, nil
}
