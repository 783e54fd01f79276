package hass

import (
	"context"
	"strings"
)

// Credentials address one Home Assistant instance.
type Credentials struct {
	URL   string
	Token string
}

// Configured reports whether both URL and token are set.
func (c Credentials) Configured() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.Token) != ""
}

// BaseURL returns the URL without trailing slashes.
func (c Credentials) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.URL), "/")
}

// CredentialsProvider resolves the current credentials on every call, so a
// change made through the settings API takes effect on the next request.
type CredentialsProvider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// StaticCredentials is a fixed CredentialsProvider.
type StaticCredentials Credentials

func (s StaticCredentials) Credentials(context.Context) (Credentials, error) {
	return Credentials(s), nil
}
