package hass

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"syscall"
)

var (
	ErrNotConfigured      = errors.New("home assistant is not configured")
	ErrConnectionRefused  = errors.New("cannot connect to Home Assistant, check URL/network")
	ErrCertificate        = errors.New("SSL certificate error")
	ErrInvalidServiceCall = errors.New("invalid service call")
	ErrAuthInvalid        = errors.New("home assistant rejected the access token")
)

// StatusError is a non-2xx answer from the REST API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("home assistant returned status %d", e.Code)
	}
	return fmt.Sprintf("home assistant returned status %d: %s", e.Code, e.Body)
}

// classifyTransportError maps dial and TLS failures onto ErrCertificate or
// ErrConnectionRefused. Anything else, including context errors, is returned
// unchanged.
func classifyTransportError(err error) error {
	if err == nil {
		return nil
	}

	var (
		unknownAuthority x509.UnknownAuthorityError
		hostname         x509.HostnameError
		invalid          x509.CertificateInvalidError
		verify           *tls.CertificateVerificationError
		recordHeader     tls.RecordHeaderError
	)
	switch {
	case errors.As(err, &unknownAuthority),
		errors.As(err, &hostname),
		errors.As(err, &invalid),
		errors.As(err, &verify),
		errors.As(err, &recordHeader):
		return fmt.Errorf("%w: %v", ErrCertificate, err)
	}

	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
	)
	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.As(err, &dnsErr),
		errors.As(err, &opErr):
		return fmt.Errorf("%w: %v", ErrConnectionRefused, err)
	}
	return err
}
