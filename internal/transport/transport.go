// Package transport provides the HTTP round tripper used for Storefront API calls.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// =============================================================================
// BROWSER TLS FINGERPRINT TRANSPORT
// =============================================================================
//
// The Storefront API sits behind a CDN that treats Go's default TLS ClientHello
// as a bot and throttles it harder than browser traffic. This transport dials
// TLS with a uTLS browser fingerprint and lets ALPN pick the protocol:
//
//   - h2 negotiated       → golang.org/x/net/http2 framing
//   - http/1.1 negotiated → net/http Transport; the host is remembered as h1-only
//   - plain http:// URLs  → net/http Transport directly (local stores, tests)
//
// Only an http/1.1 ALPN result moves a host to the h1 path. Any other h2 failure
// (timeouts, cancellation, resets) is returned as-is: the request may already have
// reached the server, and replaying a cart mutation would apply it twice.
//
// =============================================================================

// Options configures the transport. Zero values fall back to defaults.
type Options struct {
	DialTimeout     time.Duration
	IdleConnTimeout time.Duration
	// Fingerprint is the ClientHello to mimic. Defaults to utls.HelloChrome_Auto.
	Fingerprint *utls.ClientHelloID
}

// errNotH2 is returned by the h2 dialer when the server picked a protocol other than h2.
var errNotH2 = errors.New("server did not negotiate h2")

const (
	defaultDialTimeout     = 10 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
)

// New creates an http.RoundTripper presenting a browser TLS fingerprint.
func New(opts Options) http.RoundTripper {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.IdleConnTimeout <= 0 {
		opts.IdleConnTimeout = defaultIdleConnTimeout
	}
	hello := utls.HelloChrome_Auto
	if opts.Fingerprint != nil {
		hello = *opts.Fingerprint
	}

	dialer := &net.Dialer{Timeout: opts.DialTimeout}
	dialTLS := func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, _, err := dialFingerprinted(ctx, dialer, hello, network, addr)
		return conn, err
	}

	return &fingerprintTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				conn, proto, err := dialFingerprinted(ctx, dialer, hello, network, addr)
				if err != nil {
					return nil, err
				}
				if proto != http2.NextProtoTLS {
					conn.Close()
					return nil, fmt.Errorf("%w: alpn %q", errNotH2, proto)
				}
				return conn, nil
			},
			IdleConnTimeout: opts.IdleConnTimeout,
		},
		h1: &http.Transport{
			DialContext:       dialer.DialContext,
			DialTLSContext:    dialTLS,
			IdleConnTimeout:   opts.IdleConnTimeout,
			ForceAttemptHTTP2: false,
		},
	}
}

// NewChromeTransport is New with defaults and the given dial timeout.
func NewChromeTransport(timeout time.Duration) http.RoundTripper {
	return New(Options{DialTimeout: timeout})
}

type fingerprintTransport struct {
	h2 http.RoundTripper
	h1 http.RoundTripper

	// h1Hosts holds hosts that negotiated http/1.1; they skip the h2 attempt.
	h1Hosts sync.Map
}

// RoundTrip implements http.RoundTripper.
func (t *fingerprintTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}
	if _, ok := t.h1Hosts.Load(req.URL.Host); ok {
		return t.h1.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil || !errors.Is(err, errNotH2) {
		return resp, err
	}

	// The handshake ended before any request bytes were sent, so the replay is safe.
	retry, rerr := rewind(req)
	if rerr != nil {
		return nil, err
	}
	t.h1Hosts.Store(req.URL.Host, struct{}{})
	return t.h1.RoundTrip(retry)
}

// CloseIdleConnections closes idle connections on both protocol transports.
func (t *fingerprintTransport) CloseIdleConnections() {
	type idleCloser interface{ CloseIdleConnections() }
	for _, rt := range []http.RoundTripper{t.h2, t.h1} {
		if c, ok := rt.(idleCloser); ok {
			c.CloseIdleConnections()
		}
	}
}

// rewind returns a copy of req with a fresh body, since the failed h2 attempt may have read it.
func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

// dialFingerprinted establishes a TLS connection using the given ClientHello
// and reports the ALPN protocol the server selected.
func dialFingerprinted(ctx context.Context, dialer *net.Dialer, hello utls.ClientHelloID, network, addr string) (net.Conn, string, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, "", fmt.Errorf("dial: %w", err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, hello)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, "", fmt.Errorf("tls handshake: %w", err)
	}
	return tlsConn, tlsConn.ConnectionState().NegotiatedProtocol, nil
}
