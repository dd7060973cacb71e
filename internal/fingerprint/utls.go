// Package fingerprint builds HTTP transports whose TLS ClientHello matches a
// real browser. Contact pages behind bot walls reject the default Go
// handshake long before any header checks run.
package fingerprint

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"

	utls "github.com/refraction-networking/utls"
)

// Profile names a TLS ClientHello shape.
type Profile string

const (
	ProfileChrome  Profile = "chrome"
	ProfileFirefox Profile = "firefox"
	ProfileSafari  Profile = "safari"
	ProfileGo      Profile = "go"     // stock crypto/tls handshake
	ProfileRandom  Profile = "random" // randomized uTLS hello
)

// helloID maps a profile onto its uTLS ClientHello.
func helloID(p Profile) (utls.ClientHelloID, error) {
	switch p {
	case ProfileChrome:
		return utls.HelloChrome_Auto, nil
	case ProfileFirefox:
		return utls.HelloFirefox_Auto, nil
	case ProfileSafari:
		return utls.HelloIOS_Auto, nil
	case ProfileRandom:
		return utls.HelloRandomizedALPN, nil
	default:
		return utls.ClientHelloID{}, fmt.Errorf("unknown fingerprint profile %q", p)
	}
}

// Transport returns an http.RoundTripper whose TLS handshake matches the
// given profile. ProfileGo keeps the standard library handshake. proxyFunc,
// when non-nil, becomes the transport's proxy selector.
func Transport(p Profile, proxyFunc func(*http.Request) (*url.URL, error)) (http.RoundTripper, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyFunc != nil {
		transport.Proxy = proxyFunc
	}

	if p == ProfileGo {
		return transport, nil
	}

	hello, err := helloID(p)
	if err != nil {
		return nil, err
	}

	// Dial plain TCP first, then run the uTLS handshake over it. Only HTTPS
	// requests route through DialTLSContext; plain HTTP is untouched.
	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		tcpConn, err := transport.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}

		uConn := utls.UClient(tcpConn, &utls.Config{ServerName: host}, hello)
		if err := uConn.HandshakeContext(ctx); err != nil {
			_ = tcpConn.Close()
			return nil, fmt.Errorf("utls handshake failed: %w", err)
		}

		return uConn, nil
	}

	return transport, nil
}
