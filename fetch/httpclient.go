package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// IPVersion is used to specify which IP version to use
type IPVersion int

const (
	// IPAny allows connections over either IPv4 or IPv6
	IPAny IPVersion = iota
	// IPv4Only forces connections over IPv4 only
	IPv4Only
	// IPv6Only forces connections over IPv6 only
	IPv6Only
)

func (v IPVersion) String() string {
	switch v {
	case IPv4Only:
		return "v4"
	case IPv6Only:
		return "v6"
	default:
		return "any"
	}
}

// ParseIPVersion accepts "any", "v4"/"4"/"ipv4" and "v6"/"6"/"ipv6".
func ParseIPVersion(s string) (IPVersion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return IPAny, nil
	case "4", "v4", "ipv4":
		return IPv4Only, nil
	case "6", "v6", "ipv6":
		return IPv6Only, nil
	}
	return IPAny, fmt.Errorf("unknown ip version %q", s)
}

type ipVersionContextKey struct{}

// NewIPVersionContext creates a new context with IP version preference
func NewIPVersionContext(ctx context.Context, version IPVersion) context.Context {
	return context.WithValue(ctx, ipVersionContextKey{}, version)
}

func getIPVersionFromContext(ctx context.Context) IPVersion {
	if value := ctx.Value(ipVersionContextKey{}); value != nil {
		if version, ok := value.(IPVersion); ok {
			return version
		}
	}
	return IPAny
}

// NewClient returns an HTTP client that dials with the IP version set in
// the request context and traces requests with otelhttp.
func NewClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		switch getIPVersionFromContext(ctx) {
		case IPv4Only:
			network = "tcp4"
		case IPv6Only:
			network = "tcp6"
		}

		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}
		return dialer.DialContext(ctx, network, addr)
	}

	return &http.Client{
		Transport: otelhttp.NewTransport(transport),
		Timeout:   60 * time.Second,
	}
}
