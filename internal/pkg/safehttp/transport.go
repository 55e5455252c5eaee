// Package safehttp builds the HTTP transports used for outbound webhook
// deliveries, where the target URL is caller-supplied.
package safehttp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// NewTransport returns the transport for delivery traffic. Unless
// allowPrivate is set, connections to loopback, private, and link-local
// addresses are refused to reduce SSRF risk from user-controlled URLs.
func NewTransport(allowPrivate bool) *http.Transport {
	if allowPrivate {
		return &http.Transport{
			DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		}
	}
	return &http.Transport{DialContext: guardedDial}
}

// guardedDial checks the resolved remote address after dialing, so DNS
// names that point at internal ranges are caught too.
func guardedDial(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
	ip := net.ParseIP(host)
	if ip == nil {
		conn.Close()
		return nil, fmt.Errorf("failed to parse remote IP for %q", addr)
	}

	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
		conn.Close()
		return nil, fmt.Errorf("access to private IP %s is denied", ip)
	}

	return conn, nil
}
