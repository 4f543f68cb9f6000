// Package transport provides the connection layer underneath the
// control-API client: plain TCP to a local daemon, or a connection
// forwarded through an SSH gateway to a daemon on another host.
package transport

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Dialer opens outbound network connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}

// HTTPClient returns an http.Client whose connections are opened by d.
// Keep-alives are disabled: every control call is independent.
// Redirects are never followed; a 3xx is returned to the caller as is,
// so only the daemon itself can acknowledge a call and the X-Key never
// leaves for another host.
func HTTPClient(d Dialer, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:       timeout,
		CheckRedirect: noRedirect,
		Transport: &http.Transport{
			Proxy:             nil,
			DialContext:       d.Dial,
			DisableKeepAlives: true,
		},
	}
}

func noRedirect(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
