package util

import (
	"net"
	"net/url"
)

// FormatAddr returns "host:port", bracketing IPv6 literals.
func FormatAddr(host, port string) string {
	return net.JoinHostPort(host, port)
}

// ControlURL builds the http URL of a control-API path on host:port.
func ControlURL(host, port, path string) string {
	u := url.URL{Scheme: "http", Host: FormatAddr(host, port), Path: path}
	return u.String()
}

// IsLoopback reports whether host names the local machine.
func IsLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
