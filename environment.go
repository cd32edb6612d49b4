package positions

import (
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"slices"
	"strings"
)

const (
	// DefaultRemoteBase is the remote backend every request targets outside development
	DefaultRemoteBase = "https://nestjs-amparado-ace-1.onrender.com"

	// DefaultDevPort is the port the local development server listens on
	DefaultDevPort = "3000"
)

// Environment is a snapshot of where the client is running.
// The zero value describes server-side execution (no page, no browser).
type Environment struct {
	// Browser reports whether the client runs behind a page with a host and port
	Browser bool

	// Scheme of the page, "http" when empty
	Scheme string

	// Hostname of the page without the port
	Hostname string

	// Port of the page, empty when the scheme default is used
	Port string
}

// EnvironmentFromURL builds a browser environment from the URL of the running page.
func EnvironmentFromURL(pageURL string) (Environment, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Environment{}, fmt.Errorf("failed to parse page URL '%s': %w", pageURL, err)
	}
	if u.Hostname() == "" {
		return Environment{}, fmt.Errorf("page URL '%s' has no host", pageURL)
	}

	return Environment{
		Browser:  true,
		Scheme:   u.Scheme,
		Hostname: u.Hostname(),
		Port:     u.Port(),
	}, nil
}

// Origin returns scheme://host[:port] of the page, or "" outside a browser.
func (e Environment) Origin() string {
	if !e.Browser || e.Hostname == "" {
		return ""
	}

	scheme := e.Scheme
	if scheme == "" {
		scheme = "http"
	}

	host := e.Hostname
	if e.Port != "" {
		host = net.JoinHostPort(e.Hostname, e.Port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	return scheme + "://" + host
}

// Resolver decides whether requests go straight to the remote backend
// or through the same-origin proxy route.
type Resolver struct {
	// RemoteBase is the absolute URL of the remote backend
	RemoteBase string

	// DevPort marks any page served from this port as development
	DevPort string

	// DevHosts are extra hostnames treated as development
	DevHosts []string
}

// DefaultResolver returns a resolver for the production backend.
func DefaultResolver() Resolver {
	return Resolver{
		RemoteBase: DefaultRemoteBase,
		DevPort:    DefaultDevPort,
	}
}

// Resolve returns the base URL for env. An empty result means proxy mode.
func (r Resolver) Resolve(env Environment) string {
	if !env.Browser {
		return r.RemoteBase
	}

	if r.isDevelopment(env) {
		return ""
	}

	return r.RemoteBase
}

func (r Resolver) isDevelopment(env Environment) bool {
	if r.DevPort != "" && env.Port == r.DevPort {
		return true
	}

	host := strings.ToLower(strings.Trim(env.Hostname, "[]"))
	if host == "localhost" || slices.Contains(r.DevHosts, host) {
		return true
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	return addr.IsLoopback() || addr.IsPrivate()
}
