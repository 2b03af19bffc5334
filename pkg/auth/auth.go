// Package auth applies credentials to outgoing release downloads.
package auth

import (
	"net"
	"net/http"
	"os"
	"slices"
	"strings"
)

// TokenEnv is consulted when no token is configured.
const TokenEnv = "GITHUB_TOKEN"

// GitHubHosts receive the token without further configuration.
var GitHubHosts = []string{
	"github.com",
	"api.github.com",
	"objects.githubusercontent.com",
	"release-assets.githubusercontent.com",
}

// Authenticator defines the interface for applying authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request) error
	Type() Type
}

// Type represents the type of authentication.
type Type string

// Authentication types.
const (
	BearerAuthType Type = "bearer"
)

// BearerAuth represents Bearer token authentication. The token is only sent
// to the listed hosts; requests to any other host go out unauthenticated.
type BearerAuth struct {
	Token string
	Hosts []string
}

// Apply adds a Bearer token to the Authorization header when the request
// targets one of b.Hosts.
func (b BearerAuth) Apply(req *http.Request) error {
	if req.URL == nil || !b.Matches(req.URL.Hostname()) {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// Matches reports whether host is allowed to receive the token. Ports are
// ignored and the comparison is case-insensitive.
func (b BearerAuth) Matches(host string) bool {
	host = hostOnly(host)
	return host != "" && slices.ContainsFunc(b.Hosts, func(h string) bool {
		return hostOnly(h) == host
	})
}

// Type returns BearerAuthType.
func (b BearerAuth) Type() Type { return BearerAuthType }

// FromToken returns a bearer authenticator for token, falling back to the
// TokenEnv environment variable. The token is scoped to GitHubHosts plus
// extraHosts. It returns nil when no token is set.
func FromToken(token string, extraHosts ...string) Authenticator {
	if token == "" {
		token = os.Getenv(TokenEnv)
	}
	if token == "" {
		return nil
	}
	hosts := slices.Clone(GitHubHosts)
	for _, h := range extraHosts {
		if h = hostOnly(strings.TrimSpace(h)); h != "" && !slices.Contains(hosts, h) {
			hosts = append(hosts, h)
		}
	}
	return BearerAuth{Token: token, Hosts: hosts}
}

// hostOnly strips a port from h.
func hostOnly(h string) string {
	if host, _, err := net.SplitHostPort(h); err == nil {
		h = host
	}
	return strings.ToLower(strings.Trim(h, "[]"))
}
