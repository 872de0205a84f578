// Package router decides whether a request belongs to the admin panel or the
// public site.
package router

import (
	"net"
	"strings"

	"agency-cms/internal/config"
)

type App string

const (
	AppPublic App = "public"
	AppAdmin  App = "admin"
)

const (
	// AdminHostPrefix marks admin subdomains such as admin.example.com.
	AdminHostPrefix = "admin."
	// AdminPath is the path segment the admin panel mounts under in development.
	AdminPath = "/admin"
)

var devHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"0.0.0.0":   true,
	"::1":       true,
}

// Env holds the inputs that are not part of the request.
type Env struct {
	AdminHost       string
	DevMode         bool
	DevHostSuffixes []string
}

// EnvFromConfig builds an Env from site configuration.
func EnvFromConfig(site config.SiteConfig) Env {
	return Env{
		AdminHost:       site.AdminHost,
		DevMode:         site.DevMode,
		DevHostSuffixes: site.DevHostSuffixes,
	}
}

// Decide picks the application for host and path. Rules in order: the
// configured admin host, any host with the admin prefix, then the admin path
// but only in a development environment.
func Decide(host, path string, env Env) App {
	h := normalizeHost(host)
	if h != "" && h == normalizeHost(env.AdminHost) {
		return AppAdmin
	}
	if strings.HasPrefix(h, AdminHostPrefix) {
		return AppAdmin
	}
	if env.isDev(h) && hasAdminPath(path) {
		return AppAdmin
	}
	return AppPublic
}

// IsAdmin reports whether Decide selects the admin application.
func IsAdmin(host, path string, env Env) bool {
	return Decide(host, path, env) == AppAdmin
}

// IsDev reports whether host runs in a recognised development environment.
func IsDev(host string, env Env) bool {
	return env.isDev(normalizeHost(host))
}

// StripAdminPrefix removes the development /admin segment so inner admin
// routes look the same in every environment. It is a no-op outside dev.
func StripAdminPrefix(host, path string, env Env) string {
	if !IsDev(host, env) || !hasAdminPath(path) {
		return path
	}
	rest := strings.TrimPrefix(path, AdminPath)
	if rest == "" {
		return "/"
	}
	return rest
}

// BasePath is where admin routes are mounted: /admin in development and the
// domain root on the admin host.
func BasePath(host string, env Env) string {
	h := normalizeHost(host)
	if h == normalizeHost(env.AdminHost) || strings.HasPrefix(h, AdminHostPrefix) {
		return ""
	}
	if env.isDev(h) {
		return AdminPath
	}
	return ""
}

func (e Env) isDev(host string) bool {
	if e.DevMode || devHosts[host] {
		return true
	}
	for _, suffix := range e.DevHostSuffixes {
		suffix = strings.ToLower(strings.TrimSpace(suffix))
		if suffix != "" && strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}

func hasAdminPath(path string) bool {
	return path == AdminPath || strings.HasPrefix(path, AdminPath+"/")
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.Trim(host, "[]")
}
