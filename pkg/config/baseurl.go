package config

import (
	"net"
	"strings"
)

const (
	LocalBaseURL      = "http://localhost:3000/api"
	ProductionBaseURL = "https://news-api-w60w.onrender.com/api"
)

// BuildBaseURL is the build-time override, set with
// -ldflags "-X github.com/NewsFlow/pkg/config.BuildBaseURL=https://...".
var BuildBaseURL string

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ResolveBaseURL picks the news backend origin. hostname is the host the site is served
// under; an empty hostname means there is no client context (e.g. a pre-render job).
// Precedence: build-time override, NEWS_API_BASE_URL, PUBLIC_API_BASE_URL, hostname
// sniffing, VERCEL_URL, API_BASE_URL, local dev origin.
func ResolveBaseURL(lookup LookupFunc, hostname string) string {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	env := func(key string) string {
		v, ok := lookup(key)
		if !ok {
			return ""
		}
		return strings.TrimSpace(v)
	}

	if v := strings.TrimSpace(BuildBaseURL); v != "" {
		return trimSlash(v)
	}
	if v := env("NEWS_API_BASE_URL"); v != "" {
		return trimSlash(v)
	}
	if v := env("PUBLIC_API_BASE_URL"); v != "" {
		return trimSlash(v)
	}

	if host := normalizeHost(hostname); host != "" {
		if isLoopback(host) {
			return LocalBaseURL
		}
		return ProductionBaseURL
	}

	if env("VERCEL_URL") != "" {
		return ProductionBaseURL
	}
	if v := env("API_BASE_URL"); v != "" {
		return trimSlash(v)
	}
	return LocalBaseURL
}

func normalizeHost(hostname string) string {
	host := strings.ToLower(strings.TrimSpace(hostname))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.Trim(host, "[]")
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func trimSlash(u string) string {
	return strings.TrimRight(u, "/")
}
