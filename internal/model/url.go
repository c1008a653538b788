package model

import (
	"net/url"
	"strings"
)

// SafeURL returns raw and true only for absolute http(s) URLs with a host.
// The URLPlaceholder and every other scheme yield ("", false).
func SafeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == URLPlaceholder {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return raw, true
	}
	return "", false
}
