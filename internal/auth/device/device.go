// Package device derives human-readable device labels from User-Agent
// strings. The label ends up in audit entry details so a principal reviewing
// the trail can tell their own logins from someone else's.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent turns a raw User-Agent into a short "Browser on OS" label.
// Unknown or empty input degrades to generic placeholders rather than
// failing.
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)

	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	os := ua.OSInfo().Name
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}

	return browser + " on " + os
}
