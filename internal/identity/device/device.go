// Package device derives display names and stable fingerprints from
// client user agents. Fingerprints bind issued tokens to a device class
// so the identity edge can log when a participant's secret shows up
// somewhere new.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// Service computes device fingerprints. Disabled instances fingerprint
// nothing, so every comparison degrades to "no drift".
type Service struct {
	enabled bool
}

func NewService(enabled bool) *Service {
	return &Service{enabled: enabled}
}

// ParseUserAgent renders a user agent as a short display name such as
// "Chrome on Intel Mac OS X". Unparseable input still yields a usable
// label; only an empty user agent maps to "Unknown Device".
func ParseUserAgent(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return "Unknown Device"
	}

	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	os := parsed.OSInfo().Name
	if os == "" {
		os = parsed.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}

	return strings.TrimSpace(fmt.Sprintf("%s on %s", browser, os))
}

// ComputeFingerprint hashes the stable parts of a user agent: browser
// name, major version, OS, and platform. Minor and patch versions churn
// on every auto-update and are deliberately excluded.
func (s *Service) ComputeFingerprint(ua string) string {
	if !s.enabled {
		return ""
	}

	parsed := useragent.New(ua)
	browser, version := parsed.Browser()
	major, _, _ := strings.Cut(version, ".")

	seed := strings.Join([]string{browser, major, parsed.OS(), parsed.Platform()}, "|")
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// CompareFingerprints reports whether a stored and a current fingerprint
// match, and whether the difference counts as drift. A missing side is
// not drift: there is nothing to compare against.
func (s *Service) CompareFingerprints(stored, current string) (matched bool, drift bool) {
	if stored == "" || current == "" {
		return false, false
	}
	matched = stored == current
	return matched, !matched
}
