package models

import "strings"

// KeyPrefix scopes a bucket to the identifier kind it counts.
type KeyPrefix string

const (
	// KeyPrefixIP counts requests per client IP.
	KeyPrefixIP KeyPrefix = "ip"
	// KeyPrefixParticipant counts requests per authenticated address.
	KeyPrefixParticipant KeyPrefix = "participant"
)

// RateLimitKey addresses one bucket: prefix, identifier, and class.
type RateLimitKey struct {
	prefix     KeyPrefix
	identifier string
	class      EndpointClass
}

// NewRateLimitKey builds a bucket key. The identifier is sanitized so
// user-controlled input cannot collide with adjacent buckets.
func NewRateLimitKey(prefix KeyPrefix, identifier string, class EndpointClass) RateLimitKey {
	return RateLimitKey{
		prefix:     prefix,
		identifier: SanitizeKeySegment(identifier),
		class:      class,
	}
}

// String renders the canonical bucket key.
func (k RateLimitKey) String() string {
	return "ratelimit:" + string(k.prefix) + ":" + k.identifier + ":" + string(k.class)
}

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// to prevent key collision attacks where user-controlled identifiers
// containing ':' could manipulate adjacent rate limit buckets.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}
