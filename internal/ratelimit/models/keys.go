package models

import "strings"

// SanitizeKeySegment escapes the key delimiter so a caller-controlled segment
// cannot address a neighbouring bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// IPKey is the bucket key for one client IP on one endpoint class.
func IPKey(class, ip string) string {
	return "ip:" + SanitizeKeySegment(class) + ":" + SanitizeKeySegment(ip)
}
