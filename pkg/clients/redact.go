package clients

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Token and key headers or fields echoed back in error bodies.
	tokenKVRe = regexp.MustCompile(`(?i)\b(x-postmark-(server|account)-token|server[_-]?token|api[_-]?key)\b"?\s*[:=]\s*"?[^\s"',}]+`)
)

// RedactSecrets removes obvious secret-bearing substrings from error/log strings.
func RedactSecrets(s string) string {
	if s == "" {
		return ""
	}
	out := bearerTokenRe.ReplaceAllString(s, "Bearer <redacted>")
	out = tokenKVRe.ReplaceAllString(out, "<redacted_kv>")
	return strings.TrimSpace(out)
}

// Snippet returns a short, single-line, redacted excerpt of body.
func Snippet(body []byte, max int) string {
	if len(body) == 0 {
		return ""
	}
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := RedactSecrets(string(b))
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > max {
		return s + "..."
	}
	return s
}
