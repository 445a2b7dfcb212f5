// Package redact strips sensitive material from strings before they reach
// logs or error responses: connection strings, bearer tokens, the HMAC
// shared secret and derived signatures, and host names.
package redact

import "regexp"

// Redaction placeholders
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
)

var (
	// Database connection strings with embedded credentials
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql|db|database)://[^@\s]+@`)

	// Secrets, keys and tokens in key=value or key: value form
	secretRegex = regexp.MustCompile(
		`(?i)(secret|token|password|passwd|api[_-]?key|signature)(['"\s:=]+)[A-Za-z0-9_\-.~+/=]{8,}`,
	)

	// Three-part base64url JWT tokens
	jwtRegex = regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`)

	// Long bare hex strings: HMAC signatures and derived key material
	hexRegex = regexp.MustCompile(`\b[0-9a-fA-F]{40,}\b`)

	// Host names with optional ports
	hostPortRegex = regexp.MustCompile(
		`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`,
	)
)

// String redacts all recognized sensitive patterns from the input.
func String(s string) string {
	s = dbConnRegex.ReplaceAllString(s, RedactedCredentialPlaceholder)
	s = secretRegex.ReplaceAllString(s, "${1}${2}"+RedactedKeyPlaceholder)
	s = jwtRegex.ReplaceAllString(s, "[REDACTED_JWT]")
	s = hexRegex.ReplaceAllString(s, RedactedKeyPlaceholder)
	s = hostPortRegex.ReplaceAllString(s, "[REDACTED_HOST]")
	return s
}

// Error redacts an error's message. Returns the empty string for nil.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
