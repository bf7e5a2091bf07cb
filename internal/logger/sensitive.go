package logger

import (
	"log/slog"
	"regexp"
	"strings"
)

// sensitiveDataPatterns match credentials that must never reach a log line
var sensitiveDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9-._~+/]+=*)`),
	regexp.MustCompile(`(?i)((?:api[_-]?key|access[_-]?token|token|secret|passw(?:or)?d)=)([^&;,\s]+)`),
}

// sensitiveKeywords mark field keys whose values are redacted outright
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "authorization", "api_key", "apikey", "cookie",
}

// RedactSensitiveData replaces credentials embedded in s with "[REDACTED]".
func RedactSensitiveData(s string) string {
	if s == "" {
		return s
	}
	for _, pattern := range sensitiveDataPatterns {
		s = pattern.ReplaceAllString(s, "$1[REDACTED]")
	}
	return s
}

// IsSensitiveKey reports whether a header or field name carries secrets.
func IsSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

// redactAttr masks attributes with sensitive keys and credentials embedded
// in string values.
func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		return a
	}
	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, "[REDACTED]")
	}
	return slog.String(a.Key, RedactSensitiveData(a.Value.String()))
}
