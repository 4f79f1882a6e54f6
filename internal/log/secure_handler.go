package log

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// sensitiveKeys contains attribute keys that should always be sanitized.
// Keys are compared in lower case.
var sensitiveKeys = map[string]bool{
	// RapidAPI
	"x-rapidapi-key":   true,
	"rapidapi_key":     true,
	"rapidapi-key":     true,
	"x-rapidapi-proxy": true,

	// HTTP headers
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"proxy-authorization": true,

	// Generic credentials
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
	"password":      true,
	"secret":        true,
	"token":         true,
	"access_token":  true,
	"session_token": true,

	// AWS
	"aws_secret_access_key": true,
	"aws_session_token":     true,
}

// sensitivePatterns contains regex patterns that indicate sensitive values.
// Values matching these patterns will be sanitized regardless of key name.
var sensitivePatterns = []*regexp.Regexp{
	// RapidAPI keys: 10 hex characters, "msh", a body, "jsn", 12 hex characters
	regexp.MustCompile(`^[0-9a-f]{10}msh[0-9a-z]{15,}jsn[0-9a-f]{12}$`),

	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),

	// Long alphanumeric strings (generic API keys)
	regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`),

	// AWS access keys
	regexp.MustCompile(`^(AKIA|ASIA)[0-9A-Z]{16}$`),
}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// SecureHandler wraps an slog.Handler to sanitize sensitive information.
// It intercepts log records and sanitizes attribute values that match
// sensitive key names or value patterns before passing them to the
// underlying handler. http.Header and *url.URL values are sanitized field
// by field so request diagnostics stay useful without leaking the API key.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// If handler is nil, the returned SecureHandler will use slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it to the underlying handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are sanitized before being added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitizedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitizedAttrs[i] = h.sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitizedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr sanitizes a single attribute, recursively handling groups.
func (h *SecureHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitizedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			sanitizedAttrs[i] = h.sanitizeAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitizedAttrs...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		if isSensitiveValue(a.Value.String()) {
			return slog.String(a.Key, MaskValue)
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case http.Header:
			return slog.Any(a.Key, sanitizeHeader(v))
		case url.Values:
			return slog.String(a.Key, sanitizeValues(v).Encode())
		case *url.URL:
			if v != nil {
				return slog.String(a.Key, sanitizeURL(v))
			}
		}
	}

	return a
}

// isSensitiveKey reports whether a key names a secret.
// The bare word "key" is not treated as sensitive; it matches too many
// harmless names such as "cache_key" or "sort_key".
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if sensitiveKeys[lower] {
		return true
	}
	for _, keyword := range []string{"password", "secret", "token", "credential", "rapidapi-key", "rapidapi_key"} {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue checks if a value matches sensitive patterns.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// sanitizeHeader returns a copy of h with sensitive header values masked.
func sanitizeHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, vs := range h {
		if isSensitiveKey(k) {
			out[k] = []string{MaskValue}
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// sanitizeValues returns a copy of v with sensitive parameters masked.
func sanitizeValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		if isSensitiveKey(k) {
			out[k] = []string{MaskValue}
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// sanitizeURL renders u with user info and sensitive query parameters masked.
func sanitizeURL(u *url.URL) string {
	clone := *u
	if clone.User != nil {
		clone.User = url.User(MaskValue)
	}
	if clone.RawQuery != "" {
		clone.RawQuery = sanitizeValues(clone.Query()).Encode()
	}
	return clone.String()
}

// NewSecureLogger creates a new slog.Logger with secure handling.
// The logger sanitizes sensitive information in all log output.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger creates a new slog.Logger with secure handling
// that outputs JSON format. Useful when the scheduler runs under a log collector.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

// New returns a text or JSON secure logger.
func New(w io.Writer, verbose, jsonFormat bool) *slog.Logger {
	if jsonFormat {
		return NewSecureJSONLogger(w, verbose)
	}
	return NewSecureLogger(w, verbose)
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
