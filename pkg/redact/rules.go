// Package redact removes secrets and personal data from structured trace
// values before they are written anywhere.
package redact

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Marker replaces every redacted value or text fragment
const Marker = "[REDACTED]"

// Pattern is a named content rule
type Pattern struct {
	Name  string
	Regex *regexp.Regexp
}

// CompilePattern compiles a content rule
func CompilePattern(name, expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("failed to compile redaction pattern %q: %w", name, err)
	}
	return Pattern{Name: name, Regex: re}, nil
}

// Rules is an immutable set of key and content rules. Build it once and
// share it by reference.
type Rules struct {
	keys     map[string]struct{}
	patterns []Pattern
}

// DefaultSensitiveKeys are matched case-insensitively against map keys
var DefaultSensitiveKeys = []string{
	"api_key", "apikey", "api-key",
	"secret", "secret_key", "secretkey",
	"password", "passwd", "pwd",
	"token", "access_token", "refresh_token", "auth_token",
	"private_key", "privatekey",
	"client_secret", "clientsecret",
	"bearer",
}

// content rules in priority order
var defaultPatterns = []struct {
	name string
	expr string
}{
	{"api_key", `(?i)(?:\bsk-[\w\-]{16,}|api[_-]?key["']?\s*[:=]\s*["']?[\w\-]{8,})`},
	{"bearer", `(?i)bearer\s+[\w\-.~+/]{8,}=*`},
	{"token", `(?i)(?:token|jwt|auth)["']?\s*[:=]\s*["']?[\w\-.]{16,}`},
	{"password", `(?i)(?:password|passwd|pwd)["']?\s*[:=]\s*["']?[^\s"'\[\]]{6,}`},
	{"email", `\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`},
	{"ssn", `\b\d{3}-\d{2}-\d{4}\b`},
	{"credit_card", `\b\d{4}[\s\-]?\d{4}[\s\-]?\d{4}[\s\-]?\d{4}\b`},
	{"phone", `\b(?:\+\d{1,3}[\s\-]?)?\(?\d{3}\)?[\s\-]?\d{3}[\s\-]?\d{4}\b`},
}

var defaultRules = sync.OnceValue(func() *Rules {
	r := &Rules{keys: make(map[string]struct{}, len(DefaultSensitiveKeys))}
	for _, k := range DefaultSensitiveKeys {
		r.keys[k] = struct{}{}
	}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, Pattern{Name: p.name, Regex: regexp.MustCompile(p.expr)})
	}
	return r
})

// DefaultRules returns the shared built-in rule set
func DefaultRules() *Rules {
	return defaultRules()
}

// With returns a copy of r extended with extra keys and patterns. Extra
// patterns run after the built-in ones. r is left untouched.
func (r *Rules) With(extraKeys []string, extraPatterns []Pattern) *Rules {
	out := &Rules{
		keys:     make(map[string]struct{}, len(r.keys)+len(extraKeys)),
		patterns: make([]Pattern, 0, len(r.patterns)+len(extraPatterns)),
	}
	for k := range r.keys {
		out.keys[k] = struct{}{}
	}
	for _, k := range extraKeys {
		if k = strings.TrimSpace(k); k != "" {
			out.keys[strings.ToLower(k)] = struct{}{}
		}
	}
	out.patterns = append(out.patterns, r.patterns...)
	for _, p := range extraPatterns {
		if p.Regex != nil {
			out.patterns = append(out.patterns, p)
		}
	}
	return out
}

// IsSensitiveKey reports whether values stored under key are always redacted
func (r *Rules) IsSensitiveKey(key string) bool {
	_, ok := r.keys[strings.ToLower(key)]
	return ok
}

// Patterns returns the content rules in the order they are applied
func (r *Rules) Patterns() []Pattern {
	out := make([]Pattern, len(r.patterns))
	copy(out, r.patterns)
	return out
}
