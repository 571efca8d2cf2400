// Package redaction masks credentials before they reach log output.
// It knows the token shapes a Matrix bot handles: homeserver access tokens,
// bearer headers and access_token query parameters.
package redaction

import (
	"regexp"
	"sync"
)

// Replacement is substituted for every redacted value.
const Replacement = "[REDACTED]"

type pattern struct {
	re *regexp.Regexp
	// group is the submatch to mask; 0 masks the whole match.
	group int
}

var (
	mu       sync.RWMutex
	patterns = builtinPatterns()
)

func builtinPatterns() []pattern {
	return []pattern{
		// Synapse access and refresh tokens.
		{re: regexp.MustCompile(`\b(?:syt|syr)_[A-Za-z0-9_]+_[A-Za-z0-9]+_[A-Za-z0-9]+\b`)},
		// Matrix Authentication Service tokens.
		{re: regexp.MustCompile(`\bmc[at]_[A-Za-z0-9]{20,}(?:_[A-Za-z0-9]+)?\b`)},
		{re: regexp.MustCompile(`(?i)bearer\s+([A-Za-z0-9_\-\.=]{16,})`), group: 1},
		{re: regexp.MustCompile(`(?i)(?:access_token|refresh_token)["']?\s*[=:]\s*["']?([^&"'\s]+)`), group: 1},
	}
}

// AddPattern registers an extra expression whose whole match is masked.
func AddPattern(expr string) error {
	re, err := regexp.Compile(expr)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	patterns = append(patterns, pattern{re: re})
	return nil
}

// Redact returns input with every known credential masked.
func Redact(input string) string {
	if input == "" {
		return input
	}

	mu.RLock()
	defer mu.RUnlock()

	out := input
	for _, p := range patterns {
		if p.group == 0 {
			out = p.re.ReplaceAllString(out, Replacement)
			continue
		}
		out = p.re.ReplaceAllStringFunc(out, func(match string) string {
			loc := p.re.FindStringSubmatchIndex(match)
			if len(loc) < 2*(p.group+1) || loc[2*p.group] < 0 {
				return Replacement
			}
			return match[:loc[2*p.group]] + Replacement + match[loc[2*p.group+1]:]
		})
	}
	return out
}

// RedactFields returns a copy of fields with string values redacted.
func RedactFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			out[k] = Redact(val)
		case error:
			out[k] = Redact(val.Error())
		default:
			out[k] = v
		}
	}
	return out
}
