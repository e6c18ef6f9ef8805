// Package sqlguard cleans raw model output and enforces the read-only
// allow-list policy before any SQL reaches the database.
package sqlguard

import "strings"

// Sanitize strips surrounding fenced-code markers (with or without a language
// tag) and whitespace from a raw candidate. The model is instructed not to
// emit fences but may anyway. Idempotent: clean input passes through
// unchanged.
func Sanitize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		rest := trimmed[len("```"):]
		if newline := strings.IndexByte(rest, '\n'); newline >= 0 {
			// Drop the opening fence line together with any language tag.
			trimmed = rest[newline+1:]
		} else {
			trimmed = strings.TrimPrefix(rest, "sql")
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
