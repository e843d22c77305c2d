// internal/service/render.go
package service

import "strings"

// RenderTemplate substitutes {{field}} placeholders with values from fields.
// Substitution is a single left-to-right pass over the template: tokens
// introduced by a replacement value are never expanded again, and unknown
// placeholders are left untouched.
func RenderTemplate(template string, fields map[string]string) string {
	if template == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(template))

	rest := template
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			b.WriteString(rest)
			break
		}

		b.WriteString(rest[:start])
		key := rest[start+2 : start+end]
		if value, ok := fields[key]; ok {
			b.WriteString(value)
		} else {
			b.WriteString(rest[start : start+end+2])
		}
		rest = rest[start+end+2:]
	}
	return b.String()
}
