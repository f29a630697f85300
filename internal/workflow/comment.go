package workflow

import (
	"fmt"
	"regexp"
	"strings"
)

// Only bare variable placeholders are expanded. Filtered variables never
// match and are copied through verbatim.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*\}\}`)

// tagPattern matches {% ... %} spans, which are copied through untouched
// including any placeholders inside them.
var tagPattern = regexp.MustCompile(`(?s)\{%.*?%\}`)

// RenderComment expands {{ ticket.* }} and {{ queue.* }} placeholders in a
// user supplied comment. Unknown placeholders render empty. Substituted values
// are not expanded again.
func RenderComment(raw string, ctx map[string]any) string {
	if !strings.Contains(raw, "{{") {
		return raw
	}
	var b strings.Builder
	last := 0
	for _, span := range tagPattern.FindAllStringIndex(raw, -1) {
		b.WriteString(expandPlaceholders(raw[last:span[0]], ctx))
		b.WriteString(raw[span[0]:span[1]])
		last = span[1]
	}
	b.WriteString(expandPlaceholders(raw[last:], ctx))
	return b.String()
}

func expandPlaceholders(text string, ctx map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := placeholderPattern.FindStringSubmatch(match)
		val, ok := lookup(ctx, strings.Split(sub[1], "."))
		if !ok || val == nil {
			return ""
		}
		if _, nested := val.(map[string]any); nested {
			return ""
		}
		return fmt.Sprint(val)
	})
}
