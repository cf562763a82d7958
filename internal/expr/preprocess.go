package expr

import "strings"

// Preprocess implements spec.md §4.3's reference preprocessor: outside
// single-quoted strings, `#id` and `#proto:id` occurrences become 'id'
// / 'proto:id' string literals, so the grammar proper never has to
// treat '#' specially. Done once per expression text; callers are
// expected to cache the parsed AST keyed by schema address rather than
// re-preprocess on every evaluation (spec.md §9).
func Preprocess(src string) string {
	var sb strings.Builder
	inString := false
	runes := []rune(src)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if inString {
			sb.WriteRune(c)
			if c == '\'' {
				inString = false
			}
			continue
		}
		if c == '\'' {
			inString = true
			sb.WriteRune(c)
			continue
		}
		if c == '#' {
			j := i + 1
			for j < len(runes) && (isIdentPart(runes[j]) || runes[j] == ':') {
				j++
			}
			sb.WriteRune('\'')
			sb.WriteString(string(runes[i+1 : j]))
			sb.WriteRune('\'')
			i = j - 1
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}
