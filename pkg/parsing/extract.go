package parsing

import "strings"

// maxNesting bounds the depth tracked by the balanced-region scan. Model
// output deeper than this is garbage, not a payload we want.
const maxNesting = 64

// stripFences removes markdown code-fence markers (``` or ```json) and
// trims surrounding whitespace. Fence content is kept as-is.
func stripFences(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	rest := text
	for {
		i := strings.Index(rest, "```")
		if i < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:i])
		rest = rest[i+3:]
		// A fence opener may carry a language tag up to the next newline.
		// Tags are matched case-insensitively ("json", "JSON", "Json").
		if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
			rest = rest[4:]
		}
	}
	return strings.TrimSpace(b.String())
}

// extractBalanced returns the first balanced {...} or [...] region in text.
// The scan is a single pass that respects string literals and escapes. When
// no balanced region exists (or nesting exceeds maxNesting), ok is false.
//
// Policy: the first balanced region wins. Later candidates in the same text
// are ignored.
func extractBalanced(text string) (region string, ok bool) {
	start := -1
	var open, close byte
	for i := 0; i < len(text); i++ {
		if text[i] == '{' || text[i] == '[' {
			start = i
			open = text[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
			if depth > maxNesting {
				return "", false
			}
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
