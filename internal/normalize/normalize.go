// Package normalize canonicalizes free-text SQL for equality comparison.
// It is purely textual and never parses SQL: callers must format source
// definitions consistently to avoid false positives from reordered clauses.
package normalize

import (
	"strings"
)

// SQL canonicalizes a SQL fragment: strips line and block comments, removes
// backtick identifier quoting outside string literals, collapses runs of
// whitespace to single spaces, trims, and lowercases. Idempotent.
func SQL(text string) string {
	stripped := stripCommentsAndQuoting(text)
	collapsed := strings.Join(strings.Fields(stripped), " ")
	return strings.ToLower(collapsed)
}

// Equal reports whether two SQL fragments are equal after normalization
func Equal(a, b string) bool {
	return SQL(a) == SQL(b)
}

// stripCommentsAndQuoting removes -- and /* */ comments and backtick
// identifier quoting. Both single- and double-quoted string literals are
// preserved byte for byte, delimiters included; comment markers and
// backticks inside them are not special.
func stripCommentsAndQuoting(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)
	state := stateNormal
	var quote byte

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch state {
		case stateNormal:
			switch {
			case ch == '-' && i+1 < len(text) && text[i+1] == '-':
				state = stateLineComment
				i++
			case ch == '/' && i+1 < len(text) && text[i+1] == '*':
				state = stateBlockComment
				i++
			case ch == '\'' || ch == '"':
				state = stateString
				quote = ch
				out.WriteByte(ch)
			case ch == '`':
				// identifier quoting, dropped
			default:
				out.WriteByte(ch)
			}
		case stateString:
			out.WriteByte(ch)
			switch ch {
			case '\\':
				// backslash escape: keep the next byte verbatim
				if i+1 < len(text) {
					i++
					out.WriteByte(text[i])
				}
			case quote:
				// doubled delimiter stays inside the literal
				if i+1 < len(text) && text[i+1] == quote {
					i++
					out.WriteByte(text[i])
				} else {
					state = stateNormal
				}
			}
		case stateLineComment:
			if ch == '\n' {
				state = stateNormal
				out.WriteByte(ch)
			}
		case stateBlockComment:
			if ch == '*' && i+1 < len(text) && text[i+1] == '/' {
				state = stateNormal
				i++
				// keep the fragments separated
				out.WriteByte(' ')
			}
		}
	}

	return out.String()
}
