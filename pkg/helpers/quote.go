package helpers

import (
	"strings"
	"unicode"

	"github.com/MrLemur/gitmeup/internal/errors"
)

// shellMetacharacters must never appear unquoted in a rendered path.
const shellMetacharacters = "*?[]{}()$&;|<>~#!'\"\\`"

// NeedsQuoting reports whether raw contains whitespace, control characters,
// shell metacharacters, or any non-ASCII rune.
func NeedsQuoting(raw string) bool {
	for _, r := range raw {
		if r > unicode.MaxASCII || unicode.IsSpace(r) || unicode.IsControl(r) {
			return true
		}
		if strings.ContainsRune(shellMetacharacters, r) {
			return true
		}
	}
	return false
}

// QuotePath renders raw for the shell. Safe paths are returned unchanged,
// everything else is quoted by QuoteArg.
func QuotePath(raw string) string {
	if !NeedsQuoting(raw) {
		return raw
	}
	return QuoteArg(raw)
}

// UnquotePath strips one layer of quoting when text is wholly wrapped in a
// single well-formed double-quoted, single-quoted or $'...' string. The second
// result is false when text is not such a form, in which case text is returned
// as is.
func UnquotePath(text string) (string, bool) {
	if len(text) < 2 {
		return text, false
	}
	if len(text) >= 3 && strings.HasPrefix(text, "$'") && text[len(text)-1] == '\'' {
		raw, err := UnquoteANSIC(text[2 : len(text)-1])
		if err != nil {
			return text, false
		}
		return raw, true
	}
	first, last := text[0], text[len(text)-1]
	inner := text[1 : len(text)-1]

	switch {
	case first == '\'' && last == '\'':
		if strings.ContainsRune(inner, '\'') {
			return text, false
		}
		return inner, true
	case first == '"' && last == '"':
		var b strings.Builder
		b.Grow(len(inner))
		for i := 0; i < len(inner); i++ {
			c := inner[i]
			switch c {
			case '"', '$', '`':
				// unescaped, so text is not a single quoted string
				return text, false
			case '\\':
				if i+1 == len(inner) {
					return text, false
				}
				next := inner[i+1]
				if strings.IndexByte("\"\\$`", next) >= 0 {
					b.WriteByte(next)
					i++
					continue
				}
				b.WriteByte(c)
			default:
				b.WriteByte(c)
			}
		}
		return b.String(), true
	}
	return text, false
}

// NormalizePath re-derives the canonical shell form of a path token from its
// unquoted value, so quoting supplied upstream is never trusted verbatim.
// NormalizePath(NormalizePath(p)) == NormalizePath(p).
func NormalizePath(text string) (string, error) {
	raw, _ := UnquotePath(text)
	if raw == "" {
		return "", errors.ErrEmptyPath
	}
	return QuotePath(raw), nil
}
