package helpers

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TruncateString truncates a string to the specified length and adds an ellipsis if needed.
// The cut never splits a multi-byte rune.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:runeBoundary(s, maxLen)]
	}
	return s[:runeBoundary(s, maxLen-3)] + "..."
}

// runeBoundary backs cut off to the start of the rune it falls into
func runeBoundary(s string, cut int) int {
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return cut
}

// SanitizeCommitMessage trims a commit message and collapses runs of blank lines
func SanitizeCommitMessage(message string) string {
	message = strings.TrimSpace(message)
	message = strings.ReplaceAll(message, "\r\n", "\n")
	for strings.Contains(message, "\n\n\n") {
		message = strings.ReplaceAll(message, "\n\n\n", "\n\n")
	}
	return message
}

// QuoteArg always quotes s, escaping the characters that stay special inside
// double quotes. Text that is not valid UTF-8 or spans lines is rendered as
// $'...' with \xHH escapes, so every byte survives a round trip.
func QuoteArg(s string) string {
	if !utf8.ValidString(s) || strings.ContainsAny(s, "\n\r") {
		return quoteANSIC(s)
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\\', '$', '`':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}

func quoteANSIC(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 3)
	b.WriteString("$'")
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size == 1, r < 0x20, r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, s[i])
		case r == '\'' || r == '\\':
			b.WriteByte('\\')
			b.WriteByte(s[i])
		default:
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	b.WriteByte('\'')
	return b.String()
}

// UnquoteANSIC decodes the body of a $'...' string. Only the escapes
// QuoteArg produces are accepted: \xHH, \\ and \'.
func UnquoteANSIC(body string) (string, error) {
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\'' {
			return "", fmt.Errorf("unescaped quote in $'...' string")
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 == len(body) {
			return "", fmt.Errorf("dangling backslash in $'...' string")
		}
		i++
		switch body[i] {
		case '\\', '\'':
			b.WriteByte(body[i])
		case 'x':
			if i+2 >= len(body) {
				return "", fmt.Errorf("short \\x escape in $'...' string")
			}
			hi, okHi := unhex(body[i+1])
			lo, okLo := unhex(body[i+2])
			if !okHi || !okLo {
				return "", fmt.Errorf("invalid \\x escape in $'...' string")
			}
			b.WriteByte(hi<<4 | lo)
			i += 2
		default:
			return "", fmt.Errorf("unsupported escape \\%c in $'...' string", body[i])
		}
	}
	return b.String(), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
