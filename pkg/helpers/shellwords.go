package helpers

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// SplitCommandLine tokenizes one line of shell into its decoded words.
// Only a single simple command built from literal words is accepted:
// lists, pipelines, redirections, assignments, and any kind of expansion
// are reported as errors instead of being interpreted.
func SplitCommandLine(line string) ([]string, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash), syntax.KeepComments(false))
	file, err := parser.Parse(strings.NewReader(line), "")
	if err != nil {
		return nil, fmt.Errorf("cannot parse as shell: %v", err)
	}

	switch len(file.Stmts) {
	case 0:
		return nil, fmt.Errorf("no command")
	case 1:
	default:
		return nil, fmt.Errorf("more than one command on a line")
	}

	stmt := file.Stmts[0]
	switch {
	case stmt.Negated, stmt.Background, stmt.Coprocess:
		return nil, fmt.Errorf("command modifiers are not allowed")
	case len(stmt.Redirs) > 0:
		return nil, fmt.Errorf("redirections are not allowed")
	}

	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok {
		return nil, fmt.Errorf("only simple commands are allowed")
	}
	if len(call.Assigns) > 0 {
		return nil, fmt.Errorf("variable assignments are not allowed")
	}

	words := make([]string, 0, len(call.Args))
	for _, w := range call.Args {
		value, err := literalWord(w)
		if err != nil {
			return nil, err
		}
		words = append(words, value)
	}
	return words, nil
}

// literalWord decodes a word made only of literal, single-quoted, $'...' and
// double-quoted parts, applying the shell's own unescaping rules.
func literalWord(w *syntax.Word) (string, error) {
	var b strings.Builder
	for i, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			if i == 0 && strings.HasPrefix(p.Value, "~") {
				return "", fmt.Errorf("tilde expansion is not allowed")
			}
			b.WriteString(unescapeUnquoted(p.Value))
		case *syntax.SglQuoted:
			if p.Dollar {
				raw, err := UnquoteANSIC(p.Value)
				if err != nil {
					return "", err
				}
				b.WriteString(raw)
				continue
			}
			b.WriteString(p.Value)
		case *syntax.DblQuoted:
			if p.Dollar {
				return "", fmt.Errorf("locale quoting is not allowed")
			}
			for _, inner := range p.Parts {
				lit, ok := inner.(*syntax.Lit)
				if !ok {
					return "", fmt.Errorf("expansion inside double quotes is not allowed")
				}
				b.WriteString(unescapeDoubleQuoted(lit.Value))
			}
		default:
			return "", fmt.Errorf("shell expansion is not allowed")
		}
	}
	return b.String(), nil
}

func unescapeUnquoted(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			if s[i] == '\n' {
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unescapeDoubleQuoted(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '"', '\\', '$', '`':
				i++
			case '\n':
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
