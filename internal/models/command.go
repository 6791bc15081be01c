package models

import (
	"strings"

	"github.com/MrLemur/gitmeup/pkg/helpers"
)

// Kind names a git subcommand in the allowed vocabulary
type Kind string

const (
	KindAdd    Kind = "add"
	KindRemove Kind = "rm"
	KindMove   Kind = "mv"
	KindCommit Kind = "commit"
)

// PathToken is a path argument. Its rendered form is derived from Raw only.
type PathToken struct {
	Raw string `json:"raw"`
}

// NeedsQuoting reports whether the path must be quoted for a shell
func (p PathToken) NeedsQuoting() bool {
	return helpers.NeedsQuoting(p.Raw)
}

// String renders the path for a shell
func (p PathToken) String() string {
	return helpers.QuotePath(p.Raw)
}

// Command is one proposed git invocation
type Command interface {
	Kind() Kind
	// Args is the argv passed to git, without the leading "git"
	Args() []string
	// Paths lists every path argument, in order
	Paths() []PathToken
	// String renders the command as it would be typed in a shell
	String() string
}

// Add stages paths
type Add struct {
	Flags []string
	Files []PathToken
}

// Remove deletes paths from the index (and the worktree unless --cached)
type Remove struct {
	Flags []string
	Files []PathToken
}

// Move renames a tracked path
type Move struct {
	From PathToken
	To   PathToken
}

// Commit records the staged changes. Message is the subject line, Body the
// optional extra paragraphs.
type Commit struct {
	Message string
	Body    []string
}

func (c *Add) Kind() Kind         { return KindAdd }
func (c *Add) Paths() []PathToken { return c.Files }
func (c *Add) Args() []string     { return pathArgs(KindAdd, c.Flags, c.Files) }
func (c *Add) String() string     { return renderPathCommand(KindAdd, c.Flags, c.Files) }

func (c *Remove) Kind() Kind         { return KindRemove }
func (c *Remove) Paths() []PathToken { return c.Files }
func (c *Remove) Args() []string     { return pathArgs(KindRemove, c.Flags, c.Files) }
func (c *Remove) String() string     { return renderPathCommand(KindRemove, c.Flags, c.Files) }

func (c *Move) Kind() Kind         { return KindMove }
func (c *Move) Paths() []PathToken { return []PathToken{c.From, c.To} }
func (c *Move) Args() []string     { return pathArgs(KindMove, nil, c.Paths()) }
func (c *Move) String() string     { return renderPathCommand(KindMove, nil, c.Paths()) }

func (c *Commit) Kind() Kind         { return KindCommit }
func (c *Commit) Paths() []PathToken { return nil }

func (c *Commit) Args() []string {
	args := []string{string(KindCommit), "-m", c.Message}
	for _, paragraph := range c.Body {
		args = append(args, "-m", paragraph)
	}
	return args
}

func (c *Commit) String() string {
	var b strings.Builder
	b.WriteString("git commit -m ")
	b.WriteString(helpers.QuoteArg(c.Message))
	for _, paragraph := range c.Body {
		b.WriteString(" -m ")
		b.WriteString(helpers.QuoteArg(paragraph))
	}
	return b.String()
}

func pathArgs(kind Kind, flags []string, paths []PathToken) []string {
	args := make([]string, 0, len(flags)+len(paths)+2)
	args = append(args, string(kind))
	args = append(args, flags...)
	if len(paths) > 0 {
		args = append(args, "--")
		for _, p := range paths {
			args = append(args, p.Raw)
		}
	}
	return args
}

func renderPathCommand(kind Kind, flags []string, paths []PathToken) string {
	parts := make([]string, 0, len(flags)+len(paths)+3)
	parts = append(parts, "git", string(kind))
	parts = append(parts, flags...)
	if len(paths) > 0 {
		parts = append(parts, "--")
		for _, p := range paths {
			parts = append(parts, p.String())
		}
	}
	return strings.Join(parts, " ")
}

// Batch is an ordered, validated sequence of commands
type Batch []Command

// Render returns the shell form of every command, in order
func (b Batch) Render() []string {
	lines := make([]string, len(b))
	for i, c := range b {
		lines[i] = c.String()
	}
	return lines
}
