package services

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/MrLemur/gitmeup/internal/errors"
	"github.com/MrLemur/gitmeup/internal/models"
	"github.com/MrLemur/gitmeup/pkg/helpers"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// shellLanguages are the fence info strings treated as command blocks.
// An untagged fence counts as well.
var shellLanguages = map[string]bool{
	"bash":  true,
	"sh":    true,
	"shell": true,
	"zsh":   true,
}

// conventionalSubject matches `type(scope)!: description`
var conventionalSubject = regexp.MustCompile(
	`^(feat|fix|docs|refactor|chore|style|test|build|ci|perf|revert)(\([^()\s][^()]*\))?!?: \S.*$`)

var (
	addFlags = map[string]bool{
		"-A": true, "--all": true,
		"-u": true, "--update": true,
		"-N": true, "--intent-to-add": true,
	}
	removeFlags = map[string]bool{
		"--cached": true,
		"-r":       true,
	}
	remoteCommands = map[string]bool{
		"push": true, "pull": true, "fetch": true, "remote": true,
		"clone": true, "send-email": true, "request-pull": true,
	}
)

// ExtractBatch turns a raw advisory response into a validated batch
func ExtractBatch(response string) (models.Batch, error) {
	block, err := ExtractCommandBlock(response)
	if err != nil {
		return nil, err
	}
	batch, err := ParseCommandBlock(block)
	if err != nil {
		return nil, err
	}
	if err := ValidateBatch(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// ExtractCommandBlock returns the content of the single fenced shell block
// in response. Fences tagged with other languages are ignored.
func ExtractCommandBlock(response string) (string, error) {
	source := []byte(response)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var blocks []string
	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		lang := strings.ToLower(string(fenced.Language(source)))
		if lang != "" && !shellLanguages[lang] {
			return ast.WalkSkipChildren, nil
		}

		var content bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			content.Write(line.Value(source))
		}
		blocks = append(blocks, content.String())
		return ast.WalkSkipChildren, nil
	}
	if err := ast.Walk(root, walker); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	switch len(blocks) {
	case 0:
		return "", errors.ErrNoCommandBlock
	case 1:
		return blocks[0], nil
	default:
		return "", errors.Wrapf(errors.ErrMultipleCommandBlocks, "found %d", len(blocks))
	}
}

// ParseCommandBlock parses every command line of block, in order. Blank
// lines and comment lines are skipped; a trailing backslash continues a
// command on the next line. The first invalid line fails the whole block.
func ParseCommandBlock(block string) (models.Batch, error) {
	var batch models.Batch

	lines := strings.Split(strings.ReplaceAll(block, "\r\n", "\n"), "\n")
	for i := 0; i < len(lines); i++ {
		lineNo := i + 1
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for strings.HasSuffix(line, `\`) && !strings.HasSuffix(line, `\\`) && i+1 < len(lines) {
			i++
			line = strings.TrimSuffix(line, `\`) + " " + strings.TrimSpace(lines[i])
		}

		cmd, err := ParseCommandLine(lineNo, line)
		if err != nil {
			return nil, err
		}
		batch = append(batch, cmd)
	}

	if len(batch) == 0 {
		return nil, errors.ErrEmptyProposal
	}
	return batch, nil
}

// ParseCommandLine parses and validates a single proposed command. lineNo is
// reported in the CommandError of an invalid line.
func ParseCommandLine(lineNo int, line string) (models.Command, error) {
	line = strings.TrimSpace(line)
	disallowed := func(reason string, args ...interface{}) error {
		return errors.NewCommandError(lineNo, line, fmt.Sprintf(reason, args...), errors.ErrDisallowedCommand)
	}

	words, err := helpers.SplitCommandLine(line)
	if err != nil {
		return nil, disallowed("%v", err)
	}
	if len(words) == 0 || words[0] != "git" {
		return nil, disallowed("only git commands are allowed")
	}
	if len(words) < 2 {
		return nil, disallowed("missing git subcommand")
	}

	sub, args := words[1], words[2:]
	switch {
	case strings.HasPrefix(sub, "-"):
		return nil, disallowed("git global options are not allowed")
	case remoteCommands[sub]:
		return nil, disallowed("remote-publishing commands are never allowed")
	}

	switch models.Kind(sub) {
	case models.KindAdd:
		flags, paths, err := splitPathArgs(lineNo, line, sub, args, addFlags)
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 && !hasAnyFlag(flags, "-A", "--all", "-u", "--update") {
			return nil, disallowed("git add needs at least one path")
		}
		return &models.Add{Flags: flags, Files: paths}, nil

	case models.KindRemove:
		flags, paths, err := splitPathArgs(lineNo, line, sub, args, removeFlags)
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return nil, disallowed("git rm needs at least one path")
		}
		return &models.Remove{Flags: flags, Files: paths}, nil

	case models.KindMove:
		_, paths, err := splitPathArgs(lineNo, line, sub, args, nil)
		if err != nil {
			return nil, err
		}
		if len(paths) != 2 {
			return nil, disallowed("git mv needs exactly two paths, got %d", len(paths))
		}
		return &models.Move{From: paths[0], To: paths[1]}, nil

	case models.KindCommit:
		return parseCommit(lineNo, line, args)
	}

	return nil, disallowed("git %s is not an allowed command", sub)
}

func splitPathArgs(lineNo int, line, sub string, args []string, allowed map[string]bool) ([]string, []models.PathToken, error) {
	var flags []string
	var paths []models.PathToken
	afterSeparator := false

	for _, arg := range args {
		switch {
		case !afterSeparator && arg == "--":
			afterSeparator = true
		case !afterSeparator && len(arg) > 1 && strings.HasPrefix(arg, "-"):
			if !allowed[arg] {
				return nil, nil, errors.NewCommandError(lineNo, line,
					fmt.Sprintf("option %s is not allowed for git %s", arg, sub), errors.ErrDisallowedCommand)
			}
			flags = append(flags, arg)
		case arg == "":
			return nil, nil, errors.NewCommandError(lineNo, line, "empty path argument", errors.ErrEmptyPath)
		default:
			paths = append(paths, models.PathToken{Raw: arg})
		}
	}
	return flags, paths, nil
}

func hasAnyFlag(flags []string, names ...string) bool {
	for _, f := range flags {
		for _, n := range names {
			if f == n {
				return true
			}
		}
	}
	return false
}

func parseCommit(lineNo int, line string, args []string) (models.Command, error) {
	var messages []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-m" || arg == "--message":
			if i+1 >= len(args) {
				return nil, errors.NewCommandError(lineNo, line, "missing commit message after "+arg, errors.ErrDisallowedCommand)
			}
			i++
			messages = append(messages, args[i])
		case strings.HasPrefix(arg, "--message="):
			messages = append(messages, strings.TrimPrefix(arg, "--message="))
		case strings.HasPrefix(arg, "-m"):
			messages = append(messages, strings.TrimPrefix(arg, "-m"))
		default:
			return nil, errors.NewCommandError(lineNo, line,
				fmt.Sprintf("option %s is not allowed for git commit", arg), errors.ErrDisallowedCommand)
		}
	}
	if len(messages) == 0 {
		return nil, errors.NewCommandError(lineNo, line, "git commit needs a -m message", errors.ErrDisallowedCommand)
	}

	commit := &models.Commit{Message: strings.TrimSpace(messages[0])}
	for _, m := range messages[1:] {
		commit.Body = append(commit.Body, helpers.SanitizeCommitMessage(m))
	}
	if reason := checkCommitMessage(commit); reason != "" {
		return nil, errors.NewCommandError(lineNo, line, reason, errors.ErrMalformedCommitMessage)
	}
	return commit, nil
}

// checkCommitMessage returns why c is not a valid Conventional Commit, or ""
func checkCommitMessage(c *models.Commit) string {
	if strings.ContainsAny(c.Message, "\r\n") {
		return "subject must be a single line"
	}
	if !conventionalSubject.MatchString(c.Message) {
		return fmt.Sprintf("subject %q is not a Conventional Commit (type(scope)!: description)", c.Message)
	}
	for _, paragraph := range c.Body {
		if paragraph == "" {
			return "empty message paragraph"
		}
	}
	return ""
}

// ValidateBatch re-checks a batch that may not come from the extractor:
// every command must be in the allowed vocabulary, every path must render
// to its canonical quoted form, and every commit subject must be well formed.
func ValidateBatch(batch models.Batch) error {
	if len(batch) == 0 {
		return errors.ErrEmptyProposal
	}

	for i, cmd := range batch {
		lineNo := i + 1
		switch c := cmd.(type) {
		case *models.Add, *models.Remove, *models.Move:
		case *models.Commit:
			if reason := checkCommitMessage(c); reason != "" {
				return errors.NewCommandError(lineNo, c.String(), reason, errors.ErrMalformedCommitMessage)
			}
			continue
		default:
			return errors.NewCommandError(lineNo, fmt.Sprintf("%v", cmd), "not an allowed command type", errors.ErrDisallowedCommand)
		}

		for _, p := range cmd.Paths() {
			rendered := p.String()
			normalized, err := helpers.NormalizePath(rendered)
			if err != nil {
				return errors.NewCommandError(lineNo, cmd.String(), "invalid path", err)
			}
			if normalized != rendered {
				return errors.NewCommandError(lineNo, cmd.String(),
					fmt.Sprintf("path %s does not render canonically", rendered), errors.ErrDisallowedCommand)
			}
		}
	}
	return nil
}
