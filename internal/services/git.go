package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/MrLemur/gitmeup/internal/errors"
	"github.com/MrLemur/gitmeup/internal/models"
	"github.com/MrLemur/gitmeup/internal/ui"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// DiffTruncatedMarker is appended to a diff body cut at the configured bound
const DiffTruncatedMarker = "\n... [diff truncated]"

// queryConfig keeps read-only output free of path escaping and color codes
var queryConfig = []string{"-c", "core.quotepath=off", "-c", "color.ui=never"}

// Output is the captured result of one git process
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes git in a repository. An error is returned only when the
// process could not be started or was cancelled; a non-zero exit is reported
// through Output.ExitCode.
type Runner interface {
	// RunQuery runs a read-only git command
	RunQuery(ctx context.Context, args ...string) (Output, error)

	// RunMutation runs a git command that changes the index or history
	RunMutation(ctx context.Context, args ...string) (Output, error)
}

// ExecRunner runs the git executable with Dir as its working directory
type ExecRunner struct {
	Dir string
	Env []string
}

// NewExecRunner creates a runner rooted at dir
func NewExecRunner(dir string) *ExecRunner {
	return &ExecRunner{Dir: dir}
}

// RunQuery implements Runner.RunQuery
func (r *ExecRunner) RunQuery(ctx context.Context, args ...string) (Output, error) {
	full := make([]string, 0, len(queryConfig)+len(args))
	full = append(full, queryConfig...)
	full = append(full, args...)
	return r.run(ctx, full)
}

// RunMutation implements Runner.RunMutation
func (r *ExecRunner) RunMutation(ctx context.Context, args ...string) (Output, error) {
	return r.run(ctx, args)
}

func (r *ExecRunner) run(ctx context.Context, args []string) (Output, error) {
	ui.LogShellCommand("git", args, r.Dir)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		out.ExitCode = -1
		return out, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		ui.LogDebug("git exited with code %d", out.ExitCode)
		return out, nil
	}
	out.ExitCode = -1
	return out, fmt.Errorf("failed to start git: %w", err)
}

// OpenRepository locates the repository containing repoPath and resolves its
// worktree root and current branch. The branch is empty on a detached HEAD.
func OpenRepository(repoPath string) (models.RepoInfo, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return models.RepoInfo{}, errors.Wrapf(errors.ErrNotARepository, "%s", repoPath)
		}
		return models.RepoInfo{}, fmt.Errorf("failed to open repository at %s: %w", repoPath, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return models.RepoInfo{}, errors.Wrapf(errors.ErrNotARepository, "%s is a bare repository", repoPath)
		}
		return models.RepoInfo{}, fmt.Errorf("failed to get worktree: %w", err)
	}

	info := models.RepoInfo{Root: wt.Filesystem.Root()}

	// HEAD is read unresolved so an unborn branch still reports its name
	head, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		ui.LogDebug("Could not read HEAD: %v", err)
		return info, nil
	}
	if head.Type() == plumbing.SymbolicReference && head.Target().IsBranch() {
		info.Branch = head.Target().Short()
	}
	return info, nil
}

// CollectOptions bounds what is sent to the advisory service
type CollectOptions struct {
	ExcludedExtensions []string
	MaxDiffLength      int
}

// ExcludedPatterns renders extensions as the glob patterns shown in the prompt
func ExcludedPatterns(extensions []string) []string {
	patterns := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		patterns = append(patterns, "*."+normalizeExtension(ext))
	}
	return patterns
}

// DiffArgs builds the diff query that leaves excluded extensions out
func DiffArgs(extensions []string) []string {
	args := []string{"diff", "--", "."}
	for _, ext := range extensions {
		args = append(args, ":(exclude,icase)*."+normalizeExtension(ext))
	}
	return args
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// CollectContext snapshots the uncommitted changes in the repository. It
// fails with ErrCleanWorkingTree when there is nothing to commit.
func CollectContext(ctx context.Context, runner Runner, opts CollectOptions) (models.RepoContext, error) {
	ui.LogInfo("Collecting repository context...")

	stat, err := runQuery(ctx, runner, "diff", "--stat")
	if err != nil {
		return models.RepoContext{}, err
	}

	status, err := runQuery(ctx, runner, "status", "--short")
	if err != nil {
		return models.RepoContext{}, err
	}
	if strings.TrimSpace(status) == "" {
		return models.RepoContext{}, errors.ErrCleanWorkingTree
	}

	diff, err := runQuery(ctx, runner, DiffArgs(opts.ExcludedExtensions)...)
	if err != nil {
		return models.RepoContext{}, err
	}

	repoCtx := models.RepoContext{
		StatShort:        stat,
		StatusShort:      status,
		DiffBody:         diff,
		ExcludedPatterns: ExcludedPatterns(opts.ExcludedExtensions),
		ExcludedPaths:    excludedPaths(ParseStatusShort(status), opts.ExcludedExtensions),
	}
	if opts.MaxDiffLength > 0 && len(diff) > opts.MaxDiffLength {
		repoCtx.DiffBody = truncateDiff(diff, opts.MaxDiffLength)
		repoCtx.DiffTruncated = true
		ui.LogWarning("Diff truncated from %d to %d characters", len(diff), opts.MaxDiffLength)
	}

	ui.LogDebug("Collected context: %d status lines, %d diff characters",
		strings.Count(status, "\n"), len(repoCtx.DiffBody))
	return repoCtx, nil
}

func runQuery(ctx context.Context, runner Runner, args ...string) (string, error) {
	out, err := runner.RunQuery(ctx, args...)
	if err != nil {
		return "", errors.NewGitError(args, out.ExitCode, out.Stderr, errors.Wrap(errors.ErrCollectionFailed, err.Error()))
	}
	if out.ExitCode != 0 {
		return "", errors.NewGitError(args, out.ExitCode, out.Stderr, nil)
	}
	return out.Stdout, nil
}

func truncateDiff(diff string, maxLen int) string {
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(diff[cut]) {
		cut--
	}
	return diff[:cut] + DiffTruncatedMarker
}

func excludedPaths(entries []models.StatusEntry, extensions []string) []string {
	if len(extensions) == 0 {
		return nil
	}
	excluded := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		excluded[normalizeExtension(ext)] = true
	}

	var paths []string
	for _, e := range entries {
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(e.Path), "."))
		if ext != "" && excluded[ext] {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// ParseStatusShort parses `git status --short` output. C-style quoted paths
// are decoded; malformed lines are skipped.
func ParseStatusShort(out string) []models.StatusEntry {
	var entries []models.StatusEntry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < 4 || line[2] != ' ' {
			continue
		}
		entry := models.StatusEntry{Index: line[0], Worktree: line[1]}
		rest := line[3:]

		first, remainder := readStatusPath(rest)
		if strings.HasPrefix(remainder, " -> ") {
			entry.OrigPath = first
			entry.Path, _ = readStatusPath(strings.TrimPrefix(remainder, " -> "))
		} else {
			entry.Path = first
		}
		if entry.Path == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// readStatusPath reads one path field and returns whatever follows it
func readStatusPath(s string) (string, string) {
	if strings.HasPrefix(s, `"`) {
		for i := 1; i < len(s); i++ {
			switch s[i] {
			case '\\':
				i++
			case '"':
				if unquoted, err := strconv.Unquote(s[:i+1]); err == nil {
					return unquoted, s[i+1:]
				}
				return s[:i+1], s[i+1:]
			}
		}
		return s, ""
	}
	if idx := strings.Index(s, " -> "); idx >= 0 {
		return s[:idx], s[idx:]
	}
	return s, ""
}
