package services

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"
)

// fakeRunner records calls and answers from canned outputs keyed by the
// space-joined argument list.
type fakeRunner struct {
	Queries   [][]string
	Mutations [][]string
	Outputs   map[string]Output
	Errors    map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		Outputs: make(map[string]Output),
		Errors:  make(map[string]error),
	}
}

func (f *fakeRunner) RunQuery(_ context.Context, args ...string) (Output, error) {
	f.Queries = append(f.Queries, args)
	return f.answer(args)
}

func (f *fakeRunner) RunMutation(_ context.Context, args ...string) (Output, error) {
	f.Mutations = append(f.Mutations, args)
	return f.answer(args)
}

func (f *fakeRunner) answer(args []string) (Output, error) {
	key := strings.Join(args, " ")
	if err, ok := f.Errors[key]; ok {
		return Output{ExitCode: -1}, err
	}
	return f.Outputs[key], nil
}

func (f *fakeRunner) calls() int {
	return len(f.Queries) + len(f.Mutations)
}

var testIdentity = []string{
	"GIT_AUTHOR_NAME=Test User",
	"GIT_AUTHOR_EMAIL=test@example.com",
	"GIT_COMMITTER_NAME=Test User",
	"GIT_COMMITTER_EMAIL=test@example.com",
	"GIT_CONFIG_NOSYSTEM=1",
	"GIT_CONFIG_GLOBAL=" + os.DevNull,
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git executable not available")
	}
}

// setupTestRepo initializes a repository with one committed file and returns
// a runner rooted in it.
func setupTestRepo(t *testing.T) (string, *ExecRunner) {
	t.Helper()
	requireGit(t)

	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err, "failed to initialize git repo")

	runner := NewExecRunner(dir)
	runner.Env = testIdentity

	writeFile(t, dir, "initial.txt", "initial content\n")
	gitMust(t, runner, "add", "initial.txt")
	gitMust(t, runner, "commit", "-m", "chore: initial commit")
	return dir, runner
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func gitMust(t *testing.T, runner *ExecRunner, args ...string) string {
	t.Helper()
	out, err := runner.RunMutation(context.Background(), args...)
	require.NoError(t, err)
	require.Equal(t, 0, out.ExitCode, "git %v: %s", args, out.Stderr)
	return out.Stdout
}
