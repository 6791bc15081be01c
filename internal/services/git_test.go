package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrLemur/gitmeup/internal/errors"
	"github.com/MrLemur/gitmeup/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"diff", "--", ".", ":(exclude,icase)*.png", ":(exclude,icase)*.svg"},
		DiffArgs([]string{"png", ".SVG"}))
	assert.Equal(t, []string{"diff", "--", "."}, DiffArgs(nil))
	assert.Equal(t, []string{"*.png", "*.jpg"}, ExcludedPatterns([]string{"png", " .JPG"}))
}

func TestParseStatusShort(t *testing.T) {
	out := strings.Join([]string{
		" M src/main.go",
		"A  docs/new.md",
		"?? \"my file.txt\"",
		"R  old.md -> docs/renamed.md",
		"R  \"old name.md\" -> \"new name.md\"",
		"?? \"caf\\303\\251.txt\"",
		"",
		"garbage",
	}, "\n")

	entries := ParseStatusShort(out)
	require.Len(t, entries, 6)

	assert.Equal(t, models.StatusEntry{Index: ' ', Worktree: 'M', Path: "src/main.go"}, entries[0])
	assert.Equal(t, "docs/new.md", entries[1].Path)
	assert.Equal(t, "my file.txt", entries[2].Path)
	assert.Equal(t, byte('?'), entries[2].Index)
	assert.Equal(t, byte('?'), entries[2].Worktree)
	assert.Equal(t, "old.md", entries[3].OrigPath)
	assert.Equal(t, "docs/renamed.md", entries[3].Path)
	assert.Equal(t, "old name.md", entries[4].OrigPath)
	assert.Equal(t, "new name.md", entries[4].Path)
	assert.Equal(t, "café.txt", entries[5].Path)
}

func TestCollectContextWithFakeRunner(t *testing.T) {
	tests := map[string]struct {
		outputs     map[string]Output
		errs        map[string]error
		opts        CollectOptions
		expectedErr error
		queries     int
		check       func(t *testing.T, c models.RepoContext)
	}{
		"collects three queries": {
			outputs: map[string]Output{
				"diff --stat":                     {Stdout: " a.go | 2 +-\n"},
				"status --short":                  {Stdout: " M a.go\n?? logo.PNG\n"},
				"diff -- . :(exclude,icase)*.png": {Stdout: "diff --git a/a.go b/a.go\n"},
			},
			opts:    CollectOptions{ExcludedExtensions: []string{"png"}},
			queries: 3,
			check: func(t *testing.T, c models.RepoContext) {
				assert.Equal(t, " a.go | 2 +-\n", c.StatShort)
				assert.Equal(t, " M a.go\n?? logo.PNG\n", c.StatusShort)
				assert.Equal(t, "diff --git a/a.go b/a.go\n", c.DiffBody)
				assert.Equal(t, []string{"*.png"}, c.ExcludedPatterns)
				assert.Equal(t, []string{"logo.PNG"}, c.ExcludedPaths)
				assert.False(t, c.DiffTruncated)
			},
		},
		"truncates long diff": {
			outputs: map[string]Output{
				"status --short": {Stdout: " M a.go\n"},
				"diff -- .":      {Stdout: strings.Repeat("x", 100)},
			},
			opts:    CollectOptions{MaxDiffLength: 10},
			queries: 3,
			check: func(t *testing.T, c models.RepoContext) {
				assert.Equal(t, strings.Repeat("x", 10)+DiffTruncatedMarker, c.DiffBody)
				assert.True(t, c.DiffTruncated)
			},
		},
		"clean tree stops after status": {
			outputs:     map[string]Output{"status --short": {Stdout: "\n"}},
			expectedErr: errors.ErrCleanWorkingTree,
			queries:     2,
		},
		"non-zero exit fails collection": {
			outputs: map[string]Output{
				"diff --stat": {ExitCode: 128, Stderr: "fatal: bad revision"},
			},
			expectedErr: errors.ErrCollectionFailed,
			queries:     1,
		},
		"start failure fails collection": {
			outputs:     map[string]Output{"status --short": {Stdout: " M a.go\n"}},
			errs:        map[string]error{"diff -- .": os.ErrNotExist},
			expectedErr: errors.ErrCollectionFailed,
			queries:     3,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			runner := newFakeRunner()
			for k, v := range test.outputs {
				runner.Outputs[k] = v
			}
			for k, v := range test.errs {
				runner.Errors[k] = v
			}

			c, err := CollectContext(context.Background(), runner, test.opts)
			assert.Len(t, runner.Queries, test.queries)
			assert.Empty(t, runner.Mutations)
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
			test.check(t, c)
		})
	}
}

func TestCollectContextGitErrorDetails(t *testing.T) {
	runner := newFakeRunner()
	runner.Outputs["diff --stat"] = Output{ExitCode: 129, Stderr: "usage: git diff"}

	_, err := CollectContext(context.Background(), runner, CollectOptions{})

	var gitErr *errors.GitError
	require.True(t, errors.As(err, &gitErr))
	assert.Equal(t, []string{"diff", "--stat"}, gitErr.Args)
	assert.Equal(t, 129, gitErr.ExitCode)
	assert.Equal(t, "usage: git diff", gitErr.Stderr)
}

func TestCollectContextRealRepository(t *testing.T) {
	dir, runner := setupTestRepo(t)

	writeFile(t, dir, "initial.txt", "changed content\n")
	writeFile(t, dir, "my file.txt", "new\n")
	writeFile(t, dir, "résumé.md", "cv\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte{0x89, 'P', 'N', 'G'}, 0644))
	gitMust(t, runner, "add", "logo.png")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte{0x89, 'P', 'N', 'G', 0}, 0644))

	c, err := CollectContext(context.Background(), runner, CollectOptions{
		ExcludedExtensions: models.DefaultExcludedExtensions,
		MaxDiffLength:      60000,
	})
	require.NoError(t, err)

	assert.Contains(t, c.StatShort, "initial.txt")
	assert.Contains(t, c.StatusShort, "initial.txt")
	assert.Contains(t, c.StatusShort, "my file.txt")
	assert.Contains(t, c.StatusShort, "résumé.md")
	assert.Contains(t, c.DiffBody, "+changed content")
	assert.NotContains(t, c.DiffBody, "logo.png")
	assert.Equal(t, []string{"logo.png"}, c.ExcludedPaths)
}

func TestCollectContextCleanRealRepository(t *testing.T) {
	_, runner := setupTestRepo(t)

	_, err := CollectContext(context.Background(), runner, CollectOptions{})
	assert.ErrorIs(t, err, errors.ErrCleanWorkingTree)
}

func TestOpenRepository(t *testing.T) {
	dir, _ := setupTestRepo(t)
	sub := filepath.Join(dir, "nested", "deeper")
	require.NoError(t, os.MkdirAll(sub, 0755))

	info, err := OpenRepository(sub)
	require.NoError(t, err)

	expected, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	actual, err := filepath.EvalSymlinks(info.Root)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
	assert.NotEmpty(t, info.Branch)
}

func TestOpenRepositoryNotARepository(t *testing.T) {
	_, err := OpenRepository(t.TempDir())
	assert.ErrorIs(t, err, errors.ErrNotARepository)
}

func TestExecRunnerReportsExitCode(t *testing.T) {
	_, runner := setupTestRepo(t)

	out, err := runner.RunMutation(context.Background(), "rm", "--", "does-not-exist.txt")
	require.NoError(t, err)
	assert.NotEqual(t, 0, out.ExitCode)
	assert.Contains(t, out.Stderr, "did not match any files")
}

func TestExecRunnerCancelled(t *testing.T) {
	_, runner := setupTestRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.RunQuery(ctx, "status", "--short")
	assert.Error(t, err)
}
