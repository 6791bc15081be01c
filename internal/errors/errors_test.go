package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := Wrap(originalErr, "wrapped message")

	assert.True(t, Is(wrappedErr, originalErr))
	assert.Equal(t, "wrapped message: original error", wrappedErr.Error())
}

func TestWrapf(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := Wrapf(originalErr, "wrapped message with %s", "format")

	assert.True(t, Is(wrappedErr, originalErr))
	assert.Equal(t, "wrapped message with format: original error", wrappedErr.Error())
}

func TestGitError(t *testing.T) {
	tests := map[string]struct {
		err      *GitError
		expected string
	}{
		"exit code and stderr": {
			err:      NewGitError([]string{"diff", "--stat"}, 128, "fatal: bad revision\n", nil),
			expected: "git diff --stat failed (exit 128): fatal: bad revision: failed to collect repository context",
		},
		"start failure": {
			err:      NewGitError([]string{"status", "--short"}, 0, "", errors.New("executable file not found")),
			expected: "git status --short failed: executable file not found",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.err.Error())
		})
	}

	assert.True(t, Is(NewGitError([]string{"diff"}, 1, "", nil), ErrCollectionFailed))
}

func TestAdvisoryError(t *testing.T) {
	cause := errors.New("401 Unauthorized")
	err := NewAdvisoryError("openai", "gpt-4.1-mini", cause)

	assert.True(t, Is(err, ErrAdvisoryUnavailable))
	assert.True(t, Is(err, cause))
	assert.Equal(t, `advisory service unavailable (openai model "gpt-4.1-mini"): 401 Unauthorized`, err.Error())
}

func TestCommandError(t *testing.T) {
	err := NewCommandError(3, "git push origin main", "remote-publishing command", ErrDisallowedCommand)

	assert.True(t, Is(err, ErrDisallowedCommand))
	assert.Equal(t, `disallowed command on line 3 "git push origin main": remote-publishing command`, err.Error())

	bare := NewCommandError(0, "", "", ErrEmptyPath)
	assert.Equal(t, "empty path", bare.Error())
}

func TestExecutionError(t *testing.T) {
	err := NewExecutionError(2, `git commit -m "fix: x"`, 1, "nothing to commit", nil)

	assert.True(t, Is(err, ErrCommandExecutionFailed))

	var execErr *ExecutionError
	require.True(t, As(Wrap(err, "apply"), &execErr))
	assert.Equal(t, 2, execErr.Index)
	assert.Equal(t, 1, execErr.ExitCode)
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("provider", "azure", "unknown provider")

	assert.True(t, Is(err, ErrInvalidConfiguration))
	assert.Equal(t, "configuration error for provider = azure: unknown provider: invalid configuration", err.Error())

	err = NewConfigError("api-key", nil, "required for the openai provider")
	assert.Equal(t, "configuration error for api-key: required for the openai provider: invalid configuration", err.Error())
}

func TestExitCode(t *testing.T) {
	tests := map[string]struct {
		err      error
		expected int
	}{
		"nil":                {err: nil, expected: 0},
		"plain error":        {err: errors.New("boom"), expected: 1},
		"execution exit 128": {err: NewExecutionError(1, "git add -- a", 128, "", nil), expected: 128},
		"start failure":      {err: NewExecutionError(1, "git add -- a", -1, "", errors.New("not found")), expected: 1},
		"wrapped execution":  {err: Wrap(NewExecutionError(1, "git add -- a", 2, "", nil), "apply"), expected: 2},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, ExitCode(test.err))
		})
	}
}
