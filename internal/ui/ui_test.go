package ui

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runDialog(t *testing.T, keys ...tcell.Key) bool {
	t.Helper()

	d := NewConfirmDialog("2 commands will be executed")
	for _, k := range keys {
		d.app.QueueEvent(tcell.NewEventKey(k, 0, tcell.ModNone))
	}

	type result struct {
		confirmed bool
		err       error
	}
	done := make(chan result, 1)
	go func() {
		confirmed, err := d.Run(tcell.NewSimulationScreen("UTF-8"))
		done <- result{confirmed, err}
	}()

	select {
	case r := <-done:
		require.NoError(t, r.err)
		return r.confirmed
	case <-time.After(5 * time.Second):
		t.Fatal("confirmation dialog did not finish")
		return false
	}
}

func TestConfirmDialogDefaultsToNo(t *testing.T) {
	assert.False(t, runDialog(t, tcell.KeyEnter))
}

func TestConfirmDialogYes(t *testing.T) {
	assert.True(t, runDialog(t, tcell.KeyBacktab, tcell.KeyEnter))
}

func TestConfirmDialogEscapeDeclines(t *testing.T) {
	assert.False(t, runDialog(t, tcell.KeyBacktab, tcell.KeyEscape))
}

func TestApplyConfirmationMessage(t *testing.T) {
	msg := ApplyConfirmationMessage("/repo", []string{"git add -- a.go", `git commit -m "feat: a"`})

	assert.True(t, strings.HasPrefix(msg, "2 commands will be executed in /repo:"))
	assert.Contains(t, msg, "git add -- a.go\n")
	assert.Contains(t, msg, "'No' is selected by default")
}

func TestPrintFunctionsWriteToStdout(t *testing.T) {
	var buf bytes.Buffer
	orig := Stdout
	Stdout = &buf
	defer func() { Stdout = orig }()

	PrintProposal([]string{"git add -- notes.md", `git commit -m "docs: update notes"`})
	PrintDryRunNotice()
	PrintFailure(2, `git commit -m "docs: update notes"`, 1)
	PrintFinalStatus("## main\n")

	out := buf.String()
	assert.Contains(t, out, "gitmeup proposed commands:")
	assert.Contains(t, out, "git add -- notes.md")
	assert.Contains(t, out, "Dry run. Re-run with --apply to execute these commands.")
	assert.Contains(t, out, "Command 2 failed with exit code 1. Aborting.")
	assert.Contains(t, out, "## main")
	assert.Contains(t, out, "git log --oneline --graph --decorate -n 10")
}

func TestLoggerLevels(t *testing.T) {
	var console, file bytes.Buffer

	Log = newLogger(&console, false, &file)
	defer SetupLogging(os.Stderr, false)

	LogDebug("hidden from console")
	LogInfo("visible %d", 1)
	LogShellCommand("git", []string{"status", "--short"}, "/repo")

	assert.NotContains(t, console.String(), "hidden from console")
	assert.Contains(t, console.String(), "visible 1")
	assert.NotContains(t, console.String(), "status --short")

	lines := strings.Split(strings.TrimSpace(file.String()), "\n")
	require.Len(t, lines, 3)
	var event map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &event))
	assert.Equal(t, "debug", event["level"])
	assert.Equal(t, "/repo", event["dir"])
	assert.Equal(t, "$ git status --short", event["message"])
}

func TestVerboseConsoleShowsDebug(t *testing.T) {
	var console bytes.Buffer

	Log = newLogger(&console, true, nil)
	defer SetupLogging(os.Stderr, false)

	LogDebug("now visible")
	assert.Contains(t, console.String(), "now visible")
}

func TestInitDebugLogging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	require.NoError(t, InitDebugLogging(path, false))
	LogWarning("written to file")
	CloseDebugLog()
	SetupLogging(os.Stderr, false)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gitmeup debug logging started")
	assert.Contains(t, string(data), "written to file")
}
