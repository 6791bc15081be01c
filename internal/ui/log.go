package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Log is the process-wide diagnostic logger. User-facing output goes through
// the Print* functions instead.
var Log = newLogger(os.Stderr, false, nil)

var debugLog *os.File

// levelFilter drops events below min for one writer of a multi-writer.
type levelFilter struct {
	w   io.Writer
	min zerolog.Level
}

func (f levelFilter) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

func (f levelFilter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < f.min {
		return len(p), nil
	}
	return f.w.Write(p)
}

func newLogger(console io.Writer, verbose bool, file io.Writer) zerolog.Logger {
	consoleLevel := zerolog.InfoLevel
	if verbose {
		consoleLevel = zerolog.DebugLevel
	}

	writers := []io.Writer{levelFilter{
		w: zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: "15:04:05",
			NoColor:    os.Getenv("NO_COLOR") != "",
		},
		min: consoleLevel,
	}}
	if file != nil {
		writers = append(writers, levelFilter{w: file, min: zerolog.DebugLevel})
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Logger()
}

// SetupLogging configures the console logger; verbose enables debug output.
func SetupLogging(console io.Writer, verbose bool) {
	var file io.Writer
	if debugLog != nil {
		file = debugLog
	}
	Log = newLogger(console, verbose, file)
}

// InitDebugLogging additionally writes every log event as JSON to path.
func InitDebugLogging(path string, verbose bool) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open debug log %s: %w", path, err)
	}
	debugLog = f
	Log = newLogger(os.Stderr, verbose, f)
	Log.Debug().Time("started", time.Now()).Msg("gitmeup debug logging started")
	return nil
}

// CloseDebugLog flushes and closes the debug log file, if any.
func CloseDebugLog() {
	if debugLog == nil {
		return
	}
	_ = debugLog.Sync()
	_ = debugLog.Close()
	debugLog = nil
}

// LogInfo logs an informational message
func LogInfo(format string, args ...interface{}) {
	Log.Info().Msgf(format, args...)
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	Log.Warn().Msgf(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	Log.Error().Msgf(format, args...)
}

// LogSuccess logs a success message
func LogSuccess(format string, args ...interface{}) {
	Log.Info().Bool("success", true).Msgf(format, args...)
}

// LogDebug logs a message only shown with --verbose or in the debug log
func LogDebug(format string, args ...interface{}) {
	Log.Debug().Msgf(format, args...)
}

// LogShellCommand records an external command before it runs
func LogShellCommand(command string, args []string, dir string) {
	Log.Debug().
		Str("dir", dir).
		Strs("args", args).
		Msgf("$ %s %s", command, strings.Join(args, " "))
}
