package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Stdout receives all user-facing output
var Stdout io.Writer = os.Stdout

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// PrintProposal lists the rendered commands of a batch
func PrintProposal(commands []string) {
	fmt.Fprintln(Stdout, headerStyle.Render("gitmeup proposed commands:"))
	fmt.Fprintln(Stdout)
	for _, c := range commands {
		fmt.Fprintln(Stdout, commandStyle.Render(c))
	}
	fmt.Fprintln(Stdout)
}

// PrintDryRunNotice tells the user nothing was executed
func PrintDryRunNotice() {
	fmt.Fprintln(Stdout, noticeStyle.Render("Dry run. Re-run with --apply to execute these commands."))
}

// PrintExecuting echoes a command right before it runs
func PrintExecuting(command string) {
	fmt.Fprintln(Stdout, commandStyle.Render("> "+command))
}

// PrintCommandOutput shows what an executed command wrote
func PrintCommandOutput(stdout, stderr string) {
	if out := strings.TrimRight(stdout, "\n"); out != "" {
		fmt.Fprintln(Stdout, dimStyle.Render(out))
	}
	if out := strings.TrimRight(stderr, "\n"); out != "" {
		fmt.Fprintln(Stdout, errorStyle.Render(out))
	}
}

// PrintSuccess prints a highlighted success line
func PrintSuccess(message string) {
	fmt.Fprintln(Stdout, successStyle.Render(message))
}

// PrintFailure reports the command that halted an apply run. Its output was
// already shown by PrintCommandOutput.
func PrintFailure(index int, command string, exitCode int) {
	fmt.Fprintln(Stdout)
	fmt.Fprintln(Stdout, errorStyle.Render(fmt.Sprintf("Command %d failed with exit code %d. Aborting.", index, exitCode)))
	fmt.Fprintln(Stdout, errorStyle.Render("  "+command))
}

// PrintFinalStatus prints the repository status after a successful apply
func PrintFinalStatus(status string) {
	fmt.Fprintln(Stdout)
	fmt.Fprintln(Stdout, headerStyle.Render("Final git status:"))
	fmt.Fprintln(Stdout)
	fmt.Fprintln(Stdout, strings.TrimRight(status, "\n"))
	fmt.Fprintln(Stdout)
	fmt.Fprintln(Stdout, "Review your history with:")
	fmt.Fprintln(Stdout, "  git log --oneline --graph --decorate -n 10")
}

// PrintRawOutput dumps advisory output that could not be used
func PrintRawOutput(raw string) {
	fmt.Fprintln(Stdout, noticeStyle.Render("Raw advisory output:"))
	fmt.Fprintln(Stdout, raw)
}

// PrintMessage prints a plain line
func PrintMessage(format string, args ...interface{}) {
	fmt.Fprintf(Stdout, format+"\n", args...)
}
