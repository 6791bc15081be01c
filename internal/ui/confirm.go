package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// ConfirmDialog is a Yes/No modal with "No" focused by default.
type ConfirmDialog struct {
	app       *tview.Application
	confirmed bool
}

// NewConfirmDialog builds the modal for message
func NewConfirmDialog(message string) *ConfirmDialog {
	d := &ConfirmDialog{app: tview.NewApplication()}

	modal := tview.NewModal().
		SetText(message).
		AddButtons([]string{"Yes", "No"}).
		SetFocus(1).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			d.confirmed = buttonLabel == "Yes"
			d.app.Stop()
		}).
		SetBackgroundColor(tcell.ColorDefault).
		SetTextColor(tcell.ColorRed)

	d.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC, tcell.KeyEscape:
			d.confirmed = false
			d.app.Stop()
			return nil
		}
		return event
	})
	d.app.SetRoot(modal, true)
	return d
}

// Run shows the dialog until the user answers. A nil screen uses the terminal.
func (d *ConfirmDialog) Run(screen tcell.Screen) (bool, error) {
	if screen != nil {
		d.app.SetScreen(screen)
	}
	if err := d.app.Run(); err != nil {
		return false, fmt.Errorf("confirmation dialog failed: %w", err)
	}
	return d.confirmed, nil
}

// Confirm shows message in a terminal dialog and reports whether the user chose "Yes"
func Confirm(message string) (bool, error) {
	return NewConfirmDialog(message).Run(nil)
}

// ApplyConfirmationMessage is the dialog text shown before an apply run
func ApplyConfirmationMessage(repoRoot string, commands []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d commands will be executed in %s:\n\n", len(commands), repoRoot)
	for _, c := range commands {
		b.WriteString(c)
		b.WriteByte('\n')
	}
	b.WriteString("\n'No' is selected by default. Use Tab to select 'Yes' if you want to proceed.")
	return b.String()
}
