package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrLemur/gitmeup/internal/commands"
	"github.com/MrLemur/gitmeup/internal/errors"
	"github.com/MrLemur/gitmeup/internal/ui"
)

func main() {
	// Ctrl+C cancels the advisory request and any running git process
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := commands.Execute(ctx)
	if err != nil {
		ui.LogError("%v", err)
	}
	stop()
	os.Exit(errors.ExitCode(err))
}
