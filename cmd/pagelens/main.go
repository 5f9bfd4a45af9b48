// The main package for the pagelens executable.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/pagelens/pagelens/cmd"
)

// main is the entry point of the application. It defers all execution
// to the Cobra CLI, wired with signal-aware cancellation so serve and
// long analyze runs stop cleanly on SIGINT/SIGTERM.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cmd.ExecuteContext(ctx)
}
